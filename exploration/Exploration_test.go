package exploration

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
)

func TestEpsilonGreedyGreedyWhenZero(t *testing.T) {
	p := NewEpsilonGreedy(0.0, rand.New(rand.NewSource(1)))
	values := []float64{0.1, 0.9, 0.4}
	legal := []int{0, 1, 2}
	for i := 0; i < 20; i++ {
		a, err := p.Select(values, legal)
		require.NoError(t, err)
		assert.Equal(t, 1, a)
	}
}

func TestEpsilonGreedyRestrictedToLegalActions(t *testing.T) {
	p := NewEpsilonGreedy(1.0, rand.New(rand.NewSource(1)))
	values := []float64{0.1, 0.9, 0.4}
	legal := []int{0, 2}
	for i := 0; i < 20; i++ {
		a, err := p.Select(values, legal)
		require.NoError(t, err)
		assert.Contains(t, legal, a)
	}
}

func TestEpsilonGreedyRejectsEmptyLegalActions(t *testing.T) {
	p := NewEpsilonGreedy(0.1, rand.New(rand.NewSource(1)))
	a, err := p.Select([]float64{1, 2}, nil)
	assert.Error(t, err)
	assert.Equal(t, NoMove, a)
}

func TestSetRateUpdatesEpsilon(t *testing.T) {
	p := NewEpsilonGreedy(0.1, rand.New(rand.NewSource(1)))
	p.SetRate(0.5)
	assert.Equal(t, 0.5, p.Rate())
}

func TestBoltzmannRestrictedToLegalActions(t *testing.T) {
	p := NewBoltzmann(1.0, rand.NewSource(2))
	values := []float64{1, 2, 3, 4}
	legal := []int{1, 3}
	for i := 0; i < 20; i++ {
		a, err := p.Select(values, legal)
		require.NoError(t, err)
		assert.Contains(t, legal, a)
	}
}

func TestBoltzmannRejectsNonPositiveTemperature(t *testing.T) {
	p := NewBoltzmann(0, rand.NewSource(2))
	_, err := p.Select([]float64{1, 2}, []int{0, 1})
	assert.Error(t, err)
}

func TestBoltzmannLowTemperatureConcentratesOnBestAction(t *testing.T) {
	p := NewBoltzmann(0.01, rand.NewSource(5))
	values := []float64{0, 10, 0}
	legal := []int{0, 1, 2}
	counts := map[int]int{}
	for i := 0; i < 50; i++ {
		a, err := p.Select(values, legal)
		require.NoError(t, err)
		counts[a]++
	}
	assert.Greater(t, counts[1], counts[0]+counts[2])
}
