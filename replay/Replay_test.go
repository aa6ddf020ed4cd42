package replay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"

	"github.com/riverrun/chessrl/timestep"
)

func sampleExperience(action int) timestep.Experience {
	return timestep.Experience{
		State:            timestep.OneHot(0, 4),
		Action:           action,
		Reward:           1.0,
		NextState:        timestep.OneHot(1, 4),
		NextLegalActions: []int{0, 1, 2},
	}
}

func TestUniformRejectsSampleBeforeMinSize(t *testing.T) {
	u, err := NewUniform(UniformConfig{Capacity: 10, BatchSize: 2, MinSize: 4,
		RNG: rand.New(rand.NewSource(1))})
	require.NoError(t, err)

	u.Add(sampleExperience(0))
	_, err = u.Sample(1)
	assert.Error(t, err)
}

func TestUniformEvictsOldestAtCapacity(t *testing.T) {
	u, err := NewUniform(UniformConfig{Capacity: 2, BatchSize: 1, MinSize: 1,
		RNG: rand.New(rand.NewSource(1))})
	require.NoError(t, err)

	u.Add(sampleExperience(0))
	u.Add(sampleExperience(1))
	u.Add(sampleExperience(2))

	assert.Equal(t, 2, u.Size())
	found := map[int]bool{}
	for _, e := range u.entries {
		found[e.Action] = true
	}
	assert.False(t, found[0], "oldest entry should have been evicted")
}

func TestUniformSampleReturnsConfiguredSize(t *testing.T) {
	u, err := NewUniform(UniformConfig{Capacity: 10, BatchSize: 3, MinSize: 3,
		RNG: rand.New(rand.NewSource(42))})
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		u.Add(sampleExperience(i % 3))
	}
	batch, err := u.Sample(3)
	require.NoError(t, err)
	assert.Len(t, batch.Experiences, 3)
	assert.Nil(t, batch.Weights)
}

func TestUniformSampleIsWithoutReplacement(t *testing.T) {
	u, err := NewUniform(UniformConfig{Capacity: 8, BatchSize: 5, MinSize: 5,
		RNG: rand.New(rand.NewSource(9))})
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		u.Add(sampleExperience(i))
	}

	for trial := 0; trial < 50; trial++ {
		batch, err := u.Sample(5)
		require.NoError(t, err)
		seen := map[int]bool{}
		for _, idx := range batch.Indices {
			assert.False(t, seen[idx], "index %d sampled twice", idx)
			seen[idx] = true
		}
	}
}

func TestPrioritizedRejectsBadConfig(t *testing.T) {
	_, err := NewPrioritized(PrioritizedConfig{Capacity: 1, BatchSize: 2})
	assert.Error(t, err)
}

func TestPrioritizedHighPriorityMoreFrequent(t *testing.T) {
	p, err := NewPrioritized(PrioritizedConfig{
		Capacity: 4, BatchSize: 1, MinSize: 1,
		Alpha: 1.0, BetaStart: 0.4, BetaEnd: 1.0, BetaSteps: 1000,
		RNG: rand.New(rand.NewSource(7)),
	})
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		p.Add(sampleExperience(i))
	}
	// Make index 0 overwhelmingly high priority.
	p.UpdatePriorities([]int{0, 1, 2, 3}, []float64{100, 1, 1, 1})

	counts := map[int]int{}
	for i := 0; i < 200; i++ {
		batch, err := p.Sample(1)
		require.NoError(t, err)
		counts[batch.Experiences[0].Action]++
	}
	assert.Greater(t, counts[0], counts[1]+counts[2]+counts[3])
}

func TestPrioritizedWeightsAreNormalized(t *testing.T) {
	p, err := NewPrioritized(PrioritizedConfig{
		Capacity: 4, BatchSize: 4, MinSize: 4,
		Alpha: 0.6, BetaStart: 0.4, BetaEnd: 1.0, BetaSteps: 10,
		RNG: rand.New(rand.NewSource(3)),
	})
	require.NoError(t, err)
	for i := 0; i < 4; i++ {
		p.Add(sampleExperience(i))
	}
	batch, err := p.Sample(4)
	require.NoError(t, err)
	for _, w := range batch.Weights {
		assert.LessOrEqual(t, w, 1.0+1e-9)
		assert.Greater(t, w, 0.0)
	}
}

func TestPrioritizedBetaAnneals(t *testing.T) {
	p, err := NewPrioritized(PrioritizedConfig{
		Capacity: 4, BatchSize: 1, MinSize: 1,
		Alpha: 0.6, BetaStart: 0.4, BetaEnd: 1.0, BetaSteps: 2,
		RNG: rand.New(rand.NewSource(3)),
	})
	require.NoError(t, err)
	for i := 0; i < 4; i++ {
		p.Add(sampleExperience(i))
	}
	assert.Equal(t, 0.4, p.beta())
	p.Sample(1)
	assert.InDelta(t, 0.7, p.beta(), 1e-9)
	p.Sample(1)
	assert.Equal(t, 1.0, p.beta())
}

func TestSampleBoundaryBehaviors(t *testing.T) {
	u, err := NewUniform(UniformConfig{Capacity: 8, BatchSize: 2, MinSize: 2,
		RNG: rand.New(rand.NewSource(6))})
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		u.Add(sampleExperience(i))
	}

	batch, err := u.Sample(0)
	require.NoError(t, err)
	assert.Empty(t, batch.Experiences)

	_, err = u.Sample(4) // k > size
	assert.Error(t, err)
}

func TestClearEmptiesBothVariants(t *testing.T) {
	u, err := NewUniform(UniformConfig{Capacity: 4, BatchSize: 1, MinSize: 1,
		RNG: rand.New(rand.NewSource(8))})
	require.NoError(t, err)
	u.Add(sampleExperience(0))
	u.Add(sampleExperience(1))
	u.Clear()
	assert.Equal(t, 0, u.Size())
	assert.Equal(t, 4, u.Capacity())
	_, err = u.Sample(1)
	assert.Error(t, err)

	p, err := NewPrioritized(PrioritizedConfig{
		Capacity: 4, BatchSize: 1, MinSize: 1,
		Alpha: 0.6, BetaStart: 0.4, BetaEnd: 1.0, BetaSteps: 10,
		RNG: rand.New(rand.NewSource(8)),
	})
	require.NoError(t, err)
	p.Add(sampleExperience(0))
	p.UpdatePriorities([]int{0}, []float64{5})
	p.Clear()
	assert.Equal(t, 0, p.Size())
	assert.Zero(t, p.tree.total())
	_, err = p.Sample(1)
	assert.Error(t, err)
}

func TestSumTreeFindRespectsWeights(t *testing.T) {
	tree := newSumTree(4)
	tree.set(0, 1)
	tree.set(1, 10)
	tree.set(2, 1)
	tree.set(3, 1)

	leaf, _ := tree.find(1.5)
	assert.Equal(t, 1, leaf)
}
