package dqn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"

	"github.com/riverrun/chessrl/exploration"
	"github.com/riverrun/chessrl/network"
	"github.com/riverrun/chessrl/replay"
	"github.com/riverrun/chessrl/timestep"
)

func testNetworkConfig(doubleDQN bool) network.Config {
	return network.Config{
		Features:    4,
		Outputs:     3,
		BatchSize:   2,
		Hidden:      []int{8},
		Activations: []*network.Activation{network.ReLU()},
		LearnRate:   1e-2,
		DoubleDQN:   doubleDQN,
	}
}

func testExperience(action int, done bool) timestep.Experience {
	e := timestep.Experience{
		State:            timestep.OneHot(0, 4),
		Action:           action,
		Reward:           1.0,
		NextLegalActions: []int{0, 1, 2},
	}
	if !done {
		e.NextState = timestep.OneHot(1, 4)
	} else {
		e.Done = true
	}
	return e
}

func newTestAlgorithm(t *testing.T, doubleDQN bool) *Algorithm {
	t.Helper()
	buf, err := replay.NewUniform(replay.UniformConfig{
		Capacity: 10, BatchSize: 2, MinSize: 2, RNG: rand.New(rand.NewSource(1)),
	})
	require.NoError(t, err)

	a, err := New(Config{
		Network:          testNetworkConfig(doubleDQN),
		Replay:           buf,
		Explore:          exploration.NewEpsilonGreedy(0.1, rand.New(rand.NewSource(1))),
		Gamma:            0.9,
		TargetSyncPeriod: 2,
		Tau:              1.0,
	})
	require.NoError(t, err)
	return a
}

func TestUpdateReturnsInsufficientSamplesBeforeMinSize(t *testing.T) {
	a := newTestAlgorithm(t, false)
	a.Observe(testExperience(0, false))
	_, err := a.Update()
	assert.Error(t, err)
}

func TestUpdateProducesFiniteLoss(t *testing.T) {
	a := newTestAlgorithm(t, false)
	a.Observe(testExperience(0, false))
	a.Observe(testExperience(1, true))

	result, err := a.Update()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, result.Loss, 0.0)
	assert.Equal(t, 1, result.GradientStep)
}

func TestUpdateWithDoubleDQNProducesFiniteLoss(t *testing.T) {
	a := newTestAlgorithm(t, true)
	a.Observe(testExperience(0, false))
	a.Observe(testExperience(1, true))

	result, err := a.Update()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, result.Loss, 0.0)
}

func TestSelectActionReturnsLegalAction(t *testing.T) {
	a := newTestAlgorithm(t, false)
	action, err := a.SelectAction(timestep.OneHot(0, 4), []int{0, 2})
	require.NoError(t, err)
	assert.Contains(t, []int{0, 2}, action)
}

func TestGradientStepsCountAcrossSyncPeriod(t *testing.T) {
	a := newTestAlgorithm(t, false)
	for i := 0; i < 2; i++ {
		a.Observe(testExperience(i%3, false))
	}
	_, err := a.Update()
	require.NoError(t, err)
	assert.Equal(t, 1, a.GradientSteps())

	for i := 0; i < 2; i++ {
		a.Observe(testExperience(i%3, false))
	}
	_, err = a.Update()
	require.NoError(t, err)
	assert.Equal(t, 2, a.GradientSteps())
}
