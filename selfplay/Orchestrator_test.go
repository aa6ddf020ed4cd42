package selfplay

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"

	"github.com/riverrun/chessrl/chessenv"
	"github.com/riverrun/chessrl/codec"
	"github.com/riverrun/chessrl/dqn"
	"github.com/riverrun/chessrl/exploration"
	"github.com/riverrun/chessrl/network"
	"github.com/riverrun/chessrl/replay"
	"github.com/riverrun/chessrl/seed"
)

func testAlgorithm(t *testing.T) *dqn.Algorithm {
	t.Helper()
	netCfg := network.Config{
		Features:    codec.FeatureWidth,
		Outputs:     codec.NumActions,
		BatchSize:   4,
		Hidden:      []int{16},
		Activations: []*network.Activation{network.ReLU()},
		LearnRate:   1e-3,
	}
	buf, err := replay.NewUniform(replay.UniformConfig{
		Capacity:  64,
		BatchSize: 4,
		MinSize:   4,
		RNG:       rand.New(rand.NewSource(1)),
	})
	require.NoError(t, err)

	algo, err := dqn.New(dqn.Config{
		Network:          netCfg,
		Replay:           buf,
		Explore:          exploration.NewEpsilonGreedy(0.5, rand.New(rand.NewSource(2))),
		Gamma:            0.9,
		TargetSyncPeriod: 2,
		Tau:              1.0,
	})
	require.NoError(t, err)
	return algo
}

func testOrchestrator(t *testing.T, usePool bool, pool *OpponentPool) *Orchestrator {
	t.Helper()
	fabric := seed.New()
	require.NoError(t, fabric.Initialize(7))

	cfg := Config{
		EnvFactory: func() chessenv.Environment {
			return chessenv.NewPseudoLegalEnv()
		},
		Explore: func(rng *rand.Rand) exploration.Policy {
			return exploration.NewEpsilonGreedy(0.5, rng)
		},
		Seeds:           fabric,
		WorkerCount:     2,
		GamesPerCycle:   3,
		MaxStepsPerGame: 4,
		UsePool:         usePool,
	}
	o, err := New(cfg, testAlgorithm(t), pool)
	require.NoError(t, err)
	return o
}

func TestRunCycleProducesMatchupStatsAndMetrics(t *testing.T) {
	o := testOrchestrator(t, false, nil)
	metrics, err := o.RunCycle(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3, metrics.Matchup.Games)
	require.Equal(t, 1, metrics.Cycle)
	require.Equal(t, 1, o.Cycle())
	require.Len(t, o.History(), 1)
}

func TestRunCycleWithOpponentPool(t *testing.T) {
	pool, err := NewOpponentPool(2, SampleUniform, 0, rand.New(rand.NewSource(3)))
	require.NoError(t, err)

	o := testOrchestrator(t, true, pool)
	require.NoError(t, pool.Add(1, o.algorithm.Network()))

	metrics, err := o.RunCycle(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3, metrics.Matchup.Games)
}

func TestStopHaltsFurtherGames(t *testing.T) {
	o := testOrchestrator(t, false, nil)
	o.Stop()
	require.True(t, o.Stopped())

	metrics, err := o.RunCycle(context.Background())
	require.NoError(t, err)
	require.Equal(t, 0, metrics.Matchup.Games)
}

func TestDistributeSplitsEvenly(t *testing.T) {
	require.Equal(t, []int{2, 2, 1}, distribute(5, 3))
	require.Equal(t, []int{3, 3, 3}, distribute(9, 3))
}

func TestOpponentPoolSamplingModes(t *testing.T) {
	netCfg := network.Config{
		Features: 4, Outputs: 3, BatchSize: 1,
		Hidden: []int{4}, Activations: []*network.Activation{network.ReLU()}, LearnRate: 1e-3,
	}
	w, err := network.New(netCfg)
	require.NoError(t, err)

	pool, err := NewOpponentPool(2, SampleMostRecentK, 1, rand.New(rand.NewSource(4)))
	require.NoError(t, err)
	require.NoError(t, pool.Add(1, w))
	require.NoError(t, pool.Add(2, w))
	require.NoError(t, pool.Add(3, w)) // evicts version 1

	require.Equal(t, 2, pool.Size())
	entry, ok := pool.Sample()
	require.True(t, ok)
	require.Equal(t, 3, entry.Version) // most-recent-1 always returns the newest
}
