package trainer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/riverrun/chessrl/chessenv"
	"github.com/riverrun/chessrl/config"
)

func testEnv() chessenv.Environment { return chessenv.NewPseudoLegalEnv() }

func testConfig() config.Config {
	cfg := config.Default()
	cfg.MasterSeed = 11
	cfg.Hidden = []int{8}
	cfg.BatchSize = 4
	cfg.BufferCapacity = 16
	cfg.GamesPerCycle = 2
	cfg.MaxStepsPerGame = 6
	cfg.WorkerCount = 1
	cfg.TargetSyncPeriod = 2
	cfg.CyclesPerCheckpoint = 1
	cfg.MaxCheckpoints = 2
	cfg.BaselineInterval = 1
	cfg.BaselineGamesPerOpponent = 1
	cfg.StagnationPatience = 5
	return cfg
}

func TestRunCycleProducesAReportAndAVersionedCheckpoint(t *testing.T) {
	tr, err := New(testConfig(), t.TempDir(), testEnv)
	require.NoError(t, err)

	report, err := tr.RunCycle(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, report.Metrics.Matchup.Games)
	require.NotNil(t, report.Checkpoint)
	require.Equal(t, 1, report.Checkpoint.Version)

	checkpoints := tr.Checkpoints()
	require.Len(t, checkpoints, 1)
	require.Equal(t, Stopped, tr.State())
}

func TestRunStopsEarlyWhenStopIsCalled(t *testing.T) {
	tr, err := New(testConfig(), t.TempDir(), testEnv)
	require.NoError(t, err)

	tr.Stop()
	runReport, err := tr.Run(context.Background(), 5)
	require.NoError(t, err)
	require.Equal(t, "stopped", runReport.TerminationReason)
	require.Equal(t, 0, runReport.CyclesCompleted)
}

func TestRunCompletesRequestedCyclesAndReportsLatestMetrics(t *testing.T) {
	tr, err := New(testConfig(), t.TempDir(), testEnv)
	require.NoError(t, err)

	runReport, err := tr.Run(context.Background(), 2)
	require.NoError(t, err)
	require.Equal(t, "cycles_completed", runReport.TerminationReason)
	require.Equal(t, 2, runReport.CyclesCompleted)
	require.Equal(t, tr.LatestMetrics(), runReport.LastMetrics)
	require.Len(t, runReport.CheckpointsRetained, 2)
}

func TestLoadCheckpointRestoresAKnownVersion(t *testing.T) {
	tr, err := New(testConfig(), t.TempDir(), testEnv)
	require.NoError(t, err)

	_, err = tr.RunCycle(context.Background())
	require.NoError(t, err)

	require.NoError(t, tr.LoadCheckpoint(1))
	require.Error(t, tr.LoadCheckpoint(99))
}

func TestEvaluateBaselinesTracksStagnationHistory(t *testing.T) {
	tr, err := New(testConfig(), t.TempDir(), testEnv)
	require.NoError(t, err)

	first, err := tr.EvaluateBaselines()
	require.NoError(t, err)
	require.False(t, first.HasPrevious)
	require.Len(t, first.Results, 3)

	second, err := tr.EvaluateBaselines()
	require.NoError(t, err)
	require.True(t, second.HasPrevious)
}
