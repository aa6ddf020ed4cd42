package validator

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/riverrun/chessrl/config"
	"github.com/riverrun/chessrl/selfplay"
)

func cycleWithWinRate(cycle int, winRate, loss, gradNorm, entropy float64) selfplay.TrainingCycleMetrics {
	matchup := selfplay.MatchupStats{}
	games := 10
	wins := int(winRate * float64(games))
	for i := 0; i < games; i++ {
		matchup.Record(selfplay.GameOutcome{
			OnlineIsWhite: true,
			WhiteWon:      i < wins,
			Drawn:         i >= wins,
			Plies:         20,
		})
	}
	return selfplay.TrainingCycleMetrics{
		Cycle: cycle, MeanLoss: loss, MeanGradNorm: gradNorm, PolicyEntropy: entropy,
		Matchup: matchup,
	}
}

func defaultConfig() Config {
	return Config{
		WindowSize: 5,
		Thresholds: config.IssueThresholds{
			GradientHigh: 10, GradientLow: 1e-4, EntropyLow: 0.1, LossHigh: 1, WinrateLow: 0.05,
		},
		StagnationPatience: 2,
		BaselinePatience:   2,
	}
}

func TestObserveReportsInsufficientDataUntilWindowFills(t *testing.T) {
	v, err := New(defaultConfig())
	require.NoError(t, err)

	report := v.Observe(cycleWithWinRate(1, 0.1, 0.5, 1.0, 1.0))
	require.Equal(t, InsufficientData, report.LearningStatus)
}

func TestObserveDetectsLearningTrend(t *testing.T) {
	v, err := New(defaultConfig())
	require.NoError(t, err)

	var report Report
	for i := 0; i < 6; i++ {
		report = v.Observe(cycleWithWinRate(i, 0.1+float64(i)*0.1, 0.5, 1.0, 1.0))
	}
	require.Equal(t, Learning, report.LearningStatus)
}

func TestObserveDetectsExplodingGradients(t *testing.T) {
	v, err := New(defaultConfig())
	require.NoError(t, err)

	report := v.Observe(cycleWithWinRate(1, 0.2, 0.5, 50.0, 1.0))
	require.Contains(t, report.Issues, ExplodingGradients)
}

func TestObserveDetectsPolicyCollapse(t *testing.T) {
	v, err := New(defaultConfig())
	require.NoError(t, err)

	report := v.Observe(cycleWithWinRate(1, 0.2, 0.5, 1.0, 0.01))
	require.Contains(t, report.Issues, PolicyCollapse)
}

func TestObserveFlagsCriticalOnNonFiniteMetric(t *testing.T) {
	v, err := New(defaultConfig())
	require.NoError(t, err)

	report := v.Observe(cycleWithWinRate(1, 0.2, math.NaN(), 1.0, 1.0))
	require.Contains(t, report.Issues, Critical)
	require.True(t, report.ShouldStop)
	require.False(t, report.IsValid)
}

func TestRecordBaselineFirstCallHasNoPrevious(t *testing.T) {
	v, err := New(defaultConfig())
	require.NoError(t, err)

	delta, hasPrevious := v.RecordBaseline(0.5)
	require.False(t, hasPrevious)
	require.Zero(t, delta)

	delta, hasPrevious = v.RecordBaseline(0.6)
	require.True(t, hasPrevious)
	require.InDelta(t, 0.1, delta, 1e-9)
}

func TestBaselineStagnationGatesEarlyStopping(t *testing.T) {
	v, err := New(defaultConfig())
	require.NoError(t, err)

	v.RecordBaseline(0.5)
	v.RecordBaseline(0.5)
	v.RecordBaseline(0.4)

	require.True(t, v.baselineStagnant())
}

func TestConfigValidateRejectsBadWindow(t *testing.T) {
	cfg := defaultConfig()
	cfg.WindowSize = 1
	_, err := New(cfg)
	require.Error(t, err)
}
