package validator

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/riverrun/chessrl/config"
	"github.com/riverrun/chessrl/errkind"
	"github.com/riverrun/chessrl/selfplay"
)

// Fixed classification boundaries: the slope cutoffs between
// LEARNING/SLOW_IMPROVEMENT/STAGNANT/DECLINING and the stability
// cutoff that flags UNSTABLE regardless of slope.
const (
	strongSlope     = 0.01
	flatSlope       = 0.001
	unstableCutoff  = 0.5
	convergedStable = 0.95
)

// Config configures a Validator. Thresholds and the cycle counters
// mirror config.Config's validator fields so a Trainer can build one
// directly from its loaded configuration.
type Config struct {
	WindowSize         int
	Thresholds         config.IssueThresholds
	StagnationPatience int
	BaselinePatience   int // baselines without improvement before shouldStop
}

func (c Config) validate() error {
	if c.WindowSize < 2 {
		return errkind.New("validator.Config.validate", errkind.InvalidConfiguration,
			fmt.Errorf("window size must be >= 2, got %d", c.WindowSize))
	}
	if c.StagnationPatience < 1 {
		return errkind.New("validator.Config.validate", errkind.InvalidConfiguration,
			fmt.Errorf("stagnation patience must be >= 1, got %d", c.StagnationPatience))
	}
	if c.BaselinePatience < 1 {
		return errkind.New("validator.Config.validate", errkind.InvalidConfiguration,
			fmt.Errorf("baseline patience must be >= 1, got %d", c.BaselinePatience))
	}
	return nil
}

// Report is the validator's per-cycle verdict.
type Report struct {
	IsValid         bool
	ShouldStop      bool
	LearningStatus  LearningStatus
	Issues          []Issue
	Recommendations []string
}

// Validator tracks per-cycle performance scores, gradient/loss/entropy
// history, and baseline evaluations, classifying training health and
// recommending early stopping.
type Validator struct {
	cfg Config

	scores    []float64
	losses    []float64
	gradNorms []float64
	entropies []float64
	winRates  []float64

	stagnationCycles int

	baselineHistory []float64
}

// New builds a Validator from cfg.
func New(cfg Config) (*Validator, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Validator{cfg: cfg}, nil
}

func window(xs []float64, size int) []float64 {
	if len(xs) <= size {
		return xs
	}
	return xs[len(xs)-size:]
}

// Observe folds one cycle's metrics into the validator's history and
// returns the resulting health report.
func (v *Validator) Observe(metrics selfplay.TrainingCycleMetrics) Report {
	v.scores = append(v.scores, metrics.Matchup.OnlineWinRate())
	v.losses = append(v.losses, metrics.MeanLoss)
	v.gradNorms = append(v.gradNorms, metrics.MeanGradNorm)
	v.entropies = append(v.entropies, metrics.PolicyEntropy)
	v.winRates = append(v.winRates, metrics.Matchup.OnlineWinRate())

	status := v.classify()
	issues := v.detectIssues(metrics)

	critical := false
	for _, issue := range issues {
		if issue == Critical {
			critical = true
		}
	}

	if status == Stagnant {
		v.stagnationCycles++
	} else {
		v.stagnationCycles = 0
	}

	noBaselineImprovement := v.baselineStagnant()
	shouldStop := critical || (v.stagnationCycles > v.cfg.StagnationPatience && noBaselineImprovement)

	return Report{
		IsValid:         !critical,
		ShouldStop:      shouldStop,
		LearningStatus:  status,
		Issues:          issues,
		Recommendations: recommend(status, issues, shouldStop),
	}
}

// classify computes the OLS slope and stability of the performance
// score over the sliding window and buckets the result.
func (v *Validator) classify() LearningStatus {
	w := window(v.scores, v.cfg.WindowSize)
	if len(w) < 2 {
		return InsufficientData
	}

	xs := make([]float64, len(w))
	for i := range xs {
		xs[i] = float64(i)
	}
	_, slope := stat.LinearRegression(xs, w, nil, false)

	mean := stat.Mean(w, nil)
	stddev := stat.StdDev(w, nil)
	stability := 1.0
	if mean != 0 {
		stability = 1.0 / (1.0 + stddev/math.Abs(mean))
	} else if stddev > 0 {
		stability = 1.0 / (1.0 + stddev)
	}

	switch {
	case !isFinite(slope) || !isFinite(stability):
		return Unstable
	case stability < unstableCutoff:
		return Unstable
	case stability > convergedStable && math.Abs(slope) <= flatSlope:
		return Stagnant
	case slope > strongSlope:
		return Learning
	case slope > flatSlope:
		return SlowImprovement
	case slope < -flatSlope:
		return Declining
	default:
		return Stagnant
	}
}

// detectIssues checks the current cycle (and, for the variance-based
// checks, its trailing window) against cfg.Thresholds.
func (v *Validator) detectIssues(metrics selfplay.TrainingCycleMetrics) []Issue {
	var issues []Issue

	if !isFinite(metrics.MeanLoss) || !isFinite(metrics.MeanGradNorm) || !isFinite(metrics.MeanTDError) {
		issues = append(issues, Critical)
	}

	t := v.cfg.Thresholds
	if t.GradientHigh > 0 && metrics.MeanGradNorm > t.GradientHigh {
		issues = append(issues, ExplodingGradients)
	}
	if t.GradientLow > 0 && metrics.MeanGradNorm < t.GradientLow {
		issues = append(issues, VanishingGradients)
	}
	if t.EntropyLow > 0 && metrics.PolicyEntropy < t.EntropyLow {
		issues = append(issues, PolicyCollapse)
	}

	lossWindow := window(v.losses, v.cfg.WindowSize)
	if t.LossHigh > 0 && len(lossWindow) >= 2 {
		mean := stat.Mean(lossWindow, nil)
		stddev := stat.StdDev(lossWindow, nil)
		if mean > 0 && stddev > mean*0.5 {
			issues = append(issues, NumericalInstability)
		}
	}

	winWindow := window(v.winRates, v.cfg.WindowSize)
	if t.WinrateLow > 0 && len(winWindow) >= v.cfg.WindowSize {
		mean := stat.Mean(winWindow, nil)
		stddev := stat.StdDev(winWindow, nil)
		if mean < t.WinrateLow && stddev < 1e-9 {
			issues = append(issues, ExplorationInsufficient)
		}
	}

	return issues
}

// RecordBaseline folds a baseline aggregate score into history and
// reports the delta versus the previous baseline; the first call never
// counts as an improvement, since there is nothing to improve on.
func (v *Validator) RecordBaseline(score float64) (delta float64, hasPrevious bool) {
	if len(v.baselineHistory) > 0 {
		delta = score - v.baselineHistory[len(v.baselineHistory)-1]
		hasPrevious = true
	}
	v.baselineHistory = append(v.baselineHistory, score)
	return delta, hasPrevious
}

// baselineStagnant reports whether the last cfg.BaselinePatience
// baselines show no improvement over the one preceding them.
func (v *Validator) baselineStagnant() bool {
	n := len(v.baselineHistory)
	if n <= v.cfg.BaselinePatience {
		return false
	}
	reference := v.baselineHistory[n-v.cfg.BaselinePatience-1]
	for i := n - v.cfg.BaselinePatience; i < n; i++ {
		if v.baselineHistory[i] > reference {
			return false
		}
	}
	return true
}

func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

func recommend(status LearningStatus, issues []Issue, shouldStop bool) []string {
	var out []string
	for _, issue := range issues {
		switch issue {
		case Critical:
			out = append(out, "non-finite metric detected; halt and inspect the last checkpoint before resuming")
		case ExplodingGradients:
			out = append(out, "gradient norm exceeds the configured ceiling; lower the learning rate or enable gradient clipping")
		case VanishingGradients:
			out = append(out, "gradient norm has collapsed; check for saturated activations or an overly small learning rate")
		case PolicyCollapse:
			out = append(out, "policy entropy is low; increase exploration rate or temperature")
		case NumericalInstability:
			out = append(out, "loss variance is high relative to its mean; consider Huber loss or gradient clipping")
		case ExplorationInsufficient:
			out = append(out, "win rate is flat and low; widen exploration or increase games per cycle")
		}
	}
	switch status {
	case Stagnant:
		out = append(out, "performance score has plateaued; consider adjusting exploration or target sync period")
	case Declining:
		out = append(out, "performance score is trending downward; inspect recent checkpoints for regression")
	}
	if shouldStop {
		out = append(out, "stopping criteria met: stop the run and promote the best checkpoint")
	}
	return out
}
