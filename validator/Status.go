// Package validator gates training cycles: an OLS trend classifier
// over per-cycle performance scores, convergence/stability detection,
// weighted baseline gating against the three baseline.Opponent
// implementations, issue detection against config.IssueThresholds, and
// early-stopping recommendations. Slope and dispersion statistics come
// from gonum.org/v1/gonum/stat.
package validator

// LearningStatus classifies the trend of the performance-score series
// over the sliding window.
type LearningStatus int

const (
	InsufficientData LearningStatus = iota
	Learning
	SlowImprovement
	Stagnant
	Declining
	Unstable
)

func (s LearningStatus) String() string {
	switch s {
	case Learning:
		return "LEARNING"
	case SlowImprovement:
		return "SLOW_IMPROVEMENT"
	case Stagnant:
		return "STAGNANT"
	case Declining:
		return "DECLINING"
	case Unstable:
		return "UNSTABLE"
	default:
		return "INSUFFICIENT_DATA"
	}
}

// Issue is one detected training pathology.
type Issue int

const (
	ExplodingGradients Issue = iota
	VanishingGradients
	PolicyCollapse
	NumericalInstability
	ExplorationInsufficient
	Critical
)

func (i Issue) String() string {
	switch i {
	case ExplodingGradients:
		return "EXPLODING_GRADIENTS"
	case VanishingGradients:
		return "VANISHING"
	case PolicyCollapse:
		return "POLICY_COLLAPSE"
	case NumericalInstability:
		return "NUMERICAL_INSTABILITY"
	case ExplorationInsufficient:
		return "EXPLORATION_INSUFFICIENT"
	default:
		return "CRITICAL"
	}
}
