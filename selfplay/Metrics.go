package selfplay

import (
	"math"

	"github.com/riverrun/chessrl/chessenv"
)

// GameOutcome is the per-game record a worker reports back to the
// orchestrator for matchup diagnostics.
type GameOutcome struct {
	EpisodeID     string
	OnlineIsWhite bool
	WhiteWon      bool
	BlackWon      bool
	Drawn         bool
	Plies         int
	StepLimited   bool
	Reason        chessenv.TerminationReason
	OpponentName  string
}

// MatchupStats aggregates GameOutcomes over one cycle: wins by color,
// draw rate, average length, color bias, and step-limit ratio.
type MatchupStats struct {
	Games          int
	WhiteWins      int
	BlackWins      int
	Draws          int
	StepLimitGames int
	TotalPlies     int
	OnlineWins     int
}

// Record folds one outcome into the aggregate.
func (m *MatchupStats) Record(o GameOutcome) {
	m.Games++
	m.TotalPlies += o.Plies
	switch {
	case o.Drawn:
		m.Draws++
	case o.WhiteWon:
		m.WhiteWins++
	case o.BlackWon:
		m.BlackWins++
	}
	if o.StepLimited {
		m.StepLimitGames++
	}
	if (o.OnlineIsWhite && o.WhiteWon) || (!o.OnlineIsWhite && o.BlackWon) {
		m.OnlineWins++
	}
}

// OnlineWinRate returns the fraction of games the online network won,
// from its own perspective regardless of which color it played. This
// is the training validator's per-cycle performance-score signal.
func (m MatchupStats) OnlineWinRate() float64 {
	if m.Games == 0 {
		return 0
	}
	return float64(m.OnlineWins) / float64(m.Games)
}

// WinRateWhite returns the fraction of games white won.
func (m MatchupStats) WinRateWhite() float64 {
	if m.Games == 0 {
		return 0
	}
	return float64(m.WhiteWins) / float64(m.Games)
}

// WinRateBlack returns the fraction of games black won.
func (m MatchupStats) WinRateBlack() float64 {
	if m.Games == 0 {
		return 0
	}
	return float64(m.BlackWins) / float64(m.Games)
}

// DrawRate returns the fraction of games that ended drawn.
func (m MatchupStats) DrawRate() float64 {
	if m.Games == 0 {
		return 0
	}
	return float64(m.Draws) / float64(m.Games)
}

// ColorBias is |winRateWhite - winRateBlack|, a color-symmetry
// diagnostic.
func (m MatchupStats) ColorBias() float64 {
	return math.Abs(m.WinRateWhite() - m.WinRateBlack())
}

// AverageLength returns the mean number of plies per game.
func (m MatchupStats) AverageLength() float64 {
	if m.Games == 0 {
		return 0
	}
	return float64(m.TotalPlies) / float64(m.Games)
}

// StepLimitRatio returns the fraction of games that ended by hitting
// max_steps_per_game rather than a real game result.
func (m MatchupStats) StepLimitRatio() float64 {
	if m.Games == 0 {
		return 0
	}
	return float64(m.StepLimitGames) / float64(m.Games)
}

// TrainingCycleMetrics is the per-cycle summary the orchestrator hands
// to history and to the training validator.
type TrainingCycleMetrics struct {
	Cycle           int
	NewExperiences  int
	BatchUpdates    int
	MeanLoss        float64
	MeanGradNorm    float64
	MeanTDError     float64
	ReplayBufferLen int

	// PolicyEntropy is the mean, over this cycle's gradient steps, of
	// dqn.PolicyUpdateResult.PolicyEntropy: the online net's softmax
	// entropy over each sampled training state's legal actions. This is
	// the training validator's policy-collapse signal: a low value
	// means the Q-distribution itself has collapsed, which is a
	// distinct condition from OpeningDiversity's self-play action
	// diversity below.
	PolicyEntropy float64
	// QValueMean is the mean online-net Q-value of actions taken across
	// this cycle's gradient steps.
	QValueMean float64
	// TargetValueMean is the mean Bellman target regressed toward across
	// this cycle's gradient steps.
	TargetValueMean float64

	// OpeningDiversity is the Shannon entropy, in nats, of the empirical
	// distribution over raw action indices the online net actually
	// played during this cycle's self-play games: a repertoire-breadth
	// diagnostic, not a substitute for PolicyEntropy above.
	OpeningDiversity float64

	Matchup MatchupStats
}

// actionEntropy returns the Shannon entropy, in nats, of the empirical
// distribution over actions taken this cycle, for TrainingCycleMetrics'
// OpeningDiversity diagnostic.
func actionEntropy(actions []int) float64 {
	if len(actions) == 0 {
		return 0
	}
	counts := make(map[int]int, len(actions))
	for _, a := range actions {
		counts[a]++
	}
	total := float64(len(actions))
	entropy := 0.0
	for _, c := range counts {
		p := float64(c) / total
		entropy -= p * math.Log(p)
	}
	return entropy
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	total := 0.0
	for _, x := range xs {
		total += x
	}
	return total / float64(len(xs))
}
