package baseline

import (
	"golang.org/x/exp/rand"

	"github.com/riverrun/chessrl/chessenv"
)

// Random selects a uniformly random legal action, seeded from the
// seed fabric's SelfPlay (or a dedicated) stream so baseline games
// remain reproducible across runs.
type Random struct {
	rng *rand.Rand
}

// NewRandom constructs a Random opponent seeded from rng.
func NewRandom(rng *rand.Rand) *Random {
	return &Random{rng: rng}
}

func (r *Random) Select(_ chessenv.Environment, _ *chessenv.Board, legalActions []int) int {
	return legalActions[r.rng.Intn(len(legalActions))]
}

func (r *Random) Name() string { return "random" }
