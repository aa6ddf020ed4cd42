package exploration

import (
	"golang.org/x/exp/rand"
)

// EpsilonGreedy selects the legal action with the highest value with
// probability 1-ε, and a uniformly random legal action otherwise. Both
// branches are restricted to the supplied legal-action set rather than
// the full action space.
type EpsilonGreedy struct {
	epsilon float64
	rng     *rand.Rand
}

// NewEpsilonGreedy constructs an EpsilonGreedy policy seeded from rng.
func NewEpsilonGreedy(epsilon float64, rng *rand.Rand) *EpsilonGreedy {
	return &EpsilonGreedy{epsilon: epsilon, rng: rng}
}

func (e *EpsilonGreedy) Select(values []float64, legalActions []int) (int, error) {
	if err := validateLegalActions("exploration.EpsilonGreedy.Select", legalActions); err != nil {
		return NoMove, err
	}
	if e.rng.Float64() < e.epsilon {
		return legalActions[e.rng.Intn(len(legalActions))], nil
	}
	return argmaxOver(values, legalActions), nil
}

func (e *EpsilonGreedy) SetRate(rate float64) { e.epsilon = rate }
func (e *EpsilonGreedy) Rate() float64        { return e.epsilon }
