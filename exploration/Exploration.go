// Package exploration implements the action-selection policies used
// during self-play: ε-greedy and Boltzmann, both restricted to a
// state's legal actions. Boltzmann is built on gonum/stat/distuv's
// categorical sampler.
package exploration

import (
	"fmt"

	"github.com/riverrun/chessrl/errkind"
)

// NoMove is the sentinel action index returned alongside the error
// when a policy is asked to select from an empty legal-action set. It
// is never a valid action and only ever describes terminal or aborted
// states.
const NoMove = -1

// Policy selects an action index from a set of per-action values,
// restricted to legalActions. legalActions must be non-empty; an empty
// set yields NoMove and an error.
type Policy interface {
	Select(values []float64, legalActions []int) (int, error)

	// SetRate updates the policy's single scalar knob (ε for
	// EpsilonGreedy, temperature for Boltzmann).
	SetRate(rate float64)

	// Rate returns the current value of that knob.
	Rate() float64
}

func validateLegalActions(op string, legalActions []int) error {
	if len(legalActions) == 0 {
		return errkind.New(op, errkind.InvalidConfiguration,
			fmt.Errorf("legal actions must be non-empty"))
	}
	return nil
}

func argmaxOver(values []float64, legalActions []int) int {
	best := legalActions[0]
	bestValue := values[best]
	for _, a := range legalActions[1:] {
		if values[a] > bestValue {
			bestValue = values[a]
			best = a
		}
	}
	return best
}
