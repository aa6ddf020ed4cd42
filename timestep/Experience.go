package timestep

import "gonum.org/v1/gonum/mat"

// Experience is the immutable transition tuple recorded by self-play
// and consumed by the replay buffer. NextState is nil when Done is
// true: there is no bootstrapped successor state for a terminal
// transition.
type Experience struct {
	State            mat.Vector
	Action           int
	Reward           float64
	NextState        mat.Vector // nil iff Done
	Done             bool
	NextLegalActions []int // empty iff Done
	LegalActions     []int // State's own legal actions, for policy-entropy diagnostics
}

// Transition is a SARSA-shaped transition: one-hot actions and a
// discount factor instead of a terminal flag. replay.Uniform and
// replay.Prioritized store Experience values directly and do not
// convert to or from this shape.
type Transition struct {
	State      mat.Vector
	Action     mat.Vector // one-hot, length = number of actions
	Reward     float64
	Discount   float64 // 0 when Done, Gamma otherwise
	NextState  mat.Vector
	NextAction mat.Vector // one-hot of the best next action, if known
}

// OneHot returns a one-hot mat.VecDense of the given length with a 1.0
// at index.
func OneHot(index, length int) *mat.VecDense {
	v := mat.NewVecDense(length, nil)
	v.SetVec(index, 1.0)
	return v
}
