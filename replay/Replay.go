// Package replay implements the experience replay buffer: a
// fixed-capacity store of transitions that supports adding new
// experiences and sampling minibatches for training. Two variants are
// provided behind one ExperienceReplayer contract, Uniform and
// Prioritized, both storing full Experience records carrying their own
// next-state legal actions.
package replay

import (
	"github.com/riverrun/chessrl/timestep"
)

// Batch is a sampled minibatch. All slices share a common length (the
// configured batch size); Weights is nil for Uniform and populated
// with importance-sampling weights for Prioritized.
type Batch struct {
	Experiences []timestep.Experience
	Indices     []int     // buffer-internal indices, needed by UpdatePriorities
	Weights     []float64 // importance-sampling weights, nil for Uniform
}

// ExperienceReplayer is the contract both replay variants satisfy.
type ExperienceReplayer interface {
	// Add inserts a new experience, evicting the oldest entry if the
	// buffer is at capacity.
	Add(e timestep.Experience)

	// Sample draws a minibatch of k records without replacement. k = 0
	// returns an empty batch and no error; k greater than the number
	// of stored experiences, or a store still below its warmup
	// minimum, is an error of kind errkind.InsufficientSamples.
	Sample(k int) (Batch, error)

	// UpdatePriorities applies new TD-error-derived priorities to the
	// entries at the given buffer-internal indices. Uniform ignores
	// this call; Prioritized uses it to re-weight future sampling.
	UpdatePriorities(indices []int, priorities []float64)

	// Size returns the number of experiences currently stored.
	Size() int

	// Capacity returns the maximum number of experiences the buffer
	// can hold.
	Capacity() int

	// Clear empties the buffer. Capacity and configuration are
	// retained; only the stored experiences (and, for Prioritized,
	// their priorities) are discarded.
	Clear()
}
