package replay

import (
	"fmt"

	"golang.org/x/exp/rand"

	"github.com/riverrun/chessrl/errkind"
	"github.com/riverrun/chessrl/timestep"
)

// UniformConfig configures a Uniform replay buffer. BatchSize is the
// draw size the trainer will pass to Sample; it bounds Capacity from
// below and is the warmup default for MinSize.
type UniformConfig struct {
	Capacity  int
	MinSize   int // minimum entries before Sample succeeds
	BatchSize int
	RNG       *rand.Rand
}

// Uniform is a fixed-capacity ring buffer sampled with uniform
// probability: oldest entries are evicted first once the buffer
// reaches capacity (FIFO eviction), but sampling itself draws indices
// uniformly over all live entries rather than in insertion order.
type Uniform struct {
	cfg UniformConfig

	entries []timestep.Experience // ring buffer, len <= cfg.Capacity
	next    int                   // next slot to write (wraps at Capacity)
	size    int                   // number of live entries
}

// NewUniform constructs a Uniform replay buffer. It returns
// errkind.InvalidConfiguration if capacity is smaller than the batch
// size.
func NewUniform(cfg UniformConfig) (*Uniform, error) {
	if cfg.Capacity <= 0 || cfg.BatchSize <= 0 || cfg.Capacity < cfg.BatchSize {
		return nil, errkind.New("replay.NewUniform", errkind.InvalidConfiguration,
			fmt.Errorf("capacity (%d) must be positive and >= batch size (%d)",
				cfg.Capacity, cfg.BatchSize))
	}
	if cfg.RNG == nil {
		cfg.RNG = rand.New(rand.NewSource(1))
	}
	if cfg.MinSize <= 0 {
		cfg.MinSize = cfg.BatchSize
	}
	return &Uniform{cfg: cfg, entries: make([]timestep.Experience, 0, cfg.Capacity)}, nil
}

func (u *Uniform) Add(e timestep.Experience) {
	if len(u.entries) < u.cfg.Capacity {
		u.entries = append(u.entries, e)
	} else {
		u.entries[u.next] = e
	}
	u.next = (u.next + 1) % u.cfg.Capacity
	if u.size < u.cfg.Capacity {
		u.size++
	}
}

func (u *Uniform) Sample(k int) (Batch, error) {
	if k == 0 {
		return Batch{}, nil
	}
	if k < 0 || k > u.size || u.size < u.cfg.MinSize {
		return Batch{}, errkind.New("replay.Uniform.Sample", errkind.InsufficientSamples,
			fmt.Errorf("want %d of %d experiences, warmup minimum %d", k, u.size, u.cfg.MinSize))
	}

	// Sampling is without replacement: the first k entries of a random
	// permutation of the live index range are k distinct indices.
	perm := u.cfg.RNG.Perm(u.size)[:k]
	experiences := make([]timestep.Experience, k)
	for i, idx := range perm {
		experiences[i] = u.entries[idx]
	}
	return Batch{Experiences: experiences, Indices: perm}, nil
}

func (u *Uniform) UpdatePriorities([]int, []float64) {}

func (u *Uniform) Size() int     { return u.size }
func (u *Uniform) Capacity() int { return u.cfg.Capacity }

// Clear discards every stored experience, keeping capacity and
// configuration.
func (u *Uniform) Clear() {
	u.entries = u.entries[:0]
	u.next = 0
	u.size = 0
}
