package replay

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"

	"github.com/riverrun/chessrl/errkind"
	"github.com/riverrun/chessrl/timestep"
)

// PrioritizedConfig configures a Prioritized replay buffer. BatchSize
// is the draw size the trainer will pass to Sample; it bounds Capacity
// from below and is the warmup default for MinSize.
type PrioritizedConfig struct {
	Capacity  int
	MinSize   int
	BatchSize int
	Alpha     float64 // priority exponent; 0 degenerates to uniform
	BetaStart float64 // initial importance-sampling correction exponent
	BetaEnd   float64 // final importance-sampling correction exponent, reached at BetaSteps
	BetaSteps int     // number of Sample calls over which beta anneals BetaStart->BetaEnd
	Epsilon   float64 // added to |TD error| before exponentiation, keeps priorities > 0
	RNG       *rand.Rand
}

func (c PrioritizedConfig) validate() error {
	if c.Capacity <= 0 || c.BatchSize <= 0 || c.Capacity < c.BatchSize {
		return fmt.Errorf("capacity (%d) must be positive and >= batch size (%d)",
			c.Capacity, c.BatchSize)
	}
	if c.Alpha < 0 {
		return fmt.Errorf("alpha must be >= 0")
	}
	if c.BetaStart <= 0 || c.BetaEnd < c.BetaStart || c.BetaEnd > 1 {
		return fmt.Errorf("beta schedule must satisfy 0 < start <= end <= 1")
	}
	if c.BetaSteps <= 0 {
		return fmt.Errorf("beta steps must be > 0")
	}
	return nil
}

// Prioritized samples experiences with probability proportional to
// priority^alpha, correcting for the resulting sampling bias with
// importance-sampling weights annealed from BetaStart to BetaEnd over
// BetaSteps calls to Sample. New entries are inserted at the current
// maximum priority so they are sampled at least once before their true
// TD error is known.
type Prioritized struct {
	cfg  PrioritizedConfig
	tree *sumTree

	entries []timestep.Experience
	next    int
	size    int

	maxPriority float64
	sampleCalls int
}

// NewPrioritized constructs a Prioritized replay buffer.
func NewPrioritized(cfg PrioritizedConfig) (*Prioritized, error) {
	if err := cfg.validate(); err != nil {
		return nil, errkind.New("replay.NewPrioritized", errkind.InvalidConfiguration, err)
	}
	if cfg.RNG == nil {
		cfg.RNG = rand.New(rand.NewSource(1))
	}
	if cfg.MinSize <= 0 {
		cfg.MinSize = cfg.BatchSize
	}
	if cfg.Epsilon <= 0 {
		cfg.Epsilon = 1e-6
	}
	return &Prioritized{
		cfg:         cfg,
		tree:        newSumTree(cfg.Capacity),
		entries:     make([]timestep.Experience, cfg.Capacity),
		maxPriority: 1.0,
	}, nil
}

func (p *Prioritized) Add(e timestep.Experience) {
	p.entries[p.next] = e
	p.tree.set(p.next, p.priorityWeight(p.maxPriority))
	p.next = (p.next + 1) % p.cfg.Capacity
	if p.size < p.cfg.Capacity {
		p.size++
	}
}

func (p *Prioritized) priorityWeight(priority float64) float64 {
	return math.Pow(priority+p.cfg.Epsilon, p.cfg.Alpha)
}

func (p *Prioritized) beta() float64 {
	progress := float64(p.sampleCalls) / float64(p.cfg.BetaSteps)
	if progress > 1 {
		progress = 1
	}
	return p.cfg.BetaStart + progress*(p.cfg.BetaEnd-p.cfg.BetaStart)
}

func (p *Prioritized) Sample(k int) (Batch, error) {
	if k == 0 {
		return Batch{}, nil
	}
	if k < 0 || k > p.size || p.size < p.cfg.MinSize {
		return Batch{}, errkind.New("replay.Prioritized.Sample", errkind.InsufficientSamples,
			fmt.Errorf("want %d of %d experiences, warmup minimum %d", k, p.size, p.cfg.MinSize))
	}

	n := k
	indices := make([]int, n)
	experiences := make([]timestep.Experience, n)
	weights := make([]float64, n)

	total := p.tree.total()
	segment := total / float64(n)
	beta := p.beta()

	// Stratified sampling: one draw per equal-mass segment. A segment
	// boundary can land two draws on the same leaf; redraw within the
	// segment a few times before accepting the duplicate, keeping the
	// batch distinct whenever the priority mass allows it.
	seen := make(map[int]bool, n)
	for i := 0; i < n; i++ {
		low := segment * float64(i)
		high := segment * float64(i+1)

		var leaf int
		var weight float64
		for attempt := 0; ; attempt++ {
			target := low + p.cfg.RNG.Float64()*(high-low)
			if target >= total {
				target = math.Nextafter(total, 0)
			}
			leaf, weight = p.tree.find(target)
			if !seen[leaf] || attempt >= 4 {
				break
			}
		}
		seen[leaf] = true

		indices[i] = leaf
		experiences[i] = p.entries[leaf]

		prob := weight / total
		weights[i] = math.Pow(float64(p.size)*prob, -beta)
	}

	maxWeight := 0.0
	for _, w := range weights {
		if w > maxWeight {
			maxWeight = w
		}
	}
	if maxWeight > 0 {
		for i := range weights {
			weights[i] /= maxWeight
		}
	}

	p.sampleCalls++
	return Batch{Experiences: experiences, Indices: indices, Weights: weights}, nil
}

func (p *Prioritized) UpdatePriorities(indices []int, priorities []float64) {
	for i, idx := range indices {
		priority := math.Abs(priorities[i])
		if priority > p.maxPriority {
			p.maxPriority = priority
		}
		p.tree.set(idx, p.priorityWeight(priority))
	}
}

func (p *Prioritized) Size() int     { return p.size }
func (p *Prioritized) Capacity() int { return p.cfg.Capacity }

// Clear discards every stored experience and its priority, keeping
// capacity and configuration. The β-annealing counter is not reset:
// the schedule tracks overall training progress, not buffer contents.
func (p *Prioritized) Clear() {
	p.tree = newSumTree(p.cfg.Capacity)
	p.entries = make([]timestep.Experience, p.cfg.Capacity)
	p.next = 0
	p.size = 0
	p.maxPriority = 1.0
}
