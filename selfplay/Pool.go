package selfplay

import (
	"fmt"
	"sync"

	"golang.org/x/exp/rand"

	"github.com/riverrun/chessrl/errkind"
	"github.com/riverrun/chessrl/network"
)

// SamplingMode selects how OpponentPool.Sample picks among its frozen
// entries.
type SamplingMode int

const (
	// SampleUniform picks uniformly among every retained checkpoint.
	SampleUniform SamplingMode = iota
	// SampleMostRecentK restricts sampling to the K most recently
	// added checkpoints, biasing self-play toward the current
	// frontier rather than early, weak policies.
	SampleMostRecentK
)

// PoolEntry is one frozen opponent: a checkpoint version tag and a
// read-only network snapshot of its weights at the time it was added.
// The snapshot is never resynced; frozen means frozen.
type PoolEntry struct {
	Version int
	Net     *network.InferenceSnapshot
}

// OpponentPool holds the frozen-checkpoint opponents self-play samples
// from when one side plays a past version of the agent. Eviction is a
// ring: the oldest entry is dropped once capacity is reached.
type OpponentPool struct {
	mu      sync.Mutex
	entries []*PoolEntry
	next    int // ring-buffer write cursor once full
	maxSize int
	mode    SamplingMode
	k       int
	rng     *rand.Rand
}

// NewOpponentPool builds an empty pool retaining at most maxSize
// checkpoints, sampling per mode (k is only meaningful for
// SampleMostRecentK).
func NewOpponentPool(maxSize int, mode SamplingMode, k int, rng *rand.Rand) (*OpponentPool, error) {
	if maxSize <= 0 {
		return nil, errkind.New("selfplay.NewOpponentPool", errkind.InvalidConfiguration,
			fmt.Errorf("maxSize must be > 0, got %d", maxSize))
	}
	return &OpponentPool{maxSize: maxSize, mode: mode, k: k, rng: rng}, nil
}

// Add freezes w's current train-network weights into a new pool entry
// tagged version, evicting the oldest entry if the pool is already at
// capacity.
func (p *OpponentPool) Add(version int, w *network.Wrapper) error {
	snapshot, err := network.NewInferenceSnapshot(w)
	if err != nil {
		return err
	}
	entry := &PoolEntry{Version: version, Net: snapshot}

	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.entries) < p.maxSize {
		p.entries = append(p.entries, entry)
		return nil
	}
	p.entries[p.next] = entry
	p.next = (p.next + 1) % p.maxSize
	return nil
}

// Sample returns a pool entry per the configured SamplingMode, and
// false if the pool is empty.
func (p *OpponentPool) Sample() (*PoolEntry, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.entries) == 0 {
		return nil, false
	}

	candidates := p.entries
	if p.mode == SampleMostRecentK && p.k > 0 && p.k < len(p.entries) {
		// Once the ring has wrapped, insertion order no longer matches
		// slice order: the newest entry sits just before the write
		// cursor. Walk backwards from it to collect the K most recent.
		candidates = make([]*PoolEntry, 0, p.k)
		newest := p.next - 1
		if len(p.entries) < p.maxSize {
			newest = len(p.entries) - 1
		}
		for i := 0; i < p.k; i++ {
			idx := ((newest-i)%len(p.entries) + len(p.entries)) % len(p.entries)
			candidates = append(candidates, p.entries[idx])
		}
	}
	return candidates[p.rng.Intn(len(candidates))], true
}

// Size returns the number of checkpoints currently retained.
func (p *OpponentPool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}
