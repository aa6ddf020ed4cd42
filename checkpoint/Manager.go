// Package checkpoint manages versioned, on-disk snapshots of a
// network.Wrapper's weights, with a best-pointer invariant, top-N
// retention, and textual comparison between versions. Weights are
// gob-encoded (optionally gzipped); metadata lives in a YAML sidecar.
package checkpoint

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/coder/quartz"
	"gopkg.in/yaml.v3"

	"github.com/riverrun/chessrl/errkind"
	"github.com/riverrun/chessrl/network"
)

// Metadata is caller-supplied information about a checkpoint, stored
// alongside the weights as a YAML sidecar file (the weights themselves
// stay in the gob payload; metadata is small, human-inspectable, and
// the one place this package uses gopkg.in/yaml.v3 rather than gob).
type Metadata struct {
	Cycle        int    `yaml:"cycle"`
	GradientStep int    `yaml:"gradient_step"`
	Notes        string `yaml:"notes"`
	IsBest       bool   `yaml:"is_best"`
}

// CheckpointInfo describes one stored checkpoint.
type CheckpointInfo struct {
	Version     int
	Path        string
	CreatedAt   time.Time
	SizeBytes   int64
	Performance float64
	Metadata    Metadata
	Valid       bool
}

// Config describes how to build a Manager.
type Config struct {
	Dir              string
	MaxVersions      int
	Compression      bool
	ValidateOnCreate bool
	ValidateOnLoad   bool
	Clock            quartz.Clock // defaults to quartz.NewReal()
}

func (c Config) validate() error {
	if c.Dir == "" {
		return errkind.New("checkpoint.Config.validate", errkind.InvalidConfiguration,
			fmt.Errorf("dir must not be empty"))
	}
	if c.MaxVersions < 1 {
		return errkind.New("checkpoint.Config.validate", errkind.InvalidConfiguration,
			fmt.Errorf("max versions must be >= 1, got %d", c.MaxVersions))
	}
	return nil
}

// Manager is the checkpoint store: a version-keyed map of
// CheckpointInfo, a pointer to the best version, and
// created/loaded/deleted counters.
type Manager struct {
	cfg Config

	mu          sync.Mutex
	checkpoints map[int]CheckpointInfo
	best        int
	hasBest     bool
	created     int
	loaded      int
	deleted     int
}

// New builds a Manager rooted at cfg.Dir, creating the directory if it
// does not already exist.
func New(cfg Config) (*Manager, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.Clock == nil {
		cfg.Clock = quartz.NewReal()
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, errkind.New("checkpoint.New", errkind.CheckpointIO, err)
	}
	return &Manager{cfg: cfg, checkpoints: make(map[int]CheckpointInfo)}, nil
}

func (m *Manager) weightsPath(version, cycle int, at time.Time) string {
	ext := "gob"
	if m.cfg.Compression {
		ext = "gob.gz"
	}
	return filepath.Join(m.cfg.Dir, fmt.Sprintf("checkpoint_v%d_c%d_%d.%s",
		version, cycle, at.Unix(), ext))
}

func (m *Manager) metadataPath(version int) string {
	return filepath.Join(m.cfg.Dir, fmt.Sprintf("checkpoint_v%d.meta.yaml", version))
}

// Create serializes net's current weights and performance to a new
// checkpoint at version, updates the best pointer if metadata.IsBest
// or performance improves on the current best, and triggers cleanup
// if the live checkpoint count now exceeds MaxVersions.
func (m *Manager) Create(net *network.Wrapper, version int, performance float64, metadata Metadata) (CheckpointInfo, error) {
	weights, err := extractWeights(net)
	if err != nil {
		return CheckpointInfo{}, err
	}

	createdAt := m.cfg.Clock.Now()
	path := m.weightsPath(version, metadata.Cycle, createdAt)
	size, err := writePayload(path, m.cfg.Compression, payload{Shape: shapeOf(net), Layers: weights})
	if err != nil {
		return CheckpointInfo{}, err
	}

	metaBytes, err := yaml.Marshal(metadata)
	if err != nil {
		return CheckpointInfo{}, errkind.New("checkpoint.Create", errkind.CheckpointIO, err)
	}
	if err := os.WriteFile(m.metadataPath(version), metaBytes, 0o644); err != nil {
		return CheckpointInfo{}, errkind.New("checkpoint.Create", errkind.CheckpointIO, err)
	}

	info := CheckpointInfo{
		Version:     version,
		Path:        path,
		CreatedAt:   createdAt,
		SizeBytes:   size,
		Performance: performance,
		Metadata:    metadata,
		Valid:       true,
	}

	if m.cfg.ValidateOnCreate {
		if _, _, err := readBack(path, m.cfg.Compression, net); err != nil {
			info.Valid = false
		}
	}

	m.mu.Lock()
	m.checkpoints[version] = info
	if metadata.IsBest || !m.hasBest || performance > m.checkpoints[m.best].Performance {
		m.best = version
		m.hasBest = true
	}
	m.created++
	needsCleanup := len(m.checkpoints) > m.cfg.MaxVersions
	m.mu.Unlock()

	if needsCleanup {
		if err := m.Cleanup(); err != nil {
			return info, err
		}
	}
	return info, nil
}

// readBack loads and shape-checks a checkpoint file without mutating
// net's weights, for Create's optional integrity validation.
func readBack(path string, compressed bool, net *network.Wrapper) (payload, bool, error) {
	p, err := readPayload(path, compressed)
	if err != nil {
		return payload{}, false, err
	}
	return p, compatible(p.Shape, net), nil
}

// Load restores the weights of the checkpoint described by info into
// net, then syncs net's target network so the two stay consistent.
func (m *Manager) Load(info CheckpointInfo, net *network.Wrapper) error {
	if m.cfg.ValidateOnLoad {
		p, ok, err := readBack(info.Path, m.cfg.Compression, net)
		if err != nil {
			return err
		}
		if !ok {
			return errkind.New("checkpoint.Load", errkind.IncompatibleCheckpoint,
				fmt.Errorf("checkpoint %d shape is incompatible with the target network", info.Version))
		}
		if err := restoreWeights(net, p.Layers); err != nil {
			return err
		}
	} else {
		p, err := readPayload(info.Path, m.cfg.Compression)
		if err != nil {
			return err
		}
		if err := restoreWeights(net, p.Layers); err != nil {
			return err
		}
	}

	if err := net.SyncTarget(); err != nil {
		return err
	}

	m.mu.Lock()
	m.loaded++
	m.mu.Unlock()
	return nil
}

// CompareResult is the output of Compare.
type CompareResult struct {
	Delta              float64
	PercentImprovement float64
	Recommendation     string
}

// Compare reports the performance delta between two checkpoint
// versions and a textual recommendation bucketed by magnitude.
func (m *Manager) Compare(v1, v2 int) (CompareResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.checkpoints[v1]
	if !ok {
		return CompareResult{}, errkind.New("checkpoint.Compare", errkind.InvalidConfiguration,
			fmt.Errorf("version %d not found", v1))
	}
	b, ok := m.checkpoints[v2]
	if !ok {
		return CompareResult{}, errkind.New("checkpoint.Compare", errkind.InvalidConfiguration,
			fmt.Errorf("version %d not found", v2))
	}

	delta := b.Performance - a.Performance
	percent := 0.0
	if a.Performance != 0 {
		percent = delta / math.Abs(a.Performance) * 100
	}
	return CompareResult{Delta: delta, PercentImprovement: percent, Recommendation: recommend(percent)}, nil
}

func recommend(percent float64) string {
	switch {
	case percent > 10:
		return "strong improvement"
	case percent > 5:
		return "moderate improvement"
	case percent > 1:
		return "slight improvement"
	case percent >= -1:
		return "no significant change"
	case percent >= -5:
		return "slight regression"
	default:
		return "significant regression"
	}
}

// Cleanup retains the top MaxVersions checkpoints by performance (the
// best pointer's target is always retained regardless of its rank) and
// deletes every invalid entry. After Cleanup the live count is at most
// MaxVersions, and a deletion failure never corrupts the map.
func (m *Manager) Cleanup() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	type ranked struct {
		version int
		info    CheckpointInfo
	}
	entries := make([]ranked, 0, len(m.checkpoints))
	for v, info := range m.checkpoints {
		entries = append(entries, ranked{v, info})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].info.Performance > entries[j].info.Performance
	})

	keep := make(map[int]bool, m.cfg.MaxVersions)
	if m.hasBest {
		keep[m.best] = true
	}
	for _, e := range entries {
		if len(keep) >= m.cfg.MaxVersions {
			break
		}
		if e.info.Valid {
			keep[e.version] = true
		}
	}

	for v, info := range m.checkpoints {
		if keep[v] && info.Valid {
			continue
		}
		if err := os.Remove(info.Path); err != nil && !os.IsNotExist(err) {
			continue
		}
		_ = os.Remove(m.metadataPath(v))
		delete(m.checkpoints, v)
		m.deleted++
	}
	return nil
}

// Get returns the stored info for version, if any.
func (m *Manager) Get(version int) (CheckpointInfo, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	info, ok := m.checkpoints[version]
	return info, ok
}

// Best returns the current best checkpoint's info, if one exists.
func (m *Manager) Best() (CheckpointInfo, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.hasBest {
		return CheckpointInfo{}, false
	}
	info := m.checkpoints[m.best]
	return info, true
}

// Counters returns the number of checkpoints created, loaded and
// deleted over this Manager's lifetime.
func (m *Manager) Counters() (created, loaded, deleted int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.created, m.loaded, m.deleted
}

// Versions returns every live checkpoint version, ascending.
func (m *Manager) Versions() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]int, 0, len(m.checkpoints))
	for v := range m.checkpoints {
		out = append(out, v)
	}
	sort.Ints(out)
	return out
}
