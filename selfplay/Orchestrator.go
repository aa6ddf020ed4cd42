// Package selfplay implements the self-play orchestrator: a worker
// pool that generates games against either the online network itself
// (symmetric self-play) or a frozen checkpoint sampled from an
// OpponentPool, routes completed episodes through a bounded channel to
// a single replay-buffer writer, and performs K batch updates per
// cycle via dqn.Algorithm.Update. Fan-out/fan-in and cooperative
// cancellation are handled with golang.org/x/sync/errgroup; the
// channel gives the replay buffer a single writer regardless of how
// many workers produce episodes.
package selfplay

import (
	"context"
	"fmt"
	"math"
	"os"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/exp/rand"
	"golang.org/x/sync/errgroup"

	"github.com/riverrun/chessrl/chessenv"
	"github.com/riverrun/chessrl/dqn"
	"github.com/riverrun/chessrl/errkind"
	"github.com/riverrun/chessrl/exploration"
	"github.com/riverrun/chessrl/network"
	"github.com/riverrun/chessrl/seed"
)

// EnvFactory builds a fresh, thread-confined Environment for one
// worker. Called once per worker at Orchestrator construction, never
// concurrently.
type EnvFactory func() chessenv.Environment

// ExploreFactory builds a worker-private exploration policy seeded
// from rng, so no two workers ever share (and race on) the same
// *rand.Rand-backed policy.
type ExploreFactory func(rng *rand.Rand) exploration.Policy

// Config describes how to build an Orchestrator.
type Config struct {
	EnvFactory      EnvFactory
	Explore         ExploreFactory
	Seeds           *seed.Fabric
	WorkerCount     int
	GamesPerCycle   int
	MaxStepsPerGame int

	// UsePool, when true, plays one side of every game against a frozen
	// checkpoint sampled from Pool instead of symmetric self-play; games
	// fall back to symmetric self-play while Pool is empty. Color
	// assignment still rotates game to game.
	UsePool bool

	Logger *log.Logger
}

func (c Config) validate() error {
	if c.EnvFactory == nil || c.Explore == nil || c.Seeds == nil {
		return errkind.New("selfplay.Config.validate", errkind.InvalidConfiguration,
			fmt.Errorf("env factory, explore factory and seed fabric must all be set"))
	}
	if c.WorkerCount < 1 {
		return errkind.New("selfplay.Config.validate", errkind.InvalidConfiguration,
			fmt.Errorf("worker count must be >= 1, got %d", c.WorkerCount))
	}
	if c.GamesPerCycle < 1 {
		return errkind.New("selfplay.Config.validate", errkind.InvalidConfiguration,
			fmt.Errorf("games per cycle must be >= 1, got %d", c.GamesPerCycle))
	}
	if c.MaxStepsPerGame < 1 {
		return errkind.New("selfplay.Config.validate", errkind.InvalidConfiguration,
			fmt.Errorf("max steps per game must be >= 1, got %d", c.MaxStepsPerGame))
	}
	return nil
}

// Orchestrator drives the training loop at cycle granularity.
type Orchestrator struct {
	cfg       Config
	algorithm *dqn.Algorithm
	pool      *OpponentPool

	stop        atomic.Bool
	cycle       int
	gamesPlayed int64
	history     []TrainingCycleMetrics
}

// New builds an Orchestrator driving algorithm's replay buffer and
// network. pool may be nil if cfg.UsePool is false.
func New(cfg Config, algorithm *dqn.Algorithm, pool *OpponentPool) (*Orchestrator, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if algorithm == nil {
		return nil, errkind.New("selfplay.New", errkind.InvalidConfiguration,
			fmt.Errorf("algorithm must not be nil"))
	}
	if cfg.UsePool && pool == nil {
		return nil, errkind.New("selfplay.New", errkind.InvalidConfiguration,
			fmt.Errorf("pool must not be nil when UsePool is set"))
	}
	if cfg.Logger == nil {
		cfg.Logger = log.NewWithOptions(os.Stderr, log.Options{Prefix: "selfplay"})
	}
	return &Orchestrator{cfg: cfg, algorithm: algorithm, pool: pool}, nil
}

// Stop requests cooperative cancellation. In-flight episodes finish
// their current ply and terminate with EpisodeTerminationReason
// Manual; RunCycle returns normally with whatever metrics were
// collected up to that point.
func (o *Orchestrator) Stop() {
	o.stop.Store(true)
}

// Stopped reports whether Stop has been called.
func (o *Orchestrator) Stopped() bool {
	return o.stop.Load()
}

// History returns every TrainingCycleMetrics emitted so far, oldest
// first.
func (o *Orchestrator) History() []TrainingCycleMetrics {
	return append([]TrainingCycleMetrics(nil), o.history...)
}

// Cycle returns the number of cycles completed so far.
func (o *Orchestrator) Cycle() int {
	return o.cycle
}

// RunCycle executes one self-play-and-train cycle: schedules
// cfg.GamesPerCycle episodes across cfg.WorkerCount workers against a
// snapshot of the online network frozen at the start of the cycle,
// drains completed episodes into the replay buffer, and performs
// K = ceil(newExperiences / batchSize) gradient updates.
func (o *Orchestrator) RunCycle(ctx context.Context) (TrainingCycleMetrics, error) {
	o.cycle++

	results := make(chan episodeResult, o.cfg.GamesPerCycle)
	group, gctx := errgroup.WithContext(ctx)

	schedule := distribute(o.cfg.GamesPerCycle, o.cfg.WorkerCount)
	for workerID, gameCount := range schedule {
		workerID, gameCount := workerID, gameCount
		if gameCount == 0 {
			continue
		}
		// Each worker gets its own frozen copy of the online net's
		// weights, so action selection never contends across workers
		// and training updates mid-cycle never leak into episode
		// generation.
		snapshot, err := network.NewInferenceSnapshot(o.algorithm.Network())
		if err != nil {
			return TrainingCycleMetrics{}, err
		}
		group.Go(func() error {
			return o.runWorker(gctx, workerID, gameCount, snapshot, results)
		})
	}

	go func() {
		_ = group.Wait()
		close(results)
	}()

	var matchup MatchupStats
	newExperiences := 0
	actions := make([]int, 0, o.cfg.GamesPerCycle*o.cfg.MaxStepsPerGame)
	for r := range results {
		for _, e := range r.experiences {
			o.algorithm.Observe(e)
			actions = append(actions, e.Action)
			newExperiences++
		}
		matchup.Record(r.outcome)
	}
	if err := group.Wait(); err != nil {
		return TrainingCycleMetrics{}, err
	}

	batchSize := o.algorithm.Network().Config().BatchSize
	updates := 0
	var losses, gradNorms, tdErrors, policyEntropies, qValues, targetValues []float64
	k := int(math.Ceil(float64(newExperiences) / float64(batchSize)))
	for i := 0; i < k; i++ {
		result, err := o.algorithm.Update()
		if err != nil {
			if isInsufficientSamples(err) {
				break
			}
			return TrainingCycleMetrics{}, err
		}
		losses = append(losses, result.Loss)
		gradNorms = append(gradNorms, result.GradNorm)
		tdErrors = append(tdErrors, result.MeanTDError)
		policyEntropies = append(policyEntropies, result.PolicyEntropy)
		qValues = append(qValues, result.QValueMean)
		targetValues = append(targetValues, result.TargetValueMean)
		updates++
	}

	metrics := TrainingCycleMetrics{
		Cycle:            o.cycle,
		NewExperiences:   newExperiences,
		BatchUpdates:     updates,
		MeanLoss:         mean(losses),
		MeanGradNorm:     mean(gradNorms),
		MeanTDError:      mean(tdErrors),
		ReplayBufferLen:  o.algorithm.BufferSize(),
		PolicyEntropy:    mean(policyEntropies),
		QValueMean:       mean(qValues),
		TargetValueMean:  mean(targetValues),
		OpeningDiversity: actionEntropy(actions),
		Matchup:          matchup,
	}
	o.history = append(o.history, metrics)

	o.cfg.Logger.Info("cycle complete",
		"cycle", o.cycle, "games", matchup.Games, "new_experiences", newExperiences,
		"updates", updates, "mean_loss", metrics.MeanLoss, "color_bias", matchup.ColorBias())

	return metrics, nil
}

func (o *Orchestrator) runWorker(ctx context.Context, workerID, gameCount int,
	onlineSnapshot *network.InferenceSnapshot, results chan<- episodeResult) error {
	env := o.cfg.EnvFactory()
	rng := o.cfg.Seeds.Stream(fmt.Sprintf("self_play_worker_%d", workerID))
	explore := o.cfg.Explore(rng)

	for i := 0; i < gameCount; i++ {
		if o.stop.Load() {
			return nil
		}

		gameIndex := atomic.AddInt64(&o.gamesPlayed, 1) - 1
		onlineIsWhite := gameIndex%2 == 0

		var opponent *network.InferenceSnapshot
		opponentName := "self"
		if o.cfg.UsePool {
			if entry, ok := o.pool.Sample(); ok {
				opponent = entry.Net
				opponentName = fmt.Sprintf("checkpoint-%d", entry.Version)
			}
		}

		episodeID := uuid.New().String()
		result, err := playEpisode(env, explore, onlineSnapshot, opponent, onlineIsWhite,
			o.cfg.MaxStepsPerGame, &o.stop, opponentName, episodeID)
		if err != nil {
			return fmt.Errorf("episode %s: %w", episodeID, err)
		}

		select {
		case results <- result:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// distribute splits games as evenly as possible across workerCount
// workers; the first games%workerCount workers get one extra game.
func distribute(games, workerCount int) []int {
	schedule := make([]int, workerCount)
	base := games / workerCount
	remainder := games % workerCount
	for i := range schedule {
		schedule[i] = base
		if i < remainder {
			schedule[i]++
		}
	}
	return schedule
}

func isInsufficientSamples(err error) bool {
	kindErr, ok := err.(*errkind.Error)
	return ok && kindErr.Kind == errkind.InsufficientSamples
}
