// Package trainer is the external facade of the engine: the single
// entry point composing seed.Fabric, dqn.Algorithm,
// selfplay.Orchestrator, checkpoint.Manager and validator.Validator
// into the operations a caller (CLI, dashboard, test) drives a
// training run through.
package trainer

import (
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/google/uuid"
	"golang.org/x/exp/rand"
	G "gorgonia.org/gorgonia"

	"github.com/riverrun/chessrl/checkpoint"
	"github.com/riverrun/chessrl/chessenv"
	"github.com/riverrun/chessrl/codec"
	"github.com/riverrun/chessrl/config"
	"github.com/riverrun/chessrl/dqn"
	"github.com/riverrun/chessrl/errkind"
	"github.com/riverrun/chessrl/exploration"
	"github.com/riverrun/chessrl/initwfn"
	"github.com/riverrun/chessrl/network"
	"github.com/riverrun/chessrl/replay"
	"github.com/riverrun/chessrl/seed"
	"github.com/riverrun/chessrl/selfplay"
	"github.com/riverrun/chessrl/validator"
)

const (
	defaultValidatorWindow  = 10
	defaultBaselinePatience = 3
	opponentPoolSize        = 8
)

// Trainer is the single object a caller constructs and drives through
// a training run.
type Trainer struct {
	cfg        config.Config
	runID      string
	seeds      *seed.Fabric
	algorithm  *dqn.Algorithm
	orch       *selfplay.Orchestrator
	pool       *selfplay.OpponentPool
	checkpts   *checkpoint.Manager
	valid      *validator.Validator
	envFactory func() chessenv.Environment
	logger     *log.Logger

	mu      sync.Mutex
	state   RunState
	stop    atomic.Bool
	cycle   int
	version int
	metrics selfplay.TrainingCycleMetrics
	issues  map[validator.Issue]bool
	reason  string
}

// New builds a Trainer from cfg, checkpointing to checkpointDir.
// envFactory builds one thread-confined chess environment per self-play
// worker; the rules engine behind it is the caller's to supply.
func New(cfg config.Config, checkpointDir string, envFactory func() chessenv.Environment) (*Trainer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if envFactory == nil {
		return nil, errkind.New("trainer.New", errkind.InvalidConfiguration,
			fmt.Errorf("environment factory must not be nil"))
	}

	fabric := seed.New()
	if err := fabric.Initialize(cfg.MasterSeed); err != nil {
		return nil, err
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{Prefix: "trainer"})

	replayBuf, err := buildReplay(cfg, fabric)
	if err != nil {
		return nil, err
	}

	netCfg, err := buildNetworkConfig(cfg)
	if err != nil {
		return nil, err
	}

	algorithm, err := dqn.New(dqn.Config{
		Network:          netCfg,
		Replay:           replayBuf,
		Explore:          buildExplorationPolicy(cfg, fabric.Stream(seed.Exploration)),
		Gamma:            cfg.Gamma,
		TargetSyncPeriod: cfg.TargetSyncPeriod,
		Tau:              1.0,
		Loss:             lossKindFor(cfg),
	})
	if err != nil {
		return nil, err
	}

	pool, err := selfplay.NewOpponentPool(opponentPoolSize, selfplay.SampleUniform, 0,
		rand.New(rand.NewSource(uint64(fabric.Stream(seed.SelfPlay).Int63()))))
	if err != nil {
		return nil, err
	}

	orch, err := selfplay.New(selfplay.Config{
		EnvFactory: envFactory,
		Explore: func(rng *rand.Rand) exploration.Policy {
			return buildExplorationPolicy(cfg, rng)
		},
		Seeds:           fabric,
		WorkerCount:     cfg.WorkerCount,
		GamesPerCycle:   cfg.GamesPerCycle,
		MaxStepsPerGame: cfg.MaxStepsPerGame,
		UsePool:         true,
		Logger:          logger,
	}, algorithm, pool)
	if err != nil {
		return nil, err
	}

	checkpts, err := checkpoint.New(checkpoint.Config{
		Dir:              checkpointDir,
		MaxVersions:      cfg.MaxCheckpoints,
		Compression:      cfg.Compression,
		ValidateOnCreate: true,
		ValidateOnLoad:   true,
		Clock:            quartz.NewReal(),
	})
	if err != nil {
		return nil, err
	}

	valid, err := validator.New(validator.Config{
		WindowSize:         defaultValidatorWindow,
		Thresholds:         cfg.IssueThresholds,
		StagnationPatience: cfg.StagnationPatience,
		BaselinePatience:   defaultBaselinePatience,
	})
	if err != nil {
		return nil, err
	}

	return &Trainer{
		cfg:        cfg,
		runID:      uuid.New().String(),
		seeds:      fabric,
		algorithm:  algorithm,
		orch:       orch,
		pool:       pool,
		checkpts:   checkpts,
		valid:      valid,
		envFactory: envFactory,
		logger:     logger,
		state:      Stopped,
		issues:     make(map[validator.Issue]bool),
	}, nil
}

func buildReplay(cfg config.Config, fabric *seed.Fabric) (replay.ExperienceReplayer, error) {
	rng := fabric.Stream(seed.ReplayBuffer)
	switch cfg.Replay {
	case config.ReplayPrioritized:
		return replay.NewPrioritized(replay.PrioritizedConfig{
			Capacity:  cfg.BufferCapacity,
			BatchSize: cfg.BatchSize,
			MinSize:   cfg.BatchSize,
			Alpha:     0.6,
			BetaStart: 0.4,
			BetaEnd:   1.0,
			BetaSteps: 100000,
			Epsilon:   1e-3,
			RNG:       rng,
		})
	default:
		return replay.NewUniform(replay.UniformConfig{
			Capacity:  cfg.BufferCapacity,
			BatchSize: cfg.BatchSize,
			MinSize:   cfg.BatchSize,
			RNG:       rng,
		})
	}
}

func buildNetworkConfig(cfg config.Config) (network.Config, error) {
	activations := make([]*network.Activation, len(cfg.Hidden))
	for i := range activations {
		activations[i] = network.ReLU()
	}

	init, err := weightInitFor(cfg.WeightInit)
	if err != nil {
		return network.Config{}, err
	}

	optKind, beta1, beta2, eps, momentum := optimizerFor(cfg)

	return network.Config{
		Features:    codec.FeatureWidth,
		Outputs:     codec.NumActions,
		BatchSize:   cfg.BatchSize,
		Hidden:      cfg.Hidden,
		Activations: activations,
		Init:        init,
		LearnRate:   cfg.LearnRate,
		DoubleDQN:   cfg.DoubleDQN,
		Optimizer:   optKind,
		Beta1:       beta1,
		Beta2:       beta2,
		Eps:         eps,
		Momentum:    momentum,
		L2:          cfg.L2,
		Clip:        cfg.OptimizerArgs.Clip,
	}, nil
}

func weightInitFor(kind config.WeightInitKind) (G.InitWFn, error) {
	if kind == config.WeightInitXavier {
		w, err := initwfn.NewGlorotU(1.0)
		if err != nil {
			return nil, errkind.New("trainer.weightInitFor", errkind.InvalidConfiguration, err)
		}
		return w.InitWFn(), nil
	}
	w, err := initwfn.NewHeU(1.0)
	if err != nil {
		return nil, errkind.New("trainer.weightInitFor", errkind.InvalidConfiguration, err)
	}
	return w.InitWFn(), nil
}

func lossKindFor(cfg config.Config) dqn.LossKind {
	if cfg.Loss == config.LossMSE {
		return dqn.LossMSE
	}
	return dqn.LossHuber
}

func optimizerFor(cfg config.Config) (kind network.OptimizerKind, beta1, beta2, eps, momentum float64) {
	switch cfg.Optimizer {
	case config.OptimizerSGD:
		return network.OptimizerSGD, 0, 0, 0, cfg.OptimizerArgs.Momentum
	case config.OptimizerRMSProp:
		return network.OptimizerRMSProp, 0, 0, 0, 0
	default:
		return network.OptimizerAdam, cfg.OptimizerArgs.Beta1, cfg.OptimizerArgs.Beta2, cfg.OptimizerArgs.Epsilon, 0
	}
}

// buildExplorationPolicy selects ε-greedy when an epsilon is
// configured, else Boltzmann at the configured temperature. Boltzmann
// takes a rand.Source rather than a *rand.Rand, so its source is
// derived from one draw off rng rather than the stream itself.
func buildExplorationPolicy(cfg config.Config, rng *rand.Rand) exploration.Policy {
	if cfg.Explore.Epsilon > 0 {
		return exploration.NewEpsilonGreedy(cfg.Explore.Epsilon, rng)
	}
	return exploration.NewBoltzmann(cfg.Explore.Temperature, rand.NewSource(uint64(rng.Int63())))
}

// RunID returns this Trainer's unique run identifier.
func (t *Trainer) RunID() string { return t.runID }

// State returns the current run state.
func (t *Trainer) State() RunState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Stop requests cooperative cancellation; the current cycle finishes
// and Run returns its final report.
func (t *Trainer) Stop() {
	t.stop.Store(true)
	t.orch.Stop()
	t.mu.Lock()
	t.state = Stopping
	t.mu.Unlock()
}

// LatestMetrics returns the most recently completed cycle's metrics.
func (t *Trainer) LatestMetrics() selfplay.TrainingCycleMetrics {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.metrics
}

// Checkpoints returns every live checkpoint, ordered by version.
func (t *Trainer) Checkpoints() []checkpoint.CheckpointInfo {
	versions := t.checkpts.Versions()
	out := make([]checkpoint.CheckpointInfo, 0, len(versions))
	for _, v := range versions {
		if info, ok := t.checkpts.Get(v); ok {
			out = append(out, info)
		}
	}
	return out
}

// LoadCheckpoint restores the given version's weights into the live
// network and resyncs the target network.
func (t *Trainer) LoadCheckpoint(version int) error {
	info, ok := t.checkpts.Get(version)
	if !ok {
		return errkind.New("trainer.LoadCheckpoint", errkind.InvalidConfiguration,
			fmt.Errorf("checkpoint version %d not found", version))
	}
	return t.checkpts.Load(info, t.algorithm.Network())
}

// EvaluateBaselines plays the configured number of games against each
// baseline opponent and folds the aggregate into the validator's
// baseline-stagnation history.
func (t *Trainer) EvaluateBaselines() (validator.BaselineReport, error) {
	rng := t.seeds.Stream("baseline_evaluation")
	report, err := validator.EvaluateBaselines(t.algorithm.Network(), t.envFactory, rng,
		t.cfg.BaselineGamesPerOpponent, t.cfg.MaxStepsPerGame)
	if err != nil {
		return validator.BaselineReport{}, err
	}
	delta, hasPrevious := t.valid.RecordBaseline(report.AggregateScore)
	report.Delta = delta
	report.HasPrevious = hasPrevious
	if hasPrevious {
		report.PreviousAggregate = report.AggregateScore - delta
	}
	return report, nil
}

// RunCycle executes exactly one self-play-and-train cycle, runs the
// validator over the resulting metrics, optionally evaluates baselines
// and creates a checkpoint per the configured intervals.
func (t *Trainer) RunCycle(ctx context.Context) (CycleReport, error) {
	t.mu.Lock()
	t.state = Running
	t.mu.Unlock()
	defer func() {
		t.mu.Lock()
		if t.state == Running {
			t.state = Stopped
		}
		t.mu.Unlock()
	}()

	metrics, err := t.orch.RunCycle(ctx)
	if err != nil {
		return CycleReport{}, err
	}

	t.mu.Lock()
	t.cycle++
	t.metrics = metrics
	t.mu.Unlock()

	report := CycleReport{Metrics: metrics}
	if t.cfg.ValidationEnabled {
		vr := t.valid.Observe(metrics)
		report.Validation = vr
		t.mu.Lock()
		for _, issue := range vr.Issues {
			t.issues[issue] = true
		}
		t.mu.Unlock()
	}

	if t.cfg.BaselineInterval > 0 && t.cycle%t.cfg.BaselineInterval == 0 {
		baseline, err := t.EvaluateBaselines()
		if err == nil {
			report.Baseline = &baseline
		} else {
			t.logger.Warn("baseline evaluation failed", "err", err)
		}
	}

	if t.cycle%t.cfg.CyclesPerCheckpoint == 0 {
		t.mu.Lock()
		t.version++
		version := t.version
		t.mu.Unlock()

		performance := metrics.Matchup.OnlineWinRate()
		info, err := t.checkpts.Create(t.algorithm.Network(), version, performance,
			checkpoint.Metadata{Cycle: t.cycle, GradientStep: t.algorithm.GradientSteps()})
		if err != nil {
			t.logger.Warn("checkpoint creation failed", "err", err)
		} else {
			report.Checkpoint = &info
			_ = t.pool.Add(version, t.algorithm.Network())
		}
	}

	return report, nil
}

// Run executes up to nCycles cycles, stopping early if Stop is called
// or the validator reports shouldStop. A run always produces a final
// report, even when it ends early.
func (t *Trainer) Run(ctx context.Context, nCycles int) (RunReport, error) {
	reason := "cycles_completed"

	for i := 0; i < nCycles; i++ {
		if t.stop.Load() {
			reason = "stopped"
			break
		}
		report, err := t.RunCycle(ctx)
		if err != nil {
			reason = "error"
			t.mu.Lock()
			t.state = Stopped
			t.mu.Unlock()
			return t.buildRunReport(reason), err
		}
		if t.cfg.ValidationEnabled && report.Validation.ShouldStop {
			reason = "validator_stop"
			break
		}
	}

	t.mu.Lock()
	t.state = Stopped
	t.reason = reason
	t.mu.Unlock()

	return t.buildRunReport(reason), nil
}

func (t *Trainer) buildRunReport(reason string) RunReport {
	t.mu.Lock()
	defer t.mu.Unlock()

	issues := make([]validator.Issue, 0, len(t.issues))
	for issue := range t.issues {
		issues = append(issues, issue)
	}

	return RunReport{
		RunID:               t.runID,
		CyclesCompleted:     t.cycle,
		LastMetrics:         t.metrics,
		Issues:              issues,
		TerminationReason:   reason,
		CheckpointsRetained: t.Checkpoints(),
	}
}
