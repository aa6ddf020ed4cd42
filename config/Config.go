// Package config holds the engine's flat configuration map as a
// loadable, validated Go struct, wired to github.com/spf13/viper:
// defaults are set first, a config file and environment variables are
// layered on top, and the result is unmarshalled into a typed struct
// before being validated.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/riverrun/chessrl/errkind"
)

// AgentKind selects the learning algorithm family. "pg" (policy
// gradient) is accepted as a configuration value only so Config
// round-trips values intended for a sibling implementation behind the
// same contract; this engine only builds dqn.Algorithm.
type AgentKind string

const (
	AgentDQN AgentKind = "dqn"
	AgentPG  AgentKind = "pg"
)

// ReplayKind selects the replay buffer variant.
type ReplayKind string

const (
	ReplayUniform     ReplayKind = "uniform"
	ReplayPrioritized ReplayKind = "prioritized"
)

// LossKind selects the DQN loss function.
type LossKind string

const (
	LossHuber LossKind = "huber"
	LossMSE   LossKind = "mse"
)

// OptimizerKind selects the gradient optimizer.
type OptimizerKind string

const (
	OptimizerAdam    OptimizerKind = "adam"
	OptimizerSGD     OptimizerKind = "sgd"
	OptimizerRMSProp OptimizerKind = "rmsprop"
)

// WeightInitKind selects the network weight initialization scheme.
type WeightInitKind string

const (
	WeightInitHe     WeightInitKind = "he"
	WeightInitXavier WeightInitKind = "xavier"
)

// ExplorationConfig holds the ε-greedy/Boltzmann parameters; exactly
// one of Epsilon or Temperature is meaningful, selected by the
// exploration policy the caller constructs.
type ExplorationConfig struct {
	Epsilon     float64 `mapstructure:"epsilon"`
	Temperature float64 `mapstructure:"temperature"`
}

// OptimizerConfig holds the scalar hyperparameters for whichever
// OptimizerKind is selected; unused fields for the chosen optimizer are
// ignored.
type OptimizerConfig struct {
	Beta1    float64 `mapstructure:"beta1"`
	Beta2    float64 `mapstructure:"beta2"`
	Epsilon  float64 `mapstructure:"epsilon"`
	Momentum float64 `mapstructure:"momentum"`
	Clip     float64 `mapstructure:"clip"`
}

// IssueThresholds holds the validator's issue-detection cutoffs.
type IssueThresholds struct {
	GradientHigh float64 `mapstructure:"gradient_high"`
	GradientLow  float64 `mapstructure:"gradient_low"`
	EntropyLow   float64 `mapstructure:"entropy_low"`
	LossHigh     float64 `mapstructure:"loss_high"`
	WinrateLow   float64 `mapstructure:"winrate_low"`
}

// Config is the engine's flat configuration map.
type Config struct {
	MasterSeed int64             `mapstructure:"master_seed"`
	Agent      AgentKind         `mapstructure:"agent"`
	Hidden     []int             `mapstructure:"hidden_layers"`
	LearnRate  float64           `mapstructure:"learning_rate"`
	Explore    ExplorationConfig `mapstructure:"exploration"`

	BatchSize      int        `mapstructure:"batch_size"`
	BufferCapacity int        `mapstructure:"buffer_capacity"`
	Replay         ReplayKind `mapstructure:"replay"`

	Gamma            float64  `mapstructure:"gamma"`
	TargetSyncPeriod int      `mapstructure:"target_sync_period"`
	DoubleDQN        bool     `mapstructure:"double_dqn"`
	Loss             LossKind `mapstructure:"loss"`

	Optimizer     OptimizerKind   `mapstructure:"optimizer"`
	OptimizerArgs OptimizerConfig `mapstructure:"optimizer_args"`
	L2            float64         `mapstructure:"l2"`
	WeightInit    WeightInitKind  `mapstructure:"weight_init"`

	GamesPerCycle       int  `mapstructure:"games_per_cycle"`
	MaxStepsPerGame     int  `mapstructure:"max_steps_per_game"`
	WorkerCount         int  `mapstructure:"worker_count"`
	CyclesPerCheckpoint int  `mapstructure:"cycles_per_checkpoint"`
	MaxCheckpoints      int  `mapstructure:"max_checkpoints"`
	Compression         bool `mapstructure:"compression"`
	ValidationEnabled   bool `mapstructure:"validation_enabled"`

	BaselineInterval         int `mapstructure:"baseline_interval"`
	BaselineGamesPerOpponent int `mapstructure:"baseline_games_per_opponent"`
	StagnationPatience       int `mapstructure:"stagnation_patience"`

	IssueThresholds IssueThresholds `mapstructure:"issue_thresholds"`
}

// Default returns a Config with the defaults Load would apply to an
// empty source, useful for tests that need a valid Config without a
// file on disk.
func Default() Config {
	v := newViperWithDefaults()
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		panic(fmt.Sprintf("config: default config failed to unmarshal: %v", err))
	}
	return c
}

func newViperWithDefaults() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("CHESSRL")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("master_seed", int64(1))
	v.SetDefault("agent", string(AgentDQN))
	v.SetDefault("hidden_layers", []int{256, 256})
	v.SetDefault("learning_rate", 1e-3)
	v.SetDefault("exploration.epsilon", 0.1)
	v.SetDefault("exploration.temperature", 1.0)

	v.SetDefault("batch_size", 32)
	v.SetDefault("buffer_capacity", 100000)
	v.SetDefault("replay", string(ReplayUniform))

	v.SetDefault("gamma", 0.99)
	v.SetDefault("target_sync_period", 1000)
	v.SetDefault("double_dqn", true)
	v.SetDefault("loss", string(LossHuber))

	v.SetDefault("optimizer", string(OptimizerAdam))
	v.SetDefault("optimizer_args.beta1", 0.9)
	v.SetDefault("optimizer_args.beta2", 0.999)
	v.SetDefault("optimizer_args.epsilon", 1e-8)
	v.SetDefault("optimizer_args.momentum", 0.9)
	v.SetDefault("optimizer_args.clip", -1.0)
	v.SetDefault("l2", 0.0)
	v.SetDefault("weight_init", string(WeightInitHe))

	v.SetDefault("games_per_cycle", 20)
	v.SetDefault("max_steps_per_game", 200)
	v.SetDefault("worker_count", 1)
	v.SetDefault("cycles_per_checkpoint", 10)
	v.SetDefault("max_checkpoints", 5)
	v.SetDefault("compression", false)
	v.SetDefault("validation_enabled", true)

	v.SetDefault("baseline_interval", 20)
	v.SetDefault("baseline_games_per_opponent", 10)
	v.SetDefault("stagnation_patience", 10)

	v.SetDefault("issue_thresholds.gradient_high", 10.0)
	v.SetDefault("issue_thresholds.gradient_low", 1e-6)
	v.SetDefault("issue_thresholds.entropy_low", 0.05)
	v.SetDefault("issue_thresholds.loss_high", 100.0)
	v.SetDefault("issue_thresholds.winrate_low", 0.05)

	return v
}

// Load reads configuration from path (any format Viper supports: YAML,
// JSON, TOML), layering it over the defaults and environment variables
// prefixed CHESSRL_, and validates the result. An empty path loads
// defaults (plus environment overrides) only.
func Load(path string) (Config, error) {
	v := newViperWithDefaults()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, errkind.New("load", errkind.InvalidConfiguration, err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, errkind.New("load", errkind.InvalidConfiguration, err)
	}

	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks schema and range invariants, returning
// InvalidConfiguration on the first violation.
func (c Config) Validate() error {
	fail := func(msg string) error {
		return errkind.New("validate", errkind.InvalidConfiguration, fmt.Errorf("%s", msg))
	}

	if c.Agent != AgentDQN && c.Agent != AgentPG {
		return fail(fmt.Sprintf("agent: unknown kind %q", c.Agent))
	}
	if c.BatchSize <= 0 {
		return fail("batch_size must be > 0")
	}
	if c.BufferCapacity < c.BatchSize {
		return fail("buffer_capacity must be >= batch_size")
	}
	if c.Replay != ReplayUniform && c.Replay != ReplayPrioritized {
		return fail(fmt.Sprintf("replay: unknown kind %q", c.Replay))
	}
	if c.Gamma < 0 || c.Gamma > 1 {
		return fail("gamma must be in [0, 1]")
	}
	if c.TargetSyncPeriod < 1 {
		return fail("target_sync_period must be >= 1")
	}
	if c.Loss != LossHuber && c.Loss != LossMSE {
		return fail(fmt.Sprintf("loss: unknown kind %q", c.Loss))
	}
	if c.Optimizer != OptimizerAdam && c.Optimizer != OptimizerSGD && c.Optimizer != OptimizerRMSProp {
		return fail(fmt.Sprintf("optimizer: unknown kind %q", c.Optimizer))
	}
	if c.WeightInit != WeightInitHe && c.WeightInit != WeightInitXavier {
		return fail(fmt.Sprintf("weight_init: unknown kind %q", c.WeightInit))
	}
	if c.GamesPerCycle <= 0 {
		return fail("games_per_cycle must be > 0")
	}
	if c.MaxStepsPerGame <= 0 {
		return fail("max_steps_per_game must be > 0")
	}
	if c.WorkerCount < 1 {
		return fail("worker_count must be >= 1")
	}
	if c.CyclesPerCheckpoint <= 0 {
		return fail("cycles_per_checkpoint must be > 0")
	}
	if c.MaxCheckpoints <= 0 {
		return fail("max_checkpoints must be > 0")
	}
	if c.BaselineInterval <= 0 {
		return fail("baseline_interval must be > 0")
	}
	if c.BaselineGamesPerOpponent <= 0 {
		return fail("baseline_games_per_opponent must be > 0")
	}
	if c.StagnationPatience <= 0 {
		return fail("stagnation_patience must be > 0")
	}
	return nil
}
