// Package dqn implements the learning algorithm: a legal-action-masked
// Bellman update over an online/target network pair, with vanilla or
// double-DQN bootstrapping and a selectable Huber/MSE loss. The
// algorithm owns a batched experience replay buffer and a configurable
// exploration policy rather than learning from only the single most
// recent transition.
package dqn

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/riverrun/chessrl/errkind"
	"github.com/riverrun/chessrl/exploration"
	"github.com/riverrun/chessrl/network"
	"github.com/riverrun/chessrl/replay"
	"github.com/riverrun/chessrl/timestep"
	"github.com/riverrun/chessrl/utils/matutils"
)

// Config describes how to build an Algorithm.
type Config struct {
	Network network.Config

	Replay  replay.ExperienceReplayer
	Explore exploration.Policy

	Gamma            float64
	TargetSyncPeriod int     // gradient steps between target syncs
	Tau              float64 // Polyak constant; 1.0 means a hard sync

	// Loss selects the regression loss minimized each Update; the zero
	// value is Huber, matching network.New's own default.
	Loss LossKind
}

// LossKind selects the regression loss an Algorithm's network trains
// with; the zero value is Huber.
type LossKind int

const (
	LossHuber LossKind = iota
	LossMSE
)

func (c Config) validate() error {
	if c.Replay == nil {
		return errkind.New("dqn.Config.validate", errkind.InvalidConfiguration,
			fmt.Errorf("replay buffer must not be nil"))
	}
	if c.Explore == nil {
		return errkind.New("dqn.Config.validate", errkind.InvalidConfiguration,
			fmt.Errorf("exploration policy must not be nil"))
	}
	if c.Gamma <= 0 || c.Gamma > 1 {
		return errkind.New("dqn.Config.validate", errkind.InvalidConfiguration,
			fmt.Errorf("gamma must be in (0, 1], got %v", c.Gamma))
	}
	if c.TargetSyncPeriod < 1 {
		return errkind.New("dqn.Config.validate", errkind.InvalidConfiguration,
			fmt.Errorf("target sync period must be positive, got %d", c.TargetSyncPeriod))
	}
	if c.Tau <= 0 || c.Tau > 1 {
		return errkind.New("dqn.Config.validate", errkind.InvalidConfiguration,
			fmt.Errorf("tau must be in (0, 1], got %v", c.Tau))
	}
	return nil
}

// PolicyUpdateResult summarizes one call to Update, for the training
// validator's trend analysis.
type PolicyUpdateResult struct {
	Loss         float64
	GradNorm     float64
	MeanTDError  float64
	GradientStep int

	// PolicyEntropy is the mean softmax entropy, in nats, of the online
	// net's Q-values restricted to each sampled state's legal actions.
	PolicyEntropy float64
	// QValueMean is the mean online-net Q-value of the actions taken.
	QValueMean float64
	// TargetValueMean is the mean Bellman target regressed toward.
	TargetValueMean float64
}

// Algorithm is a DQN learner: an online/target network pair (via
// network.Wrapper), a replay buffer and an exploration policy. It
// draws minibatches from the buffer rather than learning from the
// single most recent transition, and restricts every max/argmax to a
// state's legal actions.
type Algorithm struct {
	cfg Config
	net *network.Wrapper

	gradientSteps int
}

// New builds an Algorithm from cfg.
func New(cfg Config) (*Algorithm, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	netLoss := network.LossHuber
	if cfg.Loss == LossMSE {
		netLoss = network.LossMSE
	}
	net, err := network.NewWithLoss(cfg.Network, netLoss)
	if err != nil {
		return nil, err
	}
	return &Algorithm{cfg: cfg, net: net}, nil
}

// SelectAction runs the policy network on observation and returns an
// action chosen by the configured exploration policy, restricted to
// legalActions.
func (a *Algorithm) SelectAction(observation mat.Vector, legalActions []int) (int, error) {
	values, err := a.net.Forward(matutils.VecSlice(observation))
	if err != nil {
		return 0, err
	}
	action, err := a.cfg.Explore.Select(values, legalActions)
	if err != nil {
		return 0, errkind.New("dqn.SelectAction", errkind.InvalidConfiguration, err)
	}
	return action, nil
}

// Observe records a completed transition in the replay buffer. The
// orchestrator already has the full Experience, since self-play plays
// out whole games before any training update runs.
func (a *Algorithm) Observe(e timestep.Experience) {
	a.cfg.Replay.Add(e)
}

// Update samples one minibatch from the replay buffer and performs one
// gradient step, with legal-action masking, optional double-DQN
// bootstrapping and prioritized-replay priority updates. It returns
// errkind.InsufficientSamples if the buffer has
// fewer than its configured minimum entries, and
// errkind.NumericalInstability if the loss or gradient norm is
// non-finite (network.Wrapper then skips the optimizer step, and Update
// records no priorities, gradient step or target sync).
func (a *Algorithm) Update() (PolicyUpdateResult, error) {
	batch, err := a.cfg.Replay.Sample(a.cfg.Network.BatchSize)
	if err != nil {
		return PolicyUpdateResult{}, err
	}

	input := experiencesToBatch(batch.Experiences, a.cfg.Gamma)
	result, err := a.net.TrainBatch(input)
	if err != nil {
		return PolicyUpdateResult{}, err
	}

	if math.IsNaN(result.Loss) || math.IsInf(result.Loss, 0) ||
		math.IsNaN(result.GradNorm) || math.IsInf(result.GradNorm, 0) {
		return PolicyUpdateResult{}, errkind.New("dqn.Update", errkind.NumericalInstability,
			fmt.Errorf("loss=%v gradNorm=%v", result.Loss, result.GradNorm))
	}

	if len(batch.Indices) > 0 {
		priorities := make([]float64, len(result.TDErrors))
		for i, td := range result.TDErrors {
			priorities[i] = math.Abs(td)
		}
		a.cfg.Replay.UpdatePriorities(batch.Indices, priorities)
	}

	a.gradientSteps++
	if a.gradientSteps%a.cfg.TargetSyncPeriod == 0 {
		if a.cfg.Tau == 1.0 {
			if err := a.net.SyncTarget(); err != nil {
				return PolicyUpdateResult{}, err
			}
		} else if err := a.net.PolyakTarget(a.cfg.Tau); err != nil {
			return PolicyUpdateResult{}, err
		}
	}

	meanTD := 0.0
	for _, td := range result.TDErrors {
		meanTD += math.Abs(td)
	}
	if len(result.TDErrors) > 0 {
		meanTD /= float64(len(result.TDErrors))
	}

	return PolicyUpdateResult{
		Loss:            result.Loss,
		GradNorm:        result.GradNorm,
		MeanTDError:     meanTD,
		GradientStep:    a.gradientSteps,
		PolicyEntropy:   result.PolicyEntropy,
		QValueMean:      result.QValueMean,
		TargetValueMean: result.TargetValueMean,
	}, nil
}

// Network exposes the underlying Wrapper, for checkpoint
// serialization.
func (a *Algorithm) Network() *network.Wrapper {
	return a.net
}

// BufferSize returns the number of experiences currently held in the
// replay buffer, for the self-play orchestrator's cycle metrics.
func (a *Algorithm) BufferSize() int {
	return a.cfg.Replay.Size()
}

// GradientSteps returns the number of completed gradient steps.
func (a *Algorithm) GradientSteps() int {
	return a.gradientSteps
}

func experiencesToBatch(experiences []timestep.Experience, gamma float64) network.BatchInput {
	n := len(experiences)
	features := 0
	if n > 0 {
		features = experiences[0].State.Len()
	}

	input := network.BatchInput{
		States:           make([]float64, 0, n*features),
		Actions:          make([]int, n),
		Rewards:          make([]float64, n),
		Discounts:        make([]float64, n),
		NextStates:       make([]float64, 0, n*features),
		NextLegalActions: make([][]int, n),
		LegalActions:     make([][]int, n),
	}

	for i, e := range experiences {
		input.States = append(input.States, matutils.VecSlice(e.State)...)
		input.Actions[i] = e.Action
		input.Rewards[i] = e.Reward
		input.LegalActions[i] = e.LegalActions
		if e.Done {
			input.Discounts[i] = 0
			input.NextStates = append(input.NextStates, make([]float64, features)...)
			input.NextLegalActions[i] = nil
		} else {
			input.Discounts[i] = gamma
			input.NextStates = append(input.NextStates, matutils.VecSlice(e.NextState)...)
			input.NextLegalActions[i] = e.NextLegalActions
		}
	}
	return input
}
