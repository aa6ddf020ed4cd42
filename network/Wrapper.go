package network

import (
	"fmt"
	"math"

	"github.com/riverrun/chessrl/errkind"
	"github.com/riverrun/chessrl/initwfn"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// Config describes how to build the online/target network pair behind
// a Wrapper. It is the graph-construction counterpart of
// config.Config's network fields.
type Config struct {
	Features    int
	Outputs     int
	BatchSize   int
	Hidden      []int
	Activations []*Activation
	Init        G.InitWFn
	LearnRate   float64

	// DoubleDQN selects the bootstrap action with the online (train)
	// network and evaluates it with the target network, rather than
	// taking the target network's own max, per the double-DQN
	// overestimation-bias fix.
	DoubleDQN bool

	// Optimizer selects the gradient solver; the zero value is Adam.
	Optimizer OptimizerKind
	// Beta1, Beta2 and Eps are Adam-only and ignored (left at gorgonia's
	// own defaults) when zero.
	Beta1, Beta2, Eps float64
	// Momentum is SGD-only and ignored when zero.
	Momentum float64
	// L2 is an L2 weight-decay coefficient, applied regardless of
	// optimizer, when positive.
	L2 float64
	// Clip is a per-element gradient clip magnitude, applied when
	// positive.
	Clip float64
}

// OptimizerKind selects the gradient solver a Wrapper trains with.
type OptimizerKind int

const (
	OptimizerAdam OptimizerKind = iota
	OptimizerSGD
	OptimizerRMSProp
)

// buildSolver constructs the gorgonia.Solver cfg describes. Optional
// scalars (L2, Clip, and the Adam betas/SGD momentum) are only applied
// when non-zero, so a zero-value Config still builds the same
// learn-rate/batch-size-only Adam solver this package always has.
func buildSolver(cfg Config) G.Solver {
	opts := []G.SolverOpt{G.WithLearnRate(cfg.LearnRate), G.WithBatchSize(float64(cfg.BatchSize))}
	if cfg.L2 > 0 {
		opts = append(opts, G.WithL2Reg(cfg.L2))
	}
	if cfg.Clip > 0 {
		opts = append(opts, G.WithClip(cfg.Clip))
	}

	switch cfg.Optimizer {
	case OptimizerSGD:
		if cfg.Momentum > 0 {
			opts = append(opts, G.WithMomentum(cfg.Momentum))
		}
		return G.NewVanillaSolver(opts...)
	case OptimizerRMSProp:
		return G.NewRMSPropSolver(opts...)
	default:
		if cfg.Beta1 > 0 {
			opts = append(opts, G.WithBeta1(cfg.Beta1))
		}
		if cfg.Beta2 > 0 {
			opts = append(opts, G.WithBeta2(cfg.Beta2))
		}
		if cfg.Eps > 0 {
			opts = append(opts, G.WithEps(cfg.Eps))
		}
		return G.NewAdamSolver(opts...)
	}
}

func (c Config) validate() error {
	if c.Features <= 0 || c.Outputs <= 0 || c.BatchSize <= 0 {
		return errkind.New("network.Config.validate", errkind.InvalidConfiguration,
			fmt.Errorf("features, outputs and batch size must all be positive"))
	}
	if len(c.Hidden) != len(c.Activations) {
		return errkind.New("network.Config.validate", errkind.InvalidConfiguration,
			fmt.Errorf("hidden layers (%d) and activations (%d) must be the "+
				"same length", len(c.Hidden), len(c.Activations)))
	}
	return nil
}

// DefaultInit returns the He-uniform initializer this core defaults to
// when a caller doesn't supply one.
func DefaultInit() G.InitWFn {
	w, err := initwfn.NewHeU(1.0)
	if err != nil {
		panic(fmt.Sprintf("network: could not build default init: %v", err))
	}
	return w.InitWFn()
}

// Wrapper is the online/target network pair of the value function: a
// single-sample policy net for action selection, a batched train net
// holding the weights being learned, and a batched target net sharing
// the policy net's weights at construction time. The loss is either
// MSE or Huber, and the Bellman target is restricted to each
// transition's recorded legal next actions.
type Wrapper struct {
	cfg Config

	policy   NeuralNet // batch size 1, used for SelectAction outside training
	train    NeuralNet // batch size cfg.BatchSize, holds the weights being learned
	target   NeuralNet // batch size cfg.BatchSize, provides next-state values
	selector NeuralNet // batch size cfg.BatchSize, mirrors train's weights; double-DQN only

	vm         G.VM
	trainVM    G.VM
	targetVM   G.VM
	selectorVM G.VM
	solver     G.Solver

	nextStateActionValues *G.Node // target net output, set externally each step
	legalActionMask       *G.Node // 0/1 mask over next-state actions (illegal = -inf surrogate)
	nextActionSelection   *G.Node // one-hot of the online net's argmax next action; double-DQN only
	rewards               *G.Node
	discounts             *G.Node
	selectedActions       *G.Node // one-hot actions taken, for gathering Q(s,a)

	tdError *G.Node
	loss    *G.Node
}

// New builds a Wrapper from cfg using the Huber loss. Use NewWithLoss
// to select MSE instead.
func New(cfg Config) (*Wrapper, error) {
	return NewWithLoss(cfg, LossHuber)
}

// LossKind selects the regression loss minimized by train_batch.
type LossKind int

const (
	LossMSE LossKind = iota
	LossHuber
)

// NewWithLoss builds the online/target network pair described by cfg:
// a policy net at batch size 1 for action selection, a train net and
// target net at cfg.BatchSize sharing the policy net's initial
// weights, and a loss node over the train net's gathered Q(s,a) versus
// a target computed from the target net's next-state action values,
// restricted to legal actions by legalActionMask.
func NewWithLoss(cfg Config, loss LossKind) (*Wrapper, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	init := cfg.Init
	if init == nil {
		init = DefaultInit()
	}

	g := G.NewGraph()
	policy, err := newQNet(cfg.Features, 1, cfg.Outputs, g, cfg.Hidden,
		init, cfg.Activations)
	if err != nil {
		return nil, errkind.New("network.New", errkind.InvalidConfiguration, err)
	}

	target, err := policy.CloneWithBatch(cfg.BatchSize)
	if err != nil {
		return nil, errkind.New("network.New", errkind.InvalidConfiguration, err)
	}
	gTarget := target.Graph()

	train, err := policy.CloneWithBatch(cfg.BatchSize)
	if err != nil {
		return nil, errkind.New("network.New", errkind.InvalidConfiguration, err)
	}
	gTrain := train.Graph()

	var selector NeuralNet
	var selectorVM G.VM
	if cfg.DoubleDQN {
		selector, err = policy.CloneWithBatch(cfg.BatchSize)
		if err != nil {
			return nil, errkind.New("network.New", errkind.InvalidConfiguration, err)
		}
		selectorVM = G.NewTapeMachine(selector.Graph())
	}

	nextStateActionValues := G.NewMatrix(gTrain, tensor.Float64,
		G.WithShape(cfg.BatchSize, cfg.Outputs), G.WithName("nextStateActionValues"))
	legalActionMask := G.NewMatrix(gTrain, tensor.Float64,
		G.WithShape(cfg.BatchSize, cfg.Outputs), G.WithName("legalActionMask"))
	nextActionSelection := G.NewMatrix(gTrain, tensor.Float64,
		G.WithShape(cfg.BatchSize, cfg.Outputs), G.WithName("nextActionSelection"))
	rewards := G.NewVector(gTrain, tensor.Float64, G.WithShape(cfg.BatchSize),
		G.WithName("rewards"))
	discounts := G.NewVector(gTrain, tensor.Float64, G.WithShape(cfg.BatchSize),
		G.WithName("discounts"))
	selectedActions := G.NewMatrix(gTrain, tensor.Float64,
		G.WithShape(cfg.BatchSize, cfg.Outputs), G.WithName("selectedActions"))

	var bootstrapValue *G.Node
	if cfg.DoubleDQN {
		// The online net already chose which next action to evaluate
		// (nextActionSelection, a one-hot restricted to legal actions);
		// gather the target net's value for that action rather than
		// taking the target net's own max, fixing DQN's overestimation
		// bias.
		gathered := G.Must(G.HadamardProd(nextStateActionValues, nextActionSelection))
		bootstrapValue = G.Must(G.Sum(gathered, 1))
	} else {
		// Mask illegal next-state actions out of the max by driving
		// their value to -inf before the max: maskedValues = values +
		// (mask-1)*1e9
		negatedMask := G.Must(G.Sub(legalActionMask, G.NewConstant(1.0)))
		penalty := G.Must(G.Mul(negatedMask, G.NewConstant(1e9)))
		maskedValues := G.Must(G.Add(nextStateActionValues, penalty))
		bootstrapValue = G.Must(G.Max(maskedValues, 1))
	}

	updateTarget := G.Must(G.HadamardProd(bootstrapValue, discounts))
	updateTarget = G.Must(G.Add(updateTarget, rewards))

	selectedValue := G.Must(G.HadamardProd(train.Prediction(), selectedActions))
	selectedValue = G.Must(G.Sum(selectedValue, 1))

	tdError := G.Must(G.Sub(updateTarget, selectedValue))

	var lossNode *G.Node
	switch loss {
	case LossMSE:
		squared := G.Must(G.Square(tdError))
		lossNode = G.Must(G.Mean(squared))
	case LossHuber:
		lossNode, err = huberLoss(tdError)
		if err != nil {
			return nil, errkind.New("network.New", errkind.NumericalInstability, err)
		}
	default:
		return nil, errkind.New("network.New", errkind.InvalidConfiguration,
			fmt.Errorf("unknown loss kind %d", loss))
	}

	if _, err := G.Grad(lossNode, train.Learnables()...); err != nil {
		return nil, errkind.New("network.New", errkind.NumericalInstability,
			fmt.Errorf("could not compute gradient: %w", err))
	}

	vm := G.NewTapeMachine(g)
	targetVM := G.NewTapeMachine(gTarget)
	trainVM := G.NewTapeMachine(gTrain, G.BindDualValues(train.Learnables()...))
	solver := buildSolver(cfg)

	return &Wrapper{
		cfg:                   cfg,
		policy:                policy,
		train:                 train,
		target:                target,
		selector:              selector,
		vm:                    vm,
		trainVM:               trainVM,
		targetVM:              targetVM,
		selectorVM:            selectorVM,
		solver:                solver,
		nextStateActionValues: nextStateActionValues,
		legalActionMask:       legalActionMask,
		nextActionSelection:   nextActionSelection,
		rewards:               rewards,
		discounts:             discounts,
		selectedActions:       selectedActions,
		tdError:               tdError,
		loss:                  lossNode,
	}, nil
}

// huberLoss computes the mean Huber loss (δ=1) of x: 0.5x² for |x|≤1,
// |x|-0.5 otherwise. Gorgonia has no primitive Huber op, so it is
// built from an Abs/Square/conditional blend. The linear tails bound
// the gradient magnitude on large TD errors.
func huberLoss(x *G.Node) (*G.Node, error) {
	absX := G.Must(G.Abs(x))
	quadratic := G.Must(G.Mul(G.Must(G.Square(x)), G.NewConstant(0.5)))
	linear := G.Must(G.Sub(absX, G.NewConstant(0.5)))

	one := G.NewConstant(1.0)
	isSmall := G.Must(G.Lte(absX, one, true))
	notSmall := G.Must(G.Sub(one, isSmall))

	blended := G.Must(G.Add(
		G.Must(G.HadamardProd(isSmall, quadratic)),
		G.Must(G.HadamardProd(notSmall, linear)),
	))
	return G.Mean(blended)
}

// Forward runs the policy network (batch size 1) on a single
// observation and returns the predicted action values.
func (w *Wrapper) Forward(observation []float64) ([]float64, error) {
	if err := w.policy.SetInput(observation); err != nil {
		return nil, errkind.New("network.Forward", errkind.InvalidConfiguration, err)
	}
	w.vm.RunAll()
	defer w.vm.Reset()

	values, err := outputSlice(w.policy)
	if err != nil {
		return nil, errkind.New("network.Forward", errkind.NumericalInstability, err)
	}
	return values, nil
}

// BatchInput describes one gradient step's worth of training data. All
// slices are flattened in row-major (batch, feature) order except
// Actions, NextLegalActions, LegalActions, Rewards and Discounts which are
// per-example.
type BatchInput struct {
	States           []float64 // batch*Features
	Actions          []int     // batch, index into [0, Outputs)
	Rewards          []float64 // batch
	Discounts        []float64 // batch, 0 at terminal transitions
	NextStates       []float64 // batch*Features
	NextLegalActions [][]int   // batch, legal action indices in the next state
	LegalActions     [][]int   // batch, legal action indices in the sampled state itself
}

// TrainResult summarizes one train_batch call.
type TrainResult struct {
	Loss     float64
	TDErrors []float64 // per-example target-prediction, for prioritized replay updates
	GradNorm float64

	// PolicyEntropy is the mean Shannon entropy, in nats, of the online
	// net's softmax over each sampled state's legal actions.
	PolicyEntropy float64
	// QValueMean is the mean online-net Q(s, a) over the actions taken.
	QValueMean float64
	// TargetValueMean is the mean Bellman target y used this step.
	TargetValueMean float64
}

// TrainBatch performs one gradient step: it predicts next-state action
// values with the target network, builds the Bellman target restricted
// to NextLegalActions, computes the loss against the train network's
// prediction for the taken actions, backpropagates, and steps the
// solver. A non-finite loss or gradient norm returns
// errkind.NumericalInstability without stepping the solver.
func (w *Wrapper) TrainBatch(batch BatchInput) (TrainResult, error) {
	n := w.cfg.BatchSize
	if len(batch.Actions) != n || len(batch.Rewards) != n || len(batch.Discounts) != n ||
		len(batch.LegalActions) != n {
		return TrainResult{}, errkind.New("network.TrainBatch", errkind.InvalidConfiguration,
			fmt.Errorf("batch size mismatch: configured %d", n))
	}

	if err := w.target.SetInput(batch.NextStates); err != nil {
		return TrainResult{}, errkind.New("network.TrainBatch", errkind.InvalidConfiguration, err)
	}
	w.targetVM.RunAll()

	nextValues, err := outputSlice(w.target)
	if err != nil {
		return TrainResult{}, errkind.New("network.TrainBatch", errkind.NumericalInstability, err)
	}
	if err := G.Let(w.nextStateActionValues, tensor.New(
		tensor.WithBacking(nextValues), tensor.WithShape(n, w.cfg.Outputs))); err != nil {
		return TrainResult{}, errkind.New("network.TrainBatch", errkind.NumericalInstability, err)
	}
	w.targetVM.Reset()

	mask := make([]float64, n*w.cfg.Outputs)
	for i, legal := range batch.NextLegalActions {
		for _, a := range legal {
			mask[i*w.cfg.Outputs+a] = 1.0
		}
	}
	if err := G.Let(w.legalActionMask, tensor.New(
		tensor.WithBacking(mask), tensor.WithShape(n, w.cfg.Outputs))); err != nil {
		return TrainResult{}, err
	}

	if w.cfg.DoubleDQN {
		selection, err := w.doubleSelection(batch)
		if err != nil {
			return TrainResult{}, err
		}
		if err := G.Let(w.nextActionSelection, tensor.New(
			tensor.WithBacking(selection), tensor.WithShape(n, w.cfg.Outputs))); err != nil {
			return TrainResult{}, err
		}
	}

	selected := make([]float64, n*w.cfg.Outputs)
	for i, a := range batch.Actions {
		selected[i*w.cfg.Outputs+a] = 1.0
	}
	if err := G.Let(w.selectedActions, tensor.New(
		tensor.WithBacking(selected), tensor.WithShape(n, w.cfg.Outputs))); err != nil {
		return TrainResult{}, err
	}

	if err := G.Let(w.rewards, tensor.New(
		tensor.WithBacking(batch.Rewards), tensor.WithShape(n))); err != nil {
		return TrainResult{}, err
	}
	if err := G.Let(w.discounts, tensor.New(
		tensor.WithBacking(batch.Discounts), tensor.WithShape(n))); err != nil {
		return TrainResult{}, err
	}

	if err := w.train.SetInput(batch.States); err != nil {
		return TrainResult{}, errkind.New("network.TrainBatch", errkind.InvalidConfiguration, err)
	}

	if err := w.trainVM.RunAll(); err != nil {
		w.trainVM.Reset()
		return TrainResult{}, errkind.New("network.TrainBatch", errkind.NumericalInstability, err)
	}
	lossValue, ok := w.loss.Value().Data().(float64)
	if !ok {
		w.trainVM.Reset()
		return TrainResult{}, errkind.New("network.TrainBatch", errkind.NumericalInstability,
			fmt.Errorf("loss node did not produce a scalar"))
	}
	tdErrors, ok := w.tdError.Value().Data().([]float64)
	if !ok {
		w.trainVM.Reset()
		return TrainResult{}, errkind.New("network.TrainBatch", errkind.NumericalInstability,
			fmt.Errorf("td error node did not produce a vector"))
	}
	tdErrors = append([]float64(nil), tdErrors...)

	stateQValues, err := outputSlice(w.train)
	if err != nil {
		w.trainVM.Reset()
		return TrainResult{}, errkind.New("network.TrainBatch", errkind.NumericalInstability, err)
	}
	policyEntropy, qValueMean, targetValueMean := trainingDiagnostics(
		stateQValues, tdErrors, batch.Actions, batch.LegalActions, w.cfg.Outputs)

	gradNorm := 0.0
	for _, node := range w.train.Learnables() {
		grad, err := node.Grad()
		if err != nil {
			continue
		}
		if data, ok := grad.Data().([]float64); ok {
			for _, v := range data {
				gradNorm += v * v
			}
		}
	}
	gradNorm = math.Sqrt(gradNorm)

	if math.IsNaN(lossValue) || math.IsInf(lossValue, 0) || math.IsNaN(gradNorm) || math.IsInf(gradNorm, 0) {
		w.trainVM.Reset()
		return TrainResult{}, errkind.New("network.TrainBatch", errkind.NumericalInstability,
			fmt.Errorf("loss=%v gradNorm=%v, optimizer step skipped", lossValue, gradNorm))
	}

	if err := w.solver.Step(w.train.Model()); err != nil {
		w.trainVM.Reset()
		return TrainResult{}, errkind.New("network.TrainBatch", errkind.NumericalInstability, err)
	}
	w.trainVM.Reset()

	return TrainResult{
		Loss:            lossValue,
		TDErrors:        tdErrors,
		GradNorm:        gradNorm,
		PolicyEntropy:   policyEntropy,
		QValueMean:      qValueMean,
		TargetValueMean: targetValueMean,
	}, nil
}

// trainingDiagnostics computes the three per-update signals derived
// from the train net's forward pass on the sampled states rather than
// the backward pass: the mean softmax entropy over each state's own
// legal actions (the online policy's confidence), the mean Q-value of
// the action actually taken, and the mean Bellman target those
// Q-values were regressed toward (recovered from the TD error, since
// tdError = target - Q(s,a_taken) for every sample).
func trainingDiagnostics(stateQValues, tdErrors []float64, actions []int, legalActions [][]int, outputs int) (policyEntropy, qValueMean, targetValueMean float64) {
	n := len(actions)
	if n == 0 {
		return 0, 0, 0
	}

	entropySum := 0.0
	for i, legal := range legalActions {
		entropySum += softmaxEntropy(stateQValues[i*outputs:(i+1)*outputs], legal)
	}

	qSum, targetSum := 0.0, 0.0
	for i, a := range actions {
		q := stateQValues[i*outputs+a]
		qSum += q
		targetSum += tdErrors[i] + q
	}

	return entropySum / float64(n), qSum / float64(n), targetSum / float64(n)
}

// softmaxEntropy returns the Shannon entropy, in nats, of the softmax
// distribution over values restricted to legalActions.
func softmaxEntropy(values []float64, legalActions []int) float64 {
	if len(legalActions) == 0 {
		return 0
	}
	if len(legalActions) == 1 {
		return 0
	}

	max := values[legalActions[0]]
	for _, a := range legalActions[1:] {
		if values[a] > max {
			max = values[a]
		}
	}

	denom := 0.0
	for _, a := range legalActions {
		denom += math.Exp(values[a] - max)
	}

	entropy := 0.0
	for _, a := range legalActions {
		p := math.Exp(values[a]-max) / denom
		if p > 0 {
			entropy -= p * math.Log(p)
		}
	}
	return entropy
}

// doubleSelection syncs the selector net to the train net's current
// weights, runs it on the batch's next states, and returns a one-hot
// (batch, outputs) selection of each example's legal-masked argmax
// action: the online net's choice of which next action the target net
// should evaluate.
func (w *Wrapper) doubleSelection(batch BatchInput) ([]float64, error) {
	if err := w.selector.Set(w.train); err != nil {
		return nil, errkind.New("network.doubleSelection", errkind.NumericalInstability, err)
	}
	if err := w.selector.SetInput(batch.NextStates); err != nil {
		return nil, errkind.New("network.doubleSelection", errkind.InvalidConfiguration, err)
	}
	w.selectorVM.RunAll()
	defer w.selectorVM.Reset()

	onlineValues, err := outputSlice(w.selector)
	if err != nil {
		return nil, errkind.New("network.doubleSelection", errkind.NumericalInstability, err)
	}

	return legalMaskedSelection(onlineValues, w.cfg.Outputs, batch.NextLegalActions), nil
}

// legalMaskedSelection returns a one-hot (batch, outputs) matrix of
// each example's legal-action-restricted argmax over values, the
// double-DQN a* = argmax over next-state legal actions of the online
// net. An action outside legalActions[i] is never selected even if it
// holds the row's unmasked maximum value.
func legalMaskedSelection(values []float64, outputs int, legalActions [][]int) []float64 {
	n := len(legalActions)
	selection := make([]float64, n*outputs)
	for i, legal := range legalActions {
		if len(legal) == 0 {
			continue
		}
		best := legal[0]
		bestValue := values[i*outputs+best]
		for _, a := range legal[1:] {
			v := values[i*outputs+a]
			if v > bestValue {
				bestValue = v
				best = a
			}
		}
		selection[i*outputs+best] = 1.0
	}
	return selection
}

// SyncTarget replaces the target network's weights with the train
// network's (a hard sync; no Polyak averaging).
func (w *Wrapper) SyncTarget() error {
	if err := w.target.Set(w.train); err != nil {
		return errkind.New("network.SyncTarget", errkind.NumericalInstability, err)
	}
	return w.policy.Set(w.train)
}

// PolyakTarget blends the target network's weights toward the train
// network's by tau.
func (w *Wrapper) PolyakTarget(tau float64) error {
	if err := w.target.Polyak(w.train, tau); err != nil {
		return errkind.New("network.PolyakTarget", errkind.NumericalInstability, err)
	}
	return w.policy.Set(w.train)
}

// CopyWeightsTo copies the train network's weights into dest's train
// network, validating that the two were built with compatible
// (Features, Outputs, Hidden) shapes first, per the
// weight-shape-compatibility invariant.
func (w *Wrapper) CopyWeightsTo(dest *Wrapper) error {
	if w.cfg.Features != dest.cfg.Features || w.cfg.Outputs != dest.cfg.Outputs ||
		len(w.cfg.Hidden) != len(dest.cfg.Hidden) {
		return errkind.New("network.CopyWeightsTo", errkind.IncompatibleCheckpoint,
			fmt.Errorf("network shapes differ: (%d,%d,%v) vs (%d,%d,%v)",
				w.cfg.Features, w.cfg.Outputs, w.cfg.Hidden,
				dest.cfg.Features, dest.cfg.Outputs, dest.cfg.Hidden))
	}
	for i := range w.cfg.Hidden {
		if w.cfg.Hidden[i] != dest.cfg.Hidden[i] {
			return errkind.New("network.CopyWeightsTo", errkind.IncompatibleCheckpoint,
				fmt.Errorf("hidden layer %d differs: %d vs %d", i,
					w.cfg.Hidden[i], dest.cfg.Hidden[i]))
		}
	}
	if err := dest.train.Set(w.train); err != nil {
		return errkind.New("network.CopyWeightsTo", errkind.NumericalInstability, err)
	}
	if err := dest.target.Set(w.train); err != nil {
		return errkind.New("network.CopyWeightsTo", errkind.NumericalInstability, err)
	}
	if dest.selector != nil {
		if err := dest.selector.Set(w.train); err != nil {
			return errkind.New("network.CopyWeightsTo", errkind.NumericalInstability, err)
		}
	}
	return dest.policy.Set(w.train)
}

// Learnables exposes the train network's learnable nodes, for
// checkpoint serialization.
func (w *Wrapper) Learnables() G.Nodes {
	return w.train.Learnables()
}

// Config returns the configuration this Wrapper was built from.
func (w *Wrapper) Config() Config {
	return w.cfg
}

func outputSlice(n NeuralNet) ([]float64, error) {
	out := n.Output()
	if out == nil {
		return nil, fmt.Errorf("network has not run a forward pass")
	}
	data, ok := out.Data().([]float64)
	if !ok {
		return nil, fmt.Errorf("output value is not a []float64")
	}
	return data, nil
}
