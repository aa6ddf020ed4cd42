package network

import (
	"fmt"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// qNet is the Q-value network of the chess agent: a flat MLP from the
// board's fixed-width feature vector to one value per action index.
// There is exactly one input head and one output head, every layer
// carries a bias, and the final layer is always linear so Q-values
// stay unbounded in both directions.
type qNet struct {
	g      *G.ExprGraph
	layers []Layer
	input  *G.Node

	features  int
	outputs   int
	batchSize int

	hidden      []int
	activations []*Activation

	learnables G.Nodes
	model      []G.ValueGrad

	prediction *G.Node
	predVal    G.Value
}

// newQNet builds a Q-value network on graph g mapping a
// (batch, features) input to (batch, outputs) action values. hidden
// and activations describe the hidden stack; a bias-carrying linear
// layer to outputs is always appended as the final layer.
func newQNet(features, batch, outputs int, g *G.ExprGraph, hidden []int,
	init G.InitWFn, activations []*Activation) (NeuralNet, error) {
	if len(hidden) != len(activations) {
		return nil, fmt.Errorf("newqnet: %d hidden layers but %d activations",
			len(hidden), len(activations))
	}
	if features <= 0 || outputs <= 0 || batch <= 0 {
		return nil, fmt.Errorf("newqnet: features, outputs and batch size " +
			"must all be positive")
	}

	input := G.NewMatrix(g, tensor.Float64, G.WithShape(batch, features),
		G.WithName("input"), G.WithInit(G.Zeroes()))

	sizes := append(append([]int(nil), hidden...), outputs)
	acts := append(append([]*Activation(nil), activations...), Identity())

	net := &qNet{
		g:           g,
		layers:      addfcLayers(g, sizes, acts, init, features),
		input:       input,
		features:    features,
		outputs:     outputs,
		batchSize:   batch,
		hidden:      hidden,
		activations: activations,
	}
	if _, err := net.fwd(input); err != nil {
		return nil, fmt.Errorf("newqnet: could not compute forward pass: %v", err)
	}
	return net, nil
}

// CloneWithBatch clones the network, weights included, onto a fresh
// graph with a new input batch size. The Wrapper uses this to derive
// the batched train/target/selector nets from the single-sample policy
// net, and InferenceSnapshot to freeze a worker-private copy.
func (n *qNet) CloneWithBatch(batch int) (NeuralNet, error) {
	graph := G.NewGraph()
	input := G.NewMatrix(graph, tensor.Float64, G.WithShape(batch, n.features),
		G.WithName("input"), G.WithInit(G.Zeroes()))

	layers := make([]Layer, len(n.layers))
	for i := range n.layers {
		layers[i] = n.layers[i].CloneTo(graph)
	}

	clone := &qNet{
		g:           graph,
		layers:      layers,
		input:       input,
		features:    n.features,
		outputs:     n.outputs,
		batchSize:   batch,
		hidden:      n.hidden,
		activations: n.activations,
	}
	if _, err := clone.fwd(input); err != nil {
		return nil, fmt.Errorf("clonewithbatch: could not compute forward "+
			"pass: %v", err)
	}
	return clone, nil
}

// Graph returns the computational graph of the network.
func (n *qNet) Graph() *G.ExprGraph {
	return n.g
}

// BatchSize returns the input batch size the network was built with.
func (n *qNet) BatchSize() int {
	return n.batchSize
}

// Features returns the width of a single observation vector.
func (n *qNet) Features() int {
	return n.features
}

// Outputs returns the number of action values the network predicts.
func (n *qNet) Outputs() int {
	return n.outputs
}

// SetInput sets the value of the input node before running the forward
// pass.
func (n *qNet) SetInput(input []float64) error {
	if len(input) != n.features*n.batchSize {
		return fmt.Errorf("setinput: invalid number of inputs\n\twant(%v)"+
			"\n\thave(%v)", n.features*n.batchSize, len(input))
	}
	inputTensor := tensor.New(
		tensor.WithBacking(input),
		tensor.WithShape(n.batchSize, n.features),
	)
	return G.Let(n.input, inputTensor)
}

// Set sets the weights of the network to be equal to the weights of
// source.
func (n *qNet) Set(source NeuralNet) error {
	sourceNodes := source.Learnables()
	nodes := n.Learnables()
	for i, destLearnable := range nodes {
		sourceLearnable := sourceNodes[i].Clone()
		err := G.Let(destLearnable, sourceLearnable.(*G.Node).Value())
		if err != nil {
			return err
		}
	}
	return nil
}

// Polyak sets the weights of the network to a polyak average between
// its existing weights and the weights of source.
func (n *qNet) Polyak(source NeuralNet, tau float64) error {
	sourceNodes := source.Learnables()
	nodes := n.Learnables()
	for i := range nodes {
		weights := nodes[i].Value().(*tensor.Dense)
		sourceWeights := sourceNodes[i].Value().(*tensor.Dense)

		weights, err := weights.MulScalar(1-tau, true)
		if err != nil {
			return err
		}

		sourceWeights, err = sourceWeights.MulScalar(tau, true)
		if err != nil {
			return err
		}

		var newWeights *tensor.Dense
		newWeights, err = weights.Add(sourceWeights)
		if err != nil {
			return err
		}

		G.Let(nodes[i], newWeights)
	}
	return nil
}

// Learnables returns the learnable nodes of the network.
func (n *qNet) Learnables() G.Nodes {
	// Lazy instantiation
	if n.learnables == nil {
		n.learnables = n.computeLearnables()
	}
	return n.learnables
}

func (n *qNet) computeLearnables() G.Nodes {
	learnables := make([]*G.Node, 0, 2*len(n.layers))
	for i := range n.layers {
		learnables = append(learnables, n.layers[i].Weights())
		if bias := n.layers[i].Bias(); bias != nil {
			learnables = append(learnables, bias)
		}
	}
	return G.Nodes(learnables)
}

// Model returns the learnable nodes with their gradients.
func (n *qNet) Model() []G.ValueGrad {
	// Lazy instantiation
	if n.model == nil {
		n.model = n.computeModel()
	}
	return n.model
}

func (n *qNet) computeModel() []G.ValueGrad {
	model := make([]G.ValueGrad, 0, 2*len(n.layers))
	for _, node := range n.Learnables() {
		model = append(model, node)
	}
	return model
}

// fwd performs the forward pass of the network on the input node.
func (n *qNet) fwd(input *G.Node) (*G.Node, error) {
	inputShape := input.Shape()[len(input.Shape())-1]
	if inputShape != n.features {
		return nil, fmt.Errorf("fwd: invalid shape for input to network:"+
			" \n\twant(%v) \n\thave(%v)", n.features, inputShape)
	}

	pred := input
	var err error
	for i, l := range n.layers {
		if pred, err = l.fwd(pred); err != nil {
			return nil, fmt.Errorf("fwd: could not compute forward pass of "+
				"layer %v: %v", i, err)
		}
	}

	n.prediction = pred

	G.Read(n.prediction, &n.predVal)

	return pred, nil
}

// Output returns the predicted action values of the network after the
// last forward pass.
func (n *qNet) Output() G.Value {
	return n.predVal
}

// Prediction returns the node of the computational graph that stores
// the network's output.
func (n *qNet) Prediction() *G.Node {
	return n.prediction
}
