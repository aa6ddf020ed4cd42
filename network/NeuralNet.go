package network

import (
	G "gorgonia.org/gorgonia"
)

// NeuralNet is the network contract the Wrapper trains, syncs and
// snapshots. qNet is its only implementation; the interface exists so
// the online, target, policy and selector nets read as roles rather
// than struct pointers.
type NeuralNet interface {
	// CloneWithBatch clones the network, weights included, to a new
	// graph with a new input batch size.
	CloneWithBatch(int) (NeuralNet, error)

	// Getter methods
	Graph() *G.ExprGraph
	BatchSize() int
	Features() int
	Outputs() int
	Output() G.Value     // Returns the predictions of the network
	Prediction() *G.Node // Returns the node that holds the predictions

	// Set sets the weights to those of another network
	Set(NeuralNet) error

	// Polyak computes the polyak average of the receiver's weights
	// with another network's weights and saves this average as the
	// new weights of the receiver.
	Polyak(NeuralNet, float64) error

	// Learnables returns the nodes of the network that can be learned
	Learnables() G.Nodes

	// Model returns the nodes of the network that can be learned and
	// their gradients
	Model() []G.ValueGrad

	SetInput([]float64) error // Sets the input to the network
}

// Layer implements a single layer of a NeuralNet.
type Layer interface {
	fwd(*G.Node) (*G.Node, error)
	CloneTo(g *G.ExprGraph) Layer

	Weights() *G.Node
	Bias() *G.Node
	Activation() *Activation
}
