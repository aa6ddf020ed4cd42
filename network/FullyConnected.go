package network

import (
	"fmt"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// addfcLayers builds the Q-network's stack of fully connected layers
// on graph g. For index i, sizes[i] is the number of units in layer i
// and activations[i] the nonlinearity after its affine transform;
// every layer carries a bias. inFeatures is the width of the input to
// the first layer.
func addfcLayers(g *G.ExprGraph, sizes []int, activations []*Activation,
	init G.InitWFn, inFeatures int) []Layer {
	layers := make([]Layer, len(sizes))
	in := inFeatures
	for i, out := range sizes {
		weights := G.NewMatrix(g, tensor.Float64, G.WithShape(in, out),
			G.WithName(fmt.Sprintf("Weights%d", i)), G.WithInit(init))
		bias := G.NewMatrix(g, tensor.Float64, G.WithShape(1, out),
			G.WithName(fmt.Sprintf("Bias%d", i)), G.WithInit(G.Zeroes()))

		layers[i] = &fcLayer{
			weights: weights,
			bias:    bias,
			act:     activations[i],
		}
		in = out
	}
	return layers
}

// fcLayer implements a fully connected layer of a feed forward neural
// network
type fcLayer struct {
	weights *G.Node
	bias    *G.Node
	act     *Activation
}

// Fwd adds the forward pass of the fcLayer to the computational graph
func (f *fcLayer) fwd(x *G.Node) (*G.Node, error) {
	if f.Weights() != nil {
		x = G.Must(G.Mul(x, f.Weights()))
	}
	if f.Bias() != nil {
		// Broadcast the bias weights to all samples along the batch
		// dimension
		x = G.Must(G.BroadcastAdd(x, f.Bias(), nil, []byte{0}))
	}
	if act := f.Activation(); act == nil || act.IsIdentity() {
		return x, nil
	}
	return f.Activation().fwd(x)
}

// CloneTo clones an fcLayer to a new computational graph
func (f *fcLayer) CloneTo(g *G.ExprGraph) Layer {
	var newWeights, newBias *G.Node

	if f.Weights() != nil {
		newWeights = f.Weights().CloneTo(g)
	}
	if f.Bias() != nil {
		newBias = f.Bias().CloneTo(g)
	}

	return &fcLayer{
		weights: newWeights,
		bias:    newBias,
		act:     f.act,
	}
}

// Activation returns the activation of the layer
func (f *fcLayer) Activation() *Activation {
	return f.act
}

// Bias returns the bias to the layer
func (f *fcLayer) Bias() *G.Node {
	return f.bias
}

// Weights returns the weights of the layer
func (f *fcLayer) Weights() *G.Node {
	return f.weights
}
