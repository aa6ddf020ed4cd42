package network

import (
	G "gorgonia.org/gorgonia"
)

type activationType string

// The catalogue is deliberately small. ReLU is the hidden-stack
// default for the Q-network; TanH and Sigmoid are the bounded
// alternatives worth trying on a value function; Identity is the final
// layer's, since Q-values must stay unbounded in both directions.
const (
	relu     activationType = "relu"
	tanh     activationType = "tanh"
	sigmoid  activationType = "sigmoid"
	identity activationType = "identity"
)

// Activation is a nonlinearity applied after a layer's affine
// transform.
type Activation struct {
	activationType
	f func(x *G.Node) (*G.Node, error)
}

// Fwd performs the forward pass of an Activation
func (a *Activation) fwd(x *G.Node) (*G.Node, error) {
	return a.f(x)
}

// String implements the Stringer interface
func (a *Activation) String() string {
	return string(a.activationType)
}

// IsIdentity returns whether or not the Activation is the identity
// function.
func (a *Activation) IsIdentity() bool {
	return a.activationType == identity
}

// Identity returns an identity activation
func Identity() *Activation {
	return &Activation{
		activationType: identity,
		f: func(x *G.Node) (*G.Node, error) {
			return x, nil
		},
	}
}

// ReLU returns a rectified linear unit activation
func ReLU() *Activation {
	return &Activation{
		activationType: relu,
		f:              G.Rectify,
	}
}

// TanH returns a hyperbolic tangent activation
func TanH() *Activation {
	return &Activation{
		activationType: tanh,
		f:              G.Tanh,
	}
}

// Sigmoid returns a sigmoid activation
func Sigmoid() *Activation {
	return &Activation{
		activationType: sigmoid,
		f:              G.Sigmoid,
	}
}
