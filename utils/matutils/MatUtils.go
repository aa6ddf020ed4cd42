// Package matutils implements utility functions for working with
// mat.Matrix structs
package matutils

import (
	"gonum.org/v1/gonum/mat"
)

// VecSlice flattens a mat.Vector into a plain []float64, for callers
// (the network and replay packages) that need a flat backing array
// rather than gonum's matrix abstraction.
func VecSlice(v mat.Vector) []float64 {
	out := make([]float64, v.Len())
	for i := range out {
		out[i] = v.AtVec(i)
	}
	return out
}
