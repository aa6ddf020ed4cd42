package network

import (
	"sync"

	"github.com/riverrun/chessrl/errkind"

	G "gorgonia.org/gorgonia"
)

// InferenceSnapshot is a read-only, single-example forward pass over a
// private clone of a Wrapper's train network. Self-play workers each
// hold one so concurrent action selection never contends on the
// shared Wrapper's policy VM; it is resynced once per cycle rather
// than on every step, per the read-only-online-net-snapshot-per-cycle
// contract. Mirrors the policy := ...CloneWithBatch(1) construction in
// NewWithLoss, but clones the caller's current weights instead of a
// fresh initialization.
type InferenceSnapshot struct {
	mu  sync.Mutex
	net NeuralNet
	vm  G.VM
}

// NewInferenceSnapshot builds an InferenceSnapshot synced to w's
// current train-network weights.
func NewInferenceSnapshot(w *Wrapper) (*InferenceSnapshot, error) {
	net, err := w.train.CloneWithBatch(1)
	if err != nil {
		return nil, errkind.New("network.NewInferenceSnapshot", errkind.InvalidConfiguration, err)
	}
	if err := net.Set(w.train); err != nil {
		return nil, errkind.New("network.NewInferenceSnapshot", errkind.NumericalInstability, err)
	}
	return &InferenceSnapshot{net: net, vm: G.NewTapeMachine(net.Graph())}, nil
}

// Sync refreshes the snapshot's weights from w's current train
// network, without rebuilding the graph or VM.
func (s *InferenceSnapshot) Sync(w *Wrapper) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.net.Set(w.train); err != nil {
		return errkind.New("network.InferenceSnapshot.Sync", errkind.NumericalInstability, err)
	}
	return nil
}

// Forward runs the snapshot's network on a single observation and
// returns the predicted action values. Forward is safe for concurrent
// use: workers that share a snapshot (a frozen pool opponent sampled
// by two games at once) serialize on its mutex.
func (s *InferenceSnapshot) Forward(observation []float64) ([]float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.net.SetInput(observation); err != nil {
		return nil, errkind.New("network.InferenceSnapshot.Forward", errkind.InvalidConfiguration, err)
	}
	s.vm.RunAll()
	defer s.vm.Reset()

	values, err := outputSlice(s.net)
	if err != nil {
		return nil, errkind.New("network.InferenceSnapshot.Forward", errkind.NumericalInstability, err)
	}
	return values, nil
}
