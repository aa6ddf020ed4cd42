package seed

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitializeIdempotent(t *testing.T) {
	f := New()
	require.NoError(t, f.Initialize(42))
	require.NoError(t, f.Initialize(42))

	master, ok := f.MasterSeed()
	assert.True(t, ok)
	assert.Equal(t, int64(42), master)
}

func TestReseedConflict(t *testing.T) {
	f := New()
	require.NoError(t, f.Initialize(1))
	f.Stream(General) // consume a stream

	err := f.Initialize(2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ReseedConflict")
}

func TestStreamsAreIndependent(t *testing.T) {
	f := New()
	require.NoError(t, f.Initialize(7))

	nn := f.Stream(NeuralNetwork)
	expl := f.Stream(Exploration)

	a := nn.Float64()
	b := expl.Float64()
	// Extremely unlikely to collide for independent streams; this is a
	// smoke check, not a statistical proof of independence.
	assert.NotEqual(t, a, b)
}

func TestSameStreamReturnsSameGenerator(t *testing.T) {
	f := New()
	require.NoError(t, f.Initialize(123))

	r1 := f.Stream(ReplayBuffer)
	first := r1.Float64()

	r2 := f.Stream(ReplayBuffer)
	assert.Same(t, r1, r2)

	// r2 continues the same sequence rather than restarting it.
	second := r2.Float64()
	assert.NotEqual(t, first, second)
}

func TestDeterministicAcrossFabrics(t *testing.T) {
	f1 := New()
	require.NoError(t, f1.Initialize(99))

	f2 := New()
	require.NoError(t, f2.Initialize(99))

	for _, name := range []string{NeuralNetwork, Exploration, ReplayBuffer, SelfPlay, General} {
		r1 := f1.Stream(name)
		r2 := f2.Stream(name)

		draws1 := make([]float64, 5)
		draws2 := make([]float64, 5)
		for i := range draws1 {
			draws1[i] = r1.Float64()
			draws2[i] = r2.Float64()
		}
		if diff := cmp.Diff(draws1, draws2); diff != "" {
			t.Errorf("stream %s diverged (-f1 +f2):\n%s", name, diff)
		}
	}
}

func TestValidate(t *testing.T) {
	f := New()
	assert.False(t, f.Validate())
	require.NoError(t, f.Initialize(5))
	assert.True(t, f.Validate())
}
