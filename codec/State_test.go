package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riverrun/chessrl/chessenv"
)

func TestEncodeWidthPinned(t *testing.T) {
	b, ok := chessenv.FromFEN(chessenv.StartingFEN)
	require.True(t, ok)

	v := Encode(b)
	assert.Equal(t, FeatureWidth, v.Len())
	assert.Equal(t, 839, FeatureWidth)
}

func TestEncodeIsPureAndDeterministic(t *testing.T) {
	b, ok := chessenv.FromFEN(chessenv.StartingFEN)
	require.True(t, ok)

	v1 := Encode(b)
	v2 := Encode(b)
	for i := 0; i < v1.Len(); i++ {
		assert.Equal(t, v1.AtVec(i), v2.AtVec(i))
	}
}

func TestEncodeDistinguishesPositions(t *testing.T) {
	start, _ := chessenv.FromFEN(chessenv.StartingFEN)
	other, _ := chessenv.FromFEN("8/8/8/8/8/7k/7P/7K w - - 0 1")

	v1 := Encode(start)
	v2 := Encode(other)

	different := false
	for i := 0; i < v1.Len(); i++ {
		if v1.AtVec(i) != v2.AtVec(i) {
			different = true
			break
		}
	}
	assert.True(t, different)
}

func TestActionRoundTripForLegalMoves(t *testing.T) {
	env := chessenv.NewPseudoLegalEnv()
	board := env.CurrentState()
	legal := env.LegalActions(board)
	require.NotEmpty(t, legal)

	for _, idx := range legal {
		m := DecodeAction(idx)
		got := EncodeAction(m)
		assert.Equal(t, idx, got)
	}
}

func TestActionIndexRange(t *testing.T) {
	m := chessenv.Move{From: 0, To: 63}
	idx := EncodeAction(m)
	assert.True(t, idx >= 0 && idx < NumActions)
}
