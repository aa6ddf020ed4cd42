package chessenv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFENRoundTrip(t *testing.T) {
	b, ok := FromFEN(StartingFEN)
	require.True(t, ok)
	assert.Equal(t, StartingFEN, ToFEN(b))
}

func TestFENRejectsMalformed(t *testing.T) {
	_, ok := FromFEN("not a fen string")
	assert.False(t, ok)

	_, ok = FromFEN("rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0")
	assert.False(t, ok)
}

func TestPseudoLegalEnvBlockedPawnPositionHasMoves(t *testing.T) {
	env := NewPseudoLegalEnv()
	ok := env.LoadFEN("8/8/8/8/8/7k/7P/7K w - - 0 1")
	require.True(t, ok)

	legal := env.LegalActions(env.CurrentState())
	require.NotEmpty(t, legal)
}

func TestStepCapturesKingEndsGame(t *testing.T) {
	env := NewPseudoLegalEnv()
	ok := env.LoadFEN("k7/8/8/8/8/8/8/R6K w - - 0 1")
	require.True(t, ok)

	a1 := int(Square(0))*64 + int(Square(56)) // Ra1-a8 captures the king
	result := env.Step(a1)
	assert.True(t, result.Done)
	assert.Equal(t, GameEnded, result.Reason)
	assert.Equal(t, WhiteWins, env.GameStatus())
	assert.Equal(t, 1.0, result.Reward)
}

func TestEncodeDecodeMoveRoundTrip(t *testing.T) {
	m := Move{From: 12, To: 28}
	idx := EncodeMove(m)
	decoded := DecodeMove(idx)
	assert.Equal(t, m.From, decoded.From)
	assert.Equal(t, m.To, decoded.To)
}
