package baseline

import (
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"

	"github.com/riverrun/chessrl/chessenv"
)

func TestHeuristicSelectIsDeterministic(t *testing.T) {
	env := chessenv.NewPseudoLegalEnv()
	board := env.Reset()
	legal := env.LegalActions(board)
	require.NotEmpty(t, legal)

	h := NewHeuristic()
	first := h.Select(env, board, legal)
	second := h.Select(env, board, legal)
	require.Equal(t, first, second)
}

func TestHeuristicPrefersFreeMaterial(t *testing.T) {
	env := chessenv.NewPseudoLegalEnv()
	fen := "4k3/8/8/3p4/4P3/8/8/4K3 w - - 0 1"
	require.True(t, env.LoadFEN(fen))
	board, ok := chessenv.FromFEN(fen)
	require.True(t, ok)

	legal := env.LegalActions(board)
	require.NotEmpty(t, legal)

	h := NewHeuristic()
	action := h.Select(env, board, legal)

	resulting := chessenv.ApplyMove(board, action)
	_, blackPawnStillThere := resulting.PieceAt(chessenv.Square(35)) // d5
	require.False(t, blackPawnStillThere, "heuristic should capture the free pawn on d5")
}

func TestMaterialSelectIsDeterministic(t *testing.T) {
	env := chessenv.NewPseudoLegalEnv()
	board := env.Reset()
	legal := env.LegalActions(board)

	m := NewMaterial()
	first := m.Select(env, board, legal)
	second := m.Select(env, board, legal)
	require.Equal(t, first, second)
}

func TestRandomSelectIsReproducibleFromSeed(t *testing.T) {
	env := chessenv.NewPseudoLegalEnv()
	board := env.Reset()
	legal := env.LegalActions(board)

	r1 := NewRandom(rand.New(rand.NewSource(42)))
	r2 := NewRandom(rand.New(rand.NewSource(42)))

	require.Equal(t, r1.Select(env, board, legal), r2.Select(env, board, legal))
}

func TestOpponentNames(t *testing.T) {
	require.Equal(t, "heuristic", NewHeuristic().Name())
	require.Equal(t, "material", NewMaterial().Name())
	require.Equal(t, "random", NewRandom(rand.New(rand.NewSource(1))).Name())
}
