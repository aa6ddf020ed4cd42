// Package baseline implements the deterministic opponents used to
// measure agent strength: a full-feature heuristic player, a
// material-only subset of it, and a uniform-random player, all behind
// one Opponent contract so the validator's weighted baseline aggregate
// (0.2·random + 0.5·heuristic + 0.3·material) is three instances of
// one interface.
package baseline

import (
	"github.com/riverrun/chessrl/chessenv"
)

// Opponent selects a move from the legal action set at a board,
// deterministically (Random aside, which is seeded and therefore
// reproducible rather than literally deterministic).
type Opponent interface {
	Select(env chessenv.Environment, board *chessenv.Board, legalActions []int) int
	Name() string
}
