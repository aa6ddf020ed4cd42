package chessenv

// ApplyMove returns a clone of b with action applied, pure and
// side-effect free: it implements the same movement rules as
// PseudoLegalEnv.Step (promotion always to queen, halfmove clock per
// the fifty-move rule, side-to-move flip) but as a static utility over
// a board value, for baseline opponents that evaluate candidate moves
// on a board copy without mutating a live Environment.
func ApplyMove(b *Board, action int) *Board {
	clone := b.Clone()
	move := DecodeMove(action)
	piece, ok := clone.PieceAt(move.From)
	if !ok {
		return clone
	}
	applyMove(clone, move, piece)
	return clone
}

// PseudoLegalMoves exposes pseudoLegalMoves for callers outside the
// package (the baseline evaluator's mobility feature) that need a
// move count for a side without stepping a live Environment.
func PseudoLegalMoves(b *Board, side Color) []Move {
	return pseudoLegalMoves(b, side)
}
