package chessenv

// Move is a move descriptor: a from-square, a to-square, and an
// optional promotion piece (None for non-promoting moves).
type Move struct {
	From      Square
	To        Square
	Promotion PieceType // None, or one of Knight/Bishop/Rook/Queen
}
