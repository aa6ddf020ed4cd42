package codec

import "github.com/riverrun/chessrl/chessenv"

// NumActions is the size of the action space: from-to square pairs
// with promotion folded into the encoding.
const NumActions = 64 * 64

// EncodeAction maps a move descriptor to its action index. It requires
// a legal move; the function itself is a pure from*64+to computation
// and does not check legality (callers are expected to have obtained m
// from chessenv.Environment.LegalActions or otherwise validated it).
func EncodeAction(m chessenv.Move) int {
	return chessenv.EncodeMove(m)
}

// DecodeAction maps an action index back to a move descriptor. It is
// total (defined for every index in [0, NumActions)) but may return a
// descriptor that is not legal at any particular board; callers must
// intersect the result with the board's legal action set. Decoding an
// index outside [0, NumActions) is undefined behavior for the core.
func DecodeAction(index int) chessenv.Move {
	return chessenv.DecodeMove(index)
}
