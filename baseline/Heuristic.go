package baseline

import (
	"math"

	"github.com/riverrun/chessrl/chessenv"
)

var pieceValue = map[chessenv.PieceType]float64{
	chessenv.Pawn: 1, chessenv.Knight: 3, chessenv.Bishop: 3.1,
	chessenv.Rook: 5, chessenv.Queen: 9, chessenv.King: 0,
}

// pawnTable is a small piece-square table rewarding central, advanced
// pawns (indexed by rank from the pawn's own side, 0 = own back rank).
var pawnTable = [8]float64{0, 0.05, 0.05, 0.1, 0.2, 0.35, 0.55, 0}

// centerBonus rewards central squares for minor pieces, by file/rank
// distance from the center.
func centerBonus(sq chessenv.Square) float64 {
	fileDist := math.Abs(float64(sq.File()) - 3.5)
	rankDist := math.Abs(float64(sq.Rank()) - 3.5)
	return 0.1 * (4.0 - (fileDist + rankDist) / 2.0) / 4.0
}

// Heuristic is the strongest deterministic opponent: weighted
// material, piece-square tables, pawn structure, king safety, and
// mobility. Select simulates each legal move on a board copy and picks
// the argmax; ties break on the lower action index, whatever order
// legalActions arrives in.
type Heuristic struct{}

// NewHeuristic constructs a Heuristic opponent. It carries no state:
// identical inputs always produce identical outputs.
func NewHeuristic() *Heuristic {
	return &Heuristic{}
}

func (h *Heuristic) Select(env chessenv.Environment, board *chessenv.Board, legalActions []int) int {
	return argmaxBySimulation(env, board, legalActions, h.evaluate)
}

func (h *Heuristic) Name() string { return "heuristic" }

func (h *Heuristic) evaluate(b *chessenv.Board, mover chessenv.Color) float64 {
	score := 0.0
	score += materialScore(b, mover)
	score += pieceSquareScore(b, mover)
	score += pawnStructureScore(b, mover)
	score += kingSafetyScore(b, mover)
	score += mobilityScore(b, mover)
	return score
}

func materialScore(b *chessenv.Board, mover chessenv.Color) float64 {
	total := 0.0
	b.Occupied(func(_ chessenv.Square, p chessenv.Piece) {
		v := pieceValue[p.Type]
		if p.Color == mover {
			total += v
		} else {
			total -= v
		}
	})
	return total
}

func pieceSquareScore(b *chessenv.Board, mover chessenv.Color) float64 {
	total := 0.0
	b.Occupied(func(sq chessenv.Square, p chessenv.Piece) {
		sign := 1.0
		if p.Color != mover {
			sign = -1.0
		}
		switch p.Type {
		case chessenv.Pawn:
			rank := sq.Rank()
			if p.Color == chessenv.Black {
				rank = 7 - rank
			}
			total += sign * pawnTable[rank]
		case chessenv.Knight, chessenv.Bishop:
			total += sign * centerBonus(sq)
		}
	})
	return total
}

// pawnStructureScore penalizes doubled/isolated pawns and rewards
// passed pawns, per file, for both sides, combined from mover's
// perspective.
func pawnStructureScore(b *chessenv.Board, mover chessenv.Color) float64 {
	var whiteFiles, blackFiles [8]int
	var whiteMaxRank, blackMinRank [8]int
	for f := range whiteMaxRank {
		whiteMaxRank[f] = -1
		blackMinRank[f] = 8
	}
	b.Occupied(func(sq chessenv.Square, p chessenv.Piece) {
		if p.Type != chessenv.Pawn {
			return
		}
		f := sq.File()
		if p.Color == chessenv.White {
			whiteFiles[f]++
			if sq.Rank() > whiteMaxRank[f] {
				whiteMaxRank[f] = sq.Rank()
			}
		} else {
			blackFiles[f]++
			if sq.Rank() < blackMinRank[f] {
				blackMinRank[f] = sq.Rank()
			}
		}
	})

	whiteScore := pawnFileScore(whiteFiles, whiteMaxRank, blackFiles, true)
	blackScore := pawnFileScore(blackFiles, blackMinRank, whiteFiles, false)

	if mover == chessenv.White {
		return whiteScore - blackScore
	}
	return blackScore - whiteScore
}

func pawnFileScore(files [8]int, advance [8]int, enemyFiles [8]int, white bool) float64 {
	score := 0.0
	for f := 0; f < 8; f++ {
		if files[f] == 0 {
			continue
		}
		if files[f] > 1 {
			score -= 0.2 * float64(files[f]-1) // doubled
		}
		isolated := true
		if f > 0 && files[f-1] > 0 {
			isolated = false
		}
		if f < 7 && files[f+1] > 0 {
			isolated = false
		}
		if isolated {
			score -= 0.15
		}
		if isPassed(f, enemyFiles) {
			score += 0.25
		}
	}
	return score
}

func isPassed(file int, enemyFiles [8]int) bool {
	for f := file - 1; f <= file+1; f++ {
		if f < 0 || f > 7 {
			continue
		}
		if enemyFiles[f] > 0 {
			return false
		}
	}
	return true
}

// kingSafetyScore rewards king distance from the center early (fewer
// attackers reach it) plus a friendly-piece pawn shield, combined from
// mover's perspective.
func kingSafetyScore(b *chessenv.Board, mover chessenv.Color) float64 {
	whiteKing, whiteOK := findKing(b, chessenv.White)
	blackKing, blackOK := findKing(b, chessenv.Black)

	whiteSafety := 0.0
	if whiteOK {
		whiteSafety = kingDistanceBonus(whiteKing) + pawnShield(b, whiteKing, chessenv.White)
	}
	blackSafety := 0.0
	if blackOK {
		blackSafety = kingDistanceBonus(blackKing) + pawnShield(b, blackKing, chessenv.Black)
	}

	if mover == chessenv.White {
		return whiteSafety - blackSafety
	}
	return blackSafety - whiteSafety
}

func kingDistanceBonus(sq chessenv.Square) float64 {
	fileDist := math.Abs(float64(sq.File()) - 3.5)
	rankDist := math.Abs(float64(sq.Rank()) - 3.5)
	return 0.05 * (fileDist + rankDist)
}

func pawnShield(b *chessenv.Board, king chessenv.Square, color chessenv.Color) float64 {
	shield := 0
	for df := -1; df <= 1; df++ {
		for dr := -1; dr <= 1; dr++ {
			if df == 0 && dr == 0 {
				continue
			}
			file, rank := king.File()+df, king.Rank()+dr
			if file < 0 || file > 7 || rank < 0 || rank > 7 {
				continue
			}
			if p, ok := b.PieceAt(chessenv.Square(rank*8 + file)); ok &&
				p.Color == color && p.Type == chessenv.Pawn {
				shield++
			}
		}
	}
	return 0.1 * float64(shield)
}

func findKing(b *chessenv.Board, color chessenv.Color) (chessenv.Square, bool) {
	var found chessenv.Square
	ok := false
	b.Occupied(func(sq chessenv.Square, p chessenv.Piece) {
		if p.Type == chessenv.King && p.Color == color {
			found = sq
			ok = true
		}
	})
	return found, ok
}

func mobilityScore(b *chessenv.Board, mover chessenv.Color) float64 {
	moverMoves := len(chessenv.PseudoLegalMoves(b, mover))
	otherMoves := len(chessenv.PseudoLegalMoves(b, mover.Opposite()))
	return 0.02 * float64(moverMoves-otherMoves)
}

// argmaxBySimulation applies each legal action to a copy of board,
// evaluates the result from the mover's perspective, and returns the
// action with the highest score. Ties break on the lower action index
// (an equal score replaces the incumbent only when its action index is
// lower).
func argmaxBySimulation(env chessenv.Environment, board *chessenv.Board, legalActions []int,
	evaluate func(*chessenv.Board, chessenv.Color) float64) int {
	mover := board.ToMove()
	best := legalActions[0]
	bestScore := evaluate(chessenv.ApplyMove(board, best), mover)
	for _, action := range legalActions[1:] {
		resulting := chessenv.ApplyMove(board, action)
		score := evaluate(resulting, mover)
		if score > bestScore || (score == bestScore && action < best) {
			bestScore = score
			best = action
		}
	}
	return best
}
