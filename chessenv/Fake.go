package chessenv

// PseudoLegalEnv is a deterministic, dependency-free stand-in for a
// real chess rules engine. It generates pseudo-legal moves (piece
// movement rules only: no check, pin, castling, en passant, or
// threefold-repetition detection) and treats king capture as the win
// condition. It exists solely so the training engine's packages have
// something concrete to drive in tests without depending on a real
// chess library. It is not a correct chess rules engine and is never
// used outside of tests.
type PseudoLegalEnv struct {
	board  *Board
	status GameStatus
	done   bool
}

// NewPseudoLegalEnv returns a PseudoLegalEnv positioned at the
// standard starting position.
func NewPseudoLegalEnv() *PseudoLegalEnv {
	e := &PseudoLegalEnv{}
	e.Reset()
	return e
}

func (e *PseudoLegalEnv) Reset() *Board {
	b, ok := FromFEN(StartingFEN)
	if !ok {
		panic("chessenv: starting FEN failed to parse")
	}
	e.board = b
	e.status = InProgress
	e.done = false
	return e.board.Clone()
}

func (e *PseudoLegalEnv) CurrentState() *Board {
	return e.board.Clone()
}

func (e *PseudoLegalEnv) LegalActions(b *Board) []int {
	moves := pseudoLegalMoves(b, b.ToMove())
	actions := make([]int, 0, len(moves))
	for _, m := range moves {
		actions = append(actions, EncodeMove(m))
	}
	return actions
}

func (e *PseudoLegalEnv) Step(action int) StepResult {
	if e.done {
		return StepResult{NextState: e.board.Clone(), Done: true, Reason: GameEnded}
	}

	mover := e.board.ToMove()
	move := DecodeMove(action)
	piece, ok := e.board.PieceAt(move.From)
	if !ok {
		// Caller presented an action outside the legal set. Step must
		// not corrupt state, so no-op and report the position
		// unchanged.
		return StepResult{NextState: e.board.Clone(), Reward: 0, Done: false,
			Reason: Ongoing}
	}

	capturedKing := false
	if target, ok := e.board.PieceAt(move.To); ok && target.Type == King {
		capturedKing = true
	}

	applyMove(e.board, move, piece)

	reward := 0.0
	done := false
	reason := Ongoing
	if capturedKing {
		done = true
		reason = GameEnded
		if mover == White {
			e.status = WhiteWins
			reward = 1.0
		} else {
			e.status = BlackWins
			reward = 1.0
		}
	} else if e.board.HalfmoveClock() >= 100 {
		done = true
		reason = GameEnded
		e.status = Draw
	}
	e.done = done

	return StepResult{
		NextState: e.board.Clone(),
		Reward:    reward,
		Done:      done,
		Reason:    reason,
		Info:      map[string]any{"mover": mover},
	}
}

func (e *PseudoLegalEnv) GameStatus() GameStatus {
	return e.status
}

func (e *PseudoLegalEnv) LoadFEN(fen string) bool {
	b, ok := FromFEN(fen)
	if !ok {
		return false
	}
	e.board = b
	e.status = InProgress
	e.done = false
	return true
}

func (e *PseudoLegalEnv) ToFEN() string {
	return ToFEN(e.board)
}

func (e *PseudoLegalEnv) PositionEvaluation(color Color) float64 {
	return materialBalance(e.board, color)
}

var materialValue = map[PieceType]float64{
	Pawn: 1, Knight: 3, Bishop: 3, Rook: 5, Queen: 9, King: 0,
}

func materialBalance(b *Board, color Color) float64 {
	total := 0.0
	b.Occupied(func(_ Square, p Piece) {
		v := materialValue[p.Type]
		if p.Color == color {
			total += v
		} else {
			total -= v
		}
	})
	return total
}

// EncodeMove maps a Move to the from*64+to action index. Promotion is
// folded into the encoding: a promoting move shares its index with the
// plain from-to pair.
func EncodeMove(m Move) int {
	return int(m.From)*64 + int(m.To)
}

// DecodeMove maps an action index back to a Move with no promotion
// piece set; callers intersect the result with the board's legal moves
// and infer the promotion piece (queen, by convention) contextually.
func DecodeMove(action int) Move {
	return Move{From: Square(action / 64), To: Square(action % 64)}
}

var knightOffsets = [][2]int{{1, 2}, {2, 1}, {2, -1}, {1, -2}, {-1, -2}, {-2, -1}, {-2, 1}, {-1, 2}}
var kingOffsets = [][2]int{{1, 0}, {1, 1}, {0, 1}, {-1, 1}, {-1, 0}, {-1, -1}, {0, -1}, {1, -1}}
var bishopDirs = [][2]int{{1, 1}, {1, -1}, {-1, 1}, {-1, -1}}
var rookDirs = [][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}

func onBoard(file, rank int) bool {
	return file >= 0 && file < 8 && rank >= 0 && rank < 8
}

func pseudoLegalMoves(b *Board, side Color) []Move {
	var moves []Move
	b.Occupied(func(sq Square, p Piece) {
		if p.Color != side {
			return
		}
		switch p.Type {
		case Pawn:
			moves = append(moves, pawnMoves(b, sq, side)...)
		case Knight:
			moves = append(moves, jumpMoves(b, sq, side, knightOffsets)...)
		case King:
			moves = append(moves, jumpMoves(b, sq, side, kingOffsets)...)
		case Bishop:
			moves = append(moves, slideMoves(b, sq, side, bishopDirs)...)
		case Rook:
			moves = append(moves, slideMoves(b, sq, side, rookDirs)...)
		case Queen:
			moves = append(moves, slideMoves(b, sq, side, append(append([][2]int{},
				bishopDirs...), rookDirs...))...)
		}
	})
	return moves
}

func pawnMoves(b *Board, sq Square, side Color) []Move {
	var moves []Move
	file, rank := sq.File(), sq.Rank()
	dir := 1
	startRank := 1
	if side == Black {
		dir = -1
		startRank = 6
	}

	// Single push
	if onBoard(file, rank+dir) {
		fwd := Square(rank+dir)*8 + Square(file)
		if _, occ := b.PieceAt(fwd); !occ {
			moves = append(moves, Move{From: sq, To: fwd})
			// Double push from the start rank
			if rank == startRank && onBoard(file, rank+2*dir) {
				dbl := Square(rank+2*dir)*8 + Square(file)
				if _, occ := b.PieceAt(dbl); !occ {
					moves = append(moves, Move{From: sq, To: dbl})
				}
			}
		}
	}

	// Diagonal captures
	for _, df := range []int{-1, 1} {
		nf, nr := file+df, rank+dir
		if !onBoard(nf, nr) {
			continue
		}
		to := Square(nr*8 + nf)
		if target, occ := b.PieceAt(to); occ && target.Color != side {
			moves = append(moves, Move{From: sq, To: to})
		}
	}
	return moves
}

func jumpMoves(b *Board, sq Square, side Color, offsets [][2]int) []Move {
	var moves []Move
	file, rank := sq.File(), sq.Rank()
	for _, off := range offsets {
		nf, nr := file+off[0], rank+off[1]
		if !onBoard(nf, nr) {
			continue
		}
		to := Square(nr*8 + nf)
		if target, occ := b.PieceAt(to); !occ || target.Color != side {
			moves = append(moves, Move{From: sq, To: to})
		}
	}
	return moves
}

func slideMoves(b *Board, sq Square, side Color, dirs [][2]int) []Move {
	var moves []Move
	file, rank := sq.File(), sq.Rank()
	for _, dir := range dirs {
		nf, nr := file+dir[0], rank+dir[1]
		for onBoard(nf, nr) {
			to := Square(nr*8 + nf)
			target, occ := b.PieceAt(to)
			if !occ {
				moves = append(moves, Move{From: sq, To: to})
			} else {
				if target.Color != side {
					moves = append(moves, Move{From: sq, To: to})
				}
				break
			}
			nf += dir[0]
			nr += dir[1]
		}
	}
	return moves
}

func applyMove(b *Board, m Move, piece Piece) {
	_, captured := b.PieceAt(m.To)
	b.SetPiece(m.From, Piece{})

	// A pawn reaching the back rank always promotes to queen; the
	// folded action encoding cannot express underpromotion.
	if piece.Type == Pawn && (m.To.Rank() == 0 || m.To.Rank() == 7) {
		piece = Piece{Type: Queen, Color: piece.Color}
	}
	b.SetPiece(m.To, piece)

	if piece.Type == Pawn || captured {
		b.SetHalfmoveClock(0)
	} else {
		b.SetHalfmoveClock(b.HalfmoveClock() + 1)
	}

	if b.ToMove() == Black {
		b.SetFullmoveNumber(b.FullmoveNumber() + 1)
	}
	b.SetEnPassant(NoSquare)
	b.SetToMove(b.ToMove().Opposite())
}
