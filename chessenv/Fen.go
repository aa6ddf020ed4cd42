package chessenv

import (
	"fmt"
	"strconv"
	"strings"
)

var pieceLetters = map[PieceType]byte{
	Pawn: 'p', Knight: 'n', Bishop: 'b', Rook: 'r', Queen: 'q', King: 'k',
}

var letterPieces = map[byte]PieceType{
	'p': Pawn, 'n': Knight, 'b': Bishop, 'r': Rook, 'q': Queen, 'k': King,
}

// ToFEN serializes a board to Forsyth-Edwards Notation.
func ToFEN(b *Board) string {
	var ranks []string
	for rank := 7; rank >= 0; rank-- {
		var sb strings.Builder
		empty := 0
		for file := 0; file < 8; file++ {
			sq := Square(rank*8 + file)
			p, ok := b.PieceAt(sq)
			if !ok {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteString(strconv.Itoa(empty))
				empty = 0
			}
			letter := pieceLetters[p.Type]
			if p.Color == White {
				letter = byte(strings.ToUpper(string(letter))[0])
			}
			sb.WriteByte(letter)
		}
		if empty > 0 {
			sb.WriteString(strconv.Itoa(empty))
		}
		ranks = append(ranks, sb.String())
	}
	placement := strings.Join(ranks, "/")

	side := "w"
	if b.ToMove() == Black {
		side = "b"
	}

	castling := ""
	rights := b.Castling()
	if rights.WhiteKingside {
		castling += "K"
	}
	if rights.WhiteQueenside {
		castling += "Q"
	}
	if rights.BlackKingside {
		castling += "k"
	}
	if rights.BlackQueenside {
		castling += "q"
	}
	if castling == "" {
		castling = "-"
	}

	ep := "-"
	if sq, ok := b.EnPassant(); ok {
		ep = squareName(sq)
	}

	return fmt.Sprintf("%s %s %s %s %d %d", placement, side, castling, ep,
		b.HalfmoveClock(), b.FullmoveNumber())
}

// FromFEN parses Forsyth-Edwards Notation into a Board. It returns
// (nil, false) on malformed input rather than panicking, so LoadFEN
// can report failure instead of crashing.
func FromFEN(fen string) (*Board, bool) {
	fields := strings.Fields(fen)
	if len(fields) != 6 {
		return nil, false
	}

	b := NewEmptyBoard()
	ranks := strings.Split(fields[0], "/")
	if len(ranks) != 8 {
		return nil, false
	}
	for i, rankStr := range ranks {
		rank := 7 - i
		file := 0
		for _, ch := range rankStr {
			if ch >= '1' && ch <= '8' {
				file += int(ch - '0')
				continue
			}
			if file >= 8 {
				return nil, false
			}
			pt, ok := letterPieces[byte(strings.ToLower(string(ch))[0])]
			if !ok {
				return nil, false
			}
			color := Black
			if ch >= 'A' && ch <= 'Z' {
				color = White
			}
			b.SetPiece(Square(rank*8+file), Piece{Type: pt, Color: color})
			file++
		}
		if file != 8 {
			return nil, false
		}
	}

	switch fields[1] {
	case "w":
		b.SetToMove(White)
	case "b":
		b.SetToMove(Black)
	default:
		return nil, false
	}

	var rights CastlingRights
	if fields[2] != "-" {
		for _, ch := range fields[2] {
			switch ch {
			case 'K':
				rights.WhiteKingside = true
			case 'Q':
				rights.WhiteQueenside = true
			case 'k':
				rights.BlackKingside = true
			case 'q':
				rights.BlackQueenside = true
			default:
				return nil, false
			}
		}
	}
	b.SetCastling(rights)

	if fields[3] == "-" {
		b.SetEnPassant(NoSquare)
	} else {
		sq, ok := parseSquareName(fields[3])
		if !ok {
			return nil, false
		}
		b.SetEnPassant(sq)
	}

	halfmove, err := strconv.Atoi(fields[4])
	if err != nil {
		return nil, false
	}
	b.SetHalfmoveClock(halfmove)

	fullmove, err := strconv.Atoi(fields[5])
	if err != nil {
		return nil, false
	}
	b.SetFullmoveNumber(fullmove)

	return b, true
}

func squareName(sq Square) string {
	return fmt.Sprintf("%c%d", 'a'+sq.File(), sq.Rank()+1)
}

func parseSquareName(s string) (Square, bool) {
	if len(s) != 2 {
		return 0, false
	}
	file := int(s[0] - 'a')
	rank := int(s[1] - '1')
	if file < 0 || file > 7 || rank < 0 || rank > 7 {
		return 0, false
	}
	return Square(rank*8 + file), true
}

// StartingFEN is the standard chess starting position.
const StartingFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"
