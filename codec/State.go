// Package codec implements the pure state/action encoding layer:
// encoding a board to a fixed-width feature vector, and the bijection
// between move descriptors and action indices. Both directions are
// total, deterministic, and stateless; the feature width is fixed at
// build time.
package codec

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/riverrun/chessrl/chessenv"
)

// Revision identifies a feature-encoding scheme. Exactly one width is
// pinned at build time; mixing encodings across a run is refused when
// a checkpoint recorded under a different revision is loaded.
type Revision int

const (
	// RevisionV1 is the only encoding this core implements: 12 piece
	// planes over 64 squares (768) plus 71 auxiliary scalar features
	// (side to move, castling, en passant, move clocks, material and
	// structural counts), for F = 839. The aux* constants below give
	// the exact accounting.
	RevisionV1 Revision = 839
)

const (
	numPieceTypes = 6 // Pawn..King
	numColors     = 2
	numSquares    = 64

	boardPlanes = numPieceTypes * numColors * numSquares // 768

	auxSideToMove     = 1
	auxCastling       = 4
	auxEnPassant      = 9 // 8 files + "none"
	auxHalfmoveClock  = 1
	auxFullmoveNumber = 1
	auxMaterialCounts = numPieceTypes * numColors // 12, per (type, color)
	auxFileCounts     = 8 * numColors             // 16
	auxRankCounts     = 8 * numColors             // 16
	auxKingFile       = numColors // 2
	auxKingRank       = numColors // 2
	auxMaterialTotal  = numColors // 2
	auxKingSafety     = numColors // 2
	auxBishopPairDiff = 1
	auxCastlingTempo  = 1
	auxTotalPieces    = 1

	auxFeatures = auxSideToMove + auxCastling + auxEnPassant +
		auxHalfmoveClock + auxFullmoveNumber + auxMaterialCounts +
		auxFileCounts + auxRankCounts + auxKingFile + auxKingRank +
		auxMaterialTotal + auxKingSafety + auxBishopPairDiff +
		auxCastlingTempo + auxTotalPieces // 71
)

// FeatureWidth is the compile-time-pinned feature width F used by
// Encode. It is exposed so other components (the network wrapper,
// checkpoint headers) can validate they were built against the same
// revision.
const FeatureWidth = boardPlanes + auxFeatures // 839, matching RevisionV1

func init() {
	if FeatureWidth != int(RevisionV1) {
		panic(fmt.Sprintf("codec: feature width accounting mismatch: "+
			"computed(%d) pinned(%d)", FeatureWidth, RevisionV1))
	}
}

var pieceTypeOrder = [numPieceTypes]chessenv.PieceType{
	chessenv.Pawn, chessenv.Knight, chessenv.Bishop,
	chessenv.Rook, chessenv.Queen, chessenv.King,
}

// Encode is a total, pure function from a board to its RevisionV1
// feature vector in ℝ^F. It is deterministic and stateless: the same
// board always encodes to the same vector, independent of any prior
// call.
func Encode(b *chessenv.Board) *mat.VecDense {
	features := make([]float64, 0, FeatureWidth)
	features = append(features, boardPlaneFeatures(b)...)
	features = append(features, auxiliaryFeatures(b)...)

	if len(features) != FeatureWidth {
		panic(fmt.Sprintf("codec: encode produced %d features, want %d",
			len(features), FeatureWidth))
	}
	return mat.NewVecDense(FeatureWidth, features)
}

// boardPlaneFeatures returns the 768 piece-placement planes: for each
// of the 6 piece types and 2 colors, a 64-length one-hot-per-square
// indicator of occupancy.
func boardPlaneFeatures(b *chessenv.Board) []float64 {
	planes := make([]float64, boardPlanes)
	b.Occupied(func(sq chessenv.Square, p chessenv.Piece) {
		typeIdx := pieceTypeIndex(p.Type)
		colorIdx := int(p.Color)
		planeIdx := typeIdx*numColors + colorIdx
		planes[planeIdx*numSquares+int(sq)] = 1.0
	})
	return planes
}

func pieceTypeIndex(t chessenv.PieceType) int {
	for i, pt := range pieceTypeOrder {
		if pt == t {
			return i
		}
	}
	panic(fmt.Sprintf("codec: unknown piece type %v", t))
}

// auxiliaryFeatures returns the 71 scalar features summarized in the
// aux* constants above, in a fixed order.
func auxiliaryFeatures(b *chessenv.Board) []float64 {
	out := make([]float64, 0, auxFeatures)

	// Side to move (1)
	sideToMove := 0.0
	if b.ToMove() == chessenv.Black {
		sideToMove = 1.0
	}
	out = append(out, sideToMove)

	// Castling rights (4)
	rights := b.Castling()
	out = append(out, boolFeature(rights.WhiteKingside),
		boolFeature(rights.WhiteQueenside),
		boolFeature(rights.BlackKingside),
		boolFeature(rights.BlackQueenside))

	// En passant file one-hot + none (9)
	epFeatures := make([]float64, 9)
	if sq, ok := b.EnPassant(); ok {
		epFeatures[sq.File()] = 1.0
	} else {
		epFeatures[8] = 1.0
	}
	out = append(out, epFeatures...)

	// Halfmove clock, normalized by the 100-halfmove draw threshold (1)
	out = append(out, float64(b.HalfmoveClock())/100.0)

	// Fullmove number, squashed so long games don't dominate (1)
	out = append(out, float64(b.FullmoveNumber())/(float64(b.FullmoveNumber())+50.0))

	// Material counts per (type, color), normalized by a generous max
	// count per type (12)
	counts := materialCounts(b)
	for _, pt := range pieceTypeOrder {
		maxCount := maxPerType(pt)
		out = append(out, float64(counts[pt][chessenv.White])/maxCount)
		out = append(out, float64(counts[pt][chessenv.Black])/maxCount)
	}

	// Per-file, per-rank piece counts per color, normalized by 8 (16+16)
	fileCounts, rankCounts := positionalCounts(b)
	for file := 0; file < 8; file++ {
		out = append(out, float64(fileCounts[file][chessenv.White])/8.0)
		out = append(out, float64(fileCounts[file][chessenv.Black])/8.0)
	}
	for rank := 0; rank < 8; rank++ {
		out = append(out, float64(rankCounts[rank][chessenv.White])/8.0)
		out = append(out, float64(rankCounts[rank][chessenv.Black])/8.0)
	}

	// King file/rank per color, normalized by 7 (2+2)
	whiteKing, whiteOK := findKing(b, chessenv.White)
	blackKing, blackOK := findKing(b, chessenv.Black)
	out = append(out, kingCoordFeature(whiteKing, whiteOK, true),
		kingCoordFeature(blackKing, blackOK, true))
	out = append(out, kingCoordFeature(whiteKing, whiteOK, false),
		kingCoordFeature(blackKing, blackOK, false))

	// Material total per color, normalized by the max possible (2)
	const maxMaterial = 39.0 // 9+5+5+3+3+3+3+1*8, excess of a legal game
	whiteTotal, blackTotal := materialTotals(b)
	out = append(out, whiteTotal/maxMaterial, blackTotal/maxMaterial)

	// King-safety proxy: count of friendly pieces within one square of
	// each king, normalized by 8 (2)
	out = append(out, kingSafety(b, chessenv.White), kingSafety(b, chessenv.Black))

	// Bishop pair indicator difference (1)
	whiteBishops := counts[chessenv.Bishop][chessenv.White]
	blackBishops := counts[chessenv.Bishop][chessenv.Black]
	out = append(out, bishopPairIndicator(whiteBishops)-bishopPairIndicator(blackBishops))

	// Castling-available-for-side-to-move indicator (1)
	hasCastling := false
	if b.ToMove() == chessenv.White {
		hasCastling = rights.WhiteKingside || rights.WhiteQueenside
	} else {
		hasCastling = rights.BlackKingside || rights.BlackQueenside
	}
	out = append(out, boolFeature(hasCastling))

	// Total pieces on board, normalized by 32 (1)
	total := 0
	b.Occupied(func(chessenv.Square, chessenv.Piece) { total++ })
	out = append(out, float64(total)/32.0)

	if len(out) != auxFeatures {
		panic(fmt.Sprintf("codec: auxiliary features produced %d, want %d",
			len(out), auxFeatures))
	}
	return out
}

func boolFeature(b bool) float64 {
	if b {
		return 1.0
	}
	return 0.0
}

func bishopPairIndicator(n int) float64 {
	if n >= 2 {
		return 1.0
	}
	return 0.0
}

func materialCounts(b *chessenv.Board) map[chessenv.PieceType]map[chessenv.Color]int {
	counts := make(map[chessenv.PieceType]map[chessenv.Color]int, numPieceTypes)
	for _, pt := range pieceTypeOrder {
		counts[pt] = map[chessenv.Color]int{chessenv.White: 0, chessenv.Black: 0}
	}
	b.Occupied(func(_ chessenv.Square, p chessenv.Piece) {
		counts[p.Type][p.Color]++
	})
	return counts
}

func positionalCounts(b *chessenv.Board) (files, ranks [8]map[chessenv.Color]int) {
	for i := 0; i < 8; i++ {
		files[i] = map[chessenv.Color]int{chessenv.White: 0, chessenv.Black: 0}
		ranks[i] = map[chessenv.Color]int{chessenv.White: 0, chessenv.Black: 0}
	}
	b.Occupied(func(sq chessenv.Square, p chessenv.Piece) {
		files[sq.File()][p.Color]++
		ranks[sq.Rank()][p.Color]++
	})
	return files, ranks
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

func kingCoordFeature(sq chessenv.Square, present bool, file bool) float64 {
	if !present {
		return 0.0
	}
	if file {
		return float64(sq.File()) / 7.0
	}
	return float64(sq.Rank()) / 7.0
}

func materialTotals(b *chessenv.Board) (white, black float64) {
	values := map[chessenv.PieceType]float64{
		chessenv.Pawn: 1, chessenv.Knight: 3, chessenv.Bishop: 3,
		chessenv.Rook: 5, chessenv.Queen: 9, chessenv.King: 0,
	}
	b.Occupied(func(_ chessenv.Square, p chessenv.Piece) {
		if p.Color == chessenv.White {
			white += values[p.Type]
		} else {
			black += values[p.Type]
		}
	})
	return white, black
}

func kingSafety(b *chessenv.Board, color chessenv.Color) float64 {
	sq, ok := findKing(b, color)
	if !ok {
		return 0.0
	}
	shield := 0
	for df := -1; df <= 1; df++ {
		for dr := -1; dr <= 1; dr++ {
			if df == 0 && dr == 0 {
				continue
			}
			file, rank := sq.File()+df, sq.Rank()+dr
			if file < 0 || file > 7 || rank < 0 || rank > 7 {
				continue
			}
			if p, occ := b.PieceAt(chessenv.Square(rank*8 + file)); occ && p.Color == color {
				shield++
			}
		}
	}
	return float64(shield) / 8.0
}

func maxPerType(t chessenv.PieceType) float64 {
	switch t {
	case chessenv.Pawn:
		return 8
	case chessenv.Knight, chessenv.Bishop, chessenv.Rook:
		return 10 // allows for underpromotion-heavy positions
	case chessenv.Queen:
		return 9
	case chessenv.King:
		return 1
	default:
		return 1
	}
}
