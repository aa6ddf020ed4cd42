package baseline

import "github.com/riverrun/chessrl/chessenv"

// Material is the material-only subset of Heuristic: standard piece
// values and nothing else. It is the weaker of the two deterministic
// baseline tiers in the validator's aggregate.
type Material struct{}

// NewMaterial constructs a Material opponent.
func NewMaterial() *Material {
	return &Material{}
}

func (m *Material) Select(env chessenv.Environment, board *chessenv.Board, legalActions []int) int {
	return argmaxBySimulation(env, board, legalActions, func(b *chessenv.Board, mover chessenv.Color) float64 {
		return materialScore(b, mover)
	})
}

func (m *Material) Name() string { return "material" }
