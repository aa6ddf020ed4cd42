package validator

import (
	"fmt"

	"golang.org/x/exp/rand"

	"github.com/riverrun/chessrl/baseline"
	"github.com/riverrun/chessrl/chessenv"
	"github.com/riverrun/chessrl/codec"
	"github.com/riverrun/chessrl/errkind"
	"github.com/riverrun/chessrl/network"
	"github.com/riverrun/chessrl/utils/matutils"
)

// BaselineResult is one opponent's outcome over a baseline evaluation
// batch.
type BaselineResult struct {
	Opponent string
	Games    int
	WinRate  float64
	DrawRate float64
	LossRate float64
}

// BaselineReport is the output of EvaluateBaselines: per-opponent
// results plus the weighted aggregate score and its delta against the
// previous baseline evaluation.
type BaselineReport struct {
	Results           []BaselineResult
	AggregateScore    float64
	PreviousAggregate float64
	Delta             float64
	HasPrevious       bool
}

// weight of each opponent in the aggregate score.
const (
	weightRandom    = 0.2
	weightHeuristic = 0.5
	weightMaterial  = 0.3
)

// EvaluateBaselines plays gamesPerOpponent games of net (acting
// greedily) against each of {random, heuristic, material}, alternating
// color each game, and returns the aggregate score
// 0.2*random + 0.5*heuristic + 0.3*material.
func EvaluateBaselines(net *network.Wrapper, envFactory func() chessenv.Environment, rng *rand.Rand, gamesPerOpponent, maxSteps int) (BaselineReport, error) {
	snapshot, err := network.NewInferenceSnapshot(net)
	if err != nil {
		return BaselineReport{}, err
	}

	opponents := []baseline.Opponent{
		baseline.NewRandom(rng),
		baseline.NewHeuristic(),
		baseline.NewMaterial(),
	}
	weights := []float64{weightRandom, weightHeuristic, weightMaterial}

	results := make([]BaselineResult, len(opponents))
	aggregate := 0.0
	for i, opp := range opponents {
		r, err := playBaselineBatch(snapshot, opp, envFactory, gamesPerOpponent, maxSteps)
		if err != nil {
			return BaselineReport{}, err
		}
		results[i] = r
		aggregate += weights[i] * r.WinRate
	}

	return BaselineReport{Results: results, AggregateScore: aggregate}, nil
}

func playBaselineBatch(net *network.InferenceSnapshot, opponent baseline.Opponent, envFactory func() chessenv.Environment, games, maxSteps int) (BaselineResult, error) {
	env := envFactory()
	wins, draws, losses := 0, 0, 0

	for g := 0; g < games; g++ {
		netIsWhite := g%2 == 0
		board := env.Reset()
		plies := 0

		for {
			legal := env.LegalActions(board)
			if len(legal) == 0 || plies >= maxSteps {
				break
			}
			mover := board.ToMove()
			var action int
			if (mover == chessenv.White) == netIsWhite {
				values, err := net.Forward(matutils.VecSlice(codec.Encode(board)))
				if err != nil {
					return BaselineResult{}, err
				}
				action = argmaxOver(values, legal)
			} else {
				action = opponent.Select(env, board, legal)
				if action < 0 {
					return BaselineResult{}, errkind.New("validator.playBaselineBatch", errkind.EvaluationError,
						fmt.Errorf("opponent %s returned no move with %d legal actions available", opponent.Name(), len(legal)))
				}
			}
			result := env.Step(action)
			plies++
			board = result.NextState
			if result.Done {
				break
			}
		}

		switch env.GameStatus() {
		case chessenv.WhiteWins:
			if netIsWhite {
				wins++
			} else {
				losses++
			}
		case chessenv.BlackWins:
			if netIsWhite {
				losses++
			} else {
				wins++
			}
		default:
			draws++
		}
	}

	return BaselineResult{
		Opponent: opponent.Name(),
		Games:    games,
		WinRate:  float64(wins) / float64(games),
		DrawRate: float64(draws) / float64(games),
		LossRate: float64(losses) / float64(games),
	}, nil
}

func argmaxOver(values []float64, legalActions []int) int {
	best := legalActions[0]
	bestValue := values[best]
	for _, a := range legalActions[1:] {
		if values[a] > bestValue {
			bestValue = values[a]
			best = a
		}
	}
	return best
}
