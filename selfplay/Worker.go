package selfplay

import (
	"github.com/riverrun/chessrl/chessenv"
	"github.com/riverrun/chessrl/codec"
	"github.com/riverrun/chessrl/errkind"
	"github.com/riverrun/chessrl/exploration"
	"github.com/riverrun/chessrl/network"
	"github.com/riverrun/chessrl/timestep"
	"github.com/riverrun/chessrl/utils/matutils"
)

// episodeResult bundles the experiences generated by the online agent
// during one game with that game's outcome, for the orchestrator to
// fold into the replay buffer and matchup diagnostics respectively.
type episodeResult struct {
	experiences []timestep.Experience
	outcome     GameOutcome
}

// stopSignal is polled between steps for cooperative cancellation;
// workers terminate within one step of the flag being set.
type stopSignal interface {
	Load() bool
}

// playEpisode runs one game to completion (or to max steps, or until
// stop reports true), recording an Experience for every ply the online
// net controls. onlineIsWhite fixes which color the online net plays
// this game; opponent is nil for symmetric self-play (both colors use
// onlineNet) or a frozen pool entry for the asymmetric branch.
func playEpisode(
	env chessenv.Environment,
	explore exploration.Policy,
	onlineNet *network.InferenceSnapshot,
	opponent *network.InferenceSnapshot,
	onlineIsWhite bool,
	maxSteps int,
	stop stopSignal,
	opponentName string,
	episodeID string,
) (episodeResult, error) {
	board := env.Reset()
	experiences := make([]timestep.Experience, 0, maxSteps)
	plies := 0
	stepLimited := false
	reason := chessenv.GameEnded

	for {
		if stop.Load() {
			reason = chessenv.Manual
			break
		}
		legal := env.LegalActions(board)
		if len(legal) == 0 {
			break
		}
		if plies >= maxSteps {
			stepLimited = true
			reason = chessenv.StepLimit
			break
		}

		mover := board.ToMove()
		onlineToMove := opponent == nil || (mover == chessenv.White) == onlineIsWhite

		state := codec.Encode(board)
		var action int
		var err error
		if onlineToMove {
			values, ferr := onlineNet.Forward(matutils.VecSlice(state))
			if ferr != nil {
				return episodeResult{}, ferr
			}
			action, err = explore.Select(values, legal)
		} else {
			values, ferr := opponent.Forward(matutils.VecSlice(state))
			if ferr != nil {
				return episodeResult{}, ferr
			}
			action = greedyOver(values, legal)
		}
		if err != nil {
			return episodeResult{}, errkind.New("selfplay.playEpisode", errkind.EvaluationError, err)
		}

		result := env.Step(action)
		plies++

		if onlineToMove {
			exp := timestep.Experience{
				State:        state,
				Action:       action,
				Reward:       result.Reward,
				Done:         result.Done,
				LegalActions: legal,
			}
			if !result.Done {
				exp.NextState = codec.Encode(result.NextState)
				exp.NextLegalActions = env.LegalActions(result.NextState)
			}
			experiences = append(experiences, exp)
		}

		board = result.NextState
		if result.Done {
			break
		}
	}

	outcome := GameOutcome{
		EpisodeID:     episodeID,
		OnlineIsWhite: onlineIsWhite,
		Plies:         plies,
		StepLimited:   stepLimited,
		Reason:        reason,
		OpponentName:  opponentName,
	}
	switch env.GameStatus() {
	case chessenv.WhiteWins:
		outcome.WhiteWon = true
	case chessenv.BlackWins:
		outcome.BlackWon = true
	case chessenv.Draw:
		outcome.Drawn = true
	}
	return episodeResult{experiences: experiences, outcome: outcome}, nil
}

// greedyOver returns the legal action with the highest value, with no
// exploration; frozen pool opponents always play their best known
// move.
func greedyOver(values []float64, legalActions []int) int {
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
