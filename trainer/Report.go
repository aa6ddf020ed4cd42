package trainer

import (
	"github.com/riverrun/chessrl/checkpoint"
	"github.com/riverrun/chessrl/selfplay"
	"github.com/riverrun/chessrl/validator"
)

// CycleReport is returned by Trainer.RunCycle: the raw cycle metrics,
// the validator's verdict on them, and the checkpoint created this
// cycle, if any.
type CycleReport struct {
	Metrics    selfplay.TrainingCycleMetrics
	Validation validator.Report
	Checkpoint *checkpoint.CheckpointInfo
	Baseline   *validator.BaselineReport
}

// RunReport is the final, user-visible summary of a call to
// Trainer.Run.
type RunReport struct {
	RunID              string
	CyclesCompleted    int
	LastMetrics        selfplay.TrainingCycleMetrics
	Issues             []validator.Issue
	TerminationReason  string
	CheckpointsRetained []checkpoint.CheckpointInfo
}
