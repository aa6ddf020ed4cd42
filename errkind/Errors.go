// Package errkind implements the error taxonomy shared by every
// component of the training engine.
package errkind

import "fmt"

// Kind enumerates the error kinds recognized by the training engine.
type Kind int

const (
	// InvalidConfiguration denotes a schema or range violation in a
	// Config. Components refuse to initialize when this is returned.
	InvalidConfiguration Kind = iota

	// InsufficientSamples is benign: the buffer has fewer records than
	// requested and the caller should defer.
	InsufficientSamples

	// NumericalInstability denotes a non-finite loss or gradient. The
	// optimizer step is skipped. No failure counter is kept:
	// selfplay.Orchestrator.RunCycle returns the error to its caller.
	NumericalInstability

	// IncompatibleCheckpoint denotes a header-version mismatch on
	// checkpoint load. Never silently remapped.
	IncompatibleCheckpoint

	// CheckpointIO denotes a filesystem or serialization failure.
	// Training continues using the in-memory agent.
	CheckpointIO

	// Cancelled denotes cooperative cancellation observed at a
	// suspension point.
	Cancelled

	// EvaluationError denotes a baseline opponent producing no move
	// when legal moves exist. Treated as a programmer bug.
	EvaluationError

	// ReseedConflict denotes Fabric.Initialize called with a seed that
	// differs from the one streams were already derived from.
	ReseedConflict
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case InvalidConfiguration:
		return "InvalidConfiguration"
	case InsufficientSamples:
		return "InsufficientSamples"
	case NumericalInstability:
		return "NumericalInstability"
	case IncompatibleCheckpoint:
		return "IncompatibleCheckpoint"
	case CheckpointIO:
		return "CheckpointIO"
	case Cancelled:
		return "Cancelled"
	case EvaluationError:
		return "EvaluationError"
	case ReseedConflict:
		return "ReseedConflict"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Error wraps an underlying error with the operation that produced it
// and the Kind it is classified as.
type Error struct {
	Op   string
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Kind)
}

// Unwrap allows errors.Is/errors.As to see through to the underlying
// error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error with the same Kind, so that
// errors.Is(err, &errkind.Error{Kind: errkind.InsufficientSamples})
// works without comparing Op or Err.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// New builds an *Error for op/kind, optionally wrapping cause.
func New(op string, kind Kind, cause error) *Error {
	return &Error{Op: op, Kind: kind, Err: cause}
}
