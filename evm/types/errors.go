package types

import (
	"errors"
	"fmt"
)

var (
	// ErrMessageRejected is returned when the engine refuses a message before
	// executing it (unknown sender, wrong sequence, malformed envelope, ...)
	ErrMessageRejected = errors.New("message rejected before execution")

	// ErrEngineUnavailable is returned when the engine can not be reached
	ErrEngineUnavailable = errors.New("engine unavailable")

	// ErrUnknownActor is returned when a handle is not bound in the engine
	ErrUnknownActor = errors.New("unknown actor")
)

// EngineError is returned when the engine could not process a message at all.
// It points at a harness defect rather than a contract behaviour defect.
type EngineError struct {
	op  string
	err error
}

// NewEngineError wraps an engine failure for the given operation
func NewEngineError(op string, err error) *EngineError {
	return &EngineError{op: op, err: err}
}

// NewRejectionErrorf constructs an engine error for a message rejected before execution
func NewRejectionErrorf(msg string, args ...interface{}) *EngineError {
	return &EngineError{
		op:  "execute",
		err: fmt.Errorf("%w: "+msg, append([]interface{}{ErrMessageRejected}, args...)...),
	}
}

// IsEngineError returns true if the error or any underlying errors
// is of the type EngineError
func IsEngineError(err error) bool {
	var e *EngineError
	return errors.As(err, &e)
}

// IsRejectedError returns true if the message was rejected before execution
func IsRejectedError(err error) bool {
	return errors.Is(err, ErrMessageRejected)
}

// Op returns the engine operation that failed
func (e *EngineError) Op() string {
	return e.op
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("engine error (%s): %s", e.op, e.err.Error())
}

// Unwrap unwraps the underlying error
func (e *EngineError) Unwrap() error {
	return e.err
}
