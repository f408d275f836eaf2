package domain

import (
	"errors"
	"fmt"
)

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrSessionSuspended is returned by Run when the session is waiting for human input.
// Use Resume instead.
var ErrSessionSuspended = errors.New("session is suspended awaiting input")

// ErrNotSuspended is returned by Resume when the session has no pending suspension.
var ErrNotSuspended = errors.New("session is not suspended")

// ErrCapabilityUnavailable marks a call into an external capability that timed out
// or could not be reached.
var ErrCapabilityUnavailable = errors.New("capability unavailable")

// ErrLoopBudgetExceeded is the fatal condition raised when a run invokes more stages
// than its budget allows.
var ErrLoopBudgetExceeded = errors.New("loop budget exceeded")

// ErrDecode marks structured output that could not be decoded.
var ErrDecode = errors.New("structured output decode failed")

// ErrUnknownStage is returned when a transition targets a stage that is not registered.
var ErrUnknownStage = errors.New("unknown stage")

// ErrToolCallLimit is returned when a step exhausts its tool-call budget.
var ErrToolCallLimit = errors.New("tool call limit reached")

// StageError wraps a failure raised by a stage.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %q failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// LoopBudgetError reports which stage tripped the invocation budget.
type LoopBudgetError struct {
	Budget int
	Stage  string
}

func (e *LoopBudgetError) Error() string {
	return fmt.Sprintf("loop budget of %d stage invocations exceeded at %q", e.Budget, e.Stage)
}

func (e *LoopBudgetError) Is(target error) bool { return target == ErrLoopBudgetExceeded }

// DecodeError is returned when generated structured output is missing, malformed
// or does not satisfy its schema.
type DecodeError struct {
	Kind string
	Raw  string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Kind, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func (e *DecodeError) Is(target error) bool { return target == ErrDecode }

// TransientError marks a capability failure that may succeed if retried.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("%s: transient: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// IsTransient reports whether err is marked as transient.
func IsTransient(err error) bool {
	var t *TransientError
	return errors.As(err, &t)
}
