package flow

import (
	"errors"
	"fmt"
)

var (
	// ErrSessionNotFound is returned when no checkpoint exists for a key.
	ErrSessionNotFound = errors.New("session not found")

	// ErrAlreadyRunning is returned by Start when the session's cursor shows
	// work in progress without a checkpointed pause.
	ErrAlreadyRunning = errors.New("session already running")

	// ErrConcurrentResume is returned when a Resume call arrives while
	// another execution holds the session.
	ErrConcurrentResume = errors.New("concurrent resume rejected")

	// ErrInvalidResumeState is returned when Resume targets a terminal
	// session or the supplied patch violates a state invariant. The stored
	// state is left unchanged.
	ErrInvalidResumeState = errors.New("invalid resume state")

	// ErrCollaboratorUnavailable marks a collaborator that is missing
	// credentials or configuration. Steps absorb it into a safe default or
	// empty result wherever one exists; it never aborts the session.
	ErrCollaboratorUnavailable = errors.New("collaborator unavailable")
)

// StepError wraps a failure inside a single node. The engine catches it at
// the graph boundary: the session survives, the cursor stays at the failed
// node, and a later resume re-attempts that exact node.
type StepError struct {
	Node string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %s failed: %v", e.Node, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// IsStepError returns (nodeName, true) if err is a step-scoped failure.
func IsStepError(err error) (string, bool) {
	var se *StepError
	if errors.As(err, &se) {
		return se.Node, true
	}
	return "", false
}
