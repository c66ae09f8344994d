package vibration

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidDuration indicates a non-positive measuring duration.
	ErrInvalidDuration = errors.New("duration must be positive")
	// ErrBusy indicates a test is already running on the controller.
	ErrBusy = errors.New("test already running")
)

// PhaseError tells in which state a test failed.
type PhaseError struct {
	State State
	Err   error
}

// Error implements error.
func (e *PhaseError) Error() string {
	return fmt.Sprintf("%s: %v", e.State, e.Err)
}

// Unwrap returns the cause.
func (e *PhaseError) Unwrap() error {
	return e.Err
}

// AbortError is returned when stopping motors after a failure also failed.
// It unwraps to the original failure only.
type AbortError struct {
	Err     error
	StopErr error
}

// Error implements error.
func (e *AbortError) Error() string {
	return fmt.Sprintf("%v (stop motors also failed: %v)", e.Err, e.StopErr)
}

// Unwrap returns the original failure.
func (e *AbortError) Unwrap() error {
	return e.Err
}
