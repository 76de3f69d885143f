package workflow

import "errors"

var (
	// ErrInvalidTransition is returned when the trigger has no edge from the current state
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrInvalidState is returned when a state is not part of the lifecycle
	ErrInvalidState = errors.New("invalid state")

	// ErrGuardFailed is returned when every edge for the trigger is guarded and none passes
	ErrGuardFailed = errors.New("guard condition failed")
)
