package workflow

import "context"

// StateMachine tracks the current state of one case and validates transitions
type StateMachine interface {
	// State returns the current state
	State() State

	// CanFire returns true if the trigger has an edge from the current state.
	// Guards are not evaluated.
	CanFire(trigger Trigger) bool

	// Fire executes the trigger, moving to the target of the first edge whose guard passes
	Fire(ctx context.Context, trigger Trigger) error

	// PermittedTriggers returns the triggers with an edge from the current state
	PermittedTriggers() []Trigger
}
