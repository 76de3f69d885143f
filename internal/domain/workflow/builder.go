package workflow

import (
	"context"
	"fmt"
	"sort"
)

// GuardFunc reports whether a guarded edge may be taken
type GuardFunc func(ctx context.Context) bool

// Guard is a named precondition on an edge. The description is surfaced in
// ErrGuardFailed so callers can tell the user what is missing.
type Guard struct {
	Description string
	Check       GuardFunc
}

// StateMachineBuilder collects edges and builds machines from them
type StateMachineBuilder interface {
	// Configure returns the edge configuration for the given state
	Configure(state State) StateConfiguration

	// ConfigureEach applies the same edges to several states
	ConfigureEach(states []State, configure func(StateConfiguration)) StateMachineBuilder

	// Build creates a new state machine positioned at initialState
	Build(initialState State) StateMachine
}

// StateConfiguration configures the edges leaving one state
type StateConfiguration interface {
	// Permit adds an unconditional edge
	Permit(trigger Trigger, toState State) StateConfiguration

	// PermitIf adds an edge taken only when the guard passes
	PermitIf(trigger Trigger, toState State, guard Guard) StateConfiguration
}

type edge struct {
	toState State
	guard   *Guard
}

type stateConfig struct {
	fromState State
	edges     map[Trigger][]edge
}

type stateMachineBuilder struct {
	configurations map[State]*stateConfig
}

type stateMachine struct {
	currentState   State
	configurations map[State]*stateConfig
}

// NewBuilder creates an empty state machine builder
func NewBuilder() StateMachineBuilder {
	return &stateMachineBuilder{
		configurations: make(map[State]*stateConfig),
	}
}

func (b *stateMachineBuilder) Configure(state State) StateConfiguration {
	if !state.IsValid() {
		panic(fmt.Sprintf("invalid state: %s", state))
	}

	config, exists := b.configurations[state]
	if !exists {
		config = &stateConfig{
			fromState: state,
			edges:     make(map[Trigger][]edge),
		}
		b.configurations[state] = config
	}

	return config
}

func (b *stateMachineBuilder) ConfigureEach(states []State, configure func(StateConfiguration)) StateMachineBuilder {
	for _, s := range states {
		configure(b.Configure(s))
	}
	return b
}

// Build copies the collected edges so later Configure calls do not leak into built machines
func (b *stateMachineBuilder) Build(initialState State) StateMachine {
	if !initialState.IsValid() {
		panic(fmt.Sprintf("invalid initial state: %s", initialState))
	}

	configsCopy := make(map[State]*stateConfig, len(b.configurations))
	for state, config := range b.configurations {
		edgesCopy := make(map[Trigger][]edge, len(config.edges))
		for trigger, edges := range config.edges {
			edgesCopy[trigger] = append([]edge{}, edges...)
		}
		configsCopy[state] = &stateConfig{
			fromState: state,
			edges:     edgesCopy,
		}
	}

	return &stateMachine{
		currentState:   initialState,
		configurations: configsCopy,
	}
}

func (c *stateConfig) Permit(trigger Trigger, toState State) StateConfiguration {
	return c.permit(trigger, toState, nil)
}

func (c *stateConfig) PermitIf(trigger Trigger, toState State, guard Guard) StateConfiguration {
	if guard.Check == nil {
		panic(fmt.Sprintf("guard for %s -> %s has no check", trigger, toState))
	}
	return c.permit(trigger, toState, &guard)
}

func (c *stateConfig) permit(trigger Trigger, toState State, guard *Guard) StateConfiguration {
	if !toState.IsValid() {
		panic(fmt.Sprintf("invalid target state: %s", toState))
	}

	c.edges[trigger] = append(c.edges[trigger], edge{
		toState: toState,
		guard:   guard,
	})

	return c
}

func (m *stateMachine) State() State {
	return m.currentState
}

func (m *stateMachine) CanFire(trigger Trigger) bool {
	config, exists := m.configurations[m.currentState]
	if !exists {
		return false
	}
	return len(config.edges[trigger]) > 0
}

func (m *stateMachine) Fire(ctx context.Context, trigger Trigger) error {
	config, exists := m.configurations[m.currentState]
	if !exists || len(config.edges[trigger]) == 0 {
		return fmt.Errorf("%w: cannot fire %s from %s", ErrInvalidTransition, trigger, m.currentState)
	}

	var failed string
	for _, e := range config.edges[trigger] {
		if e.guard == nil {
			m.currentState = e.toState
			return nil
		}
		if e.guard.Check(ctx) {
			m.currentState = e.toState
			return nil
		}
		if failed == "" {
			failed = e.guard.Description
		}
	}

	return fmt.Errorf("%w: %s from %s: %s", ErrGuardFailed, trigger, m.currentState, failed)
}

// PermittedTriggers returns the triggers in lexical order
func (m *stateMachine) PermittedTriggers() []Trigger {
	config, exists := m.configurations[m.currentState]
	if !exists {
		return []Trigger{}
	}

	triggers := make([]Trigger, 0, len(config.edges))
	for trigger := range config.edges {
		triggers = append(triggers, trigger)
	}
	sort.Slice(triggers, func(i, j int) bool { return triggers[i] < triggers[j] })

	return triggers
}
