package workflow

// State is a case status in the mediation lifecycle
type State string

const (
	StatePending             State = "PENDING"
	StateAwaitingResponse    State = "AWAITING_RESPONSE"
	StateAccepted            State = "ACCEPTED"
	StateWitnessesNominated  State = "WITNESSES_NOMINATED"
	StatePanelCreated        State = "PANEL_CREATED"
	StateMediationInProgress State = "MEDIATION_IN_PROGRESS"
	StateResolved            State = "RESOLVED"
	StateUnresolved          State = "UNRESOLVED"
	StateCancelled           State = "CANCELLED"
)

var allStates = []State{
	StatePending,
	StateAwaitingResponse,
	StateAccepted,
	StateWitnessesNominated,
	StatePanelCreated,
	StateMediationInProgress,
	StateResolved,
	StateUnresolved,
	StateCancelled,
}

var validStates = func() map[State]bool {
	m := make(map[State]bool, len(allStates))
	for _, s := range allStates {
		m[s] = true
	}
	return m
}()

var terminalStates = map[State]bool{
	StateResolved:   true,
	StateUnresolved: true,
	StateCancelled:  true,
}

// AllStates returns every case status in lifecycle order
func AllStates() []State {
	return append([]State(nil), allStates...)
}

// NonTerminalStates returns the statuses from which the lifecycle can still move
func NonTerminalStates() []State {
	out := make([]State, 0, len(allStates))
	for _, s := range allStates {
		if !s.IsTerminal() {
			out = append(out, s)
		}
	}
	return out
}

// IsTerminal returns true if no regular transition leaves the state
func (s State) IsTerminal() bool {
	return terminalStates[s]
}

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}

// IsValid returns true if the state belongs to the case lifecycle
func (s State) IsValid() bool {
	return validStates[s]
}
