package workflow

import (
	"context"

	domainwf "github.com/garyjia/mediation-desk/internal/domain/workflow"
)

// caseFacts are the guard inputs read from the case inside the transaction
type caseFacts struct {
	respondentLinked bool
	panelExists      bool
}

// BuildCaseStateMachine creates a machine for the case lifecycle positioned at initialState
func BuildCaseStateMachine(initialState domainwf.State, facts caseFacts) domainwf.StateMachine {
	respondentLinked := domainwf.Guard{
		Description: "no respondent is linked to the case",
		Check:       func(context.Context) bool { return facts.respondentLinked },
	}
	noPanel := domainwf.Guard{
		Description: "panel already exists",
		Check:       func(context.Context) bool { return !facts.panelExists },
	}
	panelExists := domainwf.Guard{
		Description: "no mediation panel has been created",
		Check:       func(context.Context) bool { return facts.panelExists },
	}

	builder := domainwf.NewBuilder()

	builder.Configure(domainwf.StatePending).
		Permit(domainwf.TriggerLinkRespondent, domainwf.StateAwaitingResponse)

	builder.Configure(domainwf.StateAwaitingResponse).
		PermitIf(domainwf.TriggerAccept, domainwf.StateAccepted, respondentLinked).
		PermitIf(domainwf.TriggerDecline, domainwf.StateUnresolved, respondentLinked)

	builder.Configure(domainwf.StateAccepted).
		Permit(domainwf.TriggerNominateWitnesses, domainwf.StateWitnessesNominated).
		PermitIf(domainwf.TriggerCreatePanel, domainwf.StatePanelCreated, noPanel)

	// further nominations keep the case where it is
	builder.Configure(domainwf.StateWitnessesNominated).
		Permit(domainwf.TriggerNominateWitnesses, domainwf.StateWitnessesNominated).
		PermitIf(domainwf.TriggerCreatePanel, domainwf.StatePanelCreated, noPanel)

	builder.Configure(domainwf.StatePanelCreated).
		PermitIf(domainwf.TriggerBeginMediation, domainwf.StateMediationInProgress, panelExists)

	builder.Configure(domainwf.StateMediationInProgress).
		Permit(domainwf.TriggerResolve, domainwf.StateResolved)

	builder.ConfigureEach(domainwf.NonTerminalStates(), func(c domainwf.StateConfiguration) {
		c.Permit(domainwf.TriggerMarkUnresolved, domainwf.StateUnresolved).
			Permit(domainwf.TriggerCancel, domainwf.StateCancelled)
	})

	// RESOLVED, UNRESOLVED and CANCELLED have no outgoing edges; only the admin override leaves them

	return builder.Build(initialState)
}

// InitialState is the status a new case starts in
func InitialState(respondentLinked bool) domainwf.State {
	if respondentLinked {
		return domainwf.StateAwaitingResponse
	}
	return domainwf.StatePending
}
