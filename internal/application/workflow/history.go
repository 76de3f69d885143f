package workflow

import (
	"context"
	"errors"
	"fmt"

	"github.com/garyjia/mediation-desk/internal/domain/entity"
	domainwf "github.com/garyjia/mediation-desk/internal/domain/workflow"
)

// ErrBrokenHistory is returned when an audit trail cannot be replayed
var ErrBrokenHistory = errors.New("broken case history")

// actionTriggers maps status-changing actions to the trigger that produced them
var actionTriggers = map[string]domainwf.Trigger{
	entity.ActionRespondentLinked:   domainwf.TriggerLinkRespondent,
	entity.ActionCaseAccepted:       domainwf.TriggerAccept,
	entity.ActionCaseDeclined:       domainwf.TriggerDecline,
	entity.ActionWitnessesNominated: domainwf.TriggerNominateWitnesses,
	entity.ActionPanelCreated:       domainwf.TriggerCreatePanel,
	entity.ActionMediationStarted:   domainwf.TriggerBeginMediation,
	entity.ActionCaseResolved:       domainwf.TriggerResolve,
	entity.ActionCaseUnresolved:     domainwf.TriggerMarkUnresolved,
	entity.ActionCaseCancelled:      domainwf.TriggerCancel,
}

// ReplayHistory walks an audit trail oldest first and returns the status it
// ends in. Every entry must continue from the status the previous one left,
// and every regular transition must be an edge of the case state machine.
func ReplayHistory(entries []*entity.AuditEntry) (domainwf.State, error) {
	if len(entries) == 0 {
		return "", fmt.Errorf("%w: no entries", ErrBrokenHistory)
	}

	first := entries[0]
	if first.Action != entity.ActionCaseCreated {
		return "", fmt.Errorf("%w: first entry is %s, not %s", ErrBrokenHistory, first.Action, entity.ActionCaseCreated)
	}
	current := domainwf.State(first.NewStatus())
	if current != InitialState(false) && current != InitialState(true) {
		return "", fmt.Errorf("%w: case created in %q", ErrBrokenHistory, current)
	}

	for i, entry := range entries[1:] {
		pos := i + 1
		from := domainwf.State(entry.PreviousStatus())
		to := domainwf.State(entry.NewStatus())
		if from != current {
			return "", fmt.Errorf("%w: entry %d starts from %s but case was %s", ErrBrokenHistory, pos, from, current)
		}
		if !to.IsValid() {
			return "", fmt.Errorf("%w: entry %d moves to unknown status %q", ErrBrokenHistory, pos, to)
		}

		switch entry.Action {
		case entity.ActionAdminOverride:
			// any known target
		case entity.ActionEvidenceAdded, entity.ActionWitnessStatement:
			if to != from {
				return "", fmt.Errorf("%w: entry %d (%s) changed status", ErrBrokenHistory, pos, entry.Action)
			}
		default:
			trigger, ok := actionTriggers[entry.Action]
			if !ok {
				return "", fmt.Errorf("%w: entry %d has unexpected action %s", ErrBrokenHistory, pos, entry.Action)
			}
			// guards depend on facts the trail does not carry; replay assumes they held
			facts := caseFacts{respondentLinked: true, panelExists: trigger != domainwf.TriggerCreatePanel}
			machine := BuildCaseStateMachine(from, facts)
			if err := machine.Fire(context.Background(), trigger); err != nil {
				return "", fmt.Errorf("%w: entry %d: %v", ErrBrokenHistory, pos, err)
			}
			if machine.State() != to {
				return "", fmt.Errorf("%w: entry %d records %s but %s leads to %s",
					ErrBrokenHistory, pos, to, trigger, machine.State())
			}
		}
		current = to
	}

	return current, nil
}
