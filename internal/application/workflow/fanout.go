package workflow

import "github.com/garyjia/mediation-desk/internal/domain/entity"

// Parties is everyone a fan-out may address
type Parties struct {
	Complainant  int64
	Respondent   *int64
	PanelMembers []int64
	NewWitnesses []int64
	Actor        int64
}

// Recipients computes who receives a notification for an action. It is
// total: unknown actions yield an empty set. The result has no duplicates and
// keeps first-seen order.
func Recipients(action string, p Parties) []int64 {
	var ids []int64
	parties := func() {
		ids = append(ids, p.Complainant)
		if p.Respondent != nil {
			ids = append(ids, *p.Respondent)
		}
	}

	switch action {
	case entity.ActionCaseCreated,
		entity.ActionRespondentLinked,
		entity.ActionMediationStarted,
		entity.ActionCaseResolved,
		entity.ActionCaseUnresolved,
		entity.ActionAdminOverride,
		entity.ActionCaseCancelled,
		entity.ActionWitnessStatement:
		parties()
	case entity.ActionCaseAccepted, entity.ActionCaseDeclined:
		ids = append(ids, p.Complainant)
	case entity.ActionWitnessesNominated:
		ids = append(ids, p.NewWitnesses...)
	case entity.ActionPanelCreated:
		parties()
		ids = append(ids, p.PanelMembers...)
	case entity.ActionEvidenceAdded:
		parties()
		ids = without(ids, p.Actor)
	}

	return dedupe(ids)
}

func dedupe(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id <= 0 || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func without(ids []int64, drop int64) []int64 {
	out := ids[:0]
	for _, id := range ids {
		if id != drop {
			out = append(out, id)
		}
	}
	return out
}
