package workflow

import (
	"testing"

	"github.com/garyjia/mediation-desk/internal/domain/entity"
	"github.com/stretchr/testify/assert"
)

func TestRecipients(t *testing.T) {
	respondent := int64(2)
	full := Parties{
		Complainant:  1,
		Respondent:   &respondent,
		PanelMembers: []int64{4, 5},
		NewWitnesses: []int64{6, 7},
		Actor:        1,
	}
	unlinked := Parties{Complainant: 1, Actor: 1}

	tests := []struct {
		action  string
		parties Parties
		want    []int64
	}{
		{entity.ActionCaseCreated, full, []int64{1, 2}},
		{entity.ActionCaseCreated, unlinked, []int64{1}},
		{entity.ActionRespondentLinked, full, []int64{1, 2}},
		{entity.ActionCaseAccepted, full, []int64{1}},
		{entity.ActionCaseDeclined, full, []int64{1}},
		{entity.ActionWitnessesNominated, full, []int64{6, 7}},
		{entity.ActionPanelCreated, full, []int64{1, 2, 4, 5}},
		{entity.ActionMediationStarted, full, []int64{1, 2}},
		{entity.ActionCaseResolved, full, []int64{1, 2}},
		{entity.ActionCaseUnresolved, unlinked, []int64{1}},
		{entity.ActionAdminOverride, full, []int64{1, 2}},
		{entity.ActionCaseCancelled, full, []int64{1, 2}},
		{entity.ActionEvidenceAdded, full, []int64{2}},
		{entity.ActionEvidenceAdded, Parties{Complainant: 1, Respondent: &respondent, Actor: 9}, []int64{1, 2}},
		{entity.ActionWitnessStatement, full, []int64{1, 2}},
		{"SOMETHING_ELSE", full, []int64{}},
	}

	for _, tt := range tests {
		t.Run(tt.action, func(t *testing.T) {
			assert.Equal(t, tt.want, Recipients(tt.action, tt.parties))
		})
	}
}

func TestRecipients_Deduplicates(t *testing.T) {
	// the complainant also sits on the panel
	p := Parties{Complainant: 1, PanelMembers: []int64{1, 3, 3}}
	assert.Equal(t, []int64{1, 3}, Recipients(entity.ActionPanelCreated, p))
}

func TestRecipients_TotalOverActions(t *testing.T) {
	respondent := int64(2)
	p := Parties{Complainant: 1, Respondent: &respondent, PanelMembers: []int64{3}, NewWitnesses: []int64{4}, Actor: 1}

	for _, action := range []string{
		entity.ActionCaseCreated, entity.ActionRespondentLinked, entity.ActionCaseAccepted,
		entity.ActionCaseDeclined, entity.ActionWitnessesNominated, entity.ActionPanelCreated,
		entity.ActionMediationStarted, entity.ActionCaseResolved, entity.ActionCaseUnresolved,
		entity.ActionAdminOverride, entity.ActionCaseCancelled, entity.ActionEvidenceAdded,
		entity.ActionWitnessStatement,
	} {
		assert.True(t, entity.IsValidAction(action))
		assert.NotEmpty(t, Recipients(action, p), action)
		content := contentFor(action, &entity.Case{CaseNumber: "MD-1", ComplainantID: 1, RespondentID: &respondent}, 1, "PENDING", "RESOLVED")
		assert.NotEmpty(t, content.title, action)
		assert.Contains(t, content.message, "MD-1", action)
	}
}
