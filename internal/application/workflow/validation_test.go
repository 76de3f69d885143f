package workflow

import (
	"errors"
	"strings"
	"testing"

	"github.com/garyjia/mediation-desk/internal/domain/entity"
	"github.com/garyjia/mediation-desk/pkg/domainerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fields(t *testing.T, err error) []string {
	t.Helper()
	var de *domainerr.Error
	require.True(t, errors.As(err, &de), "not a domain error: %v", err)
	require.Equal(t, domainerr.CodeValidation, de.Code)
	out := make([]string, 0, len(de.Fields))
	for _, f := range de.Fields {
		out = append(out, f.Field)
	}
	return out
}

func validInput() CreateCaseInput {
	return CreateCaseInput{
		Category:    "family",
		Description: "  Custody schedule for the summer holidays is disputed.  ",
		OppositeParty: entity.OppositeParty{
			Name:  " Sam ",
			Email: " Sam@Example.com ",
		},
	}
}

func TestCreateCaseInput_Normalize(t *testing.T) {
	in := validInput()
	in.normalize()

	assert.Equal(t, entity.CategoryFamily, in.Category)
	assert.Equal(t, entity.PriorityMedium, in.Priority)
	assert.Equal(t, "Custody schedule for the summer holidays is disputed.", in.Description)
	assert.Equal(t, "Sam", in.OppositeParty.Name)
	assert.Equal(t, "sam@example.com", in.OppositeParty.Email)
	assert.NoError(t, in.validate())
}

func TestCreateCaseInput_Proceedings(t *testing.T) {
	tests := []struct {
		name        string
		proceedings entity.Proceedings
		want        []string
	}{
		{
			name:        "no proceedings",
			proceedings: entity.Proceedings{},
		},
		{
			name: "court with details",
			proceedings: entity.Proceedings{
				InCourt:         true,
				CourtCaseNumber: "CV-2024-118",
				CourtName:       "District Court",
			},
		},
		{
			name:        "police flag without details",
			proceedings: entity.Proceedings{PoliceReported: true},
			want:        []string{"proceedings.police_report_number", "proceedings.police_station_name"},
		},
		{
			name:        "court details without flag",
			proceedings: entity.Proceedings{CourtName: "District Court"},
			want:        []string{"proceedings.court_name"},
		},
		{
			name: "reference too long",
			proceedings: entity.Proceedings{
				InCourt:         true,
				CourtCaseNumber: strings.Repeat("9", maxReferenceCode+1),
				CourtName:       "District Court",
			},
			want: []string{"proceedings.court_case_number"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			in.Proceedings = tt.proceedings
			in.normalize()

			err := in.validate()
			if len(tt.want) == 0 {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, tt.want, fields(t, err))
		})
	}
}

func TestCreateCaseInput_ContactRules(t *testing.T) {
	in := validInput()
	in.OppositeParty.Email = "not-an-email"
	in.OppositeParty.Phone = "12"
	in.OppositeParty.Address = strings.Repeat("a", maxAddress+1)
	in.Description = strings.Repeat("é", maxDescription+1)
	in.normalize()

	assert.Equal(t, []string{
		"description",
		"opposite_party.email",
		"opposite_party.phone",
		"opposite_party.address",
	}, fields(t, in.validate()))
}

func TestValidateNominations(t *testing.T) {
	got, err := validateNominations([]WitnessNomination{
		{Email: " Kim@Example.com ", Relationship: " Neighbour "},
	})
	require.NoError(t, err)
	assert.Equal(t, "kim@example.com", got[0].Email)
	assert.Equal(t, "Neighbour", got[0].Relationship)

	_, err = validateNominations(nil)
	assert.Equal(t, []string{"witnesses"}, fields(t, err))

	_, err = validateNominations([]WitnessNomination{
		{Email: "kim@example.com", Relationship: "Neighbour"},
		{Email: "KIM@example.com", Phone: "x", Relationship: ""},
	})
	assert.Equal(t, []string{"witnesses[1].email", "witnesses[1].phone", "witnesses[1].relationship"}, fields(t, err))

	many := make([]WitnessNomination, maxNominations+1)
	for i := range many {
		many[i] = WitnessNomination{Email: strings.Repeat("w", i+1) + "@example.com", Relationship: "Friend"}
	}
	_, err = validateNominations(many)
	assert.Equal(t, []string{"witnesses"}, fields(t, err))
}

func TestValidatePanelMembers(t *testing.T) {
	assert.NoError(t, validatePanelMembers(PanelMembers{ArbiterID: 1}))
	assert.NoError(t, validatePanelMembers(PanelMembers{ArbiterID: 1, AdvisorIDs: []int64{2, 3}}))

	assert.Equal(t, []string{"arbiter_id"}, fields(t, validatePanelMembers(PanelMembers{})))
	assert.Equal(t, []string{"advisor_ids[1]"}, fields(t, validatePanelMembers(PanelMembers{ArbiterID: 1, AdvisorIDs: []int64{2, 1}})))
	assert.Equal(t, []string{"advisor_ids"}, fields(t, validatePanelMembers(PanelMembers{ArbiterID: 1, AdvisorIDs: []int64{2, 3, 4}})))
}

func TestValidateFreeText(t *testing.T) {
	text, err := validateFreeText("note", "  fine  ", false)
	require.NoError(t, err)
	assert.Equal(t, "fine", text)

	_, err = validateFreeText("statement", "   ", true)
	assert.Equal(t, []string{"statement"}, fields(t, err))

	_, err = validateFreeText("note", strings.Repeat("x", maxFreeText+1), false)
	assert.Equal(t, []string{"note"}, fields(t, err))
}
