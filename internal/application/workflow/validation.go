package workflow

import (
	"fmt"
	"strings"

	"github.com/garyjia/mediation-desk/internal/domain/entity"
	"github.com/garyjia/mediation-desk/pkg/domainerr"
	"github.com/garyjia/mediation-desk/pkg/utils"
)

// Field limits
const (
	minDescription   = 20
	maxDescription   = 5000
	maxName          = 100
	maxAddress       = 300
	maxReferenceCode = 50
	maxInstitution   = 200
	maxFreeText      = 2000
	maxRelationship  = 100
	maxNominations   = 10
)

// normalize trims every free-text field and fills defaults
func (in *CreateCaseInput) normalize() {
	in.Category = strings.ToUpper(strings.TrimSpace(in.Category))
	in.Priority = strings.ToUpper(strings.TrimSpace(in.Priority))
	if in.Priority == "" {
		in.Priority = entity.PriorityMedium
	}
	in.Description = utils.SanitizeString(strings.TrimSpace(in.Description))

	op := &in.OppositeParty
	op.Name = strings.TrimSpace(op.Name)
	op.Email = strings.ToLower(strings.TrimSpace(op.Email))
	op.Phone = strings.TrimSpace(op.Phone)
	op.Address = strings.TrimSpace(op.Address)

	pr := &in.Proceedings
	pr.CourtCaseNumber = strings.TrimSpace(pr.CourtCaseNumber)
	pr.CourtName = strings.TrimSpace(pr.CourtName)
	pr.PoliceReportNumber = strings.TrimSpace(pr.PoliceReportNumber)
	pr.PoliceStationName = strings.TrimSpace(pr.PoliceStationName)
}

// validate reports every failing field, not just the first
func (in *CreateCaseInput) validate() error {
	var fields domainerr.FieldErrors

	switch {
	case in.Category == "":
		fields.Add("category", "is required")
	case !entity.IsValidCategory(in.Category):
		fields.Addf("category", "unknown category %q", in.Category)
	}

	if !entity.IsValidPriority(in.Priority) {
		fields.Addf("priority", "unknown priority %q", in.Priority)
	}

	if err := utils.ValidateLength(in.Description, minDescription, maxDescription); err != nil {
		fields.Add("description", err.Error())
	}

	op := in.OppositeParty
	if op.Name == "" {
		fields.Add("opposite_party.name", "is required")
	} else if err := utils.ValidateLength(op.Name, 2, maxName); err != nil {
		fields.Add("opposite_party.name", err.Error())
	}
	if op.Email == "" && op.Phone == "" {
		fields.Add("opposite_party", "an email or phone number is required")
	}
	if op.Email != "" && utils.ValidateEmail(op.Email) != nil {
		fields.Add("opposite_party.email", "is not a valid email address")
	}
	if op.Phone != "" && utils.ValidatePhone(op.Phone) != nil {
		fields.Add("opposite_party.phone", "is not a valid phone number")
	}
	if err := utils.ValidateLength(op.Address, 0, maxAddress); err != nil {
		fields.Add("opposite_party.address", err.Error())
	}

	pr := in.Proceedings
	checkCompanion(&fields, pr.InCourt, "proceedings.court_case_number", pr.CourtCaseNumber, maxReferenceCode, "in_court")
	checkCompanion(&fields, pr.InCourt, "proceedings.court_name", pr.CourtName, maxInstitution, "in_court")
	checkCompanion(&fields, pr.PoliceReported, "proceedings.police_report_number", pr.PoliceReportNumber, maxReferenceCode, "police_reported")
	checkCompanion(&fields, pr.PoliceReported, "proceedings.police_station_name", pr.PoliceStationName, maxInstitution, "police_reported")

	return fields.Err()
}

// checkCompanion enforces that a detail field is present exactly when its flag is set
func checkCompanion(fields *domainerr.FieldErrors, flag bool, name, value string, max int, flagName string) {
	switch {
	case flag && value == "":
		fields.Addf(name, "is required when %s is set", flagName)
	case !flag && value != "":
		fields.Addf(name, "must be empty unless %s is set", flagName)
	case flag:
		if err := utils.ValidateLength(value, 1, max); err != nil {
			fields.Add(name, err.Error())
		}
	}
}

func validateNominations(nominations []WitnessNomination) ([]WitnessNomination, error) {
	var fields domainerr.FieldErrors

	if len(nominations) == 0 {
		fields.Add("witnesses", "at least one witness is required")
		return nil, fields.Err()
	}
	if len(nominations) > maxNominations {
		fields.Addf("witnesses", "at most %d witnesses may be nominated at once", maxNominations)
	}

	seen := make(map[string]int, len(nominations))
	out := make([]WitnessNomination, len(nominations))
	for i, n := range nominations {
		prefix := fmt.Sprintf("witnesses[%d]", i)
		n.Email = strings.ToLower(strings.TrimSpace(n.Email))
		n.Phone = strings.TrimSpace(n.Phone)
		n.Relationship = strings.TrimSpace(n.Relationship)

		if n.Email == "" {
			fields.Add(prefix+".email", "is required")
		} else if utils.ValidateEmail(n.Email) != nil {
			fields.Add(prefix+".email", "is not a valid email address")
		} else if first, dup := seen[n.Email]; dup {
			fields.Addf(prefix+".email", "duplicates witnesses[%d]", first)
		} else {
			seen[n.Email] = i
		}
		if n.Phone != "" && utils.ValidatePhone(n.Phone) != nil {
			fields.Add(prefix+".phone", "is not a valid phone number")
		}
		if n.Relationship == "" {
			fields.Add(prefix+".relationship", "is required")
		} else if err := utils.ValidateLength(n.Relationship, 1, maxRelationship); err != nil {
			fields.Add(prefix+".relationship", err.Error())
		}
		out[i] = n
	}

	if err := fields.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func validatePanelMembers(m PanelMembers) error {
	var fields domainerr.FieldErrors

	if m.ArbiterID <= 0 {
		fields.Add("arbiter_id", "is required")
	}
	if len(m.AdvisorIDs) > entity.MaxAdvisors {
		fields.Addf("advisor_ids", "at most %d advisors are allowed", entity.MaxAdvisors)
	}

	seen := map[int64]bool{}
	if m.ArbiterID > 0 {
		seen[m.ArbiterID] = true
	}
	for i, id := range m.AdvisorIDs {
		name := fmt.Sprintf("advisor_ids[%d]", i)
		switch {
		case id <= 0:
			fields.Add(name, "must be a user id")
		case seen[id]:
			fields.Add(name, "panel members must be distinct")
		default:
			seen[id] = true
		}
	}

	return fields.Err()
}

func validateFreeText(field, text string, required bool) (string, error) {
	text = utils.SanitizeString(strings.TrimSpace(text))
	var fields domainerr.FieldErrors
	if required && text == "" {
		fields.Add(field, "is required")
	} else if err := utils.ValidateLength(text, 0, maxFreeText); err != nil {
		fields.Add(field, err.Error())
	}
	return text, fields.Err()
}
