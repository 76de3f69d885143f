package entity

import "time"

// Case is a dispute filed by a complainant against an opposite party
type Case struct {
	ID            int64         `json:"id"`
	CaseNumber    string        `json:"case_number"`
	Category      string        `json:"category"`
	Description   string        `json:"description"`
	Status        string        `json:"status"`
	Priority      string        `json:"priority"`
	ComplainantID int64         `json:"complainant_id"`
	RespondentID  *int64        `json:"respondent_id,omitempty"`
	OppositeParty OppositeParty `json:"opposite_party"`
	Proceedings   Proceedings   `json:"proceedings"`
	ResponseText  string        `json:"response_text,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// OppositeParty is the contact information the complainant gave for the other side
type OppositeParty struct {
	Name    string `json:"name"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
}

// Proceedings records whether the dispute is already before a court or the police
type Proceedings struct {
	InCourt            bool   `json:"in_court"`
	CourtCaseNumber    string `json:"court_case_number,omitempty"`
	CourtName          string `json:"court_name,omitempty"`
	PoliceReported     bool   `json:"police_reported"`
	PoliceReportNumber string `json:"police_report_number,omitempty"`
	PoliceStationName  string `json:"police_station_name,omitempty"`
}

// HasRespondent reports whether the opposite party has been linked to a user
func (c *Case) HasRespondent() bool {
	return c.RespondentID != nil
}

// IsComplainant reports whether the user filed the case
func (c *Case) IsComplainant(userID int64) bool {
	return c.ComplainantID == userID
}

// IsRespondent reports whether the user is the linked respondent
func (c *Case) IsRespondent(userID int64) bool {
	return c.RespondentID != nil && *c.RespondentID == userID
}

// Parties returns the complainant and, when linked, the respondent
func (c *Case) Parties() []int64 {
	ids := []int64{c.ComplainantID}
	if c.RespondentID != nil {
		ids = append(ids, *c.RespondentID)
	}
	return ids
}
