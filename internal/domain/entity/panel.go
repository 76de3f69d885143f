package entity

import "time"

// MediationPanel is the arbiter and advisors assigned to one case
type MediationPanel struct {
	ID         int64     `json:"id"`
	CaseID     int64     `json:"case_id"`
	ArbiterID  int64     `json:"arbiter_id"`
	AdvisorIDs []int64   `json:"advisor_ids"`
	CreatedAt  time.Time `json:"created_at"`
}

// MaxAdvisors is the number of advisor seats on a panel
const MaxAdvisors = 2

// MemberIDs returns the arbiter followed by the advisors
func (p *MediationPanel) MemberIDs() []int64 {
	ids := make([]int64, 0, 1+len(p.AdvisorIDs))
	ids = append(ids, p.ArbiterID)
	return append(ids, p.AdvisorIDs...)
}

// IsMember reports whether the user sits on the panel
func (p *MediationPanel) IsMember(userID int64) bool {
	for _, id := range p.MemberIDs() {
		if id == userID {
			return true
		}
	}
	return false
}
