package entity

import "time"

// Witness is a registered user nominated to give a statement on a case
type Witness struct {
	ID           int64      `json:"id"`
	CaseID       int64      `json:"case_id"`
	UserID       int64      `json:"user_id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	Phone        string     `json:"phone,omitempty"`
	Relationship string     `json:"relationship"`
	Statement    string     `json:"statement,omitempty"`
	StatementAt  *time.Time `json:"statement_at,omitempty"`
	NominatedBy  int64      `json:"nominated_by"`
	CreatedAt    time.Time  `json:"created_at"`
}
