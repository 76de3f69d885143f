package entity

import "time"

// Notification is an inbox message for one user
type Notification struct {
	ID          int64     `json:"id"`
	RecipientID int64     `json:"recipient_id"`
	CaseID      *int64    `json:"case_id,omitempty"`
	Category    string    `json:"category"`
	Title       string    `json:"title"`
	Message     string    `json:"message"`
	Read        bool      `json:"read"`
	CreatedAt   time.Time `json:"created_at"`
}
