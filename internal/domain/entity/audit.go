package entity

import "time"

// Metadata keys present on every audit entry
const (
	MetaPreviousStatus = "previous_status"
	MetaNewStatus      = "new_status"
)

// AuditEntry is one append-only record of an action taken on a case
type AuditEntry struct {
	ID          int64                  `json:"id"`
	CaseID      int64                  `json:"case_id"`
	Action      string                 `json:"action"`
	Description string                 `json:"description"`
	ActorID     *int64                 `json:"actor_id,omitempty"`
	Metadata    map[string]interface{} `json:"metadata"`
	CreatedAt   time.Time              `json:"created_at"`
}

// PreviousStatus returns the status the case had before the action
func (a *AuditEntry) PreviousStatus() string {
	return a.metaString(MetaPreviousStatus)
}

// NewStatus returns the status the case had after the action
func (a *AuditEntry) NewStatus() string {
	return a.metaString(MetaNewStatus)
}

// ChangedStatus reports whether the action moved the case
func (a *AuditEntry) ChangedStatus() bool {
	return a.PreviousStatus() != a.NewStatus()
}

func (a *AuditEntry) metaString(key string) string {
	if v, ok := a.Metadata[key].(string); ok {
		return v
	}
	return ""
}
