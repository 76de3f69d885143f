package event

import (
	"time"

	"github.com/google/uuid"
)

// Event is a push message addressed to one user about one case
type Event struct {
	ID          string                 `json:"id"`
	Type        Type                   `json:"type"`
	CaseID      int64                  `json:"case_id"`
	RecipientID int64                  `json:"recipient_id"`
	Payload     map[string]interface{} `json:"payload"`
	Timestamp   time.Time              `json:"timestamp"`
}

// NewEvent creates an event with a fresh id and the current time
func NewEvent(eventType Type, caseID, recipientID int64, payload map[string]interface{}) *Event {
	if payload == nil {
		payload = map[string]interface{}{}
	}
	return &Event{
		ID:          uuid.NewString(),
		Type:        eventType,
		CaseID:      caseID,
		RecipientID: recipientID,
		Payload:     payload,
		Timestamp:   time.Now(),
	}
}

// ForRecipient returns a copy of the event addressed to another user.
// The payload map is copied so recipients never share mutable state.
func (e *Event) ForRecipient(recipientID int64) *Event {
	payload := make(map[string]interface{}, len(e.Payload))
	for k, v := range e.Payload {
		payload[k] = v
	}
	return &Event{
		ID:          uuid.NewString(),
		Type:        e.Type,
		CaseID:      e.CaseID,
		RecipientID: recipientID,
		Payload:     payload,
		Timestamp:   e.Timestamp,
	}
}

// GetPayloadString retrieves a string value from the payload
func (e *Event) GetPayloadString(key string) string {
	if str, ok := e.Payload[key].(string); ok {
		return str
	}
	return ""
}

// GetPayloadInt retrieves an int64 value from the payload, accepting JSON numbers
func (e *Event) GetPayloadInt(key string) int64 {
	switch v := e.Payload[key].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	}
	return 0
}
