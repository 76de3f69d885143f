package port

import (
	"context"
	"time"

	"github.com/garyjia/mediation-desk/internal/domain/entity"
)

// CaseFilter narrows a case listing
type CaseFilter struct {
	// ParticipantID restricts the listing to cases the user holds any relationship with.
	// Nil lists every case.
	ParticipantID *int64
	Status        string
	Limit         int
	Offset        int
}

// CaseRepository defines persistence operations for Case
type CaseRepository interface {
	Create(ctx context.Context, c *entity.Case) error
	GetByID(ctx context.Context, id int64) (*entity.Case, error)
	GetByCaseNumber(ctx context.Context, caseNumber string) (*entity.Case, error)
	// UpdateStatus moves the case from expected to next and reports whether a row changed.
	// false means another writer moved the case first.
	UpdateStatus(ctx context.Context, id int64, expected, next string, at time.Time) (bool, error)
	SetRespondent(ctx context.Context, id, respondentID int64, email string) error
	SetResponse(ctx context.Context, id int64, text string) error
	List(ctx context.Context, filter CaseFilter) ([]*entity.Case, error)
}

// AuditRepository defines append-only persistence for AuditEntry
type AuditRepository interface {
	Append(ctx context.Context, entry *entity.AuditEntry) error
	// ListByCaseID returns entries oldest first
	ListByCaseID(ctx context.Context, caseID int64) ([]*entity.AuditEntry, error)
}

// NotificationRepository defines persistence operations for Notification
type NotificationRepository interface {
	Create(ctx context.Context, n *entity.Notification) error
	GetByID(ctx context.Context, id int64) (*entity.Notification, error)
	// ListByRecipient returns notifications newest first
	ListByRecipient(ctx context.Context, recipientID int64, unreadOnly bool) ([]*entity.Notification, error)
	ListByCaseID(ctx context.Context, caseID int64) ([]*entity.Notification, error)
	MarkRead(ctx context.Context, id int64) error
	MarkAllRead(ctx context.Context, recipientID int64) (int64, error)
	Delete(ctx context.Context, id int64) error
	CountUnread(ctx context.Context, recipientID int64) (int, error)
}

// PanelRepository defines persistence operations for MediationPanel
type PanelRepository interface {
	Create(ctx context.Context, p *entity.MediationPanel) error
	GetByCaseID(ctx context.Context, caseID int64) (*entity.MediationPanel, error)
}

// WitnessRepository defines persistence operations for Witness
type WitnessRepository interface {
	Create(ctx context.Context, w *entity.Witness) error
	ListByCaseID(ctx context.Context, caseID int64) ([]*entity.Witness, error)
	UpdateStatement(ctx context.Context, id int64, statement string, at time.Time) error
}

// EvidenceRepository defines persistence operations for Evidence
type EvidenceRepository interface {
	Create(ctx context.Context, e *entity.Evidence) error
	ListByCaseID(ctx context.Context, caseID int64) ([]*entity.Evidence, error)
}

// TransactionManager handles database transactions
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
