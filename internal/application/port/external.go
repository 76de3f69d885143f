package port

import (
	"context"

	"github.com/garyjia/mediation-desk/internal/domain/entity"
	"github.com/garyjia/mediation-desk/internal/domain/event"
)

// UserDirectory resolves user identities. Lookups return nil, nil when the user is unknown.
type UserDirectory interface {
	GetByID(ctx context.Context, id int64) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
}

// Notifier delivers push events after the owning transaction commits.
// Delivery is best effort; errors are reported for logging only.
type Notifier interface {
	Publish(ctx context.Context, evt *event.Event) error
}

// HistoryRenderer renders a case's audit trail into a downloadable document
type HistoryRenderer interface {
	Render(c *entity.Case, entries []*entity.AuditEntry) ([]byte, error)
	ContentType() string
	FileExtension() string
}
