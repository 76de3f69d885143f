package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/garyjia/mediation-desk/internal/application/port"
	"github.com/garyjia/mediation-desk/internal/domain/entity"
	"github.com/garyjia/mediation-desk/internal/infrastructure/persistence/sqlite"
	"go.uber.org/zap"
)

// AuditRepository implements port.AuditRepository.
// The table rejects UPDATE and DELETE, so entries can only be appended.
type AuditRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(db *sql.DB, logger *zap.Logger) port.AuditRepository {
	return &AuditRepository{
		db:     db,
		logger: logger,
	}
}

// Append inserts the entry and assigns its ID
func (r *AuditRepository) Append(ctx context.Context, entry *entity.AuditEntry) error {
	query := `
		INSERT INTO audit_entries (case_id, action, description, actor_id, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	metadata := entry.Metadata
	if metadata == nil {
		metadata = map[string]interface{}{}
	}
	raw, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("failed to encode audit metadata: %w", err)
	}

	entry.CreatedAt = nowIfZero(entry.CreatedAt)

	result, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query,
		entry.CaseID,
		entry.Action,
		entry.Description,
		nullableID(entry.ActorID),
		string(raw),
		entry.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to append audit entry",
			zap.Int64("case_id", entry.CaseID),
			zap.String("action", entry.Action),
			zap.Error(err))
		return fmt.Errorf("failed to append audit entry: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	entry.ID = id
	return nil
}

// ListByCaseID returns entries in insertion order
func (r *AuditRepository) ListByCaseID(ctx context.Context, caseID int64) ([]*entity.AuditEntry, error) {
	query := `
		SELECT id, case_id, action, description, actor_id, metadata, created_at
		FROM audit_entries
		WHERE case_id = ?
		ORDER BY id ASC
	`

	rows, err := sqlite.ExecutorFrom(ctx, r.db).QueryContext(ctx, query, caseID)
	if err != nil {
		r.logger.Error("Failed to list audit entries", zap.Int64("case_id", caseID), zap.Error(err))
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	defer rows.Close()

	var entries []*entity.AuditEntry
	for rows.Next() {
		var (
			entry   entity.AuditEntry
			actorID sql.NullInt64
			raw     string
		)
		if err := rows.Scan(
			&entry.ID,
			&entry.CaseID,
			&entry.Action,
			&entry.Description,
			&actorID,
			&raw,
			&entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}

		entry.ActorID = idPtr(actorID)
		if err := json.Unmarshal([]byte(raw), &entry.Metadata); err != nil {
			return nil, fmt.Errorf("failed to decode metadata of audit entry %d: %w", entry.ID, err)
		}
		entries = append(entries, &entry)
	}

	return entries, rows.Err()
}

var _ port.AuditRepository = (*AuditRepository)(nil)
