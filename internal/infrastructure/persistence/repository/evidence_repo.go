package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/garyjia/mediation-desk/internal/application/port"
	"github.com/garyjia/mediation-desk/internal/domain/entity"
	"github.com/garyjia/mediation-desk/internal/infrastructure/persistence/sqlite"
	"go.uber.org/zap"
)

// EvidenceRepository implements port.EvidenceRepository
type EvidenceRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewEvidenceRepository creates a new evidence repository
func NewEvidenceRepository(db *sql.DB, logger *zap.Logger) port.EvidenceRepository {
	return &EvidenceRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts the evidence record
func (r *EvidenceRepository) Create(ctx context.Context, e *entity.Evidence) error {
	query := `
		INSERT INTO evidence (case_id, uploader_id, file_name, mime_type, size, storage_path, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	e.CreatedAt = nowIfZero(e.CreatedAt)

	result, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query,
		e.CaseID,
		e.UploaderID,
		e.FileName,
		e.MimeType,
		e.Size,
		e.StoragePath,
		e.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create evidence", zap.Int64("case_id", e.CaseID), zap.Error(err))
		return fmt.Errorf("failed to create evidence: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	e.ID = id
	return nil
}

// ListByCaseID returns evidence in upload order
func (r *EvidenceRepository) ListByCaseID(ctx context.Context, caseID int64) ([]*entity.Evidence, error) {
	query := `
		SELECT id, case_id, uploader_id, file_name, mime_type, size, storage_path, created_at
		FROM evidence
		WHERE case_id = ?
		ORDER BY id ASC
	`

	rows, err := sqlite.ExecutorFrom(ctx, r.db).QueryContext(ctx, query, caseID)
	if err != nil {
		r.logger.Error("Failed to list evidence", zap.Int64("case_id", caseID), zap.Error(err))
		return nil, fmt.Errorf("failed to list evidence: %w", err)
	}
	defer rows.Close()

	var items []*entity.Evidence
	for rows.Next() {
		var e entity.Evidence
		if err := rows.Scan(
			&e.ID,
			&e.CaseID,
			&e.UploaderID,
			&e.FileName,
			&e.MimeType,
			&e.Size,
			&e.StoragePath,
			&e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan evidence: %w", err)
		}
		items = append(items, &e)
	}

	return items, rows.Err()
}

var _ port.EvidenceRepository = (*EvidenceRepository)(nil)
