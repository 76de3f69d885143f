package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/garyjia/mediation-desk/internal/application/port"
	"github.com/garyjia/mediation-desk/internal/domain/entity"
	"github.com/garyjia/mediation-desk/internal/infrastructure/persistence/sqlite"
	"go.uber.org/zap"
)

// WitnessRepository implements port.WitnessRepository
type WitnessRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewWitnessRepository creates a new witness repository
func NewWitnessRepository(db *sql.DB, logger *zap.Logger) port.WitnessRepository {
	return &WitnessRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts the witness. (case_id, user_id) is unique.
func (r *WitnessRepository) Create(ctx context.Context, w *entity.Witness) error {
	query := `
		INSERT INTO witnesses (
			case_id, user_id, name, email, phone, relationship, nominated_by, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	w.CreatedAt = nowIfZero(w.CreatedAt)

	result, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query,
		w.CaseID,
		w.UserID,
		w.Name,
		w.Email,
		w.Phone,
		w.Relationship,
		w.NominatedBy,
		w.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create witness",
			zap.Int64("case_id", w.CaseID),
			zap.Int64("user_id", w.UserID),
			zap.Error(err))
		return fmt.Errorf("failed to create witness: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	w.ID = id
	return nil
}

// ListByCaseID returns witnesses in nomination order
func (r *WitnessRepository) ListByCaseID(ctx context.Context, caseID int64) ([]*entity.Witness, error) {
	query := `
		SELECT id, case_id, user_id, name, email, phone, relationship,
			statement, statement_at, nominated_by, created_at
		FROM witnesses
		WHERE case_id = ?
		ORDER BY id ASC
	`

	rows, err := sqlite.ExecutorFrom(ctx, r.db).QueryContext(ctx, query, caseID)
	if err != nil {
		r.logger.Error("Failed to list witnesses", zap.Int64("case_id", caseID), zap.Error(err))
		return nil, fmt.Errorf("failed to list witnesses: %w", err)
	}
	defer rows.Close()

	var witnesses []*entity.Witness
	for rows.Next() {
		var (
			w           entity.Witness
			statementAt sql.NullTime
		)
		if err := rows.Scan(
			&w.ID,
			&w.CaseID,
			&w.UserID,
			&w.Name,
			&w.Email,
			&w.Phone,
			&w.Relationship,
			&w.Statement,
			&statementAt,
			&w.NominatedBy,
			&w.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan witness: %w", err)
		}
		w.StatementAt = timePtr(statementAt)
		witnesses = append(witnesses, &w)
	}

	return witnesses, rows.Err()
}

// UpdateStatement records the witness statement
func (r *WitnessRepository) UpdateStatement(ctx context.Context, id int64, statement string, at time.Time) error {
	query := `UPDATE witnesses SET statement = ?, statement_at = ? WHERE id = ?`

	if _, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query, statement, nowIfZero(at), id); err != nil {
		r.logger.Error("Failed to update witness statement", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to update witness statement: %w", err)
	}
	return nil
}

var _ port.WitnessRepository = (*WitnessRepository)(nil)
