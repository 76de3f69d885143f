package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/garyjia/mediation-desk/internal/application/port"
	"github.com/garyjia/mediation-desk/internal/domain/entity"
	"github.com/garyjia/mediation-desk/internal/infrastructure/persistence/sqlite"
	"go.uber.org/zap"
)

// PanelRepository implements port.PanelRepository
type PanelRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPanelRepository creates a new panel repository
func NewPanelRepository(db *sql.DB, logger *zap.Logger) port.PanelRepository {
	return &PanelRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts the panel. A second panel for the same case violates the unique constraint.
func (r *PanelRepository) Create(ctx context.Context, p *entity.MediationPanel) error {
	if len(p.AdvisorIDs) > entity.MaxAdvisors {
		return fmt.Errorf("panel has %d advisors, at most %d allowed", len(p.AdvisorIDs), entity.MaxAdvisors)
	}

	var advisors [entity.MaxAdvisors]sql.NullInt64
	for i, id := range p.AdvisorIDs {
		advisors[i] = sql.NullInt64{Int64: id, Valid: true}
	}

	query := `
		INSERT INTO mediation_panels (case_id, arbiter_id, advisor1_id, advisor2_id, created_at)
		VALUES (?, ?, ?, ?, ?)
	`

	p.CreatedAt = nowIfZero(p.CreatedAt)

	result, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query,
		p.CaseID,
		p.ArbiterID,
		advisors[0],
		advisors[1],
		p.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create panel", zap.Int64("case_id", p.CaseID), zap.Error(err))
		return fmt.Errorf("failed to create panel: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	p.ID = id
	return nil
}

// GetByCaseID returns nil, nil when the case has no panel
func (r *PanelRepository) GetByCaseID(ctx context.Context, caseID int64) (*entity.MediationPanel, error) {
	query := `
		SELECT id, case_id, arbiter_id, advisor1_id, advisor2_id, created_at
		FROM mediation_panels
		WHERE case_id = ?
	`

	var (
		p        entity.MediationPanel
		advisor1 sql.NullInt64
		advisor2 sql.NullInt64
	)
	err := sqlite.ExecutorFrom(ctx, r.db).QueryRowContext(ctx, query, caseID).Scan(
		&p.ID,
		&p.CaseID,
		&p.ArbiterID,
		&advisor1,
		&advisor2,
		&p.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get panel", zap.Int64("case_id", caseID), zap.Error(err))
		return nil, fmt.Errorf("failed to get panel: %w", err)
	}

	for _, a := range []sql.NullInt64{advisor1, advisor2} {
		if a.Valid {
			p.AdvisorIDs = append(p.AdvisorIDs, a.Int64)
		}
	}
	return &p, nil
}

var _ port.PanelRepository = (*PanelRepository)(nil)
