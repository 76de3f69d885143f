package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/garyjia/mediation-desk/internal/application/port"
	"github.com/garyjia/mediation-desk/internal/domain/entity"
	"github.com/garyjia/mediation-desk/internal/infrastructure/persistence/sqlite"
	"go.uber.org/zap"
)

const caseColumns = `
	id, case_number, category, description, status, priority,
	complainant_id, respondent_id,
	opposite_name, opposite_email, opposite_phone, opposite_address,
	in_court, court_case_number, court_name,
	police_reported, police_report_number, police_station_name,
	response_text, created_at, updated_at`

// CaseRepository implements port.CaseRepository
type CaseRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewCaseRepository creates a new case repository
func NewCaseRepository(db *sql.DB, logger *zap.Logger) port.CaseRepository {
	return &CaseRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts the case and assigns its ID
func (r *CaseRepository) Create(ctx context.Context, c *entity.Case) error {
	query := `
		INSERT INTO cases (
			case_number, category, description, status, priority,
			complainant_id, respondent_id,
			opposite_name, opposite_email, opposite_phone, opposite_address,
			in_court, court_case_number, court_name,
			police_reported, police_report_number, police_station_name,
			response_text, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	c.CreatedAt = nowIfZero(c.CreatedAt)
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = c.CreatedAt
	}

	result, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query,
		c.CaseNumber,
		c.Category,
		c.Description,
		c.Status,
		c.Priority,
		c.ComplainantID,
		nullableID(c.RespondentID),
		c.OppositeParty.Name,
		c.OppositeParty.Email,
		c.OppositeParty.Phone,
		c.OppositeParty.Address,
		c.Proceedings.InCourt,
		c.Proceedings.CourtCaseNumber,
		c.Proceedings.CourtName,
		c.Proceedings.PoliceReported,
		c.Proceedings.PoliceReportNumber,
		c.Proceedings.PoliceStationName,
		c.ResponseText,
		c.CreatedAt,
		c.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create case", zap.String("case_number", c.CaseNumber), zap.Error(err))
		return fmt.Errorf("failed to create case: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	c.ID = id
	return nil
}

// GetByID returns nil, nil when the case does not exist
func (r *CaseRepository) GetByID(ctx context.Context, id int64) (*entity.Case, error) {
	query := `SELECT ` + caseColumns + ` FROM cases WHERE id = ?`

	c, err := scanCase(sqlite.ExecutorFrom(ctx, r.db).QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get case by ID", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get case: %w", err)
	}
	return c, nil
}

// GetByCaseNumber returns nil, nil when no case carries the number
func (r *CaseRepository) GetByCaseNumber(ctx context.Context, caseNumber string) (*entity.Case, error) {
	query := `SELECT ` + caseColumns + ` FROM cases WHERE case_number = ?`

	c, err := scanCase(sqlite.ExecutorFrom(ctx, r.db).QueryRowContext(ctx, query, caseNumber))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get case by number", zap.String("case_number", caseNumber), zap.Error(err))
		return nil, fmt.Errorf("failed to get case: %w", err)
	}
	return c, nil
}

// UpdateStatus is a compare-and-set on the status column
func (r *CaseRepository) UpdateStatus(ctx context.Context, id int64, expected, next string, at time.Time) (bool, error) {
	query := `UPDATE cases SET status = ?, updated_at = ? WHERE id = ? AND status = ?`

	result, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query, next, nowIfZero(at), id, expected)
	if err != nil {
		r.logger.Error("Failed to update case status",
			zap.Int64("id", id),
			zap.String("expected", expected),
			zap.String("next", next),
			zap.Error(err))
		return false, fmt.Errorf("failed to update status: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n == 1, nil
}

// SetRespondent links the respondent and records the email they were resolved by
func (r *CaseRepository) SetRespondent(ctx context.Context, id, respondentID int64, email string) error {
	query := `UPDATE cases SET respondent_id = ?, opposite_email = ? WHERE id = ?`

	if _, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query, respondentID, email, id); err != nil {
		r.logger.Error("Failed to set respondent", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to set respondent: %w", err)
	}
	return nil
}

// SetResponse stores the respondent's response text
func (r *CaseRepository) SetResponse(ctx context.Context, id int64, text string) error {
	query := `UPDATE cases SET response_text = ? WHERE id = ?`

	if _, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query, text, id); err != nil {
		r.logger.Error("Failed to set response", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to set response: %w", err)
	}
	return nil
}

// List returns cases newest first
func (r *CaseRepository) List(ctx context.Context, filter port.CaseFilter) ([]*entity.Case, error) {
	var (
		where []string
		args  []interface{}
	)

	if filter.ParticipantID != nil {
		uid := *filter.ParticipantID
		where = append(where, `(
			complainant_id = ? OR respondent_id = ?
			OR id IN (SELECT case_id FROM witnesses WHERE user_id = ?)
			OR id IN (SELECT case_id FROM mediation_panels
				WHERE arbiter_id = ? OR advisor1_id = ? OR advisor2_id = ?)
		)`)
		args = append(args, uid, uid, uid, uid, uid, uid)
	}
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, filter.Status)
	}

	query := `SELECT ` + caseColumns + ` FROM cases`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC"

	limit := filter.Limit
	if limit <= 0 {
		limit = -1
	}
	query += " LIMIT ? OFFSET ?"
	args = append(args, limit, filter.Offset)

	rows, err := sqlite.ExecutorFrom(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list cases", zap.Error(err))
		return nil, fmt.Errorf("failed to list cases: %w", err)
	}
	defer rows.Close()

	var cases []*entity.Case
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan case: %w", err)
		}
		cases = append(cases, c)
	}

	return cases, rows.Err()
}

func scanCase(row rowScanner) (*entity.Case, error) {
	var (
		c            entity.Case
		respondentID sql.NullInt64
	)

	err := row.Scan(
		&c.ID,
		&c.CaseNumber,
		&c.Category,
		&c.Description,
		&c.Status,
		&c.Priority,
		&c.ComplainantID,
		&respondentID,
		&c.OppositeParty.Name,
		&c.OppositeParty.Email,
		&c.OppositeParty.Phone,
		&c.OppositeParty.Address,
		&c.Proceedings.InCourt,
		&c.Proceedings.CourtCaseNumber,
		&c.Proceedings.CourtName,
		&c.Proceedings.PoliceReported,
		&c.Proceedings.PoliceReportNumber,
		&c.Proceedings.PoliceStationName,
		&c.ResponseText,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	c.RespondentID = idPtr(respondentID)
	return &c, nil
}

var _ port.CaseRepository = (*CaseRepository)(nil)
