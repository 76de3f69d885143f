package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/garyjia/mediation-desk/internal/application/port"
	"github.com/garyjia/mediation-desk/internal/domain/entity"
	"github.com/garyjia/mediation-desk/internal/infrastructure/persistence/sqlite"
	"go.uber.org/zap"
)

// UserRepository is the SQLite-backed user directory
type UserRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sql.DB, logger *zap.Logger) *UserRepository {
	return &UserRepository{
		db:     db,
		logger: logger,
	}
}

// Create registers a directory entry. Used for seeding; registration itself lives elsewhere.
func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	query := `INSERT INTO users (name, email, phone, role, created_at) VALUES (?, ?, ?, ?, ?)`

	if u.Role == "" {
		u.Role = entity.RoleUser
	}
	u.CreatedAt = nowIfZero(u.CreatedAt)

	result, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query,
		u.Name,
		strings.TrimSpace(u.Email),
		u.Phone,
		u.Role,
		u.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create user", zap.String("email", u.Email), zap.Error(err))
		return fmt.Errorf("failed to create user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	u.ID = id
	return nil
}

// GetByID returns nil, nil when the user is unknown
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*entity.User, error) {
	query := `SELECT id, name, email, phone, role, created_at FROM users WHERE id = ?`
	return r.get(ctx, query, id)
}

// GetByEmail matches case-insensitively and returns nil, nil when the email is unknown
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	query := `SELECT id, name, email, phone, role, created_at FROM users WHERE email = ?`
	return r.get(ctx, query, strings.TrimSpace(email))
}

func (r *UserRepository) get(ctx context.Context, query string, arg interface{}) (*entity.User, error) {
	var u entity.User
	err := sqlite.ExecutorFrom(ctx, r.db).QueryRowContext(ctx, query, arg).Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.Phone,
		&u.Role,
		&u.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get user", zap.Any("key", arg), zap.Error(err))
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

var _ port.UserDirectory = (*UserRepository)(nil)
