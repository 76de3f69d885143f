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

const notificationColumns = `id, recipient_id, case_id, category, title, message, is_read, created_at`

// NotificationRepository implements port.NotificationRepository
type NotificationRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db *sql.DB, logger *zap.Logger) port.NotificationRepository {
	return &NotificationRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts an unread notification
func (r *NotificationRepository) Create(ctx context.Context, n *entity.Notification) error {
	query := `
		INSERT INTO notifications (recipient_id, case_id, category, title, message, is_read, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	n.CreatedAt = nowIfZero(n.CreatedAt)

	result, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query,
		n.RecipientID,
		nullableID(n.CaseID),
		n.Category,
		n.Title,
		n.Message,
		n.Read,
		n.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create notification", zap.Int64("recipient_id", n.RecipientID), zap.Error(err))
		return fmt.Errorf("failed to create notification: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	n.ID = id
	return nil
}

// GetByID returns nil, nil when the notification does not exist
func (r *NotificationRepository) GetByID(ctx context.Context, id int64) (*entity.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE id = ?`

	n, err := scanNotification(sqlite.ExecutorFrom(ctx, r.db).QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get notification", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get notification: %w", err)
	}
	return n, nil
}

// ListByRecipient returns the inbox newest first
func (r *NotificationRepository) ListByRecipient(ctx context.Context, recipientID int64, unreadOnly bool) ([]*entity.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE recipient_id = ?`
	if unreadOnly {
		query += ` AND is_read = 0`
	}
	query += ` ORDER BY id DESC`

	return r.list(ctx, query, recipientID)
}

// ListByCaseID returns every notification raised for a case, oldest first
func (r *NotificationRepository) ListByCaseID(ctx context.Context, caseID int64) ([]*entity.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE case_id = ? ORDER BY id ASC`
	return r.list(ctx, query, caseID)
}

// MarkRead sets the read flag. It never clears it.
func (r *NotificationRepository) MarkRead(ctx context.Context, id int64) error {
	query := `UPDATE notifications SET is_read = 1 WHERE id = ? AND is_read = 0`

	if _, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query, id); err != nil {
		r.logger.Error("Failed to mark notification read", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	return nil
}

// MarkAllRead returns how many notifications flipped to read
func (r *NotificationRepository) MarkAllRead(ctx context.Context, recipientID int64) (int64, error) {
	query := `UPDATE notifications SET is_read = 1 WHERE recipient_id = ? AND is_read = 0`

	result, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query, recipientID)
	if err != nil {
		r.logger.Error("Failed to mark all notifications read", zap.Int64("recipient_id", recipientID), zap.Error(err))
		return 0, fmt.Errorf("failed to mark all notifications read: %w", err)
	}
	return result.RowsAffected()
}

// Delete removes a notification
func (r *NotificationRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM notifications WHERE id = ?`

	if _, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query, id); err != nil {
		r.logger.Error("Failed to delete notification", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to delete notification: %w", err)
	}
	return nil
}

// CountUnread counts the recipient's unread notifications
func (r *NotificationRepository) CountUnread(ctx context.Context, recipientID int64) (int, error) {
	query := `SELECT COUNT(*) FROM notifications WHERE recipient_id = ? AND is_read = 0`

	var count int
	if err := sqlite.ExecutorFrom(ctx, r.db).QueryRowContext(ctx, query, recipientID).Scan(&count); err != nil {
		r.logger.Error("Failed to count unread notifications", zap.Int64("recipient_id", recipientID), zap.Error(err))
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}

func (r *NotificationRepository) list(ctx context.Context, query string, args ...interface{}) ([]*entity.Notification, error) {
	rows, err := sqlite.ExecutorFrom(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list notifications", zap.Error(err))
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	var notifications []*entity.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

func scanNotification(row rowScanner) (*entity.Notification, error) {
	var (
		n      entity.Notification
		caseID sql.NullInt64
	)
	if err := row.Scan(
		&n.ID,
		&n.RecipientID,
		&caseID,
		&n.Category,
		&n.Title,
		&n.Message,
		&n.Read,
		&n.CreatedAt,
	); err != nil {
		return nil, err
	}
	n.CaseID = idPtr(caseID)
	return &n, nil
}

var _ port.NotificationRepository = (*NotificationRepository)(nil)
