package service

import (
	"context"

	"github.com/garyjia/mediation-desk/internal/application/port"
	"github.com/garyjia/mediation-desk/internal/domain/entity"
	"github.com/garyjia/mediation-desk/pkg/domainerr"
)

// NotificationService manages a user's notification inbox. Notifications are
// created by the case engine; this service only reads and updates them.
type NotificationService interface {
	List(ctx context.Context, caller entity.CallerIdentity, unreadOnly bool) ([]*entity.Notification, error)
	MarkRead(ctx context.Context, caller entity.CallerIdentity, id int64) (*entity.Notification, error)
	MarkAllRead(ctx context.Context, caller entity.CallerIdentity) (int64, error)
	Delete(ctx context.Context, caller entity.CallerIdentity, id int64) error
	UnreadCount(ctx context.Context, caller entity.CallerIdentity) (int, error)
}

type notificationServiceImpl struct {
	repo   port.NotificationRepository
	logger Logger
}

// NewNotificationService creates a new NotificationService
func NewNotificationService(repo port.NotificationRepository, logger Logger) NotificationService {
	return &notificationServiceImpl{
		repo:   repo,
		logger: orNop(logger),
	}
}

func (s *notificationServiceImpl) List(ctx context.Context, caller entity.CallerIdentity, unreadOnly bool) ([]*entity.Notification, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}

	list, err := s.repo.ListByRecipient(ctx, caller.UserID, unreadOnly)
	if err != nil {
		s.logger.Error("Failed to list notifications", "error", err, "user_id", caller.UserID)
		return nil, domainerr.Wrap(err, domainerr.CodeInternal, "failed to list notifications")
	}
	return list, nil
}

// MarkRead is idempotent; a read notification never becomes unread
func (s *notificationServiceImpl) MarkRead(ctx context.Context, caller entity.CallerIdentity, id int64) (*entity.Notification, error) {
	n, err := s.owned(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if n.Read {
		return n, nil
	}

	if err := s.repo.MarkRead(ctx, id); err != nil {
		s.logger.Error("Failed to mark notification read", "error", err, "notification_id", id)
		return nil, domainerr.Wrap(err, domainerr.CodeInternal, "failed to mark notification read")
	}
	n.Read = true
	return n, nil
}

func (s *notificationServiceImpl) MarkAllRead(ctx context.Context, caller entity.CallerIdentity) (int64, error) {
	if err := requireCaller(caller); err != nil {
		return 0, err
	}

	count, err := s.repo.MarkAllRead(ctx, caller.UserID)
	if err != nil {
		s.logger.Error("Failed to mark all notifications read", "error", err, "user_id", caller.UserID)
		return 0, domainerr.Wrap(err, domainerr.CodeInternal, "failed to mark notifications read")
	}
	if count > 0 {
		s.logger.Info("Notifications marked read", "user_id", caller.UserID, "count", count)
	}
	return count, nil
}

func (s *notificationServiceImpl) Delete(ctx context.Context, caller entity.CallerIdentity, id int64) error {
	if _, err := s.owned(ctx, caller, id); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		s.logger.Error("Failed to delete notification", "error", err, "notification_id", id)
		return domainerr.Wrap(err, domainerr.CodeInternal, "failed to delete notification")
	}
	return nil
}

func (s *notificationServiceImpl) UnreadCount(ctx context.Context, caller entity.CallerIdentity) (int, error) {
	if err := requireCaller(caller); err != nil {
		return 0, err
	}

	count, err := s.repo.CountUnread(ctx, caller.UserID)
	if err != nil {
		return 0, domainerr.Wrap(err, domainerr.CodeInternal, "failed to count notifications")
	}
	return count, nil
}

// owned loads a notification and hides it from everyone but its recipient
func (s *notificationServiceImpl) owned(ctx context.Context, caller entity.CallerIdentity, id int64) (*entity.Notification, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}

	n, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, domainerr.Wrap(err, domainerr.CodeInternal, "failed to load notification")
	}
	if n == nil || n.RecipientID != caller.UserID {
		return nil, domainerr.Newf(domainerr.CodeNotFound, "notification %d not found", id)
	}
	return n, nil
}

func requireCaller(caller entity.CallerIdentity) error {
	if !caller.IsAuthenticated() {
		return domainerr.New(domainerr.CodeUnauthorized, "authentication required")
	}
	return nil
}
