package lark

import (
	"context"
	"fmt"
	"strings"

	"github.com/garyjia/mediation-desk/internal/application/port"
	"github.com/garyjia/mediation-desk/internal/domain/event"
	"go.uber.org/zap"
)

// TextSender is the part of Messenger the sink needs
type TextSender interface {
	SendText(ctx context.Context, receiveIDType, receiveID, text string) (string, error)
}

// NotificationSink mirrors inbox notifications into Lark direct messages,
// addressing users by the email in the directory
type NotificationSink struct {
	sender TextSender
	users  port.UserDirectory
	logger *zap.Logger
}

// NewNotificationSink creates a dispatcher sink backed by Lark IM
func NewNotificationSink(sender TextSender, users port.UserDirectory, logger *zap.Logger) *NotificationSink {
	return &NotificationSink{
		sender: sender,
		users:  users,
		logger: logger,
	}
}

// Handle delivers one notification event. Users unknown to the directory are skipped.
func (s *NotificationSink) Handle(ctx context.Context, evt *event.Event) error {
	u, err := s.users.GetByID(ctx, evt.RecipientID)
	if err != nil {
		return fmt.Errorf("failed to resolve recipient: %w", err)
	}
	if u == nil || u.Email == "" {
		s.logger.Debug("Skipping Lark delivery, recipient has no email", zap.Int64("recipient_id", evt.RecipientID))
		return nil
	}

	if _, err := s.sender.SendText(ctx, ReceiveByEmail, u.Email, FormatNotification(evt)); err != nil {
		return fmt.Errorf("failed to send lark message to user %d: %w", u.ID, err)
	}
	return nil
}

// FormatNotification renders the text body of a notification message
func FormatNotification(evt *event.Event) string {
	var b strings.Builder
	if title := evt.GetPayloadString("title"); title != "" {
		fmt.Fprintf(&b, "【%s】\n", title)
	}
	b.WriteString(evt.GetPayloadString("message"))
	if number := evt.GetPayloadString("case_number"); number != "" {
		fmt.Fprintf(&b, "\nCase: %s", number)
	}
	return strings.TrimSpace(b.String())
}
