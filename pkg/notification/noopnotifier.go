package notification

import (
	"context"
	"log/slog"
)

// NoopNotifier logs notifications instead of delivering them. Used for
// local runs without a mail transport configured.
type NoopNotifier struct{}

func (NoopNotifier) Send(ctx context.Context, notification NotificationData) error {
	slog.Info("Notification suppressed (no mail transport configured)",
		"to", notification.To, "subject", notification.Subject)
	return nil
}
