package notification

import "context"

// NotificationData describes a single outbound message
type NotificationData struct {
	To      string // Recipient email address
	Subject string // Message subject
	Body    string // Plain-text content
}

// Notifier delivers messages to users. Delivery is best effort: the
// identity service logs failures and never surfaces them to the caller.
type Notifier interface {
	Send(ctx context.Context, notification NotificationData) error
}
