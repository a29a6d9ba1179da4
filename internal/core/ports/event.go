package ports

import (
	"context"
	"time"

	"github.com/LycorisBlue/backend-ruachconnect/internal/core/domain"
)

// NotificationEvent is the outbox payload the relay publishes when a
// notification row is created. External consumers (push, e-mail) subscribe to
// the queue; the backend itself never blocks on delivery.
type NotificationEvent struct {
	NotificationID string                  `json:"notification_id"`
	UserID         string                  `json:"user_id"`
	PersonID       string                  `json:"person_id,omitempty"`
	Type           domain.NotificationType `json:"type"`
	Title          string                  `json:"title"`
	Message        string                  `json:"message"`
	CreatedAt      time.Time               `json:"created_at"`
}

type NotificationPublisher interface {
	PublishNotificationCreated(ctx context.Context, evt NotificationEvent) error
}
