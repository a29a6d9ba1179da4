package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/LycorisBlue/backend-ruachconnect/internal/core/domain"
	"github.com/LycorisBlue/backend-ruachconnect/internal/core/ports"
	"github.com/LycorisBlue/backend-ruachconnect/internal/metrics"
)

// statusLabels are the human-readable (French) labels used in status change
// messages, matching the mobile app wording.
var statusLabels = map[domain.PersonStatus]string{
	domain.StatusToVisit:    "à visiter",
	domain.StatusInFollowUp: "en suivi",
	domain.StatusIntegrated: "intégré(e)",
	domain.StatusToRedirect: "à réorienter",
	domain.StatusLongAbsent: "absent(e) prolongé(e)",
}

// NotificationService persists user-facing notifications and their outbox
// events, and serves the per-user read model.
type NotificationService struct {
	persons       ports.PersonRepository
	notifications ports.NotificationRepository
	clock         ports.Clock
	logger        *zap.Logger
}

var _ ports.Notifier = (*NotificationService)(nil)
var _ ports.NotificationReader = (*NotificationService)(nil)

func NewNotificationService(
	persons ports.PersonRepository,
	notifications ports.NotificationRepository,
	clock ports.Clock,
	logger *zap.Logger,
) *NotificationService {
	return &NotificationService{
		persons:       persons,
		notifications: notifications,
		clock:         clock,
		logger:        logger,
	}
}

func (s *NotificationService) NotifyNewAssignment(ctx context.Context, mentorID, personID string) error {
	person, err := s.persons.FindByID(ctx, personID)
	if err != nil {
		return fmt.Errorf("resolve person for assignment notification: %w", err)
	}
	return s.create(ctx, domain.Notification{
		UserID:   mentorID,
		PersonID: &person.ID,
		Type:     domain.NotificationNewAssignment,
		Title:    "Nouvelle attribution",
		Message:  fmt.Sprintf("%s vous a été assigné(e) pour suivi", person.DisplayName()),
	})
}

func (s *NotificationService) NotifyStatusChange(ctx context.Context, mentorID, personID string, status domain.PersonStatus) error {
	person, err := s.persons.FindByID(ctx, personID)
	if err != nil {
		return fmt.Errorf("resolve person for status notification: %w", err)
	}
	label, ok := statusLabels[status]
	if !ok {
		label = string(status)
	}
	return s.create(ctx, domain.Notification{
		UserID:   mentorID,
		PersonID: &person.ID,
		Type:     domain.NotificationStatusChange,
		Title:    "Changement de statut",
		Message:  fmt.Sprintf("%s est maintenant %s", person.DisplayName(), label),
	})
}

func (s *NotificationService) NotifyFollowUpReminder(ctx context.Context, mentorID, personID string, daysWaiting int) error {
	person, err := s.persons.FindByID(ctx, personID)
	if err != nil {
		return fmt.Errorf("resolve person for reminder notification: %w", err)
	}
	return s.create(ctx, domain.Notification{
		UserID:   mentorID,
		PersonID: &person.ID,
		Type:     domain.NotificationFollowUpReminder,
		Title:    "Suivi en attente",
		Message:  fmt.Sprintf("%s attend un suivi depuis %d jours", person.DisplayName(), daysWaiting),
	})
}

func (s *NotificationService) NotifyOverdueVisit(ctx context.Context, mentorID, personID string, daysOverdue int) error {
	person, err := s.persons.FindByID(ctx, personID)
	if err != nil {
		return fmt.Errorf("resolve person for overdue notification: %w", err)
	}
	return s.create(ctx, domain.Notification{
		UserID:   mentorID,
		PersonID: &person.ID,
		Type:     domain.NotificationOverdueVisit,
		Title:    "Visite en retard",
		Message:  fmt.Sprintf("Visite de %s en retard de %d jours", person.DisplayName(), daysOverdue),
	})
}

// create fills the generated fields, persists the row together with its
// outbox event, and bumps the per-type counter.
func (s *NotificationService) create(ctx context.Context, n domain.Notification) error {
	n.ID = uuid.NewString()
	n.CreatedAt = s.clock.Now()
	if n.PersonID != nil {
		n.ActionURL = "/persons/" + *n.PersonID
	}

	evt := ports.NotificationEvent{
		NotificationID: n.ID,
		UserID:         n.UserID,
		Type:           n.Type,
		Title:          n.Title,
		Message:        n.Message,
		CreatedAt:      n.CreatedAt,
	}
	if n.PersonID != nil {
		evt.PersonID = *n.PersonID
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal notification event: %w", err)
	}

	if err := s.notifications.Create(ctx, &n, payload); err != nil {
		return fmt.Errorf("persist notification: %w", err)
	}
	metrics.NotificationsTotal.WithLabelValues(string(n.Type)).Inc()
	return nil
}

func (s *NotificationService) ListForUser(ctx context.Context, userID string, onlyUnread bool, page, limit int) ([]domain.Notification, int, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	offset := (page - 1) * limit

	list, err := s.notifications.ListForUser(ctx, userID, onlyUnread, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	unread, err := s.notifications.CountUnread(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	return list, unread, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, notificationID, userID string) error {
	if err := s.notifications.MarkRead(ctx, notificationID, userID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return err
		}
		return fmt.Errorf("mark notification read: %w", err)
	}
	return nil
}

// fireAndForget logs and counts a failed notification emission without
// failing the calling operation. Lifecycle and assignment correctness never
// depend on notification delivery.
func fireAndForget(logger *zap.Logger, op string, err error) {
	if err == nil {
		return
	}
	metrics.NotificationFailures.Inc()
	logger.Error("notification emit failed", zap.String("operation", op), zap.Error(err))
}
