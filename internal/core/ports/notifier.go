package ports

import (
	"context"

	"github.com/LycorisBlue/backend-ruachconnect/internal/core/domain"
)

// Notifier is the emission side of the notification contract. Emissions are
// fire-and-forget from the caller's point of view: an error is logged and
// counted but never fails the primary operation.
type Notifier interface {
	NotifyNewAssignment(ctx context.Context, mentorID, personID string) error
	NotifyStatusChange(ctx context.Context, mentorID, personID string, status domain.PersonStatus) error
	NotifyFollowUpReminder(ctx context.Context, mentorID, personID string, daysWaiting int) error
	NotifyOverdueVisit(ctx context.Context, mentorID, personID string, daysOverdue int) error
}
