package ports

import (
	"context"
	"time"

	"github.com/LycorisBlue/backend-ruachconnect/internal/core/domain"
)

// PersonListFilter narrows the person list. Zero values mean "no filter";
// From/To bound first_visit_date, both ends inclusive.
type PersonListFilter struct {
	Status   *domain.PersonStatus
	MentorID string
	Commune  string
	Search   string
	From     *time.Time
	To       *time.Time
}

// FollowUpListFilter narrows the follow-up list. From/To bound
// interaction_date, both ends inclusive.
type FollowUpListFilter struct {
	PersonID string
	MentorID string
	Outcome  *domain.Outcome
	From     *time.Time
	To       *time.Time
}

type PersonRepository interface {
	Create(ctx context.Context, person *domain.Person) error
	FindByID(ctx context.Context, id string) (*domain.Person, error)
	UpdateStatus(ctx context.Context, id string, status domain.PersonStatus, updatedAt time.Time) error
	UpdateMentor(ctx context.Context, id, mentorID string, updatedAt time.Time) error

	// List returns one page of persons matching the filter, newest intake
	// first, along with the total match count for pagination.
	List(ctx context.Context, filter PersonListFilter, limit, offset int) ([]domain.Person, int, error)

	// CountByStatus breaks the whole register down by lifecycle status.
	CountByStatus(ctx context.Context) (map[domain.PersonStatus]int, error)

	// CountFirstVisitsBetween counts persons whose first visit falls inside
	// [from, to], both ends inclusive.
	CountFirstVisitsBetween(ctx context.Context, from, to time.Time) (int, error)

	// CountByCommune returns the most represented communes, largest first.
	CountByCommune(ctx context.Context, limit int) ([]domain.CommuneCount, error)

	// FindActiveAssigned returns persons with an active status and a
	// non-null mentor, the candidate set for overdue detection.
	FindActiveAssigned(ctx context.Context) ([]domain.Person, error)

	// FindAwaitingFirstVisit returns to_visit persons with a mentor, no
	// follow-up at all, created on or before the cutoff.
	FindAwaitingFirstVisit(ctx context.Context, cutoff time.Time) ([]domain.Person, error)
}

type FollowUpRepository interface {
	Create(ctx context.Context, followUp *domain.FollowUp) error

	// List returns one page of follow-ups matching the filter, most recent
	// interaction first, along with the total match count.
	List(ctx context.Context, filter FollowUpListFilter, limit, offset int) ([]domain.FollowUp, int, error)

	// LatestForPersons returns the most recent follow-up per person
	// (interaction_date descending, creation order breaking ties). Persons
	// without any follow-up are absent from the map.
	LatestForPersons(ctx context.Context, personIDs []string) (map[string]domain.FollowUp, error)

	// FindUpcoming returns a mentor's follow-ups whose declared next action
	// falls inside [from, to], both bounds inclusive, ascending by date.
	FindUpcoming(ctx context.Context, mentorID string, from, to time.Time) ([]domain.FollowUp, error)

	// CountForMentorSince counts a mentor's follow-ups recorded after the
	// given instant, for caseload reporting.
	CountForMentorSince(ctx context.Context, mentorID string, since time.Time) (int, error)
}

type MentorDirectory interface {
	FindByID(ctx context.Context, id string) (*domain.Mentor, error)

	// ListActiveWithCaseload returns all active mentors with their current
	// caseload derived from person records, ordered by caseload then id.
	ListActiveWithCaseload(ctx context.Context) ([]domain.Mentor, error)
}

type NotificationRepository interface {
	// Create persists the notification and, in the same transaction, an
	// outbox row carrying outboxPayload for the relay to publish.
	Create(ctx context.Context, notification *domain.Notification, outboxPayload []byte) error

	ListForUser(ctx context.Context, userID string, onlyUnread bool, limit, offset int) ([]domain.Notification, error)
	CountUnread(ctx context.Context, userID string) (int, error)

	// MarkRead flips is_read to true for a notification owned by userID.
	// It never resets a read notification back to unread.
	MarkRead(ctx context.Context, notificationID, userID string) error
}

// SettingsStore reads mutable system settings. Implementations return the
// fallback on missing keys or unparseable values; configuration reads fail
// open by design.
type SettingsStore interface {
	Int(ctx context.Context, key string, fallback int) int
	Bool(ctx context.Context, key string, fallback bool) bool
}

// ReminderGuard suppresses duplicate reminder notifications across repeated
// scheduler passes. Acquire reports whether this (person, type, day) bucket
// is still free and claims it.
type ReminderGuard interface {
	Acquire(ctx context.Context, personID string, notifType domain.NotificationType, day time.Time) (bool, error)
}
