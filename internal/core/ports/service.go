package ports

import (
	"context"
	"time"

	"github.com/LycorisBlue/backend-ruachconnect/internal/core/domain"
)

// CreatePersonInput carries the intake form for a new visitor. Validation of
// enum values and date ranges happens at the HTTP boundary; services only
// defend against unresolved references.
type CreatePersonInput struct {
	FirstName           string
	LastName            string
	Gender              domain.Gender
	DateOfBirth         *time.Time
	Phone               string
	Email               string
	Address             string
	Commune             string
	Quartier            string
	Profession          string
	MaritalStatus       domain.MaritalStatus
	HowHeardAboutChurch string
	PrayerRequests      string
	FirstVisitDate      time.Time
}

type CreateFollowUpInput struct {
	PersonID         string
	InteractionType  domain.InteractionType
	InteractionDate  time.Time
	Notes            string
	Outcome          domain.Outcome
	NextActionNeeded bool
	NextActionDate   *time.Time
	NextActionNotes  string
}

// MentorAssigner selects and binds mentors under the caseload cap.
type MentorAssigner interface {
	// FindAvailableMentor returns the least-loaded active mentor under the
	// cap, or nil when every mentor is full. A nil mentor is not an error;
	// intake proceeds unassigned.
	FindAvailableMentor(ctx context.Context) (*domain.Mentor, error)

	// AssignMentor binds (or rebinds) a mentor to a person and notifies the
	// new mentor. The previous mentor is not notified.
	AssignMentor(ctx context.Context, personID, mentorID string) (*domain.Person, error)
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Pagination describes one page of a list response.
type Pagination struct {
	CurrentPage int  `json:"current_page"`
	TotalPages  int  `json:"total_pages"`
	TotalItems  int  `json:"total_items"`
	PerPage     int  `json:"per_page"`
	HasNext     bool `json:"has_next"`
	HasPrev     bool `json:"has_prev"`
}

// NormalizePage clamps page and per-page size to sane bounds: page >= 1,
// size in [1, 100] with 20 as the default.
func NormalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return page, limit
}

// NewPagination derives the page envelope from a total match count.
func NewPagination(total, page, limit int) Pagination {
	totalPages := (total + limit - 1) / limit
	return Pagination{
		CurrentPage: page,
		TotalPages:  totalPages,
		TotalItems:  total,
		PerPage:     limit,
		HasNext:     page < totalPages,
		HasPrev:     page > 1,
	}
}

type PersonService interface {
	CreatePerson(ctx context.Context, input CreatePersonInput, createdBy string) (*domain.Person, error)
	GetPerson(ctx context.Context, id string) (*domain.Person, error)
	SetStatus(ctx context.Context, personID string, status domain.PersonStatus) (*domain.Person, error)
	ListPersons(ctx context.Context, filter PersonListFilter, page, limit int) ([]domain.Person, Pagination, error)
}

type FollowUpService interface {
	RecordFollowUp(ctx context.Context, input CreateFollowUpInput, mentorID string) (*domain.FollowUp, error)
	ListFollowUps(ctx context.Context, filter FollowUpListFilter, page, limit int) ([]domain.FollowUp, Pagination, error)
	FindOverdue(ctx context.Context, thresholdDays int) ([]domain.OverdueEntry, error)
	FindUpcomingActions(ctx context.Context, mentorID string, daysAhead int) ([]domain.FollowUp, error)
}

type NotificationReader interface {
	ListForUser(ctx context.Context, userID string, onlyUnread bool, page, limit int) ([]domain.Notification, int, error)
	MarkRead(ctx context.Context, notificationID, userID string) error
}

// ReminderReport summarizes one scheduler pass.
type ReminderReport struct {
	NewVisitorReminders int `json:"new_reminders"`
	OverdueReminders    int `json:"overdue_reminders"`
	Skipped             int `json:"skipped"`
}

type ReminderService interface {
	RunReminderPass(ctx context.Context) (ReminderReport, error)
}

// MentorWorkload pairs a mentor with recent activity for the dashboard.
type MentorWorkload struct {
	Mentor              domain.Mentor `json:"mentor"`
	FollowUpsLast30Days int           `json:"follow_ups_last_30_days"`
}

// DashboardStats aggregates the register for the oversight dashboard. Every
// figure is derived at read time; nothing here is a stored counter.
type DashboardStats struct {
	StartDate       time.Time                   `json:"start_date"`
	EndDate         time.Time                   `json:"end_date"`
	NewVisitors     int                         `json:"new_visitors"`
	TotalPersons    int                         `json:"total_persons"`
	ByStatus        map[domain.PersonStatus]int `json:"by_status"`
	ByCommune       []domain.CommuneCount       `json:"by_commune"`
	IntegrationRate float64                     `json:"integration_rate"`
}

type StatsService interface {
	MentorWorkloads(ctx context.Context) ([]MentorWorkload, error)
	Dashboard(ctx context.Context, from, to time.Time) (*DashboardStats, error)
}
