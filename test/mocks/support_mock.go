package mocks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/LycorisBlue/backend-ruachconnect/internal/core/domain"
	"github.com/LycorisBlue/backend-ruachconnect/internal/core/ports"
)

// FixedClock pins "now" so date arithmetic in tests is exact.
type FixedClock struct {
	Time time.Time
}

var _ ports.Clock = (*FixedClock)(nil)

func (c FixedClock) Now() time.Time { return c.Time }

// MockSettingsStore returns seeded values and falls back like the real cache.
type MockSettingsStore struct {
	Ints  map[string]int
	Bools map[string]bool
}

var _ ports.SettingsStore = (*MockSettingsStore)(nil)

func NewMockSettingsStore() *MockSettingsStore {
	return &MockSettingsStore{
		Ints:  make(map[string]int),
		Bools: make(map[string]bool),
	}
}

func (m *MockSettingsStore) Int(ctx context.Context, key string, fallback int) int {
	if v, ok := m.Ints[key]; ok {
		return v
	}
	return fallback
}

func (m *MockSettingsStore) Bool(ctx context.Context, key string, fallback bool) bool {
	if v, ok := m.Bools[key]; ok {
		return v
	}
	return fallback
}

// MockReminderGuard implements ports.ReminderGuard with an in-memory claim
// set, mirroring the Redis SET NX semantics.
type MockReminderGuard struct {
	mu sync.Mutex

	claimed map[string]bool

	AcquireCalls []string
	AcquireError error
}

var _ ports.ReminderGuard = (*MockReminderGuard)(nil)

func NewMockReminderGuard() *MockReminderGuard {
	return &MockReminderGuard{claimed: make(map[string]bool)}
}

func (m *MockReminderGuard) Acquire(ctx context.Context, personID string, notifType domain.NotificationType, day time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := fmt.Sprintf("%s:%s:%s", notifType, personID, day.UTC().Format("2006-01-02"))
	m.AcquireCalls = append(m.AcquireCalls, key)
	if m.AcquireError != nil {
		return false, m.AcquireError
	}
	if m.claimed[key] {
		return false, nil
	}
	m.claimed[key] = true
	return true, nil
}

// NotifyCall records one emitted notification for assertions.
type NotifyCall struct {
	Type     domain.NotificationType
	MentorID string
	PersonID string
	Status   domain.PersonStatus
	Days     int
}

// MockNotifier implements ports.Notifier with call tracking and per-method
// error injection.
type MockNotifier struct {
	mu sync.Mutex

	Calls []NotifyCall

	NewAssignmentError    error
	StatusChangeError     error
	FollowUpReminderError error
	OverdueVisitError     error
}

var _ ports.Notifier = (*MockNotifier)(nil)

func NewMockNotifier() *MockNotifier {
	return &MockNotifier{}
}

// CallsOfType filters recorded calls by notification type.
func (m *MockNotifier) CallsOfType(t domain.NotificationType) []NotifyCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []NotifyCall
	for _, c := range m.Calls {
		if c.Type == t {
			out = append(out, c)
		}
	}
	return out
}

func (m *MockNotifier) NotifyNewAssignment(ctx context.Context, mentorID, personID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, NotifyCall{
		Type: domain.NotificationNewAssignment, MentorID: mentorID, PersonID: personID,
	})
	return m.NewAssignmentError
}

func (m *MockNotifier) NotifyStatusChange(ctx context.Context, mentorID, personID string, status domain.PersonStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, NotifyCall{
		Type: domain.NotificationStatusChange, MentorID: mentorID, PersonID: personID, Status: status,
	})
	return m.StatusChangeError
}

func (m *MockNotifier) NotifyFollowUpReminder(ctx context.Context, mentorID, personID string, daysWaiting int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, NotifyCall{
		Type: domain.NotificationFollowUpReminder, MentorID: mentorID, PersonID: personID, Days: daysWaiting,
	})
	return m.FollowUpReminderError
}

func (m *MockNotifier) NotifyOverdueVisit(ctx context.Context, mentorID, personID string, daysOverdue int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, NotifyCall{
		Type: domain.NotificationOverdueVisit, MentorID: mentorID, PersonID: personID, Days: daysOverdue,
	})
	return m.OverdueVisitError
}

// MockNotificationPublisher implements ports.NotificationPublisher.
type MockNotificationPublisher struct {
	mu sync.Mutex

	Published    []ports.NotificationEvent
	PublishError error
}

var _ ports.NotificationPublisher = (*MockNotificationPublisher)(nil)

func NewMockNotificationPublisher() *MockNotificationPublisher {
	return &MockNotificationPublisher{}
}

func (m *MockNotificationPublisher) PublishNotificationCreated(ctx context.Context, evt ports.NotificationEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PublishError != nil {
		return m.PublishError
	}
	m.Published = append(m.Published, evt)
	return nil
}
