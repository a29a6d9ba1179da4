// Package mocks provides in-memory implementations of the core ports for
// testing services without a database, Redis or RabbitMQ.
package mocks

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/LycorisBlue/backend-ruachconnect/internal/core/domain"
	"github.com/LycorisBlue/backend-ruachconnect/internal/core/ports"
)

// MockPersonRepository implements ports.PersonRepository with in-memory
// storage, call tracking and error injection.
type MockPersonRepository struct {
	mu sync.RWMutex

	persons map[string]*domain.Person
	// hasFollowUp marks persons that already have at least one follow-up,
	// used by FindAwaitingFirstVisit.
	hasFollowUp map[string]bool

	CreateCalls       []domain.Person
	UpdateStatusCalls []string
	UpdateMentorCalls []string
	ListCalls         []ports.PersonListFilter

	CreateError       error
	FindByIDError     error
	UpdateStatusError error
	UpdateMentorError error
	FindActiveError   error
	FindAwaitingError error
	ListError         error
	CountError        error
}

var _ ports.PersonRepository = (*MockPersonRepository)(nil)

func NewMockPersonRepository() *MockPersonRepository {
	return &MockPersonRepository{
		persons:     make(map[string]*domain.Person),
		hasFollowUp: make(map[string]bool),
	}
}

// SeedPerson adds a person for test setup.
func (m *MockPersonRepository) SeedPerson(p *domain.Person) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.persons[p.ID] = &cp
}

// MarkHasFollowUp excludes a person from FindAwaitingFirstVisit results.
func (m *MockPersonRepository) MarkHasFollowUp(personID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hasFollowUp[personID] = true
}

func (m *MockPersonRepository) Create(ctx context.Context, person *domain.Person) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreateCalls = append(m.CreateCalls, *person)
	if m.CreateError != nil {
		return m.CreateError
	}
	cp := *person
	m.persons[person.ID] = &cp
	return nil
}

func (m *MockPersonRepository) FindByID(ctx context.Context, id string) (*domain.Person, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.FindByIDError != nil {
		return nil, m.FindByIDError
	}
	p, ok := m.persons[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MockPersonRepository) UpdateStatus(ctx context.Context, id string, status domain.PersonStatus, updatedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpdateStatusCalls = append(m.UpdateStatusCalls, id)
	if m.UpdateStatusError != nil {
		return m.UpdateStatusError
	}
	p, ok := m.persons[id]
	if !ok {
		return domain.ErrNotFound
	}
	p.Status = status
	p.UpdatedAt = updatedAt
	return nil
}

func (m *MockPersonRepository) UpdateMentor(ctx context.Context, id, mentorID string, updatedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpdateMentorCalls = append(m.UpdateMentorCalls, id)
	if m.UpdateMentorError != nil {
		return m.UpdateMentorError
	}
	p, ok := m.persons[id]
	if !ok {
		return domain.ErrNotFound
	}
	p.AssignedMentorID = &mentorID
	p.UpdatedAt = updatedAt
	return nil
}

// List applies the filter over the seeded persons, ordered by descending
// creation time with id as tie-break, and slices out the requested page.
func (m *MockPersonRepository) List(ctx context.Context, filter ports.PersonListFilter, limit, offset int) ([]domain.Person, int, error) {
	m.mu.Lock()
	m.ListCalls = append(m.ListCalls, filter)
	m.mu.Unlock()

	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.ListError != nil {
		return nil, 0, m.ListError
	}
	var matched []domain.Person
	for _, p := range m.persons {
		if filter.Status != nil && p.Status != *filter.Status {
			continue
		}
		if filter.MentorID != "" && (p.AssignedMentorID == nil || *p.AssignedMentorID != filter.MentorID) {
			continue
		}
		if filter.Commune != "" && !strings.Contains(strings.ToLower(p.Commune), strings.ToLower(filter.Commune)) {
			continue
		}
		if filter.Search != "" {
			needle := strings.ToLower(filter.Search)
			if !strings.Contains(strings.ToLower(p.FirstName), needle) &&
				!strings.Contains(strings.ToLower(p.LastName), needle) {
				continue
			}
		}
		if filter.From != nil && p.FirstVisitDate.Before(*filter.From) {
			continue
		}
		if filter.To != nil && p.FirstVisitDate.After(*filter.To) {
			continue
		}
		matched = append(matched, *p)
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID < matched[j].ID
	})
	total := len(matched)
	if offset >= total {
		return nil, total, nil
	}
	matched = matched[offset:]
	if limit < len(matched) {
		matched = matched[:limit]
	}
	return matched, total, nil
}

func (m *MockPersonRepository) CountByStatus(ctx context.Context) (map[domain.PersonStatus]int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.CountError != nil {
		return nil, m.CountError
	}
	counts := make(map[domain.PersonStatus]int)
	for _, p := range m.persons {
		counts[p.Status]++
	}
	return counts, nil
}

func (m *MockPersonRepository) CountFirstVisitsBetween(ctx context.Context, from, to time.Time) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.CountError != nil {
		return 0, m.CountError
	}
	count := 0
	for _, p := range m.persons {
		if !p.FirstVisitDate.Before(from) && !p.FirstVisitDate.After(to) {
			count++
		}
	}
	return count, nil
}

func (m *MockPersonRepository) CountByCommune(ctx context.Context, limit int) ([]domain.CommuneCount, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.CountError != nil {
		return nil, m.CountError
	}
	byCommune := make(map[string]int)
	for _, p := range m.persons {
		if p.Commune != "" {
			byCommune[p.Commune]++
		}
	}
	counts := make([]domain.CommuneCount, 0, len(byCommune))
	for commune, count := range byCommune {
		counts = append(counts, domain.CommuneCount{Commune: commune, Count: count})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].Commune < counts[j].Commune
	})
	if limit < len(counts) {
		counts = counts[:limit]
	}
	return counts, nil
}

func (m *MockPersonRepository) FindActiveAssigned(ctx context.Context) ([]domain.Person, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.FindActiveError != nil {
		return nil, m.FindActiveError
	}
	var out []domain.Person
	for _, p := range m.persons {
		if p.Status.IsActive() && p.AssignedMentorID != nil {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MockPersonRepository) FindAwaitingFirstVisit(ctx context.Context, cutoff time.Time) ([]domain.Person, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.FindAwaitingError != nil {
		return nil, m.FindAwaitingError
	}
	var out []domain.Person
	for _, p := range m.persons {
		if p.Status != domain.StatusToVisit || p.AssignedMentorID == nil {
			continue
		}
		if m.hasFollowUp[p.ID] || p.CreatedAt.After(cutoff) {
			continue
		}
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// MockFollowUpRepository implements ports.FollowUpRepository.
type MockFollowUpRepository struct {
	mu sync.RWMutex

	followUps []domain.FollowUp

	CreateCalls []domain.FollowUp
	ListCalls   []ports.FollowUpListFilter

	CreateError       error
	ListError         error
	LatestError       error
	FindUpcomingError error
	CountError        error
}

var _ ports.FollowUpRepository = (*MockFollowUpRepository)(nil)

func NewMockFollowUpRepository() *MockFollowUpRepository {
	return &MockFollowUpRepository{}
}

// SeedFollowUp adds a follow-up for test setup.
func (m *MockFollowUpRepository) SeedFollowUp(fu domain.FollowUp) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.followUps = append(m.followUps, fu)
}

func (m *MockFollowUpRepository) Create(ctx context.Context, followUp *domain.FollowUp) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreateCalls = append(m.CreateCalls, *followUp)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.followUps = append(m.followUps, *followUp)
	return nil
}

// List applies the filter over seeded follow-ups, most recent interaction
// first, and slices out the requested page.
func (m *MockFollowUpRepository) List(ctx context.Context, filter ports.FollowUpListFilter, limit, offset int) ([]domain.FollowUp, int, error) {
	m.mu.Lock()
	m.ListCalls = append(m.ListCalls, filter)
	m.mu.Unlock()

	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.ListError != nil {
		return nil, 0, m.ListError
	}
	var matched []domain.FollowUp
	for _, fu := range m.followUps {
		if filter.PersonID != "" && fu.PersonID != filter.PersonID {
			continue
		}
		if filter.MentorID != "" && fu.MentorID != filter.MentorID {
			continue
		}
		if filter.Outcome != nil && fu.Outcome != *filter.Outcome {
			continue
		}
		if filter.From != nil && fu.InteractionDate.Before(*filter.From) {
			continue
		}
		if filter.To != nil && fu.InteractionDate.After(*filter.To) {
			continue
		}
		matched = append(matched, fu)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].InteractionDate.After(matched[j].InteractionDate)
	})
	total := len(matched)
	if offset >= total {
		return nil, total, nil
	}
	matched = matched[offset:]
	if limit < len(matched) {
		matched = matched[:limit]
	}
	return matched, total, nil
}

func (m *MockFollowUpRepository) LatestForPersons(ctx context.Context, personIDs []string) (map[string]domain.FollowUp, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.LatestError != nil {
		return nil, m.LatestError
	}
	wanted := make(map[string]bool, len(personIDs))
	for _, id := range personIDs {
		wanted[id] = true
	}
	latest := make(map[string]domain.FollowUp)
	for _, fu := range m.followUps {
		if !wanted[fu.PersonID] {
			continue
		}
		current, ok := latest[fu.PersonID]
		if !ok || fu.InteractionDate.After(current.InteractionDate) {
			latest[fu.PersonID] = fu
		}
	}
	return latest, nil
}

func (m *MockFollowUpRepository) FindUpcoming(ctx context.Context, mentorID string, from, to time.Time) ([]domain.FollowUp, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.FindUpcomingError != nil {
		return nil, m.FindUpcomingError
	}
	var out []domain.FollowUp
	for _, fu := range m.followUps {
		if fu.MentorID != mentorID || !fu.NextActionNeeded || fu.NextActionDate == nil {
			continue
		}
		d := *fu.NextActionDate
		if d.Before(from) || d.After(to) {
			continue
		}
		out = append(out, fu)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NextActionDate.Before(*out[j].NextActionDate) })
	return out, nil
}

func (m *MockFollowUpRepository) CountForMentorSince(ctx context.Context, mentorID string, since time.Time) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.CountError != nil {
		return 0, m.CountError
	}
	count := 0
	for _, fu := range m.followUps {
		if fu.MentorID == mentorID && fu.CreatedAt.After(since) {
			count++
		}
	}
	return count, nil
}

// MockMentorDirectory implements ports.MentorDirectory over a fixed mentor
// list. Caseloads are whatever the test seeds; the mock does not derive them.
type MockMentorDirectory struct {
	mu sync.RWMutex

	mentors []domain.Mentor

	FindByIDError error
	ListError     error
}

var _ ports.MentorDirectory = (*MockMentorDirectory)(nil)

func NewMockMentorDirectory(mentors ...domain.Mentor) *MockMentorDirectory {
	return &MockMentorDirectory{mentors: mentors}
}

// SetCaseload adjusts a seeded mentor's caseload in place.
func (m *MockMentorDirectory) SetCaseload(mentorID string, caseload int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.mentors {
		if m.mentors[i].ID == mentorID {
			m.mentors[i].Caseload = caseload
		}
	}
}

func (m *MockMentorDirectory) FindByID(ctx context.Context, id string) (*domain.Mentor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.FindByIDError != nil {
		return nil, m.FindByIDError
	}
	for i := range m.mentors {
		if m.mentors[i].ID == id {
			cp := m.mentors[i]
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockMentorDirectory) ListActiveWithCaseload(ctx context.Context) ([]domain.Mentor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.ListError != nil {
		return nil, m.ListError
	}
	out := make([]domain.Mentor, 0, len(m.mentors))
	for _, mentor := range m.mentors {
		if mentor.IsActive {
			out = append(out, mentor)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Caseload != out[j].Caseload {
			return out[i].Caseload < out[j].Caseload
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// MockNotificationRepository implements ports.NotificationRepository and
// records the outbox payload written alongside each notification.
type MockNotificationRepository struct {
	mu sync.RWMutex

	notifications []domain.Notification

	CreateCalls    []domain.Notification
	OutboxPayloads [][]byte
	MarkReadCalls  []string

	CreateError   error
	ListError     error
	CountError    error
	MarkReadError error
}

var _ ports.NotificationRepository = (*MockNotificationRepository)(nil)

func NewMockNotificationRepository() *MockNotificationRepository {
	return &MockNotificationRepository{}
}

func (m *MockNotificationRepository) Create(ctx context.Context, notification *domain.Notification, outboxPayload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreateCalls = append(m.CreateCalls, *notification)
	m.OutboxPayloads = append(m.OutboxPayloads, outboxPayload)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.notifications = append(m.notifications, *notification)
	return nil
}

func (m *MockNotificationRepository) ListForUser(ctx context.Context, userID string, onlyUnread bool, limit, offset int) ([]domain.Notification, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.ListError != nil {
		return nil, m.ListError
	}
	var matched []domain.Notification
	for _, n := range m.notifications {
		if n.UserID != userID {
			continue
		}
		if onlyUnread && n.IsRead {
			continue
		}
		matched = append(matched, n)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })
	if offset >= len(matched) {
		return nil, nil
	}
	matched = matched[offset:]
	if limit < len(matched) {
		matched = matched[:limit]
	}
	return matched, nil
}

func (m *MockNotificationRepository) CountUnread(ctx context.Context, userID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.CountError != nil {
		return 0, m.CountError
	}
	count := 0
	for _, n := range m.notifications {
		if n.UserID == userID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (m *MockNotificationRepository) MarkRead(ctx context.Context, notificationID, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.MarkReadCalls = append(m.MarkReadCalls, notificationID)
	if m.MarkReadError != nil {
		return m.MarkReadError
	}
	for i := range m.notifications {
		if m.notifications[i].ID == notificationID && m.notifications[i].UserID == userID {
			m.notifications[i].IsRead = true
			return nil
		}
	}
	return domain.ErrNotFound
}
