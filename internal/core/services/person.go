package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/LycorisBlue/backend-ruachconnect/internal/core/domain"
	"github.com/LycorisBlue/backend-ruachconnect/internal/core/ports"
	"github.com/LycorisBlue/backend-ruachconnect/internal/metrics"
)

const settingAutoAssignmentEnabled = "auto_assignment_enabled"

// PersonService handles visitor intake and explicit status changes.
type PersonService struct {
	persons  ports.PersonRepository
	assigner ports.MentorAssigner
	settings ports.SettingsStore
	notifier ports.Notifier
	clock    ports.Clock
	logger   *zap.Logger
}

var _ ports.PersonService = (*PersonService)(nil)

func NewPersonService(
	persons ports.PersonRepository,
	assigner ports.MentorAssigner,
	settings ports.SettingsStore,
	notifier ports.Notifier,
	clock ports.Clock,
	logger *zap.Logger,
) *PersonService {
	return &PersonService{
		persons:  persons,
		assigner: assigner,
		settings: settings,
		notifier: notifier,
		clock:    clock,
		logger:   logger,
	}
}

// CreatePerson registers a new visitor, auto-assigns a mentor when one is
// available, and notifies that mentor. Intake succeeds even when every mentor
// is at the cap; the person is then created unassigned.
func (s *PersonService) CreatePerson(ctx context.Context, input ports.CreatePersonInput, createdBy string) (*domain.Person, error) {
	now := s.clock.Now()

	person := &domain.Person{
		ID:                  uuid.NewString(),
		FirstName:           capitalizeName(input.FirstName),
		LastName:            capitalizeName(input.LastName),
		Gender:              input.Gender,
		DateOfBirth:         input.DateOfBirth,
		Phone:               normalizePhone(input.Phone),
		Email:               strings.ToLower(strings.TrimSpace(input.Email)),
		Address:             strings.TrimSpace(input.Address),
		Commune:             strings.TrimSpace(input.Commune),
		Quartier:            strings.TrimSpace(input.Quartier),
		Profession:          strings.TrimSpace(input.Profession),
		MaritalStatus:       input.MaritalStatus,
		HowHeardAboutChurch: strings.TrimSpace(input.HowHeardAboutChurch),
		PrayerRequests:      strings.TrimSpace(input.PrayerRequests),
		FirstVisitDate:      input.FirstVisitDate,
		Status:              domain.StatusToVisit,
		CreatedBy:           createdBy,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	var mentor *domain.Mentor
	if s.settings.Bool(ctx, settingAutoAssignmentEnabled, true) {
		m, err := s.assigner.FindAvailableMentor(ctx)
		if err != nil {
			return nil, fmt.Errorf("find available mentor: %w", err)
		}
		mentor = m
	}
	if mentor != nil {
		person.AssignedMentorID = &mentor.ID
	}

	if err := s.persons.Create(ctx, person); err != nil {
		return nil, fmt.Errorf("create person: %w", err)
	}

	if mentor != nil {
		metrics.AssignmentsTotal.Inc()
		fireAndForget(s.logger, "new_assignment",
			s.notifier.NotifyNewAssignment(ctx, mentor.ID, person.ID))
	} else {
		metrics.UnassignedIntakesTotal.Inc()
		s.logger.Warn("no mentor available, person created unassigned",
			zap.String("person_id", person.ID))
	}

	return person, nil
}

func (s *PersonService) GetPerson(ctx context.Context, id string) (*domain.Person, error) {
	return s.persons.FindByID(ctx, id)
}

// ListPersons returns one page of the register with its pagination envelope.
func (s *PersonService) ListPersons(ctx context.Context, filter ports.PersonListFilter, page, limit int) ([]domain.Person, ports.Pagination, error) {
	page, limit = ports.NormalizePage(page, limit)
	persons, total, err := s.persons.List(ctx, filter, limit, (page-1)*limit)
	if err != nil {
		return nil, ports.Pagination{}, fmt.Errorf("list persons: %w", err)
	}
	return persons, ports.NewPagination(total, page, limit), nil
}

// SetStatus applies an explicit status change. Any target status is allowed,
// setting the current status again is idempotent, and both cases notify the
// assigned mentor when there is one.
func (s *PersonService) SetStatus(ctx context.Context, personID string, status domain.PersonStatus) (*domain.Person, error) {
	person, err := s.persons.FindByID(ctx, personID)
	if err != nil {
		return nil, fmt.Errorf("find person %s: %w", personID, err)
	}

	now := s.clock.Now()
	if err := s.persons.UpdateStatus(ctx, person.ID, status, now); err != nil {
		return nil, fmt.Errorf("update status for person %s: %w", person.ID, err)
	}
	person.Status = status
	person.UpdatedAt = now

	s.logger.Info("person status updated",
		zap.String("person_id", person.ID),
		zap.String("status", string(status)))

	if person.AssignedMentorID != nil {
		fireAndForget(s.logger, "status_change",
			s.notifier.NotifyStatusChange(ctx, *person.AssignedMentorID, person.ID, status))
	}

	return person, nil
}

// capitalizeName folds each name part to "Xxx" form, keeping hyphenated parts
// intact ("jean-marc" -> "Jean-Marc").
func capitalizeName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	capitalize := func(part string) string {
		if part == "" {
			return part
		}
		return strings.ToUpper(part[:1]) + strings.ToLower(part[1:])
	}
	words := strings.Fields(name)
	for i, w := range words {
		subs := strings.Split(w, "-")
		for j, sub := range subs {
			subs[j] = capitalize(sub)
		}
		words[i] = strings.Join(subs, "-")
	}
	return strings.Join(words, " ")
}

// normalizePhone strips everything but digits, keeping a single leading "+".
func normalizePhone(phone string) string {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return ""
	}
	var b strings.Builder
	for i, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		} else if r == '+' && i == 0 {
			b.WriteRune(r)
		}
	}
	return b.String()
}
