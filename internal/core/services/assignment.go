package services

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/LycorisBlue/backend-ruachconnect/internal/core/domain"
	"github.com/LycorisBlue/backend-ruachconnect/internal/core/ports"
	"github.com/LycorisBlue/backend-ruachconnect/internal/metrics"
)

const (
	settingMaxPersonsPerMentor = "max_persons_per_mentor"

	defaultMaxPersonsPerMentor = 10
)

// AssignmentService spreads new visitors across active mentors under the
// configurable caseload cap. Caseloads are derived from person records on
// every call; two concurrent intakes may transiently pick the same mentor and
// push it one over the cap, which is accepted (the cap is a fairness target,
// not a hard limit).
type AssignmentService struct {
	persons  ports.PersonRepository
	mentors  ports.MentorDirectory
	settings ports.SettingsStore
	notifier ports.Notifier
	clock    ports.Clock
	logger   *zap.Logger
}

var _ ports.MentorAssigner = (*AssignmentService)(nil)

func NewAssignmentService(
	persons ports.PersonRepository,
	mentors ports.MentorDirectory,
	settings ports.SettingsStore,
	notifier ports.Notifier,
	clock ports.Clock,
	logger *zap.Logger,
) *AssignmentService {
	return &AssignmentService{
		persons:  persons,
		mentors:  mentors,
		settings: settings,
		notifier: notifier,
		clock:    clock,
		logger:   logger,
	}
}

// FindAvailableMentor returns the active mentor with the lowest caseload
// still under the cap, ties broken by mentor id so the choice is
// deterministic. A nil result means every mentor is full; the caller creates
// the person unassigned.
func (s *AssignmentService) FindAvailableMentor(ctx context.Context) (*domain.Mentor, error) {
	maxPersons := s.settings.Int(ctx, settingMaxPersonsPerMentor, defaultMaxPersonsPerMentor)

	mentors, err := s.mentors.ListActiveWithCaseload(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active mentors: %w", err)
	}

	// The directory already orders by caseload, but re-sorting here keeps
	// the tie-break rule in one place and independent of the store.
	sort.Slice(mentors, func(i, j int) bool {
		if mentors[i].Caseload != mentors[j].Caseload {
			return mentors[i].Caseload < mentors[j].Caseload
		}
		return mentors[i].ID < mentors[j].ID
	})

	for i := range mentors {
		if mentors[i].Caseload < maxPersons {
			return &mentors[i], nil
		}
	}
	return nil, nil
}

// AssignMentor binds mentorID to the person, overwriting any previous mentor,
// and notifies the new mentor. The previous mentor gets nothing.
func (s *AssignmentService) AssignMentor(ctx context.Context, personID, mentorID string) (*domain.Person, error) {
	person, err := s.persons.FindByID(ctx, personID)
	if err != nil {
		return nil, fmt.Errorf("find person %s: %w", personID, err)
	}
	mentor, err := s.mentors.FindByID(ctx, mentorID)
	if err != nil {
		return nil, fmt.Errorf("find mentor %s: %w", mentorID, err)
	}

	now := s.clock.Now()
	if err := s.persons.UpdateMentor(ctx, person.ID, mentor.ID, now); err != nil {
		return nil, fmt.Errorf("update mentor for person %s: %w", person.ID, err)
	}
	person.AssignedMentorID = &mentor.ID
	person.UpdatedAt = now
	metrics.AssignmentsTotal.Inc()

	s.logger.Info("mentor assigned",
		zap.String("person_id", person.ID),
		zap.String("mentor_id", mentor.ID))

	fireAndForget(s.logger, "new_assignment",
		s.notifier.NotifyNewAssignment(ctx, mentor.ID, person.ID))

	return person, nil
}
