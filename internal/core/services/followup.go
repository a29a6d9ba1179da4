package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/LycorisBlue/backend-ruachconnect/internal/core/domain"
	"github.com/LycorisBlue/backend-ruachconnect/internal/core/ports"
)

const (
	defaultOverdueThresholdDays = 7
	defaultUpcomingDaysAhead    = 7
)

// FollowUpService records interactions and computes the time-derived visitor
// states: overdue visitors and upcoming scheduled actions.
type FollowUpService struct {
	persons   ports.PersonRepository
	followUps ports.FollowUpRepository
	mentors   ports.MentorDirectory
	clock     ports.Clock
	logger    *zap.Logger
}

var _ ports.FollowUpService = (*FollowUpService)(nil)

func NewFollowUpService(
	persons ports.PersonRepository,
	followUps ports.FollowUpRepository,
	mentors ports.MentorDirectory,
	clock ports.Clock,
	logger *zap.Logger,
) *FollowUpService {
	return &FollowUpService{
		persons:   persons,
		followUps: followUps,
		mentors:   mentors,
		clock:     clock,
		logger:    logger,
	}
}

// RecordFollowUp appends one interaction and applies the automatic status
// transition. The follow-up write comes first; if the status update fails the
// person stays in its previous status and is promoted by the next follow-up.
func (s *FollowUpService) RecordFollowUp(ctx context.Context, input ports.CreateFollowUpInput, mentorID string) (*domain.FollowUp, error) {
	person, err := s.persons.FindByID(ctx, input.PersonID)
	if err != nil {
		return nil, fmt.Errorf("find person %s: %w", input.PersonID, err)
	}
	if _, err := s.mentors.FindByID(ctx, mentorID); err != nil {
		return nil, fmt.Errorf("find mentor %s: %w", mentorID, err)
	}

	now := s.clock.Now()
	followUp := &domain.FollowUp{
		ID:               uuid.NewString(),
		PersonID:         person.ID,
		MentorID:         mentorID,
		InteractionType:  input.InteractionType,
		InteractionDate:  input.InteractionDate,
		Notes:            input.Notes,
		Outcome:          input.Outcome,
		NextActionNeeded: input.NextActionNeeded,
		NextActionDate:   input.NextActionDate,
		NextActionNotes:  input.NextActionNotes,
		CreatedAt:        now,
	}

	if err := s.followUps.Create(ctx, followUp); err != nil {
		return nil, fmt.Errorf("create follow-up: %w", err)
	}

	if next, changed := domain.StatusAfterFollowUp(person.Status); changed {
		if err := s.persons.UpdateStatus(ctx, person.ID, next, now); err != nil {
			// The interaction is durable; promotion happens on the next
			// follow-up if this one did not stick.
			return nil, fmt.Errorf("promote person %s to %s: %w", person.ID, next, err)
		}
		s.logger.Info("person promoted on first follow-up",
			zap.String("person_id", person.ID),
			zap.String("status", string(next)))
	}

	return followUp, nil
}

// ListFollowUps returns one page of recorded interactions with its
// pagination envelope. Caller-side scoping (a mentor seeing only their own
// follow-ups) is expressed through the filter's MentorID.
func (s *FollowUpService) ListFollowUps(ctx context.Context, filter ports.FollowUpListFilter, page, limit int) ([]domain.FollowUp, ports.Pagination, error) {
	page, limit = ports.NormalizePage(page, limit)
	followUps, total, err := s.followUps.List(ctx, filter, limit, (page-1)*limit)
	if err != nil {
		return nil, ports.Pagination{}, fmt.Errorf("list follow-ups: %w", err)
	}
	return followUps, ports.NewPagination(total, page, limit), nil
}

// FindOverdue flags active, mentored persons whose latest interaction is
// strictly older than the threshold, or who have no interaction at all. A
// person whose latest interaction sits exactly on the threshold is not
// overdue.
func (s *FollowUpService) FindOverdue(ctx context.Context, thresholdDays int) ([]domain.OverdueEntry, error) {
	if thresholdDays <= 0 {
		thresholdDays = defaultOverdueThresholdDays
	}
	now := s.clock.Now()
	cutoff := now.AddDate(0, 0, -thresholdDays)

	persons, err := s.persons.FindActiveAssigned(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active assigned persons: %w", err)
	}
	if len(persons) == 0 {
		return nil, nil
	}

	ids := make([]string, 0, len(persons))
	for _, p := range persons {
		ids = append(ids, p.ID)
	}
	latest, err := s.followUps.LatestForPersons(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load latest follow-ups: %w", err)
	}

	mentors, err := s.mentorIndex(ctx)
	if err != nil {
		return nil, err
	}

	var entries []domain.OverdueEntry
	for _, p := range persons {
		if p.AssignedMentorID == nil {
			continue
		}
		mentor, ok := mentors[*p.AssignedMentorID]
		if !ok {
			// Mentor was deactivated since assignment; nobody to remind.
			continue
		}

		fu, hasFollowUp := latest[p.ID]
		if hasFollowUp && !fu.InteractionDate.Before(cutoff) {
			continue
		}

		entry := domain.OverdueEntry{Person: p, Mentor: mentor}
		if hasFollowUp {
			d := fu.InteractionDate
			o := fu.Outcome
			entry.LastInteractionDate = &d
			entry.LastOutcome = &o
			entry.DaysSinceLastContact = daysBetween(fu.InteractionDate, now)
		} else {
			entry.DaysSinceLastContact = daysBetween(p.FirstVisitDate, now)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// FindUpcomingActions returns the mentor's declared next actions scheduled
// within [now, now+daysAhead], both ends inclusive, soonest first.
func (s *FollowUpService) FindUpcomingActions(ctx context.Context, mentorID string, daysAhead int) ([]domain.FollowUp, error) {
	if daysAhead <= 0 {
		daysAhead = defaultUpcomingDaysAhead
	}
	now := s.clock.Now()
	return s.followUps.FindUpcoming(ctx, mentorID, now, now.AddDate(0, 0, daysAhead))
}

func (s *FollowUpService) mentorIndex(ctx context.Context) (map[string]domain.Mentor, error) {
	mentors, err := s.mentors.ListActiveWithCaseload(ctx)
	if err != nil {
		return nil, fmt.Errorf("list mentors: %w", err)
	}
	index := make(map[string]domain.Mentor, len(mentors))
	for _, m := range mentors {
		index[m.ID] = m
	}
	return index, nil
}

func daysBetween(from, to time.Time) int {
	if to.Before(from) {
		return 0
	}
	return int(to.Sub(from).Hours() / 24)
}
