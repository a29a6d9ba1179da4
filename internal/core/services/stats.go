package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/LycorisBlue/backend-ruachconnect/internal/core/domain"
	"github.com/LycorisBlue/backend-ruachconnect/internal/core/ports"
)

const dashboardCommuneLimit = 10

// StatsService serves the oversight dashboards: mentor workloads and the
// aggregate visitor figures, all derived at read time.
type StatsService struct {
	persons   ports.PersonRepository
	mentors   ports.MentorDirectory
	followUps ports.FollowUpRepository
	clock     ports.Clock
	logger    *zap.Logger
}

var _ ports.StatsService = (*StatsService)(nil)

func NewStatsService(
	persons ports.PersonRepository,
	mentors ports.MentorDirectory,
	followUps ports.FollowUpRepository,
	clock ports.Clock,
	logger *zap.Logger,
) *StatsService {
	return &StatsService{
		persons:   persons,
		mentors:   mentors,
		followUps: followUps,
		clock:     clock,
		logger:    logger,
	}
}

func (s *StatsService) MentorWorkloads(ctx context.Context) ([]ports.MentorWorkload, error) {
	mentors, err := s.mentors.ListActiveWithCaseload(ctx)
	if err != nil {
		return nil, fmt.Errorf("list mentors: %w", err)
	}

	since := s.clock.Now().AddDate(0, 0, -30)
	workloads := make([]ports.MentorWorkload, 0, len(mentors))
	for _, m := range mentors {
		count, err := s.followUps.CountForMentorSince(ctx, m.ID, since)
		if err != nil {
			return nil, fmt.Errorf("count follow-ups for mentor %s: %w", m.ID, err)
		}
		workloads = append(workloads, ports.MentorWorkload{
			Mentor:              m,
			FollowUpsLast30Days: count,
		})
	}
	return workloads, nil
}

// Dashboard aggregates the register over [from, to]: new visitors in the
// period, the status breakdown of the whole register, the top communes and
// the integration rate as a percentage with one decimal.
func (s *StatsService) Dashboard(ctx context.Context, from, to time.Time) (*ports.DashboardStats, error) {
	newVisitors, err := s.persons.CountFirstVisitsBetween(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("count new visitors: %w", err)
	}

	byStatus, err := s.persons.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("count by status: %w", err)
	}
	total := 0
	for _, count := range byStatus {
		total += count
	}

	byCommune, err := s.persons.CountByCommune(ctx, dashboardCommuneLimit)
	if err != nil {
		return nil, fmt.Errorf("count by commune: %w", err)
	}

	rate := 0.0
	if total > 0 {
		rate = math.Round(float64(byStatus[domain.StatusIntegrated])/float64(total)*1000) / 10
	}

	return &ports.DashboardStats{
		StartDate:       from,
		EndDate:         to,
		NewVisitors:     newVisitors,
		TotalPersons:    total,
		ByStatus:        byStatus,
		ByCommune:       byCommune,
		IntegrationRate: rate,
	}, nil
}
