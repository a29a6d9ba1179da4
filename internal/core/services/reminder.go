package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/LycorisBlue/backend-ruachconnect/internal/core/domain"
	"github.com/LycorisBlue/backend-ruachconnect/internal/core/ports"
	"github.com/LycorisBlue/backend-ruachconnect/internal/metrics"
)

const (
	settingReminderDaysNew      = "reminder_days_new"
	settingReminderDaysFollowUp = "reminder_days_follow_up"

	defaultReminderDaysNew      = 3
	defaultReminderDaysFollowUp = 7
)

// ReminderService is the periodic pass that turns scan results into mentor
// notifications: one sweep for brand-new visitors nobody has visited yet, one
// for visitors whose follow-up has gone stale.
type ReminderService struct {
	persons   ports.PersonRepository
	followUps ports.FollowUpService
	settings  ports.SettingsStore
	guard     ports.ReminderGuard
	notifier  ports.Notifier
	clock     ports.Clock
	logger    *zap.Logger
}

var _ ports.ReminderService = (*ReminderService)(nil)

func NewReminderService(
	persons ports.PersonRepository,
	followUps ports.FollowUpService,
	settings ports.SettingsStore,
	guard ports.ReminderGuard,
	notifier ports.Notifier,
	clock ports.Clock,
	logger *zap.Logger,
) *ReminderService {
	return &ReminderService{
		persons:   persons,
		followUps: followUps,
		settings:  settings,
		guard:     guard,
		notifier:  notifier,
		clock:     clock,
		logger:    logger,
	}
}

// RunReminderPass is safe to re-run within the same period: the guard
// suppresses a second reminder of the same type for the same person on the
// same day. Guard failures fall back to emitting (dedup is best effort).
func (s *ReminderService) RunReminderPass(ctx context.Context) (ports.ReminderReport, error) {
	var report ports.ReminderReport
	now := s.clock.Now()

	reminderDaysNew := s.settings.Int(ctx, settingReminderDaysNew, defaultReminderDaysNew)
	reminderDaysFollowUp := s.settings.Int(ctx, settingReminderDaysFollowUp, defaultReminderDaysFollowUp)

	// New visitors still waiting for their first visit.
	cutoff := now.AddDate(0, 0, -reminderDaysNew)
	waiting, err := s.persons.FindAwaitingFirstVisit(ctx, cutoff)
	if err != nil {
		return report, fmt.Errorf("list persons awaiting first visit: %w", err)
	}
	for _, p := range waiting {
		if p.AssignedMentorID == nil {
			continue
		}
		if !s.acquire(ctx, p.ID, domain.NotificationFollowUpReminder, now) {
			report.Skipped++
			continue
		}
		daysWaiting := daysBetween(p.CreatedAt, now)
		if err := s.notifier.NotifyFollowUpReminder(ctx, *p.AssignedMentorID, p.ID, daysWaiting); err != nil {
			fireAndForget(s.logger, "follow_up_reminder", err)
			continue
		}
		report.NewVisitorReminders++
	}

	// Visitors whose latest interaction has gone stale.
	overdue, err := s.followUps.FindOverdue(ctx, reminderDaysFollowUp)
	if err != nil {
		return report, fmt.Errorf("scan overdue visitors: %w", err)
	}
	for _, entry := range overdue {
		// Never-contacted to_visit persons belong to the first sweep.
		if entry.Person.Status == domain.StatusToVisit && entry.LastInteractionDate == nil {
			continue
		}
		if !s.acquire(ctx, entry.Person.ID, domain.NotificationOverdueVisit, now) {
			report.Skipped++
			continue
		}
		daysOverdue := entry.DaysSinceLastContact - reminderDaysFollowUp
		if daysOverdue < 1 {
			daysOverdue = 1
		}
		if err := s.notifier.NotifyOverdueVisit(ctx, entry.Mentor.ID, entry.Person.ID, daysOverdue); err != nil {
			fireAndForget(s.logger, "overdue_visit", err)
			continue
		}
		report.OverdueReminders++
	}

	metrics.ReminderPassesTotal.Inc()
	s.logger.Info("reminder pass complete",
		zap.Int("new_visitor_reminders", report.NewVisitorReminders),
		zap.Int("overdue_reminders", report.OverdueReminders),
		zap.Int("skipped", report.Skipped))
	return report, nil
}

func (s *ReminderService) acquire(ctx context.Context, personID string, typ domain.NotificationType, day time.Time) bool {
	ok, err := s.guard.Acquire(ctx, personID, typ, day)
	if err != nil {
		s.logger.Warn("reminder guard unavailable, emitting anyway",
			zap.String("person_id", personID), zap.Error(err))
		return true
	}
	if !ok {
		metrics.RemindersSkippedTotal.Inc()
	}
	return ok
}
