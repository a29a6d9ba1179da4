package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/LycorisBlue/backend-ruachconnect/internal/core/domain"
	"github.com/LycorisBlue/backend-ruachconnect/internal/core/services"
	"github.com/LycorisBlue/backend-ruachconnect/test/mocks"
)

type reminderFixture struct {
	persons   *mocks.MockPersonRepository
	followUps *mocks.MockFollowUpRepository
	mentors   *mocks.MockMentorDirectory
	settings  *mocks.MockSettingsStore
	guard     *mocks.MockReminderGuard
	notifier  *mocks.MockNotifier
	svc       *services.ReminderService
}

func newReminderFixture() *reminderFixture {
	f := &reminderFixture{
		persons:   mocks.NewMockPersonRepository(),
		followUps: mocks.NewMockFollowUpRepository(),
		mentors:   mocks.NewMockMentorDirectory(mentor("m-1", 3)),
		settings:  mocks.NewMockSettingsStore(),
		guard:     mocks.NewMockReminderGuard(),
		notifier:  mocks.NewMockNotifier(),
	}
	clock := mocks.FixedClock{Time: testNow}
	followUpService := services.NewFollowUpService(f.persons, f.followUps, f.mentors, clock, zap.NewNop())
	f.svc = services.NewReminderService(
		f.persons, followUpService, f.settings, f.guard, f.notifier, clock, zap.NewNop())
	return f
}

// seedAwaiting adds a to_visit person with a mentor and no follow-up, created
// daysAgo days before the pinned clock.
func (f *reminderFixture) seedAwaiting(id string, daysAgo int) {
	mentorID := "m-1"
	created := testNow.AddDate(0, 0, -daysAgo)
	f.persons.SeedPerson(&domain.Person{
		ID:               id,
		FirstName:        "Person",
		LastName:         id,
		Status:           domain.StatusToVisit,
		AssignedMentorID: &mentorID,
		FirstVisitDate:   created,
		CreatedAt:        created,
	})
}

func TestRunReminderPassEmitsNewVisitorReminders(t *testing.T) {
	f := newReminderFixture()
	f.seedAwaiting("p-waiting", 4)
	f.seedAwaiting("p-recent", 1) // inside the 3 day window, not reminded

	report, err := f.svc.RunReminderPass(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.NewVisitorReminders != 1 {
		t.Fatalf("new visitor reminders = %d, want 1", report.NewVisitorReminders)
	}

	calls := f.notifier.CallsOfType(domain.NotificationFollowUpReminder)
	if len(calls) != 1 || calls[0].PersonID != "p-waiting" {
		t.Fatalf("expected reminder for p-waiting, got %+v", calls)
	}
	if calls[0].Days != 4 {
		t.Errorf("days waiting = %d, want 4", calls[0].Days)
	}
}

func TestRunReminderPassEmitsOverdueReminders(t *testing.T) {
	f := newReminderFixture()
	mentorID := "m-1"
	f.persons.SeedPerson(&domain.Person{
		ID:               "p-stale",
		Status:           domain.StatusInFollowUp,
		AssignedMentorID: &mentorID,
		FirstVisitDate:   testNow.AddDate(0, 0, -40),
		CreatedAt:        testNow.AddDate(0, 0, -40),
	})
	f.followUps.SeedFollowUp(domain.FollowUp{
		PersonID:        "p-stale",
		MentorID:        "m-1",
		InteractionDate: testNow.AddDate(0, 0, -10),
		Outcome:         domain.OutcomeNeutral,
	})

	report, err := f.svc.RunReminderPass(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.OverdueReminders != 1 {
		t.Fatalf("overdue reminders = %d, want 1", report.OverdueReminders)
	}

	calls := f.notifier.CallsOfType(domain.NotificationOverdueVisit)
	if len(calls) != 1 || calls[0].PersonID != "p-stale" {
		t.Fatalf("expected overdue reminder for p-stale, got %+v", calls)
	}
	// 10 days since contact minus the 7 day threshold.
	if calls[0].Days != 3 {
		t.Errorf("days overdue = %d, want 3", calls[0].Days)
	}
}

func TestRunReminderPassDeduplicatesWithinSameDay(t *testing.T) {
	f := newReminderFixture()
	f.seedAwaiting("p-waiting", 5)

	first, err := f.svc.RunReminderPass(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := f.svc.RunReminderPass(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if first.NewVisitorReminders != 1 {
		t.Fatalf("first pass reminders = %d, want 1", first.NewVisitorReminders)
	}
	if second.NewVisitorReminders != 0 || second.Skipped != 1 {
		t.Fatalf("second pass = %+v, want 0 reminders and 1 skipped", second)
	}
	if total := len(f.notifier.CallsOfType(domain.NotificationFollowUpReminder)); total != 1 {
		t.Fatalf("total reminders emitted = %d, want 1", total)
	}
}

func TestRunReminderPassEmitsWhenGuardUnavailable(t *testing.T) {
	f := newReminderFixture()
	f.seedAwaiting("p-waiting", 5)
	f.guard.AcquireError = errors.New("redis down")

	report, err := f.svc.RunReminderPass(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.NewVisitorReminders != 1 {
		t.Fatalf("guard failure must not block reminders, report = %+v", report)
	}
}

func TestRunReminderPassHonorsSettings(t *testing.T) {
	f := newReminderFixture()
	f.settings.Ints["reminder_days_new"] = 10
	f.seedAwaiting("p-waiting", 5) // within a 10 day window now

	report, err := f.svc.RunReminderPass(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.NewVisitorReminders != 0 {
		t.Fatalf("expected no reminder inside the configured window, got %+v", report)
	}
}

func TestRunReminderPassSkipsVisitedPersons(t *testing.T) {
	f := newReminderFixture()
	f.seedAwaiting("p-visited", 6)
	f.persons.MarkHasFollowUp("p-visited")
	f.followUps.SeedFollowUp(domain.FollowUp{
		PersonID:        "p-visited",
		MentorID:        "m-1",
		InteractionDate: testNow.AddDate(0, 0, -1),
		Outcome:         domain.OutcomePositive,
	})

	report, err := f.svc.RunReminderPass(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.NewVisitorReminders != 0 || report.OverdueReminders != 0 {
		t.Fatalf("recently visited person must not be reminded, got %+v", report)
	}
}

func TestRunReminderPassCountsFailedEmissions(t *testing.T) {
	f := newReminderFixture()
	f.seedAwaiting("p-waiting", 5)
	f.notifier.FollowUpReminderError = errors.New("outbox write failed")

	report, err := f.svc.RunReminderPass(context.Background())
	if err != nil {
		t.Fatalf("pass must not fail on a single emission error: %v", err)
	}
	if report.NewVisitorReminders != 0 {
		t.Fatalf("failed emission must not be counted, got %+v", report)
	}
}

func TestReminderGuardBucketsByDay(t *testing.T) {
	guard := mocks.NewMockReminderGuard()
	day1 := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 1)

	ok, err := guard.Acquire(context.Background(), "p-1", domain.NotificationFollowUpReminder, day1)
	if err != nil || !ok {
		t.Fatalf("first acquire = (%v, %v), want claimed", ok, err)
	}
	ok, _ = guard.Acquire(context.Background(), "p-1", domain.NotificationFollowUpReminder, day1)
	if ok {
		t.Fatalf("same day acquire must be refused")
	}
	ok, _ = guard.Acquire(context.Background(), "p-1", domain.NotificationFollowUpReminder, day2)
	if !ok {
		t.Fatalf("next day acquire must succeed")
	}
	ok, _ = guard.Acquire(context.Background(), "p-1", domain.NotificationOverdueVisit, day1)
	if !ok {
		t.Fatalf("different reminder type must not collide")
	}
}
