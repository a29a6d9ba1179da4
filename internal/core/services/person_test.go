package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/LycorisBlue/backend-ruachconnect/internal/core/domain"
	"github.com/LycorisBlue/backend-ruachconnect/internal/core/ports"
	"github.com/LycorisBlue/backend-ruachconnect/internal/core/services"
	"github.com/LycorisBlue/backend-ruachconnect/test/mocks"
)

var testNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func intakeInput() ports.CreatePersonInput {
	return ports.CreatePersonInput{
		FirstName:      "awa",
		LastName:       "traoré",
		Gender:         domain.GenderFemale,
		Phone:          "+225 07 08 09 10",
		Email:          " Awa.Traore@Example.COM ",
		FirstVisitDate: testNow.AddDate(0, 0, -1),
	}
}

func newPersonService(
	persons *mocks.MockPersonRepository,
	mentors *mocks.MockMentorDirectory,
	settings *mocks.MockSettingsStore,
	notifier *mocks.MockNotifier,
) *services.PersonService {
	clock := mocks.FixedClock{Time: testNow}
	assigner := services.NewAssignmentService(persons, mentors, settings, notifier, clock, zap.NewNop())
	return services.NewPersonService(persons, assigner, settings, notifier, clock, zap.NewNop())
}

func TestCreatePersonAssignsAndNotifies(t *testing.T) {
	persons := mocks.NewMockPersonRepository()
	mentors := mocks.NewMockMentorDirectory(mentor("m-1", 2), mentor("m-2", 6))
	notifier := mocks.NewMockNotifier()
	svc := newPersonService(persons, mentors, mocks.NewMockSettingsStore(), notifier)

	person, err := svc.CreatePerson(context.Background(), intakeInput(), "u-committee")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if person.Status != domain.StatusToVisit {
		t.Errorf("new person status = %q, want to_visit", person.Status)
	}
	if person.AssignedMentorID == nil || *person.AssignedMentorID != "m-1" {
		t.Fatalf("expected least-loaded mentor m-1, got %+v", person.AssignedMentorID)
	}
	if person.CreatedBy != "u-committee" {
		t.Errorf("CreatedBy = %q, want u-committee", person.CreatedBy)
	}

	calls := notifier.CallsOfType(domain.NotificationNewAssignment)
	if len(calls) != 1 || calls[0].MentorID != "m-1" {
		t.Fatalf("expected one assignment notification to m-1, got %+v", calls)
	}
}

func TestCreatePersonNormalizesContactFields(t *testing.T) {
	persons := mocks.NewMockPersonRepository()
	svc := newPersonService(persons, mocks.NewMockMentorDirectory(), mocks.NewMockSettingsStore(), mocks.NewMockNotifier())

	input := intakeInput()
	input.FirstName = "jean-marc"
	input.LastName = "KOUASSI"

	person, err := svc.CreatePerson(context.Background(), input, "u-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if person.FirstName != "Jean-Marc" {
		t.Errorf("FirstName = %q, want Jean-Marc", person.FirstName)
	}
	if person.LastName != "Kouassi" {
		t.Errorf("LastName = %q, want Kouassi", person.LastName)
	}
	if person.Phone != "+22507080910" {
		t.Errorf("Phone = %q, want +22507080910", person.Phone)
	}
	if person.Email != "awa.traore@example.com" {
		t.Errorf("Email = %q, want awa.traore@example.com", person.Email)
	}
}

func TestCreatePersonAllMentorsFull(t *testing.T) {
	settings := mocks.NewMockSettingsStore()
	settings.Ints["max_persons_per_mentor"] = 2
	persons := mocks.NewMockPersonRepository()
	mentors := mocks.NewMockMentorDirectory(mentor("m-1", 2), mentor("m-2", 2))
	notifier := mocks.NewMockNotifier()
	svc := newPersonService(persons, mentors, settings, notifier)

	person, err := svc.CreatePerson(context.Background(), intakeInput(), "u-1")
	if err != nil {
		t.Fatalf("intake must succeed with all mentors full, got %v", err)
	}
	if person.AssignedMentorID != nil {
		t.Fatalf("expected unassigned person, got mentor %s", *person.AssignedMentorID)
	}
	if len(notifier.Calls) != 0 {
		t.Fatalf("expected no notification for unassigned intake, got %+v", notifier.Calls)
	}
}

func TestCreatePersonAutoAssignmentDisabled(t *testing.T) {
	settings := mocks.NewMockSettingsStore()
	settings.Bools["auto_assignment_enabled"] = false
	persons := mocks.NewMockPersonRepository()
	mentors := mocks.NewMockMentorDirectory(mentor("m-1", 0))
	svc := newPersonService(persons, mentors, settings, mocks.NewMockNotifier())

	person, err := svc.CreatePerson(context.Background(), intakeInput(), "u-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if person.AssignedMentorID != nil {
		t.Fatalf("expected no assignment when auto assignment is off")
	}
}

func TestCreatePersonSucceedsWhenNotificationFails(t *testing.T) {
	persons := mocks.NewMockPersonRepository()
	mentors := mocks.NewMockMentorDirectory(mentor("m-1", 0))
	notifier := mocks.NewMockNotifier()
	notifier.NewAssignmentError = errors.New("broker down")
	svc := newPersonService(persons, mentors, mocks.NewMockSettingsStore(), notifier)

	person, err := svc.CreatePerson(context.Background(), intakeInput(), "u-1")
	if err != nil {
		t.Fatalf("intake must not fail on notification error, got %v", err)
	}
	if person.AssignedMentorID == nil {
		t.Fatalf("expected assignment to stick despite notification failure")
	}
	if len(persons.CreateCalls) != 1 {
		t.Fatalf("expected one persisted person, got %d", len(persons.CreateCalls))
	}
}

func TestListPersonsPaginates(t *testing.T) {
	persons := mocks.NewMockPersonRepository()
	for i, id := range []string{"p-1", "p-2", "p-3"} {
		persons.SeedPerson(&domain.Person{
			ID:             id,
			Status:         domain.StatusToVisit,
			FirstVisitDate: testNow.AddDate(0, 0, -i),
			CreatedAt:      testNow.AddDate(0, 0, -i),
		})
	}
	svc := newPersonService(persons, mocks.NewMockMentorDirectory(), mocks.NewMockSettingsStore(), mocks.NewMockNotifier())

	page, pagination, err := svc.ListPersons(context.Background(), ports.PersonListFilter{}, 2, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(page) != 1 || page[0].ID != "p-3" {
		t.Fatalf("second page = %+v, want only the oldest intake p-3", page)
	}
	if pagination.TotalItems != 3 || pagination.TotalPages != 2 {
		t.Errorf("pagination = %+v", pagination)
	}
	if pagination.HasNext || !pagination.HasPrev {
		t.Errorf("page flags = %+v, want last page", pagination)
	}
}

func TestListPersonsNormalizesPagination(t *testing.T) {
	persons := mocks.NewMockPersonRepository()
	svc := newPersonService(persons, mocks.NewMockMentorDirectory(), mocks.NewMockSettingsStore(), mocks.NewMockNotifier())

	_, pagination, err := svc.ListPersons(context.Background(), ports.PersonListFilter{}, 0, 500)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pagination.CurrentPage != 1 || pagination.PerPage != 100 {
		t.Errorf("normalized pagination = %+v, want page 1 with 100 per page", pagination)
	}
}

func TestListPersonsForwardsFilter(t *testing.T) {
	persons := mocks.NewMockPersonRepository()
	svc := newPersonService(persons, mocks.NewMockMentorDirectory(), mocks.NewMockSettingsStore(), mocks.NewMockNotifier())

	status := domain.StatusInFollowUp
	if _, _, err := svc.ListPersons(context.Background(), ports.PersonListFilter{
		Status:   &status,
		MentorID: "m-1",
	}, 1, 20); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(persons.ListCalls) != 1 {
		t.Fatalf("expected one List call, got %d", len(persons.ListCalls))
	}
	got := persons.ListCalls[0]
	if got.Status == nil || *got.Status != domain.StatusInFollowUp || got.MentorID != "m-1" {
		t.Errorf("forwarded filter = %+v", got)
	}
}

func TestSetStatusNotifiesAssignedMentor(t *testing.T) {
	persons := mocks.NewMockPersonRepository()
	mentorID := "m-1"
	persons.SeedPerson(&domain.Person{
		ID:               "p-1",
		FirstName:        "Awa",
		LastName:         "Traoré",
		Status:           domain.StatusInFollowUp,
		AssignedMentorID: &mentorID,
	})
	notifier := mocks.NewMockNotifier()
	svc := newPersonService(persons, mocks.NewMockMentorDirectory(), mocks.NewMockSettingsStore(), notifier)

	person, err := svc.SetStatus(context.Background(), "p-1", domain.StatusIntegrated)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if person.Status != domain.StatusIntegrated {
		t.Errorf("Status = %q, want integrated", person.Status)
	}
	if !person.UpdatedAt.Equal(testNow) {
		t.Errorf("UpdatedAt = %v, want %v", person.UpdatedAt, testNow)
	}

	calls := notifier.CallsOfType(domain.NotificationStatusChange)
	if len(calls) != 1 || calls[0].MentorID != "m-1" || calls[0].Status != domain.StatusIntegrated {
		t.Fatalf("expected status change notification to m-1, got %+v", calls)
	}
}

func TestSetStatusSameStatusIsIdempotent(t *testing.T) {
	persons := mocks.NewMockPersonRepository()
	mentorID := "m-1"
	persons.SeedPerson(&domain.Person{
		ID:               "p-1",
		Status:           domain.StatusInFollowUp,
		AssignedMentorID: &mentorID,
	})
	notifier := mocks.NewMockNotifier()
	svc := newPersonService(persons, mocks.NewMockMentorDirectory(), mocks.NewMockSettingsStore(), notifier)

	person, err := svc.SetStatus(context.Background(), "p-1", domain.StatusInFollowUp)
	if err != nil {
		t.Fatalf("setting the current status must succeed, got %v", err)
	}
	if person.Status != domain.StatusInFollowUp {
		t.Errorf("Status = %q, want in_follow_up", person.Status)
	}
	// The mentor is still told, matching explicit status change semantics.
	if len(notifier.CallsOfType(domain.NotificationStatusChange)) != 1 {
		t.Fatalf("expected one status change notification")
	}
}

func TestSetStatusUnassignedPersonSkipsNotification(t *testing.T) {
	persons := mocks.NewMockPersonRepository()
	persons.SeedPerson(&domain.Person{ID: "p-1", Status: domain.StatusToVisit})
	notifier := mocks.NewMockNotifier()
	svc := newPersonService(persons, mocks.NewMockMentorDirectory(), mocks.NewMockSettingsStore(), notifier)

	if _, err := svc.SetStatus(context.Background(), "p-1", domain.StatusLongAbsent); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(notifier.Calls) != 0 {
		t.Fatalf("expected no notification without an assigned mentor, got %+v", notifier.Calls)
	}
}

func TestSetStatusUnknownPerson(t *testing.T) {
	svc := newPersonService(mocks.NewMockPersonRepository(), mocks.NewMockMentorDirectory(), mocks.NewMockSettingsStore(), mocks.NewMockNotifier())

	_, err := svc.SetStatus(context.Background(), "missing", domain.StatusIntegrated)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
