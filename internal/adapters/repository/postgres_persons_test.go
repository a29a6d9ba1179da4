package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/LycorisBlue/backend-ruachconnect/internal/core/domain"
	"github.com/LycorisBlue/backend-ruachconnect/internal/core/ports"
)

var personRows = []string{
	"id", "first_name", "last_name", "gender", "date_of_birth", "phone", "email",
	"address", "commune", "quartier", "profession", "marital_status", "how_heard_about_church",
	"prayer_requests", "first_visit_date", "status", "assigned_mentor_id", "created_by",
	"created_at", "updated_at",
}

func personRow(id, status string, mentorID any) *sqlmock.Rows {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	return sqlmock.NewRows(personRows).AddRow(
		id, "Awa", "Traoré", "F", nil, "+2250708091011", "awa@example.com",
		nil, "Cocody", nil, nil, "single", nil,
		nil, now.AddDate(0, 0, -3), status, mentorID, "u-1",
		now.AddDate(0, 0, -3), now,
	)
}

func TestPersonFindByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewPersonRepository(db, zap.NewNop())

	mock.ExpectQuery(`SELECT (.+) FROM persons WHERE id = \$1`).
		WithArgs("p-1").
		WillReturnRows(personRow("p-1", "in_follow_up", "m-1"))

	person, err := repo.FindByID(context.Background(), "p-1")
	require.NoError(t, err)
	assert.Equal(t, "p-1", person.ID)
	assert.Equal(t, domain.StatusInFollowUp, person.Status)
	require.NotNil(t, person.AssignedMentorID)
	assert.Equal(t, "m-1", *person.AssignedMentorID)
	assert.Equal(t, domain.GenderFemale, person.Gender)
	assert.Nil(t, person.DateOfBirth)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPersonFindByIDNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewPersonRepository(db, zap.NewNop())

	mock.ExpectQuery(`SELECT (.+) FROM persons WHERE id = \$1`).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(personRows))

	_, err = repo.FindByID(context.Background(), "missing")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPersonCreate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewPersonRepository(db, zap.NewNop())

	mock.ExpectExec(`INSERT INTO persons`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	now := time.Now()
	err = repo.Create(context.Background(), &domain.Person{
		ID:             "p-1",
		FirstName:      "Awa",
		LastName:       "Traoré",
		Gender:         domain.GenderFemale,
		Status:         domain.StatusToVisit,
		FirstVisitDate: now,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPersonUpdateStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewPersonRepository(db, zap.NewNop())

	now := time.Now()
	mock.ExpectExec(`UPDATE persons SET status = \$1, updated_at = \$2 WHERE id = \$3`).
		WithArgs("integrated", now, "p-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.UpdateStatus(context.Background(), "p-1", domain.StatusIntegrated, now)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPersonUpdateStatusNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewPersonRepository(db, zap.NewNop())

	mock.ExpectExec(`UPDATE persons SET status`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = repo.UpdateStatus(context.Background(), "missing", domain.StatusIntegrated, time.Now())
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPersonUpdateMentorNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewPersonRepository(db, zap.NewNop())

	mock.ExpectExec(`UPDATE persons SET assigned_mentor_id`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = repo.UpdateMentor(context.Background(), "missing", "m-1", time.Now())
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPersonList(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewPersonRepository(db, zap.NewNop())

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM persons WHERE status = \$1 AND assigned_mentor_id = \$2`).
		WithArgs("to_visit", "m-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(42))
	mock.ExpectQuery(`FROM persons WHERE status = \$1 AND assigned_mentor_id = \$2 ORDER BY created_at DESC, id LIMIT \$3 OFFSET \$4`).
		WithArgs("to_visit", "m-1", 20, 20).
		WillReturnRows(personRow("p-1", "to_visit", "m-1"))

	status := domain.StatusToVisit
	persons, total, err := repo.List(context.Background(), ports.PersonListFilter{
		Status:   &status,
		MentorID: "m-1",
	}, 20, 20)
	require.NoError(t, err)
	assert.Equal(t, 42, total)
	require.Len(t, persons, 1)
	assert.Equal(t, "p-1", persons[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPersonListUnfiltered(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewPersonRepository(db, zap.NewNop())

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM persons$`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`FROM persons ORDER BY created_at DESC, id LIMIT \$1 OFFSET \$2`).
		WithArgs(20, 0).
		WillReturnRows(sqlmock.NewRows(personRows))

	persons, total, err := repo.List(context.Background(), ports.PersonListFilter{}, 20, 0)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, persons)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPersonListDateRange(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewPersonRepository(db, zap.NewNop())

	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM persons WHERE first_visit_date >= \$1 AND first_visit_date <= \$2`).
		WithArgs(from, to).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(`first_visit_date >= \$1 AND first_visit_date <= \$2 ORDER BY created_at DESC, id LIMIT \$3 OFFSET \$4`).
		WithArgs(from, to, 20, 0).
		WillReturnRows(personRow("p-1", "to_visit", "m-1"))

	_, total, err := repo.List(context.Background(), ports.PersonListFilter{From: &from, To: &to}, 20, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPersonCountByStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewPersonRepository(db, zap.NewNop())

	mock.ExpectQuery(`SELECT status, COUNT\(\*\) FROM persons GROUP BY status`).
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).
			AddRow("to_visit", 3).
			AddRow("integrated", 1))

	counts, err := repo.CountByStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, counts[domain.StatusToVisit])
	assert.Equal(t, 1, counts[domain.StatusIntegrated])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPersonCountByCommune(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewPersonRepository(db, zap.NewNop())

	mock.ExpectQuery(`GROUP BY commune`).
		WithArgs(10).
		WillReturnRows(sqlmock.NewRows([]string{"commune", "count"}).
			AddRow("Cocody", 5).
			AddRow("Yopougon", 2))

	counts, err := repo.CountByCommune(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, counts, 2)
	assert.Equal(t, domain.CommuneCount{Commune: "Cocody", Count: 5}, counts[0])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPersonFindActiveAssigned(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewPersonRepository(db, zap.NewNop())

	rows := personRow("p-1", "to_visit", "m-1")
	mock.ExpectQuery(`WHERE status IN \('to_visit', 'in_follow_up'\)`).
		WillReturnRows(rows)

	persons, err := repo.FindActiveAssigned(context.Background())
	require.NoError(t, err)
	require.Len(t, persons, 1)
	assert.Equal(t, "p-1", persons[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPersonFindAwaitingFirstVisit(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewPersonRepository(db, zap.NewNop())

	cutoff := time.Date(2025, 3, 7, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`NOT EXISTS \(SELECT 1 FROM follow_ups f WHERE f\.person_id = p\.id\)`).
		WithArgs(cutoff).
		WillReturnRows(personRow("p-1", "to_visit", "m-1"))

	persons, err := repo.FindAwaitingFirstVisit(context.Background(), cutoff)
	require.NoError(t, err)
	require.Len(t, persons, 1)
	assert.Equal(t, domain.StatusToVisit, persons[0].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}
