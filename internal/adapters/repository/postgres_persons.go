package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/LycorisBlue/backend-ruachconnect/internal/core/domain"
	"github.com/LycorisBlue/backend-ruachconnect/internal/core/ports"
)

const personColumns = `id, first_name, last_name, gender, date_of_birth, phone, email,
	address, commune, quartier, profession, marital_status, how_heard_about_church,
	prayer_requests, first_visit_date, status, assigned_mentor_id, created_by,
	created_at, updated_at`

type PersonRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

var _ ports.PersonRepository = (*PersonRepository)(nil)

func NewPersonRepository(db *sql.DB, logger *zap.Logger) *PersonRepository {
	return &PersonRepository{db: db, logger: logger}
}

func (r *PersonRepository) Create(ctx context.Context, p *domain.Person) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO persons (`+personColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`,
		p.ID, p.FirstName, p.LastName, string(p.Gender), nullTime(p.DateOfBirth),
		nullString(p.Phone), nullString(p.Email), nullString(p.Address),
		nullString(p.Commune), nullString(p.Quartier), nullString(p.Profession),
		nullString(string(p.MaritalStatus)), nullString(p.HowHeardAboutChurch),
		nullString(p.PrayerRequests), p.FirstVisitDate, string(p.Status),
		p.AssignedMentorID, nullString(p.CreatedBy), p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert person: %w", err)
	}
	return nil
}

func (r *PersonRepository) FindByID(ctx context.Context, id string) (*domain.Person, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+personColumns+` FROM persons WHERE id = $1`, id)
	p, err := scanPerson(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("person %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("select person: %w", err)
	}
	return p, nil
}

func (r *PersonRepository) UpdateStatus(ctx context.Context, id string, status domain.PersonStatus, updatedAt time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE persons SET status = $1, updated_at = $2 WHERE id = $3`,
		string(status), updatedAt, id)
	if err != nil {
		return fmt.Errorf("update person status: %w", err)
	}
	return requireOneRow(res, id)
}

func (r *PersonRepository) UpdateMentor(ctx context.Context, id, mentorID string, updatedAt time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE persons SET assigned_mentor_id = $1, updated_at = $2 WHERE id = $3`,
		mentorID, updatedAt, id)
	if err != nil {
		return fmt.Errorf("update person mentor: %w", err)
	}
	return requireOneRow(res, id)
}

// List pages through the register, newest intake first. The WHERE clause is
// assembled from the filter; the same clause drives the total count so the
// pagination envelope stays consistent with the page.
func (r *PersonRepository) List(ctx context.Context, filter ports.PersonListFilter, limit, offset int) ([]domain.Person, int, error) {
	var (
		conditions []string
		args       []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Status != nil {
		conditions = append(conditions, "status = "+arg(string(*filter.Status)))
	}
	if filter.MentorID != "" {
		conditions = append(conditions, "assigned_mentor_id = "+arg(filter.MentorID))
	}
	if filter.Commune != "" {
		conditions = append(conditions, "commune ILIKE '%' || "+arg(filter.Commune)+" || '%'")
	}
	if filter.Search != "" {
		p := arg(filter.Search)
		conditions = append(conditions,
			"(first_name ILIKE '%' || "+p+" || '%' OR last_name ILIKE '%' || "+p+" || '%')")
	}
	if filter.From != nil {
		conditions = append(conditions, "first_visit_date >= "+arg(*filter.From))
	}
	if filter.To != nil {
		conditions = append(conditions, "first_visit_date <= "+arg(*filter.To))
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM persons`+where, args...).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count persons: %w", err)
	}

	query := `SELECT ` + personColumns + ` FROM persons` + where +
		` ORDER BY created_at DESC, id LIMIT ` + arg(limit) + ` OFFSET ` + arg(offset)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("select persons: %w", err)
	}
	defer rows.Close()

	persons, err := collectPersons(rows)
	if err != nil {
		return nil, 0, err
	}
	return persons, total, nil
}

func (r *PersonRepository) CountByStatus(ctx context.Context) (map[domain.PersonStatus]int, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM persons GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("count persons by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.PersonStatus]int)
	for rows.Next() {
		var (
			status string
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan status count: %w", err)
		}
		counts[domain.PersonStatus(status)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return counts, nil
}

func (r *PersonRepository) CountFirstVisitsBetween(ctx context.Context, from, to time.Time) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM persons
		WHERE first_visit_date >= $1 AND first_visit_date <= $2`,
		from, to).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count first visits: %w", err)
	}
	return count, nil
}

func (r *PersonRepository) CountByCommune(ctx context.Context, limit int) ([]domain.CommuneCount, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT commune, COUNT(*) AS count
		FROM persons
		WHERE commune IS NOT NULL AND commune <> ''
		GROUP BY commune
		ORDER BY count DESC, commune
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("count persons by commune: %w", err)
	}
	defer rows.Close()

	var counts []domain.CommuneCount
	for rows.Next() {
		var c domain.CommuneCount
		if err := rows.Scan(&c.Commune, &c.Count); err != nil {
			return nil, fmt.Errorf("scan commune count: %w", err)
		}
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return counts, nil
}

func (r *PersonRepository) FindActiveAssigned(ctx context.Context) ([]domain.Person, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+personColumns+`
		FROM persons
		WHERE status IN ('to_visit', 'in_follow_up')
		  AND assigned_mentor_id IS NOT NULL
		ORDER BY first_visit_date, id`)
	if err != nil {
		return nil, fmt.Errorf("select active assigned persons: %w", err)
	}
	defer rows.Close()
	return collectPersons(rows)
}

func (r *PersonRepository) FindAwaitingFirstVisit(ctx context.Context, cutoff time.Time) ([]domain.Person, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+personColumns+`
		FROM persons p
		WHERE p.status = 'to_visit'
		  AND p.assigned_mentor_id IS NOT NULL
		  AND p.created_at <= $1
		  AND NOT EXISTS (SELECT 1 FROM follow_ups f WHERE f.person_id = p.id)
		ORDER BY p.created_at, p.id`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("select persons awaiting first visit: %w", err)
	}
	defer rows.Close()
	return collectPersons(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPerson(row rowScanner) (*domain.Person, error) {
	var (
		p             domain.Person
		gender        string
		status        string
		dateOfBirth   sql.NullTime
		phone         sql.NullString
		email         sql.NullString
		address       sql.NullString
		commune       sql.NullString
		quartier      sql.NullString
		profession    sql.NullString
		maritalStatus sql.NullString
		howHeard      sql.NullString
		prayer        sql.NullString
		mentorID      sql.NullString
		createdBy     sql.NullString
	)
	err := row.Scan(
		&p.ID, &p.FirstName, &p.LastName, &gender, &dateOfBirth, &phone, &email,
		&address, &commune, &quartier, &profession, &maritalStatus, &howHeard,
		&prayer, &p.FirstVisitDate, &status, &mentorID, &createdBy,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.Gender = domain.Gender(gender)
	p.Status = domain.PersonStatus(status)
	if dateOfBirth.Valid {
		d := dateOfBirth.Time
		p.DateOfBirth = &d
	}
	p.Phone = phone.String
	p.Email = email.String
	p.Address = address.String
	p.Commune = commune.String
	p.Quartier = quartier.String
	p.Profession = profession.String
	p.MaritalStatus = domain.MaritalStatus(maritalStatus.String)
	p.HowHeardAboutChurch = howHeard.String
	p.PrayerRequests = prayer.String
	if mentorID.Valid {
		m := mentorID.String
		p.AssignedMentorID = &m
	}
	p.CreatedBy = createdBy.String
	return &p, nil
}

func collectPersons(rows *sql.Rows) ([]domain.Person, error) {
	var persons []domain.Person
	for rows.Next() {
		p, err := scanPerson(rows)
		if err != nil {
			return nil, fmt.Errorf("scan person: %w", err)
		}
		persons = append(persons, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return persons, nil
}

func requireOneRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("person %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
