package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/LycorisBlue/backend-ruachconnect/internal/core/domain"
	"github.com/LycorisBlue/backend-ruachconnect/internal/core/ports"
)

const followUpColumns = `id, person_id, mentor_id, interaction_type, interaction_date,
	notes, outcome, next_action_needed, next_action_date, next_action_notes, created_at`

type FollowUpRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

var _ ports.FollowUpRepository = (*FollowUpRepository)(nil)

func NewFollowUpRepository(db *sql.DB, logger *zap.Logger) *FollowUpRepository {
	return &FollowUpRepository{db: db, logger: logger}
}

func (r *FollowUpRepository) Create(ctx context.Context, f *domain.FollowUp) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO follow_ups (`+followUpColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		f.ID, f.PersonID, f.MentorID, string(f.InteractionType), f.InteractionDate,
		nullString(f.Notes), string(f.Outcome), f.NextActionNeeded,
		nullTime(f.NextActionDate), nullString(f.NextActionNotes), f.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert follow-up: %w", err)
	}
	return nil
}

// List pages through recorded interactions, most recent first, with the total
// match count for the pagination envelope.
func (r *FollowUpRepository) List(ctx context.Context, filter ports.FollowUpListFilter, limit, offset int) ([]domain.FollowUp, int, error) {
	var (
		conditions []string
		args       []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.PersonID != "" {
		conditions = append(conditions, "person_id = "+arg(filter.PersonID))
	}
	if filter.MentorID != "" {
		conditions = append(conditions, "mentor_id = "+arg(filter.MentorID))
	}
	if filter.Outcome != nil {
		conditions = append(conditions, "outcome = "+arg(string(*filter.Outcome)))
	}
	if filter.From != nil {
		conditions = append(conditions, "interaction_date >= "+arg(*filter.From))
	}
	if filter.To != nil {
		conditions = append(conditions, "interaction_date <= "+arg(*filter.To))
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM follow_ups`+where, args...).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count follow-ups: %w", err)
	}

	query := `SELECT ` + followUpColumns + ` FROM follow_ups` + where +
		` ORDER BY interaction_date DESC, created_at DESC LIMIT ` + arg(limit) + ` OFFSET ` + arg(offset)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("select follow-ups: %w", err)
	}
	defer rows.Close()

	var followUps []domain.FollowUp
	for rows.Next() {
		f, err := scanFollowUp(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan follow-up: %w", err)
		}
		followUps = append(followUps, *f)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return followUps, total, nil
}

// LatestForPersons picks the newest follow-up per person; created_at breaks
// ties between interactions recorded for the same date.
func (r *FollowUpRepository) LatestForPersons(ctx context.Context, personIDs []string) (map[string]domain.FollowUp, error) {
	if len(personIDs) == 0 {
		return map[string]domain.FollowUp{}, nil
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT ON (person_id) `+followUpColumns+`
		FROM follow_ups
		WHERE person_id = ANY($1)
		ORDER BY person_id, interaction_date DESC, created_at DESC`,
		pq.Array(personIDs))
	if err != nil {
		return nil, fmt.Errorf("select latest follow-ups: %w", err)
	}
	defer rows.Close()

	latest := make(map[string]domain.FollowUp)
	for rows.Next() {
		f, err := scanFollowUp(rows)
		if err != nil {
			return nil, fmt.Errorf("scan follow-up: %w", err)
		}
		latest[f.PersonID] = *f
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return latest, nil
}

func (r *FollowUpRepository) FindUpcoming(ctx context.Context, mentorID string, from, to time.Time) ([]domain.FollowUp, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+followUpColumns+`
		FROM follow_ups
		WHERE mentor_id = $1
		  AND next_action_needed
		  AND next_action_date >= $2
		  AND next_action_date <= $3
		ORDER BY next_action_date, created_at`,
		mentorID, from, to)
	if err != nil {
		return nil, fmt.Errorf("select upcoming actions: %w", err)
	}
	defer rows.Close()

	var followUps []domain.FollowUp
	for rows.Next() {
		f, err := scanFollowUp(rows)
		if err != nil {
			return nil, fmt.Errorf("scan follow-up: %w", err)
		}
		followUps = append(followUps, *f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return followUps, nil
}

func (r *FollowUpRepository) CountForMentorSince(ctx context.Context, mentorID string, since time.Time) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM follow_ups
		WHERE mentor_id = $1 AND interaction_date >= $2`,
		mentorID, since).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count follow-ups: %w", err)
	}
	return count, nil
}

func scanFollowUp(row rowScanner) (*domain.FollowUp, error) {
	var (
		f               domain.FollowUp
		interactionType string
		outcome         string
		notes           sql.NullString
		nextActionDate  sql.NullTime
		nextActionNotes sql.NullString
	)
	err := row.Scan(
		&f.ID, &f.PersonID, &f.MentorID, &interactionType, &f.InteractionDate,
		&notes, &outcome, &f.NextActionNeeded, &nextActionDate, &nextActionNotes,
		&f.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	f.InteractionType = domain.InteractionType(interactionType)
	f.Outcome = domain.Outcome(outcome)
	f.Notes = notes.String
	if nextActionDate.Valid {
		d := nextActionDate.Time
		f.NextActionDate = &d
	}
	f.NextActionNotes = nextActionNotes.String
	return &f, nil
}
