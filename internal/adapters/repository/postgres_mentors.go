package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/LycorisBlue/backend-ruachconnect/internal/core/domain"
	"github.com/LycorisBlue/backend-ruachconnect/internal/core/ports"
)

type MentorRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

var _ ports.MentorDirectory = (*MentorRepository)(nil)

func NewMentorRepository(db *sql.DB, logger *zap.Logger) *MentorRepository {
	return &MentorRepository{db: db, logger: logger}
}

func (r *MentorRepository) FindByID(ctx context.Context, id string) (*domain.Mentor, error) {
	var (
		m             domain.Mentor
		phone         sql.NullString
		churchSection sql.NullString
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, first_name, last_name, email, phone, church_section, is_active
		FROM users
		WHERE id = $1 AND role = 'mentor'`, id).
		Scan(&m.ID, &m.FirstName, &m.LastName, &m.Email, &phone, &churchSection, &m.IsActive)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("mentor %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("select mentor: %w", err)
	}
	m.Phone = phone.String
	m.ChurchSection = churchSection.String
	return &m, nil
}

// ListActiveWithCaseload derives every caseload in one query instead of
// keeping counters on the user row; only to_visit and in_follow_up persons
// count.
func (r *MentorRepository) ListActiveWithCaseload(ctx context.Context) ([]domain.Mentor, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT u.id, u.first_name, u.last_name, u.email, u.phone, u.church_section, u.is_active,
		       COUNT(p.id) FILTER (WHERE p.status IN ('to_visit', 'in_follow_up')) AS caseload
		FROM users u
		LEFT JOIN persons p ON p.assigned_mentor_id = u.id
		WHERE u.role = 'mentor' AND u.is_active
		GROUP BY u.id, u.first_name, u.last_name, u.email, u.phone, u.church_section, u.is_active
		ORDER BY caseload, u.id`)
	if err != nil {
		return nil, fmt.Errorf("select mentors with caseload: %w", err)
	}
	defer rows.Close()

	var mentors []domain.Mentor
	for rows.Next() {
		var (
			m             domain.Mentor
			phone         sql.NullString
			churchSection sql.NullString
		)
		if err := rows.Scan(&m.ID, &m.FirstName, &m.LastName, &m.Email, &phone,
			&churchSection, &m.IsActive, &m.Caseload); err != nil {
			return nil, fmt.Errorf("scan mentor: %w", err)
		}
		m.Phone = phone.String
		m.ChurchSection = churchSection.String
		mentors = append(mentors, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return mentors, nil
}
