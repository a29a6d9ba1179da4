package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/LycorisBlue/backend-ruachconnect/internal/core/domain"
	"github.com/LycorisBlue/backend-ruachconnect/internal/core/ports"
)

// EventNotificationCreated is the outbox event_type the relay publishes.
const EventNotificationCreated = "notification_created"

type NotificationRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

var _ ports.NotificationRepository = (*NotificationRepository)(nil)

func NewNotificationRepository(db *sql.DB, logger *zap.Logger) *NotificationRepository {
	return &NotificationRepository{db: db, logger: logger}
}

// Create writes the notification and its outbox event in one transaction and
// pings the relay through pg_notify. The relay also sweeps unprocessed rows
// periodically, so a lost NOTIFY only delays delivery.
func (r *NotificationRepository) Create(ctx context.Context, n *domain.Notification, outboxPayload []byte) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin notification tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO notifications (id, user_id, person_id, type, title, message, action_url, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		n.ID, n.UserID, n.PersonID, string(n.Type), n.Title, n.Message,
		nullString(n.ActionURL), n.IsRead, n.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}

	eventID := uuid.NewString()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO outbox_events (id, event_type, payload, created_at)
		VALUES ($1, $2, $3, $4)`,
		eventID, EventNotificationCreated, outboxPayload, n.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert outbox event: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `SELECT pg_notify('outbox_channel', $1)`, eventID); err != nil {
		return fmt.Errorf("notify outbox channel: %w", err)
	}

	return tx.Commit()
}

func (r *NotificationRepository) ListForUser(ctx context.Context, userID string, onlyUnread bool, limit, offset int) ([]domain.Notification, error) {
	query := `
		SELECT id, user_id, person_id, type, title, message, action_url, is_read, created_at
		FROM notifications
		WHERE user_id = $1`
	if onlyUnread {
		query += ` AND NOT is_read`
	}
	query += ` ORDER BY created_at DESC LIMIT $2 OFFSET $3`

	rows, err := r.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("select notifications: %w", err)
	}
	defer rows.Close()

	var notifications []domain.Notification
	for rows.Next() {
		var (
			n         domain.Notification
			personID  sql.NullString
			typ       string
			actionURL sql.NullString
		)
		if err := rows.Scan(&n.ID, &n.UserID, &personID, &typ, &n.Title,
			&n.Message, &actionURL, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		if personID.Valid {
			p := personID.String
			n.PersonID = &p
		}
		n.Type = domain.NotificationType(typ)
		n.ActionURL = actionURL.String
		notifications = append(notifications, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return notifications, nil
}

func (r *NotificationRepository) CountUnread(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND NOT is_read`,
		userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return count, nil
}

func (r *NotificationRepository) MarkRead(ctx context.Context, notificationID, userID string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE id = $1 AND user_id = $2`,
		notificationID, userID)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("notification %s for user %s: %w", notificationID, userID, domain.ErrNotFound)
	}
	return nil
}
