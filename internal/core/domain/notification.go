package domain

import "time"

type NotificationType string

const (
	NotificationNewAssignment    NotificationType = "new_assignment"
	NotificationFollowUpReminder NotificationType = "follow_up_reminder"
	NotificationOverdueVisit     NotificationType = "overdue_visit"
	NotificationStatusChange     NotificationType = "status_change"
)

// Notification is a system-generated message to one user. IsRead only moves
// from false to true; nothing in the backend resets it.
type Notification struct {
	ID        string           `json:"id"`
	UserID    string           `json:"user_id"`
	PersonID  *string          `json:"person_id,omitempty"`
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	ActionURL string           `json:"action_url,omitempty"`
	IsRead    bool             `json:"is_read"`
	CreatedAt time.Time        `json:"created_at"`
}
