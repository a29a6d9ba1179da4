package domain

import "time"

type InteractionType string

const (
	InteractionVisit   InteractionType = "visit"
	InteractionCall    InteractionType = "call"
	InteractionMeeting InteractionType = "meeting"
	InteractionOther   InteractionType = "other"
)

func (t InteractionType) Valid() bool {
	switch t {
	case InteractionVisit, InteractionCall, InteractionMeeting, InteractionOther:
		return true
	}
	return false
}

type Outcome string

const (
	OutcomePositive  Outcome = "positive"
	OutcomeNeutral   Outcome = "neutral"
	OutcomeNegative  Outcome = "negative"
	OutcomeNoContact Outcome = "no_contact"
)

func (o Outcome) Valid() bool {
	switch o {
	case OutcomePositive, OutcomeNeutral, OutcomeNegative, OutcomeNoContact:
		return true
	}
	return false
}

// FollowUp is one recorded interaction between a mentor and a person.
// Follow-ups are append-only; "latest" means highest InteractionDate, ties
// broken by creation order.
type FollowUp struct {
	ID               string          `json:"id"`
	PersonID         string          `json:"person_id"`
	MentorID         string          `json:"mentor_id"`
	InteractionType  InteractionType `json:"interaction_type"`
	InteractionDate  time.Time       `json:"interaction_date"`
	Notes            string          `json:"notes,omitempty"`
	Outcome          Outcome         `json:"outcome"`
	NextActionNeeded bool            `json:"next_action_needed"`
	NextActionDate   *time.Time      `json:"next_action_date,omitempty"`
	NextActionNotes  string          `json:"next_action_notes,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
}

// OverdueEntry is one person flagged by the overdue scan, with enough context
// for a mentor-facing reminder.
type OverdueEntry struct {
	Person               Person     `json:"person"`
	Mentor               Mentor     `json:"mentor"`
	DaysSinceLastContact int        `json:"days_since_last_contact"`
	LastInteractionDate  *time.Time `json:"last_interaction_date,omitempty"`
	LastOutcome          *Outcome   `json:"last_outcome,omitempty"`
}
