package domain

type PersonStatus string

const (
	StatusToVisit    PersonStatus = "to_visit"
	StatusInFollowUp PersonStatus = "in_follow_up"
	StatusIntegrated PersonStatus = "integrated"
	StatusToRedirect PersonStatus = "to_redirect"
	StatusLongAbsent PersonStatus = "long_absent"
)

// AllStatuses lists every valid status value, for boundary validation.
var AllStatuses = []PersonStatus{
	StatusToVisit,
	StatusInFollowUp,
	StatusIntegrated,
	StatusToRedirect,
	StatusLongAbsent,
}

// ActiveStatuses are the statuses that count against a mentor's caseload and
// make a person eligible for overdue detection.
var ActiveStatuses = []PersonStatus{StatusToVisit, StatusInFollowUp}

func (s PersonStatus) Valid() bool {
	for _, v := range AllStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// IsActive reports whether a person in this status is still in a mentor's
// working caseload. Integrated, redirected and long-absent visitors are not.
func (s PersonStatus) IsActive() bool {
	return s == StatusToVisit || s == StatusInFollowUp
}

// followUpTransitions is the table of status moves applied automatically when
// an interaction is recorded. Any status not listed here keeps its value.
// Explicit status changes go through PersonService.SetStatus and are allowed
// between any pair of states.
var followUpTransitions = map[PersonStatus]PersonStatus{
	StatusToVisit: StatusInFollowUp,
}

// StatusAfterFollowUp returns the status a person should hold after a new
// follow-up, and whether that differs from the current one.
func StatusAfterFollowUp(current PersonStatus) (PersonStatus, bool) {
	next, ok := followUpTransitions[current]
	if !ok {
		return current, false
	}
	return next, next != current
}
