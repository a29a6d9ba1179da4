package domain

import "time"

type Gender string

const (
	GenderMale   Gender = "M"
	GenderFemale Gender = "F"
)

type MaritalStatus string

const (
	MaritalSingle   MaritalStatus = "single"
	MaritalMarried  MaritalStatus = "married"
	MaritalDivorced MaritalStatus = "divorced"
	MaritalWidowed  MaritalStatus = "widowed"
)

// Person is one new visitor tracked from first contact to integration.
// Records are never deleted; the lifecycle only moves Status forward and back.
type Person struct {
	ID                  string         `json:"id"`
	FirstName           string         `json:"first_name"`
	LastName            string         `json:"last_name"`
	Gender              Gender         `json:"gender"`
	DateOfBirth         *time.Time     `json:"date_of_birth,omitempty"`
	Phone               string         `json:"phone,omitempty"`
	Email               string         `json:"email,omitempty"`
	Address             string         `json:"address,omitempty"`
	Commune             string         `json:"commune,omitempty"`
	Quartier            string         `json:"quartier,omitempty"`
	Profession          string         `json:"profession,omitempty"`
	MaritalStatus       MaritalStatus  `json:"marital_status,omitempty"`
	HowHeardAboutChurch string         `json:"how_heard_about_church,omitempty"`
	PrayerRequests      string         `json:"prayer_requests,omitempty"`
	FirstVisitDate      time.Time      `json:"first_visit_date"`
	Status              PersonStatus   `json:"status"`
	AssignedMentorID    *string        `json:"assigned_mentor_id,omitempty"`
	CreatedBy           string         `json:"created_by,omitempty"`
	CreatedAt           time.Time      `json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`
}

// DisplayName is the form used in notification messages.
func (p *Person) DisplayName() string {
	return p.FirstName + " " + p.LastName
}

// CommuneCount is one row of the dashboard's commune breakdown.
type CommuneCount struct {
	Commune string `json:"commune"`
	Count   int    `json:"count"`
}
