package domain

import "time"

type Role string

const (
	RoleCanCommittee Role = "can_committee"
	RoleMentor       Role = "mentor"
	RolePastor       Role = "pastor"
	RoleAdmin        Role = "admin"
)

// User is any authenticated account: welcome committee members record
// visitors, mentors handle follow-ups, pastors and admins see everything.
type User struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	Role          Role      `json:"role"`
	FirstName     string    `json:"first_name"`
	LastName      string    `json:"last_name"`
	Phone         string    `json:"phone,omitempty"`
	ChurchSection string    `json:"church_section,omitempty"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
}
