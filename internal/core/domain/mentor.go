package domain

// Mentor is a user account responsible for following up with assigned
// visitors. Caseload is always derived from person records at query time;
// it is never stored as a counter.
type Mentor struct {
	ID            string `json:"id"`
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	Email         string `json:"email"`
	Phone         string `json:"phone,omitempty"`
	ChurchSection string `json:"church_section,omitempty"`
	IsActive      bool   `json:"is_active"`
	Caseload      int    `json:"caseload"`
}

func (m *Mentor) DisplayName() string {
	return m.FirstName + " " + m.LastName
}
