package models

import "time"

// Teacher represents an instructor record with workload preferences used by
// the conflict analyzer and burnout scoring.
type Teacher struct {
	ID                   string    `db:"id" json:"id"`
	EmployeeID           *string   `db:"employee_id" json:"employee_id,omitempty"`
	FirstName            string    `db:"first_name" json:"first_name"`
	LastName             string    `db:"last_name" json:"last_name"`
	Department           string    `db:"department" json:"department"`
	Qualifications       *string   `db:"qualifications" json:"qualifications,omitempty"`
	MaxPeriodsPerDay     int       `db:"max_periods_per_day" json:"max_periods_per_day"`
	MaxConsecutive       int       `db:"max_consecutive" json:"max_consecutive"`
	PreferredBreakMins   int       `db:"preferred_break_mins" json:"preferred_break_mins"`
	Active               bool      `db:"active" json:"active"`
	CreatedAt            time.Time `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time `db:"updated_at" json:"updated_at"`
}

// FullName renders display name as "First Last".
func (t *Teacher) FullName() string {
	if t == nil {
		return ""
	}
	return t.FirstName + " " + t.LastName
}
