package models

import (
	"time"

	"github.com/meridian-sis/scheduler-api/internal/pattern"
)

// RoomAssignment binds a course to a room with a usage pattern. A course may
// hold several active assignments; at most one of them is PRIMARY.
type RoomAssignment struct {
	ID             string                 `db:"id" json:"id"`
	CourseID       string                 `db:"course_id" json:"course_id"`
	RoomID         string                 `db:"room_id" json:"room_id"`
	AssignmentType pattern.AssignmentType `db:"assignment_type" json:"assignment_type"`
	UsagePattern   pattern.UsagePattern   `db:"usage_pattern" json:"usage_pattern"`
	Priority       int                    `db:"priority" json:"priority"`
	Active         bool                   `db:"active" json:"active"`
	Notes          *string                `db:"notes" json:"notes,omitempty"`
	CreatedAt      time.Time              `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time              `db:"updated_at" json:"updated_at"`
}

// Usable reports whether the assignment currently claims room time.
func (a *RoomAssignment) Usable() bool {
	return a != nil && a.Active
}

// Primary reports whether the assignment is the course's main room binding.
func (a *RoomAssignment) Primary() bool {
	return a != nil && a.AssignmentType == pattern.TypePrimary
}
