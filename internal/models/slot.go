package models

import "time"

// Day type tags for alternating-day schedules.
const (
	DayTypeAll  = "ALL"
	DayTypeADay = "A_DAY"
	DayTypeBDay = "B_DAY"
)

// ScheduleSlot is a single period occurrence of a course. Teacher and room are
// mutable through the override service; pin fields exclude the slot from
// automated reassignment.
type ScheduleSlot struct {
	ID           string     `db:"id" json:"id"`
	ScheduleID   string     `db:"schedule_id" json:"schedule_id"`
	CourseID     string     `db:"course_id" json:"course_id"`
	TeacherID    string     `db:"teacher_id" json:"teacher_id"`
	RoomID       string     `db:"room_id" json:"room_id"`
	PeriodNumber int        `db:"period_number" json:"period_number"`
	DayType      string     `db:"day_type" json:"day_type"`
	PinnedBy     *string    `db:"pinned_by" json:"pinned_by,omitempty"`
	PinnedAt     *time.Time `db:"pinned_at" json:"pinned_at,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// Pinned reports whether the slot is excluded from automated changes.
func (s *ScheduleSlot) Pinned() bool {
	return s != nil && s.PinnedBy != nil && *s.PinnedBy != ""
}

// ValidDayType reports whether the tag is a member of the closed day set.
func ValidDayType(d string) bool {
	switch d {
	case DayTypeAll, DayTypeADay, DayTypeBDay:
		return true
	}
	return false
}

// SameDay reports whether two day-type tags can occur on the same day.
// ALL coincides with both alternating tags.
func SameDay(a, b string) bool {
	if a == DayTypeAll || b == DayTypeAll {
		return true
	}
	return a == b
}
