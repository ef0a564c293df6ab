package models

import "time"

// Assignment methods for lunch wave placement.
const (
	LunchMethodAlphabetical = "ALPHABETICAL"
	LunchMethodBalanced     = "BALANCED"
	LunchMethodManual       = "MANUAL"
)

// ValidLunchMethod reports whether the method is one of the supported
// placement strategies.
func ValidLunchMethod(m string) bool {
	switch m {
	case LunchMethodAlphabetical, LunchMethodBalanced, LunchMethodManual:
		return true
	}
	return false
}

// LunchWave is one seating of the lunch period. CurrentAssignments is a
// denormalized counter maintained under the wave's lock; it never exceeds
// MaxCapacity.
type LunchWave struct {
	ID                    string    `db:"id" json:"id"`
	ScheduleID            string    `db:"schedule_id" json:"schedule_id"`
	Name                  string    `db:"name" json:"name"`
	WaveOrder             int       `db:"wave_order" json:"wave_order"`
	StartTime             string    `db:"start_time" json:"start_time"`
	EndTime               string    `db:"end_time" json:"end_time"`
	MaxCapacity           int       `db:"max_capacity" json:"max_capacity"`
	CurrentAssignments    int       `db:"current_assignments" json:"current_assignments"`
	GradeLevelRestriction *int      `db:"grade_level_restriction" json:"grade_level_restriction,omitempty"`
	IsActive              bool      `db:"is_active" json:"is_active"`
	CreatedAt             time.Time `db:"created_at" json:"created_at"`
	UpdatedAt             time.Time `db:"updated_at" json:"updated_at"`
}

// Full reports whether the wave has no seats left.
func (w *LunchWave) Full() bool {
	return w != nil && w.CurrentAssignments >= w.MaxCapacity
}

// Remaining returns the number of open seats.
func (w *LunchWave) Remaining() int {
	if w == nil {
		return 0
	}
	r := w.MaxCapacity - w.CurrentAssignments
	if r < 0 {
		return 0
	}
	return r
}

// AcceptsGrade reports whether the wave admits the given grade level.
func (w *LunchWave) AcceptsGrade(grade int) bool {
	if w == nil {
		return false
	}
	return w.GradeLevelRestriction == nil || *w.GradeLevelRestriction == grade
}

// StudentLunchAssignment places a student in a wave. Locked assignments are
// never moved by automated rebalancing; ManualOverride marks placements made
// by a person rather than a strategy.
type StudentLunchAssignment struct {
	ID             string    `db:"id" json:"id"`
	WaveID         string    `db:"wave_id" json:"wave_id"`
	StudentID      string    `db:"student_id" json:"student_id"`
	Method         string    `db:"method" json:"method"`
	Locked         bool      `db:"locked" json:"locked"`
	ManualOverride bool      `db:"manual_override" json:"manual_override"`
	AssignedAt     time.Time `db:"assigned_at" json:"assigned_at"`
}

// Movable reports whether rebalancing may relocate this assignment.
func (a *StudentLunchAssignment) Movable() bool {
	return a != nil && !a.Locked && !a.ManualOverride
}

// TeacherLunchAssignment places a teacher in a wave, optionally with a
// supervision duty at a named location.
type TeacherLunchAssignment struct {
	ID                  string    `db:"id" json:"id"`
	WaveID              string    `db:"wave_id" json:"wave_id"`
	TeacherID           string    `db:"teacher_id" json:"teacher_id"`
	SupervisionDuty     bool      `db:"supervision_duty" json:"supervision_duty"`
	SupervisionLocation *string   `db:"supervision_location" json:"supervision_location,omitempty"`
	Locked              bool      `db:"locked" json:"locked"`
	AssignedAt          time.Time `db:"assigned_at" json:"assigned_at"`
}
