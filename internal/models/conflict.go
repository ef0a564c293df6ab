package models

import "time"

// Conflict severities, most severe first.
const (
	SeverityCritical = "CRITICAL"
	SeverityHigh     = "HIGH"
	SeverityMedium   = "MEDIUM"
	SeverityLow      = "LOW"
)

// Conflict categories.
const (
	ConflictTeacherDoubleBooked = "TEACHER_DOUBLE_BOOKED"
	ConflictRoomDoubleBooked    = "ROOM_DOUBLE_BOOKED"
	ConflictRoomOverCapacity    = "ROOM_OVER_CAPACITY"
	ConflictMissingLab          = "MISSING_LAB"
	ConflictMissingEquipment    = "MISSING_EQUIPMENT"
	ConflictTeacherOverloaded   = "TEACHER_OVERLOADED"
	ConflictTeacherUnqualified  = "TEACHER_UNQUALIFIED"
	ConflictRoomDistance        = "ROOM_DISTANCE"
	ConflictMissingPrep         = "MISSING_PREP_PERIOD"
	ConflictMissingBreak        = "MISSING_BREAK"
	ConflictMissingLunch        = "MISSING_LUNCH_BREAK"
)

// Conflict is one detected scheduling violation. Hard conflicts make the
// schedule unworkable; soft conflicts degrade its quality.
type Conflict struct {
	ID          string    `json:"id"`
	ScheduleID  string    `json:"schedule_id"`
	Type        string    `json:"type"`
	Severity    string    `json:"severity"`
	Hard        bool      `json:"hard"`
	Description string    `json:"description"`
	SlotIDs     []string  `json:"slot_ids"`
	TeacherID   string    `json:"teacher_id,omitempty"`
	RoomID      string    `json:"room_id,omitempty"`
	CourseID    string    `json:"course_id,omitempty"`
	PenaltyCost int       `json:"penalty_cost"`
	DetectedAt  time.Time `json:"detected_at"`
}

// ConflictAnalysis aggregates one full pass over a schedule.
type ConflictAnalysis struct {
	ScheduleID    string         `json:"schedule_id"`
	Conflicts     []Conflict     `json:"conflicts"`
	TotalCount    int            `json:"total_count"`
	HardCount     int            `json:"hard_count"`
	SoftCount     int            `json:"soft_count"`
	SeverityCount map[string]int `json:"severity_count"`
	TotalPenalty  int            `json:"total_penalty"`
	AnalyzedAt    time.Time      `json:"analyzed_at"`
}

// Workable reports whether the schedule has no hard conflicts.
func (a *ConflictAnalysis) Workable() bool {
	return a != nil && a.HardCount == 0
}

// ConflictResolution is one suggested fix for a conflict, ranked by score.
type ConflictResolution struct {
	ConflictID  string  `json:"conflict_id"`
	Action      string  `json:"action"`
	Description string  `json:"description"`
	SlotID      string  `json:"slot_id,omitempty"`
	TeacherID   string  `json:"teacher_id,omitempty"`
	RoomID      string  `json:"room_id,omitempty"`
	Score       float64 `json:"score"`
}

// Resolution actions.
const (
	ResolutionMoveRoom      = "MOVE_ROOM"
	ResolutionSwapTeacher   = "SWAP_TEACHER"
	ResolutionMovePeriod    = "MOVE_PERIOD"
	ResolutionSplitOverflow = "SPLIT_OVERFLOW"
)
