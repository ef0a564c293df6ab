package dto

import "github.com/meridian-sis/scheduler-api/internal/models"

// AssignLunchRequest runs a placement strategy over a schedule's waves.
type AssignLunchRequest struct {
	ScheduleID string `json:"scheduleId" validate:"required"`
	Method     string `json:"method" validate:"required"`
}

// ReassignStudentRequest moves one student to a target wave by hand.
type ReassignStudentRequest struct {
	ScheduleID string `json:"scheduleId" validate:"required"`
	StudentID  string `json:"studentId" validate:"required"`
	WaveID     string `json:"waveId" validate:"required"`
	Lock       bool   `json:"lock"`
}

// ReassignTeacherRequest moves one teacher to a target wave.
type ReassignTeacherRequest struct {
	ScheduleID          string  `json:"scheduleId" validate:"required"`
	TeacherID           string  `json:"teacherId" validate:"required"`
	WaveID              string  `json:"waveId" validate:"required"`
	SupervisionDuty     bool    `json:"supervisionDuty"`
	SupervisionLocation *string `json:"supervisionLocation,omitempty"`
}

// LunchAssignmentSummary reports the outcome of a strategy run.
type LunchAssignmentSummary struct {
	ScheduleID    string             `json:"scheduleId"`
	Method        string             `json:"method"`
	AssignedCount int                `json:"assignedCount"`
	SkippedLocked int                `json:"skippedLocked"`
	UnassignedIDs []string           `json:"unassignedIds,omitempty"`
	WaveOccupancy []WaveOccupancy    `json:"waveOccupancy"`
	Waves         []models.LunchWave `json:"waves,omitempty"`
}

// WaveOccupancy is one wave's fill level after an operation.
type WaveOccupancy struct {
	WaveID    string `json:"waveId"`
	Name      string `json:"name"`
	WaveOrder int    `json:"waveOrder"`
	Assigned  int    `json:"assigned"`
	Capacity  int    `json:"capacity"`
}

// LunchWaveRoster is the full membership of one wave.
type LunchWaveRoster struct {
	Wave     models.LunchWave                `json:"wave"`
	Students []models.StudentLunchAssignment `json:"students"`
	Teachers []models.TeacherLunchAssignment `json:"teachers"`
}

// LunchValidationReport lists integrity problems found in wave assignments.
// Valid is the conjunction of the three per-check flags.
type LunchValidationReport struct {
	ScheduleID           string   `json:"scheduleId"`
	AllAssigned          bool     `json:"allAssigned"`
	CapacitiesRespected  bool     `json:"capacitiesRespected"`
	GradeLevelsRespected bool     `json:"gradeLevelsRespected"`
	Valid                bool     `json:"isValid"`
	Problems             []string `json:"problems,omitempty"`
}

// SupervisionRequest optionally pins a duty location.
type SupervisionRequest struct {
	Location *string `json:"location"`
}
