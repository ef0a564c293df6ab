package models

import (
	"fmt"

	appErrors "github.com/meridian-sis/scheduler-api/pkg/errors"
)

// ConstraintWeightSet orders scheduling constraints by penalty weight.
// Weights must be strictly descending from hardest to softest so that no two
// constraint classes ever tie; scoring and resolution ranking rely on that.
type ConstraintWeightSet struct {
	TeacherConflict      int `json:"teacher_conflict"`
	RoomConflict         int `json:"room_conflict"`
	Capacity             int `json:"capacity"`
	WorkloadBalance      int `json:"workload_balance"`
	TeacherQualification int `json:"teacher_qualification"`
	StudentPreference    int `json:"student_preference"`
}

// DefaultWeights returns the stock weight ordering.
func DefaultWeights() ConstraintWeightSet {
	return ConstraintWeightSet{
		TeacherConflict:      100,
		RoomConflict:         90,
		Capacity:             80,
		WorkloadBalance:      60,
		TeacherQualification: 50,
		StudentPreference:    30,
	}
}

// Validate checks the strict descending order and that every weight is
// positive.
func (w ConstraintWeightSet) Validate() error {
	ordered := []struct {
		name   string
		weight int
	}{
		{"teacher_conflict", w.TeacherConflict},
		{"room_conflict", w.RoomConflict},
		{"capacity", w.Capacity},
		{"workload_balance", w.WorkloadBalance},
		{"teacher_qualification", w.TeacherQualification},
		{"student_preference", w.StudentPreference},
	}
	for i, entry := range ordered {
		if entry.weight <= 0 {
			return appErrors.Clone(appErrors.ErrConfiguration,
				fmt.Sprintf("constraint weight %s must be positive, got %d", entry.name, entry.weight))
		}
		if i > 0 && entry.weight >= ordered[i-1].weight {
			return appErrors.Clone(appErrors.ErrConfiguration,
				fmt.Sprintf("constraint weight %s (%d) must be strictly below %s (%d)",
					entry.name, entry.weight, ordered[i-1].name, ordered[i-1].weight))
		}
	}
	return nil
}
