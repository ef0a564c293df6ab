package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/meridian-sis/scheduler-api/internal/models"
	appErrors "github.com/meridian-sis/scheduler-api/pkg/errors"
)

// Resolutions proposes ranked fixes for one detected conflict. Suggestions
// are ordered by descending score; ties break on ascending resource ID so
// repeated calls rank identically.
func (s *ConflictService) Resolutions(ctx context.Context, scheduleID, conflictID string) ([]models.ConflictResolution, error) {
	analysis, err := s.Analyze(ctx, scheduleID)
	if err != nil {
		return nil, err
	}

	var conflict *models.Conflict
	for i := range analysis.Conflicts {
		if analysis.Conflicts[i].ID == conflictID {
			conflict = &analysis.Conflicts[i]
			break
		}
	}
	if conflict == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "conflict not found in current analysis")
	}

	var resolutions []models.ConflictResolution
	switch conflict.Type {
	case models.ConflictRoomDoubleBooked, models.ConflictRoomOverCapacity, models.ConflictMissingLab, models.ConflictMissingEquipment:
		resolutions, err = s.roomMoveResolutions(ctx, conflict)
	case models.ConflictTeacherDoubleBooked, models.ConflictTeacherOverloaded:
		resolutions, err = s.teacherSwapResolutions(ctx, conflict)
	default:
		resolutions = nil
	}
	if err != nil {
		return nil, err
	}

	sort.Slice(resolutions, func(i, j int) bool {
		if resolutions[i].Score != resolutions[j].Score {
			return resolutions[i].Score > resolutions[j].Score
		}
		if resolutions[i].RoomID != resolutions[j].RoomID {
			return resolutions[i].RoomID < resolutions[j].RoomID
		}
		return resolutions[i].TeacherID < resolutions[j].TeacherID
	})
	if len(resolutions) > 5 {
		resolutions = resolutions[:5]
	}
	return resolutions, nil
}

// roomMoveResolutions suggests alternative rooms for the conflicting slot.
// The tightest seating fit scores highest; equipment and lab requirements are
// respected outright.
func (s *ConflictService) roomMoveResolutions(ctx context.Context, conflict *models.Conflict) ([]models.ConflictResolution, error) {
	if conflict.CourseID == "" && len(conflict.SlotIDs) == 0 {
		return nil, nil
	}

	var course *models.Course
	if conflict.CourseID != "" {
		found, err := s.courses.FindByID(ctx, conflict.CourseID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
		}
		course = found
	}

	rooms, err := s.loadRooms(ctx)
	if err != nil {
		return nil, err
	}

	slotID := ""
	if len(conflict.SlotIDs) > 0 {
		slotID = conflict.SlotIDs[0]
	}

	var out []models.ConflictResolution
	for _, roomID := range sortedRoomKeys(rooms) {
		room := rooms[roomID]
		if roomID == conflict.RoomID {
			continue
		}
		if course != nil {
			if !course.UsesMultipleRooms && room.Capacity < course.Enrollment {
				continue
			}
			if course.RequiresLab && room.RoomType != models.RoomTypeScienceLab && room.RoomType != models.RoomTypeComputer {
				continue
			}
			if course.RequiredEquipment != nil && !roomHasEquipment(room, *course.RequiredEquipment) {
				continue
			}
		}

		score := float64(s.weights.RoomConflict)
		if course != nil && room.Capacity > 0 {
			// Surplus seats dilute the score so tight fits rank first.
			surplus := float64(room.Capacity - course.Enrollment)
			score -= surplus / float64(room.Capacity) * 10
		}
		out = append(out, models.ConflictResolution{
			ConflictID:  conflict.ID,
			Action:      models.ResolutionMoveRoom,
			Description: fmt.Sprintf("move to room %s (%s, seats %d)", room.RoomNumber, room.Building, room.Capacity),
			SlotID:      slotID,
			RoomID:      roomID,
			Score:       score,
		})
	}
	return out, nil
}

// teacherSwapResolutions suggests replacement teachers from the same
// department. Lighter current load scores higher.
func (s *ConflictService) teacherSwapResolutions(ctx context.Context, conflict *models.Conflict) ([]models.ConflictResolution, error) {
	current, err := s.teachers.FindByID(ctx, conflict.TeacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}

	slots, err := s.slots.ListBySchedule(ctx, conflict.ScheduleID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list schedule slots")
	}
	load := make(map[string]int)
	pinned := make(map[string]bool)
	for _, slot := range slots {
		load[slot.TeacherID]++
		if slot.Pinned() {
			pinned[slot.ID] = true
		}
	}

	slotID := ""
	if len(conflict.SlotIDs) > 0 {
		// Prefer freeing an unpinned slot; pinned ones stay put.
		for _, id := range conflict.SlotIDs {
			if !pinned[id] {
				slotID = id
				break
			}
		}
		if slotID == "" {
			return nil, nil
		}
	}

	teachers, err := s.loadTeachers(ctx)
	if err != nil {
		return nil, err
	}

	var out []models.ConflictResolution
	for _, id := range sortedTeacherKeys(teachers) {
		candidate := teachers[id]
		if candidate.ID == conflict.TeacherID || candidate.Department != current.Department {
			continue
		}
		if candidate.MaxPeriodsPerDay > 0 && load[candidate.ID] >= candidate.MaxPeriodsPerDay {
			continue
		}
		score := float64(s.weights.TeacherConflict) - float64(load[candidate.ID])*5
		out = append(out, models.ConflictResolution{
			ConflictID:  conflict.ID,
			Action:      models.ResolutionSwapTeacher,
			Description: fmt.Sprintf("reassign slot to %s (%d current slots)", candidate.FullName(), load[candidate.ID]),
			SlotID:      slotID,
			TeacherID:   candidate.ID,
			Score:       score,
		})
	}
	return out, nil
}

func sortedTeacherKeys(m map[string]models.Teacher) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
