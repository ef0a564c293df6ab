package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/meridian-sis/scheduler-api/internal/dto"
	"github.com/meridian-sis/scheduler-api/internal/models"
	appErrors "github.com/meridian-sis/scheduler-api/pkg/errors"
)

type recommendationSlotReader interface {
	ListBySchedule(ctx context.Context, scheduleID string) ([]models.ScheduleSlot, error)
}

type primaryAssignmentReader interface {
	FindActivePrimary(ctx context.Context, courseID string) (*models.RoomAssignment, error)
}

// RecommendationService scores candidate rooms and teachers for courses and
// slots. Scoring follows the constraint weight ordering so hard concerns
// always dominate preferences.
type RecommendationService struct {
	slots     recommendationSlotReader
	courses   conflictCourseReader
	teachers  conflictTeacherReader
	rooms     conflictRoomReader
	primaries primaryAssignmentReader
	weights   models.ConstraintWeightSet
	logger    *zap.Logger
}

// NewRecommendationService builds a RecommendationService. primaries may be
// nil, in which case OptimalAssignments considers every active course.
func NewRecommendationService(
	slots recommendationSlotReader,
	courses conflictCourseReader,
	teachers conflictTeacherReader,
	rooms conflictRoomReader,
	primaries primaryAssignmentReader,
	weights models.ConstraintWeightSet,
	logger *zap.Logger,
) *RecommendationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecommendationService{
		slots:     slots,
		courses:   courses,
		teachers:  teachers,
		rooms:     rooms,
		primaries: primaries,
		weights:   weights,
		logger:    logger,
	}
}

// RecommendRooms ranks rooms for a course, best first. Rooms that fail a hard
// requirement are excluded rather than down-ranked; a query pinned to a
// schedule's day and period also drops rooms already booked at that time.
func (s *RecommendationService) RecommendRooms(ctx context.Context, query dto.RoomRecommendationQuery) ([]dto.RoomRecommendation, error) {
	if query.CourseID == "" {
		return nil, appErrors.Clone(appErrors.ErrInvalidParameter, "courseId is required")
	}
	if query.Day != "" && !models.ValidDayType(query.Day) {
		return nil, appErrors.Clone(appErrors.ErrInvalidParameter, fmt.Sprintf("unknown day type %q", query.Day))
	}
	if query.Period < 0 {
		return nil, appErrors.Clone(appErrors.ErrInvalidParameter, "period must be positive")
	}
	if (query.Day == "") != (query.Period == 0) {
		return nil, appErrors.Clone(appErrors.ErrInvalidParameter, "day and period go together")
	}
	limit := query.Limit
	if limit <= 0 || limit > 25 {
		limit = 5
	}

	course, err := s.courses.FindByID(ctx, query.CourseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidResource, fmt.Sprintf("course %s not found", query.CourseID))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	occupied := map[string]bool{}
	if query.ScheduleID != "" && query.Day != "" {
		slots, err := s.slots.ListBySchedule(ctx, query.ScheduleID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list schedule slots")
		}
		for _, slot := range slots {
			if slot.PeriodNumber == query.Period && models.SameDay(slot.DayType, query.Day) {
				occupied[slot.RoomID] = true
			}
		}
	}

	rooms, err := s.rooms.ListActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list rooms")
	}

	var out []dto.RoomRecommendation
	for _, room := range rooms {
		if occupied[room.ID] {
			continue
		}
		rec, ok := s.scoreRoom(course, room)
		if !ok {
			continue
		}
		out = append(out, rec)
	}
	sortRoomRecs(out)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *RecommendationService) scoreRoom(course *models.Course, room models.Room) (dto.RoomRecommendation, bool) {
	rec := dto.RoomRecommendation{
		RoomID:     room.ID,
		RoomNumber: room.RoomNumber,
		Building:   room.Building,
		Capacity:   room.Capacity,
	}

	if !course.UsesMultipleRooms && room.Capacity < course.Enrollment {
		return rec, false
	}
	if course.RequiresLab && room.RoomType != models.RoomTypeScienceLab && room.RoomType != models.RoomTypeComputer {
		return rec, false
	}

	score := float64(s.weights.Capacity)
	if room.Capacity > 0 && course.Enrollment > 0 {
		fill := float64(course.Enrollment) / float64(room.Capacity)
		score += fill * float64(s.weights.StudentPreference)
		rec.Reasons = append(rec.Reasons, fmt.Sprintf("seats %d of %d capacity", course.Enrollment, room.Capacity))
	}
	if course.RequiresLab {
		rec.Reasons = append(rec.Reasons, "meets lab requirement")
	}
	if course.RequiredEquipment != nil {
		if roomHasEquipment(room, *course.RequiredEquipment) {
			score += float64(s.weights.StudentPreference) / 2
			rec.Reasons = append(rec.Reasons, fmt.Sprintf("has %s", *course.RequiredEquipment))
		} else {
			score -= float64(s.weights.StudentPreference) / 2
			rec.Warnings = append(rec.Warnings, fmt.Sprintf("lacks %s", *course.RequiredEquipment))
		}
	}

	rec.Score = score
	return rec, true
}

// RecommendTeachers ranks replacement teachers for a slot, best first. The
// slot's current teacher and anyone already booked in that period are
// excluded; a pinned slot takes no recommendations at all.
func (s *RecommendationService) RecommendTeachers(ctx context.Context, scheduleID, slotID string, limit int) ([]dto.TeacherRecommendation, error) {
	if scheduleID == "" || slotID == "" {
		return nil, appErrors.Clone(appErrors.ErrInvalidParameter, "scheduleId and slotId are required")
	}
	if limit <= 0 || limit > 25 {
		limit = 5
	}

	slots, err := s.slots.ListBySchedule(ctx, scheduleID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list schedule slots")
	}

	var target *models.ScheduleSlot
	for i := range slots {
		if slots[i].ID == slotID {
			target = &slots[i]
			break
		}
	}
	if target == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule slot not found")
	}
	if target.Pinned() {
		return nil, appErrors.Clone(appErrors.ErrInvalidParameter, "slot is pinned; unpin it before requesting recommendations")
	}

	current, err := s.teachers.FindByID(ctx, target.TeacherID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}

	booked := make(map[string]bool)
	load := make(map[string]int)
	for _, slot := range slots {
		load[slot.TeacherID]++
		if slot.PeriodNumber == target.PeriodNumber && models.SameDay(slot.DayType, target.DayType) {
			booked[slot.TeacherID] = true
		}
	}

	teachers, err := s.teachers.ListActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list teachers")
	}

	var out []dto.TeacherRecommendation
	for _, candidate := range teachers {
		if candidate.ID == target.TeacherID || booked[candidate.ID] {
			continue
		}
		if candidate.MaxPeriodsPerDay > 0 && load[candidate.ID] >= candidate.MaxPeriodsPerDay {
			continue
		}

		rec := dto.TeacherRecommendation{
			TeacherID:   candidate.ID,
			TeacherName: candidate.FullName(),
			Department:  candidate.Department,
		}
		score := float64(s.weights.WorkloadBalance) - float64(load[candidate.ID])*5
		if current != nil && candidate.Department == current.Department {
			score += float64(s.weights.TeacherQualification)
			rec.Reasons = append(rec.Reasons, fmt.Sprintf("same department as current teacher (%s)", candidate.Department))
		} else {
			rec.Warnings = append(rec.Warnings, "different department")
		}
		rec.Reasons = append(rec.Reasons, fmt.Sprintf("%d current slots", load[candidate.ID]))
		rec.Score = score
		out = append(out, rec)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].TeacherID < out[j].TeacherID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// OptimalAssignments pairs every course without an active primary room with
// its best candidate, greedily by course code so runs are reproducible. Each
// room is used once.
func (s *RecommendationService) OptimalAssignments(ctx context.Context) ([]dto.OptimalAssignment, error) {
	courses, err := s.courses.ListActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	rooms, err := s.rooms.ListActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list rooms")
	}

	sort.Slice(courses, func(i, j int) bool {
		if courses[i].Code != courses[j].Code {
			return courses[i].Code < courses[j].Code
		}
		return courses[i].ID < courses[j].ID
	})

	taken := make(map[string]bool)
	var out []dto.OptimalAssignment
	for i := range courses {
		course := &courses[i]
		if s.hasPrimary(ctx, course.ID) {
			continue
		}
		best := dto.OptimalAssignment{CourseID: course.ID, CourseCode: course.Code, Score: -1}
		for _, room := range rooms {
			if taken[room.ID] {
				continue
			}
			rec, ok := s.scoreRoom(course, room)
			if !ok {
				continue
			}
			if rec.Score > best.Score || (rec.Score == best.Score && room.ID < best.RoomID) {
				best.RoomID = room.ID
				best.RoomNumber = room.RoomNumber
				best.Score = rec.Score
			}
		}
		if best.RoomID == "" {
			continue
		}
		taken[best.RoomID] = true
		out = append(out, best)
	}
	return out, nil
}

// hasPrimary reports whether a course already holds an active PRIMARY room.
// Lookup failures leave the course in the candidate set.
func (s *RecommendationService) hasPrimary(ctx context.Context, courseID string) bool {
	if s.primaries == nil {
		return false
	}
	primary, err := s.primaries.FindActivePrimary(ctx, courseID)
	if err != nil {
		return false
	}
	return primary.Usable()
}

func sortRoomRecs(recs []dto.RoomRecommendation) {
	sort.Slice(recs, func(i, j int) bool {
		if recs[i].Score != recs[j].Score {
			return recs[i].Score > recs[j].Score
		}
		return recs[i].RoomID < recs[j].RoomID
	})
}
