package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-sis/scheduler-api/internal/dto"
	"github.com/meridian-sis/scheduler-api/internal/models"
	"github.com/meridian-sis/scheduler-api/internal/pattern"
	appErrors "github.com/meridian-sis/scheduler-api/pkg/errors"
)

type primaryReaderStub struct {
	primaries map[string]*models.RoomAssignment
}

func (s *primaryReaderStub) FindActivePrimary(ctx context.Context, courseID string) (*models.RoomAssignment, error) {
	a, ok := s.primaries[courseID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return a, nil
}

func recommendationFixture() (*RecommendationService, *conflictSlotReaderStub, *conflictCourseReaderStub, *conflictTeacherReaderStub, *conflictRoomReaderStub, *primaryReaderStub) {
	slots := &conflictSlotReaderStub{}
	courses := &conflictCourseReaderStub{courses: map[string]models.Course{}}
	teachers := &conflictTeacherReaderStub{teachers: map[string]models.Teacher{}}
	rooms := &conflictRoomReaderStub{rooms: map[string]models.Room{}}
	primaries := &primaryReaderStub{primaries: map[string]*models.RoomAssignment{}}
	svc := NewRecommendationService(slots, courses, teachers, rooms, primaries, models.DefaultWeights(), nil)
	return svc, slots, courses, teachers, rooms, primaries
}

func TestRecommendRoomsFiltersHardRequirements(t *testing.T) {
	svc, _, courses, _, rooms, _ := recommendationFixture()
	courses.courses["course-1"] = models.Course{
		ID: "course-1", Code: "BIO1", Enrollment: 30, RequiresLab: true, Active: true,
	}
	rooms.rooms["room-small"] = models.Room{ID: "room-small", RoomNumber: "101", Capacity: 20, RoomType: models.RoomTypeScienceLab, Active: true}
	rooms.rooms["room-lab"] = models.Room{ID: "room-lab", RoomNumber: "201", Capacity: 32, RoomType: models.RoomTypeScienceLab, Active: true}
	rooms.rooms["room-comp"] = models.Room{ID: "room-comp", RoomNumber: "301", Capacity: 40, RoomType: models.RoomTypeComputer, Active: true}
	rooms.rooms["room-plain"] = models.Room{ID: "room-plain", RoomNumber: "102", Capacity: 40, RoomType: models.RoomTypeClassroom, Active: true}

	recs, err := svc.RecommendRooms(context.Background(), dto.RoomRecommendationQuery{CourseID: "course-1", Limit: 10})
	require.NoError(t, err)
	require.Len(t, recs, 2, "undersized and non-lab rooms must be excluded, not down-ranked")

	// Tighter fit scores higher: 30/32 seats beats 30/40.
	assert.Equal(t, "room-lab", recs[0].RoomID)
	assert.Equal(t, "room-comp", recs[1].RoomID)
	assert.Greater(t, recs[0].Score, recs[1].Score)
	assert.Contains(t, recs[0].Reasons, "meets lab requirement")
}

func TestRecommendRoomsEquipmentShiftsRank(t *testing.T) {
	svc, _, courses, _, rooms, _ := recommendationFixture()
	equipment := "smartboard"
	courses.courses["course-1"] = models.Course{
		ID: "course-1", Code: "ENG2", Enrollment: 25, RequiredEquipment: &equipment, Active: true,
	}
	rooms.rooms["room-a"] = models.Room{ID: "room-a", RoomNumber: "110", Capacity: 30, RoomType: models.RoomTypeClassroom, Active: true}
	rooms.rooms["room-b"] = models.Room{ID: "room-b", RoomNumber: "111", Capacity: 30, RoomType: models.RoomTypeClassroom, HasSmartboard: true, Active: true}

	recs, err := svc.RecommendRooms(context.Background(), dto.RoomRecommendationQuery{CourseID: "course-1", Limit: 10})
	require.NoError(t, err)
	require.Len(t, recs, 2)

	assert.Equal(t, "room-b", recs[0].RoomID)
	assert.Contains(t, recs[0].Reasons, "has smartboard")
	assert.Equal(t, "room-a", recs[1].RoomID)
	assert.Contains(t, recs[1].Warnings, "lacks smartboard")
}

func TestRecommendRoomsMultiRoomCourseSkipsCapacityGate(t *testing.T) {
	svc, _, courses, _, rooms, _ := recommendationFixture()
	courses.courses["course-1"] = models.Course{
		ID: "course-1", Code: "PE1", Enrollment: 90, UsesMultipleRooms: true, Active: true,
	}
	rooms.rooms["room-gym"] = models.Room{ID: "room-gym", RoomNumber: "GYM", Capacity: 60, RoomType: models.RoomTypeGym, Active: true}

	recs, err := svc.RecommendRooms(context.Background(), dto.RoomRecommendationQuery{CourseID: "course-1", Limit: 10})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "room-gym", recs[0].RoomID)
}

func TestRecommendRoomsValidation(t *testing.T) {
	svc, _, _, _, _, _ := recommendationFixture()

	_, err := svc.RecommendRooms(context.Background(), dto.RoomRecommendationQuery{CourseID: "", Limit: 5})
	assert.True(t, appErrors.Is(err, appErrors.ErrInvalidParameter))

	_, err = svc.RecommendRooms(context.Background(), dto.RoomRecommendationQuery{CourseID: "course-ghost", Limit: 5})
	assert.True(t, appErrors.Is(err, appErrors.ErrInvalidResource))
}

func TestRecommendTeachersRanksDepartmentAndLoad(t *testing.T) {
	svc, slots, _, teachers, _, _ := recommendationFixture()
	slots.slots = []models.ScheduleSlot{
		{ID: "slot-1", ScheduleID: "sched-1", CourseID: "course-1", TeacherID: "teacher-1", RoomID: "room-1", PeriodNumber: 3, DayType: models.DayTypeAll},
		{ID: "slot-2", ScheduleID: "sched-1", CourseID: "course-2", TeacherID: "teacher-4", RoomID: "room-2", PeriodNumber: 3, DayType: models.DayTypeADay},
		{ID: "slot-3", ScheduleID: "sched-1", CourseID: "course-3", TeacherID: "teacher-5", RoomID: "room-3", PeriodNumber: 1, DayType: models.DayTypeAll},
	}
	teachers.teachers["teacher-1"] = models.Teacher{ID: "teacher-1", FirstName: "Ada", LastName: "Nguyen", Department: "Math", MaxPeriodsPerDay: 6, Active: true}
	teachers.teachers["teacher-2"] = models.Teacher{ID: "teacher-2", FirstName: "Ben", LastName: "Okafor", Department: "Math", MaxPeriodsPerDay: 6, Active: true}
	teachers.teachers["teacher-3"] = models.Teacher{ID: "teacher-3", FirstName: "Cara", LastName: "Silva", Department: "Science", MaxPeriodsPerDay: 6, Active: true}
	teachers.teachers["teacher-4"] = models.Teacher{ID: "teacher-4", FirstName: "Dev", LastName: "Patel", Department: "Math", MaxPeriodsPerDay: 6, Active: true}
	teachers.teachers["teacher-5"] = models.Teacher{ID: "teacher-5", FirstName: "Eve", LastName: "Moraes", Department: "Math", MaxPeriodsPerDay: 1, Active: true}

	recs, err := svc.RecommendTeachers(context.Background(), "sched-1", "slot-1", 10)
	require.NoError(t, err)

	// teacher-4 is booked in the same period, teacher-5 is at daily limit,
	// teacher-1 already owns the slot.
	require.Len(t, recs, 2)
	assert.Equal(t, "teacher-2", recs[0].TeacherID)
	assert.Equal(t, "teacher-3", recs[1].TeacherID)
	assert.Greater(t, recs[0].Score, recs[1].Score)
	assert.Contains(t, recs[1].Warnings, "different department")
}

func TestRecommendTeachersPinnedSlotRefused(t *testing.T) {
	svc, slots, _, teachers, _, _ := recommendationFixture()
	pinnedBy := "principal@school.edu"
	slots.slots = []models.ScheduleSlot{
		{ID: "slot-1", ScheduleID: "sched-1", TeacherID: "teacher-1", PeriodNumber: 2, DayType: models.DayTypeAll, PinnedBy: &pinnedBy},
	}
	teachers.teachers["teacher-1"] = models.Teacher{ID: "teacher-1", Department: "Math", Active: true}

	_, err := svc.RecommendTeachers(context.Background(), "sched-1", "slot-1", 5)
	assert.True(t, appErrors.Is(err, appErrors.ErrInvalidParameter))
}

func TestRecommendTeachersSlotNotFound(t *testing.T) {
	svc, _, _, _, _, _ := recommendationFixture()

	_, err := svc.RecommendTeachers(context.Background(), "sched-1", "slot-ghost", 5)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))

	_, err = svc.RecommendTeachers(context.Background(), "", "slot-1", 5)
	assert.True(t, appErrors.Is(err, appErrors.ErrInvalidParameter))
}

func TestOptimalAssignmentsGreedyByCode(t *testing.T) {
	svc, _, courses, _, rooms, _ := recommendationFixture()
	courses.courses["course-alg"] = models.Course{ID: "course-alg", Code: "ALG1", Enrollment: 28, Active: true}
	courses.courses["course-bio"] = models.Course{ID: "course-bio", Code: "BIO1", Enrollment: 24, RequiresLab: true, Active: true}
	rooms.rooms["room-class"] = models.Room{ID: "room-class", RoomNumber: "101", Capacity: 30, RoomType: models.RoomTypeClassroom, Active: true}
	rooms.rooms["room-lab"] = models.Room{ID: "room-lab", RoomNumber: "201", Capacity: 30, RoomType: models.RoomTypeScienceLab, Active: true}

	out, err := svc.OptimalAssignments(context.Background())
	require.NoError(t, err)
	require.Len(t, out, 2)

	// ALG1 places first and ties between both rooms, so lowest room ID wins;
	// BIO1 then takes the lab it requires.
	assert.Equal(t, "ALG1", out[0].CourseCode)
	assert.Equal(t, "room-class", out[0].RoomID)
	assert.Equal(t, "BIO1", out[1].CourseCode)
	assert.Equal(t, "room-lab", out[1].RoomID)
}

func TestOptimalAssignmentsSkipsUnplaceableCourse(t *testing.T) {
	svc, _, courses, _, rooms, _ := recommendationFixture()
	courses.courses["course-big"] = models.Course{ID: "course-big", Code: "CHOIR", Enrollment: 120, Active: true}
	rooms.rooms["room-class"] = models.Room{ID: "room-class", RoomNumber: "101", Capacity: 30, RoomType: models.RoomTypeClassroom, Active: true}

	out, err := svc.OptimalAssignments(context.Background())
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestOptimalAssignmentsSkipsPlacedCourses(t *testing.T) {
	svc, _, courses, _, rooms, primaries := recommendationFixture()
	courses.courses["course-alg"] = models.Course{ID: "course-alg", Code: "ALG1", Enrollment: 28, Active: true}
	courses.courses["course-bio"] = models.Course{ID: "course-bio", Code: "BIO1", Enrollment: 24, RequiresLab: true, Active: true}
	rooms.rooms["room-class"] = models.Room{ID: "room-class", RoomNumber: "101", Capacity: 30, RoomType: models.RoomTypeClassroom, Active: true}
	rooms.rooms["room-lab"] = models.Room{ID: "room-lab", RoomNumber: "201", Capacity: 30, RoomType: models.RoomTypeScienceLab, Active: true}
	primaries.primaries["course-alg"] = &models.RoomAssignment{
		ID: "assign-1", CourseID: "course-alg", RoomID: "room-class", AssignmentType: pattern.TypePrimary, Active: true,
	}

	out, err := svc.OptimalAssignments(context.Background())
	require.NoError(t, err)
	require.Len(t, out, 1, "courses with an active primary are already placed")
	assert.Equal(t, "BIO1", out[0].CourseCode)
	assert.Equal(t, "room-lab", out[0].RoomID)
}

func TestRecommendRoomsFiltersOccupiedAtRequestedTime(t *testing.T) {
	svc, slots, courses, _, rooms, _ := recommendationFixture()
	courses.courses["course-1"] = models.Course{ID: "course-1", Code: "ENG2", Enrollment: 25, Active: true}
	rooms.rooms["room-a"] = models.Room{ID: "room-a", RoomNumber: "110", Capacity: 30, RoomType: models.RoomTypeClassroom, Active: true}
	rooms.rooms["room-b"] = models.Room{ID: "room-b", RoomNumber: "111", Capacity: 30, RoomType: models.RoomTypeClassroom, Active: true}
	slots.slots = []models.ScheduleSlot{
		{ID: "slot-1", ScheduleID: "sched-1", RoomID: "room-a", PeriodNumber: 3, DayType: models.DayTypeAll},
	}

	recs, err := svc.RecommendRooms(context.Background(), dto.RoomRecommendationQuery{
		CourseID: "course-1", ScheduleID: "sched-1", Day: models.DayTypeADay, Period: 3, Limit: 10,
	})
	require.NoError(t, err)
	require.Len(t, recs, 1, "the room booked during period 3 drops out")
	assert.Equal(t, "room-b", recs[0].RoomID)

	// A different period frees the booked room.
	recs, err = svc.RecommendRooms(context.Background(), dto.RoomRecommendationQuery{
		CourseID: "course-1", ScheduleID: "sched-1", Day: models.DayTypeADay, Period: 4, Limit: 10,
	})
	require.NoError(t, err)
	assert.Len(t, recs, 2)
}

func TestRecommendRoomsRejectsInvalidDayOrPeriod(t *testing.T) {
	svc, _, courses, _, _, _ := recommendationFixture()
	courses.courses["course-1"] = models.Course{ID: "course-1", Code: "ENG2", Enrollment: 25, Active: true}

	_, err := svc.RecommendRooms(context.Background(), dto.RoomRecommendationQuery{CourseID: "course-1", Day: "C_DAY", Period: 1})
	assert.True(t, appErrors.Is(err, appErrors.ErrInvalidParameter))

	_, err = svc.RecommendRooms(context.Background(), dto.RoomRecommendationQuery{CourseID: "course-1", Period: -2})
	assert.True(t, appErrors.Is(err, appErrors.ErrInvalidParameter))

	_, err = svc.RecommendRooms(context.Background(), dto.RoomRecommendationQuery{CourseID: "course-1", Day: models.DayTypeADay})
	assert.True(t, appErrors.Is(err, appErrors.ErrInvalidParameter))
}
