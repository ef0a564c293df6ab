package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-sis/scheduler-api/internal/models"
	"github.com/meridian-sis/scheduler-api/internal/pattern"
	appErrors "github.com/meridian-sis/scheduler-api/pkg/errors"
	"github.com/meridian-sis/scheduler-api/pkg/jobs"
)

type conflictSlotReaderStub struct {
	slots []models.ScheduleSlot
}

func (s *conflictSlotReaderStub) ListBySchedule(ctx context.Context, scheduleID string) ([]models.ScheduleSlot, error) {
	return s.slots, nil
}

type conflictAssignmentReaderStub struct {
	byRoom map[string][]models.RoomAssignment
}

func (s *conflictAssignmentReaderStub) ListActiveByRoom(ctx context.Context, roomID string) ([]models.RoomAssignment, error) {
	return s.byRoom[roomID], nil
}

type conflictCourseReaderStub struct {
	courses map[string]models.Course
}

func (s *conflictCourseReaderStub) FindByID(ctx context.Context, id string) (*models.Course, error) {
	c, ok := s.courses[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &c, nil
}

func (s *conflictCourseReaderStub) ListActive(ctx context.Context) ([]models.Course, error) {
	var out []models.Course
	for _, c := range s.courses {
		out = append(out, c)
	}
	return out, nil
}

type conflictTeacherReaderStub struct {
	teachers map[string]models.Teacher
}

func (s *conflictTeacherReaderStub) FindByID(ctx context.Context, id string) (*models.Teacher, error) {
	t, ok := s.teachers[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &t, nil
}

func (s *conflictTeacherReaderStub) ListActive(ctx context.Context) ([]models.Teacher, error) {
	var out []models.Teacher
	for _, t := range s.teachers {
		out = append(out, t)
	}
	return out, nil
}

type conflictRoomReaderStub struct {
	rooms map[string]models.Room
}

func (s *conflictRoomReaderStub) FindByID(ctx context.Context, id string) (*models.Room, error) {
	r, ok := s.rooms[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &r, nil
}

func (s *conflictRoomReaderStub) ListActive(ctx context.Context) ([]models.Room, error) {
	var out []models.Room
	for _, r := range s.rooms {
		out = append(out, r)
	}
	return out, nil
}

type conflictCacheStub struct {
	stored      map[string]*models.ConflictAnalysis
	invalidated []string
}

func (s *conflictCacheStub) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	v, ok := s.stored[key]
	if !ok {
		return false, nil
	}
	*(dest.(*models.ConflictAnalysis)) = *v
	return true, nil
}

func (s *conflictCacheStub) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if s.stored == nil {
		s.stored = map[string]*models.ConflictAnalysis{}
	}
	s.stored[key] = value.(*models.ConflictAnalysis)
	return nil
}

func (s *conflictCacheStub) Invalidate(ctx context.Context, pattern string) error {
	s.invalidated = append(s.invalidated, pattern)
	delete(s.stored, pattern)
	return nil
}

type refreshQueueStub struct {
	enqueued []jobs.Job
}

func (s *refreshQueueStub) Enqueue(job jobs.Job) error {
	s.enqueued = append(s.enqueued, job)
	return nil
}

type conflictFixture struct {
	slots       *conflictSlotReaderStub
	assignments *conflictAssignmentReaderStub
	courses     *conflictCourseReaderStub
	teachers    *conflictTeacherReaderStub
	rooms       *conflictRoomReaderStub
	cache       *conflictCacheStub
	queue       *refreshQueueStub
}

func newConflictFixture() *conflictFixture {
	return &conflictFixture{
		slots:       &conflictSlotReaderStub{},
		assignments: &conflictAssignmentReaderStub{byRoom: map[string][]models.RoomAssignment{}},
		courses:     &conflictCourseReaderStub{courses: map[string]models.Course{}},
		teachers:    &conflictTeacherReaderStub{teachers: map[string]models.Teacher{}},
		rooms:       &conflictRoomReaderStub{rooms: map[string]models.Room{}},
		cache:       &conflictCacheStub{},
		queue:       &refreshQueueStub{},
	}
}

func (f *conflictFixture) service() *ConflictService {
	return NewConflictService(f.slots, f.assignments, f.courses, f.teachers, f.rooms, f.cache, f.queue, models.DefaultWeights(), time.Minute, nil)
}

func TestAnalyzeDetectsTeacherDoubleBooking(t *testing.T) {
	f := newConflictFixture()
	f.teachers.teachers["teacher-1"] = models.Teacher{ID: "teacher-1", FirstName: "Dana", LastName: "Reyes", MaxPeriodsPerDay: 6, Active: true}
	f.slots.slots = []models.ScheduleSlot{
		{ID: "slot-1", TeacherID: "teacher-1", RoomID: "room-1", PeriodNumber: 3, DayType: models.DayTypeAll},
		{ID: "slot-2", TeacherID: "teacher-1", RoomID: "room-2", PeriodNumber: 3, DayType: models.DayTypeADay},
	}

	analysis, err := f.service().Analyze(context.Background(), "sched-1")
	require.NoError(t, err)
	require.Equal(t, 1, analysis.HardCount)
	conflict := analysis.Conflicts[0]
	assert.Equal(t, models.ConflictTeacherDoubleBooked, conflict.Type)
	assert.Equal(t, models.SeverityCritical, conflict.Severity)
	assert.Equal(t, models.DefaultWeights().TeacherConflict, conflict.PenaltyCost)
	assert.False(t, analysis.Workable())
}

func TestAnalyzeAllowsAlternatingDaySlots(t *testing.T) {
	f := newConflictFixture()
	f.teachers.teachers["teacher-1"] = models.Teacher{ID: "teacher-1", MaxPeriodsPerDay: 6, Active: true}
	f.slots.slots = []models.ScheduleSlot{
		{ID: "slot-1", TeacherID: "teacher-1", RoomID: "room-1", PeriodNumber: 3, DayType: models.DayTypeADay},
		{ID: "slot-2", TeacherID: "teacher-1", RoomID: "room-1", PeriodNumber: 3, DayType: models.DayTypeBDay},
	}

	analysis, err := f.service().Analyze(context.Background(), "sched-1")
	require.NoError(t, err)
	assert.Zero(t, analysis.TotalCount, "A day and B day never coincide")
	assert.True(t, analysis.Workable())
}

func TestAnalyzeDetectsRoomFitProblems(t *testing.T) {
	f := newConflictFixture()
	equipment := "projector"
	f.courses.courses["course-1"] = models.Course{ID: "course-1", Code: "CHEM-201", Enrollment: 32, RequiresLab: true, RequiredEquipment: &equipment, Active: true}
	f.rooms.rooms["room-1"] = models.Room{ID: "room-1", RoomNumber: "101", Capacity: 28, RoomType: models.RoomTypeClassroom, Active: true}
	f.slots.slots = []models.ScheduleSlot{
		{ID: "slot-1", CourseID: "course-1", TeacherID: "teacher-1", RoomID: "room-1", PeriodNumber: 1, DayType: models.DayTypeAll},
	}

	analysis, err := f.service().Analyze(context.Background(), "sched-1")
	require.NoError(t, err)
	assert.Equal(t, 3, analysis.TotalCount)
	assert.Equal(t, 2, analysis.HardCount, "capacity and lab are hard, equipment is soft")
	assert.Equal(t, 1, analysis.SoftCount)
	assert.Equal(t, 1, analysis.SeverityCount[models.SeverityMedium])
	assert.Equal(t, 2, analysis.SeverityCount[models.SeverityHigh])
}

func TestAnalyzeDetectsTeacherOverload(t *testing.T) {
	f := newConflictFixture()
	f.teachers.teachers["teacher-1"] = models.Teacher{ID: "teacher-1", FirstName: "Dana", LastName: "Reyes", MaxPeriodsPerDay: 2, Active: true}
	f.slots.slots = []models.ScheduleSlot{
		{ID: "slot-1", TeacherID: "teacher-1", RoomID: "room-1", PeriodNumber: 1, DayType: models.DayTypeAll},
		{ID: "slot-2", TeacherID: "teacher-1", RoomID: "room-1", PeriodNumber: 2, DayType: models.DayTypeAll},
		{ID: "slot-3", TeacherID: "teacher-1", RoomID: "room-1", PeriodNumber: 3, DayType: models.DayTypeAll},
	}

	analysis, err := f.service().Analyze(context.Background(), "sched-1")
	require.NoError(t, err)
	require.Equal(t, 1, analysis.TotalCount)
	assert.Equal(t, models.ConflictTeacherOverloaded, analysis.Conflicts[0].Type)
	assert.False(t, analysis.Conflicts[0].Hard)
	assert.True(t, analysis.Workable(), "soft conflicts keep the schedule workable")
}

func TestAnalyzeAssignmentPatternOverlaps(t *testing.T) {
	f := newConflictFixture()
	f.rooms.rooms["room-1"] = models.Room{ID: "room-1", RoomNumber: "101", Capacity: 30, Active: true}
	f.assignments.byRoom["room-1"] = []models.RoomAssignment{
		{ID: "assign-1", CourseID: "course-1", RoomID: "room-1", UsagePattern: pattern.OddDays, Priority: 1, Active: true},
		{ID: "assign-2", CourseID: "course-2", RoomID: "room-1", UsagePattern: pattern.EvenDays, Priority: 1, Active: true},
	}

	analysis, err := f.service().Analyze(context.Background(), "sched-1")
	require.NoError(t, err)
	assert.Zero(t, analysis.TotalCount, "odd and even day claims share a room cleanly")

	f.cache.stored = nil
	f.assignments.byRoom["room-1"] = append(f.assignments.byRoom["room-1"], models.RoomAssignment{
		ID: "assign-3", CourseID: "course-3", RoomID: "room-1", UsagePattern: pattern.Always, Priority: 1, Active: true,
	})

	analysis, err = f.service().Analyze(context.Background(), "sched-1")
	require.NoError(t, err)
	assert.Equal(t, 2, analysis.TotalCount, "ALWAYS collides with both alternating claims")
	for _, c := range analysis.Conflicts {
		assert.Equal(t, models.ConflictRoomDoubleBooked, c.Type)
		assert.True(t, c.Hard)
	}
}

func TestAnalyzeUsesCache(t *testing.T) {
	f := newConflictFixture()
	cached := &models.ConflictAnalysis{ScheduleID: "sched-1", TotalCount: 42}
	f.cache.stored = map[string]*models.ConflictAnalysis{"conflicts:sched-1": cached}

	analysis, err := f.service().Analyze(context.Background(), "sched-1")
	require.NoError(t, err)
	assert.Equal(t, 42, analysis.TotalCount, "cached result short-circuits analysis")
}

func TestInvalidateDropsCacheAndQueuesRefresh(t *testing.T) {
	f := newConflictFixture()
	f.cache.stored = map[string]*models.ConflictAnalysis{"conflicts:sched-1": {ScheduleID: "sched-1"}}
	svc := f.service()

	svc.Invalidate(context.Background(), "sched-1")
	assert.Empty(t, f.cache.stored)
	require.Len(t, f.queue.enqueued, 1)
	assert.Equal(t, "conflict_refresh", f.queue.enqueued[0].Type)
	assert.Equal(t, "sched-1", f.queue.enqueued[0].Payload)

	require.NoError(t, svc.RefreshWorker(context.Background(), f.queue.enqueued[0]))
	assert.Contains(t, f.cache.stored, "conflicts:sched-1", "worker repopulates the cache")
}

func TestResolutionsRankRoomMovesDeterministically(t *testing.T) {
	f := newConflictFixture()
	f.courses.courses["course-1"] = models.Course{ID: "course-1", Code: "BIO-101", Enrollment: 30, Active: true}
	f.rooms.rooms["room-1"] = models.Room{ID: "room-1", RoomNumber: "101", Capacity: 25, RoomType: models.RoomTypeClassroom, Active: true}
	f.rooms.rooms["room-2"] = models.Room{ID: "room-2", RoomNumber: "102", Capacity: 32, RoomType: models.RoomTypeClassroom, Active: true}
	f.rooms.rooms["room-3"] = models.Room{ID: "room-3", RoomNumber: "103", Capacity: 60, RoomType: models.RoomTypeClassroom, Active: true}
	f.slots.slots = []models.ScheduleSlot{
		{ID: "slot-1", CourseID: "course-1", TeacherID: "teacher-1", RoomID: "room-1", PeriodNumber: 1, DayType: models.DayTypeAll},
	}

	svc := f.service()
	analysis, err := svc.Analyze(context.Background(), "sched-1")
	require.NoError(t, err)
	require.Equal(t, 1, analysis.TotalCount)

	resolutions, err := svc.Resolutions(context.Background(), "sched-1", analysis.Conflicts[0].ID)
	require.NoError(t, err)
	require.Len(t, resolutions, 2, "the conflicting room itself is excluded")
	assert.Equal(t, models.ResolutionMoveRoom, resolutions[0].Action)
	assert.Equal(t, "room-2", resolutions[0].RoomID, "tightest fit ranks first")
	assert.Equal(t, "room-3", resolutions[1].RoomID)
	assert.Greater(t, resolutions[0].Score, resolutions[1].Score)
}

func TestResolutionsSwapTeacherSkipsOverloadedCandidates(t *testing.T) {
	f := newConflictFixture()
	f.teachers.teachers["teacher-1"] = models.Teacher{ID: "teacher-1", FirstName: "Dana", LastName: "Reyes", Department: "Science", MaxPeriodsPerDay: 6, Active: true}
	f.teachers.teachers["teacher-2"] = models.Teacher{ID: "teacher-2", FirstName: "Omar", LastName: "Teal", Department: "Science", MaxPeriodsPerDay: 6, Active: true}
	f.teachers.teachers["teacher-3"] = models.Teacher{ID: "teacher-3", FirstName: "June", LastName: "Park", Department: "Math", MaxPeriodsPerDay: 6, Active: true}
	f.slots.slots = []models.ScheduleSlot{
		{ID: "slot-1", TeacherID: "teacher-1", RoomID: "room-1", PeriodNumber: 3, DayType: models.DayTypeAll},
		{ID: "slot-2", TeacherID: "teacher-1", RoomID: "room-2", PeriodNumber: 3, DayType: models.DayTypeAll},
	}

	svc := f.service()
	analysis, err := svc.Analyze(context.Background(), "sched-1")
	require.NoError(t, err)
	require.Equal(t, 1, analysis.TotalCount)

	resolutions, err := svc.Resolutions(context.Background(), "sched-1", analysis.Conflicts[0].ID)
	require.NoError(t, err)
	require.Len(t, resolutions, 1, "only same-department candidates qualify")
	assert.Equal(t, models.ResolutionSwapTeacher, resolutions[0].Action)
	assert.Equal(t, "teacher-2", resolutions[0].TeacherID)
}

func TestResolutionsUnknownConflict(t *testing.T) {
	f := newConflictFixture()
	_, err := f.service().Resolutions(context.Background(), "sched-1", "missing")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestAnalyzeDetectsUnqualifiedTeacher(t *testing.T) {
	f := newConflictFixture()
	quals := "Math, Physics"
	f.teachers.teachers["teacher-1"] = models.Teacher{ID: "teacher-1", FirstName: "Dana", LastName: "Reyes", Qualifications: &quals, MaxPeriodsPerDay: 6, Active: true}
	f.courses.courses["course-1"] = models.Course{ID: "course-1", Code: "CHEM-201", Subject: "Chemistry", Enrollment: 10, Active: true}
	f.rooms.rooms["room-1"] = models.Room{ID: "room-1", RoomNumber: "101", Capacity: 30, RoomType: models.RoomTypeClassroom, Active: true}
	f.slots.slots = []models.ScheduleSlot{
		{ID: "slot-1", CourseID: "course-1", TeacherID: "teacher-1", RoomID: "room-1", PeriodNumber: 1, DayType: models.DayTypeAll},
		{ID: "slot-2", CourseID: "course-1", TeacherID: "teacher-1", RoomID: "room-1", PeriodNumber: 2, DayType: models.DayTypeAll},
	}

	analysis, err := f.service().Analyze(context.Background(), "sched-1")
	require.NoError(t, err)
	require.Equal(t, 1, analysis.TotalCount, "teacher and course pair is reported once")
	conflict := analysis.Conflicts[0]
	assert.Equal(t, models.ConflictTeacherUnqualified, conflict.Type)
	assert.True(t, conflict.Hard)
	assert.Equal(t, models.DefaultWeights().TeacherQualification, conflict.PenaltyCost)
	assert.Contains(t, conflict.Description, "Chemistry")
}

func TestAnalyzeQualifiedTeacherIsClean(t *testing.T) {
	f := newConflictFixture()
	quals := "chemistry"
	f.teachers.teachers["teacher-1"] = models.Teacher{ID: "teacher-1", Qualifications: &quals, MaxPeriodsPerDay: 6, Active: true}
	f.courses.courses["course-1"] = models.Course{ID: "course-1", Code: "CHEM-201", Subject: "Chemistry", Enrollment: 10, Active: true}
	f.rooms.rooms["room-1"] = models.Room{ID: "room-1", RoomNumber: "101", Capacity: 30, RoomType: models.RoomTypeClassroom, Active: true}
	f.slots.slots = []models.ScheduleSlot{
		{ID: "slot-1", CourseID: "course-1", TeacherID: "teacher-1", RoomID: "room-1", PeriodNumber: 1, DayType: models.DayTypeAll},
	}

	analysis, err := f.service().Analyze(context.Background(), "sched-1")
	require.NoError(t, err)
	assert.Zero(t, analysis.TotalCount, "qualification match is case-insensitive")
}

func TestAnalyzeDetectsBuildingTravel(t *testing.T) {
	f := newConflictFixture()
	f.teachers.teachers["teacher-1"] = models.Teacher{ID: "teacher-1", FirstName: "Dana", LastName: "Reyes", MaxPeriodsPerDay: 6, Active: true}
	f.rooms.rooms["room-1"] = models.Room{ID: "room-1", RoomNumber: "101", Building: "North", Capacity: 30, Active: true}
	f.rooms.rooms["room-2"] = models.Room{ID: "room-2", RoomNumber: "201", Building: "South", Capacity: 30, Active: true}
	f.slots.slots = []models.ScheduleSlot{
		{ID: "slot-1", TeacherID: "teacher-1", RoomID: "room-1", PeriodNumber: 2, DayType: models.DayTypeADay},
		{ID: "slot-2", TeacherID: "teacher-1", RoomID: "room-2", PeriodNumber: 3, DayType: models.DayTypeADay},
		{ID: "slot-3", TeacherID: "teacher-1", RoomID: "room-2", PeriodNumber: 5, DayType: models.DayTypeADay},
	}

	analysis, err := f.service().Analyze(context.Background(), "sched-1")
	require.NoError(t, err)
	require.Equal(t, 1, analysis.TotalCount, "only back-to-back periods count")
	conflict := analysis.Conflicts[0]
	assert.Equal(t, models.ConflictRoomDistance, conflict.Type)
	assert.False(t, conflict.Hard)
	assert.Equal(t, models.SeverityLow, conflict.Severity)
	assert.Equal(t, []string{"slot-1", "slot-2"}, conflict.SlotIDs)
	assert.True(t, analysis.Workable())
}

func TestAnalyzeIgnoresTravelOnAlternatingDays(t *testing.T) {
	f := newConflictFixture()
	f.teachers.teachers["teacher-1"] = models.Teacher{ID: "teacher-1", MaxPeriodsPerDay: 6, Active: true}
	f.rooms.rooms["room-1"] = models.Room{ID: "room-1", RoomNumber: "101", Building: "North", Capacity: 30, Active: true}
	f.rooms.rooms["room-2"] = models.Room{ID: "room-2", RoomNumber: "201", Building: "South", Capacity: 30, Active: true}
	f.slots.slots = []models.ScheduleSlot{
		{ID: "slot-1", TeacherID: "teacher-1", RoomID: "room-1", PeriodNumber: 2, DayType: models.DayTypeADay},
		{ID: "slot-2", TeacherID: "teacher-1", RoomID: "room-2", PeriodNumber: 3, DayType: models.DayTypeBDay},
	}

	analysis, err := f.service().Analyze(context.Background(), "sched-1")
	require.NoError(t, err)
	assert.Zero(t, analysis.TotalCount, "adjacent periods on opposite days never meet")
}

func TestAnalyzeDetectsWorkdayStrain(t *testing.T) {
	f := newConflictFixture()
	f.teachers.teachers["teacher-1"] = models.Teacher{
		ID: "teacher-1", FirstName: "Dana", LastName: "Reyes",
		MaxPeriodsPerDay: 8, MaxConsecutive: 3, PreferredBreakMins: 10, Active: true,
	}
	for p := 1; p <= 8; p++ {
		f.slots.slots = append(f.slots.slots, models.ScheduleSlot{
			ID: fmt.Sprintf("slot-%d", p), TeacherID: "teacher-1", RoomID: "room-1",
			PeriodNumber: p, DayType: models.DayTypeAll,
		})
	}

	analysis, err := f.service().Analyze(context.Background(), "sched-1")
	require.NoError(t, err)
	require.Equal(t, 3, analysis.TotalCount)

	byType := map[string]int{}
	for _, c := range analysis.Conflicts {
		byType[c.Type]++
		assert.False(t, c.Hard)
	}
	assert.Equal(t, 1, byType[models.ConflictMissingPrep])
	assert.Equal(t, 1, byType[models.ConflictMissingLunch])
	assert.Equal(t, 1, byType[models.ConflictMissingBreak])
}

func TestAnalyzeWorkdayCleanWithFreePeriods(t *testing.T) {
	f := newConflictFixture()
	f.teachers.teachers["teacher-1"] = models.Teacher{
		ID: "teacher-1", MaxPeriodsPerDay: 8, MaxConsecutive: 3, Active: true,
	}
	f.teachers.teachers["teacher-2"] = models.Teacher{ID: "teacher-2", MaxPeriodsPerDay: 8, Active: true}
	// Periods 4 and 5 stay free, so the lunch window and prep checks pass and
	// no run exceeds three periods.
	for _, p := range []int{1, 2, 3, 6, 7} {
		f.slots.slots = append(f.slots.slots, models.ScheduleSlot{
			ID: fmt.Sprintf("slot-%d", p), TeacherID: "teacher-1", RoomID: "room-1",
			PeriodNumber: p, DayType: models.DayTypeAll,
		})
	}
	f.slots.slots = append(f.slots.slots, models.ScheduleSlot{
		ID: "slot-8", TeacherID: "teacher-2", RoomID: "room-2", PeriodNumber: 8, DayType: models.DayTypeAll,
	})

	analysis, err := f.service().Analyze(context.Background(), "sched-1")
	require.NoError(t, err)
	assert.Zero(t, analysis.TotalCount)
}
