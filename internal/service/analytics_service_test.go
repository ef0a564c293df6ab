package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-sis/scheduler-api/internal/models"
	appErrors "github.com/meridian-sis/scheduler-api/pkg/errors"
)

type analyticsSlotReaderStub struct {
	byTeacher map[string][]models.ScheduleSlot
}

func (s *analyticsSlotReaderStub) ListByTeacher(ctx context.Context, scheduleID, teacherID string) ([]models.ScheduleSlot, error) {
	return s.byTeacher[teacherID], nil
}

func analyticsFixture() (*AnalyticsService, *analyticsSlotReaderStub, *conflictTeacherReaderStub, *conflictCourseReaderStub) {
	slots := &analyticsSlotReaderStub{byTeacher: map[string][]models.ScheduleSlot{}}
	teachers := &conflictTeacherReaderStub{teachers: map[string]models.Teacher{
		"teacher-1": {ID: "teacher-1", FirstName: "Dana", LastName: "Reyes", Active: true},
	}}
	courses := &conflictCourseReaderStub{courses: map[string]models.Course{}}
	svc := NewAnalyticsService(slots, teachers, courses, nil)
	return svc, slots, teachers, courses
}

func heavySchedule(courses *conflictCourseReaderStub) []models.ScheduleSlot {
	// Six consecutive all-day periods across six distinct large sections.
	slots := make([]models.ScheduleSlot, 0, 6)
	for i := 0; i < 6; i++ {
		courseID := fmt.Sprintf("course-%d", i+1)
		subject := "Biology"
		if i < 2 {
			subject = "Special Education"
		}
		courses.courses[courseID] = models.Course{ID: courseID, Code: courseID, Subject: subject, Enrollment: 34, Active: true}
		slots = append(slots, models.ScheduleSlot{
			ID:           fmt.Sprintf("slot-%d", i+1),
			CourseID:     courseID,
			TeacherID:    "teacher-1",
			RoomID:       "room-1",
			PeriodNumber: i + 1,
			DayType:      models.DayTypeAll,
		})
	}
	return slots
}

func TestBurnoutRiskLightLoad(t *testing.T) {
	svc, slots, _, courses := analyticsFixture()
	courses.courses["course-1"] = models.Course{ID: "course-1", Subject: "Biology", Enrollment: 25, Active: true}
	slots.byTeacher["teacher-1"] = []models.ScheduleSlot{
		{ID: "slot-1", CourseID: "course-1", TeacherID: "teacher-1", PeriodNumber: 1, DayType: models.DayTypeADay},
		{ID: "slot-3", CourseID: "course-1", TeacherID: "teacher-1", PeriodNumber: 3, DayType: models.DayTypeADay},
	}

	risk, err := svc.BurnoutRisk(context.Background(), "sched-1", "teacher-1")
	require.NoError(t, err)
	assert.Equal(t, "MINIMAL", risk.Level)
	assert.InDelta(t, 5.0, risk.Score, 0.01, "one class per day average, nothing else scores")
	require.Len(t, risk.Components, 5)
}

func TestBurnoutRiskHeavyLoad(t *testing.T) {
	svc, slots, _, courses := analyticsFixture()
	slots.byTeacher["teacher-1"] = heavySchedule(courses)

	risk, err := svc.BurnoutRisk(context.Background(), "sched-1", "teacher-1")
	require.NoError(t, err)

	// workload: 6 classes/day * 5 = 30 (capped at 30)
	// back-to-back: 5 stretches per day track * 5 = 25 (capped)
	// preps: (6-2)*5 = 20 capped at 15
	// students: (204-100)/10 = 10.4
	// support: 2/6 sections = 33.3% / 5 = 6.67
	assert.InDelta(t, 87.07, risk.Score, 0.1)
	assert.Equal(t, "HIGH", risk.Level)
}

func TestBurnoutLevelBoundaries(t *testing.T) {
	assert.Equal(t, "HIGH", burnoutLevel(70))
	assert.Equal(t, "MODERATE", burnoutLevel(69.9))
	assert.Equal(t, "MODERATE", burnoutLevel(50))
	assert.Equal(t, "LOW", burnoutLevel(49.9))
	assert.Equal(t, "LOW", burnoutLevel(30))
	assert.Equal(t, "MINIMAL", burnoutLevel(29.9))
}

func TestHighRiskTeachersThresholdMonotone(t *testing.T) {
	svc, slots, teachers, courses := analyticsFixture()
	teachers.teachers["teacher-2"] = models.Teacher{ID: "teacher-2", FirstName: "Omar", LastName: "Teal", Active: true}
	slots.byTeacher["teacher-1"] = heavySchedule(courses)

	high, err := svc.HighRiskTeachers(context.Background(), "sched-1", 70)
	require.NoError(t, err)
	require.Len(t, high, 1)
	assert.Equal(t, "teacher-1", high[0].TeacherID)

	all, err := svc.HighRiskTeachers(context.Background(), "sched-1", 0)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(all), len(high), "lowering the threshold never shrinks the set")
	assert.Equal(t, "teacher-1", all[0].TeacherID, "highest score first")

	_, err = svc.HighRiskTeachers(context.Background(), "sched-1", 101)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrInvalidParameter))
}

func TestBurnoutRiskUnknownTeacher(t *testing.T) {
	svc, _, _, _ := analyticsFixture()
	_, err := svc.BurnoutRisk(context.Background(), "sched-1", "teacher-missing")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}
