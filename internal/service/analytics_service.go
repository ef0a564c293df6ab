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

// Burnout component caps. The total tops out at 100.
const (
	burnoutWorkloadCap   = 30.0
	burnoutBackToBackCap = 25.0
	burnoutPrepCap       = 15.0
	burnoutStudentCap    = 15.0
	burnoutSupportCap    = 15.0
)

type analyticsSlotReader interface {
	ListByTeacher(ctx context.Context, scheduleID, teacherID string) ([]models.ScheduleSlot, error)
}

// AnalyticsService scores teacher workload risk from the published schedule.
type AnalyticsService struct {
	slots    analyticsSlotReader
	teachers conflictTeacherReader
	courses  conflictCourseReader
	logger   *zap.Logger
}

// NewAnalyticsService builds an AnalyticsService.
func NewAnalyticsService(slots analyticsSlotReader, teachers conflictTeacherReader, courses conflictCourseReader, logger *zap.Logger) *AnalyticsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnalyticsService{slots: slots, teachers: teachers, courses: courses, logger: logger}
}

// BurnoutRisk scores one teacher. Five components add up to at most 100:
// daily class load, back-to-back stretches, distinct preps, total student
// count, and the share of high-support sections.
func (s *AnalyticsService) BurnoutRisk(ctx context.Context, scheduleID, teacherID string) (*dto.BurnoutRisk, error) {
	teacher, err := s.teachers.FindByID(ctx, teacherID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}

	slots, err := s.slots.ListByTeacher(ctx, scheduleID, teacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list teacher slots")
	}

	risk := &dto.BurnoutRisk{TeacherID: teacherID, TeacherName: teacher.FullName()}

	workload := capAt(avgClassesPerDay(slots)*5, burnoutWorkloadCap)
	risk.Components = append(risk.Components, dto.BurnoutComponent{
		Name:   "workload",
		Score:  workload,
		Detail: fmt.Sprintf("%.1f classes per day on average", avgClassesPerDay(slots)),
	})

	b2b := float64(backToBackCount(slots)) * 5
	risk.Components = append(risk.Components, dto.BurnoutComponent{
		Name:   "back_to_back",
		Score:  capAt(b2b, burnoutBackToBackCap),
		Detail: fmt.Sprintf("%d consecutive-period stretches", backToBackCount(slots)),
	})

	preps, students, supportPct, err := s.courseLoad(ctx, slots)
	if err != nil {
		return nil, err
	}

	prepScore := 0.0
	if preps > 2 {
		prepScore = capAt(float64(preps-2)*5, burnoutPrepCap)
	}
	risk.Components = append(risk.Components, dto.BurnoutComponent{
		Name:   "prep_variety",
		Score:  prepScore,
		Detail: fmt.Sprintf("%d distinct preps", preps),
	})

	studentScore := 0.0
	if students > 100 {
		studentScore = capAt(float64(students-100)/10, burnoutStudentCap)
	}
	risk.Components = append(risk.Components, dto.BurnoutComponent{
		Name:   "student_load",
		Score:  studentScore,
		Detail: fmt.Sprintf("%d students total", students),
	})

	risk.Components = append(risk.Components, dto.BurnoutComponent{
		Name:   "support_sections",
		Score:  capAt(supportPct/5, burnoutSupportCap),
		Detail: fmt.Sprintf("%.0f%% high-support sections", supportPct),
	})

	for _, c := range risk.Components {
		risk.Score += c.Score
	}
	risk.Level = burnoutLevel(risk.Score)
	return risk, nil
}

// HighRiskTeachers returns every active teacher scoring at or above the
// threshold, highest first. A lower threshold can only grow the result set.
func (s *AnalyticsService) HighRiskTeachers(ctx context.Context, scheduleID string, threshold float64) ([]dto.BurnoutRisk, error) {
	if threshold < 0 || threshold > 100 {
		return nil, appErrors.Clone(appErrors.ErrInvalidParameter, "threshold must be between 0 and 100")
	}

	teachers, err := s.teachers.ListActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list teachers")
	}

	var out []dto.BurnoutRisk
	for _, teacher := range teachers {
		risk, err := s.BurnoutRisk(ctx, scheduleID, teacher.ID)
		if err != nil {
			return nil, err
		}
		if risk.Score >= threshold {
			out = append(out, *risk)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].TeacherID < out[j].TeacherID
	})
	return out, nil
}

func (s *AnalyticsService) courseLoad(ctx context.Context, slots []models.ScheduleSlot) (preps, students int, supportPct float64, err error) {
	seen := map[string]bool{}
	support := 0
	for _, slot := range slots {
		if slot.CourseID == "" || seen[slot.CourseID] {
			continue
		}
		seen[slot.CourseID] = true
		course, cerr := s.courses.FindByID(ctx, slot.CourseID)
		if cerr != nil {
			if errors.Is(cerr, sql.ErrNoRows) {
				continue
			}
			return 0, 0, 0, appErrors.Wrap(cerr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
		}
		preps++
		students += course.Enrollment
		if course.Subject == "Special Education" {
			support++
		}
	}
	if preps > 0 {
		supportPct = float64(support) / float64(preps) * 100
	}
	return preps, students, supportPct, nil
}

// avgClassesPerDay averages the A-day and B-day class counts; ALL slots meet
// on both.
func avgClassesPerDay(slots []models.ScheduleSlot) float64 {
	var aDay, bDay int
	for _, slot := range slots {
		switch slot.DayType {
		case models.DayTypeADay:
			aDay++
		case models.DayTypeBDay:
			bDay++
		default:
			aDay++
			bDay++
		}
	}
	return float64(aDay+bDay) / 2
}

// backToBackCount counts adjacent-period pairs within each day track. The
// passing interval between bells is too short to count as a break.
func backToBackCount(slots []models.ScheduleSlot) int {
	count := 0
	for _, day := range []string{models.DayTypeADay, models.DayTypeBDay} {
		periods := make([]int, 0, len(slots))
		for _, slot := range slots {
			if models.SameDay(slot.DayType, day) {
				periods = append(periods, slot.PeriodNumber)
			}
		}
		sort.Ints(periods)
		for i := 1; i < len(periods); i++ {
			if periods[i] == periods[i-1]+1 {
				count++
			}
		}
	}
	return count
}

func burnoutLevel(score float64) string {
	switch {
	case score >= 70:
		return dto.BurnoutHigh
	case score >= 50:
		return dto.BurnoutModerate
	case score >= 30:
		return dto.BurnoutLow
	}
	return dto.BurnoutMinimal
}

func capAt(v, max float64) float64 {
	if v > max {
		return max
	}
	return v
}
