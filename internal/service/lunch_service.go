package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/meridian-sis/scheduler-api/internal/dto"
	"github.com/meridian-sis/scheduler-api/internal/models"
	appErrors "github.com/meridian-sis/scheduler-api/pkg/errors"
)

type lunchWaveStore interface {
	Create(ctx context.Context, exec sqlx.ExtContext, wave *models.LunchWave) error
	FindByID(ctx context.Context, id string) (*models.LunchWave, error)
	ListBySchedule(ctx context.Context, scheduleID string) ([]models.LunchWave, error)
	AdjustCount(ctx context.Context, exec sqlx.ExtContext, waveID string, delta int) error
	SetCount(ctx context.Context, exec sqlx.ExtContext, waveID string, count int) error
}

type lunchAssignmentStore interface {
	CreateStudent(ctx context.Context, exec sqlx.ExtContext, a *models.StudentLunchAssignment) error
	FindStudent(ctx context.Context, scheduleID, studentID string) (*models.StudentLunchAssignment, error)
	ListStudentsByWave(ctx context.Context, waveID string) ([]models.StudentLunchAssignment, error)
	MoveStudent(ctx context.Context, exec sqlx.ExtContext, assignmentID, waveID, method string, manual bool) error
	SetStudentLock(ctx context.Context, exec sqlx.ExtContext, assignmentID string, locked bool) error
	DeleteStudent(ctx context.Context, exec sqlx.ExtContext, assignmentID string) error
	DeleteStudentsBySchedule(ctx context.Context, exec sqlx.ExtContext, scheduleID string, keepLocked bool) (int64, error)
	CreateTeacher(ctx context.Context, exec sqlx.ExtContext, a *models.TeacherLunchAssignment) error
	FindTeacher(ctx context.Context, scheduleID, teacherID string) (*models.TeacherLunchAssignment, error)
	ListTeachersByWave(ctx context.Context, waveID string) ([]models.TeacherLunchAssignment, error)
	MoveTeacher(ctx context.Context, exec sqlx.ExtContext, assignmentID, waveID string) error
	SetSupervision(ctx context.Context, exec sqlx.ExtContext, assignmentID string, duty bool, location *string) error
}

type lunchStudentReader interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
	ListActiveAlphabetical(ctx context.Context) ([]models.Student, error)
}

type lunchTeacherReader interface {
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
	ListActive(ctx context.Context) ([]models.Teacher, error)
}

// LunchService places students and teachers into lunch waves and keeps wave
// occupancy inside capacity. Cross-wave moves lock both waves in ascending ID
// order; bulk strategy runs serialize per schedule.
type LunchService struct {
	waves         lunchWaveStore
	assignments   lunchAssignmentStore
	students      lunchStudentReader
	teachers      lunchTeacherReader
	tx            txProvider
	locks         *keyedMutex
	scheduleLocks *keyedMutex
	validator     *validator.Validate
	logger        *zap.Logger
}

// NewLunchService builds a LunchService with sane defaults.
func NewLunchService(
	waves lunchWaveStore,
	assignments lunchAssignmentStore,
	students lunchStudentReader,
	teachers lunchTeacherReader,
	tx txProvider,
	validate *validator.Validate,
	logger *zap.Logger,
) *LunchService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LunchService{
		waves:         waves,
		assignments:   assignments,
		students:      students,
		teachers:      teachers,
		tx:            tx,
		locks:         newKeyedMutex(),
		scheduleLocks: newKeyedMutex(),
		validator:     validate,
		logger:        logger,
	}
}

// AssignAll runs a placement strategy over every active student. Locked and
// manually placed students stay where they are; everyone else is reseated.
func (s *LunchService) AssignAll(ctx context.Context, req dto.AssignLunchRequest) (*dto.LunchAssignmentSummary, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	if !models.ValidLunchMethod(req.Method) {
		return nil, appErrors.Clone(appErrors.ErrInvalidParameter, fmt.Sprintf("unknown assignment method %q", req.Method))
	}
	if req.Method == models.LunchMethodManual {
		return nil, appErrors.Clone(appErrors.ErrInvalidParameter, "manual placement assigns one student at a time")
	}

	unlock := s.scheduleLocks.Lock(req.ScheduleID)
	defer unlock()

	waves, err := s.waves.ListBySchedule(ctx, req.ScheduleID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list lunch waves")
	}
	waves = activeWaves(waves)
	if len(waves) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule has no active lunch waves")
	}

	students, err := s.students.ListActiveAlphabetical(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}

	// Pinned placements survive the re-run and pre-load wave occupancy.
	fixed := make(map[string]string)
	occupancy := make(map[string]int, len(waves))
	for _, wave := range waves {
		placed, err := s.assignments.ListStudentsByWave(ctx, wave.ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list wave assignments")
		}
		for _, a := range placed {
			if !a.Movable() {
				fixed[a.StudentID] = wave.ID
				occupancy[wave.ID]++
			}
		}
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = s.assignments.DeleteStudentsBySchedule(ctx, tx, req.ScheduleID, true); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear previous assignments")
		return nil, err
	}

	summary := &dto.LunchAssignmentSummary{ScheduleID: req.ScheduleID, Method: req.Method}
	for _, student := range students {
		if _, ok := fixed[student.ID]; ok {
			summary.SkippedLocked++
			continue
		}

		waveID := pickWave(waves, occupancy, student.GradeLevel, req.Method)
		if waveID == "" {
			summary.UnassignedIDs = append(summary.UnassignedIDs, student.ID)
			continue
		}

		assignment := &models.StudentLunchAssignment{
			WaveID:    waveID,
			StudentID: student.ID,
			Method:    req.Method,
		}
		if err = s.assignments.CreateStudent(ctx, tx, assignment); err != nil {
			err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to place student")
			return nil, err
		}
		occupancy[waveID]++
		summary.AssignedCount++
	}

	for _, wave := range waves {
		if err = s.waves.SetCount(ctx, tx, wave.ID, occupancy[wave.ID]); err != nil {
			err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update wave counter")
			return nil, err
		}
	}
	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit placement")
		return nil, err
	}

	for _, wave := range waves {
		summary.WaveOccupancy = append(summary.WaveOccupancy, dto.WaveOccupancy{
			WaveID:    wave.ID,
			Name:      wave.Name,
			WaveOrder: wave.WaveOrder,
			Assigned:  occupancy[wave.ID],
			Capacity:  wave.MaxCapacity,
		})
	}

	s.logger.Info("lunch placement completed",
		zap.String("scheduleId", req.ScheduleID),
		zap.String("method", req.Method),
		zap.Int("assigned", summary.AssignedCount),
		zap.Int("skippedLocked", summary.SkippedLocked),
		zap.Int("unassigned", len(summary.UnassignedIDs)))
	return summary, nil
}

// pickWave chooses the wave for one student. Alphabetical placement fills
// waves in wave order; balanced placement keeps occupancy ratios level by
// picking the eligible wave whose projected fill fraction is lowest, breaking
// ties on wave order. Returns empty when no eligible wave has room.
func pickWave(waves []models.LunchWave, occupancy map[string]int, grade int, method string) string {
	bestID := ""
	bestRatio := 0.0
	for _, wave := range waves {
		if !wave.IsActive || !wave.AcceptsGrade(grade) {
			continue
		}
		free := wave.MaxCapacity - occupancy[wave.ID]
		if free <= 0 {
			continue
		}
		if method == models.LunchMethodAlphabetical {
			return wave.ID
		}
		ratio := float64(occupancy[wave.ID]+1) / float64(wave.MaxCapacity)
		if bestID == "" || ratio < bestRatio {
			bestID = wave.ID
			bestRatio = ratio
		}
	}
	return bestID
}

// ReassignStudent moves one student to a chosen wave. The placement is marked
// manual so later strategy runs leave it alone.
func (s *LunchService) ReassignStudent(ctx context.Context, req dto.ReassignStudentRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Clone(appErrors.ErrValidation, err.Error())
	}

	student, err := s.students.FindByID(ctx, req.StudentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrInvalidResource, fmt.Sprintf("student %s not found", req.StudentID))
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	target, err := s.waves.FindByID(ctx, req.WaveID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "lunch wave not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lunch wave")
	}
	if target.ScheduleID != req.ScheduleID {
		return appErrors.Clone(appErrors.ErrInvalidParameter, "wave belongs to another schedule")
	}
	if !target.AcceptsGrade(student.GradeLevel) {
		return appErrors.Clone(appErrors.ErrInvalidParameter,
			fmt.Sprintf("wave %s is restricted to grade %d", target.Name, *target.GradeLevelRestriction))
	}

	current, err := s.assignments.FindStudent(ctx, req.ScheduleID, req.StudentID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load current placement")
	}

	fromID := ""
	if current != nil {
		if current.WaveID == target.ID {
			return nil
		}
		fromID = current.WaveID
	}

	unlock := s.lockWaves(fromID, target.ID)
	defer unlock()

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	// Seat in the target first: the bounds guard turns a full wave into a
	// zero-row update and the whole move rolls back.
	if err = s.waves.AdjustCount(ctx, tx, target.ID, 1); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = appErrors.Clone(appErrors.ErrCapacityExceeded, fmt.Sprintf("wave %s is full", target.Name))
			return err
		}
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reserve seat")
		return err
	}

	if current != nil {
		if err = s.assignments.MoveStudent(ctx, tx, current.ID, target.ID, models.LunchMethodManual, true); err != nil {
			err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to move student")
			return err
		}
		if err = s.waves.AdjustCount(ctx, tx, fromID, -1); err != nil {
			err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to release seat")
			return err
		}
		if req.Lock {
			if err = s.assignments.SetStudentLock(ctx, tx, current.ID, true); err != nil {
				err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to lock placement")
				return err
			}
		}
	} else {
		assignment := &models.StudentLunchAssignment{
			WaveID:         target.ID,
			StudentID:      student.ID,
			Method:         models.LunchMethodManual,
			Locked:         req.Lock,
			ManualOverride: true,
		}
		if err = s.assignments.CreateStudent(ctx, tx, assignment); err != nil {
			err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to place student")
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit move")
		return err
	}

	s.logger.Info("student reassigned",
		zap.String("studentId", student.ID),
		zap.String("fromWave", fromID),
		zap.String("toWave", target.ID),
		zap.Bool("locked", req.Lock))
	return nil
}

// ReassignTeacher moves a teacher to a wave, creating the placement when none
// exists. Teachers do not consume student seats.
func (s *LunchService) ReassignTeacher(ctx context.Context, req dto.ReassignTeacherRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Clone(appErrors.ErrValidation, err.Error())
	}

	if _, err := s.teachers.FindByID(ctx, req.TeacherID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrInvalidResource, fmt.Sprintf("teacher %s not found", req.TeacherID))
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}

	target, err := s.waves.FindByID(ctx, req.WaveID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "lunch wave not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lunch wave")
	}
	if target.ScheduleID != req.ScheduleID {
		return appErrors.Clone(appErrors.ErrInvalidParameter, "wave belongs to another schedule")
	}

	current, err := s.assignments.FindTeacher(ctx, req.ScheduleID, req.TeacherID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher placement")
	}

	if current == nil {
		assignment := &models.TeacherLunchAssignment{
			WaveID:              target.ID,
			TeacherID:           req.TeacherID,
			SupervisionDuty:     req.SupervisionDuty,
			SupervisionLocation: req.SupervisionLocation,
		}
		if err := s.assignments.CreateTeacher(ctx, nil, assignment); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to place teacher")
		}
	} else {
		if current.WaveID != target.ID {
			if err := s.assignments.MoveTeacher(ctx, nil, current.ID, target.ID); err != nil {
				return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to move teacher")
			}
		}
		if err := s.assignments.SetSupervision(ctx, nil, current.ID, req.SupervisionDuty, req.SupervisionLocation); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update supervision duty")
		}
	}

	s.logger.Info("teacher reassigned",
		zap.String("teacherId", req.TeacherID),
		zap.String("waveId", target.ID),
		zap.Bool("supervision", req.SupervisionDuty))
	return nil
}

// AssignTeachers spreads every active teacher without a placement across the
// schedule's waves round-robin, so supervision coverage stays even. Existing
// placements are untouched. Returns how many teachers were placed.
func (s *LunchService) AssignTeachers(ctx context.Context, scheduleID string) (int, error) {
	if scheduleID == "" {
		return 0, appErrors.Clone(appErrors.ErrInvalidParameter, "scheduleId is required")
	}
	unlock := s.scheduleLocks.Lock(scheduleID)
	defer unlock()

	waves, err := s.waves.ListBySchedule(ctx, scheduleID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list lunch waves")
	}
	waves = activeWaves(waves)
	if len(waves) == 0 {
		return 0, appErrors.Clone(appErrors.ErrNotFound, "schedule has no active lunch waves")
	}
	sort.Slice(waves, func(i, j int) bool { return waves[i].WaveOrder < waves[j].WaveOrder })

	teachers, err := s.teachers.ListActive(ctx)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list teachers")
	}

	placed := 0
	next := 0
	for _, teacher := range teachers {
		_, err := s.assignments.FindTeacher(ctx, scheduleID, teacher.ID)
		if err == nil {
			continue
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return placed, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher placement")
		}
		assignment := &models.TeacherLunchAssignment{
			WaveID:    waves[next%len(waves)].ID,
			TeacherID: teacher.ID,
		}
		if err := s.assignments.CreateTeacher(ctx, nil, assignment); err != nil {
			return placed, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to place teacher")
		}
		next++
		placed++
	}

	s.logger.Info("teachers assigned to waves",
		zap.String("scheduleId", scheduleID),
		zap.Int("placed", placed),
		zap.Int("waves", len(waves)))
	return placed, nil
}

// SetSupervisionDuty marks a teacher's placement as a supervision shift.
// Supervision never affects wave seat counts.
func (s *LunchService) SetSupervisionDuty(ctx context.Context, scheduleID, teacherID string, location *string) error {
	assignment, err := s.assignments.FindTeacher(ctx, scheduleID, teacherID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "teacher has no lunch placement")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher placement")
	}
	if err := s.assignments.SetSupervision(ctx, nil, assignment.ID, true, location); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to set supervision duty")
	}
	return nil
}

// ClearSupervisionDuty releases a teacher's supervision shift.
func (s *LunchService) ClearSupervisionDuty(ctx context.Context, scheduleID, teacherID string) error {
	assignment, err := s.assignments.FindTeacher(ctx, scheduleID, teacherID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "teacher has no lunch placement")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher placement")
	}
	if err := s.assignments.SetSupervision(ctx, nil, assignment.ID, false, nil); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear supervision duty")
	}
	return nil
}

// SetStudentLock pins or releases a student's placement.
func (s *LunchService) SetStudentLock(ctx context.Context, scheduleID, studentID string, locked bool) error {
	assignment, err := s.assignments.FindStudent(ctx, scheduleID, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "student has no lunch placement")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load placement")
	}
	if err := s.assignments.SetStudentLock(ctx, nil, assignment.ID, locked); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update lock")
	}
	return nil
}

// RemoveStudentAssignment drops a student's placement and releases the seat.
func (s *LunchService) RemoveStudentAssignment(ctx context.Context, scheduleID, studentID string) error {
	if scheduleID == "" || studentID == "" {
		return appErrors.Clone(appErrors.ErrInvalidParameter, "scheduleId and studentId are required")
	}
	assignment, err := s.assignments.FindStudent(ctx, scheduleID, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "student has no lunch placement")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load placement")
	}

	unlock := s.locks.Lock(assignment.WaveID)
	defer unlock()

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = s.assignments.DeleteStudent(ctx, tx, assignment.ID); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove placement")
		return err
	}
	if err = s.waves.AdjustCount(ctx, tx, assignment.WaveID, -1); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to release seat")
		return err
	}
	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit removal")
		return err
	}

	s.logger.Info("student lunch placement removed",
		zap.String("studentId", studentID),
		zap.String("waveId", assignment.WaveID))
	return nil
}

// ClearAssignments wipes a schedule's student placements and recounts each
// wave. Locked and manually placed students survive when keepLocked is set.
func (s *LunchService) ClearAssignments(ctx context.Context, scheduleID string, keepLocked bool) (int64, error) {
	if scheduleID == "" {
		return 0, appErrors.Clone(appErrors.ErrInvalidParameter, "scheduleId is required")
	}
	unlock := s.scheduleLocks.Lock(scheduleID)
	defer unlock()

	waves, err := s.waves.ListBySchedule(ctx, scheduleID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list lunch waves")
	}

	removed, err := s.assignments.DeleteStudentsBySchedule(ctx, nil, scheduleID, keepLocked)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear placements")
	}

	for _, wave := range waves {
		remaining, err := s.assignments.ListStudentsByWave(ctx, wave.ID)
		if err != nil {
			return removed, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to recount wave")
		}
		if err := s.waves.SetCount(ctx, nil, wave.ID, len(remaining)); err != nil {
			return removed, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reset wave count")
		}
	}

	s.logger.Info("lunch placements cleared",
		zap.String("scheduleId", scheduleID),
		zap.Int64("removed", removed),
		zap.Bool("keepLocked", keepLocked))
	return removed, nil
}

// WaveRoster returns one wave with everyone seated in it.
func (s *LunchService) WaveRoster(ctx context.Context, waveID string) (*dto.LunchWaveRoster, error) {
	wave, err := s.waves.FindByID(ctx, waveID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "lunch wave not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lunch wave")
	}
	students, err := s.assignments.ListStudentsByWave(ctx, waveID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list wave students")
	}
	teachers, err := s.assignments.ListTeachersByWave(ctx, waveID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list wave teachers")
	}
	return &dto.LunchWaveRoster{Wave: *wave, Students: students, Teachers: teachers}, nil
}

// UnassignedStudents lists active students a schedule's waves have no seat
// for yet, in alphabetical order.
func (s *LunchService) UnassignedStudents(ctx context.Context, scheduleID string) ([]models.Student, error) {
	if scheduleID == "" {
		return nil, appErrors.Clone(appErrors.ErrInvalidParameter, "scheduleId is required")
	}
	waves, err := s.waves.ListBySchedule(ctx, scheduleID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list lunch waves")
	}

	seated := make(map[string]struct{})
	for _, wave := range waves {
		assignments, err := s.assignments.ListStudentsByWave(ctx, wave.ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list wave students")
		}
		for _, a := range assignments {
			seated[a.StudentID] = struct{}{}
		}
	}

	students, err := s.students.ListActiveAlphabetical(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	out := make([]models.Student, 0)
	for _, st := range students {
		if _, ok := seated[st.ID]; !ok {
			out = append(out, st)
		}
	}
	return out, nil
}

// Rebalance evens out wave occupancy by moving movable students from the
// fullest eligible wave to the emptiest until the spread is at most one, or
// no legal move remains.
func (s *LunchService) Rebalance(ctx context.Context, scheduleID string, maxMoves int) (*dto.LunchAssignmentSummary, error) {
	if maxMoves <= 0 {
		maxMoves = 200
	}

	unlock := s.scheduleLocks.Lock(scheduleID)
	defer unlock()

	waves, err := s.waves.ListBySchedule(ctx, scheduleID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list lunch waves")
	}
	waves = activeWaves(waves)
	if len(waves) < 2 {
		return nil, appErrors.Clone(appErrors.ErrInvalidParameter, "rebalancing needs at least two active waves")
	}

	waveByID := make(map[string]*models.LunchWave, len(waves))
	occupancy := make(map[string]int, len(waves))
	movable := make(map[string][]models.StudentLunchAssignment, len(waves))
	grades := make(map[string]int)
	for i := range waves {
		wave := &waves[i]
		waveByID[wave.ID] = wave
		placed, err := s.assignments.ListStudentsByWave(ctx, wave.ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list wave assignments")
		}
		occupancy[wave.ID] = len(placed)
		for _, a := range placed {
			if a.Movable() {
				movable[wave.ID] = append(movable[wave.ID], a)
			}
		}
	}

	type move struct {
		assignment models.StudentLunchAssignment
		from, to   string
	}
	var moves []move
	for len(moves) < maxMoves {
		fromID, toID := spreadEndpoints(waves, occupancy)
		if fromID == "" || occupancy[fromID]-occupancy[toID] <= 1 {
			break
		}
		candidates := movable[fromID]
		picked := -1
		for i, a := range candidates {
			grade, err := s.studentGrade(ctx, grades, a.StudentID)
			if err != nil {
				return nil, err
			}
			if waveByID[toID].AcceptsGrade(grade) {
				picked = i
				break
			}
		}
		if picked < 0 {
			break
		}
		a := candidates[picked]
		movable[fromID] = append(candidates[:picked], candidates[picked+1:]...)
		occupancy[fromID]--
		occupancy[toID]++
		moves = append(moves, move{assignment: a, from: fromID, to: toID})
	}

	summary := &dto.LunchAssignmentSummary{ScheduleID: scheduleID, Method: models.LunchMethodBalanced}
	if len(moves) == 0 {
		for _, wave := range waves {
			summary.WaveOccupancy = append(summary.WaveOccupancy, dto.WaveOccupancy{
				WaveID: wave.ID, Name: wave.Name, WaveOrder: wave.WaveOrder,
				Assigned: occupancy[wave.ID], Capacity: wave.MaxCapacity,
			})
		}
		return summary, nil
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, m := range moves {
		if err = s.assignments.MoveStudent(ctx, tx, m.assignment.ID, m.to, models.LunchMethodBalanced, false); err != nil {
			err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to move student")
			return nil, err
		}
	}
	for _, wave := range waves {
		if err = s.waves.SetCount(ctx, tx, wave.ID, occupancy[wave.ID]); err != nil {
			err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update wave counter")
			return nil, err
		}
	}
	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit rebalance")
		return nil, err
	}

	summary.AssignedCount = len(moves)
	for _, wave := range waves {
		summary.WaveOccupancy = append(summary.WaveOccupancy, dto.WaveOccupancy{
			WaveID: wave.ID, Name: wave.Name, WaveOrder: wave.WaveOrder,
			Assigned: occupancy[wave.ID], Capacity: wave.MaxCapacity,
		})
	}

	s.logger.Info("lunch waves rebalanced", zap.String("scheduleId", scheduleID), zap.Int("moves", len(moves)))
	return summary, nil
}

// activeWaves filters a schedule's waves down to the ones still open for
// placement. Retired waves keep their rows and rosters but take no seats.
func activeWaves(waves []models.LunchWave) []models.LunchWave {
	out := waves[:0:0]
	for _, wave := range waves {
		if wave.IsActive {
			out = append(out, wave)
		}
	}
	return out
}

// spreadEndpoints returns the fullest and emptiest waves by occupancy,
// breaking ties on wave order.
func spreadEndpoints(waves []models.LunchWave, occupancy map[string]int) (fromID, toID string) {
	for _, wave := range waves {
		if fromID == "" || occupancy[wave.ID] > occupancy[fromID] {
			fromID = wave.ID
		}
		if toID == "" || occupancy[wave.ID] < occupancy[toID] {
			toID = wave.ID
		}
	}
	if fromID == toID {
		return "", ""
	}
	return fromID, toID
}

func (s *LunchService) studentGrade(ctx context.Context, cache map[string]int, studentID string) (int, error) {
	if grade, ok := cache[studentID]; ok {
		return grade, nil
	}
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	cache[studentID] = student.GradeLevel
	return student.GradeLevel, nil
}

// Validate audits a schedule's waves: every active student seated, counters
// and capacities honest, grade restrictions respected.
func (s *LunchService) Validate(ctx context.Context, scheduleID string) (*dto.LunchValidationReport, error) {
	waves, err := s.waves.ListBySchedule(ctx, scheduleID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list lunch waves")
	}

	report := &dto.LunchValidationReport{
		ScheduleID:           scheduleID,
		AllAssigned:          true,
		CapacitiesRespected:  true,
		GradeLevelsRespected: true,
	}
	grades := make(map[string]int)
	seated := make(map[string]struct{})
	for _, wave := range waves {
		placed, err := s.assignments.ListStudentsByWave(ctx, wave.ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list wave assignments")
		}
		for _, a := range placed {
			seated[a.StudentID] = struct{}{}
		}
		if len(placed) != wave.CurrentAssignments {
			report.CapacitiesRespected = false
			report.Problems = append(report.Problems,
				fmt.Sprintf("wave %s counter reads %d but %d students are placed", wave.Name, wave.CurrentAssignments, len(placed)))
		}
		if len(placed) > wave.MaxCapacity {
			report.CapacitiesRespected = false
			report.Problems = append(report.Problems,
				fmt.Sprintf("wave %s holds %d students over capacity %d", wave.Name, len(placed), wave.MaxCapacity))
		}
		if wave.GradeLevelRestriction != nil {
			for _, a := range placed {
				grade, err := s.studentGrade(ctx, grades, a.StudentID)
				if err != nil {
					return nil, err
				}
				if grade != *wave.GradeLevelRestriction {
					report.GradeLevelsRespected = false
					report.Problems = append(report.Problems,
						fmt.Sprintf("student %s (grade %d) sits in wave %s restricted to grade %d", a.StudentID, grade, wave.Name, *wave.GradeLevelRestriction))
				}
			}
		}
	}

	students, err := s.students.ListActiveAlphabetical(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	for _, student := range students {
		if _, ok := seated[student.ID]; !ok {
			report.AllAssigned = false
			report.Problems = append(report.Problems,
				fmt.Sprintf("student %s has no lunch wave", student.ID))
		}
	}

	sort.Strings(report.Problems)
	report.Valid = report.AllAssigned && report.CapacitiesRespected && report.GradeLevelsRespected
	return report, nil
}

// Waves returns a schedule's waves with occupancy.
func (s *LunchService) Waves(ctx context.Context, scheduleID string) ([]models.LunchWave, error) {
	waves, err := s.waves.ListBySchedule(ctx, scheduleID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list lunch waves")
	}
	return waves, nil
}

func (s *LunchService) lockWaves(fromID, toID string) func() {
	if fromID == "" {
		return s.locks.Lock(toID)
	}
	return s.locks.LockPair(fromID, toID)
}
