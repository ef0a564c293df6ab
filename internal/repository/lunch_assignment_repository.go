package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/meridian-sis/scheduler-api/internal/models"
)

const studentLunchColumns = `id, wave_id, student_id, method, locked, manual_override, assigned_at`
const teacherLunchColumns = `id, wave_id, teacher_id, supervision_duty, supervision_location, locked, assigned_at`

// LunchAssignmentRepository manages student and teacher wave placements.
type LunchAssignmentRepository struct {
	db *sqlx.DB
}

// NewLunchAssignmentRepository constructs a LunchAssignmentRepository.
func NewLunchAssignmentRepository(db *sqlx.DB) *LunchAssignmentRepository {
	return &LunchAssignmentRepository{db: db}
}

func (r *LunchAssignmentRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// CreateStudent inserts a student placement.
func (r *LunchAssignmentRepository) CreateStudent(ctx context.Context, exec sqlx.ExtContext, a *models.StudentLunchAssignment) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.AssignedAt.IsZero() {
		a.AssignedAt = time.Now().UTC()
	}
	const query = `
INSERT INTO student_lunch_assignments (id, wave_id, student_id, method, locked, manual_override, assigned_at)
VALUES (:id, :wave_id, :student_id, :method, :locked, :manual_override, :assigned_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, a); err != nil {
		return fmt.Errorf("insert student lunch assignment: %w", err)
	}
	return nil
}

// FindStudent returns a student's placement within a schedule's waves, or
// sql.ErrNoRows.
func (r *LunchAssignmentRepository) FindStudent(ctx context.Context, scheduleID, studentID string) (*models.StudentLunchAssignment, error) {
	query := fmt.Sprintf(`SELECT %s FROM student_lunch_assignments a
JOIN lunch_waves w ON w.id = a.wave_id
WHERE w.schedule_id = $1 AND a.student_id = $2`, prefixColumns("a", studentLunchColumns))
	var a models.StudentLunchAssignment
	if err := r.db.GetContext(ctx, &a, query, scheduleID, studentID); err != nil {
		return nil, err
	}
	return &a, nil
}

// ListStudentsByWave returns all student placements in a wave ordered by
// student ID for deterministic iteration.
func (r *LunchAssignmentRepository) ListStudentsByWave(ctx context.Context, waveID string) ([]models.StudentLunchAssignment, error) {
	query := fmt.Sprintf("SELECT %s FROM student_lunch_assignments WHERE wave_id = $1 ORDER BY student_id ASC", studentLunchColumns)
	var out []models.StudentLunchAssignment
	if err := r.db.SelectContext(ctx, &out, query, waveID); err != nil {
		return nil, fmt.Errorf("list wave students: %w", err)
	}
	return out, nil
}

// MoveStudent repoints a placement at another wave, recording how and why.
func (r *LunchAssignmentRepository) MoveStudent(ctx context.Context, exec sqlx.ExtContext, assignmentID, waveID, method string, manual bool) error {
	const query = `UPDATE student_lunch_assignments SET wave_id = $2, method = $3, manual_override = $4, assigned_at = $5 WHERE id = $1`
	res, err := r.exec(exec).ExecContext(ctx, query, assignmentID, waveID, method, manual, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("move student lunch assignment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("move student lunch assignment: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// SetStudentLock toggles the lock flag on a placement.
func (r *LunchAssignmentRepository) SetStudentLock(ctx context.Context, exec sqlx.ExtContext, assignmentID string, locked bool) error {
	const query = `UPDATE student_lunch_assignments SET locked = $2 WHERE id = $1`
	res, err := r.exec(exec).ExecContext(ctx, query, assignmentID, locked)
	if err != nil {
		return fmt.Errorf("set student lunch lock: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set student lunch lock: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteStudent removes a single placement.
func (r *LunchAssignmentRepository) DeleteStudent(ctx context.Context, exec sqlx.ExtContext, assignmentID string) error {
	const query = `DELETE FROM student_lunch_assignments WHERE id = $1`
	res, err := r.exec(exec).ExecContext(ctx, query, assignmentID)
	if err != nil {
		return fmt.Errorf("delete student lunch assignment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete student lunch assignment: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteStudentsBySchedule clears every student placement for a schedule,
// used before a strategy re-run.
func (r *LunchAssignmentRepository) DeleteStudentsBySchedule(ctx context.Context, exec sqlx.ExtContext, scheduleID string, keepLocked bool) (int64, error) {
	query := `
DELETE FROM student_lunch_assignments a USING lunch_waves w
WHERE w.id = a.wave_id AND w.schedule_id = $1`
	if keepLocked {
		query += " AND a.locked = FALSE AND a.manual_override = FALSE"
	}
	res, err := r.exec(exec).ExecContext(ctx, query, scheduleID)
	if err != nil {
		return 0, fmt.Errorf("delete schedule lunch assignments: %w", err)
	}
	return res.RowsAffected()
}

// CreateTeacher inserts a teacher placement.
func (r *LunchAssignmentRepository) CreateTeacher(ctx context.Context, exec sqlx.ExtContext, a *models.TeacherLunchAssignment) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.AssignedAt.IsZero() {
		a.AssignedAt = time.Now().UTC()
	}
	const query = `
INSERT INTO teacher_lunch_assignments (id, wave_id, teacher_id, supervision_duty, supervision_location, locked, assigned_at)
VALUES (:id, :wave_id, :teacher_id, :supervision_duty, :supervision_location, :locked, :assigned_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, a); err != nil {
		return fmt.Errorf("insert teacher lunch assignment: %w", err)
	}
	return nil
}

// FindTeacher returns a teacher's placement within a schedule's waves.
func (r *LunchAssignmentRepository) FindTeacher(ctx context.Context, scheduleID, teacherID string) (*models.TeacherLunchAssignment, error) {
	query := fmt.Sprintf(`SELECT %s FROM teacher_lunch_assignments a
JOIN lunch_waves w ON w.id = a.wave_id
WHERE w.schedule_id = $1 AND a.teacher_id = $2`, prefixColumns("a", teacherLunchColumns))
	var a models.TeacherLunchAssignment
	if err := r.db.GetContext(ctx, &a, query, scheduleID, teacherID); err != nil {
		return nil, err
	}
	return &a, nil
}

// ListTeachersByWave returns teacher placements in a wave.
func (r *LunchAssignmentRepository) ListTeachersByWave(ctx context.Context, waveID string) ([]models.TeacherLunchAssignment, error) {
	query := fmt.Sprintf("SELECT %s FROM teacher_lunch_assignments WHERE wave_id = $1 ORDER BY teacher_id ASC", teacherLunchColumns)
	var out []models.TeacherLunchAssignment
	if err := r.db.SelectContext(ctx, &out, query, waveID); err != nil {
		return nil, fmt.Errorf("list wave teachers: %w", err)
	}
	return out, nil
}

// MoveTeacher repoints a teacher placement at another wave.
func (r *LunchAssignmentRepository) MoveTeacher(ctx context.Context, exec sqlx.ExtContext, assignmentID, waveID string) error {
	const query = `UPDATE teacher_lunch_assignments SET wave_id = $2, assigned_at = $3 WHERE id = $1`
	res, err := r.exec(exec).ExecContext(ctx, query, assignmentID, waveID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("move teacher lunch assignment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("move teacher lunch assignment: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// SetSupervision updates a teacher placement's supervision duty.
func (r *LunchAssignmentRepository) SetSupervision(ctx context.Context, exec sqlx.ExtContext, assignmentID string, duty bool, location *string) error {
	const query = `UPDATE teacher_lunch_assignments SET supervision_duty = $2, supervision_location = $3 WHERE id = $1`
	res, err := r.exec(exec).ExecContext(ctx, query, assignmentID, duty, location)
	if err != nil {
		return fmt.Errorf("set supervision duty: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set supervision duty: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
