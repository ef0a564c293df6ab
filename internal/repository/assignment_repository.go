package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/meridian-sis/scheduler-api/internal/models"
	"github.com/meridian-sis/scheduler-api/internal/pattern"
)

const roomAssignmentColumns = `id, course_id, room_id, assignment_type, usage_pattern, priority, active, notes, created_at, updated_at`

// RoomAssignmentRepository manages persistence for course-room bindings.
type RoomAssignmentRepository struct {
	db *sqlx.DB
}

// NewRoomAssignmentRepository constructs a RoomAssignmentRepository.
func NewRoomAssignmentRepository(db *sqlx.DB) *RoomAssignmentRepository {
	return &RoomAssignmentRepository{db: db}
}

func (r *RoomAssignmentRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// Create inserts a new assignment. ID and timestamps are filled when empty.
func (r *RoomAssignmentRepository) Create(ctx context.Context, exec sqlx.ExtContext, assignment *models.RoomAssignment) error {
	if assignment.ID == "" {
		assignment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if assignment.CreatedAt.IsZero() {
		assignment.CreatedAt = now
	}
	assignment.UpdatedAt = now

	const query = `
INSERT INTO room_assignments (id, course_id, room_id, assignment_type, usage_pattern, priority, active, notes, created_at, updated_at)
VALUES (:id, :course_id, :room_id, :assignment_type, :usage_pattern, :priority, :active, :notes, :created_at, :updated_at)`

	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, assignment); err != nil {
		return fmt.Errorf("insert room assignment: %w", err)
	}
	return nil
}

// FindByID fetches an assignment by ID.
func (r *RoomAssignmentRepository) FindByID(ctx context.Context, id string) (*models.RoomAssignment, error) {
	query := fmt.Sprintf("SELECT %s FROM room_assignments WHERE id = $1", roomAssignmentColumns)
	var assignment models.RoomAssignment
	if err := r.db.GetContext(ctx, &assignment, query, id); err != nil {
		return nil, err
	}
	return &assignment, nil
}

// ListActiveByCourse returns the course's active assignments ordered by
// priority then ID so callers get a stable ordering.
func (r *RoomAssignmentRepository) ListActiveByCourse(ctx context.Context, courseID string) ([]models.RoomAssignment, error) {
	query := fmt.Sprintf(`SELECT %s FROM room_assignments WHERE course_id = $1 AND active = TRUE ORDER BY priority ASC, created_at ASC, id ASC`, roomAssignmentColumns)
	var assignments []models.RoomAssignment
	if err := r.db.SelectContext(ctx, &assignments, query, courseID); err != nil {
		return nil, fmt.Errorf("list course assignments: %w", err)
	}
	return assignments, nil
}

// ListActiveByRoom returns all active assignments that claim the room.
func (r *RoomAssignmentRepository) ListActiveByRoom(ctx context.Context, roomID string) ([]models.RoomAssignment, error) {
	query := fmt.Sprintf(`SELECT %s FROM room_assignments WHERE room_id = $1 AND active = TRUE ORDER BY priority ASC, created_at ASC, id ASC`, roomAssignmentColumns)
	var assignments []models.RoomAssignment
	if err := r.db.SelectContext(ctx, &assignments, query, roomID); err != nil {
		return nil, fmt.Errorf("list room assignments: %w", err)
	}
	return assignments, nil
}

// FindActivePrimary returns the course's active PRIMARY assignment, or
// sql.ErrNoRows when none exists.
func (r *RoomAssignmentRepository) FindActivePrimary(ctx context.Context, courseID string) (*models.RoomAssignment, error) {
	query := fmt.Sprintf(`SELECT %s FROM room_assignments WHERE course_id = $1 AND assignment_type = $2 AND active = TRUE LIMIT 1`, roomAssignmentColumns)
	var assignment models.RoomAssignment
	if err := r.db.GetContext(ctx, &assignment, query, courseID, pattern.TypePrimary); err != nil {
		return nil, err
	}
	return &assignment, nil
}

// Deactivate clears the active flag on an active assignment. The returned
// bool reports whether a row actually changed; callers distinguish a missing
// row from an already inactive one.
func (r *RoomAssignmentRepository) Deactivate(ctx context.Context, exec sqlx.ExtContext, id string) (bool, error) {
	const query = `UPDATE room_assignments SET active = FALSE, updated_at = $2 WHERE id = $1 AND active = TRUE`
	res, err := r.exec(exec).ExecContext(ctx, query, id, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("deactivate room assignment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("deactivate room assignment: %w", err)
	}
	return affected > 0, nil
}

// DeactivateAllForCourse bulk-clears every active assignment of a course and
// returns how many rows changed.
func (r *RoomAssignmentRepository) DeactivateAllForCourse(ctx context.Context, exec sqlx.ExtContext, courseID string) (int64, error) {
	const query = `UPDATE room_assignments SET active = FALSE, updated_at = $2 WHERE course_id = $1 AND active = TRUE`
	res, err := r.exec(exec).ExecContext(ctx, query, courseID, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("deactivate course assignments: %w", err)
	}
	return res.RowsAffected()
}

// DeactivateAllForRoom bulk-clears every active assignment claiming a room.
func (r *RoomAssignmentRepository) DeactivateAllForRoom(ctx context.Context, exec sqlx.ExtContext, roomID string) (int64, error) {
	const query = `UPDATE room_assignments SET active = FALSE, updated_at = $2 WHERE room_id = $1 AND active = TRUE`
	res, err := r.exec(exec).ExecContext(ctx, query, roomID, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("deactivate room assignments: %w", err)
	}
	return res.RowsAffected()
}

// PurgeAllForCourse permanently deletes every assignment of a course,
// inactive history included. Used when the course itself is retired.
func (r *RoomAssignmentRepository) PurgeAllForCourse(ctx context.Context, exec sqlx.ExtContext, courseID string) (int64, error) {
	const query = `DELETE FROM room_assignments WHERE course_id = $1`
	res, err := r.exec(exec).ExecContext(ctx, query, courseID)
	if err != nil {
		return 0, fmt.Errorf("purge course assignments: %w", err)
	}
	return res.RowsAffected()
}

// PurgeAllForRoom permanently deletes every assignment claiming a room.
func (r *RoomAssignmentRepository) PurgeAllForRoom(ctx context.Context, exec sqlx.ExtContext, roomID string) (int64, error) {
	const query = `DELETE FROM room_assignments WHERE room_id = $1`
	res, err := r.exec(exec).ExecContext(ctx, query, roomID)
	if err != nil {
		return 0, fmt.Errorf("purge room assignments: %w", err)
	}
	return res.RowsAffected()
}

// UpdatePriority moves an assignment to a new priority.
func (r *RoomAssignmentRepository) UpdatePriority(ctx context.Context, exec sqlx.ExtContext, id string, priority int) error {
	const query = `UPDATE room_assignments SET priority = $2, updated_at = $3 WHERE id = $1`
	res, err := r.exec(exec).ExecContext(ctx, query, id, priority, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update assignment priority: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update assignment priority: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
