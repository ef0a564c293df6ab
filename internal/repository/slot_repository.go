package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/meridian-sis/scheduler-api/internal/models"
)

const slotColumns = `id, schedule_id, course_id, teacher_id, room_id, period_number, day_type, pinned_by, pinned_at, created_at, updated_at`

// SlotRepository manages schedule slot rows.
type SlotRepository struct {
	db *sqlx.DB
}

// NewSlotRepository constructs a SlotRepository.
func NewSlotRepository(db *sqlx.DB) *SlotRepository {
	return &SlotRepository{db: db}
}

func (r *SlotRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// FindByID fetches a slot by ID.
func (r *SlotRepository) FindByID(ctx context.Context, id string) (*models.ScheduleSlot, error) {
	query := fmt.Sprintf("SELECT %s FROM schedule_slots WHERE id = $1", slotColumns)
	var slot models.ScheduleSlot
	if err := r.db.GetContext(ctx, &slot, query, id); err != nil {
		return nil, err
	}
	return &slot, nil
}

// ListBySchedule returns every slot of a schedule ordered by period.
func (r *SlotRepository) ListBySchedule(ctx context.Context, scheduleID string) ([]models.ScheduleSlot, error) {
	query := fmt.Sprintf("SELECT %s FROM schedule_slots WHERE schedule_id = $1 ORDER BY period_number ASC, id ASC", slotColumns)
	var slots []models.ScheduleSlot
	if err := r.db.SelectContext(ctx, &slots, query, scheduleID); err != nil {
		return nil, fmt.Errorf("list schedule slots: %w", err)
	}
	return slots, nil
}

// ListByTeacher returns a teacher's slots within a schedule ordered by period.
func (r *SlotRepository) ListByTeacher(ctx context.Context, scheduleID, teacherID string) ([]models.ScheduleSlot, error) {
	query := fmt.Sprintf("SELECT %s FROM schedule_slots WHERE schedule_id = $1 AND teacher_id = $2 ORDER BY period_number ASC, id ASC", slotColumns)
	var slots []models.ScheduleSlot
	if err := r.db.SelectContext(ctx, &slots, query, scheduleID, teacherID); err != nil {
		return nil, fmt.Errorf("list teacher slots: %w", err)
	}
	return slots, nil
}

// ListByRoom returns a room's slots within a schedule ordered by period.
func (r *SlotRepository) ListByRoom(ctx context.Context, scheduleID, roomID string) ([]models.ScheduleSlot, error) {
	query := fmt.Sprintf("SELECT %s FROM schedule_slots WHERE schedule_id = $1 AND room_id = $2 ORDER BY period_number ASC, id ASC", slotColumns)
	var slots []models.ScheduleSlot
	if err := r.db.SelectContext(ctx, &slots, query, scheduleID, roomID); err != nil {
		return nil, fmt.Errorf("list room slots: %w", err)
	}
	return slots, nil
}

// UpdateAssignment rewrites the teacher and room of a slot.
func (r *SlotRepository) UpdateAssignment(ctx context.Context, exec sqlx.ExtContext, slotID, teacherID, roomID string) error {
	const query = `UPDATE schedule_slots SET teacher_id = $2, room_id = $3, updated_at = $4 WHERE id = $1`
	res, err := r.exec(exec).ExecContext(ctx, query, slotID, teacherID, roomID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update slot assignment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update slot assignment: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Pin marks the slot as excluded from automated reassignment.
func (r *SlotRepository) Pin(ctx context.Context, exec sqlx.ExtContext, slotID, pinnedBy string) error {
	const query = `UPDATE schedule_slots SET pinned_by = $2, pinned_at = $3, updated_at = $3 WHERE id = $1`
	res, err := r.exec(exec).ExecContext(ctx, query, slotID, pinnedBy, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("pin slot: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("pin slot: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Unpin clears the pin fields.
func (r *SlotRepository) Unpin(ctx context.Context, exec sqlx.ExtContext, slotID string) error {
	const query = `UPDATE schedule_slots SET pinned_by = NULL, pinned_at = NULL, updated_at = $2 WHERE id = $1`
	res, err := r.exec(exec).ExecContext(ctx, query, slotID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("unpin slot: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("unpin slot: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
