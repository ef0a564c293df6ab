package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/meridian-sis/scheduler-api/internal/models"
)

const overrideColumns = `id, slot_id, override_type, old_teacher_id, new_teacher_id, old_room_id, new_room_id, reason, changed_by, changed_at, seq`

// OverrideRepository manages the slot change audit trail. Rows are append
// only; nothing updates or deletes them.
type OverrideRepository struct {
	db *sqlx.DB
}

// NewOverrideRepository constructs an OverrideRepository.
func NewOverrideRepository(db *sqlx.DB) *OverrideRepository {
	return &OverrideRepository{db: db}
}

func (r *OverrideRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// Insert appends an audit row. Seq is assigned inside the statement so rows
// for the same slot written in the same transaction order are strictly
// increasing even when their timestamps collide.
func (r *OverrideRepository) Insert(ctx context.Context, exec sqlx.ExtContext, override *models.ScheduleOverride) error {
	if override.ID == "" {
		override.ID = uuid.NewString()
	}
	if override.ChangedAt.IsZero() {
		override.ChangedAt = time.Now().UTC()
	}

	const query = `
INSERT INTO schedule_overrides (id, slot_id, override_type, old_teacher_id, new_teacher_id, old_room_id, new_room_id, reason, changed_by, changed_at, seq)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
        COALESCE((SELECT MAX(seq) FROM schedule_overrides WHERE slot_id = $2), 0) + 1)
RETURNING seq`

	row := r.exec(exec).QueryRowxContext(ctx, query,
		override.ID, override.SlotID, override.OverrideType,
		override.OldTeacherID, override.NewTeacherID,
		override.OldRoomID, override.NewRoomID,
		override.Reason, override.ChangedBy, override.ChangedAt)
	if err := row.Scan(&override.Seq); err != nil {
		return fmt.Errorf("insert schedule override: %w", err)
	}
	return nil
}

// HistoryBySlot returns the slot's audit rows newest first. Rows sharing a
// timestamp fall back to seq for a stable order.
func (r *OverrideRepository) HistoryBySlot(ctx context.Context, slotID string) ([]models.ScheduleOverride, error) {
	query := fmt.Sprintf("SELECT %s FROM schedule_overrides WHERE slot_id = $1 ORDER BY changed_at DESC, seq DESC", overrideColumns)
	var rows []models.ScheduleOverride
	if err := r.db.SelectContext(ctx, &rows, query, slotID); err != nil {
		return nil, fmt.Errorf("list slot overrides: %w", err)
	}
	return rows, nil
}

// HistoryBySchedule returns audit rows for every slot of a schedule, newest
// first, capped at limit.
func (r *OverrideRepository) HistoryBySchedule(ctx context.Context, scheduleID string, limit int) ([]models.ScheduleOverride, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	query := fmt.Sprintf(`SELECT %s FROM schedule_overrides o
JOIN schedule_slots s ON s.id = o.slot_id
WHERE s.schedule_id = $1 ORDER BY o.changed_at DESC, o.seq DESC LIMIT %d`,
		prefixColumns("o", overrideColumns), limit)
	var rows []models.ScheduleOverride
	if err := r.db.SelectContext(ctx, &rows, query, scheduleID); err != nil {
		return nil, fmt.Errorf("list schedule overrides: %w", err)
	}
	return rows, nil
}

// CountBySlot returns how many audit rows a slot has accumulated.
func (r *OverrideRepository) CountBySlot(ctx context.Context, slotID string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM schedule_overrides WHERE slot_id = $1", slotID); err != nil {
		return 0, fmt.Errorf("count slot overrides: %w", err)
	}
	return count, nil
}
