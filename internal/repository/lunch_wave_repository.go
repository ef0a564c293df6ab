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

const lunchWaveColumns = `id, schedule_id, name, wave_order, start_time, end_time, max_capacity, current_assignments, grade_level_restriction, is_active, created_at, updated_at`

// LunchWaveRepository manages lunch wave rows and their seat counters.
type LunchWaveRepository struct {
	db *sqlx.DB
}

// NewLunchWaveRepository constructs a LunchWaveRepository.
func NewLunchWaveRepository(db *sqlx.DB) *LunchWaveRepository {
	return &LunchWaveRepository{db: db}
}

func (r *LunchWaveRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// Create inserts a wave.
func (r *LunchWaveRepository) Create(ctx context.Context, exec sqlx.ExtContext, wave *models.LunchWave) error {
	if wave.ID == "" {
		wave.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if wave.CreatedAt.IsZero() {
		wave.CreatedAt = now
	}
	wave.UpdatedAt = now

	const query = `
INSERT INTO lunch_waves (id, schedule_id, name, wave_order, start_time, end_time, max_capacity, current_assignments, grade_level_restriction, is_active, created_at, updated_at)
VALUES (:id, :schedule_id, :name, :wave_order, :start_time, :end_time, :max_capacity, :current_assignments, :grade_level_restriction, :is_active, :created_at, :updated_at)`

	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, wave); err != nil {
		return fmt.Errorf("insert lunch wave: %w", err)
	}
	return nil
}

// FindByID fetches a wave by ID.
func (r *LunchWaveRepository) FindByID(ctx context.Context, id string) (*models.LunchWave, error) {
	query := fmt.Sprintf("SELECT %s FROM lunch_waves WHERE id = $1", lunchWaveColumns)
	var wave models.LunchWave
	if err := r.db.GetContext(ctx, &wave, query, id); err != nil {
		return nil, err
	}
	return &wave, nil
}

// ListBySchedule returns a schedule's waves ordered by wave_order.
func (r *LunchWaveRepository) ListBySchedule(ctx context.Context, scheduleID string) ([]models.LunchWave, error) {
	query := fmt.Sprintf("SELECT %s FROM lunch_waves WHERE schedule_id = $1 ORDER BY wave_order ASC, id ASC", lunchWaveColumns)
	var waves []models.LunchWave
	if err := r.db.SelectContext(ctx, &waves, query, scheduleID); err != nil {
		return nil, fmt.Errorf("list lunch waves: %w", err)
	}
	return waves, nil
}

// AdjustCount shifts the denormalized seat counter by delta. The guard keeps
// the counter inside [0, max_capacity]; a zero-row update means the shift
// would have violated the bounds.
func (r *LunchWaveRepository) AdjustCount(ctx context.Context, exec sqlx.ExtContext, waveID string, delta int) error {
	const query = `
UPDATE lunch_waves SET current_assignments = current_assignments + $2, updated_at = $3
WHERE id = $1 AND current_assignments + $2 >= 0 AND current_assignments + $2 <= max_capacity`

	res, err := r.exec(exec).ExecContext(ctx, query, waveID, delta, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("adjust lunch wave count: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("adjust lunch wave count: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// SetCount overwrites the seat counter, used after a full rebalance recount.
func (r *LunchWaveRepository) SetCount(ctx context.Context, exec sqlx.ExtContext, waveID string, count int) error {
	const query = `UPDATE lunch_waves SET current_assignments = $2, updated_at = $3 WHERE id = $1`
	res, err := r.exec(exec).ExecContext(ctx, query, waveID, count, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("set lunch wave count: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set lunch wave count: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
