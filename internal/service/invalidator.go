package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/meridian-sis/scheduler-api/internal/models"
)

type scheduleLister interface {
	ListActive(ctx context.Context) ([]models.Schedule, error)
}

// ConflictInvalidator bridges assignment mutations to the conflict cache.
// Assignments are not scoped to a single schedule, so a mutation drops the
// cached analysis of every active schedule and lets the refresh queue
// repopulate them.
type ConflictInvalidator struct {
	conflicts *ConflictService
	schedules scheduleLister
	logger    *zap.Logger
}

// NewConflictInvalidator builds a ConflictInvalidator.
func NewConflictInvalidator(conflicts *ConflictService, schedules scheduleLister, logger *zap.Logger) *ConflictInvalidator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConflictInvalidator{conflicts: conflicts, schedules: schedules, logger: logger}
}

// InvalidateCourse drops cached analyses affected by a course's assignments.
func (i *ConflictInvalidator) InvalidateCourse(courseID string) {
	ctx := context.Background()
	list, err := i.schedules.ListActive(ctx)
	if err != nil {
		i.logger.Warn("failed to list schedules for conflict invalidation",
			zap.String("course_id", courseID), zap.Error(err))
		return
	}
	for _, schedule := range list {
		i.conflicts.Invalidate(ctx, schedule.ID)
	}
}
