package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/meridian-sis/scheduler-api/internal/dto"
	"github.com/meridian-sis/scheduler-api/internal/models"
	appErrors "github.com/meridian-sis/scheduler-api/pkg/errors"
)

type slotStore interface {
	FindByID(ctx context.Context, id string) (*models.ScheduleSlot, error)
	UpdateAssignment(ctx context.Context, exec sqlx.ExtContext, slotID, teacherID, roomID string) error
	Pin(ctx context.Context, exec sqlx.ExtContext, slotID, pinnedBy string) error
	Unpin(ctx context.Context, exec sqlx.ExtContext, slotID string) error
}

type overrideStore interface {
	Insert(ctx context.Context, exec sqlx.ExtContext, override *models.ScheduleOverride) error
	HistoryBySlot(ctx context.Context, slotID string) ([]models.ScheduleOverride, error)
	HistoryBySchedule(ctx context.Context, scheduleID string, limit int) ([]models.ScheduleOverride, error)
	CountBySlot(ctx context.Context, slotID string) (int, error)
}

type overrideTeacherReader interface {
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
}

// OverrideService applies manual slot changes and keeps the audit trail
// consistent with them: the slot mutation and its audit row commit together
// or not at all. Writes to one slot are serialized.
type OverrideService struct {
	slots     slotStore
	overrides overrideStore
	teachers  overrideTeacherReader
	rooms     roomReader
	tx        txProvider
	slotLocks *keyedMutex
	validator *validator.Validate
	logger    *zap.Logger
}

// NewOverrideService builds an OverrideService with sane defaults.
func NewOverrideService(
	slots slotStore,
	overrides overrideStore,
	teachers overrideTeacherReader,
	rooms roomReader,
	tx txProvider,
	validate *validator.Validate,
	logger *zap.Logger,
) *OverrideService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OverrideService{
		slots:     slots,
		overrides: overrides,
		teachers:  teachers,
		rooms:     rooms,
		tx:        tx,
		slotLocks: newKeyedMutex(),
		validator: validate,
		logger:    logger,
	}
}

// RecordOverride swaps a slot's teacher and/or room and appends the audit
// row. Pinned slots accept manual overrides; the pin only blocks automated
// changes. A request that changes nothing is rejected.
func (s *OverrideService) RecordOverride(ctx context.Context, slotID string, req dto.OverrideSlotRequest, actor string) (*models.ScheduleOverride, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	if actor == "" {
		return nil, appErrors.Clone(appErrors.ErrInvalidParameter, "override actor is required")
	}

	unlock := s.slotLocks.Lock(slotID)
	defer unlock()

	slot, err := s.slots.FindByID(ctx, slotID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule slot not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load slot")
	}

	overrideType := models.DeriveOverrideType(slot.TeacherID, req.NewTeacherID, slot.RoomID, req.NewRoomID)
	if overrideType == "" {
		return nil, appErrors.Clone(appErrors.ErrNoChangeDetected, "override matches the slot's current teacher and room")
	}

	if slot.TeacherID != req.NewTeacherID {
		teacher, err := s.teachers.FindByID(ctx, req.NewTeacherID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrInvalidResource, fmt.Sprintf("teacher %s not found", req.NewTeacherID))
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
		}
		if !teacher.Active {
			return nil, appErrors.Clone(appErrors.ErrInvalidResource, fmt.Sprintf("teacher %s is inactive", teacher.FullName()))
		}
	}
	if slot.RoomID != req.NewRoomID {
		room, err := s.rooms.FindByID(ctx, req.NewRoomID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrInvalidResource, fmt.Sprintf("room %s not found", req.NewRoomID))
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load room")
		}
		if !room.Active {
			return nil, appErrors.Clone(appErrors.ErrInvalidResource, fmt.Sprintf("room %s is inactive", room.RoomNumber))
		}
	}

	override := &models.ScheduleOverride{
		SlotID:       slot.ID,
		OverrideType: overrideType,
		OldTeacherID: slot.TeacherID,
		NewTeacherID: req.NewTeacherID,
		OldRoomID:    slot.RoomID,
		NewRoomID:    req.NewRoomID,
		Reason:       req.Reason,
		ChangedBy:    actor,
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

	if err = s.slots.UpdateAssignment(ctx, tx, slot.ID, req.NewTeacherID, req.NewRoomID); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update slot")
		return nil, err
	}
	if err = s.overrides.Insert(ctx, tx, override); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record override")
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit override")
		return nil, err
	}

	s.logger.Info("slot override recorded",
		zap.String("slotId", slot.ID),
		zap.String("type", overrideType),
		zap.String("changedBy", actor),
		zap.Int64("seq", override.Seq))
	return override, nil
}

// History returns a slot's audit rows, newest first.
func (s *OverrideService) History(ctx context.Context, slotID string) ([]models.ScheduleOverride, error) {
	if _, err := s.slots.FindByID(ctx, slotID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule slot not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load slot")
	}
	rows, err := s.overrides.HistoryBySlot(ctx, slotID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list overrides")
	}
	return rows, nil
}

// ScheduleHistory returns recent audit rows across a whole schedule.
func (s *OverrideService) ScheduleHistory(ctx context.Context, scheduleID string, limit int) ([]models.ScheduleOverride, error) {
	rows, err := s.overrides.HistoryBySchedule(ctx, scheduleID, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list overrides")
	}
	return rows, nil
}

// SetPin pins or unpins a slot for automated reassignment.
func (s *OverrideService) SetPin(ctx context.Context, slotID string, pinned bool, actor string) error {
	if pinned && actor == "" {
		return appErrors.Clone(appErrors.ErrInvalidParameter, "pin actor is required")
	}

	unlock := s.slotLocks.Lock(slotID)
	defer unlock()

	if _, err := s.slots.FindByID(ctx, slotID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "schedule slot not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load slot")
	}

	var err error
	if pinned {
		err = s.slots.Pin(ctx, nil, slotID, actor)
	} else {
		err = s.slots.Unpin(ctx, nil, slotID)
	}
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update pin")
	}

	s.logger.Info("slot pin updated", zap.String("slotId", slotID), zap.Bool("pinned", pinned), zap.String("actor", actor))
	return nil
}
