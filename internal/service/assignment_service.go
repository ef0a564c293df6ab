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
	"github.com/meridian-sis/scheduler-api/internal/pattern"
	appErrors "github.com/meridian-sis/scheduler-api/pkg/errors"
)

type assignmentStore interface {
	Create(ctx context.Context, exec sqlx.ExtContext, assignment *models.RoomAssignment) error
	FindByID(ctx context.Context, id string) (*models.RoomAssignment, error)
	ListActiveByCourse(ctx context.Context, courseID string) ([]models.RoomAssignment, error)
	ListActiveByRoom(ctx context.Context, roomID string) ([]models.RoomAssignment, error)
	FindActivePrimary(ctx context.Context, courseID string) (*models.RoomAssignment, error)
	Deactivate(ctx context.Context, exec sqlx.ExtContext, id string) (bool, error)
	DeactivateAllForCourse(ctx context.Context, exec sqlx.ExtContext, courseID string) (int64, error)
	DeactivateAllForRoom(ctx context.Context, exec sqlx.ExtContext, roomID string) (int64, error)
	PurgeAllForCourse(ctx context.Context, exec sqlx.ExtContext, courseID string) (int64, error)
	PurgeAllForRoom(ctx context.Context, exec sqlx.ExtContext, roomID string) (int64, error)
}

type courseReader interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

type roomReader interface {
	FindByID(ctx context.Context, id string) (*models.Room, error)
}

// assignmentInvalidator is notified after mutations so cached conflict
// analyses can be refreshed.
type assignmentInvalidator interface {
	InvalidateCourse(courseID string)
}

// AssignmentService enforces the room assignment rules: a single active
// PRIMARY per course, pattern disjointness within a priority tier, and
// capacity limits.
type AssignmentService struct {
	repo        assignmentStore
	courses     courseReader
	rooms       roomReader
	tx          txProvider
	invalidator assignmentInvalidator
	courseLocks *keyedMutex
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewAssignmentService builds an AssignmentService with sane defaults.
func NewAssignmentService(
	repo assignmentStore,
	courses courseReader,
	rooms roomReader,
	tx txProvider,
	invalidator assignmentInvalidator,
	validate *validator.Validate,
	logger *zap.Logger,
) *AssignmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssignmentService{
		repo:        repo,
		courses:     courses,
		rooms:       rooms,
		tx:          tx,
		invalidator: invalidator,
		courseLocks: newKeyedMutex(),
		validator:   validate,
		logger:      logger,
	}
}

// Assign creates a room assignment for a course. PRIMARY replacement runs
// atomically: the old primary is deactivated and the new one created in one
// transaction, serialized per course.
func (s *AssignmentService) Assign(ctx context.Context, req dto.AssignRoomRequest) (*models.RoomAssignment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}

	assignmentType := pattern.AssignmentType(req.AssignmentType)
	if !assignmentType.Valid() {
		return nil, appErrors.Clone(appErrors.ErrInvalidParameter, fmt.Sprintf("unknown assignment type %q", req.AssignmentType))
	}
	usage := pattern.UsagePattern(req.UsagePattern)
	if !usage.Valid() {
		return nil, appErrors.Clone(appErrors.ErrInvalidParameter, fmt.Sprintf("unknown usage pattern %q", req.UsagePattern))
	}

	course, err := s.usableCourse(ctx, req.CourseID)
	if err != nil {
		return nil, err
	}
	room, err := s.usableRoom(ctx, req.RoomID)
	if err != nil {
		return nil, err
	}

	// Capacity gates only the main room. Courses split across rooms seat
	// part of the section elsewhere, so their primary may be smaller.
	if assignmentType == pattern.TypePrimary && !course.UsesMultipleRooms && room.Capacity < course.Enrollment {
		return nil, appErrors.Clone(appErrors.ErrCapacityExceeded,
			fmt.Sprintf("room %s seats %d, course %s enrolls %d", room.RoomNumber, room.Capacity, course.Code, course.Enrollment))
	}

	unlock := s.courseLocks.Lock(course.ID)
	defer unlock()

	existing, err := s.repo.ListActiveByCourse(ctx, course.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list course assignments")
	}

	var replaceID string
	if assignmentType == pattern.TypePrimary {
		for _, a := range existing {
			if a.Primary() {
				if !req.ReplacePrimary {
					return nil, appErrors.Clone(appErrors.ErrDuplicatePrimary,
						fmt.Sprintf("course %s already has primary assignment %s", course.Code, a.ID))
				}
				replaceID = a.ID
				break
			}
		}
	}

	for _, a := range existing {
		if a.ID == replaceID || a.Priority != req.Priority {
			continue
		}
		// Rotation entries within one tier take turns by construction and
		// never collide with each other.
		if usage == pattern.WeeklyRotation && a.UsagePattern == pattern.WeeklyRotation {
			continue
		}
		if !pattern.Overlaps(usage, a.UsagePattern) {
			continue
		}
		// Team teaching: simultaneous ALWAYS bindings to distinct rooms are
		// legal for a multi-room course when the rooms are close enough.
		if usage == pattern.Always && a.UsagePattern == pattern.Always &&
			a.RoomID != room.ID && course.UsesMultipleRooms {
			ok, terr := s.withinTravelBound(ctx, course, room, a.RoomID)
			if terr != nil {
				return nil, terr
			}
			if ok {
				continue
			}
			return nil, appErrors.Clone(appErrors.ErrConfiguration,
				fmt.Sprintf("rooms %s and %s exceed the %d minute proximity bound for course %s", room.ID, a.RoomID, course.DistanceBound(), course.Code))
		}
		return nil, appErrors.Clone(appErrors.ErrConfiguration,
			fmt.Sprintf("usage pattern %s overlaps assignment %s (%s) at priority %d", usage, a.ID, a.UsagePattern, req.Priority))
	}

	assignment := &models.RoomAssignment{
		CourseID:       course.ID,
		RoomID:         room.ID,
		AssignmentType: assignmentType,
		UsagePattern:   usage,
		Priority:       req.Priority,
		Active:         true,
		Notes:          req.Notes,
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

	if replaceID != "" {
		if _, err = s.repo.Deactivate(ctx, tx, replaceID); err != nil {
			err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to replace primary assignment")
			return nil, err
		}
	}
	if err = s.repo.Create(ctx, tx, assignment); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create assignment")
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit assignment")
		return nil, err
	}

	s.logger.Info("room assigned",
		zap.String("assignmentId", assignment.ID),
		zap.String("courseId", course.ID),
		zap.String("roomId", room.ID),
		zap.String("type", string(assignmentType)),
		zap.String("pattern", string(usage)),
		zap.Bool("replacedPrimary", replaceID != ""))
	s.invalidate(course.ID)
	return assignment, nil
}

// Deactivate retires an assignment. Deactivating an already inactive
// assignment succeeds without touching anything; a missing one is NotFound.
func (s *AssignmentService) Deactivate(ctx context.Context, id string) error {
	assignment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment")
	}

	unlock := s.courseLocks.Lock(assignment.CourseID)
	defer unlock()

	changed, err := s.repo.Deactivate(ctx, nil, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate assignment")
	}
	if changed {
		s.logger.Info("assignment deactivated", zap.String("assignmentId", id), zap.String("courseId", assignment.CourseID))
		s.invalidate(assignment.CourseID)
	}
	return nil
}

// ListActive returns active assignments filtered by course or room.
func (s *AssignmentService) ListActive(ctx context.Context, filter dto.AssignmentListFilter) ([]models.RoomAssignment, error) {
	switch {
	case filter.CourseID != "":
		assignments, err := s.repo.ListActiveByCourse(ctx, filter.CourseID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assignments")
		}
		return assignments, nil
	case filter.RoomID != "":
		assignments, err := s.repo.ListActiveByRoom(ctx, filter.RoomID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assignments")
		}
		return assignments, nil
	}
	return nil, appErrors.Clone(appErrors.ErrInvalidParameter, "either courseId or roomId is required")
}

// IsUsable reports whether an assignment is active and both its endpoints
// still exist and are active.
func (s *AssignmentService) IsUsable(ctx context.Context, id string) (bool, error) {
	assignment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment")
	}
	if !assignment.Usable() {
		return false, nil
	}
	if _, err := s.usableCourse(ctx, assignment.CourseID); err != nil {
		if appErrors.Is(err, appErrors.ErrInvalidResource) {
			return false, nil
		}
		return false, err
	}
	if _, err := s.usableRoom(ctx, assignment.RoomID); err != nil {
		if appErrors.Is(err, appErrors.ErrInvalidResource) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// DeactivateAllForCourse retires every active assignment of a course,
// returning the number retired.
func (s *AssignmentService) DeactivateAllForCourse(ctx context.Context, courseID string) (int64, error) {
	unlock := s.courseLocks.Lock(courseID)
	defer unlock()

	affected, err := s.repo.DeactivateAllForCourse(ctx, nil, courseID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate course assignments")
	}
	if affected > 0 {
		s.logger.Info("course assignments deactivated", zap.String("courseId", courseID), zap.Int64("count", affected))
		s.invalidate(courseID)
	}
	return affected, nil
}

// DeactivateAllForRoom retires every active assignment claiming a room, used
// when a room goes offline.
func (s *AssignmentService) DeactivateAllForRoom(ctx context.Context, roomID string) (int64, error) {
	assignments, err := s.repo.ListActiveByRoom(ctx, roomID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list room assignments")
	}

	affected, err := s.repo.DeactivateAllForRoom(ctx, nil, roomID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate room assignments")
	}
	if affected > 0 {
		s.logger.Info("room assignments deactivated", zap.String("roomId", roomID), zap.Int64("count", affected))
		for _, a := range assignments {
			s.invalidate(a.CourseID)
		}
	}
	return affected, nil
}

// PurgeAllForCourse permanently deletes a course's assignment rows, history
// included. Deactivation is the everyday path; purging is for retiring the
// course record itself.
func (s *AssignmentService) PurgeAllForCourse(ctx context.Context, courseID string) (int64, error) {
	unlock := s.courseLocks.Lock(courseID)
	defer unlock()

	affected, err := s.repo.PurgeAllForCourse(ctx, nil, courseID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to purge course assignments")
	}
	if affected > 0 {
		s.logger.Info("course assignments purged", zap.String("courseId", courseID), zap.Int64("count", affected))
		s.invalidate(courseID)
	}
	return affected, nil
}

// PurgeAllForRoom permanently deletes every assignment row claiming a room.
func (s *AssignmentService) PurgeAllForRoom(ctx context.Context, roomID string) (int64, error) {
	assignments, err := s.repo.ListActiveByRoom(ctx, roomID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list room assignments")
	}

	affected, err := s.repo.PurgeAllForRoom(ctx, nil, roomID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to purge room assignments")
	}
	if affected > 0 {
		s.logger.Info("room assignments purged", zap.String("roomId", roomID), zap.Int64("count", affected))
		for _, a := range assignments {
			s.invalidate(a.CourseID)
		}
	}
	return affected, nil
}

// PrimaryRoom resolves the room behind a course's active PRIMARY assignment.
func (s *AssignmentService) PrimaryRoom(ctx context.Context, courseID string) (*models.Room, error) {
	if courseID == "" {
		return nil, appErrors.Clone(appErrors.ErrInvalidParameter, "courseId is required")
	}
	primary, err := s.repo.FindActivePrimary(ctx, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course has no active primary assignment")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load primary assignment")
	}
	room, err := s.rooms.FindByID(ctx, primary.RoomID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assigned room not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load room")
	}
	return room, nil
}

// EffectiveRooms lists every room a course occupies through its active
// assignments, primary binding first, then by descending priority.
func (s *AssignmentService) EffectiveRooms(ctx context.Context, courseID string) ([]models.Room, error) {
	if courseID == "" {
		return nil, appErrors.Clone(appErrors.ErrInvalidParameter, "courseId is required")
	}
	assignments, err := s.repo.ListActiveByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assignments")
	}
	sort.SliceStable(assignments, func(i, j int) bool {
		if assignments[i].Primary() != assignments[j].Primary() {
			return assignments[i].Primary()
		}
		if assignments[i].Priority != assignments[j].Priority {
			return assignments[i].Priority > assignments[j].Priority
		}
		return assignments[i].RoomID < assignments[j].RoomID
	})

	rooms := make([]models.Room, 0, len(assignments))
	seen := make(map[string]struct{}, len(assignments))
	for _, a := range assignments {
		if _, ok := seen[a.RoomID]; ok {
			continue
		}
		seen[a.RoomID] = struct{}{}
		room, err := s.rooms.FindByID(ctx, a.RoomID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				continue
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load room")
		}
		rooms = append(rooms, *room)
	}
	return rooms, nil
}

// withinTravelBound checks whether a candidate room sits close enough to an
// already-assigned room to co-host a multi-room course.
func (s *AssignmentService) withinTravelBound(ctx context.Context, course *models.Course, room *models.Room, otherRoomID string) (bool, error) {
	other, err := s.rooms.FindByID(ctx, otherRoomID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load room")
	}
	return models.TravelMinutes(room, other) <= course.DistanceBound(), nil
}

func (s *AssignmentService) usableCourse(ctx context.Context, id string) (*models.Course, error) {
	course, err := s.courses.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidResource, fmt.Sprintf("course %s not found", id))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if !course.Active {
		return nil, appErrors.Clone(appErrors.ErrInvalidResource, fmt.Sprintf("course %s is inactive", course.Code))
	}
	return course, nil
}

func (s *AssignmentService) usableRoom(ctx context.Context, id string) (*models.Room, error) {
	room, err := s.rooms.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidResource, fmt.Sprintf("room %s not found", id))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load room")
	}
	if !room.Active {
		return nil, appErrors.Clone(appErrors.ErrInvalidResource, fmt.Sprintf("room %s is inactive", room.RoomNumber))
	}
	return room, nil
}

func (s *AssignmentService) invalidate(courseID string) {
	if s.invalidator != nil {
		s.invalidator.InvalidateCourse(courseID)
	}
}
