package service

import (
	"context"
	"database/sql"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-sis/scheduler-api/internal/dto"
	"github.com/meridian-sis/scheduler-api/internal/models"
	"github.com/meridian-sis/scheduler-api/internal/pattern"
	appErrors "github.com/meridian-sis/scheduler-api/pkg/errors"
)

type assignmentStoreStub struct {
	byID        map[string]*models.RoomAssignment
	active      []models.RoomAssignment
	created     []*models.RoomAssignment
	deactivated []string
	changed     bool
}

func (s *assignmentStoreStub) Create(ctx context.Context, exec sqlx.ExtContext, a *models.RoomAssignment) error {
	if a.ID == "" {
		a.ID = "assign-new"
	}
	s.created = append(s.created, a)
	return nil
}

func (s *assignmentStoreStub) FindByID(ctx context.Context, id string) (*models.RoomAssignment, error) {
	a, ok := s.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return a, nil
}

func (s *assignmentStoreStub) ListActiveByCourse(ctx context.Context, courseID string) ([]models.RoomAssignment, error) {
	var out []models.RoomAssignment
	for _, a := range s.active {
		if a.CourseID == courseID && a.Active {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *assignmentStoreStub) ListActiveByRoom(ctx context.Context, roomID string) ([]models.RoomAssignment, error) {
	var out []models.RoomAssignment
	for _, a := range s.active {
		if a.RoomID == roomID && a.Active {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *assignmentStoreStub) FindActivePrimary(ctx context.Context, courseID string) (*models.RoomAssignment, error) {
	for i := range s.active {
		if s.active[i].CourseID == courseID && s.active[i].Primary() && s.active[i].Active {
			return &s.active[i], nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *assignmentStoreStub) Deactivate(ctx context.Context, exec sqlx.ExtContext, id string) (bool, error) {
	s.deactivated = append(s.deactivated, id)
	return s.changed, nil
}

func (s *assignmentStoreStub) DeactivateAllForCourse(ctx context.Context, exec sqlx.ExtContext, courseID string) (int64, error) {
	var count int64
	for _, a := range s.active {
		if a.CourseID == courseID && a.Active {
			count++
		}
	}
	return count, nil
}

func (s *assignmentStoreStub) DeactivateAllForRoom(ctx context.Context, exec sqlx.ExtContext, roomID string) (int64, error) {
	var count int64
	for _, a := range s.active {
		if a.RoomID == roomID && a.Active {
			count++
		}
	}
	return count, nil
}

func (s *assignmentStoreStub) PurgeAllForCourse(ctx context.Context, exec sqlx.ExtContext, courseID string) (int64, error) {
	var kept []models.RoomAssignment
	var removed int64
	for _, a := range s.active {
		if a.CourseID == courseID {
			removed++
			continue
		}
		kept = append(kept, a)
	}
	s.active = kept
	return removed, nil
}

func (s *assignmentStoreStub) PurgeAllForRoom(ctx context.Context, exec sqlx.ExtContext, roomID string) (int64, error) {
	var kept []models.RoomAssignment
	var removed int64
	for _, a := range s.active {
		if a.RoomID == roomID {
			removed++
			continue
		}
		kept = append(kept, a)
	}
	s.active = kept
	return removed, nil
}

type courseReaderStub struct {
	courses map[string]*models.Course
}

func (s *courseReaderStub) FindByID(ctx context.Context, id string) (*models.Course, error) {
	c, ok := s.courses[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return c, nil
}

type roomReaderStub struct {
	rooms map[string]*models.Room
}

func (s *roomReaderStub) FindByID(ctx context.Context, id string) (*models.Room, error) {
	r, ok := s.rooms[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return r, nil
}

type invalidatorStub struct {
	courses []string
}

func (s *invalidatorStub) InvalidateCourse(courseID string) {
	s.courses = append(s.courses, courseID)
}

type txProviderMock struct {
	db *sqlx.DB
}

func newTxProviderMock(t *testing.T) (*txProviderMock, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	t.Cleanup(func() { db.Close() })
	return &txProviderMock{db: sqlxdb}, mock
}

func (t *txProviderMock) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return t.db.BeginTxx(ctx, opts)
}

func fixtureCourse(id string, enrollment int) *models.Course {
	return &models.Course{ID: id, Code: "BIO-101", Enrollment: enrollment, MaxStudents: enrollment + 5, Active: true}
}

func fixtureRoom(id string, capacity int) *models.Room {
	return &models.Room{ID: id, RoomNumber: "204", Capacity: capacity, RoomType: models.RoomTypeClassroom, Active: true}
}

func newAssignmentService(t *testing.T, store *assignmentStoreStub, courses *courseReaderStub, rooms *roomReaderStub) (*AssignmentService, sqlmock.Sqlmock, *invalidatorStub) {
	tx, mock := newTxProviderMock(t)
	inv := &invalidatorStub{}
	svc := NewAssignmentService(store, courses, rooms, tx, inv, nil, nil)
	return svc, mock, inv
}

func TestAssignRejectsUnknownTypeAndPattern(t *testing.T) {
	svc, _, _ := newAssignmentService(t, &assignmentStoreStub{}, &courseReaderStub{}, &roomReaderStub{})

	_, err := svc.Assign(context.Background(), dto.AssignRoomRequest{
		CourseID: "course-1", RoomID: "room-1", AssignmentType: "TERTIARY", UsagePattern: "ALWAYS",
	})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrInvalidParameter))

	_, err = svc.Assign(context.Background(), dto.AssignRoomRequest{
		CourseID: "course-1", RoomID: "room-1", AssignmentType: "PRIMARY", UsagePattern: "SOMETIMES",
	})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrInvalidParameter))
}

func TestAssignRejectsMissingOrInactiveResources(t *testing.T) {
	courses := &courseReaderStub{courses: map[string]*models.Course{}}
	rooms := &roomReaderStub{rooms: map[string]*models.Room{"room-1": fixtureRoom("room-1", 30)}}
	svc, _, _ := newAssignmentService(t, &assignmentStoreStub{}, courses, rooms)

	req := dto.AssignRoomRequest{CourseID: "course-1", RoomID: "room-1", AssignmentType: "PRIMARY", UsagePattern: "ALWAYS"}

	_, err := svc.Assign(context.Background(), req)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrInvalidResource))

	inactive := fixtureCourse("course-1", 25)
	inactive.Active = false
	courses.courses["course-1"] = inactive

	_, err = svc.Assign(context.Background(), req)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrInvalidResource))
}

func TestAssignRejectsCapacityExceeded(t *testing.T) {
	courses := &courseReaderStub{courses: map[string]*models.Course{"course-1": fixtureCourse("course-1", 35)}}
	rooms := &roomReaderStub{rooms: map[string]*models.Room{"room-1": fixtureRoom("room-1", 30)}}
	svc, _, _ := newAssignmentService(t, &assignmentStoreStub{}, courses, rooms)

	_, err := svc.Assign(context.Background(), dto.AssignRoomRequest{
		CourseID: "course-1", RoomID: "room-1", AssignmentType: "PRIMARY", UsagePattern: "ALWAYS",
	})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrCapacityExceeded))
}

func TestAssignAllowsSmallPrimaryForMultiRoomCourse(t *testing.T) {
	course := fixtureCourse("course-1", 60)
	course.UsesMultipleRooms = true
	courses := &courseReaderStub{courses: map[string]*models.Course{"course-1": course}}
	rooms := &roomReaderStub{rooms: map[string]*models.Room{"room-1": fixtureRoom("room-1", 30)}}
	store := &assignmentStoreStub{}
	svc, mock, _ := newAssignmentService(t, store, courses, rooms)

	mock.ExpectBegin()
	mock.ExpectCommit()

	assignment, err := svc.Assign(context.Background(), dto.AssignRoomRequest{
		CourseID: "course-1", RoomID: "room-1", AssignmentType: "PRIMARY", UsagePattern: "ALWAYS",
	})
	require.NoError(t, err)
	assert.Equal(t, pattern.TypePrimary, assignment.AssignmentType)
	require.Len(t, store.created, 1)
}

func TestAssignRejectsDuplicatePrimary(t *testing.T) {
	courses := &courseReaderStub{courses: map[string]*models.Course{"course-1": fixtureCourse("course-1", 25)}}
	rooms := &roomReaderStub{rooms: map[string]*models.Room{"room-2": fixtureRoom("room-2", 30)}}
	store := &assignmentStoreStub{active: []models.RoomAssignment{
		{ID: "assign-1", CourseID: "course-1", RoomID: "room-1", AssignmentType: pattern.TypePrimary, UsagePattern: pattern.Always, Priority: 1, Active: true},
	}}
	svc, _, _ := newAssignmentService(t, store, courses, rooms)

	_, err := svc.Assign(context.Background(), dto.AssignRoomRequest{
		CourseID: "course-1", RoomID: "room-2", AssignmentType: "PRIMARY", UsagePattern: "ALWAYS", Priority: 2,
	})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrDuplicatePrimary))
	assert.Empty(t, store.created)
}

func TestAssignReplacesPrimaryAtomically(t *testing.T) {
	courses := &courseReaderStub{courses: map[string]*models.Course{"course-1": fixtureCourse("course-1", 25)}}
	rooms := &roomReaderStub{rooms: map[string]*models.Room{"room-2": fixtureRoom("room-2", 30)}}
	store := &assignmentStoreStub{active: []models.RoomAssignment{
		{ID: "assign-1", CourseID: "course-1", RoomID: "room-1", AssignmentType: pattern.TypePrimary, UsagePattern: pattern.Always, Priority: 1, Active: true},
	}, changed: true}
	svc, mock, inv := newAssignmentService(t, store, courses, rooms)

	mock.ExpectBegin()
	mock.ExpectCommit()

	assignment, err := svc.Assign(context.Background(), dto.AssignRoomRequest{
		CourseID: "course-1", RoomID: "room-2", AssignmentType: "PRIMARY", UsagePattern: "ALWAYS", Priority: 1,
		ReplacePrimary: true,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"assign-1"}, store.deactivated)
	require.Len(t, store.created, 1)
	assert.Equal(t, "room-2", assignment.RoomID)
	assert.Equal(t, []string{"course-1"}, inv.courses)
}

func TestAssignRejectsOverlappingPatternAtSamePriority(t *testing.T) {
	courses := &courseReaderStub{courses: map[string]*models.Course{"course-1": fixtureCourse("course-1", 25)}}
	rooms := &roomReaderStub{rooms: map[string]*models.Room{"room-2": fixtureRoom("room-2", 30)}}
	store := &assignmentStoreStub{active: []models.RoomAssignment{
		{ID: "assign-1", CourseID: "course-1", RoomID: "room-1", AssignmentType: pattern.TypeSecondary, UsagePattern: pattern.OddDays, Priority: 2, Active: true},
	}}
	svc, mock, _ := newAssignmentService(t, store, courses, rooms)

	_, err := svc.Assign(context.Background(), dto.AssignRoomRequest{
		CourseID: "course-1", RoomID: "room-2", AssignmentType: "OVERFLOW", UsagePattern: "ALWAYS", Priority: 2,
	})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrConfiguration))

	// EVEN_DAYS is disjoint from the existing ODD_DAYS entry.
	mock.ExpectBegin()
	mock.ExpectCommit()
	_, err = svc.Assign(context.Background(), dto.AssignRoomRequest{
		CourseID: "course-1", RoomID: "room-2", AssignmentType: "OVERFLOW", UsagePattern: "EVEN_DAYS", Priority: 2,
	})
	require.NoError(t, err)
}

func TestAssignAllowsRotationPairs(t *testing.T) {
	courses := &courseReaderStub{courses: map[string]*models.Course{"course-1": fixtureCourse("course-1", 25)}}
	rooms := &roomReaderStub{rooms: map[string]*models.Room{"room-2": fixtureRoom("room-2", 30)}}
	store := &assignmentStoreStub{active: []models.RoomAssignment{
		{ID: "assign-1", CourseID: "course-1", RoomID: "room-1", AssignmentType: pattern.TypeRotating, UsagePattern: pattern.WeeklyRotation, Priority: 3, Active: true},
	}}
	svc, mock, _ := newAssignmentService(t, store, courses, rooms)

	mock.ExpectBegin()
	mock.ExpectCommit()

	_, err := svc.Assign(context.Background(), dto.AssignRoomRequest{
		CourseID: "course-1", RoomID: "room-2", AssignmentType: "ROTATING", UsagePattern: "WEEKLY_ROTATION", Priority: 3,
	})
	require.NoError(t, err)
}

func TestDeactivateIsIdempotent(t *testing.T) {
	store := &assignmentStoreStub{
		byID: map[string]*models.RoomAssignment{
			"assign-1": {ID: "assign-1", CourseID: "course-1", Active: false},
		},
	}
	svc, _, inv := newAssignmentService(t, store, &courseReaderStub{}, &roomReaderStub{})

	require.NoError(t, svc.Deactivate(context.Background(), "assign-1"))
	assert.Empty(t, inv.courses, "no change means no invalidation")

	err := svc.Deactivate(context.Background(), "assign-missing")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestListActiveRequiresFilter(t *testing.T) {
	svc, _, _ := newAssignmentService(t, &assignmentStoreStub{}, &courseReaderStub{}, &roomReaderStub{})

	_, err := svc.ListActive(context.Background(), dto.AssignmentListFilter{})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrInvalidParameter))
}

func TestIsUsable(t *testing.T) {
	store := &assignmentStoreStub{byID: map[string]*models.RoomAssignment{
		"assign-1": {ID: "assign-1", CourseID: "course-1", RoomID: "room-1", Active: true},
		"assign-2": {ID: "assign-2", CourseID: "course-1", RoomID: "room-1", Active: false},
	}}
	inactiveRoom := fixtureRoom("room-1", 30)
	inactiveRoom.Active = false
	courses := &courseReaderStub{courses: map[string]*models.Course{"course-1": fixtureCourse("course-1", 25)}}
	rooms := &roomReaderStub{rooms: map[string]*models.Room{"room-1": inactiveRoom}}
	svc, _, _ := newAssignmentService(t, store, courses, rooms)

	usable, err := svc.IsUsable(context.Background(), "assign-2")
	require.NoError(t, err)
	assert.False(t, usable, "inactive assignment is not usable")

	usable, err = svc.IsUsable(context.Background(), "assign-1")
	require.NoError(t, err)
	assert.False(t, usable, "assignment into an inactive room is not usable")

	rooms.rooms["room-1"] = fixtureRoom("room-1", 30)
	usable, err = svc.IsUsable(context.Background(), "assign-1")
	require.NoError(t, err)
	assert.True(t, usable)
}

func TestAssignAllowsHalfPeriodBesideDayPattern(t *testing.T) {
	courses := &courseReaderStub{courses: map[string]*models.Course{"course-1": fixtureCourse("course-1", 25)}}
	rooms := &roomReaderStub{rooms: map[string]*models.Room{"room-2": fixtureRoom("room-2", 30)}}
	store := &assignmentStoreStub{active: []models.RoomAssignment{
		{ID: "assign-1", CourseID: "course-1", RoomID: "room-1", AssignmentType: pattern.TypeSecondary, UsagePattern: pattern.OddDays, Priority: 2, Active: true},
	}}
	svc, mock, _ := newAssignmentService(t, store, courses, rooms)

	mock.ExpectBegin()
	mock.ExpectCommit()

	// FIRST_HALF claims a slice of the period, ODD_DAYS whole alternating
	// days; the pair coexists within one priority tier.
	_, err := svc.Assign(context.Background(), dto.AssignRoomRequest{
		CourseID: "course-1", RoomID: "room-2", AssignmentType: "OVERFLOW", UsagePattern: "FIRST_HALF", Priority: 2,
	})
	require.NoError(t, err)
	require.Len(t, store.created, 1)
}

func TestAssignTeamTeachingWithinProximity(t *testing.T) {
	course := fixtureCourse("course-1", 25)
	course.UsesMultipleRooms = true
	course.MaxRoomDistanceMinutes = 3
	courses := &courseReaderStub{courses: map[string]*models.Course{"course-1": course}}

	north1 := fixtureRoom("room-1", 30)
	north1.Building, north1.Floor = "North", 1
	north3 := fixtureRoom("room-2", 30)
	north3.Building, north3.Floor = "North", 3
	rooms := &roomReaderStub{rooms: map[string]*models.Room{"room-1": north1, "room-2": north3}}
	store := &assignmentStoreStub{active: []models.RoomAssignment{
		{ID: "assign-1", CourseID: "course-1", RoomID: "room-1", AssignmentType: pattern.TypeSecondary, UsagePattern: pattern.Always, Priority: 2, Active: true},
	}}
	svc, mock, _ := newAssignmentService(t, store, courses, rooms)

	mock.ExpectBegin()
	mock.ExpectCommit()

	// Two floors up is a three minute walk, right at the course bound.
	_, err := svc.Assign(context.Background(), dto.AssignRoomRequest{
		CourseID: "course-1", RoomID: "room-2", AssignmentType: "SECONDARY", UsagePattern: "ALWAYS", Priority: 2,
	})
	require.NoError(t, err)
	require.Len(t, store.created, 1)
}

func TestAssignTeamTeachingRejectsDistantRoom(t *testing.T) {
	course := fixtureCourse("course-1", 25)
	course.UsesMultipleRooms = true
	course.MaxRoomDistanceMinutes = 3
	courses := &courseReaderStub{courses: map[string]*models.Course{"course-1": course}}

	north := fixtureRoom("room-1", 30)
	north.Building = "North"
	south := fixtureRoom("room-2", 30)
	south.Building = "South"
	rooms := &roomReaderStub{rooms: map[string]*models.Room{"room-1": north, "room-2": south}}
	store := &assignmentStoreStub{active: []models.RoomAssignment{
		{ID: "assign-1", CourseID: "course-1", RoomID: "room-1", AssignmentType: pattern.TypeSecondary, UsagePattern: pattern.Always, Priority: 2, Active: true},
	}}
	svc, _, _ := newAssignmentService(t, store, courses, rooms)

	_, err := svc.Assign(context.Background(), dto.AssignRoomRequest{
		CourseID: "course-1", RoomID: "room-2", AssignmentType: "SECONDARY", UsagePattern: "ALWAYS", Priority: 2,
	})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrConfiguration))
	assert.Empty(t, store.created)
}

func TestAssignRejectsSimultaneousRoomsForSingleRoomCourse(t *testing.T) {
	courses := &courseReaderStub{courses: map[string]*models.Course{"course-1": fixtureCourse("course-1", 25)}}
	rooms := &roomReaderStub{rooms: map[string]*models.Room{"room-2": fixtureRoom("room-2", 30)}}
	store := &assignmentStoreStub{active: []models.RoomAssignment{
		{ID: "assign-1", CourseID: "course-1", RoomID: "room-1", AssignmentType: pattern.TypeSecondary, UsagePattern: pattern.Always, Priority: 2, Active: true},
	}}
	svc, _, _ := newAssignmentService(t, store, courses, rooms)

	_, err := svc.Assign(context.Background(), dto.AssignRoomRequest{
		CourseID: "course-1", RoomID: "room-2", AssignmentType: "SECONDARY", UsagePattern: "ALWAYS", Priority: 2,
	})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrConfiguration))
}

func TestPurgeAllForRoomInvalidatesCoursesAndDropsHistory(t *testing.T) {
	store := &assignmentStoreStub{active: []models.RoomAssignment{
		{ID: "assign-1", CourseID: "course-1", RoomID: "room-1", Active: true},
		{ID: "assign-2", CourseID: "course-2", RoomID: "room-1", Active: false},
		{ID: "assign-3", CourseID: "course-3", RoomID: "room-2", Active: true},
	}}
	svc, _, inv := newAssignmentService(t, store, &courseReaderStub{}, &roomReaderStub{})

	affected, err := svc.PurgeAllForRoom(context.Background(), "room-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), affected, "inactive history rows go too")
	assert.Equal(t, []string{"course-1"}, inv.courses, "only active courses had cached analyses")

	remaining, err := store.ListActiveByRoom(context.Background(), "room-2")
	require.NoError(t, err)
	assert.Len(t, remaining, 1)
}

func TestPurgeAllForCourseInvalidatesCourse(t *testing.T) {
	store := &assignmentStoreStub{active: []models.RoomAssignment{
		{ID: "assign-1", CourseID: "course-1", RoomID: "room-1", Active: true},
		{ID: "assign-2", CourseID: "course-1", RoomID: "room-2", Active: false},
	}}
	svc, _, inv := newAssignmentService(t, store, &courseReaderStub{}, &roomReaderStub{})

	affected, err := svc.PurgeAllForCourse(context.Background(), "course-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), affected)
	assert.Equal(t, []string{"course-1"}, inv.courses)
}
