package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/meridian-sis/scheduler-api/internal/models"
	"github.com/meridian-sis/scheduler-api/internal/pattern"
	appErrors "github.com/meridian-sis/scheduler-api/pkg/errors"
	"github.com/meridian-sis/scheduler-api/pkg/jobs"
)

type conflictSlotReader interface {
	ListBySchedule(ctx context.Context, scheduleID string) ([]models.ScheduleSlot, error)
}

type conflictAssignmentReader interface {
	ListActiveByRoom(ctx context.Context, roomID string) ([]models.RoomAssignment, error)
}

type conflictCourseReader interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
	ListActive(ctx context.Context) ([]models.Course, error)
}

type conflictTeacherReader interface {
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
	ListActive(ctx context.Context) ([]models.Teacher, error)
}

type conflictRoomReader interface {
	FindByID(ctx context.Context, id string) (*models.Room, error)
	ListActive(ctx context.Context) ([]models.Room, error)
}

type conflictCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Invalidate(ctx context.Context, pattern string) error
}

type refreshQueue interface {
	Enqueue(job jobs.Job) error
}

// ConflictService runs full-schedule conflict analysis. Results are cached;
// mutations elsewhere invalidate and enqueue an async re-analysis.
type ConflictService struct {
	slots       conflictSlotReader
	assignments conflictAssignmentReader
	courses     conflictCourseReader
	teachers    conflictTeacherReader
	rooms       conflictRoomReader
	cache       conflictCache
	queue       refreshQueue
	weights     models.ConstraintWeightSet
	cacheTTL    time.Duration
	logger      *zap.Logger
}

// NewConflictService builds a ConflictService with sane defaults.
func NewConflictService(
	slots conflictSlotReader,
	assignments conflictAssignmentReader,
	courses conflictCourseReader,
	teachers conflictTeacherReader,
	rooms conflictRoomReader,
	cache conflictCache,
	queue refreshQueue,
	weights models.ConstraintWeightSet,
	cacheTTL time.Duration,
	logger *zap.Logger,
) *ConflictService {
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConflictService{
		slots:       slots,
		assignments: assignments,
		courses:     courses,
		teachers:    teachers,
		rooms:       rooms,
		cache:       cache,
		queue:       queue,
		weights:     weights,
		cacheTTL:    cacheTTL,
		logger:      logger,
	}
}

func conflictCacheKey(scheduleID string) string {
	return "conflicts:" + scheduleID
}

// Analyze returns a schedule's full conflict analysis, from cache when fresh.
func (s *ConflictService) Analyze(ctx context.Context, scheduleID string) (*models.ConflictAnalysis, error) {
	if s.cache != nil {
		var cached models.ConflictAnalysis
		hit, err := s.cache.Get(ctx, conflictCacheKey(scheduleID), &cached)
		if err == nil && hit {
			return &cached, nil
		}
	}

	analysis, err := s.analyze(ctx, scheduleID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, conflictCacheKey(scheduleID), analysis, s.cacheTTL); err != nil {
			s.logger.Warn("failed to cache conflict analysis", zap.String("scheduleId", scheduleID), zap.Error(err))
		}
	}
	return analysis, nil
}

// Invalidate drops the cached analysis and queues a background refresh.
func (s *ConflictService) Invalidate(ctx context.Context, scheduleID string) {
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, conflictCacheKey(scheduleID)); err != nil {
			s.logger.Warn("failed to invalidate conflict cache", zap.String("scheduleId", scheduleID), zap.Error(err))
		}
	}
	if s.queue != nil {
		if err := s.queue.Enqueue(jobs.Job{Type: "conflict_refresh", Payload: scheduleID}); err != nil {
			s.logger.Warn("failed to enqueue conflict refresh", zap.String("scheduleId", scheduleID), zap.Error(err))
		}
	}
}

// RefreshWorker handles queued re-analysis jobs.
func (s *ConflictService) RefreshWorker(ctx context.Context, job jobs.Job) error {
	scheduleID, ok := job.Payload.(string)
	if !ok || scheduleID == "" {
		return fmt.Errorf("conflict refresh job %s has no schedule id", job.ID)
	}
	analysis, err := s.analyze(ctx, scheduleID)
	if err != nil {
		return err
	}
	if s.cache != nil {
		return s.cache.Set(ctx, conflictCacheKey(scheduleID), analysis, s.cacheTTL)
	}
	return nil
}

func (s *ConflictService) analyze(ctx context.Context, scheduleID string) (*models.ConflictAnalysis, error) {
	slots, err := s.slots.ListBySchedule(ctx, scheduleID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list schedule slots")
	}
	courses, err := s.loadCourses(ctx)
	if err != nil {
		return nil, err
	}
	teachers, err := s.loadTeachers(ctx)
	if err != nil {
		return nil, err
	}
	rooms, err := s.loadRooms(ctx)
	if err != nil {
		return nil, err
	}

	var conflicts []models.Conflict
	conflicts = append(conflicts, s.detectTeacherDoubleBookings(scheduleID, slots, teachers)...)
	conflicts = append(conflicts, s.detectRoomDoubleBookings(scheduleID, slots)...)
	conflicts = append(conflicts, s.detectSlotRoomFit(scheduleID, slots, courses, rooms)...)
	conflicts = append(conflicts, s.detectTeacherOverload(scheduleID, slots, teachers)...)
	conflicts = append(conflicts, s.detectTeacherQualification(scheduleID, slots, courses, teachers)...)
	conflicts = append(conflicts, s.detectTeacherWorkday(scheduleID, slots, teachers)...)
	conflicts = append(conflicts, s.detectBuildingTravel(scheduleID, slots, teachers, rooms)...)

	assignmentConflicts, err := s.detectAssignmentOverlaps(ctx, scheduleID, rooms)
	if err != nil {
		return nil, err
	}
	conflicts = append(conflicts, assignmentConflicts...)

	sort.Slice(conflicts, func(i, j int) bool { return conflicts[i].ID < conflicts[j].ID })

	analysis := &models.ConflictAnalysis{
		ScheduleID:    scheduleID,
		Conflicts:     conflicts,
		TotalCount:    len(conflicts),
		SeverityCount: map[string]int{},
		AnalyzedAt:    time.Now().UTC(),
	}
	for _, c := range conflicts {
		analysis.SeverityCount[c.Severity]++
		analysis.TotalPenalty += c.PenaltyCost
		if c.Hard {
			analysis.HardCount++
		} else {
			analysis.SoftCount++
		}
	}
	return analysis, nil
}

// detectTeacherDoubleBookings finds teachers holding two slots in the same
// period on coinciding day types.
func (s *ConflictService) detectTeacherDoubleBookings(scheduleID string, slots []models.ScheduleSlot, teachers map[string]models.Teacher) []models.Conflict {
	byTeacher := groupSlots(slots, func(slot models.ScheduleSlot) string { return slot.TeacherID })
	var conflicts []models.Conflict
	for _, teacherID := range sortedKeys(byTeacher) {
		group := byTeacher[teacherID]
		for i := 0; i < len(group); i++ {
			for j := i + 1; j < len(group); j++ {
				a, b := group[i], group[j]
				if a.PeriodNumber != b.PeriodNumber || !models.SameDay(a.DayType, b.DayType) {
					continue
				}
				name := teacherID
				if teacher, ok := teachers[teacherID]; ok {
					name = teacher.FullName()
				}
				conflicts = append(conflicts, models.Conflict{
					ID:          fmt.Sprintf("%s:%s:%s", models.ConflictTeacherDoubleBooked, a.ID, b.ID),
					ScheduleID:  scheduleID,
					Type:        models.ConflictTeacherDoubleBooked,
					Severity:    models.SeverityCritical,
					Hard:        true,
					Description: fmt.Sprintf("%s teaches two slots in period %d", name, a.PeriodNumber),
					SlotIDs:     []string{a.ID, b.ID},
					TeacherID:   teacherID,
					PenaltyCost: s.weights.TeacherConflict,
					DetectedAt:  time.Now().UTC(),
				})
			}
		}
	}
	return conflicts
}

// detectRoomDoubleBookings finds rooms hosting two slots in the same period
// on coinciding day types.
func (s *ConflictService) detectRoomDoubleBookings(scheduleID string, slots []models.ScheduleSlot) []models.Conflict {
	byRoom := groupSlots(slots, func(slot models.ScheduleSlot) string { return slot.RoomID })
	var conflicts []models.Conflict
	for _, roomID := range sortedKeys(byRoom) {
		group := byRoom[roomID]
		for i := 0; i < len(group); i++ {
			for j := i + 1; j < len(group); j++ {
				a, b := group[i], group[j]
				if a.PeriodNumber != b.PeriodNumber || !models.SameDay(a.DayType, b.DayType) {
					continue
				}
				conflicts = append(conflicts, models.Conflict{
					ID:          fmt.Sprintf("%s:%s:%s", models.ConflictRoomDoubleBooked, a.ID, b.ID),
					ScheduleID:  scheduleID,
					Type:        models.ConflictRoomDoubleBooked,
					Severity:    models.SeverityCritical,
					Hard:        true,
					Description: fmt.Sprintf("room hosts two slots in period %d", a.PeriodNumber),
					SlotIDs:     []string{a.ID, b.ID},
					RoomID:      roomID,
					PenaltyCost: s.weights.RoomConflict,
					DetectedAt:  time.Now().UTC(),
				})
			}
		}
	}
	return conflicts
}

// detectSlotRoomFit flags capacity shortfalls, missing labs, and missing
// equipment for each slot's course-room pairing.
func (s *ConflictService) detectSlotRoomFit(scheduleID string, slots []models.ScheduleSlot, courses map[string]models.Course, rooms map[string]models.Room) []models.Conflict {
	var conflicts []models.Conflict
	for _, slot := range slots {
		course, okC := courses[slot.CourseID]
		room, okR := rooms[slot.RoomID]
		if !okC || !okR {
			continue
		}
		if !course.UsesMultipleRooms && course.Enrollment > room.Capacity {
			conflicts = append(conflicts, models.Conflict{
				ID:          fmt.Sprintf("%s:%s", models.ConflictRoomOverCapacity, slot.ID),
				ScheduleID:  scheduleID,
				Type:        models.ConflictRoomOverCapacity,
				Severity:    models.SeverityHigh,
				Hard:        true,
				Description: fmt.Sprintf("%s enrolls %d in room %s seating %d", course.Code, course.Enrollment, room.RoomNumber, room.Capacity),
				SlotIDs:     []string{slot.ID},
				CourseID:    course.ID,
				RoomID:      room.ID,
				PenaltyCost: s.weights.Capacity,
				DetectedAt:  time.Now().UTC(),
			})
		}
		if course.RequiresLab && room.RoomType != models.RoomTypeScienceLab && room.RoomType != models.RoomTypeComputer {
			conflicts = append(conflicts, models.Conflict{
				ID:          fmt.Sprintf("%s:%s", models.ConflictMissingLab, slot.ID),
				ScheduleID:  scheduleID,
				Type:        models.ConflictMissingLab,
				Severity:    models.SeverityHigh,
				Hard:        true,
				Description: fmt.Sprintf("%s requires a lab but meets in %s", course.Code, room.RoomType),
				SlotIDs:     []string{slot.ID},
				CourseID:    course.ID,
				RoomID:      room.ID,
				PenaltyCost: s.weights.Capacity,
				DetectedAt:  time.Now().UTC(),
			})
		}
		if course.RequiredEquipment != nil && !roomHasEquipment(room, *course.RequiredEquipment) {
			conflicts = append(conflicts, models.Conflict{
				ID:          fmt.Sprintf("%s:%s", models.ConflictMissingEquipment, slot.ID),
				ScheduleID:  scheduleID,
				Type:        models.ConflictMissingEquipment,
				Severity:    models.SeverityMedium,
				Hard:        false,
				Description: fmt.Sprintf("%s needs %s, room %s lacks it", course.Code, *course.RequiredEquipment, room.RoomNumber),
				SlotIDs:     []string{slot.ID},
				CourseID:    course.ID,
				RoomID:      room.ID,
				PenaltyCost: s.weights.StudentPreference,
				DetectedAt:  time.Now().UTC(),
			})
		}
	}
	return conflicts
}

// detectTeacherOverload flags teachers whose slot count exceeds their daily
// maximum.
func (s *ConflictService) detectTeacherOverload(scheduleID string, slots []models.ScheduleSlot, teachers map[string]models.Teacher) []models.Conflict {
	byTeacher := groupSlots(slots, func(slot models.ScheduleSlot) string { return slot.TeacherID })
	var conflicts []models.Conflict
	for _, teacherID := range sortedKeys(byTeacher) {
		teacher, ok := teachers[teacherID]
		if !ok || teacher.MaxPeriodsPerDay <= 0 {
			continue
		}
		count := len(byTeacher[teacherID])
		if count <= teacher.MaxPeriodsPerDay {
			continue
		}
		slotIDs := make([]string, 0, count)
		for _, slot := range byTeacher[teacherID] {
			slotIDs = append(slotIDs, slot.ID)
		}
		conflicts = append(conflicts, models.Conflict{
			ID:          fmt.Sprintf("%s:%s", models.ConflictTeacherOverloaded, teacherID),
			ScheduleID:  scheduleID,
			Type:        models.ConflictTeacherOverloaded,
			Severity:    models.SeverityMedium,
			Hard:        false,
			Description: fmt.Sprintf("%s holds %d slots, limit is %d", teacher.FullName(), count, teacher.MaxPeriodsPerDay),
			SlotIDs:     slotIDs,
			TeacherID:   teacherID,
			PenaltyCost: s.weights.WorkloadBalance,
			DetectedAt:  time.Now().UTC(),
		})
	}
	return conflicts
}

// detectTeacherQualification flags slots taught by a teacher whose declared
// qualifications do not list the course subject. Teachers with no declared
// qualifications are assumed universal.
func (s *ConflictService) detectTeacherQualification(scheduleID string, slots []models.ScheduleSlot, courses map[string]models.Course, teachers map[string]models.Teacher) []models.Conflict {
	seen := make(map[string]bool)
	var conflicts []models.Conflict
	for _, slot := range slots {
		teacher, ok := teachers[slot.TeacherID]
		if !ok || teacher.Qualifications == nil || *teacher.Qualifications == "" {
			continue
		}
		course, ok := courses[slot.CourseID]
		if !ok {
			continue
		}
		if teacherQualifiedFor(*teacher.Qualifications, course.Subject) {
			continue
		}
		key := slot.TeacherID + ":" + slot.CourseID
		if seen[key] {
			continue
		}
		seen[key] = true
		conflicts = append(conflicts, models.Conflict{
			ID:          fmt.Sprintf("%s:%s", models.ConflictTeacherUnqualified, key),
			ScheduleID:  scheduleID,
			Type:        models.ConflictTeacherUnqualified,
			Severity:    models.SeverityHigh,
			Hard:        true,
			Description: fmt.Sprintf("%s is not qualified for %s (%s)", teacher.FullName(), course.Code, course.Subject),
			SlotIDs:     []string{slot.ID},
			TeacherID:   slot.TeacherID,
			CourseID:    slot.CourseID,
			PenaltyCost: s.weights.TeacherQualification,
			DetectedAt:  time.Now().UTC(),
		})
	}
	return conflicts
}

// detectTeacherWorkday audits the shape of each teacher's day: a prep period
// left free, a free period in the midday lunch window, and consecutive
// stretches within the teacher's declared limit. The day length is taken from
// the highest period number in the schedule.
func (s *ConflictService) detectTeacherWorkday(scheduleID string, slots []models.ScheduleSlot, teachers map[string]models.Teacher) []models.Conflict {
	dayLength := 0
	alternating := false
	for _, slot := range slots {
		if slot.PeriodNumber > dayLength {
			dayLength = slot.PeriodNumber
		}
		if slot.DayType != models.DayTypeAll {
			alternating = true
		}
	}
	// Shapes shorter than four periods carry no prep or lunch signal.
	if dayLength < 4 {
		return nil
	}
	days := []string{models.DayTypeAll}
	if alternating {
		days = []string{models.DayTypeADay, models.DayTypeBDay}
	}

	byTeacher := groupSlots(slots, func(slot models.ScheduleSlot) string { return slot.TeacherID })
	var conflicts []models.Conflict
	for _, teacherID := range sortedKeys(byTeacher) {
		teacher, ok := teachers[teacherID]
		if !ok {
			continue
		}
		for _, day := range days {
			taught := make(map[int]bool)
			var slotIDs []string
			for _, slot := range byTeacher[teacherID] {
				if !models.SameDay(slot.DayType, day) {
					continue
				}
				taught[slot.PeriodNumber] = true
				slotIDs = append(slotIDs, slot.ID)
			}
			if len(taught) == 0 {
				continue
			}
			sort.Strings(slotIDs)

			if len(taught) >= dayLength {
				conflicts = append(conflicts, models.Conflict{
					ID:          fmt.Sprintf("%s:%s:%s", models.ConflictMissingPrep, teacherID, day),
					ScheduleID:  scheduleID,
					Type:        models.ConflictMissingPrep,
					Severity:    models.SeverityMedium,
					Hard:        false,
					Description: fmt.Sprintf("%s teaches all %d periods on %s with no prep period", teacher.FullName(), dayLength, day),
					SlotIDs:     slotIDs,
					TeacherID:   teacherID,
					PenaltyCost: s.weights.WorkloadBalance,
					DetectedAt:  time.Now().UTC(),
				})
			}

			lunchStart := (dayLength + 1) / 2
			if taught[lunchStart] && taught[lunchStart+1] {
				conflicts = append(conflicts, models.Conflict{
					ID:          fmt.Sprintf("%s:%s:%s", models.ConflictMissingLunch, teacherID, day),
					ScheduleID:  scheduleID,
					Type:        models.ConflictMissingLunch,
					Severity:    models.SeverityLow,
					Hard:        false,
					Description: fmt.Sprintf("%s teaches through the lunch window (periods %d-%d) on %s", teacher.FullName(), lunchStart, lunchStart+1, day),
					SlotIDs:     slotIDs,
					TeacherID:   teacherID,
					PenaltyCost: s.weights.WorkloadBalance / 2,
					DetectedAt:  time.Now().UTC(),
				})
			}

			if limit := teacher.MaxConsecutive; limit > 0 {
				run, longest := 0, 0
				for p := 1; p <= dayLength; p++ {
					if taught[p] {
						run++
						if run > longest {
							longest = run
						}
					} else {
						run = 0
					}
				}
				if longest > limit {
					desc := fmt.Sprintf("%s teaches %d consecutive periods on %s, limit is %d", teacher.FullName(), longest, day, limit)
					if teacher.PreferredBreakMins > 0 {
						desc += fmt.Sprintf(" with a preferred %d minute break", teacher.PreferredBreakMins)
					}
					conflicts = append(conflicts, models.Conflict{
						ID:          fmt.Sprintf("%s:%s:%s", models.ConflictMissingBreak, teacherID, day),
						ScheduleID:  scheduleID,
						Type:        models.ConflictMissingBreak,
						Severity:    models.SeverityMedium,
						Hard:        false,
						Description: desc,
						SlotIDs:     slotIDs,
						TeacherID:   teacherID,
						PenaltyCost: s.weights.WorkloadBalance / 2,
						DetectedAt:  time.Now().UTC(),
					})
				}
			}
		}
	}
	return conflicts
}

// detectBuildingTravel flags teachers with back-to-back periods in different
// buildings, where passing time rarely covers the walk.
func (s *ConflictService) detectBuildingTravel(scheduleID string, slots []models.ScheduleSlot, teachers map[string]models.Teacher, rooms map[string]models.Room) []models.Conflict {
	byTeacher := groupSlots(slots, func(slot models.ScheduleSlot) string { return slot.TeacherID })
	var conflicts []models.Conflict
	for _, teacherID := range sortedKeys(byTeacher) {
		teacher, ok := teachers[teacherID]
		if !ok {
			continue
		}
		group := byTeacher[teacherID]
		sort.Slice(group, func(i, j int) bool {
			if group[i].PeriodNumber != group[j].PeriodNumber {
				return group[i].PeriodNumber < group[j].PeriodNumber
			}
			return group[i].ID < group[j].ID
		})
		for i := 0; i < len(group); i++ {
			for j := i + 1; j < len(group); j++ {
				a, b := group[i], group[j]
				if b.PeriodNumber != a.PeriodNumber+1 || !models.SameDay(a.DayType, b.DayType) {
					continue
				}
				from, okA := rooms[a.RoomID]
				to, okB := rooms[b.RoomID]
				if !okA || !okB || from.Building == "" || to.Building == "" || from.Building == to.Building {
					continue
				}
				conflicts = append(conflicts, models.Conflict{
					ID:          fmt.Sprintf("%s:%s:%s", models.ConflictRoomDistance, a.ID, b.ID),
					ScheduleID:  scheduleID,
					Type:        models.ConflictRoomDistance,
					Severity:    models.SeverityLow,
					Hard:        false,
					Description: fmt.Sprintf("%s moves from building %s to %s between periods %d and %d", teacher.FullName(), from.Building, to.Building, a.PeriodNumber, b.PeriodNumber),
					SlotIDs:     []string{a.ID, b.ID},
					TeacherID:   teacherID,
					PenaltyCost: s.weights.WorkloadBalance / 2,
					DetectedAt:  time.Now().UTC(),
				})
			}
		}
	}
	return conflicts
}

// detectAssignmentOverlaps flags rooms claimed by two different courses with
// usage patterns that can coincide. Disjoint patterns (ODD vs EVEN, first vs
// second half) share a room cleanly.
func (s *ConflictService) detectAssignmentOverlaps(ctx context.Context, scheduleID string, rooms map[string]models.Room) ([]models.Conflict, error) {
	var conflicts []models.Conflict
	for _, roomID := range sortedRoomKeys(rooms) {
		assignments, err := s.assignments.ListActiveByRoom(ctx, roomID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list room assignments")
		}
		for i := 0; i < len(assignments); i++ {
			for j := i + 1; j < len(assignments); j++ {
				a, b := assignments[i], assignments[j]
				if a.CourseID == b.CourseID {
					// A course's own entries rotate or tier by priority.
					continue
				}
				if !pattern.Overlaps(a.UsagePattern, b.UsagePattern) {
					continue
				}
				conflicts = append(conflicts, models.Conflict{
					ID:          fmt.Sprintf("%s:%s:%s", models.ConflictRoomDoubleBooked, a.ID, b.ID),
					ScheduleID:  scheduleID,
					Type:        models.ConflictRoomDoubleBooked,
					Severity:    models.SeverityHigh,
					Hard:        true,
					Description: fmt.Sprintf("room %s claimed by two courses with overlapping patterns (%s, %s)", rooms[roomID].RoomNumber, a.UsagePattern, b.UsagePattern),
					RoomID:      roomID,
					PenaltyCost: s.weights.RoomConflict,
					DetectedAt:  time.Now().UTC(),
				})
			}
		}
	}
	return conflicts, nil
}

func (s *ConflictService) loadCourses(ctx context.Context) (map[string]models.Course, error) {
	list, err := s.courses.ListActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	out := make(map[string]models.Course, len(list))
	for _, c := range list {
		out[c.ID] = c
	}
	return out, nil
}

func (s *ConflictService) loadTeachers(ctx context.Context) (map[string]models.Teacher, error) {
	list, err := s.teachers.ListActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list teachers")
	}
	out := make(map[string]models.Teacher, len(list))
	for _, t := range list {
		out[t.ID] = t
	}
	return out, nil
}

func (s *ConflictService) loadRooms(ctx context.Context) (map[string]models.Room, error) {
	list, err := s.rooms.ListActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list rooms")
	}
	out := make(map[string]models.Room, len(list))
	for _, r := range list {
		out[r.ID] = r
	}
	return out, nil
}

// teacherQualifiedFor matches a subject against a comma-separated
// qualification list, case-insensitively.
func teacherQualifiedFor(qualifications, subject string) bool {
	for _, q := range strings.Split(qualifications, ",") {
		if strings.EqualFold(strings.TrimSpace(q), subject) {
			return true
		}
	}
	return false
}

func groupSlots(slots []models.ScheduleSlot, key func(models.ScheduleSlot) string) map[string][]models.ScheduleSlot {
	out := make(map[string][]models.ScheduleSlot)
	for _, slot := range slots {
		k := key(slot)
		if k == "" {
			continue
		}
		out[k] = append(out[k], slot)
	}
	return out
}

func sortedKeys(m map[string][]models.ScheduleSlot) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedRoomKeys(m map[string]models.Room) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func roomHasEquipment(room models.Room, equipment string) bool {
	switch equipment {
	case "projector":
		return room.HasProjector
	case "computers":
		return room.HasComputers
	case "smartboard":
		return room.HasSmartboard
	}
	return false
}
