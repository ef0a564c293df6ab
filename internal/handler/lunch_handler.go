package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/meridian-sis/scheduler-api/internal/dto"
	"github.com/meridian-sis/scheduler-api/internal/service"
	appErrors "github.com/meridian-sis/scheduler-api/pkg/errors"
	"github.com/meridian-sis/scheduler-api/pkg/response"
)

// LunchHandler manages lunch wave endpoints.
type LunchHandler struct {
	service *service.LunchService
	metrics *service.MetricsService
}

// NewLunchHandler constructs handler.
func NewLunchHandler(svc *service.LunchService, metrics *service.MetricsService) *LunchHandler {
	return &LunchHandler{service: svc, metrics: metrics}
}

func (h *LunchHandler) publishOccupancy(summary *dto.LunchAssignmentSummary) {
	if summary == nil {
		return
	}
	for _, w := range summary.WaveOccupancy {
		h.metrics.RecordWaveOccupancy(summary.ScheduleID, w.Name, w.Assigned)
	}
}

// AssignAll godoc
// @Summary Run a placement strategy over a schedule's lunch waves
// @Tags Lunch
// @Accept json
// @Produce json
// @Param payload body dto.AssignLunchRequest true "Assignment payload"
// @Success 200 {object} response.Envelope
// @Router /lunch/assignments [post]
func (h *LunchHandler) AssignAll(c *gin.Context) {
	var req dto.AssignLunchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	summary, err := h.service.AssignAll(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.publishOccupancy(summary)
	response.JSON(c, http.StatusOK, summary, nil)
}

// ReassignStudent godoc
// @Summary Move a student to a specific wave
// @Tags Lunch
// @Accept json
// @Produce json
// @Param payload body dto.ReassignStudentRequest true "Reassignment payload"
// @Success 204
// @Router /lunch/students [put]
func (h *LunchHandler) ReassignStudent(c *gin.Context) {
	var req dto.ReassignStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	if err := h.service.ReassignStudent(c.Request.Context(), req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ReassignTeacher godoc
// @Summary Move a teacher to a specific wave
// @Tags Lunch
// @Accept json
// @Produce json
// @Param payload body dto.ReassignTeacherRequest true "Reassignment payload"
// @Success 204
// @Router /lunch/teachers [put]
func (h *LunchHandler) ReassignTeacher(c *gin.Context) {
	var req dto.ReassignTeacherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	if err := h.service.ReassignTeacher(c.Request.Context(), req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// SetLock godoc
// @Summary Lock or unlock a student's lunch placement
// @Tags Lunch
// @Produce json
// @Param scheduleId path string true "Schedule ID"
// @Param studentId path string true "Student ID"
// @Param locked query bool true "Lock state"
// @Success 204
// @Router /schedules/{scheduleId}/lunch/students/{studentId}/lock [put]
func (h *LunchHandler) SetLock(c *gin.Context) {
	locked, err := strconv.ParseBool(c.DefaultQuery("locked", "true"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInvalidParameter, "locked must be true or false"))
		return
	}

	if err := h.service.SetStudentLock(c.Request.Context(), c.Param("scheduleId"), c.Param("studentId"), locked); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Rebalance godoc
// @Summary Even out wave occupancy by moving unlocked students
// @Tags Lunch
// @Produce json
// @Param scheduleId path string true "Schedule ID"
// @Param maxMoves query int false "Move budget"
// @Success 200 {object} response.Envelope
// @Router /schedules/{scheduleId}/lunch/rebalance [post]
func (h *LunchHandler) Rebalance(c *gin.Context) {
	maxMoves := 0
	if raw := c.Query("maxMoves"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			response.Error(c, appErrors.Clone(appErrors.ErrInvalidParameter, "maxMoves must be a non-negative integer"))
			return
		}
		maxMoves = parsed
	}

	summary, err := h.service.Rebalance(c.Request.Context(), c.Param("scheduleId"), maxMoves)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.publishOccupancy(summary)
	response.JSON(c, http.StatusOK, summary, nil)
}

// Validate godoc
// @Summary Check wave counters and placements for integrity problems
// @Tags Lunch
// @Produce json
// @Param scheduleId path string true "Schedule ID"
// @Success 200 {object} response.Envelope
// @Router /schedules/{scheduleId}/lunch/validation [get]
func (h *LunchHandler) Validate(c *gin.Context) {
	report, err := h.service.Validate(c.Request.Context(), c.Param("scheduleId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// Waves godoc
// @Summary List lunch waves for a schedule
// @Tags Lunch
// @Produce json
// @Param scheduleId path string true "Schedule ID"
// @Success 200 {object} response.Envelope
// @Router /schedules/{scheduleId}/lunch/waves [get]
func (h *LunchHandler) Waves(c *gin.Context) {
	waves, err := h.service.Waves(c.Request.Context(), c.Param("scheduleId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, waves, nil)
}

// RemoveStudent godoc
// @Summary Remove a student's lunch placement
// @Tags Lunch
// @Produce json
// @Param scheduleId path string true "Schedule ID"
// @Param studentId path string true "Student ID"
// @Success 204
// @Router /schedules/{scheduleId}/lunch/students/{studentId} [delete]
func (h *LunchHandler) RemoveStudent(c *gin.Context) {
	if err := h.service.RemoveStudentAssignment(c.Request.Context(), c.Param("scheduleId"), c.Param("studentId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Clear godoc
// @Summary Clear a schedule's student lunch placements
// @Tags Lunch
// @Produce json
// @Param scheduleId path string true "Schedule ID"
// @Param keepLocked query bool false "Keep locked and manual placements"
// @Success 200 {object} response.Envelope
// @Router /schedules/{scheduleId}/lunch/assignments [delete]
func (h *LunchHandler) Clear(c *gin.Context) {
	keepLocked, err := strconv.ParseBool(c.DefaultQuery("keepLocked", "true"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInvalidParameter, "keepLocked must be true or false"))
		return
	}

	removed, err := h.service.ClearAssignments(c.Request.Context(), c.Param("scheduleId"), keepLocked)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"removed": removed}, nil)
}

// WaveRoster godoc
// @Summary List everyone seated in one lunch wave
// @Tags Lunch
// @Produce json
// @Param waveId path string true "Wave ID"
// @Success 200 {object} response.Envelope
// @Router /lunch/waves/{waveId}/roster [get]
func (h *LunchHandler) WaveRoster(c *gin.Context) {
	roster, err := h.service.WaveRoster(c.Request.Context(), c.Param("waveId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, roster, nil)
}

// Unassigned godoc
// @Summary List active students without a lunch placement
// @Tags Lunch
// @Produce json
// @Param scheduleId path string true "Schedule ID"
// @Success 200 {object} response.Envelope
// @Router /schedules/{scheduleId}/lunch/unassigned [get]
func (h *LunchHandler) Unassigned(c *gin.Context) {
	students, err := h.service.UnassignedStudents(c.Request.Context(), c.Param("scheduleId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students, nil)
}

// AssignTeachers godoc
// @Summary Spread unplaced teachers across a schedule's waves
// @Tags Lunch
// @Produce json
// @Param scheduleId path string true "Schedule ID"
// @Success 200 {object} response.Envelope
// @Router /schedules/{scheduleId}/lunch/teachers [post]
func (h *LunchHandler) AssignTeachers(c *gin.Context) {
	placed, err := h.service.AssignTeachers(c.Request.Context(), c.Param("scheduleId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"placed": placed}, nil)
}

// SetSupervision godoc
// @Summary Give a teacher supervision duty for their wave
// @Tags Lunch
// @Accept json
// @Produce json
// @Param scheduleId path string true "Schedule ID"
// @Param teacherId path string true "Teacher ID"
// @Param payload body dto.SupervisionRequest false "Duty location"
// @Success 204
// @Router /schedules/{scheduleId}/lunch/teachers/{teacherId}/supervision [put]
func (h *LunchHandler) SetSupervision(c *gin.Context) {
	var req dto.SupervisionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
			return
		}
	}

	if err := h.service.SetSupervisionDuty(c.Request.Context(), c.Param("scheduleId"), c.Param("teacherId"), req.Location); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ClearSupervision godoc
// @Summary Release a teacher's supervision duty
// @Tags Lunch
// @Produce json
// @Param scheduleId path string true "Schedule ID"
// @Param teacherId path string true "Teacher ID"
// @Success 204
// @Router /schedules/{scheduleId}/lunch/teachers/{teacherId}/supervision [delete]
func (h *LunchHandler) ClearSupervision(c *gin.Context) {
	if err := h.service.ClearSupervisionDuty(c.Request.Context(), c.Param("scheduleId"), c.Param("teacherId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
