package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/meridian-sis/scheduler-api/internal/service"
	"github.com/meridian-sis/scheduler-api/pkg/response"
)

// ConflictHandler exposes conflict analysis endpoints.
type ConflictHandler struct {
	service  *service.ConflictService
	advisory *service.AdvisoryService
	metrics  *service.MetricsService
}

// NewConflictHandler constructs handler.
func NewConflictHandler(svc *service.ConflictService, advisory *service.AdvisoryService, metrics *service.MetricsService) *ConflictHandler {
	return &ConflictHandler{service: svc, advisory: advisory, metrics: metrics}
}

// Analyze godoc
// @Summary Analyze a schedule for conflicts
// @Tags Conflicts
// @Produce json
// @Param scheduleId path string true "Schedule ID"
// @Success 200 {object} response.Envelope
// @Router /schedules/{scheduleId}/conflicts [get]
func (h *ConflictHandler) Analyze(c *gin.Context) {
	analysis, err := h.service.Analyze(c.Request.Context(), c.Param("scheduleId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.RecordConflictAnalysis(analysis)
	response.JSON(c, http.StatusOK, analysis, nil)
}

// Refresh godoc
// @Summary Drop the cached analysis and queue a background refresh
// @Tags Conflicts
// @Produce json
// @Param scheduleId path string true "Schedule ID"
// @Success 202
// @Router /schedules/{scheduleId}/conflicts/refresh [post]
func (h *ConflictHandler) Refresh(c *gin.Context) {
	h.service.Invalidate(c.Request.Context(), c.Param("scheduleId"))
	c.Status(http.StatusAccepted)
}

// Resolutions godoc
// @Summary Suggest ranked resolutions for one conflict
// @Tags Conflicts
// @Produce json
// @Param scheduleId path string true "Schedule ID"
// @Param conflictId path string true "Conflict ID"
// @Success 200 {object} response.Envelope
// @Router /schedules/{scheduleId}/conflicts/{conflictId}/resolutions [get]
func (h *ConflictHandler) Resolutions(c *gin.Context) {
	resolutions, err := h.service.Resolutions(c.Request.Context(), c.Param("scheduleId"), c.Param("conflictId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resolutions, nil)
}

// Advisory godoc
// @Summary Fetch a best-effort narrative assessment of schedule health
// @Tags Conflicts
// @Produce json
// @Param scheduleId path string true "Schedule ID"
// @Success 200 {object} response.Envelope
// @Router /schedules/{scheduleId}/conflicts/advisory [get]
func (h *ConflictHandler) Advisory(c *gin.Context) {
	analysis, err := h.service.Analyze(c.Request.Context(), c.Param("scheduleId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	opinion := h.advisory.Assess(c.Request.Context(), analysis)
	response.JSON(c, http.StatusOK, opinion, nil)
}
