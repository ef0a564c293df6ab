package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/meridian-sis/scheduler-api/internal/service"
	appErrors "github.com/meridian-sis/scheduler-api/pkg/errors"
	"github.com/meridian-sis/scheduler-api/pkg/response"
)

// AnalyticsHandler exposes workload analytics endpoints.
type AnalyticsHandler struct {
	service *service.AnalyticsService
	metrics *service.MetricsService
}

// NewAnalyticsHandler constructs handler.
func NewAnalyticsHandler(svc *service.AnalyticsService, metrics *service.MetricsService) *AnalyticsHandler {
	return &AnalyticsHandler{service: svc, metrics: metrics}
}

// Burnout godoc
// @Summary Score one teacher's burnout risk for a schedule
// @Tags Analytics
// @Produce json
// @Param scheduleId path string true "Schedule ID"
// @Param teacherId path string true "Teacher ID"
// @Success 200 {object} response.Envelope
// @Router /schedules/{scheduleId}/teachers/{teacherId}/burnout [get]
func (h *AnalyticsHandler) Burnout(c *gin.Context) {
	risk, err := h.service.BurnoutRisk(c.Request.Context(), c.Param("scheduleId"), c.Param("teacherId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, risk, nil)
}

// HighRisk godoc
// @Summary List teachers whose burnout score meets a threshold
// @Tags Analytics
// @Produce json
// @Param scheduleId path string true "Schedule ID"
// @Param threshold query number false "Minimum score, 0-100"
// @Success 200 {object} response.Envelope
// @Router /schedules/{scheduleId}/burnout [get]
func (h *AnalyticsHandler) HighRisk(c *gin.Context) {
	threshold := 70.0
	if raw := c.Query("threshold"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrInvalidParameter, "threshold must be a number"))
			return
		}
		threshold = parsed
	}

	risks, err := h.service.HighRiskTeachers(c.Request.Context(), c.Param("scheduleId"), threshold)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, risks, nil)
}

// System godoc
// @Summary Return an aggregate runtime metrics snapshot
// @Tags Analytics
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /analytics/system [get]
func (h *AnalyticsHandler) System(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.metrics.Snapshot(), nil)
}
