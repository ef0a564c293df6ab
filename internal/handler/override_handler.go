package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/meridian-sis/scheduler-api/internal/dto"
	"github.com/meridian-sis/scheduler-api/internal/middleware"
	"github.com/meridian-sis/scheduler-api/internal/service"
	appErrors "github.com/meridian-sis/scheduler-api/pkg/errors"
	"github.com/meridian-sis/scheduler-api/pkg/response"
)

// OverrideHandler manages manual override and audit endpoints.
type OverrideHandler struct {
	service *service.OverrideService
	metrics *service.MetricsService
}

// NewOverrideHandler constructs handler.
func NewOverrideHandler(svc *service.OverrideService, metrics *service.MetricsService) *OverrideHandler {
	return &OverrideHandler{service: svc, metrics: metrics}
}

// Record godoc
// @Summary Apply a manual teacher/room override to a slot
// @Tags Overrides
// @Accept json
// @Produce json
// @Param slotId path string true "Slot ID"
// @Param payload body dto.OverrideSlotRequest true "Override payload"
// @Success 201 {object} response.Envelope
// @Router /slots/{slotId}/overrides [post]
func (h *OverrideHandler) Record(c *gin.Context) {
	var req dto.OverrideSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	override, err := h.service.RecordOverride(c.Request.Context(), c.Param("slotId"), req, middleware.CurrentActor(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.RecordOverride(override.OverrideType)
	response.Created(c, override)
}

// History godoc
// @Summary List the override audit trail for a slot, newest first
// @Tags Overrides
// @Produce json
// @Param slotId path string true "Slot ID"
// @Success 200 {object} response.Envelope
// @Router /slots/{slotId}/overrides [get]
func (h *OverrideHandler) History(c *gin.Context) {
	history, err := h.service.History(c.Request.Context(), c.Param("slotId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, history, nil)
}

// ScheduleHistory godoc
// @Summary List recent overrides across an entire schedule
// @Tags Overrides
// @Produce json
// @Param scheduleId path string true "Schedule ID"
// @Param limit query int false "Max rows"
// @Success 200 {object} response.Envelope
// @Router /schedules/{scheduleId}/overrides [get]
func (h *OverrideHandler) ScheduleHistory(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			response.Error(c, appErrors.Clone(appErrors.ErrInvalidParameter, "limit must be a non-negative integer"))
			return
		}
		limit = parsed
	}

	history, err := h.service.ScheduleHistory(c.Request.Context(), c.Param("scheduleId"), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, history, nil)
}

// SetPin godoc
// @Summary Pin or unpin a slot against automated changes
// @Tags Overrides
// @Accept json
// @Produce json
// @Param slotId path string true "Slot ID"
// @Param payload body dto.PinSlotRequest true "Pin payload"
// @Success 204
// @Router /slots/{slotId}/pin [put]
func (h *OverrideHandler) SetPin(c *gin.Context) {
	var req dto.PinSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	if err := h.service.SetPin(c.Request.Context(), c.Param("slotId"), req.Pinned, middleware.CurrentActor(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
