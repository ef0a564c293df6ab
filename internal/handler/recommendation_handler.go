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

// RecommendationHandler exposes room and teacher recommendation endpoints.
type RecommendationHandler struct {
	service *service.RecommendationService
}

// NewRecommendationHandler constructs handler.
func NewRecommendationHandler(svc *service.RecommendationService) *RecommendationHandler {
	return &RecommendationHandler{service: svc}
}

// Rooms godoc
// @Summary Rank candidate rooms for a course
// @Tags Recommendations
// @Produce json
// @Param courseId query string true "Course ID"
// @Param scheduleId query string false "Schedule ID for occupancy filtering"
// @Param day query string false "Day type"
// @Param period query int false "Period number"
// @Param limit query int false "Max results"
// @Success 200 {object} response.Envelope
// @Router /recommendations/rooms [get]
func (h *RecommendationHandler) Rooms(c *gin.Context) {
	limit, err := parseLimit(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	period := 0
	if raw := c.Query("period"); raw != "" {
		period, err = strconv.Atoi(raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrInvalidParameter, "period must be an integer"))
			return
		}
	}

	recs, err := h.service.RecommendRooms(c.Request.Context(), dto.RoomRecommendationQuery{
		CourseID:   c.Query("courseId"),
		ScheduleID: c.Query("scheduleId"),
		Day:        c.Query("day"),
		Period:     period,
		Limit:      limit,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, recs, nil)
}

// Teachers godoc
// @Summary Rank replacement teachers for a slot
// @Tags Recommendations
// @Produce json
// @Param scheduleId query string true "Schedule ID"
// @Param slotId query string true "Slot ID"
// @Param limit query int false "Max results"
// @Success 200 {object} response.Envelope
// @Router /recommendations/teachers [get]
func (h *RecommendationHandler) Teachers(c *gin.Context) {
	limit, err := parseLimit(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	recs, err := h.service.RecommendTeachers(c.Request.Context(), c.Query("scheduleId"), c.Query("slotId"), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, recs, nil)
}

// Optimal godoc
// @Summary Pair every course with its best available room
// @Tags Recommendations
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /recommendations/optimal [get]
func (h *RecommendationHandler) Optimal(c *gin.Context) {
	assignments, err := h.service.OptimalAssignments(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assignments, nil)
}

func parseLimit(c *gin.Context) (int, error) {
	raw := c.Query("limit")
	if raw == "" {
		return 0, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return 0, appErrors.Clone(appErrors.ErrInvalidParameter, "limit must be a non-negative integer")
	}
	return limit, nil
}
