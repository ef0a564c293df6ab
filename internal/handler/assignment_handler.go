package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/meridian-sis/scheduler-api/internal/dto"
	"github.com/meridian-sis/scheduler-api/internal/service"
	appErrors "github.com/meridian-sis/scheduler-api/pkg/errors"
	"github.com/meridian-sis/scheduler-api/pkg/response"
)

// AssignmentHandler manages room assignment endpoints.
type AssignmentHandler struct {
	service *service.AssignmentService
}

// NewAssignmentHandler constructs handler.
func NewAssignmentHandler(svc *service.AssignmentService) *AssignmentHandler {
	return &AssignmentHandler{service: svc}
}

// Create godoc
// @Summary Assign a room to a course
// @Tags Assignments
// @Accept json
// @Produce json
// @Param payload body dto.AssignRoomRequest true "Assignment payload"
// @Success 201 {object} response.Envelope
// @Router /assignments [post]
func (h *AssignmentHandler) Create(c *gin.Context) {
	var req dto.AssignRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	assignment, err := h.service.Assign(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, assignment)
}

// List godoc
// @Summary List active assignments for a course or room
// @Tags Assignments
// @Produce json
// @Param courseId query string false "Filter by course"
// @Param roomId query string false "Filter by room"
// @Success 200 {object} response.Envelope
// @Router /assignments [get]
func (h *AssignmentHandler) List(c *gin.Context) {
	filter := dto.AssignmentListFilter{
		CourseID: c.Query("courseId"),
		RoomID:   c.Query("roomId"),
	}

	assignments, err := h.service.ListActive(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assignments, nil)
}

// Usable godoc
// @Summary Report whether an assignment is currently usable
// @Tags Assignments
// @Produce json
// @Param id path string true "Assignment ID"
// @Success 200 {object} response.Envelope
// @Router /assignments/{id}/usable [get]
func (h *AssignmentHandler) Usable(c *gin.Context) {
	usable, err := h.service.IsUsable(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"usable": usable}, nil)
}

// Deactivate godoc
// @Summary Deactivate an assignment
// @Tags Assignments
// @Produce json
// @Param id path string true "Assignment ID"
// @Success 204
// @Router /assignments/{id} [delete]
func (h *AssignmentHandler) Deactivate(c *gin.Context) {
	if err := h.service.Deactivate(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// DeactivateForCourse godoc
// @Summary Deactivate all assignments for a course
// @Tags Assignments
// @Produce json
// @Param id path string true "Course ID"
// @Param purge query bool false "Hard-delete rows instead of deactivating"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/assignments [delete]
func (h *AssignmentHandler) DeactivateForCourse(c *gin.Context) {
	if c.Query("purge") == "true" {
		count, err := h.service.PurgeAllForCourse(c.Request.Context(), c.Param("id"))
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, gin.H{"purged": count}, nil)
		return
	}
	count, err := h.service.DeactivateAllForCourse(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"deactivated": count}, nil)
}

// DeactivateForRoom godoc
// @Summary Deactivate all assignments for a room
// @Tags Assignments
// @Produce json
// @Param id path string true "Room ID"
// @Param purge query bool false "Hard-delete rows instead of deactivating"
// @Success 200 {object} response.Envelope
// @Router /rooms/{id}/assignments [delete]
func (h *AssignmentHandler) DeactivateForRoom(c *gin.Context) {
	if c.Query("purge") == "true" {
		count, err := h.service.PurgeAllForRoom(c.Request.Context(), c.Param("id"))
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, gin.H{"purged": count}, nil)
		return
	}
	count, err := h.service.DeactivateAllForRoom(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"deactivated": count}, nil)
}

// PrimaryRoom godoc
// @Summary Resolve the room behind a course's active primary assignment
// @Tags Assignments
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/primary-room [get]
func (h *AssignmentHandler) PrimaryRoom(c *gin.Context) {
	room, err := h.service.PrimaryRoom(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, room, nil)
}

// EffectiveRooms godoc
// @Summary List every room a course occupies, primary first
// @Tags Assignments
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/rooms [get]
func (h *AssignmentHandler) EffectiveRooms(c *gin.Context) {
	rooms, err := h.service.EffectiveRooms(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rooms, nil)
}
