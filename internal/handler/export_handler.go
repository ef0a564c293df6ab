package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/meridian-sis/scheduler-api/internal/service"
	"github.com/meridian-sis/scheduler-api/pkg/response"
)

// ExportHandler streams rendered reports to the client.
type ExportHandler struct {
	service *service.ExportService
}

// NewExportHandler constructs handler.
func NewExportHandler(svc *service.ExportService) *ExportHandler {
	return &ExportHandler{service: svc}
}

// Conflicts godoc
// @Summary Export the conflict report for a schedule
// @Tags Exports
// @Produce text/csv
// @Produce application/pdf
// @Param scheduleId path string true "Schedule ID"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200
// @Router /schedules/{scheduleId}/exports/conflicts [get]
func (h *ExportHandler) Conflicts(c *gin.Context) {
	result, err := h.service.ConflictReport(c.Request.Context(), c.Param("scheduleId"), c.DefaultQuery("format", "csv"))
	if err != nil {
		response.Error(c, err)
		return
	}
	streamExport(c, result)
}

// LunchRoster godoc
// @Summary Export the student lunch roster for a schedule
// @Tags Exports
// @Produce text/csv
// @Produce application/pdf
// @Param scheduleId path string true "Schedule ID"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200
// @Router /schedules/{scheduleId}/exports/lunch-roster [get]
func (h *ExportHandler) LunchRoster(c *gin.Context) {
	result, err := h.service.LunchRoster(c.Request.Context(), c.Param("scheduleId"), c.DefaultQuery("format", "csv"))
	if err != nil {
		response.Error(c, err)
		return
	}
	streamExport(c, result)
}

func streamExport(c *gin.Context, result *service.ExportResult) {
	c.Header("Content-Disposition", `attachment; filename="`+result.Filename+`"`)
	c.Data(200, result.ContentType, result.Payload)
}
