package handler

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// Routes bundles every handler for registration against a gin engine.
type Routes struct {
	Assignments     *AssignmentHandler
	Lunch           *LunchHandler
	Overrides       *OverrideHandler
	Conflicts       *ConflictHandler
	Analytics       *AnalyticsHandler
	Recommendations *RecommendationHandler
	Exports         *ExportHandler
	Metrics         *MetricsHandler

	ExportsEnabled bool
}

// Register mounts all API routes under the prefix. requireActor guards
// endpoints that write audit rows and must know who acted.
func (rt *Routes) Register(r *gin.Engine, apiPrefix string, requireActor gin.HandlerFunc) {
	prefix := strings.TrimRight(apiPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}
	api := r.Group(prefix)

	api.POST("/assignments", rt.Assignments.Create)
	api.GET("/assignments", rt.Assignments.List)
	api.GET("/assignments/:id/usable", rt.Assignments.Usable)
	api.DELETE("/assignments/:id", rt.Assignments.Deactivate)
	api.DELETE("/courses/:id/assignments", rt.Assignments.DeactivateForCourse)
	api.DELETE("/rooms/:id/assignments", rt.Assignments.DeactivateForRoom)
	api.GET("/courses/:id/primary-room", rt.Assignments.PrimaryRoom)
	api.GET("/courses/:id/rooms", rt.Assignments.EffectiveRooms)

	api.POST("/lunch/assignments", rt.Lunch.AssignAll)
	api.PUT("/lunch/students", rt.Lunch.ReassignStudent)
	api.PUT("/lunch/teachers", rt.Lunch.ReassignTeacher)
	api.GET("/lunch/waves/:waveId/roster", rt.Lunch.WaveRoster)

	schedules := api.Group("/schedules/:scheduleId")
	schedules.PUT("/lunch/students/:studentId/lock", rt.Lunch.SetLock)
	schedules.DELETE("/lunch/students/:studentId", rt.Lunch.RemoveStudent)
	schedules.DELETE("/lunch/assignments", rt.Lunch.Clear)
	schedules.POST("/lunch/rebalance", rt.Lunch.Rebalance)
	schedules.GET("/lunch/validation", rt.Lunch.Validate)
	schedules.GET("/lunch/waves", rt.Lunch.Waves)
	schedules.GET("/lunch/unassigned", rt.Lunch.Unassigned)
	schedules.POST("/lunch/teachers", rt.Lunch.AssignTeachers)
	schedules.PUT("/lunch/teachers/:teacherId/supervision", rt.Lunch.SetSupervision)
	schedules.DELETE("/lunch/teachers/:teacherId/supervision", rt.Lunch.ClearSupervision)

	schedules.GET("/conflicts", rt.Conflicts.Analyze)
	schedules.POST("/conflicts/refresh", rt.Conflicts.Refresh)
	schedules.GET("/conflicts/advisory", rt.Conflicts.Advisory)
	schedules.GET("/conflicts/:conflictId/resolutions", rt.Conflicts.Resolutions)

	schedules.GET("/overrides", rt.Overrides.ScheduleHistory)
	schedules.GET("/teachers/:teacherId/burnout", rt.Analytics.Burnout)
	schedules.GET("/burnout", rt.Analytics.HighRisk)

	slots := api.Group("/slots/:slotId")
	slots.POST("/overrides", requireActor, rt.Overrides.Record)
	slots.GET("/overrides", rt.Overrides.History)
	slots.PUT("/pin", requireActor, rt.Overrides.SetPin)

	api.GET("/recommendations/rooms", rt.Recommendations.Rooms)
	api.GET("/recommendations/teachers", rt.Recommendations.Teachers)
	api.GET("/recommendations/optimal", rt.Recommendations.Optimal)

	api.GET("/analytics/system", rt.Analytics.System)

	if rt.ExportsEnabled {
		schedules.GET("/exports/conflicts", rt.Exports.Conflicts)
		schedules.GET("/exports/lunch-roster", rt.Exports.LunchRoster)
	}

	r.GET("/metrics", rt.Metrics.Prometheus)
	r.GET("/health", rt.Metrics.Health)
	r.GET("/ready", rt.Metrics.Health)
}
