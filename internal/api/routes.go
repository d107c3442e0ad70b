package api

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// registerRoutes sets up all API routes on the Gin router.
func registerRoutes(router *gin.Engine, db *gorm.DB) {
	apiGroup := router.Group("/api")

	apiGroup.GET("/healthz", handleHealth(db))

	apiGroup.POST("/activities", handleActivityCreate(db))
	apiGroup.GET("/activities", handleActivityList(db))
	apiGroup.GET("/activities/:id", handleActivityGet(db))
	apiGroup.DELETE("/activities/:id", handleActivityRetire(db))
	apiGroup.GET("/activities/summary", handleActivitySummary(db))
	apiGroup.POST("/activities/:id/logs", handleLogCreate(db))
	apiGroup.GET("/activity-logs", handleLogList(db))
	apiGroup.POST("/activity-logs/:id/start", handleLogStart(db))
	apiGroup.POST("/activity-logs/:id/complete", handleLogComplete(db))
	apiGroup.POST("/activity-logs/:id/cancel", handleLogCancel(db))

	apiGroup.POST("/goals", handleGoalCreate(db))
	apiGroup.GET("/goals", handleGoalList(db))
	apiGroup.GET("/goals/:id", handleGoalGet(db))
	apiGroup.PATCH("/goals/:id", handleGoalUpdate(db))
	apiGroup.POST("/goals/:id/recompute", handleGoalRecompute(db))
	apiGroup.POST("/goals/:id/carers", handleGoalAssignCarer(db))
	apiGroup.GET("/goals/summary", handleGoalSummary(db))

	apiGroup.POST("/schedules", handleScheduleCreate(db))
	apiGroup.GET("/schedules", handleScheduleList(db))
	apiGroup.GET("/schedules/today", handleScheduleToday(db))
	apiGroup.GET("/schedules/upcoming", handleScheduleUpcoming(db))
	apiGroup.GET("/schedules/overdue", handleScheduleOverdue(db))
	apiGroup.GET("/schedules/stats", handleScheduleStats(db))
	apiGroup.GET("/schedules/:id", handleScheduleGet(db))
	apiGroup.PATCH("/schedules/:id", handleScheduleUpdate(db))
	apiGroup.POST("/schedules/:id/start", handleScheduleStart(db))
	apiGroup.POST("/schedules/:id/complete", handleScheduleComplete(db))
	apiGroup.POST("/schedules/:id/cancel", handleScheduleCancel(db))
	apiGroup.POST("/schedules/:id/reschedule", handleScheduleReschedule(db))

	apiGroup.POST("/schedule-templates", handleTemplateCreate(db))
	apiGroup.GET("/schedule-templates", handleTemplateList(db))
	apiGroup.POST("/schedule-templates/:id/schedules", handleScheduleFromTemplate(db))

	apiGroup.GET("/conflicts", handleConflictList(db))
	apiGroup.POST("/conflicts", handleConflictRecord(db))
	apiGroup.POST("/conflicts/:id/resolve", handleConflictResolve(db))

	// SSE feed of unresolved conflicts.
	apiGroup.GET("/events", handleSSE(db))
}

func handleHealth(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	}
}
