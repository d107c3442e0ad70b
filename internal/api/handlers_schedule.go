package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tavonga/careconnect/internal/schedule"
	"gorm.io/gorm"
)

type scheduleCreateRequest struct {
	ActivityID            string `json:"activity_id"`
	AssignedUserID        string `json:"assigned_user_id"`
	CreatedByID           string `json:"created_by_id"`
	ScheduledDate         string `json:"scheduled_date"` // YYYY-MM-DD
	ScheduledTime         string `json:"scheduled_time"` // HH:MM
	EstimatedDuration     *int   `json:"estimated_duration"`
	Priority              string `json:"priority"`
	RecurrenceType        string `json:"recurrence_type"`
	RecurrenceEndDate     string `json:"recurrence_end_date"` // YYYY-MM-DD
	Notes                 string `json:"notes"`
	PreparationNotes      string `json:"preparation_notes"`
	Location              string `json:"location"`
	SpecialRequirements   string `json:"special_requirements"`
	SendReminder          *bool  `json:"send_reminder"`
	ReminderMinutesBefore int    `json:"reminder_minutes_before"`
}

func handleScheduleCreate(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req scheduleCreateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid request body: "+err.Error())
			return
		}
		date, err := time.Parse(dateFormat, req.ScheduledDate)
		if err != nil {
			badRequest(c, "scheduled_date must be YYYY-MM-DD")
			return
		}
		opts := schedule.CreateOpts{
			ActivityID:            req.ActivityID,
			AssignedUserID:        req.AssignedUserID,
			CreatedByID:           req.CreatedByID,
			ScheduledDate:         date,
			ScheduledTime:         req.ScheduledTime,
			EstimatedDuration:     req.EstimatedDuration,
			Priority:              req.Priority,
			RecurrenceType:        req.RecurrenceType,
			Notes:                 req.Notes,
			PreparationNotes:      req.PreparationNotes,
			Location:              req.Location,
			SpecialRequirements:   req.SpecialRequirements,
			SendReminder:          req.SendReminder,
			ReminderMinutesBefore: req.ReminderMinutesBefore,
		}
		if req.RecurrenceEndDate != "" {
			end, err := time.Parse(dateFormat, req.RecurrenceEndDate)
			if err != nil {
				badRequest(c, "recurrence_end_date must be YYYY-MM-DD")
				return
			}
			opts.RecurrenceEndDate = &end
		}
		s, err := schedule.Create(db, opts)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, s)
	}
}

func handleScheduleList(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		filters := schedule.ListFilters{
			Status:         c.Query("status"),
			AssignedUserID: c.Query("assigned_user_id"),
			ActivityID:     c.Query("activity_id"),
		}
		if v := c.Query("date_from"); v != "" {
			from, err := time.Parse(dateFormat, v)
			if err != nil {
				badRequest(c, "date_from must be YYYY-MM-DD")
				return
			}
			filters.DateFrom = &from
		}
		if v := c.Query("date_to"); v != "" {
			to, err := time.Parse(dateFormat, v)
			if err != nil {
				badRequest(c, "date_to must be YYYY-MM-DD")
				return
			}
			filters.DateTo = &to
		}
		if v := c.Query("completed"); v != "" {
			completed := v == "true"
			filters.Completed = &completed
		}
		schedules, err := schedule.List(db, filters)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"schedules": schedules})
	}
}

func handleScheduleGet(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, err := schedule.Get(db, c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, s)
	}
}

func handleScheduleUpdate(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var updates map[string]interface{}
		if err := c.ShouldBindJSON(&updates); err != nil {
			badRequest(c, "invalid request body: "+err.Error())
			return
		}
		for _, field := range []string{"completion_percentage", "difficulty_rating", "satisfaction_rating", "reminder_minutes_before"} {
			if v, ok := updates[field].(float64); ok {
				updates[field] = int(v)
			}
		}
		id := c.Param("id")
		if err := schedule.Update(db, id, updates); err != nil {
			respondError(c, err)
			return
		}
		s, err := schedule.Get(db, id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, s)
	}
}

func handleScheduleToday(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		schedules, err := schedule.Today(db, c.Query("assigned_user_id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"schedules": schedules})
	}
}

func handleScheduleUpcoming(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		days := 7
		if v := c.Query("days"); v != "" {
			parsed, err := strconv.Atoi(v)
			if err != nil || parsed < 1 {
				badRequest(c, "days must be a positive integer")
				return
			}
			days = parsed
		}
		schedules, err := schedule.Upcoming(db, c.Query("assigned_user_id"), days)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"schedules": schedules})
	}
}

func handleScheduleOverdue(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		schedules, err := schedule.Overdue(db, c.Query("assigned_user_id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"schedules": schedules})
	}
}

func handleScheduleStats(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := schedule.Summary(db, c.Query("assigned_user_id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, stats)
	}
}

func handleScheduleStart(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, err := schedule.Start(db, c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, s)
	}
}

type scheduleCompleteRequest struct {
	CompletionPercentage *int   `json:"completion_percentage"`
	Notes                string `json:"notes"`
	DifficultyRating     *int   `json:"difficulty_rating"`
	SatisfactionRating   *int   `json:"satisfaction_rating"`
}

func handleScheduleComplete(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req scheduleCompleteRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid request body: "+err.Error())
			return
		}
		s, err := schedule.Complete(db, c.Param("id"), schedule.CompleteOpts{
			CompletionPercentage: req.CompletionPercentage,
			Notes:                req.Notes,
			DifficultyRating:     req.DifficultyRating,
			SatisfactionRating:   req.SatisfactionRating,
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, s)
	}
}

type scheduleCancelRequest struct {
	Reason string `json:"reason"`
}

func handleScheduleCancel(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req scheduleCancelRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid request body: "+err.Error())
			return
		}
		s, err := schedule.Cancel(db, c.Param("id"), req.Reason)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, s)
	}
}

type rescheduleRequest struct {
	NewDate string `json:"new_date"` // YYYY-MM-DD
	NewTime string `json:"new_time"` // HH:MM
	Reason  string `json:"reason"`
}

func handleScheduleReschedule(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req rescheduleRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid request body: "+err.Error())
			return
		}
		date, err := time.Parse(dateFormat, req.NewDate)
		if err != nil {
			badRequest(c, "new_date must be YYYY-MM-DD")
			return
		}
		old, successor, err := schedule.Reschedule(db, c.Param("id"), schedule.RescheduleOpts{
			NewDate: date,
			NewTime: req.NewTime,
			Reason:  req.Reason,
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"old_schedule": old, "new_schedule": successor})
	}
}

type templateCreateRequest struct {
	Name                    string `json:"name"`
	Description             string `json:"description"`
	ActivityID              string `json:"activity_id"`
	DefaultDuration         int    `json:"default_duration"`
	DefaultPriority         string `json:"default_priority"`
	DefaultLocation         string `json:"default_location"`
	DefaultPreparationNotes string `json:"default_preparation_notes"`
	DefaultReminderMinutes  int    `json:"default_reminder_minutes"`
	CreatedByID             string `json:"created_by_id"`
}

func handleTemplateCreate(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req templateCreateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid request body: "+err.Error())
			return
		}
		tpl, err := schedule.CreateTemplate(db, schedule.TemplateOpts{
			Name:                    req.Name,
			Description:             req.Description,
			ActivityID:              req.ActivityID,
			DefaultDuration:         req.DefaultDuration,
			DefaultPriority:         req.DefaultPriority,
			DefaultLocation:         req.DefaultLocation,
			DefaultPreparationNotes: req.DefaultPreparationNotes,
			DefaultReminderMinutes:  req.DefaultReminderMinutes,
			CreatedByID:             req.CreatedByID,
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, tpl)
	}
}

func handleTemplateList(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		tpls, err := schedule.ListTemplates(db)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"templates": tpls})
	}
}

type fromTemplateRequest struct {
	AssignedUserID string `json:"assigned_user_id"`
	CreatedByID    string `json:"created_by_id"`
	ScheduledDate  string `json:"scheduled_date"` // YYYY-MM-DD
	ScheduledTime  string `json:"scheduled_time"` // HH:MM
}

func handleScheduleFromTemplate(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req fromTemplateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid request body: "+err.Error())
			return
		}
		date, err := time.Parse(dateFormat, req.ScheduledDate)
		if err != nil {
			badRequest(c, "scheduled_date must be YYYY-MM-DD")
			return
		}
		s, err := schedule.FromTemplate(db, c.Param("id"), req.AssignedUserID, req.CreatedByID, date, req.ScheduledTime)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, s)
	}
}

type conflictRecordRequest struct {
	Schedule1ID  string `json:"schedule1_id"`
	Schedule2ID  string `json:"schedule2_id"`
	ConflictType string `json:"conflict_type"`
}

func handleConflictRecord(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req conflictRecordRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid request body: "+err.Error())
			return
		}
		conflict, err := schedule.RecordConflict(db, req.Schedule1ID, req.Schedule2ID, req.ConflictType)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, conflict)
	}
}

func handleConflictList(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		unresolvedOnly := c.Query("unresolved") == "true"
		conflicts, err := schedule.ListConflicts(db, unresolvedOnly)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"conflicts": conflicts})
	}
}

type conflictResolveRequest struct {
	ResolutionNotes string `json:"resolution_notes"`
}

func handleConflictResolve(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil {
			badRequest(c, "conflict id must be numeric")
			return
		}
		var req conflictResolveRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid request body: "+err.Error())
			return
		}
		conflict, err := schedule.ResolveConflict(db, uint(id), req.ResolutionNotes)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, conflict)
	}
}
