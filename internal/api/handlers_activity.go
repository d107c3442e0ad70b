package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tavonga/careconnect/internal/activity"
	"gorm.io/gorm"
)

// dateFormat is the wire format for calendar dates.
const dateFormat = "2006-01-02"

type activityCreateRequest struct {
	Name                   string   `json:"name"`
	Description            string   `json:"description"`
	Category               string   `json:"category"`
	Difficulty             string   `json:"difficulty"`
	Instructions           string   `json:"instructions"`
	Prerequisites          string   `json:"prerequisites"`
	EstimatedDuration      *int     `json:"estimated_duration"`
	PrimaryGoalID          string   `json:"primary_goal_id"`
	RelatedGoalIDs         []string `json:"related_goal_ids"`
	GoalContributionWeight int      `json:"goal_contribution_weight"`
	ImageURL               string   `json:"image_url"`
	VideoURL               string   `json:"video_url"`
	CreatedByID            string   `json:"created_by_id"`
}

func handleActivityCreate(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req activityCreateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid request body: "+err.Error())
			return
		}
		a, err := activity.Create(db, activity.CreateOpts{
			Name:                   req.Name,
			Description:            req.Description,
			Category:               req.Category,
			Difficulty:             req.Difficulty,
			Instructions:           req.Instructions,
			Prerequisites:          req.Prerequisites,
			EstimatedDuration:      req.EstimatedDuration,
			PrimaryGoalID:          req.PrimaryGoalID,
			RelatedGoalIDs:         req.RelatedGoalIDs,
			GoalContributionWeight: req.GoalContributionWeight,
			ImageURL:               req.ImageURL,
			VideoURL:               req.VideoURL,
			CreatedByID:            req.CreatedByID,
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, a)
	}
}

func handleActivityList(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		filters := activity.ListFilters{
			Category:   c.Query("category"),
			Difficulty: c.Query("difficulty"),
			GoalID:     c.Query("goal_id"),
		}
		if v := c.Query("active"); v != "" {
			active := v == "true"
			filters.Active = &active
		}
		activities, err := activity.List(db, filters)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"activities": activities})
	}
}

func handleActivityGet(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		a, err := activity.Get(db, c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		rate, err := activity.CompletionRate(db, a.ID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"activity": a, "completion_rate": rate})
	}
}

func handleActivityRetire(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := activity.Retire(db, c.Param("id")); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"retired": true})
	}
}

func handleActivitySummary(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		counts, err := activity.Summary(db)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"by_category": counts})
	}
}

type logCreateRequest struct {
	UserID        string `json:"user_id"`
	Date          string `json:"date"` // YYYY-MM-DD
	ScheduledTime string `json:"scheduled_time"`
	Notes         string `json:"notes"`
}

func handleLogCreate(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req logCreateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid request body: "+err.Error())
			return
		}
		date, err := time.Parse(dateFormat, req.Date)
		if err != nil {
			badRequest(c, "date must be YYYY-MM-DD")
			return
		}
		l, err := activity.CreateLog(db, activity.LogOpts{
			ActivityID:    c.Param("id"),
			UserID:        req.UserID,
			Date:          date,
			ScheduledTime: req.ScheduledTime,
			Notes:         req.Notes,
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, l)
	}
}

func handleLogList(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		filters := activity.LogFilters{
			ActivityID: c.Query("activity_id"),
			UserID:     c.Query("user_id"),
			Status:     c.Query("status"),
		}
		if v := c.Query("completed"); v != "" {
			completed := v == "true"
			filters.Completed = &completed
		}
		logs, err := activity.ListLogs(db, filters)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"logs": logs})
	}
}

func handleLogStart(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		l, err := activity.StartLog(db, c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, l)
	}
}

type logCompleteRequest struct {
	Notes              string `json:"notes"`
	DifficultyRating   *int   `json:"difficulty_rating"`
	SatisfactionRating *int   `json:"satisfaction_rating"`
	Challenges         string `json:"challenges"`
	Successes          string `json:"successes"`
}

func handleLogComplete(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req logCompleteRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid request body: "+err.Error())
			return
		}
		l, err := activity.CompleteLog(db, c.Param("id"), activity.CompleteLogOpts{
			Notes:              req.Notes,
			DifficultyRating:   req.DifficultyRating,
			SatisfactionRating: req.SatisfactionRating,
			Challenges:         req.Challenges,
			Successes:          req.Successes,
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, l)
	}
}

type logCancelRequest struct {
	Status string `json:"status"` // cancelled or skipped
}

func handleLogCancel(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req logCancelRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid request body: "+err.Error())
			return
		}
		if req.Status == "" {
			req.Status = "cancelled"
		}
		l, err := activity.CancelLog(db, c.Param("id"), req.Status)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, l)
	}
}
