package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tavonga/careconnect/internal/goal"
	"gorm.io/gorm"
)

type goalCreateRequest struct {
	Name                    string   `json:"name"`
	Description             string   `json:"description"`
	Category                string   `json:"category"`
	TargetDate              string   `json:"target_date"` // YYYY-MM-DD, optional
	Priority                string   `json:"priority"`
	Notes                   string   `json:"notes"`
	RequiredActivitiesCount int      `json:"required_activities_count"`
	CompletionThreshold     int      `json:"completion_threshold"`
	CarerIDs                []string `json:"carer_ids"`
	CreatedByID             string   `json:"created_by_id"`
}

func handleGoalCreate(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req goalCreateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid request body: "+err.Error())
			return
		}
		opts := goal.CreateOpts{
			Name:                    req.Name,
			Description:             req.Description,
			Category:                req.Category,
			Priority:                req.Priority,
			Notes:                   req.Notes,
			RequiredActivitiesCount: req.RequiredActivitiesCount,
			CompletionThreshold:     req.CompletionThreshold,
			CarerIDs:                req.CarerIDs,
			CreatedByID:             req.CreatedByID,
		}
		if req.TargetDate != "" {
			target, err := time.Parse(dateFormat, req.TargetDate)
			if err != nil {
				badRequest(c, "target_date must be YYYY-MM-DD")
				return
			}
			opts.TargetDate = &target
		}
		g, err := goal.Create(db, opts)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, g)
	}
}

func handleGoalList(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		goals, err := goal.List(db, goal.ListFilters{
			Status:      c.Query("status"),
			Priority:    c.Query("priority"),
			CarerID:     c.Query("carer_id"),
			CreatedByID: c.Query("created_by_id"),
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"goals": goals})
	}
}

func handleGoalGet(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		g, err := goal.Get(db, c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		calculated, err := goal.CalculatedProgress(db, g.ID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"goal": g, "calculated_progress": calculated})
	}
}

func handleGoalUpdate(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var updates map[string]interface{}
		if err := c.ShouldBindJSON(&updates); err != nil {
			badRequest(c, "invalid request body: "+err.Error())
			return
		}
		// JSON numbers arrive as float64; the domain layer checks ints.
		for _, field := range []string{"completion_threshold", "required_activities_count"} {
			if v, ok := updates[field].(float64); ok {
				updates[field] = int(v)
			}
		}
		id := c.Param("id")
		if err := goal.Update(db, id, updates); err != nil {
			respondError(c, err)
			return
		}
		g, err := goal.Get(db, id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, g)
	}
}

func handleGoalRecompute(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		g, err := goal.UpdateProgress(db, c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, g)
	}
}

type assignCarerRequest struct {
	UserID string `json:"user_id"`
}

func handleGoalAssignCarer(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req assignCarerRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid request body: "+err.Error())
			return
		}
		if req.UserID == "" {
			badRequest(c, "user_id is required")
			return
		}
		if err := goal.AssignCarer(db, c.Param("id"), req.UserID); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"assigned": true})
	}
}

func handleGoalSummary(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := goal.Summary(db)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, stats)
	}
}
