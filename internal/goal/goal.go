// Package goal provides goal lifecycle operations and weighted progress
// aggregation over linked activities.
package goal

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/tavonga/careconnect/internal/fault"
	"github.com/tavonga/careconnect/internal/models"
	"gorm.io/gorm"
)

// ValidPriorities are the accepted goal priorities.
var ValidPriorities = []string{"low", "medium", "high", "urgent"}

// ValidStatuses are the accepted goal statuses.
var ValidStatuses = []string{"active", "completed", "paused", "cancelled"}

// CreateOpts holds parameters for creating a new goal.
type CreateOpts struct {
	Name                    string
	Description             string
	Category                string
	TargetDate              *time.Time
	Priority                string
	Notes                   string
	RequiredActivitiesCount int
	CompletionThreshold     int // 0 means default 80
	CarerIDs                []string
	CreatedByID             string
}

// ListFilters holds optional filters for listing goals.
type ListFilters struct {
	Status      string
	Priority    string
	CarerID     string
	CreatedByID string
}

// GenerateID creates a unique goal ID in gl-xxxxx format (5-char hex).
func GenerateID() (string, error) {
	b := make([]byte, 3)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("goal: generate ID: %w", err)
	}
	return "gl-" + hex.EncodeToString(b)[:5], nil
}

// generateUniqueID generates an ID and retries once on collision.
func generateUniqueID(db *gorm.DB) (string, error) {
	for attempt := 0; attempt < 2; attempt++ {
		id, err := GenerateID()
		if err != nil {
			return "", err
		}
		var count int64
		if err := db.Model(&models.Goal{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return "", fmt.Errorf("goal: check ID uniqueness: %w", err)
		}
		if count == 0 {
			return id, nil
		}
	}
	return "", fmt.Errorf("goal: failed to generate unique ID after retries")
}

// Create creates a new goal with an auto-generated ID and assigns any carers.
func Create(db *gorm.DB, opts CreateOpts) (*models.Goal, error) {
	if opts.Name == "" {
		return nil, fault.NewValidation("name", "name is required")
	}
	if opts.Priority == "" {
		opts.Priority = "medium"
	}
	if !contains(ValidPriorities, opts.Priority) {
		return nil, fault.NewValidation("priority", "unknown priority %q", opts.Priority)
	}
	if opts.CompletionThreshold == 0 {
		opts.CompletionThreshold = 80
	}
	if opts.CompletionThreshold < 0 || opts.CompletionThreshold > 100 {
		return nil, fault.NewValidation("completion_threshold", "must be between 0 and 100")
	}
	if opts.RequiredActivitiesCount < 0 {
		return nil, fault.NewValidation("required_activities_count", "must not be negative")
	}

	id, err := generateUniqueID(db)
	if err != nil {
		return nil, err
	}

	g := models.Goal{
		ID:                      id,
		Name:                    opts.Name,
		Description:             opts.Description,
		Category:                opts.Category,
		TargetDate:              opts.TargetDate,
		Status:                  "active",
		Priority:                opts.Priority,
		Notes:                   opts.Notes,
		RequiredActivitiesCount: opts.RequiredActivitiesCount,
		CompletionThreshold:     opts.CompletionThreshold,
		CreatedByID:             opts.CreatedByID,
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&g).Error; err != nil {
			return fmt.Errorf("goal: create: %w", err)
		}
		for _, carerID := range opts.CarerIDs {
			gc := models.GoalCarer{GoalID: g.ID, UserID: carerID}
			if err := tx.Create(&gc).Error; err != nil {
				return fmt.Errorf("goal: assign carer %s: %w", carerID, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// Get retrieves a goal by ID, preloading carer assignments.
func Get(db *gorm.DB, id string) (*models.Goal, error) {
	var g models.Goal
	if err := db.Preload("AssignedCarers.User").Where("id = ?", id).First(&g).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &fault.NotFoundError{Entity: "goal", ID: id}
		}
		return nil, fmt.Errorf("goal: get %s: %w", id, err)
	}
	return &g, nil
}

// List returns goals matching the given filters, newest first.
func List(db *gorm.DB, filters ListFilters) ([]models.Goal, error) {
	q := db.Model(&models.Goal{})

	if filters.Status != "" {
		q = q.Where("status = ?", filters.Status)
	}
	if filters.Priority != "" {
		q = q.Where("priority = ?", filters.Priority)
	}
	if filters.CreatedByID != "" {
		q = q.Where("created_by_id = ?", filters.CreatedByID)
	}
	if filters.CarerID != "" {
		q = q.Where("id IN (?)", db.Model(&models.GoalCarer{}).
			Select("goal_id").Where("user_id = ?", filters.CarerID))
	}

	var goals []models.Goal
	if err := q.Order("created_at DESC").Find(&goals).Error; err != nil {
		return nil, fmt.Errorf("goal: list: %w", err)
	}
	return goals, nil
}

// Update modifies goal fields. Status values are validated; the cached
// progress percentage is owned by UpdateProgress and rejected here.
func Update(db *gorm.DB, id string, updates map[string]interface{}) error {
	var g models.Goal
	if err := db.Where("id = ?", id).First(&g).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &fault.NotFoundError{Entity: "goal", ID: id}
		}
		return fmt.Errorf("goal: get %s for update: %w", id, err)
	}

	if _, ok := updates["progress_percentage"]; ok {
		return fault.NewValidation("progress_percentage", "recomputed via update_progress, not editable")
	}
	if newStatus, ok := updates["status"].(string); ok {
		if !contains(ValidStatuses, newStatus) {
			return fault.NewValidation("status", "unknown status %q", newStatus)
		}
	}
	if threshold, ok := updates["completion_threshold"].(int); ok {
		if threshold < 0 || threshold > 100 {
			return fault.NewValidation("completion_threshold", "must be between 0 and 100")
		}
	}

	if err := db.Model(&models.Goal{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return fmt.Errorf("goal: update %s: %w", id, err)
	}
	return nil
}

// AssignCarer links a carer to a goal, ignoring duplicates.
func AssignCarer(db *gorm.DB, goalID, userID string) error {
	var count int64
	if err := db.Model(&models.Goal{}).Where("id = ?", goalID).Count(&count).Error; err != nil {
		return fmt.Errorf("goal: check %s: %w", goalID, err)
	}
	if count == 0 {
		return &fault.NotFoundError{Entity: "goal", ID: goalID}
	}

	gc := models.GoalCarer{GoalID: goalID, UserID: userID}
	if err := db.Where(&gc).FirstOrCreate(&gc).Error; err != nil {
		return fmt.Errorf("goal: assign carer %s to %s: %w", userID, goalID, err)
	}
	return nil
}

// StatusCount holds a status and its goal count.
type StatusCount struct {
	Status string
	Count  int
}

// Stats summarizes goals by status plus the average cached progress.
type Stats struct {
	ByStatus        []StatusCount
	Total           int
	AverageProgress float64
}

// Summary returns per-status goal counts and the average progress percentage.
func Summary(db *gorm.DB) (*Stats, error) {
	var counts []StatusCount
	if err := db.Model(&models.Goal{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Order("status ASC").
		Find(&counts).Error; err != nil {
		return nil, fmt.Errorf("goal: summary: %w", err)
	}

	stats := Stats{ByStatus: counts}
	for _, c := range counts {
		stats.Total += c.Count
	}
	if stats.Total > 0 {
		var avg *float64
		if err := db.Model(&models.Goal{}).
			Select("AVG(progress_percentage)").Scan(&avg).Error; err != nil {
			return nil, fmt.Errorf("goal: average progress: %w", err)
		}
		if avg != nil {
			stats.AverageProgress = *avg
		}
	}
	return &stats, nil
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
