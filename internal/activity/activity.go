// Package activity provides activity template and activity log lifecycle
// operations.
package activity

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/tavonga/careconnect/internal/fault"
	"github.com/tavonga/careconnect/internal/models"
	"gorm.io/gorm"
)

// ValidCategories are the accepted activity categories.
var ValidCategories = []string{
	"daily_living", "social", "educational", "recreational", "therapeutic", "other",
}

// ValidDifficulties are the accepted activity difficulty levels.
var ValidDifficulties = []string{"easy", "medium", "hard"}

// CreateOpts holds parameters for creating a new activity.
type CreateOpts struct {
	Name              string
	Description       string
	Category          string
	Difficulty        string
	Instructions      string
	Prerequisites     string
	EstimatedDuration *int // minutes
	PrimaryGoalID     string
	RelatedGoalIDs    []string
	// GoalContributionWeight defaults to 1 when zero.
	GoalContributionWeight int
	ImageURL               string
	VideoURL               string
	CreatedByID            string
}

// ListFilters holds optional filters for listing activities.
type ListFilters struct {
	Category   string
	Difficulty string
	GoalID     string
	Active     *bool
}

// GenerateID creates a unique activity ID in act-xxxxx format (5-char hex).
func GenerateID() (string, error) {
	b := make([]byte, 3)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("activity: generate ID: %w", err)
	}
	return "act-" + hex.EncodeToString(b)[:5], nil
}

// generateUniqueID generates an ID and retries once on collision.
func generateUniqueID(db *gorm.DB) (string, error) {
	for attempt := 0; attempt < 2; attempt++ {
		id, err := GenerateID()
		if err != nil {
			return "", err
		}
		var count int64
		if err := db.Model(&models.Activity{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return "", fmt.Errorf("activity: check ID uniqueness: %w", err)
		}
		if count == 0 {
			return id, nil
		}
	}
	return "", fmt.Errorf("activity: failed to generate unique ID after retries")
}

// Create creates a new activity with an auto-generated ID and links any
// related goals. The creation and all goal links commit in one transaction.
func Create(db *gorm.DB, opts CreateOpts) (*models.Activity, error) {
	if opts.Name == "" {
		return nil, fault.NewValidation("name", "name is required")
	}
	if opts.Category == "" {
		opts.Category = "other"
	}
	if !contains(ValidCategories, opts.Category) {
		return nil, fault.NewValidation("category", "unknown category %q", opts.Category)
	}
	if opts.Difficulty == "" {
		opts.Difficulty = "medium"
	}
	if !contains(ValidDifficulties, opts.Difficulty) {
		return nil, fault.NewValidation("difficulty", "unknown difficulty %q", opts.Difficulty)
	}
	if opts.GoalContributionWeight == 0 {
		opts.GoalContributionWeight = 1
	}
	if opts.GoalContributionWeight < 1 {
		return nil, fault.NewValidation("goal_contribution_weight", "must be a positive integer")
	}
	if opts.EstimatedDuration != nil && *opts.EstimatedDuration <= 0 {
		return nil, fault.NewValidation("estimated_duration", "must be a positive number of minutes")
	}

	if opts.PrimaryGoalID != "" {
		if err := checkGoalExists(db, opts.PrimaryGoalID); err != nil {
			return nil, err
		}
	}
	for _, goalID := range opts.RelatedGoalIDs {
		if err := checkGoalExists(db, goalID); err != nil {
			return nil, err
		}
	}

	id, err := generateUniqueID(db)
	if err != nil {
		return nil, err
	}

	a := models.Activity{
		ID:                     id,
		Name:                   opts.Name,
		Description:            opts.Description,
		Category:               opts.Category,
		Difficulty:             opts.Difficulty,
		Instructions:           opts.Instructions,
		Prerequisites:          opts.Prerequisites,
		EstimatedDuration:      opts.EstimatedDuration,
		GoalContributionWeight: opts.GoalContributionWeight,
		ImageURL:               opts.ImageURL,
		VideoURL:               opts.VideoURL,
		Active:                 true,
		CreatedByID:            opts.CreatedByID,
	}
	if opts.PrimaryGoalID != "" {
		a.PrimaryGoalID = &opts.PrimaryGoalID
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&a).Error; err != nil {
			return fmt.Errorf("activity: create: %w", err)
		}
		for _, goalID := range opts.RelatedGoalIDs {
			if goalID == opts.PrimaryGoalID {
				continue
			}
			link := models.ActivityGoal{ActivityID: a.ID, GoalID: goalID}
			if err := tx.Create(&link).Error; err != nil {
				return fmt.Errorf("activity: link goal %s: %w", goalID, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Get retrieves an activity by ID, preloading goal links.
func Get(db *gorm.DB, id string) (*models.Activity, error) {
	var a models.Activity
	if err := db.Preload("RelatedGoals").Where("id = ?", id).First(&a).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &fault.NotFoundError{Entity: "activity", ID: id}
		}
		return nil, fmt.Errorf("activity: get %s: %w", id, err)
	}
	return &a, nil
}

// List returns activities matching the given filters, ordered by name.
func List(db *gorm.DB, filters ListFilters) ([]models.Activity, error) {
	q := db.Model(&models.Activity{})

	if filters.Category != "" {
		q = q.Where("category = ?", filters.Category)
	}
	if filters.Difficulty != "" {
		q = q.Where("difficulty = ?", filters.Difficulty)
	}
	if filters.Active != nil {
		q = q.Where("active = ?", *filters.Active)
	}
	if filters.GoalID != "" {
		q = q.Where("primary_goal_id = ? OR id IN (?)", filters.GoalID,
			db.Model(&models.ActivityGoal{}).Select("activity_id").Where("goal_id = ?", filters.GoalID))
	}

	var activities []models.Activity
	if err := q.Order("name ASC").Find(&activities).Error; err != nil {
		return nil, fmt.Errorf("activity: list: %w", err)
	}
	return activities, nil
}

// Retire soft-deletes an activity by clearing its active flag. Logs and
// schedules referencing it are kept.
func Retire(db *gorm.DB, id string) error {
	result := db.Model(&models.Activity{}).Where("id = ?", id).Update("active", false)
	if result.Error != nil {
		return fmt.Errorf("activity: retire %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return &fault.NotFoundError{Entity: "activity", ID: id}
	}
	return nil
}

// AllGoalIDs returns the IDs of all goals this activity contributes to:
// its primary goal plus related goals, deduplicated.
func AllGoalIDs(db *gorm.DB, activityID string) ([]string, error) {
	a, err := Get(db, activityID)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var ids []string
	if a.PrimaryGoalID != nil {
		seen[*a.PrimaryGoalID] = true
		ids = append(ids, *a.PrimaryGoalID)
	}
	for _, link := range a.RelatedGoals {
		if !seen[link.GoalID] {
			seen[link.GoalID] = true
			ids = append(ids, link.GoalID)
		}
	}
	return ids, nil
}

// CompletionRate returns the percentage of this activity's logs that are
// completed, or 0 when no logs exist.
func CompletionRate(db *gorm.DB, activityID string) (float64, error) {
	var total, completed int64
	if err := db.Model(&models.ActivityLog{}).
		Where("activity_id = ?", activityID).Count(&total).Error; err != nil {
		return 0, fmt.Errorf("activity: count logs of %s: %w", activityID, err)
	}
	if total == 0 {
		return 0, nil
	}
	if err := db.Model(&models.ActivityLog{}).
		Where("activity_id = ? AND completed = ?", activityID, true).
		Count(&completed).Error; err != nil {
		return 0, fmt.Errorf("activity: count completed logs of %s: %w", activityID, err)
	}
	return float64(completed) / float64(total) * 100, nil
}

// CategoryCount holds a category and its activity count.
type CategoryCount struct {
	Category string
	Count    int
}

// Summary returns per-category counts of active activities.
func Summary(db *gorm.DB) ([]CategoryCount, error) {
	var counts []CategoryCount
	if err := db.Model(&models.Activity{}).
		Select("category, COUNT(*) as count").
		Where("active = ?", true).
		Group("category").
		Order("category ASC").
		Find(&counts).Error; err != nil {
		return nil, fmt.Errorf("activity: summary: %w", err)
	}
	return counts, nil
}

func checkGoalExists(db *gorm.DB, goalID string) error {
	var count int64
	if err := db.Model(&models.Goal{}).Where("id = ?", goalID).Count(&count).Error; err != nil {
		return fmt.Errorf("activity: check goal %s: %w", goalID, err)
	}
	if count == 0 {
		return &fault.NotFoundError{Entity: "goal", ID: goalID}
	}
	return nil
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
