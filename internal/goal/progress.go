package goal

import (
	"errors"
	"fmt"

	"github.com/tavonga/careconnect/internal/fault"
	"github.com/tavonga/careconnect/internal/models"
	"gorm.io/gorm"
)

// LinkedActivityIDs returns the IDs of all activities contributing to a goal:
// the union of activities whose primary goal is this goal and activities
// linked through the related-goals table, deduplicated by ID.
func LinkedActivityIDs(db *gorm.DB, goalID string) ([]string, error) {
	var primary []string
	if err := db.Model(&models.Activity{}).
		Where("primary_goal_id = ?", goalID).
		Pluck("id", &primary).Error; err != nil {
		return nil, fmt.Errorf("goal: primary activities of %s: %w", goalID, err)
	}

	var related []string
	if err := db.Model(&models.ActivityGoal{}).
		Where("goal_id = ?", goalID).
		Pluck("activity_id", &related).Error; err != nil {
		return nil, fmt.Errorf("goal: related activities of %s: %w", goalID, err)
	}

	seen := make(map[string]bool, len(primary)+len(related))
	var ids []string
	for _, id := range append(primary, related...) {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// CalculatedProgress computes the weighted completion percentage for a goal.
// An activity counts as completed when at least one of its logs has
// completed = true; multiple completions add no extra weight. Returns 0 for
// goals with no linked activities or zero total weight.
func CalculatedProgress(db *gorm.DB, goalID string) (int, error) {
	ids, err := LinkedActivityIDs(db, goalID)
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}

	var activities []models.Activity
	if err := db.Select("id, goal_contribution_weight").
		Where("id IN ?", ids).Find(&activities).Error; err != nil {
		return 0, fmt.Errorf("goal: load activities for %s: %w", goalID, err)
	}

	var completedIDs []string
	if err := db.Model(&models.ActivityLog{}).
		Where("activity_id IN ? AND completed = ?", ids, true).
		Distinct("activity_id").
		Pluck("activity_id", &completedIDs).Error; err != nil {
		return 0, fmt.Errorf("goal: completed logs for %s: %w", goalID, err)
	}
	completed := make(map[string]bool, len(completedIDs))
	for _, id := range completedIDs {
		completed[id] = true
	}

	totalWeight := 0
	completedWeight := 0
	for _, a := range activities {
		totalWeight += a.GoalContributionWeight
		if completed[a.ID] {
			completedWeight += a.GoalContributionWeight
		}
	}
	if totalWeight == 0 {
		return 0, nil
	}
	return completedWeight * 100 / totalWeight, nil
}

// UpdateProgress recomputes a goal's cached progress percentage and persists
// it. A goal in status "active" flips to "completed" when the percentage
// reaches its completion threshold; nothing here ever un-completes a goal.
func UpdateProgress(db *gorm.DB, goalID string) (*models.Goal, error) {
	var g models.Goal
	if err := db.Where("id = ?", goalID).First(&g).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &fault.NotFoundError{Entity: "goal", ID: goalID}
		}
		return nil, fmt.Errorf("goal: get %s for progress update: %w", goalID, err)
	}

	progress, err := CalculatedProgress(db, goalID)
	if err != nil {
		return nil, err
	}

	g.ProgressPercentage = progress
	if g.ProgressPercentage >= g.CompletionThreshold && g.Status == "active" {
		g.Status = "completed"
	}

	updates := map[string]interface{}{
		"progress_percentage": g.ProgressPercentage,
		"status":              g.Status,
	}
	if err := db.Model(&models.Goal{}).Where("id = ?", goalID).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("goal: persist progress for %s: %w", goalID, err)
	}
	return &g, nil
}
