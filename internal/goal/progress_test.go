package goal

import (
	"testing"
	"time"

	"github.com/tavonga/careconnect/internal/models"
	"gorm.io/gorm"
)

// seedProgressActivity inserts an activity linked to a goal with a weight,
// bypassing the activity package to keep this package's tests self-contained.
func seedProgressActivity(t *testing.T, db *gorm.DB, id, goalID string, weight int) {
	t.Helper()
	a := models.Activity{
		ID: id, Name: "Activity " + id, Category: "other", Difficulty: "medium",
		PrimaryGoalID: &goalID, GoalContributionWeight: weight, Active: true,
	}
	if err := db.Create(&a).Error; err != nil {
		t.Fatalf("seed activity %s: %v", id, err)
	}
}

// seedCompletedLog inserts a completed log for an activity.
func seedCompletedLog(t *testing.T, db *gorm.DB, id, activityID string, day int) {
	t.Helper()
	l := models.ActivityLog{
		ID: id, ActivityID: activityID, UserID: "usr-00001",
		Date:   time.Date(2026, 9, day, 0, 0, 0, 0, time.UTC),
		Status: "completed", Completed: true, Photos: "[]", Videos: "[]",
	}
	if err := db.Create(&l).Error; err != nil {
		t.Fatalf("seed log %s: %v", id, err)
	}
}

func TestCalculatedProgress_NoActivities(t *testing.T) {
	db := openGoalTestDB(t)

	g, err := Create(db, CreateOpts{Name: "Empty goal"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	progress, err := CalculatedProgress(db, g.ID)
	if err != nil {
		t.Fatalf("CalculatedProgress: %v", err)
	}
	if progress != 0 {
		t.Errorf("progress = %d, want 0 for goal with no activities", progress)
	}
}

func TestCalculatedProgress_Weighted(t *testing.T) {
	db := openGoalTestDB(t)

	g, err := Create(db, CreateOpts{Name: "Mobility"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Weights 3 + 1 + 1 = 5; completing the weight-3 activity gives 60%.
	seedProgressActivity(t, db, "act-00001", g.ID, 3)
	seedProgressActivity(t, db, "act-00002", g.ID, 1)
	seedProgressActivity(t, db, "act-00003", g.ID, 1)
	seedCompletedLog(t, db, "log-00001", "act-00001", 1)

	progress, err := CalculatedProgress(db, g.ID)
	if err != nil {
		t.Fatalf("CalculatedProgress: %v", err)
	}
	if progress != 60 {
		t.Errorf("progress = %d, want 60", progress)
	}

	// A second completed log for the same activity adds no extra weight.
	seedCompletedLog(t, db, "log-00002", "act-00001", 2)
	progress, err = CalculatedProgress(db, g.ID)
	if err != nil {
		t.Fatalf("CalculatedProgress: %v", err)
	}
	if progress != 60 {
		t.Errorf("progress after duplicate completion = %d, want 60", progress)
	}
}

func TestCalculatedProgress_RelatedActivitiesCount(t *testing.T) {
	db := openGoalTestDB(t)

	g, err := Create(db, CreateOpts{Name: "Mobility"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// One primary-linked, one related-only. Both contribute.
	seedProgressActivity(t, db, "act-00001", g.ID, 1)
	related := models.Activity{
		ID: "act-00002", Name: "Related", Category: "other", Difficulty: "medium",
		GoalContributionWeight: 1, Active: true,
	}
	if err := db.Create(&related).Error; err != nil {
		t.Fatalf("seed related activity: %v", err)
	}
	if err := db.Create(&models.ActivityGoal{ActivityID: "act-00002", GoalID: g.ID}).Error; err != nil {
		t.Fatalf("link related activity: %v", err)
	}

	seedCompletedLog(t, db, "log-00001", "act-00002", 1)

	progress, err := CalculatedProgress(db, g.ID)
	if err != nil {
		t.Fatalf("CalculatedProgress: %v", err)
	}
	if progress != 50 {
		t.Errorf("progress = %d, want 50", progress)
	}
}

func TestLinkedActivityIDs_Dedupes(t *testing.T) {
	db := openGoalTestDB(t)

	g, err := Create(db, CreateOpts{Name: "Mobility"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Linked both as primary and through the join table: counted once.
	seedProgressActivity(t, db, "act-00001", g.ID, 2)
	if err := db.Create(&models.ActivityGoal{ActivityID: "act-00001", GoalID: g.ID}).Error; err != nil {
		t.Fatalf("link: %v", err)
	}

	ids, err := LinkedActivityIDs(db, g.ID)
	if err != nil {
		t.Fatalf("LinkedActivityIDs: %v", err)
	}
	if len(ids) != 1 {
		t.Errorf("ids = %v, want one entry", ids)
	}
}

func TestUpdateProgress_ThresholdCompletes(t *testing.T) {
	db := openGoalTestDB(t)

	g, err := Create(db, CreateOpts{Name: "Mobility", CompletionThreshold: 50})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	seedProgressActivity(t, db, "act-00001", g.ID, 1)
	seedProgressActivity(t, db, "act-00002", g.ID, 1)
	seedCompletedLog(t, db, "log-00001", "act-00001", 1)

	updated, err := UpdateProgress(db, g.ID)
	if err != nil {
		t.Fatalf("UpdateProgress: %v", err)
	}
	if updated.ProgressPercentage != 50 {
		t.Errorf("ProgressPercentage = %d, want 50", updated.ProgressPercentage)
	}
	if updated.Status != "completed" {
		t.Errorf("Status = %q, want completed at threshold", updated.Status)
	}

	// Persisted, not just returned.
	got, err := Get(db, g.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ProgressPercentage != 50 || got.Status != "completed" {
		t.Errorf("persisted goal = %d%% / %q", got.ProgressPercentage, got.Status)
	}
}

func TestUpdateProgress_BelowThresholdStaysActive(t *testing.T) {
	db := openGoalTestDB(t)

	g, err := Create(db, CreateOpts{Name: "Mobility"}) // threshold 80
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	seedProgressActivity(t, db, "act-00001", g.ID, 1)
	seedProgressActivity(t, db, "act-00002", g.ID, 1)
	seedCompletedLog(t, db, "log-00001", "act-00001", 1)

	updated, err := UpdateProgress(db, g.ID)
	if err != nil {
		t.Fatalf("UpdateProgress: %v", err)
	}
	if updated.ProgressPercentage != 50 || updated.Status != "active" {
		t.Errorf("goal = %d%% / %q, want 50%% / active", updated.ProgressPercentage, updated.Status)
	}
}

func TestUpdateProgress_NeverUncompletes(t *testing.T) {
	db := openGoalTestDB(t)

	g, err := Create(db, CreateOpts{Name: "Mobility", CompletionThreshold: 50})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	seedProgressActivity(t, db, "act-00001", g.ID, 1)
	seedCompletedLog(t, db, "log-00001", "act-00001", 1)

	if _, err := UpdateProgress(db, g.ID); err != nil {
		t.Fatalf("UpdateProgress: %v", err)
	}

	// Adding an uncompleted activity drops the percentage, but the goal
	// stays completed.
	seedProgressActivity(t, db, "act-00002", g.ID, 1)

	updated, err := UpdateProgress(db, g.ID)
	if err != nil {
		t.Fatalf("second UpdateProgress: %v", err)
	}
	if updated.ProgressPercentage != 50 {
		t.Errorf("ProgressPercentage = %d, want 50", updated.ProgressPercentage)
	}
	if updated.Status != "completed" {
		t.Errorf("Status = %q, want still completed", updated.Status)
	}
}

func TestUpdateProgress_PausedGoalNotCompleted(t *testing.T) {
	db := openGoalTestDB(t)

	g, err := Create(db, CreateOpts{Name: "Mobility", CompletionThreshold: 50})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := Update(db, g.ID, map[string]interface{}{"status": "paused"}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	seedProgressActivity(t, db, "act-00001", g.ID, 1)
	seedCompletedLog(t, db, "log-00001", "act-00001", 1)

	updated, err := UpdateProgress(db, g.ID)
	if err != nil {
		t.Fatalf("UpdateProgress: %v", err)
	}
	if updated.Status != "paused" {
		t.Errorf("Status = %q, want paused (only active goals auto-complete)", updated.Status)
	}
	if updated.ProgressPercentage != 100 {
		t.Errorf("ProgressPercentage = %d, want 100", updated.ProgressPercentage)
	}
}
