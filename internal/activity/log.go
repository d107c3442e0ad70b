package activity

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tavonga/careconnect/internal/fault"
	"github.com/tavonga/careconnect/internal/goal"
	"github.com/tavonga/careconnect/internal/models"
	"gorm.io/gorm"
)

// LogOpts holds parameters for creating a new activity log.
type LogOpts struct {
	ActivityID    string
	UserID        string
	Date          time.Time
	ScheduledTime string // HH:MM, optional
	Notes         string
}

// CompleteLogOpts holds optional details recorded when completing a log.
type CompleteLogOpts struct {
	Notes              string
	DifficultyRating   *int // 1-5
	SatisfactionRating *int // 1-5
	Challenges         string
	Successes          string
}

// LogFilters holds optional filters for listing activity logs.
type LogFilters struct {
	ActivityID string
	UserID     string
	Status     string
	Completed  *bool
}

// generateLogID creates a unique log ID in log-xxxxx format (5-char hex).
func generateLogID() (string, error) {
	b := make([]byte, 3)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("activity: generate log ID: %w", err)
	}
	return "log-" + hex.EncodeToString(b)[:5], nil
}

// generateUniqueLogID generates an ID and retries once on collision.
func generateUniqueLogID(db *gorm.DB) (string, error) {
	for attempt := 0; attempt < 2; attempt++ {
		id, err := generateLogID()
		if err != nil {
			return "", err
		}
		var count int64
		if err := db.Model(&models.ActivityLog{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return "", fmt.Errorf("activity: check log ID uniqueness: %w", err)
		}
		if count == 0 {
			return id, nil
		}
	}
	return "", fmt.Errorf("activity: failed to generate unique log ID after retries")
}

// CreateLog records intent to attempt an activity on a date. At most one log
// may exist per (activity, user, date); a duplicate is a validation error.
func CreateLog(db *gorm.DB, opts LogOpts) (*models.ActivityLog, error) {
	if opts.ActivityID == "" {
		return nil, fault.NewValidation("activity_id", "activity is required")
	}
	if opts.UserID == "" {
		return nil, fault.NewValidation("user_id", "user is required")
	}
	if opts.Date.IsZero() {
		return nil, fault.NewValidation("date", "date is required")
	}
	if opts.ScheduledTime != "" {
		if _, err := time.Parse("15:04", opts.ScheduledTime); err != nil {
			return nil, fault.NewValidation("scheduled_time", "must be HH:MM")
		}
	}

	var count int64
	if err := db.Model(&models.Activity{}).Where("id = ?", opts.ActivityID).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("activity: check %s: %w", opts.ActivityID, err)
	}
	if count == 0 {
		return nil, &fault.NotFoundError{Entity: "activity", ID: opts.ActivityID}
	}

	date := truncateToDay(opts.Date)
	if err := db.Model(&models.ActivityLog{}).
		Where("activity_id = ? AND user_id = ? AND date = ?", opts.ActivityID, opts.UserID, date).
		Count(&count).Error; err != nil {
		return nil, fmt.Errorf("activity: check existing log: %w", err)
	}
	if count > 0 {
		return nil, fault.NewValidation("date", "a log for this activity, user, and date already exists")
	}

	id, err := generateUniqueLogID(db)
	if err != nil {
		return nil, err
	}

	l := models.ActivityLog{
		ID:            id,
		ActivityID:    opts.ActivityID,
		UserID:        opts.UserID,
		Date:          date,
		ScheduledTime: opts.ScheduledTime,
		Status:        "scheduled",
		Notes:         opts.Notes,
		Photos:        "[]",
		Videos:        "[]",
	}
	if err := db.Create(&l).Error; err != nil {
		// The unique index is the backstop against duplicate-insert races.
		if isDuplicateKey(err) {
			return nil, fault.NewValidation("date", "a log for this activity, user, and date already exists")
		}
		return nil, fmt.Errorf("activity: create log: %w", err)
	}
	return &l, nil
}

// GetLog retrieves an activity log by ID.
func GetLog(db *gorm.DB, id string) (*models.ActivityLog, error) {
	var l models.ActivityLog
	if err := db.Where("id = ?", id).First(&l).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &fault.NotFoundError{Entity: "activity log", ID: id}
		}
		return nil, fmt.Errorf("activity: get log %s: %w", id, err)
	}
	return &l, nil
}

// ListLogs returns activity logs matching the given filters, newest first.
func ListLogs(db *gorm.DB, filters LogFilters) ([]models.ActivityLog, error) {
	q := db.Model(&models.ActivityLog{})

	if filters.ActivityID != "" {
		q = q.Where("activity_id = ?", filters.ActivityID)
	}
	if filters.UserID != "" {
		q = q.Where("user_id = ?", filters.UserID)
	}
	if filters.Status != "" {
		q = q.Where("status = ?", filters.Status)
	}
	if filters.Completed != nil {
		q = q.Where("completed = ?", *filters.Completed)
	}

	var logs []models.ActivityLog
	if err := q.Order("date DESC, created_at DESC").Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("activity: list logs: %w", err)
	}
	return logs, nil
}

// StartLog moves a scheduled log to in_progress and stamps its start time.
func StartLog(db *gorm.DB, id string) (*models.ActivityLog, error) {
	l, err := GetLog(db, id)
	if err != nil {
		return nil, err
	}
	if l.Status != "scheduled" {
		return nil, &fault.InvalidStateError{Entity: "activity log", ID: id, From: l.Status, Action: "start"}
	}

	now := time.Now().UTC()
	l.Status = "in_progress"
	l.StartTime = &now
	updates := map[string]interface{}{"status": l.Status, "start_time": l.StartTime}
	if err := db.Model(&models.ActivityLog{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("activity: start log %s: %w", id, err)
	}
	return l, nil
}

// CompleteLog marks a log completed and recomputes progress for every goal
// linked to the logged activity.
func CompleteLog(db *gorm.DB, id string, opts CompleteLogOpts) (*models.ActivityLog, error) {
	l, err := GetLog(db, id)
	if err != nil {
		return nil, err
	}
	if l.Status != "scheduled" && l.Status != "in_progress" {
		return nil, &fault.InvalidStateError{Entity: "activity log", ID: id, From: l.Status, Action: "complete"}
	}
	if err := validateRating("difficulty_rating", opts.DifficultyRating); err != nil {
		return nil, err
	}
	if err := validateRating("satisfaction_rating", opts.SatisfactionRating); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	l.Status = "completed"
	l.Completed = true
	l.EndTime = &now
	if l.StartTime == nil {
		l.StartTime = &now
	}
	l.CompletionNotes = opts.Notes
	l.DifficultyRating = opts.DifficultyRating
	l.SatisfactionRating = opts.SatisfactionRating
	l.Challenges = opts.Challenges
	l.Successes = opts.Successes

	updates := map[string]interface{}{
		"status":              l.Status,
		"completed":           true,
		"start_time":          l.StartTime,
		"end_time":            l.EndTime,
		"completion_notes":    l.CompletionNotes,
		"difficulty_rating":   l.DifficultyRating,
		"satisfaction_rating": l.SatisfactionRating,
		"challenges":          l.Challenges,
		"successes":           l.Successes,
	}
	if err := db.Model(&models.ActivityLog{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("activity: complete log %s: %w", id, err)
	}

	// Completion changes the weighted progress of every linked goal.
	goalIDs, err := AllGoalIDs(db, l.ActivityID)
	if err != nil {
		return nil, err
	}
	for _, goalID := range goalIDs {
		if _, err := goal.UpdateProgress(db, goalID); err != nil {
			return nil, fmt.Errorf("activity: recompute goal %s after log %s: %w", goalID, id, err)
		}
	}
	return l, nil
}

// CancelLog marks a log cancelled or skipped.
func CancelLog(db *gorm.DB, id, status string) (*models.ActivityLog, error) {
	if status != "cancelled" && status != "skipped" {
		return nil, fault.NewValidation("status", "must be cancelled or skipped")
	}
	l, err := GetLog(db, id)
	if err != nil {
		return nil, err
	}
	if l.Status != "scheduled" && l.Status != "in_progress" {
		return nil, &fault.InvalidStateError{Entity: "activity log", ID: id, From: l.Status, Action: "cancel"}
	}

	l.Status = status
	if err := db.Model(&models.ActivityLog{}).Where("id = ?", id).Update("status", status).Error; err != nil {
		return nil, fmt.Errorf("activity: cancel log %s: %w", id, err)
	}
	return l, nil
}

func validateRating(field string, rating *int) error {
	if rating != nil && (*rating < 1 || *rating > 5) {
		return fault.NewValidation(field, "must be between 1 and 5")
	}
	return nil
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// isDuplicateKey detects uniqueness violations across MySQL and SQLite.
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "Duplicate entry") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}
