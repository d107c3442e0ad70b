// Package schedule owns the lifecycle of scheduled activity occurrences:
// creation with conflict detection and recurrence expansion, the status
// state machine, rescheduling, templates, and conflict audit records.
package schedule

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tavonga/careconnect/internal/fault"
	"github.com/tavonga/careconnect/internal/models"
	"gorm.io/gorm"
)

// ValidPriorities are the accepted schedule priorities.
var ValidPriorities = []string{"low", "medium", "high", "urgent"}

// ValidTransitions maps each status to the statuses an administrative
// update may move it to. Completed, cancelled, rescheduled, and no_show
// are terminal.
var ValidTransitions = map[string][]string{
	"scheduled":   {"in_progress", "cancelled", "rescheduled", "no_show"},
	"in_progress": {"completed", "cancelled"},
}

// CreateOpts holds parameters for creating a new schedule.
type CreateOpts struct {
	ActivityID     string
	AssignedUserID string
	CreatedByID    string

	ScheduledDate     time.Time
	ScheduledTime     string // HH:MM
	EstimatedDuration *int   // minutes; conflict checks fall back to 60

	Priority          string
	RecurrenceType    string
	RecurrenceEndDate *time.Time

	Notes               string
	PreparationNotes    string
	Location            string
	SpecialRequirements string

	SendReminder          *bool // nil means true
	ReminderMinutesBefore int   // 0 means default 30
}

// CompleteOpts holds optional details recorded when completing a schedule.
type CompleteOpts struct {
	CompletionPercentage *int // nil means 100
	Notes                string
	DifficultyRating     *int // 1-5
	SatisfactionRating   *int // 1-5
}

// RescheduleOpts holds the new slot for a reschedule.
type RescheduleOpts struct {
	NewDate time.Time
	NewTime string // HH:MM
	Reason  string
}

// Create validates and persists a new schedule. The assigned user's
// non-terminal schedules on the same date are checked for time overlap
// before anything commits; a recurring schedule and all of its generated
// children commit in a single transaction, so a duplicate child aborts the
// whole create.
func Create(db *gorm.DB, opts CreateOpts) (*models.Schedule, error) {
	if err := validateCreate(db, &opts); err != nil {
		return nil, err
	}

	date := truncateToDay(opts.ScheduledDate)
	startAt, _ := combineDateTime(date, opts.ScheduledTime)
	conflict, err := findConflict(db, opts.AssignedUserID, date, startAt,
		durationMinutes(opts.EstimatedDuration), "")
	if err != nil {
		return nil, err
	}
	if conflict != nil {
		return nil, &fault.ConflictError{
			ScheduleID:   conflict.ID,
			ActivityName: conflict.Activity.Name,
			ScheduledAt:  conflict.ScheduledAt(),
		}
	}

	id, err := generateUniqueID(db)
	if err != nil {
		return nil, err
	}

	sendReminder := true
	if opts.SendReminder != nil {
		sendReminder = *opts.SendReminder
	}
	reminderMinutes := opts.ReminderMinutesBefore
	if reminderMinutes == 0 {
		reminderMinutes = 30
	}

	s := models.Schedule{
		ID:                    id,
		ActivityID:            opts.ActivityID,
		AssignedUserID:        opts.AssignedUserID,
		CreatedByID:           opts.CreatedByID,
		ScheduledDate:         date,
		ScheduledTime:         opts.ScheduledTime,
		EstimatedDuration:     opts.EstimatedDuration,
		Status:                "scheduled",
		Priority:              opts.Priority,
		RecurrenceType:        opts.RecurrenceType,
		RecurrenceEndDate:     opts.RecurrenceEndDate,
		Notes:                 opts.Notes,
		PreparationNotes:      opts.PreparationNotes,
		Location:              opts.Location,
		SpecialRequirements:   opts.SpecialRequirements,
		SendReminder:          sendReminder,
		ReminderMinutesBefore: reminderMinutes,
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&s).Error; err != nil {
			if isDuplicateKey(err) {
				return fault.NewValidation("scheduled_time",
					"a schedule for this activity, user, date, and time already exists")
			}
			return fmt.Errorf("schedule: create: %w", err)
		}
		if s.RecurrenceType != "none" {
			if _, err := expandRecurrence(tx, &s); err != nil {
				if isDuplicateKey(err) {
					return fault.NewValidation("recurrence_type",
						"a recurrence child collides with an existing schedule")
				}
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func validateCreate(db *gorm.DB, opts *CreateOpts) error {
	if opts.ActivityID == "" {
		return fault.NewValidation("activity_id", "activity is required")
	}
	if opts.AssignedUserID == "" {
		return fault.NewValidation("assigned_user_id", "assigned user is required")
	}
	if _, err := combineDateTime(opts.ScheduledDate, opts.ScheduledTime); err != nil {
		return err
	}
	if opts.ScheduledDate.IsZero() {
		return fault.NewValidation("scheduled_date", "date is required")
	}
	today := truncateToDay(time.Now().UTC())
	if truncateToDay(opts.ScheduledDate).Before(today) {
		return fault.NewValidation("scheduled_date", "cannot be in the past")
	}
	if opts.EstimatedDuration != nil && *opts.EstimatedDuration <= 0 {
		return fault.NewValidation("estimated_duration", "must be a positive number of minutes")
	}
	if opts.Priority == "" {
		opts.Priority = "medium"
	}
	if !containsString(ValidPriorities, opts.Priority) {
		return fault.NewValidation("priority", "unknown priority %q", opts.Priority)
	}
	if opts.RecurrenceType == "" {
		opts.RecurrenceType = "none"
	}
	if !containsString(ValidRecurrenceTypes, opts.RecurrenceType) {
		return fault.NewValidation("recurrence_type", "unknown recurrence %q", opts.RecurrenceType)
	}
	if opts.RecurrenceType != "none" {
		if opts.RecurrenceEndDate == nil {
			return fault.NewValidation("recurrence_end_date", "required when recurrence is set")
		}
		if !opts.RecurrenceEndDate.After(truncateToDay(opts.ScheduledDate)) {
			return fault.NewValidation("recurrence_end_date", "must be after scheduled date")
		}
	}
	if opts.ReminderMinutesBefore < 0 {
		return fault.NewValidation("reminder_minutes_before", "must not be negative")
	}

	var count int64
	if err := db.Model(&models.Activity{}).Where("id = ?", opts.ActivityID).Count(&count).Error; err != nil {
		return fmt.Errorf("schedule: check activity %s: %w", opts.ActivityID, err)
	}
	if count == 0 {
		return &fault.NotFoundError{Entity: "activity", ID: opts.ActivityID}
	}
	if err := db.Model(&models.User{}).Where("id = ?", opts.AssignedUserID).Count(&count).Error; err != nil {
		return fmt.Errorf("schedule: check user %s: %w", opts.AssignedUserID, err)
	}
	if count == 0 {
		return &fault.NotFoundError{Entity: "user", ID: opts.AssignedUserID}
	}
	return nil
}

// Get retrieves a schedule by ID, preloading its activity and assigned user.
func Get(db *gorm.DB, id string) (*models.Schedule, error) {
	var s models.Schedule
	if err := db.Preload("Activity").Preload("AssignedUser").
		Where("id = ?", id).First(&s).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &fault.NotFoundError{Entity: "schedule", ID: id}
		}
		return nil, fmt.Errorf("schedule: get %s: %w", id, err)
	}
	return &s, nil
}

// Start moves a scheduled occurrence to in_progress and stamps the actual
// start time.
func Start(db *gorm.DB, id string) (*models.Schedule, error) {
	s, err := Get(db, id)
	if err != nil {
		return nil, err
	}
	if s.Status != "scheduled" {
		return nil, &fault.InvalidStateError{Entity: "schedule", ID: id, From: s.Status, Action: "start"}
	}

	now := time.Now().UTC()
	s.Status = "in_progress"
	s.ActualStartTime = &now
	updates := map[string]interface{}{"status": s.Status, "actual_start_time": s.ActualStartTime}
	if err := db.Model(&models.Schedule{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("schedule: start %s: %w", id, err)
	}
	return s, nil
}

// Complete marks a scheduled or in-progress occurrence completed, recording
// a completion percentage (default 100) and optional ratings.
func Complete(db *gorm.DB, id string, opts CompleteOpts) (*models.Schedule, error) {
	s, err := Get(db, id)
	if err != nil {
		return nil, err
	}
	if s.Status != "scheduled" && s.Status != "in_progress" {
		return nil, &fault.InvalidStateError{Entity: "schedule", ID: id, From: s.Status, Action: "complete"}
	}

	percentage := 100
	if opts.CompletionPercentage != nil {
		percentage = *opts.CompletionPercentage
	}
	if percentage < 0 || percentage > 100 {
		return nil, fault.NewValidation("completion_percentage", "must be between 0 and 100")
	}
	if err := validateRating("difficulty_rating", opts.DifficultyRating); err != nil {
		return nil, err
	}
	if err := validateRating("satisfaction_rating", opts.SatisfactionRating); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	s.Status = "completed"
	s.Completed = true
	s.CompletionPercentage = percentage
	s.ActualEndTime = &now
	s.CompletionNotes = opts.Notes
	s.DifficultyRating = opts.DifficultyRating
	s.SatisfactionRating = opts.SatisfactionRating

	updates := map[string]interface{}{
		"status":                s.Status,
		"completed":             true,
		"completion_percentage": percentage,
		"actual_end_time":       s.ActualEndTime,
		"completion_notes":      s.CompletionNotes,
		"difficulty_rating":     s.DifficultyRating,
		"satisfaction_rating":   s.SatisfactionRating,
	}
	if err := db.Model(&models.Schedule{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("schedule: complete %s: %w", id, err)
	}
	return s, nil
}

// Cancel moves a scheduled or in-progress occurrence to cancelled. A reason,
// when given, is stored prefixed with "Cancelled: " in the completion notes.
func Cancel(db *gorm.DB, id, reason string) (*models.Schedule, error) {
	s, err := Get(db, id)
	if err != nil {
		return nil, err
	}
	if s.Status != "scheduled" && s.Status != "in_progress" {
		return nil, &fault.InvalidStateError{Entity: "schedule", ID: id, From: s.Status, Action: "cancel"}
	}

	s.Status = "cancelled"
	updates := map[string]interface{}{"status": s.Status}
	if reason != "" {
		s.CompletionNotes = "Cancelled: " + reason
		updates["completion_notes"] = s.CompletionNotes
	}
	if err := db.Model(&models.Schedule{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("schedule: cancel %s: %w", id, err)
	}
	return s, nil
}

// Reschedule moves a scheduled occurrence to a new slot. The new slot is
// conflict-checked (excluding the occurrence itself) before anything
// commits; on success the original flips to "rescheduled" keeping its own
// date and time, and a fresh "scheduled" occurrence is created at the new
// slot, backlinked to the original through ParentScheduleID.
func Reschedule(db *gorm.DB, id string, opts RescheduleOpts) (*models.Schedule, *models.Schedule, error) {
	old, err := Get(db, id)
	if err != nil {
		return nil, nil, err
	}
	if old.Status != "scheduled" {
		return nil, nil, &fault.InvalidStateError{Entity: "schedule", ID: id, From: old.Status, Action: "reschedule"}
	}

	newDate := truncateToDay(opts.NewDate)
	newStart, err := combineDateTime(newDate, opts.NewTime)
	if err != nil {
		return nil, nil, err
	}
	today := truncateToDay(time.Now().UTC())
	if newDate.Before(today) {
		return nil, nil, fault.NewValidation("new_date", "cannot be in the past")
	}

	conflict, err := findConflict(db, old.AssignedUserID, newDate, newStart,
		durationMinutes(old.EstimatedDuration), old.ID)
	if err != nil {
		return nil, nil, err
	}
	if conflict != nil {
		return nil, nil, &fault.ConflictError{
			ScheduleID:   conflict.ID,
			ActivityName: conflict.Activity.Name,
			ScheduledAt:  conflict.ScheduledAt(),
		}
	}

	newID, err := generateUniqueID(db)
	if err != nil {
		return nil, nil, err
	}
	successor := models.Schedule{
		ID:                    newID,
		ActivityID:            old.ActivityID,
		AssignedUserID:        old.AssignedUserID,
		CreatedByID:           old.CreatedByID,
		ScheduledDate:         newDate,
		ScheduledTime:         opts.NewTime,
		EstimatedDuration:     old.EstimatedDuration,
		Status:                "scheduled",
		Priority:              old.Priority,
		RecurrenceType:        "none",
		ParentScheduleID:      &old.ID,
		Notes:                 old.Notes,
		PreparationNotes:      old.PreparationNotes,
		Location:              old.Location,
		SpecialRequirements:   old.SpecialRequirements,
		SendReminder:          old.SendReminder,
		ReminderMinutesBefore: old.ReminderMinutesBefore,
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		oldUpdates := map[string]interface{}{"status": "rescheduled"}
		if opts.Reason != "" {
			oldUpdates["completion_notes"] = "Rescheduled: " + opts.Reason
		}
		if err := tx.Model(&models.Schedule{}).Where("id = ?", old.ID).Updates(oldUpdates).Error; err != nil {
			return fmt.Errorf("schedule: mark %s rescheduled: %w", old.ID, err)
		}
		if err := tx.Create(&successor).Error; err != nil {
			if isDuplicateKey(err) {
				return fault.NewValidation("new_time",
					"a schedule for this activity, user, date, and time already exists")
			}
			return fmt.Errorf("schedule: create successor of %s: %w", old.ID, err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	old.Status = "rescheduled"
	if opts.Reason != "" {
		old.CompletionNotes = "Rescheduled: " + opts.Reason
	}
	return old, &successor, nil
}

// Update applies administrative field updates. Status changes are validated
// against ValidTransitions; ratings and completion percentage are
// range-checked.
func Update(db *gorm.DB, id string, updates map[string]interface{}) error {
	var s models.Schedule
	if err := db.Where("id = ?", id).First(&s).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &fault.NotFoundError{Entity: "schedule", ID: id}
		}
		return fmt.Errorf("schedule: get %s for update: %w", id, err)
	}

	if newStatus, ok := updates["status"].(string); ok && newStatus != s.Status {
		if !isValidTransition(s.Status, newStatus) {
			return &fault.InvalidStateError{Entity: "schedule", ID: id, From: s.Status,
				Action: "transition to " + newStatus}
		}
	}
	if pct, ok := updates["completion_percentage"].(int); ok {
		if pct < 0 || pct > 100 {
			return fault.NewValidation("completion_percentage", "must be between 0 and 100")
		}
	}
	for _, field := range []string{"difficulty_rating", "satisfaction_rating"} {
		if r, ok := updates[field].(int); ok {
			if r < 1 || r > 5 {
				return fault.NewValidation(field, "must be between 1 and 5")
			}
		}
	}

	if err := db.Model(&models.Schedule{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return fmt.Errorf("schedule: update %s: %w", id, err)
	}
	return nil
}

// isValidTransition checks whether a status transition is allowed.
func isValidTransition(from, to string) bool {
	for _, v := range ValidTransitions[from] {
		if v == to {
			return true
		}
	}
	return false
}

// combineDateTime builds the occurrence start instant from a date and an
// HH:MM time string.
func combineDateTime(date time.Time, hhmm string) (time.Time, error) {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return time.Time{}, fault.NewValidation("scheduled_time", "must be HH:MM")
	}
	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour(), t.Minute(), 0, 0, time.UTC), nil
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func validateRating(field string, rating *int) error {
	if rating != nil && (*rating < 1 || *rating > 5) {
		return fault.NewValidation(field, "must be between 1 and 5")
	}
	return nil
}

func containsString(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
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
