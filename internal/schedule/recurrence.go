package schedule

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/tavonga/careconnect/internal/models"
	"gorm.io/gorm"
)

// ValidRecurrenceTypes are the accepted recurrence rules.
var ValidRecurrenceTypes = []string{"none", "daily", "weekly", "monthly"}

// nextOccurrence advances a date by one recurrence step. Monthly stepping
// keeps the day-of-month, rolling December into January, and clamps to the
// last day of the destination month when the source day does not exist
// there (Jan 31 -> Feb 28/29).
func nextOccurrence(d time.Time, recurrence string) time.Time {
	switch recurrence {
	case "daily":
		return d.AddDate(0, 0, 1)
	case "weekly":
		return d.AddDate(0, 0, 7)
	case "monthly":
		year, month := d.Year(), d.Month()
		if month == time.December {
			year, month = year+1, time.January
		} else {
			month++
		}
		day := d.Day()
		if last := lastDayOfMonth(year, month); day > last {
			day = last
		}
		return time.Date(year, month, day, 0, 0, 0, 0, d.Location())
	}
	return d
}

// lastDayOfMonth returns the number of days in the given month.
func lastDayOfMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// expandRecurrence materializes the child schedules of a recurring parent:
// one child per step from the parent's date through the recurrence end date
// inclusive. Children copy the parent's delivery fields, are pinned to
// recurrence "none" so they never regenerate, and backlink the parent.
// Children are not conflict-checked; the unique (activity, user, date, time)
// index inside the surrounding transaction is the backstop.
func expandRecurrence(tx *gorm.DB, parent *models.Schedule) (int, error) {
	if parent.RecurrenceType == "none" || parent.RecurrenceEndDate == nil {
		return 0, nil
	}

	created := 0
	current := parent.ScheduledDate
	for {
		current = nextOccurrence(current, parent.RecurrenceType)
		if current.After(*parent.RecurrenceEndDate) {
			break
		}

		id, err := generateUniqueID(tx)
		if err != nil {
			return created, err
		}
		child := models.Schedule{
			ID:                    id,
			ActivityID:            parent.ActivityID,
			AssignedUserID:        parent.AssignedUserID,
			CreatedByID:           parent.CreatedByID,
			ScheduledDate:         current,
			ScheduledTime:         parent.ScheduledTime,
			EstimatedDuration:     parent.EstimatedDuration,
			Status:                "scheduled",
			Priority:              parent.Priority,
			RecurrenceType:        "none",
			ParentScheduleID:      &parent.ID,
			Notes:                 parent.Notes,
			PreparationNotes:      parent.PreparationNotes,
			Location:              parent.Location,
			SpecialRequirements:   parent.SpecialRequirements,
			SendReminder:          parent.SendReminder,
			ReminderMinutesBefore: parent.ReminderMinutesBefore,
		}
		if err := tx.Create(&child).Error; err != nil {
			return created, fmt.Errorf("schedule: create recurrence child for %s: %w", current.Format("2006-01-02"), err)
		}
		created++
	}
	return created, nil
}

// GenerateID creates a unique schedule ID in sch-xxxxx format (5-char hex).
func GenerateID() (string, error) {
	b := make([]byte, 3)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("schedule: generate ID: %w", err)
	}
	return "sch-" + hex.EncodeToString(b)[:5], nil
}

// generateUniqueID generates an ID and retries once on collision.
func generateUniqueID(db *gorm.DB) (string, error) {
	for attempt := 0; attempt < 2; attempt++ {
		id, err := GenerateID()
		if err != nil {
			return "", err
		}
		var count int64
		if err := db.Model(&models.Schedule{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return "", fmt.Errorf("schedule: check ID uniqueness: %w", err)
		}
		if count == 0 {
			return id, nil
		}
	}
	return "", fmt.Errorf("schedule: failed to generate unique ID after retries")
}
