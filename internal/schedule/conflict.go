package schedule

import (
	"fmt"
	"time"

	"github.com/tavonga/careconnect/internal/models"
	"gorm.io/gorm"
)

// DefaultDurationMinutes is the fallback used for conflict and duration
// calculations when a schedule has no estimated duration. It is never stored.
const DefaultDurationMinutes = 60

// durationMinutes returns the estimated duration or the fallback.
func durationMinutes(d *int) int {
	if d == nil {
		return DefaultDurationMinutes
	}
	return *d
}

// overlaps reports whether two half-open windows [aStart, aEnd) and
// [bStart, bEnd) intersect. Touching endpoints do not conflict.
func overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// findConflict checks a candidate window against the user's non-terminal
// schedules (scheduled or in_progress) on the same date and returns the
// first overlapping schedule, or nil when the window is free. excludeID
// skips the schedule being revalidated during an update or reschedule.
func findConflict(db *gorm.DB, userID string, date time.Time, startAt time.Time, duration int, excludeID string) (*models.Schedule, error) {
	q := db.Preload("Activity").
		Where("assigned_user_id = ? AND scheduled_date = ? AND status IN ?",
			userID, date, []string{"scheduled", "in_progress"})
	if excludeID != "" {
		q = q.Where("id != ?", excludeID)
	}

	var existing []models.Schedule
	if err := q.Find(&existing).Error; err != nil {
		return nil, fmt.Errorf("schedule: load schedules for conflict check: %w", err)
	}

	candidateEnd := startAt.Add(time.Duration(duration) * time.Minute)
	for i := range existing {
		existingStart := existing[i].ScheduledAt()
		existingEnd := existingStart.Add(time.Duration(durationMinutes(existing[i].EstimatedDuration)) * time.Minute)
		if overlaps(startAt, candidateEnd, existingStart, existingEnd) {
			return &existing[i], nil
		}
	}
	return nil, nil
}
