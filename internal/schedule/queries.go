package schedule

import (
	"fmt"
	"time"

	"github.com/tavonga/careconnect/internal/models"
	"gorm.io/gorm"
)

// ListFilters holds optional filters for listing schedules.
type ListFilters struct {
	Status         string
	AssignedUserID string
	ActivityID     string
	DateFrom       *time.Time
	DateTo         *time.Time
	Completed      *bool
}

// List returns schedules matching the given filters, ordered by date then time.
func List(db *gorm.DB, filters ListFilters) ([]models.Schedule, error) {
	q := db.Model(&models.Schedule{})

	if filters.Status != "" {
		q = q.Where("status = ?", filters.Status)
	}
	if filters.AssignedUserID != "" {
		q = q.Where("assigned_user_id = ?", filters.AssignedUserID)
	}
	if filters.ActivityID != "" {
		q = q.Where("activity_id = ?", filters.ActivityID)
	}
	if filters.DateFrom != nil {
		q = q.Where("scheduled_date >= ?", truncateToDay(*filters.DateFrom))
	}
	if filters.DateTo != nil {
		q = q.Where("scheduled_date <= ?", truncateToDay(*filters.DateTo))
	}
	if filters.Completed != nil {
		q = q.Where("completed = ?", *filters.Completed)
	}

	var schedules []models.Schedule
	if err := q.Order("scheduled_date ASC, scheduled_time ASC").Find(&schedules).Error; err != nil {
		return nil, fmt.Errorf("schedule: list: %w", err)
	}
	return schedules, nil
}

// Today returns today's schedules, optionally narrowed to one user.
func Today(db *gorm.DB, userID string) ([]models.Schedule, error) {
	today := truncateToDay(time.Now().UTC())
	filters := ListFilters{AssignedUserID: userID, DateFrom: &today, DateTo: &today}
	return List(db, filters)
}

// Upcoming returns still-scheduled occurrences within the next `days` days.
func Upcoming(db *gorm.DB, userID string, days int) ([]models.Schedule, error) {
	today := truncateToDay(time.Now().UTC())
	horizon := today.AddDate(0, 0, days)
	return List(db, ListFilters{
		Status:         "scheduled",
		AssignedUserID: userID,
		DateFrom:       &today,
		DateTo:         &horizon,
	})
}

// Overdue returns still-scheduled occurrences whose start has passed.
func Overdue(db *gorm.DB, userID string) ([]models.Schedule, error) {
	schedules, err := List(db, ListFilters{Status: "scheduled", AssignedUserID: userID})
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	var overdue []models.Schedule
	for _, s := range schedules {
		if s.IsOverdue(now) {
			overdue = append(overdue, s)
		}
	}
	return overdue, nil
}

// Stats summarizes schedule counts and the completion rate.
type Stats struct {
	Total           int64   `json:"total"`
	ScheduledToday  int64   `json:"scheduled_today"`
	InProgressToday int64   `json:"in_progress_today"`
	CompletedToday  int64   `json:"completed_today"`
	Overdue         int     `json:"overdue"`
	UpcomingWeek    int64   `json:"upcoming_week"`
	CompletionRate  float64 `json:"completion_rate"`
}

// Summary computes schedule statistics, optionally narrowed to one user.
func Summary(db *gorm.DB, userID string) (*Stats, error) {
	base := func() *gorm.DB {
		q := db.Model(&models.Schedule{})
		if userID != "" {
			q = q.Where("assigned_user_id = ?", userID)
		}
		return q
	}

	today := truncateToDay(time.Now().UTC())
	weekOut := today.AddDate(0, 0, 7)

	var stats Stats
	if err := base().Count(&stats.Total).Error; err != nil {
		return nil, fmt.Errorf("schedule: count total: %w", err)
	}
	if err := base().Where("scheduled_date = ? AND status = ?", today, "scheduled").
		Count(&stats.ScheduledToday).Error; err != nil {
		return nil, fmt.Errorf("schedule: count scheduled today: %w", err)
	}
	if err := base().Where("scheduled_date = ? AND status = ?", today, "in_progress").
		Count(&stats.InProgressToday).Error; err != nil {
		return nil, fmt.Errorf("schedule: count in progress today: %w", err)
	}
	if err := base().Where("scheduled_date = ? AND status = ?", today, "completed").
		Count(&stats.CompletedToday).Error; err != nil {
		return nil, fmt.Errorf("schedule: count completed today: %w", err)
	}
	if err := base().Where("scheduled_date >= ? AND scheduled_date <= ? AND status = ?",
		today, weekOut, "scheduled").Count(&stats.UpcomingWeek).Error; err != nil {
		return nil, fmt.Errorf("schedule: count upcoming week: %w", err)
	}

	overdue, err := Overdue(db, userID)
	if err != nil {
		return nil, err
	}
	stats.Overdue = len(overdue)

	var finished int64
	if err := base().Where("status IN ?", []string{"completed", "cancelled"}).
		Count(&finished).Error; err != nil {
		return nil, fmt.Errorf("schedule: count finished: %w", err)
	}
	if stats.Total > 0 {
		stats.CompletionRate = float64(finished) / float64(stats.Total) * 100
	}
	return &stats, nil
}
