// Package reminder sweeps for schedules entering their reminder window and
// delivers notifications through the configured channels.
package reminder

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/tavonga/careconnect/internal/models"
	"github.com/tavonga/careconnect/internal/notify"
	"gorm.io/gorm"
)

// Runner periodically sweeps for due reminders.
type Runner struct {
	DB        *gorm.DB
	Notifiers []notify.Notifier
	// PollCron is a 5-field cron expression controlling sweep timing.
	PollCron string
}

// Run sweeps on the cron schedule until ctx is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	if r.DB == nil {
		return fmt.Errorf("reminder: db is required")
	}
	for {
		wait := nextCronDuration(r.PollCron)
		if wait == 0 {
			return fmt.Errorf("reminder: invalid poll cron expression %q", r.PollCron)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(wait):
		}
		if _, err := r.Sweep(time.Now().UTC()); err != nil {
			log.Printf("reminder: sweep failed: %v", err)
		}
	}
}

// Sweep delivers reminders for every schedule whose reminder window contains
// now, records a ScheduleReminder row per channel, and marks the schedule so
// it is never reminded twice. Delivery is best-effort per channel; a channel
// failure is logged and recorded as undelivered. Returns the number of
// schedules reminded.
func (r *Runner) Sweep(now time.Time) (int, error) {
	due, err := DueSchedules(r.DB, now)
	if err != nil {
		return 0, err
	}

	reminded := 0
	for i := range due {
		s := &due[i]
		subject := fmt.Sprintf("Upcoming activity: %s", s.Activity.Name)
		body := fmt.Sprintf("%s for %s at %s (%s)",
			s.Activity.Name, s.AssignedUser.Name,
			s.ScheduledAt().Format("2006-01-02 15:04"), s.Priority)

		for _, n := range r.Notifiers {
			delivered := true
			if err := n.Send(subject, body); err != nil {
				delivered = false
				log.Printf("reminder: %s delivery for %s failed: %v", n.Name(), s.ID, err)
			}
			rec := models.ScheduleReminder{
				ScheduleID:   s.ID,
				ReminderType: n.Name(),
				SentAt:       now,
				Delivered:    delivered,
			}
			if err := r.DB.Create(&rec).Error; err != nil {
				return reminded, fmt.Errorf("reminder: record for %s: %w", s.ID, err)
			}
		}

		if err := r.DB.Model(&models.Schedule{}).Where("id = ?", s.ID).
			Update("reminder_sent", true).Error; err != nil {
			return reminded, fmt.Errorf("reminder: mark %s sent: %w", s.ID, err)
		}
		reminded++
	}
	return reminded, nil
}

// DueSchedules returns still-scheduled occurrences that want a reminder,
// have not had one, and whose window [start - reminder_minutes_before,
// start) contains now. The window bound is per row, so candidates are
// narrowed by date in SQL and the window test runs here.
func DueSchedules(db *gorm.DB, now time.Time) ([]models.Schedule, error) {
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.AddDate(0, 0, 1)

	var candidates []models.Schedule
	if err := db.Preload("Activity").Preload("AssignedUser").
		Where("status = ? AND send_reminder = ? AND reminder_sent = ?", "scheduled", true, false).
		Where("scheduled_date >= ? AND scheduled_date <= ?", dayStart, dayEnd).
		Find(&candidates).Error; err != nil {
		return nil, fmt.Errorf("reminder: load candidates: %w", err)
	}

	var due []models.Schedule
	for _, s := range candidates {
		start := s.ScheduledAt()
		if start.IsZero() {
			continue
		}
		remindAt := start.Add(-time.Duration(s.ReminderMinutesBefore) * time.Minute)
		if !now.Before(remindAt) && now.Before(start) {
			due = append(due, s)
		}
	}
	return due, nil
}
