package models

import "time"

// Schedule is one concrete planned occurrence of an activity for a user at a
// specific date and time. The (activity, user, date, time) tuple is unique.
type Schedule struct {
	ID             string `gorm:"primaryKey;size:32"`
	ActivityID     string `gorm:"size:32;not null;uniqueIndex:uniq_schedule_slot"`
	AssignedUserID string `gorm:"size:32;not null;uniqueIndex:uniq_schedule_slot;index"`
	CreatedByID    string `gorm:"size:32"`

	ScheduledDate     time.Time `gorm:"type:date;not null;uniqueIndex:uniq_schedule_slot;index"`
	ScheduledTime     string    `gorm:"size:5;not null;uniqueIndex:uniq_schedule_slot"` // HH:MM
	EstimatedDuration *int      // minutes; conflict checks fall back to 60

	ActualStartTime *time.Time
	ActualEndTime   *time.Time

	Status   string `gorm:"size:20;default:scheduled;index"`
	Priority string `gorm:"size:10;default:medium"`

	RecurrenceType    string     `gorm:"size:10;default:none"`
	RecurrenceEndDate *time.Time `gorm:"type:date"`
	// ParentScheduleID backlinks generated recurrence children and reschedule
	// successors to their originating schedule. Lookup only, no ownership.
	ParentScheduleID *string `gorm:"size:32;index"`

	Notes               string `gorm:"type:text"`
	PreparationNotes    string `gorm:"type:text"`
	CompletionNotes     string `gorm:"type:text"`
	Location            string `gorm:"size:200"`
	SpecialRequirements string `gorm:"type:text"`

	// SendReminder has no default tag: gorm omits zero-valued fields that
	// carry one, which would turn an explicit opt-out into true on insert.
	// schedule.Create applies the true default instead.
	SendReminder          bool
	ReminderMinutesBefore int  `gorm:"default:30"`
	ReminderSent          bool `gorm:"default:false;index"`

	Completed            bool `gorm:"default:false"`
	CompletionPercentage int  `gorm:"default:0"`
	DifficultyRating     *int // 1-5
	SatisfactionRating   *int // 1-5

	CreatedAt time.Time
	UpdatedAt time.Time

	Activity     Activity `gorm:"foreignKey:ActivityID"`
	AssignedUser User     `gorm:"foreignKey:AssignedUserID"`
}

// ScheduledAt combines the scheduled date and HH:MM time into a single
// instant in UTC. Returns the zero time if the time string is malformed.
func (s *Schedule) ScheduledAt() time.Time {
	t, err := time.Parse("15:04", s.ScheduledTime)
	if err != nil {
		return time.Time{}
	}
	d := s.ScheduledDate
	return time.Date(d.Year(), d.Month(), d.Day(), t.Hour(), t.Minute(), 0, 0, time.UTC)
}

// IsOverdue reports whether a still-scheduled occurrence is past its start.
func (s *Schedule) IsOverdue(now time.Time) bool {
	if s.Status != "scheduled" {
		return false
	}
	at := s.ScheduledAt()
	return !at.IsZero() && now.After(at)
}

// ActualDurationMinutes returns the recorded duration, or nil when the
// occurrence has not both started and ended.
func (s *Schedule) ActualDurationMinutes() *int {
	if s.ActualStartTime == nil || s.ActualEndTime == nil {
		return nil
	}
	m := int(s.ActualEndTime.Sub(*s.ActualStartTime).Minutes())
	return &m
}

// ScheduleTemplate bundles default parameters for generating schedules from
// one activity.
type ScheduleTemplate struct {
	ID          string `gorm:"primaryKey;size:32"`
	Name        string `gorm:"not null"`
	Description string `gorm:"type:text"`
	ActivityID  string `gorm:"size:32;not null"`

	DefaultDuration         int    `gorm:"not null"` // minutes
	DefaultPriority         string `gorm:"size:10;default:medium"`
	DefaultLocation         string `gorm:"size:200"`
	DefaultPreparationNotes string `gorm:"type:text"`
	DefaultReminderMinutes  int    `gorm:"default:30"`

	CreatedByID string `gorm:"size:32"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Activity Activity `gorm:"foreignKey:ActivityID"`
}

// ScheduleReminder records one reminder delivery attempt for a schedule.
type ScheduleReminder struct {
	ID           uint   `gorm:"primaryKey;autoIncrement"`
	ScheduleID   string `gorm:"size:32;index"`
	ReminderType string `gorm:"size:20"` // slack, discord, in_app
	SentAt       time.Time
	Delivered    bool `gorm:"default:false"`

	Schedule Schedule `gorm:"foreignKey:ScheduleID"`
}

// ScheduleConflict is an administratively recorded overlap between two
// schedules for the same user. Create-time conflict checks reject the
// request instead of writing one of these.
type ScheduleConflict struct {
	ID           uint   `gorm:"primaryKey;autoIncrement"`
	Schedule1ID  string `gorm:"size:32;index"`
	Schedule2ID  string `gorm:"size:32;index"`
	ConflictType string `gorm:"size:50;default:time_overlap"`

	Resolved        bool   `gorm:"default:false;index"`
	ResolutionNotes string `gorm:"type:text"`

	CreatedAt  time.Time
	ResolvedAt *time.Time

	Schedule1 Schedule `gorm:"foreignKey:Schedule1ID"`
	Schedule2 Schedule `gorm:"foreignKey:Schedule2ID"`
}
