package models

import "time"

// Activity is a reusable task template, optionally linked to one or more goals.
type Activity struct {
	ID                string `gorm:"primaryKey;size:32"`
	Name              string `gorm:"not null"`
	Description       string `gorm:"type:text"`
	Category          string `gorm:"size:20;default:other;index"`
	Difficulty        string `gorm:"size:10;default:medium"`
	Instructions      string `gorm:"type:text"`
	Prerequisites     string `gorm:"type:text"`
	EstimatedDuration *int   // minutes

	// Goal linkage: one optional primary goal plus any number of related goals.
	PrimaryGoalID *string `gorm:"size:32;index"`
	// GoalContributionWeight is how much a completion of this activity counts
	// toward linked goal progress relative to other linked activities.
	GoalContributionWeight int `gorm:"default:1"`

	ImageURL string `gorm:"size:500"`
	VideoURL string `gorm:"size:500"`

	Active      bool   `gorm:"default:true;index"`
	CreatedByID string `gorm:"size:32"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	PrimaryGoal  *Goal          `gorm:"foreignKey:PrimaryGoalID"`
	RelatedGoals []ActivityGoal `gorm:"foreignKey:ActivityID"`
	Logs         []ActivityLog  `gorm:"foreignKey:ActivityID"`
}

// ActivityGoal links an activity to a goal beyond its primary goal.
type ActivityGoal struct {
	ActivityID string `gorm:"primaryKey;size:32"`
	GoalID     string `gorm:"primaryKey;size:32"`

	Activity Activity `gorm:"foreignKey:ActivityID"`
	Goal     Goal     `gorm:"foreignKey:GoalID"`
}

// ActivityLog records one user attempting an activity on one date.
// At most one log may exist per (activity, user, date).
type ActivityLog struct {
	ID         string    `gorm:"primaryKey;size:32"`
	ActivityID string    `gorm:"size:32;not null;uniqueIndex:uniq_activity_user_date"`
	UserID     string    `gorm:"size:32;not null;uniqueIndex:uniq_activity_user_date"`
	Date       time.Time `gorm:"type:date;not null;uniqueIndex:uniq_activity_user_date"`

	ScheduledTime string `gorm:"size:5"` // HH:MM, optional
	StartTime     *time.Time
	EndTime       *time.Time
	Status        string `gorm:"size:20;default:scheduled;index"`

	Completed          bool   `gorm:"default:false;index"`
	CompletionNotes    string `gorm:"type:text"`
	DifficultyRating   *int   // 1-5
	SatisfactionRating *int   // 1-5

	Photos string `gorm:"type:json"`
	Videos string `gorm:"type:json"`

	Notes      string `gorm:"type:text"`
	Challenges string `gorm:"type:text"`
	Successes  string `gorm:"type:text"`

	CreatedAt time.Time
	UpdatedAt time.Time

	Activity Activity `gorm:"foreignKey:ActivityID"`
	User     User     `gorm:"foreignKey:UserID"`
}

// DurationMinutes returns the elapsed minutes between start and end time,
// or nil when either is unset.
func (l *ActivityLog) DurationMinutes() *int {
	if l.StartTime == nil || l.EndTime == nil {
		return nil
	}
	m := int(l.EndTime.Sub(*l.StartTime).Minutes())
	return &m
}
