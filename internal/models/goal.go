package models

import "time"

// Goal is a tracked outcome whose progress derives from linked activities.
type Goal struct {
	ID          string `gorm:"primaryKey;size:32"`
	Name        string `gorm:"not null"`
	Description string `gorm:"type:text"`
	Category    string `gorm:"size:100"`

	TargetDate *time.Time `gorm:"type:date"`
	Status     string     `gorm:"size:20;default:active;index"`
	Priority   string     `gorm:"size:20;default:medium"`

	CreatedByID string `gorm:"size:32"`

	// ProgressPercentage is a cached snapshot of the weighted progress
	// calculation. It is written only by goal.UpdateProgress.
	ProgressPercentage int    `gorm:"default:0"`
	Notes              string `gorm:"type:text"`

	RequiredActivitiesCount int `gorm:"default:0"`
	CompletionThreshold     int `gorm:"default:80"`

	CreatedAt time.Time
	UpdatedAt time.Time

	PrimaryActivities []Activity     `gorm:"foreignKey:PrimaryGoalID"`
	RelatedActivities []ActivityGoal `gorm:"foreignKey:GoalID"`
	AssignedCarers    []GoalCarer    `gorm:"foreignKey:GoalID"`
}

// GoalCarer assigns a carer to a goal.
type GoalCarer struct {
	GoalID string `gorm:"primaryKey;size:32"`
	UserID string `gorm:"primaryKey;size:32"`

	Goal Goal `gorm:"foreignKey:GoalID"`
	User User `gorm:"foreignKey:UserID"`
}

// IsOverdue reports whether an active goal has passed its target date.
func (g *Goal) IsOverdue(now time.Time) bool {
	if g.TargetDate == nil || g.Status != "active" {
		return false
	}
	return g.TargetDate.Before(now.Truncate(24 * time.Hour))
}
