package db

import (
	"fmt"

	"github.com/tavonga/careconnect/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AllModels returns the list of all GORM models for migration.
func AllModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Goal{},
		&models.GoalCarer{},
		&models.Activity{},
		&models.ActivityGoal{},
		&models.ActivityLog{},
		&models.Schedule{},
		&models.ScheduleTemplate{},
		&models.ScheduleReminder{},
		&models.ScheduleConflict{},
	}
}

// AutoMigrate creates or updates all tables.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("db: auto-migrate: %w", err)
	}
	return nil
}

// SeedAdmin upserts the service administrator account.
func SeedAdmin(db *gorm.DB, name, email string) error {
	admin := models.User{
		ID:     "usr-admin",
		Name:   name,
		Email:  email,
		Role:   "admin",
		Active: true,
	}
	result := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "email", "active"}),
	}).Create(&admin)
	if result.Error != nil {
		return fmt.Errorf("db: seed admin %q: %w", email, result.Error)
	}
	return nil
}
