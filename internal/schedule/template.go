package schedule

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/tavonga/careconnect/internal/fault"
	"github.com/tavonga/careconnect/internal/models"
	"gorm.io/gorm"
)

// TemplateOpts holds parameters for creating a schedule template.
type TemplateOpts struct {
	Name                    string
	Description             string
	ActivityID              string
	DefaultDuration         int // minutes
	DefaultPriority         string
	DefaultLocation         string
	DefaultPreparationNotes string
	DefaultReminderMinutes  int // 0 means default 30
	CreatedByID             string
}

// generateTemplateID creates a unique template ID in tpl-xxxxx format.
func generateTemplateID() (string, error) {
	b := make([]byte, 3)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("schedule: generate template ID: %w", err)
	}
	return "tpl-" + hex.EncodeToString(b)[:5], nil
}

// generateUniqueTemplateID generates an ID and retries once on collision.
func generateUniqueTemplateID(db *gorm.DB) (string, error) {
	for attempt := 0; attempt < 2; attempt++ {
		id, err := generateTemplateID()
		if err != nil {
			return "", err
		}
		var count int64
		if err := db.Model(&models.ScheduleTemplate{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return "", fmt.Errorf("schedule: check template ID uniqueness: %w", err)
		}
		if count == 0 {
			return id, nil
		}
	}
	return "", fmt.Errorf("schedule: failed to generate unique template ID after retries")
}

// CreateTemplate creates a reusable default-parameter bundle for one activity.
func CreateTemplate(db *gorm.DB, opts TemplateOpts) (*models.ScheduleTemplate, error) {
	if opts.Name == "" {
		return nil, fault.NewValidation("name", "name is required")
	}
	if opts.ActivityID == "" {
		return nil, fault.NewValidation("activity_id", "activity is required")
	}
	if opts.DefaultDuration <= 0 {
		return nil, fault.NewValidation("default_duration", "must be a positive number of minutes")
	}
	if opts.DefaultPriority == "" {
		opts.DefaultPriority = "medium"
	}
	if !containsString(ValidPriorities, opts.DefaultPriority) {
		return nil, fault.NewValidation("default_priority", "unknown priority %q", opts.DefaultPriority)
	}
	if opts.DefaultReminderMinutes == 0 {
		opts.DefaultReminderMinutes = 30
	}

	var count int64
	if err := db.Model(&models.Activity{}).Where("id = ?", opts.ActivityID).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("schedule: check activity %s: %w", opts.ActivityID, err)
	}
	if count == 0 {
		return nil, &fault.NotFoundError{Entity: "activity", ID: opts.ActivityID}
	}

	id, err := generateUniqueTemplateID(db)
	if err != nil {
		return nil, err
	}
	tpl := models.ScheduleTemplate{
		ID:                      id,
		Name:                    opts.Name,
		Description:             opts.Description,
		ActivityID:              opts.ActivityID,
		DefaultDuration:         opts.DefaultDuration,
		DefaultPriority:         opts.DefaultPriority,
		DefaultLocation:         opts.DefaultLocation,
		DefaultPreparationNotes: opts.DefaultPreparationNotes,
		DefaultReminderMinutes:  opts.DefaultReminderMinutes,
		CreatedByID:             opts.CreatedByID,
	}
	if err := db.Create(&tpl).Error; err != nil {
		return nil, fmt.Errorf("schedule: create template: %w", err)
	}
	return &tpl, nil
}

// GetTemplate retrieves a template by ID.
func GetTemplate(db *gorm.DB, id string) (*models.ScheduleTemplate, error) {
	var tpl models.ScheduleTemplate
	if err := db.Preload("Activity").Where("id = ?", id).First(&tpl).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &fault.NotFoundError{Entity: "schedule template", ID: id}
		}
		return nil, fmt.Errorf("schedule: get template %s: %w", id, err)
	}
	return &tpl, nil
}

// ListTemplates returns all templates ordered by name.
func ListTemplates(db *gorm.DB) ([]models.ScheduleTemplate, error) {
	var tpls []models.ScheduleTemplate
	if err := db.Order("name ASC").Find(&tpls).Error; err != nil {
		return nil, fmt.Errorf("schedule: list templates: %w", err)
	}
	return tpls, nil
}

// FromTemplate creates a schedule using a template's defaults. Date, time,
// and assigned user come from the caller; everything else falls back to the
// template. The create goes through the full validation and conflict path.
func FromTemplate(db *gorm.DB, templateID string, userID, createdByID string, date time.Time, hhmm string) (*models.Schedule, error) {
	tpl, err := GetTemplate(db, templateID)
	if err != nil {
		return nil, err
	}

	duration := tpl.DefaultDuration
	return Create(db, CreateOpts{
		ActivityID:            tpl.ActivityID,
		AssignedUserID:        userID,
		CreatedByID:           createdByID,
		ScheduledDate:         date,
		ScheduledTime:         hhmm,
		EstimatedDuration:     &duration,
		Priority:              tpl.DefaultPriority,
		Location:              tpl.DefaultLocation,
		PreparationNotes:      tpl.DefaultPreparationNotes,
		ReminderMinutesBefore: tpl.DefaultReminderMinutes,
	})
}
