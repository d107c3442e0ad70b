package schedule

import (
	"errors"
	"fmt"
	"time"

	"github.com/tavonga/careconnect/internal/fault"
	"github.com/tavonga/careconnect/internal/models"
	"gorm.io/gorm"
)

// ValidConflictTypes are the accepted audit conflict categories.
var ValidConflictTypes = []string{"time_overlap", "resource_conflict", "user_double_booking"}

// RecordConflict writes an audit row for an overlap discovered after the
// fact (administratively or by a sweep). Create-time conflict checks reject
// the request instead of calling this.
func RecordConflict(db *gorm.DB, schedule1ID, schedule2ID, conflictType string) (*models.ScheduleConflict, error) {
	if conflictType == "" {
		conflictType = "time_overlap"
	}
	if !containsString(ValidConflictTypes, conflictType) {
		return nil, fault.NewValidation("conflict_type", "unknown conflict type %q", conflictType)
	}
	for _, id := range []string{schedule1ID, schedule2ID} {
		var count int64
		if err := db.Model(&models.Schedule{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return nil, fmt.Errorf("schedule: check %s: %w", id, err)
		}
		if count == 0 {
			return nil, &fault.NotFoundError{Entity: "schedule", ID: id}
		}
	}

	c := models.ScheduleConflict{
		Schedule1ID:  schedule1ID,
		Schedule2ID:  schedule2ID,
		ConflictType: conflictType,
	}
	if err := db.Create(&c).Error; err != nil {
		return nil, fmt.Errorf("schedule: record conflict: %w", err)
	}
	return &c, nil
}

// ResolveConflict marks an audit row resolved with optional notes.
func ResolveConflict(db *gorm.DB, id uint, notes string) (*models.ScheduleConflict, error) {
	var c models.ScheduleConflict
	if err := db.Where("id = ?", id).First(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &fault.NotFoundError{Entity: "schedule conflict", ID: fmt.Sprint(id)}
		}
		return nil, fmt.Errorf("schedule: get conflict %d: %w", id, err)
	}

	now := time.Now().UTC()
	c.Resolved = true
	c.ResolutionNotes = notes
	c.ResolvedAt = &now
	updates := map[string]interface{}{
		"resolved":         true,
		"resolution_notes": notes,
		"resolved_at":      c.ResolvedAt,
	}
	if err := db.Model(&models.ScheduleConflict{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("schedule: resolve conflict %d: %w", id, err)
	}
	return &c, nil
}

// ListConflicts returns audit rows, optionally filtered to unresolved ones,
// newest first.
func ListConflicts(db *gorm.DB, unresolvedOnly bool) ([]models.ScheduleConflict, error) {
	q := db.Model(&models.ScheduleConflict{})
	if unresolvedOnly {
		q = q.Where("resolved = ?", false)
	}
	var conflicts []models.ScheduleConflict
	if err := q.Order("created_at DESC").Find(&conflicts).Error; err != nil {
		return nil, fmt.Errorf("schedule: list conflicts: %w", err)
	}
	return conflicts, nil
}
