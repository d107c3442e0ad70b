package models

import "time"

// User is a support worker or administrator.
type User struct {
	ID        string `gorm:"primaryKey;size:32"`
	Name      string `gorm:"not null"`
	Email     string `gorm:"size:254;uniqueIndex"`
	Role      string `gorm:"size:16;default:carer;index"`
	Active    bool   `gorm:"default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == "admin"
}
