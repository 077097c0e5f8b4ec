package models

import (
	"time"

	"gorm.io/gorm"
)

// StaffSchedule is a single shift assignment for a staff member.
type StaffSchedule struct {
	gorm.Model
	StaffID   uint      `gorm:"not null;index" json:"staff_id"`
	Staff     *User     `gorm:"foreignKey:StaffID" json:"staff,omitempty"`
	Date      time.Time `gorm:"not null" json:"date"`
	StartTime string    `gorm:"not null" json:"start_time"` // HH:MM
	EndTime   string    `gorm:"not null" json:"end_time"`   // HH:MM
	Position  string    `json:"position"`
	Notes     string    `gorm:"type:text" json:"notes"`
}
