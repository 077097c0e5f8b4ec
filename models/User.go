package models

import (
	"time"

	"gorm.io/gorm"
)

// Role names the built-in access levels.
type Role struct {
	gorm.Model
	Name        string `gorm:"uniqueIndex;not null" json:"name"`
	Description string `json:"description"`
	Users       []User `gorm:"foreignKey:RoleID" json:"users,omitempty"`
}

const (
	RoleAdmin    = "admin"
	RoleBaker    = "baker"
	RoleStaff    = "staff"
	RoleCustomer = "customer"
)

// User represents an account that can authenticate with the back office.
type User struct {
	gorm.Model
	Username     string     `gorm:"uniqueIndex;not null" json:"username"`
	Email        string     `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string     `gorm:"not null" json:"-"`
	FirstName    string     `gorm:"not null" json:"first_name"`
	LastName     string     `gorm:"not null" json:"last_name"`
	Phone        string     `json:"phone"`
	RoleID       uint       `gorm:"not null" json:"role_id"`
	Role         *Role      `gorm:"foreignKey:RoleID" json:"role,omitempty"`
	Active       bool       `gorm:"not null;default:true" json:"active"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
}
