package model

import (
	"time"

	"gorm.io/gorm"
)

const (
	RoleAdmin        = "admin"
	RoleReceptionist = "receptionist"
	RoleDoctor       = "doctor"
	RolePatient      = "patient"
)

// User is a staff or patient portal account. The role string drives every
// authorization gate; there is no separate roles table.
type User struct {
	gorm.Model
	FirstName      string     `json:"firstName" gorm:"column:first_name;not null" example:"Ana"`
	LastName       string     `json:"lastName" gorm:"column:last_name;not null" example:"Lim"`
	Email          string     `json:"email" gorm:"column:email;uniqueIndex;size:191" example:"ana@example.com"`
	Password       string     `json:"-" gorm:"column:password;not null"`
	PasswordSalt   string     `json:"-" gorm:"column:password_salt"`
	Role           string     `json:"role" gorm:"column:role;size:16;not null" example:"receptionist"`
	FailedAttempts int        `json:"-" gorm:"column:failed_attempts;default:0"`
	LockedUntil    *time.Time `json:"-" gorm:"column:locked_until"`
}

// ValidRole reports whether s is one of the four account roles.
func ValidRole(s string) bool {
	switch s {
	case RoleAdmin, RoleReceptionist, RoleDoctor, RolePatient:
		return true
	}
	return false
}

// IsStaffRole reports whether the role belongs to clinic staff.
func IsStaffRole(s string) bool {
	return s == RoleAdmin || s == RoleReceptionist || s == RoleDoctor
}
