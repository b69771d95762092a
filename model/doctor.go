package model

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	DoctorActive   = "active"
	DoctorInactive = "inactive"
)

// Doctor represents a practicing doctor profile.
// @Description Doctor information
type Doctor struct {
	gorm.Model
	FirstName       string         `json:"firstName" gorm:"column:first_name;not null" example:"Sarah"`
	LastName        string         `json:"lastName" gorm:"column:last_name;not null" example:"Tan"`
	Email           string         `json:"email" gorm:"column:email;uniqueIndex;size:191" example:"dr.sarah@example.com"`
	Specialization  string         `json:"specialization" gorm:"column:specialization;not null" example:"Cardiology"`
	LicenseNumber   string         `json:"licenseNumber" gorm:"column:license_number;uniqueIndex;size:64" example:"MD-10023"`
	Phone           string         `json:"phone" gorm:"column:phone" example:"081234567890"`
	Qualifications  datatypes.JSON `json:"qualifications" gorm:"column:qualifications;type:json"`
	Experience      int            `json:"experience" gorm:"column:experience" example:"12"`
	ConsultationFee float64        `json:"consultationFee" gorm:"column:consultation_fee" example:"150"`
	Status          string         `json:"status" gorm:"column:status;size:16;default:active" example:"active"`
}
