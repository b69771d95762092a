package model

import "gorm.io/gorm"

const (
	PatientActive   = "active"
	PatientInactive = "inactive"
)

// Patient represents a registered clinic patient.
// @Description Patient information
type Patient struct {
	gorm.Model
	PatientCode      string `json:"patientCode" gorm:"column:patient_code;uniqueIndex;size:16" example:"P000001"`
	FullName         string `json:"fullName" gorm:"column:full_name;not null" example:"John Doe"`
	DateOfBirth      string `json:"dateOfBirth" gorm:"column:date_of_birth;size:10" example:"1980-01-01"`
	Gender           string `json:"gender" gorm:"column:gender;size:10" example:"male"`
	Phone            string `json:"phone" gorm:"column:phone;not null" example:"081234567890"`
	Email            string `json:"email" gorm:"column:email" example:"john@example.com"`
	Address          string `json:"address" gorm:"column:address" example:"123 Main St"`
	EmergencyContact string `json:"emergencyContact" gorm:"column:emergency_contact" example:"Jane Doe 081234567891"`
	MedicalNotes     string `json:"medicalNotes" gorm:"column:medical_notes;type:text"`
	Status           string `json:"status" gorm:"column:status;size:16;default:active" example:"active"`
	// UserID links the patient to a portal account when one exists.
	UserID uint `json:"userId" gorm:"column:user_id;index"`
}
