package model

import "gorm.io/gorm"

const (
	AppointmentScheduled = "scheduled"
	AppointmentConfirmed = "confirmed"
	AppointmentCompleted = "completed"
	AppointmentCancelled = "cancelled"
)

const (
	AppointmentConsultation = "consultation"
	AppointmentFollowUp     = "follow-up"
	AppointmentEmergency    = "emergency"
)

// Appointment represents a booked visit. Date and time-of-day are stored as
// separate strings ("2006-01-02" and "15:04"); the slot index keeps a doctor
// from holding two bookings at the identical instant even under racing writers.
type Appointment struct {
	gorm.Model
	PatientID       uint    `json:"patientId" gorm:"column:patient_id;not null;index"`
	DoctorID        uint    `json:"doctorId" gorm:"column:doctor_id;not null;index;uniqueIndex:idx_doctor_slot,priority:1"`
	AppointmentDate string  `json:"appointmentDate" gorm:"column:appointment_date;size:10;not null;uniqueIndex:idx_doctor_slot,priority:2" example:"2024-01-10"`
	AppointmentTime string  `json:"appointmentTime" gorm:"column:appointment_time;size:5;not null;uniqueIndex:idx_doctor_slot,priority:3" example:"10:00"`
	Type            string  `json:"type" gorm:"column:type;size:16;default:consultation" example:"consultation"`
	Reason          string  `json:"reason" gorm:"column:reason"`
	Notes           string  `json:"notes" gorm:"column:notes;type:text"`
	Status          string  `json:"status" gorm:"column:status;size:16;default:scheduled" example:"scheduled"`
	Patient         Patient `json:"patient" gorm:"foreignKey:PatientID"`
	Doctor          Doctor  `json:"doctor" gorm:"foreignKey:DoctorID"`
}

// appointmentTransitions lists the allowed status moves. Completed and
// cancelled are terminal.
var appointmentTransitions = map[string][]string{
	AppointmentScheduled: {AppointmentConfirmed, AppointmentCancelled},
	AppointmentConfirmed: {AppointmentCompleted, AppointmentCancelled},
}

// CanTransitionTo reports whether the appointment may move to the given status.
func (a *Appointment) CanTransitionTo(status string) bool {
	for _, next := range appointmentTransitions[a.Status] {
		if next == status {
			return true
		}
	}
	return false
}

// ValidAppointmentStatus reports whether s is a known appointment status.
func ValidAppointmentStatus(s string) bool {
	switch s {
	case AppointmentScheduled, AppointmentConfirmed, AppointmentCompleted, AppointmentCancelled:
		return true
	}
	return false
}

// ValidAppointmentType reports whether s is a known appointment type.
func ValidAppointmentType(s string) bool {
	switch s {
	case AppointmentConsultation, AppointmentFollowUp, AppointmentEmergency:
		return true
	}
	return false
}
