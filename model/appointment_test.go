package model

import "testing"

func TestAppointmentTransitions(t *testing.T) {
	tests := []struct {
		from    string
		to      string
		allowed bool
	}{
		{AppointmentScheduled, AppointmentConfirmed, true},
		{AppointmentScheduled, AppointmentCancelled, true},
		{AppointmentScheduled, AppointmentCompleted, false},
		{AppointmentConfirmed, AppointmentCompleted, true},
		{AppointmentConfirmed, AppointmentCancelled, true},
		{AppointmentConfirmed, AppointmentScheduled, false},
		{AppointmentCompleted, AppointmentCancelled, false},
		{AppointmentCancelled, AppointmentScheduled, false},
		{AppointmentCancelled, AppointmentConfirmed, false},
	}
	for _, tt := range tests {
		a := Appointment{Status: tt.from}
		if got := a.CanTransitionTo(tt.to); got != tt.allowed {
			t.Errorf("%s -> %s: expected %v, got %v", tt.from, tt.to, tt.allowed, got)
		}
	}
}

func TestValidAppointmentStatusAndType(t *testing.T) {
	for _, s := range []string{AppointmentScheduled, AppointmentConfirmed, AppointmentCompleted, AppointmentCancelled} {
		if !ValidAppointmentStatus(s) {
			t.Errorf("%s should be a valid status", s)
		}
	}
	if ValidAppointmentStatus("pending") {
		t.Errorf("pending is not a valid status")
	}

	for _, s := range []string{AppointmentConsultation, AppointmentFollowUp, AppointmentEmergency} {
		if !ValidAppointmentType(s) {
			t.Errorf("%s should be a valid type", s)
		}
	}
	if ValidAppointmentType("surgery") {
		t.Errorf("surgery is not a valid type")
	}
}

func TestAppointmentSlotIndexRejectsExactDuplicate(t *testing.T) {
	db := setupTestDB(t, "appointment", &Appointment{})

	first := Appointment{PatientID: 1, DoctorID: 1, AppointmentDate: "2024-06-10", AppointmentTime: "10:00"}
	if err := db.Create(&first).Error; err != nil {
		t.Fatalf("create first: %v", err)
	}

	dup := Appointment{PatientID: 2, DoctorID: 1, AppointmentDate: "2024-06-10", AppointmentTime: "10:00"}
	if err := db.Create(&dup).Error; err == nil {
		t.Errorf("expected unique slot index to reject duplicate booking")
	}

	otherDoctor := Appointment{PatientID: 2, DoctorID: 2, AppointmentDate: "2024-06-10", AppointmentTime: "10:00"}
	if err := db.Create(&otherDoctor).Error; err != nil {
		t.Errorf("same slot for another doctor should insert: %v", err)
	}
}
