package endpoint

import (
	"fmt"
	"time"

	"github.com/clinicdesk/clinic-api/middleware"
	"github.com/clinicdesk/clinic-api/model"
	"github.com/clinicdesk/clinic-api/util"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const (
	dateLayout    = "2006-01-02"
	clockLayout   = "15:04"
	instantLayout = dateLayout + " " + clockLayout

	// Two bookings for the same doctor conflict when their start instants are
	// strictly closer than this window. Exactly 30 minutes apart is allowed.
	conflictWindow = 30 * time.Minute
)

// appointmentInstant combines the stored date and time-of-day strings into a
// single instant for window comparisons.
func appointmentInstant(date, clock string) (time.Time, error) {
	return time.Parse(instantLayout, date+" "+clock)
}

// findConflictingAppointment returns the first active (scheduled or confirmed)
// appointment for the doctor whose start instant lies strictly inside the
// ±30 minute window around the candidate slot. excludeID skips the record
// being rescheduled. The query spans the candidate date and both neighbouring
// dates so windows that cross midnight are still honored.
func findConflictingAppointment(db *gorm.DB, doctorID uint, date, clock string, excludeID uint) (*model.Appointment, error) {
	candidate, err := appointmentInstant(date, clock)
	if err != nil {
		return nil, err
	}

	dates := []string{
		candidate.AddDate(0, 0, -1).Format(dateLayout),
		date,
		candidate.AddDate(0, 0, 1).Format(dateLayout),
	}
	activeStatuses := []string{model.AppointmentScheduled, model.AppointmentConfirmed}

	query := db.Where("doctor_id = ? AND appointment_date IN ? AND status IN ?", doctorID, dates, activeStatuses)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}

	var others []model.Appointment
	if err := query.Find(&others).Error; err != nil {
		return nil, err
	}

	for i := range others {
		instant, err := appointmentInstant(others[i].AppointmentDate, others[i].AppointmentTime)
		if err != nil {
			continue
		}
		diff := instant.Sub(candidate)
		if diff < 0 {
			diff = -diff
		}
		if diff < conflictWindow {
			return &others[i], nil
		}
	}
	return nil, nil
}

type createAppointmentRequest struct {
	PatientID       uint   `json:"patientId" example:"1"`
	DoctorID        uint   `json:"doctorId" example:"2"`
	AppointmentDate string `json:"appointmentDate" example:"2024-01-10"`
	AppointmentTime string `json:"appointmentTime" example:"10:00"`
	Type            string `json:"type" example:"consultation"`
	Reason          string `json:"reason,omitempty"`
	Notes           string `json:"notes,omitempty"`
}

func validateAppointmentSlot(date, clock string) error {
	if _, err := time.Parse(dateLayout, date); err != nil {
		return fmt.Errorf("appointmentDate must be YYYY-MM-DD")
	}
	if _, err := time.Parse(clockLayout, clock); err != nil {
		return fmt.Errorf("appointmentTime must be HH:MM")
	}
	return nil
}

// CreateAppointment godoc
// @Summary      Book an appointment
// @Description  Create a new appointment after checking for slot conflicts
// @Tags         Appointment
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body createAppointmentRequest true "Appointment information"
// @Success      201 {object} util.APIResponse{data=model.Appointment} "Appointment created"
// @Failure      400 {object} util.APIResponse "Invalid request or scheduling conflict"
// @Failure      403 {object} util.APIResponse "Patient may only book for themselves"
// @Failure      404 {object} util.APIResponse "Patient or doctor not found"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /appointments [post]
func CreateAppointment(c *gin.Context) {
	var req createAppointmentRequest
	if !bindJSONOrRespond(c, &req, "Invalid request body") {
		return
	}
	if req.PatientID == 0 || req.DoctorID == 0 || req.AppointmentDate == "" || req.AppointmentTime == "" {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "patientId, doctorId, appointmentDate and appointmentTime are required",
			Err: fmt.Errorf("invalid payload"),
		})
		return
	}
	if err := validateAppointmentSlot(req.AppointmentDate, req.AppointmentTime); err != nil {
		util.CallUserError(c, util.APIErrorParams{Msg: err.Error(), Err: fmt.Errorf("invalid payload")})
		return
	}
	if req.Type == "" {
		req.Type = model.AppointmentConsultation
	}
	if !model.ValidAppointmentType(req.Type) {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "type must be consultation, follow-up or emergency",
			Err: fmt.Errorf("invalid appointment type"),
		})
		return
	}

	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	var patient model.Patient
	if err := db.First(&patient, req.PatientID).Error; err != nil {
		util.CallErrorNotFound(c, util.APIErrorParams{Msg: "Patient not found", Err: err})
		return
	}
	var doctor model.Doctor
	if err := db.First(&doctor, req.DoctorID).Error; err != nil {
		util.CallErrorNotFound(c, util.APIErrorParams{Msg: "Doctor not found", Err: err})
		return
	}

	// A patient-role caller may only book appointments for their own record.
	role := middleware.GetUserRole(c)
	if !middleware.CanActOnPatient(role, middleware.GetUserID(c), patient.UserID) {
		util.CallUserForbidden(c, util.APIErrorParams{
			Msg: "You may only book appointments for your own patient record",
			Err: fmt.Errorf("ownership check failed"),
		})
		return
	}

	conflict, err := findConflictingAppointment(db, req.DoctorID, req.AppointmentDate, req.AppointmentTime, 0)
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to check schedule", Err: err})
		return
	}
	if conflict != nil {
		util.LogBookingConflict(middleware.GetUserID(c), c.ClientIP(), req.DoctorID, req.AppointmentDate, req.AppointmentTime)
		util.CallUserError(c, util.APIErrorParams{
			Msg: "Scheduling conflict: the doctor already has an appointment within 30 minutes of this slot",
			Err: fmt.Errorf("slot conflicts with appointment %d", conflict.ID),
		})
		return
	}

	appointment := model.Appointment{
		PatientID:       req.PatientID,
		DoctorID:        req.DoctorID,
		AppointmentDate: req.AppointmentDate,
		AppointmentTime: req.AppointmentTime,
		Type:            req.Type,
		Reason:          req.Reason,
		Notes:           req.Notes,
		Status:          model.AppointmentScheduled,
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		// Re-check inside the transaction; the unique slot index backstops
		// whatever the re-check still cannot see.
		conflict, err := findConflictingAppointment(tx, req.DoctorID, req.AppointmentDate, req.AppointmentTime, 0)
		if err != nil {
			return err
		}
		if conflict != nil {
			return fmt.Errorf("slot conflicts with appointment %d", conflict.ID)
		}
		return tx.Create(&appointment).Error
	})
	if err != nil {
		util.CallUserError(c, util.APIErrorParams{Msg: "Failed to book appointment", Err: err})
		return
	}

	db.Preload("Patient").Preload("Doctor").First(&appointment, appointment.ID)

	util.CallSuccessCreated(c, util.APISuccessParams{
		Msg:  "Appointment created",
		Data: appointment,
	})
}

// ListAppointments godoc
// @Summary      List appointments
// @Description  Get a filtered, paginated list of appointments
// @Tags         Appointment
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        doctorId query int false "Filter by doctor"
// @Param        patientId query int false "Filter by patient"
// @Param        status query string false "Filter by status"
// @Param        date query string false "Filter by appointment date (YYYY-MM-DD)"
// @Param        page query int false "Page number"
// @Param        limit query int false "Page size"
// @Success      200 {object} util.APIResponse{data=object} "Appointments retrieved"
// @Failure      401 {object} util.APIResponse "Unauthorized"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /appointments [get]
func ListAppointments(c *gin.Context) {
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	page, limit := parsePageLimit(c, 20)

	query := db.Model(&model.Appointment{})
	if doctorID := c.Query("doctorId"); doctorID != "" {
		query = query.Where("doctor_id = ?", doctorID)
	}
	if patientID := c.Query("patientId"); patientID != "" {
		query = query.Where("patient_id = ?", patientID)
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if date := c.Query("date"); date != "" {
		query = query.Where("appointment_date = ?", date)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to count appointments", Err: err})
		return
	}

	var appointments []model.Appointment
	err := query.Preload("Patient").Preload("Doctor").
		Order("appointment_date ASC, appointment_time ASC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&appointments).Error
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to retrieve appointments", Err: err})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg: "Appointments retrieved",
		Data: map[string]interface{}{
			"appointments": appointments,
			"pagination":   newPagination(page, limit, total),
		},
	})
}

// GetAppointment godoc
// @Summary      Get an appointment
// @Tags         Appointment
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Appointment ID"
// @Success      200 {object} util.APIResponse{data=model.Appointment} "Appointment retrieved"
// @Failure      404 {object} util.APIResponse "Appointment not found"
// @Router       /appointments/{id} [get]
func GetAppointment(c *gin.Context) {
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var appointment model.Appointment
	if err := db.Preload("Patient").Preload("Doctor").First(&appointment, id).Error; err != nil {
		util.CallErrorNotFound(c, util.APIErrorParams{Msg: "Appointment not found", Err: err})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Appointment retrieved", Data: appointment})
}

type updateAppointmentRequest struct {
	AppointmentDate *string `json:"appointmentDate"`
	AppointmentTime *string `json:"appointmentTime"`
	Status          *string `json:"status"`
	Type            *string `json:"type"`
	Reason          *string `json:"reason"`
	Notes           *string `json:"notes"`
}

// UpdateAppointment godoc
// @Summary      Update an appointment
// @Description  Reschedule and/or change status; rescheduling re-runs the conflict check
// @Tags         Appointment
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Appointment ID"
// @Param        request body updateAppointmentRequest true "Fields to update"
// @Success      200 {object} util.APIResponse{data=model.Appointment} "Appointment updated"
// @Failure      400 {object} util.APIResponse "Invalid request, conflict, or illegal status transition"
// @Failure      404 {object} util.APIResponse "Appointment not found"
// @Router       /appointments/{id} [put]
func UpdateAppointment(c *gin.Context) {
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req updateAppointmentRequest
	if !bindJSONOrRespond(c, &req, "Invalid request body") {
		return
	}

	var appointment model.Appointment
	if err := db.First(&appointment, id).Error; err != nil {
		util.CallErrorNotFound(c, util.APIErrorParams{Msg: "Appointment not found", Err: err})
		return
	}

	newDate := appointment.AppointmentDate
	newTime := appointment.AppointmentTime
	if req.AppointmentDate != nil {
		newDate = *req.AppointmentDate
	}
	if req.AppointmentTime != nil {
		newTime = *req.AppointmentTime
	}
	rescheduled := newDate != appointment.AppointmentDate || newTime != appointment.AppointmentTime

	if rescheduled {
		if err := validateAppointmentSlot(newDate, newTime); err != nil {
			util.CallUserError(c, util.APIErrorParams{Msg: err.Error(), Err: fmt.Errorf("invalid payload")})
			return
		}
		conflict, err := findConflictingAppointment(db, appointment.DoctorID, newDate, newTime, appointment.ID)
		if err != nil {
			util.CallServerError(c, util.APIErrorParams{Msg: "Failed to check schedule", Err: err})
			return
		}
		if conflict != nil {
			util.LogBookingConflict(middleware.GetUserID(c), c.ClientIP(), appointment.DoctorID, newDate, newTime)
			util.CallUserError(c, util.APIErrorParams{
				Msg: "Scheduling conflict: the doctor already has an appointment within 30 minutes of this slot",
				Err: fmt.Errorf("slot conflicts with appointment %d", conflict.ID),
			})
			return
		}
		appointment.AppointmentDate = newDate
		appointment.AppointmentTime = newTime
	}

	if req.Status != nil && *req.Status != appointment.Status {
		if !model.ValidAppointmentStatus(*req.Status) {
			util.CallUserError(c, util.APIErrorParams{
				Msg: "Unknown appointment status",
				Err: fmt.Errorf("status %q is not valid", *req.Status),
			})
			return
		}
		if !appointment.CanTransitionTo(*req.Status) {
			util.CallUserError(c, util.APIErrorParams{
				Msg: fmt.Sprintf("Cannot change appointment status from %s to %s", appointment.Status, *req.Status),
				Err: fmt.Errorf("illegal status transition"),
			})
			return
		}
		appointment.Status = *req.Status
	}

	if req.Type != nil {
		if !model.ValidAppointmentType(*req.Type) {
			util.CallUserError(c, util.APIErrorParams{
				Msg: "type must be consultation, follow-up or emergency",
				Err: fmt.Errorf("invalid appointment type"),
			})
			return
		}
		appointment.Type = *req.Type
	}
	if req.Reason != nil {
		appointment.Reason = *req.Reason
	}
	if req.Notes != nil {
		appointment.Notes = *req.Notes
	}

	if err := db.Save(&appointment).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to update appointment", Err: err})
		return
	}

	db.Preload("Patient").Preload("Doctor").First(&appointment, appointment.ID)

	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Appointment updated", Data: appointment})
}

// CancelAppointment godoc
// @Summary      Cancel an appointment
// @Description  Transition the appointment to cancelled; records are never hard-deleted
// @Tags         Appointment
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Appointment ID"
// @Success      200 {object} util.APIResponse "Appointment cancelled"
// @Failure      400 {object} util.APIResponse "Appointment already completed or cancelled"
// @Failure      404 {object} util.APIResponse "Appointment not found"
// @Router       /appointments/{id} [delete]
func CancelAppointment(c *gin.Context) {
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var appointment model.Appointment
	if err := db.First(&appointment, id).Error; err != nil {
		util.CallErrorNotFound(c, util.APIErrorParams{Msg: "Appointment not found", Err: err})
		return
	}

	if !appointment.CanTransitionTo(model.AppointmentCancelled) {
		util.CallUserError(c, util.APIErrorParams{
			Msg: fmt.Sprintf("Cannot cancel an appointment with status %s", appointment.Status),
			Err: fmt.Errorf("illegal status transition"),
		})
		return
	}

	appointment.Status = model.AppointmentCancelled
	if err := db.Save(&appointment).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to cancel appointment", Err: err})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Appointment cancelled", Data: appointment})
}
