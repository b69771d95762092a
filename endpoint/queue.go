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

// nextQueueNumber derives the next number for (doctor, day) from the highest
// number already issued, starting at 1. The lookup is Unscoped so entries
// hard-removed by staff keep holding their number; the unique
// (doctor, day, number) index spans soft-deleted rows, and numbers are never
// reused regardless of later cancellations or removals.
func nextQueueNumber(tx *gorm.DB, doctorID uint, day string) (int, error) {
	var last model.QueueEntry
	err := tx.Unscoped().
		Where("doctor_id = ? AND queue_date = ?", doctorID, day).
		Order("queue_number DESC").
		First(&last).Error
	if err == gorm.ErrRecordNotFound {
		return 1, nil
	}
	if err != nil {
		return 0, err
	}
	return last.QueueNumber + 1, nil
}

// findActiveQueueEntry returns the waiting or in-progress entry for
// (patient, doctor, day), if one exists.
func findActiveQueueEntry(db *gorm.DB, patientID, doctorID uint, day string) (*model.QueueEntry, error) {
	var entry model.QueueEntry
	err := db.Where(
		"patient_id = ? AND doctor_id = ? AND queue_date = ? AND status IN ?",
		patientID, doctorID, day,
		[]string{model.QueueWaiting, model.QueueInProgress},
	).First(&entry).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

type addToQueueRequest struct {
	PatientID uint   `json:"patientId" example:"1"`
	DoctorID  uint   `json:"doctorId" example:"2"`
	Priority  string `json:"priority,omitempty" example:"normal"`
	Reason    string `json:"reason,omitempty"`
	Notes     string `json:"notes,omitempty"`
}

// AddToQueue godoc
// @Summary      Add a patient to a doctor's walk-in queue
// @Description  Assigns the next queue number for the doctor today; a patient can hold at most one active entry per doctor per day
// @Tags         Queue
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body addToQueueRequest true "Queue entry information"
// @Success      201 {object} util.APIResponse{data=model.QueueEntry} "Queue entry created"
// @Failure      400 {object} util.APIResponse "Invalid request or patient already queued"
// @Failure      404 {object} util.APIResponse "Patient or doctor not found"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /queue [post]
func AddToQueue(c *gin.Context) {
	var req addToQueueRequest
	if !bindJSONOrRespond(c, &req, "Invalid request body") {
		return
	}
	if req.PatientID == 0 || req.DoctorID == 0 {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "patientId and doctorId are required",
			Err: fmt.Errorf("invalid payload"),
		})
		return
	}
	if req.Priority == "" {
		req.Priority = model.PriorityNormal
	}
	if !model.ValidQueuePriority(req.Priority) {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "priority must be normal, high or urgent",
			Err: fmt.Errorf("invalid priority"),
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

	today := time.Now().Format(dateLayout)

	existing, err := findActiveQueueEntry(db, req.PatientID, req.DoctorID, today)
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to check queue", Err: err})
		return
	}
	if existing != nil {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "Patient is already in this doctor's queue today",
			Err: fmt.Errorf("active queue entry %d exists", existing.ID),
		})
		return
	}

	entry := model.QueueEntry{
		PatientID: req.PatientID,
		DoctorID:  req.DoctorID,
		QueueDate: today,
		Priority:  req.Priority,
		Status:    model.QueueWaiting,
		Reason:    req.Reason,
		Notes:     req.Notes,
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		// Re-check membership inside the transaction to avoid racing creators.
		existing, err := findActiveQueueEntry(tx, req.PatientID, req.DoctorID, today)
		if err != nil {
			return err
		}
		if existing != nil {
			return fmt.Errorf("active queue entry %d exists", existing.ID)
		}

		number, err := nextQueueNumber(tx, req.DoctorID, today)
		if err != nil {
			return err
		}
		entry.QueueNumber = number

		return tx.Create(&entry).Error
	})
	if err != nil {
		util.CallUserError(c, util.APIErrorParams{Msg: "Failed to add patient to queue", Err: err})
		return
	}

	db.Preload("Patient").Preload("Doctor").First(&entry, entry.ID)

	util.CallSuccessCreated(c, util.APISuccessParams{
		Msg:  "Patient added to queue",
		Data: entry,
	})
}

// ListQueue godoc
// @Summary      List queue entries
// @Description  Filtered listing sorted by priority (urgent first) then queue number
// @Tags         Queue
// @Produce      json
// @Security     BearerAuth
// @Param        doctorId query int false "Filter by doctor"
// @Param        status query string false "Filter by status"
// @Param        date query string false "Filter by queue date (YYYY-MM-DD)"
// @Success      200 {object} util.APIResponse{data=object} "Queue retrieved"
// @Failure      401 {object} util.APIResponse "Unauthorized"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /queue [get]
func ListQueue(c *gin.Context) {
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	query := db.Model(&model.QueueEntry{})
	if doctorID := c.Query("doctorId"); doctorID != "" {
		query = query.Where("doctor_id = ?", doctorID)
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if date := c.Query("date"); date != "" {
		query = query.Where("queue_date = ?", date)
	}

	var entries []model.QueueEntry
	err := query.Preload("Patient").Preload("Doctor").
		Order("CASE priority WHEN 'urgent' THEN 0 WHEN 'high' THEN 1 ELSE 2 END, queue_number ASC").
		Find(&entries).Error
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to retrieve queue", Err: err})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Queue retrieved",
		Data: map[string]interface{}{"queue": entries, "total": len(entries)},
	})
}

// GetQueueEntry godoc
// @Summary      Get a queue entry
// @Tags         Queue
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Queue entry ID"
// @Success      200 {object} util.APIResponse{data=model.QueueEntry} "Queue entry retrieved"
// @Failure      404 {object} util.APIResponse "Queue entry not found"
// @Router       /queue/{id} [get]
func GetQueueEntry(c *gin.Context) {
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var entry model.QueueEntry
	if err := db.Preload("Patient").Preload("Doctor").First(&entry, id).Error; err != nil {
		util.CallErrorNotFound(c, util.APIErrorParams{Msg: "Queue entry not found", Err: err})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Queue entry retrieved", Data: entry})
}

type updateQueueRequest struct {
	Status   *string `json:"status"`
	Priority *string `json:"priority"`
	Notes    *string `json:"notes"`
}

// UpdateQueueEntry godoc
// @Summary      Update a queue entry
// @Description  Status transitions stamp calledAt (waiting→in-progress) and completedAt (in-progress→completed)
// @Tags         Queue
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Queue entry ID"
// @Param        request body updateQueueRequest true "Fields to update"
// @Success      200 {object} util.APIResponse{data=model.QueueEntry} "Queue entry updated"
// @Failure      400 {object} util.APIResponse "Invalid request or illegal status transition"
// @Failure      404 {object} util.APIResponse "Queue entry not found"
// @Router       /queue/{id} [put]
func UpdateQueueEntry(c *gin.Context) {
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req updateQueueRequest
	if !bindJSONOrRespond(c, &req, "Invalid request body") {
		return
	}

	var entry model.QueueEntry
	if err := db.First(&entry, id).Error; err != nil {
		util.CallErrorNotFound(c, util.APIErrorParams{Msg: "Queue entry not found", Err: err})
		return
	}

	if req.Status != nil && *req.Status != entry.Status {
		if !model.ValidQueueStatus(*req.Status) {
			util.CallUserError(c, util.APIErrorParams{
				Msg: "Unknown queue status",
				Err: fmt.Errorf("status %q is not valid", *req.Status),
			})
			return
		}
		if !entry.CanTransitionTo(*req.Status) {
			util.CallUserError(c, util.APIErrorParams{
				Msg: fmt.Sprintf("Cannot change queue status from %s to %s", entry.Status, *req.Status),
				Err: fmt.Errorf("illegal status transition"),
			})
			return
		}

		now := time.Now()
		switch *req.Status {
		case model.QueueInProgress:
			entry.CalledAt = &now
		case model.QueueCompleted:
			entry.CompletedAt = &now
		}
		entry.Status = *req.Status
	}

	if req.Priority != nil {
		if !model.ValidQueuePriority(*req.Priority) {
			util.CallUserError(c, util.APIErrorParams{
				Msg: "priority must be normal, high or urgent",
				Err: fmt.Errorf("invalid priority"),
			})
			return
		}
		entry.Priority = *req.Priority
	}
	if req.Notes != nil {
		entry.Notes = *req.Notes
	}

	if err := db.Save(&entry).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to update queue entry", Err: err})
		return
	}

	db.Preload("Patient").Preload("Doctor").First(&entry, entry.ID)

	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Queue entry updated", Data: entry})
}

// DeleteQueueEntry godoc
// @Summary      Cancel or remove a queue entry
// @Description  Admins and receptionists hard-remove the entry (its number is not reused); other roles cancel it
// @Tags         Queue
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Queue entry ID"
// @Success      200 {object} util.APIResponse "Queue entry cancelled or removed"
// @Failure      400 {object} util.APIResponse "Queue entry already completed or cancelled"
// @Failure      404 {object} util.APIResponse "Queue entry not found"
// @Router       /queue/{id} [delete]
func DeleteQueueEntry(c *gin.Context) {
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var entry model.QueueEntry
	if err := db.First(&entry, id).Error; err != nil {
		util.CallErrorNotFound(c, util.APIErrorParams{Msg: "Queue entry not found", Err: err})
		return
	}

	role := middleware.GetUserRole(c)
	if role == model.RoleAdmin || role == model.RoleReceptionist {
		// Administrative removal, distinct from cancellation.
		if err := db.Delete(&entry).Error; err != nil {
			util.CallServerError(c, util.APIErrorParams{Msg: "Failed to remove queue entry", Err: err})
			return
		}
		util.LogQueueRemoved(middleware.GetUserID(c), c.ClientIP(), entry.ID, entry.QueueNumber)
		util.CallSuccessOK(c, util.APISuccessParams{Msg: "Queue entry removed"})
		return
	}

	if !entry.CanTransitionTo(model.QueueCancelled) {
		util.CallUserError(c, util.APIErrorParams{
			Msg: fmt.Sprintf("Cannot cancel a queue entry with status %s", entry.Status),
			Err: fmt.Errorf("illegal status transition"),
		})
		return
	}

	entry.Status = model.QueueCancelled
	if err := db.Save(&entry).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to cancel queue entry", Err: err})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Queue entry cancelled", Data: entry})
}
