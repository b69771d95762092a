package endpoint

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/clinicdesk/clinic-api/model"
	"github.com/clinicdesk/clinic-api/util"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func fetchPatients(db *gorm.DB, page, limit int, search, status string) ([]model.Patient, int64, error) {
	query := db.Model(&model.Patient{})

	if search != "" {
		kw := "%" + search + "%"
		query = query.Where("full_name LIKE ? OR patient_code LIKE ? OR phone LIKE ? OR email LIKE ?", kw, kw, kw, kw)
	}
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var patients []model.Patient
	err := query.Order("created_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&patients).Error
	if err != nil {
		return nil, 0, err
	}
	return patients, total, nil
}

// ListPatients godoc
// @Summary      List patients
// @Description  Get a paginated list of patients with optional search over name, code, phone and email
// @Tags         Patient
// @Produce      json
// @Security     BearerAuth
// @Param        page query int false "Page number"
// @Param        limit query int false "Page size"
// @Param        search query string false "Search keyword"
// @Param        status query string false "Filter by status (active|inactive)"
// @Success      200 {object} util.APIResponse{data=object} "Patients retrieved"
// @Failure      401 {object} util.APIResponse "Unauthorized"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /patients [get]
func ListPatients(c *gin.Context) {
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	page, limit := parsePageLimit(c, 10)
	patients, total, err := fetchPatients(db, page, limit, c.Query("search"), c.Query("status"))
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to retrieve patients", Err: err})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg: "Patients retrieved",
		Data: map[string]interface{}{
			"patients":   patients,
			"pagination": newPagination(page, limit, total),
		},
	})
}

type createPatientRequest struct {
	FullName         string `json:"fullName" example:"John Doe"`
	DateOfBirth      string `json:"dateOfBirth,omitempty" example:"1980-01-01"`
	Gender           string `json:"gender,omitempty" example:"male"`
	Phone            string `json:"phone" example:"081234567890"`
	Email            string `json:"email,omitempty" example:"john@example.com"`
	Address          string `json:"address,omitempty"`
	EmergencyContact string `json:"emergencyContact,omitempty"`
	MedicalNotes     string `json:"medicalNotes,omitempty"`
	// Password, together with Email, creates a linked portal account.
	Password string `json:"password,omitempty"`
}

func validGender(s string) bool {
	return s == "" || s == "male" || s == "female" || s == "other"
}

// nextPatientCode derives the next display code from the highest one issued.
// Codes are "P" followed by a six-digit sequence.
func nextPatientCode(tx *gorm.DB) (string, error) {
	var last model.Patient
	err := tx.Unscoped().Where("patient_code LIKE 'P%'").Order("patient_code DESC").First(&last).Error
	if err == gorm.ErrRecordNotFound {
		return "P000001", nil
	}
	if err != nil {
		return "", err
	}
	seq, err := strconv.Atoi(strings.TrimPrefix(last.PatientCode, "P"))
	if err != nil {
		return "", fmt.Errorf("malformed patient code %q: %w", last.PatientCode, err)
	}
	return fmt.Sprintf("P%06d", seq+1), nil
}

func ensurePatientEmailAvailable(tx *gorm.DB, email string) error {
	if email == "" {
		return nil
	}
	var existing model.Patient
	if err := tx.Where("email = ?", email).First(&existing).Error; err == nil {
		return fmt.Errorf("patient with this email already exists")
	} else if err != gorm.ErrRecordNotFound {
		return err
	}
	return nil
}

// maybeCreatePortalUser creates a patient-role account when the registration
// supplies both email and password.
func maybeCreatePortalUser(tx *gorm.DB, req createPatientRequest) (uint, error) {
	if req.Email == "" || req.Password == "" {
		return 0, nil
	}

	var existingUser model.User
	if err := tx.Where("email = ?", req.Email).First(&existingUser).Error; err == nil {
		return 0, fmt.Errorf("email already registered")
	} else if err != gorm.ErrRecordNotFound {
		return 0, err
	}

	salt, err := util.GenerateSalt()
	if err != nil {
		return 0, err
	}
	hashed, err := util.HashPasswordArgon2(req.Password, salt)
	if err != nil {
		return 0, err
	}

	names := strings.Fields(req.FullName)
	firstName := req.FullName
	lastName := ""
	if len(names) > 1 {
		firstName = names[0]
		lastName = strings.Join(names[1:], " ")
	}

	user := model.User{
		FirstName:    firstName,
		LastName:     lastName,
		Email:        req.Email,
		Password:     hashed,
		PasswordSalt: salt,
		Role:         model.RolePatient,
	}
	if err := tx.Create(&user).Error; err != nil {
		return 0, err
	}
	return user.ID, nil
}

// CreatePatient godoc
// @Summary      Register a new patient
// @Tags         Patient
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body createPatientRequest true "Patient information"
// @Success      201 {object} util.APIResponse{data=model.Patient} "Patient created"
// @Failure      400 {object} util.APIResponse "Invalid request or duplicate email"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /patients [post]
func CreatePatient(c *gin.Context) {
	var req createPatientRequest
	if !bindJSONOrRespond(c, &req, "Invalid request body") {
		return
	}

	req.FullName = util.NormalizeName(req.FullName)
	if req.FullName == "" || req.Phone == "" {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "fullName and phone are required",
			Err: fmt.Errorf("invalid payload"),
		})
		return
	}
	if !validGender(req.Gender) {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "gender must be male, female or other",
			Err: fmt.Errorf("invalid gender"),
		})
		return
	}

	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	var patient model.Patient
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := ensurePatientEmailAvailable(tx, req.Email); err != nil {
			return err
		}

		code, err := nextPatientCode(tx)
		if err != nil {
			return err
		}

		userID, err := maybeCreatePortalUser(tx, req)
		if err != nil {
			return err
		}

		patient = model.Patient{
			PatientCode:      code,
			FullName:         req.FullName,
			DateOfBirth:      req.DateOfBirth,
			Gender:           req.Gender,
			Phone:            req.Phone,
			Email:            req.Email,
			Address:          req.Address,
			EmergencyContact: req.EmergencyContact,
			MedicalNotes:     req.MedicalNotes,
			Status:           model.PatientActive,
			UserID:           userID,
		}
		return tx.Create(&patient).Error
	})
	if err != nil {
		util.CallUserError(c, util.APIErrorParams{Msg: "Failed to create patient", Err: err})
		return
	}

	util.CallSuccessCreated(c, util.APISuccessParams{Msg: "Patient created", Data: patient})
}

// GetPatientInfo godoc
// @Summary      Get patient information
// @Tags         Patient
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Patient ID"
// @Success      200 {object} util.APIResponse{data=model.Patient} "Patient retrieved"
// @Failure      404 {object} util.APIResponse "Patient not found"
// @Router       /patients/{id} [get]
func GetPatientInfo(c *gin.Context) {
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var patient model.Patient
	if err := db.First(&patient, id).Error; err != nil {
		util.CallErrorNotFound(c, util.APIErrorParams{Msg: "Patient not found", Err: err})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Patient retrieved", Data: patient})
}

type updatePatientRequest struct {
	FullName         string `json:"fullName"`
	DateOfBirth      string `json:"dateOfBirth"`
	Gender           string `json:"gender"`
	Phone            string `json:"phone"`
	Email            string `json:"email"`
	Address          string `json:"address"`
	EmergencyContact string `json:"emergencyContact"`
	MedicalNotes     string `json:"medicalNotes"`
	Status           string `json:"status"`
}

// UpdatePatient godoc
// @Summary      Update patient information
// @Tags         Patient
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Patient ID"
// @Param        request body updatePatientRequest true "Updated patient information"
// @Success      200 {object} util.APIResponse{data=model.Patient} "Patient updated"
// @Failure      400 {object} util.APIResponse "Invalid request"
// @Failure      404 {object} util.APIResponse "Patient not found"
// @Router       /patients/{id} [put]
func UpdatePatient(c *gin.Context) {
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req updatePatientRequest
	if !bindJSONOrRespond(c, &req, "Invalid request body") {
		return
	}

	var patient model.Patient
	if err := db.First(&patient, id).Error; err != nil {
		util.CallErrorNotFound(c, util.APIErrorParams{Msg: "Patient not found", Err: err})
		return
	}

	if req.FullName != "" {
		patient.FullName = util.NormalizeName(req.FullName)
	}
	if req.DateOfBirth != "" {
		patient.DateOfBirth = req.DateOfBirth
	}
	if req.Gender != "" {
		if !validGender(req.Gender) {
			util.CallUserError(c, util.APIErrorParams{
				Msg: "gender must be male, female or other",
				Err: fmt.Errorf("invalid gender"),
			})
			return
		}
		patient.Gender = req.Gender
	}
	if req.Phone != "" {
		patient.Phone = req.Phone
	}
	if req.Email != "" {
		patient.Email = req.Email
	}
	if req.Address != "" {
		patient.Address = req.Address
	}
	if req.EmergencyContact != "" {
		patient.EmergencyContact = req.EmergencyContact
	}
	if req.MedicalNotes != "" {
		patient.MedicalNotes = req.MedicalNotes
	}
	if req.Status != "" {
		if req.Status != model.PatientActive && req.Status != model.PatientInactive {
			util.CallUserError(c, util.APIErrorParams{
				Msg: "status must be active or inactive",
				Err: fmt.Errorf("invalid status"),
			})
			return
		}
		patient.Status = req.Status
	}

	if err := db.Save(&patient).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to update patient", Err: err})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Patient updated", Data: patient})
}

// DeactivatePatient godoc
// @Summary      Deactivate a patient
// @Description  Flips the patient status to inactive; patient records are never hard-deleted
// @Tags         Patient
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Patient ID"
// @Success      200 {object} util.APIResponse "Patient deactivated"
// @Failure      404 {object} util.APIResponse "Patient not found"
// @Router       /patients/{id} [delete]
func DeactivatePatient(c *gin.Context) {
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var patient model.Patient
	if err := db.First(&patient, id).Error; err != nil {
		util.CallErrorNotFound(c, util.APIErrorParams{Msg: "Patient not found", Err: err})
		return
	}

	patient.Status = model.PatientInactive
	if err := db.Save(&patient).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to deactivate patient", Err: err})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Patient deactivated", Data: patient})
}
