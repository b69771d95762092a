package endpoint

import (
	"encoding/json"
	"fmt"

	"github.com/clinicdesk/clinic-api/model"
	"github.com/clinicdesk/clinic-api/util"
	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ListDoctors godoc
// @Summary      List doctors
// @Description  Get a paginated list of doctors with optional search and filters
// @Tags         Doctor
// @Produce      json
// @Security     BearerAuth
// @Param        page query int false "Page number"
// @Param        limit query int false "Page size"
// @Param        search query string false "Search keyword over name and specialization"
// @Param        specialization query string false "Filter by specialization"
// @Param        status query string false "Filter by status (active|inactive)"
// @Success      200 {object} util.APIResponse{data=object} "Doctors retrieved"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /doctors [get]
func ListDoctors(c *gin.Context) {
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	page, limit := parsePageLimit(c, 10)
	query := db.Model(&model.Doctor{})

	if search := c.Query("search"); search != "" {
		kw := "%" + search + "%"
		query = query.Where("first_name LIKE ? OR last_name LIKE ? OR specialization LIKE ?", kw, kw, kw)
	}
	if spec := c.Query("specialization"); spec != "" {
		query = query.Where("specialization = ?", spec)
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to count doctors", Err: err})
		return
	}

	var doctors []model.Doctor
	err := query.Order("last_name ASC, first_name ASC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&doctors).Error
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to retrieve doctors", Err: err})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg: "Doctors retrieved",
		Data: map[string]interface{}{
			"doctors":    doctors,
			"pagination": newPagination(page, limit, total),
		},
	})
}

type doctorRequest struct {
	FirstName       string   `json:"firstName" example:"Sarah"`
	LastName        string   `json:"lastName" example:"Tan"`
	Email           string   `json:"email" example:"dr.sarah@example.com"`
	Specialization  string   `json:"specialization" example:"Cardiology"`
	LicenseNumber   string   `json:"licenseNumber" example:"MD-10023"`
	Phone           string   `json:"phone,omitempty"`
	Qualifications  []string `json:"qualifications,omitempty"`
	Experience      *int     `json:"experience,omitempty"`
	ConsultationFee *float64 `json:"consultationFee,omitempty"`
	Status          string   `json:"status,omitempty"`
}

func marshalQualifications(qs []string) (datatypes.JSON, error) {
	if qs == nil {
		return nil, nil
	}
	raw, err := json.Marshal(qs)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}

func ensureDoctorUnique(tx *gorm.DB, email, license string, excludeID uint) error {
	var existing model.Doctor
	query := tx.Where("email = ? OR license_number = ?", email, license)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}
	if err := query.First(&existing).Error; err == nil {
		if existing.Email == email {
			return fmt.Errorf("doctor with this email already exists")
		}
		return fmt.Errorf("doctor with this license number already exists")
	} else if err != gorm.ErrRecordNotFound {
		return err
	}
	return nil
}

// CreateDoctor godoc
// @Summary      Register a new doctor
// @Tags         Doctor
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body doctorRequest true "Doctor information"
// @Success      201 {object} util.APIResponse{data=model.Doctor} "Doctor created"
// @Failure      400 {object} util.APIResponse "Invalid request or duplicate email/license"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /doctors [post]
func CreateDoctor(c *gin.Context) {
	var req doctorRequest
	if !bindJSONOrRespond(c, &req, "Invalid request body") {
		return
	}

	req.FirstName = util.NormalizeName(req.FirstName)
	req.LastName = util.NormalizeName(req.LastName)
	if req.FirstName == "" || req.LastName == "" || req.Email == "" || req.Specialization == "" || req.LicenseNumber == "" {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "firstName, lastName, email, specialization and licenseNumber are required",
			Err: fmt.Errorf("invalid payload"),
		})
		return
	}

	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	quals, err := marshalQualifications(req.Qualifications)
	if err != nil {
		util.CallUserError(c, util.APIErrorParams{Msg: "Invalid qualifications", Err: err})
		return
	}

	doctor := model.Doctor{
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Email:          req.Email,
		Specialization: req.Specialization,
		LicenseNumber:  req.LicenseNumber,
		Phone:          req.Phone,
		Qualifications: quals,
		Status:         model.DoctorActive,
	}
	if req.Experience != nil {
		doctor.Experience = *req.Experience
	}
	if req.ConsultationFee != nil {
		doctor.ConsultationFee = *req.ConsultationFee
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := ensureDoctorUnique(tx, req.Email, req.LicenseNumber, 0); err != nil {
			return err
		}
		return tx.Create(&doctor).Error
	})
	if err != nil {
		util.CallUserError(c, util.APIErrorParams{Msg: "Failed to create doctor", Err: err})
		return
	}

	util.CallSuccessCreated(c, util.APISuccessParams{Msg: "Doctor created", Data: doctor})
}

// GetDoctorInfo godoc
// @Summary      Get doctor information
// @Tags         Doctor
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Doctor ID"
// @Success      200 {object} util.APIResponse{data=model.Doctor} "Doctor retrieved"
// @Failure      404 {object} util.APIResponse "Doctor not found"
// @Router       /doctors/{id} [get]
func GetDoctorInfo(c *gin.Context) {
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var doctor model.Doctor
	if err := db.First(&doctor, id).Error; err != nil {
		util.CallErrorNotFound(c, util.APIErrorParams{Msg: "Doctor not found", Err: err})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Doctor retrieved", Data: doctor})
}

// UpdateDoctor godoc
// @Summary      Update doctor information
// @Tags         Doctor
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Doctor ID"
// @Param        request body doctorRequest true "Updated doctor information"
// @Success      200 {object} util.APIResponse{data=model.Doctor} "Doctor updated"
// @Failure      400 {object} util.APIResponse "Invalid request or duplicate email/license"
// @Failure      404 {object} util.APIResponse "Doctor not found"
// @Router       /doctors/{id} [put]
func UpdateDoctor(c *gin.Context) {
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req doctorRequest
	if !bindJSONOrRespond(c, &req, "Invalid request body") {
		return
	}

	var doctor model.Doctor
	if err := db.First(&doctor, id).Error; err != nil {
		util.CallErrorNotFound(c, util.APIErrorParams{Msg: "Doctor not found", Err: err})
		return
	}

	if req.FirstName != "" {
		doctor.FirstName = util.NormalizeName(req.FirstName)
	}
	if req.LastName != "" {
		doctor.LastName = util.NormalizeName(req.LastName)
	}
	if req.Email != "" {
		doctor.Email = req.Email
	}
	if req.Specialization != "" {
		doctor.Specialization = req.Specialization
	}
	if req.LicenseNumber != "" {
		doctor.LicenseNumber = req.LicenseNumber
	}
	if req.Phone != "" {
		doctor.Phone = req.Phone
	}
	if req.Qualifications != nil {
		quals, err := marshalQualifications(req.Qualifications)
		if err != nil {
			util.CallUserError(c, util.APIErrorParams{Msg: "Invalid qualifications", Err: err})
			return
		}
		doctor.Qualifications = quals
	}
	if req.Experience != nil {
		doctor.Experience = *req.Experience
	}
	if req.ConsultationFee != nil {
		doctor.ConsultationFee = *req.ConsultationFee
	}
	if req.Status != "" {
		if req.Status != model.DoctorActive && req.Status != model.DoctorInactive {
			util.CallUserError(c, util.APIErrorParams{
				Msg: "status must be active or inactive",
				Err: fmt.Errorf("invalid status"),
			})
			return
		}
		doctor.Status = req.Status
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := ensureDoctorUnique(tx, doctor.Email, doctor.LicenseNumber, doctor.ID); err != nil {
			return err
		}
		return tx.Save(&doctor).Error
	})
	if err != nil {
		util.CallUserError(c, util.APIErrorParams{Msg: "Failed to update doctor", Err: err})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Doctor updated", Data: doctor})
}

// DeactivateDoctor godoc
// @Summary      Deactivate a doctor
// @Description  Flips the doctor status to inactive; doctor records are never hard-deleted
// @Tags         Doctor
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Doctor ID"
// @Success      200 {object} util.APIResponse "Doctor deactivated"
// @Failure      404 {object} util.APIResponse "Doctor not found"
// @Router       /doctors/{id} [delete]
func DeactivateDoctor(c *gin.Context) {
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var doctor model.Doctor
	if err := db.First(&doctor, id).Error; err != nil {
		util.CallErrorNotFound(c, util.APIErrorParams{Msg: "Doctor not found", Err: err})
		return
	}

	doctor.Status = model.DoctorInactive
	if err := db.Save(&doctor).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to deactivate doctor", Err: err})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Doctor deactivated", Data: doctor})
}
