package endpoint

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/clinicdesk/clinic-api/model"
)

func doctorBody(lastName, email, license string) map[string]interface{} {
	return map[string]interface{}{
		"firstName":      "Greta",
		"lastName":       lastName,
		"email":          email,
		"specialization": "Dermatology",
		"licenseNumber":  license,
	}
}

func TestCreateDoctor(t *testing.T) {
	db := setupTestDB(t)
	r := newTestRouter(db, 1, model.RoleAdmin)

	body := doctorBody("Weber", "weber@example.com", "MD-100")
	body["qualifications"] = []string{"MBBS", "MD"}
	body["consultationFee"] = 120.5

	rr := doJSON(t, r, "POST", "/doctors", body)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create failed: %d %s", rr.Code, rr.Body.String())
	}

	var doctor model.Doctor
	if err := db.Where("email = ?", "weber@example.com").First(&doctor).Error; err != nil {
		t.Fatalf("reload doctor: %v", err)
	}
	if doctor.Status != model.DoctorActive {
		t.Errorf("expected active status, got %s", doctor.Status)
	}
	if doctor.ConsultationFee != 120.5 {
		t.Errorf("expected fee 120.5, got %v", doctor.ConsultationFee)
	}
	if len(doctor.Qualifications) == 0 {
		t.Errorf("expected qualifications to be stored")
	}
}

func TestCreateDoctorUniqueGuards(t *testing.T) {
	db := setupTestDB(t)
	r := newTestRouter(db, 1, model.RoleAdmin)

	if rr := doJSON(t, r, "POST", "/doctors", doctorBody("First", "unique@example.com", "MD-200")); rr.Code != http.StatusCreated {
		t.Fatalf("create failed: %d", rr.Code)
	}

	rr := doJSON(t, r, "POST", "/doctors", doctorBody("Second", "unique@example.com", "MD-201"))
	if rr.Code != http.StatusBadRequest {
		t.Errorf("duplicate email should be rejected, got %d", rr.Code)
	}

	rr = doJSON(t, r, "POST", "/doctors", doctorBody("Third", "third@example.com", "MD-200"))
	if rr.Code != http.StatusBadRequest {
		t.Errorf("duplicate license should be rejected, got %d", rr.Code)
	}
}

func TestCreateDoctorValidation(t *testing.T) {
	db := setupTestDB(t)
	r := newTestRouter(db, 1, model.RoleAdmin)

	body := doctorBody("NoLicense", "nolicense@example.com", "")
	rr := doJSON(t, r, "POST", "/doctors", body)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("missing license should be rejected, got %d", rr.Code)
	}
}

func TestUpdateDoctor(t *testing.T) {
	db := setupTestDB(t)
	r := newTestRouter(db, 1, model.RoleAdmin)

	doctor := seedDoctor(t, db, "Updatable")
	path := fmt.Sprintf("/doctors/%d", doctor.ID)

	rr := doJSON(t, r, "PUT", path, map[string]interface{}{"specialization": "Neurology", "experience": 9})
	if rr.Code != http.StatusOK {
		t.Fatalf("update failed: %d %s", rr.Code, rr.Body.String())
	}

	if err := db.First(&doctor, doctor.ID).Error; err != nil {
		t.Fatalf("reload doctor: %v", err)
	}
	if doctor.Specialization != "Neurology" || doctor.Experience != 9 {
		t.Errorf("update not applied: %s / %d", doctor.Specialization, doctor.Experience)
	}

	rr = doJSON(t, r, "PUT", path, map[string]interface{}{"status": "sabbatical"})
	if rr.Code != http.StatusBadRequest {
		t.Errorf("unknown status should be rejected, got %d", rr.Code)
	}
}

func TestUpdateDoctorCannotTakeExistingEmail(t *testing.T) {
	db := setupTestDB(t)
	r := newTestRouter(db, 1, model.RoleAdmin)

	taken := seedDoctor(t, db, "Taken")
	victim := seedDoctor(t, db, "Victim")

	rr := doJSON(t, r, "PUT", fmt.Sprintf("/doctors/%d", victim.ID), map[string]interface{}{"email": taken.Email})
	if rr.Code != http.StatusBadRequest {
		t.Errorf("stealing another doctor's email should be rejected, got %d", rr.Code)
	}
}

func TestDeactivateDoctorKeepsRecord(t *testing.T) {
	db := setupTestDB(t)
	r := newTestRouter(db, 1, model.RoleAdmin)

	doctor := seedDoctor(t, db, "Leaving")

	rr := doJSON(t, r, "DELETE", fmt.Sprintf("/doctors/%d", doctor.ID), nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("deactivate failed: %d %s", rr.Code, rr.Body.String())
	}

	if err := db.First(&doctor, doctor.ID).Error; err != nil {
		t.Fatalf("record should survive deactivation: %v", err)
	}
	if doctor.Status != model.DoctorInactive {
		t.Errorf("expected inactive, got %s", doctor.Status)
	}
}

func TestListDoctorsFilters(t *testing.T) {
	db := setupTestDB(t)
	r := newTestRouter(db, 1, model.RoleAdmin)

	cardio := seedDoctor(t, db, "Hart")
	cardio.Specialization = "Cardiology"
	if err := db.Save(&cardio).Error; err != nil {
		t.Fatalf("save doctor: %v", err)
	}
	seedDoctor(t, db, "Skin")

	rr := doJSON(t, r, "GET", "/doctors?specialization=Cardiology", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("list failed: %d", rr.Code)
	}
	data := parseData(t, rr)
	pagination := data["pagination"].(map[string]interface{})
	if got := int(pagination["total"].(float64)); got != 1 {
		t.Errorf("expected 1 cardiologist, got %d", got)
	}

	rr = doJSON(t, r, "GET", "/doctors?search=Hart", nil)
	data = parseData(t, rr)
	pagination = data["pagination"].(map[string]interface{})
	if got := int(pagination["total"].(float64)); got != 1 {
		t.Errorf("expected 1 match for Hart, got %d", got)
	}
}
