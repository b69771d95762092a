package endpoint

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/clinicdesk/clinic-api/config"
	"github.com/clinicdesk/clinic-api/middleware"
	"github.com/clinicdesk/clinic-api/model"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// setupTestDB connects to a fresh in-memory database and migrates every model
// the handlers touch.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := config.ConnectDatabase()
	if err != nil {
		t.Fatalf("connect test db: %v", err)
	}
	err = db.AutoMigrate(
		&model.User{},
		&model.Patient{},
		&model.Doctor{},
		&model.Appointment{},
		&model.QueueEntry{},
		&model.AuditLog{},
	)
	if err != nil {
		t.Fatalf("auto migrate: %v", err)
	}
	return db
}

// identityMiddleware injects an authenticated caller the way AuthRequired
// would, so handlers can be exercised without minting real tokens.
func identityMiddleware(userID uint, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", userID)
		c.Set("user_role", role)
		c.Next()
	}
}

// newTestRouter wires all handlers onto a bare router with the DB injected
// and the given caller identity.
func newTestRouter(db *gorm.DB, userID uint, role string) *gin.Engine {
	r := gin.New()
	r.Use(middleware.DatabaseMiddleware(db))
	r.Use(identityMiddleware(userID, role))

	r.GET("/patients", ListPatients)
	r.POST("/patients", CreatePatient)
	r.GET("/patients/:id", GetPatientInfo)
	r.PUT("/patients/:id", UpdatePatient)
	r.DELETE("/patients/:id", DeactivatePatient)

	r.GET("/doctors", ListDoctors)
	r.POST("/doctors", CreateDoctor)
	r.GET("/doctors/:id", GetDoctorInfo)
	r.PUT("/doctors/:id", UpdateDoctor)
	r.DELETE("/doctors/:id", DeactivateDoctor)

	r.GET("/appointments", ListAppointments)
	r.POST("/appointments", CreateAppointment)
	r.GET("/appointments/:id", GetAppointment)
	r.PUT("/appointments/:id", UpdateAppointment)
	r.DELETE("/appointments/:id", CancelAppointment)

	// Queue mutations carry the same staff gate the server mounts.
	staffOnly := middleware.RequireRoles(model.RoleAdmin, model.RoleReceptionist, model.RoleDoctor)
	r.GET("/queue", ListQueue)
	r.POST("/queue", staffOnly, AddToQueue)
	r.GET("/queue/:id", GetQueueEntry)
	r.PUT("/queue/:id", staffOnly, UpdateQueueEntry)
	r.DELETE("/queue/:id", staffOnly, DeleteQueueEntry)

	r.GET("/dashboard/stats", GetDashboardStats)

	return r
}

// doJSON performs a request with an optional JSON body and returns the recorder.
func doJSON(t *testing.T, r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf *bytes.Buffer
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		buf = bytes.NewBuffer(b)
	} else {
		buf = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequest(method, path, buf)
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

// newRecorder serves a prepared request and returns the recorder, for tests
// that need custom headers.
func newRecorder(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

// parseData decodes the data field of a standard API response into a map.
func parseData(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var resp struct {
		Success bool            `json:"success"`
		Msg     string          `json:"msg"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v; body: %s", err, rr.Body.String())
	}
	data := map[string]interface{}{}
	if len(resp.Data) > 0 {
		if err := json.Unmarshal(resp.Data, &data); err != nil {
			t.Fatalf("parse data: %v; data: %s", err, string(resp.Data))
		}
	}
	return data
}

func seedPatient(t *testing.T, db *gorm.DB, name string) model.Patient {
	t.Helper()
	patient := model.Patient{
		PatientCode: fmt.Sprintf("T%d", time.Now().UnixNano()),
		FullName:    name,
		Phone:       "081234567890",
		Status:      model.PatientActive,
	}
	if err := db.Create(&patient).Error; err != nil {
		t.Fatalf("seed patient: %v", err)
	}
	return patient
}

func seedDoctor(t *testing.T, db *gorm.DB, lastName string) model.Doctor {
	t.Helper()
	doctor := model.Doctor{
		FirstName:      "Test",
		LastName:       lastName,
		Email:          fmt.Sprintf("dr.%s.%d@example.com", lastName, time.Now().UnixNano()),
		Specialization: "General",
		LicenseNumber:  fmt.Sprintf("MD-%d", time.Now().UnixNano()),
		Status:         model.DoctorActive,
	}
	if err := db.Create(&doctor).Error; err != nil {
		t.Fatalf("seed doctor: %v", err)
	}
	return doctor
}

func seedAppointment(t *testing.T, db *gorm.DB, patientID, doctorID uint, date, clock, status string) model.Appointment {
	t.Helper()
	appointment := model.Appointment{
		PatientID:       patientID,
		DoctorID:        doctorID,
		AppointmentDate: date,
		AppointmentTime: clock,
		Type:            model.AppointmentConsultation,
		Status:          status,
	}
	if err := db.Create(&appointment).Error; err != nil {
		t.Fatalf("seed appointment: %v", err)
	}
	return appointment
}
