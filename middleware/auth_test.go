package middleware

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/clinicdesk/clinic-api/model"
	"github.com/clinicdesk/clinic-api/util"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
)

func TestMain(m *testing.M) {
	os.Setenv("APPENV", "test")
	os.Setenv("JWTSECRET", "middleware-test-secret")
	util.SetJWTSecret("middleware-test-secret")
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func signTestToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(util.GetJWTSecretByte())
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func protectedRouter(extra ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	handlers := append([]gin.HandlerFunc{AuthRequired()}, extra...)
	handlers = append(handlers, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"userId": GetUserID(c),
			"role":   GetUserRole(c),
			"email":  GetUserEmail(c),
		})
	})
	r.GET("/protected", handlers...)
	return r
}

func serve(r *gin.Engine, header string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest("GET", "/protected", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func TestAuthRequired(t *testing.T) {
	r := protectedRouter()

	if rr := serve(r, ""); rr.Code != http.StatusUnauthorized {
		t.Errorf("missing header: expected 401, got %d", rr.Code)
	}
	if rr := serve(r, "Token abc"); rr.Code != http.StatusUnauthorized {
		t.Errorf("non-bearer header: expected 401, got %d", rr.Code)
	}
	if rr := serve(r, "Bearer not-a-jwt"); rr.Code != http.StatusUnauthorized {
		t.Errorf("garbage token: expected 401, got %d", rr.Code)
	}

	expired := signTestToken(t, jwt.MapClaims{
		"user_id": 3,
		"role":    model.RoleAdmin,
		"exp":     time.Now().Add(-time.Hour).Unix(),
	})
	if rr := serve(r, "Bearer "+expired); rr.Code != http.StatusUnauthorized {
		t.Errorf("expired token: expected 401, got %d", rr.Code)
	}

	valid := signTestToken(t, jwt.MapClaims{
		"user_id": 3,
		"role":    model.RoleAdmin,
		"email":   "auth@example.com",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	rr := serve(r, "Bearer "+valid)
	if rr.Code != http.StatusOK {
		t.Fatalf("valid token: expected 200, got %d %s", rr.Code, rr.Body.String())
	}
}

func TestRequireRoles(t *testing.T) {
	r := protectedRouter(RequireRoles(model.RoleAdmin, model.RoleReceptionist))

	adminToken := signTestToken(t, jwt.MapClaims{
		"user_id": 1,
		"role":    model.RoleAdmin,
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	if rr := serve(r, "Bearer "+adminToken); rr.Code != http.StatusOK {
		t.Errorf("admin should pass, got %d", rr.Code)
	}

	patientToken := signTestToken(t, jwt.MapClaims{
		"user_id": 2,
		"role":    model.RolePatient,
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	if rr := serve(r, "Bearer "+patientToken); rr.Code != http.StatusForbidden {
		t.Errorf("patient should be forbidden, got %d", rr.Code)
	}
}

func TestCanActOnPatient(t *testing.T) {
	tests := []struct {
		name    string
		role    string
		caller  uint
		owner   uint
		allowed bool
	}{
		{"admin on anyone", model.RoleAdmin, 1, 99, true},
		{"receptionist on anyone", model.RoleReceptionist, 1, 99, true},
		{"doctor on anyone", model.RoleDoctor, 1, 99, true},
		{"patient on own record", model.RolePatient, 7, 7, true},
		{"patient on foreign record", model.RolePatient, 7, 8, false},
		{"patient on unlinked record", model.RolePatient, 7, 0, false},
		{"anonymous caller", model.RolePatient, 0, 0, false},
		{"unknown role", "auditor", 1, 1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanActOnPatient(tt.role, tt.caller, tt.owner); got != tt.allowed {
				t.Errorf("CanActOnPatient(%q, %d, %d) = %v, want %v", tt.role, tt.caller, tt.owner, got, tt.allowed)
			}
		})
	}
}

func TestExtractBearerToken(t *testing.T) {
	if got := extractBearerToken("Bearer abc123"); got != "abc123" {
		t.Errorf("expected abc123, got %q", got)
	}
	if got := extractBearerToken("bearer abc123"); got != "" {
		t.Errorf("lowercase scheme should not match, got %q", got)
	}
	if got := extractBearerToken(""); got != "" {
		t.Errorf("empty header should give empty token, got %q", got)
	}
}
