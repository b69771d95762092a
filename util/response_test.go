package util

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func runResponse(call func(c *gin.Context)) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	rr := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rr)
	call(c)
	return rr
}

func TestResponseStatusCodes(t *testing.T) {
	errParams := APIErrorParams{Msg: "boom", Err: errors.New("cause")}
	okParams := APISuccessParams{Msg: "fine", Data: gin.H{"k": "v"}}

	tests := []struct {
		name string
		call func(c *gin.Context)
		want int
	}{
		{"not found", func(c *gin.Context) { CallErrorNotFound(c, errParams) }, http.StatusNotFound},
		{"user error", func(c *gin.Context) { CallUserError(c, errParams) }, http.StatusBadRequest},
		{"server error", func(c *gin.Context) { CallServerError(c, errParams) }, http.StatusInternalServerError},
		{"unauthorized", func(c *gin.Context) { CallUserNotAuthorized(c, errParams) }, http.StatusUnauthorized},
		{"forbidden", func(c *gin.Context) { CallUserForbidden(c, errParams) }, http.StatusForbidden},
		{"ok", func(c *gin.Context) { CallSuccessOK(c, okParams) }, http.StatusOK},
		{"created", func(c *gin.Context) { CallSuccessCreated(c, okParams) }, http.StatusCreated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := runResponse(tt.call)
			if rr.Code != tt.want {
				t.Errorf("expected %d, got %d", tt.want, rr.Code)
			}

			var resp APIResponse
			if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			wantSuccess := tt.want < 400
			if resp.Success != wantSuccess {
				t.Errorf("expected success=%v, got %v", wantSuccess, resp.Success)
			}
		})
	}
}

func TestContains(t *testing.T) {
	list := []string{"admin", "receptionist"}
	if !Contains("admin", list) {
		t.Errorf("expected admin to be found")
	}
	if Contains("doctor", list) {
		t.Errorf("doctor should not be found")
	}
	if Contains("admin", nil) {
		t.Errorf("nothing is contained in a nil list")
	}
}

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  John   Doe ", "John Doe"},
		{"Single", "Single"},
		{"   ", ""},
		{"a\tb", "a b"},
	}
	for _, tt := range tests {
		if got := NormalizeName(tt.in); got != tt.want {
			t.Errorf("NormalizeName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
