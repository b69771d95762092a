package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

// The call logger is best-effort and must never interfere with the request.
func TestEndpointCallLoggerPassesThrough(t *testing.T) {
	r := gin.New()
	r.Use(EndpointCallLogger())
	r.GET("/logged", func(c *gin.Context) { c.String(http.StatusTeapot, "teapot") })

	req, _ := http.NewRequest("GET", "/logged?x=1", nil)
	req.Header.Set("User-Agent", "logger-test")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusTeapot {
		t.Errorf("expected handler status to pass through, got %d", rr.Code)
	}
	if rr.Body.String() != "teapot" {
		t.Errorf("expected handler body to pass through, got %q", rr.Body.String())
	}
}
