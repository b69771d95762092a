package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/clinicdesk/clinic-api/config"
	"github.com/gin-gonic/gin"
)

// Without Redis the limiter must fail open.
func TestRateLimiterWithoutRedis(t *testing.T) {
	config.SetRedisClientForTesting(nil)

	r := gin.New()
	r.Use(RateLimiter(RateLimitConfig{Limit: 1, Window: time.Minute}))
	r.GET("/limited", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	for i := 0; i < 3; i++ {
		req, _ := http.NewRequest("GET", "/limited", nil)
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Errorf("request %d: expected fail-open 200, got %d", i+1, rr.Code)
		}
	}
}

func TestCheckRateLimitWithoutRedis(t *testing.T) {
	config.SetRedisClientForTesting(nil)

	allowed, err := checkRateLimit("ratelimit:/login:127.0.0.1", 5, time.Minute)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !allowed {
		t.Errorf("expected request to be allowed without redis")
	}
}

func TestResetRateLimitWithoutRedis(t *testing.T) {
	config.SetRedisClientForTesting(nil)

	if err := ResetRateLimit("127.0.0.1", "/login"); err == nil {
		t.Errorf("expected an error when redis is unavailable")
	}
}
