package util

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/clinicdesk/clinic-api/model"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AuditEventType represents different types of audit events
type AuditEventType string

const (
	EventLoginSuccess       AuditEventType = "LOGIN_SUCCESS"
	EventLoginFailure       AuditEventType = "LOGIN_FAILURE"
	EventSignupSuccess      AuditEventType = "SIGNUP_SUCCESS"
	EventLogout             AuditEventType = "LOGOUT"
	EventAccountLocked      AuditEventType = "ACCOUNT_LOCKED"
	EventUnauthorizedAccess AuditEventType = "UNAUTHORIZED_ACCESS"
	EventRateLimitExceeded  AuditEventType = "RATE_LIMIT_EXCEEDED"
	EventBookingConflict    AuditEventType = "BOOKING_CONFLICT"
	EventQueueRemoved       AuditEventType = "QUEUE_REMOVED"
	EventSuspiciousActivity AuditEventType = "SUSPICIOUS_ACTIVITY"
	EventEndpointCall       AuditEventType = "ENDPOINT_CALL"
)

// AuditEvent represents an audit event to be logged
type AuditEvent struct {
	EventType AuditEventType
	UserID    string
	Email     string
	IP        string
	UserAgent string
	Message   string
	Details   map[string]interface{}
}

var auditLogger *log.Logger
var auditDB *gorm.DB

// SetAuditLoggerDB sets a gorm DB instance used by the audit logger.
// Call this during application startup (e.g. in main) after DB initialization.
func SetAuditLoggerDB(db *gorm.DB) {
	auditDB = db
}

func init() {
	auditLogger = log.New(os.Stdout, "[AUDIT] ", log.LstdFlags|log.Lmsgprefix)
}

// sanitizeLogValue removes newlines and other characters that could break log parsing
func sanitizeLogValue(value string) string {
	value = strings.ReplaceAll(value, "\n", " ")
	value = strings.ReplaceAll(value, "\r", " ")
	value = strings.ReplaceAll(value, "\t", " ")
	// Truncate very long values to prevent log flooding
	if len(value) > 200 {
		value = value[:200] + "..."
	}
	return value
}

// LogAuditEvent logs an audit event to stdout and, when a DB has been set,
// persists it best-effort without failing the surrounding operation.
func LogAuditEvent(event AuditEvent) {
	msg := fmt.Sprintf("Event=%s UserID=%s Email=%s IP=%s UserAgent=%s Message=%s",
		sanitizeLogValue(string(event.EventType)),
		sanitizeLogValue(event.UserID),
		sanitizeLogValue(event.Email),
		sanitizeLogValue(event.IP),
		sanitizeLogValue(event.UserAgent),
		sanitizeLogValue(event.Message),
	)

	if len(event.Details) > 0 {
		// Don't log the Details map directly to avoid injection
		msg = fmt.Sprintf("%s DetailsCount=%d", msg, len(event.Details))
	}

	auditLogger.Println(msg)

	if auditDB == nil {
		return
	}

	var details datatypes.JSON
	if event.Details != nil {
		if b, err := json.Marshal(event.Details); err == nil {
			details = datatypes.JSON(b)
		}
	}

	// Resolve city/country for the IP (best-effort, local DB then cache)
	city, country := GetIPLocation(event.IP)
	var location string
	switch {
	case city != "" && country != "":
		location = fmt.Sprintf("%s/%s", city, country)
	case country != "":
		location = country
	case city != "":
		location = city
	}

	entry := model.AuditLog{
		EventType: string(event.EventType),
		UserID:    event.UserID,
		Email:     sanitizeLogValue(event.Email),
		IP:        sanitizeLogValue(event.IP),
		Location:  sanitizeLogValue(location),
		UserAgent: sanitizeLogValue(event.UserAgent),
		Message:   sanitizeLogValue(event.Message),
		Details:   details,
	}

	if err := auditDB.Create(&entry).Error; err != nil {
		auditLogger.Printf("Failed to persist audit event: %v", err)
	}
}

// LogLoginSuccess logs a successful login event
func LogLoginSuccess(userID uint, email, ip, userAgent string) {
	LogAuditEvent(AuditEvent{
		EventType: EventLoginSuccess,
		UserID:    fmt.Sprintf("%d", userID),
		Email:     email,
		IP:        ip,
		UserAgent: userAgent,
		Message:   "User logged in successfully",
	})
}

// LogLoginFailure logs a failed login attempt
func LogLoginFailure(email, ip, userAgent, reason string) {
	LogAuditEvent(AuditEvent{
		EventType: EventLoginFailure,
		Email:     email,
		IP:        ip,
		UserAgent: userAgent,
		Message:   fmt.Sprintf("Login failed: %s", reason),
	})
}

// LogRateLimitExceeded logs a rate limit hit for an endpoint
func LogRateLimitExceeded(email, ip, endpoint string) {
	LogAuditEvent(AuditEvent{
		EventType: EventRateLimitExceeded,
		Email:     email,
		IP:        ip,
		Message:   fmt.Sprintf("Rate limit exceeded on %s", endpoint),
	})
}

// LogBookingConflict records a rejected double-booking attempt.
func LogBookingConflict(userID uint, ip string, doctorID uint, date, clock string) {
	LogAuditEvent(AuditEvent{
		EventType: EventBookingConflict,
		UserID:    fmt.Sprintf("%d", userID),
		IP:        ip,
		Message:   "Appointment slot conflict rejected",
		Details: map[string]interface{}{
			"doctor_id": doctorID,
			"date":      date,
			"time":      clock,
		},
	})
}

// LogQueueRemoved records an administrative hard removal of a queue entry.
func LogQueueRemoved(userID uint, ip string, entryID uint, queueNumber int) {
	LogAuditEvent(AuditEvent{
		EventType: EventQueueRemoved,
		UserID:    fmt.Sprintf("%d", userID),
		IP:        ip,
		Message:   "Queue entry removed by staff",
		Details: map[string]interface{}{
			"entry_id":     entryID,
			"queue_number": queueNumber,
		},
	})
}
