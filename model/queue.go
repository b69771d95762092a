package model

import (
	"time"

	"gorm.io/gorm"
)

const (
	QueueWaiting    = "waiting"
	QueueInProgress = "in-progress"
	QueueCompleted  = "completed"
	QueueCancelled  = "cancelled"
)

const (
	PriorityNormal = "normal"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// QueueEntry represents a walk-in patient waiting for a doctor. Numbers are
// issued per doctor per calendar day and are never reused; the unique index
// covers soft-deleted rows, so administratively removed entries keep holding
// their number.
type QueueEntry struct {
	gorm.Model
	PatientID   uint       `json:"patientId" gorm:"column:patient_id;not null;index"`
	DoctorID    uint       `json:"doctorId" gorm:"column:doctor_id;not null;index;uniqueIndex:idx_doctor_day_number,priority:1"`
	QueueDate   string     `json:"queueDate" gorm:"column:queue_date;size:10;not null;uniqueIndex:idx_doctor_day_number,priority:2" example:"2024-01-10"`
	QueueNumber int        `json:"queueNumber" gorm:"column:queue_number;not null;uniqueIndex:idx_doctor_day_number,priority:3"`
	Priority    string     `json:"priority" gorm:"column:priority;size:10;default:normal" example:"normal"`
	Status      string     `json:"status" gorm:"column:status;size:16;default:waiting" example:"waiting"`
	Reason      string     `json:"reason" gorm:"column:reason"`
	Notes       string     `json:"notes" gorm:"column:notes;type:text"`
	CalledAt    *time.Time `json:"calledAt" gorm:"column:called_at"`
	CompletedAt *time.Time `json:"completedAt" gorm:"column:completed_at"`
	Patient     Patient    `json:"patient" gorm:"foreignKey:PatientID"`
	Doctor      Doctor     `json:"doctor" gorm:"foreignKey:DoctorID"`
}

var queueTransitions = map[string][]string{
	QueueWaiting:    {QueueInProgress, QueueCancelled},
	QueueInProgress: {QueueCompleted, QueueCancelled},
}

// CanTransitionTo reports whether the queue entry may move to the given status.
func (q *QueueEntry) CanTransitionTo(status string) bool {
	for _, next := range queueTransitions[q.Status] {
		if next == status {
			return true
		}
	}
	return false
}

// IsActive reports whether the entry still occupies the queue.
func (q *QueueEntry) IsActive() bool {
	return q.Status == QueueWaiting || q.Status == QueueInProgress
}

// ValidQueueStatus reports whether s is a known queue status.
func ValidQueueStatus(s string) bool {
	switch s {
	case QueueWaiting, QueueInProgress, QueueCompleted, QueueCancelled:
		return true
	}
	return false
}

// ValidQueuePriority reports whether s is a known priority level.
func ValidQueuePriority(s string) bool {
	switch s {
	case PriorityNormal, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}
