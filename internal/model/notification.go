package model

import (
	"time"

	"github.com/google/uuid"
)

type NotificationStatus string

const (
	NotificationStatusPending NotificationStatus = "pending"
	NotificationStatusSent    NotificationStatus = "sent"
	NotificationStatusFailed  NotificationStatus = "failed"
)

const (
	NotificationTypeDeadlineReminder     = "deadline_reminder"
	NotificationTypeSupervisorEscalation = "supervisor_escalation"
)

// Notification is a record of a reminder or escalation message sent (or
// attempted) for a compliance deadline.
type Notification struct {
	ID         uuid.UUID          `db:"id" json:"id"`
	StaffID    uuid.UUID          `db:"staff_id" json:"staff_id"`
	PracticeID uuid.UUID          `db:"practice_id" json:"practice_id"`
	DeadlineID *uuid.UUID         `db:"deadline_id" json:"deadline_id,omitempty"`
	Type       string             `db:"type" json:"type"`
	Subject    string             `db:"subject" json:"subject"`
	Content    string             `db:"content" json:"content"`
	Recipient  string             `db:"recipient" json:"recipient"`
	Status     NotificationStatus `db:"status" json:"status"`
	LastError  *string            `db:"last_error" json:"last_error,omitempty"`
	SentAt     *time.Time         `db:"sent_at" json:"sent_at,omitempty"`
	CreatedAt  time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time          `db:"updated_at" json:"updated_at"`
}
