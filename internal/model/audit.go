package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type AuditLog struct {
	ID         uuid.UUID       `json:"id" db:"id"`
	StaffID    uuid.UUID       `json:"staff_id" db:"staff_id"`
	PracticeID uuid.UUID       `json:"practice_id" db:"practice_id"`
	Action     string          `json:"action" db:"action"`
	EntityType string          `json:"entity_type" db:"entity_type"`
	EntityID   uuid.UUID       `json:"entity_id" db:"entity_id"`
	Changes    json.RawMessage `json:"changes" db:"changes"`
	Metadata   json.RawMessage `json:"metadata" db:"metadata"`
	IPAddress  string          `json:"ip_address" db:"ip_address"`
	UserAgent  string          `json:"user_agent" db:"user_agent"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
}

const (
	// Action types
	AuditActionCreate       = "create"
	AuditActionRead         = "read"
	AuditActionUpdate       = "update"
	AuditActionDelete       = "delete"
	AuditActionLogin        = "login"
	AuditActionAccessDenied = "access_denied"
	AuditActionReminderSent = "reminder_sent"
	AuditActionEscalation   = "supervisor_escalation"

	// Entity types
	AuditEntityStaff       = "staff"
	AuditEntityRole        = "role"
	AuditEntitySupervision = "supervision_relationship"
	AuditEntityDeadline    = "compliance_deadline"
	AuditEntityAccess      = "access_decision"
)
