package model

import (
	"time"

	"github.com/google/uuid"
)

type SupervisionStatus string

const (
	SupervisionStatusActive     SupervisionStatus = "active"
	SupervisionStatusTerminated SupervisionStatus = "terminated"
	SupervisionStatusPending    SupervisionStatus = "pending"
)

// SupervisionRelationship records that one staff member supervises another
// for a period of time. The record is owned by administrative staff; the
// two referenced members only carry back-references.
//
// A supervisee should have at most one active relationship at a time. That
// invariant is enforced at creation by the supervision service; readers must
// not assume it holds, since rows predating the check (or written by other
// tools) may violate it.
type SupervisionRelationship struct {
	Base
	SupervisorID uuid.UUID         `db:"supervisor_id" json:"supervisor_id"`
	SuperviseeID uuid.UUID         `db:"supervisee_id" json:"supervisee_id"`
	StartDate    time.Time         `db:"start_date" json:"start_date"`
	EndDate      *time.Time        `db:"end_date" json:"end_date,omitempty"`
	Status       SupervisionStatus `db:"status" json:"status"`
	Notes        string            `db:"notes" json:"notes,omitempty"`
}
