package model

import (
	"time"

	"github.com/google/uuid"
)

type StaffStatus string

const (
	StaffStatusActive      StaffStatus = "active"
	StaffStatusInactive    StaffStatus = "inactive"
	StaffStatusLocked      StaffStatus = "locked"
	StaffStatusDeactivated StaffStatus = "deactivated"
)

// StaffMember is a practice employee: clinicians, supervisors, interns,
// schedulers, billers and administrative staff alike. Which of those a
// member actually is lives in role assignments, not here.
type StaffMember struct {
	Base
	PracticeID       uuid.UUID   `db:"practice_id" json:"practice_id"`
	FirstName        string      `db:"first_name" json:"first_name"`
	LastName         string      `db:"last_name" json:"last_name"`
	Email            string      `db:"email" json:"email"`
	PasswordHash     string      `db:"password_hash" json:"-"`
	LicenseNumber    string      `db:"license_number" json:"license_number,omitempty"`
	Status           StaffStatus `db:"status" json:"status"`
	LoginAttempts    int         `db:"login_attempts" json:"-"`
	LastLoginAttempt time.Time   `db:"last_login_attempt" json:"-"`
	LastLoginAt      *time.Time  `db:"last_login_at" json:"last_login_at,omitempty"`
}

// RoleAssignment links a staff member to one of the fixed practice roles.
// Role names are validated against the authz package's enumeration before
// they are written; the resolver re-validates on read and fails fast on
// anything it does not recognize.
type RoleAssignment struct {
	ID         uuid.UUID `db:"id" json:"id"`
	StaffID    uuid.UUID `db:"staff_id" json:"staff_id"`
	Role       string    `db:"role" json:"role"`
	AssignedBy uuid.UUID `db:"assigned_by" json:"assigned_by"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
