package authz

import (
	"errors"
	"fmt"
	"sort"
)

// Role is one of the fixed practice staff roles. Roles are not ordered or
// hierarchical; a staff member holds a set of zero or more of them.
type Role string

const (
	RolePracticeAdministrator Role = "PRACTICE_ADMINISTRATOR"
	RoleClinicalAdministrator Role = "CLINICAL_ADMINISTRATOR"
	RoleClinician             Role = "CLINICIAN"
	RoleSupervisor            Role = "SUPERVISOR"
	RoleIntern                Role = "INTERN"
	RoleAssistant             Role = "ASSISTANT"
	RoleAssociate             Role = "ASSOCIATE"
	RolePracticeScheduler     Role = "PRACTICE_SCHEDULER"
	RolePracticeBiller        Role = "PRACTICE_BILLER"
	RoleBillerAssignedOnly    Role = "BILLER_ASSIGNED_PATIENTS_ONLY"
)

// ErrUnknownRole indicates a role string outside the fixed enumeration.
// This is a programmer or data-migration error and is never silently
// coerced into a deny.
var ErrUnknownRole = errors.New("unknown role")

var allRoles = []Role{
	RolePracticeAdministrator,
	RoleClinicalAdministrator,
	RoleClinician,
	RoleSupervisor,
	RoleIntern,
	RoleAssistant,
	RoleAssociate,
	RolePracticeScheduler,
	RolePracticeBiller,
	RoleBillerAssignedOnly,
}

var roleDescriptions = map[Role]string{
	RolePracticeAdministrator: "Full administrative access: staff accounts, supervision links, practice settings",
	RoleClinicalAdministrator: "Clinical oversight across the practice; requires an active Clinician role",
	RoleClinician:             "Licensed provider: signs own notes, bills under own credentials",
	RoleSupervisor:            "Co-signs and reviews documentation for assigned supervisees",
	RoleIntern:                "Provides services under supervision; cannot sign or bill independently",
	RoleAssistant:             "Administrative support; no clinical documentation access",
	RoleAssociate:             "Pre-licensed provider working toward licensure under supervision",
	RolePracticeScheduler:     "Manages appointments for any provider",
	RolePracticeBiller:        "Submits claims and posts payments for the whole practice",
	RoleBillerAssignedOnly:    "Billing access restricted to assigned patients",
}

// ParseRole validates a stored role string against the enumeration.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if _, ok := roleDescriptions[r]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
	}
	return r, nil
}

// Roles returns the full enumeration, for admin UIs and seeding.
func Roles() []Role {
	out := make([]Role, len(allRoles))
	copy(out, allRoles)
	return out
}

// Description returns the human-readable summary for a role. This is the
// same table the resolver grants from, so rendered text cannot drift from
// enforced behavior.
func Description(r Role) (string, error) {
	d, ok := roleDescriptions[r]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, r)
	}
	return d, nil
}

// RoleSet is an unordered set of roles held by one staff member.
type RoleSet map[Role]struct{}

// NewRoleSet builds a set from validated roles.
func NewRoleSet(roles ...Role) RoleSet {
	s := make(RoleSet, len(roles))
	for _, r := range roles {
		s[r] = struct{}{}
	}
	return s
}

// ParseRoleSet validates and collects stored role strings. Duplicates
// collapse; any unknown string fails the whole set.
func ParseRoleSet(names []string) (RoleSet, error) {
	s := make(RoleSet, len(names))
	for _, n := range names {
		r, err := ParseRole(n)
		if err != nil {
			return nil, err
		}
		s[r] = struct{}{}
	}
	return s, nil
}

func (s RoleSet) Has(r Role) bool {
	_, ok := s[r]
	return ok
}

// HasAny reports whether the set intersects the given roles.
func (s RoleSet) HasAny(roles []Role) bool {
	for _, r := range roles {
		if _, ok := s[r]; ok {
			return true
		}
	}
	return false
}

// Names returns the sorted role strings, for API responses.
func (s RoleSet) Names() []string {
	out := make([]string, 0, len(s))
	for r := range s {
		out = append(out, string(r))
	}
	sort.Strings(out)
	return out
}

func (s RoleSet) validate() error {
	for r := range s {
		if _, ok := roleDescriptions[r]; !ok {
			return fmt.Errorf("%w: %q", ErrUnknownRole, r)
		}
	}
	return nil
}
