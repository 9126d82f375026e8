package authz

import (
	"errors"
	"fmt"
)

// Capability is an abstract permission token. Every route guard and every
// in-process check names one of these; the mapping from roles to
// capabilities lives in the single table below and nowhere else.
type Capability string

const (
	CapAccessAnyPatientRecord      Capability = "patient_record:access_any"
	CapAccessAssignedPatientRecord Capability = "patient_record:access_assigned"
	CapManageUserAccounts          Capability = "staff:manage_accounts"
	CapManageSupervision           Capability = "supervision:manage"
	CapScheduleAnyProvider         Capability = "schedule:any_provider"
	CapViewOwnSchedule             Capability = "schedule:view_own"
	CapSignNote                    Capability = "note:sign"
	CapCoSignNote                  Capability = "note:co_sign"
	CapCompleteNote                Capability = "note:complete"
	CapViewSuperviseeNotes         Capability = "note:view_supervisee"
	CapBillInsuranceIndependently  Capability = "billing:independent"
	CapBillAssignedPatientsOnly    Capability = "billing:assigned_only"
	CapViewComplianceDashboard     Capability = "compliance:view_dashboard"
	CapManageComplianceDeadlines   Capability = "compliance:manage_deadlines"
	CapViewAuditLog                Capability = "audit:view"
)

// ErrUnknownCapability indicates a capability token that was never
// registered. Checks against it fail loudly rather than defaulting to
// deny, so a typo in a route guard surfaces in development instead of
// silently locking a feature.
var ErrUnknownCapability = errors.New("unknown capability")

// grant describes who holds a capability and in what scope.
//
// coRequisites are roles that must ALL additionally be present for the
// grant to stand, regardless of which granting role matched. The practice
// uses this for Clinical Administrator, which is only meaningful on top of
// an active Clinician role.
type grant struct {
	granting     []Role
	coRequisites []Role

	// practiceWide marks capabilities whose role grant applies to any
	// target in the practice. Capabilities without it (the assigned-only
	// variants) never grant through the role path alone.
	practiceWide bool

	// selfService marks capabilities any member may exercise on
	// themselves, independent of roles.
	selfService bool

	// supervisionGated marks capabilities reachable through an active
	// supervision relationship with the target.
	supervisionGated bool
}

var capabilityTable = map[Capability]grant{
	CapAccessAnyPatientRecord: {
		granting:     []Role{RolePracticeAdministrator, RoleClinicalAdministrator},
		coRequisites: []Role{RoleClinician},
		practiceWide: true,
	},
	CapAccessAssignedPatientRecord: {
		granting: []Role{RoleClinician, RoleSupervisor, RoleIntern, RoleAssociate, RoleBillerAssignedOnly},
	},
	CapManageUserAccounts: {
		granting:     []Role{RolePracticeAdministrator},
		practiceWide: true,
	},
	CapManageSupervision: {
		granting:     []Role{RolePracticeAdministrator},
		practiceWide: true,
	},
	CapScheduleAnyProvider: {
		granting:     []Role{RolePracticeAdministrator, RolePracticeScheduler},
		practiceWide: true,
	},
	CapViewOwnSchedule: {
		granting:    []Role{RoleClinician, RoleSupervisor, RoleIntern, RoleAssistant, RoleAssociate},
		selfService: true,
	},
	CapSignNote: {
		granting: []Role{RoleClinician, RoleSupervisor},
	},
	CapCoSignNote: {
		granting:         []Role{RoleClinicalAdministrator},
		coRequisites:     []Role{RoleClinician},
		practiceWide:     true,
		supervisionGated: true,
	},
	CapCompleteNote: {
		granting: []Role{RoleClinician, RoleSupervisor, RoleIntern, RoleAssociate},
	},
	CapViewSuperviseeNotes: {
		granting:         []Role{RoleClinicalAdministrator},
		coRequisites:     []Role{RoleClinician},
		practiceWide:     true,
		supervisionGated: true,
	},
	CapBillInsuranceIndependently: {
		granting:     []Role{RoleClinician, RolePracticeBiller},
		practiceWide: true,
	},
	CapBillAssignedPatientsOnly: {
		granting: []Role{RolePracticeBiller, RoleBillerAssignedOnly},
	},
	CapViewComplianceDashboard: {
		granting:     []Role{RolePracticeAdministrator, RoleClinicalAdministrator, RoleSupervisor},
		coRequisites: nil,
		practiceWide: true,
		selfService:  true,
	},
	CapManageComplianceDeadlines: {
		granting:     []Role{RolePracticeAdministrator, RoleClinicalAdministrator},
		coRequisites: []Role{RoleClinician},
		practiceWide: true,
	},
	CapViewAuditLog: {
		granting:     []Role{RolePracticeAdministrator},
		practiceWide: true,
	},
}

// Capabilities returns every registered capability, for introspection
// endpoints and seeding.
func Capabilities() []Capability {
	out := make([]Capability, 0, len(capabilityTable))
	for c := range capabilityTable {
		out = append(out, c)
	}
	return out
}

// GrantingRoles exposes the static table for role-description rendering.
func GrantingRoles(c Capability) ([]Role, error) {
	g, ok := capabilityTable[c]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCapability, c)
	}
	out := make([]Role, len(g.granting))
	copy(out, g.granting)
	return out, nil
}

func lookupGrant(c Capability) (grant, error) {
	g, ok := capabilityTable[c]
	if !ok {
		return grant{}, fmt.Errorf("%w: %q", ErrUnknownCapability, c)
	}
	return g, nil
}
