package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveCoRequisite(t *testing.T) {
	var r RoleCapabilityResolver

	// Clinical Administrator without Clinician grants nothing gated on it.
	roles := NewRoleSet(RoleClinicalAdministrator)
	for _, cap := range []Capability{CapAccessAnyPatientRecord, CapCoSignNote, CapManageComplianceDeadlines} {
		ok, err := r.Resolve(roles, cap)
		require.NoError(t, err)
		assert.False(t, ok, "co-requisite missing, %s should not resolve", cap)
	}

	// Adding Clinician flips every one of them.
	roles = NewRoleSet(RoleClinicalAdministrator, RoleClinician)
	for _, cap := range []Capability{CapAccessAnyPatientRecord, CapCoSignNote, CapManageComplianceDeadlines} {
		ok, err := r.Resolve(roles, cap)
		require.NoError(t, err)
		assert.True(t, ok, "%s should resolve once Clinician is present", cap)
	}
}

func TestResolveInternCannotBillIndependently(t *testing.T) {
	var r RoleCapabilityResolver

	ok, err := r.Resolve(NewRoleSet(RoleIntern), CapBillInsuranceIndependently)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestResolveGrantsByAnyGrantingRole(t *testing.T) {
	var r RoleCapabilityResolver

	tests := []struct {
		name  string
		roles RoleSet
		cap   Capability
		want  bool
	}{
		{"practice admin manages accounts", NewRoleSet(RolePracticeAdministrator), CapManageUserAccounts, true},
		{"scheduler schedules any provider", NewRoleSet(RolePracticeScheduler), CapScheduleAnyProvider, true},
		{"biller bills independently", NewRoleSet(RolePracticeBiller), CapBillInsuranceIndependently, true},
		{"assigned-only biller cannot bill independently", NewRoleSet(RoleBillerAssignedOnly), CapBillInsuranceIndependently, false},
		{"assistant cannot sign notes", NewRoleSet(RoleAssistant), CapSignNote, false},
		{"empty set grants nothing", NewRoleSet(), CapManageUserAccounts, false},
		{"clinician signs notes", NewRoleSet(RoleClinician), CapSignNote, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := r.Resolve(tt.roles, tt.cap)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestResolveUnknownCapability(t *testing.T) {
	var r RoleCapabilityResolver

	_, err := r.Resolve(NewRoleSet(RoleClinician), Capability("note:shred"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownCapability)
}

func TestResolveUnknownRole(t *testing.T) {
	var r RoleCapabilityResolver

	roles := RoleSet{Role("JANITOR"): {}}
	_, err := r.Resolve(roles, CapSignNote)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownRole)
}

func TestMissingCoRequisite(t *testing.T) {
	var r RoleCapabilityResolver

	missing, err := r.MissingCoRequisite(NewRoleSet(RoleClinicalAdministrator), CapCoSignNote)
	require.NoError(t, err)
	assert.True(t, missing)

	missing, err = r.MissingCoRequisite(NewRoleSet(RoleIntern), CapCoSignNote)
	require.NoError(t, err)
	assert.False(t, missing, "no granting role matched, so nothing is 'missing'")

	missing, err = r.MissingCoRequisite(NewRoleSet(RoleClinicalAdministrator, RoleClinician), CapCoSignNote)
	require.NoError(t, err)
	assert.False(t, missing)
}

func TestParseRole(t *testing.T) {
	r, err := ParseRole("CLINICIAN")
	require.NoError(t, err)
	assert.Equal(t, RoleClinician, r)

	_, err = ParseRole("clinician")
	assert.ErrorIs(t, err, ErrUnknownRole)
}

func TestParseRoleSet(t *testing.T) {
	s, err := ParseRoleSet([]string{"CLINICIAN", "SUPERVISOR", "CLINICIAN"})
	require.NoError(t, err)
	assert.Len(t, s, 2)
	assert.True(t, s.Has(RoleClinician))
	assert.True(t, s.Has(RoleSupervisor))

	_, err = ParseRoleSet([]string{"CLINICIAN", "RECEPTIONIST"})
	assert.ErrorIs(t, err, ErrUnknownRole)
}

func TestDescriptionsCoverEveryRole(t *testing.T) {
	for _, role := range Roles() {
		d, err := Description(role)
		require.NoError(t, err)
		assert.NotEmpty(t, d)
	}
}

func TestGrantingRoles(t *testing.T) {
	roles, err := GrantingRoles(CapManageUserAccounts)
	require.NoError(t, err)
	assert.Equal(t, []Role{RolePracticeAdministrator}, roles)

	_, err = GrantingRoles(Capability("bogus"))
	assert.ErrorIs(t, err, ErrUnknownCapability)
}
