package authz

// RoleCapabilityResolver answers "does this role set hold this capability"
// from the static capability table. It is pure and total: the only failure
// mode is an unregistered capability or role, both contract violations.
type RoleCapabilityResolver struct{}

// Resolve reports whether roles grant capability. The grant requires a
// non-empty intersection with the capability's granting roles and, when the
// capability carries co-requisites, every co-requisite role present as
// well. Holding ClinicalAdministrator without Clinician therefore grants
// nothing that is ClinicalAdministrator-gated: the co-requisite check, not
// mere role presence, governs.
func (RoleCapabilityResolver) Resolve(roles RoleSet, capability Capability) (bool, error) {
	g, err := lookupGrant(capability)
	if err != nil {
		return false, err
	}
	if err := roles.validate(); err != nil {
		return false, err
	}

	if !roles.HasAny(g.granting) {
		return false, nil
	}
	for _, co := range g.coRequisites {
		if !roles.Has(co) {
			return false, nil
		}
	}
	return true, nil
}

// MissingCoRequisite reports whether the role set matched a granting role
// for capability but lacked a co-requisite. The decision engine uses this
// to emit a distinct denial reason for audit logs.
func (RoleCapabilityResolver) MissingCoRequisite(roles RoleSet, capability Capability) (bool, error) {
	g, err := lookupGrant(capability)
	if err != nil {
		return false, err
	}
	if !roles.HasAny(g.granting) {
		return false, nil
	}
	for _, co := range g.coRequisites {
		if !roles.Has(co) {
			return true, nil
		}
	}
	return false, nil
}
