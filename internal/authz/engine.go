package authz

import (
	"time"

	"github.com/google/uuid"

	"github.com/Yi-Jacob/mentalspace-ehr-sub009/internal/model"
)

// ReasonCode explains an access decision for audit logs. Reason codes are
// internal: HTTP surfaces return a stable generic message on deny so
// callers cannot probe the role structure.
type ReasonCode string

const (
	ReasonGrantedByRole             ReasonCode = "GRANTED_BY_ROLE"
	ReasonGrantedBySupervision      ReasonCode = "GRANTED_BY_SUPERVISION"
	ReasonDeniedNoCapability        ReasonCode = "DENIED_NO_CAPABILITY"
	ReasonDeniedSupervisionInactive ReasonCode = "DENIED_SUPERVISION_INACTIVE"
	ReasonDeniedCoRequisiteMissing  ReasonCode = "DENIED_CO_REQUISITE_MISSING"
)

// AccessDecision is the engine's output. Denials are ordinary values,
// never errors; errors are reserved for contract violations such as an
// unregistered capability or role.
type AccessDecision struct {
	Granted bool       `json:"granted"`
	Reason  ReasonCode `json:"reason"`
}

// DecisionContext carries the requester's records, fetched by the caller
// from a single consistent read snapshot. The engine does not re-fetch or
// re-validate mid-computation.
type DecisionContext struct {
	Roles         RoleSet
	Relationships []model.SupervisionRelationship
}

// AccessDecisionEngine combines direct role capability with supervision
// scope into one allow/deny decision.
type AccessDecisionEngine struct {
	roles RoleCapabilityResolver
	scope *SupervisionScopeResolver
}

// NewAccessDecisionEngine wires the two resolvers. onMalformed may be nil.
func NewAccessDecisionEngine(onMalformed MalformedRelationshipFunc) *AccessDecisionEngine {
	return &AccessDecisionEngine{
		scope: &SupervisionScopeResolver{OnMalformed: onMalformed},
	}
}

// Scope exposes the supervision resolver for callers that need raw scope
// membership (reminder escalation, supervisee listings).
func (e *AccessDecisionEngine) Scope() *SupervisionScopeResolver {
	return e.scope
}

// Decide evaluates whether requester may perform action on target.
//
// The check order is load-bearing: self-service first, then practice-wide
// role grants, then supervision scope. Role grants come before supervision
// so a Practice Administrator's blanket access is never narrowed by an
// absent supervision edge.
func (e *AccessDecisionEngine) Decide(requester, target uuid.UUID, action Capability, ctx DecisionContext, now time.Time) (AccessDecision, error) {
	g, err := lookupGrant(action)
	if err != nil {
		return AccessDecision{}, err
	}
	if err := ctx.Roles.validate(); err != nil {
		return AccessDecision{}, err
	}

	if requester == target && g.selfService {
		return AccessDecision{Granted: true, Reason: ReasonGrantedByRole}, nil
	}

	hasRole, err := e.roles.Resolve(ctx.Roles, action)
	if err != nil {
		return AccessDecision{}, err
	}
	if hasRole && g.practiceWide {
		return AccessDecision{Granted: true, Reason: ReasonGrantedByRole}, nil
	}
	if hasRole && requester == target {
		// Own-scope capabilities (sign, complete, assigned-only billing)
		// still apply to the requester's own work.
		return AccessDecision{Granted: true, Reason: ReasonGrantedByRole}, nil
	}

	if g.supervisionGated {
		supervisees := e.scope.SuperviseesOf(requester, ctx.Relationships, now)
		if _, ok := supervisees[target]; ok {
			return AccessDecision{Granted: true, Reason: ReasonGrantedBySupervision}, nil
		}
		if e.scope.HasAnyRelationship(requester, target, ctx.Relationships) {
			// A relationship exists for the pair but failed the
			// active/date filter. Distinguished from "no relationship"
			// for audit clarity.
			return AccessDecision{Granted: false, Reason: ReasonDeniedSupervisionInactive}, nil
		}
	}

	missing, err := e.roles.MissingCoRequisite(ctx.Roles, action)
	if err != nil {
		return AccessDecision{}, err
	}
	if missing {
		return AccessDecision{Granted: false, Reason: ReasonDeniedCoRequisiteMissing}, nil
	}

	return AccessDecision{Granted: false, Reason: ReasonDeniedNoCapability}, nil
}
