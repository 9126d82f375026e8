package authz

import (
	"time"

	"github.com/google/uuid"

	"github.com/Yi-Jacob/mentalspace-ehr-sub009/internal/model"
)

// MalformedRelationshipFunc receives supervision rows the resolver skipped
// because they cannot be interpreted (missing IDs, end before start).
// Malformed rows are an upstream data-entry problem: the resolver treats
// them as absent and keeps going, but callers usually want them logged.
type MalformedRelationshipFunc func(rel model.SupervisionRelationship, reason string)

// SupervisionScopeResolver computes which staff members a supervisor may
// act on through supervision, from a caller-supplied snapshot of
// relationship rows. It holds no state beyond the optional malformed-row
// callback and never mutates its arguments.
type SupervisionScopeResolver struct {
	OnMalformed MalformedRelationshipFunc
}

// SuperviseesOf returns the set of supervisee IDs whose active
// relationship at asOf names supervisorID. When the snapshot violates the
// one-active-relationship invariant and a supervisee has several active
// rows, the row with the latest start date wins; equal start dates break
// on row ID so repeated calls agree. The tie-break runs over all rows, not
// just this supervisor's, which keeps SuperviseesOf and SupervisorOf
// symmetric even on anomalous data.
func (r *SupervisionScopeResolver) SuperviseesOf(supervisorID uuid.UUID, rels []model.SupervisionRelationship, asOf time.Time) map[uuid.UUID]struct{} {
	chosen := make(map[uuid.UUID]model.SupervisionRelationship)
	for _, rel := range rels {
		if !r.usable(rel) || !activeAt(rel, asOf) {
			continue
		}
		prev, ok := chosen[rel.SuperviseeID]
		if !ok || laterOf(rel, prev) {
			chosen[rel.SuperviseeID] = rel
		}
	}

	out := make(map[uuid.UUID]struct{})
	for id, rel := range chosen {
		if rel.SupervisorID == supervisorID {
			out[id] = struct{}{}
		}
	}
	return out
}

// SupervisorOf is the inverse lookup: the supervisor actively supervising
// superviseeID at asOf, if any. The same filtering and tie-break rules
// apply, so SuperviseesOf and SupervisorOf always agree about a pair.
func (r *SupervisionScopeResolver) SupervisorOf(superviseeID uuid.UUID, rels []model.SupervisionRelationship, asOf time.Time) (uuid.UUID, bool) {
	var best model.SupervisionRelationship
	found := false
	for _, rel := range rels {
		if !r.usable(rel) {
			continue
		}
		if rel.SuperviseeID != superviseeID || !activeAt(rel, asOf) {
			continue
		}
		if !found || laterOf(rel, best) {
			best = rel
			found = true
		}
	}
	if !found {
		return uuid.Nil, false
	}
	return best.SupervisorID, true
}

// HasAnyRelationship reports whether any well-formed row links the pair,
// active or not. The decision engine uses it to tell "never supervised"
// apart from "supervision lapsed" when denying.
func (r *SupervisionScopeResolver) HasAnyRelationship(supervisorID, superviseeID uuid.UUID, rels []model.SupervisionRelationship) bool {
	for _, rel := range rels {
		if !r.usable(rel) {
			continue
		}
		if rel.SupervisorID == supervisorID && rel.SuperviseeID == superviseeID {
			return true
		}
	}
	return false
}

func (r *SupervisionScopeResolver) usable(rel model.SupervisionRelationship) bool {
	switch {
	case rel.SupervisorID == uuid.Nil:
		r.report(rel, "missing supervisor id")
	case rel.SuperviseeID == uuid.Nil:
		r.report(rel, "missing supervisee id")
	case rel.EndDate != nil && rel.EndDate.Before(rel.StartDate):
		r.report(rel, "end date before start date")
	default:
		return true
	}
	return false
}

func (r *SupervisionScopeResolver) report(rel model.SupervisionRelationship, reason string) {
	if r.OnMalformed != nil {
		r.OnMalformed(rel, reason)
	}
}

// activeAt implements the [startDate, endDate) validity window. A nil end
// date means open-ended.
func activeAt(rel model.SupervisionRelationship, asOf time.Time) bool {
	if rel.Status != model.SupervisionStatusActive {
		return false
	}
	if asOf.Before(rel.StartDate) {
		return false
	}
	if rel.EndDate != nil && !asOf.Before(*rel.EndDate) {
		return false
	}
	return true
}

func laterOf(a, b model.SupervisionRelationship) bool {
	if a.StartDate.After(b.StartDate) {
		return true
	}
	if a.StartDate.Equal(b.StartDate) {
		return a.ID.String() > b.ID.String()
	}
	return false
}
