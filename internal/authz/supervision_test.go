package authz

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Yi-Jacob/mentalspace-ehr-sub009/internal/model"
)

func rel(supervisor, supervisee uuid.UUID, status model.SupervisionStatus, start time.Time, end *time.Time) model.SupervisionRelationship {
	r := model.SupervisionRelationship{
		SupervisorID: supervisor,
		SuperviseeID: supervisee,
		StartDate:    start,
		EndDate:      end,
		Status:       status,
	}
	r.ID = uuid.New()
	return r
}

func TestSuperviseesOfOpenEndedRelationship(t *testing.T) {
	s1 := uuid.New()
	e1 := uuid.New()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	var r SupervisionScopeResolver
	rels := []model.SupervisionRelationship{rel(s1, e1, model.SupervisionStatusActive, start, nil)}

	got := r.SuperviseesOf(s1, rels, now)
	require.Len(t, got, 1)
	assert.Contains(t, got, e1)
}

func TestSuperviseesOfFilters(t *testing.T) {
	s1, other := uuid.New(), uuid.New()
	active, terminated, pending, future, ended := uuid.New(), uuid.New(), uuid.New(), uuid.New(), uuid.New()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	endJune := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	now := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)

	var r SupervisionScopeResolver
	rels := []model.SupervisionRelationship{
		rel(s1, active, model.SupervisionStatusActive, start, nil),
		rel(s1, terminated, model.SupervisionStatusTerminated, start, nil),
		rel(s1, pending, model.SupervisionStatusPending, start, nil),
		rel(s1, future, model.SupervisionStatusActive, now.Add(24*time.Hour), nil),
		rel(s1, ended, model.SupervisionStatusActive, start, &endJune),
		rel(other, uuid.New(), model.SupervisionStatusActive, start, nil),
	}

	got := r.SuperviseesOf(s1, rels, now)
	require.Len(t, got, 1)
	assert.Contains(t, got, active)
}

func TestEndDateIsExclusive(t *testing.T) {
	s1, e1 := uuid.New(), uuid.New()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	var r SupervisionScopeResolver
	rels := []model.SupervisionRelationship{rel(s1, e1, model.SupervisionStatusActive, start, &end)}

	// Valid the instant before the end date, gone at the end date itself.
	assert.Contains(t, r.SuperviseesOf(s1, rels, end.Add(-time.Nanosecond)), e1)
	assert.NotContains(t, r.SuperviseesOf(s1, rels, end), e1)

	// Start date is inclusive.
	assert.Contains(t, r.SuperviseesOf(s1, rels, start), e1)
	assert.NotContains(t, r.SuperviseesOf(s1, rels, start.Add(-time.Nanosecond)), e1)
}

func TestDuplicateActiveRelationshipsPickLatestStart(t *testing.T) {
	older, newer, e1 := uuid.New(), uuid.New(), uuid.New()
	now := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)

	var r SupervisionScopeResolver
	rels := []model.SupervisionRelationship{
		rel(older, e1, model.SupervisionStatusActive, time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), nil),
		rel(newer, e1, model.SupervisionStatusActive, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), nil),
	}

	got, ok := r.SupervisorOf(e1, rels, now)
	require.True(t, ok)
	assert.Equal(t, newer, got, "latest start date wins the anomaly tie-break")

	// The losing supervisor must not see the supervisee either, or the
	// two lookups would disagree about the pair.
	assert.NotContains(t, r.SuperviseesOf(older, rels, now), e1)
	assert.Contains(t, r.SuperviseesOf(newer, rels, now), e1)

	// Order of the input slice must not change the answer.
	rels[0], rels[1] = rels[1], rels[0]
	got, ok = r.SupervisorOf(e1, rels, now)
	require.True(t, ok)
	assert.Equal(t, newer, got)
}

func TestSupervisionSymmetry(t *testing.T) {
	now := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	supervisors := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	supervisees := []uuid.UUID{uuid.New(), uuid.New(), uuid.New(), uuid.New()}

	var rels []model.SupervisionRelationship
	statuses := []model.SupervisionStatus{
		model.SupervisionStatusActive,
		model.SupervisionStatusTerminated,
		model.SupervisionStatusPending,
	}
	for i, e := range supervisees {
		for j, s := range supervisors {
			start := time.Date(2024, time.Month(1+i+j), 1, 0, 0, 0, 0, time.UTC)
			rels = append(rels, rel(s, e, statuses[(i+j)%len(statuses)], start, nil))
		}
	}

	var r SupervisionScopeResolver
	for _, s := range supervisors {
		scope := r.SuperviseesOf(s, rels, now)
		for _, e := range supervisees {
			sup, ok := r.SupervisorOf(e, rels, now)
			_, inScope := scope[e]
			if inScope {
				assert.True(t, ok && sup == s, "supervisee %s in scope of %s must resolve back", e, s)
			} else {
				assert.False(t, ok && sup == s, "supervisee %s not in scope of %s must not resolve back", e, s)
			}
		}
	}
}

func TestMalformedRelationshipsSkippedAndReported(t *testing.T) {
	s1, e1 := uuid.New(), uuid.New()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	endBefore := start.Add(-24 * time.Hour)
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	var reported []string
	r := SupervisionScopeResolver{
		OnMalformed: func(_ model.SupervisionRelationship, reason string) {
			reported = append(reported, reason)
		},
	}

	rels := []model.SupervisionRelationship{
		rel(uuid.Nil, e1, model.SupervisionStatusActive, start, nil),
		rel(s1, uuid.Nil, model.SupervisionStatusActive, start, nil),
		rel(s1, e1, model.SupervisionStatusActive, start, &endBefore),
		rel(s1, e1, model.SupervisionStatusActive, start, nil),
	}

	got := r.SuperviseesOf(s1, rels, now)
	require.Len(t, got, 1)
	assert.Contains(t, got, e1)
	assert.ElementsMatch(t, []string{
		"missing supervisor id",
		"missing supervisee id",
		"end date before start date",
	}, reported)
}

func TestSupervisorOfNone(t *testing.T) {
	var r SupervisionScopeResolver
	_, ok := r.SupervisorOf(uuid.New(), nil, time.Now())
	assert.False(t, ok)
}

func TestHasAnyRelationship(t *testing.T) {
	s1, e1 := uuid.New(), uuid.New()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	var r SupervisionScopeResolver
	rels := []model.SupervisionRelationship{
		rel(s1, e1, model.SupervisionStatusTerminated, start, nil),
	}

	assert.True(t, r.HasAnyRelationship(s1, e1, rels), "terminated edge still counts as an edge")
	assert.False(t, r.HasAnyRelationship(e1, s1, rels), "direction matters")
	assert.False(t, r.HasAnyRelationship(s1, uuid.New(), rels))
}
