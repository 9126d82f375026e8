package supervision

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Yi-Jacob/mentalspace-ehr-sub009/internal/authz"
	"github.com/Yi-Jacob/mentalspace-ehr-sub009/internal/model"
	"github.com/Yi-Jacob/mentalspace-ehr-sub009/internal/service/audit"
	"github.com/Yi-Jacob/mentalspace-ehr-sub009/internal/service/event"
	"github.com/Yi-Jacob/mentalspace-ehr-sub009/pkg/logger"
)

type fakeRepo struct {
	rels map[uuid.UUID]*model.SupervisionRelationship
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{rels: make(map[uuid.UUID]*model.SupervisionRelationship)}
}

func (r *fakeRepo) Create(ctx context.Context, rel *model.SupervisionRelationship) error {
	if rel.ID == uuid.Nil {
		rel.ID = uuid.New()
	}
	stored := *rel
	r.rels[rel.ID] = &stored
	return nil
}

func (r *fakeRepo) Get(ctx context.Context, id uuid.UUID) (*model.SupervisionRelationship, error) {
	rel, ok := r.rels[id]
	if !ok {
		return nil, fmt.Errorf("relationship not found")
	}
	out := *rel
	return &out, nil
}

func (r *fakeRepo) Update(ctx context.Context, rel *model.SupervisionRelationship) error {
	if _, ok := r.rels[rel.ID]; !ok {
		return fmt.Errorf("relationship not found")
	}
	stored := *rel
	r.rels[rel.ID] = &stored
	return nil
}

func (r *fakeRepo) ListBySupervisor(ctx context.Context, supervisorID uuid.UUID) ([]model.SupervisionRelationship, error) {
	var out []model.SupervisionRelationship
	for _, rel := range r.rels {
		if rel.SupervisorID == supervisorID {
			out = append(out, *rel)
		}
	}
	return out, nil
}

func (r *fakeRepo) ListBySupervisee(ctx context.Context, superviseeID uuid.UUID) ([]model.SupervisionRelationship, error) {
	var out []model.SupervisionRelationship
	for _, rel := range r.rels {
		if rel.SuperviseeID == superviseeID {
			out = append(out, *rel)
		}
	}
	return out, nil
}

func (r *fakeRepo) ListForPractice(ctx context.Context, practiceID uuid.UUID) ([]model.SupervisionRelationship, error) {
	var out []model.SupervisionRelationship
	for _, rel := range r.rels {
		out = append(out, *rel)
	}
	return out, nil
}

type fakeAuditRepo struct {
	logs []*model.AuditLog
}

func (r *fakeAuditRepo) Create(ctx context.Context, l *model.AuditLog) error {
	r.logs = append(r.logs, l)
	return nil
}

func (r *fakeAuditRepo) List(ctx context.Context, practiceID uuid.UUID, p model.Pagination) ([]*model.AuditLog, error) {
	return r.logs, nil
}

func (r *fakeAuditRepo) Cleanup(ctx context.Context, before time.Time) (int64, error) {
	return 0, nil
}

type fakeOutboxRepo struct {
	events []*model.OutboxEvent
}

func (r *fakeOutboxRepo) Create(ctx context.Context, e *model.OutboxEvent) error {
	r.events = append(r.events, e)
	return nil
}

func (r *fakeOutboxRepo) GetPendingEvents(ctx context.Context, limit int) ([]*model.OutboxEvent, error) {
	return r.events, nil
}

func (r *fakeOutboxRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status model.OutboxStatus, errorMessage *string) error {
	return nil
}

func newTestService(repo *fakeRepo) (*Service, *fakeAuditRepo, *fakeOutboxRepo) {
	auditRepo := &fakeAuditRepo{}
	outboxRepo := &fakeOutboxRepo{}
	log := logger.NewLogger(&logger.Config{Level: logger.ErrorLevel, Output: io.Discard})
	svc := NewService(repo, &authz.SupervisionScopeResolver{}, audit.NewService(auditRepo), event.NewService(outboxRepo, log))
	return svc, auditRepo, outboxRepo
}

func activeRel(supervisor, supervisee uuid.UUID, start time.Time) *model.SupervisionRelationship {
	return &model.SupervisionRelationship{
		SupervisorID: supervisor,
		SuperviseeID: supervisee,
		StartDate:    start,
		Status:       model.SupervisionStatusActive,
	}
}

func TestCreateRejectsSecondActiveSupervisor(t *testing.T) {
	repo := newFakeRepo()
	svc, _, _ := newTestService(repo)
	ctx := context.Background()
	actor, practice := uuid.New(), uuid.New()
	supervisee := uuid.New()

	first := activeRel(uuid.New(), supervisee, time.Now().Add(-30*24*time.Hour))
	require.NoError(t, svc.Create(ctx, first, actor, practice))

	second := activeRel(uuid.New(), supervisee, time.Now())
	err := svc.Create(ctx, second, actor, practice)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already has an active supervisor")
}

func TestCreateAllowsNewSupervisorAfterTermination(t *testing.T) {
	repo := newFakeRepo()
	svc, _, _ := newTestService(repo)
	ctx := context.Background()
	actor, practice := uuid.New(), uuid.New()
	supervisee := uuid.New()

	first := activeRel(uuid.New(), supervisee, time.Now().Add(-60*24*time.Hour))
	require.NoError(t, svc.Create(ctx, first, actor, practice))
	require.NoError(t, svc.Terminate(ctx, first.ID, time.Now().Add(-time.Hour), actor, practice))

	second := activeRel(uuid.New(), supervisee, time.Now())
	require.NoError(t, svc.Create(ctx, second, actor, practice))
}

func TestCreateValidation(t *testing.T) {
	repo := newFakeRepo()
	svc, _, _ := newTestService(repo)
	ctx := context.Background()
	actor, practice := uuid.New(), uuid.New()

	tests := []struct {
		name string
		rel  *model.SupervisionRelationship
	}{
		{"missing supervisor", activeRel(uuid.Nil, uuid.New(), time.Now())},
		{"missing supervisee", activeRel(uuid.New(), uuid.Nil, time.Now())},
		{"missing start date", activeRel(uuid.New(), uuid.New(), time.Time{})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, svc.Create(ctx, tt.rel, actor, practice))
		})
	}

	self := uuid.New()
	assert.Error(t, svc.Create(ctx, activeRel(self, self, time.Now()), actor, practice), "self-supervision")

	end := time.Now().Add(-48 * time.Hour)
	backwards := activeRel(uuid.New(), uuid.New(), time.Now())
	backwards.EndDate = &end
	assert.Error(t, svc.Create(ctx, backwards, actor, practice), "end before start")
}

func TestTerminateEndsScope(t *testing.T) {
	repo := newFakeRepo()
	svc, auditRepo, outboxRepo := newTestService(repo)
	ctx := context.Background()
	actor, practice := uuid.New(), uuid.New()
	supervisor, supervisee := uuid.New(), uuid.New()

	rel := activeRel(supervisor, supervisee, time.Now().Add(-90*24*time.Hour))
	require.NoError(t, svc.Create(ctx, rel, actor, practice))

	ids, err := svc.Supervisees(ctx, supervisor, time.Now())
	require.NoError(t, err)
	require.Contains(t, ids, supervisee)

	require.NoError(t, svc.Terminate(ctx, rel.ID, time.Now(), actor, practice))

	// End date is exclusive: scope is gone from the end instant onward.
	ids, err = svc.Supervisees(ctx, supervisor, time.Now().Add(time.Second))
	require.NoError(t, err)
	assert.NotContains(t, ids, supervisee)

	assert.NotEmpty(t, auditRepo.logs)
	assert.NotEmpty(t, outboxRepo.events)
}

func TestTerminateRejectsEndBeforeStart(t *testing.T) {
	repo := newFakeRepo()
	svc, _, _ := newTestService(repo)
	ctx := context.Background()
	actor, practice := uuid.New(), uuid.New()

	rel := activeRel(uuid.New(), uuid.New(), time.Now())
	require.NoError(t, svc.Create(ctx, rel, actor, practice))

	err := svc.Terminate(ctx, rel.ID, time.Now().Add(-24*time.Hour), actor, practice)
	assert.Error(t, err)
}

func TestTerminateTwiceFails(t *testing.T) {
	repo := newFakeRepo()
	svc, _, _ := newTestService(repo)
	ctx := context.Background()
	actor, practice := uuid.New(), uuid.New()

	rel := activeRel(uuid.New(), uuid.New(), time.Now().Add(-time.Hour))
	require.NoError(t, svc.Create(ctx, rel, actor, practice))
	require.NoError(t, svc.Terminate(ctx, rel.ID, time.Now(), actor, practice))

	err := svc.Terminate(ctx, rel.ID, time.Now(), actor, practice)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already terminated")
}

func TestSupervisorFor(t *testing.T) {
	repo := newFakeRepo()
	svc, _, _ := newTestService(repo)
	ctx := context.Background()
	actor, practice := uuid.New(), uuid.New()
	supervisor, supervisee := uuid.New(), uuid.New()

	_, ok, err := svc.SupervisorFor(ctx, supervisee, time.Now())
	require.NoError(t, err)
	assert.False(t, ok)

	rel := activeRel(supervisor, supervisee, time.Now().Add(-time.Hour))
	require.NoError(t, svc.Create(ctx, rel, actor, practice))

	got, ok, err := svc.SupervisorFor(ctx, supervisee, time.Now())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, supervisor, got)
}
