package access

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
	"github.com/Yi-Jacob/mentalspace-ehr-sub009/pkg/metrics"
)

var testMetrics = metrics.NewMetrics("test", "access")

type fakeStaffRepo struct {
	roles map[uuid.UUID][]string
}

func (r *fakeStaffRepo) Create(ctx context.Context, s *model.StaffMember) error { return nil }
func (r *fakeStaffRepo) Get(ctx context.Context, id uuid.UUID) (*model.StaffMember, error) {
	return nil, fmt.Errorf("not implemented")
}
func (r *fakeStaffRepo) GetByEmail(ctx context.Context, email string) (*model.StaffMember, error) {
	return nil, fmt.Errorf("not implemented")
}
func (r *fakeStaffRepo) List(ctx context.Context, practiceID uuid.UUID) ([]*model.StaffMember, error) {
	return nil, nil
}
func (r *fakeStaffRepo) Update(ctx context.Context, s *model.StaffMember) error { return nil }
func (r *fakeStaffRepo) Delete(ctx context.Context, id uuid.UUID) error         { return nil }

func (r *fakeStaffRepo) GetRoles(ctx context.Context, staffID uuid.UUID) ([]string, error) {
	return r.roles[staffID], nil
}

func (r *fakeStaffRepo) AssignRole(ctx context.Context, a *model.RoleAssignment) error { return nil }
func (r *fakeStaffRepo) RemoveRole(ctx context.Context, staffID uuid.UUID, role string) error {
	return nil
}

type fakeSupervisionRepo struct {
	rels []model.SupervisionRelationship
}

func (r *fakeSupervisionRepo) Create(ctx context.Context, rel *model.SupervisionRelationship) error {
	return nil
}
func (r *fakeSupervisionRepo) Get(ctx context.Context, id uuid.UUID) (*model.SupervisionRelationship, error) {
	return nil, fmt.Errorf("not implemented")
}
func (r *fakeSupervisionRepo) Update(ctx context.Context, rel *model.SupervisionRelationship) error {
	return nil
}

func (r *fakeSupervisionRepo) ListBySupervisor(ctx context.Context, supervisorID uuid.UUID) ([]model.SupervisionRelationship, error) {
	var out []model.SupervisionRelationship
	for _, rel := range r.rels {
		if rel.SupervisorID == supervisorID {
			out = append(out, rel)
		}
	}
	return out, nil
}

func (r *fakeSupervisionRepo) ListBySupervisee(ctx context.Context, superviseeID uuid.UUID) ([]model.SupervisionRelationship, error) {
	return nil, nil
}

func (r *fakeSupervisionRepo) ListForPractice(ctx context.Context, practiceID uuid.UUID) ([]model.SupervisionRelationship, error) {
	return r.rels, nil
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

func newTestService(staff *fakeStaffRepo, sup *fakeSupervisionRepo) (*Service, *fakeAuditRepo, *fakeOutboxRepo) {
	auditRepo := &fakeAuditRepo{}
	outboxRepo := &fakeOutboxRepo{}
	log := logger.NewLogger(&logger.Config{Level: logger.ErrorLevel, Output: io.Discard})
	svc := NewService(staff, sup, audit.NewService(auditRepo), event.NewService(outboxRepo, log), testMetrics, log)
	return svc, auditRepo, outboxRepo
}

func TestDecideGrantsAdmin(t *testing.T) {
	admin, target := uuid.New(), uuid.New()
	staff := &fakeStaffRepo{roles: map[uuid.UUID][]string{
		admin: {"PRACTICE_ADMINISTRATOR"},
	}}
	svc, auditRepo, outboxRepo := newTestService(staff, &fakeSupervisionRepo{})

	d, err := svc.Decide(context.Background(), admin, target, authz.CapManageUserAccounts)
	require.NoError(t, err)
	assert.True(t, d.Granted)

	// Grants leave no denial trail.
	assert.Empty(t, auditRepo.logs)
	assert.Empty(t, outboxRepo.events)
}

func TestDecideDenialIsAuditedAndEmitted(t *testing.T) {
	intern, target := uuid.New(), uuid.New()
	staff := &fakeStaffRepo{roles: map[uuid.UUID][]string{
		intern: {"INTERN"},
	}}
	svc, auditRepo, outboxRepo := newTestService(staff, &fakeSupervisionRepo{})

	d, err := svc.Decide(context.Background(), intern, target, authz.CapBillInsuranceIndependently)
	require.NoError(t, err)
	assert.False(t, d.Granted)
	assert.Equal(t, authz.ReasonDeniedNoCapability, d.Reason)

	require.Len(t, auditRepo.logs, 1)
	assert.Equal(t, model.AuditActionAccessDenied, auditRepo.logs[0].Action)

	require.Len(t, outboxRepo.events, 1)
	assert.Equal(t, model.EventTypeAccessDenied, outboxRepo.events[0].EventType)
}

func TestDecideUnknownCapabilityIsError(t *testing.T) {
	requester := uuid.New()
	staff := &fakeStaffRepo{roles: map[uuid.UUID][]string{
		requester: {"CLINICIAN"},
	}}
	svc, auditRepo, _ := newTestService(staff, &fakeSupervisionRepo{})

	_, err := svc.Decide(context.Background(), requester, uuid.New(), authz.Capability("note:shred"))
	require.Error(t, err)
	assert.ErrorIs(t, err, authz.ErrUnknownCapability)

	// Contract violations are not denials and leave no denial audit row.
	assert.Empty(t, auditRepo.logs)
}

func TestDecideUsesCachedContextUntilInvalidated(t *testing.T) {
	requester, target := uuid.New(), uuid.New()
	staff := &fakeStaffRepo{roles: map[uuid.UUID][]string{
		requester: {"INTERN"},
	}}
	svc, _, _ := newTestService(staff, &fakeSupervisionRepo{})
	ctx := context.Background()

	d, err := svc.Decide(ctx, requester, target, authz.CapManageUserAccounts)
	require.NoError(t, err)
	require.False(t, d.Granted)

	// Role change is not visible through the cached context.
	staff.roles[requester] = []string{"PRACTICE_ADMINISTRATOR"}
	d, err = svc.Decide(ctx, requester, target, authz.CapManageUserAccounts)
	require.NoError(t, err)
	assert.False(t, d.Granted)

	svc.Invalidate(requester)
	d, err = svc.Decide(ctx, requester, target, authz.CapManageUserAccounts)
	require.NoError(t, err)
	assert.True(t, d.Granted)
}

func TestDecideSupervisionPath(t *testing.T) {
	supervisor, supervisee := uuid.New(), uuid.New()
	staff := &fakeStaffRepo{roles: map[uuid.UUID][]string{
		supervisor: {"SUPERVISOR"},
	}}
	rel := model.SupervisionRelationship{
		SupervisorID: supervisor,
		SuperviseeID: supervisee,
		StartDate:    time.Now().Add(-30 * 24 * time.Hour),
		Status:       model.SupervisionStatusActive,
	}
	rel.ID = uuid.New()
	svc, _, _ := newTestService(staff, &fakeSupervisionRepo{rels: []model.SupervisionRelationship{rel}})

	d, err := svc.Decide(context.Background(), supervisor, supervisee, authz.CapCoSignNote)
	require.NoError(t, err)
	assert.True(t, d.Granted)
	assert.Equal(t, authz.ReasonGrantedBySupervision, d.Reason)
}
