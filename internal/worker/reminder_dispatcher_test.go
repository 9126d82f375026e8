package worker

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Yi-Jacob/mentalspace-ehr-sub009/internal/compliance"
	"github.com/Yi-Jacob/mentalspace-ehr-sub009/internal/model"
	"github.com/Yi-Jacob/mentalspace-ehr-sub009/internal/service/event"
	"github.com/Yi-Jacob/mentalspace-ehr-sub009/pkg/logger"
	"github.com/Yi-Jacob/mentalspace-ehr-sub009/pkg/metrics"
)

// promauto registers into the default registry, so construct once for the
// whole package.
var testMetrics = metrics.NewMetrics("test", "worker")

func testLogger() *logger.Logger {
	return logger.NewLogger(&logger.Config{Level: logger.ErrorLevel, Output: io.Discard})
}

type fakeDeadlineRepo struct {
	deadlines map[uuid.UUID]*model.ComplianceDeadline
}

func newFakeDeadlineRepo(ds ...*model.ComplianceDeadline) *fakeDeadlineRepo {
	r := &fakeDeadlineRepo{deadlines: make(map[uuid.UUID]*model.ComplianceDeadline)}
	for _, d := range ds {
		r.deadlines[d.ID] = d
	}
	return r
}

func (r *fakeDeadlineRepo) Create(ctx context.Context, d *model.ComplianceDeadline) error {
	r.deadlines[d.ID] = d
	return nil
}

func (r *fakeDeadlineRepo) Get(ctx context.Context, id uuid.UUID) (*model.ComplianceDeadline, error) {
	d, ok := r.deadlines[id]
	if !ok {
		return nil, fmt.Errorf("deadline not found")
	}
	return d, nil
}

func (r *fakeDeadlineRepo) List(ctx context.Context, practiceID uuid.UUID) ([]model.ComplianceDeadline, error) {
	return nil, nil
}

func (r *fakeDeadlineRepo) ListByProvider(ctx context.Context, providerID uuid.UUID) ([]model.ComplianceDeadline, error) {
	return nil, nil
}

func (r *fakeDeadlineRepo) ListUnmetDueWithin(ctx context.Context, horizon time.Time) ([]model.ComplianceDeadline, error) {
	var out []model.ComplianceDeadline
	for _, d := range r.deadlines {
		if !d.IsMet && !d.DeadlineDate.After(horizon) {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (r *fakeDeadlineRepo) MarkMet(ctx context.Context, id uuid.UUID, metAt time.Time) error {
	d := r.deadlines[id]
	d.IsMet = true
	d.MetAt = &metAt
	return nil
}

func (r *fakeDeadlineRepo) MarkReminderSent(ctx context.Context, id uuid.UUID, threshold string) error {
	d := r.deadlines[id]
	switch threshold {
	case "72h":
		d.ReminderSent72h = true
	case "48h":
		d.ReminderSent48h = true
	case "24h":
		d.ReminderSent24h = true
	default:
		return fmt.Errorf("unknown threshold %q", threshold)
	}
	return nil
}

func (r *fakeDeadlineRepo) MarkSupervisorNotified(ctx context.Context, id uuid.UUID) error {
	r.deadlines[id].SupervisorNotified = true
	return nil
}

type fakeStaffRepo struct {
	staff map[uuid.UUID]*model.StaffMember
}

func newFakeStaffRepo(members ...*model.StaffMember) *fakeStaffRepo {
	r := &fakeStaffRepo{staff: make(map[uuid.UUID]*model.StaffMember)}
	for _, m := range members {
		r.staff[m.ID] = m
	}
	return r
}

func (r *fakeStaffRepo) Create(ctx context.Context, s *model.StaffMember) error { return nil }

func (r *fakeStaffRepo) Get(ctx context.Context, id uuid.UUID) (*model.StaffMember, error) {
	s, ok := r.staff[id]
	if !ok {
		return nil, fmt.Errorf("staff not found")
	}
	return s, nil
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
	return nil, nil
}

func (r *fakeStaffRepo) AssignRole(ctx context.Context, a *model.RoleAssignment) error { return nil }
func (r *fakeStaffRepo) RemoveRole(ctx context.Context, staffID uuid.UUID, role string) error {
	return nil
}

type fakeSupervisionRepo struct {
	rels []model.SupervisionRelationship
}

func (r *fakeSupervisionRepo) Create(ctx context.Context, rel *model.SupervisionRelationship) error {
	r.rels = append(r.rels, *rel)
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
	var out []model.SupervisionRelationship
	for _, rel := range r.rels {
		if rel.SuperviseeID == superviseeID {
			out = append(out, rel)
		}
	}
	return out, nil
}

func (r *fakeSupervisionRepo) ListForPractice(ctx context.Context, practiceID uuid.UUID) ([]model.SupervisionRelationship, error) {
	return r.rels, nil
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

type sentReminder struct {
	deadlineID uuid.UUID
	threshold  compliance.ReminderThreshold
}

type fakeNotifier struct {
	reminders   []sentReminder
	escalations []uuid.UUID
	failSend    bool
}

func (n *fakeNotifier) SendDeadlineReminder(ctx context.Context, provider *model.StaffMember, d *model.ComplianceDeadline, threshold compliance.ReminderThreshold) error {
	if n.failSend {
		return fmt.Errorf("smtp unavailable")
	}
	n.reminders = append(n.reminders, sentReminder{deadlineID: d.ID, threshold: threshold})
	return nil
}

func (n *fakeNotifier) SendSupervisorEscalation(ctx context.Context, supervisor, supervisee *model.StaffMember, d *model.ComplianceDeadline) error {
	if n.failSend {
		return fmt.Errorf("smtp unavailable")
	}
	n.escalations = append(n.escalations, supervisor.ID)
	return nil
}

func newTestDispatcher(deadlines *fakeDeadlineRepo, staff *fakeStaffRepo, sup *fakeSupervisionRepo, n *fakeNotifier, outbox *fakeOutboxRepo, now time.Time) *ReminderDispatcher {
	log := testLogger()
	d := NewReminderDispatcher(deadlines, staff, sup, n, event.NewService(outbox, log), log, testMetrics, time.Minute)
	d.now = func() time.Time { return now }
	return d
}

func deadlineDueIn(provider uuid.UUID, remaining time.Duration, now time.Time) *model.ComplianceDeadline {
	return &model.ComplianceDeadline{
		Base:         model.Base{ID: uuid.New()},
		PracticeID:   uuid.New(),
		ProviderID:   provider,
		NoteType:     "progress",
		DeadlineDate: now.Add(remaining),
	}
}

func staffMember(name string) *model.StaffMember {
	return &model.StaffMember{
		Base:      model.Base{ID: uuid.New()},
		FirstName: name,
		LastName:  "Example",
		Email:     name + "@example.com",
		Status:    model.StaffStatusActive,
	}
}

func TestScanSendsAllCrossedThresholdsAtOnce(t *testing.T) {
	now := time.Now()
	provider := staffMember("jordan")
	d := deadlineDueIn(provider.ID, 10*time.Hour, now)

	repo := newFakeDeadlineRepo(d)
	notifier := &fakeNotifier{}
	disp := newTestDispatcher(repo, newFakeStaffRepo(provider), &fakeSupervisionRepo{}, notifier, &fakeOutboxRepo{}, now)

	require.NoError(t, disp.Scan(context.Background()))

	// 10h remaining crosses all three windows and none were sent before.
	require.Len(t, notifier.reminders, 3)
	assert.Equal(t, compliance.Reminder72h, notifier.reminders[0].threshold)
	assert.Equal(t, compliance.Reminder48h, notifier.reminders[1].threshold)
	assert.Equal(t, compliance.Reminder24h, notifier.reminders[2].threshold)

	assert.True(t, d.ReminderSent72h)
	assert.True(t, d.ReminderSent48h)
	assert.True(t, d.ReminderSent24h)
}

func TestScanSkipsAlreadySentThresholds(t *testing.T) {
	now := time.Now()
	provider := staffMember("casey")
	d := deadlineDueIn(provider.ID, 40*time.Hour, now)
	d.ReminderSent72h = true

	notifier := &fakeNotifier{}
	disp := newTestDispatcher(newFakeDeadlineRepo(d), newFakeStaffRepo(provider), &fakeSupervisionRepo{}, notifier, &fakeOutboxRepo{}, now)

	require.NoError(t, disp.Scan(context.Background()))

	require.Len(t, notifier.reminders, 1)
	assert.Equal(t, compliance.Reminder48h, notifier.reminders[0].threshold)
}

func TestScanIsIdempotentAcrossPasses(t *testing.T) {
	now := time.Now()
	provider := staffMember("sam")
	d := deadlineDueIn(provider.ID, 30*time.Hour, now)

	notifier := &fakeNotifier{}
	disp := newTestDispatcher(newFakeDeadlineRepo(d), newFakeStaffRepo(provider), &fakeSupervisionRepo{}, notifier, &fakeOutboxRepo{}, now)

	require.NoError(t, disp.Scan(context.Background()))
	require.NoError(t, disp.Scan(context.Background()))

	// Second pass finds the sent flags set and owes nothing new.
	assert.Len(t, notifier.reminders, 2)
}

func TestScanStillSendsWhenOverdue(t *testing.T) {
	now := time.Now()
	provider := staffMember("alex")
	d := deadlineDueIn(provider.ID, -2*time.Hour, now)

	notifier := &fakeNotifier{}
	disp := newTestDispatcher(newFakeDeadlineRepo(d), newFakeStaffRepo(provider), &fakeSupervisionRepo{}, notifier, &fakeOutboxRepo{}, now)

	require.NoError(t, disp.Scan(context.Background()))

	// A blown deadline does not suppress unsent reminders.
	assert.Len(t, notifier.reminders, 3)
}

func TestScanEscalatesToActiveSupervisor(t *testing.T) {
	now := time.Now()
	supervisor := staffMember("robin")
	supervisee := staffMember("drew")
	d := deadlineDueIn(supervisee.ID, -time.Hour, now)

	sup := &fakeSupervisionRepo{rels: []model.SupervisionRelationship{{
		Base:         model.Base{ID: uuid.New()},
		SupervisorID: supervisor.ID,
		SuperviseeID: supervisee.ID,
		StartDate:    now.Add(-30 * 24 * time.Hour),
		Status:       model.SupervisionStatusActive,
	}}}

	notifier := &fakeNotifier{}
	repo := newFakeDeadlineRepo(d)
	disp := newTestDispatcher(repo, newFakeStaffRepo(supervisor, supervisee), sup, notifier, &fakeOutboxRepo{}, now)

	require.NoError(t, disp.Scan(context.Background()))

	require.Len(t, notifier.escalations, 1)
	assert.Equal(t, supervisor.ID, notifier.escalations[0])
	assert.True(t, repo.deadlines[d.ID].SupervisorNotified)

	// Next pass must not escalate again.
	require.NoError(t, disp.Scan(context.Background()))
	assert.Len(t, notifier.escalations, 1)
}

func TestScanSkipsEscalationWithoutSupervisor(t *testing.T) {
	now := time.Now()
	provider := staffMember("morgan")
	d := deadlineDueIn(provider.ID, -time.Hour, now)

	ended := now.Add(-24 * time.Hour)
	sup := &fakeSupervisionRepo{rels: []model.SupervisionRelationship{{
		Base:         model.Base{ID: uuid.New()},
		SupervisorID: uuid.New(),
		SuperviseeID: provider.ID,
		StartDate:    now.Add(-60 * 24 * time.Hour),
		EndDate:      &ended,
		Status:       model.SupervisionStatusTerminated,
	}}}

	notifier := &fakeNotifier{}
	disp := newTestDispatcher(newFakeDeadlineRepo(d), newFakeStaffRepo(provider), sup, notifier, &fakeOutboxRepo{}, now)

	require.NoError(t, disp.Scan(context.Background()))

	assert.Empty(t, notifier.escalations)
	assert.False(t, d.SupervisorNotified)
}

func TestScanLeavesFlagsUnsetWhenSendFails(t *testing.T) {
	now := time.Now()
	provider := staffMember("jamie")
	d := deadlineDueIn(provider.ID, 10*time.Hour, now)

	notifier := &fakeNotifier{failSend: true}
	repo := newFakeDeadlineRepo(d)
	disp := newTestDispatcher(repo, newFakeStaffRepo(provider), &fakeSupervisionRepo{}, notifier, &fakeOutboxRepo{}, now)

	require.NoError(t, disp.Scan(context.Background()))

	// Failed sends leave the flags clear so the next pass retries.
	stored := repo.deadlines[d.ID]
	assert.False(t, stored.ReminderSent72h)
	assert.False(t, stored.ReminderSent48h)
	assert.False(t, stored.ReminderSent24h)
}

func TestScanIgnoresMetDeadlines(t *testing.T) {
	now := time.Now()
	provider := staffMember("taylor")
	d := deadlineDueIn(provider.ID, 10*time.Hour, now)
	metAt := now.Add(-time.Hour)
	d.IsMet = true
	d.MetAt = &metAt

	notifier := &fakeNotifier{}
	disp := newTestDispatcher(newFakeDeadlineRepo(d), newFakeStaffRepo(provider), &fakeSupervisionRepo{}, notifier, &fakeOutboxRepo{}, now)

	require.NoError(t, disp.Scan(context.Background()))

	assert.Empty(t, notifier.reminders)
}

func TestScanEmitsOutboxEvents(t *testing.T) {
	now := time.Now()
	provider := staffMember("riley")
	d := deadlineDueIn(provider.ID, 10*time.Hour, now)

	outbox := &fakeOutboxRepo{}
	disp := newTestDispatcher(newFakeDeadlineRepo(d), newFakeStaffRepo(provider), &fakeSupervisionRepo{}, &fakeNotifier{}, outbox, now)

	require.NoError(t, disp.Scan(context.Background()))

	require.Len(t, outbox.events, 3)
	for _, e := range outbox.events {
		assert.Equal(t, model.EventTypeDeadlineReminder, e.EventType)
	}
}
