package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Yi-Jacob/mentalspace-ehr-sub009/internal/authz"
	"github.com/Yi-Jacob/mentalspace-ehr-sub009/internal/compliance"
	"github.com/Yi-Jacob/mentalspace-ehr-sub009/internal/model"
	"github.com/Yi-Jacob/mentalspace-ehr-sub009/internal/repository"
	"github.com/Yi-Jacob/mentalspace-ehr-sub009/internal/service/event"
	"github.com/Yi-Jacob/mentalspace-ehr-sub009/pkg/logger"
	"github.com/Yi-Jacob/mentalspace-ehr-sub009/pkg/metrics"
)

// Notifier is the outbound side of reminder dispatch, implemented by the
// notification service.
type Notifier interface {
	SendDeadlineReminder(ctx context.Context, provider *model.StaffMember, d *model.ComplianceDeadline, threshold compliance.ReminderThreshold) error
	SendSupervisorEscalation(ctx context.Context, supervisor, supervisee *model.StaffMember, d *model.ComplianceDeadline) error
}

// ReminderDispatcher periodically scans unmet deadlines, asks the
// classifier which reminders are owed, sends them, and persists the sent
// flags. The classifier stays pure; every side effect lives here.
type ReminderDispatcher struct {
	deadlineRepo    repository.DeadlineRepository
	staffRepo       repository.StaffRepository
	supervisionRepo repository.SupervisionRepository
	scope           *authz.SupervisionScopeResolver
	notifier        Notifier
	events          *event.Service
	logger          *logger.Logger
	metrics         *metrics.Metrics
	interval        time.Duration
	now             func() time.Time
}

func NewReminderDispatcher(
	deadlineRepo repository.DeadlineRepository,
	staffRepo repository.StaffRepository,
	supervisionRepo repository.SupervisionRepository,
	notifier Notifier,
	events *event.Service,
	log *logger.Logger,
	m *metrics.Metrics,
	interval time.Duration,
) *ReminderDispatcher {
	return &ReminderDispatcher{
		deadlineRepo:    deadlineRepo,
		staffRepo:       staffRepo,
		supervisionRepo: supervisionRepo,
		scope:           &authz.SupervisionScopeResolver{},
		notifier:        notifier,
		events:          events,
		logger:          log,
		metrics:         m,
		interval:        interval,
		now:             time.Now,
	}
}

func (d *ReminderDispatcher) Start(ctx context.Context) {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	d.logger.Info("starting reminder dispatcher", "interval", d.interval.String())

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("shutting down reminder dispatcher")
			return
		case <-ticker.C:
			if err := d.Scan(ctx); err != nil {
				d.logger.Error(err, "reminder scan failed")
			}
		}
	}
}

// Scan performs one dispatch pass. Exported so the worker binary can run a
// single pass on demand and so tests can drive it directly.
func (d *ReminderDispatcher) Scan(ctx context.Context) error {
	now := d.now()

	// The 72h threshold is the widest window, so anything that could owe
	// a reminder has a deadline date within that horizon.
	horizon := now.Add(compliance.Reminder72h.Duration())
	deadlines, err := d.deadlineRepo.ListUnmetDueWithin(ctx, horizon)
	if err != nil {
		return fmt.Errorf("failed to list deadlines: %w", err)
	}

	var overdue int
	for i := range deadlines {
		deadline := deadlines[i]
		d.metrics.DeadlinesScanned.Inc()

		c := compliance.Classify(deadline, now)
		if c.Status == compliance.StatusOverdue {
			overdue++
		}

		for _, threshold := range c.DueReminders {
			if err := d.dispatch(ctx, &deadline, threshold); err != nil {
				d.logger.Error(err, "failed to dispatch reminder",
					"deadline_id", deadline.ID.String(), "threshold", threshold.String())
				d.metrics.RemindersDispatched.WithLabelValues(threshold.String(), "error").Inc()
				continue
			}
			d.metrics.RemindersDispatched.WithLabelValues(threshold.String(), "sent").Inc()
		}

		// Escalation policy: once the 72h reminder window is reached and
		// the provider is supervised, the supervisor hears about it too.
		if d.shouldEscalate(deadline, c) {
			if err := d.escalate(ctx, &deadline); err != nil {
				d.logger.Error(err, "failed to escalate to supervisor",
					"deadline_id", deadline.ID.String())
			}
		}
	}

	d.metrics.OverdueDeadlines.Set(float64(overdue))
	return nil
}

func (d *ReminderDispatcher) dispatch(ctx context.Context, deadline *model.ComplianceDeadline, threshold compliance.ReminderThreshold) error {
	provider, err := d.staffRepo.Get(ctx, deadline.ProviderID)
	if err != nil {
		return fmt.Errorf("failed to get provider: %w", err)
	}

	if err := d.notifier.SendDeadlineReminder(ctx, provider, deadline, threshold); err != nil {
		return err
	}

	// The flag write comes after the send: a crash between the two means
	// a duplicate reminder on the next pass, never a lost one.
	if err := d.deadlineRepo.MarkReminderSent(ctx, deadline.ID, threshold.String()); err != nil {
		return fmt.Errorf("failed to persist sent flag: %w", err)
	}
	markSent(deadline, threshold)

	payload, _ := json.Marshal(map[string]interface{}{
		"deadline_id": deadline.ID,
		"provider_id": deadline.ProviderID,
		"threshold":   threshold.String(),
	})
	d.events.Emit(ctx, model.EventTypeDeadlineReminder, payload)
	return nil
}

func (d *ReminderDispatcher) shouldEscalate(deadline model.ComplianceDeadline, c compliance.Classification) bool {
	if deadline.SupervisorNotified {
		return false
	}
	// Inside the 72h window by definition of the scan horizon; escalate
	// once the deadline is urgent or already blown.
	return c.Status == compliance.StatusOverdue || c.Status == compliance.StatusUrgent
}

func (d *ReminderDispatcher) escalate(ctx context.Context, deadline *model.ComplianceDeadline) error {
	rels, err := d.supervisionRepo.ListBySupervisee(ctx, deadline.ProviderID)
	if err != nil {
		return fmt.Errorf("failed to list supervision relationships: %w", err)
	}

	supervisorID, ok := d.scope.SupervisorOf(deadline.ProviderID, rels, d.now())
	if !ok {
		// Unsupervised providers have nobody to escalate to.
		return nil
	}

	supervisor, err := d.staffRepo.Get(ctx, supervisorID)
	if err != nil {
		return fmt.Errorf("failed to get supervisor: %w", err)
	}
	supervisee, err := d.staffRepo.Get(ctx, deadline.ProviderID)
	if err != nil {
		return fmt.Errorf("failed to get supervisee: %w", err)
	}

	if err := d.notifier.SendSupervisorEscalation(ctx, supervisor, supervisee, deadline); err != nil {
		return err
	}
	if err := d.deadlineRepo.MarkSupervisorNotified(ctx, deadline.ID); err != nil {
		return fmt.Errorf("failed to persist supervisor notified flag: %w", err)
	}
	deadline.SupervisorNotified = true
	d.metrics.EscalationsSent.Inc()

	payload, _ := json.Marshal(map[string]interface{}{
		"deadline_id":   deadline.ID,
		"provider_id":   deadline.ProviderID,
		"supervisor_id": supervisorID,
	})
	d.events.Emit(ctx, model.EventTypeDeadlineEscalation, payload)
	return nil
}

func markSent(d *model.ComplianceDeadline, t compliance.ReminderThreshold) {
	switch t {
	case compliance.Reminder72h:
		d.ReminderSent72h = true
	case compliance.Reminder48h:
		d.ReminderSent48h = true
	case compliance.Reminder24h:
		d.ReminderSent24h = true
	}
}
