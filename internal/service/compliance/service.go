package compliance

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Yi-Jacob/mentalspace-ehr-sub009/internal/compliance"
	"github.com/Yi-Jacob/mentalspace-ehr-sub009/internal/model"
	"github.com/Yi-Jacob/mentalspace-ehr-sub009/internal/repository"
	"github.com/Yi-Jacob/mentalspace-ehr-sub009/internal/service/audit"
	apperrors "github.com/Yi-Jacob/mentalspace-ehr-sub009/pkg/errors"
)

// ClassifiedDeadline pairs a stored row with its computed classification
// for dashboard rendering.
type ClassifiedDeadline struct {
	model.ComplianceDeadline
	Status       compliance.Status              `json:"status"`
	DueReminders []compliance.ReminderThreshold `json:"due_reminders,omitempty"`
}

type Service struct {
	repo    repository.DeadlineRepository
	auditor *audit.Service
	now     func() time.Time
}

func NewService(repo repository.DeadlineRepository, auditor *audit.Service) *Service {
	return &Service{
		repo:    repo,
		auditor: auditor,
		now:     time.Now,
	}
}

func (s *Service) Create(ctx context.Context, d *model.ComplianceDeadline, actor uuid.UUID) error {
	if d.DeadlineDate.IsZero() {
		return fmt.Errorf("deadline date is required")
	}
	if err := s.repo.Create(ctx, d); err != nil {
		return fmt.Errorf("failed to create deadline: %w", err)
	}
	s.auditor.Log(ctx, actor, d.PracticeID, model.AuditActionCreate, model.AuditEntityDeadline, d.ID, &audit.LogOptions{
		Changes: d,
	})
	return nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*ClassifiedDeadline, error) {
	d, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get deadline: %w", err)
	}
	c := compliance.Classify(*d, s.now())
	return &ClassifiedDeadline{ComplianceDeadline: *d, Status: c.Status, DueReminders: c.DueReminders}, nil
}

// List returns the practice's deadlines with computed status, optionally
// filtered to one status (the dashboard's ?status=overdue view).
func (s *Service) List(ctx context.Context, practiceID uuid.UUID, statusFilter string) ([]ClassifiedDeadline, error) {
	rows, err := s.repo.List(ctx, practiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list deadlines: %w", err)
	}

	now := s.now()
	out := make([]ClassifiedDeadline, 0, len(rows))
	for _, d := range rows {
		c := compliance.Classify(d, now)
		if statusFilter != "" && string(c.Status) != statusFilter {
			continue
		}
		out = append(out, ClassifiedDeadline{ComplianceDeadline: d, Status: c.Status, DueReminders: c.DueReminders})
	}
	return out, nil
}

func (s *Service) ListByProvider(ctx context.Context, providerID uuid.UUID) ([]ClassifiedDeadline, error) {
	rows, err := s.repo.ListByProvider(ctx, providerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list deadlines: %w", err)
	}
	now := s.now()
	out := make([]ClassifiedDeadline, 0, len(rows))
	for _, d := range rows {
		c := compliance.Classify(d, now)
		out = append(out, ClassifiedDeadline{ComplianceDeadline: d, Status: c.Status, DueReminders: c.DueReminders})
	}
	return out, nil
}

// MarkMet records that the documentation obligation was satisfied. The
// repository only flips unmet rows, so the false->true transition happens
// exactly once.
func (s *Service) MarkMet(ctx context.Context, id uuid.UUID, actor uuid.UUID) error {
	d, err := s.repo.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get deadline: %w", err)
	}
	if d.IsMet {
		return apperrors.Conflict("deadline already met", nil)
	}
	if err := s.repo.MarkMet(ctx, id, s.now()); err != nil {
		return fmt.Errorf("failed to mark deadline met: %w", err)
	}
	s.auditor.Log(ctx, actor, d.PracticeID, model.AuditActionUpdate, model.AuditEntityDeadline, id, &audit.LogOptions{
		Changes: map[string]interface{}{"is_met": true},
	})
	return nil
}
