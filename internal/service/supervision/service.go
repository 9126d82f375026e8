package supervision

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Yi-Jacob/mentalspace-ehr-sub009/internal/authz"
	"github.com/Yi-Jacob/mentalspace-ehr-sub009/internal/model"
	"github.com/Yi-Jacob/mentalspace-ehr-sub009/internal/repository"
	"github.com/Yi-Jacob/mentalspace-ehr-sub009/internal/service/audit"
	"github.com/Yi-Jacob/mentalspace-ehr-sub009/internal/service/event"
	apperrors "github.com/Yi-Jacob/mentalspace-ehr-sub009/pkg/errors"
)

type Service struct {
	repo    repository.SupervisionRepository
	scope   *authz.SupervisionScopeResolver
	auditor *audit.Service
	events  *event.Service
}

func NewService(repo repository.SupervisionRepository, scope *authz.SupervisionScopeResolver, auditor *audit.Service, events *event.Service) *Service {
	return &Service{
		repo:    repo,
		scope:   scope,
		auditor: auditor,
		events:  events,
	}
}

// Create links a supervisor/supervisee pair. The one-active-relationship
// invariant is enforced here, at creation: the scope resolver downstream
// tolerates violations but the write path must not produce them.
func (s *Service) Create(ctx context.Context, rel *model.SupervisionRelationship, actor, practiceID uuid.UUID) error {
	if err := s.validate(rel); err != nil {
		return fmt.Errorf("invalid supervision relationship: %w", err)
	}

	if rel.Status == model.SupervisionStatusActive {
		existing, err := s.repo.ListBySupervisee(ctx, rel.SuperviseeID)
		if err != nil {
			return fmt.Errorf("failed to check existing relationships: %w", err)
		}
		now := time.Now()
		if supervisor, ok := s.scope.SupervisorOf(rel.SuperviseeID, existing, now); ok {
			return apperrors.Conflict(fmt.Sprintf("supervisee already has an active supervisor (%s)", supervisor), nil)
		}
	}

	if err := s.repo.Create(ctx, rel); err != nil {
		return fmt.Errorf("failed to create supervision relationship: %w", err)
	}

	s.auditor.Log(ctx, actor, practiceID, model.AuditActionCreate, model.AuditEntitySupervision, rel.ID, &audit.LogOptions{
		Changes: rel,
	})
	payload, _ := json.Marshal(rel)
	s.events.Emit(ctx, model.EventTypeSupervisionChanged, payload)
	return nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.SupervisionRelationship, error) {
	rel, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get supervision relationship: %w", err)
	}
	return rel, nil
}

// Terminate ends a relationship as of endDate. The end date is exclusive,
// matching the resolver's [start, end) window.
func (s *Service) Terminate(ctx context.Context, id uuid.UUID, endDate time.Time, actor, practiceID uuid.UUID) error {
	rel, err := s.repo.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get supervision relationship: %w", err)
	}
	if rel.Status == model.SupervisionStatusTerminated {
		return apperrors.Conflict("relationship already terminated", nil)
	}
	if endDate.Before(rel.StartDate) {
		return fmt.Errorf("end date %s precedes start date %s", endDate.Format(time.RFC3339), rel.StartDate.Format(time.RFC3339))
	}

	rel.Status = model.SupervisionStatusTerminated
	rel.EndDate = &endDate
	if err := s.repo.Update(ctx, rel); err != nil {
		return fmt.Errorf("failed to terminate supervision relationship: %w", err)
	}

	s.auditor.Log(ctx, actor, practiceID, model.AuditActionUpdate, model.AuditEntitySupervision, id, &audit.LogOptions{
		Changes: map[string]interface{}{"status": rel.Status, "end_date": endDate},
	})
	payload, _ := json.Marshal(rel)
	s.events.Emit(ctx, model.EventTypeSupervisionChanged, payload)
	return nil
}

// Supervisees resolves the supervisor's current scope from the stored
// relationship rows.
func (s *Service) Supervisees(ctx context.Context, supervisorID uuid.UUID, asOf time.Time) ([]uuid.UUID, error) {
	rels, err := s.repo.ListBySupervisor(ctx, supervisorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list relationships: %w", err)
	}
	scope := s.scope.SuperviseesOf(supervisorID, rels, asOf)
	out := make([]uuid.UUID, 0, len(scope))
	for id := range scope {
		out = append(out, id)
	}
	return out, nil
}

// SupervisorFor returns the active supervisor of a supervisee, if any.
func (s *Service) SupervisorFor(ctx context.Context, superviseeID uuid.UUID, asOf time.Time) (uuid.UUID, bool, error) {
	rels, err := s.repo.ListBySupervisee(ctx, superviseeID)
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("failed to list relationships: %w", err)
	}
	id, ok := s.scope.SupervisorOf(superviseeID, rels, asOf)
	return id, ok, nil
}

func (s *Service) ListForPractice(ctx context.Context, practiceID uuid.UUID) ([]model.SupervisionRelationship, error) {
	rels, err := s.repo.ListForPractice(ctx, practiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list relationships: %w", err)
	}
	return rels, nil
}

func (s *Service) validate(rel *model.SupervisionRelationship) error {
	if rel.SupervisorID == uuid.Nil {
		return fmt.Errorf("supervisor id is required")
	}
	if rel.SuperviseeID == uuid.Nil {
		return fmt.Errorf("supervisee id is required")
	}
	if rel.SupervisorID == rel.SuperviseeID {
		return fmt.Errorf("supervisor and supervisee must differ")
	}
	if rel.StartDate.IsZero() {
		return fmt.Errorf("start date is required")
	}
	if rel.EndDate != nil && rel.EndDate.Before(rel.StartDate) {
		return fmt.Errorf("end date precedes start date")
	}
	switch rel.Status {
	case model.SupervisionStatusActive, model.SupervisionStatusPending, model.SupervisionStatusTerminated:
	case "":
		rel.Status = model.SupervisionStatusActive
	default:
		return fmt.Errorf("unknown status: %q", rel.Status)
	}
	return nil
}
