package access

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Yi-Jacob/mentalspace-ehr-sub009/internal/authz"
	"github.com/Yi-Jacob/mentalspace-ehr-sub009/internal/model"
	"github.com/Yi-Jacob/mentalspace-ehr-sub009/internal/repository"
	"github.com/Yi-Jacob/mentalspace-ehr-sub009/internal/service/audit"
	"github.com/Yi-Jacob/mentalspace-ehr-sub009/internal/service/event"
	"github.com/Yi-Jacob/mentalspace-ehr-sub009/pkg/logger"
	"github.com/Yi-Jacob/mentalspace-ehr-sub009/pkg/metrics"
)

const (
	contextCacheTTL     = 30 * time.Second
	contextCacheCleanup = 5 * time.Minute
)

// Service fetches a requester's records, runs the decision engine over
// them, and handles the side effects the engine deliberately does not:
// audit rows and outbox events for denials, metrics for everything.
type Service struct {
	staffRepo       repository.StaffRepository
	supervisionRepo repository.SupervisionRepository
	engine          *authz.AccessDecisionEngine
	ctxCache        *cache.Cache
	auditor         *audit.Service
	events          *event.Service
	metrics         *metrics.Metrics
	logger          *logger.Logger
	now             func() time.Time
}

func NewService(
	staffRepo repository.StaffRepository,
	supervisionRepo repository.SupervisionRepository,
	auditor *audit.Service,
	events *event.Service,
	m *metrics.Metrics,
	log *logger.Logger,
) *Service {
	s := &Service{
		staffRepo:       staffRepo,
		supervisionRepo: supervisionRepo,
		ctxCache:        cache.New(contextCacheTTL, contextCacheCleanup),
		auditor:         auditor,
		events:          events,
		metrics:         m,
		logger:          log,
		now:             time.Now,
	}
	s.engine = authz.NewAccessDecisionEngine(func(rel model.SupervisionRelationship, reason string) {
		log.Warn("skipping malformed supervision relationship",
			"relationship_id", rel.ID.String(), "reason", reason)
	})
	return s
}

// Decide evaluates requester acting on target. The requester's roles and
// supervision edges are cached briefly so bursts of checks within one
// session do not hammer the database; the TTL bounds how stale a grant can
// be after a role change.
func (s *Service) Decide(ctx context.Context, requester, target uuid.UUID, action authz.Capability) (authz.AccessDecision, error) {
	timer := prometheus.NewTimer(s.metrics.DecisionLatency)
	defer timer.ObserveDuration()

	dctx, err := s.decisionContext(ctx, requester)
	if err != nil {
		return authz.AccessDecision{}, err
	}

	decision, err := s.engine.Decide(requester, target, action, dctx, s.now())
	if err != nil {
		return authz.AccessDecision{}, err
	}

	s.metrics.AccessDecisions.WithLabelValues(string(action), string(decision.Reason)).Inc()

	if !decision.Granted {
		s.recordDenial(ctx, requester, target, action, decision)
	}
	return decision, nil
}

// Invalidate drops the cached context after a role or supervision change
// so the next check sees fresh records.
func (s *Service) Invalidate(requester uuid.UUID) {
	s.ctxCache.Delete(requester.String())
}

func (s *Service) decisionContext(ctx context.Context, requester uuid.UUID) (authz.DecisionContext, error) {
	if cached, ok := s.ctxCache.Get(requester.String()); ok {
		return cached.(authz.DecisionContext), nil
	}

	names, err := s.staffRepo.GetRoles(ctx, requester)
	if err != nil {
		return authz.DecisionContext{}, fmt.Errorf("failed to get requester roles: %w", err)
	}
	roles, err := authz.ParseRoleSet(names)
	if err != nil {
		return authz.DecisionContext{}, fmt.Errorf("stored role assignment invalid: %w", err)
	}

	rels, err := s.supervisionRepo.ListBySupervisor(ctx, requester)
	if err != nil {
		return authz.DecisionContext{}, fmt.Errorf("failed to get supervision relationships: %w", err)
	}

	dctx := authz.DecisionContext{Roles: roles, Relationships: rels}
	s.ctxCache.Set(requester.String(), dctx, cache.DefaultExpiration)
	return dctx, nil
}

func (s *Service) recordDenial(ctx context.Context, requester, target uuid.UUID, action authz.Capability, decision authz.AccessDecision) {
	if err := s.auditor.Log(ctx, requester, uuid.Nil, model.AuditActionAccessDenied, model.AuditEntityAccess, target, &audit.LogOptions{
		Metadata: map[string]interface{}{
			"capability": action,
			"reason":     decision.Reason,
		},
	}); err != nil {
		s.logger.Error(err, "failed to audit access denial")
	}

	payload, err := json.Marshal(map[string]interface{}{
		"requester":  requester,
		"target":     target,
		"capability": action,
		"reason":     decision.Reason,
	})
	if err != nil {
		return
	}
	s.events.Emit(ctx, model.EventTypeAccessDenied, payload)
}
