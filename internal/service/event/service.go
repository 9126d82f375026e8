package event

import (
	"context"
	"encoding/json"

	"github.com/Yi-Jacob/mentalspace-ehr-sub009/internal/model"
	"github.com/Yi-Jacob/mentalspace-ehr-sub009/internal/repository"
	"github.com/Yi-Jacob/mentalspace-ehr-sub009/pkg/logger"
)

// Service writes domain events to the outbox table. The outbox processor
// publishes them to the broker out of band, so request handling never
// blocks on Redis.
type Service struct {
	repo   repository.OutboxRepository
	logger *logger.Logger
}

func NewService(repo repository.OutboxRepository, logger *logger.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Emit records an event. Failures are logged and swallowed: events are
// advisory and must never fail the request that produced them.
func (s *Service) Emit(ctx context.Context, eventType string, payload json.RawMessage) {
	event := &model.OutboxEvent{
		EventType: eventType,
		Payload:   payload,
	}
	if err := s.repo.Create(ctx, event); err != nil {
		s.logger.Error(err, "failed to write outbox event", "event_type", eventType)
	}
}
