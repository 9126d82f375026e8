package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/Yi-Jacob/mentalspace-ehr-sub009/internal/model"
	"github.com/Yi-Jacob/mentalspace-ehr-sub009/internal/repository"
	"github.com/Yi-Jacob/mentalspace-ehr-sub009/pkg/logger"
	"github.com/Yi-Jacob/mentalspace-ehr-sub009/pkg/messaging"
	"github.com/Yi-Jacob/mentalspace-ehr-sub009/pkg/metrics"
)

const eventsTopic = "events"

// OutboxProcessor drains the outbox table and publishes events to the
// broker. Publication is at-least-once: a row is only marked processed
// after a successful publish.
type OutboxProcessor struct {
	repo       repository.OutboxRepository
	broker     messaging.Broker
	logger     *logger.Logger
	metrics    *metrics.Metrics
	interval   time.Duration
	batchSize  int
	maxRetries int
}

func NewOutboxProcessor(repo repository.OutboxRepository, broker messaging.Broker, log *logger.Logger, m *metrics.Metrics) *OutboxProcessor {
	return &OutboxProcessor{
		repo:       repo,
		broker:     broker,
		logger:     log,
		metrics:    m,
		interval:   5 * time.Second,
		batchSize:  100,
		maxRetries: 3,
	}
}

func (p *OutboxProcessor) Start(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.logger.Info("starting outbox processor", "interval", p.interval.String())

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("shutting down outbox processor")
			return
		case <-ticker.C:
			if err := p.processBatch(ctx); err != nil {
				p.logger.Error(err, "outbox batch failed")
			}
		}
	}
}

func (p *OutboxProcessor) processBatch(ctx context.Context) error {
	events, err := p.repo.GetPendingEvents(ctx, p.batchSize)
	if err != nil {
		return fmt.Errorf("failed to get pending events: %w", err)
	}

	for _, evt := range events {
		if err := p.publish(ctx, evt); err != nil {
			p.metrics.OutboxEventsFailed.Inc()
			p.logger.Error(err, "failed to publish event", "event_id", evt.ID.String(), "event_type", evt.EventType)

			msg := err.Error()
			if uerr := p.repo.UpdateStatus(ctx, evt.ID, model.OutboxStatusFailed, &msg); uerr != nil {
				p.logger.Error(uerr, "failed to mark event failed", "event_id", evt.ID.String())
			}
			continue
		}

		if err := p.repo.UpdateStatus(ctx, evt.ID, model.OutboxStatusProcessed, nil); err != nil {
			p.logger.Error(err, "failed to mark event processed", "event_id", evt.ID.String())
			continue
		}
		p.metrics.OutboxEventsProcessed.Inc()
	}
	return nil
}

func (p *OutboxProcessor) publish(ctx context.Context, evt *model.OutboxEvent) error {
	var err error
	for attempt := 0; attempt < p.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * time.Second):
			}
		}

		err = p.broker.Publish(ctx, eventsTopic, map[string]interface{}{
			"type":    evt.EventType,
			"payload": evt.Payload,
		})
		if err == nil {
			return nil
		}
		p.logger.Warn("retrying event publish", "event_id", evt.ID.String(), "attempt", attempt+1)
	}
	return err
}
