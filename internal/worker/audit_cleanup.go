package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/Yi-Jacob/mentalspace-ehr-sub009/internal/repository"
	"github.com/Yi-Jacob/mentalspace-ehr-sub009/pkg/logger"
)

// AuditCleanupWorker prunes audit rows past the retention window.
type AuditCleanupWorker struct {
	repo          repository.AuditRepository
	logger        *logger.Logger
	retentionDays int
	interval      time.Duration
}

func NewAuditCleanupWorker(repo repository.AuditRepository, log *logger.Logger, retentionDays int, interval time.Duration) *AuditCleanupWorker {
	return &AuditCleanupWorker{
		repo:          repo,
		logger:        log,
		retentionDays: retentionDays,
		interval:      interval,
	}
}

func (w *AuditCleanupWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.cleanup(ctx); err != nil {
				w.logger.Error(err, "audit cleanup failed")
			}
		}
	}
}

func (w *AuditCleanupWorker) cleanup(ctx context.Context) error {
	cutoff := time.Now().AddDate(0, 0, -w.retentionDays)

	rows, err := w.repo.Cleanup(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("failed to cleanup audit logs: %w", err)
	}

	w.logger.Info("cleaned up audit logs", "rows", rows, "cutoff", cutoff.Format(time.RFC3339))
	return nil
}
