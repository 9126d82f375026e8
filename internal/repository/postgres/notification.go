package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Yi-Jacob/mentalspace-ehr-sub009/internal/model"
	"github.com/Yi-Jacob/mentalspace-ehr-sub009/internal/repository"
)

type notificationRepository struct {
	db *sqlx.DB
}

func NewNotificationRepository(db *sqlx.DB) repository.NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, n *model.Notification) error {
	query := `
		INSERT INTO notifications (id, staff_id, practice_id, deadline_id, type, subject,
			content, recipient, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	n.ID = uuid.New()
	n.CreatedAt = time.Now()
	n.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		n.ID,
		n.StaffID,
		n.PracticeID,
		n.DeadlineID,
		n.Type,
		n.Subject,
		n.Content,
		n.Recipient,
		n.Status,
		n.CreatedAt,
		n.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

func (r *notificationRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.NotificationStatus, lastError *string, sentAt *time.Time) error {
	query := `
		UPDATE notifications
		SET status = $1, last_error = $2, sent_at = $3, updated_at = $4
		WHERE id = $5
	`
	result, err := r.db.ExecContext(ctx, query, status, lastError, sentAt, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update notification status: %w", err)
	}
	return requireRowsAffected(result, "notification")
}

func (r *notificationRepository) ListByStaff(ctx context.Context, staffID uuid.UUID) ([]*model.Notification, error) {
	query := `
		SELECT id, staff_id, practice_id, deadline_id, type, subject, content, recipient,
			status, last_error, sent_at, created_at, updated_at
		FROM notifications
		WHERE staff_id = $1
		ORDER BY created_at DESC
	`
	var out []*model.Notification
	if err := r.db.SelectContext(ctx, &out, query, staffID); err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return out, nil
}
