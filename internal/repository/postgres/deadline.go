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

type deadlineRepository struct {
	db *sqlx.DB
}

func NewDeadlineRepository(db *sqlx.DB) repository.DeadlineRepository {
	return &deadlineRepository{db: db}
}

const deadlineColumns = `id, practice_id, provider_id, note_type, deadline_date, is_met, met_at,
	notes_pending, notes_completed, reminder_sent_24h, reminder_sent_48h, reminder_sent_72h,
	supervisor_notified, created_at, updated_at, deleted_at`

func (r *deadlineRepository) Create(ctx context.Context, d *model.ComplianceDeadline) error {
	query := `
		INSERT INTO compliance_deadlines (id, practice_id, provider_id, note_type, deadline_date,
			is_met, notes_pending, notes_completed, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	d.ID = uuid.New()
	d.CreatedAt = time.Now()
	d.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		d.ID,
		d.PracticeID,
		d.ProviderID,
		d.NoteType,
		d.DeadlineDate,
		d.IsMet,
		d.NotesPending,
		d.NotesCompleted,
		d.CreatedAt,
		d.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create compliance deadline: %w", err)
	}
	return nil
}

func (r *deadlineRepository) Get(ctx context.Context, id uuid.UUID) (*model.ComplianceDeadline, error) {
	query := `
		SELECT ` + deadlineColumns + `
		FROM compliance_deadlines
		WHERE id = $1 AND deleted_at IS NULL
	`
	var d model.ComplianceDeadline
	if err := r.db.GetContext(ctx, &d, query, id); err != nil {
		return nil, fmt.Errorf("failed to get compliance deadline: %w", err)
	}
	return &d, nil
}

func (r *deadlineRepository) List(ctx context.Context, practiceID uuid.UUID) ([]model.ComplianceDeadline, error) {
	query := `
		SELECT ` + deadlineColumns + `
		FROM compliance_deadlines
		WHERE practice_id = $1 AND deleted_at IS NULL
		ORDER BY deadline_date
	`
	var out []model.ComplianceDeadline
	if err := r.db.SelectContext(ctx, &out, query, practiceID); err != nil {
		return nil, fmt.Errorf("failed to list compliance deadlines: %w", err)
	}
	return out, nil
}

func (r *deadlineRepository) ListByProvider(ctx context.Context, providerID uuid.UUID) ([]model.ComplianceDeadline, error) {
	query := `
		SELECT ` + deadlineColumns + `
		FROM compliance_deadlines
		WHERE provider_id = $1 AND deleted_at IS NULL
		ORDER BY deadline_date
	`
	var out []model.ComplianceDeadline
	if err := r.db.SelectContext(ctx, &out, query, providerID); err != nil {
		return nil, fmt.Errorf("failed to list deadlines by provider: %w", err)
	}
	return out, nil
}

func (r *deadlineRepository) ListUnmetDueWithin(ctx context.Context, horizon time.Time) ([]model.ComplianceDeadline, error) {
	query := `
		SELECT ` + deadlineColumns + `
		FROM compliance_deadlines
		WHERE is_met = FALSE AND deadline_date <= $1 AND deleted_at IS NULL
		ORDER BY deadline_date
	`
	var out []model.ComplianceDeadline
	if err := r.db.SelectContext(ctx, &out, query, horizon); err != nil {
		return nil, fmt.Errorf("failed to list unmet deadlines: %w", err)
	}
	return out, nil
}

func (r *deadlineRepository) MarkMet(ctx context.Context, id uuid.UUID, metAt time.Time) error {
	query := `
		UPDATE compliance_deadlines
		SET is_met = TRUE, met_at = $1, updated_at = $1
		WHERE id = $2 AND is_met = FALSE AND deleted_at IS NULL
	`
	result, err := r.db.ExecContext(ctx, query, metAt, id)
	if err != nil {
		return fmt.Errorf("failed to mark deadline met: %w", err)
	}
	return requireRowsAffected(result, "compliance deadline")
}

// MarkReminderSent flips one of the three sent flags. The WHERE clause
// keeps the write idempotent: a second dispatcher racing on the same row
// affects zero rows and reports a conflict instead of double-sending
// silently.
func (r *deadlineRepository) MarkReminderSent(ctx context.Context, id uuid.UUID, threshold string) error {
	var column string
	switch threshold {
	case "24h":
		column = "reminder_sent_24h"
	case "48h":
		column = "reminder_sent_48h"
	case "72h":
		column = "reminder_sent_72h"
	default:
		return fmt.Errorf("unknown reminder threshold: %q", threshold)
	}

	query := fmt.Sprintf(`
		UPDATE compliance_deadlines
		SET %s = TRUE, updated_at = $1
		WHERE id = $2 AND %s = FALSE AND deleted_at IS NULL
	`, column, column)

	result, err := r.db.ExecContext(ctx, query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to mark reminder sent: %w", err)
	}
	return requireRowsAffected(result, "compliance deadline")
}

func (r *deadlineRepository) MarkSupervisorNotified(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE compliance_deadlines
		SET supervisor_notified = TRUE, updated_at = $1
		WHERE id = $2 AND supervisor_notified = FALSE AND deleted_at IS NULL
	`
	result, err := r.db.ExecContext(ctx, query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to mark supervisor notified: %w", err)
	}
	return requireRowsAffected(result, "compliance deadline")
}
