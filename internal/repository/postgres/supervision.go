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

type supervisionRepository struct {
	db *sqlx.DB
}

func NewSupervisionRepository(db *sqlx.DB) repository.SupervisionRepository {
	return &supervisionRepository{db: db}
}

const supervisionColumns = `id, supervisor_id, supervisee_id, start_date, end_date, status, notes,
	created_at, updated_at, deleted_at`

func (r *supervisionRepository) Create(ctx context.Context, rel *model.SupervisionRelationship) error {
	query := `
		INSERT INTO supervision_relationships (id, supervisor_id, supervisee_id, start_date,
			end_date, status, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	rel.ID = uuid.New()
	rel.CreatedAt = time.Now()
	rel.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		rel.ID,
		rel.SupervisorID,
		rel.SuperviseeID,
		rel.StartDate,
		rel.EndDate,
		rel.Status,
		rel.Notes,
		rel.CreatedAt,
		rel.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create supervision relationship: %w", err)
	}
	return nil
}

func (r *supervisionRepository) Get(ctx context.Context, id uuid.UUID) (*model.SupervisionRelationship, error) {
	query := `
		SELECT ` + supervisionColumns + `
		FROM supervision_relationships
		WHERE id = $1 AND deleted_at IS NULL
	`
	var rel model.SupervisionRelationship
	if err := r.db.GetContext(ctx, &rel, query, id); err != nil {
		return nil, fmt.Errorf("failed to get supervision relationship: %w", err)
	}
	return &rel, nil
}

func (r *supervisionRepository) Update(ctx context.Context, rel *model.SupervisionRelationship) error {
	query := `
		UPDATE supervision_relationships
		SET start_date = $1, end_date = $2, status = $3, notes = $4, updated_at = $5
		WHERE id = $6 AND deleted_at IS NULL
	`
	rel.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		rel.StartDate,
		rel.EndDate,
		rel.Status,
		rel.Notes,
		rel.UpdatedAt,
		rel.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update supervision relationship: %w", err)
	}
	return requireRowsAffected(result, "supervision relationship")
}

func (r *supervisionRepository) ListBySupervisor(ctx context.Context, supervisorID uuid.UUID) ([]model.SupervisionRelationship, error) {
	query := `
		SELECT ` + supervisionColumns + `
		FROM supervision_relationships
		WHERE supervisor_id = $1 AND deleted_at IS NULL
		ORDER BY start_date DESC
	`
	var rels []model.SupervisionRelationship
	if err := r.db.SelectContext(ctx, &rels, query, supervisorID); err != nil {
		return nil, fmt.Errorf("failed to list relationships by supervisor: %w", err)
	}
	return rels, nil
}

func (r *supervisionRepository) ListBySupervisee(ctx context.Context, superviseeID uuid.UUID) ([]model.SupervisionRelationship, error) {
	query := `
		SELECT ` + supervisionColumns + `
		FROM supervision_relationships
		WHERE supervisee_id = $1 AND deleted_at IS NULL
		ORDER BY start_date DESC
	`
	var rels []model.SupervisionRelationship
	if err := r.db.SelectContext(ctx, &rels, query, superviseeID); err != nil {
		return nil, fmt.Errorf("failed to list relationships by supervisee: %w", err)
	}
	return rels, nil
}

func (r *supervisionRepository) ListForPractice(ctx context.Context, practiceID uuid.UUID) ([]model.SupervisionRelationship, error) {
	query := `
		SELECT r.id, r.supervisor_id, r.supervisee_id, r.start_date, r.end_date, r.status, r.notes,
			r.created_at, r.updated_at, r.deleted_at
		FROM supervision_relationships r
		JOIN staff_members s ON s.id = r.supervisor_id
		WHERE s.practice_id = $1 AND r.deleted_at IS NULL
		ORDER BY r.start_date DESC
	`
	var rels []model.SupervisionRelationship
	if err := r.db.SelectContext(ctx, &rels, query, practiceID); err != nil {
		return nil, fmt.Errorf("failed to list relationships for practice: %w", err)
	}
	return rels, nil
}
