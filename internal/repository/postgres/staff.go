package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Yi-Jacob/mentalspace-ehr-sub009/internal/model"
	"github.com/Yi-Jacob/mentalspace-ehr-sub009/internal/repository"
)

type staffRepository struct {
	db *sqlx.DB
}

func NewStaffRepository(db *sqlx.DB) repository.StaffRepository {
	return &staffRepository{db: db}
}

func (r *staffRepository) Create(ctx context.Context, staff *model.StaffMember) error {
	query := `
		INSERT INTO staff_members (id, practice_id, first_name, last_name, email, password_hash,
			license_number, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	staff.ID = uuid.New()
	staff.CreatedAt = time.Now()
	staff.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		staff.ID,
		staff.PracticeID,
		staff.FirstName,
		staff.LastName,
		staff.Email,
		staff.PasswordHash,
		staff.LicenseNumber,
		staff.Status,
		staff.CreatedAt,
		staff.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create staff member: %w", err)
	}
	return nil
}

func (r *staffRepository) Get(ctx context.Context, id uuid.UUID) (*model.StaffMember, error) {
	query := `
		SELECT id, practice_id, first_name, last_name, email, password_hash, license_number,
			status, login_attempts, last_login_attempt, last_login_at, created_at, updated_at, deleted_at
		FROM staff_members
		WHERE id = $1 AND deleted_at IS NULL
	`
	var staff model.StaffMember
	if err := r.db.GetContext(ctx, &staff, query, id); err != nil {
		return nil, fmt.Errorf("failed to get staff member: %w", err)
	}
	return &staff, nil
}

func (r *staffRepository) GetByEmail(ctx context.Context, email string) (*model.StaffMember, error) {
	query := `
		SELECT id, practice_id, first_name, last_name, email, password_hash, license_number,
			status, login_attempts, last_login_attempt, last_login_at, created_at, updated_at, deleted_at
		FROM staff_members
		WHERE email = $1 AND deleted_at IS NULL
	`
	var staff model.StaffMember
	if err := r.db.GetContext(ctx, &staff, query, email); err != nil {
		return nil, fmt.Errorf("failed to get staff member by email: %w", err)
	}
	return &staff, nil
}

func (r *staffRepository) List(ctx context.Context, practiceID uuid.UUID) ([]*model.StaffMember, error) {
	query := `
		SELECT id, practice_id, first_name, last_name, email, password_hash, license_number,
			status, login_attempts, last_login_attempt, last_login_at, created_at, updated_at, deleted_at
		FROM staff_members
		WHERE practice_id = $1 AND deleted_at IS NULL
		ORDER BY last_name, first_name
	`
	var staff []*model.StaffMember
	if err := r.db.SelectContext(ctx, &staff, query, practiceID); err != nil {
		return nil, fmt.Errorf("failed to list staff members: %w", err)
	}
	return staff, nil
}

func (r *staffRepository) Update(ctx context.Context, staff *model.StaffMember) error {
	query := `
		UPDATE staff_members
		SET first_name = $1, last_name = $2, email = $3, password_hash = $4, license_number = $5,
			status = $6, login_attempts = $7, last_login_attempt = $8, last_login_at = $9, updated_at = $10
		WHERE id = $11 AND deleted_at IS NULL
	`
	staff.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		staff.FirstName,
		staff.LastName,
		staff.Email,
		staff.PasswordHash,
		staff.LicenseNumber,
		staff.Status,
		staff.LoginAttempts,
		staff.LastLoginAttempt,
		staff.LastLoginAt,
		staff.UpdatedAt,
		staff.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update staff member: %w", err)
	}
	return requireRowsAffected(result, "staff member")
}

func (r *staffRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE staff_members
		SET deleted_at = $1, updated_at = $1
		WHERE id = $2 AND deleted_at IS NULL
	`
	result, err := r.db.ExecContext(ctx, query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete staff member: %w", err)
	}
	return requireRowsAffected(result, "staff member")
}

func (r *staffRepository) GetRoles(ctx context.Context, staffID uuid.UUID) ([]string, error) {
	query := `
		SELECT role FROM role_assignments
		WHERE staff_id = $1
		ORDER BY role
	`
	var roles []string
	if err := r.db.SelectContext(ctx, &roles, query, staffID); err != nil {
		return nil, fmt.Errorf("failed to get staff roles: %w", err)
	}
	return roles, nil
}

func (r *staffRepository) AssignRole(ctx context.Context, assignment *model.RoleAssignment) error {
	query := `
		INSERT INTO role_assignments (id, staff_id, role, assigned_by, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (staff_id, role) DO NOTHING
	`
	assignment.ID = uuid.New()
	assignment.CreatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		assignment.ID,
		assignment.StaffID,
		assignment.Role,
		assignment.AssignedBy,
		assignment.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to assign role: %w", err)
	}
	return nil
}

func (r *staffRepository) RemoveRole(ctx context.Context, staffID uuid.UUID, role string) error {
	query := `
		DELETE FROM role_assignments
		WHERE staff_id = $1 AND role = $2
	`
	result, err := r.db.ExecContext(ctx, query, staffID, role)
	if err != nil {
		return fmt.Errorf("failed to remove role: %w", err)
	}
	return requireRowsAffected(result, "role assignment")
}

func requireRowsAffected(result sql.Result, resource string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return errors.New(resource + " not found")
	}
	return nil
}
