package staff

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/Yi-Jacob/mentalspace-ehr-sub009/internal/authz"
	"github.com/Yi-Jacob/mentalspace-ehr-sub009/internal/model"
	"github.com/Yi-Jacob/mentalspace-ehr-sub009/internal/repository"
	"github.com/Yi-Jacob/mentalspace-ehr-sub009/internal/service/audit"
	"github.com/Yi-Jacob/mentalspace-ehr-sub009/internal/service/event"
	apperrors "github.com/Yi-Jacob/mentalspace-ehr-sub009/pkg/errors"
	"github.com/Yi-Jacob/mentalspace-ehr-sub009/pkg/security"
)

type Service struct {
	repo    repository.StaffRepository
	hasher  security.PasswordHasher
	auditor *audit.Service
	events  *event.Service
}

func NewService(repo repository.StaffRepository, hasher security.PasswordHasher, auditor *audit.Service, events *event.Service) *Service {
	return &Service{
		repo:    repo,
		hasher:  hasher,
		auditor: auditor,
		events:  events,
	}
}

func (s *Service) Create(ctx context.Context, staff *model.StaffMember, password string, actor uuid.UUID) error {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("invalid password: %w", err)
	}
	staff.PasswordHash = hash
	if staff.Status == "" {
		staff.Status = model.StaffStatusActive
	}

	if err := s.repo.Create(ctx, staff); err != nil {
		return fmt.Errorf("failed to create staff member: %w", err)
	}

	s.auditor.Log(ctx, actor, staff.PracticeID, model.AuditActionCreate, model.AuditEntityStaff, staff.ID, &audit.LogOptions{
		Changes: staff,
	})
	return nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.StaffMember, error) {
	staff, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get staff member: %w", err)
	}
	return staff, nil
}

func (s *Service) List(ctx context.Context, practiceID uuid.UUID) ([]*model.StaffMember, error) {
	staff, err := s.repo.List(ctx, practiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list staff: %w", err)
	}
	return staff, nil
}

func (s *Service) Update(ctx context.Context, staff *model.StaffMember, actor uuid.UUID) error {
	if err := s.repo.Update(ctx, staff); err != nil {
		return fmt.Errorf("failed to update staff member: %w", err)
	}
	s.auditor.Log(ctx, actor, staff.PracticeID, model.AuditActionUpdate, model.AuditEntityStaff, staff.ID, &audit.LogOptions{
		Changes: staff,
	})
	return nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID, actor uuid.UUID) error {
	staff, err := s.repo.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get staff member: %w", err)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete staff member: %w", err)
	}
	s.auditor.Log(ctx, actor, staff.PracticeID, model.AuditActionDelete, model.AuditEntityStaff, id, nil)
	return nil
}

// Roles returns the member's validated role set. An unparseable stored
// role fails loudly here; it means bad seed data, not a deny.
func (s *Service) Roles(ctx context.Context, staffID uuid.UUID) (authz.RoleSet, error) {
	names, err := s.repo.GetRoles(ctx, staffID)
	if err != nil {
		return nil, fmt.Errorf("failed to get roles: %w", err)
	}
	set, err := authz.ParseRoleSet(names)
	if err != nil {
		return nil, fmt.Errorf("stored role assignment invalid: %w", err)
	}
	return set, nil
}

// AssignRole validates the role against the enumeration and enforces the
// Clinical Administrator co-requisite at write time: the role only goes on
// if Clinician is already present (or is the role being assigned).
func (s *Service) AssignRole(ctx context.Context, staffID uuid.UUID, roleName string, actor uuid.UUID) error {
	role, err := authz.ParseRole(roleName)
	if err != nil {
		return err
	}

	current, err := s.Roles(ctx, staffID)
	if err != nil {
		return err
	}

	if role == authz.RoleClinicalAdministrator && !current.Has(authz.RoleClinician) {
		return apperrors.Conflict(fmt.Sprintf("cannot assign %s: member must hold %s first", authz.RoleClinicalAdministrator, authz.RoleClinician), nil)
	}

	assignment := &model.RoleAssignment{
		StaffID:    staffID,
		Role:       string(role),
		AssignedBy: actor,
	}
	if err := s.repo.AssignRole(ctx, assignment); err != nil {
		return fmt.Errorf("failed to assign role: %w", err)
	}

	staff, err := s.repo.Get(ctx, staffID)
	if err == nil {
		s.auditor.Log(ctx, actor, staff.PracticeID, model.AuditActionUpdate, model.AuditEntityRole, staffID, &audit.LogOptions{
			Changes: map[string]interface{}{"assigned": role},
		})
	}

	payload, _ := json.Marshal(map[string]interface{}{"staff_id": staffID, "role": role, "op": "assign"})
	s.events.Emit(ctx, model.EventTypeRoleChanged, payload)
	return nil
}

// RemoveRole rejects removals that would orphan a co-requisite: Clinician
// cannot come off while Clinical Administrator stays.
func (s *Service) RemoveRole(ctx context.Context, staffID uuid.UUID, roleName string, actor uuid.UUID) error {
	role, err := authz.ParseRole(roleName)
	if err != nil {
		return err
	}

	current, err := s.Roles(ctx, staffID)
	if err != nil {
		return err
	}

	if role == authz.RoleClinician && current.Has(authz.RoleClinicalAdministrator) {
		return apperrors.Conflict(fmt.Sprintf("cannot remove %s while member holds %s", authz.RoleClinician, authz.RoleClinicalAdministrator), nil)
	}

	if err := s.repo.RemoveRole(ctx, staffID, string(role)); err != nil {
		return fmt.Errorf("failed to remove role: %w", err)
	}

	staff, err := s.repo.Get(ctx, staffID)
	if err == nil {
		s.auditor.Log(ctx, actor, staff.PracticeID, model.AuditActionUpdate, model.AuditEntityRole, staffID, &audit.LogOptions{
			Changes: map[string]interface{}{"removed": role},
		})
	}

	payload, _ := json.Marshal(map[string]interface{}{"staff_id": staffID, "role": role, "op": "remove"})
	s.events.Emit(ctx, model.EventTypeRoleChanged, payload)
	return nil
}
