package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Yi-Jacob/mentalspace-ehr-sub009/internal/model"
)

type StaffRepository interface {
	Create(ctx context.Context, staff *model.StaffMember) error
	Get(ctx context.Context, id uuid.UUID) (*model.StaffMember, error)
	GetByEmail(ctx context.Context, email string) (*model.StaffMember, error)
	List(ctx context.Context, practiceID uuid.UUID) ([]*model.StaffMember, error)
	Update(ctx context.Context, staff *model.StaffMember) error
	Delete(ctx context.Context, id uuid.UUID) error

	GetRoles(ctx context.Context, staffID uuid.UUID) ([]string, error)
	AssignRole(ctx context.Context, assignment *model.RoleAssignment) error
	RemoveRole(ctx context.Context, staffID uuid.UUID, role string) error
}

type SupervisionRepository interface {
	Create(ctx context.Context, rel *model.SupervisionRelationship) error
	Get(ctx context.Context, id uuid.UUID) (*model.SupervisionRelationship, error)
	Update(ctx context.Context, rel *model.SupervisionRelationship) error
	ListBySupervisor(ctx context.Context, supervisorID uuid.UUID) ([]model.SupervisionRelationship, error)
	ListBySupervisee(ctx context.Context, superviseeID uuid.UUID) ([]model.SupervisionRelationship, error)
	ListForPractice(ctx context.Context, practiceID uuid.UUID) ([]model.SupervisionRelationship, error)
}

type DeadlineRepository interface {
	Create(ctx context.Context, d *model.ComplianceDeadline) error
	Get(ctx context.Context, id uuid.UUID) (*model.ComplianceDeadline, error)
	List(ctx context.Context, practiceID uuid.UUID) ([]model.ComplianceDeadline, error)
	ListByProvider(ctx context.Context, providerID uuid.UUID) ([]model.ComplianceDeadline, error)

	// ListUnmetDueWithin returns unmet deadlines whose deadline date is at
	// or before the horizon, including ones already past due.
	ListUnmetDueWithin(ctx context.Context, horizon time.Time) ([]model.ComplianceDeadline, error)

	MarkMet(ctx context.Context, id uuid.UUID, metAt time.Time) error
	MarkReminderSent(ctx context.Context, id uuid.UUID, threshold string) error
	MarkSupervisorNotified(ctx context.Context, id uuid.UUID) error
}

type AuditRepository interface {
	Create(ctx context.Context, log *model.AuditLog) error
	List(ctx context.Context, practiceID uuid.UUID, p model.Pagination) ([]*model.AuditLog, error)
	Cleanup(ctx context.Context, before time.Time) (int64, error)
}

type NotificationRepository interface {
	Create(ctx context.Context, n *model.Notification) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.NotificationStatus, lastError *string, sentAt *time.Time) error
	ListByStaff(ctx context.Context, staffID uuid.UUID) ([]*model.Notification, error)
}

type OutboxRepository interface {
	Create(ctx context.Context, event *model.OutboxEvent) error
	GetPendingEvents(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.OutboxStatus, errorMessage *string) error
}
