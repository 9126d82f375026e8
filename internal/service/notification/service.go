package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/Yi-Jacob/mentalspace-ehr-sub009/internal/compliance"
	"github.com/Yi-Jacob/mentalspace-ehr-sub009/internal/email"
	"github.com/Yi-Jacob/mentalspace-ehr-sub009/internal/model"
	"github.com/Yi-Jacob/mentalspace-ehr-sub009/internal/repository"
	"github.com/Yi-Jacob/mentalspace-ehr-sub009/pkg/logger"
)

// Service sends deadline reminders and supervisor escalations, recording
// each attempt as a notification row. Persisting the deadline's sent flag
// afterwards is the caller's responsibility, which keeps the flag write
// next to the classification that requested it.
type Service struct {
	repo     repository.NotificationRepository
	emailSvc email.Service
	logger   *logger.Logger
}

func NewService(repo repository.NotificationRepository, emailSvc email.Service, log *logger.Logger) *Service {
	return &Service{
		repo:     repo,
		emailSvc: emailSvc,
		logger:   log,
	}
}

func (s *Service) SendDeadlineReminder(ctx context.Context, provider *model.StaffMember, d *model.ComplianceDeadline, threshold compliance.ReminderThreshold) error {
	n := &model.Notification{
		StaffID:    provider.ID,
		PracticeID: d.PracticeID,
		DeadlineID: &d.ID,
		Type:       model.NotificationTypeDeadlineReminder,
		Subject:    fmt.Sprintf("%s reminder: %s note due", threshold, d.NoteType),
		Recipient:  provider.Email,
		Status:     model.NotificationStatusPending,
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return fmt.Errorf("failed to record notification: %w", err)
	}

	err := s.emailSvc.SendDeadlineReminder(ctx, provider.Email, provider.FirstName, d.NoteType, d.DeadlineDate, threshold.String())
	return s.finish(ctx, n, err)
}

func (s *Service) SendSupervisorEscalation(ctx context.Context, supervisor, supervisee *model.StaffMember, d *model.ComplianceDeadline) error {
	n := &model.Notification{
		StaffID:    supervisor.ID,
		PracticeID: d.PracticeID,
		DeadlineID: &d.ID,
		Type:       model.NotificationTypeSupervisorEscalation,
		Subject:    fmt.Sprintf("Escalation: overdue %s note", d.NoteType),
		Recipient:  supervisor.Email,
		Status:     model.NotificationStatusPending,
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return fmt.Errorf("failed to record notification: %w", err)
	}

	superviseeName := supervisee.FirstName + " " + supervisee.LastName
	err := s.emailSvc.SendSupervisorEscalation(ctx, supervisor.Email, superviseeName, d.NoteType, d.DeadlineDate)
	return s.finish(ctx, n, err)
}

func (s *Service) finish(ctx context.Context, n *model.Notification, sendErr error) error {
	if sendErr != nil {
		msg := sendErr.Error()
		if err := s.repo.UpdateStatus(ctx, n.ID, model.NotificationStatusFailed, &msg, nil); err != nil {
			s.logger.Error(err, "failed to update notification status", "notification_id", n.ID.String())
		}
		return sendErr
	}

	now := time.Now()
	if err := s.repo.UpdateStatus(ctx, n.ID, model.NotificationStatusSent, nil, &now); err != nil {
		s.logger.Error(err, "failed to update notification status", "notification_id", n.ID.String())
	}
	return nil
}
