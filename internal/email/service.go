package email

import (
	"context"
	"fmt"
	"time"

	"gopkg.in/gomail.v2"

	"github.com/Yi-Jacob/mentalspace-ehr-sub009/internal/config"
)

type Service interface {
	SendDeadlineReminder(ctx context.Context, to, providerName, noteType string, deadline time.Time, threshold string) error
	SendSupervisorEscalation(ctx context.Context, to, superviseeName, noteType string, deadline time.Time) error
	SendWelcome(ctx context.Context, to, name string) error
}

type service struct {
	dialer *gomail.Dialer
	from   string
}

func NewService(cfg config.SMTPConfig) Service {
	return &service{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

func (s *service) SendDeadlineReminder(ctx context.Context, to, providerName, noteType string, deadline time.Time, threshold string) error {
	subject := fmt.Sprintf("Documentation due: %s note by %s", noteType, deadline.Format("Jan 2, 3:04 PM"))
	body := fmt.Sprintf(
		"Hi %s,\n\nYour %s documentation is due %s (within the %s reminder window).\n\nPlease complete it in MentalSpace before the deadline.\n",
		providerName, noteType, deadline.Format(time.RFC1123), threshold,
	)
	return s.send(ctx, to, subject, body)
}

func (s *service) SendSupervisorEscalation(ctx context.Context, to, superviseeName, noteType string, deadline time.Time) error {
	subject := fmt.Sprintf("Escalation: overdue %s documentation for %s", noteType, superviseeName)
	body := fmt.Sprintf(
		"A %s note for your supervisee %s was due %s and remains incomplete after repeated reminders.\n",
		noteType, superviseeName, deadline.Format(time.RFC1123),
	)
	return s.send(ctx, to, subject, body)
}

func (s *service) SendWelcome(ctx context.Context, to, name string) error {
	body := fmt.Sprintf("Hi %s,\n\nYour MentalSpace staff account has been created.\n", name)
	return s.send(ctx, to, "Welcome to MentalSpace", body)
}

func (s *service) send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}
	return nil
}
