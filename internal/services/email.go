package services

import (
	"context"
	"fmt"
	"log"

	"gatherly/internal/domain"
)

type emailService struct {
	mailer   domain.Mailer
	renderer domain.EmailTemplateRenderer
}

// NewEmailService returns an EmailService that uses the given Mailer and
// template renderer.
func NewEmailService(mailer domain.Mailer, renderer domain.EmailTemplateRenderer) domain.EmailService {
	return &emailService{mailer: mailer, renderer: renderer}
}

// SendEventInvite sends the invite notification using the "event_invite"
// template and the given data.
func (s *emailService) SendEventInvite(ctx context.Context, data *domain.EventInviteEmailData) error {
	if data == nil {
		return fmt.Errorf("event invite data is nil")
	}
	subject, htmlBody, textBody, err := s.renderer.Render("event_invite", data)
	if err != nil {
		return fmt.Errorf("failed to render event_invite template: %w", err)
	}
	if err := s.mailer.Send(data.Email, subject, htmlBody, textBody); err != nil {
		return fmt.Errorf("failed to send invite email: %w", err)
	}
	log.Printf("[EMAIL] Invite email sent to %s", data.Email)
	return nil
}
