package domain

import "context"

// Mailer sends a single email. Implementations may use SES, SMTP, or a noop.
type Mailer interface {
	Send(to, subject, html, text string) error
}

// EmailTemplateRenderer renders a named template into subject, html, and
// text bodies.
type EmailTemplateRenderer interface {
	Render(templateName string, data interface{}) (subject, htmlBody, textBody string, err error)
}

// EventInviteEmailData is the payload for the invite notification email.
type EventInviteEmailData struct {
	Email        string
	HostName     string
	EventTitle   string
	AcceptLink   string
	RegisterLink string
}

// EmailService sends application emails. Callers decide whether a send
// failure is fatal; for invites it never is.
type EmailService interface {
	SendEventInvite(ctx context.Context, data *EventInviteEmailData) error
}
