package contact

import (
	"context"
	"errors"
	"fmt"

	"github.com/resend/resend-go/v2"

	"portfolio-site/internal/logging"
)

// ErrNoRecipient is returned for an Email without recipients.
var ErrNoRecipient = errors.New("email has no recipient")

// Email is a provider-neutral outgoing message.
type Email struct {
	From    string
	To      []string
	ReplyTo string
	Subject string
	Text    string
	HTML    string
}

// Mailer delivers a single email.
type Mailer interface {
	Send(ctx context.Context, email Email) error
}

// ResendMailer sends through the Resend transactional email API.
type ResendMailer struct {
	client *resend.Client
}

// NewResendMailer builds a Resend-backed mailer.
func NewResendMailer(apiKey string) *ResendMailer {
	return &ResendMailer{client: resend.NewClient(apiKey)}
}

func (m *ResendMailer) Send(ctx context.Context, email Email) error {
	if len(email.To) == 0 {
		return ErrNoRecipient
	}
	_, err := m.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    email.From,
		To:      email.To,
		ReplyTo: email.ReplyTo,
		Subject: email.Subject,
		Text:    email.Text,
		Html:    email.HTML,
	})
	if err != nil {
		return fmt.Errorf("resend: %w", err)
	}
	return nil
}

// LogMailer writes emails to the log instead of sending them. It is used when no provider key
// is configured.
type LogMailer struct {
	log *logging.Logger
}

func NewLogMailer(log *logging.Logger) *LogMailer {
	return &LogMailer{log: log}
}

func (m *LogMailer) Send(_ context.Context, email Email) error {
	if len(email.To) == 0 {
		return ErrNoRecipient
	}
	m.log.Info("email_logged", map[string]any{
		"to":      email.To,
		"subject": email.Subject,
		"body":    email.Text,
	})
	return nil
}
