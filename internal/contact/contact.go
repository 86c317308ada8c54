// Package contact handles contact form submissions: validation, the owner notification and a
// best-effort auto-reply to the sender.
package contact

import (
	"context"
	"fmt"
	"html"
	"strings"

	"portfolio-site/internal/forms"
	"portfolio-site/internal/logging"
	"portfolio-site/internal/metrics"
)

const (
	MessageSent   = "Message sent successfully! I'll get back to you soon."
	MessageFailed = "Failed to send message. Please try again."
)

// Submission is one contact form post.
type Submission struct {
	Name    string `json:"name" validate:"required,min=2" msg:"Name must be at least 2 characters"`
	Email   string `json:"email" validate:"required,email" msg:"Please enter a valid email"`
	Message string `json:"message" validate:"required,min=10" msg:"Message must be at least 10 characters"`
}

// Result is the outcome reported back to the visitor.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	// Outcome is "sent", "invalid" or "error".
	Outcome string `json:"-"`
}

// Options configures sender and recipient addresses.
type Options struct {
	From  string
	Owner string
	// AutoReply disables the confirmation sent to the visitor when false.
	AutoReply bool
}

// Service delivers contact submissions through a Mailer.
type Service struct {
	mailer Mailer
	opts   Options
	log    *logging.Logger
}

// NewService returns a Service. A nil log discards events.
func NewService(mailer Mailer, opts Options, log *logging.Logger) *Service {
	return &Service{mailer: mailer, opts: opts, log: log}
}

// Submit validates sub, notifies the owner and, if enabled, sends an auto-reply. Only the owner
// notification decides the result; auto-reply failures are logged.
func (s *Service) Submit(ctx context.Context, sub Submission) Result {
	if err := forms.Validate(sub); err != nil {
		return Result{Success: false, Message: forms.Message(err), Outcome: "invalid"}
	}

	if err := s.mailer.Send(ctx, ownerNotification(s.opts, sub)); err != nil {
		metrics.EmailsSent.WithLabelValues("notification", "error").Inc()
		s.log.Error("contact_notification_failed", err, map[string]any{"sender": sub.Email})
		return Result{Success: false, Message: MessageFailed, Outcome: "error"}
	}
	metrics.EmailsSent.WithLabelValues("notification", "sent").Inc()
	s.log.Info("contact_notification_sent", map[string]any{"sender": sub.Email})

	if s.opts.AutoReply {
		if err := s.mailer.Send(ctx, autoReply(s.opts, sub)); err != nil {
			metrics.EmailsSent.WithLabelValues("auto_reply", "error").Inc()
			s.log.Warn("contact_auto_reply_failed", map[string]any{"recipient": sub.Email, "error": err.Error()})
		} else {
			metrics.EmailsSent.WithLabelValues("auto_reply", "sent").Inc()
		}
	}

	return Result{Success: true, Message: MessageSent, Outcome: "sent"}
}

func ownerNotification(opts Options, sub Submission) Email {
	text := fmt.Sprintf("\nName: %s\nEmail: %s\n\nMessage:\n%s\n", sub.Name, sub.Email, sub.Message)

	var b strings.Builder
	b.WriteString("<h2>New Contact Form Submission</h2>\n")
	fmt.Fprintf(&b, "<p><strong>Name:</strong> %s</p>\n", html.EscapeString(sub.Name))
	fmt.Fprintf(&b, "<p><strong>Email:</strong> %s</p>\n", html.EscapeString(sub.Email))
	b.WriteString("<h3>Message:</h3>\n")
	fmt.Fprintf(&b, "<p>%s</p>\n", paragraph(sub.Message))

	return Email{
		From:    opts.From,
		To:      []string{opts.Owner},
		ReplyTo: sub.Email,
		Subject: "New contact form submission from " + sub.Name,
		Text:    text,
		HTML:    b.String(),
	}
}

func autoReply(opts Options, sub Submission) Email {
	text := fmt.Sprintf("Hi %s,\n\nThanks for reaching out! I received your message and will get back to you soon.\n\nYour message:\n%s\n", sub.Name, sub.Message)

	var b strings.Builder
	fmt.Fprintf(&b, "<p>Hi %s,</p>\n", html.EscapeString(sub.Name))
	b.WriteString("<p>Thanks for reaching out! I received your message and will get back to you soon.</p>\n")
	fmt.Fprintf(&b, "<blockquote>%s</blockquote>\n", paragraph(sub.Message))

	return Email{
		From:    opts.From,
		To:      []string{sub.Email},
		ReplyTo: opts.Owner,
		Subject: "Thanks for your message",
		Text:    text,
		HTML:    b.String(),
	}
}

func paragraph(s string) string {
	return strings.ReplaceAll(html.EscapeString(s), "\n", "<br>")
}
