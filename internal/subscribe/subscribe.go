// Package subscribe implements the newsletter signup flow.
package subscribe

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"portfolio-site/internal/forms"
	"portfolio-site/internal/logging"
	"portfolio-site/internal/metrics"
)

const (
	MessageMissingFields = "Please fill out all required fields"
	MessageAlreadyExists = "This email is already subscribed!"
	MessageSubscribed    = "Thank you for subscribing! I'll keep you updated with my latest projects and achievements."
	MessageCheckFailed   = "Failed to check subscription status. Please try again."
	MessageInsertFailed  = "Failed to subscribe. Please try again."
)

// Request is one signup form post.
type Request struct {
	Name  string `json:"name" validate:"min=2" msg:"Name must be at least 2 characters"`
	Email string `json:"email" validate:"email" msg:"Please enter a valid email"`
}

// Result mirrors the contact form envelope.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	// Outcome is "subscribed", "missing_fields", "invalid", "duplicate" or "error".
	Outcome string `json:"-"`
}

// Service validates and records subscriptions.
type Service struct {
	store Store
	log   *logging.Logger
	now   func() time.Time
	newID func() string
}

func NewService(store Store, log *logging.Logger) *Service {
	return &Service{
		store: store,
		log:   log,
		now:   time.Now,
		newID: func() string { return uuid.NewString() },
	}
}

// Subscribe records req unless it is incomplete, invalid or already present.
func (s *Service) Subscribe(ctx context.Context, req Request) Result {
	if req.Name == "" || req.Email == "" {
		return s.reject("missing_fields", MessageMissingFields)
	}
	if err := forms.Validate(req); err != nil {
		return s.reject("invalid", forms.Message(err))
	}

	exists, err := s.store.Exists(ctx, req.Email)
	if err != nil {
		s.log.Error("subscribe_check_failed", err, map[string]any{"email": req.Email})
		return s.reject("error", MessageCheckFailed)
	}
	if exists {
		return s.reject("duplicate", MessageAlreadyExists)
	}

	sub := Subscriber{ID: s.newID(), Name: strings.TrimSpace(req.Name), Email: req.Email, CreatedAt: s.now().UTC()}
	if err := s.store.Insert(ctx, sub); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return s.reject("duplicate", MessageAlreadyExists)
		}
		s.log.Error("subscribe_insert_failed", err, map[string]any{"email": req.Email})
		return s.reject("error", MessageInsertFailed)
	}

	metrics.Subscriptions.WithLabelValues("subscribed").Inc()
	s.log.Info("subscriber_added", map[string]any{"id": sub.ID})
	return Result{Success: true, Message: MessageSubscribed, Outcome: "subscribed"}
}

// List returns subscribers newest first. Store failures yield an empty list.
func (s *Service) List(ctx context.Context) []Subscriber {
	subs, err := s.store.List(ctx)
	if err != nil {
		s.log.Error("subscribers_list_failed", err, nil)
		return []Subscriber{}
	}
	return subs
}

func (s *Service) reject(outcome, message string) Result {
	metrics.Subscriptions.WithLabelValues(outcome).Inc()
	return Result{Success: false, Message: message, Outcome: outcome}
}
