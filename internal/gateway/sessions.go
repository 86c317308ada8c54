package gateway

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"regexp"
	"sync"
	"time"
)

// SessionCookie carries the browser session ID.
const SessionCookie = "portfolio_session"

var validSessionIDPattern = regexp.MustCompile(`^[a-f0-9]{32}$`)

// Sessions issues browser session IDs and tracks the in-flight palette request of each
// session. Starting a request cancels the one still running for the same session.
type Sessions struct {
	ttl    time.Duration
	secure bool

	mu       sync.Mutex
	inflight map[string]inflightRequest
	nextSeq  uint64
}

type inflightRequest struct {
	seq    uint64
	cancel context.CancelCauseFunc
}

func NewSessions(ttl time.Duration, secure bool) *Sessions {
	return &Sessions{ttl: ttl, secure: secure, inflight: map[string]inflightRequest{}}
}

// ID returns the caller's session ID, issuing a new cookie when the request carries none or
// an invalid one.
func (s *Sessions) ID(w http.ResponseWriter, r *http.Request) (string, error) {
	if c, err := r.Cookie(SessionCookie); err == nil && validSessionIDPattern.MatchString(c.Value) {
		return c.Value, nil
	}
	sid, err := randomID()
	if err != nil {
		return "", err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    sid,
		Path:     "/",
		MaxAge:   int(s.ttl / time.Second),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return sid, nil
}

// Existing returns the session ID only if the request already carries a valid cookie.
func (s *Sessions) Existing(r *http.Request) (string, bool) {
	c, err := r.Cookie(SessionCookie)
	if err != nil || !validSessionIDPattern.MatchString(c.Value) {
		return "", false
	}
	return c.Value, true
}

// Begin derives a request context for sid and cancels any earlier palette request of the same
// session with ErrPaletteSuperseded. done must be called when the request finishes.
func (s *Sessions) Begin(parent context.Context, sid string) (ctx context.Context, done func()) {
	ctx, cancel := context.WithCancelCause(parent)

	s.mu.Lock()
	if prev, ok := s.inflight[sid]; ok {
		prev.cancel(ErrPaletteSuperseded)
	}
	s.nextSeq++
	seq := s.nextSeq
	s.inflight[sid] = inflightRequest{seq: seq, cancel: cancel}
	s.mu.Unlock()

	return ctx, func() {
		s.mu.Lock()
		if cur, ok := s.inflight[sid]; ok && cur.seq == seq {
			delete(s.inflight, sid)
		}
		s.mu.Unlock()
		cancel(context.Canceled)
	}
}

// InFlight reports how many sessions have a palette request running.
func (s *Sessions) InFlight() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.inflight)
}

func randomID() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
