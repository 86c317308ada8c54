package server

import (
	"sync"

	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"

	"portfolio-site/internal/logging"
	"portfolio-site/internal/metrics"
)

// MaxSessionsMiddleware caps concurrent sessions. A slot is released exactly once, when the
// handler returns, panics or the session context ends, whichever happens first.
func MaxSessionsMiddleware(limit int, log *logging.Logger) wish.Middleware {
	if limit <= 0 {
		limit = 1
	}
	slots := make(chan struct{}, limit)

	return func(next ssh.Handler) ssh.Handler {
		return func(s ssh.Session) {
			select {
			case slots <- struct{}{}:
			default:
				log.Warn("max_sessions_exceeded", map[string]any{"limit": limit, "user": s.User()})
				_, _ = s.Write([]byte("max sessions exceeded\n"))
				return
			}
			metrics.ActiveSSHSessions.Inc()

			var once sync.Once
			release := func() {
				once.Do(func() {
					<-slots
					metrics.ActiveSSHSessions.Dec()
				})
			}
			finished := make(chan struct{})
			defer close(finished)
			go func() {
				select {
				case <-s.Context().Done():
					release()
				case <-finished:
				}
			}()

			defer func() {
				release()
				if r := recover(); r != nil {
					log.Warn("ssh_session_panic", map[string]any{"panic": r, "user": s.User()})
				}
			}()
			next(s)
		}
	}
}
