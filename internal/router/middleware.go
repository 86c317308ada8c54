// Package router holds the SSH middleware chain that runs before the terminal portfolio.
package router

import (
	"net"
	"strings"
	"time"

	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"

	"portfolio-site/internal/content"
	"portfolio-site/internal/logging"
)

type contextKey string

const (
	sessionIdentityKey contextKey = "identity"
	sessionMetadataKey contextKey = "session-metadata"

	maxUsernameLength = 64
)

// Descriptor names a middleware so the assembled chain can be inspected.
type Descriptor struct {
	Name       string
	Middleware wish.Middleware
}

// Identity is the routing decision made from the SSH username.
type Identity struct {
	Username string
	Section  string
}

// SessionInfo is attached to every routed session.
type SessionInfo struct {
	Identity  Identity
	RemoteIP  string
	Term      string
	StartedAt time.Time
}

// sectionAliases maps friendly usernames onto sections; every section name maps to itself.
var sectionAliases = map[string]string{
	"portfolio": content.SectionHome,
	"guest":     content.SectionHome,
	"work":      content.SectionProjects,
	"awards":    content.SectionCompetitions,
	"photos":    content.SectionGallery,
	"hello":     content.SectionContact,
}

// DefaultChain wires the startup middleware chain in order: rate limiting, username
// routing and session metadata. A nil limiter lets every connection through.
func DefaultChain(limiter wish.Middleware, log *logging.Logger) []Descriptor {
	if limiter == nil {
		limiter = passthrough
	}
	return []Descriptor{
		{Name: "rate-limit", Middleware: limiter},
		{Name: "username-routing", Middleware: usernameRouting(log)},
		{Name: "session-metadata", Middleware: sessionMetadata()},
	}
}

// MiddlewareFromDescriptors returns the middleware in chain order.
func MiddlewareFromDescriptors(chain []Descriptor) []wish.Middleware {
	out := make([]wish.Middleware, 0, len(chain))
	for _, d := range chain {
		out = append(out, d.Middleware)
	}
	return out
}

// Compose wraps h so that the first middleware runs first.
func Compose(h ssh.Handler, middleware ...wish.Middleware) ssh.Handler {
	for i := len(middleware) - 1; i >= 0; i-- {
		h = middleware[i](h)
	}
	return h
}

func passthrough(next ssh.Handler) ssh.Handler { return next }

// ResolveSection maps an SSH username onto a section. Unknown names start at home.
func ResolveSection(username string) string {
	name := strings.ToLower(strings.TrimSpace(username))
	if name == "" || len(name) > maxUsernameLength {
		return content.SectionHome
	}
	for _, s := range content.Sections() {
		if s == name {
			return s
		}
	}
	if s, ok := sectionAliases[name]; ok {
		return s
	}
	return content.SectionHome
}

func usernameRouting(log *logging.Logger) wish.Middleware {
	return func(next ssh.Handler) ssh.Handler {
		return func(s ssh.Session) {
			identity := Identity{Username: s.User(), Section: ResolveSection(s.User())}
			s.Context().SetValue(sessionIdentityKey, identity)
			log.Debug("ssh_session_routed", map[string]any{"user": identity.Username, "section": identity.Section})
			next(s)
		}
	}
}

func sessionMetadata() wish.Middleware {
	return func(next ssh.Handler) ssh.Handler {
		return func(s ssh.Session) {
			identity, ok := s.Context().Value(sessionIdentityKey).(Identity)
			if !ok {
				identity = Identity{Username: s.User(), Section: ResolveSection(s.User())}
			}
			pty, _, _ := s.Pty()
			s.Context().SetValue(sessionMetadataKey, SessionInfo{
				Identity:  identity,
				RemoteIP:  RemoteIP(s.RemoteAddr()),
				Term:      pty.Term,
				StartedAt: time.Now().UTC(),
			})
			next(s)
		}
	}
}

// InfoFrom returns the metadata attached by the chain.
func InfoFrom(ctx ssh.Context) (SessionInfo, bool) {
	info, ok := ctx.Value(sessionMetadataKey).(SessionInfo)
	return info, ok
}

// SectionFrom returns the routed starting section, home when the chain did not run.
func SectionFrom(ctx ssh.Context) string {
	if identity, ok := ctx.Value(sessionIdentityKey).(Identity); ok {
		return identity.Section
	}
	return content.SectionHome
}

// RemoteIP returns the host part of addr, or "unknown".
func RemoteIP(addr net.Addr) string {
	if addr == nil {
		return "unknown"
	}
	host, _, err := net.SplitHostPort(addr.String())
	if err != nil {
		return addr.String()
	}
	if host == "" {
		return "unknown"
	}
	return host
}
