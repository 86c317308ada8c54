package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/activeterm"
	bts "github.com/charmbracelet/wish/bubbletea"

	"portfolio-site/internal/config"
	"portfolio-site/internal/content"
	"portfolio-site/internal/logging"
	"portfolio-site/internal/router"
)

const (
	version           = "dev"
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 10 * time.Second
)

// Options wires the runtime to the HTTP handler and the terminal portfolio.
type Options struct {
	Config  config.Config
	Handler http.Handler
	Content *content.Document
	Log     *logging.Logger
}

// Runtime runs the HTTP site and, when enabled, the SSH terminal portfolio as one unit.
type Runtime struct {
	cfg           config.Config
	log           *logging.Logger
	middlewareIDs []string
	httpServer    *http.Server
	sshServer     *ssh.Server
}

func New(opts Options) (*Runtime, error) {
	if opts.Handler == nil {
		return nil, errors.New("server: http handler is required")
	}
	cfg := opts.Config

	r := &Runtime{
		cfg: cfg,
		log: opts.Log,
		httpServer: &http.Server{
			Addr:              cfg.HTTPAddr(),
			Handler:           opts.Handler,
			ReadHeaderTimeout: readHeaderTimeout,
		},
	}
	if !cfg.SSHEnabled {
		return r, nil
	}

	limiter := RateLimitMiddleware(cfg.RateLimitPerSecond*60, cfg.RateLimitPerSecond, opts.Log)
	chain := router.DefaultChain(limiter, opts.Log)
	for _, d := range chain {
		r.middlewareIDs = append(r.middlewareIDs, d.Name)
	}
	middleware := append(router.MiddlewareFromDescriptors(chain),
		MaxSessionsMiddleware(cfg.MaxSessions, opts.Log),
		activeterm.Middleware(),
		bts.Middleware(TerminalHandler(opts.Content, cfg, opts.Log)),
	)
	r.middlewareIDs = append(r.middlewareIDs, "max-sessions", "active-terminal", "bubbletea")
	handler := router.Compose(func(ssh.Session) {}, middleware...)

	sshServer, err := wish.NewServer(
		wish.WithAddress(cfg.SSHAddr()),
		wish.WithHostKeyPath(cfg.HostKeyPath),
		wish.WithIdleTimeout(cfg.IdleTimeout),
		func(s *ssh.Server) error {
			s.Handler = handler
			return nil
		},
	)
	if err != nil {
		return nil, fmt.Errorf("build ssh server: %w", err)
	}
	r.sshServer = sshServer
	return r, nil
}

func (r *Runtime) MiddlewareIDs() []string {
	out := make([]string, len(r.middlewareIDs))
	copy(out, r.middlewareIDs)
	return out
}

func (r *Runtime) HTTPAddress() string {
	return r.httpServer.Addr
}

// SSHAddress is empty when the terminal portfolio is disabled.
func (r *Runtime) SSHAddress() string {
	if r.sshServer == nil {
		return ""
	}
	return r.sshServer.Addr
}

// Run serves until ctx ends, SIGINT/SIGTERM arrives or a listener fails, then shuts both
// servers down gracefully.
func (r *Runtime) Run(ctx context.Context) error {
	ctx, stopSignals := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	errs := make(chan error, 2)
	go func() {
		err := r.httpServer.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		errs <- err
	}()
	if r.sshServer != nil {
		go func() {
			err := r.sshServer.ListenAndServe()
			if errors.Is(err, ssh.ErrServerClosed) {
				err = nil
			}
			errs <- err
		}()
	}

	r.log.Info("startup", map[string]any{
		"version":       version,
		"http_addr":     r.HTTPAddress(),
		"ssh_addr":      r.SSHAddress(),
		"middleware":    r.middlewareIDs,
		"host_key_path": r.cfg.HostKeyPath,
		"idle_timeout":  r.cfg.IdleTimeout.String(),
		"max_sessions":  r.cfg.MaxSessions,
	})

	var runErr error
	select {
	case <-ctx.Done():
	case err := <-errs:
		if err != nil {
			runErr = fmt.Errorf("serve: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := r.httpServer.Shutdown(shutdownCtx); err != nil {
		r.log.Warn("http_shutdown_failed", map[string]any{"error": err.Error()})
	}
	if r.sshServer != nil {
		if err := r.sshServer.Shutdown(shutdownCtx); err != nil {
			r.log.Warn("ssh_shutdown_failed", map[string]any{"error": err.Error()})
		}
	}
	r.log.Info("shutdown", nil)
	return runErr
}
