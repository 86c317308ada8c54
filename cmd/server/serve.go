package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"portfolio-site/internal/config"
	"portfolio-site/internal/contact"
	"portfolio-site/internal/content"
	"portfolio-site/internal/gateway"
	"portfolio-site/internal/logging"
	"portfolio-site/internal/palette"
	"portfolio-site/internal/server"
	"portfolio-site/internal/subscribe"
	"portfolio-site/internal/web"
)

type serveOptions struct {
	contentPath string
	noSSH       bool
}

func newServeCmd() *cobra.Command {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the web site and the SSH terminal portfolio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadFromEnv()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if opts.contentPath != "" {
				cfg.ContentPath = opts.contentPath
			}
			if opts.noSSH {
				cfg.SSHEnabled = false
			}

			log, err := logging.New(logging.Options{
				Level:         cfg.LogLevel,
				HumanReadable: cfg.LogFormat == "console",
				Writer:        cmd.ErrOrStderr(),
			})
			if err != nil {
				return fmt.Errorf("create logger: %w", err)
			}
			return runServe(cmd.Context(), cfg, log)
		},
	}

	cmd.Flags().StringVar(&opts.contentPath, "content", "", "Portfolio content YAML (overrides PORTFOLIO_CONTENT_PATH)")
	cmd.Flags().BoolVar(&opts.noSSH, "no-ssh", false, "Serve only the web site")

	return cmd
}

func runServe(ctx context.Context, cfg config.Config, log *logging.Logger) error {
	site, err := buildSite(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer site.Close()

	runtime, err := server.New(server.Options{Config: cfg, Handler: site.handler, Content: site.doc, Log: log})
	if err != nil {
		return err
	}
	return runtime.Run(ctx)
}

// site is the assembled web application and the resources it owns.
type site struct {
	doc     *content.Document
	handler http.Handler
	closers []func() error
}

func (s *site) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		errs = append(errs, s.closers[i]())
	}
	return errors.Join(errs...)
}

func buildSite(ctx context.Context, cfg config.Config, log *logging.Logger) (*site, error) {
	s := &site{}
	fail := func(err error) (*site, error) {
		_ = s.Close()
		return nil, err
	}

	doc, err := content.Load(cfg.ContentPath)
	if err != nil {
		return fail(fmt.Errorf("load content: %w", err))
	}
	s.doc = doc

	pages, err := web.NewRenderer(doc)
	if err != nil {
		return fail(fmt.Errorf("parse templates: %w", err))
	}

	var checks []func(context.Context) error
	var store palette.Store
	if cfg.RedisAddr != "" {
		redisStore, err := palette.NewRedisStore(ctx, palette.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TTL:      cfg.SessionTTL,
		})
		if err != nil {
			return fail(fmt.Errorf("connect session store: %w", err))
		}
		s.closers = append(s.closers, redisStore.Close)
		checks = append(checks, redisStore.Ping)
		store = redisStore
		log.Info("session_store_selected", map[string]any{"kind": "redis", "addr": cfg.RedisAddr})
	} else {
		store = palette.NewFileStore(cfg.SessionStorePath, cfg.SessionTTL)
		log.Info("session_store_selected", map[string]any{"kind": "file", "path": cfg.SessionStorePath})
	}

	subs, err := subscribe.OpenSQLite(cfg.DatabasePath)
	if err != nil {
		return fail(fmt.Errorf("open subscriber database: %w", err))
	}
	s.closers = append(s.closers, subs.Close)
	checks = append(checks, subs.Ping)

	var mailer contact.Mailer
	if cfg.ResendAPIKey != "" {
		mailer = contact.NewResendMailer(cfg.ResendAPIKey)
	} else {
		log.Warn("mail_provider_missing", map[string]any{"fallback": "log"})
		mailer = contact.NewLogMailer(log)
	}

	s.handler = gateway.NewHandler(gateway.Options{
		Sessions:   gateway.NewSessions(cfg.SessionTTL, cfg.CookieSecure),
		Store:      store,
		Palette:    gateway.NewPaletteClient(cfg.PaletteServiceURL, cfg.PaletteTimeout),
		Contact:    contact.NewService(mailer, contact.Options{From: cfg.MailFrom, Owner: cfg.OwnerEmail, AutoReply: true}, log),
		Subscribe:  subscribe.NewService(subs, log),
		Content:    doc,
		Pages:      pages,
		AdminToken: cfg.AdminToken,
		MaxUpload:  int64(cfg.PaletteMaxUpload),
		Log:        log,
		Ready: func(ctx context.Context) error {
			for _, check := range checks {
				if err := check(ctx); err != nil {
					return err
				}
			}
			return nil
		},
	}).Routes()

	return s, nil
}
