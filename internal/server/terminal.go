package server

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/ssh"
	bts "github.com/charmbracelet/wish/bubbletea"

	"portfolio-site/internal/colorutil"
	"portfolio-site/internal/config"
	"portfolio-site/internal/content"
	"portfolio-site/internal/logging"
	"portfolio-site/internal/router"
	"portfolio-site/internal/theme"
	"portfolio-site/internal/tui"
)

// TerminalHandler builds the portfolio program for one SSH session, starting at the
// section picked by username routing and themed for the client's TERM.
func TerminalHandler(doc *content.Document, cfg config.Config, log *logging.Logger) bts.Handler {
	colors := terminalPalette(doc, cfg.ThemeVariant)

	return func(s ssh.Session) (tea.Model, []tea.ProgramOption) {
		pty, _, _ := s.Pty()
		bundle := theme.Resolve(colors, theme.ResolveOptions{
			Term:       pty.Term,
			ForceColor: cfg.ForceColor,
			ForceMono:  cfg.ForceMono,
		})

		visitor := ""
		if addr := s.RemoteAddr(); addr != nil {
			visitor = addr.String()
		}
		if info, ok := router.InfoFrom(s.Context()); ok {
			log.With(map[string]any{"user": info.Identity.Username, "remote_ip": info.RemoteIP}).Info("ssh_session_started", map[string]any{
				"section": info.Identity.Section,
				"term":    info.Term,
				"mono":    bundle.Mono,
			})
		}
		model := tui.NewModel(doc, tui.Options{
			Width:   pty.Window.Width,
			Height:  pty.Window.Height,
			Section: router.SectionFrom(s.Context()),
			Visitor: visitor,
			IsTTY:   theme.DetectTermProfile(pty.Term).IsTTY,
			Styles:  tui.NewStyles(bts.MakeRenderer(s), bundle),
		})

		opts := append([]tea.ProgramOption{tea.WithAltScreen()}, bts.MakeOptions(s)...)
		return tui.NewProgram(model), opts
	}
}

// terminalPalette prefers the site's default palette and falls back to the configured
// built-in variant, then to sunset.
func terminalPalette(doc *content.Document, variant string) []colorutil.Hex {
	if doc != nil {
		if colors := doc.DefaultPalette(); len(colors) > 0 {
			return colors
		}
	}
	if colors, err := theme.Palette(theme.Variant(variant)); err == nil {
		return colors
	}
	colors, _ := theme.Palette(theme.VariantSunset)
	return colors
}
