package tui

import (
	"github.com/charmbracelet/lipgloss"

	"portfolio-site/internal/theme"
)

// Styles are the lipgloss styles used by the terminal portfolio.
type Styles struct {
	Header    lipgloss.Style
	Status    lipgloss.Style
	Tab       lipgloss.Style
	ActiveTab lipgloss.Style
	Heading   lipgloss.Style
	Accent    lipgloss.Style
	Muted     lipgloss.Style
	Rule      lipgloss.Style
	Mono      bool
	set       bool
}

// NewStyles maps a resolved theme bundle onto lipgloss styles for renderer. A nil
// renderer uses the process default.
func NewStyles(r *lipgloss.Renderer, b theme.Bundle) Styles {
	if r == nil {
		r = lipgloss.DefaultRenderer()
	}
	fg := func(hex string) lipgloss.Style {
		if hex == "" {
			return r.NewStyle()
		}
		return r.NewStyle().Foreground(lipgloss.Color(hex))
	}

	return Styles{
		Header:    fromStyle(r, b.Header).Padding(0, 1),
		Status:    fg(b.Roles.Accent),
		Tab:       fg(b.Roles.Muted),
		ActiveTab: fromStyle(r, b.Prompt).Underline(true),
		Heading:   fg(b.Roles.Primary).Bold(true),
		Accent:    fg(b.Roles.Third),
		Muted:     fg(b.Roles.Muted),
		Rule:      fg(b.Roles.Border),
		Mono:      b.Mono,
		set:       true,
	}
}

func fromStyle(r *lipgloss.Renderer, s theme.Style) lipgloss.Style {
	out := r.NewStyle().Bold(s.Bold)
	if s.Foreground != "" {
		out = out.Foreground(lipgloss.Color(s.Foreground))
	}
	if s.Background != "" {
		out = out.Background(lipgloss.Color(s.Background))
	}
	return out
}
