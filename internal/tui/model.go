package tui

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"portfolio-site/internal/content"
	"portfolio-site/internal/theme"
)

const (
	// title, navigation and rule above the viewport; rule and hint below it.
	headerLines = 3
	footerLines = 2

	statusOpen   = "● open to collaborate"
	statusDimmed = "○ open to collaborate"
	keyHint      = "←/→ sections · ↑/↓ scroll · 1-7 jump · q quit"
)

// Message types consumed by Update.
type (
	TickMsg   struct{}
	KeyMsg    struct{ Key string }
	ResizeMsg struct{ Width, Height int }
)

// Options configures a new Model.
type Options struct {
	Width  int
	Height int
	// Section is the starting section. Unknown names start at home.
	Section string
	// Visitor is the remote address shown as a short hash in the header.
	Visitor string
	IsTTY   bool
	Styles  Styles
}

// Model is the terminal portfolio: a header with section tabs, a scrollable viewport
// holding the active section and a key hint footer.
type Model struct {
	doc      *content.Document
	styles   Styles
	sections []string
	active   int

	width     int
	height    int
	viewportH int
	top       int
	lines     []string

	isTTY       bool
	statusBlink bool
	visitorHash string
	quitting    bool
}

func NewModel(doc *content.Document, opts Options) Model {
	if !opts.Styles.set {
		opts.Styles = NewStyles(nil, theme.Bundle{})
	}
	m := Model{
		doc:         doc,
		styles:      opts.Styles,
		sections:    content.Sections(),
		width:       opts.Width,
		height:      opts.Height,
		isTTY:       opts.IsTTY,
		statusBlink: true,
		visitorHash: deriveVisitorHash(opts.Visitor),
	}
	m.active = m.indexOf(opts.Section)
	m.viewportH = viewportHeight(m.height)
	m.render()
	return m
}

// TickInterval is how often callers should deliver TickMsg.
func TickInterval() time.Duration { return 700 * time.Millisecond }

// Section returns the active section name.
func (m Model) Section() string { return m.sections[m.active] }

// Quitting reports whether the visitor asked to leave.
func (m Model) Quitting() bool { return m.quitting }

// Update advances model state in response to events.
func (m Model) Update(msg any) Model {
	switch msg := msg.(type) {
	case ResizeMsg:
		m.width = max(msg.Width, 0)
		m.height = max(msg.Height, 0)
		m.viewportH = viewportHeight(m.height)
		m.render()
		m.top = m.clampTop(m.top)
	case TickMsg:
		if m.isTTY {
			m.statusBlink = !m.statusBlink
		}
	case KeyMsg:
		m = m.handleKey(msg.Key)
	}
	return m
}

func (m Model) handleKey(key string) Model {
	switch key {
	case "q", "ctrl+c", "ctrl+d", "esc":
		m.quitting = true
	case "right", "l", "tab":
		m.show((m.active + 1) % len(m.sections))
	case "left", "h", "shift+tab":
		m.show((m.active - 1 + len(m.sections)) % len(m.sections))
	case "down", "j":
		m.top = m.clampTop(m.top + 1)
	case "up", "k":
		m.top = m.clampTop(m.top - 1)
	case "pgdown", " ", "f":
		m.top = m.clampTop(m.top + max(m.viewportH, 1))
	case "pgup", "b":
		m.top = m.clampTop(m.top - max(m.viewportH, 1))
	case "home", "g":
		m.top = 0
	case "end", "G":
		m.top = m.clampTop(len(m.lines))
	default:
		if n, err := strconv.Atoi(key); err == nil && n >= 1 && n <= len(m.sections) {
			m.show(n - 1)
		}
	}
	return m
}

func (m *Model) show(index int) {
	if index == m.active {
		return
	}
	m.active = index
	m.top = 0
	m.render()
}

func (m *Model) render() {
	m.lines = sectionLines(m.doc, m.Section(), m.contentWidth(), m.styles)
}

func (m Model) contentWidth() int {
	if m.width <= 4 {
		return 76
	}
	return m.width - 2
}

func (m Model) clampTop(top int) int {
	return min(max(top, 0), max(len(m.lines)-m.viewportH, 0))
}

func (m Model) indexOf(section string) int {
	want := strings.ToLower(strings.TrimSpace(section))
	for i, s := range m.sections {
		if s == want {
			return i
		}
	}
	return 0
}

// View renders the header, the visible slice of the section and the footer.
func (m Model) View() string {
	if m.quitting {
		return "Thanks for stopping by.\n"
	}
	return strings.Join([]string{
		m.renderHeader(),
		m.renderViewport(),
		m.renderFooter(),
	}, "\n")
}

func (m Model) renderHeader() string {
	title := "Portfolio"
	if m.doc != nil {
		title = m.doc.Site.Title
	}
	status := statusDimmed
	if m.statusBlink {
		status = statusOpen
	}

	tabs := make([]string, 0, len(m.sections))
	for i, s := range m.sections {
		label := fmt.Sprintf("%d %s", i+1, s)
		if i == m.active {
			tabs = append(tabs, m.styles.ActiveTab.Render(label))
			continue
		}
		tabs = append(tabs, m.styles.Tab.Render(label))
	}

	return strings.Join([]string{
		m.styles.Header.Render(title) + "  " + m.styles.Status.Render(status) + "  " + m.styles.Muted.Render("visitor "+m.visitorHash),
		strings.Join(tabs, " "),
		m.styles.Rule.Render(strings.Repeat("─", max(m.contentWidth(), 1))),
	}, "\n")
}

func (m Model) renderViewport() string {
	if len(m.lines) == 0 || m.viewportH == 0 {
		return ""
	}
	from := min(max(m.top, 0), len(m.lines)-1)
	to := min(from+m.viewportH, len(m.lines))
	return strings.Join(m.lines[from:to], "\n")
}

func (m Model) renderFooter() string {
	position := ""
	if len(m.lines) > m.viewportH && m.viewportH > 0 {
		position = fmt.Sprintf("  %d/%d", min(m.top+m.viewportH, len(m.lines)), len(m.lines))
	}
	return strings.Join([]string{
		m.styles.Rule.Render(strings.Repeat("─", max(m.contentWidth(), 1))),
		m.styles.Muted.Render(keyHint + position),
	}, "\n")
}

func viewportHeight(height int) int {
	return max(height-headerLines-footerLines, 0)
}

func normalizeRemoteAddr(remoteAddr string) string {
	trimmed := strings.TrimSpace(remoteAddr)
	if host, _, err := net.SplitHostPort(trimmed); err == nil {
		return host
	}
	return strings.Trim(trimmed, "[]")
}

func deriveVisitorHash(remoteAddr string) string {
	sum := sha256.Sum256([]byte(normalizeRemoteAddr(remoteAddr)))
	return strings.ToUpper(hex.EncodeToString(sum[:]))[:12]
}
