package server

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/ssh"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolio-site/internal/content"
	"portfolio-site/internal/logging"
	"portfolio-site/internal/router"
	"portfolio-site/internal/theme"
	"portfolio-site/internal/tui"
)

func runTerminalHandler(t *testing.T, user string) (tea.Model, []tea.ProgramOption) {
	t.Helper()
	return runTerminalHandlerWithLog(t, user, logging.Nop())
}

func runTerminalHandlerWithLog(t *testing.T, user string, log *logging.Logger) (tea.Model, []tea.ProgramOption) {
	t.Helper()
	doc, err := content.Default()
	require.NoError(t, err)

	var model tea.Model
	var opts []tea.ProgramOption
	teaHandler := TerminalHandler(doc, testConfig(t), log)
	h := router.Compose(func(s ssh.Session) {
		model, opts = teaHandler(s)
	}, router.MiddlewareFromDescriptors(router.DefaultChain(nil, logging.Nop()))...)

	h(newFakeSession(context.Background(), user, tcpAddr("198.51.100.4")))
	require.NotNil(t, model)
	return model, opts
}

func TestTerminalHandlerStartsAtRoutedSection(t *testing.T) {
	tests := []struct {
		user string
		want string
	}{
		{user: "projects", want: content.SectionProjects},
		{user: "photos", want: content.SectionGallery},
		{user: "alice", want: content.SectionHome},
	}
	for _, tc := range tests {
		t.Run(tc.user, func(t *testing.T) {
			model, opts := runTerminalHandler(t, tc.user)
			program, ok := model.(tui.Program)
			require.True(t, ok, "model type %T", model)
			assert.Equal(t, tc.want, program.Model().Section())
			assert.NotEmpty(t, opts)
		})
	}
}

func TestTerminalHandlerRendersPortfolio(t *testing.T) {
	doc, err := content.Default()
	require.NoError(t, err)

	model, _ := runTerminalHandler(t, "home")
	view := model.View()
	assert.True(t, strings.Contains(view, doc.Site.Title), "view missing site title")
	assert.True(t, strings.Contains(view, doc.Hero.Greeting), "view missing greeting")
}

func TestTerminalHandlerLogsSessionMetadata(t *testing.T) {
	buf := &bytes.Buffer{}
	log, err := logging.New(logging.Options{Level: "info", Writer: buf})
	require.NoError(t, err)

	runTerminalHandlerWithLog(t, "work", log)

	var entry map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var candidate map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &candidate))
		if candidate["event"] == "ssh_session_started" {
			entry = candidate
		}
	}
	require.NotNil(t, entry, "no ssh_session_started event in %q", buf.String())
	assert.Equal(t, "work", entry["user"])
	assert.Equal(t, "198.51.100.4", entry["remote_ip"])
	assert.Equal(t, content.SectionProjects, entry["section"])
	assert.Equal(t, "xterm-kitty", entry["term"])
}

func TestTerminalPaletteFallbacks(t *testing.T) {
	doc, err := content.Default()
	require.NoError(t, err)
	assert.Equal(t, doc.DefaultPalette(), terminalPalette(doc, "ocean"))

	ocean, err := theme.Palette(theme.VariantOcean)
	require.NoError(t, err)
	assert.Equal(t, ocean, terminalPalette(nil, "ocean"))

	sunset, err := theme.Palette(theme.VariantSunset)
	require.NoError(t, err)
	assert.Equal(t, sunset, terminalPalette(&content.Document{}, "neon"))
}
