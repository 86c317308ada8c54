package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolio-site/internal/config"
	"portfolio-site/internal/logging"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "portfolio dev")
	assert.Contains(t, out, "commit: none")
}

func TestThemeCommandBuildsStylesheet(t *testing.T) {
	out, err := execute(t, "theme", "#F3A712", "#2E86AB", "#A23B72", "#3B1F2B", "#C73E1D", "#6A994E")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, ":root {"), "unexpected output: %q", out)
	assert.Contains(t, out, "--primary: ")
	assert.Contains(t, out, ".dark {")
}

func TestThemeCommandVariantAndTriad(t *testing.T) {
	out, err := execute(t, "theme", "--variant", "ocean", "--triad")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "primary #"))
}

func TestThemeCommandRejectsBadInput(t *testing.T) {
	_, err := execute(t, "theme", "#F3A712", "#2E86AB")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid palette")

	_, err = execute(t, "theme", "--variant", "neon")
	require.Error(t, err)
}

func TestServeRejectsInvalidConfig(t *testing.T) {
	t.Setenv("PORTFOLIO_HTTP_PORT", "not-a-port")
	_, err := execute(t, "serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load config")
}

func siteConfig(t *testing.T) config.Config {
	t.Helper()
	dir := t.TempDir()
	return config.Config{
		SessionStorePath:  filepath.Join(dir, "sessions.json"),
		DatabasePath:      filepath.Join(dir, "subscribers.db"),
		SessionTTL:        24 * time.Hour,
		PaletteServiceURL: "http://127.0.0.1:1/extract",
		PaletteTimeout:    time.Second,
		PaletteMaxUpload:  1 << 20,
		MailFrom:          "portfolio@example.com",
		OwnerEmail:        "owner@example.com",
	}
}

func TestBuildSiteWithFileStore(t *testing.T) {
	s, err := buildSite(context.Background(), siteConfig(t), logging.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	s.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), s.doc.Site.Title)
}

func TestBuildSiteWithRedisReportsOutage(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := siteConfig(t)
	cfg.RedisAddr = mr.Addr()

	s, err := buildSite(context.Background(), cfg, logging.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	mr.Close()
	rec = httptest.NewRecorder()
	s.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestBuildSiteMissingContent(t *testing.T) {
	cfg := siteConfig(t)
	cfg.ContentPath = filepath.Join(t.TempDir(), "missing.yaml")
	_, err := buildSite(context.Background(), cfg, logging.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load content")
}
