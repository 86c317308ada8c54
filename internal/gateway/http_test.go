package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"portfolio-site/internal/contact"
	"portfolio-site/internal/content"
	"portfolio-site/internal/logging"
	"portfolio-site/internal/palette"
	"portfolio-site/internal/subscribe"
	"portfolio-site/internal/web"
)

var (
	samplePalette = []string{"#2B1B3D", "#E4572E", "#F3A712", "#A8C686", "#669BBC", "#FBEFE1"}
	pngBytes      = append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 64)...)
)

const testSID = "0123456789abcdef0123456789abcdef"

type fakeExtractor struct {
	mu      sync.Mutex
	calls   int
	last    Upload
	lastN   int
	err     error
	colors  []string
	block   chan struct{}
	started chan struct{}
}

func (f *fakeExtractor) Extract(ctx context.Context, img Upload, n int) ([]string, error) {
	f.mu.Lock()
	f.calls++
	call := f.calls
	f.last = img
	f.lastN = n
	f.mu.Unlock()

	if f.block != nil && call == 1 {
		close(f.started)
		select {
		case <-ctx.Done():
			return nil, context.Cause(ctx)
		case <-f.block:
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	if f.colors != nil {
		return f.colors, nil
	}
	return samplePalette, nil
}

type fakeMailer struct {
	sent atomic.Int32
	err  error
}

func (m *fakeMailer) Send(context.Context, contact.Email) error {
	m.sent.Add(1)
	return m.err
}

type harness struct {
	handler   http.Handler
	store     *palette.MemoryStore
	extractor *fakeExtractor
	mailer    *fakeMailer
}

func newHarness(t *testing.T, mutate ...func(*Options)) *harness {
	t.Helper()

	doc, err := content.Default()
	if err != nil {
		t.Fatalf("content.Default() error = %v", err)
	}
	pages, err := web.NewRenderer(doc)
	if err != nil {
		t.Fatalf("NewRenderer() error = %v", err)
	}
	subs, err := subscribe.OpenSQLite(filepath.Join(t.TempDir(), "subs.db"))
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}
	t.Cleanup(func() { _ = subs.Close() })

	h := &harness{
		store:     palette.NewMemoryStore(time.Hour),
		extractor: &fakeExtractor{},
		mailer:    &fakeMailer{},
	}
	opts := Options{
		Sessions:   NewSessions(time.Hour, false),
		Store:      h.store,
		Palette:    h.extractor,
		Contact:    contact.NewService(h.mailer, contact.Options{From: "site@example.com", Owner: "owner@example.com", AutoReply: true}, logging.Nop()),
		Subscribe:  subscribe.NewService(subs, logging.Nop()),
		Content:    doc,
		Pages:      pages,
		AdminToken: "admin-secret",
		MaxUpload:  4096,
		Log:        logging.Nop(),
	}
	for _, m := range mutate {
		m(&opts)
	}
	h.handler = NewHandler(opts).Routes()
	return h
}

func (h *harness) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	return rec
}

func withSession(req *http.Request) *http.Request {
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: testSID})
	return req
}

func uploadRequest(t *testing.T, data []byte, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if data != nil {
		part, err := mw.CreateFormFile("image", "photo.png")
		if err != nil {
			t.Fatal(err)
		}
		_, _ = part.Write(data)
	}
	for k, v := range fields {
		_ = mw.WriteField(k, v)
	}
	_ = mw.Close()
	req := httptest.NewRequest(http.MethodPost, "/api/palette", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	out := map[string]any{}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestPaletteRelaySuccess(t *testing.T) {
	h := newHarness(t)
	rec := h.do(uploadRequest(t, pngBytes, map[string]string{"num_colors": "6"}))

	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	colors, ok := body["palette"].([]any)
	if !ok || len(colors) != 6 || colors[0] != "#2B1B3D" {
		t.Fatalf("palette=%v", body["palette"])
	}
	if h.extractor.last.ContentType != "image/png" || h.extractor.lastN != 6 || h.extractor.last.Filename != "photo.png" {
		t.Fatalf("extractor saw %+v n=%d", h.extractor.last, h.extractor.lastN)
	}
	if len(rec.Result().Cookies()) != 1 {
		t.Fatal("expected session cookie to be issued")
	}
}

func TestPaletteRelayUpstreamFailure(t *testing.T) {
	h := newHarness(t)
	h.extractor.err = ErrUpstreamStatus

	rec := h.do(uploadRequest(t, pngBytes, nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d", rec.Code)
	}
	if body := decodeBody(t, rec); body["error"] != "Failed to generate palette" {
		t.Fatalf("body=%v", body)
	}
}

func TestPaletteRelayRejectsUnusablePalettes(t *testing.T) {
	tests := []struct {
		name   string
		colors []string
	}{
		{name: "too few", colors: []string{"#000000", "#111111", "#222222", "#333333"}},
		{name: "duplicates", colors: []string{"#000000", "#000000", "#222222", "#333333", "#444444", "#555555"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.extractor.colors = tt.colors

			rec := h.do(uploadRequest(t, pngBytes, nil))
			if rec.Code != http.StatusInternalServerError {
				t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
			}
			if body := decodeBody(t, rec); body["error"] != "Failed to generate palette" {
				t.Fatalf("body=%v", body)
			}
		})
	}
}

func TestPaletteRelayRejectsBadUploads(t *testing.T) {
	tests := []struct {
		name   string
		data   []byte
		fields map[string]string
		status int
	}{
		{name: "missing image", data: nil, status: http.StatusBadRequest},
		{name: "not an image", data: []byte("plain text, definitely not a picture"), status: http.StatusBadRequest},
		{name: "too large", data: append(append([]byte(nil), pngBytes...), bytes.Repeat([]byte{1}, 8192)...), status: http.StatusRequestEntityTooLarge},
		{name: "bad num_colors", data: pngBytes, fields: map[string]string{"num_colors": "0"}, status: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			rec := h.do(uploadRequest(t, tt.data, tt.fields))
			if rec.Code != tt.status {
				t.Fatalf("status=%d want %d body=%s", rec.Code, tt.status, rec.Body.String())
			}
			if _, ok := decodeBody(t, rec)["error"]; !ok {
				t.Fatal("expected error field")
			}
			if h.extractor.calls != 0 {
				t.Fatal("extractor called for a rejected upload")
			}
		})
	}
}

func TestPaletteRelayCancelsPreviousRequestOfSameSession(t *testing.T) {
	h := newHarness(t)
	h.extractor.block = make(chan struct{})
	h.extractor.started = make(chan struct{})
	defer close(h.extractor.block)

	firstDone := make(chan *httptest.ResponseRecorder, 1)
	go func() {
		firstDone <- h.do(withSession(uploadRequest(t, pngBytes, nil)))
	}()

	select {
	case <-h.extractor.started:
	case <-time.After(2 * time.Second):
		t.Fatal("first request never reached the extractor")
	}

	second := h.do(withSession(uploadRequest(t, pngBytes, nil)))
	if second.Code != http.StatusOK {
		t.Fatalf("second status=%d", second.Code)
	}

	select {
	case first := <-firstDone:
		if first.Code != http.StatusConflict {
			t.Fatalf("first status=%d body=%s", first.Code, first.Body.String())
		}
	case <-time.After(2 * time.Second):
		t.Fatal("first request was not cancelled")
	}
}

func TestThemeApplyRestoreReset(t *testing.T) {
	h := newHarness(t)

	body, _ := json.Marshal(map[string]any{"palette": samplePalette})
	req := withSession(httptest.NewRequest(http.MethodPost, "/api/theme", bytes.NewReader(body)))
	req.Header.Set("Content-Type", "application/json")
	rec := h.do(req)
	if rec.Code != http.StatusOK {
		t.Fatalf("apply status=%d body=%s", rec.Code, rec.Body.String())
	}
	applied := decodeBody(t, rec)
	css, _ := applied["css"].(string)
	if !strings.HasPrefix(css, ":root {") || !strings.Contains(css, "--primary: ") {
		t.Fatalf("css=%q", css)
	}
	triad, _ := applied["triad"].(map[string]any)
	if triad["primary"] != "#F3A712" {
		t.Fatalf("triad=%v", triad)
	}

	rec = h.do(withSession(httptest.NewRequest(http.MethodGet, "/theme.css", nil)))
	if rec.Code != http.StatusOK || rec.Body.String() != css {
		t.Fatalf("restore status=%d matches=%v", rec.Code, rec.Body.String() == css)
	}
	if !strings.HasPrefix(rec.Header().Get("Content-Type"), "text/css") {
		t.Fatalf("content-type=%q", rec.Header().Get("Content-Type"))
	}

	rec = h.do(withSession(httptest.NewRequest(http.MethodGet, "/about", nil)))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `<style id="custom-palette-style">`) {
		t.Fatalf("page status=%d missing injected style", rec.Code)
	}

	rec = h.do(withSession(httptest.NewRequest(http.MethodGet, "/api/theme", nil)))
	if stored := decodeBody(t, rec); stored["active"] != true {
		t.Fatalf("stored=%v", stored)
	}

	rec = h.do(withSession(httptest.NewRequest(http.MethodDelete, "/api/theme", nil)))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("reset status=%d", rec.Code)
	}
	rec = h.do(withSession(httptest.NewRequest(http.MethodGet, "/theme.css", nil)))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("after reset status=%d", rec.Code)
	}
	rec = h.do(withSession(httptest.NewRequest(http.MethodGet, "/about", nil)))
	if strings.Contains(rec.Body.String(), "custom-palette-style") {
		t.Fatal("page still carries the custom style after reset")
	}
}

func TestThemeApplyRejectsInvalidBodies(t *testing.T) {
	h := newHarness(t)
	tests := []struct {
		name string
		body string
		code string
	}{
		{name: "five colors", body: `{"palette":["#000000","#111111","#222222","#333333","#444444"]}`, code: "INVALID_PALETTE"},
		{name: "duplicate", body: `{"palette":["#000000","#000000","#222222","#333333","#444444","#555555"]}`, code: "INVALID_PALETTE"},
		{name: "bad hex", body: `{"palette":["red","#111111","#222222","#333333","#444444","#555555"]}`, code: "INVALID_PALETTE"},
		{name: "unknown field", body: `{"palette":[],"extra":1}`, code: "BAD_JSON"},
		{name: "trailing object", body: `{"palette":[]}{}`, code: "BAD_JSON"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := h.do(withSession(httptest.NewRequest(http.MethodPost, "/api/theme", strings.NewReader(tt.body))))
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status=%d", rec.Code)
			}
			if got := decodeBody(t, rec)["code"]; got != tt.code {
				t.Fatalf("code=%v want %s", got, tt.code)
			}
		})
	}
	if _, ok, _ := h.store.Get(context.Background(), testSID+":"+palette.StorageKey); ok {
		t.Fatal("invalid palette was persisted")
	}
}

func TestJSONBodyWithTrailingValueHasNoEffect(t *testing.T) {
	h := newHarness(t)
	valid, _ := json.Marshal(map[string]any{"palette": samplePalette})

	tests := []struct {
		name string
		path string
		body string
	}{
		{name: "theme", path: "/api/theme", body: string(valid) + "{}"},
		{name: "contact", path: "/api/contact", body: `{"name":"Ada","email":"ada@example.com","message":"long enough message"}{}`},
		{name: "subscribe", path: "/api/subscribe", body: `{"name":"Grace","email":"grace@example.com"} 1`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := withSession(httptest.NewRequest(http.MethodPost, tt.path, strings.NewReader(tt.body)))
			req.Header.Set("Content-Type", "application/json")
			rec := h.do(req)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
			}
			if got := decodeBody(t, rec)["code"]; got != "BAD_JSON" {
				t.Fatalf("code=%v body=%s", got, rec.Body.String())
			}
		})
	}

	if _, ok, _ := h.store.Get(context.Background(), testSID+":"+palette.StorageKey); ok {
		t.Fatal("palette persisted despite rejected body")
	}
	if n := h.mailer.sent.Load(); n != 0 {
		t.Fatalf("sent=%d emails for a rejected body", n)
	}
	req := httptest.NewRequest(http.MethodGet, "/api/subscribers", nil)
	req.Header.Set("Authorization", "Bearer admin-secret")
	rec := h.do(req)
	if strings.Contains(rec.Body.String(), "grace@example.com") {
		t.Fatalf("subscriber stored despite rejected body: %s", rec.Body.String())
	}
}

func TestThemeStylesheetIgnoresMalformedState(t *testing.T) {
	h := newHarness(t)
	if err := h.store.Set(context.Background(), testSID+":"+palette.StorageKey, "not-json"); err != nil {
		t.Fatal(err)
	}

	rec := h.do(withSession(httptest.NewRequest(http.MethodGet, "/theme.css", nil)))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status=%d", rec.Code)
	}
	rec = h.do(withSession(httptest.NewRequest(http.MethodGet, "/", nil)))
	if rec.Code != http.StatusOK || strings.Contains(rec.Body.String(), "custom-palette-style") {
		t.Fatalf("page status=%d", rec.Code)
	}
}

func TestThemeStylesheetWithoutSession(t *testing.T) {
	h := newHarness(t)
	if rec := h.do(httptest.NewRequest(http.MethodGet, "/theme.css", nil)); rec.Code != http.StatusNoContent {
		t.Fatalf("status=%d", rec.Code)
	}
}

func TestContactFormPost(t *testing.T) {
	h := newHarness(t)
	form := url.Values{"name": {"Ada"}, "email": {"ada@example.com"}, "message": {"I would love to collaborate."}}
	req := httptest.NewRequest(http.MethodPost, "/api/contact", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rec := h.do(req)
	body := decodeBody(t, rec)
	if rec.Code != http.StatusOK || body["success"] != true || body["message"] != contact.MessageSent {
		t.Fatalf("status=%d body=%v", rec.Code, body)
	}
	if h.mailer.sent.Load() != 2 {
		t.Fatalf("sent=%d want notification and auto-reply", h.mailer.sent.Load())
	}
}

func TestContactValidationStatus(t *testing.T) {
	h := newHarness(t)

	req := httptest.NewRequest(http.MethodPost, "/api/contact", strings.NewReader(`{"name":"A","email":"a@example.com","message":"long enough message"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := h.do(req)
	body := decodeBody(t, rec)
	if rec.Code != http.StatusBadRequest || body["message"] != "Name must be at least 2 characters" {
		t.Fatalf("status=%d body=%v", rec.Code, body)
	}

	form := url.Values{"name": {"Ada"}, "email": {"nope"}, "message": {"long enough message"}}
	req = httptest.NewRequest(http.MethodPost, "/api/contact", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec = h.do(req)
	body = decodeBody(t, rec)
	if rec.Code != http.StatusOK || body["success"] != false || body["message"] != "Please enter a valid email" {
		t.Fatalf("status=%d body=%v", rec.Code, body)
	}
}

func TestContactProviderFailure(t *testing.T) {
	h := newHarness(t)
	h.mailer.err = errors.New("provider down")

	req := httptest.NewRequest(http.MethodPost, "/api/contact", strings.NewReader(`{"name":"Ada","email":"ada@example.com","message":"long enough message"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := h.do(req)
	if rec.Code != http.StatusBadGateway || decodeBody(t, rec)["message"] != contact.MessageFailed {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
}

func TestSubscribeAndListSubscribers(t *testing.T) {
	h := newHarness(t)
	post := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/subscribe", strings.NewReader(`{"name":"Grace","email":"grace@example.com"}`))
		req.Header.Set("Content-Type", "application/json")
		return h.do(req)
	}

	if rec := post(); rec.Code != http.StatusOK || decodeBody(t, rec)["message"] != subscribe.MessageSubscribed {
		t.Fatalf("first subscribe status=%d body=%s", rec.Code, rec.Body.String())
	}
	if rec := post(); rec.Code != http.StatusConflict || decodeBody(t, rec)["message"] != subscribe.MessageAlreadyExists {
		t.Fatalf("duplicate subscribe status=%d body=%s", rec.Code, rec.Body.String())
	}

	rec := h.do(httptest.NewRequest(http.MethodGet, "/api/subscribers", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("missing token status=%d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/subscribers", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	if rec := h.do(req); rec.Code != http.StatusForbidden {
		t.Fatalf("wrong token status=%d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/subscribers", nil)
	req.Header.Set("Authorization", "Bearer admin-secret")
	rec = h.do(req)
	subs, _ := decodeBody(t, rec)["subscribers"].([]any)
	if rec.Code != http.StatusOK || len(subs) != 1 {
		t.Fatalf("list status=%d body=%s", rec.Code, rec.Body.String())
	}
}

func TestSubscribeMissingFieldsFormPost(t *testing.T) {
	h := newHarness(t)
	req := httptest.NewRequest(http.MethodPost, "/api/subscribe", strings.NewReader("name=&email="))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rec := h.do(req)
	if body := decodeBody(t, rec); rec.Code != http.StatusOK || body["message"] != subscribe.MessageMissingFields {
		t.Fatalf("status=%d body=%v", rec.Code, body)
	}
}

func TestSubscribersDisabledWithoutAdminToken(t *testing.T) {
	h := newHarness(t, func(o *Options) { o.AdminToken = "" })
	req := httptest.NewRequest(http.MethodGet, "/api/subscribers", nil)
	req.Header.Set("Authorization", "Bearer anything")
	if rec := h.do(req); rec.Code != http.StatusNotFound {
		t.Fatalf("status=%d", rec.Code)
	}
}

func TestContentAPI(t *testing.T) {
	h := newHarness(t)

	rec := h.do(httptest.NewRequest(http.MethodGet, "/api/content/projects", nil))
	body := decodeBody(t, rec)
	if rec.Code != http.StatusOK || body["section"] != "projects" {
		t.Fatalf("status=%d body=%v", rec.Code, body)
	}

	rec = h.do(httptest.NewRequest(http.MethodGet, "/api/content/blog", nil))
	if rec.Code != http.StatusNotFound || decodeBody(t, rec)["code"] != "SECTION_NOT_FOUND" {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}

	rec = h.do(httptest.NewRequest(http.MethodGet, "/api/content", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"competitions"`) {
		t.Fatalf("status=%d", rec.Code)
	}
}

func TestPagesAndNotFound(t *testing.T) {
	h := newHarness(t)
	for _, section := range content.Sections() {
		rec := h.do(httptest.NewRequest(http.MethodGet, web.PathFor(section), nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("%s status=%d", section, rec.Code)
		}
	}
	if rec := h.do(httptest.NewRequest(http.MethodGet, "/blog", nil)); rec.Code != http.StatusNotFound {
		t.Fatalf("status=%d", rec.Code)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	h := newHarness(t)
	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/palette"},
		{http.MethodPut, "/api/theme"},
		{http.MethodGet, "/api/contact"},
		{http.MethodGet, "/api/subscribe"},
		{http.MethodPost, "/api/subscribers"},
		{http.MethodPost, "/api/content"},
		{http.MethodPost, "/"},
	} {
		rec := h.do(httptest.NewRequest(tc.method, tc.path, nil))
		if rec.Code != http.StatusMethodNotAllowed {
			t.Fatalf("%s %s status=%d", tc.method, tc.path, rec.Code)
		}
	}
}

func TestHealthAndMetrics(t *testing.T) {
	h := newHarness(t)
	if rec := h.do(httptest.NewRequest(http.MethodGet, "/healthz", nil)); rec.Code != http.StatusOK {
		t.Fatalf("health status=%d", rec.Code)
	}

	h.do(httptest.NewRequest(http.MethodGet, "/", nil))
	rec := h.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "portfolio_http_requests_total") {
		t.Fatalf("metrics status=%d", rec.Code)
	}

	degraded := newHarness(t, func(o *Options) {
		o.Ready = func(context.Context) error { return errors.New("redis down") }
	})
	if rec := degraded.do(httptest.NewRequest(http.MethodGet, "/healthz", nil)); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("degraded status=%d", rec.Code)
	}
}

func TestDecodeJSONBodyTrailingValueIsInvalidRequest(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"palette":[]} {}`))
	var target struct {
		Palette []string `json:"palette"`
	}
	err := decodeJSONBody(rec, req, 1024, &target)
	if !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("err=%v want ErrInvalidRequest", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status=%d", rec.Code)
	}
}
