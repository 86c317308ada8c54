package gateway

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"portfolio-site/internal/contact"
	"portfolio-site/internal/content"
	"portfolio-site/internal/logging"
	"portfolio-site/internal/metrics"
	"portfolio-site/internal/palette"
	"portfolio-site/internal/subscribe"
	"portfolio-site/internal/theme"
	"portfolio-site/internal/web"
)

const (
	maxThemeBodyBytes  = 4 * 1024
	maxFormBodyBytes   = 32 * 1024
	multipartOverhead  = 64 * 1024
	defaultNumColors   = 6
	maxNumColors       = 12
	paletteFailMessage = "Failed to generate palette"
)

// Options wires the handler to its collaborators.
type Options struct {
	Sessions   *Sessions
	Store      palette.Store
	Palette    PaletteExtractor
	Contact    *contact.Service
	Subscribe  *subscribe.Service
	Content    *content.Document
	Pages      *web.Renderer
	AdminToken string
	MaxUpload  int64
	Log        *logging.Logger
	// Ready reports backing store health for /healthz. Optional.
	Ready func(context.Context) error
}

type Handler struct {
	opts Options
}

func NewHandler(opts Options) *Handler {
	if opts.Sessions == nil {
		opts.Sessions = NewSessions(24*time.Hour, false)
	}
	if opts.Store == nil {
		opts.Store = palette.NewMemoryStore(24 * time.Hour)
	}
	if opts.MaxUpload <= 0 {
		opts.MaxUpload = 10 << 20
	}
	return &Handler{opts: opts}
}

func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", h.page)
	mux.Handle("/static/", web.Static())
	mux.HandleFunc("/theme.css", h.themeStylesheet)
	mux.HandleFunc("/api/palette", h.extractPalette)
	mux.HandleFunc("/api/theme", h.theme)
	mux.HandleFunc("/api/contact", h.contact)
	mux.HandleFunc("/api/subscribe", h.subscribe)
	mux.HandleFunc("/api/subscribers", h.subscribers)
	mux.HandleFunc("/api/content", h.content)
	mux.HandleFunc("/api/content/", h.content)
	mux.HandleFunc("/healthz", h.health)
	mux.Handle("/metrics", promhttp.Handler())
	return h.instrumentRequests(mux)
}

func (h *Handler) instrumentRequests(mux *http.ServeMux) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		_, route := mux.Handler(r)
		if route == "" {
			route = "unmatched"
		}
		observer := &statusObserver{ResponseWriter: w, status: http.StatusOK}
		mux.ServeHTTP(observer, r)

		elapsed := time.Since(started)
		metrics.RequestCount.WithLabelValues(r.Method, route, strconv.Itoa(observer.status)).Inc()
		metrics.RequestDuration.WithLabelValues(r.Method, route).Observe(elapsed.Seconds())
		h.opts.Log.Info("http_request", map[string]any{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      observer.status,
			"duration_ms": elapsed.Milliseconds(),
			"remote":      r.RemoteAddr,
		})
	})
}

type statusObserver struct {
	http.ResponseWriter
	status int
}

func (o *statusObserver) WriteHeader(status int) {
	o.status = status
	o.ResponseWriter.WriteHeader(status)
}

func (o *statusObserver) Flush() {
	if flusher, ok := o.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func (h *Handler) page(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		h.logRejection(r, "page", "method_not_allowed", "")
		writeErr(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
		return
	}
	section, ok := web.SectionForPath(r.URL.Path)
	if !ok || h.opts.Pages == nil {
		writeErr(w, http.StatusNotFound, "NOT_FOUND", "page not found")
		return
	}

	doc := palette.NewDocument()
	if sid, ok := h.opts.Sessions.Existing(r); ok {
		if _, err := palette.NewController(h.opts.Store, doc, sid).Restore(r.Context()); err != nil {
			h.opts.Log.Warn("theme_restore_failed", map[string]any{"error": err.Error(), "path": r.URL.Path})
		}
	}

	var buf bytes.Buffer
	if err := h.opts.Pages.Render(&buf, section, doc.StyleElement()); err != nil {
		h.opts.Log.Error("page_render_failed", err, map[string]any{"section": section})
		writeErr(w, http.StatusInternalServerError, "INTERNAL_ERROR", "page could not be rendered")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (h *Handler) extractPalette(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.logRejection(r, "extract_palette", "method_not_allowed", "")
		writeErr(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
		return
	}
	if h.opts.Palette == nil {
		writePaletteErr(w, http.StatusServiceUnavailable, paletteFailMessage)
		return
	}

	sid, err := h.opts.Sessions.ID(w, r)
	if err != nil {
		h.opts.Log.Error("session_issue_failed", err, nil)
		writePaletteErr(w, http.StatusInternalServerError, paletteFailMessage)
		return
	}

	upload, numColors, status, reason := h.readUpload(w, r)
	if reason != "" {
		h.logRejection(r, "extract_palette", "bad_upload", reason)
		writePaletteErr(w, status, reason)
		return
	}

	ctx, done := h.opts.Sessions.Begin(r.Context(), sid)
	defer done()

	colors, err := h.opts.Palette.Extract(ctx, upload, numColors)
	if err == nil {
		// Only six distinct colors can be applied as a theme.
		if _, perr := palette.Parse(colors); perr != nil {
			err = fmt.Errorf("%w: %v", ErrUpstreamResponse, perr)
		}
	}
	if err != nil {
		mapped := mapRelayError(err)
		metrics.PaletteRelays.WithLabelValues(relayOutcome(mapped)).Inc()
		if errors.Is(mapped, ErrPaletteSuperseded) {
			h.logRejection(r, "extract_palette", "superseded", sid)
			writePaletteErr(w, http.StatusConflict, ErrPaletteSuperseded.Error())
			return
		}
		h.opts.Log.Error("palette_relay_failed", mapped, map[string]any{"code": relayOutcome(mapped), "session": sid})
		writePaletteErr(w, http.StatusInternalServerError, paletteFailMessage)
		return
	}

	metrics.PaletteRelays.WithLabelValues("ok").Inc()
	writeJSON(w, http.StatusOK, map[string]any{"palette": colors})
}

// readUpload returns a non-empty reason with its status when the upload is unusable.
func (h *Handler) readUpload(w http.ResponseWriter, r *http.Request) (Upload, int, int, string) {
	r.Body = http.MaxBytesReader(w, r.Body, h.opts.MaxUpload+multipartOverhead)
	if err := r.ParseMultipartForm(h.opts.MaxUpload); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return Upload{}, 0, http.StatusRequestEntityTooLarge, "Image exceeds the maximum upload size"
		}
		return Upload{}, 0, http.StatusBadRequest, "Request must be a multipart form with an image"
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	numColors := defaultNumColors
	if raw := strings.TrimSpace(r.FormValue("num_colors")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxNumColors {
			return Upload{}, 0, http.StatusBadRequest, "num_colors must be between 1 and 12"
		}
		numColors = n
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		return Upload{}, 0, http.StatusBadRequest, "An image file is required"
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.opts.MaxUpload+1))
	if err != nil {
		return Upload{}, 0, http.StatusBadRequest, "Image could not be read"
	}
	if int64(len(data)) > h.opts.MaxUpload {
		return Upload{}, 0, http.StatusRequestEntityTooLarge, "Image exceeds the maximum upload size"
	}
	sniffed := http.DetectContentType(data)
	if !strings.HasPrefix(sniffed, "image/") {
		return Upload{}, 0, http.StatusBadRequest, "Upload must be an image"
	}

	return Upload{Filename: header.Filename, ContentType: sniffed, Data: data}, numColors, 0, ""
}

func (h *Handler) theme(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.storedTheme(w, r)
	case http.MethodPost:
		h.applyTheme(w, r)
	case http.MethodDelete:
		h.resetTheme(w, r)
	default:
		h.logRejection(r, "theme", "method_not_allowed", "")
		writeErr(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
	}
}

func (h *Handler) applyTheme(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Palette []string `json:"palette"`
	}
	if err := decodeJSONBody(w, r, maxThemeBodyBytes, &req); err != nil {
		h.logRejection(r, "apply_theme", "bad_json", err.Error())
		return
	}
	p, err := palette.Parse(req.Palette)
	if err != nil {
		h.logRejection(r, "apply_theme", "invalid_palette", err.Error())
		writeErr(w, http.StatusBadRequest, "INVALID_PALETTE", err.Error())
		return
	}

	sid, err := h.opts.Sessions.ID(w, r)
	if err != nil {
		writeMappedErr(w, err)
		return
	}
	applied, err := palette.NewController(h.opts.Store, palette.NewDocument(), sid).Apply(r.Context(), p)
	if err != nil {
		h.opts.Log.Error("theme_apply_failed", err, map[string]any{"session": sid})
		writeMappedErr(w, &FriendlyError{Code: "PERSISTENCE_FAILED", Message: "theme could not be saved", Cause: err})
		return
	}

	metrics.ThemeChanges.WithLabelValues("apply").Inc()
	writeJSON(w, http.StatusOK, applied)
}

func (h *Handler) resetTheme(w http.ResponseWriter, r *http.Request) {
	sid, ok := h.opts.Sessions.Existing(r)
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err := palette.NewController(h.opts.Store, palette.NewDocument(), sid).Reset(r.Context()); err != nil {
		h.opts.Log.Error("theme_reset_failed", err, map[string]any{"session": sid})
		writeMappedErr(w, &FriendlyError{Code: "PERSISTENCE_FAILED", Message: "theme could not be reset", Cause: err})
		return
	}
	metrics.ThemeChanges.WithLabelValues("reset").Inc()
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) storedTheme(w http.ResponseWriter, r *http.Request) {
	type storedResponse struct {
		Active  bool         `json:"active"`
		Palette []string     `json:"palette,omitempty"`
		Triad   *theme.Triad `json:"triad,omitempty"`
	}

	sid, ok := h.opts.Sessions.Existing(r)
	if !ok {
		writeJSON(w, http.StatusOK, storedResponse{})
		return
	}
	p, found, err := palette.NewController(h.opts.Store, palette.NewDocument(), sid).Stored(r.Context())
	if err != nil {
		h.opts.Log.Error("theme_load_failed", err, map[string]any{"session": sid})
		writeMappedErr(w, &FriendlyError{Code: "PERSISTENCE_FAILED", Message: "theme could not be loaded", Cause: err})
		return
	}
	if !found {
		writeJSON(w, http.StatusOK, storedResponse{})
		return
	}
	triad := theme.PickDiverse(p.Colors())
	writeJSON(w, http.StatusOK, storedResponse{Active: true, Palette: p.Strings(), Triad: &triad})
}

func (h *Handler) themeStylesheet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		h.logRejection(r, "theme_stylesheet", "method_not_allowed", "")
		writeErr(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
		return
	}
	w.Header().Set("Cache-Control", "no-store")

	sid, ok := h.opts.Sessions.Existing(r)
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	doc := palette.NewDocument()
	if _, err := palette.NewController(h.opts.Store, doc, sid).Restore(r.Context()); err != nil {
		h.opts.Log.Warn("theme_restore_failed", map[string]any{"error": err.Error(), "path": r.URL.Path})
	}
	css, ok := doc.CSS()
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, css)
}

func (h *Handler) contact(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.logRejection(r, "contact", "method_not_allowed", "")
		writeErr(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
		return
	}
	var sub contact.Submission
	isJSON, err := decodeForm(w, r, &sub, func(get func(string) string) {
		sub = contact.Submission{Name: get("name"), Email: get("email"), Message: get("message")}
	})
	if err != nil {
		h.logRejection(r, "contact", "bad_body", err.Error())
		return
	}

	res := h.opts.Contact.Submit(r.Context(), sub)
	writeJSON(w, resultStatus(isJSON, res.Outcome), res)
}

func (h *Handler) subscribe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.logRejection(r, "subscribe", "method_not_allowed", "")
		writeErr(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
		return
	}
	var req subscribe.Request
	isJSON, err := decodeForm(w, r, &req, func(get func(string) string) {
		req = subscribe.Request{Name: get("name"), Email: get("email")}
	})
	if err != nil {
		h.logRejection(r, "subscribe", "bad_body", err.Error())
		return
	}

	res := h.opts.Subscribe.Subscribe(r.Context(), req)
	writeJSON(w, resultStatus(isJSON, res.Outcome), res)
}

func (h *Handler) subscribers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.logRejection(r, "subscribers", "method_not_allowed", "")
		writeErr(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
		return
	}
	if h.opts.AdminToken == "" {
		writeErr(w, http.StatusNotFound, "NOT_FOUND", "endpoint not found")
		return
	}
	token, ok := bearerToken(r)
	if !ok {
		h.logRejection(r, "subscribers", "missing_bearer_token", "")
		writeErr(w, http.StatusUnauthorized, "UNAUTHORIZED", "bearer token is required")
		return
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(h.opts.AdminToken)) != 1 {
		h.logRejection(r, "subscribers", "bad_bearer_token", "")
		writeMappedErr(w, ErrUnauthorized)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"subscribers": h.opts.Subscribe.List(r.Context())})
}

func (h *Handler) content(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.logRejection(r, "content", "method_not_allowed", "")
		writeErr(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
		return
	}
	name := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/content"), "/")
	if name == "" {
		writeJSON(w, http.StatusOK, h.opts.Content)
		return
	}
	if strings.Contains(name, "/") {
		writeErr(w, http.StatusNotFound, "NOT_FOUND", "endpoint not found")
		return
	}
	section, err := h.opts.Content.Section(name)
	if err != nil {
		writeMappedErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"section": strings.ToLower(name), "data": section})
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if h.opts.Ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.opts.Ready(ctx); err != nil {
			h.opts.Log.Warn("health_check_failed", map[string]any{"error": err.Error()})
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) logRejection(r *http.Request, operation string, reason string, details string) {
	h.opts.Log.Warn("http_request_rejected", map[string]any{
		"operation": operation,
		"method":    r.Method,
		"path":      r.URL.Path,
		"reason":    reason,
		"details":   details,
		"remote":    r.RemoteAddr,
	})
}

// resultStatus keeps form posts on 200 with the success envelope and gives JSON clients a
// status that matches the outcome.
func resultStatus(isJSON bool, outcome string) int {
	if !isJSON {
		return http.StatusOK
	}
	switch outcome {
	case "invalid", "missing_fields":
		return http.StatusBadRequest
	case "duplicate":
		return http.StatusConflict
	case "error":
		return http.StatusBadGateway
	default:
		return http.StatusOK
	}
}

// decodeForm fills target from a JSON body or, for form posts, through fromForm. The
// returned bool reports whether the body was JSON.
func decodeForm(w http.ResponseWriter, r *http.Request, target any, fromForm func(get func(string) string)) (bool, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		return true, decodeJSONBody(w, r, maxFormBodyBytes, target)
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxFormBodyBytes)
	var err error
	if mediaType == "multipart/form-data" {
		err = r.ParseMultipartForm(maxFormBodyBytes)
	} else {
		err = r.ParseForm()
	}
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeErr(w, http.StatusRequestEntityTooLarge, "BODY_TOO_LARGE", "request body exceeds max size")
		} else {
			writeErr(w, http.StatusBadRequest, "BAD_FORM", "request body must be a valid form")
		}
		return false, err
	}
	fromForm(r.PostFormValue)
	return false, nil
}

func decodeJSONBody(w http.ResponseWriter, r *http.Request, maxBytes int64, target any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(target); err != nil {
		var syntaxErr *json.SyntaxError
		var maxBytesErr *http.MaxBytesError
		switch {
		case errors.As(err, &syntaxErr):
			writeErr(w, http.StatusBadRequest, "BAD_JSON", "request body must be valid JSON")
		case errors.As(err, &maxBytesErr):
			writeErr(w, http.StatusRequestEntityTooLarge, "BODY_TOO_LARGE", "request body exceeds max size")
		case strings.Contains(err.Error(), "unknown field"):
			writeErr(w, http.StatusBadRequest, "BAD_JSON", "request contains unknown fields")
		default:
			writeErr(w, http.StatusBadRequest, "BAD_JSON", "request body must be valid JSON")
		}
		return err
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		writeErr(w, http.StatusBadRequest, "BAD_JSON", "request body must contain exactly one JSON object")
		if err == nil {
			err = fmt.Errorf("%w: request body must contain exactly one JSON object", ErrInvalidRequest)
		}
		return err
	}
	return nil
}

func bearerToken(r *http.Request) (string, bool) {
	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	if !strings.HasPrefix(auth, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	if token == "" {
		return "", false
	}
	return token, true
}

func writeMappedErr(w http.ResponseWriter, err error) {
	if errors.Is(err, content.ErrUnknownSection) {
		writeErr(w, http.StatusNotFound, "SECTION_NOT_FOUND", "content section does not exist")
		return
	}
	if errors.Is(err, ErrInvalidRequest) {
		writeErr(w, http.StatusBadRequest, "INVALID_REQUEST", "request is missing required fields or uses disallowed values")
		return
	}
	if errors.Is(err, ErrUnauthorized) {
		writeErr(w, http.StatusForbidden, "FORBIDDEN", "token does not authorize this action")
		return
	}
	var friendly *FriendlyError
	if errors.As(err, &friendly) {
		status := http.StatusBadGateway
		if friendly.Code == "PERSISTENCE_FAILED" {
			status = http.StatusServiceUnavailable
		}
		writeErr(w, status, friendly.Code, friendly.Message)
		return
	}
	writeErr(w, http.StatusInternalServerError, "INTERNAL_ERROR", "portfolio server internal error")
}

func writePaletteErr(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeErr(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{"code": code, "message": message, "status": strconv.Itoa(status)})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
