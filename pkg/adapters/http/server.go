package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"path"
	"strings"

	"github.com/aretw0/crumbtrail"
	"github.com/aretw0/crumbtrail/internal/logging"
	"github.com/aretw0/crumbtrail/pkg/domain"
	"github.com/aretw0/crumbtrail/pkg/middleware"
	"github.com/aretw0/crumbtrail/pkg/ports"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// Server exposes a Tracker over HTTP.
type Server struct {
	Tracker  *crumbtrail.Tracker
	Streams  *StreamManager
	Identity ports.SessionIdentity
	Metrics  http.Handler
	Logger   *slog.Logger

	// Pages serves a demo site under /pages whose every GET is tracked.
	Pages bool
}

// Option configures the Server built by NewHandler.
type Option func(*Server)

// WithStreams enables GET /api/trail/events. sm should also be registered as
// tracker hooks (sm.Hooks()) or subscribers will never hear anything.
func WithStreams(sm *StreamManager) Option {
	return func(s *Server) { s.Streams = sm }
}

// WithIdentity sets how sessions are identified (default: middleware.CookieIdentity{}).
func WithIdentity(id ports.SessionIdentity) Option {
	return func(s *Server) { s.Identity = id }
}

// WithMetrics mounts h on GET /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) { s.Metrics = h }
}

// WithLogger sets the server logger (default: discard).
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.Logger = logger }
}

// WithPages mounts the tracked demo site.
func WithPages() Option {
	return func(s *Server) { s.Pages = true }
}

// NewHandler creates the HTTP handler for tracker.
func NewHandler(tracker *crumbtrail.Tracker, opts ...Option) http.Handler {
	s := &Server{
		Tracker:  tracker,
		Identity: middleware.CookieIdentity{},
		Logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	if s.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.Metrics)
	}

	r.Route("/api/trail", func(r chi.Router) {
		r.Use(s.session)
		r.Get("/", s.GetTrail)
		r.Delete("/", s.ClearTrail)
		r.Put("/label", s.SetLabel)
		r.Get("/render", s.RenderList)
		r.Get("/inline", s.RenderInline)
		r.Get("/previous", s.Previous)
		if s.Streams != nil {
			r.Get("/events", s.SubscribeEvents)
		}
	})

	if s.Pages {
		ic := middleware.NewInterceptor(tracker,
			middleware.WithIdentity(s.Identity),
			middleware.WithLogger(s.Logger),
		)
		r.Route("/pages", func(r chi.Router) {
			r.With(ic.Track(middleware.Options{Clear: true, Label: "Home"})).Get("/", s.Page)
			r.With(ic.Track(middleware.Options{Manual: true})).Get("/*", s.Page)
		})
	}

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Session-Id")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// session resolves the session id once and stores it in the request context.
func (s *Server) session(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sid, err := s.Identity.SessionID(w, r)
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, domain.ErrMissingSessionID) {
				status = http.StatusBadRequest
			}
			http.Error(w, err.Error(), status)
			s.Logger.Warn("session identification failed", "path", r.URL.Path, "err", err)
			return
		}
		next.ServeHTTP(w, r.WithContext(middleware.WithSession(r.Context(), sid)))
	})
}

func sessionOf(r *http.Request) string {
	sid, _ := middleware.SessionFromContext(r.Context())
	return sid
}

// TrailResponse is the JSON form of a trail.
type TrailResponse struct {
	SessionID string         `json:"session_id"`
	Current   string         `json:"current,omitempty"`
	Crumbs    []domain.Entry `json:"crumbs"`
}

// GetTrail handles GET /api/trail.
func (s *Server) GetTrail(w http.ResponseWriter, r *http.Request) {
	sid := sessionOf(r)
	trail, err := s.Tracker.Snapshot(r.Context(), sid)
	if err != nil {
		s.fail(w, "snapshot", err)
		return
	}
	writeJSON(w, http.StatusOK, TrailResponse{
		SessionID: sid,
		Current:   trail.CurrentURL(),
		Crumbs:    trail.Entries(),
	}, s.Logger)
}

// ClearTrail handles DELETE /api/trail.
func (s *Server) ClearTrail(w http.ResponseWriter, r *http.Request) {
	if err := s.Tracker.Clear(r.Context(), sessionOf(r)); err != nil {
		s.fail(w, "clear", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// LabelRequest is the body of PUT /api/trail/label.
type LabelRequest struct {
	Label string `json:"label"`
}

// SetLabel handles PUT /api/trail/label.
func (s *Server) SetLabel(w http.ResponseWriter, r *http.Request) {
	var body LabelRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		s.Logger.Warn("SetLabel: invalid request body", "err", err)
		return
	}
	if err := s.Tracker.SetCurrentLabel(r.Context(), sessionOf(r), body.Label); err != nil {
		s.fail(w, "set label", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RenderList handles GET /api/trail/render?path=&class=.
func (s *Server) RenderList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	out, err := s.Tracker.Render(r.Context(), sessionOf(r), q.Get("path"), q.Get("class"))
	if err != nil {
		s.fail(w, "render", err)
		return
	}
	writeHTML(w, out)
}

// RenderInline handles GET /api/trail/inline?path=&sep=.
func (s *Server) RenderInline(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	out, err := s.Tracker.RenderInline(r.Context(), sessionOf(r), q.Get("path"), q.Get("sep"))
	if err != nil {
		s.fail(w, "render inline", err)
		return
	}
	writeHTML(w, out)
}

// Previous handles GET /api/trail/previous. It redirects to the previous crumb
// or answers 404 when there is none.
func (s *Server) Previous(w http.ResponseWriter, r *http.Request) {
	ok, err := s.Tracker.RedirectToPrevious(w, r, sessionOf(r))
	if err != nil {
		s.fail(w, "previous", err)
		return
	}
	if !ok {
		http.Error(w, "no previous page", http.StatusNotFound)
	}
}

// SubscribeEvents handles GET /api/trail/events (SSE).
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	sid := sessionOf(r)
	ch, cancel := s.Streams.Subscribe(sid)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()
	s.Logger.Debug("sse subscribed", "session_id", sid)

	for {
		select {
		case <-r.Context().Done():
			s.Logger.Debug("sse client disconnected", "session_id", sid)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: crumb\ndata: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

// Page renders a demo page with the session's breadcrumb. Pages below the
// root push themselves, labeled with their last path segment. A "fail" query
// parameter makes the page answer 500, which takes it back off the trail.
func (s *Server) Page(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sid := sessionOf(r)

	title := "Home"
	if rest := strings.Trim(chi.URLParam(r, "*"), "/"); rest != "" {
		title = path.Base(rest)
		if _, err := s.Tracker.Add(ctx, sid, r.URL.Path, title); err != nil {
			s.fail(w, "track page", err)
			return
		}
	}

	if r.URL.Query().Has("fail") {
		http.Error(w, "page failed", http.StatusInternalServerError)
		return
	}

	nav, err := s.Tracker.Render(ctx, sid, r.URL.Path, "")
	if err != nil {
		s.fail(w, "render page", err)
		return
	}
	writeHTML(w, fmt.Sprintf("<!DOCTYPE html>\n<html><head><title>%[1]s</title></head><body>\n<nav>%[2]s</nav>\n<h1>%[1]s</h1>\n</body></html>\n",
		html.EscapeString(title), nav))
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"}, s.Logger)
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"app":     "crumbtrail-http",
		"version": strings.TrimSpace(crumbtrail.Version),
	}, s.Logger)
}

func (s *Server) fail(w http.ResponseWriter, op string, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, domain.ErrMissingSessionID) {
		status = http.StatusBadRequest
	}
	http.Error(w, fmt.Sprintf("%s: %v", op, err), status)
	s.Logger.Error("request failed", "op", op, "err", err)
}

func writeJSON(w http.ResponseWriter, status int, v any, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("response encode failed", "err", err)
	}
}

func writeHTML(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(body))
}
