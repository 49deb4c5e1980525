package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/aretw0/crumbtrail/internal/logging"
	"github.com/aretw0/crumbtrail/pkg/domain"
	"github.com/aretw0/crumbtrail/pkg/ports"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// Tracker is the part of crumbtrail.Tracker the interceptor drives.
type Tracker interface {
	AddRequest(ctx context.Context, sessionID string, req domain.RequestContext, label, resourceType string) (domain.Entry, error)
	OnError(ctx context.Context, sessionID string, req domain.RequestContext) (bool, error)
	Clear(ctx context.Context, sessionID string) error
}

// Options parameterize Track for one route or route group.
type Options struct {
	// Clear forgets the session's trail before pushing.
	Clear bool

	// Label is the crumb label, or a resource key when ResourceType is set.
	Label string

	// Manual suppresses the automatic push for this route while still
	// honoring Clear. The handler is expected to call Tracker.Add itself.
	Manual bool

	// ResourceType selects the resource catalog used to resolve Label.
	ResourceType string

	// Action and Controller override the metadata derived from the route.
	Action     string
	Controller string

	// KeepOnError leaves the crumb on the trail when the handler fails.
	KeepOnError bool
}

// Interceptor wires a Tracker into HTTP handlers.
type Interceptor struct {
	tracker  Tracker
	identity ports.SessionIdentity
	logger   *slog.Logger
}

// InterceptorOption configures an Interceptor.
type InterceptorOption func(*Interceptor)

// WithIdentity sets how sessions are identified (default: CookieIdentity{}).
func WithIdentity(id ports.SessionIdentity) InterceptorOption {
	return func(ic *Interceptor) {
		ic.identity = id
	}
}

// WithLogger sets the interceptor's logger.
func WithLogger(logger *slog.Logger) InterceptorOption {
	return func(ic *Interceptor) {
		ic.logger = logger
	}
}

// NewInterceptor creates an Interceptor for tracker.
func NewInterceptor(tracker Tracker, opts ...InterceptorOption) *Interceptor {
	ic := &Interceptor{
		tracker:  tracker,
		identity: CookieIdentity{},
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(ic)
	}
	return ic
}

// Track returns middleware that pushes a crumb for each qualifying request.
//
// Track layers nest: when a route group and a route are both tracked, the
// innermost Options replace the outer ones and the request still pushes at most
// once. The push is held back until the handler first writes, calls the
// Tracker with the request context, or returns.
func (ic *Interceptor) Track(o Options) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet || IsChild(r.Context()) {
				next.ServeHTTP(w, r)
				return
			}

			if st, ok := r.Context().Value(trackingKey).(*tracking); ok {
				st.override(o, RequestFromHTTP(r, o))
				next.ServeHTTP(w, r)
				return
			}

			sid, err := ic.identity.SessionID(w, r)
			if err != nil {
				ic.logger.Error("breadcrumb session unavailable", "path", r.URL.Path, "err", err)
				http.Error(w, "session unavailable", http.StatusInternalServerError)
				return
			}

			ctx := WithSession(r.Context(), sid)
			st := &tracking{ic: ic, ctx: ctx, sid: sid, opts: o, req: RequestFromHTTP(r, o)}
			ctx = context.WithValue(ctx, trackingKey, st)
			r = r.WithContext(domain.WithDeferred(ctx, func() { st.settle(0) }))

			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			sw := &settleWriter{ResponseWriter: ww, settle: st.settle}

			defer func() {
				if p := recover(); p != nil {
					st.abandon()
					if opts, req := st.final(); !opts.KeepOnError {
						ic.drop(ctx, sid, req)
					}
					panic(p)
				}
			}()

			next.ServeHTTP(sw, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			st.settle(status)
			if opts, req := st.final(); status >= http.StatusInternalServerError && !opts.KeepOnError {
				ic.drop(ctx, sid, req)
			}
		})
	}
}

// tracking is the per-request state shared by nested Track layers.
type tracking struct {
	ic  *Interceptor
	ctx context.Context
	sid string

	mu      sync.Mutex
	opts    Options
	req     domain.RequestContext
	settled bool
}

func (st *tracking) override(o Options, req domain.RequestContext) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.settled {
		return
	}
	st.opts = o
	st.req = req
}

func (st *tracking) final() (Options, domain.RequestContext) {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.opts, st.req
}

func (st *tracking) abandon() {
	st.mu.Lock()
	st.settled = true
	st.mu.Unlock()
}

// settle performs the held-back clear and push once. status is the response
// status when known, 0 otherwise. A response already failing with a 5xx
// skips the push unless KeepOnError is set.
func (st *tracking) settle(status int) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.settled {
		return
	}
	st.settled = true

	o, req, ic := st.opts, st.req, st.ic
	if o.Clear {
		if err := ic.tracker.Clear(st.ctx, st.sid); err != nil {
			ic.logger.Warn("failed to clear trail", "session_id", st.sid, "err", err)
		}
	}
	if o.Manual || (status >= http.StatusInternalServerError && !o.KeepOnError) {
		return
	}
	if _, err := ic.tracker.AddRequest(st.ctx, st.sid, req, o.Label, o.ResourceType); err != nil {
		ic.logger.Warn("failed to push crumb", "session_id", st.sid, "path", req.Path, "err", err)
	}
}

// settleWriter settles the pending push before the first byte goes out.
type settleWriter struct {
	http.ResponseWriter
	settle func(status int)
}

func (w *settleWriter) WriteHeader(code int) {
	w.settle(code)
	w.ResponseWriter.WriteHeader(code)
}

func (w *settleWriter) Write(b []byte) (int, error) {
	w.settle(http.StatusOK)
	return w.ResponseWriter.Write(b)
}

func (w *settleWriter) Flush() {
	w.settle(http.StatusOK)
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (w *settleWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

func (ic *Interceptor) drop(ctx context.Context, sid string, req domain.RequestContext) {
	// The request context may already be canceled when the handler failed.
	ctx = context.WithoutCancel(ctx)
	if _, err := ic.tracker.OnError(ctx, sid, req); err != nil {
		ic.logger.Warn("failed to drop crumb of failed page", "session_id", sid, "path", req.Path, "err", err)
	}
}

// RequestFromHTTP builds the RequestContext of r. Action and Controller come
// from o when set, otherwise from the chi route pattern, otherwise from the path.
func RequestFromHTTP(r *http.Request, o Options) domain.RequestContext {
	p := r.URL.Path
	if p == "" {
		p = "/"
	}

	source := p
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			source = pattern
		}
	}
	controller, action := routeNames(source)
	if o.Controller != "" {
		controller = o.Controller
	}
	if o.Action != "" {
		action = o.Action
	}

	return domain.RequestContext{
		Path:       p,
		Method:     r.Method,
		Action:     action,
		Controller: controller,
		Child:      IsChild(r.Context()),
	}
}

// routeNames takes the first and last static segments of a path or route
// pattern as controller and action. Parameters and wildcards are skipped.
func routeNames(pattern string) (controller, action string) {
	var static []string
	for _, seg := range strings.Split(pattern, "/") {
		if seg == "" || seg == "*" || strings.HasPrefix(seg, "{") {
			continue
		}
		static = append(static, seg)
	}
	switch len(static) {
	case 0:
		return "home", "index"
	case 1:
		return static[0], "index"
	default:
		return static[0], static[len(static)-1]
	}
}

type ctxKey int

const (
	childKey ctxKey = iota
	sessionKey
	trackingKey
)

// AsChild marks ctx as a nested invocation; Track skips such requests.
func AsChild(ctx context.Context) context.Context {
	return context.WithValue(ctx, childKey, true)
}

// IsChild reports whether ctx was marked with AsChild.
func IsChild(ctx context.Context) bool {
	v, _ := ctx.Value(childKey).(bool)
	return v
}

// WithSession stores the session identifier in ctx.
func WithSession(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionKey, sessionID)
}

// SessionFromContext returns the session identifier stored by Track.
func SessionFromContext(ctx context.Context) (string, bool) {
	sid, ok := ctx.Value(sessionKey).(string)
	return sid, ok && sid != ""
}
