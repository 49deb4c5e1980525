package crumbtrail

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/crumbtrail/internal/logging"
	"github.com/aretw0/crumbtrail/pkg/adapters/memory"
	"github.com/aretw0/crumbtrail/pkg/domain"
	"github.com/aretw0/crumbtrail/pkg/hierarchy"
	"github.com/aretw0/crumbtrail/pkg/ports"
	"github.com/aretw0/crumbtrail/pkg/render"
	"github.com/aretw0/crumbtrail/pkg/resource"
	"github.com/aretw0/crumbtrail/pkg/session"
)

// Tracker maintains the breadcrumb trails of all sessions.
// It is safe for concurrent use.
type Tracker struct {
	sessions  *session.Manager
	hierarchy ports.HierarchyProvider
	resources ports.ResourceLookup
	hooks     domain.Hooks
	logger    *slog.Logger

	sessionOpts []session.Option
}

// Option defines a functional option for configuring the Tracker.
type Option func(*Tracker)

// WithHierarchy sets how URL levels are computed (default: hierarchy.PathDepth).
func WithHierarchy(p ports.HierarchyProvider) Option {
	return func(t *Tracker) {
		t.hierarchy = p
	}
}

// WithResourceLookup sets how labels are resolved (default: resource.Identity).
func WithResourceLookup(l ports.ResourceLookup) Option {
	return func(t *Tracker) {
		t.resources = l
	}
}

// WithHooks registers observability hooks.
func WithHooks(h domain.Hooks) Option {
	return func(t *Tracker) {
		t.hooks = h
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Tracker) {
		t.logger = logger
	}
}

// WithLocker serializes trail updates across replicas with a distributed lock.
func WithLocker(l ports.DistributedLocker) Option {
	return func(t *Tracker) {
		t.sessionOpts = append(t.sessionOpts, session.WithLocker(l))
	}
}

// WithLockTTL sets the expiry of distributed locks (default: session.DefaultLockTTL).
func WithLockTTL(ttl time.Duration) Option {
	return func(t *Tracker) {
		t.sessionOpts = append(t.sessionOpts, session.WithLockTTL(ttl))
	}
}

// New creates a Tracker over store. A nil store keeps trails in memory.
func New(store ports.TrailStore, opts ...Option) *Tracker {
	t := &Tracker{}
	for _, opt := range opts {
		opt(t)
	}

	if store == nil {
		store = memory.NewStore()
	}
	if t.hierarchy == nil {
		t.hierarchy = hierarchy.PathDepth{}
	}
	if t.resources == nil {
		t.resources = resource.Identity{}
	}
	if t.logger == nil {
		t.logger = logging.NewNop()
	}

	t.sessions = session.NewManager(store,
		append([]session.Option{session.WithLogger(t.logger)}, t.sessionOpts...)...,
	)
	return t
}

// Sessions returns the session manager backing the tracker.
func (t *Tracker) Sessions() *session.Manager {
	return t.sessions
}

// Add pushes url with an explicit label onto the session's trail.
// It is meant for trails composed by hand.
func (t *Tracker) Add(ctx context.Context, sessionID, url, label string) (domain.Entry, error) {
	return t.push(ctx, sessionID, url, label, domain.Meta{})
}

// AddRequest pushes the request's path onto the session's trail.
//
// The label is resolved in order: label looked up in the resourceType catalog,
// then the request's action looked up the same way, then the bare action name.
func (t *Tracker) AddRequest(ctx context.Context, sessionID string, req domain.RequestContext, label, resourceType string) (domain.Entry, error) {
	meta := domain.Meta{Action: req.Action, Controller: req.Controller}
	return t.push(ctx, sessionID, req.Path, t.resolveLabel(req, label, resourceType), meta)
}

func (t *Tracker) resolveLabel(req domain.RequestContext, label, resourceType string) string {
	if label != "" {
		return t.resources.Resolve(resourceType, label)
	}
	if resourceType != "" && req.Action != "" {
		return t.resources.Resolve(resourceType, req.Action)
	}
	return req.Action
}

func (t *Tracker) push(ctx context.Context, sessionID, url, label string, meta domain.Meta) (domain.Entry, error) {
	domain.RunDeferred(ctx)
	level := t.hierarchy.Level(url)

	var (
		entry   domain.Entry
		dropped int
	)
	trail, err := t.sessions.Update(ctx, sessionID, func(trail *domain.Trail) error {
		entry, dropped = trail.Push(url, level, label, meta)
		return nil
	})
	if err != nil {
		return domain.Entry{}, err
	}

	if dropped > 0 {
		ev := domain.NewCrumbEvent(domain.EventTruncate, sessionID, entry, trail.Len())
		ev.Dropped = dropped
		t.hooks.Emit(ctx, ev)
		t.logger.Debug("trail truncated", "session_id", sessionID, "url", url, "dropped", dropped)
	}
	t.hooks.Emit(ctx, domain.NewCrumbEvent(domain.EventPush, sessionID, entry, trail.Len()))
	t.logger.Debug("crumb pushed", "session_id", sessionID, "url", url, "level", level, "depth", trail.Len())

	return entry, nil
}

// SetCurrentLabel overwrites the label of the session's current crumb. It is
// used when a page's title is only known once its content has loaded.
func (t *Tracker) SetCurrentLabel(ctx context.Context, sessionID, label string) error {
	domain.RunDeferred(ctx)
	_, err := t.sessions.Update(ctx, sessionID, func(trail *domain.Trail) error {
		if !trail.SetCurrentLabel(label) {
			return session.ErrSkipSave
		}
		return nil
	})
	return err
}

// OnError takes the request's page off the trail so pages that failed to
// render are never offered as breadcrumbs. It reports whether a crumb was
// removed; an unknown path is a no-op.
func (t *Tracker) OnError(ctx context.Context, sessionID string, req domain.RequestContext) (bool, error) {
	domain.RunDeferred(ctx)
	var (
		removed domain.Entry
		ok      bool
	)
	trail, err := t.sessions.Update(ctx, sessionID, func(trail *domain.Trail) error {
		removed, ok = trail.Remove(req.Key())
		if !ok {
			return session.ErrSkipSave
		}
		return nil
	})
	if err != nil || !ok {
		return false, err
	}

	t.hooks.Emit(ctx, domain.NewCrumbEvent(domain.EventRemove, sessionID, removed, trail.Len()))
	t.logger.Debug("crumb removed after error", "session_id", sessionID, "url", removed.URL)
	return true, nil
}

// Clear forgets the session's trail.
func (t *Tracker) Clear(ctx context.Context, sessionID string) error {
	domain.RunDeferred(ctx)
	if err := t.sessions.Delete(ctx, sessionID); err != nil {
		return err
	}
	t.hooks.Emit(ctx, domain.NewCrumbEvent(domain.EventClear, sessionID, domain.Entry{}, 0))
	return nil
}

// Snapshot returns a copy of the session's trail. Sessions without a trail
// yield an empty one.
//
// Every Tracker call first settles a push the interceptor deferred on ctx, so
// a handler always sees its own page on the trail.
func (t *Tracker) Snapshot(ctx context.Context, sessionID string) (*domain.Trail, error) {
	domain.RunDeferred(ctx)
	return t.sessions.Snapshot(ctx, sessionID)
}

// CurrentURL returns the URL of the session's current crumb, or "".
func (t *Tracker) CurrentURL(ctx context.Context, sessionID string) (string, error) {
	trail, err := t.Snapshot(ctx, sessionID)
	if err != nil {
		return "", err
	}
	return trail.CurrentURL(), nil
}

// OrderedURLs returns the trail's URLs. Index 0 is the shallowest page.
func (t *Tracker) OrderedURLs(ctx context.Context, sessionID string) ([]string, error) {
	trail, err := t.Snapshot(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return trail.OrderedURLs(), nil
}

// Redirect is an HTTP redirect to a crumb.
type Redirect struct {
	URL  string
	Code int
}

// ServeHTTP writes the redirect.
func (rd Redirect) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, rd.URL, rd.Code)
}

// OrderedRedirectTargets returns a redirect per crumb, in trail order.
func (t *Tracker) OrderedRedirectTargets(ctx context.Context, sessionID string) ([]Redirect, error) {
	urls, err := t.OrderedURLs(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	out := make([]Redirect, 0, len(urls))
	for _, u := range urls {
		out = append(out, Redirect{URL: u, Code: http.StatusFound})
	}
	return out, nil
}

// PreviousURL returns the URL of the crumb before the deepest one.
// It reports false when the trail has fewer than two crumbs.
func (t *Tracker) PreviousURL(ctx context.Context, sessionID string) (string, bool, error) {
	trail, err := t.Snapshot(ctx, sessionID)
	if err != nil {
		return "", false, err
	}
	url, ok := trail.PreviousURL()
	return url, ok, nil
}

// RedirectToPrevious redirects to PreviousURL when there is one and reports
// whether it did. Nothing is written otherwise.
func (t *Tracker) RedirectToPrevious(w http.ResponseWriter, r *http.Request, sessionID string) (bool, error) {
	url, ok, err := t.PreviousURL(r.Context(), sessionID)
	if err != nil || !ok || url == "" {
		return false, err
	}
	Redirect{URL: url, Code: http.StatusFound}.ServeHTTP(w, r)
	return true, nil
}

// Render renders the trail as an HTML list. currentPath is the normalized
// path of the request being served and selects the active crumb.
func (t *Tracker) Render(ctx context.Context, sessionID, currentPath, cssClass string) (string, error) {
	trail, err := t.Snapshot(ctx, sessionID)
	if err != nil {
		return "", err
	}
	return render.List(trail, currentPath, cssClass), nil
}

// RenderInline renders the trail as inline links joined by separator.
func (t *Tracker) RenderInline(ctx context.Context, sessionID, currentPath, separator string) (string, error) {
	trail, err := t.Snapshot(ctx, sessionID)
	if err != nil {
		return "", err
	}
	return render.Inline(trail, currentPath, separator), nil
}
