package domain

import "context"

// RequestContext carries what the Tracker needs to know about an inbound
// request. It is always passed explicitly; nothing is read from ambient state.
type RequestContext struct {
	// Path is the normalized request path (no scheme, host or query).
	Path string

	// Method is the HTTP method of the request.
	Method string

	// Action and Controller are optional route metadata. Action doubles as the
	// fallback label of a crumb.
	Action     string
	Controller string

	// Child marks nested invocations (fragments rendered inside another request).
	Child bool
}

// Key returns the identity key of the request path.
func (r RequestContext) Key() uint64 {
	return KeyOf(r.Path)
}

type deferredKey struct{}

// WithDeferred attaches fn to ctx. fn is work that must happen before the
// trail is next read or written on behalf of ctx, such as a push held back by
// an HTTP interceptor until the route's options are final. fn must be safe to
// call more than once.
func WithDeferred(ctx context.Context, fn func()) context.Context {
	return context.WithValue(ctx, deferredKey{}, fn)
}

// RunDeferred calls the function attached with WithDeferred, if any.
func RunDeferred(ctx context.Context) {
	if fn, ok := ctx.Value(deferredKey{}).(func()); ok && fn != nil {
		fn()
	}
}
