package ports

import "net/http"

// HierarchyProvider computes the hierarchy depth of a URL.
// Crumbs with a lower level are rendered before deeper ones.
type HierarchyProvider interface {
	Level(url string) int
}

// HierarchyFunc adapts a plain function to HierarchyProvider.
type HierarchyFunc func(url string) int

// Level calls f(url).
func (f HierarchyFunc) Level(url string) int { return f(url) }

// ResourceLookup resolves a crumb label against a resource catalog.
// resourceType selects the catalog; label is the lookup key. Implementations
// return label unchanged when nothing matches.
type ResourceLookup interface {
	Resolve(resourceType, label string) string
}

// SessionIdentity extracts a stable, opaque session identifier from a request.
type SessionIdentity interface {
	SessionID(w http.ResponseWriter, r *http.Request) (string, error)
}
