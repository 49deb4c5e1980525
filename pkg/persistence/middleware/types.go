// Package middleware decorates a ports.TrailStore with behavior applied at the
// persistence boundary, such as masking or encrypting crumb fields at rest.
package middleware

import "github.com/aretw0/crumbtrail/pkg/ports"

// Middleware allows wrapping a TrailStore to add behavior.
type Middleware func(ports.TrailStore) ports.TrailStore

// Chain wraps store so that the first middleware is the outermost.
func Chain(store ports.TrailStore, mws ...Middleware) ports.TrailStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}
