// Package http serves breadcrumb trails over HTTP: a JSON API under
// /api/trail, an SSE stream of crumb events, health and metrics endpoints, and
// an optional demo site whose pages are tracked by the middleware.
package http
