/*
Package observability exports breadcrumb activity as Prometheus metrics.

Metrics plugs into the tracker through domain.Hooks, so counting never sits on
the request path beyond an atomic increment.
*/
package observability
