/*
Package middleware pushes breadcrumbs automatically from HTTP handlers.

An Interceptor wraps handlers with Track, parameterized per route by Options:

	ic := middleware.NewInterceptor(tracker)
	r.With(ic.Track(middleware.Options{Label: "Users"})).Get("/admin/users", listUsers)
	r.With(ic.Track(middleware.Options{Manual: true})).Get("/reports/{id}", showReport)

Only top-level GET requests push a crumb; requests marked with AsChild (nested
fragment renders) are passed through untouched. When the wrapped handler
answers with a 5xx status or panics, the crumb is taken off the trail again
unless KeepOnError is set.

Track layers nest. A group tracked with r.Use and a route tracked with r.With
push once, using the route's Options. A Manual route inside a tracked group
therefore pushes nothing. The push itself waits until the handler first writes
or calls the Tracker with the request context, so Options set by an inner layer
are always the ones applied.
*/
package middleware
