/*
Package session implements per-session access to breadcrumb trails.

It serializes read-modify-write cycles on a session's Trail with a reference
counted in-process mutex and, optionally, a distributed lock, so concurrent
requests of one session (duplicate tabs, prefetch) never lose updates. It also
provides the atomic get-or-create used on a session's first request.
*/
package session
