/*
Package domain contains the core breadcrumb model and its update algorithm.

It defines the crumb Entry, the ordering policy and the per-session Trail. This
package is kept pure and free of I/O or persistence concerns; collaborators such
as hierarchy providers and stores are described in package ports.

# Key Entities

  - Entry: one remembered page (Key, URL, Label, Level, route metadata).
  - Trail: the ordered crumbs of a single session plus its Current entry.
  - RequestContext: the explicit per-request input used to push or drop crumbs.
  - Hooks: observability callbacks fired by the Tracker on trail mutations.

# Ordering

Crumbs are ordered by hierarchy Level ascending. Entries at the same Level keep
the order in which they were pushed; the Level-only comparison (CompareLevel) is
available, but the Trail never relies on it alone so no entry is ever dropped
because it ties with another.
*/
package domain
