/*
Package ports defines the driven ports (interfaces) of the breadcrumb tracker.

These interfaces decouple the trail logic from its collaborators, allowing the
Tracker to work with various storage backends, hierarchy rules and session
identity schemes.

# Key Interfaces

  - TrailStore: persists and loads the Trail of a session.
  - DistributedLocker: serializes access to a session across replicas.
  - HierarchyProvider: computes the hierarchy depth of a URL.
  - ResourceLookup: resolves crumb labels from a resource catalog.
  - SessionIdentity: extracts the session identifier from an HTTP request.
*/
package ports
