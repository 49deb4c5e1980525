/*
Package crumbtrail keeps a per-session breadcrumb trail for web applications.

Each visit pushes a crumb; crumbs are ordered by the hierarchy level of their URL
rather than by visit order, and revisiting a page already on the trail drops
everything from that page onwards ("the user clicked an earlier breadcrumb").
Pages that fail to render are taken off the trail again.

# Concept

The Tracker is the entry point. It owns no global state: the trail store,
hierarchy provider, resource lookup, locker and logger are injected, each with a
documented default. Trails are read and updated under a per-session critical
section, so concurrent requests of one session never lose updates.

# Usage

	tracker := crumbtrail.New(memory.NewStore())

	ctx := context.Background()
	_, _ = tracker.Add(ctx, "session-123", "/shop", "Shop")
	_, _ = tracker.Add(ctx, "session-123", "/shop/items/7", "Blue mug")

	html, _ := tracker.Render(ctx, "session-123", "/shop/items/7", "breadcrumb")
	// <ol class="breadcrumb"><li><a href="/shop">Shop</a></li><li class="active">Blue mug</li></ol>

For automatic tracking, wrap HTTP handlers with middleware.Interceptor.Track.
*/
package crumbtrail
