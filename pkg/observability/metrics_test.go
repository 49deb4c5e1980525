package observability_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aretw0/crumbtrail"
	"github.com/aretw0/crumbtrail/pkg/domain"
	"github.com/aretw0/crumbtrail/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_CountsTrackerActivity(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := observability.NewMetrics(reg)
	tracker := crumbtrail.New(nil, crumbtrail.WithHooks(m.Hooks()))
	ctx := context.Background()

	_, _ = tracker.Add(ctx, "s", "/a", "")
	_, _ = tracker.Add(ctx, "s", "/a/b", "")
	_, _ = tracker.Add(ctx, "s", "/a/b/c", "")
	_, _ = tracker.Add(ctx, "s", "/a", "")
	_, _ = tracker.OnError(ctx, "s", domain.RequestContext{Path: "/a"})
	require.NoError(t, tracker.Clear(ctx, "s"))

	expected := `
# HELP crumbtrail_pushes_total Crumbs pushed onto a trail.
# TYPE crumbtrail_pushes_total counter
crumbtrail_pushes_total 4
# HELP crumbtrail_truncations_total Pushes that revisited a page and cut the trail back.
# TYPE crumbtrail_truncations_total counter
crumbtrail_truncations_total 1
# HELP crumbtrail_crumbs_dropped_total Crumbs discarded by truncation.
# TYPE crumbtrail_crumbs_dropped_total counter
crumbtrail_crumbs_dropped_total 3
# HELP crumbtrail_removals_total Crumbs removed because their page failed.
# TYPE crumbtrail_removals_total counter
crumbtrail_removals_total 1
# HELP crumbtrail_clears_total Trails cleared.
# TYPE crumbtrail_clears_total counter
crumbtrail_clears_total 1
`
	err := testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"crumbtrail_pushes_total",
		"crumbtrail_truncations_total",
		"crumbtrail_crumbs_dropped_total",
		"crumbtrail_removals_total",
		"crumbtrail_clears_total",
	)
	assert.NoError(t, err)
	n, err := testutil.GatherAndCount(reg, "crumbtrail_trail_depth")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestMetrics_Handler(t *testing.T) {
	m := observability.NewMetrics(nil)
	m.Hooks().OnPush(context.Background(), &domain.CrumbEvent{Depth: 2})

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, _ := io.ReadAll(rec.Body)
	assert.Contains(t, string(body), "crumbtrail_pushes_total 1")
	assert.Contains(t, string(body), "crumbtrail_trail_depth_count 1")
	assert.Contains(t, string(body), "go_goroutines")
}
