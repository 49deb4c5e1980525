package http

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/crumbtrail"
	"github.com/aretw0/crumbtrail/pkg/domain"
	"github.com/aretw0/crumbtrail/pkg/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sessionHeader = "X-Session-Id"

type fixture struct {
	tracker *crumbtrail.Tracker
	streams *StreamManager
	handler http.Handler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	streams := NewStreamManager(nil)
	tracker := crumbtrail.New(nil, crumbtrail.WithHooks(streams.Hooks()))
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "metrics")
	})
	return &fixture{
		tracker: tracker,
		streams: streams,
		handler: NewHandler(tracker,
			WithStreams(streams),
			WithIdentity(middleware.HeaderIdentity{Header: sessionHeader}),
			WithMetrics(metrics),
			WithPages(),
		),
	}
}

func (f *fixture) do(method, target, body string) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	req.Header.Set(sessionHeader, "s1")
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) seed(t *testing.T, urls ...string) {
	t.Helper()
	for _, u := range urls {
		_, err := f.tracker.Add(context.Background(), "s1", u, strings.ToUpper(u[1:2]))
		require.NoError(t, err)
	}
}

func TestHealthAndInfo(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = f.do(http.MethodGet, "/info", "")
	var info map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.Equal(t, crumbtrail.Version, info["version"])

	rec = f.do(http.MethodGet, "/metrics", "")
	assert.Equal(t, "metrics", rec.Body.String())
}

func TestGetTrail(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "/a", "/a/b")

	rec := f.do(http.MethodGet, "/api/trail", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp TrailResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "s1", resp.SessionID)
	assert.Equal(t, "/a/b", resp.Current)
	require.Len(t, resp.Crumbs, 2)
	assert.Equal(t, "/a", resp.Crumbs[0].URL)
	assert.Equal(t, 2, resp.Crumbs[1].Level)
}

func TestGetTrail_MissingSession(t *testing.T) {
	f := newFixture(t)

	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/trail", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestNewHandler_DefaultLoggerIsSilent(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	h := NewHandler(crumbtrail.New(nil), WithIdentity(middleware.HeaderIdentity{Header: sessionHeader}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/trail", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, buf.String(), "nothing is logged unless WithLogger is given")
}

func TestSetLabelAndClear(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "/a")

	rec := f.do(http.MethodPut, "/api/trail/label", `{"label":"Renamed"}`)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	trail, err := f.tracker.Snapshot(context.Background(), "s1")
	require.NoError(t, err)
	cur, _ := trail.Current()
	assert.Equal(t, "Renamed", cur.Label)

	rec = f.do(http.MethodPut, "/api/trail/label", `{`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodDelete, "/api/trail", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	urls, err := f.tracker.OrderedURLs(context.Background(), "s1")
	require.NoError(t, err)
	assert.Empty(t, urls)
}

func TestRenderEndpoints(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodGet, "/api/trail/render", "")
	assert.Equal(t, "<!-- breadcrumb trail is empty -->", rec.Body.String())

	f.seed(t, "/a", "/a/b")

	rec = f.do(http.MethodGet, "/api/trail/render?path=/a/b&class=crumbs", "")
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, `<ol class="crumbs"><li><a href="/a">A</a></li><li class="active">A</li></ol>`, rec.Body.String())

	rec = f.do(http.MethodGet, "/api/trail/inline?path=/a/b&sep=/", "")
	assert.Equal(t, `<a href="/a">A</a>  / A`, rec.Body.String())
}

func TestPrevious(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodGet, "/api/trail/previous", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	f.seed(t, "/a", "/a/b")
	rec = f.do(http.MethodGet, "/api/trail/previous", "")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/a", rec.Header().Get("Location"))
}

func TestPages(t *testing.T) {
	f := newFixture(t)

	f.do(http.MethodGet, "/pages/", "")
	f.do(http.MethodGet, "/pages/shop", "")
	rec := f.do(http.MethodGet, "/pages/shop/items", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `<li><a href="/pages/">Home</a></li><li><a href="/pages/shop">shop</a></li><li class="active">items</li>`)
	assert.Contains(t, rec.Body.String(), "<h1>items</h1>")

	rec = f.do(http.MethodGet, "/pages/shop/items/broken?fail=1", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	urls, err := f.tracker.OrderedURLs(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"/pages/", "/pages/shop", "/pages/shop/items"}, urls)

	// Going home starts over.
	f.do(http.MethodGet, "/pages/", "")
	urls, _ = f.tracker.OrderedURLs(context.Background(), "s1")
	assert.Equal(t, []string{"/pages/"}, urls)
}

func TestCORSPreflight(t *testing.T) {
	f := newFixture(t)
	rec := f.do(http.MethodOptions, "/api/trail", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestSubscribeEvents(t *testing.T) {
	f := newFixture(t)
	srv := httptest.NewServer(f.handler)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/trail/events", nil)
	require.NoError(t, err)
	req.Header.Set(sessionHeader, "s1")
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	lines := bufio.NewScanner(resp.Body)
	require.True(t, lines.Scan())
	assert.Equal(t, "event: ping", lines.Text())

	require.Eventually(t, func() bool { return f.streams.Subscribers("s1") == 1 }, time.Second, 10*time.Millisecond)
	f.seed(t, "/a")

	var data string
	for lines.Scan() {
		if strings.HasPrefix(lines.Text(), "data: {") {
			data = strings.TrimPrefix(lines.Text(), "data: ")
			break
		}
	}
	var ev domain.CrumbEvent
	require.NoError(t, json.Unmarshal([]byte(data), &ev))
	assert.Equal(t, domain.EventPush, ev.Type)
	assert.Equal(t, "/a", ev.Entry.URL)
	assert.Equal(t, 1, ev.Depth)

	cancel()
	assert.Eventually(t, func() bool { return f.streams.Subscribers("s1") == 0 }, time.Second, 10*time.Millisecond)
}

func TestStreamManager_SlowSubscriberDoesNotBlock(t *testing.T) {
	sm := NewStreamManager(nil)
	ch, unsubscribe := sm.Subscribe("s")

	for i := 0; i < 50; i++ {
		sm.Broadcast("s", "x")
	}
	assert.Len(t, ch, 10)

	unsubscribe()
	unsubscribe()
	assert.Equal(t, 0, sm.Subscribers("s"))
}
