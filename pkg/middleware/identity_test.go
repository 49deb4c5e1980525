package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aretw0/crumbtrail/pkg/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCookieIdentity_IssuesAndReuses(t *testing.T) {
	id := CookieIdentity{}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sid, err := id.SessionID(rec, req)
	require.NoError(t, err)
	_, err = uuid.Parse(sid)
	require.NoError(t, err)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, DefaultCookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	// Same request asks again: no second cookie, same id.
	again, err := id.SessionID(rec, req)
	require.NoError(t, err)
	assert.Equal(t, sid, again)

	next := httptest.NewRequest(http.MethodGet, "/", nil)
	next.AddCookie(cookies[0])
	reused, err := id.SessionID(httptest.NewRecorder(), next)
	require.NoError(t, err)
	assert.Equal(t, sid, reused)
}

func TestCookieIdentity_ReplacesGarbage(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "sid", Value: "not-a-uuid"})

	sid, err := CookieIdentity{Name: "sid"}.SessionID(httptest.NewRecorder(), req)
	require.NoError(t, err)
	assert.NotEqual(t, "not-a-uuid", sid)
}

func TestCookieIdentity_NoWriter(t *testing.T) {
	_, err := CookieIdentity{}.SessionID(nil, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.ErrorIs(t, err, domain.ErrMissingSessionID)
}

func TestHeaderIdentity(t *testing.T) {
	id := HeaderIdentity{Header: "X-Session"}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, err := id.SessionID(nil, req)
	assert.ErrorIs(t, err, domain.ErrMissingSessionID)

	req.Header.Set("X-Session", " abc ")
	sid, err := id.SessionID(nil, req)
	require.NoError(t, err)
	assert.Equal(t, "abc", sid)
}

func TestRouteNames(t *testing.T) {
	tests := []struct {
		pattern, controller, action string
	}{
		{"/", "home", "index"},
		{"/users", "users", "index"},
		{"/users/{id}/edit", "users", "edit"},
		{"/users/{id}", "users", "index"},
		{"/files/*", "files", "index"},
		{"/a/b/c", "a", "c"},
	}
	for _, tt := range tests {
		c, a := routeNames(tt.pattern)
		assert.Equal(t, tt.controller, c, tt.pattern)
		assert.Equal(t, tt.action, a, tt.pattern)
	}
}
