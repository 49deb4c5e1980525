package middleware

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/crumbtrail/pkg/domain"
	"github.com/google/uuid"
)

// DefaultCookieName is the cookie used by CookieIdentity when Name is empty.
const DefaultCookieName = "crumbtrail_sid"

// CookieIdentity identifies sessions by a random UUID kept in a cookie.
// A request without a valid cookie gets a fresh identifier, and the cookie is
// set on the response.
type CookieIdentity struct {
	Name   string
	Path   string
	MaxAge time.Duration
	Secure bool
}

// SessionID implements ports.SessionIdentity.
func (c CookieIdentity) SessionID(w http.ResponseWriter, r *http.Request) (string, error) {
	name := c.Name
	if name == "" {
		name = DefaultCookieName
	}

	if ck, err := r.Cookie(name); err == nil {
		if id, err := uuid.Parse(ck.Value); err == nil {
			return id.String(), nil
		}
	}

	if w == nil {
		return "", fmt.Errorf("%w: no %s cookie and no response to set one", domain.ErrMissingSessionID, name)
	}

	id := uuid.NewString()
	path := c.Path
	if path == "" {
		path = "/"
	}
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    id,
		Path:     path,
		MaxAge:   int(c.MaxAge.Seconds()),
		Secure:   c.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	// Later lookups in the same request must see the new id.
	r.AddCookie(&http.Cookie{Name: name, Value: id})
	return id, nil
}

// HeaderIdentity reads the session identifier from a request header set by an
// upstream session layer. A missing header is a configuration failure.
type HeaderIdentity struct {
	Header string
}

// SessionID implements ports.SessionIdentity.
func (h HeaderIdentity) SessionID(_ http.ResponseWriter, r *http.Request) (string, error) {
	id := strings.TrimSpace(r.Header.Get(h.Header))
	if id == "" {
		return "", fmt.Errorf("%w: header %q not set", domain.ErrMissingSessionID, h.Header)
	}
	return id, nil
}
