package middleware

import (
	"context"
	"fmt"
	"net/url"
	"regexp"

	"github.com/aretw0/crumbtrail/pkg/domain"
	"github.com/aretw0/crumbtrail/pkg/ports"
)

// Mask replaces masked query values.
const Mask = "***"

type piiMiddleware struct {
	next     ports.TrailStore
	patterns []*regexp.Regexp
}

// NewPIIMiddleware creates a middleware that masks the values of query
// parameters whose names match any of the patterns before a trail is saved.
// Keys are left alone, so a masked crumb still truncates and removes like the
// page it was pushed for.
func NewPIIMiddleware(patternStrings []string) (Middleware, error) {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid pii pattern %q: %w", p, err)
		}
		patterns[i] = re
	}
	return func(next ports.TrailStore) ports.TrailStore {
		return &piiMiddleware{next: next, patterns: patterns}
	}, nil
}

func (m *piiMiddleware) Save(ctx context.Context, sessionID string, trail *domain.Trail) error {
	// Work on a copy; the caller keeps using the original.
	cloned := trail.Clone()
	for i := range cloned.Crumbs {
		cloned.Crumbs[i].URL = m.maskURL(cloned.Crumbs[i].URL)
	}
	return m.next.Save(ctx, sessionID, cloned)
}

func (m *piiMiddleware) Load(ctx context.Context, sessionID string) (*domain.Trail, error) {
	return m.next.Load(ctx, sessionID)
}

func (m *piiMiddleware) Delete(ctx context.Context, sessionID string) error {
	return m.next.Delete(ctx, sessionID)
}

func (m *piiMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

func (m *piiMiddleware) maskURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.RawQuery == "" {
		return raw
	}
	q := u.Query()
	masked := false
	for k, vs := range q {
		if !m.matches(k) {
			continue
		}
		for i := range vs {
			vs[i] = Mask
		}
		masked = true
	}
	if !masked {
		return raw
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func (m *piiMiddleware) matches(name string) bool {
	for _, p := range m.patterns {
		if p.MatchString(name) {
			return true
		}
	}
	return false
}
