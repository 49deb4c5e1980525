// Package hierarchy provides HierarchyProvider implementations.
//
// PathDepth is the default: a URL's level is the number of non-empty segments
// of its path. Routes overrides that with an explicit table, typically loaded
// from YAML, for sites whose URL depth does not match their navigation depth.
package hierarchy

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"strings"

	"github.com/aretw0/crumbtrail/pkg/ports"
	"gopkg.in/yaml.v3"
)

// PathDepth counts the non-empty path segments of a URL.
// Query strings and fragments are ignored; "/" has level 0.
type PathDepth struct{}

// Level implements ports.HierarchyProvider.
func (PathDepth) Level(rawURL string) int {
	n := 0
	for _, seg := range strings.Split(pathOf(rawURL), "/") {
		if seg != "" {
			n++
		}
	}
	return n
}

// Rule assigns a level to every path matching Pattern.
// Pattern uses path.Match syntax, so "*" matches exactly one segment.
type Rule struct {
	Pattern string `yaml:"pattern"`
	Level   int    `yaml:"level"`
}

// Routes resolves levels from an ordered rule list. The first matching rule
// wins; unmatched URLs fall back to another provider (PathDepth by default).
type Routes struct {
	rules    []Rule
	fallback ports.HierarchyProvider
}

// NewRoutes creates a Routes provider. A nil fallback means PathDepth.
func NewRoutes(rules []Rule, fallback ports.HierarchyProvider) (*Routes, error) {
	for _, r := range rules {
		if _, err := path.Match(r.Pattern, ""); err != nil {
			return nil, fmt.Errorf("invalid route pattern %q: %w", r.Pattern, err)
		}
	}
	if fallback == nil {
		fallback = PathDepth{}
	}
	return &Routes{rules: rules, fallback: fallback}, nil
}

type routesFile struct {
	Routes []Rule `yaml:"routes"`
}

// LoadRoutes reads a YAML document of the form:
//
//	routes:
//	  - pattern: /admin
//	    level: 1
//	  - pattern: /admin/users/*/edit
//	    level: 3
func LoadRoutes(r io.Reader, fallback ports.HierarchyProvider) (*Routes, error) {
	var doc routesFile
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to decode routes: %w", err)
	}
	return NewRoutes(doc.Routes, fallback)
}

// LoadRoutesFile is LoadRoutes on a file path.
func LoadRoutesFile(name string, fallback ports.HierarchyProvider) (*Routes, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, fmt.Errorf("failed to open routes file: %w", err)
	}
	defer f.Close()
	return LoadRoutes(f, fallback)
}

// Level implements ports.HierarchyProvider.
func (r *Routes) Level(rawURL string) int {
	p := strings.ToLower(pathOf(rawURL))
	if len(p) > 1 {
		p = strings.TrimSuffix(p, "/")
	}
	for _, rule := range r.rules {
		if ok, _ := path.Match(strings.ToLower(rule.Pattern), p); ok {
			return rule.Level
		}
	}
	return r.fallback.Level(rawURL)
}

func pathOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		if i := strings.IndexAny(rawURL, "?#"); i >= 0 {
			return rawURL[:i]
		}
		return rawURL
	}
	return u.Path
}
