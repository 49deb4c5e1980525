package hierarchy

import (
	"strings"
	"testing"

	"github.com/aretw0/crumbtrail/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPathDepth(t *testing.T) {
	tests := []struct {
		url  string
		want int
	}{
		{"/", 0},
		{"", 0},
		{"/a", 1},
		{"/a/b/", 2},
		{"/a//b", 2},
		{"/a/b/c?x=/y/z", 3},
		{"https://example.com/shop/items#top", 2},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, PathDepth{}.Level(tt.url))
		})
	}
}

func TestRoutes_FirstMatchWins(t *testing.T) {
	routes, err := LoadRoutes(strings.NewReader(`
routes:
  - pattern: /admin/users/*/edit
    level: 2
  - pattern: /admin/*
    level: 1
`), nil)
	require.NoError(t, err)

	assert.Equal(t, 2, routes.Level("/admin/users/42/edit"))
	assert.Equal(t, 2, routes.Level("/Admin/Users/42/Edit/"))
	assert.Equal(t, 1, routes.Level("/admin/users"))
	assert.Equal(t, 3, routes.Level("/shop/cart/checkout"), "falls back to path depth")
}

func TestRoutes_CustomFallback(t *testing.T) {
	routes, err := NewRoutes(nil, ports.HierarchyFunc(func(string) int { return 7 }))
	require.NoError(t, err)
	assert.Equal(t, 7, routes.Level("/anything"))
}

func TestRoutes_InvalidPattern(t *testing.T) {
	_, err := NewRoutes([]Rule{{Pattern: "/[", Level: 1}}, nil)
	assert.Error(t, err)
}

func TestLoadRoutes_Empty(t *testing.T) {
	routes, err := LoadRoutes(strings.NewReader(""), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, routes.Level("/a"))
}
