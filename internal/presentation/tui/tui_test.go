package tui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintBanner_PlainWhenNotATerminal(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf)

	out := buf.String()
	assert.NotContains(t, out, "\x1b[", "no escape codes for a buffer")
	assert.Equal(t, len(bannerLines)+2, strings.Count(out, "\n"))
}

func TestNewRenderer(t *testing.T) {
	render, err := NewRenderer(80)
	require.NoError(t, err)

	out, err := render("[Shop](/shop) › **Item**")
	require.NoError(t, err)
	assert.Contains(t, out, "Shop")
	assert.Contains(t, out, "Item")
}
