// Package render turns a trail snapshot into breadcrumb markup.
//
// Every function is pure: it reads the trail and the path of the request being
// served. The active crumb is the one whose key matches that path, recomputed
// on each call, so pages that did not push a crumb still render correctly.
package render

import (
	"html"
	"slices"
	"strings"

	"github.com/aretw0/crumbtrail/pkg/domain"
)

const (
	// DefaultClass is the CSS class of the list view.
	DefaultClass = "breadcrumb"

	// DefaultSeparator joins crumbs in the inline view.
	DefaultSeparator = ">"

	// Empty is rendered in place of an empty trail.
	Empty = "<!-- breadcrumb trail is empty -->"
)

type crumb struct {
	entry  domain.Entry
	active bool
}

func crumbs(trail *domain.Trail, currentPath string) []crumb {
	key := domain.KeyOf(currentPath)
	out := make([]crumb, 0, trail.Len())
	for _, e := range trail.Crumbs {
		out = append(out, crumb{entry: e, active: e.Key == key})
	}
	return out
}

// List renders the trail as an ordered list. Inactive crumbs are links; the
// active crumb is plain text and always rendered last.
func List(trail *domain.Trail, currentPath, cssClass string) string {
	if trail == nil || trail.Len() == 0 {
		return Empty
	}
	if cssClass == "" {
		cssClass = DefaultClass
	}

	items := crumbs(trail, currentPath)
	slices.SortStableFunc(items, func(a, b crumb) int {
		switch {
		case a.active == b.active:
			return 0
		case a.active:
			return 1
		default:
			return -1
		}
	})

	var sb strings.Builder
	sb.WriteString(`<ol class="`)
	sb.WriteString(html.EscapeString(cssClass))
	sb.WriteString(`">`)
	for _, c := range items {
		label := html.EscapeString(c.entry.DisplayLabel())
		if c.active {
			sb.WriteString(`<li class="active">` + label + `</li>`)
			continue
		}
		sb.WriteString(`<li><a href="` + html.EscapeString(c.entry.URL) + `">` + label + `</a></li>`)
	}
	sb.WriteString(`</ol>`)
	return sb.String()
}

// Inline renders the crumbs in trail order joined by separator.
func Inline(trail *domain.Trail, currentPath, separator string) string {
	if trail == nil || trail.Len() == 0 {
		return Empty
	}
	if separator == "" {
		separator = DefaultSeparator
	}

	parts := make([]string, 0, trail.Len())
	for _, c := range crumbs(trail, currentPath) {
		label := html.EscapeString(c.entry.DisplayLabel())
		if c.active {
			parts = append(parts, label)
			continue
		}
		parts = append(parts, `<a href="`+html.EscapeString(c.entry.URL)+`">`+label+`</a>`)
	}
	return strings.Join(parts, "  "+separator+" ")
}

// Markdown renders the trail as a single Markdown line, with the active crumb
// in bold. Link destinations are wrapped in angle brackets so URLs with
// spaces or parentheses stay intact. An empty trail renders as "".
func Markdown(trail *domain.Trail, currentPath string) string {
	if trail == nil || trail.Len() == 0 {
		return ""
	}
	parts := make([]string, 0, trail.Len())
	for _, c := range crumbs(trail, currentPath) {
		label := markdownEscaper.Replace(c.entry.DisplayLabel())
		if label == "" {
			label = markdownEscaper.Replace(c.entry.URL)
		}
		if c.active {
			parts = append(parts, "**"+label+"**")
			continue
		}
		parts = append(parts, "["+label+"](<"+destinationEscaper.Replace(c.entry.URL)+">)")
	}
	return strings.Join(parts, " › ")
}

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`, `[`, `\[`, `]`, `\]`, `*`, `\*`, `_`, `\_`,
)

// destinationEscaper escapes a URL for use inside <...> link destinations.
var destinationEscaper = strings.NewReplacer(
	`\`, `\\`, `<`, `\<`, `>`, `\>`, "\n", "%0A", "\r", "%0D",
)
