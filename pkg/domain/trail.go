package domain

import "slices"

// Meta is optional route metadata attached to a pushed crumb.
type Meta struct {
	Action     string
	Controller string
}

// Trail is the ordered set of crumbs for a single session.
//
// Crumbs are unique by Key and sorted by (Level, Seq). While Crumbs is not
// empty, the entry identified by CurrentKey is one of them.
//
// A Trail is not safe for concurrent use; callers serialize mutations per
// session (see session.Manager).
type Trail struct {
	SessionID  string  `json:"session_id"`
	Crumbs     []Entry `json:"crumbs"`
	CurrentKey uint64  `json:"current_key,omitempty"`
	NextSeq    uint64  `json:"next_seq"`
}

// NewTrail creates an empty trail for a session.
func NewTrail(sessionID string) *Trail {
	return &Trail{
		SessionID: sessionID,
		Crumbs:    []Entry{},
	}
}

// Push records a visit to url.
//
// If a crumb with the same key is already on the trail, the trail is first
// truncated to the crumbs ordered strictly before it (the user went back to an
// earlier page). The new crumb then becomes Current and is inserted in order.
// Push returns the new entry and the number of crumbs dropped by truncation.
func (t *Trail) Push(url string, level int, label string, meta Meta) (Entry, int) {
	key := KeyOf(url)

	dropped := 0
	if i := t.indexOf(key); i >= 0 {
		dropped = len(t.Crumbs) - i
		t.Crumbs = slices.Clone(t.Crumbs[:i])
	}

	t.NextSeq++
	entry := Entry{
		Key:        key,
		URL:        url,
		Label:      label,
		Level:      level,
		Action:     meta.Action,
		Controller: meta.Controller,
		Seq:        t.NextSeq,
	}

	// Seq is the largest on the trail, so the entry goes after every crumb of
	// the same or a lower level.
	pos, _ := slices.BinarySearchFunc(t.Crumbs, entry, Compare)
	t.Crumbs = slices.Insert(t.Crumbs, pos, entry)
	t.CurrentKey = key

	return entry, dropped
}

// SetCurrentLabel overwrites the label of the current crumb.
// It reports false when the trail is empty.
func (t *Trail) SetCurrentLabel(label string) bool {
	i := t.currentIndex()
	if i < 0 {
		return false
	}
	t.Crumbs[i].Label = label
	return true
}

// Remove drops the crumb with the given key. It is a no-op when the key is not
// on the trail. If the removed crumb was Current, the deepest remaining crumb
// becomes Current.
func (t *Trail) Remove(key uint64) (Entry, bool) {
	i := t.indexOf(key)
	if i < 0 {
		return Entry{}, false
	}
	removed := t.Crumbs[i]
	t.Crumbs = slices.Delete(t.Crumbs, i, i+1)

	if t.CurrentKey == key {
		t.CurrentKey = 0
		if n := len(t.Crumbs); n > 0 {
			t.CurrentKey = t.Crumbs[n-1].Key
		}
	}
	return removed, true
}

// Clear empties the trail.
func (t *Trail) Clear() {
	t.Crumbs = []Entry{}
	t.CurrentKey = 0
}

// Len returns the number of crumbs.
func (t *Trail) Len() int {
	return len(t.Crumbs)
}

// Entries returns a copy of the crumbs in order.
func (t *Trail) Entries() []Entry {
	return slices.Clone(t.Crumbs)
}

// Current returns the most recently pushed crumb.
func (t *Trail) Current() (Entry, bool) {
	i := t.currentIndex()
	if i < 0 {
		return Entry{}, false
	}
	return t.Crumbs[i], true
}

// CurrentURL returns the URL of the current crumb, or "" when the trail is empty.
func (t *Trail) CurrentURL() string {
	e, _ := t.Current()
	return e.URL
}

// OrderedURLs returns the crumb URLs in order. Index 0 is the shallowest page.
func (t *Trail) OrderedURLs() []string {
	urls := make([]string, 0, len(t.Crumbs))
	for _, e := range t.Crumbs {
		urls = append(urls, e.URL)
	}
	return urls
}

// PreviousURL returns the URL of the second crumb when the trail is read in
// descending order. It reports false when fewer than two crumbs exist.
func (t *Trail) PreviousURL() (string, bool) {
	n := len(t.Crumbs)
	if n < 2 {
		return "", false
	}
	return t.Crumbs[n-2].URL, true
}

// Clone returns a deep copy of the trail.
func (t *Trail) Clone() *Trail {
	c := *t
	c.Crumbs = slices.Clone(t.Crumbs)
	if c.Crumbs == nil {
		c.Crumbs = []Entry{}
	}
	return &c
}

func (t *Trail) indexOf(key uint64) int {
	return slices.IndexFunc(t.Crumbs, func(e Entry) bool { return e.Key == key })
}

func (t *Trail) currentIndex() int {
	if len(t.Crumbs) == 0 {
		return -1
	}
	return t.indexOf(t.CurrentKey)
}
