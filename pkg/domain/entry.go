package domain

import (
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Entry is one crumb: a page the user visited.
//
// Key, URL and Level are fixed once the entry is pushed. Label may be
// overwritten later through Trail.SetCurrentLabel.
type Entry struct {
	// Key is the fingerprint of the lower-cased URL. Distinct URLs may collide;
	// colliding URLs are treated as the same place.
	Key uint64 `json:"key"`

	URL   string `json:"url"`
	Label string `json:"label,omitempty"`

	// Level is the hierarchy depth of URL. Shallower entries render first.
	Level int `json:"level"`

	// Optional route metadata captured when the crumb came from a request.
	Action     string `json:"action,omitempty"`
	Controller string `json:"controller,omitempty"`

	// Seq is the insertion sequence number assigned by the Trail.
	Seq uint64 `json:"seq"`
}

// KeyOf returns the identity key for a URL.
func KeyOf(url string) uint64 {
	return xxhash.Sum64String(strings.ToLower(url))
}

// DisplayLabel returns Label, or Action when Label is blank.
func (e Entry) DisplayLabel() string {
	if strings.TrimSpace(e.Label) == "" {
		return e.Action
	}
	return e.Label
}
