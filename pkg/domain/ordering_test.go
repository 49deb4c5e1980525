package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompare(t *testing.T) {
	tests := []struct {
		name      string
		a, b      Entry
		wantLevel int
		want      int
	}{
		{"shallower first", Entry{Level: 1, Seq: 9}, Entry{Level: 2, Seq: 1}, -1, -1},
		{"deeper last", Entry{Level: 3, Seq: 1}, Entry{Level: 2, Seq: 2}, 1, 1},
		{"tie broken by insertion", Entry{Level: 2, Seq: 1}, Entry{Level: 2, Seq: 2}, 0, -1},
		{"tie broken by insertion reversed", Entry{Level: 2, Seq: 5}, Entry{Level: 2, Seq: 2}, 0, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantLevel, CompareLevel(tt.a, tt.b))
			assert.Equal(t, tt.want, Compare(tt.a, tt.b))
		})
	}
}

func TestKeyOf(t *testing.T) {
	assert.Equal(t, KeyOf("/Admin/Users"), KeyOf("/admin/users"))
	assert.NotEqual(t, KeyOf("/admin/users"), KeyOf("/admin/user"))
}

func TestEntry_DisplayLabel(t *testing.T) {
	assert.Equal(t, "Edit", Entry{Label: "Edit", Action: "edit"}.DisplayLabel())
	assert.Equal(t, "edit", Entry{Label: "  ", Action: "edit"}.DisplayLabel())
}
