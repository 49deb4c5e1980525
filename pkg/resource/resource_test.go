package resource

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentity(t *testing.T) {
	assert.Equal(t, "Users", Identity{}.Resolve("Admin", "Users"))
}

func TestCatalog(t *testing.T) {
	c, err := Load(strings.NewReader(`
Admin:
  users.index: All users
  users.edit: Edit user
`))
	require.NoError(t, err)

	assert.Equal(t, "All users", c.Resolve("Admin", "users.index"))
	assert.Equal(t, "users.delete", c.Resolve("Admin", "users.delete"))
	assert.Equal(t, "users.index", c.Resolve("Shop", "users.index"))
	assert.Equal(t, "x", c.Resolve("", "x"))
}

func TestLoad_Invalid(t *testing.T) {
	_, err := Load(strings.NewReader("- just\n- a list\n"))
	assert.Error(t, err)
}
