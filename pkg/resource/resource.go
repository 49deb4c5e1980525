// Package resource resolves crumb labels from localized resource catalogs.
package resource

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Identity returns the label unchanged. It is the default ResourceLookup.
type Identity struct{}

// Resolve implements ports.ResourceLookup.
func (Identity) Resolve(_, label string) string { return label }

// Catalog maps a resource type to its label table.
//
//	Admin:
//	  users.index: "All users"
//	  users.edit: "Edit user"
type Catalog map[string]map[string]string

// Resolve implements ports.ResourceLookup. Unknown types or keys resolve to
// the label itself.
func (c Catalog) Resolve(resourceType, label string) string {
	if v, ok := c[resourceType][label]; ok {
		return v
	}
	return label
}

// Load decodes a YAML catalog.
func Load(r io.Reader) (Catalog, error) {
	c := Catalog{}
	if err := yaml.NewDecoder(r).Decode(&c); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to decode resource catalog: %w", err)
	}
	return c, nil
}

// LoadFile is Load on a file path.
func LoadFile(name string) (Catalog, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, fmt.Errorf("failed to open resource catalog: %w", err)
	}
	defer f.Close()
	return Load(f)
}
