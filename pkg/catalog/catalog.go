// Package catalog provides the static registry of module definitions offered by the palette.
package catalog

import (
	"slices"
	"strings"

	"github.com/hypervision/hypervision/pkg/models"
)

// Palette identifiers that are not catalog modules but are still droppable.
const (
	APIModuleID       = "api-module"
	ConditionID       = "condition"
	EndStatusIDPrefix = "end-status-"
)

// Catalog is an immutable set of module definitions keyed by id.
type Catalog struct {
	order   []string
	modules map[string]models.ModuleDefinition
}

// New builds a catalog from definitions. Later duplicates replace earlier ones.
func New(definitions ...models.ModuleDefinition) *Catalog {
	c := &Catalog{
		modules: make(map[string]models.ModuleDefinition, len(definitions)),
	}

	for _, def := range definitions {
		if _, exists := c.modules[def.ID]; !exists {
			c.order = append(c.order, def.ID)
		}

		c.modules[def.ID] = def
	}

	return c
}

// Lookup returns a copy of the module definition registered under id.
func (c *Catalog) Lookup(id string) (models.ModuleDefinition, bool) {
	def, ok := c.modules[id]
	if !ok {
		return models.ModuleDefinition{}, false
	}

	def.CSPURLs = slices.Clone(def.CSPURLs)
	def.IPAddresses = slices.Clone(def.IPAddresses)

	return def, true
}

// List returns all definitions in registration order.
func (c *Catalog) List() []models.ModuleDefinition {
	defs := make([]models.ModuleDefinition, 0, len(c.order))
	for _, id := range c.order {
		def, _ := c.Lookup(id)
		defs = append(defs, def)
	}

	return defs
}

// Len returns the number of registered modules.
func (c *Catalog) Len() int {
	return len(c.order)
}

// HealthCheck reports whether the catalog has any module to offer.
func (c *Catalog) HealthCheck() (string, bool) {
	if c.Len() == 0 {
		return "Module catalog is empty", false
	}

	return "Module catalog is loaded", true
}

// IsEndStatus reports whether a palette id denotes an end-status variant.
func IsEndStatus(id string) bool {
	return strings.HasPrefix(id, EndStatusIDPrefix)
}

// EndStatusOf extracts the status from an end-status palette id.
func EndStatusOf(id string) models.EndStatus {
	return models.EndStatus(strings.TrimPrefix(id, EndStatusIDPrefix))
}
