// Package catalog provides the static menu catalog backing the kiosk UI.
// A catalog is loaded once at startup and never mutated afterwards.
package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/tapstand/kiosk/core"
)

// Item is a single menu entry
type Item struct {
	ID          string  `json:"id" yaml:"id"`
	Name        string  `json:"name" yaml:"name"`
	Category    string  `json:"category" yaml:"category"`
	UnitPrice   float64 `json:"price" yaml:"price"`
	Description string  `json:"description,omitempty" yaml:"description,omitempty"`
}

// Catalog is an immutable id -> item mapping that preserves menu order
type Catalog struct {
	items map[string]Item
	order []string
}

// New builds a catalog from a list of items
func New(items []Item) (*Catalog, error) {
	c := &Catalog{
		items: make(map[string]Item, len(items)),
		order: make([]string, 0, len(items)),
	}
	for _, item := range items {
		if item.ID == "" {
			return nil, fmt.Errorf("menu item %q has no id: %w", item.Name, core.ErrInvalidConfiguration)
		}
		if item.UnitPrice < 0 {
			return nil, fmt.Errorf("menu item %q has negative price: %w", item.ID, core.ErrInvalidConfiguration)
		}
		if _, exists := c.items[item.ID]; exists {
			return nil, fmt.Errorf("duplicate menu item id %q: %w", item.ID, core.ErrInvalidConfiguration)
		}
		c.items[item.ID] = item
		c.order = append(c.order, item.ID)
	}
	return c, nil
}

// menuFile is the YAML shape of a deployment menu
type menuFile struct {
	Items []Item `yaml:"items"`
}

// LoadFile reads a YAML menu catalog
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading menu file: %w", err)
	}
	var mf menuFile
	if err := yaml.Unmarshal(data, &mf); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if len(mf.Items) == 0 {
		return nil, fmt.Errorf("menu file %s has no items: %w", path, core.ErrInvalidConfiguration)
	}
	return New(mf.Items)
}

// Get returns the item with the given id
func (c *Catalog) Get(id string) (Item, bool) {
	item, ok := c.items[id]
	return item, ok
}

// UnitPrice returns the price of one unit of the given item.
// An unknown id is an explicit error, never silently priced at zero.
func (c *Catalog) UnitPrice(id string) (float64, error) {
	item, ok := c.items[id]
	if !ok {
		return 0, fmt.Errorf("pricing %q: %w", id, core.ErrMissingItem)
	}
	return item.UnitPrice, nil
}

// Items returns all items in menu order
func (c *Catalog) Items() []Item {
	out := make([]Item, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.items[id])
	}
	return out
}

// Categories returns distinct categories in menu order
func (c *Catalog) Categories() []string {
	seen := make(map[string]bool)
	var out []string
	for _, id := range c.order {
		cat := c.items[id].Category
		if !seen[cat] {
			seen[cat] = true
			out = append(out, cat)
		}
	}
	return out
}

// ByCategory returns the items of one category in menu order
func (c *Catalog) ByCategory(category string) []Item {
	var out []Item
	for _, id := range c.order {
		if c.items[id].Category == category {
			out = append(out, c.items[id])
		}
	}
	return out
}

// Len returns the number of items
func (c *Catalog) Len() int {
	return len(c.order)
}
