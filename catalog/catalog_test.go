package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/tapstand/kiosk/core"
)

func testItems() []Item {
	return []Item{
		{ID: "small_beer", Name: "Small Beer (0.3L)", Category: "alcoholic", UnitPrice: 2.30},
		{ID: "wine", Name: "Wine (0.2L)", Category: "alcoholic", UnitPrice: 3.50},
		{ID: "chips", Name: "Chips", Category: "snacks", UnitPrice: 2.20},
	}
}

func TestNewRejectsInvalidItems(t *testing.T) {
	tests := []struct {
		name  string
		items []Item
	}{
		{"missing id", []Item{{Name: "Nameless", UnitPrice: 1}}},
		{"negative price", []Item{{ID: "x", Name: "X", UnitPrice: -0.5}}},
		{"duplicate id", []Item{{ID: "x", UnitPrice: 1}, {ID: "x", UnitPrice: 2}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.items); !errors.Is(err, core.ErrInvalidConfiguration) {
				t.Errorf("New() error = %v, want ErrInvalidConfiguration", err)
			}
		})
	}
}

func TestGetAndUnitPrice(t *testing.T) {
	c, err := New(testItems())
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	item, ok := c.Get("wine")
	if !ok || item.Name != "Wine (0.2L)" {
		t.Errorf("Get(wine) = %+v, %v", item, ok)
	}

	price, err := c.UnitPrice("chips")
	if err != nil || price != 2.20 {
		t.Errorf("UnitPrice(chips) = %v, %v", price, err)
	}

	if _, err := c.UnitPrice("espresso"); !errors.Is(err, core.ErrMissingItem) {
		t.Errorf("UnitPrice(unknown) error = %v, want ErrMissingItem", err)
	}
}

func TestItemsPreserveMenuOrder(t *testing.T) {
	c, err := New(testItems())
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	items := c.Items()
	if len(items) != 3 {
		t.Fatalf("Items() returned %d items, want 3", len(items))
	}
	wantOrder := []string{"small_beer", "wine", "chips"}
	for i, id := range wantOrder {
		if items[i].ID != id {
			t.Errorf("Items()[%d].ID = %q, want %q", i, items[i].ID, id)
		}
	}
}

func TestCategories(t *testing.T) {
	c, err := New(testItems())
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	cats := c.Categories()
	if len(cats) != 2 || cats[0] != "alcoholic" || cats[1] != "snacks" {
		t.Errorf("Categories() = %v", cats)
	}

	snacks := c.ByCategory("snacks")
	if len(snacks) != 1 || snacks[0].ID != "chips" {
		t.Errorf("ByCategory(snacks) = %v", snacks)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "menu.yaml")
	menu := []byte(`items:
  - id: small_beer
    name: Small Beer (0.3L)
    category: alcoholic
    price: 2.30
  - id: chips
    name: Chips
    category: snacks
    price: 2.20
`)
	if err := os.WriteFile(path, menu, 0o644); err != nil {
		t.Fatalf("writing menu: %v", err)
	}

	c, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() failed: %v", err)
	}
	if c.Len() != 2 {
		t.Errorf("Len() = %d, want 2", c.Len())
	}
	price, err := c.UnitPrice("small_beer")
	if err != nil || price != 2.30 {
		t.Errorf("UnitPrice(small_beer) = %v, %v", price, err)
	}
}

func TestLoadFileEmptyMenu(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "menu.yaml")
	if err := os.WriteFile(path, []byte("items: []\n"), 0o644); err != nil {
		t.Fatalf("writing menu: %v", err)
	}

	if _, err := LoadFile(path); !errors.Is(err, core.ErrInvalidConfiguration) {
		t.Errorf("LoadFile(empty) error = %v, want ErrInvalidConfiguration", err)
	}
}

func TestDefaultMenu(t *testing.T) {
	c := Default()
	if c.Len() == 0 {
		t.Fatal("Default() returned empty catalog")
	}
	if _, ok := c.Get("small_beer"); !ok {
		t.Error("Default() catalog missing small_beer")
	}
	cats := c.Categories()
	if len(cats) != 3 {
		t.Errorf("Default() categories = %v, want 3", cats)
	}
}
