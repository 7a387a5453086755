// Package cart is the pre-submission order draft. It is purely local
// state: no network, no persistence. Quantities are clamped at zero,
// so a line can never go negative and a zero line disappears.
package cart

import (
	"fmt"
	"math"
	"sync"

	"github.com/tapstand/kiosk/api"
	"github.com/tapstand/kiosk/catalog"
	"github.com/tapstand/kiosk/core"
)

// Line is a snapshot of one cart line
type Line struct {
	ItemID   string
	Quantity int
}

// Cart holds the draft order. Safe for concurrent use.
type Cart struct {
	mu    sync.Mutex
	lines map[string]int
}

// New returns an empty cart
func New() *Cart {
	return &Cart{lines: make(map[string]int)}
}

// AddItem increases the quantity of an item by qty. Non-positive qty is
// a no-op: adding is always additive, never a removal.
func (c *Cart) AddItem(itemID string, qty int) {
	if qty <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines[itemID] += qty
}

// SetQuantity sets the quantity of an item outright. Values at or below
// zero clamp to zero and drop the line.
func (c *Cart) SetQuantity(itemID string, qty int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if qty <= 0 {
		delete(c.lines, itemID)
		return
	}
	c.lines[itemID] = qty
}

// Increment raises the quantity of an item by one
func (c *Cart) Increment(itemID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines[itemID]++
}

// Decrement lowers the quantity of an item by one, clamped at zero.
// At zero the line is removed; decrementing an absent item is a no-op.
func (c *Cart) Decrement(itemID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	qty, ok := c.lines[itemID]
	if !ok {
		return
	}
	if qty <= 1 {
		delete(c.lines, itemID)
		return
	}
	c.lines[itemID] = qty - 1
}

// Remove drops a line regardless of quantity
func (c *Cart) Remove(itemID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.lines, itemID)
}

// Clear resets the whole cart in one step
func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = make(map[string]int)
}

// Quantity reports the current quantity of an item, zero if absent
func (c *Cart) Quantity(itemID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lines[itemID]
}

// TotalItems is the sum of all line quantities
func (c *Cart) TotalItems() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	total := 0
	for _, qty := range c.lines {
		total += qty
	}
	return total
}

// Empty reports whether the cart has no lines
func (c *Cart) Empty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.lines) == 0
}

// Lines returns a snapshot of the cart in catalog menu order. Items not
// in the catalog sort last in unspecified order.
func (c *Cart) Lines(cat *catalog.Catalog) []Line {
	c.mu.Lock()
	snapshot := make(map[string]int, len(c.lines))
	for id, qty := range c.lines {
		snapshot[id] = qty
	}
	c.mu.Unlock()

	out := make([]Line, 0, len(snapshot))
	if cat != nil {
		for _, item := range cat.Items() {
			if qty, ok := snapshot[item.ID]; ok {
				out = append(out, Line{ItemID: item.ID, Quantity: qty})
				delete(snapshot, item.ID)
			}
		}
	}
	for id, qty := range snapshot {
		out = append(out, Line{ItemID: id, Quantity: qty})
	}
	return out
}

// TotalPrice prices the cart against the catalog, rounded to cents.
// Any line not present in the catalog fails the whole computation.
func (c *Cart) TotalPrice(cat *catalog.Catalog) (float64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := 0.0
	for id, qty := range c.lines {
		price, err := cat.UnitPrice(id)
		if err != nil {
			return 0, fmt.Errorf("pricing cart: %w", err)
		}
		total += price * float64(qty)
	}
	return math.Round(total*100) / 100, nil
}

// ToOrderRequest converts the cart into an outbound order for userID.
// A cart with no lines fails with the empty-order sentinel; submission
// code relies on this running before any network call.
func (c *Cart) ToOrderRequest(userID string) (api.OrderRequest, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.lines) == 0 {
		return api.OrderRequest{}, fmt.Errorf("cart: %w", core.ErrEmptyOrder)
	}
	items := make(map[string]int, len(c.lines))
	for id, qty := range c.lines {
		items[id] = qty
	}
	return api.OrderRequest{UserID: userID, Items: items}, nil
}
