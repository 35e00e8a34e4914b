package cart

import (
	"math"

	"github.com/campuscanteen/canteen-service/pkg/models"
)

// Cart is the client-local aggregation of menu items before submission.
// It is a pure reducer: no I/O, not safe for concurrent use, and its state
// is thrown away on checkout or clear. It is never persisted.
type Cart struct {
	order []string
	lines map[string]*line
}

type line struct {
	item     models.MenuItem
	quantity int
}

func New() *Cart {
	return &Cart{lines: make(map[string]*line)}
}

// Add merges qty into an existing line or creates a new one. A non-positive
// qty is a no-op, and unavailable items are refused the same way the menu
// view disables their add button.
func (c *Cart) Add(item models.MenuItem, qty int) {
	if qty <= 0 || !item.Available {
		return
	}
	if l, ok := c.lines[item.ID]; ok {
		l.quantity += qty
		return
	}
	c.lines[item.ID] = &line{item: item, quantity: qty}
	c.order = append(c.order, item.ID)
}

// SetQuantity replaces a line's quantity. Zero or less removes the line.
func (c *Cart) SetQuantity(itemID string, qty int) {
	if qty <= 0 {
		c.Remove(itemID)
		return
	}
	if l, ok := c.lines[itemID]; ok {
		l.quantity = qty
	}
}

func (c *Cart) Remove(itemID string) {
	if _, ok := c.lines[itemID]; !ok {
		return
	}
	delete(c.lines, itemID)
	for i, id := range c.order {
		if id == itemID {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

func (c *Cart) Clear() {
	c.order = nil
	c.lines = make(map[string]*line)
}

// Subtotal is the undiscounted sum. The submission-time discount is applied
// by the order engine, never here, so the live cart shows honest prices.
func (c *Cart) Subtotal() float64 {
	var total float64
	for _, l := range c.lines {
		total += l.item.Price * float64(l.quantity)
	}
	return total
}

// DiscountedTotal applies a percentage discount to the subtotal, rounded to
// two decimal places.
func (c *Cart) DiscountedTotal(percent float64) float64 {
	return math.Round(c.Subtotal()*(1-percent/100)*100) / 100
}

func (c *Cart) ItemCount() int {
	var count int
	for _, l := range c.lines {
		count += l.quantity
	}
	return count
}

// Lines returns the order items in insertion order, snapshotting each menu
// item's current name and price.
func (c *Cart) Lines() []models.OrderItem {
	items := make([]models.OrderItem, 0, len(c.order))
	for _, id := range c.order {
		l := c.lines[id]
		items = append(items, models.OrderItem{
			ItemID:   l.item.ID,
			Name:     l.item.Name,
			Price:    l.item.Price,
			Quantity: l.quantity,
		})
	}
	return items
}

// Checkout snapshots the cart for submission and clears it.
func (c *Cart) Checkout() []models.OrderItem {
	items := c.Lines()
	c.Clear()
	return items
}
