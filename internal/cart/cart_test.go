package cart

import (
	"testing"

	"github.com/campuscanteen/canteen-service/pkg/models"
)

func vegThali() models.MenuItem {
	return models.MenuItem{ID: "item-1", Name: "Veg Thali", Price: 80, Available: true}
}

func biryani() models.MenuItem {
	return models.MenuItem{ID: "item-2", Name: "Chicken Biryani", Price: 120, Available: true}
}

func TestAddMergesQuantities(t *testing.T) {
	c := New()
	c.Add(vegThali(), 1)
	c.Add(vegThali(), 2)

	lines := c.Lines()
	if len(lines) != 1 {
		t.Fatalf("Expected 1 line, got %d", len(lines))
	}
	if lines[0].Quantity != 3 {
		t.Errorf("Expected quantity 3, got %d", lines[0].Quantity)
	}
}

func TestAddNonPositiveQuantityIsNoOp(t *testing.T) {
	c := New()
	c.Add(vegThali(), 0)
	c.Add(biryani(), -2)

	if count := c.ItemCount(); count != 0 {
		t.Errorf("Expected empty cart, got %d items", count)
	}
}

func TestAddRefusesUnavailableItem(t *testing.T) {
	c := New()
	soldOut := vegThali()
	soldOut.Available = false

	c.Add(soldOut, 2)

	if count := c.ItemCount(); count != 0 {
		t.Errorf("Expected unavailable item refused, got %d items", count)
	}
	if lines := c.Lines(); len(lines) != 0 {
		t.Errorf("Expected no checkout lines, got %v", lines)
	}
}

func TestSetQuantityZeroRemoves(t *testing.T) {
	c := New()
	c.Add(vegThali(), 2)
	c.Add(biryani(), 1)

	c.SetQuantity("item-1", 0)

	lines := c.Lines()
	if len(lines) != 1 {
		t.Fatalf("Expected 1 line after removal, got %d", len(lines))
	}
	if lines[0].ItemID != "item-2" {
		t.Errorf("Expected remaining line to be item-2, got %s", lines[0].ItemID)
	}
}

func TestSetQuantityReplaces(t *testing.T) {
	c := New()
	c.Add(vegThali(), 2)
	c.SetQuantity("item-1", 5)

	if lines := c.Lines(); lines[0].Quantity != 5 {
		t.Errorf("Expected quantity 5, got %d", lines[0].Quantity)
	}
}

func TestSubtotalAndDiscount(t *testing.T) {
	c := New()
	c.Add(vegThali(), 2)  // 160
	c.Add(biryani(), 1)   // 120

	if subtotal := c.Subtotal(); subtotal != 280 {
		t.Errorf("Expected subtotal 280, got %v", subtotal)
	}
	if total := c.DiscountedTotal(5); total != 266.00 {
		t.Errorf("Expected discounted total 266.00, got %v", total)
	}
}

func TestLinesPreserveInsertionOrder(t *testing.T) {
	c := New()
	c.Add(biryani(), 1)
	c.Add(vegThali(), 1)

	lines := c.Lines()
	if lines[0].ItemID != "item-2" || lines[1].ItemID != "item-1" {
		t.Errorf("Expected insertion order item-2, item-1; got %s, %s", lines[0].ItemID, lines[1].ItemID)
	}
}

func TestLinesSnapshotMenuItem(t *testing.T) {
	c := New()
	item := vegThali()
	c.Add(item, 1)

	lines := c.Lines()
	if lines[0].Name != "Veg Thali" || lines[0].Price != 80 {
		t.Errorf("Expected snapshot of name and price, got %s / %v", lines[0].Name, lines[0].Price)
	}
}

func TestCheckoutClearsCart(t *testing.T) {
	c := New()
	c.Add(vegThali(), 2)

	items := c.Checkout()
	if len(items) != 1 {
		t.Fatalf("Expected 1 checked-out item, got %d", len(items))
	}
	if c.ItemCount() != 0 {
		t.Errorf("Expected cart to be empty after checkout, got %d items", c.ItemCount())
	}
}

func TestClear(t *testing.T) {
	c := New()
	c.Add(vegThali(), 1)
	c.Clear()

	if len(c.Lines()) != 0 || c.Subtotal() != 0 {
		t.Error("Expected cleared cart to be empty")
	}

	// Cart stays usable after clearing.
	c.Add(biryani(), 1)
	if c.ItemCount() != 1 {
		t.Errorf("Expected 1 item after re-adding, got %d", c.ItemCount())
	}
}
