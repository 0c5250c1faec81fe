package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductSnapshot is the catalog state captured when a line was last touched.
type ProductSnapshot struct {
	ID    int64
	Name  string
	Price decimal.Decimal
	Image string
	Stock int
}

type CartItem struct {
	Product  ProductSnapshot
	Quantity int
}

func (i CartItem) Subtotal() decimal.Decimal {
	return i.Product.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Cart holds at most one line per product id, in insertion order.
type Cart struct {
	SessionID string
	Items     []CartItem
	UpdatedAt time.Time
}

type Summary struct {
	TotalItems  int
	TotalAmount decimal.Decimal
}

func New(sessionID string) Cart {
	return Cart{SessionID: sessionID}
}

func (c *Cart) index(productID int64) int {
	for i, it := range c.Items {
		if it.Product.ID == productID {
			return i
		}
	}
	return -1
}

// Quantity is 0 for products not in the cart.
func (c *Cart) Quantity(productID int64) int {
	if i := c.index(productID); i >= 0 {
		return c.Items[i].Quantity
	}
	return 0
}

// Add merges into an existing line, refreshing its snapshot.
func (c *Cart) Add(p ProductSnapshot, qty int) {
	if i := c.index(p.ID); i >= 0 {
		c.Items[i].Product = p
		c.Items[i].Quantity += qty
		return
	}
	c.Items = append(c.Items, CartItem{Product: p, Quantity: qty})
}

// SetQuantity reports false when the product has no line. A quantity of 0 removes the line.
func (c *Cart) SetQuantity(productID int64, qty int) bool {
	i := c.index(productID)
	if i < 0 {
		return false
	}
	if qty <= 0 {
		c.Items = append(c.Items[:i], c.Items[i+1:]...)
		return true
	}
	c.Items[i].Quantity = qty
	return true
}

func (c *Cart) Remove(productID int64) bool {
	i := c.index(productID)
	if i < 0 {
		return false
	}
	c.Items = append(c.Items[:i], c.Items[i+1:]...)
	return true
}

func (c *Cart) Clear() {
	c.Items = nil
}

func (c Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// Summary is recomputed on every call.
func (c Cart) Summary() Summary {
	s := Summary{TotalAmount: decimal.Zero}
	for _, it := range c.Items {
		s.TotalItems += it.Quantity
		s.TotalAmount = s.TotalAmount.Add(it.Subtotal())
	}
	return s
}
