package domain

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	StatusPending   = "pending"
	StatusCompleted = "completed"

	DefaultDeliveryAddress = "Not Provided"
	UnknownProductName     = "Unknown Product"
	PlaceholderImage       = "https://placehold.co/200x200?text=No+Image"
)

type Order struct {
	ID              int64
	UserID          *int64 // nil for guest checkouts
	Total           decimal.Decimal
	Status          string
	DeliveryAddress string
	CreatedAt       time.Time
	Items           []OrderItem
}

// OrderItem copies catalog fields at order time; later catalog edits do not touch it.
type OrderItem struct {
	ID           int64
	OrderID      int64
	ProductID    int64
	ProductName  string
	Quantity     int
	Price        decimal.Decimal
	ProductImage string
}

func (i OrderItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// NewOrder builds a pending order, filling in the snapshot defaults.
func NewOrder(userID *int64, deliveryAddress string, total decimal.Decimal, items []OrderItem) Order {
	deliveryAddress = strings.TrimSpace(deliveryAddress)
	if deliveryAddress == "" {
		deliveryAddress = DefaultDeliveryAddress
	}

	out := make([]OrderItem, len(items))
	for i, it := range items {
		if strings.TrimSpace(it.ProductName) == "" {
			it.ProductName = UnknownProductName
		}
		if strings.TrimSpace(it.ProductImage) == "" {
			it.ProductImage = PlaceholderImage
		}
		out[i] = it
	}

	return Order{
		UserID:          userID,
		Total:           total,
		Status:          StatusPending,
		DeliveryAddress: deliveryAddress,
		Items:           out,
	}
}

func (o *Order) Complete() {
	o.Status = StatusCompleted
}

func (o Order) ItemsTotal() decimal.Decimal {
	sum := decimal.Zero
	for _, it := range o.Items {
		sum = sum.Add(it.Subtotal())
	}
	return sum
}

// Matches is a case-insensitive substring test on the order id and item names.
// A blank term matches everything.
func (o Order) Matches(term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	if strings.Contains(strconv.FormatInt(o.ID, 10), term) {
		return true
	}
	for _, it := range o.Items {
		if strings.Contains(strings.ToLower(it.ProductName), term) {
			return true
		}
	}
	return false
}

func Filter(orders []Order, term string) []Order {
	out := make([]Order, 0, len(orders))
	for _, o := range orders {
		if o.Matches(term) {
			out = append(out, o)
		}
	}
	return out
}
