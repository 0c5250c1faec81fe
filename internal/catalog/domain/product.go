package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const PlaceholderImage = "https://placehold.co/200x200?text=No+Image"

type Product struct {
	ID          int64
	Name        string
	Price       decimal.Decimal
	Description string
	Image       string
	Stock       int
	Category    string
	CreatedAt   time.Time
}

// Available reports whether qty units can be taken from current stock.
func (p Product) Available(qty int) bool {
	return qty > 0 && p.Stock >= qty
}

// ListFilter narrows ListProducts. Zero values mean "no constraint".
type ListFilter struct {
	Query    string
	Category string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
}
