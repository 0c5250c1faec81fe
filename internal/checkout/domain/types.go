package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type QuoteLine struct {
	ProductID int64
	Name      string
	Quantity  int
	UnitPrice decimal.Decimal
	// CartPrice is what the shopper saw when the item went into the cart.
	CartPrice decimal.Decimal
	LineTotal decimal.Decimal
	InStock   bool
}

func (l QuoteLine) PriceChanged() bool {
	return !l.UnitPrice.Equal(l.CartPrice)
}

type Quote struct {
	Lines     []QuoteLine
	Total     decimal.Decimal
	CartTotal decimal.Decimal
}

// Receipt is what a shopper gets back from a successful checkout.
type Receipt struct {
	OrderID   int64           `json:"orderId"`
	Total     decimal.Decimal `json:"total"`
	Status    string          `json:"status"`
	ItemCount int             `json:"itemCount"`
	CreatedAt time.Time       `json:"createdAt"`
	// Replayed is set when an idempotency key matched an earlier checkout.
	Replayed bool `json:"-"`
}
