package app

import (
	"context"

	"github.com/dwikikusuma/techstore/internal/checkout/domain"
	"github.com/shopspring/decimal"
)

type CartLine struct {
	ProductID int64
	Name      string
	Image     string
	Price     decimal.Decimal
	Quantity  int
}

type CartReader interface {
	GetCart(ctx context.Context, sessionID string) ([]CartLine, error)
	ClearCart(ctx context.Context, sessionID string) error
}

type Product struct {
	ID    int64
	Name  string
	Price decimal.Decimal
	Stock int
}

// CatalogReader returns ErrProductNotFound for unknown ids.
type CatalogReader interface {
	GetProduct(ctx context.Context, productID int64) (Product, error)
}

type Draft struct {
	UserID          *int64
	DeliveryAddress string
	Total           decimal.Decimal
	Lines           []CartLine
}

type OrderPlacer interface {
	PlaceOrder(ctx context.Context, d Draft) (domain.Receipt, error)
}

// Idempotency is satisfied by *idempotency.Store.
type Idempotency interface {
	TryLock(ctx context.Context, scope, key string) (bool, error)
	Release(ctx context.Context, scope, key string) error
	Remember(ctx context.Context, scope, key, value string) error
	Recall(ctx context.Context, scope, key string) (string, bool, error)
}
