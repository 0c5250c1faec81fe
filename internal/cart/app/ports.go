package app

import (
	"context"

	"github.com/dwikikusuma/techstore/internal/cart/domain"
)

// CartStore keeps one cart per session. Get returns an empty cart for unknown sessions.
// Touch pushes an existing cart's expiry out to a full TTL and is a no-op when there is none.
type CartStore interface {
	Get(ctx context.Context, sessionID string) (domain.Cart, error)
	Put(ctx context.Context, cart domain.Cart) error
	Touch(ctx context.Context, sessionID string) error
	Expire(ctx context.Context, sessionID string) error
}

// ProductReader returns ErrProductNotFound for unknown products.
type ProductReader interface {
	GetProduct(ctx context.Context, productID int64) (domain.ProductSnapshot, error)
}
