package app

import (
	"context"

	"github.com/dwikikusuma/techstore/internal/catalog/domain"
)

type ProductRepo interface {
	Create(ctx context.Context, p domain.Product) (domain.Product, error)
	Get(ctx context.Context, id int64) (domain.Product, error)
	List(ctx context.Context, f domain.ListFilter) ([]domain.Product, error)
	LowStock(ctx context.Context, threshold int) ([]domain.Product, error)
	// Update and Delete return false when no row matched.
	Update(ctx context.Context, p domain.Product) (bool, error)
	Delete(ctx context.Context, id int64) (bool, error)
	// DecrementStock is a single compare-and-decrement; false means stock < qty or no product.
	DecrementStock(ctx context.Context, id int64, qty int) (bool, error)
}
