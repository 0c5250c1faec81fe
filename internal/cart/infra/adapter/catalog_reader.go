package adapter

import (
	"context"
	"errors"

	cartapp "github.com/dwikikusuma/techstore/internal/cart/app"
	"github.com/dwikikusuma/techstore/internal/cart/domain"
	catalogapp "github.com/dwikikusuma/techstore/internal/catalog/app"
)

type CatalogServiceReader struct {
	svc *catalogapp.Service
}

func NewCatalogServiceReader(svc *catalogapp.Service) *CatalogServiceReader {
	return &CatalogServiceReader{svc: svc}
}

func (r *CatalogServiceReader) GetProduct(ctx context.Context, productID int64) (domain.ProductSnapshot, error) {
	p, err := r.svc.GetProduct(ctx, productID)
	if errors.Is(err, catalogapp.ErrNotFound) {
		return domain.ProductSnapshot{}, cartapp.ErrProductNotFound
	}
	if err != nil {
		return domain.ProductSnapshot{}, err
	}

	return domain.ProductSnapshot{
		ID:    p.ID,
		Name:  p.Name,
		Price: p.Price,
		Image: p.Image,
		Stock: p.Stock,
	}, nil
}
