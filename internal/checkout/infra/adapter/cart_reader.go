package adapter

import (
	"context"

	cartapp "github.com/dwikikusuma/techstore/internal/cart/app"
	checkoutapp "github.com/dwikikusuma/techstore/internal/checkout/app"
)

type CartServiceReader struct {
	svc *cartapp.Service
}

func NewCartServiceReader(svc *cartapp.Service) *CartServiceReader {
	return &CartServiceReader{svc: svc}
}

func (r *CartServiceReader) GetCart(ctx context.Context, sessionID string) ([]checkoutapp.CartLine, error) {
	cart, err := r.svc.GetCart(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	lines := make([]checkoutapp.CartLine, 0, len(cart.Items))
	for _, it := range cart.Items {
		lines = append(lines, checkoutapp.CartLine{
			ProductID: it.Product.ID,
			Name:      it.Product.Name,
			Image:     it.Product.Image,
			Price:     it.Product.Price,
			Quantity:  it.Quantity,
		})
	}
	return lines, nil
}

func (r *CartServiceReader) ClearCart(ctx context.Context, sessionID string) error {
	return r.svc.ClearCart(ctx, sessionID)
}
