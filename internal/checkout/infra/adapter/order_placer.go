package adapter

import (
	"context"

	checkoutapp "github.com/dwikikusuma/techstore/internal/checkout/app"
	"github.com/dwikikusuma/techstore/internal/checkout/domain"
	orderapp "github.com/dwikikusuma/techstore/internal/order/app"
)

type OrderServicePlacer struct {
	svc *orderapp.Service
}

func NewOrderServicePlacer(svc *orderapp.Service) *OrderServicePlacer {
	return &OrderServicePlacer{svc: svc}
}

func (p *OrderServicePlacer) PlaceOrder(ctx context.Context, d checkoutapp.Draft) (domain.Receipt, error) {
	lines := make([]orderapp.Line, 0, len(d.Lines))
	for _, l := range d.Lines {
		lines = append(lines, orderapp.Line{
			ProductID: l.ProductID,
			Name:      l.Name,
			Image:     l.Image,
			Price:     l.Price,
			Quantity:  l.Quantity,
		})
	}

	o, err := p.svc.PlaceOrder(ctx, orderapp.PlaceOrderRequest{
		UserID:          d.UserID,
		DeliveryAddress: d.DeliveryAddress,
		Total:           d.Total,
		Lines:           lines,
	})
	if err != nil {
		return domain.Receipt{}, err
	}

	return domain.Receipt{
		OrderID:   o.ID,
		Total:     o.Total,
		Status:    o.Status,
		ItemCount: len(o.Items),
		CreatedAt: o.CreatedAt,
	}, nil
}
