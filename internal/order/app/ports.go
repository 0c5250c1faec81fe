package app

import (
	"context"

	"github.com/dwikikusuma/techstore/internal/order/domain"
)

type OrderRepo interface {
	// CreateOrderTx decrements stock for every line, then writes the header,
	// the items and the order.placed event. Any failure leaves no trace.
	CreateOrderTx(ctx context.Context, order domain.Order) (domain.Order, error)
	ListByUser(ctx context.Context, userID int64) ([]domain.Order, error)
	Get(ctx context.Context, id int64) (domain.Order, error)
}
