// Package memory keeps orders in process. Stock is taken from the in-memory catalog
// under one lock, so it mirrors the all-or-nothing behaviour of the Postgres repo.
package memory

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/dwikikusuma/techstore/internal/order/app"
	"github.com/dwikikusuma/techstore/internal/order/domain"
	"github.com/dwikikusuma/techstore/pkg/apperr"
)

type StockTaker interface {
	DecrementAll(qty map[int64]int) (int64, bool)
}

type OrderRepo struct {
	stock StockTaker

	mu         sync.Mutex
	orders     map[int64]domain.Order
	nextID     int64
	nextItemID int64
	now        func() time.Time
}

func NewOrderRepo(stock StockTaker) *OrderRepo {
	return &OrderRepo{
		stock:  stock,
		orders: make(map[int64]domain.Order),
		now:    time.Now,
	}
}

func (r *OrderRepo) CreateOrderTx(ctx context.Context, order domain.Order) (domain.Order, error) {
	if err := ctx.Err(); err != nil {
		return domain.Order{}, err
	}

	qty := make(map[int64]int, len(order.Items))
	names := make(map[int64]string, len(order.Items))
	for _, it := range order.Items {
		qty[it.ProductID] += it.Quantity
		names[it.ProductID] = it.ProductName
	}
	if short, ok := r.stock.DecrementAll(qty); !ok {
		return domain.Order{}, apperr.InsufficientStock(short, names[short])
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	created := order
	created.ID = r.nextID
	created.CreatedAt = r.now()
	created.Items = slices.Clone(order.Items)
	for i := range created.Items {
		r.nextItemID++
		created.Items[i].ID = r.nextItemID
		created.Items[i].OrderID = created.ID
	}
	r.orders[created.ID] = created
	return clone(created), nil
}

func (r *OrderRepo) ListByUser(ctx context.Context, userID int64) ([]domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]domain.Order, 0)
	for _, o := range r.orders {
		if o.UserID != nil && *o.UserID == userID {
			out = append(out, clone(o))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (r *OrderRepo) Get(ctx context.Context, id int64) (domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.orders[id]
	if !ok {
		return domain.Order{}, app.ErrNotFound
	}
	return clone(o), nil
}

func clone(o domain.Order) domain.Order {
	o.Items = slices.Clone(o.Items)
	return o
}
