package postgres

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	catalogpg "github.com/dwikikusuma/techstore/internal/catalog/infra/postgres"
	"github.com/dwikikusuma/techstore/internal/order/app"
	"github.com/dwikikusuma/techstore/internal/order/domain"
	"github.com/dwikikusuma/techstore/pkg/apperr"
	"github.com/dwikikusuma/techstore/pkg/outbox"
	"github.com/dwikikusuma/techstore/pkg/postgres"
	"github.com/dwikikusuma/techstore/pkg/tracing"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	orderColumns = `id, user_id, total, status, delivery_address, created_at`
	itemColumns  = `id, order_id, product_id, product_name, quantity, price, product_image`
)

type OrderRepo struct {
	pool *pgxpool.Pool
}

func NewOrderRepo(pool *pgxpool.Pool) *OrderRepo {
	return &OrderRepo{pool: pool}
}

func (r *OrderRepo) CreateOrderTx(ctx context.Context, order domain.Order) (domain.Order, error) {
	created := order
	created.Items = slices.Clone(order.Items)

	err := postgres.ExecTx(ctx, r.pool, func(tx pgx.Tx) error {
		// Lock product rows in id order so two carts with the same products cannot deadlock.
		byProduct := slices.Clone(created.Items)
		slices.SortFunc(byProduct, func(a, b domain.OrderItem) int { return cmp.Compare(a.ProductID, b.ProductID) })

		for _, it := range byProduct {
			ok, err := catalogpg.DecrementStock(ctx, tx, it.ProductID, it.Quantity)
			if err != nil {
				return err
			}
			if !ok {
				return apperr.InsufficientStock(it.ProductID, it.ProductName)
			}
		}

		err := tx.QueryRow(ctx, `
			INSERT INTO orders (user_id, total, status, delivery_address)
			VALUES ($1, $2, $3, $4)
			RETURNING id, created_at`,
			created.UserID, created.Total, created.Status, created.DeliveryAddress,
		).Scan(&created.ID, &created.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert order: %w", err)
		}

		batch := &pgx.Batch{}
		for i := range created.Items {
			it := &created.Items[i]
			it.OrderID = created.ID
			batch.Queue(`
				INSERT INTO order_items (order_id, product_id, product_name, quantity, price, product_image)
				VALUES ($1, $2, $3, $4, $5, $6)
				RETURNING id`,
				it.OrderID, it.ProductID, it.ProductName, it.Quantity, it.Price, it.ProductImage,
			).QueryRow(func(row pgx.Row) error {
				return row.Scan(&it.ID)
			})
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("insert order items: %w", err)
		}

		evt := domain.NewOrderPlaced(created)
		payload, err := evt.Payload()
		if err != nil {
			return fmt.Errorf("encode %s: %w", domain.EventOrderPlaced, err)
		}
		return outbox.Enqueue(ctx, tx, outbox.Event{
			AggregateType: domain.AggregateType,
			AggregateID:   evt.AggregateID(),
			Type:          domain.EventOrderPlaced,
			Payload:       payload,
			Traceparent:   tracing.Traceparent(ctx),
		})
	})
	if err != nil {
		return domain.Order{}, err
	}
	return created, nil
}

func (r *OrderRepo) ListByUser(ctx context.Context, userID int64) ([]domain.Order, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+orderColumns+` FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list orders of user %d: %w", userID, err)
	}
	orders, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Order, error) {
		return scanOrder(row)
	})
	if err != nil {
		return nil, fmt.Errorf("scan orders: %w", err)
	}
	if len(orders) == 0 {
		return orders, nil
	}

	ids := make([]int64, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
	}
	items, err := r.itemsFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Items = items[orders[i].ID]
	}
	return orders, nil
}

func (r *OrderRepo) Get(ctx context.Context, id int64) (domain.Order, error) {
	o, err := scanOrder(r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if postgres.IsNoRows(err) {
		return domain.Order{}, app.ErrNotFound
	}
	if err != nil {
		return domain.Order{}, fmt.Errorf("get order %d: %w", id, err)
	}

	items, err := r.itemsFor(ctx, []int64{id})
	if err != nil {
		return domain.Order{}, err
	}
	o.Items = items[id]
	return o, nil
}

func (r *OrderRepo) itemsFor(ctx context.Context, orderIDs []int64) (map[int64][]domain.OrderItem, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+itemColumns+` FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY order_id, id`, orderIDs)
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}
	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.OrderItem, error) {
		var it domain.OrderItem
		err := row.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.ProductName, &it.Quantity, &it.Price, &it.ProductImage)
		return it, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan order items: %w", err)
	}

	out := make(map[int64][]domain.OrderItem, len(orderIDs))
	for _, it := range items {
		out[it.OrderID] = append(out[it.OrderID], it)
	}
	return out, nil
}

func scanOrder(row pgx.Row) (domain.Order, error) {
	var o domain.Order
	err := row.Scan(&o.ID, &o.UserID, &o.Total, &o.Status, &o.DeliveryAddress, &o.CreatedAt)
	return o, err
}
