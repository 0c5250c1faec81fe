package app_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	cartapp "github.com/dwikikusuma/techstore/internal/cart/app"
	cartadapter "github.com/dwikikusuma/techstore/internal/cart/infra/adapter"
	cartmem "github.com/dwikikusuma/techstore/internal/cart/infra/memory"
	catalogapp "github.com/dwikikusuma/techstore/internal/catalog/app"
	catalogdomain "github.com/dwikikusuma/techstore/internal/catalog/domain"
	catalogmem "github.com/dwikikusuma/techstore/internal/catalog/infra/memory"
	"github.com/dwikikusuma/techstore/internal/checkout/app"
	"github.com/dwikikusuma/techstore/internal/checkout/infra/adapter"
	orderapp "github.com/dwikikusuma/techstore/internal/order/app"
	ordermem "github.com/dwikikusuma/techstore/internal/order/infra/memory"
	"github.com/dwikikusuma/techstore/pkg/apperr"
	"github.com/dwikikusuma/techstore/pkg/idempotency"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

type fixture struct {
	checkout *app.Service
	cart     *cartapp.Service
	catalog  *catalogapp.Service
	orders   *orderapp.Service
	idem     *idempotency.Store
}

func newFixture(t *testing.T, products ...catalogdomain.Product) *fixture {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	productRepo := catalogmem.NewProductRepo(products...)
	catalog := catalogapp.NewService(productRepo)
	cart := cartapp.NewService(cartmem.NewCartStore(time.Hour), cartadapter.NewCatalogServiceReader(catalog))
	orders := orderapp.NewService(ordermem.NewOrderRepo(productRepo))
	idem := idempotency.NewStore(rdb, time.Hour)

	checkout := app.NewService(
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		adapter.NewCartServiceReader(cart),
		adapter.NewCatalogServiceReader(catalog),
		adapter.NewOrderServicePlacer(orders),
		app.WithIdempotency(idem),
		app.WithMaxConcurrent(4),
	)
	return &fixture{checkout: checkout, cart: cart, catalog: catalog, orders: orders, idem: idem}
}

var (
	mouse = catalogdomain.Product{ID: 1, Name: "Wireless Mouse", Price: decimal.RequireFromString("9.99"), Stock: 5}
	cable = catalogdomain.Product{ID: 2, Name: "USB Cable", Price: decimal.RequireFromString("5.00"), Stock: 1}
)

func (f *fixture) add(t *testing.T, sid string, id int64, qty int) {
	t.Helper()
	_, err := f.cart.AddItem(context.Background(), sid, id, qty)
	require.NoError(t, err)
}

func (f *fixture) stock(t *testing.T, id int64) int {
	t.Helper()
	p, err := f.catalog.GetProduct(context.Background(), id)
	require.NoError(t, err)
	return p.Stock
}

func ptr(v int64) *int64 { return &v }

func TestCheckout(t *testing.T) {
	ctx := context.Background()

	t.Run("places order and clears cart", func(t *testing.T) {
		f := newFixture(t, mouse, cable)
		f.add(t, "s", 1, 2)
		f.add(t, "s", 2, 1)

		r, err := f.checkout.Checkout(ctx, app.Request{SessionID: "s", UserID: ptr(7), DeliveryAddress: "221B Baker St"})
		require.NoError(t, err)
		assert.Equal(t, "completed", r.Status)
		assert.Equal(t, "24.98", r.Total.StringFixed(2))
		assert.Equal(t, 2, r.ItemCount)

		cart, err := f.cart.GetCart(ctx, "s")
		require.NoError(t, err)
		assert.True(t, cart.IsEmpty())

		assert.Equal(t, 3, f.stock(t, 1))
		assert.Equal(t, 0, f.stock(t, 2))

		o, err := f.orders.GetOrder(ctx, 7, r.OrderID)
		require.NoError(t, err)
		assert.Equal(t, "221B Baker St", o.DeliveryAddress)
		assert.Len(t, o.Items, 2)
	})

	t.Run("guest checkout", func(t *testing.T) {
		f := newFixture(t, mouse)
		f.add(t, "g", 1, 1)

		r, err := f.checkout.Checkout(ctx, app.Request{SessionID: "g"})
		require.NoError(t, err)
		assert.NotZero(t, r.OrderID)
	})

	t.Run("empty cart writes nothing", func(t *testing.T) {
		f := newFixture(t, mouse)

		_, err := f.checkout.Checkout(ctx, app.Request{SessionID: "s", UserID: ptr(7)})
		assert.ErrorIs(t, err, apperr.ErrEmptyCart)

		orders, err := f.orders.ListByUser(ctx, 7)
		require.NoError(t, err)
		assert.Empty(t, orders)
		assert.Equal(t, 5, f.stock(t, 1))
	})

	t.Run("stock drop after add keeps the cart", func(t *testing.T) {
		f := newFixture(t, mouse, cable)
		f.add(t, "s", 1, 2)
		f.add(t, "s", 2, 1)

		p := cable
		p.Stock = 0
		_, err := f.catalog.UpdateProduct(ctx, p)
		require.NoError(t, err)

		_, err = f.checkout.Checkout(ctx, app.Request{SessionID: "s"})
		var stockErr *apperr.InsufficientStockError
		require.ErrorAs(t, err, &stockErr)
		assert.Equal(t, "USB Cable", stockErr.ProductName)

		cart, err := f.cart.GetCart(ctx, "s")
		require.NoError(t, err)
		assert.Len(t, cart.Items, 2)
		assert.Equal(t, 5, f.stock(t, 1))
	})

	t.Run("missing session", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.checkout.Checkout(ctx, app.Request{})
		assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	})
}

func TestCheckout_LastUnitRace(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, cable)
	f.add(t, "a", 2, 1)
	f.add(t, "b", 2, 1)

	var placed, short atomic.Int32
	g, gctx := errgroup.WithContext(ctx)
	for _, sid := range []string{"a", "b"} {
		sid := sid
		g.Go(func() error {
			_, err := f.checkout.Checkout(gctx, app.Request{SessionID: sid})
			switch {
			case err == nil:
				placed.Add(1)
			case errors.Is(err, apperr.ErrInsufficientStock):
				short.Add(1)
			default:
				return err
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, int32(1), placed.Load())
	assert.Equal(t, int32(1), short.Load())
	assert.Equal(t, 0, f.stock(t, 2))
}

func TestCheckout_Idempotency(t *testing.T) {
	ctx := context.Background()

	t.Run("replay returns the same order", func(t *testing.T) {
		f := newFixture(t, mouse)
		f.add(t, "s", 1, 1)

		req := app.Request{SessionID: "s", UserID: ptr(7), IdempotencyKey: "k1"}
		first, err := f.checkout.Checkout(ctx, req)
		require.NoError(t, err)
		assert.False(t, first.Replayed)

		again, err := f.checkout.Checkout(ctx, req)
		require.NoError(t, err)
		assert.True(t, again.Replayed)
		assert.Equal(t, first.OrderID, again.OrderID)

		orders, err := f.orders.ListByUser(ctx, 7)
		require.NoError(t, err)
		assert.Len(t, orders, 1)
		assert.Equal(t, 4, f.stock(t, 1))
	})

	t.Run("in flight key -> conflict", func(t *testing.T) {
		f := newFixture(t, mouse)
		f.add(t, "s", 1, 1)

		ok, err := f.idem.TryLock(ctx, "checkout:s", "k2")
		require.NoError(t, err)
		require.True(t, ok)

		_, err = f.checkout.Checkout(ctx, app.Request{SessionID: "s", IdempotencyKey: "k2"})
		assert.ErrorIs(t, err, apperr.ErrConflict)
	})

	t.Run("failed attempt frees the key", func(t *testing.T) {
		f := newFixture(t, mouse)

		_, err := f.checkout.Checkout(ctx, app.Request{SessionID: "s", IdempotencyKey: "k3"})
		require.ErrorIs(t, err, apperr.ErrEmptyCart)

		f.add(t, "s", 1, 1)
		r, err := f.checkout.Checkout(ctx, app.Request{SessionID: "s", IdempotencyKey: "k3"})
		require.NoError(t, err)
		assert.False(t, r.Replayed)
	})
}

func TestQuote(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, mouse, cable)

	_, err := f.checkout.Quote(ctx, "s")
	assert.ErrorIs(t, err, apperr.ErrEmptyCart)

	f.add(t, "s", 1, 2)
	f.add(t, "s", 2, 1)

	p := mouse
	p.Price = decimal.RequireFromString("12.50")
	_, err = f.catalog.UpdateProduct(ctx, p)
	require.NoError(t, err)

	q, err := f.checkout.Quote(ctx, "s")
	require.NoError(t, err)
	require.Len(t, q.Lines, 2)
	assert.Equal(t, "24.98", q.CartTotal.StringFixed(2))
	assert.Equal(t, "30.00", q.Total.StringFixed(2))
	assert.True(t, q.Lines[0].PriceChanged())
	assert.False(t, q.Lines[1].PriceChanged())
	assert.True(t, q.Lines[1].InStock)
}
