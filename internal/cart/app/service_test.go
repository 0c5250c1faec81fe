package app_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dwikikusuma/techstore/internal/cart/app"
	"github.com/dwikikusuma/techstore/internal/cart/domain"
	"github.com/dwikikusuma/techstore/internal/cart/infra/memory"
	"github.com/dwikikusuma/techstore/pkg/apperr"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

type fakeCatalog struct {
	mu       sync.Mutex
	products map[int64]domain.ProductSnapshot
}

func (f *fakeCatalog) GetProduct(ctx context.Context, id int64) (domain.ProductSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[id]
	if !ok {
		return domain.ProductSnapshot{}, app.ErrProductNotFound
	}
	return p, nil
}

func (f *fakeCatalog) setStock(id int64, stock int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := f.products[id]
	p.Stock = stock
	f.products[id] = p
}

func newTestService(t *testing.T) (*app.Service, *fakeCatalog) {
	t.Helper()
	catalog := &fakeCatalog{products: map[int64]domain.ProductSnapshot{
		1: {ID: 1, Name: "Wireless Mouse", Price: decimal.RequireFromString("9.99"), Stock: 5},
		2: {ID: 2, Name: "USB Cable", Price: decimal.RequireFromString("5.00"), Stock: 1},
	}}
	return app.NewService(memory.NewCartStore(time.Hour), catalog), catalog
}

func TestAddItem(t *testing.T) {
	ctx := context.Background()

	t.Run("summary example", func(t *testing.T) {
		svc, _ := newTestService(t)
		_, err := svc.AddItem(ctx, "s", 1, 2)
		require.NoError(t, err)
		cart, err := svc.AddItem(ctx, "s", 2, 1)
		require.NoError(t, err)

		sum := cart.Summary()
		assert.Equal(t, 3, sum.TotalItems)
		assert.Equal(t, "24.98", sum.TotalAmount.StringFixed(2))
	})

	t.Run("unknown product -> not found", func(t *testing.T) {
		svc, _ := newTestService(t)
		_, err := svc.AddItem(ctx, "s", 99, 1)
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})

	t.Run("merged quantity over stock -> insufficient", func(t *testing.T) {
		svc, _ := newTestService(t)
		_, err := svc.AddItem(ctx, "s", 1, 3)
		require.NoError(t, err)

		_, err = svc.AddItem(ctx, "s", 1, 3)
		var stockErr *apperr.InsufficientStockError
		require.ErrorAs(t, err, &stockErr)
		assert.Equal(t, "Wireless Mouse", stockErr.ProductName)

		cart, err := svc.GetCart(ctx, "s")
		require.NoError(t, err)
		assert.Equal(t, 3, cart.Quantity(1), "failed add leaves the cart untouched")
	})

	t.Run("non-positive quantity -> invalid", func(t *testing.T) {
		svc, _ := newTestService(t)
		_, err := svc.AddItem(ctx, "s", 1, 0)
		assert.ErrorIs(t, err, app.ErrInvalidInput)
	})

	t.Run("sessions are isolated", func(t *testing.T) {
		svc, _ := newTestService(t)
		_, err := svc.AddItem(ctx, "a", 1, 1)
		require.NoError(t, err)

		other, err := svc.GetCart(ctx, "b")
		require.NoError(t, err)
		assert.True(t, other.IsEmpty())
	})
}

func TestSetItemQuantity(t *testing.T) {
	ctx := context.Background()
	svc, catalog := newTestService(t)
	_, err := svc.AddItem(ctx, "s", 1, 1)
	require.NoError(t, err)

	t.Run("updates in place", func(t *testing.T) {
		cart, err := svc.SetItemQuantity(ctx, "s", 1, 4)
		require.NoError(t, err)
		assert.Equal(t, 4, cart.Quantity(1))
	})

	t.Run("revalidates against current stock", func(t *testing.T) {
		catalog.setStock(1, 2)
		_, err := svc.SetItemQuantity(ctx, "s", 1, 3)
		assert.ErrorIs(t, err, apperr.ErrInsufficientStock)
	})

	t.Run("absent item -> not found", func(t *testing.T) {
		_, err := svc.SetItemQuantity(ctx, "s", 2, 1)
		assert.ErrorIs(t, err, app.ErrItemNotFound)

		_, err = svc.SetItemQuantity(ctx, "s", 2, 0)
		assert.ErrorIs(t, err, app.ErrItemNotFound)
	})

	t.Run("zero removes", func(t *testing.T) {
		cart, err := svc.SetItemQuantity(ctx, "s", 1, 0)
		require.NoError(t, err)
		assert.True(t, cart.IsEmpty())
	})
}

func TestRemoveAndClear(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	_, err := svc.AddItem(ctx, "s", 1, 1)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, "s", 2, 1)
	require.NoError(t, err)

	cart, err := svc.RemoveItem(ctx, "s", 2)
	require.NoError(t, err)
	assert.Len(t, cart.Items, 1)

	_, err = svc.RemoveItem(ctx, "s", 2)
	assert.ErrorIs(t, err, app.ErrItemNotFound)

	require.NoError(t, svc.ClearCart(ctx, "s"))
	cart, err = svc.GetCart(ctx, "s")
	require.NoError(t, err)
	assert.True(t, cart.IsEmpty())
}

func TestCart_ConcurrentSessionsStayIsolated(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	const N = 50
	ids := make([]string, N)
	for i := range ids {
		ids[i] = uuid.NewString()
	}

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < N; i++ {
		i := i
		g.Go(func() error {
			_, err := svc.AddItem(gctx, ids[i], 1, 1+i%5)
			return err
		})
	}
	require.NoError(t, g.Wait())

	for i, id := range ids {
		cart, err := svc.GetCart(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, 1+i%5, cart.Quantity(1))
	}
}
