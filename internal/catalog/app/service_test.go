package app

import (
	"context"
	"sync"
	"testing"

	"github.com/dwikikusuma/techstore/internal/catalog/domain"
	"github.com/dwikikusuma/techstore/pkg/apperr"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	mu       sync.Mutex
	products map[int64]domain.Product
	nextID   int64
	lastList domain.ListFilter
}

func newFakeRepo(ps ...domain.Product) *fakeRepo {
	r := &fakeRepo{products: map[int64]domain.Product{}}
	for _, p := range ps {
		r.products[p.ID] = p
		if p.ID > r.nextID {
			r.nextID = p.ID
		}
	}
	return r
}

func (r *fakeRepo) Create(ctx context.Context, p domain.Product) (domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	p.ID = r.nextID
	r.products[p.ID] = p
	return p, nil
}

func (r *fakeRepo) Get(ctx context.Context, id int64) (domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return domain.Product{}, ErrNotFound
	}
	return p, nil
}

func (r *fakeRepo) List(ctx context.Context, f domain.ListFilter) ([]domain.Product, error) {
	r.lastList = f
	return nil, nil
}

func (r *fakeRepo) LowStock(ctx context.Context, threshold int) ([]domain.Product, error) {
	return nil, nil
}

func (r *fakeRepo) Update(ctx context.Context, p domain.Product) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.products[p.ID]; !ok {
		return false, nil
	}
	r.products[p.ID] = p
	return true, nil
}

func (r *fakeRepo) Delete(ctx context.Context, id int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.products[id]; !ok {
		return false, nil
	}
	delete(r.products, id)
	return true, nil
}

func (r *fakeRepo) DecrementStock(ctx context.Context, id int64, qty int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok || p.Stock < qty {
		return false, nil
	}
	p.Stock -= qty
	r.products[id] = p
	return true, nil
}

func price(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestCreateProductValidation(t *testing.T) {
	svc := NewService(newFakeRepo())
	ctx := context.Background()

	t.Run("empty name -> invalid", func(t *testing.T) {
		_, err := svc.CreateProduct(ctx, domain.Product{Name: "   ", Price: price("1")})
		assert.ErrorIs(t, err, ErrInvalidInput)
		assert.ErrorIs(t, err, apperr.ErrInvalidInput)
	})

	t.Run("negative price -> invalid", func(t *testing.T) {
		_, err := svc.CreateProduct(ctx, domain.Product{Name: "Keyboard", Price: price("-0.01")})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("zero price -> invalid", func(t *testing.T) {
		_, err := svc.CreateProduct(ctx, domain.Product{Name: "Freebie", Price: decimal.Zero, Stock: 1})
		assert.ErrorIs(t, err, ErrInvalidInput)

		_, err = svc.CreateProduct(ctx, domain.Product{Name: "Freebie", Price: price("0.004"), Stock: 1})
		assert.ErrorIs(t, err, ErrInvalidInput, "rounds to zero")
	})

	t.Run("negative stock -> invalid", func(t *testing.T) {
		_, err := svc.CreateProduct(ctx, domain.Product{Name: "Keyboard", Price: price("10"), Stock: -1})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("defaults image and trims", func(t *testing.T) {
		p, err := svc.CreateProduct(ctx, domain.Product{Name: "  Mouse ", Price: price("19.999"), Stock: 3})
		require.NoError(t, err)
		assert.Equal(t, "Mouse", p.Name)
		assert.Equal(t, domain.PlaceholderImage, p.Image)
		assert.Equal(t, "20", p.Price.String())
	})
}

func TestUpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newFakeRepo(domain.Product{ID: 1, Name: "Laptop", Price: price("999.99"), Stock: 2}))

	t.Run("update missing -> not found", func(t *testing.T) {
		_, err := svc.UpdateProduct(ctx, domain.Product{ID: 9, Name: "X", Price: price("1")})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("update existing", func(t *testing.T) {
		p, err := svc.UpdateProduct(ctx, domain.Product{ID: 1, Name: "Laptop Pro", Price: price("1299"), Stock: 4})
		require.NoError(t, err)
		assert.Equal(t, "Laptop Pro", p.Name)
		assert.Equal(t, 4, p.Stock)
	})

	t.Run("delete missing -> not found", func(t *testing.T) {
		assert.ErrorIs(t, svc.DeleteProduct(ctx, 9), ErrNotFound)
	})

	t.Run("delete existing", func(t *testing.T) {
		require.NoError(t, svc.DeleteProduct(ctx, 1))
		_, err := svc.GetProduct(ctx, 1)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestListProductsValidation(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)
	ctx := context.Background()

	t.Run("min above max -> invalid", func(t *testing.T) {
		lo, hi := price("50"), price("10")
		_, err := svc.ListProducts(ctx, domain.ListFilter{MinPrice: &lo, MaxPrice: &hi})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("trims query", func(t *testing.T) {
		_, err := svc.ListProducts(ctx, domain.ListFilter{Query: "  phone ", Category: " audio "})
		require.NoError(t, err)
		assert.Equal(t, "phone", repo.lastList.Query)
		assert.Equal(t, "audio", repo.lastList.Category)
	})
}

func TestAvailability(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newFakeRepo(domain.Product{ID: 2, Name: "Cable", Price: price("5.00"), Stock: 1}))

	ok, err := svc.IsAvailable(ctx, 2, 1)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.IsAvailable(ctx, 2, 2)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = svc.IsAvailable(ctx, 404, 1)
	require.NoError(t, err)
	assert.False(t, ok, "absent product is unavailable, not an error")
}

func TestDecrementStock(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newFakeRepo(domain.Product{ID: 2, Name: "Cable", Price: price("5.00"), Stock: 1}))

	ok, err := svc.DecrementStock(ctx, 2, 2)
	require.NoError(t, err)
	assert.False(t, ok)

	p, err := svc.GetProduct(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, p.Stock, "failed decrement leaves stock unchanged")

	_, err = svc.DecrementStock(ctx, 2, 0)
	assert.ErrorIs(t, err, ErrInvalidInput)
}
