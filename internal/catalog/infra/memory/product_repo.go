// Package memory is an in-process ProductRepo used by tests and local runs without Postgres.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dwikikusuma/techstore/internal/catalog/app"
	"github.com/dwikikusuma/techstore/internal/catalog/domain"
)

type ProductRepo struct {
	mu       sync.Mutex
	products map[int64]domain.Product
	nextID   int64
}

func NewProductRepo(seed ...domain.Product) *ProductRepo {
	r := &ProductRepo{products: make(map[int64]domain.Product)}
	for _, p := range seed {
		if p.ID == 0 {
			r.nextID++
			p.ID = r.nextID
		}
		if p.ID > r.nextID {
			r.nextID = p.ID
		}
		r.products[p.ID] = p
	}
	return r
}

func (r *ProductRepo) Create(ctx context.Context, p domain.Product) (domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	p.ID = r.nextID
	p.CreatedAt = time.Now().UTC()
	r.products[p.ID] = p
	return p, nil
}

func (r *ProductRepo) Get(ctx context.Context, id int64) (domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.products[id]
	if !ok {
		return domain.Product{}, app.ErrNotFound
	}
	return p, nil
}

func (r *ProductRepo) List(ctx context.Context, f domain.ListFilter) ([]domain.Product, error) {
	return r.filter(func(p domain.Product) bool {
		if f.Query != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(f.Query)) {
			return false
		}
		if f.Category != "" && !strings.EqualFold(p.Category, f.Category) {
			return false
		}
		if f.MinPrice != nil && p.Price.LessThan(*f.MinPrice) {
			return false
		}
		if f.MaxPrice != nil && p.Price.GreaterThan(*f.MaxPrice) {
			return false
		}
		return true
	}, func(a, b domain.Product) bool { return a.ID < b.ID }), nil
}

func (r *ProductRepo) LowStock(ctx context.Context, threshold int) ([]domain.Product, error) {
	return r.filter(func(p domain.Product) bool { return p.Stock <= threshold },
		func(a, b domain.Product) bool {
			if a.Stock != b.Stock {
				return a.Stock < b.Stock
			}
			return a.ID < b.ID
		}), nil
}

func (r *ProductRepo) Update(ctx context.Context, p domain.Product) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	old, ok := r.products[p.ID]
	if !ok {
		return false, nil
	}
	p.CreatedAt = old.CreatedAt
	r.products[p.ID] = p
	return true, nil
}

func (r *ProductRepo) Delete(ctx context.Context, id int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[id]; !ok {
		return false, nil
	}
	delete(r.products, id)
	return true, nil
}

func (r *ProductRepo) DecrementStock(ctx context.Context, id int64, qty int) (bool, error) {
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

// DecrementAll takes qty[id] from every product or nothing at all.
// On failure it returns the first product, by id, that is short.
func (r *ProductRepo) DecrementAll(qty map[int64]int) (int64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]int64, 0, len(qty))
	for id := range qty {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		p, ok := r.products[id]
		if !ok || p.Stock < qty[id] {
			return id, false
		}
	}
	for _, id := range ids {
		p := r.products[id]
		p.Stock -= qty[id]
		r.products[id] = p
	}
	return 0, true
}

func (r *ProductRepo) filter(keep func(domain.Product) bool, less func(a, b domain.Product) bool) []domain.Product {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]domain.Product, 0, len(r.products))
	for _, p := range r.products {
		if keep(p) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}
