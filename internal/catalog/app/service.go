package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dwikikusuma/techstore/internal/catalog/domain"
	"github.com/dwikikusuma/techstore/pkg/apperr"
)

var (
	ErrInvalidInput = fmt.Errorf("product: %w", apperr.ErrInvalidInput)
	ErrNotFound     = fmt.Errorf("product: %w", apperr.ErrNotFound)
)

const DefaultLowStockThreshold = 5

type Service struct {
	repo ProductRepo
}

func NewService(repo ProductRepo) *Service {
	return &Service{
		repo: repo,
	}
}

func (s *Service) CreateProduct(ctx context.Context, p domain.Product) (domain.Product, error) {
	p, err := normalize(p)
	if err != nil {
		return domain.Product{}, err
	}
	return s.repo.Create(ctx, p)
}

func (s *Service) UpdateProduct(ctx context.Context, p domain.Product) (domain.Product, error) {
	if p.ID <= 0 {
		return domain.Product{}, ErrInvalidInput
	}
	p, err := normalize(p)
	if err != nil {
		return domain.Product{}, err
	}

	ok, err := s.repo.Update(ctx, p)
	if err != nil {
		return domain.Product{}, err
	}
	if !ok {
		return domain.Product{}, ErrNotFound
	}
	return s.repo.Get(ctx, p.ID)
}

func (s *Service) DeleteProduct(ctx context.Context, id int64) error {
	if id <= 0 {
		return ErrInvalidInput
	}
	ok, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

func (s *Service) GetProduct(ctx context.Context, id int64) (domain.Product, error) {
	if id <= 0 {
		return domain.Product{}, ErrInvalidInput
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) ListProducts(ctx context.Context, f domain.ListFilter) ([]domain.Product, error) {
	f.Query = strings.TrimSpace(f.Query)
	f.Category = strings.TrimSpace(f.Category)

	if f.MinPrice != nil && f.MinPrice.IsNegative() {
		return nil, ErrInvalidInput
	}
	if f.MinPrice != nil && f.MaxPrice != nil && f.MinPrice.GreaterThan(*f.MaxPrice) {
		return nil, fmt.Errorf("%w: min price above max price", ErrInvalidInput)
	}
	return s.repo.List(ctx, f)
}

func (s *Service) LowStock(ctx context.Context, threshold int) ([]domain.Product, error) {
	if threshold < 0 {
		return nil, ErrInvalidInput
	}
	return s.repo.LowStock(ctx, threshold)
}

// IsAvailable is false for unknown products rather than an error.
func (s *Service) IsAvailable(ctx context.Context, id int64, qty int) (bool, error) {
	p, err := s.GetProduct(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return p.Available(qty), nil
}

func (s *Service) DecrementStock(ctx context.Context, id int64, qty int) (bool, error) {
	if id <= 0 || qty <= 0 {
		return false, ErrInvalidInput
	}
	return s.repo.DecrementStock(ctx, id, qty)
}

func normalize(p domain.Product) (domain.Product, error) {
	p.Name = strings.TrimSpace(p.Name)
	p.Category = strings.TrimSpace(p.Category)
	p.Image = strings.TrimSpace(p.Image)
	p.Price = p.Price.Round(2)

	switch {
	case p.Name == "":
		return domain.Product{}, fmt.Errorf("%w: name is required", ErrInvalidInput)
	case !p.Price.IsPositive():
		return domain.Product{}, fmt.Errorf("%w: price must be positive", ErrInvalidInput)
	case p.Stock < 0:
		return domain.Product{}, fmt.Errorf("%w: stock must not be negative", ErrInvalidInput)
	}

	if p.Image == "" {
		p.Image = domain.PlaceholderImage
	}
	return p, nil
}
