package app

import (
	"context"
	"fmt"
	"time"

	"github.com/dwikikusuma/techstore/internal/cart/domain"
	"github.com/dwikikusuma/techstore/pkg/apperr"
)

var (
	ErrInvalidInput    = fmt.Errorf("cart: %w", apperr.ErrInvalidInput)
	ErrProductNotFound = fmt.Errorf("product: %w", apperr.ErrNotFound)
	ErrItemNotFound    = fmt.Errorf("cart item: %w", apperr.ErrNotFound)
)

type Service struct {
	store   CartStore
	catalog ProductReader
	now     func() time.Time
}

func NewService(store CartStore, catalog ProductReader) *Service {
	return &Service{
		store:   store,
		catalog: catalog,
		now:     time.Now,
	}
}

func (s *Service) GetCart(ctx context.Context, sessionID string) (domain.Cart, error) {
	if sessionID == "" {
		return domain.Cart{}, ErrInvalidInput
	}
	return s.store.Get(ctx, sessionID)
}

// AddItem checks the merged quantity against current stock. The check does not reserve anything.
func (s *Service) AddItem(ctx context.Context, sessionID string, productID int64, qty int) (domain.Cart, error) {
	if sessionID == "" || productID <= 0 || qty <= 0 {
		return domain.Cart{}, fmt.Errorf("%w: product id and quantity must be positive", ErrInvalidInput)
	}

	product, err := s.catalog.GetProduct(ctx, productID)
	if err != nil {
		return domain.Cart{}, err
	}

	cart, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return domain.Cart{}, err
	}

	if total := cart.Quantity(productID) + qty; product.Stock < total {
		return domain.Cart{}, apperr.InsufficientStock(product.ID, product.Name)
	}

	cart.Add(product, qty)
	return s.save(ctx, cart)
}

// SetItemQuantity replaces a line's quantity; 0 removes it. Absent lines are ErrItemNotFound.
func (s *Service) SetItemQuantity(ctx context.Context, sessionID string, productID int64, qty int) (domain.Cart, error) {
	if sessionID == "" || productID <= 0 || qty < 0 {
		return domain.Cart{}, fmt.Errorf("%w: quantity must not be negative", ErrInvalidInput)
	}

	cart, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return domain.Cart{}, err
	}
	if cart.Quantity(productID) == 0 {
		return domain.Cart{}, ErrItemNotFound
	}

	if qty > 0 {
		product, err := s.catalog.GetProduct(ctx, productID)
		if err != nil {
			return domain.Cart{}, err
		}
		if product.Stock < qty {
			return domain.Cart{}, apperr.InsufficientStock(product.ID, product.Name)
		}
	}

	cart.SetQuantity(productID, qty)
	return s.save(ctx, cart)
}

func (s *Service) RemoveItem(ctx context.Context, sessionID string, productID int64) (domain.Cart, error) {
	if sessionID == "" || productID <= 0 {
		return domain.Cart{}, ErrInvalidInput
	}

	cart, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return domain.Cart{}, err
	}
	if !cart.Remove(productID) {
		return domain.Cart{}, ErrItemNotFound
	}
	return s.save(ctx, cart)
}

func (s *Service) ClearCart(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return ErrInvalidInput
	}
	cart := domain.New(sessionID)
	_, err := s.save(ctx, cart)
	return err
}

// Discard forgets the session's cart entirely.
func (s *Service) Discard(ctx context.Context, sessionID string) error {
	return s.store.Expire(ctx, sessionID)
}

func (s *Service) save(ctx context.Context, cart domain.Cart) (domain.Cart, error) {
	cart.UpdatedAt = s.now().UTC()
	if err := s.store.Put(ctx, cart); err != nil {
		return domain.Cart{}, fmt.Errorf("save cart: %w", err)
	}
	return cart, nil
}
