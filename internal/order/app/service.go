package app

import (
	"context"
	"fmt"

	"github.com/dwikikusuma/techstore/internal/order/domain"
	"github.com/dwikikusuma/techstore/pkg/apperr"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound     = fmt.Errorf("order: %w", apperr.ErrNotFound)
	ErrInvalidInput = fmt.Errorf("order: %w", apperr.ErrInvalidInput)
	ErrEmptyOrder   = fmt.Errorf("order: %w", apperr.ErrEmptyCart)
)

type Line struct {
	ProductID int64
	Name      string
	Image     string
	Price     decimal.Decimal
	Quantity  int
}

type PlaceOrderRequest struct {
	UserID          *int64
	DeliveryAddress string
	// Total is the caller's snapshot total. It must equal the sum of the lines.
	Total decimal.Decimal
	Lines []Line
}

type Service struct {
	repo OrderRepo
}

func NewService(repo OrderRepo) *Service {
	return &Service{repo: repo}
}

func (s *Service) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (domain.Order, error) {
	if len(req.Lines) == 0 {
		return domain.Order{}, ErrEmptyOrder
	}
	if req.Total.IsNegative() {
		return domain.Order{}, fmt.Errorf("%w: total cannot be negative, got %s", ErrInvalidInput, req.Total)
	}

	items := make([]domain.OrderItem, 0, len(req.Lines))
	seen := make(map[int64]struct{}, len(req.Lines))
	for i, l := range req.Lines {
		if l.ProductID <= 0 {
			return domain.Order{}, fmt.Errorf("%w: line %d: invalid product id %d", ErrInvalidInput, i, l.ProductID)
		}
		if l.Quantity <= 0 {
			return domain.Order{}, fmt.Errorf("%w: line %d: quantity must be positive, got %d", ErrInvalidInput, i, l.Quantity)
		}
		if l.Price.IsNegative() {
			return domain.Order{}, fmt.Errorf("%w: line %d: price cannot be negative, got %s", ErrInvalidInput, i, l.Price)
		}
		if _, dup := seen[l.ProductID]; dup {
			return domain.Order{}, fmt.Errorf("%w: line %d: product %d listed twice", ErrInvalidInput, i, l.ProductID)
		}
		seen[l.ProductID] = struct{}{}

		items = append(items, domain.OrderItem{
			ProductID:    l.ProductID,
			ProductName:  l.Name,
			Quantity:     l.Quantity,
			Price:        l.Price,
			ProductImage: l.Image,
		})
	}

	order := domain.NewOrder(req.UserID, req.DeliveryAddress, req.Total, items)
	if !order.ItemsTotal().Equal(order.Total) {
		return domain.Order{}, fmt.Errorf("%w: total %s does not match lines %s", ErrInvalidInput, order.Total, order.ItemsTotal())
	}

	// The row is only visible once the transaction commits, so it is written as completed.
	order.Complete()

	created, err := s.repo.CreateOrderTx(ctx, order)
	if err != nil {
		return domain.Order{}, err
	}
	return created, nil
}

// ListByUser returns the user's orders, newest first.
func (s *Service) ListByUser(ctx context.Context, userID int64) ([]domain.Order, error) {
	if userID <= 0 {
		return nil, fmt.Errorf("%w: invalid user id %d", ErrInvalidInput, userID)
	}
	return s.repo.ListByUser(ctx, userID)
}

// Search filters the user's history by order id or item name. A blank term returns everything.
func (s *Service) Search(ctx context.Context, userID int64, term string) ([]domain.Order, error) {
	orders, err := s.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return domain.Filter(orders, term), nil
}

// GetOrder hides orders owned by someone else behind ErrNotFound.
func (s *Service) GetOrder(ctx context.Context, userID, orderID int64) (domain.Order, error) {
	o, err := s.repo.Get(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}
	if o.UserID == nil || *o.UserID != userID {
		return domain.Order{}, ErrNotFound
	}
	return o, nil
}
