package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dwikikusuma/techstore/internal/checkout/domain"
	"github.com/dwikikusuma/techstore/pkg/apperr"
	"github.com/dwikikusuma/techstore/pkg/metrics"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

var (
	ErrEmptyCart       = fmt.Errorf("checkout: %w", apperr.ErrEmptyCart)
	ErrProductNotFound = fmt.Errorf("checkout: product %w", apperr.ErrNotFound)
	ErrInProgress      = fmt.Errorf("checkout: %w: request with this idempotency key is in progress", apperr.ErrConflict)
	ErrNoSession       = fmt.Errorf("checkout: %w: no session", apperr.ErrUnauthorized)
)

const idempotencyScope = "checkout"

type Request struct {
	SessionID       string
	UserID          *int64
	DeliveryAddress string
	IdempotencyKey  string
}

type Service struct {
	log     *slog.Logger
	cart    CartReader
	catalog CatalogReader
	orders  OrderPlacer
	idem    Idempotency
	tracer  trace.Tracer

	maxConcurrent int
}

type Option func(*Service)

// WithIdempotency enables Idempotency-Key handling. Without it keys are ignored.
func WithIdempotency(idem Idempotency) Option {
	return func(s *Service) { s.idem = idem }
}

func WithMaxConcurrent(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxConcurrent = n
		}
	}
}

func NewService(log *slog.Logger, cart CartReader, catalog CatalogReader, orders OrderPlacer, opts ...Option) *Service {
	s := &Service{
		log:           log,
		cart:          cart,
		catalog:       catalog,
		orders:        orders,
		tracer:        otel.Tracer("checkout"),
		maxConcurrent: 10,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Checkout(ctx context.Context, req Request) (receipt domain.Receipt, err error) {
	ctx, span := s.tracer.Start(ctx, "checkout.Checkout")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			metrics.CheckoutFailures.WithLabelValues(failureReason(err)).Inc()
		}
		span.End()
	}()

	if req.SessionID == "" {
		return domain.Receipt{}, ErrNoSession
	}

	scope := idempotencyScope + ":" + req.SessionID
	if s.idem != nil && req.IdempotencyKey != "" {
		if prev, ok, err := s.recall(ctx, scope, req.IdempotencyKey); err != nil || ok {
			return prev, err
		}

		locked, lockErr := s.idem.TryLock(ctx, scope, req.IdempotencyKey)
		if lockErr != nil {
			return domain.Receipt{}, fmt.Errorf("checkout: idempotency lock: %w", lockErr)
		}
		if !locked {
			return domain.Receipt{}, ErrInProgress
		}
		defer func() {
			if err == nil {
				return
			}
			// let the client retry with the same key after a failure
			if relErr := s.idem.Release(context.WithoutCancel(ctx), scope, req.IdempotencyKey); relErr != nil {
				s.log.Warn("release idempotency key", "err", relErr)
			}
		}()
	}

	lines, err := s.cart.GetCart(ctx, req.SessionID)
	if err != nil {
		return domain.Receipt{}, err
	}
	if len(lines) == 0 {
		return domain.Receipt{}, ErrEmptyCart
	}
	span.SetAttributes(attribute.Int("checkout.lines", len(lines)))

	if err := s.checkAvailability(ctx, lines); err != nil {
		return domain.Receipt{}, err
	}

	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}

	receipt, err = s.orders.PlaceOrder(ctx, Draft{
		UserID:          req.UserID,
		DeliveryAddress: req.DeliveryAddress,
		Total:           total,
		Lines:           lines,
	})
	if err != nil {
		return domain.Receipt{}, err
	}
	span.SetAttributes(attribute.Int64("order.id", receipt.OrderID))
	metrics.OrdersPlaced.Inc()

	// The order is committed; a stale cart is not worth failing the request over.
	if err := s.cart.ClearCart(ctx, req.SessionID); err != nil {
		s.log.Warn("clear cart after checkout", "order_id", receipt.OrderID, "err", err)
	}

	if s.idem != nil && req.IdempotencyKey != "" {
		s.remember(ctx, scope, req.IdempotencyKey, receipt)
	}

	s.log.Info("order placed", "order_id", receipt.OrderID, "total", receipt.Total.StringFixed(2), "items", receipt.ItemCount)
	return receipt, nil
}

// checkAvailability is advisory. The order transaction re-checks with a conditional decrement.
func (s *Service) checkAvailability(ctx context.Context, lines []CartLine) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxConcurrent)

	for _, l := range lines {
		l := l
		g.Go(func() error {
			p, err := s.catalog.GetProduct(gctx, l.ProductID)
			if errors.Is(err, ErrProductNotFound) {
				return apperr.InsufficientStock(l.ProductID, l.Name)
			}
			if err != nil {
				return fmt.Errorf("get product %d: %w", l.ProductID, err)
			}
			if p.Stock < l.Quantity {
				return apperr.InsufficientStock(p.ID, p.Name)
			}
			return nil
		})
	}
	return g.Wait()
}

func (s *Service) recall(ctx context.Context, scope, key string) (domain.Receipt, bool, error) {
	raw, ok, err := s.idem.Recall(ctx, scope, key)
	if err != nil {
		return domain.Receipt{}, false, fmt.Errorf("checkout: idempotency recall: %w", err)
	}
	if !ok {
		return domain.Receipt{}, false, nil
	}
	var r domain.Receipt
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		return domain.Receipt{}, false, fmt.Errorf("checkout: decode remembered receipt: %w", err)
	}
	r.Replayed = true
	return r, true, nil
}

func (s *Service) remember(ctx context.Context, scope, key string, r domain.Receipt) {
	raw, err := json.Marshal(r)
	if err == nil {
		err = s.idem.Remember(ctx, scope, key, string(raw))
	}
	if err != nil {
		s.log.Warn("remember checkout result", "order_id", r.OrderID, "err", err)
	}
}

// Quote prices the cart against the current catalog.
func (s *Service) Quote(ctx context.Context, sessionID string) (domain.Quote, error) {
	items, err := s.cart.GetCart(ctx, sessionID)
	if err != nil {
		return domain.Quote{}, err
	}
	if len(items) == 0 {
		return domain.Quote{}, ErrEmptyCart
	}

	lines := make([]domain.QuoteLine, len(items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxConcurrent)

	for idx := range items {
		idx := idx
		g.Go(func() error {
			it := items[idx]
			product, err := s.catalog.GetProduct(gctx, it.ProductID)
			if err != nil {
				return fmt.Errorf("failed to get product %d: %w", it.ProductID, err)
			}

			lines[idx] = domain.QuoteLine{
				ProductID: product.ID,
				Name:      product.Name,
				Quantity:  it.Quantity,
				UnitPrice: product.Price,
				CartPrice: it.Price,
				LineTotal: product.Price.Mul(decimal.NewFromInt(int64(it.Quantity))),
				InStock:   product.Stock >= it.Quantity,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return domain.Quote{}, err
	}

	quote := domain.Quote{Lines: lines, Total: decimal.Zero, CartTotal: decimal.Zero}
	for i, line := range lines {
		quote.Total = quote.Total.Add(line.LineTotal)
		quote.CartTotal = quote.CartTotal.Add(items[i].Price.Mul(decimal.NewFromInt(int64(items[i].Quantity))))
	}
	return quote, nil
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, apperr.ErrEmptyCart):
		return "empty_cart"
	case errors.Is(err, apperr.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, apperr.ErrConflict):
		return "in_progress"
	case errors.Is(err, apperr.ErrInvalidInput), errors.Is(err, apperr.ErrUnauthorized):
		return "invalid"
	default:
		return "internal"
	}
}
