// Package memory keeps carts in process memory, for single-instance runs and tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/dwikikusuma/techstore/internal/cart/domain"
)

type entry struct {
	cart    domain.Cart
	expires time.Time
}

type CartStore struct {
	mu  sync.Mutex
	ttl time.Duration
	now func() time.Time
	m   map[string]entry
}

func NewCartStore(ttl time.Duration) *CartStore {
	return &CartStore{ttl: ttl, now: time.Now, m: make(map[string]entry)}
}

func (s *CartStore) Get(ctx context.Context, sessionID string) (domain.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.m[sessionID]
	if !ok || s.now().After(e.expires) {
		delete(s.m, sessionID)
		return domain.New(sessionID), nil
	}
	// copy so callers cannot mutate the stored slice
	c := e.cart
	c.Items = append([]domain.CartItem(nil), e.cart.Items...)
	return c, nil
}

func (s *CartStore) Put(ctx context.Context, cart domain.Cart) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cart.Items = append([]domain.CartItem(nil), cart.Items...)
	s.m[cart.SessionID] = entry{cart: cart, expires: s.now().Add(s.ttl)}
	return nil
}

func (s *CartStore) Touch(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.m[sessionID]
	if !ok {
		return nil
	}
	if s.now().After(e.expires) {
		delete(s.m, sessionID)
		return nil
	}
	e.expires = s.now().Add(s.ttl)
	s.m[sessionID] = e
	return nil
}

func (s *CartStore) Expire(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.m, sessionID)
	return nil
}
