package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dwikikusuma/techstore/internal/cart/domain"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

type CartStore struct {
	rdb *goredis.Client
	ttl time.Duration
}

func NewCartStore(rdb *goredis.Client, ttl time.Duration) *CartStore {
	return &CartStore{rdb: rdb, ttl: ttl}
}

func key(sessionID string) string { return "cart:" + sessionID }

func (s *CartStore) Get(ctx context.Context, sessionID string) (domain.Cart, error) {
	raw, err := s.rdb.Get(ctx, key(sessionID)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return domain.New(sessionID), nil
	}
	if err != nil {
		return domain.Cart{}, fmt.Errorf("get cart: %w", err)
	}
	return decodeCart(sessionID, raw)
}

func (s *CartStore) Put(ctx context.Context, cart domain.Cart) error {
	raw, err := encodeCart(cart)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, key(cart.SessionID), raw, s.ttl).Err()
}

func (s *CartStore) Touch(ctx context.Context, sessionID string) error {
	return s.rdb.Expire(ctx, key(sessionID), s.ttl).Err()
}

func (s *CartStore) Expire(ctx context.Context, sessionID string) error {
	return s.rdb.Del(ctx, key(sessionID)).Err()
}

type cartRecord struct {
	Items     []itemRecord `json:"items"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

type itemRecord struct {
	ProductID int64           `json:"productId"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Image     string          `json:"image"`
	Stock     int             `json:"stock"`
	Quantity  int             `json:"quantity"`
}

func encodeCart(c domain.Cart) ([]byte, error) {
	rec := cartRecord{Items: make([]itemRecord, 0, len(c.Items)), UpdatedAt: c.UpdatedAt}
	for _, it := range c.Items {
		rec.Items = append(rec.Items, itemRecord{
			ProductID: it.Product.ID,
			Name:      it.Product.Name,
			Price:     it.Product.Price,
			Image:     it.Product.Image,
			Stock:     it.Product.Stock,
			Quantity:  it.Quantity,
		})
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encode cart: %w", err)
	}
	return raw, nil
}

func decodeCart(sessionID string, raw []byte) (domain.Cart, error) {
	var rec cartRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return domain.Cart{}, fmt.Errorf("decode cart: %w", err)
	}

	c := domain.Cart{SessionID: sessionID, UpdatedAt: rec.UpdatedAt}
	for _, it := range rec.Items {
		c.Items = append(c.Items, domain.CartItem{
			Product: domain.ProductSnapshot{
				ID:    it.ProductID,
				Name:  it.Name,
				Price: it.Price,
				Image: it.Image,
				Stock: it.Stock,
			},
			Quantity: it.Quantity,
		})
	}
	return c, nil
}
