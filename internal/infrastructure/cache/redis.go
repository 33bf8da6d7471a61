package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"pix-backend/internal/domain"
)

// OrderCache keeps a short-lived projection of orders for the status-query
// path. A nil cache is valid and disables caching entirely. Every store write
// for a key must invalidate it, so a read is stale by at most the in-flight
// write.
type OrderCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewOrderCache(addr, password string, db int) *OrderCache {
	if addr == "" {
		return nil
	}
	return &OrderCache{
		client: redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db}),
		ttl:    5 * time.Minute,
	}
}

func key(transactionID string) string {
	return "order:" + transactionID
}

func (c *OrderCache) Get(ctx context.Context, transactionID string) (*domain.Order, bool) {
	if c == nil {
		return nil, false
	}
	raw, err := c.client.Get(ctx, key(transactionID)).Bytes()
	if err != nil {
		return nil, false
	}
	var o domain.Order
	if err := json.Unmarshal(raw, &o); err != nil {
		return nil, false
	}
	return &o, true
}

func (c *OrderCache) Set(ctx context.Context, o *domain.Order) {
	if c == nil {
		return
	}
	raw, err := json.Marshal(o)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, key(o.TransactionID), raw, c.ttl).Err()
}

func (c *OrderCache) Invalidate(ctx context.Context, transactionID string) {
	if c == nil {
		return
	}
	_ = c.client.Del(ctx, key(transactionID)).Err()
}

func (c *OrderCache) Ping(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.client.Ping(ctx).Err()
}
