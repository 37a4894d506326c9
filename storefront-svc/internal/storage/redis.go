package storage

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"qr-storefront/storefront-svc/internal/cart"
	"qr-storefront/storefront-svc/internal/domain"

	"github.com/redis/go-redis/v9"
)

// RedisSlot is the cart persistence slot of one browsing session. The entry
// expires with the session.
type RedisSlot struct {
	Client *redis.Client
	Key    string
	TTL    time.Duration
}

func NewRedisSlot(client *redis.Client, sessionID string, ttl time.Duration) *RedisSlot {
	return &RedisSlot{Client: client, Key: SessionKey(sessionID, cart.SlotKey), TTL: ttl}
}

func SessionKey(sessionID, name string) string {
	return "session:" + sessionID + ":" + name
}

func (s *RedisSlot) Read(ctx context.Context) ([]byte, bool, error) {
	payload, err := s.Client.Get(ctx, s.Key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return payload, true, nil
}

func (s *RedisSlot) Write(ctx context.Context, payload []byte) error {
	return s.Client.Set(ctx, s.Key, payload, s.TTL).Err()
}

func (s *RedisSlot) Delete(ctx context.Context) error {
	return s.Client.Del(ctx, s.Key).Err()
}

var _ cart.Slot = (*RedisSlot)(nil)

type MenuCache struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewMenuCache(client *redis.Client, ttl time.Duration) *MenuCache {
	return &MenuCache{Client: client, TTL: ttl}
}

func (c *MenuCache) MenuKey(restaurantID string) string {
	return "menu:" + restaurantID
}

func (c *MenuCache) Get(ctx context.Context, restaurantID string) ([]domain.MenuItem, bool, error) {
	payload, err := c.Client.Get(ctx, c.MenuKey(restaurantID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var items []domain.MenuItem
	if err := json.Unmarshal(payload, &items); err != nil {
		return nil, false, err
	}
	return items, true, nil
}

func (c *MenuCache) Set(ctx context.Context, restaurantID string, items []domain.MenuItem) error {
	payload, err := json.Marshal(items)
	if err != nil {
		return err
	}
	return c.Client.Set(ctx, c.MenuKey(restaurantID), payload, c.TTL).Err()
}

func (c *MenuCache) Invalidate(ctx context.Context, restaurantID string) error {
	return c.Client.Del(ctx, c.MenuKey(restaurantID)).Err()
}

// PaymentCounter counts the orders of a browsing session that are waiting
// for payment confirmation.
type PaymentCounter struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewPaymentCounter(client *redis.Client, ttl time.Duration) *PaymentCounter {
	return &PaymentCounter{Client: client, TTL: ttl}
}

func (p *PaymentCounter) Increment(ctx context.Context, sessionID string) (int64, error) {
	key := SessionKey(sessionID, "payment_pending")
	count, err := p.Client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if err := p.Client.Expire(ctx, key, p.TTL).Err(); err != nil {
		return count, err
	}
	return count, nil
}

func (p *PaymentCounter) Count(ctx context.Context, sessionID string) (int64, error) {
	count, err := p.Client.Get(ctx, SessionKey(sessionID, "payment_pending")).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return count, err
}
