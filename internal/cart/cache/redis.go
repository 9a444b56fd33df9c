package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"

	"storefront/internal/domain"
)

// RedisCache keeps JSON-encoded carts under cart:<userID>. Entries expire on
// their own; the service additionally deletes on every mutation, so the TTL
// only bounds staleness for carts that stop changing.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client, ttl: 15 * time.Minute}
}

func (c *RedisCache) Get(ctx context.Context, userID string) (*domain.Cart, error) {
	raw, err := c.client.Get(ctx, cartKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("cache read for user %s: %w", userID, err)
	}

	var cart domain.Cart
	if err := json.Unmarshal(raw, &cart); err != nil {
		return nil, fmt.Errorf("decode cached cart for user %s: %w", userID, err)
	}
	return &cart, nil
}

func (c *RedisCache) Set(ctx context.Context, userID string, cart *domain.Cart) error {
	raw, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("encode cart for user %s: %w", userID, err)
	}

	if err := c.client.Set(ctx, cartKey(userID), raw, c.entryTTL()).Err(); err != nil {
		return fmt.Errorf("cache write for user %s: %w", userID, err)
	}
	return nil
}

func (c *RedisCache) Delete(ctx context.Context, userID string) error {
	if err := c.client.Del(ctx, cartKey(userID)).Err(); err != nil {
		return fmt.Errorf("cache invalidate for user %s: %w", userID, err)
	}
	return nil
}

// entryTTL spreads expirations over a window so carts cached in the same
// burst do not all expire together.
func (c *RedisCache) entryTTL() time.Duration {
	return c.ttl + time.Duration(rand.Intn(5))*time.Minute
}

func cartKey(userID string) string {
	return "cart:" + userID
}
