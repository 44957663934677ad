package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"cheapcart/internal/models"
)

var ErrCacheMiss = errors.New("cache miss")

// RedisCache stores ranked carts as JSON under one key per list and address.
type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func (r *RedisCache) Get(ctx context.Context, key string) ([]models.Cart, error) {
	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var carts []models.Cart
	if err := json.Unmarshal(data, &carts); err != nil {
		return nil, fmt.Errorf("unmarshal carts failed: %w", err)
	}
	return carts, nil
}

func (r *RedisCache) Set(ctx context.Context, key string, carts []models.Cart, ttl time.Duration) error {
	data, err := json.Marshal(carts)
	if err != nil {
		return fmt.Errorf("marshal carts failed: %w", err)
	}
	if err := r.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func cacheKey(shoppingListID string, addr models.Address) string {
	return fmt.Sprintf("carts:%s:%s|%s|%s", shoppingListID, addr.City, addr.Street, addr.Building)
}
