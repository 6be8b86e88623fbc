// internal/infrastructure/database/redis/cart_storage.go
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// CartStorage keeps serialized carts in Redis. Every write refreshes the
// key's expiry when ttl is positive.
type CartStorage struct {
	client *Client
	ttl    time.Duration
}

// NewCartStorage creates a Redis backed cart storage
func NewCartStorage(client *Client, ttl time.Duration) *CartStorage {
	return &CartStorage{client: client, ttl: ttl}
}

// Get returns the value stored under key
func (s *CartStorage) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := s.client.Redis.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read cart %s: %w", key, err)
	}
	return value, true, nil
}

// Set stores value under key
func (s *CartStorage) Set(ctx context.Context, key, value string) error {
	if err := s.client.Redis.Set(ctx, key, value, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write cart %s: %w", key, err)
	}
	return nil
}

// Delete removes key
func (s *CartStorage) Delete(ctx context.Context, key string) error {
	if err := s.client.Redis.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to delete cart %s: %w", key, err)
	}
	return nil
}
