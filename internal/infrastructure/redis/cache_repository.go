package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/osinovi/user-service/internal/apperrors"
)

// scanBatch is the COUNT hint for prefix scans.
const scanBatch = 100

// CacheRepository implements cache operations for Redis (without tracing).
type CacheRepository struct {
	client redis.UniversalClient
}

// NewCacheRepository creates a new CacheRepository.
func NewCacheRepository(client redis.UniversalClient) *CacheRepository {
	return &CacheRepository{client: client}
}

// Set stores a value in cache with the given TTL.
func (r *CacheRepository) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set cache: %w", err)
	}
	return nil
}

// Get retrieves a value from cache. An absent key is reported as
// apperrors.ErrCacheMiss.
func (r *CacheRepository) Get(ctx context.Context, key string) (string, error) {
	value, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", fmt.Errorf("%w: %s", apperrors.ErrCacheMiss, key)
	}

	if err != nil {
		return "", fmt.Errorf("failed to get cache: %w", err)
	}

	return value, nil
}

// Delete removes the given keys from cache. Deleting an absent key is a
// no-op.
func (r *CacheRepository) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to delete cache: %w", err)
	}
	return nil
}

// DeleteByPrefix removes every key under the given prefix. Uses SCAN so a
// large namespace does not block the server the way KEYS would.
func (r *CacheRepository) DeleteByPrefix(ctx context.Context, prefix string) error {
	iter := r.client.Scan(ctx, 0, prefix+"*", scanBatch).Iterator()

	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan cache keys: %w", err)
	}

	return r.Delete(ctx, keys...)
}
