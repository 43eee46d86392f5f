package tracing

import (
	"context"
	"errors"
	"time"

	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"

	"github.com/osinovi/user-service/internal/apperrors"
	"github.com/osinovi/user-service/internal/usecase/port"
)

// CacheRepositoryTracer wraps a CacheRepository with tracing.
type CacheRepositoryTracer struct {
	repo port.CacheRepository
}

// NewCacheRepositoryTracer creates a new tracing decorator for CacheRepository.
func NewCacheRepositoryTracer(repo port.CacheRepository) port.CacheRepository {
	return &CacheRepositoryTracer{repo: repo}
}

// Set wraps the Set method with tracing.
func (r *CacheRepositoryTracer) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	span, ctx := tracer.StartSpanFromContext(ctx, "redis.set")
	defer span.Finish()

	span.SetTag("db.type", "redis")
	span.SetTag("db.operation", "SET")
	span.SetTag("cache.key", key)
	span.SetTag("cache.ttl", ttl.Seconds())

	err := r.repo.Set(ctx, key, value, ttl)
	if err != nil {
		span.SetTag("error", true)
		span.SetTag("error.msg", err.Error())
		span.SetTag("cache.success", false)
		return err
	}

	span.SetTag("cache.success", true)
	return nil
}

// Get wraps the Get method with tracing.
func (r *CacheRepositoryTracer) Get(ctx context.Context, key string) (string, error) {
	span, ctx := tracer.StartSpanFromContext(ctx, "redis.get")
	defer span.Finish()

	span.SetTag("db.type", "redis")
	span.SetTag("db.operation", "GET")
	span.SetTag("cache.key", key)

	value, err := r.repo.Get(ctx, key)
	if err != nil {
		// Cache miss is not an error, only a backend failure is
		span.SetTag("cache.hit", false)
		if errors.Is(err, apperrors.ErrCacheMiss) {
			span.SetTag("cache.success", true)
		} else {
			span.SetTag("error", true)
			span.SetTag("error.msg", err.Error())
			span.SetTag("cache.success", false)
		}
		return "", err
	}

	span.SetTag("cache.hit", true)
	span.SetTag("cache.success", true)
	return value, nil
}

// Delete wraps the Delete method with tracing.
func (r *CacheRepositoryTracer) Delete(ctx context.Context, keys ...string) error {
	span, ctx := tracer.StartSpanFromContext(ctx, "redis.delete")
	defer span.Finish()

	span.SetTag("db.type", "redis")
	span.SetTag("db.operation", "DEL")
	span.SetTag("cache.keys", len(keys))

	err := r.repo.Delete(ctx, keys...)
	if err != nil {
		span.SetTag("error", true)
		span.SetTag("error.msg", err.Error())
		span.SetTag("cache.success", false)
		return err
	}

	span.SetTag("cache.success", true)
	return nil
}

// DeleteByPrefix wraps the DeleteByPrefix method with tracing.
func (r *CacheRepositoryTracer) DeleteByPrefix(ctx context.Context, prefix string) error {
	span, ctx := tracer.StartSpanFromContext(ctx, "redis.delete_by_prefix")
	defer span.Finish()

	span.SetTag("db.type", "redis")
	span.SetTag("db.operation", "SCAN+DEL")
	span.SetTag("cache.prefix", prefix)

	err := r.repo.DeleteByPrefix(ctx, prefix)
	if err != nil {
		span.SetTag("error", true)
		span.SetTag("error.msg", err.Error())
		span.SetTag("cache.success", false)
		return err
	}

	span.SetTag("cache.success", true)
	return nil
}
