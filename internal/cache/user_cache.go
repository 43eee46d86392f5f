// Package cache holds the cache managers that sit between the domain
// services and the Redis backend. The managers own the key layout and the
// write-both/evict-both discipline; they never touch the store, and a
// backend failure is always degraded to a miss so the store stays
// authoritative.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/DataDog/datadog-go/v5/statsd"
	"github.com/sirupsen/logrus"

	"github.com/osinovi/user-service/internal/apperrors"
	"github.com/osinovi/user-service/internal/common/logging"
	"github.com/osinovi/user-service/internal/domain/entities"
	"github.com/osinovi/user-service/internal/usecase/port"
)

const (
	// userKeyPrefix must stay bit-for-bit compatible with entries written
	// by earlier deployments.
	userKeyPrefix  = "users::"
	defaultUserTTL = 10 * time.Minute
)

// UserCacheManager caches user snapshots under two independent keys, one
// per lookup path (id and email). The two writes are separate backend
// operations, not a transaction: a reader can observe one key updated
// before the other. That window is bounded by the TTL.
type UserCacheManager struct {
	cache  port.CacheRepository
	statsd statsd.ClientInterface
	logger *logrus.Logger
	ttl    time.Duration
}

// NewUserCacheManager creates a UserCacheManager. A non-positive ttl falls
// back to the 10 minute default.
func NewUserCacheManager(cache port.CacheRepository, statsdClient statsd.ClientInterface, logger *logrus.Logger, ttl time.Duration) *UserCacheManager {
	if ttl <= 0 {
		ttl = defaultUserTTL
	}
	return &UserCacheManager{
		cache:  cache,
		statsd: statsdClient,
		logger: logger,
		ttl:    ttl,
	}
}

// UserIDKey returns the cache key for a user id lookup.
func UserIDKey(id int64) string {
	return fmt.Sprintf("%sid:%d", userKeyPrefix, id)
}

// UserEmailKey returns the cache key for a user email lookup.
func UserEmailKey(email string) string {
	return userKeyPrefix + "email:" + email
}

// CacheUser writes the snapshot under both the id and the email key. A
// zero id or nil snapshot is a silent no-op; an empty email writes the id
// key only. A snapshot must only be cached after the store operation it
// reflects has committed.
func (m *UserCacheManager) CacheUser(ctx context.Context, id int64, email string, user *entities.User) {
	if id == 0 || user == nil {
		return
	}

	payload, err := json.Marshal(user)
	if err != nil {
		logging.LogErrorWithTrace(ctx, m.logger, "cache", "Failed to marshal user snapshot", err, logrus.Fields{"user.id": id})
		return
	}

	if err := m.cache.Set(ctx, UserIDKey(id), string(payload), m.ttl); err != nil {
		m.reportFailure(ctx, UserIDKey(id), err)
	}
	if email != "" {
		if err := m.cache.Set(ctx, UserEmailKey(email), string(payload), m.ttl); err != nil {
			m.reportFailure(ctx, UserEmailKey(email), err)
		}
	}
}

// GetByID returns the cached snapshot for an id lookup, or false on miss.
// Any backend failure is treated as a miss.
func (m *UserCacheManager) GetByID(ctx context.Context, id int64) (*entities.User, bool) {
	return m.get(ctx, UserIDKey(id))
}

// GetByEmail returns the cached snapshot for an email lookup, or false on
// miss.
func (m *UserCacheManager) GetByEmail(ctx context.Context, email string) (*entities.User, bool) {
	return m.get(ctx, UserEmailKey(email))
}

func (m *UserCacheManager) get(ctx context.Context, key string) (*entities.User, bool) {
	value, err := m.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, apperrors.ErrCacheMiss) {
			m.reportFailure(ctx, key, err)
		}
		_ = m.statsd.Incr("cache.miss", []string{"entity:user"}, 1)
		return nil, false
	}

	var user entities.User
	if err := json.Unmarshal([]byte(value), &user); err != nil {
		// Undecodable entry: treat as a miss so the store reload
		// overwrites it.
		logging.LogErrorWithTrace(ctx, m.logger, "cache", "Failed to unmarshal user snapshot", err, logrus.Fields{"cache.key": key})
		_ = m.statsd.Incr("cache.miss", []string{"entity:user"}, 1)
		return nil, false
	}

	_ = m.statsd.Incr("cache.hit", []string{"entity:user"}, 1)
	return &user, true
}

// Evict deletes the id and email keys. Either argument may be zero-valued
// to evict one key only; evicting an absent key is a no-op.
func (m *UserCacheManager) Evict(ctx context.Context, id int64, email string) {
	if id != 0 {
		if err := m.cache.Delete(ctx, UserIDKey(id)); err != nil {
			m.reportFailure(ctx, UserIDKey(id), err)
		}
	}
	if email != "" {
		if err := m.cache.Delete(ctx, UserEmailKey(email)); err != nil {
			m.reportFailure(ctx, UserEmailKey(email), err)
		}
	}
}

// Clear deletes every key under the user namespace. Administrative
// operation, used for test isolation rather than request handling.
func (m *UserCacheManager) Clear(ctx context.Context) {
	if err := m.cache.DeleteByPrefix(ctx, userKeyPrefix); err != nil {
		m.reportFailure(ctx, userKeyPrefix+"*", err)
	}
}

// reportFailure logs a backend failure and counts it. Failures never
// propagate to the caller.
func (m *UserCacheManager) reportFailure(ctx context.Context, key string, err error) {
	_ = m.statsd.Incr("cache.error", []string{"entity:user"}, 1)
	logging.LogErrorWithTrace(ctx, m.logger, "cache", "User cache operation failed", err, logrus.Fields{"cache.key": key})
}
