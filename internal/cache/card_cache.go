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
	cardKeyPrefix  = "cards::"
	defaultCardTTL = 5 * time.Minute
)

// CardCacheManager caches card snapshots under a single id key.
type CardCacheManager struct {
	cache  port.CacheRepository
	statsd statsd.ClientInterface
	logger *logrus.Logger
	ttl    time.Duration
}

// NewCardCacheManager creates a CardCacheManager. A non-positive ttl falls
// back to the 5 minute default.
func NewCardCacheManager(cache port.CacheRepository, statsdClient statsd.ClientInterface, logger *logrus.Logger, ttl time.Duration) *CardCacheManager {
	if ttl <= 0 {
		ttl = defaultCardTTL
	}
	return &CardCacheManager{
		cache:  cache,
		statsd: statsdClient,
		logger: logger,
		ttl:    ttl,
	}
}

// CardKey returns the cache key for a card id lookup.
func CardKey(id int64) string {
	return fmt.Sprintf("%s%d", cardKeyPrefix, id)
}

// CacheCard writes the snapshot under the card's id key. A zero id or nil
// snapshot is a silent no-op.
func (m *CardCacheManager) CacheCard(ctx context.Context, id int64, card *entities.Card) {
	if id == 0 || card == nil {
		return
	}

	payload, err := json.Marshal(card)
	if err != nil {
		logging.LogErrorWithTrace(ctx, m.logger, "cache", "Failed to marshal card snapshot", err, logrus.Fields{"card.id": id})
		return
	}

	if err := m.cache.Set(ctx, CardKey(id), string(payload), m.ttl); err != nil {
		m.reportFailure(ctx, CardKey(id), err)
	}
}

// Get returns the cached snapshot, or false on miss. Any backend failure
// is treated as a miss.
func (m *CardCacheManager) Get(ctx context.Context, id int64) (*entities.Card, bool) {
	value, err := m.cache.Get(ctx, CardKey(id))
	if err != nil {
		if !errors.Is(err, apperrors.ErrCacheMiss) {
			m.reportFailure(ctx, CardKey(id), err)
		}
		_ = m.statsd.Incr("cache.miss", []string{"entity:card"}, 1)
		return nil, false
	}

	var card entities.Card
	if err := json.Unmarshal([]byte(value), &card); err != nil {
		logging.LogErrorWithTrace(ctx, m.logger, "cache", "Failed to unmarshal card snapshot", err, logrus.Fields{"cache.key": CardKey(id)})
		_ = m.statsd.Incr("cache.miss", []string{"entity:card"}, 1)
		return nil, false
	}

	_ = m.statsd.Incr("cache.hit", []string{"entity:card"}, 1)
	return &card, true
}

// Evict deletes the card's key. A zero id or absent key is a no-op.
func (m *CardCacheManager) Evict(ctx context.Context, id int64) {
	if id == 0 {
		return
	}
	if err := m.cache.Delete(ctx, CardKey(id)); err != nil {
		m.reportFailure(ctx, CardKey(id), err)
	}
}

// Clear deletes every key under the card namespace.
func (m *CardCacheManager) Clear(ctx context.Context) {
	if err := m.cache.DeleteByPrefix(ctx, cardKeyPrefix); err != nil {
		m.reportFailure(ctx, cardKeyPrefix+"*", err)
	}
}

func (m *CardCacheManager) reportFailure(ctx context.Context, key string, err error) {
	_ = m.statsd.Incr("cache.error", []string{"entity:card"}, 1)
	logging.LogErrorWithTrace(ctx, m.logger, "cache", "Card cache operation failed", err, logrus.Fields{"cache.key": key})
}
