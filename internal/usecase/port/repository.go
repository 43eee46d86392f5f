package port

import (
	"context"
	"time"

	"github.com/osinovi/user-service/internal/domain/entities"
)

// UserRepository is a port for user persistence.
type UserRepository interface {
	Create(ctx context.Context, user *entities.User) error
	FindByID(ctx context.Context, id int64) (*entities.User, error)
	FindByIDs(ctx context.Context, ids []int64) ([]entities.User, error)
	FindByEmail(ctx context.Context, email string) (*entities.User, error)
	Update(ctx context.Context, user *entities.User) error
	Delete(ctx context.Context, id int64) error
}

// CardRepository is a port for card persistence.
type CardRepository interface {
	Create(ctx context.Context, card *entities.Card) error
	FindByID(ctx context.Context, id int64) (*entities.Card, error)
	FindByIDs(ctx context.Context, ids []int64) ([]entities.Card, error)
	FindByUserID(ctx context.Context, userID int64) ([]entities.Card, error)
	ExistsByNumber(ctx context.Context, number string) (bool, error)
	Update(ctx context.Context, card *entities.Card) error
	Delete(ctx context.Context, id int64) error
}

// CacheRepository is a port for the remote key-value cache backend.
// Get returns apperrors.ErrCacheMiss for an absent key.
type CacheRepository interface {
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, keys ...string) error
	DeleteByPrefix(ctx context.Context, prefix string) error
}
