package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"

	"github.com/osinovi/user-service/internal/apperrors"
	"github.com/osinovi/user-service/internal/cache"
	"github.com/osinovi/user-service/internal/common/logging"
	"github.com/osinovi/user-service/internal/domain/entities"
	"github.com/osinovi/user-service/internal/usecase/port"
)

// UserUseCase orchestrates user reads and writes: store first, cache
// second. Reads are cache-first; every mutation updates the store and then
// refreshes or evicts the affected cache keys before returning.
type UserUseCase struct {
	Logger *logrus.Logger
	Users  port.UserRepository
	Cards  port.CardRepository
	Cache  *cache.UserCacheManager
}

// CreateUser persists a new user and caches its snapshot under both keys.
// A user with the same email already in the store is a conflict.
func (uc *UserUseCase) CreateUser(ctx context.Context, input *entities.User) (*entities.User, error) {
	span, ctx := tracer.StartSpanFromContext(ctx, "usecase.create_user")
	defer span.Finish()

	span.SetTag("user.email", input.Email)

	if _, err := uc.Users.FindByEmail(ctx, input.Email); err == nil {
		span.SetTag("error", true)
		span.SetTag("error.msg", "duplicate email")
		return nil, fmt.Errorf("%w: %s", apperrors.ErrEmailTaken, input.Email)
	} else if !errors.Is(err, apperrors.ErrUserNotFound) {
		return nil, err
	}

	if err := uc.Users.Create(ctx, input); err != nil {
		span.SetTag("error", true)
		span.SetTag("error.msg", err.Error())
		logging.LogErrorWithTrace(ctx, uc.Logger, "usecase", "Failed to create user", err, logrus.Fields{"user.email": input.Email})
		return nil, err
	}

	span.SetTag("user.id", input.ID)

	// A fresh user owns no cards yet; cache the snapshot with an empty list.
	input.Cards = []entities.Card{}
	uc.Cache.CacheUser(ctx, input.ID, input.Email, input)

	logging.LogWithTrace(ctx, uc.Logger, "usecase", "User created", logrus.Fields{"user.id": input.ID})
	return input, nil
}

// GetUserByID returns the user snapshot, serving from cache when possible.
// On miss the store is read, the snapshot rebuilt with its card list, and
// both cache keys repopulated.
func (uc *UserUseCase) GetUserByID(ctx context.Context, id int64) (*entities.User, error) {
	span, ctx := tracer.StartSpanFromContext(ctx, "usecase.get_user_by_id")
	defer span.Finish()

	span.SetTag("user.id", id)

	if user, ok := uc.Cache.GetByID(ctx, id); ok {
		span.SetTag("cache.hit", true)
		span.SetTag("data.source", "cache")
		return user, nil
	}

	span.SetTag("cache.hit", false)
	span.SetTag("data.source", "database")

	user, err := uc.Users.FindByID(ctx, id)
	if err != nil {
		span.SetTag("error", true)
		span.SetTag("error.msg", err.Error())
		return nil, err
	}

	return uc.materialize(ctx, user)
}

// GetUsersByIDs returns the snapshots for every requested id that exists,
// ordered by id. The collection itself is never cached, only the individual
// snapshots it warms; a batch where no id resolves is reported as not
// found, matching the single-id lookups.
func (uc *UserUseCase) GetUsersByIDs(ctx context.Context, ids []int64) ([]entities.User, error) {
	span, ctx := tracer.StartSpanFromContext(ctx, "usecase.get_users_by_ids")
	defer span.Finish()

	span.SetTag("users.requested", len(ids))

	users, err := uc.Users.FindByIDs(ctx, ids)
	if err != nil {
		span.SetTag("error", true)
		span.SetTag("error.msg", err.Error())
		return nil, err
	}
	if len(users) == 0 {
		span.SetTag("users.count", 0)
		return nil, fmt.Errorf("%w: no users for ids %v", apperrors.ErrUserNotFound, ids)
	}

	for i := range users {
		if _, err := uc.materialize(ctx, &users[i]); err != nil {
			return nil, err
		}
	}

	span.SetTag("users.count", len(users))
	return users, nil
}

// GetUserByEmail is the email-keyed variant of GetUserByID.
func (uc *UserUseCase) GetUserByEmail(ctx context.Context, email string) (*entities.User, error) {
	span, ctx := tracer.StartSpanFromContext(ctx, "usecase.get_user_by_email")
	defer span.Finish()

	span.SetTag("user.email", email)

	if user, ok := uc.Cache.GetByEmail(ctx, email); ok {
		span.SetTag("cache.hit", true)
		span.SetTag("data.source", "cache")
		return user, nil
	}

	span.SetTag("cache.hit", false)
	span.SetTag("data.source", "database")

	user, err := uc.Users.FindByEmail(ctx, email)
	if err != nil {
		span.SetTag("error", true)
		span.SetTag("error.msg", err.Error())
		return nil, err
	}

	return uc.materialize(ctx, user)
}

// UpdateUser applies the changes, persists them, writes the new snapshot
// under the id key and the new email key, and evicts the old email key
// when the email changed. The evict runs after the persist and before
// returning: a lookup under the old email must miss rather than resolve to
// outdated data for longer than this call.
func (uc *UserUseCase) UpdateUser(ctx context.Context, id int64, input *entities.User) (*entities.User, error) {
	span, ctx := tracer.StartSpanFromContext(ctx, "usecase.update_user")
	defer span.Finish()

	span.SetTag("user.id", id)

	existing, err := uc.Users.FindByID(ctx, id)
	if err != nil {
		span.SetTag("error", true)
		span.SetTag("error.msg", err.Error())
		return nil, err
	}
	oldEmail := existing.Email

	if input.Email != oldEmail {
		if _, err := uc.Users.FindByEmail(ctx, input.Email); err == nil {
			span.SetTag("error", true)
			span.SetTag("error.msg", "duplicate email")
			return nil, fmt.Errorf("%w: %s", apperrors.ErrEmailTaken, input.Email)
		} else if !errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, err
		}
	}

	existing.Name = input.Name
	existing.Surname = input.Surname
	existing.BirthDate = input.BirthDate
	existing.Email = input.Email

	if err := uc.Users.Update(ctx, existing); err != nil {
		span.SetTag("error", true)
		span.SetTag("error.msg", err.Error())
		logging.LogErrorWithTrace(ctx, uc.Logger, "usecase", "Failed to update user", err, logrus.Fields{"user.id": id})
		return nil, err
	}

	snapshot, err := uc.materialize(ctx, existing)
	if err != nil {
		return nil, err
	}

	if oldEmail != existing.Email {
		uc.Cache.Evict(ctx, 0, oldEmail)
	}

	logging.LogWithTrace(ctx, uc.Logger, "usecase", "User updated", logrus.Fields{"user.id": id})
	return snapshot, nil
}

// DeleteUser evicts both cache keys, then deletes the user from the store.
// A racing read may rebuild the cache between the evict and the delete;
// the subsequent store delete stays authoritative and the entry self-heals
// by TTL.
func (uc *UserUseCase) DeleteUser(ctx context.Context, id int64) error {
	span, ctx := tracer.StartSpanFromContext(ctx, "usecase.delete_user")
	defer span.Finish()

	span.SetTag("user.id", id)

	user, err := uc.Users.FindByID(ctx, id)
	if err != nil {
		span.SetTag("error", true)
		span.SetTag("error.msg", err.Error())
		return err
	}

	uc.Cache.Evict(ctx, id, user.Email)

	if err := uc.Users.Delete(ctx, id); err != nil {
		span.SetTag("error", true)
		span.SetTag("error.msg", err.Error())
		logging.LogErrorWithTrace(ctx, uc.Logger, "usecase", "Failed to delete user", err, logrus.Fields{"user.id": id})
		return err
	}

	logging.LogWithTrace(ctx, uc.Logger, "usecase", "User deleted", logrus.Fields{"user.id": id})
	return nil
}

// materialize attaches the user's card list to the record and writes the
// finished snapshot through the cache manager under both keys.
func (uc *UserUseCase) materialize(ctx context.Context, user *entities.User) (*entities.User, error) {
	cards, err := uc.Cards.FindByUserID(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if cards == nil {
		cards = []entities.Card{}
	}
	user.Cards = cards

	uc.Cache.CacheUser(ctx, user.ID, user.Email, user)
	return user, nil
}
