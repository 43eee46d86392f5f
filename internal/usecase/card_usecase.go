package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"

	"github.com/osinovi/user-service/internal/apperrors"
	"github.com/osinovi/user-service/internal/cache"
	"github.com/osinovi/user-service/internal/common/logging"
	"github.com/osinovi/user-service/internal/domain/entities"
	"github.com/osinovi/user-service/internal/usecase/port"
)

// CardUseCase orchestrates card reads and writes. Card mutations carry a
// one-directional dependency on the user cache: the owning user's embedded
// card list goes stale the instant a card changes, so every card mutation
// evicts the owner's two cache keys.
type CardUseCase struct {
	Logger    *logrus.Logger
	Users     port.UserRepository
	Cards     port.CardRepository
	Cache     *cache.CardCacheManager
	UserCache *cache.UserCacheManager
}

// CreateCard persists a new card under the given owner, caches its
// snapshot, and evicts the owner's user cache keys. The card number must
// be unused and the holder must case-insensitively match the owner's
// "name surname".
func (uc *CardUseCase) CreateCard(ctx context.Context, userID int64, card *entities.Card) (*entities.Card, error) {
	span, ctx := tracer.StartSpanFromContext(ctx, "usecase.create_card")
	defer span.Finish()

	span.SetTag("card.user_id", userID)

	owner, err := uc.Users.FindByID(ctx, userID)
	if err != nil {
		span.SetTag("error", true)
		span.SetTag("error.msg", err.Error())
		return nil, err
	}

	if err := uc.checkCardRules(ctx, card, owner); err != nil {
		span.SetTag("error", true)
		span.SetTag("error.msg", err.Error())
		return nil, err
	}

	card.UserID = userID
	if err := uc.Cards.Create(ctx, card); err != nil {
		span.SetTag("error", true)
		span.SetTag("error.msg", err.Error())
		logging.LogErrorWithTrace(ctx, uc.Logger, "usecase", "Failed to create card", err, logrus.Fields{"card.user_id": userID})
		return nil, err
	}

	span.SetTag("card.id", card.ID)

	uc.Cache.CacheCard(ctx, card.ID, card)
	// The owner's cached snapshot embeds a now-stale card list: evict
	// rather than update, the next read rebuilds it from the store.
	uc.UserCache.Evict(ctx, owner.ID, owner.Email)

	logging.LogWithTrace(ctx, uc.Logger, "usecase", "Card created", logrus.Fields{"card.id": card.ID, "card.user_id": userID})
	return card, nil
}

// GetCardByID returns the card snapshot, serving from cache when possible.
func (uc *CardUseCase) GetCardByID(ctx context.Context, id int64) (*entities.Card, error) {
	span, ctx := tracer.StartSpanFromContext(ctx, "usecase.get_card_by_id")
	defer span.Finish()

	span.SetTag("card.id", id)

	if card, ok := uc.Cache.Get(ctx, id); ok {
		span.SetTag("cache.hit", true)
		span.SetTag("data.source", "cache")
		return card, nil
	}

	span.SetTag("cache.hit", false)
	span.SetTag("data.source", "database")

	card, err := uc.Cards.FindByID(ctx, id)
	if err != nil {
		span.SetTag("error", true)
		span.SetTag("error.msg", err.Error())
		return nil, err
	}

	uc.Cache.CacheCard(ctx, card.ID, card)
	return card, nil
}

// GetCardsByIDs returns the cards for every requested id that exists,
// ordered by id. Unknown ids are skipped and an all-unknown batch is an
// empty list, not an error; each returned card warms its cache key.
func (uc *CardUseCase) GetCardsByIDs(ctx context.Context, ids []int64) ([]entities.Card, error) {
	span, ctx := tracer.StartSpanFromContext(ctx, "usecase.get_cards_by_ids")
	defer span.Finish()

	span.SetTag("cards.requested", len(ids))

	cards, err := uc.Cards.FindByIDs(ctx, ids)
	if err != nil {
		span.SetTag("error", true)
		span.SetTag("error.msg", err.Error())
		return nil, err
	}
	if cards == nil {
		cards = []entities.Card{}
	}

	for i := range cards {
		uc.Cache.CacheCard(ctx, cards[i].ID, &cards[i])
	}

	span.SetTag("cards.count", len(cards))
	return cards, nil
}

// GetCardsByUserID always reads the collection from the store; only
// individual card and user snapshots are cached. An empty result is
// reported as not found, whether the user is unknown or simply owns no
// cards. API consumers rely on that mapping.
func (uc *CardUseCase) GetCardsByUserID(ctx context.Context, userID int64) ([]entities.Card, error) {
	span, ctx := tracer.StartSpanFromContext(ctx, "usecase.get_cards_by_user_id")
	defer span.Finish()

	span.SetTag("card.user_id", userID)

	cards, err := uc.Cards.FindByUserID(ctx, userID)
	if err != nil {
		span.SetTag("error", true)
		span.SetTag("error.msg", err.Error())
		return nil, err
	}
	if len(cards) == 0 {
		span.SetTag("cards.count", 0)
		return nil, fmt.Errorf("%w: no cards for user %d", apperrors.ErrCardNotFound, userID)
	}

	span.SetTag("cards.count", len(cards))
	return cards, nil
}

// UpdateCard applies the changes under the same rules as CreateCard,
// re-caches the card, and evicts the owner's user cache keys. When the
// card moves between users, the previous owner's keys are evicted too.
func (uc *CardUseCase) UpdateCard(ctx context.Context, id, userID int64, input *entities.Card) (*entities.Card, error) {
	span, ctx := tracer.StartSpanFromContext(ctx, "usecase.update_card")
	defer span.Finish()

	span.SetTag("card.id", id)
	span.SetTag("card.user_id", userID)

	owner, err := uc.Users.FindByID(ctx, userID)
	if err != nil {
		span.SetTag("error", true)
		span.SetTag("error.msg", err.Error())
		return nil, err
	}

	existing, err := uc.Cards.FindByID(ctx, id)
	if err != nil {
		span.SetTag("error", true)
		span.SetTag("error.msg", err.Error())
		return nil, err
	}
	prevOwnerID := existing.UserID

	if input.Number != existing.Number {
		if err := uc.checkNumberFree(ctx, input.Number); err != nil {
			span.SetTag("error", true)
			span.SetTag("error.msg", err.Error())
			return nil, err
		}
	}
	if err := uc.checkHolder(input.Holder, owner); err != nil {
		span.SetTag("error", true)
		span.SetTag("error.msg", err.Error())
		return nil, err
	}

	existing.Number = input.Number
	existing.Holder = input.Holder
	existing.ExpirationDate = input.ExpirationDate
	existing.UserID = userID

	if err := uc.Cards.Update(ctx, existing); err != nil {
		span.SetTag("error", true)
		span.SetTag("error.msg", err.Error())
		logging.LogErrorWithTrace(ctx, uc.Logger, "usecase", "Failed to update card", err, logrus.Fields{"card.id": id})
		return nil, err
	}

	uc.Cache.CacheCard(ctx, existing.ID, existing)
	uc.UserCache.Evict(ctx, owner.ID, owner.Email)
	if prevOwnerID != userID {
		uc.evictOwner(ctx, prevOwnerID)
	}

	logging.LogWithTrace(ctx, uc.Logger, "usecase", "Card updated", logrus.Fields{"card.id": id})
	return existing, nil
}

// DeleteCard loads the card to discover its owner, evicts the card's key
// and the owner's two keys, then deletes the card from the store.
func (uc *CardUseCase) DeleteCard(ctx context.Context, id int64) error {
	span, ctx := tracer.StartSpanFromContext(ctx, "usecase.delete_card")
	defer span.Finish()

	span.SetTag("card.id", id)

	card, err := uc.Cards.FindByID(ctx, id)
	if err != nil {
		span.SetTag("error", true)
		span.SetTag("error.msg", err.Error())
		return err
	}

	uc.Cache.Evict(ctx, id)
	uc.evictOwner(ctx, card.UserID)

	if err := uc.Cards.Delete(ctx, id); err != nil {
		span.SetTag("error", true)
		span.SetTag("error.msg", err.Error())
		logging.LogErrorWithTrace(ctx, uc.Logger, "usecase", "Failed to delete card", err, logrus.Fields{"card.id": id})
		return err
	}

	logging.LogWithTrace(ctx, uc.Logger, "usecase", "Card deleted", logrus.Fields{"card.id": id})
	return nil
}

// checkCardRules enforces the number-uniqueness and holder-match rules
// that gate every card mutation.
func (uc *CardUseCase) checkCardRules(ctx context.Context, card *entities.Card, owner *entities.User) error {
	if err := uc.checkNumberFree(ctx, card.Number); err != nil {
		return err
	}
	return uc.checkHolder(card.Holder, owner)
}

func (uc *CardUseCase) checkNumberFree(ctx context.Context, number string) error {
	exists, err := uc.Cards.ExistsByNumber(ctx, number)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: %s", apperrors.ErrCardNumberTaken, number)
	}
	return nil
}

func (uc *CardUseCase) checkHolder(holder string, owner *entities.User) error {
	if !strings.EqualFold(holder, owner.FullName()) {
		return fmt.Errorf("%w: %q does not match %q", apperrors.ErrHolderMismatch, holder, owner.FullName())
	}
	return nil
}

// evictOwner evicts a user's cache keys by id, resolving the email key
// through the store when the user still exists.
func (uc *CardUseCase) evictOwner(ctx context.Context, userID int64) {
	if owner, err := uc.Users.FindByID(ctx, userID); err == nil {
		uc.UserCache.Evict(ctx, owner.ID, owner.Email)
		return
	}
	uc.UserCache.Evict(ctx, userID, "")
}
