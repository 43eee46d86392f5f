package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/osinovi/user-service/internal/apperrors"
	"github.com/osinovi/user-service/internal/cache"
	"github.com/osinovi/user-service/internal/domain/entities"
)

func testCard(number string) *entities.Card {
	return &entities.Card{
		Number:         number,
		Holder:         "JOHN DOE",
		ExpirationDate: time.Date(2030, 1, 31, 0, 0, 0, 0, time.UTC),
	}
}

func TestCardUseCase_CreateCard(t *testing.T) {
	ctx := context.Background()

	t.Run("caches the card and evicts the owner", func(t *testing.T) {
		f := newFixture()
		owner := f.mustCreateUser(ctx, "John", "Doe", "john@x.com")

		card, err := f.cardUC.CreateCard(ctx, owner.ID, testCard("1111222233334444"))
		if err != nil {
			t.Fatalf("CreateCard() error = %v", err)
		}
		if card.ID == 0 {
			t.Fatal("CreateCard() assigned no id")
		}
		if card.UserID != owner.ID {
			t.Errorf("CreateCard() user id = %d, want %d", card.UserID, owner.ID)
		}

		if !f.backend.has(cache.CardKey(card.ID)) {
			t.Error("card key missing after create")
		}
		if f.backend.has(cache.UserIDKey(owner.ID)) {
			t.Error("owner id key survived the card create")
		}
		if f.backend.has(cache.UserEmailKey(owner.Email)) {
			t.Error("owner email key survived the card create")
		}

		// The next owner read rebuilds the snapshot with the new card.
		f.users.resetCounters()
		got, err := f.userUC.GetUserByID(ctx, owner.ID)
		if err != nil {
			t.Fatalf("GetUserByID() error = %v", err)
		}
		if f.users.reads() == 0 {
			t.Error("owner read served from cache, want store reload")
		}
		if len(got.Cards) != 1 || got.Cards[0].ID != card.ID {
			t.Errorf("owner snapshot cards = %v, want the new card", got.Cards)
		}
	})

	t.Run("unknown owner", func(t *testing.T) {
		f := newFixture()

		_, err := f.cardUC.CreateCard(ctx, 404, testCard("1111222233334444"))
		if !errors.Is(err, apperrors.ErrUserNotFound) {
			t.Fatalf("CreateCard() error = %v, want ErrUserNotFound", err)
		}
	})

	t.Run("duplicate number is a conflict", func(t *testing.T) {
		f := newFixture()
		owner := f.mustCreateUser(ctx, "John", "Doe", "john@x.com")

		if _, err := f.cardUC.CreateCard(ctx, owner.ID, testCard("1111222233334444")); err != nil {
			t.Fatalf("CreateCard() error = %v", err)
		}

		_, err := f.cardUC.CreateCard(ctx, owner.ID, testCard("1111222233334444"))
		if !errors.Is(err, apperrors.ErrCardNumberTaken) {
			t.Fatalf("CreateCard() error = %v, want ErrCardNumberTaken", err)
		}
		if len(f.cards.cards) != 1 {
			t.Errorf("store holds %d cards, want 1", len(f.cards.cards))
		}
	})

	t.Run("holder must match the owner's full name", func(t *testing.T) {
		f := newFixture()
		owner := f.mustCreateUser(ctx, "John", "Doe", "john@x.com")

		card := testCard("1111222233334444")
		card.Holder = "JANE DOE"

		_, err := f.cardUC.CreateCard(ctx, owner.ID, card)
		if !errors.Is(err, apperrors.ErrHolderMismatch) {
			t.Fatalf("CreateCard() error = %v, want ErrHolderMismatch", err)
		}
		if len(f.cards.cards) != 0 {
			t.Errorf("store holds %d cards, want 0", len(f.cards.cards))
		}
	})
}

func TestCardUseCase_GetCardByID(t *testing.T) {
	ctx := context.Background()

	t.Run("second read is a cache hit", func(t *testing.T) {
		f := newFixture()
		owner := f.mustCreateUser(ctx, "John", "Doe", "john@x.com")
		card, err := f.cardUC.CreateCard(ctx, owner.ID, testCard("1111222233334444"))
		if err != nil {
			t.Fatalf("CreateCard() error = %v", err)
		}

		f.cards.findByIDCalls = 0
		got, err := f.cardUC.GetCardByID(ctx, card.ID)
		if err != nil {
			t.Fatalf("GetCardByID() error = %v", err)
		}
		if got.Number != card.Number {
			t.Errorf("GetCardByID() number = %q, want %q", got.Number, card.Number)
		}
		if f.cards.findByIDCalls != 0 {
			t.Errorf("store reads = %d, want 0 (cache hit)", f.cards.findByIDCalls)
		}
	})

	t.Run("miss repopulates the cache", func(t *testing.T) {
		f := newFixture()
		owner := f.mustCreateUser(ctx, "John", "Doe", "john@x.com")
		card, err := f.cardUC.CreateCard(ctx, owner.ID, testCard("1111222233334444"))
		if err != nil {
			t.Fatalf("CreateCard() error = %v", err)
		}

		f.cardUC.Cache.Evict(ctx, card.ID)

		if _, err := f.cardUC.GetCardByID(ctx, card.ID); err != nil {
			t.Fatalf("GetCardByID() error = %v", err)
		}
		if !f.backend.has(cache.CardKey(card.ID)) {
			t.Error("card key not repopulated after miss")
		}
	})

	t.Run("unknown id", func(t *testing.T) {
		f := newFixture()

		_, err := f.cardUC.GetCardByID(ctx, 404)
		if !errors.Is(err, apperrors.ErrCardNotFound) {
			t.Fatalf("GetCardByID() error = %v, want ErrCardNotFound", err)
		}
	})
}

func TestCardUseCase_GetCardsByUserID(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the owner's cards", func(t *testing.T) {
		f := newFixture()
		owner := f.mustCreateUser(ctx, "John", "Doe", "john@x.com")
		if _, err := f.cardUC.CreateCard(ctx, owner.ID, testCard("1111222233334444")); err != nil {
			t.Fatalf("CreateCard() error = %v", err)
		}
		if _, err := f.cardUC.CreateCard(ctx, owner.ID, testCard("5555666677778888")); err != nil {
			t.Fatalf("CreateCard() error = %v", err)
		}

		cards, err := f.cardUC.GetCardsByUserID(ctx, owner.ID)
		if err != nil {
			t.Fatalf("GetCardsByUserID() error = %v", err)
		}
		if len(cards) != 2 {
			t.Fatalf("GetCardsByUserID() returned %d cards, want 2", len(cards))
		}
		if cards[0].ID >= cards[1].ID {
			t.Errorf("order = [%d %d], want ascending by id", cards[0].ID, cards[1].ID)
		}
	})

	t.Run("zero cards is reported as not found", func(t *testing.T) {
		f := newFixture()
		owner := f.mustCreateUser(ctx, "John", "Doe", "john@x.com")

		_, err := f.cardUC.GetCardsByUserID(ctx, owner.ID)
		if !errors.Is(err, apperrors.ErrCardNotFound) {
			t.Fatalf("GetCardsByUserID() error = %v, want ErrCardNotFound", err)
		}
	})
}

func TestCardUseCase_GetCardsByIDs(t *testing.T) {
	ctx := context.Background()

	t.Run("returns existing cards ordered by id", func(t *testing.T) {
		f := newFixture()
		owner := f.mustCreateUser(ctx, "John", "Doe", "john@x.com")
		first, err := f.cardUC.CreateCard(ctx, owner.ID, testCard("1111222233334444"))
		if err != nil {
			t.Fatalf("CreateCard() error = %v", err)
		}
		second, err := f.cardUC.CreateCard(ctx, owner.ID, testCard("5555666677778888"))
		if err != nil {
			t.Fatalf("CreateCard() error = %v", err)
		}

		cards, err := f.cardUC.GetCardsByIDs(ctx, []int64{second.ID, first.ID, 404})
		if err != nil {
			t.Fatalf("GetCardsByIDs() error = %v", err)
		}
		if len(cards) != 2 {
			t.Fatalf("GetCardsByIDs() returned %d cards, want 2", len(cards))
		}
		if cards[0].ID != first.ID || cards[1].ID != second.ID {
			t.Errorf("order = [%d %d], want [%d %d]", cards[0].ID, cards[1].ID, first.ID, second.ID)
		}

		// The batch read warms each card's key.
		f.cards.findByIDCalls = 0
		if _, err := f.cardUC.GetCardByID(ctx, second.ID); err != nil {
			t.Fatalf("GetCardByID() error = %v", err)
		}
		if f.cards.findByIDCalls != 0 {
			t.Errorf("store reads after batch = %d, want 0 (cache hit)", f.cards.findByIDCalls)
		}
	})

	t.Run("no matches is an empty list", func(t *testing.T) {
		f := newFixture()

		cards, err := f.cardUC.GetCardsByIDs(ctx, []int64{404, 405})
		if err != nil {
			t.Fatalf("GetCardsByIDs() error = %v", err)
		}
		if len(cards) != 0 {
			t.Errorf("GetCardsByIDs() returned %d cards, want 0", len(cards))
		}
	})
}

func TestCardUseCase_UpdateCard(t *testing.T) {
	ctx := context.Background()

	t.Run("re-caches the card and evicts the owner", func(t *testing.T) {
		f := newFixture()
		owner := f.mustCreateUser(ctx, "John", "Doe", "john@x.com")
		card, err := f.cardUC.CreateCard(ctx, owner.ID, testCard("1111222233334444"))
		if err != nil {
			t.Fatalf("CreateCard() error = %v", err)
		}

		// Re-warm the owner snapshot so the eviction is observable.
		if _, err := f.userUC.GetUserByID(ctx, owner.ID); err != nil {
			t.Fatalf("GetUserByID() error = %v", err)
		}

		input := testCard("5555666677778888")
		updated, err := f.cardUC.UpdateCard(ctx, card.ID, owner.ID, input)
		if err != nil {
			t.Fatalf("UpdateCard() error = %v", err)
		}
		if updated.Number != "5555666677778888" {
			t.Errorf("UpdateCard() number = %q, want %q", updated.Number, "5555666677778888")
		}

		if f.backend.has(cache.UserIDKey(owner.ID)) {
			t.Error("owner id key survived the card update")
		}

		got, ok := f.cardUC.Cache.Get(ctx, card.ID)
		if !ok {
			t.Fatal("card key missing after update")
		}
		if got.Number != "5555666677778888" {
			t.Errorf("cached number = %q, want %q", got.Number, "5555666677778888")
		}
	})

	t.Run("moving the card evicts the previous owner too", func(t *testing.T) {
		f := newFixture()
		john := f.mustCreateUser(ctx, "John", "Doe", "john@x.com")
		jane := f.mustCreateUser(ctx, "Jane", "Doe", "jane@x.com")

		card, err := f.cardUC.CreateCard(ctx, john.ID, testCard("1111222233334444"))
		if err != nil {
			t.Fatalf("CreateCard() error = %v", err)
		}

		// Re-warm both owners.
		if _, err := f.userUC.GetUserByID(ctx, john.ID); err != nil {
			t.Fatalf("GetUserByID() error = %v", err)
		}
		if _, err := f.userUC.GetUserByID(ctx, jane.ID); err != nil {
			t.Fatalf("GetUserByID() error = %v", err)
		}

		input := testCard("1111222233334444")
		input.Holder = "JANE DOE"
		if _, err := f.cardUC.UpdateCard(ctx, card.ID, jane.ID, input); err != nil {
			t.Fatalf("UpdateCard() error = %v", err)
		}

		if f.backend.has(cache.UserIDKey(john.ID)) {
			t.Error("previous owner id key survived the move")
		}
		if f.backend.has(cache.UserIDKey(jane.ID)) {
			t.Error("new owner id key survived the move")
		}

		got, err := f.userUC.GetUserByID(ctx, jane.ID)
		if err != nil {
			t.Fatalf("GetUserByID() error = %v", err)
		}
		if len(got.Cards) != 1 {
			t.Errorf("new owner snapshot holds %d cards, want 1", len(got.Cards))
		}
	})

	t.Run("holder mismatch leaves the card untouched", func(t *testing.T) {
		f := newFixture()
		owner := f.mustCreateUser(ctx, "John", "Doe", "john@x.com")
		card, err := f.cardUC.CreateCard(ctx, owner.ID, testCard("1111222233334444"))
		if err != nil {
			t.Fatalf("CreateCard() error = %v", err)
		}

		input := testCard("5555666677778888")
		input.Holder = "JANE DOE"

		if _, err := f.cardUC.UpdateCard(ctx, card.ID, owner.ID, input); !errors.Is(err, apperrors.ErrHolderMismatch) {
			t.Fatalf("UpdateCard() error = %v, want ErrHolderMismatch", err)
		}

		stored, _ := f.cards.FindByID(ctx, card.ID)
		if stored.Number != "1111222233334444" {
			t.Errorf("store number = %q, want unchanged %q", stored.Number, "1111222233334444")
		}
	})
}

func TestCardUseCase_DeleteCard(t *testing.T) {
	ctx := context.Background()

	t.Run("evicts the card and the owner", func(t *testing.T) {
		f := newFixture()
		owner := f.mustCreateUser(ctx, "John", "Doe", "john@x.com")
		card, err := f.cardUC.CreateCard(ctx, owner.ID, testCard("1111222233334444"))
		if err != nil {
			t.Fatalf("CreateCard() error = %v", err)
		}

		// Re-warm the owner snapshot so the eviction is observable.
		if _, err := f.userUC.GetUserByID(ctx, owner.ID); err != nil {
			t.Fatalf("GetUserByID() error = %v", err)
		}

		if err := f.cardUC.DeleteCard(ctx, card.ID); err != nil {
			t.Fatalf("DeleteCard() error = %v", err)
		}

		if f.backend.has(cache.CardKey(card.ID)) {
			t.Error("card key survived the delete")
		}
		if f.backend.has(cache.UserIDKey(owner.ID)) {
			t.Error("owner id key survived the delete")
		}

		if _, err := f.cardUC.GetCardByID(ctx, card.ID); !errors.Is(err, apperrors.ErrCardNotFound) {
			t.Errorf("GetCardByID() error = %v, want ErrCardNotFound", err)
		}

		got, err := f.userUC.GetUserByID(ctx, owner.ID)
		if err != nil {
			t.Fatalf("GetUserByID() error = %v", err)
		}
		if len(got.Cards) != 0 {
			t.Errorf("owner snapshot holds %d cards, want 0", len(got.Cards))
		}
	})

	t.Run("unknown id", func(t *testing.T) {
		f := newFixture()

		if err := f.cardUC.DeleteCard(ctx, 404); !errors.Is(err, apperrors.ErrCardNotFound) {
			t.Fatalf("DeleteCard() error = %v, want ErrCardNotFound", err)
		}
	})
}
