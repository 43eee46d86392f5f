package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/DataDog/datadog-go/v5/statsd"
	"github.com/sirupsen/logrus"

	"github.com/osinovi/user-service/internal/apperrors"
	"github.com/osinovi/user-service/internal/cache"
	"github.com/osinovi/user-service/internal/domain/entities"
)

// fakeUserRepo is an in-memory port.UserRepository. It hands out copies so
// cached snapshots never alias the stored records, and it counts reads so
// tests can prove a cache hit skipped the store.
type fakeUserRepo struct {
	mu     sync.Mutex
	users  map[int64]entities.User
	nextID int64

	findByIDCalls    int
	findByEmailCalls int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[int64]entities.User)}
}

func (r *fakeUserRepo) Create(_ context.Context, user *entities.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	user.ID = r.nextID
	r.users[user.ID] = *user
	return nil
}

func (r *fakeUserRepo) FindByID(_ context.Context, id int64) (*entities.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.findByIDCalls++
	user, ok := r.users[id]
	if !ok {
		return nil, fmt.Errorf("%w: id %d", apperrors.ErrUserNotFound, id)
	}
	return &user, nil
}

func (r *fakeUserRepo) FindByIDs(_ context.Context, ids []int64) ([]entities.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entities.User
	for _, id := range ids {
		if user, ok := r.users[id]; ok {
			out = append(out, user)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeUserRepo) FindByEmail(_ context.Context, email string) (*entities.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.findByEmailCalls++
	for _, user := range r.users {
		if user.Email == email {
			user := user
			return &user, nil
		}
	}
	return nil, fmt.Errorf("%w: email %s", apperrors.ErrUserNotFound, email)
}

func (r *fakeUserRepo) Update(_ context.Context, user *entities.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return fmt.Errorf("%w: id %d", apperrors.ErrUserNotFound, user.ID)
	}
	r.users[user.ID] = *user
	return nil
}

func (r *fakeUserRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return fmt.Errorf("%w: id %d", apperrors.ErrUserNotFound, id)
	}
	delete(r.users, id)
	return nil
}

func (r *fakeUserRepo) resetCounters() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.findByIDCalls = 0
	r.findByEmailCalls = 0
}

func (r *fakeUserRepo) reads() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.findByIDCalls + r.findByEmailCalls
}

// fakeCardRepo is an in-memory port.CardRepository.
type fakeCardRepo struct {
	mu     sync.Mutex
	cards  map[int64]entities.Card
	nextID int64

	findByIDCalls int
}

func newFakeCardRepo() *fakeCardRepo {
	return &fakeCardRepo{cards: make(map[int64]entities.Card)}
}

func (r *fakeCardRepo) Create(_ context.Context, card *entities.Card) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	card.ID = r.nextID
	r.cards[card.ID] = *card
	return nil
}

func (r *fakeCardRepo) FindByID(_ context.Context, id int64) (*entities.Card, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.findByIDCalls++
	card, ok := r.cards[id]
	if !ok {
		return nil, fmt.Errorf("%w: id %d", apperrors.ErrCardNotFound, id)
	}
	return &card, nil
}

func (r *fakeCardRepo) FindByIDs(_ context.Context, ids []int64) ([]entities.Card, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entities.Card
	for _, id := range ids {
		if card, ok := r.cards[id]; ok {
			out = append(out, card)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeCardRepo) FindByUserID(_ context.Context, userID int64) ([]entities.Card, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entities.Card
	for _, card := range r.cards {
		if card.UserID == userID {
			out = append(out, card)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeCardRepo) ExistsByNumber(_ context.Context, number string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, card := range r.cards {
		if card.Number == number {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeCardRepo) Update(_ context.Context, card *entities.Card) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.cards[card.ID]; !ok {
		return fmt.Errorf("%w: id %d", apperrors.ErrCardNotFound, card.ID)
	}
	r.cards[card.ID] = *card
	return nil
}

func (r *fakeCardRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.cards[id]; !ok {
		return fmt.Errorf("%w: id %d", apperrors.ErrCardNotFound, id)
	}
	delete(r.cards, id)
	return nil
}

// fakeCacheBackend is an in-memory port.CacheRepository with a failure
// toggle to simulate an unreachable cache.
type fakeCacheBackend struct {
	mu      sync.Mutex
	data    map[string]string
	failing bool
}

func newFakeCacheBackend() *fakeCacheBackend {
	return &fakeCacheBackend{data: make(map[string]string)}
}

func (c *fakeCacheBackend) Set(_ context.Context, key, value string, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failing {
		return errors.New("backend unavailable")
	}
	c.data[key] = value
	return nil
}

func (c *fakeCacheBackend) Get(_ context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failing {
		return "", errors.New("backend unavailable")
	}
	value, ok := c.data[key]
	if !ok {
		return "", fmt.Errorf("%w: %s", apperrors.ErrCacheMiss, key)
	}
	return value, nil
}

func (c *fakeCacheBackend) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failing {
		return errors.New("backend unavailable")
	}
	for _, key := range keys {
		delete(c.data, key)
	}
	return nil
}

func (c *fakeCacheBackend) DeleteByPrefix(_ context.Context, prefix string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failing {
		return errors.New("backend unavailable")
	}
	for key := range c.data {
		if strings.HasPrefix(key, prefix) {
			delete(c.data, key)
		}
	}
	return nil
}

func (c *fakeCacheBackend) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.data[key]
	return ok
}

// fixture wires both use cases against the same fakes.
type fixture struct {
	users   *fakeUserRepo
	cards   *fakeCardRepo
	backend *fakeCacheBackend
	userUC  *UserUseCase
	cardUC  *CardUseCase
}

func newFixture() *fixture {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	users := newFakeUserRepo()
	cards := newFakeCardRepo()
	backend := newFakeCacheBackend()

	userCache := cache.NewUserCacheManager(backend, &statsd.NoOpClient{}, logger, 0)
	cardCache := cache.NewCardCacheManager(backend, &statsd.NoOpClient{}, logger, 0)

	return &fixture{
		users:   users,
		cards:   cards,
		backend: backend,
		userUC: &UserUseCase{
			Logger: logger,
			Users:  users,
			Cards:  cards,
			Cache:  userCache,
		},
		cardUC: &CardUseCase{
			Logger:    logger,
			Users:     users,
			Cards:     cards,
			Cache:     cardCache,
			UserCache: userCache,
		},
	}
}

func (f *fixture) mustCreateUser(ctx context.Context, name, surname, email string) *entities.User {
	user, err := f.userUC.CreateUser(ctx, &entities.User{Name: name, Surname: surname, Email: email})
	if err != nil {
		panic(err)
	}
	return user
}
