package main

import (
	"database/sql"

	"github.com/DataDog/datadog-go/v5/statsd"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/osinovi/user-service/internal/cache"
	appcontext "github.com/osinovi/user-service/internal/common/context"
	"github.com/osinovi/user-service/internal/config"
	inframysql "github.com/osinovi/user-service/internal/infrastructure/mysql"
	infraredis "github.com/osinovi/user-service/internal/infrastructure/redis"
	"github.com/osinovi/user-service/internal/infrastructure/tracing"
)

// SetupRepositories creates and configures all repositories and cache
// managers.
func SetupRepositories(db *sql.DB, redisClient redis.UniversalClient, statsdClient statsd.ClientInterface, cfg *config.Config, logger *logrus.Logger) *appcontext.RepoLocator {
	userRepo := inframysql.NewUserRepository(db, logger)
	cardRepo := inframysql.NewCardRepository(db, logger)

	cacheRepoBase := infraredis.NewCacheRepository(redisClient)
	cacheRepo := tracing.NewCacheRepositoryTracer(cacheRepoBase)

	return &appcontext.RepoLocator{
		UserRepo:  userRepo,
		CardRepo:  cardRepo,
		UserCache: cache.NewUserCacheManager(cacheRepo, statsdClient, logger, cfg.Cache.UserTTL),
		CardCache: cache.NewCardCacheManager(cacheRepo, statsdClient, logger, cfg.Cache.CardTTL),
	}
}
