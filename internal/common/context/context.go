package context

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/osinovi/user-service/internal/cache"
	"github.com/osinovi/user-service/internal/usecase/port"
)

type contextKey string

const (
	loggerKey      contextKey = "logger"
	repoLocatorKey contextKey = "repo_locator"
	userEmailKey   contextKey = "user_email"
)

// RepoLocator holds all repositories and cache managers a request needs.
type RepoLocator struct {
	UserRepo  port.UserRepository
	CardRepo  port.CardRepository
	UserCache *cache.UserCacheManager
	CardCache *cache.CardCacheManager
}

// SetLogger sets logger in context.
func SetLogger(ctx context.Context, logger *logrus.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// GetLogger retrieves logger from context.
func GetLogger(ctx context.Context) *logrus.Logger {
	if logger, ok := ctx.Value(loggerKey).(*logrus.Logger); ok {
		return logger
	}
	return logrus.New() // fallback
}

// SetRepoLocator sets repository locator in context.
func SetRepoLocator(ctx context.Context, locator *RepoLocator) context.Context {
	return context.WithValue(ctx, repoLocatorKey, locator)
}

// GetRepoLocator retrieves repository locator from context.
func GetRepoLocator(ctx context.Context) *RepoLocator {
	if locator, ok := ctx.Value(repoLocatorKey).(*RepoLocator); ok {
		return locator
	}
	return nil
}

// SetUserEmail stores the authenticated caller's email claim in context.
func SetUserEmail(ctx context.Context, email string) context.Context {
	return context.WithValue(ctx, userEmailKey, email)
}

// GetUserEmail retrieves the authenticated caller's email claim, or an
// empty string when the request was not authenticated.
func GetUserEmail(ctx context.Context) string {
	if email, ok := ctx.Value(userEmailKey).(string); ok {
		return email
	}
	return ""
}
