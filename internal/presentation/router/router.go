package router

import (
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	echotrace "gopkg.in/DataDog/dd-trace-go.v1/contrib/labstack/echo.v4"

	appcontext "github.com/osinovi/user-service/internal/common/context"
	"github.com/osinovi/user-service/internal/config"
	"github.com/osinovi/user-service/internal/presentation/handler"
	"github.com/osinovi/user-service/internal/presentation/middleware"
)

// Setup configures all routes with Datadog tracing. Everything under /api
// is guarded by the JWT middleware; the health check is open.
func Setup(cfg *config.Config, logger *logrus.Logger, locator *appcontext.RepoLocator) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	e.Use(echotrace.Middleware(echotrace.WithServiceName(cfg.DDService)))
	e.Use(middleware.EchoLoggerMiddleware(logger))
	e.Use(middleware.EchoRepoLocatorMiddleware(locator))
	e.Use(middleware.EchoRecoveryMiddleware())
	e.Use(middleware.EchoCORSMiddleware())

	healthHandler := handler.NewHealthHandler()
	userHandler := handler.NewUserHandler()
	cardHandler := handler.NewCardHandler()

	// Health endpoints
	e.GET("/", healthHandler.HealthCheck)
	e.GET("/health", healthHandler.HealthCheck)

	api := e.Group("/api", middleware.EchoJWTMiddleware([]byte(cfg.JWT.SecretKey)))

	// User endpoints
	api.POST("/users", userHandler.CreateUser)
	api.GET("/users", userHandler.GetUsersByIDs)
	api.GET("/users/:id", userHandler.GetUserByID)
	api.GET("/users/email/:email", userHandler.GetUserByEmail)
	api.PUT("/users/:id", userHandler.UpdateUser)
	api.DELETE("/users/:id", userHandler.DeleteUser)

	// Card endpoints
	api.POST("/users/:userId/cards", cardHandler.CreateCard)
	api.GET("/users/:userId/cards", cardHandler.GetCardsByUserID)
	api.PUT("/users/:userId/cards/:id", cardHandler.UpdateCard)
	api.GET("/cards", cardHandler.GetCardsByIDs)
	api.GET("/cards/:id", cardHandler.GetCardByID)
	api.DELETE("/cards/:id", cardHandler.DeleteCard)

	return e
}
