package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"

	"github.com/osinovi/user-service/internal/presentation/response"
)

// HealthHandler handles health check requests.
type HealthHandler struct{}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

// HealthCheck handles GET /health.
func (h *HealthHandler) HealthCheck(c echo.Context) error {
	span, _ := tracer.StartSpanFromContext(c.Request().Context(), "handler.health_check")
	defer span.Finish()

	span.SetTag("health.status", "healthy")

	return c.JSON(http.StatusOK, response.Response{
		Success: true,
		Message: "Service is healthy",
	})
}
