package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/labstack/echo/v4"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"

	appcontext "github.com/osinovi/user-service/internal/common/context"
	"github.com/osinovi/user-service/internal/common/logging"
	"github.com/osinovi/user-service/internal/presentation/response"
)

// EchoRecoveryMiddleware recovers from panics and logs them with trace
// information.
func EchoRecoveryMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			span, ctx := tracer.StartSpanFromContext(c.Request().Context(), "middleware.recovery")
			defer span.Finish()

			c.SetRequest(c.Request().WithContext(ctx))

			defer func() {
				if err := recover(); err != nil {
					logger := appcontext.GetLogger(c.Request().Context())
					stackTrace := string(debug.Stack())
					panicErr := fmt.Errorf("panic recovered: %v", err)

					logging.LogErrorWithTrace(c.Request().Context(), logger, "middleware", "Panic recovered", panicErr, map[string]any{
						"panic.value":       fmt.Sprintf("%v", err),
						"panic.stack_trace": stackTrace,
						"http.method":       c.Request().Method,
						"http.url":          c.Request().URL.Path,
					})

					if span, ok := tracer.SpanFromContext(c.Request().Context()); ok {
						span.SetTag("error", true)
						span.SetTag("error.type", "panic")
						span.SetTag("error.msg", fmt.Sprintf("%v", err))
						span.SetTag("error.stack", stackTrace)
						span.SetTag("error.notify", true)
					}

					problem := response.NewInternalErrorProblem(
						"Internal Server Error",
						c.Request().URL.Path,
						true,
					).WithTrace(c.Request().Context())
					_ = c.JSON(http.StatusInternalServerError, problem)
				}
			}()

			return next(c)
		}
	}
}
