package middleware

import (
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"

	appcontext "github.com/osinovi/user-service/internal/common/context"
	"github.com/osinovi/user-service/internal/common/logging"
	"github.com/osinovi/user-service/internal/presentation/response"
)

const bearerPrefix = "Bearer "

// EchoJWTMiddleware guards routes with an HMAC-signed bearer token. A
// valid token's email claim is stored in the request context; signature or
// expiry failures yield 401. Token issuance belongs to another service.
func EchoJWTMiddleware(secret []byte) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			span, ctx := tracer.StartSpanFromContext(c.Request().Context(), "middleware.jwt")
			defer span.Finish()
			c.SetRequest(c.Request().WithContext(ctx))

			auth := c.Request().Header.Get(echo.HeaderAuthorization)
			if !strings.HasPrefix(auth, bearerPrefix) {
				span.SetTag("auth.valid", false)
				problem := response.NewUnauthorizedProblem(
					"Missing bearer token",
					c.Request().URL.Path,
				).WithTrace(ctx)
				return c.JSON(problem.Status, problem)
			}

			token, err := jwt.Parse(strings.TrimPrefix(auth, bearerPrefix), func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
				}
				return secret, nil
			})
			if err != nil || !token.Valid {
				span.SetTag("auth.valid", false)
				logger := appcontext.GetLogger(ctx)
				logging.LogErrorWithTrace(ctx, logger, "middleware", "Invalid JWT token", err, nil)
				problem := response.NewUnauthorizedProblem(
					"Invalid or expired token",
					c.Request().URL.Path,
				).WithTrace(ctx)
				return c.JSON(problem.Status, problem)
			}

			span.SetTag("auth.valid", true)
			if claims, ok := token.Claims.(jwt.MapClaims); ok {
				if email, ok := claims["email"].(string); ok {
					span.SetTag("auth.email", email)
					c.SetRequest(c.Request().WithContext(appcontext.SetUserEmail(c.Request().Context(), email)))
				}
			}

			return next(c)
		}
	}
}
