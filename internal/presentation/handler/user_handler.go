package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"

	appcontext "github.com/osinovi/user-service/internal/common/context"
	"github.com/osinovi/user-service/internal/common/logging"
	"github.com/osinovi/user-service/internal/presentation/response"
	"github.com/osinovi/user-service/internal/usecase"
)

// UserHandler handles user-related HTTP requests.
type UserHandler struct{}

// NewUserHandler creates a new UserHandler.
func NewUserHandler() *UserHandler {
	return &UserHandler{}
}

// userInteractor builds the usecase from the request-scoped locator.
func userInteractor(c echo.Context) *usecase.UserUseCase {
	ctx := c.Request().Context()
	locator := appcontext.GetRepoLocator(ctx)
	return &usecase.UserUseCase{
		Logger: appcontext.GetLogger(ctx),
		Users:  locator.UserRepo,
		Cards:  locator.CardRepo,
		Cache:  locator.UserCache,
	}
}

// CreateUser handles POST /api/users.
func (h *UserHandler) CreateUser(c echo.Context) error {
	span, ctx := tracer.StartSpanFromContext(c.Request().Context(), "handler.create_user")
	defer span.Finish()
	c.SetRequest(c.Request().WithContext(ctx))

	logger := appcontext.GetLogger(ctx)
	span.SetTag("http.method", c.Request().Method)
	span.SetTag("http.url", c.Request().URL.Path)

	var req UserRequest
	if err := c.Bind(&req); err != nil {
		span.SetTag("error", true)
		span.SetTag("error.msg", err.Error())
		problem := response.NewValidationErrorProblem(
			"Request body is not valid JSON or does not match expected schema",
			c.Request().URL.Path,
		).WithTrace(ctx)
		return c.JSON(problem.Status, problem)
	}

	input, violations := req.Validate()
	if violations != nil {
		problem := response.NewValidationErrorProblem(strings.Join(violations, "; "), c.Request().URL.Path).WithTrace(ctx)
		return c.JSON(problem.Status, problem)
	}

	span.SetTag("user.email", input.Email)

	user, err := userInteractor(c).CreateUser(ctx, input)
	if err != nil {
		logging.LogErrorWithTrace(ctx, logger, "handler", "Failed to create user", err, nil)
		span.SetTag("error", true)
		span.SetTag("error.msg", err.Error())
		problem := problemFromError(ctx, err, c.Request().URL.Path)
		return c.JSON(problem.Status, problem)
	}

	span.SetTag("user.id", user.ID)

	logging.LogWithTrace(ctx, logger, "handler", "User created successfully", nil)
	return c.JSON(http.StatusCreated, response.Response{
		Success: true,
		Data:    user,
		Message: "User created successfully",
	})
}

// GetUserByID handles GET /api/users/:id.
func (h *UserHandler) GetUserByID(c echo.Context) error {
	span, ctx := tracer.StartSpanFromContext(c.Request().Context(), "handler.get_user_by_id")
	defer span.Finish()
	c.SetRequest(c.Request().WithContext(ctx))

	logger := appcontext.GetLogger(ctx)
	span.SetTag("http.method", c.Request().Method)
	span.SetTag("http.url", c.Request().URL.Path)

	id, problem := parseID(ctx, c, "id", "User")
	if problem != nil {
		return c.JSON(problem.Status, problem)
	}
	span.SetTag("user.id", id)

	user, err := userInteractor(c).GetUserByID(ctx, id)
	if err != nil {
		logging.LogErrorWithTrace(ctx, logger, "handler", "Failed to get user", err, nil)
		span.SetTag("error", true)
		span.SetTag("error.msg", err.Error())
		problem := problemFromError(ctx, err, c.Request().URL.Path)
		return c.JSON(problem.Status, problem)
	}

	return c.JSON(http.StatusOK, response.Response{Success: true, Data: user})
}

// GetUsersByIDs handles GET /api/users?ids=1,2,3.
func (h *UserHandler) GetUsersByIDs(c echo.Context) error {
	span, ctx := tracer.StartSpanFromContext(c.Request().Context(), "handler.get_users_by_ids")
	defer span.Finish()
	c.SetRequest(c.Request().WithContext(ctx))

	logger := appcontext.GetLogger(ctx)
	span.SetTag("http.method", c.Request().Method)
	span.SetTag("http.url", c.Request().URL.Path)

	ids, problem := parseIDList(ctx, c, "ids", "User")
	if problem != nil {
		return c.JSON(problem.Status, problem)
	}
	span.SetTag("users.requested", len(ids))

	users, err := userInteractor(c).GetUsersByIDs(ctx, ids)
	if err != nil {
		logging.LogErrorWithTrace(ctx, logger, "handler", "Failed to get users", err, nil)
		span.SetTag("error", true)
		span.SetTag("error.msg", err.Error())
		problem := problemFromError(ctx, err, c.Request().URL.Path)
		return c.JSON(problem.Status, problem)
	}

	return c.JSON(http.StatusOK, response.Response{Success: true, Data: users})
}

// GetUserByEmail handles GET /api/users/email/:email.
func (h *UserHandler) GetUserByEmail(c echo.Context) error {
	span, ctx := tracer.StartSpanFromContext(c.Request().Context(), "handler.get_user_by_email")
	defer span.Finish()
	c.SetRequest(c.Request().WithContext(ctx))

	logger := appcontext.GetLogger(ctx)
	span.SetTag("http.method", c.Request().Method)
	span.SetTag("http.url", c.Request().URL.Path)

	email := c.Param("email")
	span.SetTag("user.email", email)

	user, err := userInteractor(c).GetUserByEmail(ctx, email)
	if err != nil {
		logging.LogErrorWithTrace(ctx, logger, "handler", "Failed to get user by email", err, nil)
		span.SetTag("error", true)
		span.SetTag("error.msg", err.Error())
		problem := problemFromError(ctx, err, c.Request().URL.Path)
		return c.JSON(problem.Status, problem)
	}

	return c.JSON(http.StatusOK, response.Response{Success: true, Data: user})
}

// UpdateUser handles PUT /api/users/:id.
func (h *UserHandler) UpdateUser(c echo.Context) error {
	span, ctx := tracer.StartSpanFromContext(c.Request().Context(), "handler.update_user")
	defer span.Finish()
	c.SetRequest(c.Request().WithContext(ctx))

	logger := appcontext.GetLogger(ctx)
	span.SetTag("http.method", c.Request().Method)
	span.SetTag("http.url", c.Request().URL.Path)

	id, problem := parseID(ctx, c, "id", "User")
	if problem != nil {
		return c.JSON(problem.Status, problem)
	}
	span.SetTag("user.id", id)

	var req UserRequest
	if err := c.Bind(&req); err != nil {
		span.SetTag("error", true)
		span.SetTag("error.msg", err.Error())
		problem := response.NewValidationErrorProblem(
			"Request body is not valid JSON or does not match expected schema",
			c.Request().URL.Path,
		).WithTrace(ctx)
		return c.JSON(problem.Status, problem)
	}

	input, violations := req.Validate()
	if violations != nil {
		problem := response.NewValidationErrorProblem(strings.Join(violations, "; "), c.Request().URL.Path).WithTrace(ctx)
		return c.JSON(problem.Status, problem)
	}

	user, err := userInteractor(c).UpdateUser(ctx, id, input)
	if err != nil {
		logging.LogErrorWithTrace(ctx, logger, "handler", "Failed to update user", err, nil)
		span.SetTag("error", true)
		span.SetTag("error.msg", err.Error())
		problem := problemFromError(ctx, err, c.Request().URL.Path)
		return c.JSON(problem.Status, problem)
	}

	logging.LogWithTrace(ctx, logger, "handler", "User updated successfully", nil)
	return c.JSON(http.StatusOK, response.Response{
		Success: true,
		Data:    user,
		Message: "User updated successfully",
	})
}

// DeleteUser handles DELETE /api/users/:id.
func (h *UserHandler) DeleteUser(c echo.Context) error {
	span, ctx := tracer.StartSpanFromContext(c.Request().Context(), "handler.delete_user")
	defer span.Finish()
	c.SetRequest(c.Request().WithContext(ctx))

	logger := appcontext.GetLogger(ctx)
	span.SetTag("http.method", c.Request().Method)
	span.SetTag("http.url", c.Request().URL.Path)

	id, problem := parseID(ctx, c, "id", "User")
	if problem != nil {
		return c.JSON(problem.Status, problem)
	}
	span.SetTag("user.id", id)

	if err := userInteractor(c).DeleteUser(ctx, id); err != nil {
		logging.LogErrorWithTrace(ctx, logger, "handler", "Failed to delete user", err, nil)
		span.SetTag("error", true)
		span.SetTag("error.msg", err.Error())
		problem := problemFromError(ctx, err, c.Request().URL.Path)
		return c.JSON(problem.Status, problem)
	}

	logging.LogWithTrace(ctx, logger, "handler", "User deleted successfully", nil)
	return c.JSON(http.StatusOK, response.Response{
		Success: true,
		Message: "User deleted successfully",
	})
}

// parseID reads a positive integer path parameter, or returns the
// validation problem to send.
func parseID(ctx context.Context, c echo.Context, param, entity string) (int64, *response.ProblemDetail) {
	raw := c.Param(param)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		problem := response.NewValidationErrorProblem(
			entity+" ID must be a positive integer",
			c.Request().URL.Path,
		).WithTrace(ctx)
		return 0, &problem
	}
	return id, nil
}

// parseIDList reads a comma-separated list of positive integer ids from a
// query parameter. The parameter is required and every element must parse.
func parseIDList(ctx context.Context, c echo.Context, param, entity string) ([]int64, *response.ProblemDetail) {
	raw := c.QueryParam(param)
	if raw == "" {
		problem := response.NewValidationErrorProblem(
			param+" query parameter is required",
			c.Request().URL.Path,
		).WithTrace(ctx)
		return nil, &problem
	}

	parts := strings.Split(raw, ",")
	ids := make([]int64, 0, len(parts))
	for _, part := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil || id <= 0 {
			problem := response.NewValidationErrorProblem(
				entity+" IDs must be positive integers",
				c.Request().URL.Path,
			).WithTrace(ctx)
			return nil, &problem
		}
		ids = append(ids, id)
	}
	return ids, nil
}
