package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"

	appcontext "github.com/osinovi/user-service/internal/common/context"
	"github.com/osinovi/user-service/internal/common/logging"
	"github.com/osinovi/user-service/internal/presentation/response"
	"github.com/osinovi/user-service/internal/usecase"
)

// CardHandler handles card-related HTTP requests.
type CardHandler struct{}

// NewCardHandler creates a new CardHandler.
func NewCardHandler() *CardHandler {
	return &CardHandler{}
}

// cardInteractor builds the usecase from the request-scoped locator.
func cardInteractor(c echo.Context) *usecase.CardUseCase {
	ctx := c.Request().Context()
	locator := appcontext.GetRepoLocator(ctx)
	return &usecase.CardUseCase{
		Logger:    appcontext.GetLogger(ctx),
		Users:     locator.UserRepo,
		Cards:     locator.CardRepo,
		Cache:     locator.CardCache,
		UserCache: locator.UserCache,
	}
}

// CreateCard handles POST /api/users/:userId/cards.
func (h *CardHandler) CreateCard(c echo.Context) error {
	span, ctx := tracer.StartSpanFromContext(c.Request().Context(), "handler.create_card")
	defer span.Finish()
	c.SetRequest(c.Request().WithContext(ctx))

	logger := appcontext.GetLogger(ctx)
	span.SetTag("http.method", c.Request().Method)
	span.SetTag("http.url", c.Request().URL.Path)

	userID, problem := parseID(ctx, c, "userId", "User")
	if problem != nil {
		return c.JSON(problem.Status, problem)
	}
	span.SetTag("card.user_id", userID)

	var req CardRequest
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

	card, err := cardInteractor(c).CreateCard(ctx, userID, input)
	if err != nil {
		logging.LogErrorWithTrace(ctx, logger, "handler", "Failed to create card", err, nil)
		span.SetTag("error", true)
		span.SetTag("error.msg", err.Error())
		problem := problemFromError(ctx, err, c.Request().URL.Path)
		return c.JSON(problem.Status, problem)
	}

	span.SetTag("card.id", card.ID)

	logging.LogWithTrace(ctx, logger, "handler", "Card created successfully", nil)
	return c.JSON(http.StatusCreated, response.Response{
		Success: true,
		Data:    card,
		Message: "Card created successfully",
	})
}

// GetCardByID handles GET /api/cards/:id.
func (h *CardHandler) GetCardByID(c echo.Context) error {
	span, ctx := tracer.StartSpanFromContext(c.Request().Context(), "handler.get_card_by_id")
	defer span.Finish()
	c.SetRequest(c.Request().WithContext(ctx))

	logger := appcontext.GetLogger(ctx)
	span.SetTag("http.method", c.Request().Method)
	span.SetTag("http.url", c.Request().URL.Path)

	id, problem := parseID(ctx, c, "id", "Card")
	if problem != nil {
		return c.JSON(problem.Status, problem)
	}
	span.SetTag("card.id", id)

	card, err := cardInteractor(c).GetCardByID(ctx, id)
	if err != nil {
		logging.LogErrorWithTrace(ctx, logger, "handler", "Failed to get card", err, nil)
		span.SetTag("error", true)
		span.SetTag("error.msg", err.Error())
		problem := problemFromError(ctx, err, c.Request().URL.Path)
		return c.JSON(problem.Status, problem)
	}

	return c.JSON(http.StatusOK, response.Response{Success: true, Data: card})
}

// GetCardsByIDs handles GET /api/cards?ids=1,2,3.
func (h *CardHandler) GetCardsByIDs(c echo.Context) error {
	span, ctx := tracer.StartSpanFromContext(c.Request().Context(), "handler.get_cards_by_ids")
	defer span.Finish()
	c.SetRequest(c.Request().WithContext(ctx))

	logger := appcontext.GetLogger(ctx)
	span.SetTag("http.method", c.Request().Method)
	span.SetTag("http.url", c.Request().URL.Path)

	ids, problem := parseIDList(ctx, c, "ids", "Card")
	if problem != nil {
		return c.JSON(problem.Status, problem)
	}
	span.SetTag("cards.requested", len(ids))

	cards, err := cardInteractor(c).GetCardsByIDs(ctx, ids)
	if err != nil {
		logging.LogErrorWithTrace(ctx, logger, "handler", "Failed to get cards", err, nil)
		span.SetTag("error", true)
		span.SetTag("error.msg", err.Error())
		problem := problemFromError(ctx, err, c.Request().URL.Path)
		return c.JSON(problem.Status, problem)
	}

	span.SetTag("cards.count", len(cards))
	return c.JSON(http.StatusOK, response.Response{Success: true, Data: cards})
}

// GetCardsByUserID handles GET /api/users/:userId/cards.
func (h *CardHandler) GetCardsByUserID(c echo.Context) error {
	span, ctx := tracer.StartSpanFromContext(c.Request().Context(), "handler.get_cards_by_user_id")
	defer span.Finish()
	c.SetRequest(c.Request().WithContext(ctx))

	logger := appcontext.GetLogger(ctx)
	span.SetTag("http.method", c.Request().Method)
	span.SetTag("http.url", c.Request().URL.Path)

	userID, problem := parseID(ctx, c, "userId", "User")
	if problem != nil {
		return c.JSON(problem.Status, problem)
	}
	span.SetTag("card.user_id", userID)

	cards, err := cardInteractor(c).GetCardsByUserID(ctx, userID)
	if err != nil {
		logging.LogErrorWithTrace(ctx, logger, "handler", "Failed to get cards", err, nil)
		span.SetTag("error", true)
		span.SetTag("error.msg", err.Error())
		problem := problemFromError(ctx, err, c.Request().URL.Path)
		return c.JSON(problem.Status, problem)
	}

	span.SetTag("cards.count", len(cards))
	return c.JSON(http.StatusOK, response.Response{Success: true, Data: cards})
}

// UpdateCard handles PUT /api/users/:userId/cards/:id.
func (h *CardHandler) UpdateCard(c echo.Context) error {
	span, ctx := tracer.StartSpanFromContext(c.Request().Context(), "handler.update_card")
	defer span.Finish()
	c.SetRequest(c.Request().WithContext(ctx))

	logger := appcontext.GetLogger(ctx)
	span.SetTag("http.method", c.Request().Method)
	span.SetTag("http.url", c.Request().URL.Path)

	userID, problem := parseID(ctx, c, "userId", "User")
	if problem != nil {
		return c.JSON(problem.Status, problem)
	}
	id, problem := parseID(ctx, c, "id", "Card")
	if problem != nil {
		return c.JSON(problem.Status, problem)
	}
	span.SetTag("card.id", id)
	span.SetTag("card.user_id", userID)

	var req CardRequest
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

	card, err := cardInteractor(c).UpdateCard(ctx, id, userID, input)
	if err != nil {
		logging.LogErrorWithTrace(ctx, logger, "handler", "Failed to update card", err, nil)
		span.SetTag("error", true)
		span.SetTag("error.msg", err.Error())
		problem := problemFromError(ctx, err, c.Request().URL.Path)
		return c.JSON(problem.Status, problem)
	}

	logging.LogWithTrace(ctx, logger, "handler", "Card updated successfully", nil)
	return c.JSON(http.StatusOK, response.Response{
		Success: true,
		Data:    card,
		Message: "Card updated successfully",
	})
}

// DeleteCard handles DELETE /api/cards/:id.
func (h *CardHandler) DeleteCard(c echo.Context) error {
	span, ctx := tracer.StartSpanFromContext(c.Request().Context(), "handler.delete_card")
	defer span.Finish()
	c.SetRequest(c.Request().WithContext(ctx))

	logger := appcontext.GetLogger(ctx)
	span.SetTag("http.method", c.Request().Method)
	span.SetTag("http.url", c.Request().URL.Path)

	id, problem := parseID(ctx, c, "id", "Card")
	if problem != nil {
		return c.JSON(problem.Status, problem)
	}
	span.SetTag("card.id", id)

	if err := cardInteractor(c).DeleteCard(ctx, id); err != nil {
		logging.LogErrorWithTrace(ctx, logger, "handler", "Failed to delete card", err, nil)
		span.SetTag("error", true)
		span.SetTag("error.msg", err.Error())
		problem := problemFromError(ctx, err, c.Request().URL.Path)
		return c.JSON(problem.Status, problem)
	}

	logging.LogWithTrace(ctx, logger, "handler", "Card deleted successfully", nil)
	return c.JSON(http.StatusOK, response.Response{
		Success: true,
		Message: "Card deleted successfully",
	})
}
