package handler

import (
	"context"

	"github.com/osinovi/user-service/internal/apperrors"
	"github.com/osinovi/user-service/internal/presentation/response"
)

// problemFromError maps a service error onto the RFC 9457 problem the
// handler returns: not-found conditions to 404, conflicts to 409, anything
// else to 500.
func problemFromError(ctx context.Context, err error, instance string) response.ProblemDetail {
	switch {
	case apperrors.IsNotFound(err):
		return response.NewNotFoundProblem(err.Error(), instance).WithTrace(ctx)
	case apperrors.IsConflict(err):
		return response.NewConflictProblem(err.Error(), instance).WithTrace(ctx)
	default:
		return response.NewInternalErrorProblem(err.Error(), instance, true).WithTrace(ctx)
	}
}
