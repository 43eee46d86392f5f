package response

import (
	"context"
	"fmt"
	"net/http"

	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"
)

// Response represents the success envelope for API responses.
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

// ProblemDetail represents RFC 9457 Problem Details for HTTP APIs
// See: https://www.rfc-editor.org/rfc/rfc9457.html
type ProblemDetail struct {
	Type     string `json:"type"`               // URI reference identifying the problem type
	Title    string `json:"title"`              // Short, human-readable summary
	Status   int    `json:"status"`             // HTTP status code
	Detail   string `json:"detail"`             // Human-readable explanation
	Instance string `json:"instance"`           // URI reference identifying the specific occurrence
	TraceID  string `json:"trace_id,omitempty"` // Datadog trace ID for correlation
	SpanID   string `json:"span_id,omitempty"`  // Datadog span ID for correlation
	Notify   *bool  `json:"notify,omitempty"`   // Whether this error should trigger alerts
}

// ErrorType defines standard error type URIs.
const (
	ErrorTypeValidation   = "https://user-service.example.com/errors/validation"
	ErrorTypeNotFound     = "https://user-service.example.com/errors/not-found"
	ErrorTypeConflict     = "https://user-service.example.com/errors/conflict"
	ErrorTypeUnauthorized = "https://user-service.example.com/errors/unauthorized"
	ErrorTypeInternal     = "https://user-service.example.com/errors/internal"
)

// WithTrace stamps the active span's trace ids onto the problem so the
// response can be correlated with its trace.
func (p ProblemDetail) WithTrace(ctx context.Context) ProblemDetail {
	if span, ok := tracer.SpanFromContext(ctx); ok {
		spanContext := span.Context()
		p.TraceID = fmt.Sprintf("%d", spanContext.TraceID())
		p.SpanID = fmt.Sprintf("%d", spanContext.SpanID())
	}
	return p
}

// NewProblemDetail creates a new ProblemDetail with common fields set.
func NewProblemDetail(errorType, title string, status int, detail, instance string) ProblemDetail {
	return ProblemDetail{
		Type:     errorType,
		Title:    title,
		Status:   status,
		Detail:   detail,
		Instance: instance,
	}
}

// NewInternalErrorProblem creates a problem detail for internal server errors.
func NewInternalErrorProblem(detail, instance string, notify bool) ProblemDetail {
	problem := NewProblemDetail(
		ErrorTypeInternal,
		"Internal Server Error",
		http.StatusInternalServerError,
		detail,
		instance,
	)
	problem.Notify = &notify
	return problem
}

// NewValidationErrorProblem creates a problem detail for validation errors.
func NewValidationErrorProblem(detail, instance string) ProblemDetail {
	notifyFalse := false
	problem := NewProblemDetail(
		ErrorTypeValidation,
		"Validation Error",
		http.StatusBadRequest,
		detail,
		instance,
	)
	problem.Notify = &notifyFalse
	return problem
}

// NewNotFoundProblem creates a problem detail for not found errors.
func NewNotFoundProblem(detail, instance string) ProblemDetail {
	notifyFalse := false
	problem := NewProblemDetail(
		ErrorTypeNotFound,
		"Not Found",
		http.StatusNotFound,
		detail,
		instance,
	)
	problem.Notify = &notifyFalse
	return problem
}

// NewConflictProblem creates a problem detail for conflict errors.
func NewConflictProblem(detail, instance string) ProblemDetail {
	notifyFalse := false
	problem := NewProblemDetail(
		ErrorTypeConflict,
		"Conflict",
		http.StatusConflict,
		detail,
		instance,
	)
	problem.Notify = &notifyFalse
	return problem
}

// NewUnauthorizedProblem creates a problem detail for failed authentication.
func NewUnauthorizedProblem(detail, instance string) ProblemDetail {
	notifyFalse := false
	problem := NewProblemDetail(
		ErrorTypeUnauthorized,
		"Unauthorized",
		http.StatusUnauthorized,
		detail,
		instance,
	)
	problem.Notify = &notifyFalse
	return problem
}
