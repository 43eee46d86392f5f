// Package logging emits logrus entries correlated with the active Datadog
// span, so every line can be joined to its trace in the APM view.
package logging

import (
	"context"
	"fmt"
	"runtime"

	"github.com/sirupsen/logrus"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"
)

// NewLogger builds the service-wide JSON logger.
func NewLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	return logger
}

// LogWithTrace logs an info message with trace information and caller details.
func LogWithTrace(ctx context.Context, logger *logrus.Logger, layer, message string, fields logrus.Fields) {
	entry, msg := prepare(ctx, logger, layer, message, fields)
	entry.Info(msg)
}

// LogErrorWithTrace logs an error with trace information and caller details.
func LogErrorWithTrace(ctx context.Context, logger *logrus.Logger, layer, message string, err error, fields logrus.Fields) {
	entry, msg := prepare(ctx, logger, layer, message, fields)
	entry.WithError(err).Error(msg)
}

// prepare decorates an entry with caller location, layer, and the Datadog
// trace/span ids of the active span, if any. Skips 2 frames to report the
// caller of the exported helpers.
func prepare(ctx context.Context, logger *logrus.Logger, layer, message string, fields logrus.Fields) (*logrus.Entry, string) {
	if fields == nil {
		fields = logrus.Fields{}
	}

	formatted := fmt.Sprintf("[%s] %s", layer, message)
	if _, file, line, ok := runtime.Caller(2); ok {
		fields["file"] = file
		fields["line"] = line
		formatted = fmt.Sprintf("[%s] %s:%d | %s", layer, file, line, message)
	}

	if span, ok := tracer.SpanFromContext(ctx); ok {
		spanContext := span.Context()
		fields["dd.trace_id"] = spanContext.TraceID()
		fields["dd.span_id"] = spanContext.SpanID()
	}

	fields["layer"] = layer

	return logger.WithFields(fields), formatted
}
