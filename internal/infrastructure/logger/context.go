package logger

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type contextKey string

const (
	loggerKey    contextKey = "logger"
	requestIDKey contextKey = "request_id"
	staffIDKey   contextKey = "staff_id"
)

// WithContext returns a new context with the logger attached
func WithContext(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext retrieves the logger from context, or a no-op logger
func FromContext(ctx context.Context) *zap.Logger {
	if logger, ok := ctx.Value(loggerKey).(*zap.Logger); ok {
		return logger
	}
	return zap.NewNop()
}

// WithRequestID adds the request ID to the context and returns an
// enriched logger alongside the new context
func WithRequestID(ctx context.Context, logger *zap.Logger, requestID string) (context.Context, *zap.Logger) {
	ctx = context.WithValue(ctx, requestIDKey, requestID)
	enriched := logger.With(zap.String("request_id", requestID))
	return WithContext(ctx, enriched), enriched
}

// WithStaffID adds the acting staff member's ID to the context and
// returns an enriched logger. Corrections log who performed them.
func WithStaffID(ctx context.Context, logger *zap.Logger, staffID string) (context.Context, *zap.Logger) {
	ctx = context.WithValue(ctx, staffIDKey, staffID)
	enriched := logger.With(zap.String("staff_id", staffID))
	return WithContext(ctx, enriched), enriched
}

// GetRequestID retrieves the request ID from context
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(requestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// GetStaffID retrieves the acting staff member's ID from context
func GetStaffID(ctx context.Context) string {
	if staffID, ok := ctx.Value(staffIDKey).(string); ok {
		return staffID
	}
	return ""
}

// WithTraceContext adds trace_id and span_id fields from the context's
// active span. Returns the logger unchanged when no valid span exists.
func WithTraceContext(ctx context.Context, logger *zap.Logger) *zap.Logger {
	spanCtx := trace.SpanFromContext(ctx).SpanContext()
	if !spanCtx.IsValid() {
		return logger
	}
	return logger.With(
		zap.String("trace_id", spanCtx.TraceID().String()),
		zap.String("span_id", spanCtx.SpanID().String()),
	)
}
