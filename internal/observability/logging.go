// Package observability provides logging, metrics, and tracing.
package observability

import (
	"context"
	"log/slog"
	"os"

	"github.com/google/uuid"
)

// GlobalLogger is the logger used by observability helpers. It defaults to a
// JSON handler on stdout until SetLogger installs the application logger.
var GlobalLogger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

// SetLogger replaces GlobalLogger.
func SetLogger(l *slog.Logger) {
	if l != nil {
		GlobalLogger = l
	}
}

// LogContextKey is a type for context keys used by the logging package.
type LogContextKey string

// CorrelationID is the context key carrying the correlation id of one inbound event.
const CorrelationID LogContextKey = "correlation_id"

// GenerateCorrelationID creates a new unique correlation ID.
func GenerateCorrelationID() string {
	return uuid.NewString()
}

// WithCorrelationID returns a new context with the given correlation ID.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, CorrelationID, id)
}

// ExtractCorrelationID retrieves the correlation ID from the context.
func ExtractCorrelationID(ctx context.Context) string {
	if id, ok := ctx.Value(CorrelationID).(string); ok {
		return id
	}
	return ""
}

// StoreLogger provides structured logging for entity store transactions.
type StoreLogger struct {
	backend string
}

// NewStoreLogger creates a StoreLogger tagged with the backend name.
func NewStoreLogger(backend string) *StoreLogger {
	return &StoreLogger{backend: backend}
}

// LogCommit logs a committed mutation.
func (l *StoreLogger) LogCommit(ctx context.Context, operation string, fields ...any) {
	attrs := append([]any{
		slog.String("backend", l.backend),
		slog.String("operation", operation),
		slog.String("correlation_id", ExtractCorrelationID(ctx)),
	}, fields...)
	GlobalLogger.DebugContext(ctx, "store mutation committed", attrs...)
}

// LogAbort logs a mutation rejected by a domain rule.
func (l *StoreLogger) LogAbort(ctx context.Context, operation string, err error) {
	GlobalLogger.InfoContext(ctx, "store mutation aborted",
		slog.String("backend", l.backend),
		slog.String("operation", operation),
		slog.String("reason", err.Error()),
		slog.String("correlation_id", ExtractCorrelationID(ctx)),
	)
}

// LogError logs an infrastructure failure.
func (l *StoreLogger) LogError(ctx context.Context, operation string, err error) {
	GlobalLogger.ErrorContext(ctx, "store error",
		slog.String("backend", l.backend),
		slog.String("operation", operation),
		slog.String("error", err.Error()),
		slog.String("correlation_id", ExtractCorrelationID(ctx)),
	)
}

// LogReinit logs that durable state was replaced by the seed state.
func (l *StoreLogger) LogReinit(ctx context.Context, reason, detail string) {
	GlobalLogger.WarnContext(ctx, "state re-initialized from seed",
		slog.String("backend", l.backend),
		slog.String("reason", reason),
		slog.String("detail", detail),
	)
}
