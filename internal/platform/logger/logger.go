package logger

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"
)

// contextKey is the key used to store the logger in a context.
// Using a custom type prevents collisions.
type contextKey string

const (
	loggerKey    = contextKey("logger")
	operationKey = contextKey("operation_id")
)

// New builds the base logger: JSON in production, text otherwise.
func New(w io.Writer, isProduction bool, level string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}
	if isProduction {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// ParseLevel maps a config string onto a slog level, defaulting to Info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithLogger stores a logger in the context.
func WithLogger(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// WithOperation derives a context whose logger carries an operation id and the tenant.
// A context that already belongs to an operation is returned unchanged, so nested
// service calls log under the id of the outermost one.
func WithOperation(ctx context.Context, base *slog.Logger, tenantID string) context.Context {
	if OperationID(ctx) != "" {
		return ctx
	}
	id := uuid.NewString()
	opLogger := base.With(
		slog.String("operation_id", id),
		slog.String("tenant_id", tenantID),
	)
	return context.WithValue(WithLogger(ctx, opLogger), operationKey, id)
}

// OperationID returns the id set by WithOperation, or "" outside an operation.
func OperationID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(operationKey).(string)
	return id
}

// GetLoggerFromCtx retrieves the scoped logger from the context.
// It returns the default logger if none is found.
func GetLoggerFromCtx(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return slog.Default()
	}
	l, ok := ctx.Value(loggerKey).(*slog.Logger)
	if !ok || l == nil {
		return slog.Default()
	}
	return l
}
