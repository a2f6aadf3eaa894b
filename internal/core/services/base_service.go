package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/cupkappu/mbooking-sub001/internal/core/domain"
	"github.com/cupkappu/mbooking-sub001/internal/platform/logger"
)

// BaseService provides common functionality for all services
type BaseService struct {
	// Clock returns the current time; tests replace it for deterministic audit fields.
	Clock func() time.Time
}

// GetLogger gets the logger from context or returns a default one
func (s *BaseService) GetLogger(ctx context.Context) *slog.Logger {
	return logger.GetLoggerFromCtx(ctx)
}

// StartOperation scopes the context logger to one tenant operation.
func (s *BaseService) StartOperation(ctx context.Context, tenantID string) context.Context {
	return logger.WithOperation(ctx, s.GetLogger(ctx), tenantID)
}

// Now returns the service clock in UTC.
func (s *BaseService) Now() time.Time {
	if s.Clock == nil {
		return time.Now().UTC()
	}
	return s.Clock().UTC()
}

// LogError logs an error with consistent formatting
func (s *BaseService) LogError(ctx context.Context, err error, msg string, keyvals ...any) {
	l := s.GetLogger(ctx)
	args := make([]any, 0, len(keyvals)+1)
	args = append(args, slog.String("error", err.Error()))
	args = append(args, keyvals...)
	l.Error(msg, args...)
}

// LogWarn logs an expected, caller-fixable failure
func (s *BaseService) LogWarn(ctx context.Context, err error, msg string, keyvals ...any) {
	l := s.GetLogger(ctx)
	args := make([]any, 0, len(keyvals)+1)
	args = append(args, slog.String("error", err.Error()))
	args = append(args, keyvals...)
	l.Warn(msg, args...)
}

// LogInfo logs an info message with consistent formatting
func (s *BaseService) LogInfo(ctx context.Context, msg string, keyvals ...any) {
	s.GetLogger(ctx).Info(msg, keyvals...)
}

// LogDebug logs a debug message with consistent formatting
func (s *BaseService) LogDebug(ctx context.Context, msg string, keyvals ...any) {
	s.GetLogger(ctx).Debug(msg, keyvals...)
}

// endOfDay returns the last representable instant of t's UTC day.
func endOfDay(t time.Time) time.Time {
	return domain.Day(t).Add(24*time.Hour - time.Nanosecond)
}
