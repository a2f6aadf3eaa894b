package logger_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cupkappu/mbooking-sub001/internal/platform/logger"
)

func TestGetLoggerFromCtx_FallsBackToDefault(t *testing.T) {
	assert.Equal(t, slog.Default(), logger.GetLoggerFromCtx(context.Background()))
}

func TestWithOperation_AddsTenant(t *testing.T) {
	var buf bytes.Buffer
	base := logger.New(&buf, true, "debug")

	ctx := logger.WithOperation(context.Background(), base, "tenant-1")
	logger.GetLoggerFromCtx(ctx).Info("hello")

	assert.Contains(t, buf.String(), `"tenant_id":"tenant-1"`)
	assert.Contains(t, buf.String(), `"operation_id"`)
}

func TestWithOperation_KeepsOuterOperation(t *testing.T) {
	outer := logger.WithOperation(context.Background(), slog.Default(), "tenant-1")
	id := logger.OperationID(outer)

	assert.NotEmpty(t, id)
	assert.Equal(t, outer, logger.WithOperation(outer, slog.Default(), "tenant-1"))
	assert.Empty(t, logger.OperationID(context.Background()))
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, logger.ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, logger.ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, logger.ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, logger.ParseLevel(""))
}
