package logger

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRequestIDRoundTrip(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GetRequestID(ctx))

	ctx = WithRequestID(ctx, "req-123")
	assert.Equal(t, "req-123", GetRequestID(ctx))
}

func TestDeriveRequestLogger(t *testing.T) {
	base := slog.Default()

	t.Run("nil base falls back to default", func(t *testing.T) {
		logger := DeriveRequestLogger(context.Background(), nil)
		assert.NotNil(t, logger)
	})

	t.Run("without request ID returns base", func(t *testing.T) {
		logger := DeriveRequestLogger(context.Background(), base)
		assert.Equal(t, base, logger)
	})

	t.Run("with request ID returns enriched logger", func(t *testing.T) {
		ctx := WithRequestID(context.Background(), "req-456")
		logger := DeriveRequestLogger(ctx, base)
		assert.NotEqual(t, base, logger)
	})
}

func TestGetDeadlineInfo(t *testing.T) {
	t.Run("no deadline", func(t *testing.T) {
		attrs := GetDeadlineInfo(context.Background())
		assert.Equal(t, []any{"deadline", "none", "deadline_remaining", "none"}, attrs)
	})

	t.Run("with deadline", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		attrs := GetDeadlineInfo(ctx)
		assert.Len(t, attrs, 4)
		assert.Equal(t, "deadline", attrs[0])
	})
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("info"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warn"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("bogus"))
}

func TestSliceToMap(t *testing.T) {
	args := []any{"key1", "value1", "key2", 42, 3, "skipped"}

	result := SliceToMap(args)

	assert.Equal(t, "value1", result["key1"])
	assert.Equal(t, 42, result["key2"])
	assert.Len(t, result, 2)
}
