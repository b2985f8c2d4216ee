package obs

import (
	"context"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestWithTraceAddsRequestID(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	base := zap.New(core)

	ctx := context.WithValue(context.Background(), middleware.RequestIDKey, "req-42")
	WithTrace(ctx, base).Info("hit")
	WithTrace(context.Background(), base).Info("bare")

	entries := logs.All()
	if assert.Len(t, entries, 2) {
		assert.Equal(t, "req-42", entries[0].ContextMap()["request_id"])
		assert.NotContains(t, entries[1].ContextMap(), "request_id")
		assert.NotContains(t, entries[1].ContextMap(), "trace_id")
	}
}

func TestWithTraceNilLogger(t *testing.T) {
	assert.NotNil(t, WithTrace(context.Background(), nil))
}

func TestNewLoggerFallsBackToInfo(t *testing.T) {
	l, err := NewLogger(LogConfig{Level: "loud", App: "authgate", Output: []string{"stderr"}})
	if assert.NoError(t, err) {
		assert.True(t, l.Core().Enabled(zap.InfoLevel))
		assert.False(t, l.Core().Enabled(zap.DebugLevel))
	}
}
