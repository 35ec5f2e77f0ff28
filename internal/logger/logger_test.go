package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLevelFor(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, levelFor("development", ""))
	assert.Equal(t, zapcore.InfoLevel, levelFor("production", ""))
	assert.Equal(t, zapcore.WarnLevel, levelFor("development", "warn"))
	assert.Equal(t, zapcore.InfoLevel, levelFor("production", "not-a-level"))
}

func TestWithContext(t *testing.T) {
	base := NewLogger("test-service")
	assert.Equal(t, "test-service", base.ServiceName())

	// no request id keeps the same logger
	assert.Same(t, base, base.WithContext(context.Background()))

	ctx := context.WithValue(context.Background(), RequestIDKey, "req-1")
	scoped := base.WithContext(ctx)
	assert.NotSame(t, base, scoped)
	assert.Equal(t, "test-service", scoped.ServiceName())
}

func TestNop(t *testing.T) {
	l := NewNop()
	l.Info("discarded", "k", "v")
	l.WithUser(1).Audit("discarded")
}

func TestWithContextFields(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	base := &Logger{SugaredLogger: zap.New(core).Sugar(), serviceName: "tasks"}

	ctx := context.WithValue(context.Background(), RequestIDKey, "req-9")
	ctx = context.WithValue(ctx, UserIDKey, int64(42))
	base.WithContext(ctx).Info("Task created", "task_id", 7)
	base.Audit("Role changed")

	require.Equal(t, 2, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "req-9", fields["request_id"])
	assert.EqualValues(t, 42, fields["user_id"])
	assert.EqualValues(t, 7, fields["task_id"])
	assert.Equal(t, true, logs.All()[1].ContextMap()["audit"])
}
