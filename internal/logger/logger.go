package logger

import (
	"context"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type contextKey string

// Context keys the request middlewares fill and WithContext reads back
const (
	RequestIDKey contextKey = "request_id"
	UserIDKey    contextKey = "user_id"
)

// Logger is a service-scoped sugared zap logger
type Logger struct {
	*zap.SugaredLogger
	serviceName string
}

// NewLogger builds the logger for serviceName. APP_ENV picks the encoding and the
// default level; LOG_LEVEL overrides the level.
func NewLogger(serviceName string) *Logger {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	core := zapcore.NewCore(
		encoderFor(env),
		zapcore.Lock(os.Stdout),
		zap.NewAtomicLevelAt(levelFor(env, os.Getenv("LOG_LEVEL"))),
	)
	base := zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))
	return &Logger{SugaredLogger: base.Sugar().With("service", serviceName), serviceName: serviceName}
}

// NewNop returns a logger that discards everything, handy in tests
func NewNop() *Logger {
	return &Logger{SugaredLogger: zap.NewNop().Sugar(), serviceName: "nop"}
}

// encoderFor writes JSON in production and colourless console lines elsewhere
func encoderFor(env string) zapcore.Encoder {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "timestamp"
	cfg.MessageKey = "message"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncodeDuration = zapcore.MillisDurationEncoder
	if env == "production" {
		return zapcore.NewJSONEncoder(cfg)
	}
	return zapcore.NewConsoleEncoder(cfg)
}

func levelFor(env, override string) zapcore.Level {
	if override != "" {
		var lvl zapcore.Level
		if err := lvl.UnmarshalText([]byte(override)); err == nil {
			return lvl
		}
	}
	if env == "development" {
		return zap.DebugLevel
	}
	return zap.InfoLevel
}

// ServiceName returns the name the logger was created with
func (l *Logger) ServiceName() string {
	return l.serviceName
}

func (l *Logger) with(args ...interface{}) *Logger {
	return &Logger{SugaredLogger: l.SugaredLogger.With(args...), serviceName: l.serviceName}
}

// WithContext tags the logger with the request id and the authenticated user found in ctx
func (l *Logger) WithContext(ctx context.Context) *Logger {
	var args []interface{}
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok && requestID != "" {
		args = append(args, "request_id", requestID)
	}
	if userID, ok := ctx.Value(UserIDKey).(int64); ok && userID != 0 {
		args = append(args, "user_id", userID)
	}
	if len(args) == 0 {
		return l
	}
	return l.with(args...)
}

// WithUser tags the logger with userID
func (l *Logger) WithUser(userID int64) *Logger {
	return l.with("user_id", userID)
}

// Audit logs a security-relevant event at info level, flagged for filtering
func (l *Logger) Audit(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.With("audit", true, "audited_at", time.Now().UTC()).Infow(msg, keysAndValues...)
}

func (l *Logger) Fatal(msg string, keysAndValues ...interface{}) {
	l.Fatalw(msg, keysAndValues...)
}

func (l *Logger) Error(msg string, keysAndValues ...interface{}) {
	l.Errorw(msg, keysAndValues...)
}

func (l *Logger) Warn(msg string, keysAndValues ...interface{}) {
	l.Warnw(msg, keysAndValues...)
}

func (l *Logger) Info(msg string, keysAndValues ...interface{}) {
	l.Infow(msg, keysAndValues...)
}

func (l *Logger) Debug(msg string, keysAndValues ...interface{}) {
	l.Debugw(msg, keysAndValues...)
}

// Sync flushes buffered entries
func (l *Logger) Sync() error {
	return l.SugaredLogger.Sync()
}
