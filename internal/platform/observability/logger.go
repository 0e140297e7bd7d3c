package observability

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/august-web/dev-quoteX/internal/platform/requestctx"
)

const defaultLogLevel = "info"

// NewLogger constructs a production zap logger emitting Cloud Logging compatible JSON.
// LOG_LEVEL selects the level; unknown values fall back to info.
func NewLogger() (*zap.Logger, error) {
	level := zap.NewAtomicLevel()
	if err := level.UnmarshalText([]byte(strings.ToLower(strings.TrimSpace(os.Getenv("LOG_LEVEL"))))); err != nil {
		_ = level.UnmarshalText([]byte(defaultLogLevel))
	}

	cfg := zap.Config{
		Level:    level,
		Encoding: "json",
		EncoderConfig: zapcore.EncoderConfig{
			MessageKey:    "message",
			TimeKey:       "timestamp",
			LevelKey:      "severity",
			CallerKey:     "caller",
			StacktraceKey: "stacktrace",
			EncodeTime:    zapcore.RFC3339NanoTimeEncoder,
			EncodeCaller:  zapcore.ShortCallerEncoder,
			EncodeLevel: func(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
				enc.AppendString(strings.ToUpper(level.String()))
			},
		},
		OutputPaths:       []string{"stdout"},
		ErrorOutputPaths:  []string{"stderr"},
		DisableStacktrace: true,
	}
	return cfg.Build()
}

// WithLogger injects the logger into the provided context.
func WithLogger(ctx context.Context, logger *zap.Logger) context.Context {
	return requestctx.WithLogger(ctx, logger)
}

// FromContext retrieves the logger from context, defaulting to a no-op logger.
func FromContext(ctx context.Context) *zap.Logger {
	return requestctx.Logger(ctx)
}

// ServiceLogger adapts zap to the event logger signature services accept. The request-scoped
// logger wins over base when the context carries one. Events ending in "_failed" log at warn.
func ServiceLogger(base *zap.Logger) func(context.Context, string, map[string]any) {
	if base == nil {
		base = zap.NewNop()
	}
	return func(ctx context.Context, event string, fields map[string]any) {
		logger := requestctx.Logger(ctx)
		if logger == requestctx.NoopLogger() {
			logger = base
		}
		zapFields := make([]zap.Field, 0, len(fields)+1)
		zapFields = append(zapFields, zap.String("event", event))
		keys := make([]string, 0, len(fields))
		for key := range fields {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			zapFields = append(zapFields, fieldFor(key, fields[key]))
		}
		if strings.HasSuffix(event, "_failed") {
			logger.Warn(event, zapFields...)
			return
		}
		logger.Info(event, zapFields...)
	}
}

func fieldFor(key string, value any) zap.Field {
	switch strings.ToLower(key) {
	case "email", "clientemail", "client_email", "developeremail":
		return zap.String(key, MaskEmail(fmt.Sprint(value)))
	case "phone", "clientphone", "client_phone":
		return zap.String(key, MaskPhone(fmt.Sprint(value)))
	}
	if err, ok := value.(error); ok {
		return zap.NamedError(key, err)
	}
	return zap.Any(key, value)
}

// GooseLogger adapts zap to the printf-style logger used by the migration runner.
type GooseLogger struct {
	logger *zap.SugaredLogger
}

// NewGooseLogger creates a GooseLogger backed by the supplied logger.
func NewGooseLogger(logger *zap.Logger) GooseLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return GooseLogger{logger: logger.Sugar()}
}

// Printf logs migration progress at info.
func (a GooseLogger) Printf(format string, args ...any) {
	a.logger.Infof(strings.TrimSuffix(format, "\n"), args...)
}

// Fatalf logs at error. It does not exit; the migration runner reports the failure to its caller.
func (a GooseLogger) Fatalf(format string, args ...any) {
	a.logger.Errorf(strings.TrimSuffix(format, "\n"), args...)
}
