package logger

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/mhr3/rangesearch/internal/config"
)

type ctxKey struct{}

var (
	levels = []string{"debug", "info", "warn", "error"}

	_globalLevelLogger sync.Map
	_globalLogger      atomic.Pointer[zap.Logger]
	initLogOnce        sync.Once
)

func init() {
	for _, level := range levels {
		l, err := newLogger("text", level)
		if err != nil {
			panic(err)
		}
		_globalLevelLogger.Store(level, l)
	}
}

// InitLogger selects the process-wide logger from cfg.Log. Only the first
// call has any effect.
func InitLogger(cfg *config.Configuration) error {
	var err error
	initLogOnce.Do(func() {
		level := cfg.Log.Level
		if level == "" {
			level = "info"
		}
		var l *zap.Logger
		l, err = newLogger(cfg.Log.Format, level)
		if err != nil {
			return
		}
		_globalLogger.Store(l)
	})
	return err
}

// WithLogger attaches l to ctx; Ctx returns it from then on.
func WithLogger(ctx context.Context, l *zap.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

func Ctx(ctx context.Context) *zap.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(ctxKey{}).(*zap.Logger); ok {
			return l
		}
	}
	if l := _globalLogger.Load(); l != nil {
		return l
	}
	return levelLogger("warn")
}

func levelLogger(level string) *zap.Logger {
	v, _ := _globalLevelLogger.Load(level)
	return v.(*zap.Logger)
}

func newLogger(format string, level string) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()

	switch level {
	case "debug":
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		cfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		return nil, errors.Wrapf(config.ErrInvalidConfig, "invalid log level: %s", level)
	}

	if format == "json" {
		cfg.Encoding = "json"
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	} else {
		cfg.Encoding = "console"
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	cfg.EncoderConfig.EncodeTime = customTimeEncoder
	cfg.EncoderConfig.EncodeCaller = zapcore.ShortCallerEncoder
	cfg.EncoderConfig.EncodeDuration = zapcore.StringDurationEncoder

	return cfg.Build()
}

func customTimeEncoder(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(t.Format("2006/01/02 15:04:05.000 -07:00"))
}
