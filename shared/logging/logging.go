package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a production logger at the given level. An empty level means info.
func New(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.Encoding = "console"

	if lvl := strings.TrimSpace(level); lvl != "" {
		var parsed zapcore.Level
		if err := parsed.UnmarshalText([]byte(lvl)); err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", level, err)
		}
		cfg.Level = zap.NewAtomicLevelAt(parsed)
	}

	return cfg.Build()
}

// MustNew is New for suite setup, falling back to a no-op logger.
func MustNew(level string) *zap.Logger {
	logger, err := New(level)
	if err != nil {
		fallback, ferr := New("info")
		if ferr != nil {
			return zap.NewNop()
		}
		fallback.Warn("Invalid log level in config, using default", zap.String("level", level), zap.Error(err))
		return fallback
	}
	return logger
}
