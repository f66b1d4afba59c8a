// Package observability wires structured logging and tracing for the
// training engine. Business logic receives loggers and tracers by injection;
// nothing in here is consulted from inside a transition decision.
package observability

import (
	"io"
	"log/slog"
	"strings"

	"github.com/haven-sec/rehearse/internal/types"
)

// LogConfig selects the verbosity and wire format of the process logger.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// NewLogger builds a slog.Logger writing to w. Level is one of debug, info,
// warn, error; format is text or json.
func NewLogger(cfg LogConfig, w io.Writer) (*slog.Logger, error) {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "", "text":
		handler = slog.NewTextHandler(w, opts)
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	default:
		return nil, types.NewErrorf(types.CONFIG_VALIDATION_FAILED, "unknown log format %q", cfg.Format)
	}
	return slog.New(handler), nil
}

func parseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, types.NewErrorf(types.CONFIG_VALIDATION_FAILED, "unknown log level %q", level)
	}
}
