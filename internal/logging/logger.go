package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

//nolint:gochecknoglobals
var levelByName = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// Config holds logger construction parameters.
type Config struct {
	// AppName is added to every record as "app" when set.
	AppName string
	// Output is "stdout", "stderr" (default), "discard" or a file path.
	Output string
	// Level is "debug", "info" (default), "warn" or "error".
	Level string
	// JSON selects the JSON handler instead of the text handler.
	JSON bool

	// OutputHandle overrides Output. Tests only.
	OutputHandle io.Writer
}

// New builds a logger from cfg. The returned closer releases a log file and is
// a no-op for the standard streams.
func New(cfg Config) (*slog.Logger, func() error, error) {
	out, closer, err := openOutput(cfg)
	if err != nil {
		return nil, nil, err
	}

	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level, slog.LevelInfo)}

	var handler slog.Handler
	switch {
	case out == io.Discard:
		handler = slog.DiscardHandler
	case cfg.JSON:
		handler = slog.NewJSONHandler(out, opts)
	default:
		handler = slog.NewTextHandler(out, opts)
	}

	logger := slog.New(handler)
	if cfg.AppName != "" {
		logger = logger.With("app", cfg.AppName)
	}
	return logger, closer, nil
}

// ParseLevel maps a level name to a slog.Level, falling back for unknown
// names.
func ParseLevel(name string, fallback slog.Level) slog.Level {
	level, ok := levelByName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return fallback
	}
	return level
}

func openOutput(cfg Config) (io.Writer, func() error, error) {
	noop := func() error { return nil }
	if cfg.OutputHandle != nil {
		return cfg.OutputHandle, noop, nil
	}

	switch strings.TrimSpace(cfg.Output) {
	case "", "stderr":
		return os.Stderr, noop, nil
	case "stdout":
		return os.Stdout, noop, nil
	case "discard":
		return io.Discard, noop, nil
	default:
		file, err := os.OpenFile(cfg.Output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		return file, file.Close, nil
	}
}
