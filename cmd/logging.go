package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// setupLogging installs the default slog handler for --log-level/--log-format
func setupLogging(w io.Writer, level, format string) error {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}

	opts := &slog.HandlerOptions{Level: lvl}
	var handler slog.Handler
	switch strings.ToLower(format) {
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	case "text", "":
		handler = slog.NewTextHandler(w, opts)
	default:
		return fmt.Errorf("invalid log format %q (supported: text, json)", format)
	}

	slog.SetDefault(slog.New(handler))
	return nil
}
