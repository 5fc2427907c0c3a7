// Package observability provides logging initialization.
package observability

import (
	"io"
	"log/slog"
	"os"

	"golang.org/x/term"
)

// InitSlog initializes a logger writing to stderr. When running in a
// terminal, it uses a human-readable text format; otherwise it uses JSON for
// structured logging.
func InitSlog(level slog.Level, devMode bool) *slog.Logger {
	return NewLogger(os.Stderr, term.IsTerminal(int(os.Stdin.Fd())), level, devMode)
}

// NewLogger builds a logger over out. Source locations are included in dev
// mode.
func NewLogger(out io.Writer, text bool, level slog.Level, devMode bool) *slog.Logger {
	opts := &slog.HandlerOptions{
		AddSource: devMode,
		Level:     level,
	}
	var handler slog.Handler
	if text {
		handler = slog.NewTextHandler(out, opts)
	} else {
		handler = slog.NewJSONHandler(out, opts)
	}
	return slog.New(handler)
}
