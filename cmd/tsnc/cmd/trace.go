package cmd

import (
	"log/slog"
	"os"
)

// traceLogger returns a log/slog logger that writes to stderr at Debug
// level when -v is set, Warn level otherwise — a thin trace facility
// distinct from internal/diag's compiler diagnostics, which always go
// into the JSON dump regardless of this flag.
func traceLogger() *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return slog.New(handler)
}
