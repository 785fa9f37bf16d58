// Package obs contains observability utilities such as logging.
package obs

import (
	"log/slog"
	"os"
)

// NewLogger returns a structured JSON logger writing to stderr.
// Stdout is reserved for the MCP stdio transport, so nothing else in
// the process may write there.
func NewLogger() *slog.Logger {
	level := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "debug" {
		level = slog.LevelDebug
	}
	h := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return slog.New(h)
}
