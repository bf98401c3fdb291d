// Package logging configures the gatepass server's slog output and logs
// API requests.
package logging

import (
	"io"
	"log/slog"
	"os"
)

// Setup installs the default logger at level. Dev mode writes text for a
// terminal; otherwise records are JSON for log collection. Every record
// carries service=gatepass.
func Setup(devMode bool, level slog.Level) {
	slog.SetDefault(newLogger(os.Stdout, devMode, level))
}

func newLogger(w io.Writer, devMode bool, level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler = slog.NewJSONHandler(w, opts)
	if devMode {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler).With("service", "gatepass")
}
