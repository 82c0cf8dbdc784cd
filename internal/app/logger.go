package app

import (
	"log/slog"
	"os"
)

// NewLogger builds the process logger. JSON output feeds log
// collectors, text is for local runs; both carry source locations so a
// ledger read failure points at the query site.
func NewLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{AddSource: true}
	var handler slog.Handler
	if cfg != nil && cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.New(handler).With(slog.String("service", "meridian"))
}
