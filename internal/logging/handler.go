package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Format selects the slog handler used by New.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// Options configures the process logger.
type Options struct {
	Debug  bool
	Format Format
	Writer io.Writer
	// AppName is attached to every record when set.
	AppName string
}

// ParseFormat maps a user supplied string to a Format, defaulting to text.
func ParseFormat(s string) Format {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(FormatJSON):
		return FormatJSON
	default:
		return FormatText
	}
}

// New builds a slog.Logger from opts. Logs go to stderr by default so
// that stdout stays free for the MCP stdio transport.
func New(opts Options) *slog.Logger {
	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}

	level := slog.LevelInfo
	if opts.Debug {
		level = slog.LevelDebug
	}
	hopts := &slog.HandlerOptions{Level: level}

	var h slog.Handler
	if opts.Format == FormatJSON {
		h = slog.NewJSONHandler(w, hopts)
	} else {
		h = slog.NewTextHandler(w, hopts)
	}

	logger := slog.New(h)
	if opts.AppName != "" {
		logger = logger.With(slog.String("app", opts.AppName))
	}
	return logger
}
