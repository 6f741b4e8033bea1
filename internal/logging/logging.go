package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Init creates and sets the package-level default slog logger.
// When console is true, uses TextHandler on stderr. Otherwise logs go to the
// local syslog daemon under facility LOCAL6 with the given tag, falling back
// to stderr when syslog cannot be reached. The returned Closer releases the
// syslog connection.
func Init(console bool, level slog.Level, tag string) io.Closer {
	opts := &slog.HandlerOptions{Level: level}
	if !console {
		h, closer, err := newSyslogHandler(tag, opts)
		if err == nil {
			slog.SetDefault(slog.New(h))
			return closer
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, opts)))
		slog.Warn("syslog unavailable, logging to stderr", "error", err)
		return nopCloser{}
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, opts)))
	return nopCloser{}
}

// ParseLevel converts a string ("debug", "info", "warn", "error") to slog.Level.
// Unknown strings default to LevelInfo.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
