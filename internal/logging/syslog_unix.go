//go:build !windows && !plan9

package logging

import (
	"context"
	"io"
	"log/slog"
	"log/syslog"
	"strings"
	"sync"
)

// Facility is the syslog facility for diagnostic logs.
const Facility = syslog.LOG_LOCAL6

// priorityWriter is the subset of *syslog.Writer used for logging.
type priorityWriter interface {
	Debug(m string) error
	Info(m string) error
	Warning(m string) error
	Err(m string) error
}

// levelWriter routes each formatted line to the syslog priority of the
// record being handled.
type levelWriter struct {
	mu    sync.Mutex
	level slog.Level
	w     priorityWriter
}

func (lw *levelWriter) Write(p []byte) (int, error) {
	msg := strings.TrimRight(string(p), "\n")
	var err error
	switch {
	case lw.level >= slog.LevelError:
		err = lw.w.Err(msg)
	case lw.level >= slog.LevelWarn:
		err = lw.w.Warning(msg)
	case lw.level >= slog.LevelInfo:
		err = lw.w.Info(msg)
	default:
		err = lw.w.Debug(msg)
	}
	if err != nil {
		return 0, err
	}
	return len(p), nil
}

type syslogHandler struct {
	slog.Handler
	out *levelWriter
}

func (h *syslogHandler) Handle(ctx context.Context, r slog.Record) error {
	h.out.mu.Lock()
	defer h.out.mu.Unlock()
	h.out.level = r.Level
	return h.Handler.Handle(ctx, r)
}

func (h *syslogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &syslogHandler{Handler: h.Handler.WithAttrs(attrs), out: h.out}
}

func (h *syslogHandler) WithGroup(name string) slog.Handler {
	return &syslogHandler{Handler: h.Handler.WithGroup(name), out: h.out}
}

// newLeveledHandler wraps w in a TextHandler without the time attribute;
// syslog stamps each message itself.
func newLeveledHandler(w priorityWriter, opts *slog.HandlerOptions) *syslogHandler {
	o := *opts
	o.ReplaceAttr = func(groups []string, a slog.Attr) slog.Attr {
		if len(groups) == 0 && a.Key == slog.TimeKey {
			return slog.Attr{}
		}
		return a
	}
	out := &levelWriter{w: w}
	return &syslogHandler{Handler: slog.NewTextHandler(out, &o), out: out}
}

func newSyslogHandler(tag string, opts *slog.HandlerOptions) (slog.Handler, io.Closer, error) {
	w, err := syslog.New(Facility|syslog.LOG_INFO, tag)
	if err != nil {
		return nil, nil, err
	}
	return newLeveledHandler(w, opts), w, nil
}
