package logging

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-resty/resty/v2"
)

// restyLogger forwards resty's internal diagnostics to the default slog
// logger, so they follow the destination chosen by Init.
type restyLogger struct{}

// RestyLogger returns a resty.Logger backed by slog.Default at call time.
func RestyLogger() resty.Logger { return restyLogger{} }

func (restyLogger) Errorf(format string, v ...any) { restyLog(slog.LevelError, format, v) }
func (restyLogger) Warnf(format string, v ...any)  { restyLog(slog.LevelWarn, format, v) }
func (restyLogger) Debugf(format string, v ...any) { restyLog(slog.LevelDebug, format, v) }

func restyLog(level slog.Level, format string, v []any) {
	msg := strings.TrimSpace(fmt.Sprintf(format, v...))
	slog.Default().Log(context.Background(), level, msg, "component", "resty")
}
