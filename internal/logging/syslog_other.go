//go:build windows || plan9

package logging

import (
	"errors"
	"io"
	"log/slog"
)

func newSyslogHandler(string, *slog.HandlerOptions) (slog.Handler, io.Closer, error) {
	return nil, nil, errors.New("syslog is not supported on this platform")
}
