//go:build !windows && !plan9

// Package syslog delivers records to a syslog daemon, one JSON message each.
package syslog

import (
	"context"
	"fmt"
	"log/syslog"

	"github.com/crimson-sun/ensilo-events/internal/model"
	"github.com/crimson-sun/ensilo-events/internal/output"
)

// Facility used for forwarded events. Diagnostics go to LOCAL6.
const Facility = syslog.LOG_LOCAL7

type writer interface {
	Info(m string) error
	Close() error
}

// Output writes records to syslog at LOCAL7.INFO.
type Output struct {
	w writer
}

// New dials the syslog daemon. An empty network and address select the
// local daemon socket.
func New(network, address, tag string) (*Output, error) {
	w, err := syslog.Dial(network, address, Facility|syslog.LOG_INFO, tag)
	if err != nil {
		return nil, fmt.Errorf("syslog output: dial: %w", err)
	}
	return &Output{w: w}, nil
}

func (o *Output) Write(_ context.Context, record model.Record) error {
	data, err := output.Marshal(record)
	if err != nil {
		return fmt.Errorf("syslog output: %w", err)
	}
	if err := o.w.Info(string(data)); err != nil {
		return fmt.Errorf("syslog output: write: %w", err)
	}
	return nil
}

func (o *Output) Flush(context.Context) error { return nil }

func (o *Output) Close() error {
	return o.w.Close()
}
