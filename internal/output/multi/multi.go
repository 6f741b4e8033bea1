package multi

import (
	"context"
	"errors"
	"fmt"

	"github.com/crimson-sun/ensilo-events/internal/model"
	"github.com/crimson-sun/ensilo-events/internal/output"
)

// Sink is a named output inside a Multi.
type Sink struct {
	Name   string
	Output output.Output
}

// Multi fans out every record to several sinks in order. A failing sink
// does not stop delivery to the ones after it.
type Multi struct {
	sinks []Sink
}

// New creates a Multi over the given sinks.
func New(sinks ...Sink) *Multi {
	return &Multi{sinks: sinks}
}

// Names returns the sink names in delivery order.
func (m *Multi) Names() []string {
	names := make([]string, len(m.sinks))
	for i, s := range m.sinks {
		names[i] = s.Name
	}
	return names
}

// Write delivers the record to every sink and joins their errors.
func (m *Multi) Write(ctx context.Context, record model.Record) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Output.Write(ctx, record); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.Name, err))
		}
	}
	return errors.Join(errs...)
}

// Flush flushes every sink and joins their errors.
func (m *Multi) Flush(ctx context.Context) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Output.Flush(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.Name, err))
		}
	}
	return errors.Join(errs...)
}

// Close closes every sink and joins their errors.
func (m *Multi) Close() error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Output.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.Name, err))
		}
	}
	return errors.Join(errs...)
}
