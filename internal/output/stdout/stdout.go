package stdout

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/crimson-sun/ensilo-events/internal/model"
	"github.com/crimson-sun/ensilo-events/internal/output"
)

// Output writes records as NDJSON to a writer, stdout by default.
type Output struct {
	w io.Writer
}

// New creates an Output writing to os.Stdout.
func New() *Output {
	return &Output{w: os.Stdout}
}

// NewWriter creates an Output writing to w.
func NewWriter(w io.Writer) *Output {
	return &Output{w: w}
}

func (o *Output) Write(_ context.Context, record model.Record) error {
	data, err := output.Marshal(record)
	if err != nil {
		return err
	}
	if _, err := o.w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("stdout output: %w", err)
	}
	return nil
}

// Flush is a no-op; writes are unbuffered.
func (o *Output) Flush(context.Context) error { return nil }

func (o *Output) Close() error {
	return nil
}
