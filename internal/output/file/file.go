package file

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/crimson-sun/ensilo-events/internal/model"
	"github.com/crimson-sun/ensilo-events/internal/output"
)

const (
	bufSize    = 64 * 1024
	maxBackups = 9
)

// TestingPrefix names the files written in testing mode.
const TestingPrefix = "output."

// Option configures a file Output.
type Option func(*Output)

// WithMaxSize sets the file size (bytes) at which rotation triggers.
// 0 (default) disables rotation.
func WithMaxSize(bytes int64) Option {
	return func(o *Output) { o.maxSize = bytes }
}

// Output appends NDJSON records to a file with buffered I/O and optional
// size-based rotation.
type Output struct {
	w       *bufio.Writer
	f       *os.File
	mu      sync.Mutex
	path    string
	maxSize int64 // 0 = no rotation
	written int64
}

// TestingPath returns the testing-mode output path in dir for a run at now.
func TestingPath(dir string, now time.Time) string {
	return filepath.Join(dir, TestingPrefix+now.Format("20060102150405"))
}

// New creates a file output that appends NDJSON to the given path.
func New(path string, opts ...Option) (*Output, error) {
	o := &Output{path: path}
	for _, opt := range opts {
		opt(o)
	}
	if err := o.openFile(); err != nil {
		return nil, err
	}
	return o, nil
}

// Path returns the file currently written to.
func (o *Output) Path() string { return o.path }

// Write encodes the record and appends it as one line.
func (o *Output) Write(_ context.Context, record model.Record) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	data, err := output.Marshal(record)
	if err != nil {
		return fmt.Errorf("file output: %w", err)
	}
	data = append(data, '\n')

	if o.maxSize > 0 && o.written > 0 && o.written+int64(len(data)) > o.maxSize {
		if err := o.rotate(); err != nil {
			return fmt.Errorf("file output: rotate: %w", err)
		}
	}

	n, err := o.w.Write(data)
	o.written += int64(n)
	if err != nil {
		return fmt.Errorf("file output: write: %w", err)
	}
	return nil
}

// Flush writes the buffered records to the file.
func (o *Output) Flush(context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.w.Flush(); err != nil {
		return fmt.Errorf("file output: flush: %w", err)
	}
	return nil
}

// Close flushes the buffer and closes the file.
func (o *Output) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.w.Flush(); err != nil {
		o.f.Close()
		return fmt.Errorf("file output: flush: %w", err)
	}
	return o.f.Close()
}

func (o *Output) openFile() error {
	f, err := os.OpenFile(o.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("file output: open %s: %w", o.path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return fmt.Errorf("file output: stat %s: %w", o.path, err)
	}
	o.f = f
	o.w = bufio.NewWriterSize(f, bufSize)
	o.written = info.Size()
	return nil
}

// rotate shifts {path}.N to {path}.N+1, moves the current file to {path}.1
// and reopens path. The oldest backup beyond maxBackups is overwritten.
func (o *Output) rotate() error {
	if err := o.w.Flush(); err != nil {
		return err
	}
	if err := o.f.Close(); err != nil {
		return err
	}

	for i := maxBackups - 1; i >= 1; i-- {
		os.Rename(fmt.Sprintf("%s.%d", o.path, i), fmt.Sprintf("%s.%d", o.path, i+1))
	}
	if err := os.Rename(o.path, o.path+".1"); err != nil {
		return err
	}

	o.written = 0
	return o.openFile()
}
