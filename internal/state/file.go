package state

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// File stores the watermark as a single line in {dir}/{key}.state.
type File struct {
	path string
}

// NewFile creates dir if needed and returns a File store for key.
func NewFile(dir, key string) (*File, error) {
	if key == "" {
		return nil, errors.New("state: empty key")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("state: mkdir %s: %w", dir, err)
	}
	return &File{path: filepath.Join(dir, key+".state")}, nil
}

// Path returns the backing file path.
func (f *File) Path() string { return f.path }

func (f *File) Load(_ context.Context) (string, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("state: read %s: %w", f.path, err)
	}
	return strings.TrimSpace(string(data)), nil
}

// Save replaces the state file atomically via a temp file and rename.
func (f *File) Save(_ context.Context, watermark string) error {
	tmp, err := os.CreateTemp(filepath.Dir(f.path), filepath.Base(f.path)+".tmp*")
	if err != nil {
		return fmt.Errorf("state: create temp: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(watermark + "\n"); err != nil {
		tmp.Close()
		return fmt.Errorf("state: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("state: close: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("state: rename: %w", err)
	}
	return nil
}

func (f *File) Close() error { return nil }
