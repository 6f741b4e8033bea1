// Package state persists the watermark between cycles.
package state

import "context"

// Store loads and saves the watermark of one state key.
// Load returns "" with a nil error when nothing has been saved yet.
type Store interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, watermark string) error
	Close() error
}
