package output

import (
	"context"

	"github.com/crimson-sun/ensilo-events/internal/model"
)

// Output is the log sink every forwarded record is written to.
type Output interface {
	Write(ctx context.Context, record model.Record) error
	// Flush delivers anything still buffered. A nil return means every
	// record written so far has left the process.
	Flush(ctx context.Context) error
	Close() error
}
