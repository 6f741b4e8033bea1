// Package window computes the [from, to] query window of a poll cycle.
package window

import (
	"fmt"
	"time"
)

// Layout is the wire and watermark format used for window bounds.
const Layout = "2006-01-02 15:04:05"

// FirstRunLookback is added to the offset when no watermark exists yet.
const FirstRunLookback = 15 * time.Minute

// Window is the query range of one cycle, formatted in the configured zone.
type Window struct {
	From string
	To   string
}

// Compute derives the window for a cycle starting at now.
//
// The upper bound trails now by offset to tolerate ingestion delay on the
// vendor side. With no prior watermark the lower bound is now minus
// (offset + 15m), floored to the minute; otherwise it is the watermark itself.
func Compute(now time.Time, watermark string, offset time.Duration, loc *time.Location) (Window, error) {
	if loc == nil {
		loc = time.UTC
	}
	if offset < 0 {
		return Window{}, fmt.Errorf("window: negative offset %v", offset)
	}

	to := now.Add(-offset).In(loc)
	w := Window{To: to.Format(Layout)}

	if watermark == "" {
		from := now.Add(-(offset + FirstRunLookback)).Truncate(time.Minute).In(loc)
		w.From = from.Format(Layout)
		return w, nil
	}

	if _, err := time.ParseInLocation(Layout, watermark, loc); err != nil {
		return Window{}, fmt.Errorf("window: invalid watermark %q: %w", watermark, err)
	}
	w.From = watermark
	return w, nil
}

// Bounds parses both ends of w in loc.
func (w Window) Bounds(loc *time.Location) (time.Time, time.Time, error) {
	from, err := time.ParseInLocation(Layout, w.From, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("window: from: %w", err)
	}
	to, err := time.ParseInLocation(Layout, w.To, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("window: to: %w", err)
	}
	return from, to, nil
}
