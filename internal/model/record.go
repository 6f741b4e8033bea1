package model

// Record is a single log record as delivered to an output. Keys are vendor
// field names until a field mapping renames them.
type Record map[string]any

// Event categories attached to every record.
const (
	CategoryEvents       = "events"
	CategorySystemEvents = "system-events"
)

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	cp := make(Record, len(r))
	for k, v := range r {
		cp[k] = v
	}
	return cp
}
