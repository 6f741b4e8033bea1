// Package mapping renames vendor fields to delivered field names.
package mapping

import (
	"fmt"
	"sort"
	"strings"

	"github.com/crimson-sun/ensilo-events/internal/model"
)

// FieldMapping is a validated rename table for one event category.
type FieldMapping struct {
	category string
	renames  map[string]string
}

// Known vendor (source) fields per category.
var sourceFields = map[string]map[string]bool{
	model.CategoryEvents: set(
		"eventId", "process", "processPath", "action", "lastSeen", "firstSeen",
		"date", "rules", "collector_id", "collector_lastSeen", "device",
		"operatingSystem", "macAddresses", "ip", "collectorGroup", "user_name",
		"classification", "destinations", "organization", "certified", "muted",
	),
	model.CategorySystemEvents: set(
		"description", "date", "componentName", "componentType", "reason",
		"type", "severity", "organization",
	),
}

// Known delivered (destination) fields.
var destinationFields = set(
	"message", "timestamp", "event_id", "process_path", "process_name",
	"first_seen", "last_seen", "user_name", "collector_id", "collector_group",
	"device", "operating_system", "mac_addresses", "ip", "action", "rules",
	"component_name", "component_type", "reason", "severity", "type",
	"classification", "organization",
)

// DefaultEvents is the rename table for behavioral events.
var DefaultEvents = map[string]string{
	"date":        "timestamp",
	"eventId":     "event_id",
	"processPath": "process_path",
}

// DefaultSystemEvents is the rename table for system events.
var DefaultSystemEvents = map[string]string{
	"description": "message",
	"date":        "timestamp",
}

func set(names ...string) map[string]bool {
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[n] = true
	}
	return m
}

// New validates renames against the known field names of category.
func New(category string, renames map[string]string) (*FieldMapping, error) {
	src, ok := sourceFields[category]
	if !ok {
		return nil, fmt.Errorf("mapping: unknown category %q", category)
	}
	m := &FieldMapping{category: category, renames: make(map[string]string, len(renames))}
	for from, to := range renames {
		if !src[from] {
			return nil, fmt.Errorf("mapping: %s: unknown source field %q", category, from)
		}
		if !destinationFields[to] {
			return nil, fmt.Errorf("mapping: %s: unknown destination field %q", category, to)
		}
		m.renames[from] = to
	}
	for from, to := range m.renames {
		if _, chained := m.renames[to]; chained {
			return nil, fmt.Errorf("mapping: %s: %q -> %q is itself renamed", category, from, to)
		}
	}
	return m, nil
}

// Merge returns a copy of base with overrides applied on top.
func Merge(base, overrides map[string]string) map[string]string {
	out := make(map[string]string, len(base)+len(overrides))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range overrides {
		out[k] = v
	}
	return out
}

// ParseOverrides parses "src:dst,src:dst" into a rename table.
func ParseOverrides(s string) (map[string]string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	out := make(map[string]string)
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		from, to, ok := strings.Cut(pair, ":")
		from, to = strings.TrimSpace(from), strings.TrimSpace(to)
		if !ok || from == "" || to == "" {
			return nil, fmt.Errorf("mapping: malformed pair %q", pair)
		}
		out[from] = to
	}
	return out, nil
}

// Category returns the event category the mapping applies to.
func (m *FieldMapping) Category() string { return m.category }

// Fields returns the mapped source field names in sorted order.
func (m *FieldMapping) Fields() []string {
	names := make([]string, 0, len(m.renames))
	for k := range m.renames {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Apply returns a copy of r with every key present in both r and the table
// renamed. Other keys are left untouched. A renamed key overwrites an existing
// key of the destination name.
func (m *FieldMapping) Apply(r model.Record) model.Record {
	out := r.Clone()
	for _, from := range m.Fields() {
		v, ok := out[from]
		if !ok {
			continue
		}
		delete(out, from)
		out[m.renames[from]] = v
	}
	return out
}
