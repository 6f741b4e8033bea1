package ensilo

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/crimson-sun/ensilo-events/internal/model"
)

// lastSeen layouts in the order they are tried. Zone-less values are read
// in the configured location.
var timeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339Nano,
}

// collector sub-record field -> promoted top-level field
var collectorFields = [][2]string{
	{"id", "collector_id"},
	{"lastSeen", "collector_lastSeen"},
	{"device", "device"},
	{"operatingSystem", "operatingSystem"},
	{"macAddresses", "macAddresses"},
	{"ip", "ip"},
	{"collectorGroup", "collectorGroup"},
}

// NormalizeEvent decorates a behavioral event in place with message,
// category and timestamp, and resolves its nested collectors and users.
//
// One collector is promoted into the event's top-level fields. Two or more
// are returned as derived records sharing the event's eventId and
// timestamp. A non-null collectors list is always removed from the event.
// A nil event yields nil.
func NormalizeEvent(ev model.Record, loc *time.Location) (model.Record, []model.Record) {
	if ev == nil {
		return nil, nil
	}
	ev["message"] = fmt.Sprintf("Event ID: %s Process: %s Action: %s",
		str(ev["eventId"]), str(ev["process"]), str(ev["action"]))
	ev["category"] = model.CategoryEvents

	if raw, ok := ev["lastSeen"]; ok {
		ev["timestamp"] = toTimestamp(raw, loc)
	}

	if users, ok := ev["loggedUsers"].([]any); ok && len(users) == 1 {
		ev["user_name"] = users[0]
		delete(ev, "loggedUsers")
	}

	raw, ok := ev["collectors"]
	if !ok || raw == nil {
		return ev, nil
	}
	delete(ev, "collectors")

	collectors, ok := raw.([]any)
	if !ok {
		slog.Warn("unexpected collectors value, dropping", "event_id", str(ev["eventId"]), "type", fmt.Sprintf("%T", raw))
		return ev, nil
	}

	switch len(collectors) {
	case 0:
		return ev, nil
	case 1:
		promoteCollector(ev, collectors[0])
		return ev, nil
	}

	derived := make([]model.Record, 0, len(collectors))
	for _, c := range collectors {
		sub := model.Record{
			"eventId":  ev["eventId"],
			"message":  "Collector for Event ID: " + str(ev["eventId"]),
			"category": model.CategoryEvents,
		}
		if ts, ok := ev["timestamp"]; ok {
			sub["timestamp"] = ts
		}
		promoteCollector(sub, c)
		derived = append(derived, sub)
	}
	return ev, derived
}

func promoteCollector(dst model.Record, c any) {
	m, ok := c.(map[string]any)
	if !ok {
		return
	}
	for _, f := range collectorFields {
		if v, ok := m[f[0]]; ok {
			dst[f[1]] = v
		}
	}
}

// toTimestamp renders a vendor time as RFC 3339 in loc. Unparseable values
// are logged and returned unchanged.
func toTimestamp(raw any, loc *time.Location) any {
	s, ok := raw.(string)
	if !ok {
		slog.Warn("lastSeen is not a string, keeping raw value", "value", raw)
		return raw
	}
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t.In(loc).Format(time.RFC3339)
		}
	}
	slog.Warn("failed to parse lastSeen, keeping raw value", "value", s)
	return s
}

func str(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}
