package mapping

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crimson-sun/ensilo-events/internal/model"
)

func TestApply_RenamesOnlySharedKeys(t *testing.T) {
	m, err := New(model.CategoryEvents, DefaultEvents)
	require.NoError(t, err)

	in := model.Record{
		"eventId":     "42",
		"processPath": `C:\evil.exe`,
		"process":     "evil.exe",
		"category":    "events",
	}
	out := m.Apply(in)

	assert.Equal(t, model.Record{
		"event_id":     "42",
		"process_path": `C:\evil.exe`,
		"process":      "evil.exe",
		"category":     "events",
	}, out)
	// Input is not modified.
	assert.Contains(t, in, "eventId")
}

func TestApply_Idempotent(t *testing.T) {
	for _, tc := range []struct {
		category string
		table    map[string]string
	}{
		{model.CategoryEvents, DefaultEvents},
		{model.CategorySystemEvents, DefaultSystemEvents},
	} {
		m, err := New(tc.category, tc.table)
		require.NoError(t, err)

		in := model.Record{"description": "d", "date": "2026-10-19", "eventId": 1, "other": true}
		once := m.Apply(in)
		twice := m.Apply(once)
		assert.Equal(t, once, twice, tc.category)
	}
}

func TestApply_SystemEvents(t *testing.T) {
	m, err := New(model.CategorySystemEvents, DefaultSystemEvents)
	require.NoError(t, err)

	out := m.Apply(model.Record{"description": "Collector disconnected", "date": "2026-10-19 10:00:00"})
	assert.Equal(t, "Collector disconnected", out["message"])
	assert.Equal(t, "2026-10-19 10:00:00", out["timestamp"])
	assert.NotContains(t, out, "description")
	assert.NotContains(t, out, "date")
}

func TestNew_RejectsUnknownNames(t *testing.T) {
	_, err := New(model.CategoryEvents, map[string]string{"bogus": "message"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown source field")

	_, err = New(model.CategoryEvents, map[string]string{"eventId": "bogus"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown destination field")

	_, err = New("alerts", nil)
	require.Error(t, err)
}

func TestNew_RejectsChains(t *testing.T) {
	_, err := New(model.CategoryEvents, map[string]string{"eventId": "device", "device": "ip"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "itself renamed")
}

func TestParseOverrides(t *testing.T) {
	got, err := ParseOverrides(" lastSeen:last_seen , rules:rules ")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"lastSeen": "last_seen", "rules": "rules"}, got)

	got, err = ParseOverrides("")
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = ParseOverrides("lastSeen")
	require.Error(t, err)
}

func TestMerge(t *testing.T) {
	merged := Merge(DefaultEvents, map[string]string{"lastSeen": "last_seen"})
	assert.Len(t, merged, len(DefaultEvents)+1)
	assert.Equal(t, "last_seen", merged["lastSeen"])
	assert.NotContains(t, DefaultEvents, "lastSeen")
}

func TestFields(t *testing.T) {
	m, err := New(model.CategorySystemEvents, DefaultSystemEvents)
	require.NoError(t, err)
	assert.Equal(t, []string{"date", "description"}, m.Fields())
	assert.Equal(t, model.CategorySystemEvents, m.Category())
}

func TestFlatten(t *testing.T) {
	in := model.Record{
		"description": "policy changed",
		"component": map[string]any{
			"name": "core",
			"host": map[string]any{"ip": "10.0.0.1"},
		},
		"tags":  []any{"a", "b"},
		"empty": map[string]any{},
	}
	out := Flatten(in)

	assert.Equal(t, model.Record{
		"description":       "policy changed",
		"component_name":    "core",
		"component_host_ip": "10.0.0.1",
		"tags":              []any{"a", "b"},
		"empty":             map[string]any{},
	}, out)
}
