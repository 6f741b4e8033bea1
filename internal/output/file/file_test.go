package file

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crimson-sun/ensilo-events/internal/model"
)

func testRecord(category string) model.Record {
	return model.Record{
		"category":  category,
		"timestamp": "2026-10-19T10:00:00Z",
		"message":   "Event ID: 1 Process: a.exe Action: Blocked",
	}
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.Split(strings.TrimSpace(string(data)), "\n")
}

func TestWriteProducesValidNDJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.jsonl")
	out, err := New(path)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		require.NoError(t, out.Write(context.Background(), testRecord("events")))
	}
	require.NoError(t, out.Close())

	lines := readLines(t, path)
	require.Len(t, lines, 5)
	for i, line := range lines {
		var rec map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &rec), "line %d", i)
		assert.Equal(t, "events", rec["category"])
	}
}

func TestRotationTriggersAtMaxSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.jsonl")
	out, err := New(path, WithMaxSize(150))
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		require.NoError(t, out.Write(context.Background(), testRecord("events")))
	}
	require.NoError(t, out.Close())

	_, err = os.Stat(path + ".1")
	assert.NoError(t, err, "expected rotated file .1 to exist")
	assert.Len(t, readLines(t, path), 1)
}

func TestCloseFlushesData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.jsonl")
	out, err := New(path)
	require.NoError(t, err)

	require.NoError(t, out.Write(context.Background(), testRecord("system-events")))
	require.NoError(t, out.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotEmpty(t, data, "Close did not flush buffered data")
}

func TestFlushWritesBufferedData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.jsonl")
	out, err := New(path)
	require.NoError(t, err)
	defer out.Close()

	require.NoError(t, out.Write(context.Background(), testRecord("events")))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Empty(t, data, "record should still be buffered")

	require.NoError(t, out.Flush(context.Background()))
	assert.Len(t, readLines(t, path), 1)
}

func TestAppendsToExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("{\"category\":\"events\"}\n"), 0o644))

	out, err := New(path)
	require.NoError(t, err)
	require.NoError(t, out.Write(context.Background(), testRecord("events")))
	require.NoError(t, out.Close())

	assert.Len(t, readLines(t, path), 2)
}

func TestTestingPath(t *testing.T) {
	now := time.Date(2026, 10, 19, 8, 5, 9, 0, time.UTC)
	assert.Equal(t, filepath.Join("run", "output.20261019080509"), TestingPath("run", now))
}

func TestOpenError(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing", "out.jsonl"))
	require.Error(t, err)
}
