package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestSchedulerLogger_Debug(t *testing.T) {
	var buf bytes.Buffer
	sl := NewSchedulerLogger(zerolog.New(&buf).Level(zerolog.DebugLevel))

	sl.Debug("tick", "name", "pose-blend", "priority", 100000)

	entry := decodeLine(t, &buf)
	assert.Equal(t, "debug", entry["level"])
	assert.Equal(t, "tick", entry["message"])
	assert.Equal(t, "pose-blend", entry["name"])
	assert.Equal(t, float64(100000), entry["priority"])
}

func TestSchedulerLogger_Info(t *testing.T) {
	var buf bytes.Buffer
	sl := NewSchedulerLogger(zerolog.New(&buf))

	sl.Info("registered", "name", "rig")

	entry := decodeLine(t, &buf)
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "rig", entry["name"])
}

func TestSchedulerLogger_Error(t *testing.T) {
	var buf bytes.Buffer
	sl := NewSchedulerLogger(zerolog.New(&buf))

	sl.Error("tick panicked", "name", "rig", "reason", "boom")

	entry := decodeLine(t, &buf)
	assert.Equal(t, "error", entry["level"])
	assert.Equal(t, "boom", entry["reason"])
}

func TestSchedulerLogger_FiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	sl := NewSchedulerLogger(zerolog.New(&buf).Level(zerolog.InfoLevel))

	sl.Debug("hidden")
	assert.Empty(t, buf.String())
}

func TestToFields_OddAndNonStringKeys(t *testing.T) {
	fields := toFields([]any{"a", 1, 2, "b", "dangling"})
	assert.Equal(t, map[string]any{"a": 1}, fields)
}
