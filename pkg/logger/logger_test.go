package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, "info").With("component", "clicks")

	l.Info("click recorded", "link_id", 7)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "click recorded", entry["msg"])
	assert.Equal(t, "clicks", entry["component"])
	assert.EqualValues(t, 7, entry["link_id"])
}

func TestLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, "warn")

	l.Info("hidden")
	l.Debug("hidden")
	assert.Zero(t, buf.Len())

	l.Warn("shown")
	assert.Contains(t, buf.String(), "shown")
}
