package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"DEBUG":   slog.LevelDebug,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), "level %q", in)
	}
}

func TestNew_WritesJSONWithModule(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "kreport", "v0.1.0", "info")

	l.Debug("hidden")
	l.Info("collected", "nodes", 3)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "collected", rec["msg"])
	assert.Equal(t, "kreport", rec["module"])
	assert.Equal(t, "v0.1.0", rec["version"])
	assert.EqualValues(t, 3, rec["nodes"])
}
