package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warn"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel("info"))
	assert.Equal(t, slog.LevelInfo, parseLevel("verbose"))
}

func TestNewWritesJSONToFile(t *testing.T) {
	defer slog.SetDefault(slog.Default())

	var stderr bytes.Buffer
	path := filepath.Join(t.TempDir(), "islandlife.log")

	logger, cleanup, err := newLogger(&stderr, "info", path)
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("entity created", "id", "abc")
	cleanup()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, stderr.Bytes(), data)

	var line map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(data), &line))
	assert.Equal(t, "entity created", line["msg"])
	assert.Equal(t, "abc", line["id"])
	assert.NotContains(t, string(data), "hidden")
}
