package logging_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/bawdo/sqlpage/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"DEBUG": slog.LevelDebug,
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		"Warn":  slog.LevelWarn,
		"ERROR": slog.LevelError,
		"":      slog.LevelInfo,
		"TRACE": slog.LevelInfo,
	}
	for name, want := range tests {
		assert.Equal(t, want, logging.ParseLevel(name), "ParseLevel(%q)", name)
	}
}

func TestNewWriterTextFiltersLevel(t *testing.T) {
	var buf bytes.Buffer
	log := logging.NewWriter(&buf, logging.Config{Level: logging.LevelWarn})

	log.Info("hidden")
	log.Warn("shown", "rows", 3)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "msg=shown")
	assert.Contains(t, out, "rows=3")
}

func TestNewWriterJSON(t *testing.T) {
	var buf bytes.Buffer
	log := logging.NewWriter(&buf, logging.Config{Level: logging.LevelDebug, Format: "json"})
	logging.WithEngine(logging.WithStatement(log, "select 1"), "sqlite").Debug("parsed")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "parsed", rec["msg"])
	assert.Equal(t, "select 1", rec["statement"])
	assert.Equal(t, "sqlite", rec["engine"])
}

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "sqlpage.log")
	log, closer, err := logging.New(logging.Config{OutputPath: path})
	require.NoError(t, err)

	log.Info("written")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "msg=written")
}

func TestNewDefaultsToStderr(t *testing.T) {
	log, closer, err := logging.New(logging.Config{})
	require.NoError(t, err)
	assert.NotNil(t, log)
	assert.NoError(t, closer.Close())
}
