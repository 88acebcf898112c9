package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestBuildJSON(t *testing.T) {
	var buf bytes.Buffer
	l, cleanup := Build(Options{Level: "info", JSON: true, Output: &buf})
	l.Debug("hidden")
	l.Info("meal saved", zap.Int64("id", 7))
	cleanup()

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)
	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	assert.Equal(t, "meal saved", entry["msg"])
	assert.Equal(t, float64(7), entry["id"])
	assert.Contains(t, entry, "ts")
}

func TestBuildInvalidLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	l, cleanup := Build(Options{Level: "loud", JSON: true, Output: &buf})
	l.Debug("hidden")
	l.Info("shown")
	cleanup()
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestBuildWithRotate(t *testing.T) {
	file := filepath.Join(t.TempDir(), "app.log")
	var buf bytes.Buffer
	l, cleanup := Build(Options{
		Level:  "info",
		JSON:   true,
		Output: &buf,
		Rotate: FileRotate{Enable: true, Filename: file, MaxSizeMB: 1},
	})
	l.Info("to file")
	cleanup()

	b, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(b), "to file")
}

func TestToWriter(t *testing.T) {
	var buf bytes.Buffer
	l, cleanup := Build(Options{Level: "debug", JSON: true, Output: &buf})
	w := ToWriter(l, zapcore.WarnLevel)
	_, err := w.Write([]byte("[GIN-debug] route registered\n"))
	require.NoError(t, err)
	cleanup()

	assert.Contains(t, buf.String(), `"level":"warn"`)
	assert.Contains(t, buf.String(), "route registered")
}

func TestBuildAppFieldAndConsoleFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "app.log")
	var buf bytes.Buffer
	l, cleanup := Build(Options{
		Level:  "info",
		App:    "kapp-api",
		Output: &buf,
		Rotate: FileRotate{Enable: true, Filename: file},
	})
	l.Info("booted")
	cleanup()

	assert.Contains(t, buf.String(), "booted")
	assert.Contains(t, buf.String(), "kapp-api")

	b, err := os.ReadFile(file)
	require.NoError(t, err)
	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(b), &entry))
	assert.Equal(t, "kapp-api", entry["app"])
	assert.Equal(t, "booted", entry["msg"])
}
