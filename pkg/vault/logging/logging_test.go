package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input   string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"INFO", LevelInfo, false},
		{"warning", LevelWarn, false},
		{"error", LevelError, false},
		{"", LevelInfo, false},
		{"loud", LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			got, err := ParseLevel(tt.input)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidLevel)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want.String(), got.String())
		})
	}
}

// Init mutates package state; these tests do not run in parallel.
func TestInit_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vault.log")

	early := Get("early")

	require.NoError(t, Init(Config{Level: "debug", Path: path}))
	t.Cleanup(func() { _ = Close() })

	early.Info("logger created before init", "k", "v")
	Get("transfer").Debug("copied payload", "dest", "/tmp/x")

	require.NoError(t, Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "logger created before init")
	assert.Contains(t, string(data), "copied payload")
	assert.Contains(t, string(data), "transfer")
}

func TestInit_ComponentOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vault.log")

	require.NoError(t, Init(Config{
		Level:      "info",
		Path:       path,
		Components: map[string]string{"catalog": "error"},
	}))
	t.Cleanup(func() { _ = Close() })

	Get("catalog").Warn("suppressed warning")
	Get("manager").Warn("visible warning")
	require.NoError(t, Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "suppressed warning")
	assert.Contains(t, string(data), "visible warning")
}

func TestInit_InvalidLevels(t *testing.T) {
	dir := t.TempDir()

	err := Init(Config{Level: "nope", Path: filepath.Join(dir, "a.log")})
	assert.ErrorIs(t, err, ErrInvalidLevel)

	err = Init(Config{Level: "info", Path: filepath.Join(dir, "b.log"), Components: map[string]string{"x": "nope"}})
	assert.ErrorIs(t, err, ErrInvalidLevel)

	err = Init(Config{Level: "info", Path: filepath.Join(dir, "c.log"), ConsoleLevel: "nope"})
	assert.ErrorIs(t, err, ErrInvalidLevel)
}

func TestLogger_With(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vault.log")
	require.NoError(t, Init(Config{Level: "info", Path: path}))
	t.Cleanup(func() { _ = Close() })

	Get("import").With("package", "Hero").Info("import started")
	require.NoError(t, Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	line := strings.TrimSpace(string(data))
	assert.Contains(t, line, "package=Hero")
	assert.Equal(t, "import", Get("import").Component())
}

func TestRotatingWriter_SizeRotation(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "vault.log")

	w, err := NewRotatingWriter(path, RotationConfig{MaxSize: 16, MaxBackups: 10})
	require.NoError(t, err)

	_, err = w.Write([]byte("0123456789\n"))
	require.NoError(t, err)
	_, err = w.Write([]byte("abcdefghij\n"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "abcdefghij\n", string(data))
	assert.Len(t, w.backups(), 1)
}

func TestRotatingWriter_PruneMaxBackups(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "vault.log")

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 4; i++ {
		name := filepath.Join(dir, "vault.2026-01-0"+string(rune('1'+i))+"-120000.log")
		require.NoError(t, os.WriteFile(name, []byte("old"), 0o644))
		mt := base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, os.Chtimes(name, mt, mt))
	}

	w, err := NewRotatingWriter(path, RotationConfig{MaxBackups: 2})
	require.NoError(t, err)
	defer w.Close()

	remaining := w.backups()
	require.Len(t, remaining, 2)
	assert.Contains(t, remaining[0], "2026-01-04")
	assert.Contains(t, remaining[1], "2026-01-03")
}

func TestRotatingWriter_WriteAfterClose(t *testing.T) {
	t.Parallel()

	w, err := NewRotatingWriter(filepath.Join(t.TempDir(), "vault.log"), RotationConfig{})
	require.NoError(t, err)
	require.NoError(t, w.Close())

	_, err = w.Write([]byte("late"))
	assert.ErrorIs(t, err, os.ErrClosed)
}

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	assert.Equal(t, "info", cfg.Level)
	assert.True(t, strings.HasSuffix(cfg.Path, filepath.Join("vault", "vault.log")))
	assert.Equal(t, int64(defaultMaxSize), cfg.Rotation.MaxSize)
}
