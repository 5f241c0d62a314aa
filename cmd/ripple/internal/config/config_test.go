package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-drift/ripple/pkg/engine"
	"github.com/go-drift/ripple/pkg/errors"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestResolve_Defaults(t *testing.T) {
	dir := t.TempDir()
	r, err := Resolve(dir)
	require.NoError(t, err)

	assert.Equal(t, filepath.Base(dir), r.AppName)
	assert.Empty(t, r.ModulePath)
	assert.Equal(t, ModeLoop, r.Mode)
	assert.Equal(t, engine.DefaultBudget, r.Budget)
	assert.Equal(t, engine.DefaultTick, r.Tick)
	assert.Equal(t, slog.LevelInfo, r.LogLevel)
	assert.Equal(t, "text", r.LogFormat)
	assert.Empty(t, r.DebugAddr)
	assert.Empty(t, r.StorePath)
}

func TestResolve_File(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, FileName, `
scheduler:
  mode: sync
  budget: 4ms
  tick: 10ms
debug:
  addr: 127.0.0.1:6060
log:
  level: debug
  format: JSON
store:
  path: todos.db
`)
	r, err := Resolve(dir)
	require.NoError(t, err)

	assert.Equal(t, ModeSync, r.Mode)
	assert.Equal(t, 4*time.Millisecond, r.Budget)
	assert.Equal(t, 10*time.Millisecond, r.Tick)
	assert.Equal(t, "127.0.0.1:6060", r.DebugAddr)
	assert.Equal(t, slog.LevelDebug, r.LogLevel)
	assert.Equal(t, "json", r.LogFormat)
	assert.Equal(t, filepath.Join(dir, "todos.db"), r.StorePath)
}

func TestResolve_AppNameFromModule(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "go.mod", "module example.com/team/notes/v2\n\ngo 1.24\n")

	r, err := Resolve(dir)
	require.NoError(t, err)
	assert.Equal(t, "example.com/team/notes/v2", r.ModulePath)
	assert.Equal(t, "notes", r.AppName)

	writeFile(t, dir, FileName, "app:\n  name: shopping\n")
	r, err = Resolve(dir)
	require.NoError(t, err)
	assert.Equal(t, "shopping", r.AppName)
}

func TestResolve_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"mode", "scheduler:\n  mode: eager\n"},
		{"budget", "scheduler:\n  budget: soon\n"},
		{"negative tick", "scheduler:\n  tick: -1ms\n"},
		{"level", "log:\n  level: loud\n"},
		{"format", "log:\n  format: xml\n"},
		{"syntax", "scheduler: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeFile(t, dir, FileName, tt.yaml)

			_, err := Resolve(dir)
			require.Error(t, err)
			var engErr *errors.EngineError
			require.True(t, errors.As(err, &engErr), "got %T", err)
			assert.Equal(t, errors.KindConfig, engErr.Kind)
		})
	}
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"", slog.LevelInfo},
		{"debug", slog.LevelDebug},
		{"WARN", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}
