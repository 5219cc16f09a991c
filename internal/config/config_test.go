package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	t.Parallel()

	cfg := Default()
	assert.True(t, cfg.Editor.Strict)
	assert.False(t, cfg.Editor.SafeMode)
	assert.Equal(t, "./images/", cfg.Editor.ImagesFolder)
	assert.Equal(t, 4, cfg.Editor.Indent)
	assert.Equal(t, ".spine-editor/history", cfg.Storage.Path)
	assert.Equal(t, 500*time.Millisecond, cfg.Workspace.Debounce)
	assert.Equal(t, 4, cfg.Workspace.Concurrency)
	assert.Equal(t, 16, cfg.MCP.SessionCacheSize)
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, "spine-editor", cfg.Logger.ServiceName)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spine-editor.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
editor:
  strict: false
  indent: 2
workspace:
  debounce: 2s
logger:
  level: debug
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.False(t, cfg.Editor.Strict)
	assert.Equal(t, 2, cfg.Editor.Indent)
	assert.Equal(t, 2*time.Second, cfg.Workspace.Debounce)
	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Equal(t, 4, cfg.Workspace.Concurrency)
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("SPINE_EDITOR_EDITOR_SAFE_MODE", "true")
	t.Setenv("SPINE_EDITOR_WORKSPACE_CONCURRENCY", "8")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.True(t, cfg.Editor.SafeMode)
	assert.Equal(t, 8, cfg.Workspace.Concurrency)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		key  string
		val  any
	}{
		{"negative indent", "editor.indent", -1},
		{"zero concurrency", "workspace.concurrency", 0},
		{"zero cache", "mcp.session_cache_size", 0},
		{"empty storage path", "storage.path", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			v := viper.New()
			SetDefaults(v)
			v.Set(tt.key, tt.val)
			_, err := NewConfigFromViper(v)
			assert.ErrorContains(t, err, tt.key)
		})
	}
}

func TestValidate_InMemoryNeedsNoPath(t *testing.T) {
	t.Parallel()

	v := viper.New()
	SetDefaults(v)
	v.Set("storage.path", "")
	v.Set("storage.in_memory", true)
	_, err := NewConfigFromViper(v)
	assert.NoError(t, err)
}
