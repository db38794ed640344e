package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 300*time.Millisecond, cfg.DebounceInterval())
	assert.Equal(t, 7*24*time.Hour, cfg.SnapshotMaxAge())
	assert.Empty(t, cfg.Include)
	assert.Empty(t, cfg.Exclude)
}

func TestLoad_AppliesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "loupe.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
debounce_millis = 150
include = ["src/**/*.jl"]
exclude = ["**/test/**"]

[caches]
hover = 64
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 150*time.Millisecond, cfg.DebounceInterval())
	assert.Equal(t, []string{"src/**/*.jl"}, cfg.Include)
	assert.Equal(t, []string{"**/test/**"}, cfg.Exclude)
	assert.Equal(t, 64, cfg.Caches.Hover)

	// Untouched fields keep defaults.
	assert.Equal(t, 7, cfg.SnapshotMaxAgeDays)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.Error(t, err)
}

func TestLoad_MalformedTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("debounce_millis = [not toml"), 0o644))
	_, err := Load(path)
	require.Error(t, err)
}
