package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load(New(), "")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(DefaultDir(), DBFileName), cfg.DB)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, "stderr", cfg.Log.File)
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := "db: " + filepath.Join(dir, "custom.db") + "\nlog:\n  level: debug\n  format: json\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(New(), path)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "custom.db"), cfg.DB)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("db: from-file.db\nlog:\n  level: info\n"), 0644))

	t.Setenv("DIAG_DB", "from-env.db")
	t.Setenv("DIAG_LOG_LEVEL", "error")

	cfg, err := Load(New(), path)
	require.NoError(t, err)

	assert.Equal(t, "from-env.db", cfg.DB)
	assert.Equal(t, "error", cfg.Log.Level)
}

func TestLoad_ExplicitValueWins(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("DIAG_DB", "from-env.db")

	v := New()
	v.Set("db", "explicit.db")

	cfg, err := Load(v, "")
	require.NoError(t, err)
	assert.Equal(t, "explicit.db", cfg.DB)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(New(), filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "read config")
}

func TestLoad_EmptyDatabasePath(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	v := New()
	v.Set("db", "")

	_, err := Load(v, "")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "database path is empty")
}
