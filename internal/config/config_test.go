package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Addr)
	assert.Equal(t, "data/campus.db", cfg.Database.Path)
	assert.Equal(t, 20, cfg.Pagination.DefaultLimit)
	assert.Equal(t, 100, cfg.Pagination.MaxLimit)
	assert.Equal(t, time.Minute, cfg.Search.RebuildInterval)
	assert.Empty(t, cfg.Storage.Bucket)
	assert.Equal(t, "attachments", cfg.Storage.KeyPrefix)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CAMPUS_SERVER_ADDR", "127.0.0.1:9999")
	t.Setenv("CAMPUS_DATABASE_PATH", "/tmp/other.db")
	t.Setenv("CAMPUS_PAGINATION_DEFAULTLIMIT", "5")
	t.Setenv("CAMPUS_SEARCH_REBUILDINTERVAL", "30s")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9999", cfg.Server.Addr)
	assert.Equal(t, "/tmp/other.db", cfg.Database.Path)
	assert.Equal(t, 5, cfg.Pagination.DefaultLimit)
	assert.Equal(t, 30*time.Second, cfg.Search.RebuildInterval)
}

func TestLoadRejectsBadPagination(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CAMPUS_PAGINATION_DEFAULTLIMIT", "200")
	t.Setenv("CAMPUS_PAGINATION_MAXLIMIT", "100")

	_, err := Load()
	assert.ErrorContains(t, err, "default limit exceeds max limit")

	t.Setenv("CAMPUS_PAGINATION_DEFAULTLIMIT", "0")
	_, err = Load()
	assert.ErrorContains(t, err, "must be positive")
}

func TestLoadReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"),
		[]byte("# comment\nCAMPUS_STORAGE_BUCKET=\"campus-uploads\"\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("CAMPUS_STORAGE_BUCKET") })

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "campus-uploads", cfg.Storage.Bucket)
}
