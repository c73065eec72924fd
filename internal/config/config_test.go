package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, int32(10), cfg.Store.Pool.MaxConns)
	assert.Equal(t, int32(2), cfg.Store.Pool.MinConns)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, "localhost:6379", cfg.Cache.Addr)
	assert.InDelta(t, 2.0, cfg.Registry.RequestsPerSecond, 0.001)
	assert.Equal(t, 24, cfg.Risk.CacheTTLHours)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
store:
  driver: sqlite
  database_url: bizray.db
cache:
  enabled: false
risk:
  cache_ttl_hours: 6
log:
  level: debug
  format: console
server:
  port: 9090
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "bizray.db", cfg.Store.DatabaseURL)
	assert.False(t, cfg.Cache.Enabled)
	assert.Equal(t, 6, cfg.Risk.CacheTTLHours)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 9090, cfg.Server.Port)
}

func TestLoadFromEnv(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	t.Setenv("BIZRAY_STORE_DRIVER", "sqlite")
	t.Setenv("BIZRAY_STORE_DATABASE_URL", "bizray.db")
	t.Setenv("BIZRAY_CACHE_ADDR", "redis:6380")
	t.Setenv("BIZRAY_REGISTRY_API_KEY", "test-key")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "bizray.db", cfg.Store.DatabaseURL)
	assert.Equal(t, "redis:6380", cfg.Cache.Addr)
	assert.Equal(t, "test-key", cfg.Registry.APIKey)
}

func TestValidate(t *testing.T) {
	t.Run("postgres requires database url", func(t *testing.T) {
		cfg := &Config{Store: StoreConfig{Driver: "postgres"}}
		require.Error(t, cfg.Validate())

		cfg.Store.DatabaseURL = "postgres://localhost/bizray"
		assert.NoError(t, cfg.Validate())
	})

	t.Run("sqlite allows empty url", func(t *testing.T) {
		cfg := &Config{Store: StoreConfig{Driver: "sqlite"}}
		assert.NoError(t, cfg.Validate())
	})

	t.Run("unknown driver rejected", func(t *testing.T) {
		cfg := &Config{Store: StoreConfig{Driver: "oracle"}}
		assert.Error(t, cfg.Validate())
	})
}

func TestInitLogger(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	require.NotNil(t, zap.L())

	require.NoError(t, InitLogger(LogConfig{Level: "info", Format: "json"}))

	err := InitLogger(LogConfig{Level: "not-a-level", Format: "json"})
	assert.Error(t, err)
}
