package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalEnvYAML = "server:\n  port: \"9090\"\n"

// setupDir writes config/dev.yaml in a temp dir and changes into it. Env vars
// read by Load are cleared for the duration of the test.
func setupDir(t *testing.T, yamlBody string) string {
	t.Helper()
	for _, k := range []string{"ENV_NAME", "BACKEND_API_URL", "MAP_TILES_API_KEY", "CACHE_BACKEND", "MEMCACHED_ADDRS", "DEV_MODE"} {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "config"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config", "dev.yaml"), []byte(yamlBody), 0o644))
	t.Chdir(dir)
	return dir
}

// TestLoad_Defaults verifies that a minimal file yields the documented defaults,
// including feed caching switched off.
func TestLoad_Defaults(t *testing.T) {
	setupDir(t, minimalEnvYAML)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.ServerPort)
	assert.False(t, cfg.DevMode)
	assert.Equal(t, "http://localhost:8081", cfg.BackendAPIURL)
	assert.Equal(t, 5*time.Second, cfg.BackendAPITimeout)
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
	assert.Equal(t, defaultFeedURL, cfg.FeedURL)
	assert.Equal(t, defaultProxyURL, cfg.FeedProxyURL)
	assert.Zero(t, cfg.FeedCacheTTL, "feed caching is off by default")
	assert.Zero(t, cfg.FeedCoalesceTimeout)
	assert.False(t, cfg.FeedBreakerEnabled)
	assert.Equal(t, "openlayers", cfg.MapDefaultProvider)
	assert.Empty(t, cfg.MapTilesAPIKey)
	assert.InDelta(t, 0.05, cfg.MapClickTolerance, 1e-9)
	assert.Equal(t, 256, cfg.MapMaxHandles)
	assert.Equal(t, "in_memory", cfg.CacheBackend)
	assert.Equal(t, "localhost:11211", cfg.MemcachedAddrs)
	assert.Equal(t, 50, cfg.RateLimitRPS)
	assert.Equal(t, 100, cfg.RateLimitBurst)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
}

func TestLoad_FileValues(t *testing.T) {
	setupDir(t, `
dev_mode: true
backend_api:
  url: http://backend:9000
  timeout: 2s
feed:
  cache_ttl: 15m
  refresh_schedule: "@every 10m"
  coalesce_timeout: 5s
  circuit_breaker:
    enabled: true
    failure_threshold: 4
map:
  default_provider: Simple
  max_handles: 16
cache:
  backend: memcached
`)

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.DevMode)
	assert.Equal(t, "http://backend:9000", cfg.BackendAPIURL)
	assert.Equal(t, 2*time.Second, cfg.BackendAPITimeout)
	assert.Equal(t, 15*time.Minute, cfg.FeedCacheTTL)
	assert.Equal(t, "@every 10m", cfg.FeedRefreshSchedule)
	assert.Equal(t, 5*time.Second, cfg.FeedCoalesceTimeout)
	assert.True(t, cfg.FeedBreakerEnabled)
	assert.Equal(t, 4, cfg.FeedBreakerFailureThreshold)
	assert.Equal(t, "simple", cfg.MapDefaultProvider)
	assert.Equal(t, 16, cfg.MapMaxHandles)
	assert.Equal(t, "memcached", cfg.CacheBackend)
}

// TestLoad_EnvOverrides verifies that environment variables win over file values.
func TestLoad_EnvOverrides(t *testing.T) {
	setupDir(t, "backend_api:\n  url: http://from-file\n")
	t.Setenv("BACKEND_API_URL", "http://from-env")
	t.Setenv("MAP_TILES_API_KEY", "tiles-key")
	t.Setenv("CACHE_BACKEND", "MEMCACHED")
	t.Setenv("MEMCACHED_ADDRS", "mc1:11211,mc2:11211")
	t.Setenv("DEV_MODE", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://from-env", cfg.BackendAPIURL)
	assert.Equal(t, "tiles-key", cfg.MapTilesAPIKey)
	assert.Equal(t, "memcached", cfg.CacheBackend)
	assert.Equal(t, "mc1:11211,mc2:11211", cfg.MemcachedAddrs)
	assert.True(t, cfg.DevMode)
}

// TestLoad_DotEnvFile verifies that .env supplies the tile key when the
// environment does not.
func TestLoad_DotEnvFile(t *testing.T) {
	dir := setupDir(t, minimalEnvYAML)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("MAP_TILES_API_KEY=dotenv-key\n"), 0o644))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "dotenv-key", cfg.MapTilesAPIKey)
}

func TestLoad_UsesEnvName(t *testing.T) {
	dir := setupDir(t, minimalEnvYAML)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config", "prod.yaml"), []byte("server:\n  port: \"7000\"\n"), 0o644))
	t.Setenv("ENV_NAME", "prod")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "7000", cfg.ServerPort)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		env  map[string]string
	}{
		{"bad yaml", "server: [", nil},
		{"bad cache backend", "cache:\n  backend: redis\n", nil},
		{"bad provider", "map:\n  default_provider: leaflet\n", nil},
		{"zero backend timeout", "backend_api:\n  timeout: 0s\n", nil},
		{"negative cache ttl", "feed:\n  cache_ttl: -1m\n", nil},
		{"bad dev mode", minimalEnvYAML, map[string]string{"DEV_MODE": "maybe"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setupDir(t, tt.yaml)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			cfg, err := Load()
			assert.Error(t, err)
			assert.Nil(t, cfg)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	setupDir(t, minimalEnvYAML)
	t.Setenv("ENV_NAME", "staging")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config file not found")
}

// TestLoad_RequestTimeoutRaised verifies that the request timeout is kept above
// the backend timeout.
func TestLoad_RequestTimeoutRaised(t *testing.T) {
	setupDir(t, "backend_api:\n  timeout: 12s\nrequest:\n  timeout: 5s\n")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 13*time.Second, cfg.RequestTimeout)
}
