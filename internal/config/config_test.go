package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("STORE_DRIVER", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DriverMemory, cfg.StoreDriver)
	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, 32, cfg.LockShards)
}

func TestLoadFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "points.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
env: prod
http_port: "9090"
store_driver: redis
redis_addr: cache:6379
rate_rps: 5
`), 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("HTTP_PORT", "7070")
	t.Setenv("LOCK_SHARDS", "64")
	t.Setenv("APP_MIGRATE", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "prod", cfg.Env)
	assert.Equal(t, "7070", cfg.HTTPPort)
	assert.Equal(t, DriverRedis, cfg.StoreDriver)
	assert.Equal(t, "cache:6379", cfg.RedisAddr)
	assert.Equal(t, 5, cfg.RateRPS)
	assert.Equal(t, 64, cfg.LockShards)
	assert.True(t, cfg.Migrate)
	// untouched keys keep their defaults
	assert.Contains(t, cfg.MySQLDSN, "parseTime=true")
}

func TestLoadErrors(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")

	t.Setenv("STORE_DRIVER", "cassandra")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("STORE_DRIVER", "")
	t.Setenv("RATE_RPS", "many")
	_, err = Load()
	assert.Error(t, err)

	t.Setenv("RATE_RPS", "")
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	_, err = Load()
	assert.Error(t, err)
}
