package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, key := range []string{
		"PORT", "DATABASE_URL", "STORE_DRIVER", "REDIS_URL", "SESSION_DRIVER", "JWT_SECRET",
		"SESSION_TTL", "PAGE_SIZE", "CORS_ORIGIN", "LOG_LEVEL", "CONFIG_FILE",
		"user", "password", "host", "port", "dbname",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("STORE_DRIVER", DriverMemory)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, DriverRedis, cfg.SessionDriver)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 10, cfg.PageSize)
	assert.Equal(t, "*", cfg.CORSOrigin)
}

func TestLoadBuildsDatabaseURLFromParts(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("user", "tracker")
	t.Setenv("password", "pw")
	t.Setenv("host", "db.local")
	t.Setenv("port", "5432")
	t.Setenv("dbname", "tracker")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres://tracker:pw@db.local:5432/tracker?sslmode=require", cfg.DatabaseURL)
}

func TestLoadYAMLOverlay(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "env-secret")
	t.Setenv("STORE_DRIVER", DriverMemory)
	t.Setenv("PAGE_SIZE", "25")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: \"9090\"\nsessionDriver: memory\nsessionTTL: 30m\n"), 0o644))
	t.Setenv("CONFIG_FILE", path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, DriverMemory, cfg.SessionDriver)
	assert.Equal(t, 30*time.Minute, cfg.SessionTTL)
	assert.Equal(t, 25, cfg.PageSize)
	assert.Equal(t, "env-secret", cfg.JWTSecret)
}

func TestValidate(t *testing.T) {
	base := Config{JWTSecret: "s", StoreDriver: DriverMemory, SessionDriver: DriverMemory, PageSize: 10}
	require.NoError(t, base.Validate())

	noSecret := base
	noSecret.JWTSecret = ""
	assert.Error(t, noSecret.Validate())

	badDriver := base
	badDriver.StoreDriver = "mongo"
	assert.Error(t, badDriver.Validate())

	noURL := base
	noURL.StoreDriver = DriverPostgres
	assert.Error(t, noURL.Validate())
}
