package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingDefaultFileYieldsDefaults(t *testing.T) {
	t.Setenv("REFERRIO_ENV", "")
	t.Setenv("JWT_SECRET", "")

	cfg, err := Load(DefaultConfigPath)
	require.NoError(t, err)

	assert.Equal(t, defaultPort, cfg.Port)
	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, "referrio.com", cfg.Domain.Root)
	assert.Contains(t, cfg.Domain.RootHosts, "www.referrio.com")
	assert.Equal(t, 5, cfg.Session.InactivityMinutes)
	assert.Equal(t, 20, cfg.Session.WarningSeconds)
	assert.Equal(t, "/portal", cfg.Session.ProtectedPrefix)
	assert.Equal(t, 12*time.Hour, cfg.SessionTTL())
	assert.True(t, cfg.IsDev())
}

func TestLoadMissingExplicitFileErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	assert.Error(t, err)
}

func TestLoadParsesAndNormalizes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	yaml := `
env: Production
port: 8080
domain:
  root: " Referr.IO "
session:
  inactivity_minutes: 10
  warning_seconds: 30
admin_email: " Admin@Referr.IO "
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.True(t, cfg.IsProd())
	assert.Equal(t, "referr.io", cfg.Domain.Root)
	assert.Equal(t, []string{"referr.io", "www.referr.io", "localhost"}, cfg.Domain.RootHosts)
	assert.Equal(t, "admin@referr.io", cfg.AdminEmail)
	assert.Equal(t, 10, cfg.Session.InactivityMinutes)
	assert.Equal(t, 30, cfg.Session.WarningSeconds)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("REFERRIO_ENV", "production")
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("SUPER_ADMIN_EMAIL", "root@referrio.com")

	cfg, err := Load(DefaultConfigPath)
	require.NoError(t, err)

	assert.True(t, cfg.IsProd())
	assert.Equal(t, "from-env", cfg.JWTSecret)
	assert.Equal(t, "root@referrio.com", cfg.AdminEmail)
}
