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

func TestLoadFrom_DefaultsWithoutConfigFile(t *testing.T) {
	cfg, err := LoadFrom(viper.New(), t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.False(t, cfg.Database.Enabled)
	assert.Equal(t, "hdcn:", cfg.Redis.KeyPrefix)
	assert.False(t, cfg.Redis.Enabled())
	assert.Equal(t, 10*time.Minute, cfg.Parameters.CacheTTL)
	assert.Equal(t, "@every 5m", cfg.Parameters.RefreshCron)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadFrom_FileAndEnvironment(t *testing.T) {
	dir := t.TempDir()
	yaml := `
server:
  port: 9000
redis:
  url: redis://localhost:6379/0
parameters:
  remote_url: https://cdn.example.org/parameters.json
  cache_ttl: 2m
log:
  format: json
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.yaml"), []byte(yaml), 0o644))
	t.Setenv("HDCN_SERVER_PORT", "9100")

	cfg, err := LoadFrom(viper.New(), dir)
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Server.Port, "environment overrides file")
	assert.True(t, cfg.Redis.Enabled())
	assert.Equal(t, "https://cdn.example.org/parameters.json", cfg.Parameters.RemoteURL)
	assert.Equal(t, 2*time.Minute, cfg.Parameters.CacheTTL)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadFrom_DotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("HDCN_LOG_LEVEL=debug\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("HDCN_LOG_LEVEL") })

	cfg, err := LoadFrom(viper.New(), dir)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadFrom_VerifyTokensNeedsSecret(t *testing.T) {
	t.Setenv("HDCN_AUTH_VERIFY_TOKENS", "true")

	_, err := LoadFrom(viper.New(), t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jwt_secret")
}

func TestDatabaseConfig_ConnString(t *testing.T) {
	d := DatabaseConfig{User: "hdcn", Password: "pw", Host: "db", Port: 5432, Name: "members"}
	assert.Equal(t, "postgres://hdcn:pw@db:5432/members?sslmode=disable", d.ConnString())
}
