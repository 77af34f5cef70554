package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, "http://results.jdupserver.com/api/v1/", cfg.Client.BaseURL)
	assert.Equal(t, 15*time.Second, cfg.Client.Timeout)
	assert.Equal(t, 6, cfg.Client.RecentSessions)
	assert.Equal(t, DriverMemory, cfg.Database.Driver)
	assert.Equal(t, "/api/v1", cfg.Server.APIPrefix)
	assert.False(t, cfg.Cache.Enabled)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("API_BASE_URL", "http://localhost:9000/api/v1/")
	t.Setenv("HTTP_TIMEOUT", "3s")
	t.Setenv("RECENT_SESSIONS", "-2")
	t.Setenv("DB_DRIVER", "POSTGRES")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test, ,http://b.test")
	t.Setenv("ACCOUNT_FILE", "/tmp/results/account.yaml")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:9000/api/v1/", cfg.Client.BaseURL)
	assert.Equal(t, 3*time.Second, cfg.Client.Timeout)
	assert.Equal(t, 6, cfg.Client.RecentSessions)
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "/tmp/results/account.yaml", cfg.Client.AccountFile)
}

func TestExpandHome(t *testing.T) {
	t.Setenv("HOME", "/home/student")
	assert.Equal(t, filepath.Join("/home/student", ".config/results/account.yaml"), expandHome("~/.config/results/account.yaml"))
	assert.Equal(t, "/etc/account.yaml", expandHome("/etc/account.yaml"))
	assert.Equal(t, 2*time.Second, parseDuration("bogus", 2*time.Second))
}
