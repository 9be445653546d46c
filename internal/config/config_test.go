package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv(TokenEnv, "")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, BackendJSON, cfg.Storage.Backend)
	assert.Equal(t, "https://api.telegram.org", cfg.Telegram.APIURL)
	assert.Equal(t, 30*time.Second, cfg.SchedulerInterval())
	assert.Equal(t, 10*time.Second, cfg.SchedulerInitialDelay())
	assert.Equal(t, ":5000", cfg.HTTP.Addr)
	assert.True(t, cfg.Scheduler.Enabled)
	assert.Equal(t, int64(1), cfg.Console.UserID)
	assert.NotContains(t, cfg.Storage.Dir, "~")
	require.NoError(t, cfg.Validate())
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := writeConfig(t, `
storage:
  backend: sqlite
  sqlite_path: /tmp/promemoria-test.db
scheduler:
  interval: 15
timezone: Europe/Rome
`)
	t.Setenv("PROMEMORIA_SCHEDULER__INTERVAL", "45")
	t.Setenv("PROMEMORIA_LOG__LEVEL", "debug")
	t.Setenv(TokenEnv, "123:abc")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, BackendSQLite, cfg.Storage.Backend)
	assert.Equal(t, "/tmp/promemoria-test.db", cfg.Storage.SQLitePath)
	assert.Equal(t, 45*time.Second, cfg.SchedulerInterval())
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "123:abc", cfg.Telegram.BotToken)
	require.NoError(t, cfg.ValidateTelegram())

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Europe/Rome", loc.String())
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, BackendJSON, cfg.Storage.Backend)
}

func TestLoad_BrokenYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "storage: [unterminated"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown backend", func(c *Config) { c.Storage.Backend = "redis" }},
		{"sqlite without path", func(c *Config) { c.Storage.Backend = BackendSQLite; c.Storage.SQLitePath = "" }},
		{"zero interval", func(c *Config) { c.Scheduler.Interval = 0 }},
		{"poll timeout too long", func(c *Config) { c.Telegram.PollTimeout = 120 }},
		{"bad log level", func(c *Config) { c.Log.Level = "verbose" }},
		{"bad timezone", func(c *Config) { c.Timezone = "Mars/Olympus" }},
		{"http without addr", func(c *Config) { c.HTTP.Enabled = true; c.HTTP.Addr = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load("")
			require.NoError(t, err)
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestValidateTelegram_RequiresToken(t *testing.T) {
	t.Setenv(TokenEnv, "")
	cfg, err := Load("")
	require.NoError(t, err)

	err = cfg.ValidateTelegram()
	require.Error(t, err)
	assert.Contains(t, err.Error(), TokenEnv)
}

func TestLocation_DefaultsToLocal(t *testing.T) {
	cfg := &Config{}
	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, time.Local, loc)
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "storage.sqlite_path", envKey("PROMEMORIA_STORAGE__SQLITE_PATH"))
	assert.Equal(t, "timezone", envKey("PROMEMORIA_TIMEZONE"))
}
