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
	path := filepath.Join(t.TempDir(), "env.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	path := writeConfig(t, "env: development\n")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "pagewatch", cfg.ServiceName)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, 5*time.Second, cfg.Scheduler.TickInterval)
	assert.Equal(t, 5, cfg.Scheduler.MinIntervalSec)
	assert.Equal(t, "https://ntfy.sh", cfg.Notifier.BaseURL)
	assert.Equal(t, "data/screenshots", cfg.Artifacts.Dir)
	assert.Equal(t, 60*time.Second, cfg.Fetcher.NavigationTimeout)
	assert.False(t, cfg.AuthEnabled())
}

func TestLoadConfigFileOverrides(t *testing.T) {
	path := writeConfig(t, `
env: production
port: 9090
scheduler:
  tick_interval: 2s
  min_interval_sec: 10
fetcher:
  driver: http
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, 2*time.Second, cfg.Scheduler.TickInterval)
	assert.Equal(t, 10, cfg.Scheduler.MinIntervalSec)
	assert.Equal(t, "http", cfg.Fetcher.Driver)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	path := writeConfig(t, "env: development\n")
	t.Setenv("NOTIFIER_BASE_URL", "https://push.example.com")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "https://push.example.com", cfg.Notifier.BaseURL)
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "tick longer than minimum interval",
			body: "scheduler:\n  tick_interval: 10s\n  min_interval_sec: 5\n",
			want: "scheduler.tick_interval",
		},
		{
			name: "postgres without url",
			body: "store:\n  driver: postgres\n",
			want: "db.url",
		},
		{
			name: "unknown fetcher driver",
			body: "fetcher:\n  driver: curl\n",
			want: "Driver",
		},
		{
			name: "auth secret without admin hash",
			body: "auth:\n  secret: s3cret\n",
			want: "auth.admin_password_hash",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config")
}
