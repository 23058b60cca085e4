package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arzzra/asterisk_manager/pkg/manager"
)

// TestLoadFileConfig - TOML накладывается поверх значений по умолчанию,
// не заданные ключи остаются дефолтными.
func TestLoadFileConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
user = "admin"
password = "secret"
host = "pbx.local"
inbound = ["incoming", "did-.*"]
connect_timeout_ms = 1500
metrics_addr = ":9091"
`), 0o644))

	cfg, metricsAddr, err := loadFileConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "admin", cfg.User)
	assert.Equal(t, "secret", cfg.Password)
	assert.Equal(t, "pbx.local", cfg.Host)
	assert.Equal(t, manager.DefaultPort, cfg.Port)
	assert.Equal(t, manager.EventsOn, cfg.Events)
	assert.Equal(t, []string{"incoming", "did-.*"}, cfg.Inbound)
	assert.Equal(t, 1500*time.Millisecond, cfg.ConnectTimeout)
	assert.Equal(t, ":9091", metricsAddr)
}

func TestLoadFileConfigMissing(t *testing.T) {
	_, _, err := loadFileConfig(filepath.Join(t.TempDir(), "absent.toml"))
	require.Error(t, err)
}

// TestLoadEnvConfig - переменные окружения переопределяют дефолты.
func TestLoadEnvConfig(t *testing.T) {
	t.Setenv("AMI_USER", "envuser")
	t.Setenv("AMI_HOST", "env.pbx")
	t.Setenv("AMI_PORT", "5039")
	t.Setenv("AMI_EVENTS", "off")
	t.Setenv("AMI_INBOUND", "a,b")
	t.Setenv("AMI_CONNECT_TIMEOUT", "2s")

	cfg, err := loadEnvConfig()
	require.NoError(t, err)

	assert.Equal(t, "envuser", cfg.User)
	assert.Equal(t, "env.pbx", cfg.Host)
	assert.Equal(t, 5039, cfg.Port)
	assert.Equal(t, manager.EventsOff, cfg.Events)
	assert.Equal(t, []string{"a", "b"}, cfg.Inbound)
	assert.Equal(t, 2*time.Second, cfg.ConnectTimeout)
}
