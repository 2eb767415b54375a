package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"tenant-chat/internal/config"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := `
server:
  addr: ":9090"
database:
  url: "postgres://localhost/test"
rabbitmq:
  url: "amqp://localhost"
channels:
  max_participants: 5
dispatch:
  workers: 3
auth:
  jwt_secret: "secret"
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.Server.Addr)
	require.Equal(t, "postgres://localhost/test", cfg.Database.URL)
	require.Equal(t, 5, cfg.Channels.MaxParticipants)
	require.Equal(t, 3, cfg.Dispatch.Workers)
	require.Equal(t, "secret", cfg.Auth.JWTSecret)
}

func TestLoadConfigDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`auth: {jwt_secret: "s"}`), 0o600))

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.Server.Addr)
	require.Equal(t, 9, cfg.Channels.MaxParticipants)
	require.Equal(t, 1, cfg.Dispatch.Workers)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := config.LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}
