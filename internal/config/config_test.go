package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)
	require.Equal(t, ":8080", c.Server.Addr)
	require.Equal(t, "postgres", c.Storage.Driver)
	require.Equal(t, "postgres", c.StateLedger.Backend)
	require.Equal(t, "memory", c.Cache.Driver)
	require.Equal(t, "24h", c.Session.TTL)
}

func TestLoad_YAMLAndEnvOverride(t *testing.T) {
	path := writeConfig(t, `
server:
  addr: ":9999"
storage:
  driver: postgres
  dsn: postgres://localhost/app
tracker:
  client_id: from-yaml
`)
	t.Setenv("TRACKER_CLIENT_ID", "from-env")
	t.Setenv("SERVER_ADDR", ":7777")

	c, err := Load(path)
	require.NoError(t, err)
	// env pisa yaml
	require.Equal(t, ":7777", c.Server.Addr)
	require.Equal(t, "from-env", c.Tracker.ClientID)
	require.Equal(t, "postgres://localhost/app", c.Storage.DSN)
}

func TestLoad_SecretsOnlyFromEnv(t *testing.T) {
	path := writeConfig(t, `
tracker:
  client_secret: should-be-ignored
`)
	t.Setenv("TRACKER_CLIENT_SECRET", "real-secret")

	c, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "real-secret", c.Tracker.ClientSecret)
}

func TestValidate(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)

	// Sin DSN ni client_id no valida.
	require.Error(t, c.Validate())

	c.Storage.DSN = "postgres://localhost/app"
	c.Tracker.ClientID = "cid"
	require.NoError(t, c.Validate())

	c.StateLedger.Backend = "etcd"
	require.Error(t, c.Validate())
}

func TestDuration(t *testing.T) {
	require.Equal(t, 5*time.Minute, Duration("5m", time.Hour))
	require.Equal(t, time.Hour, Duration("", time.Hour))
	require.Equal(t, time.Hour, Duration("nonsense", time.Hour))
}
