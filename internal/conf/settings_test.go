package conf

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetops/sysmgmt/internal/errors"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sysmgmt.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	// No config file: defaults and environment only. Run from a temp dir so
	// a stray sysmgmt.yaml in the working directory cannot leak in.
	t.Chdir(t.TempDir())

	s, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "info", s.LogLevel)
	assert.Equal(t, ":8090", s.HTTP.Listen)
	assert.Equal(t, "sqlite", s.Database.Driver)
	assert.Equal(t, "sysmgmt.db", s.Database.DSN)
	assert.Equal(t, 5*time.Second, s.Push.SendTimeout.Std())
	assert.Equal(t, 60, s.Push.TTL)
	assert.Equal(t, 8, s.Push.Concurrency)
	assert.False(t, s.Notify.Enabled)
	assert.Equal(t, time.Second, s.Device.PollInterval.Std())
	assert.Equal(t, 30, s.Device.ScheduleDays)
	assert.Equal(t, 2, s.Device.MaxAlertsPerDay)
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, `
log_level: debug
http:
  listen: ":9000"
database:
  driver: mysql
  dsn: "user:pass@tcp(localhost:3306)/sysmgmt"
admin:
  token: secret
push:
  vapid_public_key: pub
  vapid_private_key: priv
  send_timeout: 2s
device:
  poll_interval: 250ms
`)

	s, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", s.LogLevel)
	assert.Equal(t, ":9000", s.HTTP.Listen)
	assert.Equal(t, "mysql", s.Database.Driver)
	assert.Equal(t, "secret", s.Admin.Token)
	assert.Equal(t, 2*time.Second, s.Push.SendTimeout.Std())
	assert.Equal(t, 250*time.Millisecond, s.Device.PollInterval.Std())
	// Untouched keys keep their defaults.
	assert.Equal(t, 60, s.Push.TTL)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SYSMGMT_ADMIN_TOKEN", "from-env")
	t.Setenv("SYSMGMT_HTTP_LISTEN", ":7070")

	s, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "from-env", s.Admin.Token)
	assert.Equal(t, ":7070", s.HTTP.Listen)
}

func TestLoadUnreadableFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Equal(t, "config-file-unreadable", errors.CodeOf(err))
}

func TestValidateServe(t *testing.T) {
	valid := func() *Settings {
		return &Settings{
			Database: DatabaseConfig{Driver: "sqlite", DSN: "sysmgmt.db"},
			Admin:    AdminConfig{Token: "secret"},
			Push:     PushConfig{VAPIDPublicKey: "pub", VAPIDPrivateKey: "priv"},
		}
	}

	require.NoError(t, valid().ValidateServe())

	tests := []struct {
		name     string
		mutate   func(*Settings)
		wantCode string
	}{
		{"missing dsn", func(s *Settings) { s.Database.DSN = "" }, "config-database-dsn-missing"},
		{"missing admin token", func(s *Settings) { s.Admin.Token = "" }, "config-admin-token-missing"},
		{"missing public key", func(s *Settings) { s.Push.VAPIDPublicKey = "" }, "config-vapid-keys-missing"},
		{"missing private key", func(s *Settings) { s.Push.VAPIDPrivateKey = "" }, "config-vapid-keys-missing"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid()
			tt.mutate(s)
			err := s.ValidateServe()
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, errors.CodeOf(err))
		})
	}
}
