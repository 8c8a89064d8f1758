package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte("{}"))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.CacheTTL)
	assert.Equal(t, 30*time.Minute, cfg.Server.SessionTTL)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.NotEmpty(t, cfg.Database.DSN)
	assert.Equal(t, "db", cfg.Provider.Kind)
	assert.Equal(t, 10*time.Second, cfg.Provider.Timeout)
	assert.Equal(t, "log", cfg.Backend.Kind)
	assert.Equal(t, int64(2), cfg.Booking.ExtraTimeQuestionID)
	assert.Equal(t, time.UTC, cfg.Location())
	assert.Equal(t, 1, cfg.WorkerPool.Size)
	assert.Equal(t, 3600, cfg.Push.TTL)
}

func TestParse_ExpandsEnv(t *testing.T) {
	t.Setenv("BOOKING_TEST_URL", "http://backend.local/bookings")

	cfg, err := Parse([]byte(`
backend:
  kind: http
  url: "${BOOKING_TEST_URL}"
`))
	require.NoError(t, err)
	assert.Equal(t, "http://backend.local/bookings", cfg.Backend.URL)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown driver", "database:\n  driver: mysql\n"},
		{"http provider without url", "provider:\n  kind: http\n"},
		{"unknown provider", "provider:\n  kind: ftp\n"},
		{"http backend without url", "backend:\n  kind: http\n"},
		{"bad timezone", "booking:\n  timezone: Mars/Olympus\n"},
		{"bad yaml", "server: [\n"},
		{"ip header without trusted proxy", "server:\n  request_ip_header: X-Forwarded-For\n"},
		{"bad trusted proxy", "server:\n  request_ip_header: X-Real-IP\n  trusted_proxies: [\"proxy.local\"]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 9090\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestParse_TrustedProxies(t *testing.T) {
	cfg, err := Parse([]byte(`
server:
  request_ip_header: X-Real-IP
  trusted_proxies: ["10.0.0.0/8", "192.0.2.7"]
`))
	require.NoError(t, err)
	assert.Equal(t, "X-Real-IP", cfg.Server.RequestIPHeader)
	assert.Equal(t, []string{"10.0.0.0/8", "192.0.2.7"}, cfg.Server.TrustedProxies)
}

func TestLoad_ShippedConfigTrustsNoHeader(t *testing.T) {
	cfg, err := Load("config.yaml")
	require.NoError(t, err)
	assert.Empty(t, cfg.Server.RequestIPHeader)
	assert.Empty(t, cfg.Server.TrustedProxies)
}
