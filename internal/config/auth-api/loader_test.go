package auth_api_config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var requiredEnv = map[string]string{
	"DB_DSN":                   "postgres://u:p@localhost:5432/auth?sslmode=disable",
	"AUTH_ACCESS_SECRET":       "access",
	"AUTH_REFRESH_SECRET":      "refresh",
	"BOOTSTRAP_ADMIN_EMAIL":    "admin@example.com",
	"BOOTSTRAP_ADMIN_PASSWORD": "admin123",
}

func setEnv(t *testing.T, env map[string]string) {
	t.Helper()
	for k, v := range env {
		t.Setenv(k, v)
	}
}

func TestLoadDefaults(t *testing.T) {
	setEnv(t, requiredEnv)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":5500", cfg.Server.HTTPAddr)
	assert.Equal(t, 168*time.Hour, cfg.Auth.AccessTTL)
	assert.Equal(t, 720*time.Hour, cfg.Auth.RefreshTTL)
	assert.Equal(t, 10, cfg.Auth.BcryptCost)
	assert.Equal(t, 2*time.Second, cfg.DB.QueryTimeout)
	assert.Equal(t, "auth-api", cfg.App.Name)
	assert.False(t, cfg.App.Production())
	assert.True(t, cfg.Audit.Enable)

	_, ok := cfg.Audit.AsKafkaConfig()
	assert.False(t, ok, "no brokers configured")

	tc := cfg.Auth.AsTokenConfig()
	assert.Equal(t, []byte("access"), tc.AccessSecret)
	assert.Equal(t, []byte("refresh"), tc.RefreshSecret)
}

func TestLoadRequiredKeys(t *testing.T) {
	tests := []struct {
		unset string
		want  error
	}{
		{"DB_DSN", ErrMissingDSN},
		{"AUTH_ACCESS_SECRET", ErrMissingAccessSecret},
		{"AUTH_REFRESH_SECRET", ErrMissingRefreshSecret},
		{"BOOTSTRAP_ADMIN_EMAIL", ErrMissingAdminEmail},
		{"BOOTSTRAP_ADMIN_PASSWORD", ErrMissingAdminPassword},
	}
	for _, tt := range tests {
		t.Run(tt.unset, func(t *testing.T) {
			env := make(map[string]string, len(requiredEnv))
			for k, v := range requiredEnv {
				env[k] = v
			}
			env[tt.unset] = ""
			setEnv(t, env)

			_, err := Load("")
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestLoadRejectsSharedSecret(t *testing.T) {
	setEnv(t, requiredEnv)
	t.Setenv("AUTH_REFRESH_SECRET", "access")

	_, err := Load("")
	assert.ErrorIs(t, err, ErrSameSecrets)
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "auth-api.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
app:
  env: production
server:
  http_addr: ":7000"
  cors_origins: ["https://app.example.com"]
  static_dir: /srv/web
auth:
  access_ttl: 15m
  cookie_domain: example.com
audit:
  kafka_brokers: ["kafka:9092"]
`), 0o600))
	setEnv(t, requiredEnv)
	t.Setenv("SERVER_HTTP_ADDR", ":7100")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":7100", cfg.Server.HTTPAddr, "env wins over file")
	assert.Equal(t, []string{"https://app.example.com"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "/srv/web", cfg.Server.StaticDir)
	assert.Equal(t, 15*time.Minute, cfg.Auth.AccessTTL)

	co := cfg.Auth.AsCookieOpts(cfg.App)
	assert.True(t, co.Production)
	assert.Equal(t, "example.com", co.Domain)

	kc, ok := cfg.Audit.AsKafkaConfig()
	require.True(t, ok)
	assert.Equal(t, []string{"kafka:9092"}, kc.Brokers)
	assert.Equal(t, "auth.audit", kc.Topic)
}
