package auth_api_config

import (
	"errors"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	ErrMissingDSN           = ErrConfig("config: db.dsn is required")
	ErrMissingAccessSecret  = ErrConfig("config: auth.access_secret is required")
	ErrMissingRefreshSecret = ErrConfig("config: auth.refresh_secret is required")
	ErrSameSecrets          = ErrConfig("config: auth.access_secret and auth.refresh_secret must differ")
	ErrMissingAdminEmail    = ErrConfig("config: bootstrap.admin_email is required")
	ErrMissingAdminPassword = ErrConfig("config: bootstrap.admin_password is required")
	ErrBadTTL               = ErrConfig("config: auth.access_ttl and auth.refresh_ttl must be positive")
)

// Load reads path (optional YAML), then .env, then the process environment.
// Environment keys are the dotted names upper-cased with "_", e.g.
// AUTH_ACCESS_SECRET.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	v := viper.New()
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
		_ = v.ReadInConfig()
	}

	v.SetDefault("app.name", "auth-api")
	v.SetDefault("app.env", "dev")
	v.SetDefault("app.version", "dev")

	v.SetDefault("server.http_addr", ":5500")
	v.SetDefault("server.metrics_addr", "")
	v.SetDefault("server.read_timeout", "5s")
	v.SetDefault("server.write_timeout", "10s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("server.graceful_timeout", "15s")
	v.SetDefault("server.cors_origins", []string{"http://localhost:5173"})
	v.SetDefault("server.static_dir", "")

	v.SetDefault("db.dsn", "")
	v.SetDefault("db.max_conns", 20)
	v.SetDefault("db.min_conns", 2)
	v.SetDefault("db.max_conn_lifetime", "30m")
	v.SetDefault("db.max_conn_idle_time", "10m")
	v.SetDefault("db.health_check_period", "30s")
	v.SetDefault("db.query_timeout", "2s")

	v.SetDefault("otel.enable", false)
	v.SetDefault("otel.service_name", "auth-api")
	v.SetDefault("otel.sample_ratio", 1.0)
	v.SetDefault("otel.otlp_endpoint", "localhost:4317")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	v.SetDefault("auth.access_secret", "")
	v.SetDefault("auth.refresh_secret", "")
	v.SetDefault("auth.access_ttl", "168h")
	v.SetDefault("auth.refresh_ttl", "720h")
	v.SetDefault("auth.cookie_domain", "")
	v.SetDefault("auth.bcrypt_cost", 10)

	v.SetDefault("bootstrap.admin_email", "")
	v.SetDefault("bootstrap.admin_password", "")

	v.SetDefault("audit.enable", true)
	v.SetDefault("audit.buffer", 1024)
	v.SetDefault("audit.kafka_brokers", []string{})
	v.SetDefault("audit.kafka_topic", "auth.audit")
	v.SetDefault("audit.kafka_timeout", "3s")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch {
	case c.DB.DSN == "":
		return ErrMissingDSN
	case c.Auth.AccessSecret == "":
		return ErrMissingAccessSecret
	case c.Auth.RefreshSecret == "":
		return ErrMissingRefreshSecret
	case c.Auth.AccessSecret == c.Auth.RefreshSecret:
		return ErrSameSecrets
	case c.Auth.AccessTTL <= 0 || c.Auth.RefreshTTL <= 0:
		return ErrBadTTL
	case c.Bootstrap.AdminEmail == "":
		return ErrMissingAdminEmail
	case c.Bootstrap.AdminPassword == "":
		return ErrMissingAdminPassword
	}
	return nil
}
