package auth_api_config

import (
	"time"

	"github.com/NordCoder/authgate/internal/audit"
	"github.com/NordCoder/authgate/internal/obs"
	"github.com/NordCoder/authgate/internal/repository/kafka"
	pg "github.com/NordCoder/authgate/internal/repository/postgres"
	"github.com/NordCoder/authgate/internal/services/auth-api/auth"
	"github.com/NordCoder/authgate/internal/token"
)

type App struct {
	Name    string `mapstructure:"name"`
	Env     string `mapstructure:"env"`
	Version string `mapstructure:"version"`
}

func (a *App) Production() bool { return a.Env == "production" }

type Server struct {
	HTTPAddr        string        `mapstructure:"http_addr"`
	MetricsAddr     string        `mapstructure:"metrics_addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	GracefulTimeout time.Duration `mapstructure:"graceful_timeout"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
	// StaticDir holds the built web app; empty serves the API only.
	StaticDir       string        `mapstructure:"static_dir"`
}

type OTEL struct {
	Enable       bool    `mapstructure:"enable"`
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	ServiceName  string  `mapstructure:"service_name"`
	SampleRatio  float64 `mapstructure:"sample_ratio"`
}

func (oc *OTEL) AsOTELConfig(app App) obs.OTELConfig {
	return obs.OTELConfig{
		Enable:         oc.Enable,
		Endpoint:       oc.OTLPEndpoint,
		ServiceName:    oc.ServiceName,
		ServiceVersion: app.Version,
		Environment:    app.Env,
		SampleRatio:    oc.SampleRatio,
	}
}

type Log struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

func (lc *Log) AsLoggerConfig(app App) obs.LogConfig {
	return obs.LogConfig{
		Level:  lc.Level,
		Pretty: lc.Pretty,
		App:    "authgate/" + app.Name,
		Env:    app.Env,
		Ver:    app.Version,
	}
}

type Auth struct {
	AccessSecret  string        `mapstructure:"access_secret"`
	RefreshSecret string        `mapstructure:"refresh_secret"`
	AccessTTL     time.Duration `mapstructure:"access_ttl"`
	RefreshTTL    time.Duration `mapstructure:"refresh_ttl"`
	CookieDomain  string        `mapstructure:"cookie_domain"`
	BcryptCost    int           `mapstructure:"bcrypt_cost"`
}

func (a *Auth) AsTokenConfig() token.Config {
	return token.Config{
		AccessSecret:  []byte(a.AccessSecret),
		RefreshSecret: []byte(a.RefreshSecret),
		AccessTTL:     a.AccessTTL,
		RefreshTTL:    a.RefreshTTL,
	}
}

func (a *Auth) AsCookieOpts(app App) auth.CookieOpts {
	return auth.CookieOpts{
		Domain:     a.CookieDomain,
		Production: app.Production(),
		AccessTTL:  a.AccessTTL,
		RefreshTTL: a.RefreshTTL,
	}
}

type Bootstrap struct {
	AdminEmail    string `mapstructure:"admin_email"`
	AdminPassword string `mapstructure:"admin_password"`
}

type Audit struct {
	Enable       bool          `mapstructure:"enable"`
	Buffer       int           `mapstructure:"buffer"`
	KafkaBrokers []string      `mapstructure:"kafka_brokers"`
	KafkaTopic   string        `mapstructure:"kafka_topic"`
	KafkaTimeout time.Duration `mapstructure:"kafka_timeout"`
}

func (a *Audit) AsDispatcherConfig() audit.Config {
	return audit.Config{Enabled: a.Enable, BufferSize: a.Buffer, DropIfFull: true}
}

// AsKafkaConfig reports false when no brokers are configured.
func (a *Audit) AsKafkaConfig() (kafka.AuditConfig, bool) {
	if len(a.KafkaBrokers) == 0 {
		return kafka.AuditConfig{}, false
	}
	return kafka.AuditConfig{Brokers: a.KafkaBrokers, Topic: a.KafkaTopic, Timeout: a.KafkaTimeout}, true
}

type Config struct {
	App       App       `mapstructure:"app"`
	Server    Server    `mapstructure:"server"`
	DB        pg.Config `mapstructure:"db"`
	OTEL      OTEL      `mapstructure:"otel"`
	Log       Log       `mapstructure:"log"`
	Auth      Auth      `mapstructure:"auth"`
	Bootstrap Bootstrap `mapstructure:"bootstrap"`
	Audit     Audit     `mapstructure:"audit"`
}

type ErrConfig string

func (e ErrConfig) Error() string { return string(e) }
