package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Env    Env
	Server ServerConfig
	TLS    TLSConfig
	Log    LogConfig
	Status StatusConfig
	NATS   NATSConfig
}

type Env struct {
	Env string `envconfig:"SIMPLEFILEHOST_ENV" default:"dev"`
}

type ServerConfig struct {
	Bind          string        `envconfig:"SIMPLEFILEHOST_BIND" default:"127.0.0.1"`
	AutoBind      bool          `envconfig:"SIMPLEFILEHOST_AUTO_BIND" default:"false"`
	Port          int           `envconfig:"SIMPLEFILEHOST_PORT" default:"0"`
	MaxSize       ByteSize      `envconfig:"SIMPLEFILEHOST_MAX_SIZE" default:"200mb"`
	SocketTimeout time.Duration `envconfig:"SIMPLEFILEHOST_SOCKET_TIMEOUT" default:"60s"`
	PollInterval  time.Duration `envconfig:"SIMPLEFILEHOST_POLL_INTERVAL" default:"100ms"`
}

type TLSConfig struct {
	CertFile string `envconfig:"SIMPLEFILEHOST_TLS_CERT"`
	KeyFile  string `envconfig:"SIMPLEFILEHOST_TLS_KEY"`
}

type LogConfig struct {
	Verbose bool `envconfig:"SIMPLEFILEHOST_VERBOSE" default:"false"`
}

type StatusConfig struct {
	Addr string `envconfig:"SIMPLEFILEHOST_STATUS_ADDR"`
}

type NATSConfig struct {
	URL     string `envconfig:"NATS_URL"`
	Subject string `envconfig:"NATS_SUBJECT" default:"simplefilehost.events"`
	Name    string `envconfig:"NATS_CLIENT_NAME" default:"simplefilehost"`
	Stream  string `envconfig:"NATS_STREAM"` // publish through JetStream when set
	Durable string `envconfig:"NATS_DURABLE" default:"simplefilehost-watch"`
}

// BindHost resolves the effective bind address, --auto-bind only wins over the loopback default
func (s ServerConfig) BindHost() string {
	if s.AutoBind && (s.Bind == "" || s.Bind == "127.0.0.1") {
		return "0.0.0.0"
	}
	if s.Bind == "" {
		return "127.0.0.1"
	}
	return s.Bind
}

func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
