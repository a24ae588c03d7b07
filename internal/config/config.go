package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig
	Webhook WebhookConfig
	Store   DynamoConfig
	Log     LogConfig
}

type ServerConfig struct {
	Host         string
	Port         int
	SessionKey   string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// WebhookConfig describes the workflow backend this relay forwards to.
// URL and StatusURL are validated lazily at invocation time: a missing
// endpoint is reported per call as a configuration error, never as a
// startup crash.
type WebhookConfig struct {
	// URL is the default webhook target for triggering workflows.
	URL string
	// StatusURL is the base endpoint for job status checks; the job ID is
	// appended as a path segment.
	StatusURL string
	// Timeout bounds a single outbound HTTP call.
	Timeout time.Duration
	// PollInterval is the pause between status checks.
	PollInterval time.Duration
	// PollMaxAttempts is the attempt budget before a poll times out.
	PollMaxAttempts int
}

type LogConfig struct {
	Level  string
	Format string
}

// DynamoConfig configures the persistent credential and run-history store.
// Leave Region empty to run entirely on the in-memory store.
type DynamoConfig struct {
	// Region of the dynamoDB instance
	Region string
	// Name of the table holding stored API credentials
	CredentialTableName string
	// Name of the table terminal workflow runs are archived to
	RunTableName string

	// Endpoint may be set for local testing, usually with docker, e.g.
	// docker run -p 8000:8000 amazon/dynamodb-local -jar DynamoDBLocal.jar -sharedDb
	// then set endpoint to localhost:8000
	// Do not set for production.
	Endpoint string // for development
}

// New creates a viper instance with env binding and defaults applied.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("FLOWGATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("webhook.timeout", "30s")
	v.SetDefault("webhook.poll_interval", "2s")
	v.SetDefault("webhook.poll_max_attempts", 30)
	v.SetDefault("store.credential_table_name", "flowgate-credentials")
	v.SetDefault("store.run_table_name", "flowgate-runs")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	return v
}

// Load reads an optional config file and builds the Config.
func Load(v *viper.Viper) (*Config, error) {
	if v.ConfigFileUsed() == "" {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.flowgate")
	}

	if err := v.ReadInConfig(); err != nil {
		// A missing file is fine; everything has env/flag/default coverage.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:         v.GetString("server.host"),
			Port:         v.GetInt("server.port"),
			SessionKey:   v.GetString("server.session_key"),
			ReadTimeout:  v.GetDuration("server.read_timeout"),
			WriteTimeout: v.GetDuration("server.write_timeout"),
		},
		Webhook: WebhookConfig{
			URL:             v.GetString("webhook.url"),
			StatusURL:       v.GetString("webhook.status_url"),
			Timeout:         v.GetDuration("webhook.timeout"),
			PollInterval:    v.GetDuration("webhook.poll_interval"),
			PollMaxAttempts: v.GetInt("webhook.poll_max_attempts"),
		},
		Store: DynamoConfig{
			Region:              v.GetString("store.region"),
			CredentialTableName: v.GetString("store.credential_table_name"),
			RunTableName:        v.GetString("store.run_table_name"),
			Endpoint:            v.GetString("store.endpoint"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
	}

	if cfg.Server.SessionKey == "" {
		cfg.Server.SessionKey = "flowgate-dev-session-key"
	}

	if cfg.Store.Region != "" {
		if cfg.Store.CredentialTableName == "" {
			return nil, fmt.Errorf("store credential table not set")
		}
		if cfg.Store.RunTableName == "" {
			return nil, fmt.Errorf("store run table not set")
		}
	}

	return cfg, nil
}

func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// UsesDynamo reports whether a DynamoDB store should be constructed.
func (c *DynamoConfig) UsesDynamo() bool {
	return c.Region != "" || c.Endpoint != ""
}
