package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

/* Config is read from the environment, optionally overlaid on a .env file (TOML)
 * Every key has a default, so a missing file is not an error
 */

const (
	DriverMemory   = "memory"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
)

type Config struct {
	Port          string `mapstructure:"PORT"`
	StorageDriver string `mapstructure:"STORAGE_DRIVER"`

	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	PostgresDSN                string `mapstructure:"POSTGRES_DSN"`
	PostgresMaxOpenConns       int    `mapstructure:"POSTGRES_MAX_OPEN_CONNS"`
	PostgresMaxIdleConns       int    `mapstructure:"POSTGRES_MAX_IDLE_CONNS"`
	PostgresConnMaxLifeMinutes int    `mapstructure:"POSTGRES_CONN_MAX_LIFE_MINUTES"`

	DestinationsFile string `mapstructure:"DESTINATIONS_FILE"`

	WebhookMaxAttempts    int    `mapstructure:"WEBHOOK_MAX_ATTEMPTS"`
	WebhookTimeoutSeconds int    `mapstructure:"WEBHOOK_TIMEOUT_SECONDS"`
	WebhookUserAgent      string `mapstructure:"WEBHOOK_USER_AGENT"`
	WebhookMaxConcurrency int    `mapstructure:"WEBHOOK_MAX_CONCURRENCY"`
	WebhookLogLimit       int    `mapstructure:"WEBHOOK_LOG_LIMIT"`

	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`
}

var defaults = map[string]any{
	"PORT":                           "8080",
	"STORAGE_DRIVER":                 DriverMemory,
	"REDIS_ADDR":                     "localhost:6379",
	"REDIS_PASSWORD":                 "",
	"REDIS_DB":                       0,
	"POSTGRES_DSN":                   "",
	"POSTGRES_MAX_OPEN_CONNS":        25,
	"POSTGRES_MAX_IDLE_CONNS":        5,
	"POSTGRES_CONN_MAX_LIFE_MINUTES": 5,
	"DESTINATIONS_FILE":              "",
	"WEBHOOK_MAX_ATTEMPTS":           3,
	"WEBHOOK_TIMEOUT_SECONDS":        10,
	"WEBHOOK_USER_AGENT":             "LeadHub-Webhook/1.0",
	"WEBHOOK_MAX_CONCURRENCY":        64,
	"WEBHOOK_LOG_LIMIT":              100,
	"LOG_LEVEL":                      "info",
	"LOG_FORMAT":                     "json",
}

// GetConfig reads ./.env and the process environment
func GetConfig() (*Config, error) {
	v := viper.New()
	v.SetConfigName(".env")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	return Load(v)
}

// Load applies defaults and environment overrides on v and decodes the result
func Load(v *viper.Viper) (*Config, error) {
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("parsing config data: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate rejects settings the server cannot start with
func (c *Config) Validate() error {
	switch c.StorageDriver {
	case DriverMemory, DriverRedis:
	case DriverPostgres:
		if c.PostgresDSN == "" {
			return fmt.Errorf("POSTGRES_DSN is required for the postgres storage driver")
		}
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	}
	if c.WebhookMaxAttempts < 1 {
		return fmt.Errorf("WEBHOOK_MAX_ATTEMPTS must be at least 1 (got %d)", c.WebhookMaxAttempts)
	}
	return nil
}

// WebhookTimeout returns the per-attempt HTTP timeout, 10s when unset
func (c *Config) WebhookTimeout() time.Duration {
	if c.WebhookTimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.WebhookTimeoutSeconds) * time.Second
}

// GetWebhookMaxConcurrency returns the attempt concurrency limit, 64 when unset
func (c *Config) GetWebhookMaxConcurrency() int64 {
	if c.WebhookMaxConcurrency <= 0 {
		return 64
	}
	return int64(c.WebhookMaxConcurrency)
}

// GetWebhookLogLimit returns the default page size of the logs endpoint
func (c *Config) GetWebhookLogLimit() int {
	if c.WebhookLogLimit <= 0 {
		return 100
	}
	return c.WebhookLogLimit
}
