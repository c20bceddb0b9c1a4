package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

/* Config is read from .env (toml) in the working directory and the environment.
 * Environment variables win over the file; every key has a default so the
 * service boots with no configuration at all (sqlite in ./webhooks.db, no feed). */

type Config struct {
	Port string `mapstructure:"PORT"`

	StorageDriver              string `mapstructure:"STORAGE_DRIVER"`
	PostgresHost               string `mapstructure:"POSTGRES_HOST"`
	PostgresPort               int    `mapstructure:"POSTGRES_PORT"`
	PostgresUser               string `mapstructure:"POSTGRES_USER"`
	PostgresPassword           string `mapstructure:"POSTGRES_PASSWORD"`
	PostgresDB                 string `mapstructure:"POSTGRES_DB"`
	PostgresSSLMode            string `mapstructure:"POSTGRES_SSLMODE"`
	PostgresMaxOpenConns       int    `mapstructure:"POSTGRES_MAX_OPEN_CONNS"`
	PostgresMaxIdleConns       int    `mapstructure:"POSTGRES_MAX_IDLE_CONNS"`
	PostgresConnMaxLifeMinutes int    `mapstructure:"POSTGRES_CONN_MAX_LIFE_MINUTES"`
	SQLitePath                 string `mapstructure:"SQLITE_PATH"`

	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`
	FeedStream    string `mapstructure:"FEED_STREAM"`
	FeedMaxLen    int64  `mapstructure:"FEED_MAX_LEN"`

	CapturesFile        string `mapstructure:"CAPTURES_FILE"`
	PageSize            int    `mapstructure:"PAGE_SIZE"`
	CaptureMaxBodyBytes int64  `mapstructure:"CAPTURE_MAX_BODY_BYTES"`

	GeminiAPIKey             string `mapstructure:"GEMINI_API_KEY"`
	GeminiModel              string `mapstructure:"GEMINI_MODEL"`
	GenerationTimeoutSeconds int    `mapstructure:"GENERATION_TIMEOUT_SECONDS"`

	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`
}

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

var defaults = map[string]any{
	"PORT":                           "3333",
	"STORAGE_DRIVER":                 DriverSQLite,
	"POSTGRES_HOST":                  "localhost",
	"POSTGRES_PORT":                  5432,
	"POSTGRES_USER":                  "postgres",
	"POSTGRES_PASSWORD":              "postgres",
	"POSTGRES_DB":                    "webhooks",
	"POSTGRES_SSLMODE":               "disable",
	"POSTGRES_MAX_OPEN_CONNS":        25,
	"POSTGRES_MAX_IDLE_CONNS":        5,
	"POSTGRES_CONN_MAX_LIFE_MINUTES": 5,
	"SQLITE_PATH":                    "webhooks.db",
	"REDIS_ADDR":                     "",
	"REDIS_PASSWORD":                 "",
	"REDIS_DB":                       0,
	"FEED_STREAM":                    "webhooks:captured",
	"FEED_MAX_LEN":                   10000,
	"CAPTURES_FILE":                  "captures.yaml",
	"PAGE_SIZE":                      30,
	"CAPTURE_MAX_BODY_BYTES":         1 << 20,
	"GEMINI_API_KEY":                 "",
	"GEMINI_MODEL":                   "gemini-2.5-flash-lite",
	"GENERATION_TIMEOUT_SECONDS":     60,
	"LOG_LEVEL":                      "info",
	"LOG_FORMAT":                     "json",
}

// GetConfig reads ./.env when present, then the environment
func GetConfig() (*Config, error) {
	return Load(".")
}

// Load reads .env from dir when present, then the environment
func Load(dir string) (*Config, error) {
	v := viper.New()
	v.SetConfigName(".env")
	v.SetConfigType("toml")
	v.AddConfigPath(dir)
	v.AutomaticEnv()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

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
	config.StorageDriver = strings.ToLower(strings.TrimSpace(config.StorageDriver))

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate rejects settings the service cannot start with
func (c *Config) Validate() error {
	if c.StorageDriver != DriverPostgres && c.StorageDriver != DriverSQLite {
		return fmt.Errorf("STORAGE_DRIVER must be %q or %q (got %q)", DriverPostgres, DriverSQLite, c.StorageDriver)
	}
	if c.PageSize <= 0 || c.PageSize > 100 {
		return fmt.Errorf("PAGE_SIZE must be between 1 and 100 (got %d)", c.PageSize)
	}
	if c.CaptureMaxBodyBytes <= 0 {
		return fmt.Errorf("CAPTURE_MAX_BODY_BYTES must be positive (got %d)", c.CaptureMaxBodyBytes)
	}
	if c.LogFormat != "json" && c.LogFormat != "text" {
		return fmt.Errorf("LOG_FORMAT must be json or text (got %q)", c.LogFormat)
	}
	return nil
}

// PostgresConnectionString builds a lib/pq URL from the POSTGRES_* keys
func (c *Config) PostgresConnectionString() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.PostgresUser, c.PostgresPassword),
		Host:   fmt.Sprintf("%s:%d", c.PostgresHost, c.PostgresPort),
		Path:   "/" + c.PostgresDB,
	}
	q := u.Query()
	q.Set("sslmode", c.PostgresSSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// GenerationTimeout bounds one call to the generation backend
func (c *Config) GenerationTimeout() time.Duration {
	return time.Duration(c.GenerationTimeoutSeconds) * time.Second
}

// FeedEnabled reports whether captures are published to Redis
func (c *Config) FeedEnabled() bool {
	return c.RedisAddr != ""
}
