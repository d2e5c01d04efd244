// Package config loads the dashboard's runtime configuration from defaults,
// an optional YAML file, an optional .env file and DASHBOARD_* variables.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config defines the runtime configuration for the dashboard server.
type Config struct {
	Addr       string `yaml:"addr"`
	BackendURL string `yaml:"backend_url"`

	PollInterval           time.Duration `yaml:"poll_interval"`
	RequestTimeout         time.Duration `yaml:"request_timeout"`
	PollFailureThreshold   int           `yaml:"poll_failure_threshold"`
	StreamFailureThreshold int           `yaml:"stream_failure_threshold"`
	StreamErrorTimeout     time.Duration `yaml:"stream_error_timeout"`
	AlertCapacity          int           `yaml:"alert_capacity"`
	TimeZone               string        `yaml:"time_zone"`

	LogLevel string     `yaml:"log_level"`
	LogColor bool       `yaml:"log_color"`
	Auth     AuthConfig `yaml:"auth"`
}

// AuthConfig enables HTTP basic auth on the dashboard when Username is set.
type AuthConfig struct {
	Username     string `yaml:"username"`
	PasswordHash string `yaml:"password_hash"` // bcrypt hash
}

// Enabled reports whether basic auth is configured.
func (a AuthConfig) Enabled() bool {
	return a.Username != ""
}

// Default returns a config matching the stock dashboard behavior.
func Default() Config {
	return Config{
		Addr:                   ":8090",
		BackendURL:             "http://localhost:5000",
		PollInterval:           1000 * time.Millisecond,
		RequestTimeout:         5 * time.Second,
		PollFailureThreshold:   5,
		StreamFailureThreshold: 3,
		StreamErrorTimeout:     5 * time.Second,
		AlertCapacity:          15,
		TimeZone:               "Local",
		LogLevel:               "info",
		LogColor:               true,
	}
}

// Load reads a YAML file over the defaults. An empty path returns the
// defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return &cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

// LoadEnvFile loads KEY=VALUE pairs from path into the process environment
// without overriding variables that are already set. A missing file is not an
// error.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading env file: %w", err)
	}
	return nil
}

// ApplyEnv overrides fields from DASHBOARD_* environment variables.
// Malformed values are ignored.
func (c *Config) ApplyEnv() {
	c.Addr = getEnv("DASHBOARD_ADDR", c.Addr)
	c.BackendURL = getEnv("DASHBOARD_BACKEND_URL", c.BackendURL)
	c.PollInterval = getEnvAsDuration("DASHBOARD_POLL_INTERVAL", c.PollInterval)
	c.RequestTimeout = getEnvAsDuration("DASHBOARD_REQUEST_TIMEOUT", c.RequestTimeout)
	c.PollFailureThreshold = getEnvAsInt("DASHBOARD_POLL_FAILURE_THRESHOLD", c.PollFailureThreshold)
	c.StreamFailureThreshold = getEnvAsInt("DASHBOARD_STREAM_FAILURE_THRESHOLD", c.StreamFailureThreshold)
	c.StreamErrorTimeout = getEnvAsDuration("DASHBOARD_STREAM_ERROR_TIMEOUT", c.StreamErrorTimeout)
	c.AlertCapacity = getEnvAsInt("DASHBOARD_ALERT_CAPACITY", c.AlertCapacity)
	c.TimeZone = getEnv("DASHBOARD_TIME_ZONE", c.TimeZone)
	c.LogLevel = getEnv("DASHBOARD_LOG_LEVEL", c.LogLevel)
	c.LogColor = getEnvAsBool("DASHBOARD_LOG_COLOR", c.LogColor)
	c.Auth.Username = getEnv("DASHBOARD_AUTH_USERNAME", c.Auth.Username)
	c.Auth.PasswordHash = getEnv("DASHBOARD_AUTH_PASSWORD_HASH", c.Auth.PasswordHash)
}

// Validate checks if configuration is valid
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("addr is required")
	}
	u, err := url.Parse(c.BackendURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("backend_url %q must be an absolute URL", c.BackendURL)
	}
	if c.PollInterval < 100*time.Millisecond {
		return fmt.Errorf("poll_interval must be at least 100ms")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive")
	}
	if c.PollFailureThreshold < 1 || c.StreamFailureThreshold < 1 {
		return fmt.Errorf("failure thresholds must be at least 1")
	}
	if c.AlertCapacity < 1 {
		return fmt.Errorf("alert_capacity must be at least 1")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if c.Auth.Enabled() && c.Auth.PasswordHash == "" {
		return fmt.Errorf("auth.password_hash is required when auth.username is set")
	}
	return nil
}

// Location resolves TimeZone for rendering detection times.
func (c *Config) Location() (*time.Location, error) {
	if c.TimeZone == "" || c.TimeZone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("time_zone: %w", err)
	}
	return loc, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
