// Package config provides configuration loading and management for the application.
//
// Values come from built-in defaults, then an optional YAML file named by
// CONFIG_FILE, then environment variables, each layer overriding the last.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	// HTTP server port
	Port string `yaml:"port"`

	// SnapshotURL is an http(s) URL or a local file path for the snapshot document
	SnapshotURL string `yaml:"snapshot_url"`

	RefreshInterval time.Duration `yaml:"refresh_interval"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`

	// FetchRetryMax is the number of fetch retries, 0 disables retrying
	FetchRetryMax int `yaml:"fetch_retry_max"`

	// StaleAfter is the age beyond which a snapshot is reported stale
	StaleAfter time.Duration `yaml:"stale_after"`

	// Compared lockers; empty means the first two keys in lexical order
	EntityA string `yaml:"entity_a"`
	EntityB string `yaml:"entity_b"`

	// Metric ids shown in the head-to-head table, in order
	TableMetrics []string `yaml:"table_metrics"`

	// Metric ids left out of the last-week comparison
	ExcludedMetrics []string `yaml:"excluded_metrics"`

	// CompareMode is legacy, numeric or directional
	CompareMode string `yaml:"compare_mode"`

	// DelegateMinAllocation is the default allocation threshold when filtering delegates
	DelegateMinAllocation float64 `yaml:"delegate_min_allocation"`

	RateLimitRPS   float64 `yaml:"rate_limit_rps"`
	RateLimitBurst int     `yaml:"rate_limit_burst"`

	// Snapshot guard settings
	GuardResetDelay        time.Duration `yaml:"guard_reset_delay"`
	GuardAllowEntityChange bool          `yaml:"guard_allow_entity_change"`

	EnableMetrics bool `yaml:"enable_metrics"`

	// OpenTelemetry endpoint for observability
	OtelEndpoint string `yaml:"otel_endpoint"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
	LogFile   string `yaml:"log_file"`
}

// DefaultTableMetrics is the head-to-head table shown when none is configured.
var DefaultTableMetrics = []string{
	"peg",
	"lock_gain",
	"current_boost_multiplier",
	"global_weight_ratio",
	"weight",
	"boost_fees_collected",
	"emissions_claimed",
}

// DefaultExcludedMetrics are the raw counters the last-week comparison leaves out.
var DefaultExcludedMetrics = []string{"weight", "lock_gain", "boost_fees_collected"}

// Defaults returns the configuration used when nothing is set.
func Defaults() Config {
	return Config{
		Port:                  "8080",
		RefreshInterval:       5 * time.Minute,
		RequestTimeout:        10 * time.Second,
		FetchRetryMax:         3,
		StaleAfter:            5 * time.Hour,
		TableMetrics:          append([]string(nil), DefaultTableMetrics...),
		ExcludedMetrics:       append([]string(nil), DefaultExcludedMetrics...),
		CompareMode:           "legacy",
		DelegateMinAllocation: 0,
		RateLimitRPS:          20,
		RateLimitBurst:        40,
		GuardResetDelay:       5 * time.Minute,
		EnableMetrics:         true,
		LogLevel:              "info",
		LogFormat:             "json",
	}
}

// Load builds a Config from defaults, the CONFIG_FILE overlay and the environment.
func Load() (Config, error) {
	cfg := Defaults()

	if path := GetEnvOrDefault("CONFIG_FILE", ""); path != "" {
		if err := cfg.overlayFile(path); err != nil {
			return cfg, err
		}
	}
	cfg.overlayEnv()

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) overlayFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

func (c *Config) overlayEnv() {
	c.Port = GetEnvOrDefault("PORT", c.Port)
	c.SnapshotURL = GetEnvOrDefault("SNAPSHOT_URL", c.SnapshotURL)
	c.RefreshInterval = GetEnvAsDuration("REFRESH_INTERVAL", c.RefreshInterval)
	c.RequestTimeout = GetEnvAsDuration("REQUEST_TIMEOUT", c.RequestTimeout)
	c.FetchRetryMax = GetEnvAsInt("FETCH_RETRY_MAX", c.FetchRetryMax)
	c.StaleAfter = GetEnvAsDuration("STALE_AFTER", c.StaleAfter)
	c.EntityA = GetEnvOrDefault("ENTITY_A", c.EntityA)
	c.EntityB = GetEnvOrDefault("ENTITY_B", c.EntityB)
	c.TableMetrics = GetEnvAsList("TABLE_METRICS", c.TableMetrics)
	c.ExcludedMetrics = GetEnvAsList("EXCLUDED_METRICS", c.ExcludedMetrics)
	c.CompareMode = strings.ToLower(GetEnvOrDefault("COMPARE_MODE", c.CompareMode))
	c.DelegateMinAllocation = GetEnvAsFloat("DELEGATE_MIN_ALLOCATION", c.DelegateMinAllocation)
	c.RateLimitRPS = GetEnvAsFloat("RATE_LIMIT_RPS", c.RateLimitRPS)
	c.RateLimitBurst = GetEnvAsInt("RATE_LIMIT_BURST", c.RateLimitBurst)
	c.GuardResetDelay = GetEnvAsDuration("GUARD_RESET_DELAY", c.GuardResetDelay)
	c.GuardAllowEntityChange = GetEnvAsBool("GUARD_ALLOW_ENTITY_CHANGE", c.GuardAllowEntityChange)
	c.EnableMetrics = GetEnvAsBool("ENABLE_METRICS", c.EnableMetrics)
	c.OtelEndpoint = GetEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", c.OtelEndpoint)
	c.LogLevel = GetEnvOrDefault("LOG_LEVEL", c.LogLevel)
	c.LogFormat = GetEnvOrDefault("LOG_FORMAT", c.LogFormat)
	c.LogFile = GetEnvOrDefault("LOG_FILE", c.LogFile)
}

// Validate rejects settings the service cannot run with.
func (c Config) Validate() error {
	if c.SnapshotURL == "" {
		return fmt.Errorf("SNAPSHOT_URL is required")
	}
	if c.RefreshInterval <= 0 {
		return fmt.Errorf("refresh interval must be positive, got %s", c.RefreshInterval)
	}
	if c.StaleAfter <= 0 {
		return fmt.Errorf("stale threshold must be positive, got %s", c.StaleAfter)
	}
	if c.FetchRetryMax < 0 {
		return fmt.Errorf("fetch retry max must not be negative, got %d", c.FetchRetryMax)
	}
	if (c.EntityA == "") != (c.EntityB == "") {
		return fmt.Errorf("ENTITY_A and ENTITY_B must be set together")
	}
	if c.EntityA != "" && c.EntityA == c.EntityB {
		return fmt.Errorf("ENTITY_A and ENTITY_B must differ, both are %q", c.EntityA)
	}
	return nil
}

// GetEnv retrieves an environment variable and whether it exists
func GetEnv(key string) (string, bool) {
	value, exists := os.LookupEnv(key)
	return value, exists
}

// GetEnvOrDefault retrieves an environment variable or returns the default value if not set
func GetEnvOrDefault(key, defaultValue string) string {
	if value, exists := GetEnv(key); exists {
		return value
	}
	return defaultValue
}

// GetEnvAsInt retrieves an environment variable as an integer with a default value
func GetEnvAsInt(key string, defaultValue int) int {
	if value, exists := GetEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// GetEnvAsFloat retrieves an environment variable as a float with a default value
func GetEnvAsFloat(key string, defaultValue float64) float64 {
	if value, exists := GetEnv(key); exists {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// GetEnvAsDuration retrieves an environment variable as a duration with a default value
func GetEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := GetEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// GetEnvAsBool retrieves an environment variable as a bool with a default value
func GetEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := GetEnv(key); exists {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// GetEnvAsList splits a comma-separated variable, dropping empty items. An
// explicitly empty variable yields an empty list.
func GetEnvAsList(key string, defaultValue []string) []string {
	value, exists := GetEnv(key)
	if !exists {
		return defaultValue
	}
	out := []string{}
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
