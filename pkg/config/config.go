// Package config loads application configuration from file, environment
// and defaults through viper.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	// Log configuration
	Log LogConfig `mapstructure:"log"`

	// Server configuration
	Server ServerConfig `mapstructure:"server"`

	// Scorer configuration
	Scorer ScorerConfig `mapstructure:"scorer"`

	// QA ranking parameters
	QA QAParams `mapstructure:"qa"`

	// Cache configuration
	Cache CacheConfig `mapstructure:"cache"`

	// Export configuration
	Export ExportConfig `mapstructure:"export"`

	// Telemetry configuration
	Telemetry TelemetryConfig `mapstructure:"telemetry"`

	// CircuitBreaker configuration
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`

	// RustBert direct-answer backend
	RustBert RustBertConfig `mapstructure:"rustbert"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // gin mode: debug, release, test
}

// ScorerConfig holds the remote scoring service settings.
type ScorerConfig struct {
	Endpoint string        `mapstructure:"endpoint"`
	APIKey   string        `mapstructure:"api_key"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// QAParams holds the ranking parameters and aggregation concurrency.
type QAParams struct {
	NBest           int `mapstructure:"n_best"`
	MaxAnswerLength int `mapstructure:"max_answer_length"`
	MaxConcurrency  int `mapstructure:"max_concurrency"`
}

// CacheConfig holds the badger answer cache settings.
type CacheConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Path    string        `mapstructure:"path"`
	TTL     time.Duration `mapstructure:"ttl"`
}

// ExportConfig holds parquet answer export settings.
type ExportConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Dir     string `mapstructure:"dir"`
}

// TelemetryConfig holds error telemetry settings.
type TelemetryConfig struct {
	ParquetPath string `mapstructure:"parquet_path"`
}

// CircuitBreakerConfig holds circuit breaker settings for the scorer.
type CircuitBreakerConfig struct {
	Enabled          bool    `mapstructure:"enabled"`
	MaxRequests      uint32  `mapstructure:"max_requests"`
	Interval         int     `mapstructure:"interval"` // in seconds
	Timeout          int     `mapstructure:"timeout"`  // in seconds
	ReadyToTripRatio float64 `mapstructure:"ready_to_trip_ratio"`
}

// RustBertConfig enables the in-process QA fallback backend.
type RustBertConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// Load loads configuration from file and environment variables.
func Load() (*Config, error) {
	setDefaults()

	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	overrideWithEnv(config)

	return config, nil
}

// setDefaults sets default configuration values.
func setDefaults() {
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "text")

	viper.SetDefault("server.host", "localhost")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.mode", "debug")

	viper.SetDefault("scorer.endpoint", "http://localhost:9000")
	viper.SetDefault("scorer.timeout", 30*time.Second)

	viper.SetDefault("qa.n_best", 5)
	viper.SetDefault("qa.max_answer_length", 30)
	viper.SetDefault("qa.max_concurrency", 0)

	viper.SetDefault("cache.enabled", false)
	viper.SetDefault("cache.path", "./answer_cache")
	viper.SetDefault("cache.ttl", time.Hour)

	viper.SetDefault("export.enabled", false)
	viper.SetDefault("export.dir", "./answer_exports")

	viper.SetDefault("circuit_breaker.enabled", true)
	viper.SetDefault("circuit_breaker.max_requests", 1)
	viper.SetDefault("circuit_breaker.interval", 60)
	viper.SetDefault("circuit_breaker.timeout", 60)
	viper.SetDefault("circuit_breaker.ready_to_trip_ratio", 0.6)

	viper.SetDefault("rustbert.enabled", false)

	home, err := os.UserHomeDir()
	if err == nil {
		viper.SetDefault("telemetry.parquet_path", fmt.Sprintf("%s/.estratto/telemetry", home))
	}
}

// overrideWithEnv applies a small set of well-known environment variables
// on top of the decoded config.
func overrideWithEnv(config *Config) {
	if v := os.Getenv("ESTRATTO_SCORER_ENDPOINT"); v != "" {
		config.Scorer.Endpoint = v
	}
	if v := os.Getenv("ESTRATTO_SCORER_API_KEY"); v != "" {
		config.Scorer.APIKey = v
	}
}
