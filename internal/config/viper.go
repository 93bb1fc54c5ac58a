// Package config provides Viper-based hierarchical configuration management
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Config represents the complete application configuration
type Config struct {
	Log struct {
		Level  string `mapstructure:"level" yaml:"level"`
		Format string `mapstructure:"format" yaml:"format"`
	} `mapstructure:"log" yaml:"log"`

	Database struct {
		URL          string `mapstructure:"url" yaml:"-"` // may embed credentials
		MaxOpenConns int    `mapstructure:"max_open_conns" yaml:"max_open_conns"`
	} `mapstructure:"database" yaml:"database"`

	Import struct {
		BatchSize        int    `mapstructure:"batch_size" yaml:"batch_size"`
		Workers          int    `mapstructure:"workers" yaml:"workers"`
		DefaultDelimiter string `mapstructure:"default_delimiter" yaml:"default_delimiter"`
	} `mapstructure:"import" yaml:"import"`

	Categorization struct {
		AutoAcceptThreshold float64 `mapstructure:"auto_accept_threshold" yaml:"auto_accept_threshold"`
		ShowThreshold       float64 `mapstructure:"show_threshold" yaml:"show_threshold"`
		AutoLearn           bool    `mapstructure:"auto_learn" yaml:"auto_learn"`
	} `mapstructure:"categorization" yaml:"categorization"`

	AI struct {
		Enabled        bool   `mapstructure:"enabled" yaml:"enabled"`
		Model          string `mapstructure:"model" yaml:"model"`
		TimeoutSeconds int    `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
		APIKey         string `mapstructure:"api_key" yaml:"-"` // Never serialize API key
	} `mapstructure:"ai" yaml:"ai"`

	Recurring struct {
		Timezone string `mapstructure:"timezone" yaml:"timezone"`
	} `mapstructure:"recurring" yaml:"recurring"`
}

// AITimeout returns the per-request AI timeout.
func (c *Config) AITimeout() time.Duration {
	return time.Duration(c.AI.TimeoutSeconds) * time.Second
}

// Delimiter returns the configured default delimiter, or 0 to auto-detect.
func (c *Config) Delimiter() rune {
	if c.Import.DefaultDelimiter == "" {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(c.Import.DefaultDelimiter)
	return r
}

// Location returns the time zone used to decide which recurrences are due.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Recurring.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// InitializeConfig initializes Viper configuration with hierarchical loading
func InitializeConfig() (*Config, error) {
	return InitializeConfigFromFile("")
}

// InitializeConfigFromFile is InitializeConfig with an explicit config file.
// An empty path searches the default locations.
func InitializeConfigFromFile(path string) (*Config, error) {
	v := viper.New()

	// 1. Set defaults
	setDefaults(v)

	// 2. Config file locations
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("$HOME/.fintrack")
		v.AddConfigPath(".fintrack")
		v.AddConfigPath(".")
	}

	// 3. Environment variables
	v.SetEnvPrefix("FINTRACK")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// 4. Read config file (optional unless given explicitly)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file %s: %w", v.ConfigFileUsed(), err)
		}
	}

	// 5. Unprefixed well-known variables
	if err := v.BindEnv("ai.api_key", "FINTRACK_AI_API_KEY", "GEMINI_API_KEY"); err != nil {
		return nil, fmt.Errorf("failed to bind GEMINI_API_KEY: %w", err)
	}
	if err := v.BindEnv("database.url", "FINTRACK_DATABASE_URL", "DATABASE_URL"); err != nil {
		return nil, fmt.Errorf("failed to bind DATABASE_URL: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// 6. Validate configuration
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	// Database defaults
	v.SetDefault("database.url", "")
	v.SetDefault("database.max_open_conns", 10)

	// Import defaults
	v.SetDefault("import.batch_size", 50)
	v.SetDefault("import.workers", 8)
	v.SetDefault("import.default_delimiter", "")

	// Categorization defaults
	v.SetDefault("categorization.auto_accept_threshold", 0.85)
	v.SetDefault("categorization.show_threshold", 0.5)
	v.SetDefault("categorization.auto_learn", true)

	// AI defaults
	v.SetDefault("ai.enabled", false)
	v.SetDefault("ai.model", "gemini-1.5-flash")
	v.SetDefault("ai.timeout_seconds", 30)
	v.SetDefault("ai.api_key", "")

	// Recurring defaults
	v.SetDefault("recurring.timezone", "UTC")
}

// validateConfig validates the configuration values
func validateConfig(config *Config) error {
	// Validate log level
	if _, err := logrus.ParseLevel(config.Log.Level); err != nil {
		return fmt.Errorf("invalid log level: %s", config.Log.Level)
	}

	// Validate log format
	if config.Log.Format != "text" && config.Log.Format != "json" {
		return fmt.Errorf("invalid log format: %s (must be 'text' or 'json')", config.Log.Format)
	}

	if config.Database.MaxOpenConns < 1 {
		return fmt.Errorf("database.max_open_conns must be at least 1, got: %d", config.Database.MaxOpenConns)
	}

	if config.Import.BatchSize < 1 || config.Import.BatchSize > 10000 {
		return fmt.Errorf("import.batch_size must be between 1 and 10000, got: %d", config.Import.BatchSize)
	}
	if config.Import.Workers < 1 || config.Import.Workers > 256 {
		return fmt.Errorf("import.workers must be between 1 and 256, got: %d", config.Import.Workers)
	}
	if utf8.RuneCountInString(config.Import.DefaultDelimiter) > 1 {
		return fmt.Errorf("import.default_delimiter must be a single character, got: %s", config.Import.DefaultDelimiter)
	}

	// Validate confidence thresholds
	auto, show := config.Categorization.AutoAcceptThreshold, config.Categorization.ShowThreshold
	if auto <= 0.0 || auto > 1.0 {
		return fmt.Errorf("categorization.auto_accept_threshold must be in (0, 1], got: %f", auto)
	}
	if show <= 0.0 || show >= auto {
		return fmt.Errorf("categorization.show_threshold must be in (0, auto_accept_threshold), got: %f", show)
	}

	// Validate AI configuration
	if config.AI.Enabled {
		if config.AI.APIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY required when AI is enabled")
		}
		if config.AI.TimeoutSeconds < 1 || config.AI.TimeoutSeconds > 300 {
			return fmt.Errorf("ai.timeout_seconds must be between 1 and 300, got: %d", config.AI.TimeoutSeconds)
		}
	}

	if _, err := time.LoadLocation(config.Recurring.Timezone); err != nil {
		return fmt.Errorf("invalid recurring.timezone: %s", config.Recurring.Timezone)
	}

	return nil
}

// ConfigureLoggingFromConfig configures logging based on the Config struct
func ConfigureLoggingFromConfig(config *Config) *logrus.Logger {
	logger := logrus.New()

	// Parse and set log level
	logLevel, err := logrus.ParseLevel(strings.ToLower(config.Log.Level))
	if err != nil {
		logger.Warnf("Invalid log level '%s', using 'info'", config.Log.Level)
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Configure log format
	if strings.ToLower(config.Log.Format) == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	return logger
}
