package deckfill

import (
	"errors"
	"os"
	"strconv"
	"time"
)

// Config contains the configuration for the deckfill engine and processor.
// Callers construct one at startup (directly or from the environment) and
// pass it down; there is no package-level mutable configuration.
type Config struct {
	// TemplatePath is the deck template a Processor renders. Engines ignore it.
	TemplatePath string
	// OutputDir is the directory rendered decks are written into. It is
	// created on first save if it does not exist.
	OutputDir string
	// LogLevel controls the verbosity of logging (debug, info, warn, error).
	LogLevel string
	// CacheMaxSize is the maximum number of prepared templates to cache.
	// 0 disables caching.
	CacheMaxSize int
	// CacheTTL is the time-to-live for cached templates. 0 means no expiration.
	CacheTTL time.Duration
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		OutputDir:    "output",
		LogLevel:     "info",
		CacheMaxSize: 10,
		CacheTTL:     30 * time.Minute,
	}
}

// ConfigFromEnvironment creates a configuration from environment variables,
// starting from the defaults. Unset or unparsable variables keep the default.
func ConfigFromEnvironment() *Config {
	config := DefaultConfig()

	// DECKFILL_TEMPLATE_PATH
	if val := os.Getenv("DECKFILL_TEMPLATE_PATH"); val != "" {
		config.TemplatePath = val
	}

	// DECKFILL_OUTPUT_DIR
	if val := os.Getenv("DECKFILL_OUTPUT_DIR"); val != "" {
		config.OutputDir = val
	}

	// DECKFILL_LOG_LEVEL
	if val := os.Getenv("DECKFILL_LOG_LEVEL"); val != "" {
		config.LogLevel = val
	}

	// DECKFILL_CACHE_MAX_SIZE
	if val := os.Getenv("DECKFILL_CACHE_MAX_SIZE"); val != "" {
		if size, err := strconv.Atoi(val); err == nil {
			config.CacheMaxSize = size
		}
	}

	// DECKFILL_CACHE_TTL
	if val := os.Getenv("DECKFILL_CACHE_TTL"); val != "" {
		if duration, err := time.ParseDuration(val); err == nil {
			config.CacheTTL = duration
		}
	}

	return config
}

// NewConfigWithDefaults creates a new configuration with defaults applied to
// unset fields of overrides.
func NewConfigWithDefaults(overrides *Config) *Config {
	defaults := DefaultConfig()

	if overrides == nil {
		return defaults
	}

	config := *overrides

	if config.OutputDir == "" {
		config.OutputDir = defaults.OutputDir
	}
	if config.LogLevel == "" {
		config.LogLevel = defaults.LogLevel
	}
	if config.CacheMaxSize == 0 {
		config.CacheMaxSize = defaults.CacheMaxSize
	}

	return &config
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.CacheMaxSize < 0 {
		return errors.New("cache max size cannot be negative")
	}

	if c.CacheTTL < 0 {
		return errors.New("cache TTL cannot be negative")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLogLevels[c.LogLevel] {
		return errors.New("invalid log level: " + c.LogLevel)
	}

	if c.OutputDir == "" {
		return errors.New("output directory cannot be empty")
	}

	return nil
}
