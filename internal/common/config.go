// Package common provides shared utilities for etfscope
package common

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for etfscope
type Config struct {
	Environment string        `toml:"environment"`
	Server      ServerConfig  `toml:"server"`
	Storage     StorageConfig `toml:"storage"`
	Clients     ClientsConfig `toml:"clients"`
	Limits      LimitsConfig  `toml:"limits"`
	Logging     LoggingConfig `toml:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// StorageConfig holds paths for the day cache and rendered artifacts.
type StorageConfig struct {
	CachePath    string `toml:"cache_path"`    // per-day API response cache
	ArtifactPath string `toml:"artifact_path"` // rendered charts
}

// ClientsConfig holds API client configurations
type ClientsConfig struct {
	AlphaVantage AlphaVantageConfig `toml:"alphavantage"`
}

// AlphaVantageConfig holds Alpha Vantage API configuration
type AlphaVantageConfig struct {
	BaseURL   string `toml:"base_url"`
	APIKey    string `toml:"api_key"`
	RateLimit int    `toml:"rate_limit"`
	Timeout   string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *AlphaVantageConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 10 * time.Second
	}
	return d
}

// LimitsConfig holds the query-budget constants imposed by the remote API
// subscription. These bound the pipeline, they are not tunable per request.
type LimitsConfig struct {
	TopHoldings     int      `toml:"top_holdings"`     // holdings charted per fund, ranked by weight
	MaxStatSymbols  int      `toml:"max_stat_symbols"` // symbols allowed per analytics query
	MaxCalculations int      `toml:"max_calculations"` // studies allowed per analytics query
	OutputSize      string   `toml:"output_size"`      // "compact" (100 bars) or "full"
	DailyQuota      int      `toml:"daily_quota"`      // free-tier request budget per day
	Holidays        []string `toml:"holidays"`         // market holidays, YYYY-MM-DD
}

// HolidaySet returns the configured holidays as a lookup set.
func (c *LimitsConfig) HolidaySet() map[string]bool {
	set := make(map[string]bool, len(c.Holidays))
	for _, d := range c.Holidays {
		set[d] = true
	}
	return set
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `toml:"level"`
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Storage: StorageConfig{
			CachePath:    "data/cache",
			ArtifactPath: "data/charts",
		},
		Clients: ClientsConfig{
			AlphaVantage: AlphaVantageConfig{
				BaseURL:   "https://www.alphavantage.co/query",
				RateLimit: 1,
				Timeout:   "10s",
			},
		},
		Limits: LimitsConfig{
			TopHoldings:     11,
			MaxStatSymbols:  5,
			MaxCalculations: 3,
			OutputSize:      "compact",
			DailyQuota:      25,
			Holidays: []string{
				"2026-01-01", // New Year's Day
				"2026-07-03", // Independence Day (observed)
				"2026-12-25", // Christmas Day
			},
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadConfig loads configuration from files with environment overrides
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	// Load and merge each config file in order (later files override earlier)
	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue // Skip missing files
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("ETFSCOPE_ENV"); env != "" {
		config.Environment = env
	}

	if host := os.Getenv("ETFSCOPE_HOST"); host != "" {
		config.Server.Host = host
	}

	if port := os.Getenv("ETFSCOPE_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if level := os.Getenv("ETFSCOPE_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if path := os.Getenv("ETFSCOPE_DATA_PATH"); path != "" {
		config.Storage.CachePath = filepath.Join(path, "cache")
		config.Storage.ArtifactPath = filepath.Join(path, "charts")
	}

	if key := os.Getenv("ALPHAVANTAGE_API_KEY"); key != "" {
		config.Clients.AlphaVantage.APIKey = key
	}
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}
