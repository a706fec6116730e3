// Package common provides shared utilities for Folio
package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for Folio
type Config struct {
	Environment     string           `toml:"environment"`
	DisplayCurrency string           `toml:"display_currency"` // ISO code used when rendering balances (default "USD")
	Positions       PositionsConfig  `toml:"positions"`
	Provider        ProviderConfig   `toml:"provider"`
	Clients         ClientsConfig    `toml:"clients"`
	Refresh         RefreshConfig    `toml:"refresh"`
	BalanceLog      BalanceLogConfig `toml:"balance_log"`
	Server          ServerConfig     `toml:"server"`
	Logging         LoggingConfig    `toml:"logging"`
}

// PositionsConfig locates the positions document.
type PositionsConfig struct {
	Path   string `toml:"path"`
	Filter string `toml:"filter"` // Optional shell command the file is piped through (e.g. a decryption filter)
}

// ProviderConfig selects the quote source used for every remote lookup.
type ProviderConfig struct {
	Name      string `toml:"name"` // "yahoo" or "eodhd"
	RateLimit int    `toml:"rate_limit"`
	Timeout   string `toml:"timeout"`
}

// GetTimeout parses and returns the per-call timeout
func (c *ProviderConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// ClientsConfig holds API client configurations
type ClientsConfig struct {
	EODHD EODHDConfig `toml:"eodhd"`
}

// EODHDConfig holds EODHD API configuration
type EODHDConfig struct {
	BaseURL   string `toml:"base_url"`
	APIKey    string `toml:"api_key"`
	RateLimit int    `toml:"rate_limit"`
	Timeout   string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *EODHDConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// RefreshConfig drives the two background cycles.
type RefreshConfig struct {
	Interval       string `toml:"interval"`        // Position cycle period
	SeriesInterval string `toml:"series_interval"` // Weekly series cycle period
	SeriesPoints   int    `toml:"series_points"`   // Number of weekly points (max 78)
	FetchTimeout   string `toml:"fetch_timeout"`   // Per-ticker historic fetch timeout
	MaxConcurrency int    `toml:"max_concurrency"`
}

// GetInterval returns the position cycle period
func (c *RefreshConfig) GetInterval() time.Duration {
	return parseDurationOr(c.Interval, time.Minute)
}

// GetSeriesInterval returns the series cycle period
func (c *RefreshConfig) GetSeriesInterval() time.Duration {
	return parseDurationOr(c.SeriesInterval, time.Hour)
}

// GetFetchTimeout returns the per-ticker historic fetch timeout
func (c *RefreshConfig) GetFetchTimeout() time.Duration {
	return parseDurationOr(c.FetchTimeout, 5*time.Second)
}

// GetSeriesPoints clamps the configured point count to [1, 78].
func (c *RefreshConfig) GetSeriesPoints() int {
	switch {
	case c.SeriesPoints <= 0:
		return 78
	case c.SeriesPoints > 78:
		return 78
	}
	return c.SeriesPoints
}

// BalanceLogConfig selects where historical totals are recorded.
type BalanceLogConfig struct {
	Backend     string `toml:"backend"` // "sqlite", "surrealdb" or "memory"
	Path        string `toml:"path"`
	Address     string `toml:"address"`
	Namespace   string `toml:"namespace"`
	Database    string `toml:"database"`
	Username    string `toml:"username"`
	Password    string `toml:"password"`
	MinInterval string `toml:"min_interval"` // Minimum spacing between appends from background cycles
}

// GetMinInterval returns the minimum spacing between background appends
func (c *BalanceLogConfig) GetMinInterval() time.Duration {
	return parseDurationOr(c.MinInterval, time.Hour)
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level    string `toml:"level"`
	Format   string `toml:"format"` // "console" or "json"
	FilePath string `toml:"file_path"`
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment:     "development",
		DisplayCurrency: "USD",
		Positions: PositionsConfig{
			Path: "positions.json",
		},
		Provider: ProviderConfig{
			Name:      "yahoo",
			RateLimit: 5,
			Timeout:   "30s",
		},
		Clients: ClientsConfig{
			EODHD: EODHDConfig{
				BaseURL:   "https://eodhd.com/api",
				RateLimit: 10,
				Timeout:   "30s",
			},
		},
		Refresh: RefreshConfig{
			Interval:       "60s",
			SeriesInterval: "1h",
			SeriesPoints:   78,
			FetchTimeout:   "5s",
			MaxConcurrency: 8,
		},
		BalanceLog: BalanceLogConfig{
			Backend:     "sqlite",
			Path:        "data/balances.db",
			Address:     "ws://localhost:8000/rpc",
			Namespace:   "folio",
			Database:    "folio",
			Username:    "root",
			Password:    "root",
			MinInterval: "1h",
		},
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8080,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "console",
			FilePath: "logs/folio.log",
		},
	}
}

// LoadConfig loads configuration from files with environment overrides.
// A .env file in the working directory is loaded first when present.
func LoadConfig(paths ...string) (*Config, error) {
	_ = godotenv.Load()

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
	config.DisplayCurrency = strings.ToUpper(config.DisplayCurrency)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("FOLIO_ENV"); env != "" {
		config.Environment = env
	}

	if path := os.Getenv("FOLIO_POSITIONS"); path != "" {
		config.Positions.Path = path
	}

	if filter := os.Getenv("FOLIO_POSITIONS_FILTER"); filter != "" {
		config.Positions.Filter = filter
	}

	if p := os.Getenv("FOLIO_PROVIDER"); p != "" {
		config.Provider.Name = strings.ToLower(p)
	}

	if host := os.Getenv("FOLIO_HOST"); host != "" {
		config.Server.Host = host
	}

	if port := os.Getenv("FOLIO_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if level := os.Getenv("FOLIO_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if v := os.Getenv("FOLIO_REFRESH_INTERVAL"); v != "" {
		config.Refresh.Interval = v
	}

	if v := os.Getenv("FOLIO_BALANCE_LOG"); v != "" {
		config.BalanceLog.Backend = strings.ToLower(v)
	}

	if dc := os.Getenv("FOLIO_DISPLAY_CURRENCY"); dc != "" {
		config.DisplayCurrency = dc
	}

	for _, name := range []string{"EODHD_API_KEY", "FOLIO_EODHD_API_KEY"} {
		if v := os.Getenv(name); v != "" {
			config.Clients.EODHD.APIKey = v
			break
		}
	}
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}

func parseDurationOr(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
