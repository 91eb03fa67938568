package config

import (
	"fmt"
	"time"
)

// Environment names.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Config is the root service configuration.
type Config struct {
	Environment string          `yaml:"environment"`
	Server      ServerConfig    `yaml:"server"`
	Log         LogConfig       `yaml:"log"`
	Cache       CacheConfig     `yaml:"cache"`
	RateLimit   RateLimitConfig `yaml:"rateLimit"`
	Retry       RetryConfig     `yaml:"retry"`
	Provider    ProviderConfig  `yaml:"provider"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Address         string   `yaml:"address"`
	ReadTimeout     Duration `yaml:"readTimeout"`
	WriteTimeout    Duration `yaml:"writeTimeout"`
	IdleTimeout     Duration `yaml:"idleTimeout"`
	ShutdownTimeout Duration `yaml:"shutdownTimeout"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// CacheConfig configures the TTL response cache.
type CacheConfig struct {
	Enabled         bool     `yaml:"enabled"`
	DefaultTTL      Duration `yaml:"defaultTTL"`
	CleanupInterval Duration `yaml:"cleanupInterval"`
}

// RateLimitConfig configures the inbound fixed-window limiter.
type RateLimitConfig struct {
	Enabled       bool     `yaml:"enabled"`
	MaxRequests   int      `yaml:"maxRequests"`
	Window        Duration `yaml:"window"`
	SweepInterval Duration `yaml:"sweepInterval"`
	StatusCode    int      `yaml:"statusCode"`
}

// RetryConfig configures the upstream retry executor.
type RetryConfig struct {
	MaxAttempts  int      `yaml:"maxAttempts"`
	InitialDelay Duration `yaml:"initialDelay"`
	MaxDelay     Duration `yaml:"maxDelay"`
	Multiplier   float64  `yaml:"multiplier"`
	Jitter       bool     `yaml:"jitter"`
	Timeout      Duration `yaml:"timeout"`
}

// ProviderConfig configures the upstream NBA data provider.
type ProviderConfig struct {
	BaseURL           string   `yaml:"baseURL"`
	APIKey            string   `yaml:"apiKey"`
	RequestTimeout    Duration `yaml:"requestTimeout"`
	RequestsPerSecond float64  `yaml:"requestsPerSecond"`
	Burst             int      `yaml:"burst"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Environment: EnvDevelopment,
		Server: ServerConfig{
			Address:         ":8080",
			ReadTimeout:     Duration(10 * time.Second),
			WriteTimeout:    Duration(30 * time.Second),
			IdleTimeout:     Duration(60 * time.Second),
			ShutdownTimeout: Duration(15 * time.Second),
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Cache: CacheConfig{
			Enabled:         true,
			DefaultTTL:      Duration(5 * time.Minute),
			CleanupInterval: Duration(time.Minute),
		},
		RateLimit: RateLimitConfig{
			Enabled:       true,
			MaxRequests:   100,
			Window:        Duration(time.Minute),
			SweepInterval: Duration(time.Minute),
			StatusCode:    429,
		},
		Retry: RetryConfig{
			MaxAttempts:  3,
			InitialDelay: Duration(100 * time.Millisecond),
			MaxDelay:     Duration(10 * time.Second),
			Multiplier:   2.0,
			Jitter:       true,
		},
		Provider: ProviderConfig{
			BaseURL:           "https://api.balldontlie.io/v1",
			RequestTimeout:    Duration(10 * time.Second),
			RequestsPerSecond: 5,
			Burst:             5,
		},
	}
}

// Validate checks the configuration and fills defaults for zero values.
func (c *Config) Validate() error {
	defaults := Default()

	if c.Environment == "" {
		c.Environment = defaults.Environment
	}
	if c.Environment != EnvDevelopment && c.Environment != EnvProduction {
		return fmt.Errorf("invalid environment %q", c.Environment)
	}

	if c.Server.Address == "" {
		c.Server.Address = defaults.Server.Address
	}
	if c.Server.ReadTimeout <= 0 {
		c.Server.ReadTimeout = defaults.Server.ReadTimeout
	}
	if c.Server.WriteTimeout <= 0 {
		c.Server.WriteTimeout = defaults.Server.WriteTimeout
	}
	if c.Server.IdleTimeout <= 0 {
		c.Server.IdleTimeout = defaults.Server.IdleTimeout
	}
	if c.Server.ShutdownTimeout <= 0 {
		c.Server.ShutdownTimeout = defaults.Server.ShutdownTimeout
	}

	if c.Log.Level == "" {
		c.Log.Level = defaults.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = defaults.Log.Format
	}
	if c.Log.Output == "" {
		c.Log.Output = defaults.Log.Output
	}

	if c.Cache.DefaultTTL <= 0 {
		c.Cache.DefaultTTL = defaults.Cache.DefaultTTL
	}
	if c.Cache.CleanupInterval <= 0 {
		c.Cache.CleanupInterval = defaults.Cache.CleanupInterval
	}

	if c.RateLimit.MaxRequests <= 0 {
		c.RateLimit.MaxRequests = defaults.RateLimit.MaxRequests
	}
	if c.RateLimit.Window <= 0 {
		c.RateLimit.Window = defaults.RateLimit.Window
	}
	if c.RateLimit.SweepInterval <= 0 {
		c.RateLimit.SweepInterval = defaults.RateLimit.SweepInterval
	}
	if c.RateLimit.StatusCode == 0 {
		c.RateLimit.StatusCode = defaults.RateLimit.StatusCode
	}
	if c.RateLimit.StatusCode < 400 || c.RateLimit.StatusCode > 599 {
		return fmt.Errorf("invalid rate limit status code %d", c.RateLimit.StatusCode)
	}

	if c.Retry.MaxAttempts <= 0 {
		c.Retry.MaxAttempts = defaults.Retry.MaxAttempts
	}
	if c.Retry.InitialDelay <= 0 {
		c.Retry.InitialDelay = defaults.Retry.InitialDelay
	}
	if c.Retry.MaxDelay <= 0 {
		c.Retry.MaxDelay = defaults.Retry.MaxDelay
	}
	if c.Retry.Multiplier <= 0 {
		c.Retry.Multiplier = defaults.Retry.Multiplier
	}

	if c.Provider.BaseURL == "" {
		c.Provider.BaseURL = defaults.Provider.BaseURL
	}
	if c.Provider.RequestTimeout <= 0 {
		c.Provider.RequestTimeout = defaults.Provider.RequestTimeout
	}
	if c.Provider.RequestsPerSecond <= 0 {
		c.Provider.RequestsPerSecond = defaults.Provider.RequestsPerSecond
	}
	if c.Provider.Burst <= 0 {
		c.Provider.Burst = defaults.Provider.Burst
	}

	return nil
}

// IsDevelopment reports whether the service runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == EnvDevelopment
}
