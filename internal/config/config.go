// Package config loads server configuration from an optional YAML file with
// environment variable overrides.
package config

import (
	"context"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/sethvargo/go-envconfig"
	"gopkg.in/yaml.v3"
)

// Default configuration values. See [Config] for field descriptions.
const (
	DefaultBaseURI               = "http://interview-api.snackable.ai/api"
	DefaultPageSize              = 5
	DefaultPollIntervalSeconds   = 5
	DefaultBackoffSeconds        = 5
	DefaultRequestTimeoutSeconds = 10
	DefaultPort                  = 5000
	DefaultBindAddress           = "0.0.0.0"
	DefaultLogLevel              = "info"
)

// Config contains runtime configuration for the tracker server.
type Config struct {
	BaseURI               string `yaml:"base_uri"`                // Upstream API base URI
	PageSize              int    `yaml:"page_size"`               // Listing page size
	PollIntervalSeconds   int    `yaml:"poll_interval_seconds"`   // Status checker interval
	BackoffSeconds        int    `yaml:"backoff_seconds"`         // Listing poller backoff on empty page
	RequestTimeoutSeconds int    `yaml:"request_timeout_seconds"` // Per-request upstream timeout
	Port                  int    `yaml:"port"`                    // HTTP listen port
	BindAddress           string `yaml:"bind_address"`            // HTTP bind address
	LogLevel              string `yaml:"log_level"`               // zerolog level name
}

// fileOverride uses pointer fields to distinguish unset from zero values when
// loading a partial YAML file.
type fileOverride struct {
	BaseURI               *string `yaml:"base_uri"`
	PageSize              *int    `yaml:"page_size"`
	PollIntervalSeconds   *int    `yaml:"poll_interval_seconds"`
	BackoffSeconds        *int    `yaml:"backoff_seconds"`
	RequestTimeoutSeconds *int    `yaml:"request_timeout_seconds"`
	Port                  *int    `yaml:"port"`
	BindAddress           *string `yaml:"bind_address"`
	LogLevel              *string `yaml:"log_level"`
}

// envOverride mirrors fileOverride for environment variables; unset variables
// leave the pointer nil.
type envOverride struct {
	BaseURI               *string `env:"UPSTREAM_BASE_URI"`
	PageSize              *int    `env:"PAGE_SIZE"`
	PollIntervalSeconds   *int    `env:"POLL_INTERVAL_SECONDS"`
	BackoffSeconds        *int    `env:"BACKOFF_SECONDS"`
	RequestTimeoutSeconds *int    `env:"REQUEST_TIMEOUT_SECONDS"`
	Port                  *int    `env:"PORT"`
	BindAddress           *string `env:"BIND_ADDRESS"`
	LogLevel              *string `env:"LOG_LEVEL"`
}

// Default returns a Config populated with all default values.
func Default() *Config {
	return &Config{
		BaseURI:               DefaultBaseURI,
		PageSize:              DefaultPageSize,
		PollIntervalSeconds:   DefaultPollIntervalSeconds,
		BackoffSeconds:        DefaultBackoffSeconds,
		RequestTimeoutSeconds: DefaultRequestTimeoutSeconds,
		Port:                  DefaultPort,
		BindAddress:           DefaultBindAddress,
		LogLevel:              DefaultLogLevel,
	}
}

// Load builds the effective configuration: defaults, then the YAML file at
// path (a missing file is not an error), then environment overrides.
func Load(ctx context.Context, path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			var fo fileOverride
			if err := yaml.Unmarshal(data, &fo); err != nil {
				return nil, fmt.Errorf("parsing config file %s: %w", path, err)
			}
			fo.apply(cfg)
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
	}

	var eo envOverride
	if err := envconfig.Process(ctx, &eo); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}
	eo.apply(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (o *fileOverride) apply(cfg *Config) {
	if o.BaseURI != nil {
		cfg.BaseURI = *o.BaseURI
	}
	if o.PageSize != nil {
		cfg.PageSize = *o.PageSize
	}
	if o.PollIntervalSeconds != nil {
		cfg.PollIntervalSeconds = *o.PollIntervalSeconds
	}
	if o.BackoffSeconds != nil {
		cfg.BackoffSeconds = *o.BackoffSeconds
	}
	if o.RequestTimeoutSeconds != nil {
		cfg.RequestTimeoutSeconds = *o.RequestTimeoutSeconds
	}
	if o.Port != nil {
		cfg.Port = *o.Port
	}
	if o.BindAddress != nil {
		cfg.BindAddress = *o.BindAddress
	}
	if o.LogLevel != nil {
		cfg.LogLevel = *o.LogLevel
	}
}

func (o *envOverride) apply(cfg *Config) {
	if o.BaseURI != nil {
		cfg.BaseURI = *o.BaseURI
	}
	if o.PageSize != nil {
		cfg.PageSize = *o.PageSize
	}
	if o.PollIntervalSeconds != nil {
		cfg.PollIntervalSeconds = *o.PollIntervalSeconds
	}
	if o.BackoffSeconds != nil {
		cfg.BackoffSeconds = *o.BackoffSeconds
	}
	if o.RequestTimeoutSeconds != nil {
		cfg.RequestTimeoutSeconds = *o.RequestTimeoutSeconds
	}
	if o.Port != nil {
		cfg.Port = *o.Port
	}
	if o.BindAddress != nil {
		cfg.BindAddress = *o.BindAddress
	}
	if o.LogLevel != nil {
		cfg.LogLevel = *o.LogLevel
	}
}

// Validate checks the configuration for values the server cannot run with.
func (c *Config) Validate() error {
	if c.BaseURI == "" {
		return fmt.Errorf("base_uri must not be empty")
	}
	if c.PageSize < 1 {
		return fmt.Errorf("page_size must be positive, got %d", c.PageSize)
	}
	if c.PollIntervalSeconds < 1 {
		return fmt.Errorf("poll_interval_seconds must be positive, got %d", c.PollIntervalSeconds)
	}
	if c.BackoffSeconds < 1 {
		return fmt.Errorf("backoff_seconds must be positive, got %d", c.BackoffSeconds)
	}
	if c.RequestTimeoutSeconds < 1 {
		return fmt.Errorf("request_timeout_seconds must be positive, got %d", c.RequestTimeoutSeconds)
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}
	if net.ParseIP(c.BindAddress) == nil {
		return fmt.Errorf("bind_address must be a valid IP address, got %q", c.BindAddress)
	}
	return nil
}

// PollInterval returns the status checker interval as a Duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSeconds) * time.Second
}

// Backoff returns the listing poller backoff as a Duration.
func (c *Config) Backoff() time.Duration {
	return time.Duration(c.BackoffSeconds) * time.Second
}

// RequestTimeout returns the upstream request timeout as a Duration.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.BindAddress, c.Port)
}
