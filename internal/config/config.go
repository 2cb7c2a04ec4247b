// Copyright 2025 The atlasmcp Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads and validates the atlasmcp configuration from a YAML
// file and environment variables. Environment variables take precedence over
// file values.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is returned when configuration validation fails.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// Config represents the complete atlasmcp configuration.
type Config struct {
	Atlassian AtlassianConfig `yaml:"atlassian"`
	Client    ClientConfig    `yaml:"client"`
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
}

// AtlassianConfig holds the site and credentials.
type AtlassianConfig struct {
	// URL is the base site URL, e.g. https://example.atlassian.net.
	// Environment: ATLASSIAN_URL
	URL string `yaml:"url"`

	// Email is the account to authenticate as.
	// Environment: ATLASSIAN_EMAIL
	Email string `yaml:"email"`

	// APIToken is the API token paired with Email. Leaving it empty in the
	// file is the expected setup; it is then read from ATLASSIAN_API_TOKEN
	// or the system keychain.
	APIToken string `yaml:"api_token,omitempty"`
}

// ClientConfig tunes the resilient request layer.
type ClientConfig struct {
	// Timeout is the per-attempt HTTP timeout.
	// Default: 30s
	Timeout time.Duration `yaml:"timeout,omitempty"`

	// MaxRetries is the total attempt budget per logical call, including the
	// first try.
	// Default: 3
	MaxRetries int `yaml:"max_retries,omitempty"`

	// InitialBackoff is the base delay for exponential backoff.
	// Default: 1s
	InitialBackoff time.Duration `yaml:"initial_backoff,omitempty"`

	// RateLimitInterval is the minimum spacing between outgoing requests.
	// Zero disables client-side pacing.
	RateLimitInterval time.Duration `yaml:"rate_limit_interval,omitempty"`

	// CacheDisabled turns off the response cache for idempotent reads.
	CacheDisabled bool `yaml:"cache_disabled,omitempty"`

	// CacheTTL is how long cached responses stay fresh.
	// Default: 5m
	CacheTTL time.Duration `yaml:"cache_ttl,omitempty"`
}

// ServerConfig tunes the MCP server surface.
type ServerConfig struct {
	// RateLimitPerMinute caps tool calls per minute. Zero disables the cap.
	// Default: 60
	RateLimitPerMinute int `yaml:"rate_limit_per_minute,omitempty"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	// Level sets the minimum log level (debug, info, warn, error).
	Level string `yaml:"level,omitempty"`

	// Format sets the output format (json, text).
	Format string `yaml:"format,omitempty"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Client: ClientConfig{
			Timeout:        30 * time.Second,
			MaxRetries:     3,
			InitialBackoff: time.Second,
			CacheTTL:       5 * time.Minute,
		},
		Server: ServerConfig{
			RateLimitPerMinute: 60,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load loads configuration from environment variables and optionally from a
// YAML file. Environment variables take precedence over file values. If
// configPath is empty, only environment variables are used.
func Load(configPath string) (*Config, error) {
	cfg := Default()

	if configPath != "" {
		if err := cfg.loadFromFile(configPath); err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", configPath, err)
		}
	}

	cfg.applyDefaults()
	cfg.loadFromEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults fills in zero values with defaults so minimal config files
// work without specifying every field.
func (c *Config) applyDefaults() {
	defaults := Default()

	if c.Client.Timeout == 0 {
		c.Client.Timeout = defaults.Client.Timeout
	}
	if c.Client.MaxRetries == 0 {
		c.Client.MaxRetries = defaults.Client.MaxRetries
	}
	if c.Client.InitialBackoff == 0 {
		c.Client.InitialBackoff = defaults.Client.InitialBackoff
	}
	if c.Client.CacheTTL == 0 {
		c.Client.CacheTTL = defaults.Client.CacheTTL
	}
	if c.Server.RateLimitPerMinute == 0 {
		c.Server.RateLimitPerMinute = defaults.Server.RateLimitPerMinute
	}
	if c.Log.Level == "" {
		c.Log.Level = defaults.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = defaults.Log.Format
	}
}

// loadFromFile loads configuration from a YAML file.
func (c *Config) loadFromFile(path string) error {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(home, path[2:])
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}

	return nil
}

// loadFromEnv loads configuration from environment variables.
func (c *Config) loadFromEnv() {
	if val := os.Getenv("ATLASSIAN_URL"); val != "" {
		c.Atlassian.URL = val
	}
	if val := os.Getenv("ATLASSIAN_EMAIL"); val != "" {
		c.Atlassian.Email = val
	}
	if val := os.Getenv("ATLASSIAN_API_TOKEN"); val != "" {
		c.Atlassian.APIToken = val
	}

	if val := os.Getenv("ATLASMCP_TIMEOUT"); val != "" {
		if duration, err := time.ParseDuration(val); err == nil {
			c.Client.Timeout = duration
		}
	}
	if val := os.Getenv("ATLASMCP_MAX_RETRIES"); val != "" {
		if retries, err := strconv.Atoi(val); err == nil {
			c.Client.MaxRetries = retries
		}
	}
	if val := os.Getenv("ATLASMCP_INITIAL_BACKOFF"); val != "" {
		if duration, err := time.ParseDuration(val); err == nil {
			c.Client.InitialBackoff = duration
		}
	}
	if val := os.Getenv("ATLASMCP_RATE_LIMIT_INTERVAL"); val != "" {
		if duration, err := time.ParseDuration(val); err == nil {
			c.Client.RateLimitInterval = duration
		}
	}
	if val := os.Getenv("ATLASMCP_CACHE_DISABLED"); val != "" {
		c.Client.CacheDisabled = val == "true" || val == "1"
	}
	if val := os.Getenv("ATLASMCP_CACHE_TTL"); val != "" {
		if duration, err := time.ParseDuration(val); err == nil {
			c.Client.CacheTTL = duration
		}
	}
	if val := os.Getenv("ATLASMCP_RATE_LIMIT_PER_MINUTE"); val != "" {
		if limit, err := strconv.Atoi(val); err == nil {
			c.Server.RateLimitPerMinute = limit
		}
	}

	if val := os.Getenv("LOG_LEVEL"); val != "" {
		c.Log.Level = strings.ToLower(val)
	}
	if val := os.Getenv("LOG_FORMAT"); val != "" {
		c.Log.Format = strings.ToLower(val)
	}
}

// Validate checks the configuration for invalid values. Credentials are not
// required here: the secrets layer may still supply the token, and commands
// that never touch the network (version, help) must work without one.
func (c *Config) Validate() error {
	var errs []string

	if c.Atlassian.URL != "" && !strings.HasPrefix(c.Atlassian.URL, "http://") && !strings.HasPrefix(c.Atlassian.URL, "https://") {
		errs = append(errs, fmt.Sprintf("atlassian.url must start with http:// or https://, got %q", c.Atlassian.URL))
	}

	if c.Client.Timeout <= 0 {
		errs = append(errs, fmt.Sprintf("client.timeout must be positive, got %v", c.Client.Timeout))
	}
	if c.Client.MaxRetries < 0 {
		errs = append(errs, fmt.Sprintf("client.max_retries must be non-negative, got %d", c.Client.MaxRetries))
	}
	if c.Client.InitialBackoff <= 0 {
		errs = append(errs, fmt.Sprintf("client.initial_backoff must be positive, got %v", c.Client.InitialBackoff))
	}
	if c.Client.RateLimitInterval < 0 {
		errs = append(errs, fmt.Sprintf("client.rate_limit_interval must be non-negative, got %v", c.Client.RateLimitInterval))
	}
	if c.Client.CacheTTL <= 0 {
		errs = append(errs, fmt.Sprintf("client.cache_ttl must be positive, got %v", c.Client.CacheTTL))
	}

	if c.Server.RateLimitPerMinute < 0 {
		errs = append(errs, fmt.Sprintf("server.rate_limit_per_minute must be non-negative, got %d", c.Server.RateLimitPerMinute))
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "warning": true, "error": true}
	if !validLevels[c.Log.Level] {
		errs = append(errs, fmt.Sprintf("log.level must be one of [debug, info, warn, warning, error], got %q", c.Log.Level))
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Log.Format] {
		errs = append(errs, fmt.Sprintf("log.format must be one of [json, text], got %q", c.Log.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w:\n  - %s", ErrInvalidConfig, strings.Join(errs, "\n  - "))
	}

	return nil
}
