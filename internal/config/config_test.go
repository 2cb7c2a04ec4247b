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

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 30*time.Second, cfg.Client.Timeout)
	assert.Equal(t, 3, cfg.Client.MaxRetries)
	assert.Equal(t, time.Second, cfg.Client.InitialBackoff)
	assert.Equal(t, time.Duration(0), cfg.Client.RateLimitInterval)
	assert.False(t, cfg.Client.CacheDisabled)
	assert.Equal(t, 5*time.Minute, cfg.Client.CacheTTL)
	assert.Equal(t, 60, cfg.Server.RateLimitPerMinute)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
atlassian:
  url: https://example.atlassian.net
  email: bot@example.com
client:
  timeout: 10s
  max_retries: 5
  cache_ttl: 1m
log:
  level: debug
  format: text
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://example.atlassian.net", cfg.Atlassian.URL)
	assert.Equal(t, "bot@example.com", cfg.Atlassian.Email)
	assert.Equal(t, 10*time.Second, cfg.Client.Timeout)
	assert.Equal(t, 5, cfg.Client.MaxRetries)
	assert.Equal(t, time.Minute, cfg.Client.CacheTTL)
	assert.Equal(t, "debug", cfg.Log.Level)

	// Unspecified fields keep their defaults.
	assert.Equal(t, time.Second, cfg.Client.InitialBackoff)
	assert.Equal(t, 60, cfg.Server.RateLimitPerMinute)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("atlassian:\n  url: https://file.atlassian.net\n"), 0600))

	t.Setenv("ATLASSIAN_URL", "https://env.atlassian.net")
	t.Setenv("ATLASSIAN_EMAIL", "env@example.com")
	t.Setenv("ATLASMCP_MAX_RETRIES", "7")
	t.Setenv("ATLASMCP_CACHE_DISABLED", "1")
	t.Setenv("ATLASMCP_RATE_LIMIT_INTERVAL", "200ms")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://env.atlassian.net", cfg.Atlassian.URL)
	assert.Equal(t, "env@example.com", cfg.Atlassian.Email)
	assert.Equal(t, 7, cfg.Client.MaxRetries)
	assert.True(t, cfg.Client.CacheDisabled)
	assert.Equal(t, 200*time.Millisecond, cfg.Client.RateLimitInterval)
}

func TestLoad_MissingFileErrors(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults are valid", func(c *Config) {}, false},
		{"bad url scheme", func(c *Config) { c.Atlassian.URL = "example.atlassian.net" }, true},
		{"zero timeout", func(c *Config) { c.Client.Timeout = 0 }, true},
		{"negative retries", func(c *Config) { c.Client.MaxRetries = -1 }, true},
		{"zero retries ok", func(c *Config) { c.Client.MaxRetries = 0 }, false},
		{"negative pacer interval", func(c *Config) { c.Client.RateLimitInterval = -time.Second }, true},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }, true},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidConfig)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfigDir_RespectsXDGConfigHome(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	got, err := ConfigDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "atlasmcp"), got)

	info, err := os.Stat(got)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
