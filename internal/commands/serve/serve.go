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

package serve

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/atlasmcp/atlasmcp/internal/atlassian"
	"github.com/atlasmcp/atlasmcp/internal/atlassian/confluence"
	"github.com/atlasmcp/atlasmcp/internal/atlassian/jira"
	"github.com/atlasmcp/atlasmcp/internal/commands/shared"
	"github.com/atlasmcp/atlasmcp/internal/config"
	"github.com/atlasmcp/atlasmcp/internal/log"
	"github.com/atlasmcp/atlasmcp/internal/mcpserver"
	"github.com/atlasmcp/atlasmcp/internal/secrets"
	"github.com/atlasmcp/atlasmcp/internal/transport"
)

// tokenKey is the env var and keychain entry holding the API token.
const tokenKey = "ATLASSIAN_API_TOKEN"

// NewCommand creates the serve command.
func NewCommand() *cobra.Command {
	var logLevel string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the atlasmcp MCP server",
		Long: `Start the atlasmcp MCP (Model Context Protocol) server in stdio mode.

The server exposes Jira and Confluence operations as tools that AI assistants
can call. Credentials come from the config file, the ATLASSIAN_URL /
ATLASSIAN_EMAIL / ATLASSIAN_API_TOKEN environment variables, or the system
keychain (service "atlasmcp", entry "ATLASSIAN_API_TOKEN").

Configuration example for an MCP client:
  {
    "mcpServers": {
      "atlassian": {
        "command": "atlasmcp",
        "args": ["serve"]
      }
    }
  }

All logs go to stderr; stdout carries the MCP protocol stream.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, logLevel)
		},
	}

	cmd.Flags().StringVar(&logLevel, "log-level", "", "Logging verbosity (debug, info, warn, error)")

	return cmd
}

// resolveConfigPath returns the config file to load: the explicit --config
// value when given, otherwise the default XDG path if a file exists there.
// An absent default file is not an error; env vars alone can configure the
// server.
func resolveConfigPath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	path, err := config.ConfigPath()
	if err != nil {
		return ""
	}
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

// probeServices runs the one-time capability check for each service so an
// unreachable default API generation is visible at startup rather than on
// the first tool call. Probe failures are not fatal: credentials may be
// scoped to one product only.
func probeServices(ctx context.Context, client *atlassian.Client, logger *slog.Logger) {
	for _, svc := range []atlassian.Service{atlassian.ServiceJira, atlassian.ServiceConfluence} {
		gen := client.Negotiator().ResolveVersion(svc)
		if client.Probe(ctx, svc) {
			logger.Info("service available",
				slog.String(log.ServiceKey, string(svc)),
				slog.String(log.VersionKey, gen.ID))
			continue
		}
		logger.Warn("service probe failed, default API generation unreachable",
			slog.String(log.ServiceKey, string(svc)),
			slog.String(log.VersionKey, gen.ID))
	}
}

func runServe(cmd *cobra.Command, logLevel string) error {
	cfg, err := config.Load(resolveConfigPath(shared.GetConfigPath()))
	if err != nil {
		return err
	}

	logCfg := log.FromEnv()
	logCfg.Level = cfg.Log.Level
	logCfg.Format = log.Format(cfg.Log.Format)
	if logLevel != "" {
		logCfg.Level = logLevel
	}
	logger := log.New(logCfg)

	if cfg.Atlassian.URL == "" {
		return fmt.Errorf("atlassian.url is required (config file or ATLASSIAN_URL)")
	}
	if cfg.Atlassian.Email == "" {
		return fmt.Errorf("atlassian.email is required (config file or ATLASSIAN_EMAIL)")
	}

	token := cfg.Atlassian.APIToken
	if token == "" {
		resolver := secrets.NewResolver(
			secrets.NewEnvProvider(),
			secrets.NewKeychainProvider(secrets.KeychainService),
		)
		token, err = resolver.Resolve(cmd.Context(), tokenKey)
		if err != nil {
			return fmt.Errorf("no API token available: %w", err)
		}
	}

	client, err := atlassian.NewClient(atlassian.Options{
		BaseURL:           cfg.Atlassian.URL,
		Email:             cfg.Atlassian.Email,
		APIToken:          token,
		Timeout:           cfg.Client.Timeout,
		MaxRetries:        cfg.Client.MaxRetries,
		InitialBackoff:    cfg.Client.InitialBackoff,
		RateLimitInterval: cfg.Client.RateLimitInterval,
		CacheDisabled:     cfg.Client.CacheDisabled,
		CacheTTL:          cfg.Client.CacheTTL,
		Logger:            logger,
		Metrics:           transport.NewMetricsCollector(),
	})
	if err != nil {
		return fmt.Errorf("failed to create Atlassian client: %w", err)
	}

	probeServices(cmd.Context(), client, logger)

	versionStr, _, _ := shared.GetVersion()

	srv, err := mcpserver.NewServer(mcpserver.Config{
		Name:            "atlasmcp",
		Version:         versionStr,
		Jira:            jira.NewService(client),
		Confluence:      confluence.NewService(client),
		CallsPerMinute:  cfg.Server.RateLimitPerMinute,
		WritesPerMinute: cfg.Server.RateLimitPerMinute / 2,
		Logger:          logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nReceived shutdown signal, shutting down gracefully...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			fmt.Fprintf(os.Stderr, "Error during shutdown: %v\n", err)
		}

		cancel()
	}()

	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("MCP server failed: %w", err)
	}

	return nil
}
