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

// Package mcpserver exposes Jira and Confluence operations as MCP tools
// over stdio. All logging goes to stderr; stdout belongs to the protocol.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/atlasmcp/atlasmcp/internal/atlassian/confluence"
	"github.com/atlasmcp/atlasmcp/internal/atlassian/jira"
	"github.com/atlasmcp/atlasmcp/internal/log"
)

// Server wraps the MCP server and the Atlassian tool surface.
type Server struct {
	mcpServer   *server.MCPServer
	name        string
	version     string
	jira        *jira.Service
	confluence  *confluence.Service
	rateLimiter *RateLimiter
	logger      *slog.Logger
}

// Config configures the MCP server.
type Config struct {
	// Name is the server name (default: "atlasmcp")
	Name string

	// Version is the atlasmcp version
	Version string

	// Jira provides the Jira tool implementations
	Jira *jira.Service

	// Confluence provides the Confluence tool implementations
	Confluence *confluence.Service

	// CallsPerMinute caps total tool calls per minute. Zero disables the cap.
	CallsPerMinute int

	// WritesPerMinute caps mutating tool calls per minute. Zero disables
	// the cap.
	WritesPerMinute int

	// Logger receives structured logs. Must not write to stdout.
	Logger *slog.Logger
}

// NewServer creates a new MCP server instance.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Name == "" {
		cfg.Name = "atlasmcp"
	}
	if cfg.Version == "" {
		cfg.Version = "dev"
	}
	if cfg.Jira == nil || cfg.Confluence == nil {
		return nil, fmt.Errorf("mcpserver: both Jira and Confluence services are required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	s := &Server{
		mcpServer:   server.NewMCPServer(cfg.Name, cfg.Version),
		name:        cfg.Name,
		version:     cfg.Version,
		jira:        cfg.Jira,
		confluence:  cfg.Confluence,
		rateLimiter: NewRateLimiter(cfg.CallsPerMinute, cfg.WritesPerMinute),
		logger:      log.WithComponent(cfg.Logger, "mcpserver"),
	}

	s.registerJiraTools()
	s.registerConfluenceTools()

	return s, nil
}

// Run starts the MCP server using stdio transport. It blocks until the
// client closes the stream.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("starting MCP server", slog.String("name", s.name), slog.String("version", s.version))

	if err := server.ServeStdio(s.mcpServer); err != nil {
		return fmt.Errorf("MCP server error: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down MCP server")
	// mcp-go has no explicit shutdown; returning from ServeStdio suffices.
	return nil
}

// errorResponse creates a tool error result. Tool failures are results, not
// protocol errors: the model should see them and react.
func errorResponse(message string) *mcp.CallToolResult {
	return mcp.NewToolResultError(message)
}

// jsonResponse renders a result map as indented JSON text content.
func jsonResponse(payload interface{}) *mcp.CallToolResult {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return errorResponse(fmt.Sprintf("failed to encode result: %v", err))
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(string(data)),
		},
	}
}
