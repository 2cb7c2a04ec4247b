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

package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/atlasmcp/atlasmcp/internal/commands/shared"
)

// SetVersion sets the version information (called from main).
func SetVersion(v, c, b string) {
	shared.SetVersion(v, c, b)
}

// NewRootCommand creates the root cobra command for atlasmcp.
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "atlasmcp",
		Short: "atlasmcp - Jira and Confluence tools over MCP",
		Long: `atlasmcp is an MCP (Model Context Protocol) server that exposes Jira and
Confluence operations as tools for AI assistants. All outgoing API calls run
through a resilient request layer with retries, caching, rate limiting and
automatic API version fallback.

Run 'atlasmcp serve' to start the stdio server.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	jsonFlag, configFlag := shared.RegisterFlagPointers()
	cmd.PersistentFlags().BoolVar(jsonFlag, "json", false, "Output in JSON format")
	cmd.PersistentFlags().StringVar(configFlag, "config", "", "Path to config file (default: ~/.config/atlasmcp/config.yaml)")

	return cmd
}

// HandleExitError prints the error and exits non-zero.
func HandleExitError(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
