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
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atlasmcp/atlasmcp/internal/atlassian"
)

func TestResolveConfigPath_ExplicitWins(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	assert.Equal(t, "/tmp/custom.yaml", resolveConfigPath("/tmp/custom.yaml"))
}

func TestResolveConfigPath_DefaultFileFound(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	defaultPath := filepath.Join(dir, "atlasmcp", "config.yaml")
	require.NoError(t, os.MkdirAll(filepath.Dir(defaultPath), 0700))
	require.NoError(t, os.WriteFile(defaultPath, []byte("atlassian:\n  url: https://example.atlassian.net\n"), 0600))

	assert.Equal(t, defaultPath, resolveConfigPath(""))
}

func TestResolveConfigPath_DefaultFileAbsent(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	assert.Empty(t, resolveConfigPath(""), "a missing default file must not force file loading")
}

func TestProbeServices_ResolvesBothStates(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/rest/api/3/serverInfo", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"version": "9"}`))
	})
	// No confluence canary: that probe fails and must be non-fatal.
	server := httptest.NewServer(mux)
	defer server.Close()

	client, err := atlassian.NewClient(atlassian.Options{
		BaseURL:        server.URL,
		Email:          "bot@example.com",
		APIToken:       "token123",
		MaxRetries:     1,
		InitialBackoff: time.Millisecond,
		Logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)

	probeServices(context.Background(), client, slog.New(slog.NewTextHandler(io.Discard, nil)))

	assert.Equal(t, atlassian.ProbeAvailable, client.Negotiator().State(atlassian.ServiceJira).Status)
	assert.Equal(t, atlassian.ProbeUnavailable, client.Negotiator().State(atlassian.ServiceConfluence).Status)
}
