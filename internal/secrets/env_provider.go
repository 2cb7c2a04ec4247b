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

package secrets

import (
	"context"
	"fmt"
	"os"
)

// EnvProvider resolves secrets from environment variables.
type EnvProvider struct{}

// NewEnvProvider creates an environment variable secret provider.
func NewEnvProvider() *EnvProvider {
	return &EnvProvider{}
}

// Scheme returns the provider's identifier.
func (e *EnvProvider) Scheme() string {
	return "env"
}

// Resolve retrieves a secret from the environment variable named by key.
func (e *EnvProvider) Resolve(ctx context.Context, key string) (string, error) {
	value := os.Getenv(key)
	if value == "" {
		return "", fmt.Errorf("%w: environment variable %s is not set", ErrNotFound, key)
	}
	return value, nil
}
