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

// Package secrets resolves the Atlassian API token from its possible
// sources: the config file, the environment, and the system keychain.
package secrets

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is returned when no provider holds the requested secret.
var ErrNotFound = errors.New("secrets: not found")

// Provider resolves a named secret from one backing store.
type Provider interface {
	// Scheme identifies the provider (env, keychain).
	Scheme() string

	// Resolve retrieves the secret value for the given key. Returns
	// ErrNotFound when the key is absent rather than on access failure.
	Resolve(ctx context.Context, key string) (string, error)
}

// Resolver tries a chain of providers in order.
type Resolver struct {
	providers []Provider
}

// NewResolver creates a resolver over the given providers. Order matters:
// the first provider that returns a value wins.
func NewResolver(providers ...Provider) *Resolver {
	return &Resolver{providers: providers}
}

// Resolve returns the first value found across the provider chain.
func (r *Resolver) Resolve(ctx context.Context, key string) (string, error) {
	for _, p := range r.providers {
		value, err := p.Resolve(ctx, key)
		if err == nil {
			return value, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return "", fmt.Errorf("secrets: %s provider failed for %q: %w", p.Scheme(), key, err)
		}
	}
	return "", fmt.Errorf("%w: %q not found in any provider", ErrNotFound, key)
}
