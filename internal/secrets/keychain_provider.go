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
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

// KeychainService is the keychain service name used for all entries.
const KeychainService = "atlasmcp"

// KeychainProvider resolves secrets from the system keychain.
//
// Supported platforms:
//   - macOS: Keychain Access
//   - Linux: Secret Service API (GNOME Keyring, KWallet)
//   - Windows: Credential Manager
type KeychainProvider struct {
	service string
}

// NewKeychainProvider creates a keychain secret provider.
func NewKeychainProvider(service string) *KeychainProvider {
	if service == "" {
		service = KeychainService
	}
	return &KeychainProvider{service: service}
}

// Scheme returns the provider's identifier.
func (k *KeychainProvider) Scheme() string {
	return "keychain"
}

// Resolve retrieves a secret from the system keychain.
func (k *KeychainProvider) Resolve(ctx context.Context, key string) (string, error) {
	value, err := keyring.Get(k.service, key)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", fmt.Errorf("%w: keychain entry %s/%s", ErrNotFound, k.service, key)
		}
		return "", fmt.Errorf("keychain access error: %w", err)
	}
	return value, nil
}

// Store writes a secret to the system keychain.
func (k *KeychainProvider) Store(ctx context.Context, key, value string) error {
	if err := keyring.Set(k.service, key, value); err != nil {
		return fmt.Errorf("keychain write error: %w", err)
	}
	return nil
}

// Delete removes a secret from the system keychain.
func (k *KeychainProvider) Delete(ctx context.Context, key string) error {
	if err := keyring.Delete(k.service, key); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("keychain delete error: %w", err)
	}
	return nil
}
