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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProvider is a test double holding a fixed key/value map.
type fakeProvider struct {
	scheme string
	values map[string]string
	err    error
}

func (f *fakeProvider) Scheme() string { return f.scheme }

func (f *fakeProvider) Resolve(_ context.Context, key string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if v, ok := f.values[key]; ok {
		return v, nil
	}
	return "", ErrNotFound
}

func TestEnvProvider_Resolve(t *testing.T) {
	t.Setenv("ATLASMCP_TEST_SECRET", "s3cret")

	p := NewEnvProvider()
	assert.Equal(t, "env", p.Scheme())

	value, err := p.Resolve(context.Background(), "ATLASMCP_TEST_SECRET")
	require.NoError(t, err)
	assert.Equal(t, "s3cret", value)
}

func TestEnvProvider_ResolveMissing(t *testing.T) {
	p := NewEnvProvider()

	_, err := p.Resolve(context.Background(), "ATLASMCP_TEST_UNSET_VAR")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResolver_FirstProviderWins(t *testing.T) {
	first := &fakeProvider{scheme: "a", values: map[string]string{"token": "from-a"}}
	second := &fakeProvider{scheme: "b", values: map[string]string{"token": "from-b"}}

	r := NewResolver(first, second)
	value, err := r.Resolve(context.Background(), "token")
	require.NoError(t, err)
	assert.Equal(t, "from-a", value)
}

func TestResolver_FallsThroughNotFound(t *testing.T) {
	first := &fakeProvider{scheme: "a", values: map[string]string{}}
	second := &fakeProvider{scheme: "b", values: map[string]string{"token": "from-b"}}

	r := NewResolver(first, second)
	value, err := r.Resolve(context.Background(), "token")
	require.NoError(t, err)
	assert.Equal(t, "from-b", value)
}

func TestResolver_AllMissing(t *testing.T) {
	r := NewResolver(&fakeProvider{scheme: "a"}, &fakeProvider{scheme: "b"})

	_, err := r.Resolve(context.Background(), "token")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResolver_ProviderFailureStopsChain(t *testing.T) {
	boom := errors.New("keychain locked")
	first := &fakeProvider{scheme: "a", err: boom}
	second := &fakeProvider{scheme: "b", values: map[string]string{"token": "from-b"}}

	r := NewResolver(first, second)
	_, err := r.Resolve(context.Background(), "token")
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestResolver_Empty(t *testing.T) {
	r := NewResolver()

	_, err := r.Resolve(context.Background(), "token")
	assert.ErrorIs(t, err, ErrNotFound)
}
