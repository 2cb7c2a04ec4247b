package atlassian

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNegotiator_ResolveVersionDefaults(t *testing.T) {
	n := NewNegotiator(nil)

	assert.Equal(t, "3", n.ResolveVersion(ServiceJira).ID)
	assert.Equal(t, "/rest/api/3", n.ResolveVersion(ServiceJira).Prefix)

	assert.Equal(t, "v2", n.ResolveVersion(ServiceConfluence).ID)
	assert.Equal(t, "/wiki/api/v2", n.ResolveVersion(ServiceConfluence).Prefix)
}

func TestNegotiator_MarkGoneDowngradesPermanently(t *testing.T) {
	n := NewNegotiator(nil)

	next, ok := n.MarkGone(ServiceJira, n.ResolveVersion(ServiceJira))
	require.True(t, ok)
	assert.Equal(t, "2", next.ID)
	assert.Equal(t, "/rest/api/2", next.Prefix)

	// The downgrade sticks for subsequent resolutions.
	assert.Equal(t, "2", n.ResolveVersion(ServiceJira).ID)

	// No further tier exists.
	_, ok = n.MarkGone(ServiceJira, next)
	assert.False(t, ok)
	assert.Equal(t, "2", n.ResolveVersion(ServiceJira).ID)
}

func TestNegotiator_MarkGoneWithStaleGenerationIsIdempotent(t *testing.T) {
	n := NewNegotiator(nil)

	// Two callers resolved v3 before either saw the 410.
	v3 := n.ResolveVersion(ServiceJira)

	next, ok := n.MarkGone(ServiceJira, v3)
	require.True(t, ok)
	require.Equal(t, "2", next.ID)

	// The second observer of the same withdrawal reports the generation it
	// actually used, which is no longer current. The ladder must not advance
	// again: the caller gets the already-downgraded tier to replay against.
	next, ok = n.MarkGone(ServiceJira, v3)
	require.True(t, ok)
	assert.Equal(t, "2", next.ID)
	assert.Equal(t, "2", n.ResolveVersion(ServiceJira).ID)
}

func TestNegotiator_MarkGoneDoesNotCrossServices(t *testing.T) {
	n := NewNegotiator(nil)

	_, ok := n.MarkGone(ServiceConfluence, n.ResolveVersion(ServiceConfluence))
	require.True(t, ok)

	assert.Equal(t, "v1", n.ResolveVersion(ServiceConfluence).ID)
	assert.Equal(t, "3", n.ResolveVersion(ServiceJira).ID, "jira state must be untouched")
}

func TestNegotiator_ProbeRunsOnceAndCaches(t *testing.T) {
	calls := 0
	n := NewNegotiator(func(ctx context.Context, gen Generation) bool {
		calls++
		return true
	})

	assert.True(t, n.Probe(context.Background(), ServiceJira))
	assert.True(t, n.Probe(context.Background(), ServiceJira))
	assert.True(t, n.Probe(context.Background(), ServiceJira))

	assert.Equal(t, 1, calls, "probe result must be cached for the process lifetime")
	assert.Equal(t, ProbeAvailable, n.State(ServiceJira).Status)
	assert.False(t, n.State(ServiceJira).CheckedAt.IsZero())
}

func TestNegotiator_ProbeFailureIsTerminal(t *testing.T) {
	calls := 0
	n := NewNegotiator(func(ctx context.Context, gen Generation) bool {
		calls++
		return false
	})

	assert.False(t, n.Probe(context.Background(), ServiceJira))
	assert.False(t, n.Probe(context.Background(), ServiceJira))

	assert.Equal(t, 1, calls)
	assert.Equal(t, ProbeUnavailable, n.State(ServiceJira).Status)
}

func TestNegotiator_ProbeWithoutFuncReportsUnavailable(t *testing.T) {
	n := NewNegotiator(nil)
	assert.False(t, n.Probe(context.Background(), ServiceConfluence))
}

func TestNegotiator_ResetRestoresDefaults(t *testing.T) {
	n := NewNegotiator(func(ctx context.Context, gen Generation) bool { return false })

	_, _ = n.MarkGone(ServiceJira, n.ResolveVersion(ServiceJira))
	_ = n.Probe(context.Background(), ServiceJira)

	n.Reset(ServiceJira)

	assert.Equal(t, "3", n.ResolveVersion(ServiceJira).ID)
	assert.Equal(t, ProbeUnknown, n.State(ServiceJira).Status)
}
