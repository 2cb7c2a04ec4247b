package atlassian

import (
	"context"
	"sync"
	"time"
)

// Generation is one generation of a service's API surface.
type Generation struct {
	// ID is the version label, e.g. "3" for Jira or "v2" for Confluence
	ID string

	// Prefix is the path prefix addressing this generation,
	// e.g. "/rest/api/3" or "/wiki/api/v2"
	Prefix string

	// CanaryPath is a cheap authenticated GET used to probe availability
	CanaryPath string
}

// ProbeStatus is the lifecycle of a service's one-time availability check.
type ProbeStatus int

const (
	// ProbeUnknown means the service has not been probed yet
	ProbeUnknown ProbeStatus = iota

	// ProbeAvailable means the default generation answered the canary
	ProbeAvailable

	// ProbeUnavailable means the canary failed; terminal for the process
	ProbeUnavailable
)

// VersionState is the cached negotiation state for one service.
type VersionState struct {
	Status    ProbeStatus
	CheckedAt time.Time
}

// serviceVersions tracks which generation a service currently addresses.
type serviceVersions struct {
	generations []Generation
	// current indexes generations; advanced permanently by MarkGone
	current int
	probe   VersionState
}

// probeFunc performs the canary GET for a generation and reports success.
type probeFunc func(ctx context.Context, gen Generation) bool

// Negotiator resolves, per service, which API generation a request should
// address, and adapts when the server reports that generation withdrawn.
//
// Both the probe result and any downgrade are cached for the remainder of the
// process: remote API deprecation is rare and irreversible within a session,
// so re-checking on every call would buy nothing but round-trips.
type Negotiator struct {
	mu       sync.Mutex
	services map[Service]*serviceVersions
	probe    probeFunc
}

// NewNegotiator creates a negotiator with the standard Jira and Confluence
// generation ladders. probe performs the canary request; it may be nil, in
// which case Probe reports unavailable.
func NewNegotiator(probe probeFunc) *Negotiator {
	return &Negotiator{
		probe: probe,
		services: map[Service]*serviceVersions{
			ServiceJira: {
				generations: []Generation{
					{ID: "3", Prefix: "/rest/api/3", CanaryPath: "/serverInfo"},
					{ID: "2", Prefix: "/rest/api/2", CanaryPath: "/serverInfo"},
				},
			},
			ServiceConfluence: {
				generations: []Generation{
					{ID: "v2", Prefix: "/wiki/api/v2", CanaryPath: "/spaces"},
					{ID: "v1", Prefix: "/wiki/rest/api", CanaryPath: "/space"},
				},
			},
		},
	}
}

// ResolveVersion returns the generation the service currently addresses.
func (n *Negotiator) ResolveVersion(service Service) Generation {
	n.mu.Lock()
	defer n.mu.Unlock()

	sv := n.services[service]
	return sv.generations[sv.current]
}

// MarkGone records that gone, the generation a request actually addressed,
// was withdrawn by the server. When gone is still the service's current
// generation the service is permanently downgraded to the next older tier.
// When a concurrent caller already advanced past gone, the ladder is left
// alone and the already-current generation is returned: the second observer
// of the same withdrawal must not consume a further tier. Returns false only
// when no fallback tier exists; the caller propagates the original error in
// that case.
func (n *Negotiator) MarkGone(service Service, gone Generation) (Generation, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()

	sv := n.services[service]
	if sv.generations[sv.current].ID != gone.ID {
		return sv.generations[sv.current], true
	}
	if sv.current+1 >= len(sv.generations) {
		return Generation{}, false
	}
	sv.current++
	return sv.generations[sv.current], true
}

// Probe performs the one-time availability check for the service's current
// generation and caches the outcome for the life of the process.
func (n *Negotiator) Probe(ctx context.Context, service Service) bool {
	n.mu.Lock()
	sv := n.services[service]
	if sv.probe.Status != ProbeUnknown {
		cached := sv.probe.Status == ProbeAvailable
		n.mu.Unlock()
		return cached
	}
	gen := sv.generations[sv.current]
	probe := n.probe
	n.mu.Unlock()

	available := probe != nil && probe(ctx, gen)

	n.mu.Lock()
	defer n.mu.Unlock()
	// First writer wins; a concurrent probe of the same service reached the
	// same endpoint and the answers agree for practical purposes.
	if sv.probe.Status == ProbeUnknown {
		sv.probe = VersionState{Status: ProbeAvailable, CheckedAt: time.Now()}
		if !available {
			sv.probe.Status = ProbeUnavailable
		}
	}
	return sv.probe.Status == ProbeAvailable
}

// State returns the cached probe state for the service.
func (n *Negotiator) State(service Service) VersionState {
	n.mu.Lock()
	defer n.mu.Unlock()

	return n.services[service].probe
}

// Reset clears the service's probe result and downgrade decision.
// Intended for tests.
func (n *Negotiator) Reset(service Service) {
	n.mu.Lock()
	defer n.mu.Unlock()

	sv := n.services[service]
	sv.current = 0
	sv.probe = VersionState{}
}
