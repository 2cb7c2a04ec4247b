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

package mcpserver

import (
	"sync"
	"time"
)

// RateLimiter implements token bucket rate limiting for MCP tool calls.
// Writes draw from both buckets: a mutating call is still a call.
type RateLimiter struct {
	callBucket  *tokenBucket
	writeBucket *tokenBucket
}

// tokenBucket implements a simple token bucket algorithm.
type tokenBucket struct {
	mu         sync.Mutex
	tokens     float64
	maxTokens  float64
	refillRate float64 // tokens per second
	lastRefill time.Time
}

// NewRateLimiter creates a rate limiter with per-minute limits.
// A zero or negative limit disables that bucket.
func NewRateLimiter(callsPerMinute, writesPerMinute int) *RateLimiter {
	return &RateLimiter{
		callBucket:  newBucket(callsPerMinute),
		writeBucket: newBucket(writesPerMinute),
	}
}

func newBucket(perMinute int) *tokenBucket {
	if perMinute <= 0 {
		return nil
	}
	return &tokenBucket{
		tokens:     float64(perMinute),
		maxTokens:  float64(perMinute),
		refillRate: float64(perMinute) / 60.0,
		lastRefill: time.Now(),
	}
}

// AllowCall checks if any tool call is allowed.
func (rl *RateLimiter) AllowCall() bool {
	return rl.callBucket.take(1)
}

// AllowWrite checks if a mutating tool call is allowed.
func (rl *RateLimiter) AllowWrite() bool {
	return rl.writeBucket.take(1)
}

// take attempts to take n tokens from the bucket. A nil bucket always
// allows.
func (tb *tokenBucket) take(n float64) bool {
	if tb == nil {
		return true
	}

	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(tb.lastRefill).Seconds()
	tb.tokens = min(tb.maxTokens, tb.tokens+elapsed*tb.refillRate)
	tb.lastRefill = now

	if tb.tokens >= n {
		tb.tokens -= n
		return true
	}

	return false
}
