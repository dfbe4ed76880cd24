// SPDX-License-Identifier: MIT

// Package ratelimit guards user-triggered operations against repeated taps.
package ratelimit

import (
	"errors"
	"sync"
	"time"

	"github.com/ManuGH/leadcam/internal/metrics"
	"golang.org/x/time/rate"
)

var (
	ErrInFlight    = errors.New("operation already in flight")
	ErrCoolingDown = errors.New("operation requested within cool-down window")
)

// Clock returns the current time.
type Clock func() time.Time

// Gate admits at most one operation at a time and enforces a minimum
// interval between admitted operations.
type Gate struct {
	name     string
	cooldown time.Duration
	now      Clock

	mu       sync.Mutex
	limiter  *rate.Limiter
	inFlight bool
}

// NewGate creates a gate. A zero cooldown only enforces the in-flight rule.
// now may be nil to use time.Now.
func NewGate(name string, cooldown time.Duration, now Clock) *Gate {
	if now == nil {
		now = time.Now
	}
	limit := rate.Inf
	if cooldown > 0 {
		limit = rate.Every(cooldown)
	}
	return &Gate{
		name:     name,
		cooldown: cooldown,
		now:      now,
		limiter:  rate.NewLimiter(limit, 1),
	}
}

// TryEnter admits an operation or reports why it was rejected. A rejected
// request does not consume the cool-down. Every nil return must be paired
// with Leave.
func (g *Gate) TryEnter() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.inFlight {
		metrics.RecordRateLimited(g.name, "in_flight")
		return ErrInFlight
	}
	if !g.limiter.AllowN(g.now(), 1) {
		metrics.RecordRateLimited(g.name, "cooldown")
		return ErrCoolingDown
	}
	g.inFlight = true
	return nil
}

// Leave marks the admitted operation as finished.
func (g *Gate) Leave() {
	g.mu.Lock()
	g.inFlight = false
	g.mu.Unlock()
}

// InFlight reports whether an operation is running.
func (g *Gate) InFlight() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.inFlight
}

// Cooldown returns the configured minimum interval.
func (g *Gate) Cooldown() time.Duration { return g.cooldown }
