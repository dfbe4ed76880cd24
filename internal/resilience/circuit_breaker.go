// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package resilience guards unreliable delivery paths with circuit breakers.
package resilience

import (
	"errors"
	"sync"
	"time"

	xglog "github.com/ManuGH/leadcam/internal/log"
	"github.com/ManuGH/leadcam/internal/metrics"
	"github.com/rs/zerolog"
)

// State represents the circuit breaker state.
type State string

const (
	StateClosed   State = "closed"
	StateOpen     State = "open"
	StateHalfOpen State = "half-open"
)

var ErrCircuitOpen = errors.New("circuit breaker is open")

// clock abstracts time operations for testability.
type clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// CircuitBreaker opens after threshold consecutive failures and lets a single
// trial request through once resetTimeout has elapsed. Outcomes that are not the
// guarded path's fault (unsupported, user cancelled) should not be recorded.
type CircuitBreaker struct {
	mu           sync.Mutex
	name         string
	state        State
	failures     int
	threshold    int
	resetTimeout time.Duration
	openedAt     time.Time
	trialRunning bool
	clock        clock
	logger       zerolog.Logger
}

// Option configuration pattern
type Option func(*CircuitBreaker)

func WithClock(c clock) Option {
	return func(cb *CircuitBreaker) { cb.clock = c }
}

// NewCircuitBreaker creates a closed breaker. name labels metrics and logs.
func NewCircuitBreaker(name string, threshold int, resetTimeout time.Duration, opts ...Option) *CircuitBreaker {
	if threshold <= 0 {
		threshold = 3
	}
	if resetTimeout <= 0 {
		resetTimeout = 30 * time.Second
	}

	cb := &CircuitBreaker{
		name:         name,
		state:        StateClosed,
		threshold:    threshold,
		resetTimeout: resetTimeout,
		clock:        realClock{},
		logger:       xglog.WithComponent("resilience").With().Str("breaker", name).Logger(),
	}
	for _, opt := range opts {
		opt(cb)
	}

	metrics.SetBreakerState(cb.name, string(cb.state))
	return cb
}

// Allow reports whether the guarded call may proceed. In half-open state only
// one trial request is admitted until its outcome is recorded.
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		return true
	case StateOpen:
		if cb.clock.Now().Sub(cb.openedAt) < cb.resetTimeout {
			metrics.RecordBreakerRejection(cb.name)
			return false
		}
		cb.transitionTo(StateHalfOpen)
		cb.trialRunning = true
		return true
	default:
		if cb.trialRunning {
			metrics.RecordBreakerRejection(cb.name)
			return false
		}
		cb.trialRunning = true
		return true
	}
}

// Execute runs fn if the breaker allows it and records the result.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	if !cb.Allow() {
		return ErrCircuitOpen
	}
	if err := fn(); err != nil {
		cb.RecordFailure()
		return err
	}
	cb.RecordSuccess()
	return nil
}

// RecordFailure counts a failure of the guarded call.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures++
	cb.trialRunning = false

	switch {
	case cb.state == StateHalfOpen:
		metrics.RecordBreakerTrip(cb.name, "half_open_failure")
		cb.transitionTo(StateOpen)
	case cb.state == StateClosed && cb.failures >= cb.threshold:
		metrics.RecordBreakerTrip(cb.name, "threshold_exceeded")
		cb.transitionTo(StateOpen)
	}
}

// RecordSuccess closes the breaker and clears the failure count.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures = 0
	cb.trialRunning = false
	cb.transitionTo(StateClosed)
}

// Release abandons an admitted call without recording an outcome, freeing the
// half-open trial slot.
func (cb *CircuitBreaker) Release() {
	cb.mu.Lock()
	cb.trialRunning = false
	cb.mu.Unlock()
}

// transitionTo handles state transitions and updates metrics.
// Caller must hold lock.
func (cb *CircuitBreaker) transitionTo(newState State) {
	if cb.state == newState {
		return
	}
	old := cb.state
	cb.state = newState
	if newState == StateOpen {
		cb.openedAt = cb.clock.Now()
	}
	metrics.SetBreakerState(cb.name, string(newState))
	cb.logger.Info().
		Str(xglog.FieldOldState, string(old)).
		Str(xglog.FieldNewState, string(newState)).
		Int("failures", cb.failures).
		Msg("circuit breaker state changed")
}

// State returns the current state.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Name returns the breaker's label.
func (cb *CircuitBreaker) Name() string { return cb.name }
