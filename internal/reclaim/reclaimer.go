// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package reclaim tracks transient handles (temporary references, capture
// handles) and guarantees they are released on reset or after a bounded time.
package reclaim

import (
	"errors"
	"fmt"
	"sync"
	"time"

	xglog "github.com/ManuGH/leadcam/internal/log"
	"github.com/ManuGH/leadcam/internal/metrics"
	"github.com/ManuGH/leadcam/internal/platform"
	"github.com/rs/zerolog"
)

// DefaultTTL is the expiry applied when Track is called with ttl == 0.
const DefaultTTL = 2 * time.Minute

// NoExpiry disables the automatic release timer for a tracked handle.
const NoExpiry time.Duration = -1

// ErrAlreadyTracked is returned when an ID is registered twice.
var ErrAlreadyTracked = errors.New("handle already tracked")

// Releaser is anything that holds a resource which must be explicitly freed.
type Releaser interface {
	Release() error
}

// ReleaseFunc adapts a function to Releaser.
type ReleaseFunc func() error

// Release calls f.
func (f ReleaseFunc) Release() error { return f() }

type timer interface {
	Stop() bool
}

// clock abstracts timer scheduling for testability.
type clock interface {
	AfterFunc(d time.Duration, f func()) timer
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) timer { return time.AfterFunc(d, f) }

type entry struct {
	r     Releaser
	timer timer
	gen   uint64
}

// Reclaimer is the registry of live transient handles.
type Reclaimer struct {
	mu         sync.Mutex
	entries    map[string]*entry
	gen        uint64
	defaultTTL time.Duration
	clock      clock
	logger     zerolog.Logger
}

// Option configures a Reclaimer.
type Option func(*Reclaimer)

// WithClock replaces the timer source.
func WithClock(c clock) Option {
	return func(r *Reclaimer) { r.clock = c }
}

// WithDefaultTTL sets the expiry applied when Track is called with ttl == 0.
func WithDefaultTTL(d time.Duration) Option {
	return func(r *Reclaimer) { r.defaultTTL = d }
}

// WithLogger overrides the component logger.
func WithLogger(l zerolog.Logger) Option {
	return func(r *Reclaimer) { r.logger = l }
}

// New creates an empty Reclaimer using DefaultTTL.
func New(opts ...Option) *Reclaimer {
	r := &Reclaimer{
		entries:    make(map[string]*entry),
		defaultTTL: DefaultTTL,
		clock:      realClock{},
		logger:     xglog.WithComponent("reclaim"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Track registers h under id. A positive ttl schedules an automatic release,
// zero applies the default TTL and NoExpiry keeps the handle until it is
// released explicitly.
func (r *Reclaimer) Track(id string, h Releaser, ttl time.Duration) error {
	if ttl == 0 {
		ttl = r.defaultTTL
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[id]; exists {
		return fmt.Errorf("%w: %s", ErrAlreadyTracked, id)
	}
	r.gen++
	e := &entry{r: h, gen: r.gen}
	if ttl > 0 {
		gen := e.gen
		e.timer = r.clock.AfterFunc(ttl, func() { r.expire(id, gen) })
	}
	r.entries[id] = e
	metrics.SetTrackedHandles(len(r.entries))
	return nil
}

// TrackReference creates a temporary reference through refs and tracks it
// with the given ttl. The reference is revoked when released.
func (r *Reclaimer) TrackReference(refs platform.References, data []byte, mimeType string, ttl time.Duration) (platform.Reference, error) {
	ref, err := refs.CreateTemporaryReference(data, mimeType)
	if err != nil {
		return "", fmt.Errorf("create temporary reference: %w", err)
	}
	revoke := ReleaseFunc(func() error { return refs.RevokeTemporaryReference(ref) })
	if err := r.Track(string(ref), revoke, ttl); err != nil {
		_ = revoke()
		return "", err
	}
	return ref, nil
}

func (r *Reclaimer) expire(id string, gen uint64) {
	r.mu.Lock()
	e, ok := r.entries[id]
	if !ok || e.gen != gen {
		r.mu.Unlock()
		return
	}
	delete(r.entries, id)
	metrics.SetTrackedHandles(len(r.entries))
	r.mu.Unlock()

	if err := e.r.Release(); err != nil {
		r.logger.Warn().Err(err).Str(xglog.FieldHandleID, id).Str(xglog.FieldEvent, "reclaim.expire_failed").Msg("failed to release expired handle")
	} else {
		r.logger.Debug().Str(xglog.FieldHandleID, id).Str(xglog.FieldEvent, "reclaim.expired").Msg("released expired handle")
	}
	metrics.RecordHandleRelease("expired")
}

// Release frees the handle registered under id. Unknown IDs are a no-op.
func (r *Reclaimer) Release(id string) error {
	e := r.take(id)
	if e == nil {
		return nil
	}
	metrics.RecordHandleRelease("explicit")
	return e.r.Release()
}

// Forget stops tracking id without releasing it. It reports whether id was tracked.
func (r *Reclaimer) Forget(id string) bool {
	return r.take(id) != nil
}

func (r *Reclaimer) take(id string) *entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok {
		return nil
	}
	if e.timer != nil {
		e.timer.Stop()
	}
	delete(r.entries, id)
	metrics.SetTrackedHandles(len(r.entries))
	return e
}

// ReleaseAll releases every tracked handle and clears the registry. Every
// handle is attempted even if some fail.
func (r *Reclaimer) ReleaseAll() error {
	r.mu.Lock()
	entries := r.entries
	r.entries = make(map[string]*entry)
	metrics.SetTrackedHandles(0)
	r.mu.Unlock()

	var errs []error
	for id, e := range entries {
		if e.timer != nil {
			e.timer.Stop()
		}
		if err := e.r.Release(); err != nil {
			errs = append(errs, fmt.Errorf("release %s: %w", id, err))
		}
		metrics.RecordHandleRelease("release_all")
	}
	if len(entries) > 0 {
		r.logger.Debug().Int("count", len(entries)).Str(xglog.FieldEvent, "reclaim.release_all").Msg("released all tracked handles")
	}
	return errors.Join(errs...)
}

// Len returns the number of tracked handles.
func (r *Reclaimer) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Tracked reports whether id is registered.
func (r *Reclaimer) Tracked(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.entries[id]
	return ok
}
