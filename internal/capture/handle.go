// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package capture

import (
	"sync"

	"github.com/ManuGH/leadcam/internal/platform"
	"github.com/google/uuid"
)

// Handle owns one live stream. Release stops every track exactly once.
type Handle struct {
	id      string
	stream  platform.Stream
	facing  platform.FacingMode
	profile string

	mu       sync.Mutex
	released bool
	done     chan struct{}
	lost     chan struct{}
	lostOnce sync.Once
}

func newHandle(stream platform.Stream, facing platform.FacingMode, profile string) *Handle {
	h := &Handle{
		id:      uuid.NewString(),
		stream:  stream,
		facing:  facing,
		profile: profile,
		done:    make(chan struct{}),
		lost:    make(chan struct{}),
	}
	for _, tr := range stream.Tracks() {
		go h.watch(tr)
	}
	return h
}

func (h *Handle) watch(tr platform.Track) {
	select {
	case <-tr.Ended():
		h.mu.Lock()
		released := h.released
		h.mu.Unlock()
		if !released {
			h.lostOnce.Do(func() { close(h.lost) })
		}
	case <-h.done:
	}
}

// ID returns the handle's unique identifier.
func (h *Handle) ID() string { return h.id }

// Stream returns the underlying stream.
func (h *Handle) Stream() platform.Stream { return h.stream }

// Facing returns the facing mode the handle was acquired for.
func (h *Handle) Facing() platform.FacingMode { return h.facing }

// Profile returns the name of the constraint profile that succeeded.
func (h *Handle) Profile() string { return h.profile }

// Active reports whether the handle has not been released.
func (h *Handle) Active() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return !h.released
}

// Lost is closed when a track ends while the handle is still active.
func (h *Handle) Lost() <-chan struct{} { return h.lost }

// Release stops all tracks. It is idempotent.
func (h *Handle) Release() error {
	h.mu.Lock()
	if h.released {
		h.mu.Unlock()
		return nil
	}
	h.released = true
	close(h.done)
	h.mu.Unlock()

	for _, tr := range h.stream.Tracks() {
		tr.Stop()
	}
	return nil
}
