// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package capture

import (
	"context"
	"fmt"
	"sync"
	"time"

	xglog "github.com/ManuGH/leadcam/internal/log"
	"github.com/ManuGH/leadcam/internal/metrics"
	"github.com/ManuGH/leadcam/internal/platform"
	"github.com/ManuGH/leadcam/internal/reclaim"
	"github.com/rs/zerolog"
)

// Owner identifies which component holds the live handle.
type Owner string

const (
	OwnerNone      Owner = ""
	OwnerPreview   Owner = "preview"
	OwnerRecording Owner = "recording"
)

// Acquirer produces capture handles.
type Acquirer interface {
	AcquireStream(ctx context.Context, facing platform.FacingMode) (*Handle, error)
}

// Registry records live handles so a global reset can release them.
type Registry interface {
	Track(id string, r reclaim.Releaser, ttl time.Duration) error
	Forget(id string) bool
}

// Slot holds at most one live capture handle. Acquiring while a handle is
// held fails; ownership changes only through Release followed by Acquire.
type Slot struct {
	mu       sync.Mutex
	acquirer Acquirer
	registry Registry
	handle   *Handle
	owner    Owner
	logger   zerolog.Logger
}

// NewSlot creates an empty slot. registry may be nil.
func NewSlot(acquirer Acquirer, registry Registry) *Slot {
	return &Slot{
		acquirer: acquirer,
		registry: registry,
		logger:   xglog.WithComponent("capture.slot"),
	}
}

// Acquire obtains a new handle for owner. The slot stays locked for the
// duration of the device request so two acquisitions never overlap.
func (s *Slot) Acquire(ctx context.Context, owner Owner, facing platform.FacingMode) (*Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneLocked()
	if s.handle != nil {
		return nil, fmt.Errorf("%w (held by %s)", ErrSlotBusy, s.owner)
	}

	h, err := s.acquirer.AcquireStream(ctx, facing)
	if err != nil {
		return nil, err
	}
	s.handle = h
	s.owner = owner
	if s.registry != nil {
		if err := s.registry.Track(h.ID(), h, reclaim.NoExpiry); err != nil {
			s.logger.Warn().Err(err).Str(xglog.FieldHandleID, h.ID()).Msg("failed to register capture handle")
		}
	}
	metrics.IncActiveHandles()
	s.logger.Debug().
		Str(xglog.FieldEvent, "capture.slot_acquired").
		Str(xglog.FieldOwner, string(owner)).
		Str(xglog.FieldHandleID, h.ID()).
		Msg("capture slot acquired")
	return h, nil
}

// Current returns the live handle and its owner, or nil and OwnerNone.
func (s *Slot) Current() (*Handle, Owner) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneLocked()
	return s.handle, s.owner
}

// Owner returns the current owner.
func (s *Slot) Owner() Owner {
	_, o := s.Current()
	return o
}

// Release stops the handle if it is held by owner. It reports whether a
// handle was released.
func (s *Slot) Release(owner Owner) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.handle == nil || s.owner != owner {
		return false
	}
	s.releaseLocked()
	return true
}

// ReleaseHandle stops h only if the slot still holds it. A stale caller
// whose handle was already replaced leaves the newer handle alone.
func (s *Slot) ReleaseHandle(h *Handle) bool {
	if h == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.handle == nil || s.handle.ID() != h.ID() {
		return false
	}
	s.releaseLocked()
	return true
}

// ReleaseAll stops whatever handle is held. It is idempotent.
func (s *Slot) ReleaseAll() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.handle == nil {
		return false
	}
	s.releaseLocked()
	return true
}

func (s *Slot) releaseLocked() {
	h, owner := s.handle, s.owner
	s.handle, s.owner = nil, OwnerNone
	_ = h.Release()
	if s.registry != nil {
		s.registry.Forget(h.ID())
	}
	metrics.DecActiveHandles()
	s.logger.Debug().
		Str(xglog.FieldEvent, "capture.slot_released").
		Str(xglog.FieldOwner, string(owner)).
		Str(xglog.FieldHandleID, h.ID()).
		Msg("capture slot released")
}

// pruneLocked drops a handle that was released behind the slot's back,
// e.g. by a global reclaimer reset.
func (s *Slot) pruneLocked() {
	if s.handle != nil && !s.handle.Active() {
		if s.registry != nil {
			s.registry.Forget(s.handle.ID())
		}
		s.handle, s.owner = nil, OwnerNone
		metrics.DecActiveHandles()
	}
}
