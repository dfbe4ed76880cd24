// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package capture

import (
	"context"
	"testing"

	"github.com/ManuGH/leadcam/internal/platform"
	"github.com/ManuGH/leadcam/internal/platform/platformtest"
	"github.com/ManuGH/leadcam/internal/reclaim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func newTestSlot(dev *platformtest.Devices, reg Registry) *Slot {
	return NewSlot(NewNegotiator(dev, &platformtest.Codecs{}), reg)
}

func TestSlot_SingleLiveHandle(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	dev := &platformtest.Devices{}
	s := newTestSlot(dev, nil)
	ctx := context.Background()

	h, err := s.Acquire(ctx, OwnerPreview, platform.FacingUser)
	require.NoError(t, err)

	_, err = s.Acquire(ctx, OwnerRecording, platform.FacingUser)
	assert.ErrorIs(t, err, ErrSlotBusy)
	assert.Equal(t, 1, dev.CallCount(), "busy slot must not touch the device")

	cur, owner := s.Current()
	assert.Same(t, h, cur)
	assert.Equal(t, OwnerPreview, owner)

	assert.False(t, s.Release(OwnerRecording), "release by non-owner is a no-op")
	assert.True(t, h.Active())

	assert.True(t, s.Release(OwnerPreview))
	assert.False(t, s.Release(OwnerPreview))
	assert.False(t, h.Active())
	assert.Equal(t, OwnerNone, s.Owner())

	h2, err := s.Acquire(ctx, OwnerRecording, platform.FacingEnvironment)
	require.NoError(t, err)
	assert.Equal(t, OwnerRecording, s.Owner())
	assert.True(t, s.ReleaseAll())
	assert.False(t, s.ReleaseAll())
	assert.False(t, h2.Active())
}

func TestSlot_AcquireFailureLeavesSlotEmpty(t *testing.T) {
	dev := &platformtest.Devices{Errors: []error{notAllowed(), notAllowed(), notAllowed(), notAllowed()}}
	s := newTestSlot(dev, nil)

	_, err := s.Acquire(context.Background(), OwnerRecording, platform.FacingUser)
	assert.ErrorIs(t, err, ErrPermissionDenied)
	cur, owner := s.Current()
	assert.Nil(t, cur)
	assert.Equal(t, OwnerNone, owner)
}

func TestSlot_RegistersWithReclaimer(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	dev := &platformtest.Devices{}
	r := reclaim.New()
	s := newTestSlot(dev, r)
	ctx := context.Background()

	h, err := s.Acquire(ctx, OwnerPreview, platform.FacingUser)
	require.NoError(t, err)
	assert.Equal(t, 1, r.Len())

	// A global reset releases the handle behind the slot's back.
	require.NoError(t, r.ReleaseAll())
	assert.False(t, h.Active())
	assert.Equal(t, 2, dev.LastStream().TotalStops())

	cur, _ := s.Current()
	assert.Nil(t, cur, "externally released handle is pruned")

	h2, err := s.Acquire(ctx, OwnerRecording, platform.FacingUser)
	require.NoError(t, err)
	assert.Equal(t, 1, r.Len())

	s.Release(OwnerRecording)
	assert.Equal(t, 0, r.Len())
	assert.False(t, h2.Active())
}

func TestSlot_ReleaseHandleIgnoresStaleHandle(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	s := newTestSlot(&platformtest.Devices{}, nil)
	ctx := context.Background()

	old, err := s.Acquire(ctx, OwnerRecording, platform.FacingUser)
	require.NoError(t, err)
	require.True(t, s.ReleaseAll())

	newer, err := s.Acquire(ctx, OwnerRecording, platform.FacingUser)
	require.NoError(t, err)

	assert.False(t, s.ReleaseHandle(old), "stale handle must not release its successor")
	assert.False(t, s.ReleaseHandle(nil))
	assert.True(t, newer.Active())

	assert.True(t, s.ReleaseHandle(newer))
	assert.False(t, newer.Active())
	assert.Equal(t, OwnerNone, s.Owner())
}
