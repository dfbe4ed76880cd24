// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package capture

import (
	"context"
	"errors"
	"testing"

	"github.com/ManuGH/leadcam/internal/platform"
	"github.com/ManuGH/leadcam/internal/platform/platformtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func notFound() error   { return platform.NewMediaError(platform.NameNotFound, "no device") }
func notAllowed() error { return platform.NewMediaError(platform.NameNotAllowed, "denied") }

// twoStep is a ladder whose first step asks for the preferred facing and
// whose second step asks for the opposite one.
func twoStep(facing platform.FacingMode) []Profile {
	return []Profile{
		{Name: "a", Constraints: platform.Constraints{Video: &platform.VideoConstraints{Facing: facing}}},
		{Name: "b", Constraints: platform.Constraints{Video: &platform.VideoConstraints{Facing: facing.Opposite()}}},
	}
}

func TestAcquireStream_FirstProfileSucceeds(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	dev := &platformtest.Devices{}
	n := NewNegotiator(dev, &platformtest.Codecs{})

	h, err := n.AcquireStream(context.Background(), platform.FacingEnvironment)
	require.NoError(t, err)
	defer h.Release()

	assert.Equal(t, 1, dev.CallCount())
	assert.Equal(t, "ideal", h.Profile())
	assert.Equal(t, platform.FacingEnvironment, h.Facing())
	assert.True(t, h.Active())
	assert.NotEmpty(t, h.ID())
}

func TestAcquireStream_FallbackUsesSucceedingProfileFacing(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	dev := &platformtest.Devices{Errors: []error{notFound()}}
	n := NewNegotiator(dev, &platformtest.Codecs{}, WithLadder(twoStep))

	h, err := n.AcquireStream(context.Background(), platform.FacingUser)
	require.NoError(t, err)
	defer h.Release()

	assert.Equal(t, "b", h.Profile())
	assert.Equal(t, platform.FacingEnvironment, h.Facing())
	require.Len(t, dev.Calls, 2)
	assert.Equal(t, platform.FacingUser, dev.Calls[0].Video.Facing)
	assert.Equal(t, platform.FacingEnvironment, dev.Calls[1].Video.Facing)
}

func TestAcquireStream_TriesEachProfileOnceInOrder(t *testing.T) {
	dev := &platformtest.Devices{Errors: []error{notFound(), notFound(), notFound(), notFound()}}
	n := NewNegotiator(dev, &platformtest.Codecs{})

	_, err := n.AcquireStream(context.Background(), platform.FacingEnvironment)
	require.Error(t, err)

	require.Len(t, dev.Calls, 4)
	assert.Equal(t, 1280, dev.Calls[0].Video.Width)
	assert.Equal(t, 640, dev.Calls[1].Video.Width)
	assert.Nil(t, dev.Calls[2].Audio)
	assert.Nil(t, dev.Calls[3].Video)
	assert.Nil(t, dev.Calls[3].Audio)

	var aerr *AcquireError
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, []string{"ideal", "reduced", "facing-only", "minimal"}, aerr.Attempts)
}

func TestAcquireStream_Classification(t *testing.T) {
	tests := []struct {
		name string
		last error
		want error
	}{
		{"permission", notAllowed(), ErrPermissionDenied},
		{"not found", notFound(), ErrDeviceUnavailable},
		{"not supported", platform.NewMediaError(platform.NameNotSupported, ""), ErrDeviceUnavailable},
		{"overconstrained", platform.NewMediaError(platform.NameOverconstrained, "width"), ErrConstraintsUnsatisfiable},
		{"not readable", platform.NewMediaError(platform.NameNotReadable, ""), ErrConstraintsUnsatisfiable},
		{"untagged", errors.New("boom"), ErrConstraintsUnsatisfiable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev := &platformtest.Devices{Errors: []error{notFound(), tt.last}}
			n := NewNegotiator(dev, &platformtest.Codecs{}, WithLadder(twoStep))

			_, err := n.AcquireStream(context.Background(), platform.FacingUser)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, tt.last)
			assert.Equal(t, KindName(tt.want), KindName(err))
		})
	}
}

func TestAcquireStream_CanceledContextStopsLadder(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	dev := &platformtest.Devices{}
	n := NewNegotiator(dev, &platformtest.Codecs{})

	_, err := n.AcquireStream(ctx, platform.FacingUser)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, dev.CallCount())
}

func TestAcquireStream_EmptyLadder(t *testing.T) {
	n := NewNegotiator(&platformtest.Devices{}, &platformtest.Codecs{},
		WithLadder(func(platform.FacingMode) []Profile { return nil }))

	_, err := n.AcquireStream(context.Background(), platform.FacingUser)
	assert.ErrorIs(t, err, ErrConstraintsUnsatisfiable)
}

func TestHandle_ReleaseIsIdempotent(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	dev := &platformtest.Devices{}
	n := NewNegotiator(dev, &platformtest.Codecs{})
	h, err := n.AcquireStream(context.Background(), platform.FacingUser)
	require.NoError(t, err)

	require.NoError(t, h.Release())
	require.NoError(t, h.Release())

	s := dev.LastStream()
	assert.Equal(t, 1, s.Video().StopCount())
	assert.Equal(t, 2, s.TotalStops())
	assert.False(t, h.Active())

	select {
	case <-h.Lost():
		t.Fatal("released handle must not report loss")
	default:
	}
}

func TestHandle_LostWhenTrackEnds(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	dev := &platformtest.Devices{}
	n := NewNegotiator(dev, &platformtest.Codecs{})
	h, err := n.AcquireStream(context.Background(), platform.FacingUser)
	require.NoError(t, err)

	dev.LastStream().Video().End()
	<-h.Lost()
	assert.True(t, h.Active())
	require.NoError(t, h.Release())
}

func TestVideoInputs_FiltersCameras(t *testing.T) {
	dev := &platformtest.Devices{List: []platform.DeviceInfo{
		{ID: "cam0", Kind: platform.DeviceVideoInput, Facing: platform.FacingUser},
		{ID: "mic0", Kind: platform.DeviceAudioInput},
		{ID: "cam1", Kind: platform.DeviceVideoInput, Facing: platform.FacingEnvironment},
	}}
	n := NewNegotiator(dev, &platformtest.Codecs{})

	cams, err := n.VideoInputs(context.Background())
	require.NoError(t, err)
	require.Len(t, cams, 2)
	assert.Equal(t, "cam0", cams[0].ID)
	assert.Equal(t, "cam1", cams[1].ID)
}
