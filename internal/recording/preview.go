// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package recording

import (
	"context"
	"fmt"
	"sync"

	"github.com/ManuGH/leadcam/internal/capture"
	xglog "github.com/ManuGH/leadcam/internal/log"
	"github.com/ManuGH/leadcam/internal/platform"
	"github.com/rs/zerolog"
)

// RecordingGuard reports whether a take holds the device.
type RecordingGuard interface {
	Recording() bool
}

// DeviceLister enumerates cameras.
type DeviceLister interface {
	VideoInputs(ctx context.Context) ([]platform.DeviceInfo, error)
}

// PreviewController manages the live preview that runs outside a take.
type PreviewController struct {
	mu      sync.Mutex
	slot    HandleSlot
	guard   RecordingGuard
	devices DeviceLister
	display Display
	facing  platform.FacingMode
	logger  zerolog.Logger
}

// NewPreviewController creates a controller starting with facing. devices
// and display may be nil.
func NewPreviewController(slot HandleSlot, guard RecordingGuard, devices DeviceLister, display Display, facing platform.FacingMode) *PreviewController {
	if display == nil {
		display = nopDisplay{}
	}
	if !facing.Valid() {
		facing = platform.FacingEnvironment
	}
	return &PreviewController{
		slot:    slot,
		guard:   guard,
		devices: devices,
		display: display,
		facing:  facing,
		logger:  xglog.WithComponent("preview"),
	}
}

// Start opens the preview with the controller's current facing mode. An
// already running preview is returned unchanged.
func (p *PreviewController) Start(ctx context.Context) (*capture.Handle, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.guard.Recording() {
		return nil, ErrRecordingInProgress
	}
	if h, owner := p.slot.Current(); owner == capture.OwnerPreview {
		return h, nil
	}
	return p.openLocked(ctx, p.facing)
}

func (p *PreviewController) openLocked(ctx context.Context, facing platform.FacingMode) (*capture.Handle, error) {
	h, err := p.slot.Acquire(ctx, capture.OwnerPreview, facing)
	if err != nil {
		return nil, err
	}
	p.facing = h.Facing()
	p.display.Attach(h.Stream())
	p.logger.Debug().
		Str(xglog.FieldEvent, "preview.started").
		Str(xglog.FieldFacing, string(p.facing)).
		Str(xglog.FieldHandleID, h.ID()).
		Msg("preview started")
	return h, nil
}

// Stop ends the preview. It is a no-op when no preview is running.
func (p *PreviewController) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.slot.Release(capture.OwnerPreview) {
		p.display.Detach()
		p.logger.Debug().Str(xglog.FieldEvent, "preview.stopped").Msg("preview stopped")
	}
}

// Switch toggles between the front and back camera. It is refused while a
// take is recording. The old handle is fully released before the new one is
// acquired; if that fails the previous camera is restored and the
// acquisition error is returned.
func (p *PreviewController) Switch(ctx context.Context) (platform.FacingMode, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.guard.Recording() {
		p.logger.Warn().
			Str(xglog.FieldEvent, "preview.switch_refused").
			Str(xglog.FieldFacing, string(p.facing)).
			Msg("camera switch refused while recording")
		return p.facing, ErrRecordingInProgress
	}

	prev := p.facing
	target := prev.Opposite()

	if _, owner := p.slot.Current(); owner != capture.OwnerPreview {
		p.facing = target
		return target, nil
	}

	p.slot.Release(capture.OwnerPreview)
	p.display.Detach()

	if _, err := p.openLocked(ctx, target); err != nil {
		p.logger.Warn().
			Err(err).
			Str(xglog.FieldEvent, "preview.switch_failed").
			Str(xglog.FieldFacing, string(target)).
			Msg("camera switch failed, restoring previous camera")
		if _, rerr := p.openLocked(ctx, prev); rerr != nil {
			p.logger.Error().Err(rerr).Str(xglog.FieldFacing, string(prev)).Msg("failed to restore previous camera")
		}
		p.facing = prev
		return prev, fmt.Errorf("switch camera to %s: %w", target, err)
	}
	p.logger.Info().
		Str(xglog.FieldEvent, "preview.switched").
		Str(xglog.FieldFacing, string(p.facing)).
		Msg("camera switched")
	return p.facing, nil
}

// Facing returns the facing mode of the preview or of the next preview.
func (p *PreviewController) Facing() platform.FacingMode {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.facing
}

// Active reports whether the preview holds the capture slot.
func (p *PreviewController) Active() bool {
	_, owner := p.slot.Current()
	return owner == capture.OwnerPreview
}

// Devices lists available cameras.
func (p *PreviewController) Devices(ctx context.Context) ([]platform.DeviceInfo, error) {
	if p.devices == nil {
		return nil, nil
	}
	return p.devices.VideoInputs(ctx)
}
