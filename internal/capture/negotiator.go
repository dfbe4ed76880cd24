// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package capture negotiates camera/microphone streams and recording codecs,
// and enforces that at most one capture handle is live at a time.
package capture

import (
	"context"
	"errors"
	"fmt"

	xglog "github.com/ManuGH/leadcam/internal/log"
	"github.com/ManuGH/leadcam/internal/metrics"
	"github.com/ManuGH/leadcam/internal/platform"
	"github.com/ManuGH/leadcam/internal/telemetry"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var errNoProfiles = errors.New("no constraint profiles configured")

// Negotiator resolves usable device constraints and the recording codec.
type Negotiator struct {
	devices platform.MediaDevices
	codecs  platform.CodecSupport
	ladder  Ladder
	prefs   []string
	logger  zerolog.Logger
	tracer  trace.Tracer
}

// Option configures a Negotiator.
type Option func(*Negotiator)

// WithLadder replaces the constraint profile ladder.
func WithLadder(l Ladder) Option {
	return func(n *Negotiator) { n.ladder = l }
}

// WithCodecPreferences replaces the codec preference list.
func WithCodecPreferences(prefs []string) Option {
	return func(n *Negotiator) {
		if len(prefs) > 0 {
			n.prefs = append([]string(nil), prefs...)
		}
	}
}

// WithLogger overrides the component logger.
func WithLogger(l zerolog.Logger) Option {
	return func(n *Negotiator) { n.logger = l }
}

// NewNegotiator creates a Negotiator with the default ladder and codec list.
func NewNegotiator(devices platform.MediaDevices, codecs platform.CodecSupport, opts ...Option) *Negotiator {
	n := &Negotiator{
		devices: devices,
		codecs:  codecs,
		ladder:  DefaultLadder(DefaultLadderOptions()),
		prefs:   append([]string(nil), DefaultCodecPreferences...),
		logger:  xglog.WithComponent("capture"),
		tracer:  telemetry.Tracer("leadcam/capture"),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// AcquireStream tries each profile of the ladder once, in order, and returns
// a handle for the first that succeeds. When all fail the result is an
// *AcquireError classified by the last platform error.
func (n *Negotiator) AcquireStream(ctx context.Context, preferred platform.FacingMode) (*Handle, error) {
	ctx, span := n.tracer.Start(ctx, "capture.acquire",
		trace.WithAttributes(attribute.String(telemetry.CaptureFacingKey, string(preferred))))
	defer span.End()

	profiles := n.ladder(preferred)
	attempted := make([]string, 0, len(profiles))
	var lastErr error

	for _, p := range profiles {
		if err := ctx.Err(); err != nil {
			telemetry.RecordError(span, err, "canceled")
			return nil, err
		}
		attempted = append(attempted, p.Name)

		stream, err := n.devices.AcquireMedia(ctx, p.Constraints)
		if err == nil && (stream == nil || len(stream.Tracks()) == 0) {
			err = platform.NewMediaError(platform.NameNotReadable, "stream has no tracks")
		}
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				telemetry.RecordError(span, err, "canceled")
				return nil, err
			}
			kind := Classify(err)
			metrics.RecordAcquireAttempt(p.Name, KindName(kind))
			n.logger.Debug().
				Err(err).
				Str(xglog.FieldEvent, "capture.profile_failed").
				Str(xglog.FieldProfile, p.Name).
				Str(xglog.FieldFacing, string(preferred)).
				Msg("constraint profile rejected, trying next")
			lastErr = err
			continue
		}

		h := newHandle(stream, resolveFacing(p, stream, preferred), p.Name)
		metrics.RecordAcquireAttempt(p.Name, "ok")
		span.SetAttributes(
			attribute.String(telemetry.CaptureProfileKey, p.Name),
			attribute.Int(telemetry.CaptureAttemptsKey, len(attempted)),
		)
		n.logger.Info().
			Str(xglog.FieldEvent, "capture.acquired").
			Str(xglog.FieldHandleID, h.ID()).
			Str(xglog.FieldProfile, p.Name).
			Str(xglog.FieldFacing, string(h.Facing())).
			Msg("capture stream acquired")
		return h, nil
	}

	if lastErr == nil {
		lastErr = errNoProfiles
	}
	aerr := &AcquireError{
		Kind:     Classify(lastErr),
		Facing:   preferred,
		Attempts: attempted,
		Cause:    lastErr,
	}
	telemetry.RecordError(span, aerr, KindName(aerr.Kind))
	n.logger.Warn().
		Err(lastErr).
		Str(xglog.FieldEvent, "capture.acquire_failed").
		Str(xglog.FieldFacing, string(preferred)).
		Strs("attempts", attempted).
		Msg("all constraint profiles failed")
	return nil, aerr
}

func resolveFacing(p Profile, stream platform.Stream, preferred platform.FacingMode) platform.FacingMode {
	if p.Constraints.Video != nil && p.Constraints.Video.Facing.Valid() {
		return p.Constraints.Video.Facing
	}
	for _, tr := range stream.Tracks() {
		if tr.Kind() == platform.KindVideo && tr.Settings().Facing.Valid() {
			return tr.Settings().Facing
		}
	}
	return preferred
}

// NegotiateCodec selects the first supported MIME type from the preference list.
func (n *Negotiator) NegotiateCodec() (string, error) {
	mime, err := NegotiateCodec(n.codecs, n.prefs)
	metrics.RecordCodecNegotiation(mime)
	if err != nil {
		n.logger.Error().
			Str(xglog.FieldEvent, "capture.codec_unsupported").
			Strs("preferences", n.prefs).
			Msg("platform supports none of the recording codecs")
		return "", fmt.Errorf("negotiate codec: %w", err)
	}
	n.logger.Debug().Str(xglog.FieldEvent, "capture.codec_selected").Str(xglog.FieldMimeType, mime).Msg("recording codec selected")
	return mime, nil
}

// VideoInputs lists the available cameras.
func (n *Negotiator) VideoInputs(ctx context.Context) ([]platform.DeviceInfo, error) {
	devices, err := n.devices.EnumerateDevices(ctx)
	if err != nil {
		return nil, fmt.Errorf("enumerate devices: %w", err)
	}
	cams := make([]platform.DeviceInfo, 0, len(devices))
	for _, d := range devices {
		if d.Kind == platform.DeviceVideoInput {
			cams = append(cams, d)
		}
	}
	return cams, nil
}
