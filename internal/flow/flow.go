// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package flow sequences the lead-capture screens and owns the capture,
// recording and export components for one user.
package flow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ManuGH/leadcam/internal/capture"
	"github.com/ManuGH/leadcam/internal/export"
	xglog "github.com/ManuGH/leadcam/internal/log"
	"github.com/ManuGH/leadcam/internal/media"
	"github.com/ManuGH/leadcam/internal/platform"
	"github.com/ManuGH/leadcam/internal/reclaim"
	"github.com/ManuGH/leadcam/internal/recording"
	"github.com/rs/zerolog"
	"golang.org/x/text/language"
)

// DefaultPlaybackTTL bounds how long the playback reference of a finished
// take stays valid without a reset.
const DefaultPlaybackTTL = 2 * time.Minute

// LeadMimeType tags exported lead summaries.
const LeadMimeType = export.LeadMimeType

// Flow drives start -> image -> record -> save.
type Flow struct {
	platform    platform.Platform
	negotiator  *capture.Negotiator
	slot        *capture.Slot
	session     *recording.Session
	preview     *recording.PreviewController
	coordinator *export.Coordinator
	leads       *export.Coordinator
	reclaimer   *reclaim.Reclaimer
	sinks       []Sink
	lang        language.Tag
	playbackTTL time.Duration
	now         func() time.Time
	logger      zerolog.Logger

	mu       sync.Mutex
	step     Step
	image    string
	form     export.Form
	location *export.Location
	playback platform.Reference
	result   *media.Blob
}

// Option configures a Flow.
type Option func(*options)

type options struct {
	facing      platform.FacingMode
	negotiator  []capture.Option
	display     recording.Display
	indicator   func(bool)
	sinks       []Sink
	lang        language.Tag
	playbackTTL time.Duration
	now         func() time.Time
	leads       *export.Coordinator
}

// WithFacing sets the initial camera. The default is the rear camera.
func WithFacing(f platform.FacingMode) Option {
	return func(o *options) { o.facing = f }
}

// WithNegotiatorOptions passes options to the device negotiator.
func WithNegotiatorOptions(opts ...capture.Option) Option {
	return func(o *options) { o.negotiator = append(o.negotiator, opts...) }
}

// WithDisplay attaches the live video surface.
func WithDisplay(d recording.Display) Option {
	return func(o *options) { o.display = d }
}

// WithIndicator registers the recording indicator callback.
func WithIndicator(fn func(bool)) Option {
	return func(o *options) { o.indicator = fn }
}

// WithSinks adds external destinations for finished takes.
func WithSinks(sinks ...Sink) Option {
	return func(o *options) { o.sinks = append(o.sinks, sinks...) }
}

// WithLanguage selects the language of lead summaries.
func WithLanguage(tag language.Tag) Option {
	return func(o *options) { o.lang = tag }
}

// WithPlaybackTTL overrides DefaultPlaybackTTL.
func WithPlaybackTTL(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.playbackTTL = d
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithLeadCoordinator exports lead summaries through c, so they do not wait
// out the video export cool-down. Without it SaveLead uses the main
// coordinator.
func WithLeadCoordinator(c *export.Coordinator) Option {
	return func(o *options) { o.leads = c }
}

// New wires a flow on top of p. The coordinator and reclaimer are shared with
// the export strategies, so references they create are released by Reset.
func New(p platform.Platform, coordinator *export.Coordinator, reclaimer *reclaim.Reclaimer, opts ...Option) *Flow {
	o := options{
		facing:      platform.FacingEnvironment,
		lang:        language.English,
		playbackTTL: DefaultPlaybackTTL,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}

	negotiator := capture.NewNegotiator(p, p, o.negotiator...)
	slot := capture.NewSlot(negotiator, reclaimer)

	sessOpts := []recording.SessionOption{recording.WithFacing(o.facing), recording.WithDisplay(o.display)}
	if o.indicator != nil {
		sessOpts = append(sessOpts, recording.WithIndicator(o.indicator))
	}
	session := recording.NewSession(negotiator, slot, p, sessOpts...)
	if o.leads == nil {
		o.leads = coordinator
	}

	f := &Flow{
		platform:    p,
		negotiator:  negotiator,
		slot:        slot,
		session:     session,
		preview:     recording.NewPreviewController(slot, session, negotiator, o.display, o.facing),
		coordinator: coordinator,
		leads:       o.leads,
		reclaimer:   reclaimer,
		sinks:       o.sinks,
		lang:        o.lang,
		playbackTTL: o.playbackTTL,
		now:         o.now,
		logger:      xglog.WithComponent("flow").With().Str(xglog.FieldSessionID, session.ID()).Logger(),
	}
	return f
}

// Session exposes the recording session.
func (f *Flow) Session() *recording.Session { return f.session }

// Preview exposes the camera preview controller.
func (f *Flow) Preview() *recording.PreviewController { return f.preview }

// Step returns the current screen.
func (f *Flow) Step() Step {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.step
}

func (f *Flow) setStepLocked(to Step) {
	if f.step == to {
		return
	}
	f.logger.Info().
		Str(xglog.FieldEvent, "flow.step").
		Str(xglog.FieldOldState, f.step.String()).
		Str(xglog.FieldNewState, to.String()).
		Msg("step changed")
	f.step = to
}

func (f *Flow) requireLocked(op string, want Step) error {
	if f.step != want {
		return &StepError{Op: op, Have: f.step, Want: want}
	}
	return nil
}

// Begin leaves the start screen.
func (f *Flow) Begin() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.requireLocked("begin", StepStart); err != nil {
		return err
	}
	f.setStepLocked(StepImage)
	return nil
}

// SelectImage stores the displayable image reference picked by the user and
// moves on to recording.
func (f *Flow) SelectImage(image string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.requireLocked("select image", StepImage); err != nil {
		return err
	}
	if image == "" {
		return errors.New("select image: empty image reference")
	}
	f.image = image
	f.setStepLocked(StepRecord)
	return nil
}

// Image returns the selected image reference.
func (f *Flow) Image() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.image
}

// SetForm records the lead form answers.
func (f *Flow) SetForm(form export.Form) {
	f.mu.Lock()
	f.form = form
	f.mu.Unlock()
}

// SetLocation records an optional geolocation fix. nil clears it.
func (f *Flow) SetLocation(loc *export.Location) {
	f.mu.Lock()
	f.location = loc
	f.mu.Unlock()
}

// StartPreview shows the live camera on the record screen.
func (f *Flow) StartPreview(ctx context.Context) error {
	if err := f.expect("start preview", StepRecord); err != nil {
		return err
	}
	_, err := f.preview.Start(ctx)
	return err
}

// SwitchCamera toggles between front and rear cameras.
func (f *Flow) SwitchCamera(ctx context.Context) (platform.FacingMode, error) {
	if err := f.expect("switch camera", StepRecord); err != nil {
		return f.preview.Facing(), err
	}
	facing, err := f.preview.Switch(ctx)
	if err == nil {
		f.session.SetFacing(facing)
	}
	return facing, err
}

// StartRecording begins a take.
func (f *Flow) StartRecording(ctx context.Context) error {
	if err := f.expect("start recording", StepRecord); err != nil {
		return err
	}
	return f.session.Start(ctx)
}

// StopRecording finishes the take, publishes a tracked playback reference and
// moves to the save screen. A take already ended by device loss is adopted.
func (f *Flow) StopRecording(ctx context.Context) (*media.Blob, error) {
	if err := f.expect("stop recording", StepRecord); err != nil {
		return nil, err
	}

	blob, err := f.session.Stop(ctx)
	if errors.Is(err, recording.ErrNotRecording) {
		if r := f.session.Result(); r != nil {
			blob, err = r, nil
		}
	}
	if err != nil {
		return nil, err
	}

	ref, err := f.reclaimer.TrackReference(f.platform, blob.Bytes(), blob.MimeType(), f.playbackTTL)
	if err != nil {
		// Export does not depend on the playback reference.
		f.logger.Warn().Err(err).Msg("playback reference unavailable")
	}

	f.mu.Lock()
	f.result = blob
	f.playback = ref
	f.setStepLocked(StepSave)
	f.mu.Unlock()

	f.logger.Info().
		Str(xglog.FieldEvent, "flow.take_finished").
		Int64(xglog.FieldBytes, blob.Size()).
		Str(xglog.FieldMimeType, blob.MimeType()).
		Bool("partial", f.session.Partial()).
		Msg("take finished")
	return blob, nil
}

// Playback returns the reference for replaying the finished take.
func (f *Flow) Playback() platform.Reference {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.playback
}

// Result returns the finished take, or nil.
func (f *Flow) Result() *media.Blob {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.result
}

// Metadata builds the share metadata from the form and location.
func (f *Flow) Metadata() export.Metadata {
	f.mu.Lock()
	defer f.mu.Unlock()
	var loc *export.Location
	if f.location != nil {
		l := *f.location
		loc = &l
	}
	return export.Metadata{Form: f.form, Location: loc}
}

// Save exports the finished take through the coordinator.
func (f *Flow) Save(ctx context.Context) (*export.Result, error) {
	f.mu.Lock()
	blob := f.result
	step := f.step
	f.mu.Unlock()
	if step != StepSave {
		return nil, &StepError{Op: "save", Have: step, Want: StepSave}
	}
	if blob == nil {
		return nil, ErrNoRecording
	}
	ctx = xglog.ContextWithSessionID(ctx, f.session.ID())
	return f.coordinator.Export(ctx, export.Request{Blob: blob, Metadata: f.Metadata()})
}

// SaveLead exports the plain-text lead summary through the lead coordinator.
func (f *Flow) SaveLead(ctx context.Context) (*export.Result, error) {
	meta := f.Metadata()
	now := f.now()
	text := export.LeadSummary(meta.Form, meta.Location, now, f.lang)
	ctx = xglog.ContextWithSessionID(ctx, f.session.ID())
	return f.leads.Export(ctx, export.Request{
		Blob:     media.BlobFromBytes([]byte(text), LeadMimeType),
		Metadata: meta,
		Filename: export.LeadFilename(now),
	})
}

// SendToSinks hands the finished take to every configured sink. Sink errors
// are logged and joined; they never change the flow's state.
func (f *Flow) SendToSinks(ctx context.Context) error {
	f.mu.Lock()
	blob := f.result
	f.mu.Unlock()
	if blob == nil {
		return ErrNoRecording
	}

	meta := f.Metadata()
	item := SinkItem{
		Blob:     blob,
		Filename: export.Filename(export.DefaultFilenamePrefix, blob.MimeType(), f.now()),
		Text:     export.ShareText(meta, f.lang),
	}

	var errs []error
	for _, s := range f.sinks {
		if err := s.Deliver(ctx, item); err != nil {
			f.logger.Error().Err(err).Str("sink", s.Name()).Msg("sink delivery failed")
			errs = append(errs, fmt.Errorf("sink %s: %w", s.Name(), err))
			continue
		}
		f.logger.Info().Str("sink", s.Name()).Str(xglog.FieldFilename, item.Filename).Msg("delivered to sink")
	}
	return errors.Join(errs...)
}

// Retake discards the finished take and returns to the record screen.
func (f *Flow) Retake() error {
	f.mu.Lock()
	if err := f.requireLocked("retake", StepSave); err != nil {
		f.mu.Unlock()
		return err
	}
	ref := f.playback
	f.playback = ""
	f.result = nil
	f.setStepLocked(StepRecord)
	f.mu.Unlock()

	f.session.Reset()
	if ref != "" {
		if err := f.reclaimer.Release(string(ref)); err != nil {
			f.logger.Warn().Err(err).Str(xglog.FieldRef, string(ref)).Msg("release playback reference")
		}
	}
	return nil
}

// Reset tears everything down and returns to the start screen. It is safe to
// call from any step and any number of times.
func (f *Flow) Reset() error {
	f.session.Reset()
	f.preview.Stop()

	f.mu.Lock()
	f.image = ""
	f.form = export.Form{}
	f.location = nil
	f.playback = ""
	f.result = nil
	f.setStepLocked(StepStart)
	f.mu.Unlock()

	return f.reclaimer.ReleaseAll()
}

func (f *Flow) expect(op string, want Step) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requireLocked(op, want)
}
