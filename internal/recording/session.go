// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package recording implements the record/stop/reset state machine and the
// live camera preview that shares its capture slot.
package recording

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/ManuGH/leadcam/internal/capture"
	xglog "github.com/ManuGH/leadcam/internal/log"
	"github.com/ManuGH/leadcam/internal/media"
	"github.com/ManuGH/leadcam/internal/metrics"
	"github.com/ManuGH/leadcam/internal/platform"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// CodecNegotiator selects the recording MIME type.
type CodecNegotiator interface {
	NegotiateCodec() (string, error)
}

// HandleSlot is the exclusive owner of the live capture handle.
type HandleSlot interface {
	Acquire(ctx context.Context, owner capture.Owner, facing platform.FacingMode) (*capture.Handle, error)
	Current() (*capture.Handle, capture.Owner)
	Release(owner capture.Owner) bool
	ReleaseHandle(h *capture.Handle) bool
	ReleaseAll() bool
}

// Display is the UI surface showing the live stream.
type Display interface {
	Attach(stream platform.Stream)
	Detach()
}

type nopDisplay struct{}

func (nopDisplay) Attach(platform.Stream) {}
func (nopDisplay) Detach()                {}

// Session records one take at a time. Recorder callbacks are bound to the
// take they were created for; callbacks from an earlier take are ignored.
type Session struct {
	id        string
	codecs    CodecNegotiator
	slot      HandleSlot
	recorders platform.Recorders
	facing    platform.FacingMode
	display   Display
	indicator func(recording bool)
	logger    zerolog.Logger

	mu       sync.Mutex
	phase    phase
	take     uint64
	mimeType string
	chunks   [][]byte
	bytes    int64
	handle   *capture.Handle
	recorder platform.Recorder
	result   *media.Blob
	done     chan struct{}
	partial  bool
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithFacing sets the camera used when no preview is active.
func WithFacing(f platform.FacingMode) SessionOption {
	return func(s *Session) {
		if f.Valid() {
			s.facing = f
		}
	}
}

// WithDisplay attaches a UI surface.
func WithDisplay(d Display) SessionOption {
	return func(s *Session) {
		if d != nil {
			s.display = d
		}
	}
}

// WithIndicator registers a callback for the recording indicator.
func WithIndicator(fn func(recording bool)) SessionOption {
	return func(s *Session) { s.indicator = fn }
}

// WithSessionLogger overrides the component logger.
func WithSessionLogger(l zerolog.Logger) SessionOption {
	return func(s *Session) { s.logger = l }
}

// NewSession creates an idle session.
func NewSession(codecs CodecNegotiator, slot HandleSlot, recorders platform.Recorders, opts ...SessionOption) *Session {
	s := &Session{
		id:        uuid.NewString(),
		codecs:    codecs,
		slot:      slot,
		recorders: recorders,
		facing:    platform.FacingEnvironment,
		display:   nopDisplay{},
		indicator: func(bool) {},
	}
	s.logger = xglog.WithComponent("recording").With().Str(xglog.FieldSessionID, s.id).Logger()
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// State reports the visible state. An idle session whose slot is held by the
// preview reports Previewing.
func (s *Session) State() State {
	s.mu.Lock()
	st := s.phase.public()
	s.mu.Unlock()
	if st == StateIdle {
		if _, owner := s.slot.Current(); owner == capture.OwnerPreview {
			return StatePreviewing
		}
	}
	return st
}

// Recording reports whether a take is starting, recording or flushing.
func (s *Session) Recording() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.phase {
	case phaseStarting, phaseRecording, phaseStopping:
		return true
	}
	return false
}

// Start begins a new take. It requires Idle or Previewing; a live preview
// handle is released before the recording handle is acquired with the same
// facing mode. On failure the session stays Idle.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	switch s.phase {
	case phaseIdle:
	case phaseStopped:
		s.mu.Unlock()
		return &TransitionError{SessionID: s.id, Op: "start", From: StateStopped, Err: ErrNotIdle}
	default:
		from := s.phase.public()
		s.mu.Unlock()
		return &TransitionError{SessionID: s.id, Op: "start", From: from, Err: ErrAlreadyRecording}
	}
	s.phase = phaseStarting
	s.take++
	take := s.take
	facing := s.facing
	s.mu.Unlock()

	logger := s.takeLogger(take)

	mimeType, err := s.codecs.NegotiateCodec()
	if err != nil {
		s.abortStart(take)
		return err
	}

	if h, owner := s.slot.Current(); owner == capture.OwnerPreview {
		facing = h.Facing()
		s.slot.Release(capture.OwnerPreview)
	}

	h, err := s.slot.Acquire(ctx, capture.OwnerRecording, facing)
	if err != nil {
		s.abortStart(take)
		logger.Warn().Err(err).Str(xglog.FieldEvent, "recording.start_failed").Msg("capture acquisition failed")
		return err
	}

	rec, err := s.recorders.NewRecorder(h.Stream(), mimeType, platform.RecorderHandlers{
		OnData:  func(chunk []byte) { s.onData(take, chunk) },
		OnStop:  func() { s.finalize(take) },
		OnError: func(err error) { s.interrupt(take, err) },
	})
	if err != nil {
		s.slot.ReleaseHandle(h)
		s.abortStart(take)
		return fmt.Errorf("create recorder: %w", err)
	}

	s.mu.Lock()
	if s.take != take {
		s.mu.Unlock()
		s.slot.ReleaseHandle(h)
		_ = h.Release()
		return ErrSessionReset
	}
	if err := rec.Start(); err != nil {
		s.phase = phaseIdle
		s.mu.Unlock()
		s.slot.ReleaseHandle(h)
		return fmt.Errorf("start recorder: %w", err)
	}
	s.phase = phaseRecording
	s.mimeType = mimeType
	s.chunks = nil
	s.bytes = 0
	s.result = nil
	s.partial = false
	s.handle = h
	s.recorder = rec
	done := make(chan struct{})
	s.done = done
	s.mu.Unlock()

	go s.watchLoss(take, h, done)

	s.indicator(true)
	s.display.Attach(h.Stream())
	metrics.RecordRecordingTransition(string(StateIdle), string(StateRecording))
	logger.Info().
		Str(xglog.FieldEvent, "recording.started").
		Str(xglog.FieldOldState, string(StateIdle)).
		Str(xglog.FieldNewState, string(StateRecording)).
		Str(xglog.FieldMimeType, mimeType).
		Str(xglog.FieldFacing, string(h.Facing())).
		Str(xglog.FieldHandleID, h.ID()).
		Msg("recording started")
	return nil
}

func (s *Session) abortStart(take uint64) {
	s.mu.Lock()
	if s.take == take && s.phase == phaseStarting {
		s.phase = phaseIdle
	}
	s.mu.Unlock()
}

func (s *Session) takeLogger(take uint64) zerolog.Logger {
	return s.logger.With().Str(xglog.FieldTakeID, strconv.FormatUint(take, 10)).Logger()
}

func (s *Session) onData(take uint64, chunk []byte) {
	if len(chunk) == 0 {
		return
	}
	s.mu.Lock()
	if s.take != take || (s.phase != phaseRecording && s.phase != phaseStopping) {
		s.mu.Unlock()
		return
	}
	s.chunks = append(s.chunks, bytes.Clone(chunk))
	s.bytes += int64(len(chunk))
	s.mu.Unlock()
	metrics.AddRecordedBytes(int64(len(chunk)))
}

// finalize is the only place a result is assembled. It runs from the
// recorder's stop callback, or directly when the recorder cannot stop.
func (s *Session) finalize(take uint64) {
	s.mu.Lock()
	if s.take != take || (s.phase != phaseRecording && s.phase != phaseStopping) {
		s.mu.Unlock()
		return
	}
	blob := media.NewBlob(s.chunks, s.mimeType)
	s.result = blob
	s.phase = phaseStopped
	h := s.handle
	s.handle = nil
	s.recorder = nil
	done := s.done
	partial := s.partial
	chunks := len(s.chunks)
	s.mu.Unlock()

	s.slot.ReleaseHandle(h)
	s.indicator(false)
	close(done)

	metrics.RecordRecordingTransition(string(StateRecording), string(StateStopped))
	logger := s.takeLogger(take)
	logger.Info().
		Str(xglog.FieldEvent, "recording.stopped").
		Str(xglog.FieldOldState, string(StateRecording)).
		Str(xglog.FieldNewState, string(StateStopped)).
		Str(xglog.FieldMimeType, blob.MimeType()).
		Int64(xglog.FieldBytes, blob.Size()).
		Int(xglog.FieldChunks, chunks).
		Bool("partial", partial).
		Msg("recording assembled")
}

func (s *Session) watchLoss(take uint64, h *capture.Handle, done <-chan struct{}) {
	select {
	case <-h.Lost():
		s.interrupt(take, platform.NewMediaError(platform.NameNotReadable, "capture track ended"))
	case <-done:
	}
}

// interrupt stops the take after device loss or a recorder error, keeping
// whatever chunks were collected.
func (s *Session) interrupt(take uint64, cause error) {
	s.mu.Lock()
	if s.take != take || s.phase != phaseRecording {
		s.mu.Unlock()
		return
	}
	s.phase = phaseStopping
	s.partial = true
	rec := s.recorder
	s.mu.Unlock()

	logger := s.takeLogger(take)
	logger.Warn().
		Err(cause).
		Str(xglog.FieldEvent, "recording.interrupted").
		Msg("recording interrupted, keeping partial data")

	if rec.State() != platform.RecorderRecording {
		s.finalize(take)
		return
	}
	if err := rec.Stop(); err != nil {
		s.finalize(take)
	}
}

// Stop requests the recorder's final flush and waits for the assembled
// result. A stop racing a device loss waits for the same result.
func (s *Session) Stop(ctx context.Context) (*media.Blob, error) {
	s.mu.Lock()
	take := s.take
	switch s.phase {
	case phaseRecording:
		s.phase = phaseStopping
		rec, done := s.recorder, s.done
		s.mu.Unlock()
		if err := rec.Stop(); err != nil {
			logger := s.takeLogger(take)
			logger.Warn().Err(err).Str(xglog.FieldEvent, "recording.stop_failed").Msg("recorder stop failed, assembling collected data")
			s.finalize(take)
		}
		return s.wait(ctx, take, done)
	case phaseStopping:
		done := s.done
		s.mu.Unlock()
		return s.wait(ctx, take, done)
	default:
		from := s.phase.public()
		s.mu.Unlock()
		return nil, &TransitionError{SessionID: s.id, Op: "stop", From: from, Err: ErrNotRecording}
	}
}

func (s *Session) wait(ctx context.Context, take uint64, done <-chan struct{}) (*media.Blob, error) {
	select {
	case <-done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.take != take || s.result == nil {
		return nil, ErrSessionReset
	}
	return s.result, nil
}

// Reset returns the session to Idle from any state. It force-stops the
// recorder, releases any held capture handle, discards chunks and result and
// detaches the display. Resetting an idle session is a no-op.
func (s *Session) Reset() {
	s.mu.Lock()
	prev := s.phase
	s.take++
	rec := s.recorder
	done := s.done
	active := prev == phaseRecording || prev == phaseStopping
	s.phase = phaseIdle
	s.chunks = nil
	s.bytes = 0
	s.result = nil
	s.handle = nil
	s.recorder = nil
	s.mimeType = ""
	s.done = nil
	s.partial = false
	s.mu.Unlock()

	if active {
		close(done)
		if rec != nil && rec.State() == platform.RecorderRecording {
			_ = rec.Stop()
		}
		s.indicator(false)
	}
	released := s.slot.ReleaseAll()

	if prev == phaseIdle && !released {
		return
	}
	from := prev.public()
	if prev == phaseIdle {
		from = StatePreviewing
	}
	s.display.Detach()
	metrics.RecordRecordingTransition(string(from), string(StateIdle))
	s.logger.Info().
		Str(xglog.FieldEvent, "recording.reset").
		Str(xglog.FieldOldState, string(from)).
		Str(xglog.FieldNewState, string(StateIdle)).
		Msg("session reset")
}

// Result returns the assembled recording, or nil before the take stops.
func (s *Session) Result() *media.Blob {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

// MimeType returns the MIME type negotiated for the current take.
func (s *Session) MimeType() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mimeType
}

// ChunkCount returns the number of fragments collected in the current take.
func (s *Session) ChunkCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.chunks)
}

// RecordedBytes returns the number of bytes collected in the current take.
func (s *Session) RecordedBytes() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bytes
}

// Partial reports whether the current result was cut short by device loss or
// a recorder error.
func (s *Session) Partial() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.partial
}

// SetFacing changes the camera used for the next take when no preview is active.
func (s *Session) SetFacing(f platform.FacingMode) {
	if !f.Valid() {
		return
	}
	s.mu.Lock()
	s.facing = f
	s.mu.Unlock()
}
