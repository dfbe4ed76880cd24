// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package platformtest provides controllable fakes of the platform interfaces.
package platformtest

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/ManuGH/leadcam/internal/platform"
)

// Track is a fake media track. End simulates device loss.
type Track struct {
	kind     platform.TrackKind
	settings platform.TrackSettings
	stops    atomic.Int32
	ended    chan struct{}
	once     sync.Once
}

// NewTrack creates a live track.
func NewTrack(kind platform.TrackKind, facing platform.FacingMode) *Track {
	return &Track{
		kind:     kind,
		settings: platform.TrackSettings{Facing: facing},
		ended:    make(chan struct{}),
	}
}

func (t *Track) Kind() platform.TrackKind         { return t.kind }
func (t *Track) Settings() platform.TrackSettings { return t.settings }
func (t *Track) Ended() <-chan struct{}           { return t.ended }
func (t *Track) StopCount() int                   { return int(t.stops.Load()) }
func (t *Track) End()                             { t.once.Do(func() { close(t.ended) }) }
func (t *Track) Stop()                            { t.stops.Add(1); t.End() }

// Stream is a fake stream.
type Stream struct {
	tracks []*Track
}

// NewStream returns a stream with one video and one audio track.
func NewStream(facing platform.FacingMode) *Stream {
	return &Stream{tracks: []*Track{
		NewTrack(platform.KindVideo, facing),
		NewTrack(platform.KindAudio, ""),
	}}
}

// Tracks implements platform.Stream.
func (s *Stream) Tracks() []platform.Track {
	out := make([]platform.Track, len(s.tracks))
	for i, t := range s.tracks {
		out[i] = t
	}
	return out
}

// Video returns the video track.
func (s *Stream) Video() *Track { return s.tracks[0] }

// TotalStops sums Stop calls across all tracks.
func (s *Stream) TotalStops() int {
	n := 0
	for _, t := range s.tracks {
		n += t.StopCount()
	}
	return n
}

// Devices is a fake platform.MediaDevices. The i-th AcquireMedia call fails
// with Errors[i] when that entry is non-nil.
type Devices struct {
	mu      sync.Mutex
	Errors  []error
	Default platform.FacingMode
	List    []platform.DeviceInfo
	Calls   []platform.Constraints
	Streams []*Stream
}

func (d *Devices) AcquireMedia(ctx context.Context, c platform.Constraints) (platform.Stream, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	i := len(d.Calls)
	d.Calls = append(d.Calls, c)
	if i < len(d.Errors) && d.Errors[i] != nil {
		return nil, d.Errors[i]
	}
	facing := d.Default
	if c.Video != nil && c.Video.Facing != "" {
		facing = c.Video.Facing
	}
	s := NewStream(facing)
	d.Streams = append(d.Streams, s)
	return s, nil
}

func (d *Devices) EnumerateDevices(context.Context) ([]platform.DeviceInfo, error) {
	return d.List, nil
}

// CallCount returns the number of AcquireMedia calls.
func (d *Devices) CallCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.Calls)
}

// LastStream returns the most recently granted stream.
func (d *Devices) LastStream() *Stream {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.Streams) == 0 {
		return nil
	}
	return d.Streams[len(d.Streams)-1]
}

// Codecs is a fake platform.CodecSupport.
type Codecs struct {
	Supported map[string]bool
	Queries   []string
}

func (c *Codecs) IsTypeSupported(mime string) bool {
	c.Queries = append(c.Queries, mime)
	return c.Supported[mime]
}

// Recorder is a fake recorder driven by the test.
type Recorder struct {
	mu       sync.Mutex
	Stream   platform.Stream
	MimeType string
	handlers platform.RecorderHandlers
	state    platform.RecorderState

	StartErr error
	StopErr  error
	// ManualStop suppresses the automatic OnStop callback; call FireStop instead.
	ManualStop bool
	// FinalChunk is emitted before OnStop when non-nil.
	FinalChunk []byte
	StopCalls  int
}

func (r *Recorder) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.StartErr != nil {
		return r.StartErr
	}
	r.state = platform.RecorderRecording
	return nil
}

func (r *Recorder) Stop() error {
	r.mu.Lock()
	r.StopCalls++
	if r.StopErr != nil {
		r.mu.Unlock()
		return r.StopErr
	}
	wasRecording := r.state == platform.RecorderRecording
	r.state = platform.RecorderInactive
	manual := r.ManualStop
	r.mu.Unlock()

	if wasRecording && !manual {
		r.FireStop()
	}
	return nil
}

func (r *Recorder) State() platform.RecorderState {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == "" {
		return platform.RecorderInactive
	}
	return r.state
}

// Stops returns the number of Stop calls.
func (r *Recorder) Stops() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.StopCalls
}

// Emit delivers a data fragment.
func (r *Recorder) Emit(chunk []byte) {
	if r.handlers.OnData != nil {
		r.handlers.OnData(chunk)
	}
}

// Fail delivers a recorder error.
func (r *Recorder) Fail(err error) {
	if r.handlers.OnError != nil {
		r.handlers.OnError(err)
	}
}

// FireStop emits FinalChunk (if any) and then OnStop.
func (r *Recorder) FireStop() {
	if r.FinalChunk != nil {
		r.Emit(r.FinalChunk)
	}
	if r.handlers.OnStop != nil {
		r.handlers.OnStop()
	}
}

// Recorders is a fake platform.Recorders.
type Recorders struct {
	mu        sync.Mutex
	Err       error
	Configure func(*Recorder)
	Created   []*Recorder
}

func (f *Recorders) NewRecorder(stream platform.Stream, mimeType string, h platform.RecorderHandlers) (platform.Recorder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	r := &Recorder{Stream: stream, MimeType: mimeType, handlers: h}
	if f.Configure != nil {
		f.Configure(r)
	}
	f.Created = append(f.Created, r)
	return r, nil
}

// Last returns the most recently created recorder.
func (f *Recorders) Last() *Recorder {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.Created) == 0 {
		return nil
	}
	return f.Created[len(f.Created)-1]
}

// Sharer is a fake native share API.
type Sharer struct {
	Supported bool
	Err       error
	Panic     bool
	Calls     []platform.ShareData
}

func (s *Sharer) CanShare(platform.ShareData) bool { return s.Supported }

func (s *Sharer) Share(_ context.Context, data platform.ShareData) error {
	s.Calls = append(s.Calls, data)
	if s.Panic {
		panic("share sheet crashed")
	}
	return s.Err
}

// References is a fake temporary-reference registry.
type References struct {
	mu      sync.Mutex
	next    int
	Err     error
	Live    map[platform.Reference][]byte
	Revoked []platform.Reference
}

func (r *References) CreateTemporaryReference(data []byte, _ string) (platform.Reference, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return "", r.Err
	}
	if r.Live == nil {
		r.Live = make(map[platform.Reference][]byte)
	}
	r.next++
	ref := platform.Reference(fmt.Sprintf("blob:fake/%d", r.next))
	r.Live[ref] = data
	return ref, nil
}

func (r *References) RevokeTemporaryReference(ref platform.Reference) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.Live, ref)
	r.Revoked = append(r.Revoked, ref)
	return nil
}

// LiveCount returns the number of unrevoked references.
func (r *References) LiveCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.Live)
}

// Opener is a fake new-context opener.
type Opener struct {
	Err    error
	Opened []platform.Reference
}

func (o *Opener) OpenReference(_ context.Context, ref platform.Reference) error {
	o.Opened = append(o.Opened, ref)
	return o.Err
}

// Saver is a fake save-file picker.
type Saver struct {
	Err   error
	Names []string
}

func (s *Saver) SaveFile(_ context.Context, name, _ string, _ []byte) error {
	s.Names = append(s.Names, name)
	return s.Err
}

// Downloader is a fake anchor-click download.
type Downloader struct {
	Err       error
	Filenames []string
	Refs      []platform.Reference
}

func (d *Downloader) Download(_ context.Context, ref platform.Reference, filename string) error {
	d.Refs = append(d.Refs, ref)
	d.Filenames = append(d.Filenames, filename)
	return d.Err
}

// Platform composes every fake into a platform.Platform.
type Platform struct {
	*Devices
	*Codecs
	*Recorders
	*Sharer
	*References
	*Opener
	*Saver
	*Downloader
	Caps platform.Capabilities
}

// NewPlatform returns a Platform with fresh fakes and the given capabilities.
func NewPlatform(caps platform.Capabilities) *Platform {
	return &Platform{
		Devices:    &Devices{},
		Codecs:     &Codecs{Supported: map[string]bool{"video/webm": true}},
		Recorders:  &Recorders{},
		Sharer:     &Sharer{Supported: true},
		References: &References{},
		Opener:     &Opener{},
		Saver:      &Saver{},
		Downloader: &Downloader{},
		Caps:       caps,
	}
}

func (p *Platform) Capabilities() platform.Capabilities { return p.Caps }

var _ platform.Platform = (*Platform)(nil)
