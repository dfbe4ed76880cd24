// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package platform abstracts the host runtime (camera/microphone access,
// media recorders, share sheets, temporary references and downloads) behind
// small interfaces so capture and export logic can run without a real device.
package platform

import (
	"context"
)

// FacingMode identifies which camera a stream was requested from.
type FacingMode string

const (
	FacingUser        FacingMode = "user"
	FacingEnvironment FacingMode = "environment"
)

// Opposite returns the other facing mode. Unknown values map to the rear camera.
func (f FacingMode) Opposite() FacingMode {
	if f == FacingEnvironment {
		return FacingUser
	}
	return FacingEnvironment
}

// Valid reports whether f is one of the known facing modes.
func (f FacingMode) Valid() bool {
	return f == FacingUser || f == FacingEnvironment
}

// VideoConstraints describes the requested video track. Zero values mean
// "no preference".
type VideoConstraints struct {
	Facing    FacingMode
	Width     int
	Height    int
	FrameRate int
}

// AudioConstraints describes the requested audio track.
type AudioConstraints struct {
	EchoCancellation bool
	NoiseSuppression bool
}

// Constraints is one constraint set passed to AcquireMedia. A nil Video or
// Audio section requests the track without further constraints.
type Constraints struct {
	Video *VideoConstraints
	Audio *AudioConstraints
}

// TrackKind is the media kind of a track.
type TrackKind string

const (
	KindAudio TrackKind = "audio"
	KindVideo TrackKind = "video"
)

// TrackSettings reports what the device actually delivered.
type TrackSettings struct {
	Facing FacingMode
	Width  int
	Height int
}

// Track is one live audio or video track.
type Track interface {
	Kind() TrackKind
	Settings() TrackSettings
	// Stop releases the underlying device. Calling Stop on an ended track is a no-op.
	Stop()
	// Ended is closed when the track ends, whether stopped locally or lost.
	Ended() <-chan struct{}
}

// Stream is a set of live tracks returned by AcquireMedia.
type Stream interface {
	Tracks() []Track
}

// DeviceKind classifies entries returned by EnumerateDevices.
type DeviceKind string

const (
	DeviceVideoInput DeviceKind = "videoinput"
	DeviceAudioInput DeviceKind = "audioinput"
)

// DeviceInfo describes one capture device.
type DeviceInfo struct {
	ID     string
	Kind   DeviceKind
	Label  string
	Facing FacingMode
}

// MediaDevices grants camera/microphone streams.
type MediaDevices interface {
	AcquireMedia(ctx context.Context, c Constraints) (Stream, error)
	EnumerateDevices(ctx context.Context) ([]DeviceInfo, error)
}

// CodecSupport answers container/codec support queries.
type CodecSupport interface {
	IsTypeSupported(mimeType string) bool
}

// RecorderState mirrors the recorder's own lifecycle.
type RecorderState string

const (
	RecorderInactive  RecorderState = "inactive"
	RecorderRecording RecorderState = "recording"
)

// RecorderHandlers are invoked by a Recorder. OnData may be called with empty
// fragments; OnStop is called exactly once after the final OnData.
type RecorderHandlers struct {
	OnData  func(chunk []byte)
	OnStop  func()
	OnError func(err error)
}

// Recorder encodes a stream into a container format. Start never invokes the
// handlers synchronously; Stop may.
type Recorder interface {
	Start() error
	// Stop requests a final flush; completion is signalled through OnStop.
	Stop() error
	State() RecorderState
}

// Recorders constructs recorders bound to a stream and MIME type.
type Recorders interface {
	NewRecorder(stream Stream, mimeType string, h RecorderHandlers) (Recorder, error)
}

// File is a named binary attachment for the share sheet.
type File struct {
	Name     string
	MimeType string
	Data     []byte
}

// ShareData is the payload handed to the native share sheet.
type ShareData struct {
	Title string
	Text  string
	Files []File
}

// Sharer is the native share-with-file API.
type Sharer interface {
	CanShare(data ShareData) bool
	Share(ctx context.Context, data ShareData) error
}

// Reference is a short-lived address for in-memory binary data.
type Reference string

// References creates and revokes temporary references. No garbage collector
// revokes them implicitly.
type References interface {
	CreateTemporaryReference(data []byte, mimeType string) (Reference, error)
	RevokeTemporaryReference(ref Reference) error
}

// Opener opens a reference in a new browsing context.
type Opener interface {
	OpenReference(ctx context.Context, ref Reference) error
}

// FileSaver writes data through a save-file picker.
type FileSaver interface {
	SaveFile(ctx context.Context, suggestedName, mimeType string, data []byte) error
}

// Downloader forces a download of a reference under the given filename.
type Downloader interface {
	Download(ctx context.Context, ref Reference, filename string) error
}

// Platform is the full set of host capabilities.
type Platform interface {
	MediaDevices
	CodecSupport
	Recorders
	Sharer
	References
	Opener
	FileSaver
	Downloader
	Capabilities() Capabilities
}
