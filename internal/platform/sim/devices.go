// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package sim

import (
	"context"
	"sync"

	"github.com/ManuGH/leadcam/internal/platform"
	"github.com/google/uuid"
)

// Constraint levels, matching the shapes produced by the capture ladder.
const (
	LevelIdeal      = "ideal"
	LevelReduced    = "reduced"
	LevelFacingOnly = "facing-only"
	LevelMinimal    = "minimal"
)

// Level classifies a constraint set by how specific it is.
func Level(c platform.Constraints) string {
	switch {
	case c.Video == nil:
		return LevelMinimal
	case c.Video.FrameRate > 0:
		return LevelIdeal
	case c.Video.Width > 0 || c.Video.Height > 0:
		return LevelReduced
	case c.Video.Facing != "":
		return LevelFacingOnly
	default:
		return LevelMinimal
	}
}

// DefaultDevices is a phone with a front and a rear camera and one microphone.
func DefaultDevices() []platform.DeviceInfo {
	return []platform.DeviceInfo{
		{ID: "cam-rear", Kind: platform.DeviceVideoInput, Label: "Back Camera", Facing: platform.FacingEnvironment},
		{ID: "cam-front", Kind: platform.DeviceVideoInput, Label: "Front Camera", Facing: platform.FacingUser},
		{ID: "mic-0", Kind: platform.DeviceAudioInput, Label: "Microphone"},
	}
}

type track struct {
	id       string
	kind     platform.TrackKind
	settings platform.TrackSettings
	once     sync.Once
	ended    chan struct{}
}

func newTrack(kind platform.TrackKind, settings platform.TrackSettings) *track {
	return &track{id: uuid.NewString(), kind: kind, settings: settings, ended: make(chan struct{})}
}

func (t *track) Kind() platform.TrackKind          { return t.kind }
func (t *track) Settings() platform.TrackSettings { return t.settings }
func (t *track) Ended() <-chan struct{}           { return t.ended }
func (t *track) Stop()                            { t.end() }

func (t *track) end() bool {
	ended := false
	t.once.Do(func() {
		close(t.ended)
		ended = true
	})
	return ended
}

func (t *track) live() bool {
	select {
	case <-t.ended:
		return false
	default:
		return true
	}
}

type stream struct {
	tracks []platform.Track
}

func (s *stream) Tracks() []platform.Track { return s.tracks }

func (p *Platform) AcquireMedia(ctx context.Context, c platform.Constraints) (platform.Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	level := Level(c)
	if p.cfg.DenyPermission {
		return nil, platform.NewMediaError(platform.NameNotAllowed, "permission denied by user")
	}
	if name, ok := p.cfg.FailProfiles[level]; ok && name != "" {
		p.logger.Debug().Str("level", level).Str("error", name).Msg("simulated acquisition failure")
		return nil, platform.NewMediaError(name, "simulated failure for "+level+" constraints")
	}

	var want platform.FacingMode
	if c.Video != nil {
		want = c.Video.Facing
	}
	cam, ok := p.pickCamera(want)
	if !ok {
		return nil, platform.NewMediaError(platform.NameNotFound, "no camera matches the requested facing mode")
	}

	settings := platform.TrackSettings{Facing: cam.Facing, Width: 640, Height: 480}
	if c.Video != nil && c.Video.Width > 0 {
		settings.Width, settings.Height = c.Video.Width, c.Video.Height
	}
	video := newTrack(platform.KindVideo, settings)
	tracks := []platform.Track{video}
	if p.hasMicrophone() {
		tracks = append(tracks, newTrack(platform.KindAudio, platform.TrackSettings{}))
	}

	p.mu.Lock()
	live := p.tracks[:0]
	for _, t := range p.tracks {
		if t.live() {
			live = append(live, t)
		}
	}
	p.tracks = live
	for _, t := range tracks {
		p.tracks = append(p.tracks, t.(*track))
	}
	p.mu.Unlock()

	p.logger.Debug().
		Str("level", level).
		Str("device", cam.ID).
		Str("facing", string(cam.Facing)).
		Msg("simulated stream acquired")
	return &stream{tracks: tracks}, nil
}

func (p *Platform) EnumerateDevices(ctx context.Context) ([]platform.DeviceInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return append([]platform.DeviceInfo(nil), p.cfg.Devices...), nil
}

// pickCamera returns the first camera matching facing, or the first camera
// at all when facing is empty.
func (p *Platform) pickCamera(facing platform.FacingMode) (platform.DeviceInfo, bool) {
	for _, d := range p.cfg.Devices {
		if d.Kind != platform.DeviceVideoInput {
			continue
		}
		if facing == "" || d.Facing == facing {
			return d, true
		}
	}
	return platform.DeviceInfo{}, false
}

func (p *Platform) hasMicrophone() bool {
	for _, d := range p.cfg.Devices {
		if d.Kind == platform.DeviceAudioInput {
			return true
		}
	}
	return false
}

// LoseDevice ends every live track as if the camera had been unplugged.
// It returns the number of tracks ended.
func (p *Platform) LoseDevice() int {
	n := p.endTracks()
	p.logger.Info().Int("tracks", n).Msg("simulated device loss")
	return n
}

func (p *Platform) endTracks() int {
	p.mu.Lock()
	tracks := p.tracks
	p.tracks = nil
	p.mu.Unlock()

	n := 0
	for _, t := range tracks {
		if t.end() {
			n++
		}
	}
	return n
}

// LiveTracks counts tracks that have not ended.
func (p *Platform) LiveTracks() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, t := range p.tracks {
		if t.live() {
			n++
		}
	}
	return n
}
