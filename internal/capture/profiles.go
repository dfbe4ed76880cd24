// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package capture

import "github.com/ManuGH/leadcam/internal/platform"

// Profile is one named constraint set in the acquisition ladder.
type Profile struct {
	Name        string
	Constraints platform.Constraints
}

// Ladder builds the ordered profile list for a facing mode. Earlier profiles
// are more specific; the last one should be the bare video+audio request.
type Ladder func(facing platform.FacingMode) []Profile

// LadderOptions tunes the most specific profile.
type LadderOptions struct {
	Width     int
	Height    int
	FrameRate int
}

// DefaultLadderOptions requests 720p at 30fps.
func DefaultLadderOptions() LadderOptions {
	return LadderOptions{Width: 1280, Height: 720, FrameRate: 30}
}

// DefaultLadder returns the standard four-step ladder:
// ideal -> reduced -> facing-only -> minimal.
func DefaultLadder(opts LadderOptions) Ladder {
	return func(facing platform.FacingMode) []Profile {
		return []Profile{
			{
				Name: "ideal",
				Constraints: platform.Constraints{
					Video: &platform.VideoConstraints{Facing: facing, Width: opts.Width, Height: opts.Height, FrameRate: opts.FrameRate},
					Audio: &platform.AudioConstraints{EchoCancellation: true, NoiseSuppression: true},
				},
			},
			{
				Name: "reduced",
				Constraints: platform.Constraints{
					Video: &platform.VideoConstraints{Facing: facing, Width: 640, Height: 480},
					Audio: &platform.AudioConstraints{EchoCancellation: true},
				},
			},
			{
				Name: "facing-only",
				Constraints: platform.Constraints{
					Video: &platform.VideoConstraints{Facing: facing},
				},
			},
			{
				Name:        "minimal",
				Constraints: platform.Constraints{},
			},
		}
	}
}
