// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package capture

import "github.com/ManuGH/leadcam/internal/platform"

// DefaultCodecPreferences is ordered from most to least preferred.
var DefaultCodecPreferences = []string{
	"video/webm;codecs=vp9,opus",
	"video/webm;codecs=vp8,opus",
	"video/webm",
	"video/mp4",
}

// NegotiateCodec returns the first preference the platform supports.
func NegotiateCodec(support platform.CodecSupport, prefs []string) (string, error) {
	for _, mime := range prefs {
		if support.IsTypeSupported(mime) {
			return mime, nil
		}
	}
	return "", ErrNoSupportedCodec
}
