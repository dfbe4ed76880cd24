// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package capture

import (
	"errors"

	"github.com/ManuGH/leadcam/internal/platform"
)

// Guidance returns a user-facing explanation for an acquisition or codec
// failure, tailored to the platform family.
func Guidance(err error, family platform.Family) string {
	switch {
	case errors.Is(err, ErrPermissionDenied):
		switch family {
		case platform.FamilyIOS:
			return "Camera access was denied. Open Settings > Safari > Camera and Microphone, allow access, then reload the page."
		case platform.FamilyAndroid:
			return "Camera access was denied. Open Settings > Apps > your browser > Permissions, allow Camera and Microphone, then reload the page."
		default:
			return "Camera access was denied. Click the camera icon in the address bar, allow access, then reload the page."
		}
	case errors.Is(err, ErrDeviceUnavailable):
		return "No usable camera was found. Check that a camera is connected and not in use by another app."
	case errors.Is(err, ErrNoSupportedCodec):
		return "This browser cannot record video. Update it or try a different browser."
	case errors.Is(err, ErrConstraintsUnsatisfiable):
		return "The camera could not be started with any supported settings. Reload the page and try again."
	case errors.Is(err, ErrSlotBusy):
		return "The camera is already in use. Stop the current recording or preview first."
	case err == nil:
		return ""
	default:
		return "The camera could not be started. Reload the page and try again."
	}
}
