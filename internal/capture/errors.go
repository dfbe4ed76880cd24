// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package capture

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ManuGH/leadcam/internal/platform"
)

// Acquisition failure taxonomy.
var (
	ErrPermissionDenied         = errors.New("camera or microphone permission denied")
	ErrDeviceUnavailable        = errors.New("capture device unavailable")
	ErrConstraintsUnsatisfiable = errors.New("no constraint profile could be satisfied")
	ErrNoSupportedCodec         = errors.New("no supported recording codec")
	ErrSlotBusy                 = errors.New("a capture handle is already active")
)

// AcquireError is returned once every constraint profile has failed.
type AcquireError struct {
	// Kind is one of ErrPermissionDenied, ErrDeviceUnavailable or ErrConstraintsUnsatisfiable.
	Kind     error
	Facing   platform.FacingMode
	Attempts []string
	// Cause is the platform error of the last attempted profile.
	Cause error
}

func (e *AcquireError) Error() string {
	return fmt.Sprintf("acquire %s camera (tried %s): %v: %v",
		e.Facing, strings.Join(e.Attempts, ", "), e.Kind, e.Cause)
}

// Unwrap exposes both the classification and the platform cause.
func (e *AcquireError) Unwrap() []error {
	return []error{e.Kind, e.Cause}
}

// Classify maps a platform error to the acquisition taxonomy.
func Classify(err error) error {
	switch platform.ErrorName(err) {
	case platform.NameNotAllowed:
		return ErrPermissionDenied
	case platform.NameNotFound, platform.NameNotSupported:
		return ErrDeviceUnavailable
	default:
		return ErrConstraintsUnsatisfiable
	}
}

// KindName returns a stable label for err, suitable for metrics and logs.
func KindName(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrPermissionDenied):
		return "permission_denied"
	case errors.Is(err, ErrDeviceUnavailable):
		return "device_unavailable"
	case errors.Is(err, ErrConstraintsUnsatisfiable):
		return "constraints_unsatisfiable"
	case errors.Is(err, ErrNoSupportedCodec):
		return "no_supported_codec"
	case errors.Is(err, ErrSlotBusy):
		return "slot_busy"
	default:
		return "unknown"
	}
}
