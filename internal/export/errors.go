// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package export

import (
	"errors"
	"fmt"

	"github.com/ManuGH/leadcam/internal/ratelimit"
)

var (
	ErrTooLarge            = errors.New("recording exceeds export size limit")
	ErrNothingToExport     = errors.New("no recording to export")
	ErrAllStrategiesFailed = errors.New("all export strategies failed")
	ErrExportUnsupported   = errors.New("export strategy not supported on this platform")
	ErrExportInFlight      = ratelimit.ErrInFlight
	ErrCoolingDown         = ratelimit.ErrCoolingDown
)

// AttemptError wraps the failure of one strategy.
type AttemptError struct {
	Strategy StrategyName
	Outcome  Outcome
	Err      error
}

func (e *AttemptError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Strategy, e.Outcome, e.Err)
}

func (e *AttemptError) Unwrap() error { return e.Err }

// SizeError reports a blob rejected by the size guard.
type SizeError struct {
	Size  int64
	Limit int64
}

func (e *SizeError) Error() string {
	return fmt.Sprintf("%v: %d bytes > %d bytes", ErrTooLarge, e.Size, e.Limit)
}

func (e *SizeError) Unwrap() error { return ErrTooLarge }
