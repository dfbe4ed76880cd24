// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package export delivers a finished recording off the device through the
// first delivery strategy the platform supports.
package export

import (
	"context"
	"time"

	"github.com/ManuGH/leadcam/internal/media"
)

// StrategyName identifies a delivery strategy.
type StrategyName string

const (
	NativeShare    StrategyName = "native_share"
	PlatformSave   StrategyName = "platform_save"
	ForcedDownload StrategyName = "forced_download"
)

// Outcome is the result of one attempt or of a whole export.
type Outcome string

const (
	OutcomeSucceeded     Outcome = "succeeded"
	OutcomeUserCancelled Outcome = "user_cancelled"
	OutcomeUnsupported   Outcome = "unsupported"
	OutcomeFailed        Outcome = "failed"

	// Terminal-only outcomes.
	OutcomeTooLarge  Outcome = "too_large"
	OutcomeAllFailed Outcome = "all_failed"
)

// Form holds the lead's form answers embedded into share text.
type Form struct {
	ParentName string
	ChildName  string
	Age        string
}

// Empty reports whether no field is filled in.
func (f Form) Empty() bool {
	return f.ParentName == "" && f.ChildName == "" && f.Age == ""
}

// Location is an optional geolocation fix.
type Location struct {
	Latitude  float64
	Longitude float64
	Address   string
}

// Metadata describes a recording for the share sheet.
type Metadata struct {
	Title    string
	Form     Form
	Location *Location
	// Text overrides the composed share text when non-empty.
	Text string
}

// Request is one export invocation.
type Request struct {
	Blob     *media.Blob
	Metadata Metadata
	// Filename overrides the generated timestamp name when non-empty.
	Filename string
}

// Payload is what a strategy delivers.
type Payload struct {
	Filename string
	MimeType string
	Data     []byte
	Title    string
	Text     string
}

// Strategy is one method of getting the payload off the device. Deliver
// returns OutcomeSucceeded, OutcomeUserCancelled, OutcomeUnsupported or
// OutcomeFailed; an error accompanies the latter two when available.
type Strategy interface {
	Name() StrategyName
	Deliver(ctx context.Context, p Payload) (Outcome, error)
}

// Attempt records one strategy invocation.
type Attempt struct {
	Strategy StrategyName
	Outcome  Outcome
	Err      error
	Duration time.Duration
}

// Result is the terminal state of an export.
type Result struct {
	ExportID string
	Outcome  Outcome
	Strategy StrategyName
	Filename string
	Attempts []Attempt
	// Instructions are manual steps shown when automation was not possible.
	Instructions string
}

// Notifier shows a message to the user, e.g. manual completion steps.
type Notifier interface {
	Notify(ctx context.Context, message string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, message string)

// Notify calls f.
func (f NotifierFunc) Notify(ctx context.Context, message string) { f(ctx, message) }
