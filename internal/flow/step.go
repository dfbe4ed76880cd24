// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package flow

import "errors"

// Step is one screen of the lead-capture flow.
type Step int

const (
	StepStart Step = iota
	StepImage
	StepRecord
	StepSave
)

func (s Step) String() string {
	switch s {
	case StepStart:
		return "start"
	case StepImage:
		return "image"
	case StepRecord:
		return "record"
	case StepSave:
		return "save"
	default:
		return "unknown"
	}
}

var (
	// ErrWrongStep is returned when an operation is invoked on the wrong screen.
	ErrWrongStep = errors.New("operation not allowed in current step")
	// ErrNoRecording is returned by Save when no take has been finished.
	ErrNoRecording = errors.New("no finished recording")
)

// StepError reports the step an operation was attempted in.
type StepError struct {
	Op   string
	Have Step
	Want Step
}

func (e *StepError) Error() string {
	return e.Op + ": in step " + e.Have.String() + ", want " + e.Want.String()
}

func (e *StepError) Unwrap() error { return ErrWrongStep }
