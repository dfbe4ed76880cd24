// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package recording

import (
	"errors"
	"fmt"
)

// State is the externally visible lifecycle state of a Session.
type State string

const (
	StateIdle       State = "idle"
	StatePreviewing State = "previewing"
	StateRecording  State = "recording"
	StateStopped    State = "stopped"
)

// ValidTransitions lists the states reachable from each state. Any state may
// return to idle through Reset.
var ValidTransitions = map[State][]State{
	StateIdle:       {StatePreviewing, StateRecording},
	StatePreviewing: {StateIdle, StateRecording},
	StateRecording:  {StateStopped, StateIdle},
	StateStopped:    {StateIdle},
}

// CanTransition checks if a transition from one state to another is valid.
func CanTransition(from, to State) bool {
	for _, target := range ValidTransitions[from] {
		if target == to {
			return true
		}
	}
	return false
}

var (
	ErrAlreadyRecording    = errors.New("recording already in progress")
	ErrNotRecording        = errors.New("no recording in progress")
	ErrNotIdle             = errors.New("session must be reset before starting a new take")
	ErrSessionReset        = errors.New("session was reset")
	ErrRecordingInProgress = errors.New("camera switch refused while recording")
)

// TransitionError reports an operation attempted from a state that does not
// allow it.
type TransitionError struct {
	SessionID string
	Op        string
	From      State
	Err       error
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s session %s in state %s: %v", e.Op, e.SessionID, e.From, e.Err)
}

func (e *TransitionError) Unwrap() error { return e.Err }

// phase is the internal state. starting and stopping are the suspension
// points around device acquisition and the recorder's final flush.
type phase int

const (
	phaseIdle phase = iota
	phaseStarting
	phaseRecording
	phaseStopping
	phaseStopped
)

func (p phase) String() string {
	switch p {
	case phaseStarting:
		return "starting"
	case phaseRecording:
		return "recording"
	case phaseStopping:
		return "stopping"
	case phaseStopped:
		return "stopped"
	default:
		return "idle"
	}
}

// public maps a phase to the visible state, ignoring preview ownership.
func (p phase) public() State {
	switch p {
	case phaseRecording, phaseStopping:
		return StateRecording
	case phaseStopped:
		return StateStopped
	default:
		return StateIdle
	}
}
