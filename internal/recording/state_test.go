// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package recording

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to State
		want     bool
	}{
		{StateIdle, StateRecording, true},
		{StatePreviewing, StateRecording, true},
		{StateRecording, StateStopped, true},
		{StateStopped, StateIdle, true},
		{StateRecording, StateIdle, true},
		{StateStopped, StateRecording, false},
		{StateIdle, StateStopped, false},
		{State("bogus"), StateIdle, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransition(tt.from, tt.to))
		})
	}
}

func TestTransitionError(t *testing.T) {
	err := &TransitionError{SessionID: "s1", Op: "stop", From: StateIdle, Err: ErrNotRecording}
	assert.True(t, errors.Is(err, ErrNotRecording))
	assert.Contains(t, err.Error(), "cannot stop session s1 in state idle")
}

func TestPhasePublic(t *testing.T) {
	assert.Equal(t, StateIdle, phaseStarting.public())
	assert.Equal(t, StateRecording, phaseStopping.public())
	assert.Equal(t, StateStopped, phaseStopped.public())
	assert.Equal(t, "stopping", phaseStopping.String())
}
