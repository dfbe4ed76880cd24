// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package metrics exposes Prometheus instruments for capture, recording and export.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	acquisitionAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "leadcam_capture_acquire_attempts_total",
		Help: "Device acquisition attempts by constraint profile and result",
	}, []string{"profile", "result"})

	codecNegotiations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "leadcam_capture_codec_negotiations_total",
		Help: "Codec negotiation results by selected MIME type (none when nothing matched)",
	}, []string{"mime_type"})

	recordingTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "leadcam_recording_transitions_total",
		Help: "Recording session state transitions",
	}, []string{"from", "to"})

	recordedBytes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "leadcam_recording_bytes_total",
		Help: "Total bytes assembled into finished recordings",
	})

	activeHandles = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "leadcam_capture_active_handles",
		Help: "Number of live capture handles (0 or 1 per flow)",
	})
)

// RecordAcquireAttempt counts one constraint-profile attempt.
// result is "ok" or the classified failure name.
func RecordAcquireAttempt(profile, result string) {
	acquisitionAttempts.WithLabelValues(profile, result).Inc()
}

// RecordCodecNegotiation counts a codec negotiation. An empty mime type is
// recorded as "none".
func RecordCodecNegotiation(mimeType string) {
	if mimeType == "" {
		mimeType = "none"
	}
	codecNegotiations.WithLabelValues(mimeType).Inc()
}

// RecordRecordingTransition counts a recording state transition.
func RecordRecordingTransition(from, to string) {
	recordingTransitions.WithLabelValues(from, to).Inc()
}

// AddRecordedBytes adds the size of an assembled recording.
func AddRecordedBytes(n int64) {
	if n > 0 {
		recordedBytes.Add(float64(n))
	}
}

// IncActiveHandles marks a capture handle as acquired.
func IncActiveHandles() { activeHandles.Inc() }

// DecActiveHandles marks a capture handle as released.
func DecActiveHandles() { activeHandles.Dec() }
