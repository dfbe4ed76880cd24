// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	exportAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "leadcam_export_attempts_total",
		Help: "Export strategy attempts by strategy and outcome",
	}, []string{"strategy", "outcome"})

	exportResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "leadcam_export_results_total",
		Help: "Terminal export outcomes",
	}, []string{"outcome"})

	exportRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "leadcam_export_rejections_total",
		Help: "Export requests rejected before any strategy ran",
	}, []string{"reason"})
)

// RecordExportAttempt counts one strategy attempt.
func RecordExportAttempt(strategy, outcome string) {
	exportAttempts.WithLabelValues(strategy, outcome).Inc()
}

// RecordExportResult counts a terminal export outcome.
func RecordExportResult(outcome string) {
	exportResults.WithLabelValues(outcome).Inc()
}

// RecordExportRejection counts an export rejected by the size guard or the rate gate.
func RecordExportRejection(reason string) {
	exportRejections.WithLabelValues(reason).Inc()
}
