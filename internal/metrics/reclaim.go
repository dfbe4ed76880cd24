// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	trackedHandles = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "leadcam_reclaim_tracked_handles",
		Help: "Transient handles currently registered with the reclaimer",
	})

	releasedHandles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "leadcam_reclaim_released_total",
		Help: "Transient handles released, by trigger (explicit, expired, release_all)",
	}, []string{"trigger"})
)

// SetTrackedHandles publishes the current registry size.
func SetTrackedHandles(n int) {
	trackedHandles.Set(float64(n))
}

// RecordHandleRelease counts a released handle.
func RecordHandleRelease(trigger string) {
	releasedHandles.WithLabelValues(trigger).Inc()
}
