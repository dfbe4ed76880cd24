// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	breakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "leadcam_breaker_state",
		Help: "Current breaker state per guarded delivery path (1 for the active state, 0 otherwise)",
	}, []string{"breaker", "state"})

	breakerTrips = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "leadcam_breaker_trips_total",
		Help: "Breaker transitions into the open state",
	}, []string{"breaker", "reason"})

	breakerRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "leadcam_breaker_rejections_total",
		Help: "Calls skipped because the breaker was open or a trial call was running",
	}, []string{"breaker"})
)

var breakerStates = [...]string{"closed", "half-open", "open"}

// SetBreakerState marks state as the active one for breaker.
func SetBreakerState(breaker, state string) {
	for _, s := range breakerStates {
		v := 0.0
		if s == state {
			v = 1
		}
		breakerState.WithLabelValues(breaker, s).Set(v)
	}
}

// RecordBreakerTrip counts a transition to open.
func RecordBreakerTrip(breaker, reason string) {
	breakerTrips.WithLabelValues(breaker, reason).Inc()
}

// RecordBreakerRejection counts a call the breaker refused.
func RecordBreakerRejection(breaker string) {
	breakerRejections.WithLabelValues(breaker).Inc()
}
