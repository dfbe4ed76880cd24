// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var rateLimitExceeded = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "leadcam_ratelimit_exceeded_total",
	Help: "Total rate limit rejections",
}, []string{"gate", "reason"})

// RecordRateLimited counts a request rejected by a named gate.
func RecordRateLimited(gate, reason string) {
	rateLimitExceeded.WithLabelValues(gate, reason).Inc()
}
