// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 grantgraph Contributors

package grantgraph

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	decisionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "grantgraph_decision_duration_seconds",
		Help:    "Histogram of Authorize/Trace decision latency in seconds",
		Buckets: prometheus.DefBuckets,
	})

	decisionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "grantgraph_decisions_total",
		Help: "Total number of decisions evaluated, labeled by whether any bit was granted",
	}, []string{"outcome"})

	decisionTruncatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "grantgraph_decision_truncated_total",
		Help: "Total number of decisions that hit the depth bound on either closure",
	})
)

// recordDecisionMetrics publishes Prometheus metrics for one completed
// decision.
func recordDecisionMetrics(duration time.Duration, result Mask, truncated bool) {
	decisionDuration.Observe(duration.Seconds())
	outcome := "denied"
	if result != 0 {
		outcome = "granted"
	}
	decisionsTotal.WithLabelValues(outcome).Inc()
	if truncated {
		decisionTruncatedTotal.Inc()
	}
}
