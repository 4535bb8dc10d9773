// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Qosmos Contributors

package pluginsvc

import "github.com/prometheus/client_golang/prometheus"

// metrics holds the service's Prometheus collectors. A nil *metrics is
// valid and every method becomes a no-op, so Service can be used without a
// registry in tests.
type metrics struct {
	loadOrderSize   prometheus.Gauge
	hookFailures    *prometheus.CounterVec
	resolveDuration prometheus.Histogram
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		loadOrderSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "qosmos",
			Subsystem: "plugin",
			Name:      "load_order_size",
			Help:      "Number of candidate units in the most recently computed load order.",
		}),
		hookFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "qosmos",
			Subsystem: "plugin",
			Name:      "hook_failures_total",
			Help:      "Number of lifecycle hook invocations that returned an error or panicked.",
		}, []string{"stage"}),
		resolveDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "qosmos",
			Subsystem: "plugin",
			Name:      "resolve_duration_seconds",
			Help:      "Time spent computing the dependency-resolved load order.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.loadOrderSize, m.hookFailures, m.resolveDuration)
	}
	return m
}

func (m *metrics) observeLoadOrder(n int) {
	if m == nil {
		return
	}
	m.loadOrderSize.Set(float64(n))
}

func (m *metrics) recordHookFailure(stage string) {
	if m == nil {
		return
	}
	m.hookFailures.WithLabelValues(stage).Inc()
}
