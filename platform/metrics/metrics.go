// Package metrics exposes Prometheus collectors for the handoff flow.
package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "tel_handoff"

// HandoffMetrics exposes counters/histograms for handoffs and geolocation.
type HandoffMetrics struct {
	handoffsTotal *prometheus.CounterVec
	lookupsTotal  *prometheus.CounterVec
	lookupLatency *prometheus.HistogramVec
}

func NewHandoffMetrics(reg prometheus.Registerer) *HandoffMetrics {
	m := &HandoffMetrics{
		handoffsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "handoff",
			Name:      "resolutions_total",
			Help:      "Total tel: candidates resolved, by outcome and rejection reason",
		}, []string{"outcome", "reason"}),
		lookupsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "geolocation",
			Name:      "lookups_total",
			Help:      "Total calling code lookups, by source and status",
		}, []string{"source", "status"}),
		lookupLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "geolocation",
			Name:      "upstream_latency_seconds",
			Help:      "Latency of upstream IP geolocation requests",
			Buckets:   prometheus.DefBuckets,
		}, []string{"status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.handoffsTotal, m.lookupsTotal, m.lookupLatency)
	return m
}

// ObserveHandoff counts a resolution. reason is empty on success.
func (m *HandoffMetrics) ObserveHandoff(success bool, reason string) {
	if m == nil {
		return
	}
	outcome := "resolved"
	if !success {
		outcome = "rejected"
	}
	m.handoffsTotal.WithLabelValues(outcome, reason).Inc()
}

func (m *HandoffMetrics) ObserveLookup(source, status string) {
	if m == nil {
		return
	}
	m.lookupsTotal.WithLabelValues(source, status).Inc()
}

func (m *HandoffMetrics) ObserveUpstreamLatency(status string, seconds float64) {
	if m == nil {
		return
	}
	m.lookupLatency.WithLabelValues(status).Observe(seconds)
}
