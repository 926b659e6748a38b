package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestHandoffMetricsCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewHandoffMetrics(reg)

	m.ObserveHandoff(true, "")
	m.ObserveHandoff(false, "not_mobile")
	m.ObserveHandoff(false, "not_mobile")
	m.ObserveLookup("cache", "hit")
	m.ObserveUpstreamLatency("ok", 0.2)

	if got := testutil.ToFloat64(m.handoffsTotal.WithLabelValues("rejected", "not_mobile")); got != 2 {
		t.Fatalf("expected 2 rejections, got %v", got)
	}
	if got := testutil.ToFloat64(m.handoffsTotal.WithLabelValues("resolved", "")); got != 1 {
		t.Fatalf("expected 1 resolution, got %v", got)
	}
	if got := testutil.ToFloat64(m.lookupsTotal.WithLabelValues("cache", "hit")); got != 1 {
		t.Fatalf("expected 1 cache hit, got %v", got)
	}
}

func TestHandoffMetricsNilSafe(t *testing.T) {
	var m *HandoffMetrics
	m.ObserveHandoff(true, "")
	m.ObserveLookup("upstream", "ok")
	m.ObserveUpstreamLatency("ok", 0.1)
}
