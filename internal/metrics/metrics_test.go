package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestNewRegistry(t *testing.T) {
	reg := NewRegistry()
	if reg == nil {
		t.Fatal("expected non-nil registry")
	}

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}
	if len(mfs) == 0 {
		t.Error("expected some metrics to be registered")
	}
}

func TestRegistry_RecordRequest_StatusCodes(t *testing.T) {
	tests := []struct {
		status   int
		expected string
	}{
		{100, "1xx"},
		{200, "2xx"},
		{301, "3xx"},
		{404, "4xx"},
		{503, "5xx"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			reg := NewRegistry()
			reg.RecordRequest("GET", "/test", tt.status, 0.01)

			if !hasLabelValue(t, reg, "http_requests_total", "status", tt.expected) {
				t.Errorf("expected status label %s for status code %d", tt.expected, tt.status)
			}
		})
	}
}

func TestRegistry_FetchMetrics(t *testing.T) {
	reg := NewRegistry()

	reg.RecordFetchAttempt("alphavantage", "rate_limited")
	reg.RecordFetchAttempt("yahoo", "success")
	reg.RecordFetchRetry("yahoo")
	reg.RecordNarrowing()
	reg.RecordCacheHit()
	reg.RecordCacheMiss()
	reg.RecordSeriesServed("yahoo")

	if !hasLabelValue(t, reg, "pulse_fetch_attempts_total", "outcome", "rate_limited") {
		t.Error("expected fetch attempt outcome label")
	}
	if !hasLabelValue(t, reg, "pulse_fetch_retries_total", "provider", "yahoo") {
		t.Error("expected fetch retry provider label")
	}
	if !hasLabelValue(t, reg, "pulse_series_served_total", "source", "yahoo") {
		t.Error("expected series served source label")
	}
	if counterValue(t, reg, "pulse_fetch_narrowings_total") != 1 {
		t.Error("expected one narrowing recorded")
	}
	if counterValue(t, reg, "pulse_cache_hits_total") != 1 {
		t.Error("expected one cache hit recorded")
	}
}

func TestRegistry_InFlight(t *testing.T) {
	reg := NewRegistry()

	reg.InFlightInc()
	reg.InFlightInc()
	reg.InFlightDec()

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}

	found := false
	for _, mf := range mfs {
		if mf.GetName() == "http_requests_in_flight" {
			found = true
			for _, m := range mf.GetMetric() {
				if m.GetGauge().GetValue() != 1 {
					t.Errorf("expected in-flight gauge to be 1, got %v", m.GetGauge().GetValue())
				}
			}
		}
	}
	if !found {
		t.Error("expected http_requests_in_flight metric")
	}
}

// Ensure the registry implements prometheus.Gatherer interface
func TestRegistry_ImplementsGatherer(t *testing.T) {
	reg := NewRegistry()
	var _ prometheus.Gatherer = reg
}

func hasLabelValue(t *testing.T, reg *Registry, metric, label, value string) bool {
	t.Helper()
	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}
	for _, mf := range mfs {
		if mf.GetName() != metric {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == label && l.GetValue() == value {
					return true
				}
			}
		}
	}
	return false
}

func counterValue(t *testing.T, reg *Registry, metric string) float64 {
	t.Helper()
	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}
	for _, mf := range mfs {
		if mf.GetName() == metric {
			for _, m := range mf.GetMetric() {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}
