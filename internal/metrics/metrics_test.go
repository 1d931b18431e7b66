package metrics

import (
	"testing"

	dto "github.com/prometheus/client_model/go"
)

func TestRecordTransition(t *testing.T) {
	r := NewRegistry()
	r.RecordTransition("disconnected", "connected", 3)
	r.RecordTransition("disconnected", "connected", 3)

	counter, err := r.StateTransitions.GetMetricWithLabelValues("disconnected", "connected")
	if err != nil {
		t.Fatalf("Failed to get metric: %v", err)
	}
	var metric dto.Metric
	if err := counter.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	if metric.Counter.GetValue() != 2 {
		t.Errorf("Counter value = %v, want 2", metric.Counter.GetValue())
	}

	var gauge dto.Metric
	if err := r.ConnectionState.Write(&gauge); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	if gauge.Gauge.GetValue() != 3 {
		t.Errorf("Gauge value = %v, want 3", gauge.Gauge.GetValue())
	}
}

func TestSetDiscovered(t *testing.T) {
	r := NewRegistry()
	r.SetDiscovered(map[string]int{"wired": 1, "wireless": 4})
	r.SetDiscovered(map[string]int{"wireless": 2})

	families, err := r.GetPrometheusRegistry().Gather()
	if err != nil {
		t.Fatalf("Gather() failed: %v", err)
	}
	for _, f := range families {
		if f.GetName() != "netmgr_connections_discovered" {
			continue
		}
		if len(f.GetMetric()) != 1 {
			t.Fatalf("len(metrics)=%d, want 1 after reset", len(f.GetMetric()))
		}
		if v := f.GetMetric()[0].GetGauge().GetValue(); v != 2 {
			t.Errorf("wireless=%v, want 2", v)
		}
		return
	}
	t.Error("netmgr_connections_discovered not gathered")
}
