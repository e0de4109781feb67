package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecorderCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewWithRegisterer(reg)

	r.RecordReport("BUY", "identity")
	r.RecordReport("BUY", "identity")
	r.RecordGuardrail("macro_headwind")
	r.RecordFailure("analysis_failed")
	r.RecordLatency("build", 0.02)

	if got := testutil.ToFloat64(r.reportsTotal.WithLabelValues("BUY", "identity")); got != 2 {
		t.Fatalf("reports = %v, want 2", got)
	}
	if got := testutil.ToFloat64(r.guardrailsFired.WithLabelValues("macro_headwind")); got != 1 {
		t.Fatalf("guardrails = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.failuresTotal.WithLabelValues("analysis_failed")); got != 1 {
		t.Fatalf("failures = %v, want 1", got)
	}
	if n := testutil.CollectAndCount(r.latency); n != 1 {
		t.Fatalf("latency series = %d, want 1", n)
	}
}
