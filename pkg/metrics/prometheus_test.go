package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecorderCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewWithRegisterer(reg)

	r.RecordRun("ready", 1.5)
	r.RecordRun("failed", 0.1)
	r.RecordRun("ready", 2)
	r.RecordInference("gibbs", 1.2, false)
	r.RecordError("DataError")
	r.RecordChangePoint(42, 0.001, -0.002, 0.02, 0.03)

	if got := testutil.ToFloat64(r.runsTotal.WithLabelValues("ready")); got != 2 {
		t.Fatalf("ready runs %v", got)
	}
	if got := testutil.ToFloat64(r.inferenceTotal.WithLabelValues("gibbs", "ok")); got != 1 {
		t.Fatalf("inference calls %v", got)
	}
	if got := testutil.ToFloat64(r.changePoint); got != 42 {
		t.Fatalf("change point gauge %v", got)
	}
	if got := testutil.ToFloat64(r.regime.WithLabelValues("2", "sigma")); got != 0.03 {
		t.Fatalf("regime gauge %v", got)
	}
}
