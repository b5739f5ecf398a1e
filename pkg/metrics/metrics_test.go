package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsRegisterAndCount(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ExportsTotal.WithLabelValues("csv", "ok").Inc()
	m.ExportsTotal.WithLabelValues("csv", "ok").Inc()
	if got := testutil.ToFloat64(m.ExportsTotal.WithLabelValues("csv", "ok")); got != 2 {
		t.Fatalf("expected exports counter 2, got %f", got)
	}

	m.RowsExported.Add(48)
	if got := testutil.ToFloat64(m.RowsExported); got != 48 {
		t.Fatalf("expected rows counter 48, got %f", got)
	}

	m.OutputDirBytes.Set(4096)
	if got := testutil.ToFloat64(m.OutputDirBytes); got != 4096 {
		t.Fatalf("expected output dir gauge 4096, got %f", got)
	}

	m.ExportDuration.Observe(0.25)
	if series := testutil.CollectAndCount(m.ExportDuration); series != 1 {
		t.Fatalf("expected one duration histogram series, got %d", series)
	}
}

func TestMetricsFreshRegistryPerInstance(t *testing.T) {
	// Two instances on separate registries must not collide.
	New(prometheus.NewRegistry())
	New(prometheus.NewRegistry())
}
