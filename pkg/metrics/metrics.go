// Package metrics defines the Prometheus instruments exported by the
// statex service.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds every instrument the service registers. Handlers and
// background tasks share one instance.
type Metrics struct {
	ExportsTotal   *prometheus.CounterVec
	ExportDuration prometheus.Histogram
	RowsExported   prometheus.Counter
	SeriesSkipped  prometheus.Counter
	CleanupRuns    prometheus.Counter
	FilesDeleted   prometheus.Counter
	OutputDirBytes prometheus.Gauge
}

// New creates and registers the statex instruments against reg. Tests
// pass a fresh registry; the server passes the default one.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ExportsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "statex_exports_total",
			Help: "Completed export requests by format and status.",
		}, []string{"format", "status"}),
		ExportDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "statex_export_duration_seconds",
			Help:    "Wall time spent shaping and writing one export.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		}),
		RowsExported: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "statex_rows_exported_total",
			Help: "Data rows written across all exports.",
		}),
		SeriesSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "statex_series_skipped_total",
			Help: "Series left out of exports because they were empty or unclassifiable.",
		}),
		CleanupRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "statex_cleanup_runs_total",
			Help: "Retention cleanup passes over the output directory.",
		}),
		FilesDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "statex_cleanup_files_deleted_total",
			Help: "Expired export files removed by retention cleanup.",
		}),
		OutputDirBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "statex_output_dir_bytes",
			Help: "Size of the export output directory on disk.",
		}),
	}

	reg.MustRegister(
		m.ExportsTotal,
		m.ExportDuration,
		m.RowsExported,
		m.SeriesSkipped,
		m.CleanupRuns,
		m.FilesDeleted,
		m.OutputDirBytes,
	)
	return m
}
