package server

import (
	"github.com/sirupsen/logrus"

	"github.com/statex/statex/pkg/config"
	"github.com/statex/statex/pkg/export"
	"github.com/statex/statex/pkg/metrics"
	"github.com/statex/statex/pkg/recorder"
	"github.com/statex/statex/pkg/recorder/memory"
	"github.com/statex/statex/pkg/server/monitor"
)

// InitializeSource builds the statistics source the server exports from.
// With a snapshot path configured, the snapshot is loaded into a memory
// source; otherwise the server starts empty.
func InitializeSource(cfg *config.Config) (recorder.Source, error) {
	if cfg.Snapshot == "" {
		logrus.Info("No snapshot configured, serving an empty source")
		return memory.New(), nil
	}

	snap, err := recorder.LoadSnapshot(cfg.Snapshot)
	if err != nil {
		return nil, err
	}

	logrus.Infof("Loaded snapshot %s (%d series, %d records)",
		cfg.Snapshot, len(snap.Metadata), snap.RecordCount())
	return memory.FromSnapshot(snap), nil
}

// InitializeMonitors creates the storage monitor and, when retention is
// enabled, the cleanup monitor. A nil cleanup monitor means retention is off.
func InitializeMonitors(cfg *config.Config) (*monitor.StorageMonitor, *monitor.CleanupMonitor) {
	storageMonitor := monitor.NewStorageMonitor(cfg.OutputDir, cfg.Retention.MaxOutputBytes)

	if cfg.Retention.Disabled {
		logrus.Info("Retention cleanup disabled")
		return storageMonitor, nil
	}

	cleanupMonitor := monitor.NewCleanupMonitor(cfg.Retention.Interval.Std())
	logrus.Infof("Retention cleanup ready (removes exports older than %v every %v)",
		cfg.Retention.MaxAge.Std(), cfg.Retention.Interval.Std())
	return storageMonitor, cleanupMonitor
}

// InitializeHandlers creates and configures the export handler.
func InitializeHandlers(
	source recorder.Source,
	cfg *config.Config,
	storageMonitor *monitor.StorageMonitor,
	m *metrics.Metrics,
	logger *logrus.Logger,
) *export.Handler {
	exporter := export.NewExporter(source, logger)

	handlerConfig := export.HandlerConfig{
		OutputDir:       cfg.OutputDir,
		MaxExportWindow: cfg.Export.MaxWindow.Std(),
		Timezone:        cfg.Export.Timezone,
		Pattern:         cfg.Export.Pattern,
		DecimalComma:    cfg.Export.DecimalComma,
	}

	exportHandler := export.NewHandler(exporter, handlerConfig, storageMonitor, logger)
	if m != nil {
		exportHandler.SetMetrics(m)
	}
	logrus.Info("Export handler created (CSV, TSV and JSON)")
	return exportHandler
}
