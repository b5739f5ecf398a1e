package commands

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/statex/statex/pkg/config"
	"github.com/statex/statex/pkg/metrics"
	"github.com/statex/statex/pkg/recorder"
	"github.com/statex/statex/pkg/recorder/memory"
	"github.com/statex/statex/pkg/recorder/sample"
	"github.com/statex/statex/pkg/server"
)

var (
	serveConfig   string
	serveListen   string
	serveSnapshot string
	serveDemo     bool
)

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the export HTTP server",
		Long: `Run the HTTP server that exports statistics on demand.

Endpoints:
  GET  /v1/export        Stream an export (CSV, TSV or JSON)
  POST /v1/export/files  Write export files to the output directory
  GET  /v1/statistics    List known statistics and their metadata
  GET  /v1/stats         Source totals
  GET  /v1/storage       Output directory usage
  GET  /v1/health        Service health
  GET  /metrics          Prometheus endpoint

Example:
  statex serve --config statex.yaml
  statex serve --snapshot statistics.json --listen :9090
  statex serve --demo`,
		RunE: runServe,
	}

	cmd.Flags().StringVarP(&serveConfig, "config", "c", "", "Path to YAML config file")
	cmd.Flags().StringVar(&serveListen, "listen", "", "Listen address (overrides config)")
	cmd.Flags().StringVar(&serveSnapshot, "snapshot", "", "Snapshot file to serve (overrides config)")
	cmd.Flags().BoolVar(&serveDemo, "demo", false, "Serve a generated sample dataset")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	if serveDemo && serveSnapshot != "" {
		return fmt.Errorf("--demo cannot be combined with --snapshot")
	}

	cfg, err := config.Load(serveConfig)
	if err != nil {
		return err
	}
	if serveListen != "" {
		cfg.Listen = serveListen
	}
	if serveSnapshot != "" {
		cfg.Snapshot = serveSnapshot
	}

	logrus.Info("Starting statex server...")

	var source recorder.Source
	if serveDemo {
		snap := sample.Generate(sample.Config{})
		logrus.Infof("Serving a generated demo dataset (%d series, %d records)",
			len(snap.Metadata), snap.RecordCount())
		source = memory.FromSnapshot(snap)
	} else {
		source, err = server.InitializeSource(cfg)
		if err != nil {
			return err
		}
	}
	defer source.Close()

	m := metrics.New(prometheus.DefaultRegisterer)
	storageMonitor, cleanupMonitor := server.InitializeMonitors(cfg)
	exportHandler := server.InitializeHandlers(source, cfg, storageMonitor, m, logrus.StandardLogger())

	router := mux.NewRouter()
	server.SetupRoutes(router, exportHandler, source, storageMonitor, cleanupMonitor, cfg.Listen)

	var wg sync.WaitGroup
	stopCleanup := make(chan bool)
	if cleanupMonitor != nil {
		wg.Add(1)
		go server.RunCleanup(server.CleanupTask{
			OutputDir: cfg.OutputDir,
			MaxAge:    cfg.Retention.MaxAge.Std(),
			Interval:  cfg.Retention.Interval.Std(),
			Monitor:   cleanupMonitor,
			Storage:   storageMonitor,
			Metrics:   m,
		}, stopCleanup, &wg)
	}

	srv := &http.Server{
		Addr:         cfg.Listen,
		Handler:      router,
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: config.ServerWriteTimeout,
		IdleTimeout:  config.ServerIdleTimeout,
	}

	go func() {
		logrus.Infof("Server listening on %s", cfg.Listen)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutdown signal received, stopping background tasks...")
	close(stopCleanup)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.Warnf("Server shutdown: %v", err)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logrus.Info("All background tasks stopped")
	case <-time.After(5 * time.Second):
		logrus.Warn("Some background tasks did not stop in time")
	}

	logrus.Info("Server exited")
	return nil
}
