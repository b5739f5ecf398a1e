package server

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/statex/statex/pkg/metrics"
	"github.com/statex/statex/pkg/server/monitor"
)

// CleanupTask describes one retention cleanup loop over the export output
// directory.
type CleanupTask struct {
	OutputDir string
	MaxAge    time.Duration
	Interval  time.Duration

	Monitor *monitor.CleanupMonitor
	Storage *monitor.StorageMonitor
	Metrics *metrics.Metrics
}

// RunCleanup runs the retention cleanup job periodically.
func RunCleanup(task CleanupTask, stop chan bool, wg *sync.WaitGroup) {
	defer wg.Done()

	ticker := time.NewTicker(task.Interval)
	defer ticker.Stop()

	// Helper function to run cleanup with retry and exponential backoff
	runWithRetry := func(isInitial bool) {
		maxRetries := 3
		baseDelay := 5 * time.Second

		for attempt := 0; attempt <= maxRetries; attempt++ {
			if attempt > 0 {
				delay := baseDelay * time.Duration(1<<(attempt-1)) // Exponential backoff: 5s, 10s, 20s
				logrus.Infof("Retrying cleanup in %v (attempt %d/%d)...", delay, attempt+1, maxRetries+1)
				select {
				case <-time.After(delay):
				case <-stop:
					return
				}
			}

			start := time.Now()
			deleted, err := CleanupExports(task.OutputDir, task.MaxAge, time.Now())

			if err == nil {
				task.Monitor.RecordSuccess(deleted)
				task.recordMetrics(deleted)
				if isInitial {
					logrus.Infof("Initial cleanup completed in %v (%d files removed)",
						time.Since(start).Round(time.Millisecond), deleted)
				} else {
					logrus.Infof("Cleanup completed in %v (%d files removed)",
						time.Since(start).Round(time.Millisecond), deleted)
				}
				return
			}

			// Failure - record and log
			task.Monitor.RecordFailure(err)
			logrus.Warnf("Cleanup failed (attempt %d/%d): %v", attempt+1, maxRetries+1, err)

			status := task.Monitor.Status()
			if status.ConsecutiveErrors > 3 {
				logrus.Errorf("ALERT: Cleanup has been failing! Consecutive errors: %d", status.ConsecutiveErrors)
			}
		}

		logrus.Warnf("Cleanup failed after %d attempts, will retry on next schedule", maxRetries+1)
	}

	// Run once on startup (non-blocking)
	go func() {
		logrus.Infof("Running initial cleanup (removing exports older than %v)...", task.MaxAge)
		runWithRetry(true)
	}()

	for {
		select {
		case <-ticker.C:
			runWithRetry(false)
		case <-stop:
			logrus.Info("Stopping cleanup scheduler")
			return
		}
	}
}

// recordMetrics updates the cleanup counters and the output directory gauge
// after a successful run.
func (t CleanupTask) recordMetrics(deleted int) {
	if t.Metrics != nil {
		t.Metrics.CleanupRuns.Inc()
		t.Metrics.FilesDeleted.Add(float64(deleted))
	}

	if t.Storage == nil {
		return
	}
	if deleted > 0 {
		t.Storage.Invalidate()
	}
	if t.Metrics != nil {
		if usage, err := t.Storage.GetUsage(); err == nil {
			t.Metrics.OutputDirBytes.Set(float64(usage))
		}
	}
}

// CleanupExports removes export files older than maxAge from dir. Only
// regular files directly under dir are considered; subdirectories are left
// alone. A missing directory counts as nothing to clean.
func CleanupExports(dir string, maxAge time.Duration, now time.Time) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read export directory: %w", err)
	}

	cutoff := now.Add(-maxAge)
	deleted := 0
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}

		if err := os.Remove(filepath.Join(dir, entry.Name())); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return deleted, fmt.Errorf("failed to remove %s: %w", entry.Name(), err)
		}
		deleted++
	}

	return deleted, nil
}
