// Package monitor tracks background job health and output directory usage
// for the statistics export server.
package monitor

import (
	"sync"
	"time"
)

// CleanupMonitor tracks retention cleanup health and failures.
type CleanupMonitor struct {
	mu                sync.RWMutex
	staleAfter        time.Duration
	lastSuccess       time.Time
	lastAttempt       time.Time
	filesDeleted      int64
	consecutiveErrors int
	lastError         string
}

// NewCleanupMonitor creates a monitor for a cleanup loop running on the given
// interval. The loop counts as stale once two intervals pass without a
// successful run.
func NewCleanupMonitor(interval time.Duration) *CleanupMonitor {
	return &CleanupMonitor{staleAfter: 2 * interval}
}

// RecordSuccess records a successful cleanup run and how many files it removed.
func (cm *CleanupMonitor) RecordSuccess(deleted int) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.lastSuccess = time.Now()
	cm.lastAttempt = time.Now()
	cm.filesDeleted += int64(deleted)
	cm.consecutiveErrors = 0
	cm.lastError = ""
}

// RecordFailure records a failed cleanup run.
func (cm *CleanupMonitor) RecordFailure(err error) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.lastAttempt = time.Now()
	cm.consecutiveErrors++
	if err != nil {
		cm.lastError = err.Error()
	}
}

// IsHealthy returns true if cleanup is working properly.
// Unhealthy conditions:
//   - Never succeeded
//   - No success within the staleness window
//   - More than 3 consecutive failures
func (cm *CleanupMonitor) IsHealthy() bool {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.healthyLocked()
}

func (cm *CleanupMonitor) healthyLocked() bool {
	stale := cm.staleAfter
	if stale <= 0 {
		stale = 2 * time.Hour
	}

	if cm.lastSuccess.IsZero() {
		return false
	}
	if time.Since(cm.lastSuccess) > stale {
		return false
	}
	if cm.consecutiveErrors > 3 {
		return false
	}
	return true
}

// CleanupStatus is the cleanup state reported by health checks.
type CleanupStatus struct {
	Healthy           bool   `json:"healthy"`
	LastSuccess       string `json:"last_success,omitempty"`
	TimeSinceSuccess  string `json:"time_since_success,omitempty"`
	LastAttempt       string `json:"last_attempt,omitempty"`
	FilesDeleted      int64  `json:"files_deleted,omitempty"`
	ConsecutiveErrors int    `json:"consecutive_errors,omitempty"`
	LastError         string `json:"last_error,omitempty"`
}

// Status returns the current cleanup status for health checks.
func (cm *CleanupMonitor) Status() CleanupStatus {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	status := CleanupStatus{
		Healthy:      cm.healthyLocked(),
		FilesDeleted: cm.filesDeleted,
	}

	if !cm.lastSuccess.IsZero() {
		status.LastSuccess = cm.lastSuccess.Format(time.RFC3339)
		status.TimeSinceSuccess = time.Since(cm.lastSuccess).String()
	}

	if !cm.lastAttempt.IsZero() {
		status.LastAttempt = cm.lastAttempt.Format(time.RFC3339)
	}

	if cm.consecutiveErrors > 0 {
		status.ConsecutiveErrors = cm.consecutiveErrors
		status.LastError = cm.lastError
	}

	return status
}
