package monitor

import (
	"os"
	"path/filepath"
	"sync"
	"time"
)

// StorageMonitor tracks export output directory usage with caching to avoid
// scanning the directory on every request.
type StorageMonitor struct {
	outputDir     string
	maxBytes      int64
	cachedUsage   int64
	lastCheck     time.Time
	cacheDuration time.Duration
	mu            sync.Mutex
}

// NewStorageMonitor creates a monitor for the given output directory.
// A maxBytes of zero or below disables the storage budget.
func NewStorageMonitor(outputDir string, maxBytes int64) *StorageMonitor {
	return &StorageMonitor{
		outputDir:     outputDir,
		maxBytes:      maxBytes,
		cacheDuration: 10 * time.Second,
	}
}

// GetUsage returns current output directory usage in bytes. The value is
// cached for 10 seconds to balance accuracy with disk scan cost. A missing
// directory counts as zero usage; exports create it on demand.
func (sm *StorageMonitor) GetUsage() (int64, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if time.Since(sm.lastCheck) < sm.cacheDuration {
		return sm.cachedUsage, nil
	}

	usage, err := calculateDirSize(sm.outputDir)
	if err != nil {
		return 0, err
	}

	sm.cachedUsage = usage
	sm.lastCheck = time.Now()
	return usage, nil
}

// GetLimit returns the configured storage budget in bytes.
func (sm *StorageMonitor) GetLimit() int64 {
	return sm.maxBytes
}

// OverLimit reports whether the output directory has reached its storage
// budget. With no budget configured it always reports false.
func (sm *StorageMonitor) OverLimit() (bool, error) {
	if sm.maxBytes <= 0 {
		return false, nil
	}
	usage, err := sm.GetUsage()
	if err != nil {
		return false, err
	}
	return usage >= sm.maxBytes, nil
}

// Invalidate drops the cached usage so the next GetUsage rescans the
// directory. The cleanup task calls this after deleting files.
func (sm *StorageMonitor) Invalidate() {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.lastCheck = time.Time{}
}

// calculateDirSize recursively calculates directory size in bytes.
// Uses actual disk usage where the platform exposes it, so sparse files are
// accounted at their allocated size.
func calculateDirSize(path string) (int64, error) {
	var size int64
	err := filepath.Walk(path, func(filePath string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			actualSize, err := getActualFileSize(filePath, info)
			if err != nil {
				size += info.Size()
			} else {
				size += actualSize
			}
		}
		return nil
	})
	if os.IsNotExist(err) {
		return 0, nil
	}
	return size, err
}
