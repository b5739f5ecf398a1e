package recorder

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Snapshot is the on-disk interchange format for recorder statistics:
// series metadata and records, both keyed by statistic ID.
type Snapshot struct {
	Metadata   map[string]Metadata `json:"metadata"`
	Statistics map[string][]Record `json:"statistics"`
}

// RecordCount returns the total number of records in the snapshot.
func (s *Snapshot) RecordCount() int {
	total := 0
	for _, records := range s.Statistics {
		total += len(records)
	}
	return total
}

// LoadSnapshot reads a snapshot file from disk.
func LoadSnapshot(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer f.Close()

	var snap Snapshot
	if err := json.NewDecoder(f).Decode(&snap); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot %s: %w", path, err)
	}
	return &snap, nil
}

// WriteSnapshot writes a snapshot file to disk, creating parent directories
// as needed.
func WriteSnapshot(path string, snap *Snapshot) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create snapshot directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create snapshot: %w", err)
	}

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close snapshot: %w", err)
	}
	return nil
}
