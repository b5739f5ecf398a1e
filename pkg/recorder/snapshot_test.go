package recorder

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestSnapshot_WriteAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "statistics.json")

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	snap := &Snapshot{
		Metadata: map[string]Metadata{
			"sensor.temp":   {StatisticID: "sensor.temp", Unit: "°C", HasMean: true},
			"sensor.energy": {StatisticID: "sensor.energy", Unit: "kWh", HasSum: true},
		},
		Statistics: map[string][]Record{
			"sensor.temp": {
				{Start: NewTimestamp(start), Mean: floatPtr(21.5), Min: floatPtr(20), Max: floatPtr(23)},
			},
			"sensor.energy": {
				{Start: NewTimestamp(start), Sum: floatPtr(100.5), State: floatPtr(1100.5)},
				{Start: NewTimestamp(start.Add(time.Hour)), Sum: floatPtr(101), State: floatPtr(1101)},
			},
		},
	}

	if err := WriteSnapshot(path, snap); err != nil {
		t.Fatalf("WriteSnapshot failed: %v", err)
	}

	loaded, err := LoadSnapshot(path)
	if err != nil {
		t.Fatalf("LoadSnapshot failed: %v", err)
	}

	if loaded.RecordCount() != 3 {
		t.Errorf("Expected 3 records, got %d", loaded.RecordCount())
	}
	if loaded.Metadata["sensor.temp"].Unit != "°C" {
		t.Errorf("Unit not preserved, got %q", loaded.Metadata["sensor.temp"].Unit)
	}

	energy := loaded.Statistics["sensor.energy"]
	if len(energy) != 2 {
		t.Fatalf("Expected 2 energy records, got %d", len(energy))
	}
	if !energy[1].Start.Equal(start.Add(time.Hour)) {
		t.Errorf("Timestamp not preserved, got %v", energy[1].Start.Time)
	}
	if energy[0].Sum == nil || *energy[0].Sum != 100.5 {
		t.Errorf("Sum not preserved, got %v", energy[0].Sum)
	}
	if energy[0].Mean != nil {
		t.Error("Absent mean should stay absent through a round trip")
	}
}

func TestLoadSnapshot_MixedTimestampForms(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mixed.json")

	// Epoch and RFC 3339 timestamps for the same two instants
	raw := `{
	  "metadata": {
	    "sensor.energy": {"statistic_id": "sensor.energy", "unit_of_measurement": "kWh", "has_sum": true}
	  },
	  "statistics": {
	    "sensor.energy": [
	      {"start": 1704067200, "sum": 1.0},
	      {"start": "2024-01-01T02:00:00+01:00", "sum": 2.0}
	    ]
	  }
	}`
	if err := os.WriteFile(path, []byte(raw), 0644); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}

	snap, err := LoadSnapshot(path)
	if err != nil {
		t.Fatalf("LoadSnapshot failed: %v", err)
	}

	records := snap.Statistics["sensor.energy"]
	if len(records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(records))
	}

	first := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	if !records[0].Start.Equal(first) {
		t.Errorf("Epoch start decoded to %v, want %v", records[0].Start.Time, first)
	}
	if !records[1].Start.Equal(first.Add(time.Hour)) {
		t.Errorf("RFC3339 start decoded to %v, want %v", records[1].Start.Time, first.Add(time.Hour))
	}
}

func TestLoadSnapshot_MissingFile(t *testing.T) {
	_, err := LoadSnapshot(filepath.Join(t.TempDir(), "nope.json"))
	if err == nil {
		t.Error("LoadSnapshot should fail for a missing file")
	}
}

func TestWriteSnapshot_CreatesParentDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "snap.json")

	snap := &Snapshot{
		Metadata:   map[string]Metadata{},
		Statistics: map[string][]Record{},
	}
	if err := WriteSnapshot(path, snap); err != nil {
		t.Fatalf("WriteSnapshot failed: %v", err)
	}

	if _, err := os.Stat(path); err != nil {
		t.Errorf("Snapshot file not created: %v", err)
	}
}
