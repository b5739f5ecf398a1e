package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/statex/statex/pkg/recorder"
)

func floatPtr(v float64) *float64 {
	return &v
}

func hourlyRecords(start time.Time, sums ...float64) []recorder.Record {
	records := make([]recorder.Record, len(sums))
	for i, sum := range sums {
		records[i] = recorder.Record{
			Start: recorder.NewTimestamp(start.Add(time.Duration(i) * time.Hour)),
			Sum:   floatPtr(sum),
		}
	}
	return records
}

func TestMemorySource_AddAndStatistics(t *testing.T) {
	src := New()
	defer src.Close()

	ctx := context.Background()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	src.Add(recorder.Metadata{StatisticID: "sensor.energy", Unit: "kWh", HasSum: true},
		hourlyRecords(start, 1, 2, 3))

	stats, err := src.Statistics(ctx, recorder.StatisticsRequest{})
	if err != nil {
		t.Fatalf("Statistics failed: %v", err)
	}

	if len(stats["sensor.energy"]) != 3 {
		t.Errorf("Expected 3 records, got %d", len(stats["sensor.energy"]))
	}
}

func TestMemorySource_WindowIsHalfOpen(t *testing.T) {
	src := New()
	defer src.Close()

	ctx := context.Background()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	src.Add(recorder.Metadata{StatisticID: "sensor.energy"}, hourlyRecords(start, 1, 2, 3, 4))

	// [01:00, 03:00) must include the 01:00 and 02:00 buckets only
	stats, err := src.Statistics(ctx, recorder.StatisticsRequest{
		Start: start.Add(1 * time.Hour),
		End:   start.Add(3 * time.Hour),
	})
	if err != nil {
		t.Fatalf("Statistics failed: %v", err)
	}

	records := stats["sensor.energy"]
	if len(records) != 2 {
		t.Fatalf("Expected 2 records in window, got %d", len(records))
	}
	if !records[0].Start.Equal(start.Add(1 * time.Hour)) {
		t.Errorf("Window start should be inclusive, first record at %v", records[0].Start.Time)
	}
	if !records[1].Start.Equal(start.Add(2 * time.Hour)) {
		t.Errorf("Window end should be exclusive, last record at %v", records[1].Start.Time)
	}
}

func TestMemorySource_ZeroWindowIsUnbounded(t *testing.T) {
	src := New()
	defer src.Close()

	ctx := context.Background()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	src.Add(recorder.Metadata{StatisticID: "sensor.energy"}, hourlyRecords(start, 1, 2))

	stats, err := src.Statistics(ctx, recorder.StatisticsRequest{})
	if err != nil {
		t.Fatalf("Statistics failed: %v", err)
	}
	if len(stats["sensor.energy"]) != 2 {
		t.Errorf("Unbounded window should return everything, got %d records", len(stats["sensor.energy"]))
	}
}

func TestMemorySource_StatisticsReturnsSorted(t *testing.T) {
	src := New()
	defer src.Close()

	ctx := context.Background()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	// Records added out of order
	src.Add(recorder.Metadata{StatisticID: "sensor.energy"}, []recorder.Record{
		{Start: recorder.NewTimestamp(start.Add(2 * time.Hour)), Sum: floatPtr(3)},
		{Start: recorder.NewTimestamp(start), Sum: floatPtr(1)},
		{Start: recorder.NewTimestamp(start.Add(time.Hour)), Sum: floatPtr(2)},
	})

	stats, err := src.Statistics(ctx, recorder.StatisticsRequest{})
	if err != nil {
		t.Fatalf("Statistics failed: %v", err)
	}

	records := stats["sensor.energy"]
	for i := 1; i < len(records); i++ {
		if records[i].Start.Before(records[i-1].Start.Time) {
			t.Fatalf("Records not sorted: %v before %v", records[i].Start.Time, records[i-1].Start.Time)
		}
	}
}

func TestMemorySource_IDFilter(t *testing.T) {
	src := New()
	defer src.Close()

	ctx := context.Background()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	src.Add(recorder.Metadata{StatisticID: "sensor.energy"}, hourlyRecords(start, 1))
	src.Add(recorder.Metadata{StatisticID: "sensor.gas"}, hourlyRecords(start, 2))

	stats, err := src.Statistics(ctx, recorder.StatisticsRequest{
		StatisticIDs: []string{"sensor.gas", "sensor.unknown"},
	})
	if err != nil {
		t.Fatalf("Statistics failed: %v", err)
	}

	if len(stats) != 1 {
		t.Errorf("Expected 1 series, got %d", len(stats))
	}
	if _, ok := stats["sensor.gas"]; !ok {
		t.Error("Requested series missing from results")
	}
	if _, ok := stats["sensor.unknown"]; ok {
		t.Error("Unknown ID should be omitted entirely")
	}
}

func TestMemorySource_EmptyWindowKeepsSelectedID(t *testing.T) {
	src := New()
	defer src.Close()

	ctx := context.Background()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	src.Add(recorder.Metadata{StatisticID: "sensor.energy"}, hourlyRecords(start, 1))

	stats, err := src.Statistics(ctx, recorder.StatisticsRequest{
		StatisticIDs: []string{"sensor.energy"},
		Start:        start.Add(24 * time.Hour),
		End:          start.Add(48 * time.Hour),
	})
	if err != nil {
		t.Fatalf("Statistics failed: %v", err)
	}

	records, ok := stats["sensor.energy"]
	if !ok {
		t.Fatal("Known series with no data in window should map to an empty slice")
	}
	if len(records) != 0 {
		t.Errorf("Expected empty slice, got %d records", len(records))
	}
}

func TestMemorySource_Metadata(t *testing.T) {
	src := New()
	defer src.Close()

	ctx := context.Background()
	src.Add(recorder.Metadata{StatisticID: "sensor.temp", Unit: "°C", HasMean: true}, nil)
	src.Add(recorder.Metadata{StatisticID: "sensor.energy", Unit: "kWh", HasSum: true}, nil)

	all, err := src.Metadata(ctx, nil)
	if err != nil {
		t.Fatalf("Metadata failed: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("Expected 2 metadata entries, got %d", len(all))
	}

	one, err := src.Metadata(ctx, []string{"sensor.temp"})
	if err != nil {
		t.Fatalf("Metadata failed: %v", err)
	}
	if len(one) != 1 || one["sensor.temp"].Unit != "°C" {
		t.Errorf("Filtered metadata wrong: %+v", one)
	}
}

func TestMemorySource_Range(t *testing.T) {
	src := New()
	defer src.Close()

	ctx := context.Background()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	src.Add(recorder.Metadata{StatisticID: "sensor.energy"}, hourlyRecords(start, 1, 2, 3))
	src.Add(recorder.Metadata{StatisticID: "sensor.gas"}, hourlyRecords(start.Add(-2*time.Hour), 1))

	r, err := src.Range(ctx, nil)
	if err != nil {
		t.Fatalf("Range failed: %v", err)
	}
	if r == nil {
		t.Fatal("Range should not be nil for a populated source")
	}
	if !r.Oldest.Equal(start.Add(-2 * time.Hour)) {
		t.Errorf("Oldest = %v, want %v", r.Oldest, start.Add(-2*time.Hour))
	}
	if !r.Newest.Equal(start.Add(2 * time.Hour)) {
		t.Errorf("Newest = %v, want %v", r.Newest, start.Add(2*time.Hour))
	}

	// Filtered range only looks at the requested series
	r, err = src.Range(ctx, []string{"sensor.energy"})
	if err != nil {
		t.Fatalf("Range failed: %v", err)
	}
	if !r.Oldest.Equal(start) {
		t.Errorf("Filtered oldest = %v, want %v", r.Oldest, start)
	}
}

func TestMemorySource_RangeEmpty(t *testing.T) {
	src := New()
	defer src.Close()

	r, err := src.Range(context.Background(), nil)
	if err != nil {
		t.Fatalf("Range failed: %v", err)
	}
	if r != nil {
		t.Errorf("Empty source should have nil range, got %+v", r)
	}
}

func TestMemorySource_Stats(t *testing.T) {
	src := New()
	defer src.Close()

	ctx := context.Background()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	src.Add(recorder.Metadata{StatisticID: "sensor.energy"}, hourlyRecords(start, 1, 2, 3))
	src.Add(recorder.Metadata{StatisticID: "sensor.gas"}, hourlyRecords(start, 4))

	stats, err := src.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}

	if stats.TotalRecords != 4 {
		t.Errorf("TotalRecords = %d, want 4", stats.TotalRecords)
	}
	if stats.TotalSeries != 2 {
		t.Errorf("TotalSeries = %d, want 2", stats.TotalSeries)
	}
	if !stats.Oldest.Equal(start) {
		t.Errorf("Oldest = %v, want %v", stats.Oldest, start)
	}
	if !stats.Newest.Equal(start.Add(2 * time.Hour)) {
		t.Errorf("Newest = %v, want %v", stats.Newest, start.Add(2*time.Hour))
	}
}

func TestMemorySource_FromSnapshot(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	snap := &recorder.Snapshot{
		Metadata: map[string]recorder.Metadata{
			"sensor.energy": {StatisticID: "sensor.energy", Unit: "kWh", HasSum: true},
			"sensor.silent": {StatisticID: "sensor.silent", Unit: "W"},
		},
		Statistics: map[string][]recorder.Record{
			"sensor.energy": hourlyRecords(start, 1, 2),
		},
	}

	src := FromSnapshot(snap)
	defer src.Close()

	ctx := context.Background()
	stats, err := src.Statistics(ctx, recorder.StatisticsRequest{})
	if err != nil {
		t.Fatalf("Statistics failed: %v", err)
	}

	if len(stats["sensor.energy"]) != 2 {
		t.Errorf("Expected 2 energy records, got %d", len(stats["sensor.energy"]))
	}

	// Metadata-only series surface as empty slices
	records, ok := stats["sensor.silent"]
	if !ok {
		t.Fatal("Metadata-only series should be selectable")
	}
	if len(records) != 0 {
		t.Errorf("Expected empty series, got %d records", len(records))
	}
}

func TestMemorySource_ConcurrentAdds(t *testing.T) {
	src := New()
	defer src.Close()

	ctx := context.Background()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			src.Add(recorder.Metadata{StatisticID: "sensor.energy"},
				hourlyRecords(start.Add(time.Duration(n)*24*time.Hour), float64(n)))
		}(i)
	}
	wg.Wait()

	stats, err := src.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.TotalRecords != 10 {
		t.Errorf("Expected 10 records from concurrent adds, got %d", stats.TotalRecords)
	}
}
