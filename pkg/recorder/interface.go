package recorder

import (
	"context"
	"time"
)

// Source is the read-side interface to a statistics recorder.
// Implementations: memory (testing, demo serving), snapshot files loaded
// into a memory source.
type Source interface {
	// Statistics returns records grouped by statistic ID. IDs selected by
	// the request but without records in the window map to an empty slice.
	Statistics(ctx context.Context, req StatisticsRequest) (map[string][]Record, error)

	// Metadata returns series metadata for the given IDs (nil = all).
	// Unknown IDs are omitted from the result.
	Metadata(ctx context.Context, ids []string) (map[string]Metadata, error)

	// Range returns the oldest and newest bucket start across the given IDs
	// (nil = all), or nil when no matching records exist.
	Range(ctx context.Context, ids []string) (*Range, error)

	// Stats returns source statistics
	Stats(ctx context.Context) (*Stats, error)

	// Close cleanly shuts down the source
	Close() error
}

// StatisticsRequest specifies which records to retrieve.
type StatisticsRequest struct {
	// Window on bucket starts, half-open [Start, End).
	// A zero value leaves that side unbounded.
	Start time.Time
	End   time.Time

	// Filter by statistic ID (nil = all known IDs)
	StatisticIDs []string
}

// Range is the span of bucket starts held by a source.
type Range struct {
	Oldest time.Time `json:"oldest"`
	Newest time.Time `json:"newest"`
}

// Stats provides source health and volume info.
type Stats struct {
	// Total records across all series
	TotalRecords uint64 `json:"total_records"`

	// Number of statistic series
	TotalSeries uint64 `json:"total_series"`

	// Bucket start span, zero when the source is empty
	Oldest time.Time `json:"oldest"`
	Newest time.Time `json:"newest"`
}
