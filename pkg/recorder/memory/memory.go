package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/statex/statex/pkg/recorder"
)

// Source holds statistics in memory. Data is lost on restart.
// Useful for testing and for serving snapshots.
type Source struct {
	mu     sync.RWMutex
	meta   map[string]recorder.Metadata
	series map[string][]recorder.Record
}

// New creates an empty in-memory source.
func New() *Source {
	return &Source{
		meta:   make(map[string]recorder.Metadata),
		series: make(map[string][]recorder.Record),
	}
}

// FromSnapshot creates a source holding the snapshot's statistics.
// Metadata-only series are kept as empty series, the way a recorder reports
// a known statistic with no data in the period.
func FromSnapshot(snap *recorder.Snapshot) *Source {
	s := New()
	for id, meta := range snap.Metadata {
		s.meta[id] = meta
		s.series[id] = []recorder.Record{}
	}
	for id, records := range snap.Statistics {
		s.series[id] = append(s.series[id], records...)
		if _, ok := s.meta[id]; !ok {
			s.meta[id] = recorder.Metadata{StatisticID: id}
		}
	}
	return s
}

// Add registers a statistic series and appends its records.
func (s *Source) Add(meta recorder.Metadata, records []recorder.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.meta[meta.StatisticID] = meta
	s.series[meta.StatisticID] = append(s.series[meta.StatisticID], records...)
}

// Statistics returns records per statistic ID with bucket starts inside the
// half-open request window. Selected IDs without matching records map to an
// empty slice; unknown IDs are omitted.
func (s *Source) Statistics(ctx context.Context, req recorder.StatisticsRequest) (map[string][]recorder.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make(map[string][]recorder.Record)
	for _, id := range s.selectIDs(req.StatisticIDs) {
		records, ok := s.series[id]
		if !ok {
			continue
		}

		matched := make([]recorder.Record, 0, len(records))
		for _, rec := range records {
			if !req.Start.IsZero() && rec.Start.Before(req.Start) {
				continue
			}
			if !req.End.IsZero() && !rec.Start.Before(req.End) {
				continue
			}
			matched = append(matched, rec)
		}

		sort.SliceStable(matched, func(i, j int) bool {
			return matched[i].Start.Before(matched[j].Start.Time)
		})
		results[id] = matched
	}

	return results, nil
}

// Metadata returns series metadata for the given IDs (nil = all).
func (s *Source) Metadata(ctx context.Context, ids []string) (map[string]recorder.Metadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make(map[string]recorder.Metadata)
	for _, id := range s.selectIDs(ids) {
		if meta, ok := s.meta[id]; ok {
			results[id] = meta
		}
	}
	return results, nil
}

// Range returns the span of bucket starts across the given IDs (nil = all),
// or nil when no matching records exist.
func (s *Source) Range(ctx context.Context, ids []string) (*recorder.Range, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var r *recorder.Range
	for _, id := range s.selectIDs(ids) {
		for _, rec := range s.series[id] {
			ts := rec.Start.Time
			if r == nil {
				r = &recorder.Range{Oldest: ts, Newest: ts}
				continue
			}
			if ts.Before(r.Oldest) {
				r.Oldest = ts
			}
			if ts.After(r.Newest) {
				r.Newest = ts
			}
		}
	}
	return r, nil
}

// Stats returns source statistics.
func (s *Source) Stats(ctx context.Context) (*recorder.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &recorder.Stats{
		TotalSeries: uint64(len(s.series)),
	}

	var oldest, newest time.Time
	for _, records := range s.series {
		stats.TotalRecords += uint64(len(records))
		for _, rec := range records {
			ts := rec.Start.Time
			if oldest.IsZero() || ts.Before(oldest) {
				oldest = ts
			}
			if newest.IsZero() || ts.After(newest) {
				newest = ts
			}
		}
	}

	stats.Oldest = oldest
	stats.Newest = newest
	return stats, nil
}

// Close is a no-op for the memory source.
func (s *Source) Close() error {
	return nil
}

// selectIDs resolves an ID filter against the known series.
// Callers must hold at least a read lock.
func (s *Source) selectIDs(ids []string) []string {
	if len(ids) > 0 {
		return ids
	}
	all := make([]string, 0, len(s.series))
	for id := range s.series {
		all = append(all, id)
	}
	sort.Strings(all)
	return all
}
