/*
Package recorder defines the read-side boundary to the statistics recorder.

# Data Model

The recorder compiles raw sensor readings into time-bucketed statistics.
Each bucket is a Record carrying whichever aggregates the series produces:

  - Measurement series (temperature, humidity): Mean, Min, Max per bucket
  - Accumulating series (energy, gas, water): Sum since tracking began,
    plus the meter State at the end of the bucket

A nil field means the recorder produced no value for that bucket. Export
code treats Records as read-only.

# Timestamps

Recorder snapshots are produced by different tooling and carry bucket
timestamps in two wire forms: Unix epoch seconds (possibly fractional) or
RFC 3339 strings with a zone offset. The Timestamp type decodes both into
the same instant, so downstream code never branches on the wire form.

# Sources

All statistics reach the exporter through the Source interface:

	type Source interface {
	    Statistics(ctx context.Context, req StatisticsRequest) (map[string][]Record, error)
	    Metadata(ctx context.Context, ids []string) (map[string]Metadata, error)
	    Range(ctx context.Context, ids []string) (*Range, error)
	    Stats(ctx context.Context) (*Stats, error)
	    Close() error
	}

Implementations:
  - memory: in-memory source for tests and demo serving
  - snapshots: JSON files loaded with LoadSnapshot, usually seeded into a
    memory source

# Usage Example

	snap, err := recorder.LoadSnapshot("statistics.json")
	if err != nil {
	    log.Fatal(err)
	}

	src := memory.FromSnapshot(snap)
	defer src.Close()

	stats, err := src.Statistics(ctx, recorder.StatisticsRequest{
	    StatisticIDs: []string{"sensor.home_energy_total"},
	})

# Windows

StatisticsRequest windows apply to bucket starts and are half-open,
[Start, End). A zero Start or End leaves that side unbounded, which is how
"export everything" requests avoid a separate range lookup.
*/
package recorder
