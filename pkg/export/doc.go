// Package export shapes recorded statistics into delimited text and
// hierarchical JSON.
//
// # Overview
//
// The export package is the data-shaping half of statex. It reads raw
// statistic series from a recorder source and renders them for external
// tools:
//   - Spreadsheet-ready CSV or TSV tables
//   - Hierarchical JSON grouped by entity
//   - One-shot downloads over HTTP or files on disk
//
// # Series Kinds
//
// Series are classified from their records, never from configuration.
// A record carrying mean, min or max marks its series as a sensor; a
// record carrying sum or state marks it as a counter. Measurement
// fields are checked first, so a series mixing both counts as a sensor.
// Series whose records carry neither are dropped with a warning.
//
// # Tabular Output
//
// Tables have a fixed column order:
//
//	statistic_id, unit, start, min, max, mean, sum, state, delta
//
// Only columns used by at least one row appear. Sensor cells are filled
// when a record has a mean; sum and state fill independently. When any
// counter series is present, a delta column reports the change in sum
// between consecutive buckets of the same series.
//
// Rows are sorted by statistic id, then chronologically by the raw
// bucket instant. The rendered datetime never participates in sorting,
// so day-first patterns such as "%d.%m.%Y" keep rows in true time
// order.
//
// Cells are joined with the delimiter as-is and never quoted. Callers
// choosing CSV own keeping commas out of their decimal separator and
// statistic ids.
//
// # Hierarchical Output
//
// JSON output groups buckets under their entity:
//
//	[
//	  {
//	    "id": "sensor.energy_total",
//	    "unit": "kWh",
//	    "values": [
//	      {"datetime": "2024-01-01 00:00:00", "sum": 1042.5, "state": 12042.5},
//	      {"datetime": "2024-01-01 01:00:00", "sum": 1043.1, "state": 12043.1, "delta": 0.6}
//	    ]
//	  }
//	]
//
// Entities are ordered by id and values chronologically. Numeric fields
// stay JSON numbers, absent fields are omitted, and output is indented
// with two spaces with HTML escaping off so units like °C stay literal.
//
// # Rendering Options
//
// Datetimes render in a configurable IANA timezone using strftime-style
// patterns. Decimals render without trailing zeros (10.0 becomes "10")
// and the radix point can be swapped for a comma. An unknown timezone
// fails the whole export before any output is written.
//
// # HTTP API
//
// Streaming download: GET /v1/export
//
//	curl "http://localhost:8080/v1/export?format=csv&start=2024-01-01T00:00:00Z" \
//	  -o statistics.csv
//
// Server-side files: POST /v1/export/files
//
//	curl -X POST "http://localhost:8080/v1/export/files" \
//	  -H "Content-Type: application/json" \
//	  -d '{"format": "tsv", "filename": "january", "split_by_kind": true}'
//
// With split_by_kind set, sensor and counter series are written to
// separate <stem>_sensors and <stem>_counters files.
//
// # Programmatic Usage
//
//	exporter := export.NewExporter(source, logger)
//	opts := export.ExportOptions{
//	    Start:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
//	    End:    time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
//	    Format: export.FormatCSV,
//	}
//
//	file, _ := os.Create("statistics.csv")
//	defer file.Close()
//
//	result, err := exporter.Export(ctx, file, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("Exported %d rows (checksum %s)\n", result.Rows, result.Checksum)
//
// # Error Handling
//
// Exports distinguish fatal errors from per-series problems. An invalid
// timezone or a failed write aborts the export with an error. An empty
// or unclassifiable series only logs a warning and is left out, and a
// sum cell that cannot be parsed for the delta column is skipped
// without advancing the running value.
package export
