package export

import (
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/statex/statex/pkg/recorder"
)

// Table is the shaped tabular form of a statistics export: a header and
// rows of pre-rendered cells aligned to it.
type Table struct {
	Columns []string
	Rows    [][]string
}

// BuildTable shapes raw statistics into a table. Series are processed in
// ascending id order, empty series are skipped and unclassifiable ones
// dropped, each with a warning. Rows come out sorted by id and bucket
// start, and when any counter series is present a delta column tracking
// the change in sum is appended.
func BuildTable(stats map[string][]recorder.Record, units recorder.UnitMap, opts Options) (*Table, error) {
	opts = opts.withDefaults()
	loc, err := opts.location()
	if err != nil {
		return nil, err
	}

	var (
		rows []row
		cols columnSet
	)
	for _, id := range sortedIDs(stats) {
		records := stats[id]
		if len(records) == 0 {
			logrus.Warnf("skipping statistic %s: no records in window", id)
			continue
		}
		if classifySeries(records) == KindUnknown {
			logrus.Warnf("dropping statistic %s: records carry no statistics fields", id)
			continue
		}
		for _, rec := range sortedRecords(records) {
			rows = append(rows, shapeRow(id, units[id], rec, loc, opts, &cols))
		}
	}

	if cols.counter {
		addDeltas(rows, opts.DecimalSeparator)
		cols.delta = true
	} else {
		sortRows(rows)
	}

	table := &Table{Columns: cols.columns()}
	for i := range rows {
		cells := make([]string, len(table.Columns))
		for j, col := range table.Columns {
			cells[j] = rows[i].cell(col)
		}
		table.Rows = append(table.Rows, cells)
	}
	return table, nil
}

func sortedIDs(stats map[string][]recorder.Record) []string {
	ids := make([]string, 0, len(stats))
	for id := range stats {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// sortedRecords returns a chronologically ordered copy, leaving the
// source slice untouched.
func sortedRecords(records []recorder.Record) []recorder.Record {
	sorted := make([]recorder.Record, len(records))
	copy(sorted, records)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Start.Before(sorted[j].Start.Time)
	})
	return sorted
}
