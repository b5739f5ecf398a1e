package export

import "sort"

// sortRows orders rows by statistic id, then chronologically within each
// series. Ordering uses the raw bucket instant, not the rendered start
// cell, so day-first datetime patterns cannot scramble the output.
func sortRows(rows []row) {
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].StatisticID != rows[j].StatisticID {
			return rows[i].StatisticID < rows[j].StatisticID
		}
		return rows[i].start.Before(rows[j].start)
	})
}

// addDeltas fills the delta cell with the change in sum between
// consecutive rows of the same series. Rows are sorted first so each
// series forms one contiguous chronological run. The first row of a
// series has no predecessor and keeps an empty delta, and rows whose
// sum is absent or unparseable are skipped without advancing the
// previous value.
func addDeltas(rows []row, separator string) {
	sortRows(rows)

	var (
		prevID  string
		prevSum float64
		hasPrev bool
	)
	for i := range rows {
		r := &rows[i]
		if r.StatisticID != prevID {
			prevID = r.StatisticID
			hasPrev = false
		}
		if r.Sum == "" {
			continue
		}
		sum, err := parseDecimal(r.Sum, separator)
		if err != nil {
			continue
		}
		if hasPrev {
			delta := sum - prevSum
			r.Delta = FormatDecimal(&delta, separator)
		}
		prevSum = sum
		hasPrev = true
	}
}
