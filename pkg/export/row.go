package export

import (
	"time"

	"github.com/statex/statex/pkg/recorder"
)

// Column names in their fixed output order.
const (
	colStatisticID = "statistic_id"
	colUnit        = "unit"
	colStart       = "start"
	colMin         = "min"
	colMax         = "max"
	colMean        = "mean"
	colSum         = "sum"
	colState       = "state"
	colDelta       = "delta"
)

// row is one shaped output line. Cells are pre-rendered strings where
// the empty string means the field is absent. The raw bucket start is
// kept alongside so sorting never depends on the display string.
type row struct {
	StatisticID string
	Unit        string
	Start       string
	Min         string
	Max         string
	Mean        string
	Sum         string
	State       string
	Delta       string

	start time.Time
}

func (r *row) cell(column string) string {
	switch column {
	case colStatisticID:
		return r.StatisticID
	case colUnit:
		return r.Unit
	case colStart:
		return r.Start
	case colMin:
		return r.Min
	case colMax:
		return r.Max
	case colMean:
		return r.Mean
	case colSum:
		return r.Sum
	case colState:
		return r.State
	case colDelta:
		return r.Delta
	default:
		return ""
	}
}

// columnSet tracks which column groups the shaped rows populated, so the
// header only lists columns at least one row uses.
type columnSet struct {
	sensor  bool
	counter bool
	delta   bool
}

// columns returns the active column names in their fixed order.
func (c columnSet) columns() []string {
	cols := []string{colStatisticID, colUnit, colStart}
	if c.sensor {
		cols = append(cols, colMin, colMax, colMean)
	}
	if c.counter {
		cols = append(cols, colSum, colState)
	}
	if c.delta {
		cols = append(cols, colDelta)
	}
	return cols
}

// shapeRow renders one record into a row and records which column
// groups it populated. Measurement cells are only filled when the
// record carries a mean; sum and state are filled independently.
func shapeRow(id, unit string, rec recorder.Record, loc *time.Location, opts Options, cols *columnSet) row {
	r := row{
		StatisticID: id,
		Unit:        unit,
		Start:       FormatDatetime(rec.Start, loc, opts.Pattern),
		start:       rec.Start.Time,
	}
	if rec.Mean != nil {
		r.Min = FormatDecimal(rec.Min, opts.DecimalSeparator)
		r.Max = FormatDecimal(rec.Max, opts.DecimalSeparator)
		r.Mean = FormatDecimal(rec.Mean, opts.DecimalSeparator)
		cols.sensor = true
	}
	if rec.Sum != nil || rec.State != nil {
		r.Sum = FormatDecimal(rec.Sum, opts.DecimalSeparator)
		r.State = FormatDecimal(rec.State, opts.DecimalSeparator)
		cols.counter = true
	}
	return r
}
