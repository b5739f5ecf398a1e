package export

import "github.com/statex/statex/pkg/recorder"

// Kind is the shape of a statistic series inferred from its records.
type Kind int

const (
	// KindUnknown means no record carried a significant field.
	KindUnknown Kind = iota

	// KindSensor series carry measurement fields (mean, min, max).
	KindSensor

	// KindCounter series carry accumulation fields (sum, state).
	KindCounter
)

func (k Kind) String() string {
	switch k {
	case KindSensor:
		return "sensor"
	case KindCounter:
		return "counter"
	default:
		return "unknown"
	}
}

// classifySeries infers the kind of a series from its records. Each
// record is checked for measurement fields before accumulation fields,
// and the first record carrying either decides the whole series.
func classifySeries(records []recorder.Record) Kind {
	for _, rec := range records {
		if rec.Mean != nil || rec.Min != nil || rec.Max != nil {
			return KindSensor
		}
		if rec.Sum != nil || rec.State != nil {
			return KindCounter
		}
	}
	return KindUnknown
}

// hasCounterFields reports whether any record carries an accumulation
// field. Deltas follow field presence, not the series kind, so a
// sensor-classified series with sums still gets them.
func hasCounterFields(records []recorder.Record) bool {
	for _, rec := range records {
		if rec.Sum != nil || rec.State != nil {
			return true
		}
	}
	return false
}
