package export

import (
	"github.com/sirupsen/logrus"

	"github.com/statex/statex/pkg/recorder"
)

// Entity is one statistic series in hierarchical output form.
type Entity struct {
	ID     string  `json:"id"`
	Unit   string  `json:"unit"`
	Values []Value `json:"values"`
}

// Value is one bucket of an entity. Numeric fields stay JSON numbers and
// absent fields are omitted entirely rather than rendered as null.
type Value struct {
	Datetime string   `json:"datetime"`
	Mean     *float64 `json:"mean,omitempty"`
	Min      *float64 `json:"min,omitempty"`
	Max      *float64 `json:"max,omitempty"`
	Sum      *float64 `json:"sum,omitempty"`
	State    *float64 `json:"state,omitempty"`
	Delta    *float64 `json:"delta,omitempty"`
}

// BuildEntities shapes raw statistics into the hierarchical form, one
// entity per series in ascending id order with chronologically sorted
// values. Series carrying accumulation fields additionally get the
// change in sum between consecutive buckets; the first bucket has no
// predecessor and buckets without a sum neither receive a delta nor
// advance the previous value.
func BuildEntities(stats map[string][]recorder.Record, units recorder.UnitMap, opts Options) ([]Entity, error) {
	opts = opts.withDefaults()
	loc, err := opts.location()
	if err != nil {
		return nil, err
	}

	entities := make([]Entity, 0, len(stats))
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
		wantDeltas := hasCounterFields(records)

		entity := Entity{ID: id, Unit: units[id]}
		var (
			prevSum float64
			hasPrev bool
		)
		for _, rec := range sortedRecords(records) {
			value := Value{
				Datetime: FormatDatetime(rec.Start, loc, opts.Pattern),
				Mean:     rec.Mean,
				Min:      rec.Min,
				Max:      rec.Max,
				Sum:      rec.Sum,
				State:    rec.State,
			}
			if wantDeltas && rec.Sum != nil {
				if hasPrev {
					delta := *rec.Sum - prevSum
					value.Delta = &delta
				}
				prevSum = *rec.Sum
				hasPrev = true
			}
			entity.Values = append(entity.Values, value)
		}
		entities = append(entities, entity)
	}
	return entities, nil
}
