package export

import (
	"github.com/sirupsen/logrus"

	"github.com/statex/statex/pkg/recorder"
)

// Split holds statistics partitioned by kind, each group with the unit
// entries for its own series.
type Split struct {
	SensorStats  map[string][]recorder.Record
	SensorUnits  recorder.UnitMap
	CounterStats map[string][]recorder.Record
	CounterUnits recorder.UnitMap
}

// SplitByKind partitions statistics into sensor and counter groups so
// each can be exported on its own. Empty and unclassifiable series land
// in neither group.
func SplitByKind(stats map[string][]recorder.Record, units recorder.UnitMap) Split {
	split := Split{
		SensorStats:  make(map[string][]recorder.Record),
		SensorUnits:  make(recorder.UnitMap),
		CounterStats: make(map[string][]recorder.Record),
		CounterUnits: make(recorder.UnitMap),
	}
	for id, records := range stats {
		if len(records) == 0 {
			logrus.Warnf("skipping statistic %s: no records in window", id)
			continue
		}
		switch classifySeries(records) {
		case KindSensor:
			split.SensorStats[id] = records
			split.SensorUnits[id] = units[id]
		case KindCounter:
			split.CounterStats[id] = records
			split.CounterUnits[id] = units[id]
		default:
			logrus.Warnf("dropping statistic %s: records carry no statistics fields", id)
		}
	}
	return split
}
