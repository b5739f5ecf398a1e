// Package sample generates synthetic recorder snapshots for demos and
// documentation. Sensor series are hourly mean/min/max buckets aggregated
// from simulated 5-minute readings; counter series are monotonic sums with
// a meter state.
package sample

import (
	"math"
	"math/rand"
	"time"

	"github.com/statex/statex/pkg/recorder"
)

// Config controls snapshot generation.
type Config struct {
	// Days of hourly buckets to generate
	Days int

	// Seed for the random source. Output is deterministic for a fixed
	// Seed and End.
	Seed int64

	// End is the exclusive end of the last bucket. Zero means the current
	// hour boundary.
	End time.Time
}

// Generate builds a synthetic statistics snapshot: two measurement series
// and two accumulating meters, with units that exercise non-ASCII output.
func Generate(cfg Config) *recorder.Snapshot {
	if cfg.Days <= 0 {
		cfg.Days = 7
	}
	end := cfg.End
	if end.IsZero() {
		end = time.Now().UTC().Truncate(time.Hour)
	}
	start := end.Add(-time.Duration(cfg.Days) * 24 * time.Hour)
	rng := rand.New(rand.NewSource(cfg.Seed))

	return &recorder.Snapshot{
		Metadata: map[string]recorder.Metadata{
			"sensor.living_room_temperature": {
				StatisticID: "sensor.living_room_temperature",
				Name:        "Living Room Temperature",
				Unit:        "°C",
				HasMean:     true,
			},
			"sensor.outdoor_humidity": {
				StatisticID: "sensor.outdoor_humidity",
				Name:        "Outdoor Humidity",
				Unit:        "%",
				HasMean:     true,
			},
			"sensor.home_energy_total": {
				StatisticID: "sensor.home_energy_total",
				Name:        "Home Energy Total",
				Unit:        "kWh",
				HasSum:      true,
			},
			"sensor.gas_meter": {
				StatisticID: "sensor.gas_meter",
				Name:        "Gas Meter",
				Unit:        "m³",
				HasSum:      true,
			},
		},
		Statistics: map[string][]recorder.Record{
			"sensor.living_room_temperature": sensorSeries(rng, start, end, 21, 3, 0.3),
			"sensor.outdoor_humidity":        sensorSeries(rng, start, end, 55, 15, 2),
			"sensor.home_energy_total":       counterSeries(rng, start, end, 1000, 0.2, 1.5, 0.02),
			"sensor.gas_meter":               counterSeries(rng, start, end, 5000, 0.05, 0.6, 0.04),
		},
	}
}

// sensorSeries aggregates simulated 5-minute readings into hourly
// mean/min/max buckets.
func sensorSeries(rng *rand.Rand, start, end time.Time, base, amplitude, noise float64) []recorder.Record {
	var records []recorder.Record
	for bucket := start; bucket.Before(end); bucket = bucket.Add(time.Hour) {
		var sum, min, max float64
		for i := 0; i < 12; i++ {
			at := bucket.Add(time.Duration(i) * 5 * time.Minute)
			v := dailyCycle(at, base, amplitude) + rng.NormFloat64()*noise
			if i == 0 || v < min {
				min = v
			}
			if i == 0 || v > max {
				max = v
			}
			sum += v
		}

		mean := round2(sum / 12)
		lo := round2(min)
		hi := round2(max)
		records = append(records, recorder.Record{
			Start: recorder.NewTimestamp(bucket),
			Mean:  &mean,
			Min:   &lo,
			Max:   &hi,
		})
	}
	return records
}

// counterSeries produces a monotonic sum with the meter state offset by the
// initial reading. A small fraction of buckets is dropped entirely, like a
// meter that was briefly offline.
func counterSeries(rng *rand.Rand, start, end time.Time, initial, minUse, maxUse, gapChance float64) []recorder.Record {
	var records []recorder.Record
	total := 0.0
	for bucket := start; bucket.Before(end); bucket = bucket.Add(time.Hour) {
		if rng.Float64() < gapChance {
			continue
		}

		total = round3(total + minUse + rng.Float64()*(maxUse-minUse))
		sum := total
		state := round3(initial + total)
		records = append(records, recorder.Record{
			Start: recorder.NewTimestamp(bucket),
			Sum:   &sum,
			State: &state,
		})
	}
	return records
}

// dailyCycle is a sine wave over the day around base.
func dailyCycle(at time.Time, base, amplitude float64) float64 {
	seconds := float64(at.Hour()*3600 + at.Minute()*60 + at.Second())
	return base + amplitude*math.Sin(2*math.Pi*seconds/86400)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
