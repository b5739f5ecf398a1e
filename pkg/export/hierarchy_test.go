package export

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/statex/statex/pkg/recorder"
)

func TestBuildEntitiesOrderAndShape(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	stats := map[string][]recorder.Record{
		"sensor.temp": {
			sensorRecord(base.Add(time.Hour), 20, 23, 21.5),
			sensorRecord(base, 19.5, 22.5, 21),
		},
		"sensor.energy": {
			counterRecord(base, 100, 1100),
		},
	}
	units := recorder.UnitMap{"sensor.temp": "°C", "sensor.energy": "kWh"}

	entities, err := BuildEntities(stats, units, Options{})
	if err != nil {
		t.Fatalf("BuildEntities failed: %v", err)
	}

	if len(entities) != 2 {
		t.Fatalf("Expected 2 entities, got %d", len(entities))
	}
	if entities[0].ID != "sensor.energy" || entities[1].ID != "sensor.temp" {
		t.Errorf("Entities out of id order: %s, %s", entities[0].ID, entities[1].ID)
	}
	if entities[1].Unit != "°C" {
		t.Errorf("Unit = %q, want %q", entities[1].Unit, "°C")
	}

	// Values come out chronologically even when the input is not.
	values := entities[1].Values
	if len(values) != 2 {
		t.Fatalf("Expected 2 values, got %d", len(values))
	}
	if values[0].Datetime != "2024-01-01 00:00:00" || values[1].Datetime != "2024-01-01 01:00:00" {
		t.Errorf("Values out of time order: %q, %q", values[0].Datetime, values[1].Datetime)
	}
	if values[0].Mean == nil || *values[0].Mean != 21 {
		t.Errorf("Unexpected mean %v", values[0].Mean)
	}
	if values[0].Sum != nil || values[0].Delta != nil {
		t.Error("Sensor values should carry no sum or delta")
	}
}

func TestBuildEntitiesCounterDeltas(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	stats := map[string][]recorder.Record{
		"sensor.energy": {
			counterRecord(base, 100, 1100),
			counterRecord(base.Add(time.Hour), 102.5, 1102.5),
			{Start: recorder.NewTimestamp(base.Add(2 * time.Hour)), State: floatPtr(1105)},
			counterRecord(base.Add(3*time.Hour), 110, 1110),
		},
	}

	entities, err := BuildEntities(stats, nil, Options{})
	if err != nil {
		t.Fatalf("BuildEntities failed: %v", err)
	}

	values := entities[0].Values
	if len(values) != 4 {
		t.Fatalf("Expected 4 values, got %d", len(values))
	}
	if values[0].Delta != nil {
		t.Errorf("First value delta = %v, want none", *values[0].Delta)
	}
	if values[1].Delta == nil || *values[1].Delta != 2.5 {
		t.Errorf("Second value delta = %v, want 2.5", values[1].Delta)
	}
	// The sumless bucket gets no delta and does not advance the chain.
	if values[2].Delta != nil {
		t.Errorf("Sumless value delta = %v, want none", *values[2].Delta)
	}
	if values[3].Delta == nil || *values[3].Delta != 7.5 {
		t.Errorf("Value after gap delta = %v, want 7.5", values[3].Delta)
	}
}

func TestBuildEntitiesMeasurementSeriesWithSums(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	second := sensorRecord(base.Add(time.Hour), 20, 23, 21.5)
	second.Sum = floatPtr(100)
	third := sensorRecord(base.Add(2*time.Hour), 20.5, 23.5, 22)
	third.Sum = floatPtr(102.5)
	stats := map[string][]recorder.Record{
		"sensor.hybrid": {sensorRecord(base, 19.5, 22.5, 21), second, third},
	}

	entities, err := BuildEntities(stats, nil, Options{})
	if err != nil {
		t.Fatalf("BuildEntities failed: %v", err)
	}

	values := entities[0].Values
	if len(values) != 3 {
		t.Fatalf("Expected 3 values, got %d", len(values))
	}
	// Deltas follow sum presence, not the measurement-first classification.
	if values[1].Delta != nil {
		t.Errorf("First summed value delta = %v, want none", *values[1].Delta)
	}
	if values[2].Delta == nil || *values[2].Delta != 2.5 {
		t.Errorf("Delta = %v, want 2.5", values[2].Delta)
	}
	if values[2].Mean == nil {
		t.Error("Mean should survive alongside the delta")
	}
}

func TestBuildEntitiesSkipsEmptyAndUnknown(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	stats := map[string][]recorder.Record{
		"sensor.temp":    {sensorRecord(base, 19, 22, 21)},
		"sensor.empty":   {},
		"sensor.unknown": {bareRecord(base)},
	}

	entities, err := BuildEntities(stats, nil, Options{})
	if err != nil {
		t.Fatalf("BuildEntities failed: %v", err)
	}

	if len(entities) != 1 || entities[0].ID != "sensor.temp" {
		t.Errorf("Unexpected entities %v", entities)
	}
}

func TestBuildEntitiesInvalidTimezone(t *testing.T) {
	stats := map[string][]recorder.Record{
		"sensor.temp": {sensorRecord(time.Now(), 19, 22, 21)},
	}

	if _, err := BuildEntities(stats, nil, Options{Timezone: "Not/AZone"}); err == nil {
		t.Error("Expected error for unknown timezone")
	}
}

func TestEntityJSONOmitsAbsentFields(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	stats := map[string][]recorder.Record{
		"sensor.energy": {
			counterRecord(base, 100, 1100),
			counterRecord(base.Add(time.Hour), 102.5, 1102.5),
		},
	}

	entities, err := BuildEntities(stats, recorder.UnitMap{"sensor.energy": "kWh"}, Options{})
	if err != nil {
		t.Fatalf("BuildEntities failed: %v", err)
	}

	data, err := json.Marshal(entities)
	if err != nil {
		t.Fatalf("Failed to marshal entities: %v", err)
	}
	out := string(data)

	if !strings.Contains(out, `"id":"sensor.energy"`) || !strings.Contains(out, `"datetime"`) {
		t.Errorf("Expected id and datetime keys in output: %s", out)
	}
	if strings.Contains(out, `"mean"`) || strings.Contains(out, `"min"`) {
		t.Errorf("Counter entity leaked measurement fields: %s", out)
	}
	if strings.Contains(out, "null") {
		t.Errorf("Absent fields rendered as null: %s", out)
	}
	if !strings.Contains(out, `"delta":2.5`) {
		t.Errorf("Expected numeric delta in output: %s", out)
	}
}
