package export

import (
	"testing"
	"time"
)

func TestAddDeltas(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := []row{
		{StatisticID: "sensor.energy", Sum: "100", start: base},
		{StatisticID: "sensor.energy", Sum: "105.5", start: base.Add(time.Hour)},
		{StatisticID: "sensor.energy", Sum: "107", start: base.Add(2 * time.Hour)},
	}

	addDeltas(rows, ".")

	want := []string{"", "5.5", "1.5"}
	for i, d := range want {
		if rows[i].Delta != d {
			t.Errorf("Row %d delta = %q, want %q", i, rows[i].Delta, d)
		}
	}
}

func TestAddDeltasFirstRowPerSeries(t *testing.T) {
	// Interleaved unsorted input. After sorting, each series starts its
	// own delta chain.
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := []row{
		{StatisticID: "b", Sum: "10", start: base},
		{StatisticID: "a", Sum: "1", start: base},
		{StatisticID: "b", Sum: "12", start: base.Add(time.Hour)},
		{StatisticID: "a", Sum: "3", start: base.Add(time.Hour)},
	}

	addDeltas(rows, ".")

	wantIDs := []string{"a", "a", "b", "b"}
	wantDeltas := []string{"", "2", "", "2"}
	for i := range rows {
		if rows[i].StatisticID != wantIDs[i] {
			t.Errorf("Row %d id = %q, want %q", i, rows[i].StatisticID, wantIDs[i])
		}
		if rows[i].Delta != wantDeltas[i] {
			t.Errorf("Row %d delta = %q, want %q", i, rows[i].Delta, wantDeltas[i])
		}
	}
}

func TestAddDeltasSkipsUnparseableSum(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := []row{
		{StatisticID: "a", Sum: "100", start: base},
		{StatisticID: "a", Sum: "garbage", start: base.Add(time.Hour)},
		{StatisticID: "a", Sum: "103", start: base.Add(2 * time.Hour)},
	}

	addDeltas(rows, ".")

	// The bad row gets no delta and does not advance the previous
	// value, so the next delta spans the gap.
	if rows[1].Delta != "" {
		t.Errorf("Unparseable row delta = %q, want empty", rows[1].Delta)
	}
	if rows[2].Delta != "3" {
		t.Errorf("Row after gap delta = %q, want %q", rows[2].Delta, "3")
	}
}

func TestAddDeltasSkipsMissingSum(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := []row{
		{StatisticID: "a", Sum: "100", start: base},
		{StatisticID: "a", Sum: "", start: base.Add(time.Hour)},
		{StatisticID: "a", Sum: "104", start: base.Add(2 * time.Hour)},
	}

	addDeltas(rows, ".")

	if rows[1].Delta != "" {
		t.Errorf("Sumless row delta = %q, want empty", rows[1].Delta)
	}
	if rows[2].Delta != "4" {
		t.Errorf("Row after gap delta = %q, want %q", rows[2].Delta, "4")
	}
}

func TestAddDeltasCommaSeparator(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := []row{
		{StatisticID: "a", Sum: "10,5", start: base},
		{StatisticID: "a", Sum: "12,25", start: base.Add(time.Hour)},
	}

	addDeltas(rows, ",")

	if rows[1].Delta != "1,75" {
		t.Errorf("Comma delta = %q, want %q", rows[1].Delta, "1,75")
	}
}

func TestSortRowsUsesInstantNotDisplayString(t *testing.T) {
	// Day-first rendering puts "01.02" lexically before "31.01". The
	// sort must still order by real time.
	jan31 := time.Date(2024, 1, 31, 23, 0, 0, 0, time.UTC)
	feb1 := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	rows := []row{
		{StatisticID: "a", Start: "01.02.2024 00:00", start: feb1},
		{StatisticID: "a", Start: "31.01.2024 23:00", start: jan31},
	}

	sortRows(rows)

	if rows[0].Start != "31.01.2024 23:00" {
		t.Errorf("Expected January row first, got %q", rows[0].Start)
	}
}
