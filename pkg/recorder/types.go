package recorder

import (
	"encoding/json"
	"fmt"
	"time"
)

// Timestamp is an instant in a statistics record. It decodes from either a
// Unix epoch number (fractional seconds allowed) or an RFC 3339 string and
// always encodes as RFC 3339 UTC.
type Timestamp struct {
	time.Time
}

// NewTimestamp wraps a time.Time.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t}
}

// UnmarshalJSON accepts both timestamp wire forms.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if len(data) == 0 || string(data) == "null" {
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("invalid timestamp %s: %w", data, err)
		}
		parsed, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return fmt.Errorf("invalid timestamp %q: %w", s, err)
		}
		t.Time = parsed
		return nil
	}

	var epoch float64
	if err := json.Unmarshal(data, &epoch); err != nil {
		return fmt.Errorf("invalid timestamp %s: %w", data, err)
	}
	sec := int64(epoch)
	nsec := int64((epoch - float64(sec)) * float64(time.Second))
	t.Time = time.Unix(sec, nsec).UTC()
	return nil
}

// MarshalJSON encodes the instant as RFC 3339 UTC.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.UTC().Format(time.RFC3339Nano))
}

// Record is one statistics bucket for a single statistic ID.
type Record struct {
	// Start is the bucket start and the only required field.
	Start Timestamp  `json:"start"`
	End   *Timestamp `json:"end,omitempty"`

	// Measurement aggregates
	Mean *float64 `json:"mean,omitempty"`
	Min  *float64 `json:"min,omitempty"`
	Max  *float64 `json:"max,omitempty"`

	// Accumulation aggregates
	Sum   *float64 `json:"sum,omitempty"`
	State *float64 `json:"state,omitempty"`
}

// Metadata describes one statistic series.
type Metadata struct {
	StatisticID string `json:"statistic_id"`
	Name        string `json:"name,omitempty"`
	Unit        string `json:"unit_of_measurement"`
	HasMean     bool   `json:"has_mean"`
	HasSum      bool   `json:"has_sum"`
}

// UnitMap maps statistic IDs to display units. IDs without metadata render
// with an empty unit.
type UnitMap map[string]string

// UnitsFor builds a UnitMap for the given IDs from recorder metadata.
func UnitsFor(ids []string, meta map[string]Metadata) UnitMap {
	units := make(UnitMap, len(ids))
	for _, id := range ids {
		units[id] = meta[id].Unit
	}
	return units
}
