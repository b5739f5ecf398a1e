package export

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	timefmt "github.com/itchyny/timefmt-go"

	"github.com/statex/statex/pkg/recorder"
)

const (
	// DefaultTimezone is used when no zone is configured.
	DefaultTimezone = "UTC"

	// DefaultPattern is the strftime-style layout for rendered bucket starts.
	DefaultPattern = "%Y-%m-%d %H:%M:%S"

	// DefaultDecimalSeparator is the radix point in rendered numbers.
	DefaultDecimalSeparator = "."
)

// Options carries the formatting knobs shared by the tabular and
// hierarchical assemblers.
type Options struct {
	// Timezone is the IANA zone name datetimes are rendered in.
	Timezone string

	// Pattern is the strftime-style layout for the start column.
	Pattern string

	// DecimalSeparator replaces the radix point in rendered numbers.
	DecimalSeparator string
}

func (o Options) withDefaults() Options {
	if o.Timezone == "" {
		o.Timezone = DefaultTimezone
	}
	if o.Pattern == "" {
		o.Pattern = DefaultPattern
	}
	if o.DecimalSeparator == "" {
		o.DecimalSeparator = DefaultDecimalSeparator
	}
	return o
}

// location resolves the configured timezone. An unknown zone is a
// configuration error the pipeline refuses to continue past.
func (o Options) location() (*time.Location, error) {
	loc, err := time.LoadLocation(o.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", o.Timezone, err)
	}
	return loc, nil
}

// FormatDatetime renders an instant in the target zone using a
// strftime-style pattern.
func FormatDatetime(ts recorder.Timestamp, loc *time.Location, pattern string) string {
	return timefmt.Format(ts.In(loc), pattern)
}

// FormatDecimal renders an optional numeric value for tabular output.
// Absent values render as an empty field and integral values carry no
// fraction digits, so 10.0 becomes "10".
func FormatDecimal(v *float64, separator string) string {
	if v == nil {
		return ""
	}
	s := strconv.FormatFloat(*v, 'f', -1, 64)
	if separator != DefaultDecimalSeparator {
		s = strings.Replace(s, DefaultDecimalSeparator, separator, 1)
	}
	return s
}

// parseDecimal parses a rendered decimal back into a number, undoing the
// separator replacement applied by FormatDecimal.
func parseDecimal(s, separator string) (float64, error) {
	if separator != DefaultDecimalSeparator {
		s = strings.Replace(s, separator, DefaultDecimalSeparator, 1)
	}
	return strconv.ParseFloat(s, 64)
}
