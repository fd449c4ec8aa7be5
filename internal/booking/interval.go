package booking

import (
	"fmt"
	"time"
)

// TimeOfDay is a clock time with minute resolution, stored as minutes since
// midnight. The valid range is 00:00 through 23:59.
type TimeOfDay int

// ParseTimeOfDay parses a clock time in "15:04" form.
func ParseTimeOfDay(value string) (TimeOfDay, error) {
	parsed, err := time.Parse("15:04", value)
	if err != nil {
		return 0, fmt.Errorf("booking: invalid time of day %q", value)
	}
	return TimeOfDay(parsed.Hour()*60 + parsed.Minute()), nil
}

// Valid reports whether the value falls within a single day.
func (t TimeOfDay) Valid() bool {
	return t >= 0 && t < 24*60
}

// Hour returns the hour component in the range 0-23.
func (t TimeOfDay) Hour() int {
	return int(t) / 60
}

// Minute returns the minute component in the range 0-59.
func (t TimeOfDay) Minute() int {
	return int(t) % 60
}

// String renders the time in "15:04" form.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

// Date identifies a calendar day. It deliberately carries no timezone; the
// booking domain treats a date as an opaque calendar key.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// ParseDate parses a calendar date in "2006-01-02" form.
func ParseDate(value string) (Date, error) {
	parsed, err := time.Parse("2006-01-02", value)
	if err != nil {
		return Date{}, fmt.Errorf("booking: invalid date %q", value)
	}
	return Date{Year: parsed.Year(), Month: parsed.Month(), Day: parsed.Day()}, nil
}

// IsZero reports whether the date was left unset.
func (d Date) IsZero() bool {
	return d == Date{}
}

// String renders the date in "2006-01-02" form.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// Interval is a half-open time range [Start, End) within a single day. The
// end instant is excluded, so an interval ending at 10:00 does not overlap
// one starting at 10:00.
type Interval struct {
	Start TimeOfDay
	End   TimeOfDay
}

// NewInterval constructs an interval, rejecting inverted or zero-length
// ranges before they can reach a store.
func NewInterval(start, end TimeOfDay) (Interval, error) {
	iv := Interval{Start: start, End: end}
	if err := iv.Validate(); err != nil {
		return Interval{}, err
	}
	return iv, nil
}

// Validate checks the interval invariants: both endpoints within the day and
// Start strictly before End.
func (iv Interval) Validate() error {
	if !iv.Start.Valid() {
		return fmt.Errorf("booking: start %q outside the day", iv.Start)
	}
	if !iv.End.Valid() && iv.End != 24*60 {
		return fmt.Errorf("booking: end %q outside the day", iv.End)
	}
	if iv.Start >= iv.End {
		return fmt.Errorf("booking: start %s must be before end %s", iv.Start, iv.End)
	}
	return nil
}

// Overlaps reports whether two intervals on the same date share any instant
// under half-open semantics.
func (iv Interval) Overlaps(other Interval) bool {
	return iv.Start < other.End && other.Start < iv.End
}

// Contains reports whether the instant t falls inside the interval.
func (iv Interval) Contains(t TimeOfDay) bool {
	return t >= iv.Start && t < iv.End
}

// Minutes returns the interval length in minutes.
func (iv Interval) Minutes() int {
	return int(iv.End - iv.Start)
}

// String renders the interval as "09:00-10:00".
func (iv Interval) String() string {
	return iv.Start.String() + "-" + iv.End.String()
}
