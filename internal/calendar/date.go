package calendar

import (
	"fmt"
	"time"
)

// DateLayout is the wire format for calendar days.
const DateLayout = "2006-01-02"

// Date identifies a single local calendar day. The clinic operates on one
// implicit local calendar; no timezone conversion is applied.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// ParseDate parses a YYYY-MM-DD value.
func ParseDate(value string) (Date, error) {
	ts, err := time.Parse(DateLayout, value)
	if err != nil {
		return Date{}, fmt.Errorf("calendar: invalid date %q: %w", value, err)
	}
	return DateOf(ts), nil
}

// DateOf truncates a timestamp to its calendar day.
func DateOf(t time.Time) Date {
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

// IsZero reports whether the date is unset.
func (d Date) IsZero() bool {
	return d == Date{}
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.toTime().Format(DateLayout)
}

// Next returns the following calendar day.
func (d Date) Next() Date {
	return DateOf(d.toTime().AddDate(0, 0, 1))
}

// Prev returns the preceding calendar day.
func (d Date) Prev() Date {
	return DateOf(d.toTime().AddDate(0, 0, -1))
}

// AddDays returns the date shifted by the given number of days.
func (d Date) AddDays(days int) Date {
	return DateOf(d.toTime().AddDate(0, 0, days))
}

// Before reports whether d falls before other.
func (d Date) Before(other Date) bool {
	return d.toTime().Before(other.toTime())
}

// After reports whether d falls after other.
func (d Date) After(other Date) bool {
	return other.Before(d)
}

// DaysUntil returns the signed number of days from d to other.
func (d Date) DaysUntil(other Date) int {
	return int(other.toTime().Sub(d.toTime()) / (24 * time.Hour))
}

func (d Date) toTime() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}
