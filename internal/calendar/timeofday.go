package calendar

import (
	"fmt"
	"strconv"
	"strings"
)

// TimeOfDay is an appointment time field value. The zero value means the user
// has not filled the field in yet; set values order the same way clock times
// do. Concrete times are built with MinuteOfDay or ParseTimeOfDay.
type TimeOfDay int

// TimeUnset is the zero state for appointment time fields.
const TimeUnset TimeOfDay = 0

const minutesPerDay = 24 * 60

// MinuteOfDay returns the value for a minute offset from midnight. Offsets
// outside [0, 1440) yield TimeUnset.
func MinuteOfDay(minutes int) TimeOfDay {
	if minutes < 0 || minutes >= minutesPerDay {
		return TimeUnset
	}
	return TimeOfDay(minutes + 1)
}

// ParseTimeOfDay parses an HH:MM value as produced by time inputs. An empty
// string yields TimeUnset without error.
func ParseTimeOfDay(value string) (TimeOfDay, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return TimeUnset, nil
	}
	parts := strings.Split(value, ":")
	if len(parts) != 2 {
		return TimeUnset, fmt.Errorf("calendar: invalid time %q", value)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return TimeUnset, fmt.Errorf("calendar: invalid time %q", value)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return TimeUnset, fmt.Errorf("calendar: invalid time %q", value)
	}
	return MinuteOfDay(hour*60 + minute), nil
}

// IsSet reports whether the value holds a concrete time.
func (t TimeOfDay) IsSet() bool {
	return t >= 1 && t <= minutesPerDay
}

// Minutes returns the minute offset from midnight, or -1 when unset.
func (t TimeOfDay) Minutes() int {
	if !t.IsSet() {
		return -1
	}
	return int(t) - 1
}

// String formats the value as HH:MM; unset values render empty.
func (t TimeOfDay) String() string {
	if !t.IsSet() {
		return ""
	}
	minutes := int(t) - 1
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
