package models

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"
)

// ClockTime is a wall-clock time of day with minute precision, stored as minutes since midnight.
type ClockTime int

const minutesPerDay = 24 * 60

// clockLayouts lists every accepted time format, tried in order.
var clockLayouts = []string{
	"15:04",
	"15:04:05",
	"3:04 PM",
	"3:04PM",
	"3:04:05 PM",
	"3:04:05PM",
}

// NewClockTime builds a ClockTime from hour and minute components.
func NewClockTime(hour, minute int) ClockTime {
	return ClockTime(hour*60 + minute)
}

// ClockOf returns the time of day of t in its own location.
func ClockOf(t time.Time) ClockTime {
	return NewClockTime(t.Hour(), t.Minute())
}

// ParseClock parses a time of day, tolerating 24-hour, 12-hour (AM/PM) and seconds-bearing forms.
// Seconds are truncated.
func ParseClock(raw string) (ClockTime, error) {
	value := strings.ToUpper(strings.Join(strings.Fields(raw), " "))
	if value == "" {
		return 0, fmt.Errorf("empty time value")
	}
	for _, layout := range clockLayouts {
		parsed, err := time.Parse(layout, value)
		if err == nil {
			return ClockOf(parsed), nil
		}
	}
	return 0, fmt.Errorf("unrecognised time %q", raw)
}

// MustParseClock is ParseClock for literals known to be valid; it panics otherwise.
func MustParseClock(raw string) ClockTime {
	c, err := ParseClock(raw)
	if err != nil {
		panic(err)
	}
	return c
}

// Hour returns the hour component.
func (c ClockTime) Hour() int { return int(c) / 60 }

// Minute returns the minute component.
func (c ClockTime) Minute() int { return int(c) % 60 }

// Valid reports whether c falls inside a single day.
func (c ClockTime) Valid() bool { return c >= 0 && c < minutesPerDay }

// String renders HH:MM.
func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour(), c.Minute())
}

// On places the clock time on the calendar day of date.
func (c ClockTime) On(date time.Time) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, c.Hour(), c.Minute(), 0, 0, date.Location())
}

// MarshalText implements encoding.TextMarshaler.
func (c ClockTime) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *ClockTime) UnmarshalText(text []byte) error {
	parsed, err := ParseClock(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Value stores the clock time as HH:MM text.
func (c ClockTime) Value() (driver.Value, error) {
	return c.String(), nil
}

// Scan accepts TIME/TEXT columns and integer minute counts.
func (c *ClockTime) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*c = 0
		return nil
	case int64:
		clock := ClockTime(v)
		if !clock.Valid() {
			return fmt.Errorf("invalid clock minutes %d", v)
		}
		*c = clock
		return nil
	case time.Time:
		*c = ClockOf(v)
		return nil
	case []byte:
		return c.UnmarshalText(v)
	case string:
		return c.UnmarshalText([]byte(v))
	default:
		return fmt.Errorf("unsupported type %T for ClockTime", value)
	}
}
