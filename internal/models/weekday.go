package models

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"
)

// Weekday is a day of the week rendered with its English name.
type Weekday time.Weekday

// Weekday values mirroring time.Weekday.
const (
	Sunday    = Weekday(time.Sunday)
	Monday    = Weekday(time.Monday)
	Tuesday   = Weekday(time.Tuesday)
	Wednesday = Weekday(time.Wednesday)
	Thursday  = Weekday(time.Thursday)
	Friday    = Weekday(time.Friday)
	Saturday  = Weekday(time.Saturday)
)

// WeekdayOf returns the weekday of a calendar date.
func WeekdayOf(date time.Time) Weekday {
	return Weekday(date.Weekday())
}

// ParseWeekday accepts full or three-letter English day names in any case.
func ParseWeekday(raw string) (Weekday, error) {
	value := strings.ToLower(strings.TrimSpace(raw))
	if value == "" {
		return 0, fmt.Errorf("empty day value")
	}
	for d := time.Sunday; d <= time.Saturday; d++ {
		name := strings.ToLower(d.String())
		if value == name || value == name[:3] {
			return Weekday(d), nil
		}
	}
	return 0, fmt.Errorf("unrecognised day %q", raw)
}

// Valid reports whether the weekday is in range.
func (d Weekday) Valid() bool {
	return d >= Sunday && d <= Saturday
}

func (d Weekday) String() string {
	if !d.Valid() {
		return fmt.Sprintf("Weekday(%d)", int(d))
	}
	return time.Weekday(d).String()
}

// MarshalText implements encoding.TextMarshaler.
func (d Weekday) MarshalText() ([]byte, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("invalid weekday %d", int(d))
	}
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Weekday) UnmarshalText(text []byte) error {
	parsed, err := ParseWeekday(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Value stores the day name.
func (d Weekday) Value() (driver.Value, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("invalid weekday %d", int(d))
	}
	return d.String(), nil
}

// Scan reads a day name column.
func (d *Weekday) Scan(value interface{}) error {
	switch v := value.(type) {
	case []byte:
		return d.UnmarshalText(v)
	case string:
		return d.UnmarshalText([]byte(v))
	case int64:
		*d = Weekday(v)
		if !d.Valid() {
			return fmt.Errorf("invalid weekday %d", v)
		}
		return nil
	default:
		return fmt.Errorf("unsupported type %T for Weekday", value)
	}
}

// leaveDateLayouts lists accepted absence date formats; the first is canonical.
var leaveDateLayouts = []string{"02-01-2006", "2006-01-02", "02/01/2006"}

// ParseLeaveDate parses DD-MM-YYYY dates (with ISO and slash fallbacks) to UTC midnight.
func ParseLeaveDate(raw string) (time.Time, error) {
	value := strings.TrimSpace(raw)
	for _, layout := range leaveDateLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", raw)
}

// FormatLeaveDate renders a date as DD-MM-YYYY.
func FormatLeaveDate(date time.Time) string {
	return date.Format(leaveDateLayouts[0])
}

// CalendarDay truncates t to midnight UTC of its own calendar day.
func CalendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
