package models

import (
	"fmt"
	"time"
)

// TimeSlot is a (day, start, end) period; Start is strictly before End.
type TimeSlot struct {
	Day   Weekday   `db:"day_of_week" json:"day"`
	Start ClockTime `db:"start_time" json:"start_time"`
	End   ClockTime `db:"end_time" json:"end_time"`
}

// Contains reports whether t falls inside the half-open interval [Start, End).
func (s TimeSlot) Contains(t ClockTime) bool {
	return t >= s.Start && t < s.End
}

func (s TimeSlot) String() string {
	return fmt.Sprintf("%s %s-%s", s.Day, s.Start, s.End)
}

// ScheduleEntry is one timetable row: a teacher's class for a slot.
type ScheduleEntry struct {
	TeacherCode string `db:"teacher_code" json:"teacher_code"`
	TimeSlot
	Class   string `db:"class_label" json:"class"`
	Section string `db:"section_label" json:"section"`
	Subject string `db:"subject" json:"subject"`
	// ClassSize is the nominal head count of the class; zero means unknown.
	ClassSize int `db:"class_size" json:"class_size,omitempty"`
}

// ClassKey renders the class/section pair, e.g. "CLASS III-A".
func (e ScheduleEntry) ClassKey() string {
	if e.Section == "" {
		return e.Class
	}
	return e.Class + "-" + e.Section
}

// TimetableFilter narrows timetable listings.
type TimetableFilter struct {
	TeacherCode string
	Day         *Weekday
}

// TimetableImport records one accepted timetable upload. The latest import is the live timetable.
type TimetableImport struct {
	ID         string    `db:"id" json:"id"`
	Filename   string    `db:"filename" json:"filename"`
	EntryCount int       `db:"entry_count" json:"entry_count"`
	ImportedAt time.Time `db:"imported_at" json:"imported_at"`
}
