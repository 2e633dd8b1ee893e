// Package routine resolves who teaches what, and when, from a weekly timetable and the day's
// absences. Everything here is pure computation over already-loaded data.
package routine

import (
	"fmt"
	"sort"
	"strings"

	"github.com/noah-isme/bps-routine/internal/models"
)

// CodeSet is a set of teacher codes.
type CodeSet map[string]struct{}

// Has reports membership.
func (s CodeSet) Has(code string) bool {
	_, ok := s[code]
	return ok
}

// Sorted returns the codes in ascending order.
func (s CodeSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for code := range s {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}

type teacherDay struct {
	code string
	day  models.Weekday
}

type daySlot struct {
	day   models.Weekday
	start models.ClockTime
}

type classDay struct {
	class   string
	section string
	day     models.Weekday
}

// Index is the immutable weekly timetable with lookups by teacher/day and day/start.
type Index struct {
	entries    []models.ScheduleEntry
	byTeacher  map[teacherDay][]models.ScheduleEntry
	byDaySlot  map[daySlot][]models.ScheduleEntry
	byClassDay map[classDay][]models.ScheduleEntry
}

// Load validates entries and builds the index. A nil roster skips teacher code checks.
// Teacher codes are canonicalised to the roster's spelling.
func Load(roster *models.Roster, entries []models.ScheduleEntry) (*Index, error) {
	idx := &Index{
		entries:    make([]models.ScheduleEntry, 0, len(entries)),
		byTeacher:  make(map[teacherDay][]models.ScheduleEntry),
		byDaySlot:  make(map[daySlot][]models.ScheduleEntry),
		byClassDay: make(map[classDay][]models.ScheduleEntry),
	}
	seen := make(map[teacherDay]map[models.ClockTime]int)

	for i, entry := range entries {
		row := i + 1
		entry.TeacherCode = strings.TrimSpace(entry.TeacherCode)
		if entry.TeacherCode == "" {
			return nil, &MalformedScheduleError{Row: row, Field: "teacher", Reason: "teacher code is blank"}
		}
		if !entry.Day.Valid() {
			return nil, &MalformedScheduleError{Row: row, Field: "day", Reason: "day is missing or invalid"}
		}
		if !entry.Start.Valid() || !entry.End.Valid() {
			return nil, &MalformedScheduleError{Row: row, Field: "time", Reason: "time is outside a single day"}
		}
		if entry.Start >= entry.End {
			return nil, &MalformedScheduleError{Row: row, Field: "time", Reason: fmt.Sprintf("start time %s is not before end time %s", entry.Start, entry.End)}
		}
		if roster != nil {
			ref, ok := roster.Lookup(entry.TeacherCode)
			if !ok {
				return nil, &UnknownTeacherError{Code: entry.TeacherCode, Source: "timetable"}
			}
			entry.TeacherCode = ref.Code
		}

		key := teacherDay{code: entry.TeacherCode, day: entry.Day}
		starts, ok := seen[key]
		if !ok {
			starts = make(map[models.ClockTime]int)
			seen[key] = starts
		}
		if first, dup := starts[entry.Start]; dup {
			return nil, &MalformedScheduleError{
				Row:    row,
				Field:  "start_time",
				Reason: fmt.Sprintf("duplicate entry for %s on %s at %s (first seen on row %d)", entry.TeacherCode, entry.Day, entry.Start, first),
			}
		}
		starts[entry.Start] = row

		idx.entries = append(idx.entries, entry)
		idx.byTeacher[key] = append(idx.byTeacher[key], entry)
		slotKey := daySlot{day: entry.Day, start: entry.Start}
		idx.byDaySlot[slotKey] = append(idx.byDaySlot[slotKey], entry)
		ck := classDay{class: normalizeLabel(entry.Class), section: normalizeLabel(entry.Section), day: entry.Day}
		idx.byClassDay[ck] = append(idx.byClassDay[ck], entry)
	}

	for key := range idx.byTeacher {
		sortByStart(idx.byTeacher[key])
	}
	for key := range idx.byClassDay {
		sortByStart(idx.byClassDay[key])
	}
	return idx, nil
}

// Len returns the number of entries.
func (x *Index) Len() int {
	if x == nil {
		return 0
	}
	return len(x.entries)
}

// Entries returns every entry in load order.
func (x *Index) Entries() []models.ScheduleEntry {
	if x == nil {
		return nil
	}
	out := make([]models.ScheduleEntry, len(x.entries))
	copy(out, x.entries)
	return out
}

// EntriesOn returns every entry for a day, ordered by start time then teacher code.
func (x *Index) EntriesOn(day models.Weekday) []models.ScheduleEntry {
	if x == nil {
		return nil
	}
	var out []models.ScheduleEntry
	for _, entry := range x.entries {
		if entry.Day == day {
			out = append(out, entry)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Start != out[j].Start {
			return out[i].Start < out[j].Start
		}
		return out[i].TeacherCode < out[j].TeacherCode
	})
	return out
}

// ScheduledFor returns a teacher's entries for a day sorted by start time; empty when none.
func (x *Index) ScheduledFor(code string, day models.Weekday) []models.ScheduleEntry {
	if x == nil {
		return []models.ScheduleEntry{}
	}
	list := x.byTeacher[teacherDay{code: code, day: day}]
	out := make([]models.ScheduleEntry, len(list))
	copy(out, list)
	return out
}

// WhoIsBusyAt returns teachers with an entry starting exactly at start. Overlapping entries
// that began earlier are deliberately not counted.
func (x *Index) WhoIsBusyAt(day models.Weekday, start models.ClockTime) CodeSet {
	set := CodeSet{}
	if x == nil {
		return set
	}
	for _, entry := range x.byDaySlot[daySlot{day: day, start: start}] {
		set[entry.TeacherCode] = struct{}{}
	}
	return set
}

// EntryAt returns the teacher's entry starting exactly at start.
func (x *Index) EntryAt(code string, day models.Weekday, start models.ClockTime) (models.ScheduleEntry, bool) {
	if x == nil {
		return models.ScheduleEntry{}, false
	}
	for _, entry := range x.byTeacher[teacherDay{code: code, day: day}] {
		if entry.Start == start {
			return entry, true
		}
	}
	return models.ScheduleEntry{}, false
}

// EntryCovering returns the teacher's entry whose [start, end) contains t.
func (x *Index) EntryCovering(code string, day models.Weekday, t models.ClockTime) (models.ScheduleEntry, bool) {
	if x == nil {
		return models.ScheduleEntry{}, false
	}
	for _, entry := range x.byTeacher[teacherDay{code: code, day: day}] {
		if entry.Contains(t) {
			return entry, true
		}
	}
	return models.ScheduleEntry{}, false
}

// ScheduledForClass returns the entries of a class/section on a day sorted by start time.
func (x *Index) ScheduledForClass(class, section string, day models.Weekday) []models.ScheduleEntry {
	if x == nil {
		return []models.ScheduleEntry{}
	}
	list := x.byClassDay[classDay{class: normalizeLabel(class), section: normalizeLabel(section), day: day}]
	out := make([]models.ScheduleEntry, len(list))
	copy(out, list)
	return out
}

// ClassAt returns the nominal entries of a class/section whose slot contains t.
func (x *Index) ClassAt(class, section string, day models.Weekday, t models.ClockTime) []models.ScheduleEntry {
	var out []models.ScheduleEntry
	for _, entry := range x.ScheduledForClass(class, section, day) {
		if entry.Contains(t) {
			out = append(out, entry)
		}
	}
	return out
}

func sortByStart(list []models.ScheduleEntry) {
	sort.SliceStable(list, func(i, j int) bool { return list[i].Start < list[j].Start })
}

func normalizeLabel(raw string) string {
	return strings.ToUpper(strings.Join(strings.Fields(raw), " "))
}
