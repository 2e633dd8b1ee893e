package importer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/noah-isme/bps-routine/internal/models"
	"github.com/noah-isme/bps-routine/internal/routine"
)

// Source locates an imported entry in the uploaded file.
type Source struct {
	Sheet string
	Line  int
}

func (s Source) String() string {
	if s.Sheet == "" {
		return fmt.Sprintf("line %d", s.Line)
	}
	return fmt.Sprintf("sheet %q line %d", s.Sheet, s.Line)
}

// Timetable is the parsed content of a timetable upload. Sources[i] locates Entries[i].
type Timetable struct {
	Entries []models.ScheduleEntry
	Sources []Source
}

// Locate rewrites a load error's entry ordinal into the upload's sheet line.
func (t *Timetable) Locate(err *routine.MalformedScheduleError) {
	if err == nil || err.Row < 1 || err.Row > len(t.Sources) {
		return
	}
	src := t.Sources[err.Row-1]
	if src.Sheet != "" {
		err.Reason = fmt.Sprintf("sheet %q: %s", src.Sheet, err.Reason)
	}
	err.Row = src.Line
}

type timetableColumns struct {
	teacher, day, start, end, span, class, section, subject, size int
}

func timetableHeader(row []string) timetableColumns {
	h := newHeader(row)
	return timetableColumns{
		teacher: h.find("teacher", "teacher code", "initials", "code"),
		day:     h.find("day", "day of week", "weekday"),
		start:   h.find("start", "start time", "from", "begins"),
		end:     h.find("end", "end time", "to", "ends"),
		span:    h.find("time", "period", "slot", "timing"),
		class:   h.find("class", "grade"),
		section: h.find("section", "sec"),
		subject: h.find("subject"),
		size:    h.find("class size", "size", "strength", "students"),
	}
}

// ParseTimetable reads entries from every sheet. A sheet without a day column takes its day
// from the sheet name (a workbook with one tab per weekday). Teacher cells may hold a code or a
// display name and are resolved through the roster when one is given.
func ParseTimetable(sheets []Sheet, roster *models.Roster) (*Timetable, error) {
	out := &Timetable{}
	for _, sheet := range sheets {
		if err := parseTimetableSheet(sheet, roster, out); err != nil {
			return nil, err
		}
	}
	if len(out.Entries) == 0 {
		return nil, &routine.MalformedScheduleError{Field: "file", Reason: "no timetable rows found"}
	}
	return out, nil
}

func parseTimetableSheet(sheet Sheet, roster *models.Roster, out *Timetable) error {
	headerAt := -1
	for i, row := range sheet.Rows {
		if !blankRow(row) {
			headerAt = i
			break
		}
	}
	if headerAt < 0 {
		return nil
	}
	cols := timetableHeader(sheet.Rows[headerAt])
	malformed := func(line int, field, reason string) error {
		if sheet.Name != "" {
			reason = fmt.Sprintf("sheet %q: %s", sheet.Name, reason)
		}
		return &routine.MalformedScheduleError{Row: line, Field: field, Reason: reason}
	}

	var sheetDay *models.Weekday
	if cols.day < 0 {
		day, err := models.ParseWeekday(sheet.Name)
		if err != nil {
			return malformed(headerAt+1, "day", "missing day column and sheet name is not a weekday")
		}
		sheetDay = &day
	}
	switch {
	case cols.teacher < 0:
		return malformed(headerAt+1, "teacher", "missing teacher column")
	case cols.class < 0:
		return malformed(headerAt+1, "class", "missing class column")
	case cols.span < 0 && (cols.start < 0 || cols.end < 0):
		return malformed(headerAt+1, "start_time", "missing start/end or time column")
	}

	for i := headerAt + 1; i < len(sheet.Rows); i++ {
		row := sheet.Rows[i]
		line := i + 1
		if blankRow(row) {
			continue
		}

		entry := models.ScheduleEntry{
			Class:   cellValue(row, cols.class),
			Section: cellValue(row, cols.section),
			Subject: cellValue(row, cols.subject),
		}

		teacher := cellValue(row, cols.teacher)
		if teacher == "" {
			return malformed(line, "teacher", "teacher is required")
		}
		entry.TeacherCode = teacher
		if roster != nil {
			ref, ok := roster.Resolve(teacher)
			if !ok {
				return &routine.UnknownTeacherError{Code: teacher, Source: "timetable " + Source{Sheet: sheet.Name, Line: line}.String()}
			}
			entry.TeacherCode = ref.Code
		}

		if sheetDay != nil {
			entry.Day = *sheetDay
		} else {
			day, err := models.ParseWeekday(cellValue(row, cols.day))
			if err != nil {
				return malformed(line, "day", err.Error())
			}
			entry.Day = day
		}

		start, end, field, err := parseSpan(row, cols)
		if err != nil {
			return malformed(line, field, err.Error())
		}
		entry.Start, entry.End = start, end

		if entry.Class == "" {
			return malformed(line, "class", "class is required")
		}
		if raw := cellValue(row, cols.size); raw != "" {
			size, err := strconv.Atoi(raw)
			if err != nil || size < 0 {
				return malformed(line, "class_size", fmt.Sprintf("invalid class size %q", raw))
			}
			entry.ClassSize = size
		}

		out.Entries = append(out.Entries, entry)
		out.Sources = append(out.Sources, Source{Sheet: sheet.Name, Line: line})
	}
	return nil
}

func parseSpan(row []string, cols timetableColumns) (models.ClockTime, models.ClockTime, string, error) {
	startRaw, endRaw := cellValue(row, cols.start), cellValue(row, cols.end)
	if (startRaw == "" || endRaw == "") && cols.span >= 0 {
		var ok bool
		startRaw, endRaw, ok = splitSpan(cellValue(row, cols.span))
		if !ok {
			return 0, 0, "start_time", fmt.Errorf("time %q is not a range like 11:15-12:00", cellValue(row, cols.span))
		}
	}
	start, err := parseCellClock(startRaw)
	if err != nil {
		return 0, 0, "start_time", err
	}
	end, err := parseCellClock(endRaw)
	if err != nil {
		return 0, 0, "end_time", err
	}
	return start, end, "", nil
}

func splitSpan(raw string) (string, string, bool) {
	value := strings.NewReplacer("–", "-", "—", "-", " to ", "-", " TO ", "-").Replace(raw)
	parts := strings.SplitN(value, "-", 2)
	if len(parts) != 2 {
		return "", "", false
	}
	start, end := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
	return start, end, start != "" && end != ""
}
