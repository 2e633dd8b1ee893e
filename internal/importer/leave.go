package importer

import (
	"fmt"
	"time"

	"github.com/noah-isme/bps-routine/internal/models"
	"github.com/noah-isme/bps-routine/internal/routine"
)

// LeaveRow is one absence read from a leave log upload.
type LeaveRow struct {
	Source      Source
	Date        time.Time
	Teacher     models.TeacherRef
	LeaveType   models.LeaveType
	Assignments models.Assignments
}

// LeaveRowError reports a leave log line that could not be read.
type LeaveRowError struct {
	Source Source
	Field  string
	Err    error
}

func (e *LeaveRowError) Error() string {
	return fmt.Sprintf("leave log %s (%s): %v", e.Source, e.Field, e.Err)
}

func (e *LeaveRowError) Unwrap() error { return e.Err }

// ParseLeaveLog reads "Date, Teacher, Type, Substitutions" rows. Substitutions use the
// "HH:MM: Name | HH:MM: Name" log form and may be blank.
func ParseLeaveLog(sheets []Sheet, roster *models.Roster) ([]LeaveRow, error) {
	var out []LeaveRow
	for _, sheet := range sheets {
		rows, err := parseLeaveSheet(sheet, roster)
		if err != nil {
			return nil, err
		}
		out = append(out, rows...)
	}
	return out, nil
}

func parseLeaveSheet(sheet Sheet, roster *models.Roster) ([]LeaveRow, error) {
	headerAt := -1
	for i, row := range sheet.Rows {
		if !blankRow(row) {
			headerAt = i
			break
		}
	}
	if headerAt < 0 {
		return nil, nil
	}
	h := newHeader(sheet.Rows[headerAt])
	dateCol := h.find("date", "leave date")
	teacherCol := h.find("teacher", "teacher name", "name", "code")
	typeCol := h.find("type", "leave type")
	subsCol := h.find("substitutions", "substitution", "assignments", "subs")

	headerSrc := Source{Sheet: sheet.Name, Line: headerAt + 1}
	required := []struct {
		field string
		idx   int
	}{{"date", dateCol}, {"teacher", teacherCol}, {"type", typeCol}}
	for _, col := range required {
		if col.idx < 0 {
			return nil, &LeaveRowError{Source: headerSrc, Field: col.field, Err: fmt.Errorf("missing %s column", col.field)}
		}
	}

	var out []LeaveRow
	for i := headerAt + 1; i < len(sheet.Rows); i++ {
		row := sheet.Rows[i]
		if blankRow(row) {
			continue
		}
		src := Source{Sheet: sheet.Name, Line: i + 1}

		date, err := parseCellDate(cellValue(row, dateCol))
		if err != nil {
			return nil, &LeaveRowError{Source: src, Field: "date", Err: err}
		}
		name := cellValue(row, teacherCol)
		teacher, ok := roster.Resolve(name)
		if !ok {
			return nil, &LeaveRowError{Source: src, Field: "teacher", Err: &routine.UnknownTeacherError{Code: name, Source: "leave log"}}
		}
		leaveType, ok := models.ParseLeaveType(cellValue(row, typeCol))
		if !ok {
			return nil, &LeaveRowError{Source: src, Field: "type", Err: fmt.Errorf("unknown leave type %q", cellValue(row, typeCol))}
		}
		assignments, err := routine.ParseAssignmentLog(cellValue(row, subsCol), roster)
		if err != nil {
			return nil, &LeaveRowError{Source: src, Field: "substitutions", Err: err}
		}

		out = append(out, LeaveRow{
			Source:      src,
			Date:        date,
			Teacher:     teacher,
			LeaveType:   leaveType,
			Assignments: assignments,
		})
	}
	return out, nil
}
