package routine

import (
	"fmt"
	"strings"

	"github.com/noah-isme/bps-routine/internal/models"
)

// MalformedScheduleError rejects a timetable load. Row is 1-based; zero when not row-specific.
type MalformedScheduleError struct {
	Row    int
	Field  string
	Reason string
}

func (e *MalformedScheduleError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Row > 0 {
		return fmt.Sprintf("malformed schedule row %d (%s): %s", e.Row, e.Field, e.Reason)
	}
	return fmt.Sprintf("malformed schedule (%s): %s", e.Field, e.Reason)
}

// ConflictError reports a teacher with simultaneous obligations. It is never auto-resolved.
type ConflictError struct {
	Teacher       models.TeacherRef
	Day           models.Weekday
	At            models.ClockTime
	Own           *models.ScheduleEntry
	Substitutions []models.ResolvedAssignment
}

func (e *ConflictError) Error() string {
	if e == nil {
		return "<nil>"
	}
	duties := make([]string, 0, len(e.Substitutions)+1)
	if e.Own != nil {
		duties = append(duties, "own class "+e.Own.ClassKey())
	}
	for _, sub := range e.Substitutions {
		if sub.AbsentTeacher != nil && sub.Entry != nil {
			duties = append(duties, fmt.Sprintf("covering %s in %s", sub.AbsentTeacher, sub.Entry.ClassKey()))
		}
	}
	return fmt.Sprintf("teacher %s has conflicting duties on %s at %s: %s", e.Teacher.Code, e.Day, e.At, strings.Join(duties, "; "))
}

// UnknownTeacherError reports a code or name with no roster entry.
type UnknownTeacherError struct {
	Code   string
	Source string
}

func (e *UnknownTeacherError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Source != "" {
		return fmt.Sprintf("unknown teacher %q in %s", e.Code, e.Source)
	}
	return fmt.Sprintf("unknown teacher %q", e.Code)
}

// InvalidAssignmentError rejects a proposed substitution that does not match a vacated slot.
type InvalidAssignmentError struct {
	Slot   models.ClockTime
	Reason string
}

func (e *InvalidAssignmentError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("invalid assignment at %s: %s", e.Slot, e.Reason)
}
