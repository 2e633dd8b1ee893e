package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx/types"
)

// LeaveType tags an absence; it is opaque to substitution logic.
type LeaveType string

const (
	LeaveCasual  LeaveType = "CL"
	LeaveSpecial LeaveType = "SL"
	LeaveHalfDay LeaveType = "Half Day"
	LeaveOnDuty  LeaveType = "On Duty"
	LeaveMedical LeaveType = "Medical"
	LeaveOther   LeaveType = "Other"
)

var leaveTypes = []LeaveType{LeaveCasual, LeaveSpecial, LeaveHalfDay, LeaveOnDuty, LeaveMedical, LeaveOther}

// Valid returns true when the leave type is a supported value.
func (t LeaveType) Valid() bool {
	for _, known := range leaveTypes {
		if t == known {
			return true
		}
	}
	return false
}

// ParseLeaveType matches a leave type case-insensitively.
func ParseLeaveType(raw string) (LeaveType, bool) {
	value := strings.Join(strings.Fields(raw), " ")
	for _, known := range leaveTypes {
		if strings.EqualFold(value, string(known)) {
			return known, true
		}
	}
	return "", false
}

// Assignment maps a vacated slot (by start time) to its substitute.
type Assignment struct {
	Slot       ClockTime  `json:"slot"`
	Substitute TeacherRef `json:"substitute"`
}

// Assignments is an ordered slot -> substitute mapping with unique slot keys.
type Assignments []Assignment

// Substitute returns the substitute recorded for slot.
func (a Assignments) Substitute(slot ClockTime) (TeacherRef, bool) {
	for _, item := range a {
		if item.Slot == slot {
			return item.Substitute, true
		}
	}
	return TeacherRef{}, false
}

// With returns a copy where slot maps to ref; an existing key keeps its position.
func (a Assignments) With(slot ClockTime, ref TeacherRef) Assignments {
	out := make(Assignments, len(a), len(a)+1)
	copy(out, a)
	for i := range out {
		if out[i].Slot == slot {
			out[i].Substitute = ref
			return out
		}
	}
	return append(out, Assignment{Slot: slot, Substitute: ref})
}

// Stored flattens the assignments to the code-only form persisted in the database.
func (a Assignments) Stored() StoredAssignments {
	out := make(StoredAssignments, 0, len(a))
	for _, item := range a {
		out = append(out, StoredAssignment{Slot: item.Slot, SubstituteCode: item.Substitute.Code})
	}
	return out
}

// AbsenceRecord is one recorded absence of a teacher on a date. It is never edited in place.
type AbsenceRecord struct {
	ID          string      `json:"id"`
	Date        time.Time   `json:"date"`
	Teacher     TeacherRef  `json:"teacher"`
	LeaveType   LeaveType   `json:"leave_type"`
	Assignments Assignments `json:"assignments"`
	CreatedAt   time.Time   `json:"created_at"`
}

// StoredAssignment is the persisted form of an Assignment.
type StoredAssignment struct {
	Slot           ClockTime `json:"slot"`
	SubstituteCode string    `json:"substitute"`
}

// StoredAssignments is persisted as a JSON column.
type StoredAssignments []StoredAssignment

// Value marshals the assignments to JSON for persistence.
func (s StoredAssignments) Value() (driver.Value, error) {
	if s == nil {
		s = StoredAssignments{}
	}
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal stored assignments: %w", err)
	}
	return types.JSONText(data).Value()
}

// Scan unmarshals a JSON column into the assignments.
func (s *StoredAssignments) Scan(value interface{}) error {
	if value == nil {
		*s = StoredAssignments{}
		return nil
	}
	var raw types.JSONText
	if err := raw.Scan(value); err != nil {
		return fmt.Errorf("scan stored assignments: %w", err)
	}
	if len(raw) == 0 {
		*s = StoredAssignments{}
		return nil
	}
	if err := raw.Unmarshal(s); err != nil {
		return fmt.Errorf("unmarshal stored assignments: %w", err)
	}
	return nil
}

// AbsenceRow is the database shape of an AbsenceRecord.
type AbsenceRow struct {
	ID          string            `db:"id"`
	Date        time.Time         `db:"absence_date"`
	TeacherCode string            `db:"teacher_code"`
	LeaveType   LeaveType         `db:"leave_type"`
	Assignments StoredAssignments `db:"assignments"`
	CreatedAt   time.Time         `db:"created_at"`
}

// AbsenceFilter narrows absence listings.
type AbsenceFilter struct {
	From        *time.Time
	To          *time.Time
	TeacherCode string
	Page        int
	PageSize    int
}
