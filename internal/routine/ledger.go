package routine

import (
	"time"

	"github.com/noah-isme/bps-routine/internal/models"
)

// SubstitutePair records who covers whom at a slot.
type SubstitutePair struct {
	Absent     models.TeacherRef `json:"absent"`
	Substitute models.TeacherRef `json:"substitute"`
}

// Ledger holds absence records in insertion order. It is append-only and not safe for
// concurrent mutation; callers serialise writes.
type Ledger struct {
	records []models.AbsenceRecord
	byDate  map[time.Time][]int
}

// NewLedger seeds a ledger with existing records.
func NewLedger(records ...models.AbsenceRecord) *Ledger {
	l := &Ledger{byDate: make(map[time.Time][]int)}
	for _, rec := range records {
		l.append(rec)
	}
	return l
}

// RecordAbsence appends a new record. Repeated records for the same teacher and date are kept.
func (l *Ledger) RecordAbsence(date time.Time, teacher models.TeacherRef, leaveType models.LeaveType, assignments models.Assignments) models.AbsenceRecord {
	rec := models.AbsenceRecord{
		Date:        models.CalendarDay(date),
		Teacher:     teacher,
		LeaveType:   leaveType,
		Assignments: append(models.Assignments(nil), assignments...),
	}
	l.append(rec)
	return rec
}

func (l *Ledger) append(rec models.AbsenceRecord) {
	rec.Date = models.CalendarDay(rec.Date)
	day := rec.Date
	l.byDate[day] = append(l.byDate[day], len(l.records))
	l.records = append(l.records, rec)
}

// Len returns the number of records.
func (l *Ledger) Len() int {
	if l == nil {
		return 0
	}
	return len(l.records)
}

// AbsencesOn returns the records for a calendar date in insertion order.
func (l *Ledger) AbsencesOn(date time.Time) []models.AbsenceRecord {
	if l == nil {
		return nil
	}
	positions := l.byDate[models.CalendarDay(date)]
	out := make([]models.AbsenceRecord, 0, len(positions))
	for _, pos := range positions {
		out = append(out, l.records[pos])
	}
	return out
}

// IsAbsent reports whether any record marks the teacher absent on date.
func (l *Ledger) IsAbsent(code string, date time.Time) bool {
	_, ok := l.absence(code, date)
	return ok
}

// absence returns the first record for the teacher on date.
func (l *Ledger) absence(code string, date time.Time) (models.AbsenceRecord, bool) {
	if l == nil {
		return models.AbsenceRecord{}, false
	}
	for _, pos := range l.byDate[models.CalendarDay(date)] {
		if l.records[pos].Teacher.Code == code {
			return l.records[pos], true
		}
	}
	return models.AbsenceRecord{}, false
}

// SubstituteAssignmentsOn flattens every record of the date into slot -> (absent, substitute) pairs.
func (l *Ledger) SubstituteAssignmentsOn(date time.Time) map[models.ClockTime][]SubstitutePair {
	out := make(map[models.ClockTime][]SubstitutePair)
	for _, rec := range l.AbsencesOn(date) {
		for _, a := range rec.Assignments {
			out[a.Slot] = append(out[a.Slot], SubstitutePair{Absent: rec.Teacher, Substitute: a.Substitute})
		}
	}
	return out
}

// substituteFor returns the substitute recorded for an absent teacher's slot, scanning every
// record of the date so that later records can fill slots earlier ones left open.
func (l *Ledger) substituteFor(absent string, date time.Time, slot models.ClockTime) (models.TeacherRef, bool) {
	for _, rec := range l.AbsencesOn(date) {
		if rec.Teacher.Code != absent {
			continue
		}
		if ref, ok := rec.Assignments.Substitute(slot); ok {
			return ref, true
		}
	}
	return models.TeacherRef{}, false
}
