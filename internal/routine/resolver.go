package routine

import (
	"sort"
	"time"

	"github.com/noah-isme/bps-routine/internal/models"
)

// Resolver answers "where should this teacher be" and "who can cover this slot".
type Resolver struct {
	roster *models.Roster
	index  *Index
}

// NewResolver binds a roster and a loaded timetable.
func NewResolver(roster *models.Roster, index *Index) *Resolver {
	return &Resolver{roster: roster, index: index}
}

// Index returns the timetable the resolver reads.
func (r *Resolver) Index() *Index { return r.index }

// Roster returns the teacher registry the resolver reads.
func (r *Resolver) Roster() *models.Roster { return r.roster }

// ResolveCurrent returns the teacher's duty on date at now.
//
// An absent teacher has no own class for the whole day. A teacher who is present and also
// holds a substitution duty at the same moment yields a *ConflictError, as does a substitute
// booked to cover two absent teachers at once.
func (r *Resolver) ResolveCurrent(code string, date time.Time, now models.ClockTime, ledger *Ledger) (models.ResolvedAssignment, error) {
	teacher, ok := r.roster.Lookup(code)
	if !ok {
		return models.ResolvedAssignment{}, &UnknownTeacherError{Code: code, Source: "query"}
	}
	day := models.WeekdayOf(date)

	var own *models.ScheduleEntry
	if !ledger.IsAbsent(teacher.Code, date) {
		if entry, found := r.index.EntryCovering(teacher.Code, day, now); found {
			own = &entry
		}
	}

	duties := r.substitutionDuties(teacher.Code, date, now, ledger)

	switch {
	case own != nil && len(duties) > 0, len(duties) > 1:
		return models.ResolvedAssignment{}, &ConflictError{
			Teacher:       teacher,
			Day:           day,
			At:            now,
			Own:           own,
			Substitutions: duties,
		}
	case own != nil:
		return models.OwnClass(*own), nil
	case len(duties) == 1:
		return duties[0], nil
	default:
		return models.NoAssignment(), nil
	}
}

// substitutionDuties scans the date's records for slots the teacher covers that contain now.
func (r *Resolver) substitutionDuties(code string, date time.Time, now models.ClockTime, ledger *Ledger) []models.ResolvedAssignment {
	day := models.WeekdayOf(date)
	var duties []models.ResolvedAssignment
	seen := make(map[string]struct{})
	for _, rec := range ledger.AbsencesOn(date) {
		for _, a := range rec.Assignments {
			if a.Substitute.Code != code {
				continue
			}
			entry, found := r.index.EntryAt(rec.Teacher.Code, day, a.Slot)
			if !found || !entry.Contains(now) {
				continue
			}
			key := rec.Teacher.Code + "@" + a.Slot.String()
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			duties = append(duties, models.SubstitutingFor(entry, rec.Teacher))
		}
	}
	return duties
}

// PlanSubstitution ranks every other teacher for each slot the absent teacher vacates on date.
//
// Teachers already covering a different absent teacher at the exact slot start are tagged
// already_substituting; teachers with a class starting at that minute are busy_with_own_class;
// everyone else is free. Teachers with their own leave record that date keep their status,
// are flagged OnLeave and rank after the others of the same status.
func (r *Resolver) PlanSubstitution(absentCode string, date time.Time, ledger *Ledger) ([]models.SlotPlan, error) {
	absent, ok := r.roster.Lookup(absentCode)
	if !ok {
		return nil, &UnknownTeacherError{Code: absentCode, Source: "plan"}
	}
	day := models.WeekdayOf(date)
	vacated := r.index.ScheduledFor(absent.Code, day)
	covering := ledger.SubstituteAssignmentsOn(date)

	plans := make([]models.SlotPlan, 0, len(vacated))
	for _, entry := range vacated {
		busy := r.index.WhoIsBusyAt(day, entry.Start)
		subbing := make(map[string]SubstitutePair)
		for _, pair := range covering[entry.Start] {
			if pair.Absent.Code == absent.Code {
				continue
			}
			if _, exists := subbing[pair.Substitute.Code]; !exists {
				subbing[pair.Substitute.Code] = pair
			}
		}

		candidates := make([]models.Candidate, 0, r.roster.Len())
		for _, teacher := range r.roster.All() {
			if teacher.Code == absent.Code {
				continue
			}
			candidates = append(candidates, models.Candidate{
				Teacher: teacher,
				Status:  r.classify(teacher, day, entry.Start, busy, subbing),
				OnLeave: ledger.IsAbsent(teacher.Code, date),
			})
		}
		r.rank(candidates)
		plans = append(plans, models.SlotPlan{Entry: entry, Candidates: candidates})
	}
	return plans, nil
}

func (r *Resolver) classify(teacher models.TeacherRef, day models.Weekday, start models.ClockTime, busy CodeSet, subbing map[string]SubstitutePair) models.CandidateStatus {
	if pair, ok := subbing[teacher.Code]; ok {
		forTeacher := pair.Absent
		at := start
		return models.CandidateStatus{Kind: models.CandidateAlreadySubstituting, ForTeacher: &forTeacher, AtSlot: &at}
	}
	if busy.Has(teacher.Code) {
		status := models.CandidateStatus{Kind: models.CandidateBusyWithOwnClass}
		if own, found := r.index.EntryAt(teacher.Code, day, start); found {
			status.Entry = &own
		}
		return status
	}
	return models.CandidateStatus{Kind: models.CandidateFree}
}

// rank orders free, then busy (smallest known class first, unknown sizes last), then
// already substituting. Within a status teachers on leave go last; ties keep roster order.
func (r *Resolver) rank(candidates []models.Candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if ra, rb := kindRank(a.Status.Kind), kindRank(b.Status.Kind); ra != rb {
			return ra < rb
		}
		if a.OnLeave != b.OnLeave {
			return b.OnLeave
		}
		if a.Status.Kind == models.CandidateBusyWithOwnClass {
			sa, sb := classLoad(a.Status), classLoad(b.Status)
			if sa != sb {
				return sa < sb
			}
		}
		return r.roster.Position(a.Teacher.Code) < r.roster.Position(b.Teacher.Code)
	})
}

func kindRank(kind models.CandidateKind) int {
	switch kind {
	case models.CandidateFree:
		return 0
	case models.CandidateBusyWithOwnClass:
		return 1
	default:
		return 2
	}
}

// classLoad maps unknown sizes above every known size.
func classLoad(status models.CandidateStatus) int {
	if status.Entry == nil || status.Entry.ClassSize <= 0 {
		return int(^uint(0) >> 1)
	}
	return status.Entry.ClassSize
}

// Overview lists every entry of the date with the teacher actually taking it.
func (r *Resolver) Overview(date time.Time, ledger *Ledger) []models.SlotCoverage {
	day := models.WeekdayOf(date)
	entries := r.index.EntriesOn(day)
	rows := make([]models.SlotCoverage, 0, len(entries))
	for _, entry := range entries {
		teacher, ok := r.roster.Lookup(entry.TeacherCode)
		if !ok {
			teacher = models.TeacherRef{Code: entry.TeacherCode, DisplayName: entry.TeacherCode}
		}
		row := models.SlotCoverage{Entry: entry, Status: models.CoverageRegular, Teacher: teacher}
		if rec, absent := ledger.absence(teacher.Code, date); absent {
			row.LeaveType = rec.LeaveType
			row.Status = models.CoverageUncovered
			if sub, found := ledger.substituteFor(teacher.Code, date, entry.Start); found {
				row.Status = models.CoverageSubstituted
				row.Substitute = &sub
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// ValidateAssignments checks a proposed assignment set for an absent teacher: every slot must
// be one the teacher vacates on date and every substitute must be a known, different teacher.
// Double-booking is reported by PlanSubstitution as a warning and is not rejected here.
func (r *Resolver) ValidateAssignments(absentCode string, date time.Time, assignments models.Assignments) error {
	absent, ok := r.roster.Lookup(absentCode)
	if !ok {
		return &UnknownTeacherError{Code: absentCode, Source: "absence"}
	}
	day := models.WeekdayOf(date)
	for _, a := range assignments {
		if _, found := r.index.EntryAt(absent.Code, day, a.Slot); !found {
			return &InvalidAssignmentError{Slot: a.Slot, Reason: absent.Code + " has no class starting then on " + day.String()}
		}
		sub, known := r.roster.Lookup(a.Substitute.Code)
		if !known {
			return &UnknownTeacherError{Code: a.Substitute.Code, Source: "assignments"}
		}
		if sub.Code == absent.Code {
			return &InvalidAssignmentError{Slot: a.Slot, Reason: "a teacher cannot substitute for themselves"}
		}
	}
	return nil
}
