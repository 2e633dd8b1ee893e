package models

// AssignmentKind classifies what a teacher is doing at a moment.
type AssignmentKind string

const (
	AssignmentOwn          AssignmentKind = "own"
	AssignmentSubstituting AssignmentKind = "substituting"
	AssignmentNone         AssignmentKind = "none"
)

// ResolvedAssignment is the derived, never-persisted answer to "where should this teacher be now".
type ResolvedAssignment struct {
	Kind          AssignmentKind `json:"kind"`
	Entry         *ScheduleEntry `json:"entry,omitempty"`
	AbsentTeacher *TeacherRef    `json:"absent_teacher,omitempty"`
}

// OwnClass builds an Own resolution.
func OwnClass(entry ScheduleEntry) ResolvedAssignment {
	return ResolvedAssignment{Kind: AssignmentOwn, Entry: &entry}
}

// SubstitutingFor builds a Substituting resolution using the absent teacher's entry.
func SubstitutingFor(entry ScheduleEntry, absent TeacherRef) ResolvedAssignment {
	return ResolvedAssignment{Kind: AssignmentSubstituting, Entry: &entry, AbsentTeacher: &absent}
}

// NoAssignment is the free resolution.
func NoAssignment() ResolvedAssignment {
	return ResolvedAssignment{Kind: AssignmentNone}
}

// CandidateKind tags a substitute candidate for a vacated slot.
type CandidateKind string

const (
	CandidateFree                CandidateKind = "free"
	CandidateBusyWithOwnClass    CandidateKind = "busy_with_own_class"
	CandidateAlreadySubstituting CandidateKind = "already_substituting"
)

// CandidateStatus carries the classification and its evidence.
type CandidateStatus struct {
	Kind CandidateKind `json:"kind"`
	// Entry is the candidate's own class when busy.
	Entry *ScheduleEntry `json:"entry,omitempty"`
	// ForTeacher and AtSlot describe the existing substitution duty.
	ForTeacher *TeacherRef `json:"for_teacher,omitempty"`
	AtSlot     *ClockTime  `json:"at_slot,omitempty"`
}

// Candidate pairs a teacher with their status for one slot.
type Candidate struct {
	Teacher TeacherRef      `json:"teacher"`
	Status  CandidateStatus `json:"status"`
	OnLeave bool            `json:"on_leave,omitempty"`
}

// SlotPlan lists ranked candidates for one vacated entry.
type SlotPlan struct {
	Entry      ScheduleEntry `json:"entry"`
	Candidates []Candidate   `json:"candidates"`
}

// CoverageStatus describes who takes a class today.
type CoverageStatus string

const (
	CoverageRegular     CoverageStatus = "regular"
	CoverageSubstituted CoverageStatus = "substituted"
	CoverageUncovered   CoverageStatus = "uncovered"
)

// SlotCoverage is one row of the day overview.
type SlotCoverage struct {
	Entry      ScheduleEntry  `json:"entry"`
	Status     CoverageStatus `json:"status"`
	Teacher    TeacherRef     `json:"teacher"`
	Substitute *TeacherRef    `json:"substitute,omitempty"`
	LeaveType  LeaveType      `json:"leave_type,omitempty"`
}

// Effective returns the teacher actually taking the class, if any.
func (c SlotCoverage) Effective() (TeacherRef, bool) {
	switch c.Status {
	case CoverageRegular:
		return c.Teacher, true
	case CoverageSubstituted:
		if c.Substitute != nil {
			return *c.Substitute, true
		}
	}
	return TeacherRef{}, false
}
