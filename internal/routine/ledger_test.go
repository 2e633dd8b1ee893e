package routine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/bps-routine/internal/models"
)

func TestLedgerKeepsInsertionOrderPerDate(t *testing.T) {
	t1 := models.TeacherRef{Code: "T1", DisplayName: "Tapasi Rana"}
	t2 := models.TeacherRef{Code: "T2", DisplayName: "Sujata Biswas Rotha"}
	t3 := models.TeacherRef{Code: "T3", DisplayName: "Rohini Singh"}

	ledger := NewLedger()
	ledger.RecordAbsence(monday.Add(9*time.Hour), t2, models.LeaveCasual, nil)
	ledger.RecordAbsence(monday.AddDate(0, 0, 1), t3, models.LeaveMedical, nil)
	ledger.RecordAbsence(monday, t1, models.LeaveOnDuty, nil)

	got := ledger.AbsencesOn(monday.Add(15 * time.Hour))
	require.Len(t, got, 2)
	assert.Equal(t, "T2", got[0].Teacher.Code)
	assert.Equal(t, "T1", got[1].Teacher.Code)
	assert.Equal(t, monday, got[0].Date)
	assert.Equal(t, 3, ledger.Len())

	assert.True(t, ledger.IsAbsent("T1", monday))
	assert.False(t, ledger.IsAbsent("T3", monday))
	assert.Empty(t, ledger.AbsencesOn(monday.AddDate(0, 0, 7)))
}

func TestLedgerRecordCopiesAssignments(t *testing.T) {
	sub := models.TeacherRef{Code: "T2"}
	assignments := models.Assignments{{Slot: clock("11:15"), Substitute: sub}}

	ledger := NewLedger()
	rec := ledger.RecordAbsence(monday, models.TeacherRef{Code: "T1"}, models.LeaveCasual, assignments)
	assignments[0].Substitute = models.TeacherRef{Code: "T9"}

	assert.Equal(t, "T2", rec.Assignments[0].Substitute.Code)
	assert.Equal(t, "T2", ledger.AbsencesOn(monday)[0].Assignments[0].Substitute.Code)
}

func TestLedgerRepeatedRecordsAccumulate(t *testing.T) {
	t1 := models.TeacherRef{Code: "T1"}
	ledger := NewLedger()
	ledger.RecordAbsence(monday, t1, models.LeaveCasual, models.Assignments{
		{Slot: clock("10:30"), Substitute: models.TeacherRef{Code: "T2"}},
	})
	ledger.RecordAbsence(monday, t1, models.LeaveCasual, models.Assignments{
		{Slot: clock("11:15"), Substitute: models.TeacherRef{Code: "T3"}},
	})

	assert.Len(t, ledger.AbsencesOn(monday), 2)

	first, ok := ledger.substituteFor("T1", monday, clock("10:30"))
	require.True(t, ok)
	assert.Equal(t, "T2", first.Code)
	second, ok := ledger.substituteFor("T1", monday, clock("11:15"))
	require.True(t, ok)
	assert.Equal(t, "T3", second.Code)

	bySlot := ledger.SubstituteAssignmentsOn(monday)
	assert.Len(t, bySlot, 2)
	assert.Equal(t, "T1", bySlot[clock("11:15")][0].Absent.Code)
}

func TestNilLedgerIsEmpty(t *testing.T) {
	var ledger *Ledger
	assert.Zero(t, ledger.Len())
	assert.False(t, ledger.IsAbsent("T1", monday))
	assert.Empty(t, ledger.AbsencesOn(monday))
	assert.Empty(t, ledger.SubstituteAssignmentsOn(monday))
}
