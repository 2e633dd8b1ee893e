package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/bps-routine/internal/dto"
	"github.com/noah-isme/bps-routine/internal/models"
	appErrors "github.com/noah-isme/bps-routine/pkg/errors"
)

func candidateCodes(plan models.SlotPlan) []string {
	out := make([]string, 0, len(plan.Candidates))
	for _, c := range plan.Candidates {
		out = append(out, c.Teacher.Code)
	}
	return out
}

func recordAbsence(t *testing.T, f *routineFixture, teacher string, assignments ...dto.AssignmentInput) {
	t.Helper()
	_, err := f.leave.Record(context.Background(), dto.RecordAbsenceRequest{
		Date:        "05-01-2026",
		Teacher:     teacher,
		LeaveType:   "CL",
		Assignments: assignments,
	})
	require.NoError(t, err)
}

func TestRoutineServiceCurrentDefaultsToNow(t *testing.T) {
	f := newRoutineFixture(t)

	resp, err := f.routine.Current(context.Background(), dto.CurrentQuery{Teacher: "TR"})
	require.NoError(t, err)
	assert.Equal(t, "05-01-2026", resp.Date)
	assert.Equal(t, models.Monday, resp.Day)
	assert.Equal(t, models.MustParseClock("11:20"), resp.Time)
	assert.Equal(t, models.AssignmentOwn, resp.Assignment.Kind)
	require.NotNil(t, resp.Assignment.Entry)
	assert.Equal(t, "CLASS III", resp.Assignment.Entry.Class)

	resp, err = f.routine.Current(context.Background(), dto.CurrentQuery{Teacher: "TR", Date: "05-01-2026", Time: "12:00"})
	require.NoError(t, err)
	assert.Equal(t, models.AssignmentNone, resp.Assignment.Kind)

	snapshot := f.metrics.Snapshot()
	assert.Equal(t, uint64(1), snapshot.Resolutions[string(models.AssignmentOwn)])
	assert.Equal(t, uint64(1), snapshot.Resolutions[string(models.AssignmentNone)])
}

func TestRoutineServiceCurrentSubstitution(t *testing.T) {
	f := newRoutineFixture(t)
	recordAbsence(t, f, "TR", dto.AssignmentInput{Slot: "11:15", Substitute: "BP"})

	resp, err := f.routine.Current(context.Background(), dto.CurrentQuery{Teacher: "Bimal Kumar Patra", Date: "05-01-2026", Time: "11:45"})
	require.NoError(t, err)
	assert.Equal(t, models.AssignmentSubstituting, resp.Assignment.Kind)
	require.NotNil(t, resp.Assignment.AbsentTeacher)
	assert.Equal(t, "TR", resp.Assignment.AbsentTeacher.Code)
	assert.Equal(t, "CLASS III", resp.Assignment.Entry.Class)

	// the absent teacher has no own class that day
	resp, err = f.routine.Current(context.Background(), dto.CurrentQuery{Teacher: "TR", Date: "05-01-2026", Time: "11:45"})
	require.NoError(t, err)
	assert.Equal(t, models.AssignmentNone, resp.Assignment.Kind)

	// other dates are unaffected
	resp, err = f.routine.Current(context.Background(), dto.CurrentQuery{Teacher: "TR", Date: "12-01-2026", Time: "11:45"})
	require.NoError(t, err)
	assert.Equal(t, models.AssignmentOwn, resp.Assignment.Kind)
}

func TestRoutineServiceCurrentConflict(t *testing.T) {
	f := newRoutineFixture(t)
	recordAbsence(t, f, "TR", dto.AssignmentInput{Slot: "11:15", Substitute: "UJ"})

	_, err := f.routine.Current(context.Background(), dto.CurrentQuery{Teacher: "UJ", Date: "05-01-2026", Time: "11:30"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrResolutionConflict))
	assert.Contains(t, err.Error(), "conflicting duties")
	assert.Equal(t, uint64(1), f.metrics.Snapshot().Resolutions[OutcomeConflict])
}

func TestRoutineServiceCurrentRejectsBadInput(t *testing.T) {
	f := newRoutineFixture(t)
	ctx := context.Background()

	_, err := f.routine.Current(ctx, dto.CurrentQuery{})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	_, err = f.routine.Current(ctx, dto.CurrentQuery{Teacher: "Nobody"})
	assert.True(t, errors.Is(err, appErrors.ErrUnknownTeacher))
	assert.Equal(t, uint64(1), f.metrics.Snapshot().Resolutions[OutcomeUnknown])

	_, err = f.routine.Current(ctx, dto.CurrentQuery{Teacher: "TR", Time: "25:99"})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	_, err = f.routine.Current(ctx, dto.CurrentQuery{Teacher: "TR", Date: "yesterday"})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestRoutineServicePlanRanksCandidates(t *testing.T) {
	f := newRoutineFixture(t)

	resp, err := f.routine.Plan(context.Background(), dto.PlanQuery{Absent: "Tapasi Rana", Date: "05-01-2026"})
	require.NoError(t, err)
	assert.Equal(t, "TR", resp.Absent.Code)
	require.Len(t, resp.Slots, 2)

	assert.Equal(t, models.MustParseClock("10:30"), resp.Slots[0].Entry.Start)
	assert.Equal(t, []string{"RS", "UJ", "BP", "SB"}, candidateCodes(resp.Slots[0]))
	assert.Equal(t, models.CandidateBusyWithOwnClass, resp.Slots[0].Candidates[3].Status.Kind)

	// busy teachers with the smaller class come first
	assert.Equal(t, []string{"BP", "SB", "UJ", "RS"}, candidateCodes(resp.Slots[1]))
	require.NotNil(t, resp.Slots[1].Candidates[2].Status.Entry)
	assert.Equal(t, 25, resp.Slots[1].Candidates[2].Status.Entry.ClassSize)
	assert.Equal(t, uint64(1), f.metrics.Snapshot().Plans)
}

func TestRoutineServicePlanUsesCacheUntilAbsenceRecorded(t *testing.T) {
	f := newRoutineFixture(t)
	ctx := context.Background()
	query := dto.PlanQuery{Absent: "TR", Date: "05-01-2026"}

	_, err := f.routine.Plan(ctx, query)
	require.NoError(t, err)
	assert.Contains(t, f.cacheRepo.keys(), planKey(monday, "TR"))

	cached, err := f.routine.Plan(ctx, query)
	require.NoError(t, err)
	assert.Equal(t, []string{"BP", "SB", "UJ", "RS"}, candidateCodes(cached.Slots[1]))
	assert.Equal(t, uint64(1), f.metrics.Snapshot().Plans)
	assert.Equal(t, uint64(1), f.metrics.Snapshot().CacheHits)

	recordAbsence(t, f, "UJ", dto.AssignmentInput{Slot: "11:15", Substitute: "BP"})
	assert.NotContains(t, f.cacheRepo.keys(), planKey(monday, "TR"))

	resp, err := f.routine.Plan(ctx, query)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), f.metrics.Snapshot().Plans)
	// UJ is on leave and trails the busy group; BP already covers UJ at 11:15
	assert.Equal(t, []string{"SB", "RS", "UJ", "BP"}, candidateCodes(resp.Slots[1]))
	assert.True(t, resp.Slots[1].Candidates[2].OnLeave)
	last := resp.Slots[1].Candidates[3].Status
	assert.Equal(t, models.CandidateAlreadySubstituting, last.Kind)
	require.NotNil(t, last.ForTeacher)
	assert.Equal(t, "UJ", last.ForTeacher.Code)
}

func TestRoutineServicePlanWithoutClasses(t *testing.T) {
	f := newRoutineFixture(t)

	resp, err := f.routine.Plan(context.Background(), dto.PlanQuery{Absent: "BP", Date: "05-01-2026"})
	require.NoError(t, err)
	assert.Empty(t, resp.Slots)

	_, err = f.routine.Plan(context.Background(), dto.PlanQuery{})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	_, err = f.routine.Plan(context.Background(), dto.PlanQuery{Absent: "ZZ"})
	assert.True(t, errors.Is(err, appErrors.ErrUnknownTeacher))
}

func TestRoutineServiceOverview(t *testing.T) {
	f := newRoutineFixture(t)
	recordAbsence(t, f, "TR", dto.AssignmentInput{Slot: "10:30", Substitute: "RS"})

	resp, err := f.routine.Overview(context.Background(), dto.OverviewQuery{Date: "05-01-2026"})
	require.NoError(t, err)
	assert.Equal(t, models.Monday, resp.Day)
	require.Len(t, resp.Rows, 5)
	assert.Equal(t, dto.CoverageSummary{Regular: 3, Substituted: 1, Uncovered: 1}, resp.Summary)

	substituted := resp.Rows[1]
	assert.Equal(t, "TR", substituted.Teacher.Code)
	assert.Equal(t, models.CoverageSubstituted, substituted.Status)
	require.NotNil(t, substituted.Substitute)
	assert.Equal(t, "RS", substituted.Substitute.Code)
	assert.Equal(t, models.LeaveCasual, substituted.LeaveType)

	uncovered := resp.Rows[3]
	assert.Equal(t, "TR", uncovered.Teacher.Code)
	assert.Equal(t, models.CoverageUncovered, uncovered.Status)
	assert.Contains(t, f.cacheRepo.keys(), overviewKey(monday))
}

func TestRoutineServiceTimetableNotLoaded(t *testing.T) {
	f := newRoutineFixture(t)
	empty := NewTimetableService(&scheduleStoreStub{}, f.roster, nil, nil, 0, zap.NewNop())
	svc := NewRoutineService(f.roster, empty, f.leave, nil, nil, nil, zap.NewNop(), RoutineConfig{Location: time.UTC})

	_, err := svc.Overview(context.Background(), dto.OverviewQuery{Date: "05-01-2026"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrTimetableNotLoaded))
}
