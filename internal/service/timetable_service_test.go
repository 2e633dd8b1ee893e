package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/bps-routine/internal/dto"
	"github.com/noah-isme/bps-routine/internal/models"
	appErrors "github.com/noah-isme/bps-routine/pkg/errors"
)

func TestTimetableServiceImportSummarises(t *testing.T) {
	f := newRoutineFixture(t)

	rev := f.timetable.Revision()
	require.NotNil(t, rev)
	assert.Equal(t, "routine.csv", rev.Filename)
	assert.Len(t, f.schedules.entries, 6)
	assert.Equal(t, 6, f.metrics.Snapshot().TimetableEntries)
	assert.Contains(t, f.cacheRepo.deleted, "*")

	resp, err := f.timetable.Import(context.Background(), "routine.csv", strings.NewReader(timetableCSV))
	require.NoError(t, err)
	assert.Equal(t, 6, resp.EntryCount)
	assert.Equal(t, 5, resp.Teachers)
	assert.Equal(t, map[string]int{"Monday": 5, "Tuesday": 1}, resp.PerDay)
	assert.NotEqual(t, rev.ID, resp.ImportID)
}

func TestTimetableServiceImportRejectsDuplicateStart(t *testing.T) {
	f := newRoutineFixture(t)
	before := f.timetable.Revision()

	duplicate := timetableCSV + "TR,Monday,11:15,12:00,CLASS VI,A,Art,20\n"
	_, err := f.timetable.Import(context.Background(), "bad.csv", strings.NewReader(duplicate))
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrMalformedSchedule))

	// the previous timetable stays active
	assert.Equal(t, before.ID, f.timetable.Revision().ID)
	assert.Len(t, f.schedules.entries, 6)
}

func TestTimetableServiceImportUnknownTeacher(t *testing.T) {
	f := newRoutineFixture(t)

	raw := "Teacher,Day,Start,End,Class,Section,Subject\nZZ,Monday,10:30,11:15,CLASS II,A,Bengali\n"
	_, err := f.timetable.Import(context.Background(), "bad.csv", strings.NewReader(raw))
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrUnknownTeacher))
}

func TestTimetableServiceImportUnsupportedFormat(t *testing.T) {
	f := newRoutineFixture(t)

	_, err := f.timetable.Import(context.Background(), "routine.docx", strings.NewReader("x"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestTimetableServiceImportSizeLimit(t *testing.T) {
	f := newRoutineFixture(t)
	svc := NewTimetableService(f.schedules, f.roster, nil, nil, 16, zap.NewNop())

	_, err := svc.Import(context.Background(), "routine.csv", strings.NewReader(timetableCSV))
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestTimetableServiceScheduledFor(t *testing.T) {
	f := newRoutineFixture(t)

	resp, err := f.timetable.ScheduledFor(context.Background(), dto.TimetableQuery{Teacher: "Tapasi Rana", Day: "monday"})
	require.NoError(t, err)
	assert.Equal(t, "TR", resp.Teacher.Code)
	assert.Equal(t, models.Monday, resp.Day)
	require.Len(t, resp.Entries, 2)
	assert.Equal(t, models.MustParseClock("10:30"), resp.Entries[0].Start)
	assert.Equal(t, models.MustParseClock("11:15"), resp.Entries[1].Start)

	resp, err = f.timetable.ScheduledFor(context.Background(), dto.TimetableQuery{Teacher: "BP", Day: "Monday"})
	require.NoError(t, err)
	assert.Empty(t, resp.Entries)

	_, err = f.timetable.ScheduledFor(context.Background(), dto.TimetableQuery{Teacher: "Nobody", Day: "Monday"})
	assert.True(t, errors.Is(err, appErrors.ErrUnknownTeacher))

	_, err = f.timetable.ScheduledFor(context.Background(), dto.TimetableQuery{Teacher: "TR", Day: "Someday"})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestTimetableServiceBusyAt(t *testing.T) {
	f := newRoutineFixture(t)

	resp, err := f.timetable.BusyAt(context.Background(), dto.BusyQuery{Day: "Monday", Start: "11:15"})
	require.NoError(t, err)
	codes := make([]string, 0, len(resp.Teachers))
	for _, ref := range resp.Teachers {
		codes = append(codes, ref.Code)
	}
	assert.Equal(t, []string{"RS", "TR", "UJ"}, codes)
	assert.Equal(t, "Rohini Singh", resp.Teachers[0].DisplayName)

	// exact start match only
	resp, err = f.timetable.BusyAt(context.Background(), dto.BusyQuery{Day: "Monday", Start: "11:30"})
	require.NoError(t, err)
	assert.Empty(t, resp.Teachers)
}

func TestTimetableServiceCurrentLoadsFromStore(t *testing.T) {
	f := newRoutineFixture(t)
	svc := NewTimetableService(f.schedules, f.roster, nil, nil, 0, zap.NewNop())

	index, err := svc.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 6, index.Len())
	assert.Equal(t, f.schedules.latest.ID, svc.Revision().ID)

	_, err = svc.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, f.schedules.listHits)
}

func TestTimetableServiceCurrentNotLoaded(t *testing.T) {
	f := newRoutineFixture(t)
	svc := NewTimetableService(&scheduleStoreStub{}, f.roster, nil, nil, 0, zap.NewNop())

	_, err := svc.Current(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrTimetableNotLoaded))
}
