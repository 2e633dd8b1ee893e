package routine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/bps-routine/internal/models"
)

func clock(raw string) models.ClockTime {
	return models.MustParseClock(raw)
}

func entry(code string, day models.Weekday, start, end, class, section, subject string) models.ScheduleEntry {
	return models.ScheduleEntry{
		TeacherCode: code,
		TimeSlot:    models.TimeSlot{Day: day, Start: clock(start), End: clock(end)},
		Class:       class,
		Section:     section,
		Subject:     subject,
	}
}

func testRoster(t *testing.T) *models.Roster {
	t.Helper()
	roster, err := models.NewRoster([]models.TeacherRef{
		{Code: "T1", DisplayName: "Tapasi Rana"},
		{Code: "T2", DisplayName: "Sujata Biswas Rotha"},
		{Code: "T3", DisplayName: "Rohini Singh"},
		{Code: "T4", DisplayName: "Uday Narayan Jana"},
		{Code: "T5", DisplayName: "Bimal Kumar Patra"},
	})
	require.NoError(t, err)
	return roster
}

func TestLoadRejectsMalformedEntries(t *testing.T) {
	roster := testRoster(t)
	cases := map[string]models.ScheduleEntry{
		"blank teacher":   entry(" ", models.Monday, "11:15", "12:00", "III", "A", "Math"),
		"start after end": entry("T1", models.Monday, "12:00", "11:15", "III", "A", "Math"),
		"zero length":     entry("T1", models.Monday, "11:15", "11:15", "III", "A", "Math"),
		"invalid day":     entry("T1", models.Weekday(9), "11:15", "12:00", "III", "A", "Math"),
	}
	for name, bad := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(roster, []models.ScheduleEntry{bad})
			var malformed *MalformedScheduleError
			require.ErrorAs(t, err, &malformed)
			assert.Equal(t, 1, malformed.Row)
		})
	}
}

func TestLoadRejectsDuplicateStart(t *testing.T) {
	_, err := Load(testRoster(t), []models.ScheduleEntry{
		entry("T1", models.Monday, "11:15", "12:00", "III", "A", "Math"),
		entry("T1", models.Monday, "11:15", "12:00", "IV", "A", "English"),
	})
	var malformed *MalformedScheduleError
	require.ErrorAs(t, err, &malformed)
	assert.Equal(t, 2, malformed.Row)
	assert.Contains(t, malformed.Error(), "first seen on row 1")
}

func TestLoadUnknownTeacher(t *testing.T) {
	_, err := Load(testRoster(t), []models.ScheduleEntry{
		entry("ZZ", models.Monday, "11:15", "12:00", "III", "A", "Math"),
	})
	var unknown *UnknownTeacherError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "ZZ", unknown.Code)
}

func TestLoadCanonicalisesCodes(t *testing.T) {
	idx, err := Load(testRoster(t), []models.ScheduleEntry{
		entry("t1", models.Monday, "11:15", "12:00", "III", "A", "Math"),
	})
	require.NoError(t, err)
	assert.Len(t, idx.ScheduledFor("T1", models.Monday), 1)
}

func TestScheduledForSortsByStart(t *testing.T) {
	idx, err := Load(nil, []models.ScheduleEntry{
		entry("T1", models.Monday, "12:00", "12:45", "IV", "A", "English"),
		entry("T1", models.Monday, "10:30", "11:15", "II", "A", "Bengali"),
		entry("T1", models.Tuesday, "10:30", "11:15", "II", "A", "Bengali"),
	})
	require.NoError(t, err)

	list := idx.ScheduledFor("T1", models.Monday)
	require.Len(t, list, 2)
	assert.Equal(t, clock("10:30"), list[0].Start)
	assert.Equal(t, clock("12:00"), list[1].Start)

	assert.Empty(t, idx.ScheduledFor("T1", models.Friday))
	assert.NotNil(t, idx.ScheduledFor("T9", models.Friday))
}

func TestWhoIsBusyAtUsesExactStart(t *testing.T) {
	idx, err := Load(nil, []models.ScheduleEntry{
		entry("T1", models.Monday, "11:15", "12:00", "III", "A", "Math"),
		entry("T3", models.Monday, "11:15", "12:00", "IV", "A", "English"),
		entry("T4", models.Monday, "11:00", "12:00", "V", "A", "Science"),
	})
	require.NoError(t, err)

	busy := idx.WhoIsBusyAt(models.Monday, clock("11:15"))
	assert.Equal(t, []string{"T1", "T3"}, busy.Sorted())
	assert.False(t, busy.Has("T4"), "overlapping entry with a different start is not busy")
}

func TestEntryAtAndCovering(t *testing.T) {
	idx, err := Load(nil, []models.ScheduleEntry{
		entry("T1", models.Monday, "11:15", "12:00", "CLASS III", "A", "Math"),
	})
	require.NoError(t, err)

	got, ok := idx.EntryAt("T1", models.Monday, clock("11:15"))
	require.True(t, ok)
	assert.Equal(t, "Math", got.Subject)

	_, ok = idx.EntryAt("T1", models.Monday, clock("11:30"))
	assert.False(t, ok)

	covering, ok := idx.EntryCovering("T1", models.Monday, clock("11:30"))
	require.True(t, ok)
	assert.Equal(t, got, covering)

	_, ok = idx.EntryCovering("T1", models.Monday, clock("12:00"))
	assert.False(t, ok, "end time is exclusive")
}

func TestClassLookups(t *testing.T) {
	idx, err := Load(nil, []models.ScheduleEntry{
		entry("T1", models.Monday, "11:15", "12:00", "CLASS III", "A", "Math"),
		entry("T2", models.Monday, "10:30", "11:15", "Class III", "a", "Bengali"),
		entry("T3", models.Monday, "10:30", "11:15", "CLASS IV", "A", "English"),
	})
	require.NoError(t, err)

	list := idx.ScheduledForClass("class iii", "A", models.Monday)
	require.Len(t, list, 2)
	assert.Equal(t, "T2", list[0].TeacherCode)

	now := idx.ClassAt("CLASS III", "A", models.Monday, clock("11:20"))
	require.Len(t, now, 1)
	assert.Equal(t, "T1", now[0].TeacherCode)
}
