package importer

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/noah-isme/bps-routine/internal/models"
	"github.com/noah-isme/bps-routine/internal/routine"
)

func testRoster(t *testing.T) *models.Roster {
	t.Helper()
	roster, err := models.NewRoster([]models.TeacherRef{
		{Code: "TR", DisplayName: "Tapasi Rana"},
		{Code: "SBR", DisplayName: "Sujata Biswas Rotha"},
		{Code: "RS", DisplayName: "Rohini Singh"},
	})
	require.NoError(t, err)
	return roster
}

func TestReadSheetsCSV(t *testing.T) {
	raw := "\xef\xbb\xbfDay,Teacher,Start,End,Class,Section,Subject\nMonday,TR,11:15,12:00,CLASS III,A,Math\n\n"
	sheets, err := ReadSheets(strings.NewReader(raw), "routine.CSV")
	require.NoError(t, err)
	require.Len(t, sheets, 1)
	assert.Equal(t, "Day", sheets[0].Rows[0][0])
}

func TestReadSheetsRejectsUnknownExtension(t *testing.T) {
	_, err := ReadSheets(strings.NewReader("x"), "routine.pdf")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestParseTimetableCSV(t *testing.T) {
	raw := strings.Join([]string{
		"Day,Teacher,Start Time,End Time,Class,Section,Subject,Strength",
		"Monday,TR,11:15,12:00,CLASS III,A,Math,32",
		"monday,Rohini Singh,11:15 AM,12:00 PM,CLASS IV,A,English,",
		"Tue,SBR,0.4375,0.46875,CLASS II,B,Bengali,28",
	}, "\n")
	sheets, err := ReadSheets(strings.NewReader(raw), "routine.csv")
	require.NoError(t, err)

	tt, err := ParseTimetable(sheets, testRoster(t))
	require.NoError(t, err)
	require.Len(t, tt.Entries, 3)

	first := tt.Entries[0]
	assert.Equal(t, "TR", first.TeacherCode)
	assert.Equal(t, models.Monday, first.Day)
	assert.Equal(t, models.NewClockTime(11, 15), first.Start)
	assert.Equal(t, 32, first.ClassSize)

	assert.Equal(t, "RS", tt.Entries[1].TeacherCode)
	assert.Equal(t, models.NewClockTime(12, 0), tt.Entries[1].End)
	assert.Zero(t, tt.Entries[1].ClassSize)

	assert.Equal(t, models.Tuesday, tt.Entries[2].Day)
	assert.Equal(t, models.NewClockTime(10, 30), tt.Entries[2].Start)
	assert.Equal(t, models.NewClockTime(11, 15), tt.Entries[2].End)
	assert.Equal(t, Source{Line: 4}, tt.Sources[2])
}

func TestParseTimetableTimeRangeColumn(t *testing.T) {
	sheets := []Sheet{{Rows: [][]string{
		{"Day", "Teacher", "Time", "Class", "Subject"},
		{"Friday", "TR", "10:30 – 11:15", "CLASS I", "Drawing"},
	}}}
	tt, err := ParseTimetable(sheets, testRoster(t))
	require.NoError(t, err)
	assert.Equal(t, models.NewClockTime(10, 30), tt.Entries[0].Start)
	assert.Equal(t, models.NewClockTime(11, 15), tt.Entries[0].End)
}

func TestParseTimetableErrors(t *testing.T) {
	roster := testRoster(t)

	_, err := ParseTimetable([]Sheet{{Rows: [][]string{
		{"Day", "Teacher", "Start", "End", "Class"},
		{"Monday", "ZZ", "11:15", "12:00", "CLASS III"},
	}}}, roster)
	var unknown *routine.UnknownTeacherError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "ZZ", unknown.Code)

	_, err = ParseTimetable([]Sheet{{Rows: [][]string{
		{"Day", "Teacher", "Start", "End", "Class"},
		{"Monday", "TR", "11:15", "soon", "CLASS III"},
	}}}, roster)
	var malformed *routine.MalformedScheduleError
	require.ErrorAs(t, err, &malformed)
	assert.Equal(t, 2, malformed.Row)
	assert.Equal(t, "end_time", malformed.Field)

	_, err = ParseTimetable([]Sheet{{Rows: [][]string{{"Teacher", "Start", "End", "Class"}}}}, roster)
	require.ErrorAs(t, err, &malformed)
	assert.Equal(t, "day", malformed.Field)
}

func TestParseTimetableWorkbookWithDaySheets(t *testing.T) {
	book := excelize.NewFile()
	defer func() { _ = book.Close() }()
	require.NoError(t, book.SetSheetName("Sheet1", "Monday"))
	_, err := book.NewSheet("Tuesday")
	require.NoError(t, err)

	header := []interface{}{"Teacher", "Start", "End", "Class", "Section", "Subject"}
	require.NoError(t, book.SetSheetRow("Monday", "A1", &header))
	require.NoError(t, book.SetSheetRow("Monday", "A2", &[]interface{}{"TR", "11:15", "12:00", "CLASS III", "A", "Math"}))
	require.NoError(t, book.SetSheetRow("Tuesday", "A1", &header))
	require.NoError(t, book.SetSheetRow("Tuesday", "A2", &[]interface{}{"SBR", "09:00", "09:45", "CLASS I", "A", "Drawing"}))
	require.NoError(t, book.SetSheetRow("Tuesday", "A3", &[]interface{}{"RS", "09:45", "09:00", "CLASS II", "A", "Music"}))

	buf, err := book.WriteToBuffer()
	require.NoError(t, err)

	sheets, err := ReadSheets(bytes.NewReader(buf.Bytes()), "routine.xlsx")
	require.NoError(t, err)
	tt, err := ParseTimetable(sheets, testRoster(t))
	require.NoError(t, err)
	require.Len(t, tt.Entries, 3)
	assert.Equal(t, models.Monday, tt.Entries[0].Day)
	assert.Equal(t, models.Tuesday, tt.Entries[1].Day)

	_, err = routine.Load(testRoster(t), tt.Entries)
	var malformed *routine.MalformedScheduleError
	require.ErrorAs(t, err, &malformed)
	assert.Equal(t, 3, malformed.Row)
	tt.Locate(malformed)
	assert.Equal(t, 3, malformed.Row)
	assert.Contains(t, malformed.Reason, `sheet "Tuesday"`)
}

func TestParseLeaveLog(t *testing.T) {
	raw := strings.Join([]string{
		"Date,Teacher,Type,Substitutions",
		"05-01-2026,Tapasi Rana,CL,11:15: Rohini Singh | 12:00: SBR",
		"2026-01-06,SBR,half day,",
		"46029,RS,Medical,",
	}, "\n")
	sheets, err := ReadSheets(strings.NewReader(raw), "leave.csv")
	require.NoError(t, err)

	rows, err := ParseLeaveLog(sheets, testRoster(t))
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, time.Date(2026, time.January, 5, 0, 0, 0, 0, time.UTC), rows[0].Date)
	assert.Equal(t, "TR", rows[0].Teacher.Code)
	assert.Equal(t, models.LeaveCasual, rows[0].LeaveType)
	require.Len(t, rows[0].Assignments, 2)
	assert.Equal(t, "RS", rows[0].Assignments[0].Substitute.Code)

	assert.Equal(t, models.LeaveHalfDay, rows[1].LeaveType)
	assert.Empty(t, rows[1].Assignments)

	assert.Equal(t, time.Date(2026, time.January, 7, 0, 0, 0, 0, time.UTC), rows[2].Date)
}

func TestParseLeaveLogErrors(t *testing.T) {
	roster := testRoster(t)

	_, err := ParseLeaveLog([]Sheet{{Rows: [][]string{
		{"Date", "Teacher", "Type"},
		{"05-01-2026", "Nobody", "CL"},
	}}}, roster)
	var rowErr *LeaveRowError
	require.ErrorAs(t, err, &rowErr)
	assert.Equal(t, 2, rowErr.Source.Line)
	var unknown *routine.UnknownTeacherError
	assert.ErrorAs(t, err, &unknown)

	_, err = ParseLeaveLog([]Sheet{{Rows: [][]string{
		{"Date", "Teacher", "Type"},
		{"05-01-2026", "TR", "Vacation"},
	}}}, roster)
	require.ErrorAs(t, err, &rowErr)
	assert.Equal(t, "type", rowErr.Field)

	_, err = ParseLeaveLog([]Sheet{{Rows: [][]string{{"Teacher", "Type"}}}}, roster)
	require.ErrorAs(t, err, &rowErr)
	assert.Equal(t, "date", rowErr.Field)
}
