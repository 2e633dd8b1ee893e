package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"io"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/bps-routine/internal/dto"
	"github.com/noah-isme/bps-routine/internal/models"
	"github.com/noah-isme/bps-routine/pkg/storage"
)

func newExportService(t *testing.T, f *routineFixture) *ExportService {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("secret", time.Hour)
	cfg := ExportConfig{APIPrefix: "/api/v1/", School: f.roster.School()}
	return NewExportService(f.routine, store, signer, cfg, zap.NewNop(), nil, nil)
}

func readAll(t *testing.T, svc *ExportService, relPath string) []byte {
	t.Helper()
	file, err := svc.Open(relPath)
	require.NoError(t, err)
	defer file.Close()
	data, err := io.ReadAll(file)
	require.NoError(t, err)
	return data
}

func TestExportServiceGenerateCSV(t *testing.T) {
	f := newRoutineFixture(t)
	recordAbsence(t, f, "TR", dto.AssignmentInput{Slot: "10:30", Substitute: "RS"})
	svc := newExportService(t, f)

	job := &models.ExportJob{ID: "job-1", Params: models.ExportJobParams{Date: "05-01-2026", Format: models.ExportFormatCSV}}
	result, err := svc.Generate(context.Background(), job)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(result.RelativePath, "duty_sheet_05-01-2026_"))
	assert.True(t, strings.HasSuffix(result.RelativePath, ".csv"))
	assert.Equal(t, "/api/v1/exports/download?token="+url.QueryEscape(result.Token), result.URL)

	claims, err := svc.ParseToken(result.Token, false)
	require.NoError(t, err)
	assert.Equal(t, "job-1", claims.JobID)
	assert.Equal(t, result.RelativePath, claims.Path)

	records, err := csv.NewReader(bytes.NewReader(readAll(t, svc, result.RelativePath))).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 6)
	assert.Equal(t, []string{"Time", "Class", "Section", "Subject", "Teacher", "Status", "Substitute", "Leave"}, records[0])
	assert.Equal(t, []string{"10:30-11:15", "CLASS II", "A", "Bengali", "Tapasi Rana", "substituted", "Rohini Singh", "CL"}, records[2])
	assert.Equal(t, "uncovered", records[4][5])
}

func TestExportServiceGeneratePDF(t *testing.T) {
	f := newRoutineFixture(t)
	svc := newExportService(t, f)

	job := &models.ExportJob{ID: "job-2", Params: models.ExportJobParams{Date: "05-01-2026", Format: models.ExportFormatPDF}}
	result, err := svc.Generate(context.Background(), job)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(readAll(t, svc, result.RelativePath), []byte("%PDF")))
}

func TestExportServiceGenerateRejectsUnknownFormat(t *testing.T) {
	f := newRoutineFixture(t)
	svc := newExportService(t, f)

	_, err := svc.Generate(context.Background(), &models.ExportJob{ID: "job-3", Params: models.ExportJobParams{Date: "05-01-2026", Format: "xlsx"}})
	require.Error(t, err)

	_, err = svc.Generate(context.Background(), nil)
	require.Error(t, err)
}

func TestDutySheetHighlightsUncovered(t *testing.T) {
	overview := &dto.OverviewResponse{
		Date: "05-01-2026",
		Day:  models.Monday,
		Rows: []models.SlotCoverage{
			{Entry: models.ScheduleEntry{TeacherCode: "TR", Class: "CLASS II"}, Status: models.CoverageUncovered, Teacher: models.TeacherRef{Code: "TR"}},
			{Entry: models.ScheduleEntry{TeacherCode: "RS", Class: "CLASS IV"}, Status: models.CoverageRegular, Teacher: models.TeacherRef{Code: "RS"}},
		},
		Summary: dto.CoverageSummary{Regular: 1, Uncovered: 1},
	}

	dataset := DutySheet(overview, "Bidhannagar Public School")
	assert.Equal(t, "Bidhannagar Public School Duty Sheet", dataset.Title)
	assert.Equal(t, "Monday 05-01-2026 - 1 regular, 0 substituted, 1 uncovered", dataset.Subtitle)
	require.Len(t, dataset.Rows, 2)
	assert.True(t, dataset.Highlight(dataset.Rows[0]))
	assert.False(t, dataset.Highlight(dataset.Rows[1]))

	assert.Equal(t, "Duty Sheet", DutySheet(overview, "").Title)
}
