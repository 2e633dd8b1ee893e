package service

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/bps-routine/internal/dto"
	"github.com/noah-isme/bps-routine/internal/models"
	"github.com/noah-isme/bps-routine/pkg/export"
	"github.com/noah-isme/bps-routine/pkg/storage"
)

type overviewProvider interface {
	Overview(ctx context.Context, query dto.OverviewQuery) (*dto.OverviewResponse, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type datasetRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
	School    string
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Format       models.ExportFormat
	ExpiresAt    time.Time
}

// ExportService renders duty sheets and persists them behind signed download links.
type ExportService struct {
	overview overviewProvider
	storage  fileStorage
	csv      datasetRenderer
	pdf      datasetRenderer
	signer   *storage.SignedURLSigner
	logger   *zap.Logger
	cfg      ExportConfig
}

// NewExportService constructs an ExportService. Nil renderers use the pkg/export defaults.
func NewExportService(overview overviewProvider, store fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger, csv, pdf datasetRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		overview: overview,
		storage:  store,
		csv:      csv,
		pdf:      pdf,
		signer:   signer,
		logger:   logger,
		cfg:      cfg,
	}
}

// Generate renders the duty sheet for the job's date and stores it.
func (s *ExportService) Generate(ctx context.Context, job *models.ExportJob) (*ExportResult, error) {
	if job == nil {
		return nil, fmt.Errorf("job nil")
	}
	overview, err := s.overview.Overview(ctx, dto.OverviewQuery{Date: job.Params.Date})
	if err != nil {
		return nil, err
	}
	dataset := DutySheet(overview, s.cfg.School)

	var payload []byte
	switch job.Params.Format {
	case models.ExportFormatCSV:
		payload, err = s.csv.Render(dataset)
	case models.ExportFormatPDF:
		payload, err = s.pdf.Render(dataset)
	default:
		err = fmt.Errorf("unsupported format %s", job.Params.Format)
	}
	if err != nil {
		return nil, err
	}

	relPath, err := s.storage.Save(s.buildFilename(job), payload)
	if err != nil {
		return nil, err
	}
	token, expiresAt, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("duty sheet rendered",
		zap.String("job_id", job.ID),
		zap.String("path", relPath),
		zap.Int("bytes", len(payload)),
	)
	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          s.downloadURL(token),
		Format:       job.Params.Format,
		ExpiresAt:    expiresAt,
	}, nil
}

func (s *ExportService) downloadURL(token string) string {
	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}
	return prefix + "/exports/download?token=" + url.QueryEscape(token)
}

// ParseToken validates download token metadata.
func (s *ExportService) ParseToken(token string, allowExpired bool) (storage.Claims, error) {
	return s.signer.Parse(token, allowExpired)
}

// Open returns a handle to the stored file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Delete removes a stored export file.
func (s *ExportService) Delete(relPath string) error {
	return s.storage.Delete(relPath)
}

// Cleanup removes files older than ttl (defaults to configured ResultTTL when ttl <= 0).
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

func (s *ExportService) buildFilename(job *models.ExportJob) string {
	timestamp := time.Now().UTC().Format("20060102_150405")
	return fmt.Sprintf("duty_sheet_%s_%s.%s", sanitizeFilename(job.Params.Date), timestamp, job.Params.Format)
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}

var dutySheetColumns = []export.Column{
	{Key: "time", Label: "Time", Width: 1.3},
	{Key: "class", Label: "Class", Width: 1.2},
	{Key: "section", Label: "Section", Width: 0.7},
	{Key: "subject", Label: "Subject", Width: 1.3},
	{Key: "teacher", Label: "Teacher", Width: 1.8},
	{Key: "status", Label: "Status", Width: 1},
	{Key: "substitute", Label: "Substitute", Width: 1.8},
	{Key: "leave", Label: "Leave", Width: 0.8},
}

// DutySheet turns a day overview into the tabular duty sheet. Uncovered rows are highlighted.
func DutySheet(overview *dto.OverviewResponse, school string) export.Dataset {
	rows := make([]map[string]string, 0, len(overview.Rows))
	for _, row := range overview.Rows {
		substitute := ""
		if row.Substitute != nil {
			substitute = row.Substitute.String()
		}
		rows = append(rows, map[string]string{
			"time":       row.Entry.TimeSlot.Start.String() + "-" + row.Entry.TimeSlot.End.String(),
			"class":      row.Entry.Class,
			"section":    row.Entry.Section,
			"subject":    row.Entry.Subject,
			"teacher":    row.Teacher.String(),
			"status":     string(row.Status),
			"substitute": substitute,
			"leave":      string(row.LeaveType),
		})
	}
	subtitle := fmt.Sprintf("%s %s - %d regular, %d substituted, %d uncovered",
		overview.Day, overview.Date, overview.Summary.Regular, overview.Summary.Substituted, overview.Summary.Uncovered)
	title := "Duty Sheet"
	if school != "" {
		title = school + " " + title
	}
	return export.Dataset{
		Title:    title,
		Subtitle: subtitle,
		Columns:  dutySheetColumns,
		Rows:     rows,
		Highlight: func(row map[string]string) bool {
			return row["status"] == string(models.CoverageUncovered)
		},
	}
}
