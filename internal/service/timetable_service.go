package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/noah-isme/bps-routine/internal/dto"
	"github.com/noah-isme/bps-routine/internal/importer"
	"github.com/noah-isme/bps-routine/internal/models"
	"github.com/noah-isme/bps-routine/internal/routine"
	appErrors "github.com/noah-isme/bps-routine/pkg/errors"
)

type scheduleStore interface {
	ListAll(ctx context.Context) ([]models.ScheduleEntry, error)
	Replace(ctx context.Context, filename string, entries []models.ScheduleEntry) (*models.TimetableImport, error)
	LatestImport(ctx context.Context) (*models.TimetableImport, error)
}

type rosterProvider interface {
	Roster() *models.Roster
}

type cacheInvalidator interface {
	Invalidate(ctx context.Context, pattern string) error
}

const defaultMaxImportBytes = 5 << 20

// TimetableService owns the in-memory timetable index. The index is immutable and swapped
// whole on import, so readers never observe a partial timetable.
type TimetableService struct {
	store    scheduleStore
	roster   rosterProvider
	cache    cacheInvalidator
	metrics  *MetricsService
	logger   *zap.Logger
	maxBytes int64

	loadMu   sync.Mutex
	index    atomic.Pointer[routine.Index]
	revision atomic.Pointer[models.TimetableImport]
}

// NewTimetableService constructs a TimetableService. maxBytes <= 0 uses a 5 MiB limit.
func NewTimetableService(store scheduleStore, roster rosterProvider, cache cacheInvalidator, metrics *MetricsService, maxBytes int64, logger *zap.Logger) *TimetableService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxBytes <= 0 {
		maxBytes = defaultMaxImportBytes
	}
	return &TimetableService{store: store, roster: roster, cache: cache, metrics: metrics, logger: logger, maxBytes: maxBytes}
}

// Import parses an uploaded CSV/XLSX/XLS timetable, validates it, and replaces the stored
// timetable. The previous timetable stays active when any step fails.
func (s *TimetableService) Import(ctx context.Context, filename string, r io.Reader) (*dto.TimetableImportResponse, error) {
	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "failed to read upload")
	}
	if int64(len(data)) > s.maxBytes {
		return nil, validationError(fmt.Sprintf("timetable upload exceeds %d bytes", s.maxBytes))
	}
	registry := s.roster.Roster()
	if registry == nil {
		return nil, validationError("roster is not loaded")
	}

	sheets, err := importer.ReadSheets(bytes.NewReader(data), filename)
	if err != nil {
		return nil, translateRoutineError(err, "failed to read timetable")
	}
	parsed, err := importer.ParseTimetable(sheets, registry)
	if err != nil {
		return nil, translateRoutineError(err, "failed to parse timetable")
	}
	index, err := routine.Load(registry, parsed.Entries)
	if err != nil {
		var malformed *routine.MalformedScheduleError
		if errors.As(err, &malformed) {
			parsed.Locate(malformed)
		}
		return nil, translateRoutineError(err, "failed to load timetable")
	}

	s.loadMu.Lock()
	rev, err := s.store.Replace(ctx, filename, parsed.Entries)
	if err != nil {
		s.loadMu.Unlock()
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store timetable")
	}
	s.index.Store(index)
	s.revision.Store(rev)
	s.loadMu.Unlock()
	s.metrics.SetTimetableEntries(index.Len())
	s.invalidate(ctx)

	s.logger.Info("timetable imported",
		zap.String("import_id", rev.ID),
		zap.String("filename", filename),
		zap.Int("entries", index.Len()),
	)
	return summarizeImport(rev, index), nil
}

func summarizeImport(rev *models.TimetableImport, index *routine.Index) *dto.TimetableImportResponse {
	resp := &dto.TimetableImportResponse{
		ImportID:   rev.ID,
		Filename:   rev.Filename,
		EntryCount: index.Len(),
		PerDay:     map[string]int{},
	}
	teachers := map[string]struct{}{}
	for _, entry := range index.Entries() {
		teachers[entry.TeacherCode] = struct{}{}
		resp.PerDay[entry.Day.String()]++
	}
	resp.Teachers = len(teachers)
	return resp
}

func (s *TimetableService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, "*"); err != nil {
		s.logger.Warn("timetable cache invalidation failed", zap.Error(err))
	}
}

// Current returns the active index, loading it from the store on first use.
func (s *TimetableService) Current(ctx context.Context) (*routine.Index, error) {
	if index := s.index.Load(); index != nil {
		return index, nil
	}
	s.loadMu.Lock()
	defer s.loadMu.Unlock()
	if index := s.index.Load(); index != nil {
		return index, nil
	}

	entries, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable")
	}
	if len(entries) == 0 {
		return nil, appErrors.ErrTimetableNotLoaded
	}
	index, err := routine.Load(s.roster.Roster(), entries)
	if err != nil {
		return nil, translateRoutineError(err, "stored timetable is invalid")
	}
	rev, err := s.store.LatestImport(ctx)
	if err != nil {
		s.logger.Warn("failed to read timetable revision", zap.Error(err))
	} else if rev != nil {
		s.revision.Store(rev)
	}
	s.index.Store(index)
	s.metrics.SetTimetableEntries(index.Len())
	s.logger.Info("timetable loaded", zap.Int("entries", index.Len()))
	return index, nil
}

// Revision returns the metadata of the active import, if known.
func (s *TimetableService) Revision() *models.TimetableImport {
	return s.revision.Load()
}

// ScheduledFor lists a teacher's entries on a day, sorted by start.
func (s *TimetableService) ScheduledFor(ctx context.Context, query dto.TimetableQuery) (*dto.TimetableResponse, error) {
	registry := s.roster.Roster()
	if registry == nil {
		return nil, unknownTeacher(query.Teacher)
	}
	teacher, ok := registry.Resolve(query.Teacher)
	if !ok {
		return nil, unknownTeacher(query.Teacher)
	}
	day, err := models.ParseWeekday(query.Day)
	if err != nil {
		return nil, validationError(err.Error())
	}
	index, err := s.Current(ctx)
	if err != nil {
		return nil, err
	}
	return &dto.TimetableResponse{
		Teacher: teacher,
		Day:     day,
		Entries: index.ScheduledFor(teacher.Code, day),
	}, nil
}

// BusyAt lists teachers whose own class starts exactly at the given time.
func (s *TimetableService) BusyAt(ctx context.Context, query dto.BusyQuery) (*dto.BusyResponse, error) {
	day, err := models.ParseWeekday(query.Day)
	if err != nil {
		return nil, validationError(err.Error())
	}
	start, err := models.ParseClock(query.Start)
	if err != nil {
		return nil, validationError(err.Error())
	}
	index, err := s.Current(ctx)
	if err != nil {
		return nil, err
	}
	codes := index.WhoIsBusyAt(day, start).Sorted()
	registry := s.roster.Roster()
	teachers := make([]models.TeacherRef, 0, len(codes))
	for _, code := range codes {
		ref := models.TeacherRef{Code: code}
		if registry != nil {
			if known, ok := registry.Lookup(code); ok {
				ref = known
			}
		}
		teachers = append(teachers, ref)
	}
	return &dto.BusyResponse{Day: day, Start: start, Teachers: teachers}, nil
}
