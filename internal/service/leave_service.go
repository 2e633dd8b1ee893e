package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/bps-routine/internal/dto"
	"github.com/noah-isme/bps-routine/internal/importer"
	"github.com/noah-isme/bps-routine/internal/models"
	"github.com/noah-isme/bps-routine/internal/notify"
	"github.com/noah-isme/bps-routine/internal/routine"
	appErrors "github.com/noah-isme/bps-routine/pkg/errors"
	"github.com/noah-isme/bps-routine/pkg/jobs"
)

// JobTypeDutyNotice tags queue jobs carrying a notify.DutyNotice payload.
const JobTypeDutyNotice = "duty_notice"

type absenceStore interface {
	Create(ctx context.Context, row *models.AbsenceRow) error
	CreateBatch(ctx context.Context, rows []*models.AbsenceRow) error
	ListByDate(ctx context.Context, date time.Time) ([]models.AbsenceRow, error)
	List(ctx context.Context, filter models.AbsenceFilter) ([]models.AbsenceRow, int, error)
}

type indexProvider interface {
	Current(ctx context.Context) (*routine.Index, error)
}

// LeaveService records absences and their substitutions. Writes are serialised so the
// double-booking check and the insert see a consistent ledger.
type LeaveService struct {
	store     absenceStore
	roster    rosterProvider
	timetable indexProvider
	cache     cacheInvalidator
	notices   jobDispatcher
	validator *validator.Validate
	logger    *zap.Logger

	mu sync.Mutex
}

// NewLeaveService constructs a LeaveService. notices may be nil to skip duty notices.
func NewLeaveService(store absenceStore, roster rosterProvider, timetable indexProvider, cache cacheInvalidator, notices jobDispatcher, validate *validator.Validate, logger *zap.Logger) *LeaveService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LeaveService{
		store:     store,
		roster:    roster,
		timetable: timetable,
		cache:     cache,
		notices:   notices,
		validator: validate,
		logger:    logger,
	}
}

// Record validates and stores one absence. Substitutes that are double-booked are accepted
// and reported as warnings.
func (s *LeaveService) Record(ctx context.Context, req dto.RecordAbsenceRequest) (*dto.AbsenceResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid absence payload")
	}
	registry := s.roster.Roster()
	if registry == nil {
		return nil, validationError("roster is not loaded")
	}
	date, err := models.ParseLeaveDate(req.Date)
	if err != nil {
		return nil, validationError(err.Error())
	}
	teacher, ok := registry.Resolve(req.Teacher)
	if !ok {
		return nil, unknownTeacher(req.Teacher)
	}
	leaveType, ok := models.ParseLeaveType(req.LeaveType)
	if !ok {
		return nil, validationError(fmt.Sprintf("unsupported leave type %q", req.LeaveType))
	}
	assignments, err := s.parseAssignments(req, registry)
	if err != nil {
		return nil, err
	}

	var index *routine.Index
	if len(assignments) > 0 {
		index, err = s.timetable.Current(ctx)
		if err != nil {
			return nil, err
		}
		resolver := routine.NewResolver(registry, index)
		if err := resolver.ValidateAssignments(teacher.Code, date, assignments); err != nil {
			return nil, translateRoutineError(err, "invalid assignments")
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var warnings []string
	if index != nil {
		ledger, err := s.ledger(ctx, date)
		if err != nil {
			return nil, err
		}
		warnings = doubleBookings(index, ledger, teacher, date, assignments)
	}

	row := &models.AbsenceRow{
		Date:        date,
		TeacherCode: teacher.Code,
		LeaveType:   leaveType,
		Assignments: assignments.Stored(),
	}
	if err := s.store.Create(ctx, row); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record absence")
	}
	record := models.AbsenceRecord{
		ID:          row.ID,
		Date:        models.CalendarDay(row.Date),
		Teacher:     teacher,
		LeaveType:   leaveType,
		Assignments: assignments,
		CreatedAt:   row.CreatedAt,
	}
	s.invalidateDates(ctx, record.Date)
	if index != nil {
		s.enqueueNotices(record, index)
	}

	s.logger.Info("absence recorded",
		zap.String("absence_id", record.ID),
		zap.String("teacher", teacher.Code),
		zap.String("date", models.FormatLeaveDate(record.Date)),
		zap.Int("assignments", len(assignments)),
		zap.Int("warnings", len(warnings)),
	)
	return &dto.AbsenceResponse{
		Absence:  record,
		Log:      routine.FormatAssignmentLog(assignments),
		Warnings: warnings,
	}, nil
}

func (s *LeaveService) parseAssignments(req dto.RecordAbsenceRequest, registry *models.Roster) (models.Assignments, error) {
	logText := strings.TrimSpace(req.Log)
	if logText != "" && len(req.Assignments) > 0 {
		return nil, validationError("provide assignments either as a list or as a log, not both")
	}
	if logText != "" {
		assignments, err := routine.ParseAssignmentLog(logText, registry)
		if err != nil {
			var unknown *routine.UnknownTeacherError
			if errors.As(err, &unknown) {
				return nil, translateRoutineError(err, "invalid assignment log")
			}
			return nil, validationError(err.Error())
		}
		return assignments, nil
	}
	assignments := models.Assignments{}
	seen := make(map[models.ClockTime]struct{}, len(req.Assignments))
	for _, item := range req.Assignments {
		slot, err := models.ParseClock(item.Slot)
		if err != nil {
			return nil, validationError(err.Error())
		}
		if _, dup := seen[slot]; dup {
			return nil, validationError(fmt.Sprintf("slot %s is assigned twice", slot))
		}
		seen[slot] = struct{}{}
		sub, ok := registry.Resolve(item.Substitute)
		if !ok {
			return nil, unknownTeacher(item.Substitute)
		}
		assignments = assignments.With(slot, sub)
	}
	return assignments, nil
}

// doubleBookings lists the substitutes that are already committed at the assigned slot.
func doubleBookings(index *routine.Index, ledger *routine.Ledger, absent models.TeacherRef, date time.Time, assignments models.Assignments) []string {
	day := models.WeekdayOf(date)
	existing := ledger.SubstituteAssignmentsOn(date)
	var warnings []string
	for _, a := range assignments {
		sub := a.Substitute
		if entry, busy := index.EntryAt(sub.Code, day, a.Slot); busy {
			warnings = append(warnings, fmt.Sprintf("%s has their own class %s at %s", sub, entry.ClassKey(), a.Slot))
		}
		for _, pair := range existing[a.Slot] {
			if pair.Substitute.Code == sub.Code && pair.Absent.Code != absent.Code {
				warnings = append(warnings, fmt.Sprintf("%s is already substituting for %s at %s", sub, pair.Absent, a.Slot))
			}
		}
		if ledger.IsAbsent(sub.Code, date) {
			warnings = append(warnings, fmt.Sprintf("%s is on leave on %s", sub, models.FormatLeaveDate(date)))
		}
	}
	return warnings
}

func (s *LeaveService) enqueueNotices(record models.AbsenceRecord, index *routine.Index) {
	if s.notices == nil {
		return
	}
	day := models.WeekdayOf(record.Date)
	for _, a := range record.Assignments {
		entry, ok := index.EntryAt(record.Teacher.Code, day, a.Slot)
		if !ok {
			continue
		}
		notice := notify.DutyNotice{
			AbsenceID:  record.ID,
			Date:       record.Date,
			Substitute: a.Substitute,
			Absent:     record.Teacher,
			LeaveType:  record.LeaveType,
			Entry:      entry,
		}
		if err := s.notices.Enqueue(jobs.Job{Type: JobTypeDutyNotice, Payload: notice}); err != nil {
			s.logger.Warn("failed to enqueue duty notice",
				zap.String("absence_id", record.ID),
				zap.String("substitute", a.Substitute.Code),
				zap.Error(err),
			)
		}
	}
}

func (s *LeaveService) invalidateDates(ctx context.Context, dates ...time.Time) {
	if s.cache == nil {
		return
	}
	for _, date := range dates {
		key := models.FormatLeaveDate(date)
		for _, pattern := range []string{planKeyPrefix + key + ":*", overviewKeyPrefix + key} {
			if err := s.cache.Invalidate(ctx, pattern); err != nil {
				s.logger.Warn("absence cache invalidation failed", zap.String("pattern", pattern), zap.Error(err))
			}
		}
	}
}

// ListByDate returns the absences of one day in insertion order.
func (s *LeaveService) ListByDate(ctx context.Context, date time.Time) ([]models.AbsenceRecord, error) {
	rows, err := s.store.ListByDate(ctx, date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list absences")
	}
	return s.hydrate(rows), nil
}

// List answers GET /absences: a single date, or a paginated range.
func (s *LeaveService) List(ctx context.Context, query dto.AbsenceQuery) ([]models.AbsenceRecord, *models.Pagination, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid absence query")
	}
	if query.Date != "" {
		date, err := models.ParseLeaveDate(query.Date)
		if err != nil {
			return nil, nil, validationError(err.Error())
		}
		records, err := s.ListByDate(ctx, date)
		if err != nil {
			return nil, nil, err
		}
		return records, &models.Pagination{Page: 1, PageSize: len(records), TotalCount: len(records)}, nil
	}

	filter := models.AbsenceFilter{Page: query.Page, PageSize: query.PageSize}
	if query.Teacher != "" {
		ref, err := s.lookup(query.Teacher)
		if err != nil {
			return nil, nil, err
		}
		filter.TeacherCode = ref.Code
	}
	for _, bound := range []struct {
		raw string
		dst **time.Time
	}{{query.From, &filter.From}, {query.To, &filter.To}} {
		if bound.raw == "" {
			continue
		}
		parsed, err := models.ParseLeaveDate(bound.raw)
		if err != nil {
			return nil, nil, validationError(err.Error())
		}
		*bound.dst = &parsed
	}

	rows, total, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list absences")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return s.hydrate(rows), &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

func (s *LeaveService) lookup(raw string) (models.TeacherRef, error) {
	registry := s.roster.Roster()
	if registry == nil {
		return models.TeacherRef{}, unknownTeacher(raw)
	}
	ref, ok := registry.Resolve(raw)
	if !ok {
		return models.TeacherRef{}, unknownTeacher(raw)
	}
	return ref, nil
}

// Import appends every row of a legacy leave log. Rows are stored in one transaction.
// Imported substitutions are not checked against the current timetable and send no notices.
func (s *LeaveService) Import(ctx context.Context, filename string, r io.Reader) (*dto.AbsenceImportResponse, error) {
	registry := s.roster.Roster()
	if registry == nil {
		return nil, validationError("roster is not loaded")
	}
	sheets, err := importer.ReadSheets(r, filename)
	if err != nil {
		return nil, translateRoutineError(err, "failed to read leave log")
	}
	parsed, err := importer.ParseLeaveLog(sheets, registry)
	if err != nil {
		return nil, translateRoutineError(err, "failed to parse leave log")
	}
	if len(parsed) == 0 {
		return nil, validationError("leave log has no rows")
	}

	rows := make([]*models.AbsenceRow, 0, len(parsed))
	seen := map[time.Time]struct{}{}
	var dates []time.Time
	for _, item := range parsed {
		rows = append(rows, &models.AbsenceRow{
			Date:        item.Date,
			TeacherCode: item.Teacher.Code,
			LeaveType:   item.LeaveType,
			Assignments: item.Assignments.Stored(),
		})
		day := models.CalendarDay(item.Date)
		if _, ok := seen[day]; !ok {
			seen[day] = struct{}{}
			dates = append(dates, day)
		}
	}

	s.mu.Lock()
	err = s.store.CreateBatch(ctx, rows)
	s.mu.Unlock()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to import leave log")
	}
	s.invalidateDates(ctx, dates...)

	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	labels := make([]string, 0, len(dates))
	for _, d := range dates {
		labels = append(labels, models.FormatLeaveDate(d))
	}
	s.logger.Info("leave log imported", zap.String("filename", filename), zap.Int("rows", len(rows)))
	return &dto.AbsenceImportResponse{Imported: len(rows), Dates: labels}, nil
}

// Ledger rebuilds the ledger for one date from the store.
func (s *LeaveService) Ledger(ctx context.Context, date time.Time) (*routine.Ledger, error) {
	return s.ledger(ctx, date)
}

func (s *LeaveService) ledger(ctx context.Context, date time.Time) (*routine.Ledger, error) {
	records, err := s.ListByDate(ctx, date)
	if err != nil {
		return nil, err
	}
	return routine.NewLedger(records...), nil
}

// hydrate resolves stored codes against the roster. Codes missing from the roster keep
// the bare code so historic rows stay readable.
func (s *LeaveService) hydrate(rows []models.AbsenceRow) []models.AbsenceRecord {
	registry := s.roster.Roster()
	ref := func(code string) models.TeacherRef {
		if registry != nil {
			if known, ok := registry.Lookup(code); ok {
				return known
			}
		}
		return models.TeacherRef{Code: code}
	}
	out := make([]models.AbsenceRecord, 0, len(rows))
	for _, row := range rows {
		assignments := make(models.Assignments, 0, len(row.Assignments))
		for _, stored := range row.Assignments {
			assignments = assignments.With(stored.Slot, ref(stored.SubstituteCode))
		}
		out = append(out, models.AbsenceRecord{
			ID:          row.ID,
			Date:        models.CalendarDay(row.Date),
			Teacher:     ref(row.TeacherCode),
			LeaveType:   row.LeaveType,
			Assignments: assignments,
			CreatedAt:   row.CreatedAt,
		})
	}
	return out
}
