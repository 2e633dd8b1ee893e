package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/bps-routine/internal/dto"
	"github.com/noah-isme/bps-routine/internal/models"
	"github.com/noah-isme/bps-routine/internal/routine"
	appErrors "github.com/noah-isme/bps-routine/pkg/errors"
)

type ledgerProvider interface {
	Ledger(ctx context.Context, date time.Time) (*routine.Ledger, error)
}

type routineCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// RoutineConfig tunes RoutineService.
type RoutineConfig struct {
	// Location is the school's timezone, used when date or time are omitted.
	Location *time.Location
	CacheTTL time.Duration
}

// RoutineService answers the resolver questions over the active timetable and the
// absences stored for the requested date.
type RoutineService struct {
	roster    rosterProvider
	timetable indexProvider
	ledgers   ledgerProvider
	cache     routineCache
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       RoutineConfig
	now       func() time.Time
}

// NewRoutineService constructs a RoutineService.
func NewRoutineService(roster rosterProvider, timetable indexProvider, ledgers ledgerProvider, cache routineCache, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cfg RoutineConfig) *RoutineService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	return &RoutineService{
		roster:    roster,
		timetable: timetable,
		ledgers:   ledgers,
		cache:     cache,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
	}
}

// Current resolves where a teacher should be at a moment. Date and time default to now
// in the configured timezone.
func (s *RoutineService) Current(ctx context.Context, query dto.CurrentQuery) (*dto.CurrentResponse, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "teacher is required")
	}
	teacher, err := s.lookup(query.Teacher)
	if err != nil {
		s.metrics.ObserveResolution(OutcomeUnknown)
		return nil, err
	}
	date, err := s.date(query.Date)
	if err != nil {
		return nil, err
	}
	at, err := s.clock(query.Time)
	if err != nil {
		return nil, err
	}
	resolver, ledger, err := s.prepare(ctx, date)
	if err != nil {
		return nil, err
	}

	assignment, err := resolver.ResolveCurrent(teacher.Code, date, at, ledger)
	if err != nil {
		var conflict *routine.ConflictError
		if errors.As(err, &conflict) {
			s.metrics.ObserveResolution(OutcomeConflict)
			s.logger.Warn("resolution conflict",
				zap.String("teacher", teacher.Code),
				zap.String("date", models.FormatLeaveDate(date)),
				zap.Stringer("at", at),
				zap.Error(err),
			)
		}
		return nil, translateRoutineError(err, "failed to resolve assignment")
	}
	s.metrics.ObserveResolution(string(assignment.Kind))
	return &dto.CurrentResponse{
		Teacher:    teacher,
		Date:       models.FormatLeaveDate(date),
		Day:        models.WeekdayOf(date),
		Time:       at,
		Assignment: assignment,
	}, nil
}

// Plan ranks substitute candidates for every entry an absent teacher vacates on a date.
func (s *RoutineService) Plan(ctx context.Context, query dto.PlanQuery) (*dto.PlanResponse, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "absent teacher is required")
	}
	absent, err := s.lookup(query.Absent)
	if err != nil {
		return nil, err
	}
	date, err := s.date(query.Date)
	if err != nil {
		return nil, err
	}

	key := planKey(date, absent.Code)
	var cached dto.PlanResponse
	if s.cacheGet(ctx, key, &cached) {
		return &cached, nil
	}

	resolver, ledger, err := s.prepare(ctx, date)
	if err != nil {
		return nil, err
	}
	slots, err := resolver.PlanSubstitution(absent.Code, date, ledger)
	if err != nil {
		return nil, translateRoutineError(err, "failed to plan substitution")
	}
	s.metrics.ObservePlan(len(slots))

	resp := &dto.PlanResponse{
		Absent: absent,
		Date:   models.FormatLeaveDate(date),
		Day:    models.WeekdayOf(date),
		Slots:  slots,
	}
	s.cacheSet(ctx, key, resp)
	return resp, nil
}

// Overview lists every entry of a date with the teacher actually taking it.
func (s *RoutineService) Overview(ctx context.Context, query dto.OverviewQuery) (*dto.OverviewResponse, error) {
	date, err := s.date(query.Date)
	if err != nil {
		return nil, err
	}
	key := overviewKey(date)
	var cached dto.OverviewResponse
	if s.cacheGet(ctx, key, &cached) {
		return &cached, nil
	}

	resolver, ledger, err := s.prepare(ctx, date)
	if err != nil {
		return nil, err
	}
	rows := resolver.Overview(date, ledger)
	resp := &dto.OverviewResponse{
		Date: models.FormatLeaveDate(date),
		Day:  models.WeekdayOf(date),
		Rows: rows,
	}
	for _, row := range rows {
		switch row.Status {
		case models.CoverageRegular:
			resp.Summary.Regular++
		case models.CoverageSubstituted:
			resp.Summary.Substituted++
		case models.CoverageUncovered:
			resp.Summary.Uncovered++
		}
	}
	s.cacheSet(ctx, key, resp)
	return resp, nil
}

func (s *RoutineService) prepare(ctx context.Context, date time.Time) (*routine.Resolver, *routine.Ledger, error) {
	index, err := s.timetable.Current(ctx)
	if err != nil {
		return nil, nil, err
	}
	ledger, err := s.ledgers.Ledger(ctx, date)
	if err != nil {
		return nil, nil, err
	}
	return routine.NewResolver(s.roster.Roster(), index), ledger, nil
}

func (s *RoutineService) lookup(raw string) (models.TeacherRef, error) {
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

func (s *RoutineService) date(raw string) (time.Time, error) {
	if raw == "" {
		return models.CalendarDay(s.now().In(s.cfg.Location)), nil
	}
	date, err := models.ParseLeaveDate(raw)
	if err != nil {
		return time.Time{}, validationError(err.Error())
	}
	return date, nil
}

func (s *RoutineService) clock(raw string) (models.ClockTime, error) {
	if raw == "" {
		return models.ClockOf(s.now().In(s.cfg.Location)), nil
	}
	at, err := models.ParseClock(raw)
	if err != nil {
		return 0, validationError(err.Error())
	}
	return at, nil
}

func (s *RoutineService) cacheGet(ctx context.Context, key string, dest interface{}) bool {
	if s.cache == nil {
		return false
	}
	hit, err := s.cache.Get(ctx, key, dest)
	if err != nil {
		return false
	}
	return hit
}

func (s *RoutineService) cacheSet(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Set(ctx, key, value, s.cfg.CacheTTL)
}
