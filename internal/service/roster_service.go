package service

import (
	"context"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/noah-isme/bps-routine/internal/models"
	"github.com/noah-isme/bps-routine/internal/roster"
	appErrors "github.com/noah-isme/bps-routine/pkg/errors"
)

type teacherStore interface {
	List(ctx context.Context) ([]models.TeacherRef, error)
	Sync(ctx context.Context, refs []models.TeacherRef) error
}

// RosterService holds the teacher registry shared by every other service.
type RosterService struct {
	store  teacherStore
	logger *zap.Logger

	roster atomic.Pointer[models.Roster]
	school atomic.Value
}

// NewRosterService constructs a RosterService.
func NewRosterService(store teacherStore, logger *zap.Logger) *RosterService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RosterService{store: store, logger: logger}
}

// Load reads the roster file and syncs the teachers table with it. Without a file the
// registry is rebuilt from the table.
func (s *RosterService) Load(ctx context.Context, path string) error {
	if path == "" {
		return s.loadFromStore(ctx)
	}
	doc, err := roster.LoadFile(path)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "failed to read roster file")
	}
	return s.Apply(ctx, doc)
}

// Apply installs a parsed roster document and persists it.
func (s *RosterService) Apply(ctx context.Context, doc *roster.Document) error {
	if doc == nil || doc.Roster == nil {
		return validationError("roster is empty")
	}
	if s.store != nil {
		if err := s.store.Sync(ctx, doc.Roster.All()); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sync teachers")
		}
	}
	s.roster.Store(doc.Roster)
	s.school.Store(doc.School)
	s.logger.Info("roster loaded", zap.Int("teachers", doc.Roster.Len()), zap.String("school", doc.School))
	return nil
}

func (s *RosterService) loadFromStore(ctx context.Context) error {
	if s.store == nil {
		return validationError("no roster file configured")
	}
	refs, err := s.store.List(ctx)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teachers")
	}
	if len(refs) == 0 {
		return validationError("no roster file configured and the teachers table is empty")
	}
	registry, err := models.NewRoster(refs)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "stored roster is invalid")
	}
	s.roster.Store(registry)
	s.logger.Info("roster loaded from database", zap.Int("teachers", registry.Len()))
	return nil
}

// Roster returns the current registry; nil before Load.
func (s *RosterService) Roster() *models.Roster {
	return s.roster.Load()
}

// School returns the school name from the roster file.
func (s *RosterService) School() string {
	name, _ := s.school.Load().(string)
	return name
}

// List returns every teacher in roster order.
func (s *RosterService) List() []models.TeacherRef {
	registry := s.Roster()
	if registry == nil {
		return []models.TeacherRef{}
	}
	return registry.All()
}

// Lookup resolves a code or display name.
func (s *RosterService) Lookup(nameOrCode string) (models.TeacherRef, error) {
	registry := s.Roster()
	if registry == nil {
		return models.TeacherRef{}, unknownTeacher(nameOrCode)
	}
	ref, ok := registry.Resolve(nameOrCode)
	if !ok {
		return models.TeacherRef{}, unknownTeacher(nameOrCode)
	}
	return ref, nil
}
