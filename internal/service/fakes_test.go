package service

import (
	"context"
	"encoding/json"
	"path"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/bps-routine/internal/models"
	"github.com/noah-isme/bps-routine/internal/roster"
	appErrors "github.com/noah-isme/bps-routine/pkg/errors"
	"github.com/noah-isme/bps-routine/pkg/jobs"
)

// monday is 5 January 2026.
var monday = time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)

const timetableCSV = `Teacher,Day,Start,End,Class,Section,Subject,Class Size
TR,Monday,10:30,11:15,CLASS II,A,Bengali,30
TR,Monday,11:15,12:00,CLASS III,A,Math,32
RS,Monday,11:15,12:00,CLASS IV,A,English,40
UJ,Monday,11:15,12:00,CLASS V,A,Science,25
SB,Monday,10:30,11:15,CLASS IV,A,History,40
BP,Tuesday,10:30,11:15,CLASS V,A,Math,25
`

func testTeachers() []models.TeacherRef {
	return []models.TeacherRef{
		{Code: "TR", DisplayName: "Tapasi Rana", Email: "tapasi@example.org"},
		{Code: "RS", DisplayName: "Rohini Singh", Email: "rohini@example.org"},
		{Code: "UJ", DisplayName: "Uday Narayan Jana"},
		{Code: "BP", DisplayName: "Bimal Kumar Patra", Email: "bimal@example.org"},
		{Code: "SB", DisplayName: "Sujata Biswas Rotha"},
	}
}

type teacherStoreStub struct {
	refs   []models.TeacherRef
	synced []models.TeacherRef
	err    error
}

func (s *teacherStoreStub) List(ctx context.Context) ([]models.TeacherRef, error) {
	return s.refs, s.err
}

func (s *teacherStoreStub) Sync(ctx context.Context, refs []models.TeacherRef) error {
	if s.err != nil {
		return s.err
	}
	s.synced = append([]models.TeacherRef(nil), refs...)
	return nil
}

type scheduleStoreStub struct {
	entries  []models.ScheduleEntry
	latest   *models.TimetableImport
	listHits int
	err      error
}

func (s *scheduleStoreStub) ListAll(ctx context.Context) ([]models.ScheduleEntry, error) {
	s.listHits++
	return s.entries, s.err
}

func (s *scheduleStoreStub) Replace(ctx context.Context, filename string, entries []models.ScheduleEntry) (*models.TimetableImport, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.entries = append([]models.ScheduleEntry(nil), entries...)
	s.latest = &models.TimetableImport{ID: uuid.NewString(), Filename: filename, EntryCount: len(entries), ImportedAt: time.Now().UTC()}
	return s.latest, nil
}

func (s *scheduleStoreStub) LatestImport(ctx context.Context) (*models.TimetableImport, error) {
	return s.latest, nil
}

type absenceStoreStub struct {
	mu   sync.Mutex
	rows []models.AbsenceRow
	err  error
}

func (s *absenceStoreStub) Create(ctx context.Context, row *models.AbsenceRow) error {
	return s.CreateBatch(ctx, []*models.AbsenceRow{row})
}

func (s *absenceStoreStub) CreateBatch(ctx context.Context, rows []*models.AbsenceRow) error {
	if s.err != nil {
		return s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range rows {
		if row.ID == "" {
			row.ID = uuid.NewString()
		}
		if row.CreatedAt.IsZero() {
			row.CreatedAt = time.Now().UTC()
		}
		row.Date = models.CalendarDay(row.Date)
		s.rows = append(s.rows, *row)
	}
	return nil
}

func (s *absenceStoreStub) ListByDate(ctx context.Context, date time.Time) ([]models.AbsenceRow, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	day := models.CalendarDay(date)
	var out []models.AbsenceRow
	for _, row := range s.rows {
		if row.Date.Equal(day) {
			out = append(out, row)
		}
	}
	return out, nil
}

func (s *absenceStoreStub) List(ctx context.Context, filter models.AbsenceFilter) ([]models.AbsenceRow, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.AbsenceRow
	for _, row := range s.rows {
		if filter.TeacherCode != "" && row.TeacherCode != filter.TeacherCode {
			continue
		}
		if filter.From != nil && row.Date.Before(*filter.From) {
			continue
		}
		if filter.To != nil && row.Date.After(*filter.To) {
			continue
		}
		out = append(out, row)
	}
	return out, len(out), nil
}

// memoryCache is an in-process CacheRepository with glob invalidation.
type memoryCache struct {
	mu      sync.Mutex
	items   map[string][]byte
	deleted []string
}

func newMemoryCache() *memoryCache {
	return &memoryCache{items: map[string][]byte{}}
}

func (m *memoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	m.mu.Lock()
	raw, ok := m.items[key]
	m.mu.Unlock()
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.items[key] = raw
	m.mu.Unlock()
	return nil
}

func (m *memoryCache) DeleteByPattern(ctx context.Context, pattern string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, pattern)
	for key := range m.items {
		if ok, _ := path.Match(pattern, key); ok {
			delete(m.items, key)
		}
	}
	return nil
}

func (m *memoryCache) keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.items))
	for key := range m.items {
		out = append(out, key)
	}
	return out
}

type queueStub struct {
	mu   sync.Mutex
	jobs []jobs.Job
	err  error
}

func (q *queueStub) Enqueue(job jobs.Job) error {
	if q.err != nil {
		return q.err
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs = append(q.jobs, job)
	return nil
}

// routineFixture wires every routine service over in-memory stores.
type routineFixture struct {
	roster    *RosterService
	schedules *scheduleStoreStub
	absences  *absenceStoreStub
	cacheRepo *memoryCache
	cache     *CacheService
	metrics   *MetricsService
	notices   *queueStub
	timetable *TimetableService
	leave     *LeaveService
	routine   *RoutineService
}

func newRoutineFixture(t *testing.T) *routineFixture {
	t.Helper()
	registry, err := models.NewRoster(testTeachers())
	require.NoError(t, err)

	f := &routineFixture{
		schedules: &scheduleStoreStub{},
		absences:  &absenceStoreStub{},
		cacheRepo: newMemoryCache(),
		metrics:   NewMetricsService(),
		notices:   &queueStub{},
	}
	f.roster = NewRosterService(nil, zap.NewNop())
	require.NoError(t, f.roster.Apply(context.Background(), &roster.Document{School: "Bidhannagar Public School", Roster: registry}))
	f.cache = NewCacheService(f.cacheRepo, f.metrics, time.Minute, zap.NewNop(), true)
	f.timetable = NewTimetableService(f.schedules, f.roster, f.cache, f.metrics, 0, zap.NewNop())
	f.leave = NewLeaveService(f.absences, f.roster, f.timetable, f.cache, f.notices, nil, zap.NewNop())
	f.routine = NewRoutineService(f.roster, f.timetable, f.leave, f.cache, f.metrics, nil, zap.NewNop(), RoutineConfig{Location: time.UTC, CacheTTL: time.Minute})
	f.routine.now = func() time.Time { return monday.Add(11*time.Hour + 20*time.Minute) }

	_, err = f.timetable.Import(context.Background(), "routine.csv", strings.NewReader(timetableCSV))
	require.NoError(t, err)
	return f
}
