package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/bps-routine/internal/models"
	"github.com/noah-isme/bps-routine/pkg/database"
)

const absenceColumns = `id, absence_date, teacher_code, leave_type, assignments, created_at`

// AbsenceRepository persists the append-only leave ledger.
type AbsenceRepository struct {
	db *sqlx.DB
}

// NewAbsenceRepository creates a new absence repository.
func NewAbsenceRepository(db *sqlx.DB) *AbsenceRepository {
	return &AbsenceRepository{db: db}
}

const insertAbsence = `INSERT INTO absences (id, absence_date, teacher_code, leave_type, assignments, created_at)
VALUES (:id, :absence_date, :teacher_code, :leave_type, :assignments, :created_at)`

func prepareAbsence(row *models.AbsenceRow) {
	if row.ID == "" {
		row.ID = uuid.NewString()
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	row.Date = models.CalendarDay(row.Date)
}

// Create appends one absence record.
func (r *AbsenceRepository) Create(ctx context.Context, row *models.AbsenceRow) error {
	prepareAbsence(row)
	if _, err := r.db.NamedExecContext(ctx, insertAbsence, row); err != nil {
		return fmt.Errorf("create absence: %w", err)
	}
	return nil
}

// CreateBatch appends several records atomically.
func (r *AbsenceRepository) CreateBatch(ctx context.Context, rows []*models.AbsenceRow) error {
	if len(rows) == 0 {
		return nil
	}
	return database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		for _, row := range rows {
			prepareAbsence(row)
			if _, err := tx.NamedExecContext(ctx, insertAbsence, row); err != nil {
				return fmt.Errorf("create absence for %s: %w", row.TeacherCode, err)
			}
		}
		return nil
	})
}

// ListByDate returns the records of one calendar day in insertion order.
func (r *AbsenceRepository) ListByDate(ctx context.Context, date time.Time) ([]models.AbsenceRow, error) {
	query := `SELECT ` + absenceColumns + ` FROM absences WHERE absence_date = $1 ORDER BY created_at ASC, seq ASC`
	var rows []models.AbsenceRow
	if err := r.db.SelectContext(ctx, &rows, query, models.CalendarDay(date)); err != nil {
		return nil, fmt.Errorf("list absences by date: %w", err)
	}
	return rows, nil
}

// List returns records matching the filter, newest date first, with a total count.
func (r *AbsenceRepository) List(ctx context.Context, filter models.AbsenceFilter) ([]models.AbsenceRow, int, error) {
	base := "FROM absences WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.From != nil {
		conditions = append(conditions, fmt.Sprintf("absence_date >= $%d", len(args)+1))
		args = append(args, models.CalendarDay(*filter.From))
	}
	if filter.To != nil {
		conditions = append(conditions, fmt.Sprintf("absence_date <= $%d", len(args)+1))
		args = append(args, models.CalendarDay(*filter.To))
	}
	if filter.TeacherCode != "" {
		conditions = append(conditions, fmt.Sprintf("teacher_code = $%d", len(args)+1))
		args = append(args, filter.TeacherCode)
	}
	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, args...); err != nil {
		return nil, 0, fmt.Errorf("count absences: %w", err)
	}

	query := fmt.Sprintf("SELECT %s %s ORDER BY absence_date DESC, created_at ASC, seq ASC LIMIT $%d OFFSET $%d",
		absenceColumns, base, len(args)+1, len(args)+2)
	args = append(args, size, (page-1)*size)

	var rows []models.AbsenceRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list absences: %w", err)
	}
	return rows, total, nil
}
