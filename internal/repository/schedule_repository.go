package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/bps-routine/internal/models"
	"github.com/noah-isme/bps-routine/pkg/database"
)

const scheduleInsertChunk = 500

// ScheduleRepository stores the live weekly timetable.
type ScheduleRepository struct {
	db *sqlx.DB
}

// NewScheduleRepository creates a new schedule repository.
func NewScheduleRepository(db *sqlx.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// ListAll returns every entry ordered by day, start time and teacher.
func (r *ScheduleRepository) ListAll(ctx context.Context) ([]models.ScheduleEntry, error) {
	const query = `SELECT teacher_code, day_of_week, start_time, end_time, class_label, section_label, subject, class_size
FROM schedule_entries ORDER BY day_index ASC, start_time ASC, teacher_code ASC`
	var entries []models.ScheduleEntry
	if err := r.db.SelectContext(ctx, &entries, query); err != nil {
		return nil, fmt.Errorf("list schedule entries: %w", err)
	}
	return entries, nil
}

type scheduleRow struct {
	ImportID string `db:"import_id"`
	DayIndex int    `db:"day_index"`
	models.ScheduleEntry
}

// Replace swaps the whole timetable for entries in one transaction and records the import.
func (r *ScheduleRepository) Replace(ctx context.Context, filename string, entries []models.ScheduleEntry) (*models.TimetableImport, error) {
	rec := &models.TimetableImport{
		ID:         uuid.NewString(),
		Filename:   filename,
		EntryCount: len(entries),
		ImportedAt: time.Now().UTC(),
	}
	const insertImport = `INSERT INTO timetable_imports (id, filename, entry_count, imported_at)
VALUES (:id, :filename, :entry_count, :imported_at)`
	const insertEntries = `INSERT INTO schedule_entries (import_id, teacher_code, day_of_week, day_index, start_time, end_time, class_label, section_label, subject, class_size)
VALUES (:import_id, :teacher_code, :day_of_week, :day_index, :start_time, :end_time, :class_label, :section_label, :subject, :class_size)`

	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM schedule_entries`); err != nil {
			return fmt.Errorf("clear schedule entries: %w", err)
		}
		if _, err := tx.NamedExecContext(ctx, insertImport, rec); err != nil {
			return fmt.Errorf("record timetable import: %w", err)
		}
		for start := 0; start < len(entries); start += scheduleInsertChunk {
			end := start + scheduleInsertChunk
			if end > len(entries) {
				end = len(entries)
			}
			rows := make([]scheduleRow, 0, end-start)
			for _, entry := range entries[start:end] {
				rows = append(rows, scheduleRow{ImportID: rec.ID, DayIndex: int(entry.Day), ScheduleEntry: entry})
			}
			if _, err := tx.NamedExecContext(ctx, insertEntries, rows); err != nil {
				return fmt.Errorf("insert schedule entries: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// LatestImport returns the most recent import, or nil when none exists.
func (r *ScheduleRepository) LatestImport(ctx context.Context) (*models.TimetableImport, error) {
	const query = `SELECT id, filename, entry_count, imported_at FROM timetable_imports ORDER BY imported_at DESC LIMIT 1`
	var rec models.TimetableImport
	if err := r.db.GetContext(ctx, &rec, query); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get latest timetable import: %w", err)
	}
	return &rec, nil
}
