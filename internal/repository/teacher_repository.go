package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/bps-routine/internal/models"
	"github.com/noah-isme/bps-routine/pkg/database"
)

// TeacherRepository mirrors the roster into the teachers table.
type TeacherRepository struct {
	db *sqlx.DB
}

// NewTeacherRepository creates a new teacher repository.
func NewTeacherRepository(db *sqlx.DB) *TeacherRepository {
	return &TeacherRepository{db: db}
}

type teacherRow struct {
	Code        string `db:"code"`
	DisplayName string `db:"display_name"`
	Email       string `db:"email"`
	Position    int    `db:"position"`
}

// List returns active teachers in roster order.
func (r *TeacherRepository) List(ctx context.Context) ([]models.TeacherRef, error) {
	const query = `SELECT code, display_name, email, position FROM teachers WHERE active = TRUE ORDER BY position ASC, code ASC`
	var rows []teacherRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list teachers: %w", err)
	}
	refs := make([]models.TeacherRef, 0, len(rows))
	for _, row := range rows {
		refs = append(refs, models.TeacherRef{Code: row.Code, DisplayName: row.DisplayName, Email: row.Email})
	}
	return refs, nil
}

// Sync upserts the roster and deactivates teachers no longer listed. History keeps their codes.
func (r *TeacherRepository) Sync(ctx context.Context, refs []models.TeacherRef) error {
	const upsert = `INSERT INTO teachers (code, display_name, email, position, active)
VALUES (:code, :display_name, :email, :position, TRUE)
ON CONFLICT (code) DO UPDATE SET display_name = EXCLUDED.display_name, email = EXCLUDED.email, position = EXCLUDED.position, active = TRUE`
	const deactivate = `UPDATE teachers SET active = FALSE WHERE active = TRUE AND NOT (code = ANY($1))`

	return database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		codes := make([]string, 0, len(refs))
		for i, ref := range refs {
			row := teacherRow{Code: ref.Code, DisplayName: ref.DisplayName, Email: ref.Email, Position: i}
			if _, err := tx.NamedExecContext(ctx, upsert, row); err != nil {
				return fmt.Errorf("upsert teacher %s: %w", ref.Code, err)
			}
			codes = append(codes, ref.Code)
		}
		if _, err := tx.ExecContext(ctx, deactivate, pq.Array(codes)); err != nil {
			return fmt.Errorf("deactivate teachers: %w", err)
		}
		return nil
	})
}
