package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jengzang/places-backend-go/internal/models"
)

const visitColumns = `id, subject_id, place_id, arrived_at, departed_at, duration_minutes, point_count, created_at, updated_at`

// VisitRepository handles database operations for visits
type VisitRepository struct {
	db Querier
}

// NewVisitRepository creates a new visit repository
func NewVisitRepository(db Querier) *VisitRepository {
	return &VisitRepository{db: db}
}

// Upsert records a visit keyed by (subject, place, arrival). When the key already exists the
// departure, duration and point count are updated instead. inserted reports whether a new row
// was created.
func (r *VisitRepository) Upsert(ctx context.Context, visit *models.Visit) (inserted bool, err error) {
	now := time.Now().Unix()

	res, err := r.db.ExecContext(ctx, `INSERT INTO visits
		(subject_id, place_id, arrived_at, departed_at, duration_minutes, point_count, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(subject_id, place_id, arrived_at) DO NOTHING`,
		visit.SubjectID, visit.PlaceID, visit.ArrivedAt, visit.DepartedAt,
		visit.DurationMinutes, visit.PointCount, now, now,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert visit: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n > 0 {
		return true, nil
	}

	_, err = r.db.ExecContext(ctx, `UPDATE visits
		SET departed_at = ?, duration_minutes = ?, point_count = ?, updated_at = ?
		WHERE subject_id = ? AND place_id = ? AND arrived_at = ?`,
		visit.DepartedAt, visit.DurationMinutes, visit.PointCount, now,
		visit.SubjectID, visit.PlaceID, visit.ArrivedAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update visit: %w", err)
	}

	return false, nil
}

// List returns the subject's visits, most recent arrival first
func (r *VisitRepository) List(ctx context.Context, subjectID string, filter models.VisitFilter) ([]models.Visit, error) {
	query := `SELECT ` + visitColumns + ` FROM visits WHERE subject_id = ?`
	args := []interface{}{subjectID}

	if filter.StartTime > 0 {
		query += " AND arrived_at >= ?"
		args = append(args, filter.StartTime)
	}
	if filter.EndTime > 0 {
		query += " AND arrived_at <= ?"
		args = append(args, filter.EndTime)
	}
	if filter.PlaceID > 0 {
		query += " AND place_id = ?"
		args = append(args, filter.PlaceID)
	}

	if filter.Limit < 1 || filter.Limit > 1000 {
		filter.Limit = 100
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	query += " ORDER BY arrived_at DESC, id DESC LIMIT ? OFFSET ?"
	args = append(args, filter.Limit, filter.Offset)

	visits := []models.Visit{}
	if err := r.db.SelectContext(ctx, &visits, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list visits: %w", err)
	}
	return visits, nil
}

// OverlapSpan returns the earliest arrival and the latest departure of the subject's visits that
// overlap [start, end]. ok is false when no visit overlaps the window.
func (r *VisitRepository) OverlapSpan(ctx context.Context, subjectID string, start, end int64) (from, to int64, ok bool, err error) {
	var span struct {
		From sql.NullInt64 `db:"span_from"`
		To   sql.NullInt64 `db:"span_to"`
	}
	err = r.db.GetContext(ctx, &span, `SELECT MIN(arrived_at) AS span_from, MAX(COALESCE(departed_at, arrived_at)) AS span_to
		FROM visits
		WHERE subject_id = ? AND arrived_at <= ? AND COALESCE(departed_at, arrived_at) >= ?`,
		subjectID, end, start)
	if err != nil {
		return 0, 0, false, fmt.Errorf("failed to query visit span: %w", err)
	}
	if !span.From.Valid {
		return 0, 0, false, nil
	}
	return span.From.Int64, span.To.Int64, true, nil
}
