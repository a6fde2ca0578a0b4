package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/jengzang/places-backend-go/internal/models"
)

const trackPointColumns = `id, subject_id, latitude, longitude, accuracy, altitude, speed, course,
	captured_at, timezone, device_id, place_id, processed_at, created_at`

// DefaultBatchSize caps how many unprocessed points one fetch returns
const DefaultBatchSize = 1000

// TrackRepository handles database operations for track points
type TrackRepository struct {
	db Querier
}

// NewTrackRepository creates a new track repository
func NewTrackRepository(db Querier) *TrackRepository {
	return &TrackRepository{db: db}
}

// InsertBatch stores points, silently skipping samples already stored for the same subject,
// timestamp and coordinate
func (r *TrackRepository) InsertBatch(ctx context.Context, points []models.TrackPoint) (inserted, skipped int, err error) {
	query := `INSERT OR IGNORE INTO track_points
		(subject_id, latitude, longitude, accuracy, altitude, speed, course, captured_at, timezone, device_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	now := time.Now().Unix()
	for _, p := range points {
		res, err := r.db.ExecContext(ctx, query,
			p.SubjectID, p.Latitude, p.Longitude, p.Accuracy, p.Altitude, p.Speed, p.Course,
			p.CapturedAt, p.Timezone, p.DeviceID, now,
		)
		if err != nil {
			return inserted, skipped, fmt.Errorf("failed to insert track point: %w", err)
		}

		n, err := res.RowsAffected()
		if err != nil {
			return inserted, skipped, fmt.Errorf("failed to read affected rows: %w", err)
		}
		if n > 0 {
			inserted++
		} else {
			skipped++
		}
	}

	return inserted, skipped, nil
}

// UnprocessedPoints returns up to limit points not yet consumed by a processing run, oldest first
func (r *TrackRepository) UnprocessedPoints(ctx context.Context, subjectID string, limit int) ([]models.TrackPoint, error) {
	if limit <= 0 {
		limit = DefaultBatchSize
	}

	query := `SELECT ` + trackPointColumns + `
		FROM track_points
		WHERE subject_id = ? AND processed_at IS NULL
		ORDER BY captured_at, id
		LIMIT ?`

	var points []models.TrackPoint
	if err := r.db.SelectContext(ctx, &points, query, subjectID, limit); err != nil {
		return nil, fmt.Errorf("failed to query unprocessed points: %w", err)
	}
	return points, nil
}

// PointsInWindow returns all points with start <= captured_at <= end, oldest first
func (r *TrackRepository) PointsInWindow(ctx context.Context, subjectID string, start, end int64) ([]models.TrackPoint, error) {
	query := `SELECT ` + trackPointColumns + `
		FROM track_points
		WHERE subject_id = ? AND captured_at >= ? AND captured_at <= ?
		ORDER BY captured_at, id`

	var points []models.TrackPoint
	if err := r.db.SelectContext(ctx, &points, query, subjectID, start, end); err != nil {
		return nil, fmt.Errorf("failed to query points in window: %w", err)
	}
	return points, nil
}

// AssignPlace sets the place reference of the given points and marks them processed.
// Assigning a point to the place it already references changes nothing.
func (r *TrackRepository) AssignPlace(ctx context.Context, pointIDs []int64, placeID int64) error {
	now := time.Now().Unix()
	for _, ids := range chunkIDs(pointIDs, maxInArgs) {
		query, args, err := sqlx.In(`UPDATE track_points
			SET place_id = ?, processed_at = COALESCE(processed_at, ?)
			WHERE id IN (?)`, placeID, now, ids)
		if err != nil {
			return fmt.Errorf("failed to build assign query: %w", err)
		}

		if _, err := r.db.ExecContext(ctx, r.db.Rebind(query), args...); err != nil {
			return fmt.Errorf("failed to assign place: %w", err)
		}
	}
	return nil
}

// MarkProcessed marks points as consumed without a place, e.g. points of a transient stop
func (r *TrackRepository) MarkProcessed(ctx context.Context, pointIDs []int64) error {
	now := time.Now().Unix()
	for _, ids := range chunkIDs(pointIDs, maxInArgs) {
		query, args, err := sqlx.In(`UPDATE track_points
			SET processed_at = ?
			WHERE id IN (?) AND processed_at IS NULL`, now, ids)
		if err != nil {
			return fmt.Errorf("failed to build mark query: %w", err)
		}

		if _, err := r.db.ExecContext(ctx, r.db.Rebind(query), args...); err != nil {
			return fmt.Errorf("failed to mark points processed: %w", err)
		}
	}
	return nil
}

// ResetProcessed clears the processing state of points in [start, end] so the next run
// clusters them again. It returns the number of points reset.
func (r *TrackRepository) ResetProcessed(ctx context.Context, subjectID string, start, end int64) (int64, error) {
	query := `UPDATE track_points
		SET processed_at = NULL, place_id = NULL
		WHERE subject_id = ? AND captured_at >= ? AND captured_at <= ? AND processed_at IS NOT NULL`

	res, err := r.db.ExecContext(ctx, query, subjectID, start, end)
	if err != nil {
		return 0, fmt.Errorf("failed to reset processed points: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n, nil
}

// CountUnprocessed returns the size of the subject's backlog
func (r *TrackRepository) CountUnprocessed(ctx context.Context, subjectID string) (int64, error) {
	var count int64
	err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM track_points WHERE subject_id = ? AND processed_at IS NULL`, subjectID)
	if err != nil {
		return 0, fmt.Errorf("failed to count unprocessed points: %w", err)
	}
	return count, nil
}
