package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jengzang/places-backend-go/internal/models"
	"github.com/jengzang/places-backend-go/internal/spatial"
)

const placeColumns = `id, subject_id, label, category, latitude, longitude, geohash, radius_m,
	address, provider, provider_id, visit_count, created_at, updated_at`

// DefaultPlaceRadius is the radius stored on newly created places
const DefaultPlaceRadius = 50.0

// PlaceRepository handles database operations for places
type PlaceRepository struct {
	db Querier
}

// NewPlaceRepository creates a new place repository
func NewPlaceRepository(db Querier) *PlaceRepository {
	return &PlaceRepository{db: db}
}

// Nearest returns the subject's place closest to (lat, lon) within radius meters, or nil when
// there is none. Candidates come from the geohash cells covering the circle and are ranked by
// great-circle distance.
func (r *PlaceRepository) Nearest(ctx context.Context, subjectID string, lat, lon, radius float64) (*models.Place, error) {
	cells := spatial.CoveringCells(lat, lon, radius)

	query := `SELECT ` + placeColumns + ` FROM places WHERE subject_id = ?`
	args := []interface{}{subjectID}
	// Without a covering (poles, antimeridian) every place of the subject is a candidate
	if len(cells) > 0 {
		conditions := make([]string, 0, len(cells))
		for _, cell := range cells {
			conditions = append(conditions, "(geohash >= ? AND geohash < ?)")
			args = append(args, cell, cell+"~")
		}
		query += ` AND (` + strings.Join(conditions, " OR ") + `)`
	}

	var candidates []models.Place
	if err := r.db.SelectContext(ctx, &candidates, query, args...); err != nil {
		return nil, fmt.Errorf("failed to query nearby places: %w", err)
	}

	var best *models.Place
	bestDist := radius
	for i := range candidates {
		d := spatial.HaversineDistance(lat, lon, candidates[i].Latitude, candidates[i].Longitude)
		if d > radius {
			continue
		}
		if best == nil || d < bestDist || (d == bestDist && candidates[i].ID < best.ID) {
			best = &candidates[i]
			bestDist = d
		}
	}

	if best != nil {
		best.Distance = &bestDist
	}
	return best, nil
}

// Create inserts a new place and returns the persisted record
func (r *PlaceRepository) Create(ctx context.Context, place *models.Place) (*models.Place, error) {
	now := time.Now().Unix()

	created := *place
	created.Geohash = spatial.EncodeGeohash(place.Latitude, place.Longitude)
	if created.RadiusM <= 0 {
		created.RadiusM = DefaultPlaceRadius
	}
	created.VisitCount = 0
	created.CreatedAt = now
	created.UpdatedAt = now

	query := `INSERT INTO places
		(subject_id, label, category, latitude, longitude, geohash, radius_m, address, provider, provider_id, visit_count, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?)`

	res, err := r.db.ExecContext(ctx, query,
		created.SubjectID, created.Label, created.Category, created.Latitude, created.Longitude,
		created.Geohash, created.RadiusM, created.Address, created.Provider, created.ProviderID,
		created.CreatedAt, created.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create place: %w", err)
	}

	created.ID, err = res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read place id: %w", err)
	}

	return &created, nil
}

// GetByID returns one of the subject's places
func (r *PlaceRepository) GetByID(ctx context.Context, subjectID string, id int64) (*models.Place, error) {
	query := `SELECT ` + placeColumns + ` FROM places WHERE subject_id = ? AND id = ?`

	var place models.Place
	if err := r.db.GetContext(ctx, &place, query, subjectID, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get place: %w", err)
	}
	return &place, nil
}

// List returns the subject's places
func (r *PlaceRepository) List(ctx context.Context, subjectID string, filter models.PlaceFilter) ([]models.Place, error) {
	query := `SELECT ` + placeColumns + ` FROM places WHERE subject_id = ?`
	args := []interface{}{subjectID}

	if filter.Category != "" {
		query += " AND category = ?"
		args = append(args, filter.Category)
	}

	switch filter.OrderBy {
	case "recent":
		query += " ORDER BY updated_at DESC, id DESC"
	case "visits", "":
		query += " ORDER BY visit_count DESC, id"
	default:
		return nil, fmt.Errorf("invalid order: %s", filter.OrderBy)
	}

	if filter.Limit < 1 || filter.Limit > 1000 {
		filter.Limit = 100
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	query += " LIMIT ? OFFSET ?"
	args = append(args, filter.Limit, filter.Offset)

	places := []models.Place{}
	if err := r.db.SelectContext(ctx, &places, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list places: %w", err)
	}
	return places, nil
}

// IncrementVisitCount adds one recorded visit to a place
func (r *PlaceRepository) IncrementVisitCount(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE places SET visit_count = visit_count + 1, updated_at = ? WHERE id = ?`,
		time.Now().Unix(), id)
	if err != nil {
		return fmt.Errorf("failed to increment visit count: %w", err)
	}

	return expectOneRow(res)
}

// UpdateLabel sets the label and category of a place. Nil fields keep their current value.
func (r *PlaceRepository) UpdateLabel(ctx context.Context, subjectID string, id int64, label models.PlaceLabel) error {
	query := `UPDATE places
		SET label = COALESCE(?, label), category = COALESCE(?, category), updated_at = ?
		WHERE subject_id = ? AND id = ?`

	res, err := r.db.ExecContext(ctx, query, label.Label, label.Category, time.Now().Unix(), subjectID, id)
	if err != nil {
		return fmt.Errorf("failed to update place label: %w", err)
	}

	return expectOneRow(res)
}

// ApplySuggestion merges enrichment results into a place. Only empty fields are filled, so a
// human label or category is never replaced.
func (r *PlaceRepository) ApplySuggestion(ctx context.Context, subjectID string, id int64, s models.PlaceSuggestion) error {
	query := `UPDATE places
		SET label = COALESCE(NULLIF(label, ''), ?),
		    category = COALESCE(NULLIF(category, ''), ?),
		    address = COALESCE(NULLIF(address, ''), ?),
		    provider = COALESCE(NULLIF(provider, ''), ?),
		    provider_id = COALESCE(NULLIF(provider_id, ''), ?),
		    updated_at = ?
		WHERE subject_id = ? AND id = ?`

	res, err := r.db.ExecContext(ctx, query,
		s.Label, s.Category, s.Address, s.Provider, s.ProviderID, time.Now().Unix(), subjectID, id)
	if err != nil {
		return fmt.Errorf("failed to apply place suggestion: %w", err)
	}

	return expectOneRow(res)
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
