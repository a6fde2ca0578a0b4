package service

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/jengzang/places-backend-go/internal/models"
	"github.com/jengzang/places-backend-go/internal/repository"
)

// PlaceService handles labeling, enrichment callbacks and place queries
type PlaceService struct {
	placeRepo   *repository.PlaceRepository
	matchRadius float64
	validate    *validator.Validate
	log         logrus.FieldLogger
}

// NewPlaceService creates a new place service. matchRadius is the default radius of nearest-place
// queries.
func NewPlaceService(placeRepo *repository.PlaceRepository, matchRadius float64, log logrus.FieldLogger) *PlaceService {
	return &PlaceService{
		placeRepo:   placeRepo,
		matchRadius: matchRadius,
		validate:    validator.New(),
		log:         log,
	}
}

// GetPlace returns one of the subject's places
func (s *PlaceService) GetPlace(ctx context.Context, subjectID string, id int64) (*models.Place, error) {
	return s.placeRepo.GetByID(ctx, subjectID, id)
}

// ListPlaces returns the subject's places
func (s *PlaceService) ListPlaces(ctx context.Context, subjectID string, filter models.PlaceFilter) ([]models.Place, error) {
	if filter.OrderBy != "" && filter.OrderBy != "visits" && filter.OrderBy != "recent" {
		return nil, fmt.Errorf("%w: unknown order %q", ErrInvalidRequest, filter.OrderBy)
	}
	return s.placeRepo.List(ctx, subjectID, filter)
}

// NearestPlace returns the subject's place nearest to (lat, lon) within radius, or nil. A zero
// radius uses the match radius.
func (s *PlaceService) NearestPlace(ctx context.Context, subjectID string, lat, lon, radius float64) (*models.Place, error) {
	if radius <= 0 {
		radius = s.matchRadius
	}
	return s.placeRepo.Nearest(ctx, subjectID, lat, lon, radius)
}

// Label sets the human label and category of a place. Detection state is not touched.
func (s *PlaceService) Label(ctx context.Context, subjectID string, id int64, label models.PlaceLabel) (*models.Place, error) {
	if err := s.validate.Struct(label); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if label.Label == nil && label.Category == nil {
		return nil, fmt.Errorf("%w: label or category is required", ErrInvalidRequest)
	}

	if err := s.placeRepo.UpdateLabel(ctx, subjectID, id, label); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"subject": subjectID, "place_id": id}).Info("Place labeled")
	return s.placeRepo.GetByID(ctx, subjectID, id)
}

// ApplyEnrichment merges externally supplied suggestions into a place. Fields the place already
// has, in particular a human label, are kept.
func (s *PlaceService) ApplyEnrichment(ctx context.Context, subjectID string, id int64, suggestion models.PlaceSuggestion) (*models.Place, error) {
	if err := s.validate.Struct(suggestion); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if suggestion.Empty() {
		return nil, fmt.Errorf("%w: empty suggestion", ErrInvalidRequest)
	}

	if err := s.placeRepo.ApplySuggestion(ctx, subjectID, id, suggestion); err != nil {
		return nil, err
	}

	return s.placeRepo.GetByID(ctx, subjectID, id)
}
