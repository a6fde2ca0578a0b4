package service

import (
	"context"
	"fmt"

	"github.com/jengzang/places-backend-go/internal/analysis"
	"github.com/jengzang/places-backend-go/internal/models"
	"github.com/jengzang/places-backend-go/internal/repository"
)

// StatsService computes travel statistics on demand
type StatsService struct {
	trackRepo *repository.TrackRepository
	params    analysis.TravelParams
}

// NewStatsService creates a new stats service
func NewStatsService(trackRepo *repository.TrackRepository, params analysis.TravelParams) *StatsService {
	return &StatsService{
		trackRepo: trackRepo,
		params:    params,
	}
}

// TravelStats returns distance and speed aggregates over [start, end]
func (s *StatsService) TravelStats(ctx context.Context, subjectID string, start, end int64) (*models.TravelStats, error) {
	if end < start {
		return nil, fmt.Errorf("%w: end before start", ErrInvalidRequest)
	}

	points, err := s.trackRepo.PointsInWindow(ctx, subjectID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to get travel stats: %w", err)
	}

	stats := analysis.ComputeTravelStats(points, start, end, s.params)
	stats.SubjectID = subjectID
	return &stats, nil
}
