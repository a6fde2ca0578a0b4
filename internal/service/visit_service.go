package service

import (
	"context"
	"fmt"

	"github.com/jengzang/places-backend-go/internal/models"
	"github.com/jengzang/places-backend-go/internal/repository"
)

// VisitService handles visit queries
type VisitService struct {
	visitRepo *repository.VisitRepository
}

// NewVisitService creates a new visit service
func NewVisitService(visitRepo *repository.VisitRepository) *VisitService {
	return &VisitService{visitRepo: visitRepo}
}

// ListVisits returns the subject's visits, most recent first
func (s *VisitService) ListVisits(ctx context.Context, subjectID string, filter models.VisitFilter) ([]models.Visit, error) {
	if filter.EndTime > 0 && filter.StartTime > filter.EndTime {
		return nil, fmt.Errorf("%w: end before start", ErrInvalidRequest)
	}
	return s.visitRepo.List(ctx, subjectID, filter)
}
