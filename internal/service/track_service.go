package service

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"github.com/jengzang/places-backend-go/internal/database"
	"github.com/jengzang/places-backend-go/internal/models"
	"github.com/jengzang/places-backend-go/internal/repository"
)

// RunTrigger starts a processing run for a subject without waiting for it
type RunTrigger interface {
	Trigger(subjectID string)
}

// TrackService handles business logic for track points
type TrackService struct {
	db        *sqlx.DB
	trackRepo *repository.TrackRepository
	trigger   RunTrigger
	validate  *validator.Validate
	log       logrus.FieldLogger
}

// NewTrackService creates a new track service. trigger may be nil, in which case uploads do not
// start processing runs.
func NewTrackService(db *sqlx.DB, trigger RunTrigger, log logrus.FieldLogger) *TrackService {
	return &TrackService{
		db:        db,
		trackRepo: repository.NewTrackRepository(db),
		trigger:   trigger,
		validate:  validator.New(),
		log:       log,
	}
}

// Ingest validates and stores an upload. Duplicates of stored samples are skipped. The whole batch
// is rejected when any sample is malformed. A processing run is triggered when new points were
// stored.
func (s *TrackService) Ingest(ctx context.Context, subjectID string, batch models.TrackPointBatch) (*models.IngestResult, error) {
	if err := validateSubject(s.validate, subjectID); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBatch, err)
	}
	if err := s.validate.Struct(batch); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBatch, err)
	}

	points := make([]models.TrackPoint, len(batch.Points))
	for i, in := range batch.Points {
		points[i] = models.TrackPoint{
			SubjectID:  subjectID,
			Latitude:   *in.Latitude,
			Longitude:  *in.Longitude,
			Accuracy:   in.Accuracy,
			Altitude:   in.Altitude,
			Speed:      in.Speed,
			Course:     in.Course,
			CapturedAt: *in.CapturedAt,
			Timezone:   in.Timezone,
			DeviceID:   in.DeviceID,
		}
	}

	result := &models.IngestResult{Received: len(points)}
	err := database.Transaction(ctx, s.db, func(tx *sqlx.Tx) error {
		tracks := repository.NewTrackRepository(tx)

		var err error
		result.Inserted, result.Skipped, err = tracks.InsertBatch(ctx, points)
		if err != nil {
			return err
		}
		result.Pending, err = tracks.CountUnprocessed(ctx, subjectID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store points: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"subject":  subjectID,
		"inserted": result.Inserted,
		"skipped":  result.Skipped,
		"pending":  result.Pending,
	}).Info("Points ingested")

	if result.Inserted > 0 && s.trigger != nil {
		s.trigger.Trigger(subjectID)
	}

	return result, nil
}

// UnprocessedPoints returns the oldest points not yet consumed by a processing run
func (s *TrackService) UnprocessedPoints(ctx context.Context, subjectID string, limit int) ([]models.TrackPoint, error) {
	if limit <= 0 || limit > repository.DefaultBatchSize {
		limit = repository.DefaultBatchSize
	}

	points, err := s.trackRepo.UnprocessedPoints(ctx, subjectID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get unprocessed points: %w", err)
	}
	if points == nil {
		points = []models.TrackPoint{}
	}
	return points, nil
}

func validateSubject(v *validator.Validate, subjectID string) error {
	return v.Var(subjectID, "required,max=128,printascii")
}
