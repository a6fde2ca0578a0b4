package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"github.com/jengzang/places-backend-go/internal/analysis"
	"github.com/jengzang/places-backend-go/internal/database"
	"github.com/jengzang/places-backend-go/internal/enrichment"
	"github.com/jengzang/places-backend-go/internal/lock"
	"github.com/jengzang/places-backend-go/internal/models"
	"github.com/jengzang/places-backend-go/internal/repository"
)

// DetectionParams holds the thresholds of a processing run
type DetectionParams struct {
	Stay        analysis.StayParams
	MinStay     time.Duration // Shorter clusters are transient
	MatchRadius float64       // Meters from a cluster center to an existing place
	PlaceRadius float64       // Radius stored on new places
	BatchSize   int           // Unprocessed points fetched per batch
	RunTimeout  time.Duration // Deadline of triggered runs
}

// DefaultDetectionParams returns the default thresholds
func DefaultDetectionParams() DetectionParams {
	return DetectionParams{
		Stay:        analysis.DefaultStayParams(),
		MinStay:     5 * time.Minute,
		MatchRadius: 50,
		PlaceRadius: repository.DefaultPlaceRadius,
		BatchSize:   repository.DefaultBatchSize,
		RunTimeout:  2 * time.Minute,
	}
}

// PlaceDetectionService turns unprocessed points into places and visits. Runs for one subject
// are serialized by the locker; runs for different subjects proceed in parallel.
type PlaceDetectionService struct {
	db       *sqlx.DB
	locker   lock.Locker
	enricher enrichment.Enricher
	params   DetectionParams
	log      logrus.FieldLogger

	wg sync.WaitGroup
}

// NewPlaceDetectionService creates a new place detection service. enricher may be nil.
func NewPlaceDetectionService(db *sqlx.DB, locker lock.Locker, enricher enrichment.Enricher, params DetectionParams, log logrus.FieldLogger) *PlaceDetectionService {
	if params.BatchSize < 2 {
		params.BatchSize = repository.DefaultBatchSize
	}
	return &PlaceDetectionService{
		db:       db,
		locker:   locker,
		enricher: enricher,
		params:   params,
		log:      log,
	}
}

// Process runs stay detection over the subject's unprocessed points and waits for it to finish.
// It returns lock.ErrLocked when another run holds the subject for longer than the lock wait.
func (s *PlaceDetectionService) Process(ctx context.Context, subjectID string) (*models.RunSummary, error) {
	return s.withLock(ctx, subjectID, func(log logrus.FieldLogger, summary *models.RunSummary) ([]models.Place, error) {
		return s.run(ctx, log, subjectID, summary)
	})
}

// Reprocess clears the processing state of points in [start, end] and runs detection again.
// The window is first widened to whole visits, so a stay the window cuts through is clustered
// from its first point again and keeps its arrival time. Existing visits are updated in place
// and counters are not incremented twice.
func (s *PlaceDetectionService) Reprocess(ctx context.Context, subjectID string, start, end int64) (*models.RunSummary, error) {
	if end < start {
		return nil, fmt.Errorf("%w: end before start", ErrInvalidRequest)
	}

	return s.withLock(ctx, subjectID, func(log logrus.FieldLogger, summary *models.RunSummary) ([]models.Place, error) {
		var from, to, n int64
		err := database.Transaction(ctx, s.db, func(tx *sqlx.Tx) error {
			var err error
			from, to, err = visitWindow(ctx, repository.NewVisitRepository(tx), subjectID, start, end)
			if err != nil {
				return err
			}
			n, err = repository.NewTrackRepository(tx).ResetProcessed(ctx, subjectID, from, to)
			return err
		})
		if err != nil {
			return nil, err
		}
		log.WithFields(logrus.Fields{"points": n, "from": from, "to": to}).Info("Points reset for reprocessing")

		return s.run(ctx, log, subjectID, summary)
	})
}

// visitWindow widens [start, end] until no visit crosses either edge
func visitWindow(ctx context.Context, visits *repository.VisitRepository, subjectID string, start, end int64) (int64, int64, error) {
	for {
		from, to, ok, err := visits.OverlapSpan(ctx, subjectID, start, end)
		if err != nil {
			return 0, 0, err
		}
		if !ok || (from >= start && to <= end) {
			return start, end, nil
		}
		start, end = min(start, from), max(end, to)
	}
}

// Trigger starts a run in the background with the configured run timeout. Failures are logged.
func (s *PlaceDetectionService) Trigger(subjectID string) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), s.params.RunTimeout)
		defer cancel()

		if _, err := s.Process(ctx, subjectID); err != nil {
			entry := s.log.WithField("subject", subjectID).WithError(err)
			if errors.Is(err, lock.ErrLocked) {
				entry.Warn("Triggered run skipped, subject busy")
				return
			}
			entry.Error("Triggered run failed")
		}
	}()
}

// Wait blocks until all triggered runs and pending enrichments have finished
func (s *PlaceDetectionService) Wait() {
	s.wg.Wait()
}

func (s *PlaceDetectionService) withLock(ctx context.Context, subjectID string, fn func(logrus.FieldLogger, *models.RunSummary) ([]models.Place, error)) (*models.RunSummary, error) {
	if subjectID == "" {
		return nil, fmt.Errorf("%w: subject is required", ErrInvalidRequest)
	}

	summary := &models.RunSummary{RunID: uuid.NewString(), SubjectID: subjectID}
	log := s.log.WithFields(logrus.Fields{"subject": subjectID, "run_id": summary.RunID})

	unlock, err := s.locker.Lock(ctx, subjectID)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	created, err := fn(log, summary)
	unlock()

	if err != nil {
		log.WithError(err).Error("Processing run failed")
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"points":     summary.Points,
		"clusters":   summary.Clusters,
		"visits":     summary.Visits,
		"new_visits": summary.NewVisits,
		"new_places": summary.NewPlaces,
		"transient":  summary.Transient,
		"duration":   time.Since(start).String(),
	}).Info("Processing run finished")

	if len(created) > 0 && s.enricher != nil {
		s.enrichAsync(subjectID, created)
	}

	return summary, nil
}

// run processes batches until the backlog is exhausted. In a full batch the trailing cluster may
// continue past the batch end, so it is left unprocessed and read again with the next batch.
func (s *PlaceDetectionService) run(ctx context.Context, log logrus.FieldLogger, subjectID string, summary *models.RunSummary) ([]models.Place, error) {
	tracks := repository.NewTrackRepository(s.db)
	var created []models.Place

	for {
		if err := ctx.Err(); err != nil {
			return created, err
		}

		points, err := tracks.UnprocessedPoints(ctx, subjectID, s.params.BatchSize)
		if err != nil {
			return created, err
		}
		if len(points) == 0 {
			break
		}
		summary.Batches++

		clusters := analysis.DetectStays(points, s.params.Stay)
		full := len(points) >= s.params.BatchSize
		if full && len(clusters) > 1 {
			trailing := clusters[len(clusters)-1]
			clusters = clusters[:len(clusters)-1]
			summary.Carried += len(trailing.Points)
		}

		significant, transient := analysis.SignificantStays(clusters, s.params.MinStay)
		summary.Clusters += len(clusters)

		for _, c := range significant {
			place, isNew, inserted, err := s.recordStay(ctx, subjectID, c)
			if err != nil {
				return created, err
			}

			summary.Visits++
			summary.Points += len(c.Points)
			if inserted {
				summary.NewVisits++
			}
			if isNew {
				summary.NewPlaces++
				created = append(created, *place)
			}

			log.WithFields(logrus.Fields{
				"place_id": place.ID,
				"arrived":  c.StartTime,
				"minutes":  c.DurationMinutes(),
				"new":      inserted,
			}).Debug("Stay recorded")
		}

		// Transient points are consumed only once every stay of the batch is stored
		var consumed []int64
		for _, c := range transient {
			consumed = append(consumed, c.PointIDs()...)
			summary.Transient++
			summary.Points += len(c.Points)
		}
		if err := tracks.MarkProcessed(ctx, consumed); err != nil {
			return created, err
		}

		if !full {
			break
		}
	}

	return created, nil
}

// recordStay matches the cluster to a place, creating one if needed, records the visit and
// assigns the member points, all in one transaction
func (s *PlaceDetectionService) recordStay(ctx context.Context, subjectID string, c models.StayCluster) (place *models.Place, isNew, inserted bool, err error) {
	err = database.Transaction(ctx, s.db, func(tx *sqlx.Tx) error {
		places := repository.NewPlaceRepository(tx)
		visits := repository.NewVisitRepository(tx)
		tracks := repository.NewTrackRepository(tx)

		var err error
		place, err = places.Nearest(ctx, subjectID, c.CenterLat, c.CenterLon, s.params.MatchRadius)
		if err != nil {
			return err
		}
		isNew = place == nil
		if isNew {
			place, err = places.Create(ctx, &models.Place{
				SubjectID: subjectID,
				Latitude:  c.CenterLat,
				Longitude: c.CenterLon,
				RadiusM:   s.params.PlaceRadius,
			})
			if err != nil {
				return err
			}
		}

		departed := c.EndTime
		inserted, err = visits.Upsert(ctx, &models.Visit{
			SubjectID:       subjectID,
			PlaceID:         place.ID,
			ArrivedAt:       c.StartTime,
			DepartedAt:      &departed,
			DurationMinutes: c.DurationMinutes(),
			PointCount:      len(c.Points),
		})
		if err != nil {
			return err
		}

		if inserted {
			if err := places.IncrementVisitCount(ctx, place.ID); err != nil {
				return err
			}
		}

		return tracks.AssignPlace(ctx, c.PointIDs(), place.ID)
	})
	if err != nil {
		return nil, false, false, fmt.Errorf("failed to record stay: %w", err)
	}
	return place, isNew, inserted, nil
}

// enrichAsync annotates newly created places in the background. It runs after the run has
// committed and released its lock; failures only leave the place unannotated.
func (s *PlaceDetectionService) enrichAsync(subjectID string, places []models.Place) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), s.params.RunTimeout)
		defer cancel()

		s.enrich(ctx, subjectID, places)
	}()
}

func (s *PlaceDetectionService) enrich(ctx context.Context, subjectID string, places []models.Place) {
	repo := repository.NewPlaceRepository(s.db)

	for _, place := range places {
		log := s.log.WithFields(logrus.Fields{"subject": subjectID, "place_id": place.ID})

		suggestion, err := s.enricher.Suggest(ctx, place)
		if err != nil {
			log.WithError(err).Warn("Place enrichment failed")
			continue
		}
		if suggestion == nil || suggestion.Empty() {
			log.Debug("No enrichment found for place")
			continue
		}

		if err := repo.ApplySuggestion(ctx, subjectID, place.ID, *suggestion); err != nil {
			log.WithError(err).Warn("Failed to apply place enrichment")
			continue
		}
		log.Debug("Place enriched")
	}
}
