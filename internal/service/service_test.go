package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jengzang/places-backend-go/internal/database"
	"github.com/jengzang/places-backend-go/internal/lock"
	"github.com/jengzang/places-backend-go/internal/models"
	"github.com/jengzang/places-backend-go/internal/repository"
	"github.com/jengzang/places-backend-go/internal/spatial"
)

const (
	subject  = "alice"
	baseTime = int64(1700000000)
)

type mockEnricher struct {
	mock.Mock
}

func (m *mockEnricher) Suggest(ctx context.Context, place models.Place) (*models.PlaceSuggestion, error) {
	args := m.Called(ctx, place)
	s, _ := args.Get(0).(*models.PlaceSuggestion)
	return s, args.Error(1)
}

type mockTrigger struct {
	mock.Mock
}

func (m *mockTrigger) Trigger(subjectID string) {
	m.Called(subjectID)
}

type fixture struct {
	db        *sqlx.DB
	detection *PlaceDetectionService
	tracks    *repository.TrackRepository
	places    *repository.PlaceRepository
	visits    *repository.VisitRepository
	locker    *lock.MemoryLocker
	logger    *logrus.Logger
	hook      *test.Hook
}

func newFixture(t *testing.T, enricher *mockEnricher, params DetectionParams) *fixture {
	t.Helper()

	db, err := database.Open(database.Config{Path: filepath.Join(t.TempDir(), "places.db")})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	locker := lock.NewMemoryLocker(0)

	f := &fixture{
		db:     db,
		tracks: repository.NewTrackRepository(db),
		places: repository.NewPlaceRepository(db),
		visits: repository.NewVisitRepository(db),
		locker: locker,
		logger: logger,
		hook:   hook,
	}
	if enricher != nil {
		f.detection = NewPlaceDetectionService(db, locker, enricher, params, logger)
	} else {
		f.detection = NewPlaceDetectionService(db, locker, nil, params, logger)
	}
	return f
}

// stay builds count samples one minute apart at (lat, lon)
func stay(lat, lon float64, start int64, count int) []models.TrackPoint {
	points := make([]models.TrackPoint, count)
	for i := range points {
		points[i] = models.TrackPoint{
			SubjectID:  subject,
			Latitude:   lat,
			Longitude:  lon,
			CapturedAt: start + int64(i)*60,
		}
	}
	return points
}

func (f *fixture) insert(t *testing.T, points ...[]models.TrackPoint) {
	t.Helper()
	var all []models.TrackPoint
	for _, p := range points {
		all = append(all, p...)
	}
	_, _, err := f.tracks.InsertBatch(context.Background(), all)
	require.NoError(t, err)
}

// requireCountersMatchVisits checks every place's counter against its visit rows
func (f *fixture) requireCountersMatchVisits(t *testing.T) {
	t.Helper()
	places, err := f.places.List(context.Background(), subject, models.PlaceFilter{})
	require.NoError(t, err)
	for _, p := range places {
		var n int64
		require.NoError(t, f.db.Get(&n, `SELECT COUNT(*) FROM visits WHERE place_id = ?`, p.ID))
		require.Equal(t, n, p.VisitCount, "place %d", p.ID)
	}
}

func secondLocation() (float64, float64) {
	return spatial.DestinationPoint(40.0, -73.0, 90, 2000)
}

func waitShort() time.Duration { return 2 * time.Second }
