package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jengzang/places-backend-go/internal/analysis"
	"github.com/jengzang/places-backend-go/internal/models"
)

func floatPtr(v float64) *float64 { return &v }

func int64Ptr(v int64) *int64 { return &v }

func validInput(ts int64) models.TrackPointInput {
	return models.TrackPointInput{
		Latitude:   floatPtr(40.0),
		Longitude:  floatPtr(-73.0),
		Accuracy:   floatPtr(8),
		Speed:      floatPtr(0.3),
		CapturedAt: int64Ptr(ts),
		Timezone:   strPtr("UTC"),
	}
}

func TestIngest_StoresAndTriggers(t *testing.T) {
	f := newFixture(t, nil, DefaultDetectionParams())
	trigger := &mockTrigger{}
	trigger.On("Trigger", subject).Once()
	svc := NewTrackService(f.db, trigger, f.logger)
	ctx := context.Background()

	batch := models.TrackPointBatch{Points: []models.TrackPointInput{validInput(baseTime), validInput(baseTime + 60)}}

	result, err := svc.Ingest(ctx, subject, batch)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Received)
	assert.Equal(t, 2, result.Inserted)
	assert.Zero(t, result.Skipped)
	assert.Equal(t, int64(2), result.Pending)

	// a re-upload stores nothing and does not trigger
	result, err = svc.Ingest(ctx, subject, batch)
	require.NoError(t, err)
	assert.Zero(t, result.Inserted)
	assert.Equal(t, 2, result.Skipped)
	assert.Equal(t, int64(2), result.Pending)

	trigger.AssertExpectations(t)

	points, err := svc.UnprocessedPoints(ctx, subject, 0)
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, 8.0, *points[0].Accuracy)
}

func TestIngest_RejectsWholeBatch(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(in *models.TrackPointInput)
	}{
		{name: "Latitude out of range", mutate: func(in *models.TrackPointInput) { in.Latitude = floatPtr(91) }},
		{name: "Longitude out of range", mutate: func(in *models.TrackPointInput) { in.Longitude = floatPtr(-180.5) }},
		{name: "Missing latitude", mutate: func(in *models.TrackPointInput) { in.Latitude = nil }},
		{name: "Missing timestamp", mutate: func(in *models.TrackPointInput) { in.CapturedAt = nil }},
		{name: "Negative speed", mutate: func(in *models.TrackPointInput) { in.Speed = floatPtr(-1) }},
		{name: "Unknown timezone", mutate: func(in *models.TrackPointInput) { in.Timezone = strPtr("Mars/Olympus") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil, DefaultDetectionParams())
			svc := NewTrackService(f.db, nil, f.logger)
			ctx := context.Background()

			bad := validInput(baseTime + 60)
			tt.mutate(&bad)
			batch := models.TrackPointBatch{Points: []models.TrackPointInput{validInput(baseTime), bad}}

			_, err := svc.Ingest(ctx, subject, batch)
			assert.ErrorIs(t, err, ErrInvalidBatch)

			count, err := f.tracks.CountUnprocessed(ctx, subject)
			require.NoError(t, err)
			assert.Zero(t, count)
		})
	}
}

func TestIngest_EmptyBatchAndSubject(t *testing.T) {
	f := newFixture(t, nil, DefaultDetectionParams())
	svc := NewTrackService(f.db, nil, f.logger)

	_, err := svc.Ingest(context.Background(), subject, models.TrackPointBatch{})
	assert.ErrorIs(t, err, ErrInvalidBatch)

	_, err = svc.Ingest(context.Background(), "", models.TrackPointBatch{Points: []models.TrackPointInput{validInput(baseTime)}})
	assert.ErrorIs(t, err, ErrInvalidBatch)
}

func TestIngestThenTriggeredRun(t *testing.T) {
	f := newFixture(t, nil, DefaultDetectionParams())
	svc := NewTrackService(f.db, f.detection, f.logger)
	ctx := context.Background()

	var inputs []models.TrackPointInput
	for i := int64(0); i < 10; i++ {
		inputs = append(inputs, validInput(baseTime+i*60))
	}
	_, err := svc.Ingest(ctx, subject, models.TrackPointBatch{Points: inputs})
	require.NoError(t, err)
	f.detection.Wait()

	visits, err := f.visits.List(ctx, subject, models.VisitFilter{})
	require.NoError(t, err)
	require.Len(t, visits, 1)
	assert.Equal(t, int64(9), visits[0].DurationMinutes)
}

func TestTravelStats(t *testing.T) {
	f := newFixture(t, nil, DefaultDetectionParams())
	svc := NewStatsService(f.tracks, analysis.DefaultTravelParams())
	ctx := context.Background()

	lat2, lon2 := secondLocation()
	f.insert(t, []models.TrackPoint{
		{SubjectID: subject, Latitude: 40.0, Longitude: -73.0, CapturedAt: baseTime, Speed: floatPtr(1.0)},
		{SubjectID: subject, Latitude: lat2, Longitude: lon2, CapturedAt: baseTime + 1000, Speed: floatPtr(3.0)},
		{SubjectID: subject, Latitude: 41.0, Longitude: -73.0, CapturedAt: baseTime + 5000},
	})

	stats, err := svc.TravelStats(ctx, subject, baseTime, baseTime+1000)
	require.NoError(t, err)
	assert.Equal(t, subject, stats.SubjectID)
	assert.Equal(t, 2, stats.PointCount)
	assert.InDelta(t, 2000, stats.TotalDistanceMeters, 0.01)
	assert.InDelta(t, 2.0, stats.ImpliedSpeedMps, 1e-4)
	assert.Equal(t, 3.0, stats.MaxSpeedMps)
	assert.InDelta(t, 2.0, stats.AvgMovingSpeedMps, 1e-9)

	_, err = svc.TravelStats(ctx, subject, baseTime+10, baseTime)
	assert.ErrorIs(t, err, ErrInvalidRequest)

	empty, err := svc.TravelStats(ctx, "nobody", baseTime, baseTime+1000)
	require.NoError(t, err)
	assert.Zero(t, empty.PointCount)
}
