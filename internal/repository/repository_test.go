package repository_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jengzang/places-backend-go/internal/database"
	"github.com/jengzang/places-backend-go/internal/models"
	"github.com/jengzang/places-backend-go/internal/repository"
)

const baseTime = int64(1700000000)

func setupDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := database.Open(database.Config{Path: filepath.Join(t.TempDir(), "places.db")})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func setupMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	mockDB, mock, err := sqlmock.New()
	assert.NoError(t, err)
	db := sqlx.NewDb(mockDB, "sqlmock")
	return db, mock
}

func strPtr(s string) *string { return &s }

func floatPtr(f float64) *float64 { return &f }

func seedPoints(t *testing.T, repo *repository.TrackRepository, subject string, n int) {
	t.Helper()
	points := make([]models.TrackPoint, n)
	for i := range points {
		points[i] = models.TrackPoint{
			SubjectID:  subject,
			Latitude:   40.0,
			Longitude:  -73.0,
			CapturedAt: baseTime + int64(i)*60,
			Speed:      floatPtr(0.1),
		}
	}
	inserted, skipped, err := repo.InsertBatch(context.Background(), points)
	require.NoError(t, err)
	require.Equal(t, n, inserted)
	require.Zero(t, skipped)
}
