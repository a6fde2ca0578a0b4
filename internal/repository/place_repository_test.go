package repository_test

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jengzang/places-backend-go/internal/models"
	"github.com/jengzang/places-backend-go/internal/repository"
	"github.com/jengzang/places-backend-go/internal/spatial"
)

func TestPlaceCreateAndGet(t *testing.T) {
	db := setupDB(t)
	repo := repository.NewPlaceRepository(db)
	ctx := context.Background()

	created, err := repo.Create(ctx, &models.Place{SubjectID: "alice", Latitude: 40.0, Longitude: -73.0})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Equal(t, repository.DefaultPlaceRadius, created.RadiusM)
	assert.Equal(t, spatial.EncodeGeohash(40.0, -73.0), created.Geohash)

	got, err := repo.GetByID(ctx, "alice", created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Geohash, got.Geohash)
	assert.Nil(t, got.Label)
	assert.Zero(t, got.VisitCount)

	_, err = repo.GetByID(ctx, "bob", created.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestPlaceNearest(t *testing.T) {
	db := setupDB(t)
	repo := repository.NewPlaceRepository(db)
	ctx := context.Background()

	lat30, lon30 := spatial.DestinationPoint(40.0, -73.0, 90, 30)
	lat45, lon45 := spatial.DestinationPoint(40.0, -73.0, 200, 45)
	lat80, lon80 := spatial.DestinationPoint(40.0, -73.0, 0, 80)

	far, err := repo.Create(ctx, &models.Place{SubjectID: "alice", Latitude: lat80, Longitude: lon80})
	require.NoError(t, err)
	mid, err := repo.Create(ctx, &models.Place{SubjectID: "alice", Latitude: lat45, Longitude: lon45})
	require.NoError(t, err)
	near, err := repo.Create(ctx, &models.Place{SubjectID: "alice", Latitude: lat30, Longitude: lon30})
	require.NoError(t, err)
	_, err = repo.Create(ctx, &models.Place{SubjectID: "bob", Latitude: 40.0, Longitude: -73.0})
	require.NoError(t, err)

	got, err := repo.Nearest(ctx, "alice", 40.0, -73.0, 50)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, near.ID, got.ID)
	require.NotNil(t, got.Distance)
	assert.InDelta(t, 30, *got.Distance, 0.01)

	got, err = repo.Nearest(ctx, "alice", 40.0, -73.0, 20)
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = repo.Nearest(ctx, "alice", lat80, lon80, 50)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, far.ID, got.ID)

	got, err = repo.Nearest(ctx, "alice", lat45, lon45, 10)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, mid.ID, got.ID)
}

func TestPlaceNearest_NearPoleAndAntimeridian(t *testing.T) {
	db := setupDB(t)
	repo := repository.NewPlaceRepository(db)
	ctx := context.Background()

	pole, err := repo.Create(ctx, &models.Place{SubjectID: "alice", Latitude: 89.9999, Longitude: 0})
	require.NoError(t, err)
	dateline, err := repo.Create(ctx, &models.Place{SubjectID: "alice", Latitude: 10, Longitude: 179.9999})
	require.NoError(t, err)

	// opposite meridian, about 22m across the pole
	got, err := repo.Nearest(ctx, "alice", 89.9999, 180, 50)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, pole.ID, got.ID)

	got, err = repo.Nearest(ctx, "alice", 10, -179.9999, 50)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, dateline.ID, got.ID)

	got, err = repo.Nearest(ctx, "bob", 89.9999, 180, 50)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestPlaceNearest_AcrossCellBoundary(t *testing.T) {
	db := setupDB(t)
	repo := repository.NewPlaceRepository(db)
	ctx := context.Background()

	// Probe points all around the place must find it even when they fall into a neighbour cell
	place, err := repo.Create(ctx, &models.Place{SubjectID: "alice", Latitude: 51.5074, Longitude: -0.1278})
	require.NoError(t, err)

	for bearing := 0.0; bearing < 360; bearing += 30 {
		lat, lon := spatial.DestinationPoint(place.Latitude, place.Longitude, bearing, 49)
		got, err := repo.Nearest(ctx, "alice", lat, lon, 50)
		require.NoError(t, err)
		require.NotNil(t, got, "bearing %.0f", bearing)
		assert.Equal(t, place.ID, got.ID)
	}
}

func TestPlaceLabelAndSuggestion(t *testing.T) {
	db := setupDB(t)
	repo := repository.NewPlaceRepository(db)
	ctx := context.Background()

	place, err := repo.Create(ctx, &models.Place{SubjectID: "alice", Latitude: 40.0, Longitude: -73.0})
	require.NoError(t, err)

	require.NoError(t, repo.UpdateLabel(ctx, "alice", place.ID, models.PlaceLabel{Label: strPtr("Home")}))

	err = repo.ApplySuggestion(ctx, "alice", place.ID, models.PlaceSuggestion{
		Label:    strPtr("Joe's Coffee"),
		Category: strPtr("CAFE"),
		Address:  strPtr("1 Main St"),
		Provider: strPtr("nominatim"),
	})
	require.NoError(t, err)

	got, err := repo.GetByID(ctx, "alice", place.ID)
	require.NoError(t, err)
	assert.Equal(t, "Home", *got.Label)
	assert.Equal(t, "CAFE", *got.Category)
	assert.Equal(t, "1 Main St", *got.Address)
	assert.Equal(t, "nominatim", *got.Provider)
	assert.Nil(t, got.ProviderID)

	// Human categories replace suggested ones, the label is untouched
	require.NoError(t, repo.UpdateLabel(ctx, "alice", place.ID, models.PlaceLabel{Category: strPtr(models.PlaceCategoryHome)}))
	got, err = repo.GetByID(ctx, "alice", place.ID)
	require.NoError(t, err)
	assert.Equal(t, "Home", *got.Label)
	assert.Equal(t, models.PlaceCategoryHome, *got.Category)

	assert.ErrorIs(t, repo.UpdateLabel(ctx, "bob", place.ID, models.PlaceLabel{Label: strPtr("x")}), repository.ErrNotFound)
	assert.ErrorIs(t, repo.ApplySuggestion(ctx, "alice", 9999, models.PlaceSuggestion{Label: strPtr("x")}), repository.ErrNotFound)
}

func TestPlaceList(t *testing.T) {
	db := setupDB(t)
	repo := repository.NewPlaceRepository(db)
	ctx := context.Background()

	a, err := repo.Create(ctx, &models.Place{SubjectID: "alice", Latitude: 40.0, Longitude: -73.0})
	require.NoError(t, err)
	b, err := repo.Create(ctx, &models.Place{SubjectID: "alice", Latitude: 41.0, Longitude: -73.0, Category: strPtr("WORK")})
	require.NoError(t, err)
	require.NoError(t, repo.IncrementVisitCount(ctx, b.ID))

	places, err := repo.List(ctx, "alice", models.PlaceFilter{})
	require.NoError(t, err)
	require.Len(t, places, 2)
	assert.Equal(t, b.ID, places[0].ID)
	assert.Equal(t, int64(1), places[0].VisitCount)
	assert.Equal(t, a.ID, places[1].ID)

	places, err = repo.List(ctx, "alice", models.PlaceFilter{Category: "WORK"})
	require.NoError(t, err)
	require.Len(t, places, 1)

	places, err = repo.List(ctx, "nobody", models.PlaceFilter{})
	require.NoError(t, err)
	assert.Empty(t, places)

	_, err = repo.List(ctx, "alice", models.PlaceFilter{OrderBy: "name; DROP TABLE places"})
	assert.Error(t, err)
}

func TestIncrementVisitCount_NotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := repository.NewPlaceRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE places SET visit_count = visit_count + 1")).
		WithArgs(sqlmock.AnyArg(), int64(42)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.IncrementVisitCount(context.Background(), 42)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlaceNearest_Error(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := repository.NewPlaceRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM places")).
		WillReturnError(assert.AnError)

	_, err := repo.Nearest(context.Background(), "alice", 40.0, -73.0, 50)
	assert.ErrorIs(t, err, assert.AnError)
}
