package analysis

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jengzang/places-backend-go/internal/models"
	"github.com/jengzang/places-backend-go/internal/spatial"
)

const baseTime = int64(1700000000)

func makePoints(startID int64, lat, lon float64, start int64, count int, step time.Duration) []models.TrackPoint {
	points := make([]models.TrackPoint, count)
	for i := 0; i < count; i++ {
		points[i] = models.TrackPoint{
			ID:         startID + int64(i),
			SubjectID:  "alice",
			Latitude:   lat,
			Longitude:  lon,
			CapturedAt: start + int64(i)*int64(step/time.Second),
		}
	}
	return points
}

func TestDetectStays_TwoLocations(t *testing.T) {
	first := makePoints(1, 40.0, -73.0, baseTime, 10, time.Minute)

	lat2, lon2 := spatial.DestinationPoint(40.0, -73.0, 90, 2000)
	second := makePoints(11, lat2, lon2, baseTime+10*60, 6, time.Minute)

	clusters := DetectStays(append(first, second...), DefaultStayParams())
	require.Len(t, clusters, 2)

	assert.Equal(t, int64(9), clusters[0].DurationMinutes())
	assert.Equal(t, int64(5), clusters[1].DurationMinutes())
	assert.Len(t, clusters[0].Points, 10)
	assert.Len(t, clusters[1].Points, 6)
	assert.InDelta(t, 40.0, clusters[0].CenterLat, 1e-9)
	assert.InDelta(t, -73.0, clusters[0].CenterLon, 1e-9)

	significant, transient := SignificantStays(clusters, 5*time.Minute)
	assert.Len(t, significant, 2)
	assert.Empty(t, transient)
}

func TestDetectStays_ShortStayIsTransient(t *testing.T) {
	points := []models.TrackPoint{
		{ID: 1, Latitude: 40.0, Longitude: -73.0, CapturedAt: baseTime},
		{ID: 2, Latitude: 40.00005, Longitude: -73.0, CapturedAt: baseTime + 60},
		{ID: 3, Latitude: 40.00005, Longitude: -73.00005, CapturedAt: baseTime + 120},
	}

	clusters := DetectStays(points, DefaultStayParams())
	require.Len(t, clusters, 1)
	assert.Equal(t, int64(2), clusters[0].DurationMinutes())

	significant, transient := SignificantStays(clusters, 5*time.Minute)
	assert.Empty(t, significant)
	require.Len(t, transient, 1)
	assert.Equal(t, []int64{1, 2, 3}, transient[0].PointIDs())
}

func TestDetectStays_TimeGapSplitsSamePlace(t *testing.T) {
	monday := makePoints(1, 40.0, -73.0, baseTime, 10, time.Minute)
	tuesday := makePoints(11, 40.0, -73.0, baseTime+24*3600, 10, time.Minute)

	clusters := DetectStays(append(monday, tuesday...), DefaultStayParams())
	require.Len(t, clusters, 2)
	assert.Equal(t, baseTime+24*3600, clusters[1].StartTime)
}

func TestDetectStays_LinksOnPreviousPointNotCenter(t *testing.T) {
	// 40m steps: each pair links although the walk ends far from where it began
	var points []models.TrackPoint
	lat, lon := 40.0, -73.0
	for i := 0; i < 10; i++ {
		points = append(points, models.TrackPoint{ID: int64(i + 1), Latitude: lat, Longitude: lon, CapturedAt: baseTime + int64(i)*60})
		lat, lon = spatial.DestinationPoint(lat, lon, 0, 40)
	}

	clusters := DetectStays(points, DefaultStayParams())
	require.Len(t, clusters, 1)
	assert.Greater(t, spatial.HaversineDistance(points[0].Latitude, points[0].Longitude, points[9].Latitude, points[9].Longitude), 300.0)
}

func TestDetectStays_SortsByTime(t *testing.T) {
	points := makePoints(1, 40.0, -73.0, baseTime, 6, time.Minute)
	shuffled := []models.TrackPoint{points[3], points[0], points[5], points[1], points[4], points[2]}

	clusters := DetectStays(shuffled, DefaultStayParams())
	require.Len(t, clusters, 1)
	assert.Equal(t, []int64{1, 2, 3, 4, 5, 6}, clusters[0].PointIDs())
	assert.Equal(t, baseTime, clusters[0].StartTime)
	assert.Equal(t, baseTime+300, clusters[0].EndTime)
}

func TestDetectStays_Empty(t *testing.T) {
	assert.Nil(t, DetectStays(nil, DefaultStayParams()))
}

func TestDetectStays_SinglePoint(t *testing.T) {
	clusters := DetectStays(makePoints(1, 40.0, -73.0, baseTime, 1, time.Minute), DefaultStayParams())
	require.Len(t, clusters, 1)
	assert.Zero(t, clusters[0].Duration())
}

func TestDetectStays_PartitionAndConsecutiveRule(t *testing.T) {
	params := DefaultStayParams()
	rng := rand.New(rand.NewSource(42))

	for run := 0; run < 20; run++ {
		var points []models.TrackPoint
		lat, lon := 40.0, -73.0
		ts := baseTime
		for i := 0; i < 200; i++ {
			points = append(points, models.TrackPoint{ID: int64(i + 1), Latitude: lat, Longitude: lon, CapturedAt: ts})
			lat, lon = spatial.DestinationPoint(lat, lon, rng.Float64()*360, rng.Float64()*90)
			ts += int64(rng.Intn(45*60) + 1)
		}

		clusters := DetectStays(points, params)

		seen := make(map[int64]int)
		for _, c := range clusters {
			for _, p := range c.Points {
				seen[p.ID]++
			}
		}
		require.Len(t, seen, len(points))
		for id, n := range seen {
			require.Equal(t, 1, n, "point %d", id)
		}

		linked := func(a, b models.TrackPoint) bool {
			d := spatial.HaversineDistance(a.Latitude, a.Longitude, b.Latitude, b.Longitude)
			return d <= params.Radius && time.Duration(b.CapturedAt-a.CapturedAt)*time.Second <= params.MaxGap
		}

		for ci, c := range clusters {
			for i := 1; i < len(c.Points); i++ {
				assert.True(t, linked(c.Points[i-1], c.Points[i]))
			}
			if ci > 0 {
				prev := clusters[ci-1]
				assert.False(t, linked(prev.Points[len(prev.Points)-1], c.Points[0]))
			}
		}
	}
}
