package analysis

import (
	"sort"
	"time"

	"github.com/jengzang/places-backend-go/internal/models"
	"github.com/jengzang/places-backend-go/internal/spatial"
)

// StayParams controls how consecutive points are linked into stays
type StayParams struct {
	Radius float64       // Max distance in meters between consecutive points
	MaxGap time.Duration // Max time between consecutive points
}

// DefaultStayParams returns the default linking thresholds (50m, 30min)
func DefaultStayParams() StayParams {
	return StayParams{
		Radius: 50,
		MaxGap: 30 * time.Minute,
	}
}

// DetectStays partitions points into stay clusters in a single pass over the time-ordered
// sequence. A point joins the current cluster when it is within Radius meters and MaxGap of
// the previous point; otherwise the cluster is closed and a new one starts. Every input point
// ends up in exactly one cluster.
//
// Points are compared only with their predecessor, never with the cluster center, so a slow
// drift inside a building stays one cluster. A short excursion beyond Radius always splits.
func DetectStays(points []models.TrackPoint, params StayParams) []models.StayCluster {
	if len(points) == 0 {
		return nil
	}

	sorted := make([]models.TrackPoint, len(points))
	copy(sorted, points)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CapturedAt < sorted[j].CapturedAt
	})

	var clusters []models.StayCluster
	current := []models.TrackPoint{sorted[0]}

	for i := 1; i < len(sorted); i++ {
		prev := sorted[i-1]
		curr := sorted[i]

		dist := spatial.HaversineDistance(prev.Latitude, prev.Longitude, curr.Latitude, curr.Longitude)
		gap := time.Duration(curr.CapturedAt-prev.CapturedAt) * time.Second

		if dist <= params.Radius && gap <= params.MaxGap {
			current = append(current, curr)
			continue
		}

		clusters = append(clusters, newStayCluster(current))
		current = []models.TrackPoint{curr}
	}
	clusters = append(clusters, newStayCluster(current))

	return clusters
}

// SignificantStays splits clusters into those lasting at least minStay and the rest
func SignificantStays(clusters []models.StayCluster, minStay time.Duration) (significant, transient []models.StayCluster) {
	for _, c := range clusters {
		if c.Duration() >= minStay {
			significant = append(significant, c)
		} else {
			transient = append(transient, c)
		}
	}
	return significant, transient
}

func newStayCluster(points []models.TrackPoint) models.StayCluster {
	coords := make([]spatial.Point, len(points))
	for i, p := range points {
		coords[i] = spatial.Point{Lat: p.Latitude, Lon: p.Longitude}
	}
	center := spatial.Centroid(coords)

	return models.StayCluster{
		Points:    points,
		CenterLat: center.Lat,
		CenterLon: center.Lon,
		StartTime: points[0].CapturedAt,
		EndTime:   points[len(points)-1].CapturedAt,
	}
}
