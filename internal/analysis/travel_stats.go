package analysis

import (
	"time"

	"github.com/jengzang/places-backend-go/internal/models"
	"github.com/jengzang/places-backend-go/internal/spatial"
	"github.com/jengzang/places-backend-go/internal/stats"
)

// MovingSpeedThreshold is the reported speed (m/s) above which a sample counts as moving
const MovingSpeedThreshold = 0.5

// TravelParams controls travel statistics
type TravelParams struct {
	MovingThreshold float64       // Samples with speed above this are averaged
	MaxGap          time.Duration // Pairs further apart in time contribute no distance; 0 disables
}

// DefaultTravelParams returns the default parameters. No gap ceiling is applied so totals
// match what was historically reported.
func DefaultTravelParams() TravelParams {
	return TravelParams{MovingThreshold: MovingSpeedThreshold}
}

// ComputeTravelStats aggregates distance and speed over points, which must already be limited
// to the window [start, end]. Points are expected in time order.
func ComputeTravelStats(points []models.TrackPoint, start, end int64, params TravelParams) models.TravelStats {
	result := models.TravelStats{
		Start:      start,
		End:        end,
		PointCount: len(points),
	}
	if len(points) == 0 {
		return result
	}

	var moving []float64
	for i, p := range points {
		if p.Speed != nil {
			if *p.Speed > result.MaxSpeedMps {
				result.MaxSpeedMps = *p.Speed
			}
			if *p.Speed > params.MovingThreshold {
				moving = append(moving, *p.Speed)
			}
		}

		if i == 0 {
			continue
		}
		prev := points[i-1]
		if params.MaxGap > 0 && time.Duration(p.CapturedAt-prev.CapturedAt)*time.Second > params.MaxGap {
			result.GapsSkipped++
			continue
		}
		result.TotalDistanceMeters += spatial.HaversineDistance(prev.Latitude, prev.Longitude, p.Latitude, p.Longitude)
	}

	if len(moving) > 0 {
		var sum float64
		for _, v := range moving {
			sum += v
		}
		result.MovingSamples = len(moving)
		result.AvgMovingSpeedMps = sum / float64(len(moving))

		q := stats.Percentiles(moving, 50, 95)
		result.MedianMovingSpeedMps, result.P95MovingSpeedMps = q[0], q[1]
	}

	result.ElapsedSeconds = points[len(points)-1].CapturedAt - points[0].CapturedAt
	if result.ElapsedSeconds > 0 {
		result.ImpliedSpeedMps = result.TotalDistanceMeters / float64(result.ElapsedSeconds)
	}

	return result
}
