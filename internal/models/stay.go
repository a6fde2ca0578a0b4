package models

import (
	"math"
	"time"
)

// StayCluster is a maximal run of time-ordered points that are close in space and time.
// It only lives for the duration of one processing run.
type StayCluster struct {
	Points    []TrackPoint
	CenterLat float64
	CenterLon float64
	StartTime int64 // Unix timestamp of the first member
	EndTime   int64 // Unix timestamp of the last member
}

// Duration returns end - start
func (c StayCluster) Duration() time.Duration {
	return time.Duration(c.EndTime-c.StartTime) * time.Second
}

// DurationMinutes returns the duration rounded to whole minutes
func (c StayCluster) DurationMinutes() int64 {
	return int64(math.Round(c.Duration().Minutes()))
}

// PointIDs returns the ids of all member points
func (c StayCluster) PointIDs() []int64 {
	ids := make([]int64, len(c.Points))
	for i, p := range c.Points {
		ids[i] = p.ID
	}
	return ids
}
