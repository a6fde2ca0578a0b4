package models

// TravelStats holds distance and speed aggregates over a time window
type TravelStats struct {
	SubjectID string `json:"subject_id"`
	Start     int64  `json:"start"` // Requested window, unix timestamps
	End       int64  `json:"end"`

	PointCount           int     `json:"point_count"`
	TotalDistanceMeters  float64 `json:"total_distance_m"`
	ElapsedSeconds       int64   `json:"elapsed_seconds"`   // Last minus first sample in the window
	ImpliedSpeedMps      float64 `json:"implied_speed_mps"` // Total distance / elapsed
	AvgMovingSpeedMps    float64 `json:"avg_moving_speed_mps"`
	MedianMovingSpeedMps float64 `json:"median_moving_speed_mps"`
	P95MovingSpeedMps    float64 `json:"p95_moving_speed_mps"`
	MaxSpeedMps          float64 `json:"max_speed_mps"`
	MovingSamples        int     `json:"moving_samples"`
	GapsSkipped          int     `json:"gaps_skipped"` // Pairs ignored because of the gap ceiling
}

// RunSummary reports the outcome of one processing run
type RunSummary struct {
	RunID     string `json:"run_id"`
	SubjectID string `json:"subject_id"`
	Points    int    `json:"points"`     // Points consumed
	Clusters  int    `json:"clusters"`   // Clusters closed
	Visits    int    `json:"visits"`     // Clusters recorded as visits
	NewVisits int    `json:"new_visits"` // Visits inserted (not conflict updates)
	NewPlaces int    `json:"new_places"`
	Transient int    `json:"transient"` // Clusters below the minimum stay
	Carried   int    `json:"carried"`   // Trailing points deferred to the next batch
	Batches   int    `json:"batches"`
}
