package models

// Visit represents one continuous stay of a subject at a place
type Visit struct {
	ID              int64  `json:"id" db:"id"`
	SubjectID       string `json:"subject_id" db:"subject_id"`
	PlaceID         int64  `json:"place_id" db:"place_id"`
	ArrivedAt       int64  `json:"arrived_at" db:"arrived_at"`               // Unix timestamp
	DepartedAt      *int64 `json:"departed_at,omitempty" db:"departed_at"`   // Unix timestamp
	DurationMinutes int64  `json:"duration_minutes" db:"duration_minutes"`
	PointCount      int    `json:"point_count" db:"point_count"`

	CreatedAt int64 `json:"created_at" db:"created_at"`
	UpdatedAt int64 `json:"updated_at" db:"updated_at"`
}
