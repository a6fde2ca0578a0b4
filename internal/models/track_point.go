package models

// TrackPoint represents one raw GPS sample for a subject
type TrackPoint struct {
	ID         int64    `json:"id" db:"id"`
	SubjectID  string   `json:"subject_id" db:"subject_id"`
	Latitude   float64  `json:"latitude" db:"latitude"`
	Longitude  float64  `json:"longitude" db:"longitude"`
	Accuracy   *float64 `json:"accuracy,omitempty" db:"accuracy"`   // Meters
	Altitude   *float64 `json:"altitude,omitempty" db:"altitude"`   // Meters
	Speed      *float64 `json:"speed,omitempty" db:"speed"`         // m/s, as reported by the device
	Course     *float64 `json:"course,omitempty" db:"course"`       // Degrees from north
	CapturedAt int64    `json:"captured_at" db:"captured_at"`       // Unix timestamp in seconds (UTC)
	Timezone   *string  `json:"timezone,omitempty" db:"timezone"`   // IANA name, e.g. Europe/Berlin
	DeviceID   *string  `json:"device_id,omitempty" db:"device_id"`

	// Processing state
	PlaceID     *int64 `json:"place_id,omitempty" db:"place_id"`         // Null until the point is part of a visit
	ProcessedAt *int64 `json:"processed_at,omitempty" db:"processed_at"` // Null until consumed by a run

	CreatedAt int64 `json:"created_at" db:"created_at"`
}

// TrackPointInput is one sample as uploaded by a device
type TrackPointInput struct {
	Latitude   *float64 `json:"latitude" validate:"required,gte=-90,lte=90"`
	Longitude  *float64 `json:"longitude" validate:"required,gte=-180,lte=180"`
	Accuracy   *float64 `json:"accuracy" validate:"omitempty,gte=0"`
	Altitude   *float64 `json:"altitude"`
	Speed      *float64 `json:"speed" validate:"omitempty,gte=0"`
	Course     *float64 `json:"course" validate:"omitempty,gte=0,lt=360"`
	CapturedAt *int64   `json:"captured_at" validate:"required,gt=0"`
	Timezone   *string  `json:"timezone" validate:"omitempty,timezone"`
	DeviceID   *string  `json:"device_id" validate:"omitempty,max=128"`
}

// TrackPointBatch is the body of a point upload
type TrackPointBatch struct {
	Points []TrackPointInput `json:"points" validate:"required,min=1,max=10000,dive"`
}

// IngestResult reports how many samples of an upload were stored
type IngestResult struct {
	Received int   `json:"received"`
	Inserted int   `json:"inserted"`
	Skipped  int   `json:"skipped"` // Duplicates of already stored samples
	Pending  int64 `json:"pending"` // Unprocessed points of the subject after the upload
}
