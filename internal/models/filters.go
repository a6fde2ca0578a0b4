package models

// VisitFilter represents filter parameters for querying visits
type VisitFilter struct {
	StartTime int64 `form:"start"`   // Unix timestamp, arrivals at or after
	EndTime   int64 `form:"end"`     // Unix timestamp, arrivals at or before
	PlaceID   int64 `form:"placeId"`
	Limit     int   `form:"limit"`
	Offset    int   `form:"offset"`
}

// PlaceFilter represents filter parameters for listing places
type PlaceFilter struct {
	Category string `form:"category"`
	OrderBy  string `form:"orderBy"` // visits, recent
	Limit    int    `form:"limit"`
	Offset   int    `form:"offset"`
}

// WindowFilter is a closed time window [Start, End]. Pointers keep start=0 a valid bound.
type WindowFilter struct {
	StartTime *int64 `form:"start" binding:"required,gte=0"`
	EndTime   *int64 `form:"end" binding:"required,gte=0"`
}

// NearestFilter is a nearest-place query
type NearestFilter struct {
	Latitude  *float64 `form:"lat" binding:"required,gte=-90,lte=90"`
	Longitude *float64 `form:"lon" binding:"required,gte=-180,lte=180"`
	Radius    float64  `form:"radius" binding:"omitempty,gt=0,lte=10000"`
}
