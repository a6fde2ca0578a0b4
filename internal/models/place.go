package models

// Place represents a recognized stay location of a subject
type Place struct {
	ID         int64    `json:"id" db:"id"`
	SubjectID  string   `json:"subject_id" db:"subject_id"`
	Label      *string  `json:"label,omitempty" db:"label"`       // Human label, never overwritten by enrichment
	Category   *string  `json:"category,omitempty" db:"category"` // HOME, WORK, CAFE, ...
	Latitude   float64  `json:"latitude" db:"latitude"`
	Longitude  float64  `json:"longitude" db:"longitude"`
	Geohash    string   `json:"geohash" db:"geohash"`
	RadiusM    float64  `json:"radius_m" db:"radius_m"`
	Address    *string  `json:"address,omitempty" db:"address"`
	Provider   *string  `json:"provider,omitempty" db:"provider"`       // External naming provider, e.g. nominatim
	ProviderID *string  `json:"provider_id,omitempty" db:"provider_id"` // Identifier at the provider
	VisitCount int64    `json:"visit_count" db:"visit_count"`
	Distance   *float64 `json:"distance_m,omitempty" db:"-"` // Set by nearest-place lookups

	CreatedAt int64 `json:"created_at" db:"created_at"`
	UpdatedAt int64 `json:"updated_at" db:"updated_at"`
}

// PlaceLabel is an externally supplied label and category
type PlaceLabel struct {
	Label    *string `json:"label" validate:"omitempty,max=200"`
	Category *string `json:"category" validate:"omitempty,max=64"`
}

// PlaceSuggestion carries enrichment suggestions for a place. Fields that are already set on
// the place are left untouched when a suggestion is applied.
type PlaceSuggestion struct {
	Label      *string `json:"label" validate:"omitempty,max=200"`
	Category   *string `json:"category" validate:"omitempty,max=64"`
	Address    *string `json:"address" validate:"omitempty,max=500"`
	Provider   *string `json:"provider" validate:"omitempty,max=64"`
	ProviderID *string `json:"provider_id" validate:"omitempty,max=128"`
}

// Empty reports whether the suggestion carries nothing to merge
func (s PlaceSuggestion) Empty() bool {
	return s.Label == nil && s.Category == nil && s.Address == nil && s.Provider == nil && s.ProviderID == nil
}

// Place categories
const (
	PlaceCategoryHome    = "HOME"
	PlaceCategoryWork    = "WORK"
	PlaceCategoryTransit = "TRANSIT"
	PlaceCategoryLeisure = "LEISURE"
)
