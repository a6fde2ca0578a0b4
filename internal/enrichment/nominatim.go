// Package enrichment suggests names and categories for places from a reverse geocoder.
package enrichment

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jengzang/places-backend-go/internal/models"
)

// Enricher suggests annotations for a place. A nil suggestion means nothing useful was found.
type Enricher interface {
	Suggest(ctx context.Context, place models.Place) (*models.PlaceSuggestion, error)
}

// ProviderNominatim is stored as the provider of suggestions made by NominatimClient
const ProviderNominatim = "nominatim"

// NominatimClient reverse geocodes places with the Nominatim API. Requests are spaced at least
// minInterval apart as required by the public instance's usage policy.
type NominatimClient struct {
	baseURL     string
	userAgent   string
	minInterval time.Duration
	httpClient  *http.Client

	rateMu      sync.Mutex
	lastRequest time.Time
}

// NewNominatimClient creates a new Nominatim client
func NewNominatimClient(baseURL, userAgent string, timeout, minInterval time.Duration) *NominatimClient {
	return &NominatimClient{
		baseURL:     strings.TrimRight(baseURL, "/"),
		userAgent:   userAgent,
		minInterval: minInterval,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type nominatimResponse struct {
	PlaceID     int64   `json:"place_id"`
	OSMType     string  `json:"osm_type"`
	OSMID       int64   `json:"osm_id"`
	Name        string  `json:"name"`
	DisplayName string  `json:"display_name"`
	Category    string  `json:"category"`
	Type        string  `json:"type"`
	Address     address `json:"address"`
	Error       string  `json:"error"`
}

type address struct {
	Amenity  string `json:"amenity,omitempty"`
	Shop     string `json:"shop,omitempty"`
	Tourism  string `json:"tourism,omitempty"`
	Leisure  string `json:"leisure,omitempty"`
	Building string `json:"building,omitempty"`
}

// Suggest reverse geocodes the place center
func (c *NominatimClient) Suggest(ctx context.Context, place models.Place) (*models.PlaceSuggestion, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	reqURL := fmt.Sprintf("%s/reverse?lat=%.6f&lon=%.6f&format=jsonv2&zoom=18&addressdetails=1",
		c.baseURL, place.Latitude, place.Longitude)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build nominatim request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("nominatim request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("nominatim returned status %d", resp.StatusCode)
	}

	var nr nominatimResponse
	if err := json.NewDecoder(resp.Body).Decode(&nr); err != nil {
		return nil, fmt.Errorf("failed to parse nominatim response: %w", err)
	}
	if nr.Error != "" {
		return nil, nil
	}

	return toSuggestion(nr), nil
}

// wait blocks until the next request slot
func (c *NominatimClient) wait(ctx context.Context) error {
	c.rateMu.Lock()
	defer c.rateMu.Unlock()

	if elapsed := time.Since(c.lastRequest); elapsed < c.minInterval {
		timer := time.NewTimer(c.minInterval - elapsed)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	c.lastRequest = time.Now()
	return nil
}

func toSuggestion(nr nominatimResponse) *models.PlaceSuggestion {
	var s models.PlaceSuggestion

	if name := placeName(nr); name != "" {
		s.Label = &name
	}
	if category := placeCategory(nr.Category, nr.Type); category != "" {
		s.Category = &category
	}
	if nr.DisplayName != "" {
		addr := nr.DisplayName
		s.Address = &addr
	}

	if s.Empty() {
		return nil
	}

	provider := ProviderNominatim
	s.Provider = &provider
	if nr.OSMType != "" && nr.OSMID != 0 {
		id := nr.OSMType + "/" + strconv.FormatInt(nr.OSMID, 10)
		s.ProviderID = &id
	} else if nr.PlaceID != 0 {
		id := strconv.FormatInt(nr.PlaceID, 10)
		s.ProviderID = &id
	}

	return &s
}

// placeName picks the most specific name. Plain street addresses are not used as labels.
func placeName(nr nominatimResponse) string {
	if nr.Name != "" {
		return nr.Name
	}

	addr := nr.Address
	for _, candidate := range []string{addr.Amenity, addr.Shop, addr.Tourism, addr.Leisure} {
		if candidate != "" {
			return candidate
		}
	}
	if addr.Building != "" && addr.Building != "yes" {
		return addr.Building
	}
	return ""
}

// placeCategory maps an OSM class and type to one of the place categories, falling back to the
// upper-cased type
func placeCategory(class, typ string) string {
	if typ == "" || typ == "yes" {
		return ""
	}

	switch {
	case class == "building" && (typ == "house" || typ == "residential" || typ == "apartments" || typ == "detached"),
		class == "place" && typ == "house":
		return models.PlaceCategoryHome
	case class == "office", class == "building" && (typ == "office" || typ == "commercial"):
		return models.PlaceCategoryWork
	case class == "railway", class == "public_transport", typ == "bus_stop", typ == "bus_station", typ == "station":
		return models.PlaceCategoryTransit
	case class == "leisure", class == "tourism":
		return models.PlaceCategoryLeisure
	}
	return strings.ToUpper(typ)
}
