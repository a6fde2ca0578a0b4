package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/jengzang/places-backend-go/internal/models"
	"github.com/jengzang/places-backend-go/internal/service"
	"github.com/jengzang/places-backend-go/pkg/response"
)

// PlaceHandler handles HTTP requests for places
type PlaceHandler struct {
	placeService *service.PlaceService
}

// NewPlaceHandler creates a new place handler
func NewPlaceHandler(placeService *service.PlaceService) *PlaceHandler {
	return &PlaceHandler{placeService: placeService}
}

// ListPlaces handles GET /api/v1/subjects/:subject/places
func (h *PlaceHandler) ListPlaces(c *gin.Context) {
	var filter models.PlaceFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}

	places, err := h.placeService.ListPlaces(c.Request.Context(), c.Param("subject"), filter)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, gin.H{
		"data":  places,
		"count": len(places),
	})
}

// GetPlace handles GET /api/v1/subjects/:subject/places/:id
func (h *PlaceHandler) GetPlace(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	place, err := h.placeService.GetPlace(c.Request.Context(), c.Param("subject"), id)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, place)
}

// NearestPlace handles GET /api/v1/subjects/:subject/places/nearest?lat=&lon=&radius=
// A missing match is not an error: data is null.
func (h *PlaceHandler) NearestPlace(c *gin.Context) {
	var filter models.NearestFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, "Invalid coordinates")
		return
	}

	place, err := h.placeService.NearestPlace(c.Request.Context(), c.Param("subject"), *filter.Latitude, *filter.Longitude, filter.Radius)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, gin.H{"place": place})
}

// LabelPlace handles PUT /api/v1/subjects/:subject/places/:id/label
func (h *PlaceHandler) LabelPlace(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var label models.PlaceLabel
	if err := c.ShouldBindJSON(&label); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	place, err := h.placeService.Label(c.Request.Context(), c.Param("subject"), id, label)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, place)
}

// EnrichPlace handles POST /api/v1/subjects/:subject/places/:id/enrichment
func (h *PlaceHandler) EnrichPlace(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var suggestion models.PlaceSuggestion
	if err := c.ShouldBindJSON(&suggestion); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	place, err := h.placeService.ApplyEnrichment(c.Request.Context(), c.Param("subject"), id, suggestion)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, place)
}
