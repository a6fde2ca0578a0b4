package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/places-backend-go/internal/models"
	"github.com/jengzang/places-backend-go/internal/service"
	"github.com/jengzang/places-backend-go/pkg/response"
)

// TrackHandler handles HTTP requests for track points
type TrackHandler struct {
	trackService *service.TrackService
}

// NewTrackHandler creates a new track handler
func NewTrackHandler(trackService *service.TrackService) *TrackHandler {
	return &TrackHandler{
		trackService: trackService,
	}
}

// IngestPoints handles POST /api/v1/subjects/:subject/points
func (h *TrackHandler) IngestPoints(c *gin.Context) {
	var batch models.TrackPointBatch
	if err := c.ShouldBindJSON(&batch); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	result, err := h.trackService.Ingest(c.Request.Context(), c.Param("subject"), batch)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Accepted(c, result)
}

// GetUnprocessedPoints handles GET /api/v1/subjects/:subject/points/unprocessed
func (h *TrackHandler) GetUnprocessedPoints(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "1000"))
	if err != nil {
		response.BadRequest(c, "Invalid limit parameter")
		return
	}

	points, err := h.trackService.UnprocessedPoints(c.Request.Context(), c.Param("subject"), limit)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, gin.H{
		"data":  points,
		"count": len(points),
	})
}
