package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/jengzang/places-backend-go/internal/models"
	"github.com/jengzang/places-backend-go/internal/service"
	"github.com/jengzang/places-backend-go/pkg/response"
)

// ProcessingHandler handles synchronous processing runs
type ProcessingHandler struct {
	detectionService *service.PlaceDetectionService
}

// NewProcessingHandler creates a new processing handler
func NewProcessingHandler(detectionService *service.PlaceDetectionService) *ProcessingHandler {
	return &ProcessingHandler{detectionService: detectionService}
}

// Process handles POST /api/v1/subjects/:subject/process
func (h *ProcessingHandler) Process(c *gin.Context) {
	summary, err := h.detectionService.Process(c.Request.Context(), c.Param("subject"))
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, summary)
}

// Reprocess handles POST /api/v1/subjects/:subject/reprocess?start=&end=
func (h *ProcessingHandler) Reprocess(c *gin.Context) {
	var window models.WindowFilter
	if err := c.ShouldBindQuery(&window); err != nil {
		response.BadRequest(c, "Invalid time window")
		return
	}

	summary, err := h.detectionService.Reprocess(c.Request.Context(), c.Param("subject"), *window.StartTime, *window.EndTime)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, summary)
}
