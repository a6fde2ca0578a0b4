package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/jengzang/places-backend-go/internal/models"
	"github.com/jengzang/places-backend-go/internal/service"
	"github.com/jengzang/places-backend-go/pkg/response"
)

// StatsHandler handles HTTP requests for statistics
type StatsHandler struct {
	statsService *service.StatsService
}

// NewStatsHandler creates a new stats handler
func NewStatsHandler(statsService *service.StatsService) *StatsHandler {
	return &StatsHandler{statsService: statsService}
}

// GetTravelStats handles GET /api/v1/subjects/:subject/stats/travel?start=&end=
func (h *StatsHandler) GetTravelStats(c *gin.Context) {
	var window models.WindowFilter
	if err := c.ShouldBindQuery(&window); err != nil {
		response.BadRequest(c, "Invalid time window")
		return
	}

	stats, err := h.statsService.TravelStats(c.Request.Context(), c.Param("subject"), *window.StartTime, *window.EndTime)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, stats)
}
